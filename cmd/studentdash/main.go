package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"

	"studentdash/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
