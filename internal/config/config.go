package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds all application configuration. Values come from the
// environment (optionally a .env file) and can be overridden by CLI flags.
type Config struct {
	DatasetSource string `mapstructure:"DATASET_SOURCE" validate:"oneof=csv database"`
	DatasetPath   string `mapstructure:"DATASET_PATH" validate:"required_if=DatasetSource csv"`

	ServerPort      string        `mapstructure:"SERVER_PORT" validate:"required,numeric"`
	AllowedOrigins  []string      `mapstructure:"ALLOWED_ORIGINS"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT" validate:"gt=0"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT" validate:"oneof=pretty json"`

	DBDriver    string `mapstructure:"DB_DRIVER" validate:"oneof=sqlite postgres"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBHost      string `mapstructure:"DB_HOST"`
	DBUser      string `mapstructure:"DB_USER"`
	DBPassword  string `mapstructure:"DB_PASSWORD"`
	DBName      string `mapstructure:"DB_NAME"`
	DBPort      string `mapstructure:"DB_PORT"`

	ChartWidth  int    `mapstructure:"CHART_WIDTH" validate:"gt=0"`
	ChartHeight int    `mapstructure:"CHART_HEIGHT" validate:"gt=0"`
	ChartDir    string `mapstructure:"CHART_DIR"`

	ImportBatchSize int `mapstructure:"IMPORT_BATCH_SIZE" validate:"gt=0"`
}

// flagKeys maps CLI flag names to configuration keys.
var flagKeys = map[string]string{
	"dataset":   "DATASET_PATH",
	"source":    "DATASET_SOURCE",
	"log-level": "LOG_LEVEL",
	"port":      "SERVER_PORT",
	"db-driver": "DB_DRIVER",
	"chart-dir": "CHART_DIR",
}

var defaults = map[string]interface{}{
	"DATASET_SOURCE":    "csv",
	"DATASET_PATH":      "student_perf.csv",
	"SERVER_PORT":       "8080",
	"ALLOWED_ORIGINS":   []string{"http://localhost:3000"},
	"SHUTDOWN_TIMEOUT":  5 * time.Second,
	"LOG_LEVEL":         "info",
	"LOG_FORMAT":        "pretty",
	"DB_DRIVER":         "sqlite",
	"DATABASE_URL":      "",
	"DB_HOST":           "localhost",
	"DB_USER":           "",
	"DB_PASSWORD":       "",
	"DB_NAME":           "studentdb",
	"DB_PORT":           "5432",
	"CHART_WIDTH":       900,
	"CHART_HEIGHT":      600,
	"CHART_DIR":         "",
	"IMPORT_BATCH_SIZE": 1000,
}

// Load reads configuration. A .env file is loaded if present but its
// absence is not an error. flags may be nil.
func Load(flags *pflag.FlagSet) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.AllowedOrigins = trimOrigins(cfg.AllowedOrigins)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// DSN returns the database connection string. For postgres it is built
// from the DB_* parts when DATABASE_URL is empty.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	if c.DBDriver == "postgres" {
		return "host=" + c.DBHost + " user=" + c.DBUser + " password=" + c.DBPassword +
			" dbname=" + c.DBName + " port=" + c.DBPort + " sslmode=disable"
	}
	return "studentdash.db"
}

// trimOrigins drops blanks so "a, b," and "a,b" mean the same thing.
func trimOrigins(raw []string) []string {
	origins := make([]string, 0, len(raw))
	for _, o := range raw {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
