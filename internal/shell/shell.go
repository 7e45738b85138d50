package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog"

	"studentdash/internal/chart"
	"studentdash/internal/model"
	"studentdash/internal/operation"
	"studentdash/internal/query"
	"studentdash/internal/service"
)

const previewSize = 5

// Dashboard is what the menu needs from service.DashboardService.
type Dashboard interface {
	Operations() []operation.Descriptor
	Execute(op operation.Operation, raw string) (*service.Result, error)
	Preview(n int) []model.Student
	RenderChart(op operation.Operation, w io.Writer) error
}

var (
	titleColor   = color.New(color.FgCyan, color.Bold)
	headingColor = color.New(color.FgBlue, color.Bold)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
)

// Shell is the interactive numbered menu.
type Shell struct {
	dashboard Dashboard
	in        io.Reader
	out       io.Writer
	chartDir  string
	log       zerolog.Logger
}

// New creates a shell reading choices from in. When chartDir is not empty
// chart operations also write PNG files there.
func New(dashboard Dashboard, in io.Reader, out io.Writer, chartDir string, log zerolog.Logger) *Shell {
	return &Shell{
		dashboard: dashboard,
		in:        in,
		out:       out,
		chartDir:  chartDir,
		log:       log.With().Str("component", "shell").Logger(),
	}
}

// Run shows the dataset preview and then loops over the menu until the
// user exits, input ends or ctx is cancelled.
//
// Input is read on a separate goroutine. When Run returns before input ends
// that goroutine stays blocked in Read until the reader returns, so callers
// embedding a Shell should close its input after Run.
func (s *Shell) Run(ctx context.Context) error {
	ctx, stop := context.WithCancel(ctx)
	defer stop()
	lines := scanLines(ctx, s.in)

	titleColor.Fprintln(s.out, "Student Performance Dashboard")
	fmt.Fprintln(s.out, "Interactive analytics for marks & attendance")
	headingColor.Fprintln(s.out, "Dataset Preview")
	s.printStudents(s.dashboard.Preview(previewSize))

	ops := s.dashboard.Operations()
	for {
		s.printMenu(ops)
		choice, ok := next(ctx, lines)
		if !ok {
			return ctx.Err()
		}
		choice = strings.TrimSpace(choice)
		if choice == "" {
			continue
		}
		if isExit(choice) {
			fmt.Fprintln(s.out, "Goodbye.")
			return nil
		}

		op, err := resolve(choice)
		if err != nil {
			errorColor.Fprintf(s.out, "Invalid choice %q\n", choice)
			continue
		}

		raw := ""
		if desc := op.Describe(); desc.Input != operation.InputNone {
			prompt := desc.Prompt
			if desc.Default != "" {
				prompt += " [" + desc.Default + "]"
			}
			fmt.Fprintf(s.out, "%s: ", prompt)
			if raw, ok = next(ctx, lines); !ok {
				return ctx.Err()
			}
		}

		s.run(op, raw)
	}
}

func (s *Shell) run(op operation.Operation, raw string) {
	result, err := s.dashboard.Execute(op, raw)
	if err != nil {
		var ve *query.ValidationError
		if errors.As(err, &ve) {
			errorColor.Fprintln(s.out, ve.Message)
			return
		}
		s.log.Error().Err(err).Str("operation", op.Slug()).Msg("Operation failed")
		errorColor.Fprintln(s.out, "Operation failed:", err)
		return
	}

	headingColor.Fprintln(s.out, result.Label)
	if result.Found {
		successColor.Fprintln(s.out, result.Message)
	} else {
		warnColor.Fprintln(s.out, result.Message)
	}

	switch op {
	case operation.ScatterPlot:
		s.printPoints(result.Points)
		s.saveChart(op, result)
	case operation.PieChart:
		s.printSlices(result.Slices)
		s.saveChart(op, result)
	default:
		if result.Found {
			s.printStudents(result.Students)
		}
	}
}

func (s *Shell) saveChart(op operation.Operation, result *service.Result) {
	if s.chartDir == "" || !result.Found {
		return
	}
	if err := os.MkdirAll(s.chartDir, 0o755); err != nil {
		errorColor.Fprintln(s.out, "Cannot create chart directory:", err)
		return
	}

	path := filepath.Join(s.chartDir, op.Slug()+".png")
	f, err := os.Create(path)
	if err != nil {
		errorColor.Fprintln(s.out, "Cannot create chart file:", err)
		return
	}
	defer f.Close()

	if err := s.dashboard.RenderChart(op, f); err != nil {
		if errors.Is(err, chart.ErrNoData) {
			warnColor.Fprintln(s.out, "Nothing to plot")
			return
		}
		errorColor.Fprintln(s.out, "Cannot render chart:", err)
		return
	}
	successColor.Fprintln(s.out, "Saved chart to", path)
}

func (s *Shell) printMenu(ops []operation.Descriptor) {
	fmt.Fprintln(s.out)
	headingColor.Fprintln(s.out, "Choose an operation")
	for i, d := range ops {
		fmt.Fprintf(s.out, "%d. %s\n", i+1, d.Label)
	}
	fmt.Fprintln(s.out, "0. Exit")
	fmt.Fprint(s.out, "> ")
}

func (s *Shell) printStudents(students []model.Student) {
	table := tablewriter.NewWriter(s.out)
	table.SetHeader([]string{"Student ID", "Name", "Class", "Marks", "Attendance"})
	for _, st := range students {
		table.Append([]string{
			strconv.Itoa(st.StudentID),
			st.Name,
			st.Class,
			formatFloat(st.Marks),
			formatFloat(st.Attendance),
		})
	}
	table.Render()
}

func (s *Shell) printPoints(points []model.ScatterPoint) {
	table := tablewriter.NewWriter(s.out)
	table.SetHeader([]string{"Class", "Name", "Marks", "Attendance"})
	for _, p := range points {
		table.Append([]string{p.Group, p.Label, formatFloat(p.X), formatFloat(p.Y)})
	}
	table.Render()
}

func (s *Shell) printSlices(slices []model.ClassCount) {
	table := tablewriter.NewWriter(s.out)
	table.SetHeader([]string{"Class", "Students", "Share"})
	for _, c := range slices {
		table.Append([]string{c.Class, strconv.Itoa(c.Count), formatFloat(c.Percent) + "%"})
	}
	table.Render()
}

func resolve(choice string) (operation.Operation, error) {
	if n, err := strconv.Atoi(choice); err == nil {
		return operation.FromMenu(n)
	}
	return operation.Parse(choice)
}

func isExit(choice string) bool {
	switch strings.ToLower(choice) {
	case "0", "q", "quit", "exit":
		return true
	}
	return false
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// scanLines feeds lines from r into a channel that is closed at EOF or once
// ctx is done and the next line has been read.
func scanLines(ctx context.Context, r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

// next returns false when input ended or ctx was cancelled.
func next(ctx context.Context, lines <-chan string) (string, bool) {
	select {
	case line, ok := <-lines:
		return line, ok
	case <-ctx.Done():
		return "", false
	}
}
