package shell_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studentdash/internal/chart"
	"studentdash/internal/dataset"
	"studentdash/internal/model"
	"studentdash/internal/service"
	"studentdash/internal/shell"
)

func init() {
	color.NoColor = true
}

func newDashboard(records []model.Student) *service.DashboardService {
	return service.NewDashboardService(dataset.New(records), nil, zerolog.Nop(), chart.RenderOptions{Width: 600, Height: 400})
}

func sampleRecords() []model.Student {
	return []model.Student{
		{StudentID: 1, Name: "Ann", Class: "A", Marks: 80, Attendance: 90},
		{StudentID: 2, Name: "Bob", Class: "B", Marks: 40, Attendance: 60},
		{StudentID: 3, Name: "Amy", Class: "A", Marks: 90, Attendance: 95},
	}
}

func run(t *testing.T, input, chartDir string) string {
	t.Helper()
	var out bytes.Buffer
	sh := shell.New(newDashboard(sampleRecords()), strings.NewReader(input), &out, chartDir, zerolog.Nop())
	require.NoError(t, sh.Run(context.Background()))
	return out.String()
}

func TestPreviewShownFirst(t *testing.T) {
	out := run(t, "0\n", "")

	preview := strings.Index(out, "Dataset Preview")
	menu := strings.Index(out, "Choose an operation")
	require.GreaterOrEqual(t, preview, 0)
	assert.Less(t, preview, menu)
	assert.Contains(t, out, "Ann")
	assert.Contains(t, out, "1. View Dataset")
	assert.Contains(t, out, "7. Pie Chart (Class Distribution)")
	assert.Contains(t, out, "Goodbye.")
}

func TestSearchByID(t *testing.T) {
	out := run(t, "2\n2\n2\n9\nq\n", "")

	assert.Contains(t, out, "Enter Student ID: ")
	assert.Contains(t, out, "Student Found")
	assert.Contains(t, out, "Bob")
	assert.Contains(t, out, "Student Not Found")
}

func TestInvalidInputKeepsRunning(t *testing.T) {
	out := run(t, "2\nabc\n42\nfilter-by-marks\nlots\n0\n", "")

	assert.Contains(t, out, "id must be an integer")
	assert.Contains(t, out, `Invalid choice "42"`)
	assert.Contains(t, out, "marks must be a finite number")
	assert.Contains(t, out, "Goodbye.")
}

func TestFilterDefaults(t *testing.T) {
	out := run(t, "4\n\n5\n\nexit\n", "")

	assert.Contains(t, out, "Select Minimum Marks [50]: ")
	assert.Contains(t, out, "Showing students with marks ≥ 50")
	assert.Contains(t, out, "Select Minimum Attendance % [75]: ")
	assert.Contains(t, out, "Showing students with attendance ≥ 75%")
}

func TestSearchByName(t *testing.T) {
	out := run(t, "3\nam\n3\nzed\n0\n", "")

	assert.Contains(t, out, "Match Found")
	assert.Contains(t, out, "Amy")
	assert.Contains(t, out, "No matching student found")
}

func TestChartsWritePNG(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "charts")
	out := run(t, "6\n7\n0\n", dir)

	assert.Contains(t, out, chart.ScatterTitle)
	assert.Contains(t, out, chart.PieTitle)
	assert.Contains(t, out, "66.67%")

	for _, name := range []string{"scatter-plot.png", "pie-chart.png"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")), name)
	}
}

func TestChartsWithoutDirWriteNothing(t *testing.T) {
	out := run(t, "7\n0\n", "")
	assert.NotContains(t, out, "Saved chart")
}

func TestEmptyDataset(t *testing.T) {
	var out bytes.Buffer
	sh := shell.New(newDashboard(nil), strings.NewReader("1\n6\n0\n"), &out, t.TempDir(), zerolog.Nop())
	require.NoError(t, sh.Run(context.Background()))

	assert.Contains(t, out.String(), "Dataset is empty")
	assert.NotContains(t, out.String(), "Saved chart")
}

func TestEndOfInputExits(t *testing.T) {
	out := run(t, "1\n", "")
	assert.Contains(t, out, "Full Dataset")
}

func TestContextCancelStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	reader, writer := io.Pipe()
	defer writer.Close()

	var out bytes.Buffer
	sh := shell.New(newDashboard(sampleRecords()), reader, &out, "", zerolog.Nop())

	done := make(chan error, 1)
	go func() { done <- sh.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("shell did not stop after cancel")
	}
}
