package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studentdash/internal/chart"
	"studentdash/internal/dataset"
	"studentdash/internal/metrics"
	"studentdash/internal/model"
	"studentdash/internal/operation"
	"studentdash/internal/query"
)

func sampleData() dataset.Dataset {
	return dataset.New([]model.Student{
		{StudentID: 1, Name: "Ann", Class: "A", Marks: 80, Attendance: 90},
		{StudentID: 2, Name: "Bob", Class: "B", Marks: 40, Attendance: 60},
		{StudentID: 3, Name: "Amy", Class: "A", Marks: 90, Attendance: 95},
	})
}

func newTestDashboard(data dataset.Dataset) (*DashboardService, *metrics.Metrics) {
	m := metrics.New()
	return NewDashboardService(data, m, zerolog.Nop(), chart.RenderOptions{Width: 600, Height: 400}), m
}

func TestEveryOperationHasHandler(t *testing.T) {
	for _, op := range operation.All() {
		assert.NotNil(t, handlers[op], "no handler for %s", op.Slug())
	}
}

func TestExecute(t *testing.T) {
	s, _ := newTestDashboard(sampleData())

	tests := []struct {
		name      string
		op        operation.Operation
		raw       string
		wantCount int
		wantFound bool
		wantMsg   string
		wantInput string
	}{
		{"View dataset", operation.ViewDataset, "", 3, true, "Full Dataset", ""},
		{"ID found", operation.SearchByID, "2", 1, true, "Student Found", "2"},
		{"ID not found", operation.SearchByID, "9", 0, false, "Student Not Found", "9"},
		{"Name found", operation.SearchByName, "a", 2, true, "Match Found", "a"},
		{"Name not found", operation.SearchByName, "zed", 0, false, "No matching student found", "zed"},
		{"Marks default", operation.FilterByMinMarks, "", 2, true, "Showing students with marks ≥ 50", "50"},
		{"Marks explicit", operation.FilterByMinMarks, "85.5", 1, true, "Showing students with marks ≥ 85.5", "85.5"},
		{"Attendance default", operation.FilterByMinAttendance, "  ", 2, true, "Showing students with attendance ≥ 75%", "75"},
		{"Attendance none match", operation.FilterByMinAttendance, "99", 0, false, "Showing students with attendance ≥ 99%", "99"},
		{"Scatter", operation.ScatterPlot, "", 3, true, chart.ScatterTitle, ""},
		{"Pie", operation.PieChart, "", 2, true, chart.PieTitle, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.Execute(tt.op, tt.raw)
			require.NoError(t, err)

			assert.Equal(t, tt.op.Slug(), res.Operation)
			assert.Equal(t, tt.op.String(), res.Label)
			assert.Equal(t, tt.wantCount, res.Count)
			assert.Equal(t, tt.wantFound, res.Found)
			assert.Equal(t, tt.wantMsg, res.Message)
			assert.Equal(t, tt.wantInput, res.Input)
		})
	}
}

func TestExecutePayloads(t *testing.T) {
	s, _ := newTestDashboard(sampleData())

	res, err := s.Execute(operation.FilterByMinMarks, "50")
	require.NoError(t, err)
	require.Len(t, res.Students, 2)
	assert.Equal(t, "Ann", res.Students[0].Name)
	assert.Equal(t, "Amy", res.Students[1].Name)

	res, err = s.Execute(operation.PieChart, "")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"A": 2, "B": 1}, res.Distribution)
	require.Len(t, res.Slices, 2)
	assert.Equal(t, "A", res.Slices[0].Class)

	res, err = s.Execute(operation.ScatterPlot, "")
	require.NoError(t, err)
	assert.Len(t, res.Points, 3)
}

func TestNoMatchesEncodeEmptyStudents(t *testing.T) {
	s, _ := newTestDashboard(sampleData())

	for _, tt := range []struct {
		op  operation.Operation
		raw string
	}{
		{operation.SearchByID, "9"},
		{operation.SearchByName, "zed"},
		{operation.FilterByMinMarks, "100"},
	} {
		res, err := s.Execute(tt.op, tt.raw)
		require.NoError(t, err)

		raw, err := json.Marshal(res)
		require.NoError(t, err)
		assert.Contains(t, string(raw), `"students":[]`, tt.op.Slug())
	}
}

func TestExecuteValidation(t *testing.T) {
	s, m := newTestDashboard(sampleData())

	tests := []struct {
		op    operation.Operation
		raw   string
		field string
	}{
		{operation.SearchByID, "abc", "id"},
		{operation.SearchByID, "", "id"},
		{operation.FilterByMinMarks, "high", "marks"},
		{operation.FilterByMinAttendance, "NaN", "attendance"},
	}

	for _, tt := range tests {
		_, err := s.Execute(tt.op, tt.raw)
		var ve *query.ValidationError
		require.True(t, errors.As(err, &ve), "%s %q", tt.op.Slug(), tt.raw)
		assert.Equal(t, tt.field, ve.Field)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Operations.WithLabelValues("search-by-id", metrics.OutcomeInvalid)))
}

func TestExecuteUnknownOperation(t *testing.T) {
	s, _ := newTestDashboard(sampleData())

	_, err := s.Execute(operation.Operation(42), "")
	assert.ErrorIs(t, err, operation.ErrUnknown)

	_, err = s.Execute(operation.Count, "")
	assert.ErrorIs(t, err, operation.ErrUnknown)
}

func TestExecuteEmptyDataset(t *testing.T) {
	s, m := newTestDashboard(dataset.New(nil))

	for _, op := range operation.All() {
		raw := ""
		if op == operation.SearchByID {
			raw = "1"
		}
		res, err := s.Execute(op, raw)
		require.NoError(t, err, op.Slug())
		assert.False(t, res.Found, op.Slug())
		assert.Zero(t, res.Count, op.Slug())
	}

	res, err := s.Execute(operation.ViewDataset, "")
	require.NoError(t, err)
	assert.Equal(t, "Dataset is empty", res.Message)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Dataset))
}

func TestMetricsRecorded(t *testing.T) {
	s, m := newTestDashboard(sampleData())

	_, _ = s.Execute(operation.SearchByID, "1")
	_, _ = s.Execute(operation.SearchByID, "9")
	_, _ = s.Execute(operation.SearchByID, "9")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("search-by-id", metrics.OutcomeOK)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Operations.WithLabelValues("search-by-id", metrics.OutcomeEmpty)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Dataset))
}

func TestNilMetrics(t *testing.T) {
	s := NewDashboardService(sampleData(), nil, zerolog.Nop(), chart.RenderOptions{})

	res, err := s.Execute(operation.ViewDataset, "")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Count)
}

func TestOperationsAndPreview(t *testing.T) {
	s, _ := newTestDashboard(sampleData())

	ops := s.Operations()
	require.Len(t, ops, int(operation.Count))
	assert.Equal(t, "view-dataset", ops[0].Slug)
	assert.Equal(t, operation.PieChart, ops[len(ops)-1].Operation)

	assert.Len(t, s.Preview(2), 2)
	assert.Len(t, s.Preview(10), 3)
	assert.Equal(t, 3, s.Size())
}

func TestRenderChart(t *testing.T) {
	s, _ := newTestDashboard(sampleData())

	var buf bytes.Buffer
	require.NoError(t, s.RenderChart(operation.ScatterPlot, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))

	buf.Reset()
	require.NoError(t, s.RenderChart(operation.PieChart, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))

	assert.ErrorIs(t, s.RenderChart(operation.ViewDataset, &buf), ErrNotChart)

	empty, _ := newTestDashboard(dataset.New(nil))
	assert.ErrorIs(t, empty.RenderChart(operation.PieChart, &buf), chart.ErrNoData)
}

func TestRenderChartCached(t *testing.T) {
	s, _ := newTestDashboard(sampleData())

	var first, second bytes.Buffer
	require.NoError(t, s.RenderChart(operation.PieChart, &first))
	assert.NotNil(t, s.charts.Get(operation.PieChart))
	assert.Nil(t, s.charts.Get(operation.ScatterPlot))

	require.NoError(t, s.RenderChart(operation.PieChart, &second))
	assert.Equal(t, first.Bytes(), second.Bytes())
}
