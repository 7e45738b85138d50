package service

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/rs/zerolog"

	"studentdash/internal/chart"
	"studentdash/internal/dataset"
	"studentdash/internal/metrics"
	"studentdash/internal/model"
	"studentdash/internal/operation"
	"studentdash/internal/query"
)

// ErrNotChart is returned when a non-chart operation is asked to render.
var ErrNotChart = errors.New("operation has no chart")

// chartCacheTTL bounds how long a rendered PNG is kept.
const chartCacheTTL = 10 * time.Minute

// Result is the outcome of one dashboard operation. Only the fields that
// belong to the operation's kind are populated.
type Result struct {
	Operation    string               `json:"operation"`
	Label        string               `json:"label"`
	Input        string               `json:"input,omitempty"`
	Found        bool                 `json:"found"`
	Count        int                  `json:"count"`
	Message      string               `json:"message"`
	Students     []model.Student      `json:"students"`
	Points       []model.ScatterPoint `json:"points,omitempty"`
	Distribution map[string]int       `json:"distribution,omitempty"`
	Slices       []model.ClassCount   `json:"slices,omitempty"`
}

type handlerFunc func(d dataset.Dataset, raw string) (*Result, error)

// handlers is the static operation → implementation table.
var handlers = [operation.Count]handlerFunc{
	operation.ViewDataset:           viewDataset,
	operation.SearchByID:            searchByID,
	operation.SearchByName:          searchByName,
	operation.FilterByMinMarks:      filterByMarks,
	operation.FilterByMinAttendance: filterByAttendance,
	operation.ScatterPlot:           scatterPlot,
	operation.PieChart:              pieChart,
}

// DashboardService runs operations against one injected, immutable dataset.
// It is safe for concurrent use.
type DashboardService struct {
	data    dataset.Dataset
	metrics *metrics.Metrics
	log     zerolog.Logger
	render  chart.RenderOptions
	charts  *ttlcache.Cache[operation.Operation, []byte]
}

func NewDashboardService(data dataset.Dataset, m *metrics.Metrics, log zerolog.Logger, render chart.RenderOptions) *DashboardService {
	if m != nil {
		m.Dataset.Set(float64(data.Len()))
	}
	return &DashboardService{
		data:    data,
		metrics: m,
		log:     log.With().Str("component", "dashboard").Logger(),
		render:  render,
		charts: ttlcache.New[operation.Operation, []byte](
			ttlcache.WithTTL[operation.Operation, []byte](chartCacheTTL),
		),
	}
}

// Operations lists the menu in display order.
func (s *DashboardService) Operations() []operation.Descriptor {
	ops := operation.All()
	out := make([]operation.Descriptor, len(ops))
	for i, op := range ops {
		out[i] = op.Describe()
	}
	return out
}

// Preview returns the first n records.
func (s *DashboardService) Preview(n int) []model.Student {
	return query.Head(s.data, n)
}

// Size is the number of loaded records.
func (s *DashboardService) Size() int {
	return s.data.Len()
}

// Execute runs op with its single raw input. An empty input falls back to
// the operation's default. Malformed input yields *query.ValidationError;
// an empty result is not an error.
func (s *DashboardService) Execute(op operation.Operation, raw string) (*Result, error) {
	if !op.Valid() {
		return nil, fmt.Errorf("%w: %d", operation.ErrUnknown, int(op))
	}
	started := time.Now()
	desc := op.Describe()

	raw = strings.TrimSpace(raw)
	if raw == "" && desc.Default != "" {
		raw = desc.Default
	}

	res, err := handlers[op](s.data, raw)
	if err != nil {
		outcome := metrics.OutcomeError
		var ve *query.ValidationError
		if errors.As(err, &ve) {
			outcome = metrics.OutcomeInvalid
		}
		s.metrics.Observe(desc.Slug, outcome, started)
		s.log.Debug().Err(err).Str("operation", desc.Slug).Str("input", raw).Msg("Operation rejected")
		return nil, err
	}

	res.Operation = desc.Slug
	res.Label = desc.Label
	if desc.Input != operation.InputNone {
		res.Input = raw
	}
	res.Found = res.Count > 0

	outcome := metrics.OutcomeOK
	if !res.Found {
		outcome = metrics.OutcomeEmpty
	}
	s.metrics.Observe(desc.Slug, outcome, started)
	s.log.Debug().Str("operation", desc.Slug).Int("count", res.Count).Dur("took", time.Since(started)).Msg("Operation executed")
	return res, nil
}

// RenderChart writes the PNG for a chart operation. The dataset never
// changes, so rendered images are cached.
func (s *DashboardService) RenderChart(op operation.Operation, w io.Writer) error {
	if item := s.charts.Get(op); item != nil {
		_, err := w.Write(item.Value())
		return err
	}

	var (
		buf bytes.Buffer
		err error
	)
	switch op {
	case operation.ScatterPlot:
		err = chart.RenderScatter(&buf, chart.ToScatterPoints(s.data), s.render)
	case operation.PieChart:
		err = chart.RenderPie(&buf, chart.SortedDistribution(chart.ToClassDistribution(s.data)), s.render)
	default:
		return fmt.Errorf("%w: %s", ErrNotChart, op)
	}
	if err != nil {
		return err
	}

	s.charts.Set(op, buf.Bytes(), ttlcache.DefaultTTL)
	s.log.Debug().Str("operation", op.Slug()).Int("bytes", buf.Len()).Msg("Chart rendered")
	_, err = w.Write(buf.Bytes())
	return err
}

func viewDataset(d dataset.Dataset, _ string) (*Result, error) {
	students := query.ListAll(d)
	return studentsResult(students, "Full Dataset", "Dataset is empty"), nil
}

func searchByID(d dataset.Dataset, raw string) (*Result, error) {
	id, err := query.ParseID(raw)
	if err != nil {
		return nil, err
	}
	return studentsResult(query.FindByID(d, id), "Student Found", "Student Not Found"), nil
}

func searchByName(d dataset.Dataset, raw string) (*Result, error) {
	keyword, err := query.ParseKeyword(raw)
	if err != nil {
		return nil, err
	}
	return studentsResult(query.SearchByName(d, keyword), "Match Found", "No matching student found"), nil
}

func filterByMarks(d dataset.Dataset, raw string) (*Result, error) {
	threshold, err := query.ParseThreshold("marks", raw)
	if err != nil {
		return nil, err
	}
	msg := "Showing students with marks ≥ " + formatNumber(threshold)
	return studentsResult(query.FilterByMinMarks(d, threshold), msg, msg), nil
}

func filterByAttendance(d dataset.Dataset, raw string) (*Result, error) {
	threshold, err := query.ParseThreshold("attendance", raw)
	if err != nil {
		return nil, err
	}
	msg := "Showing students with attendance ≥ " + formatNumber(threshold) + "%"
	return studentsResult(query.FilterByMinAttendance(d, threshold), msg, msg), nil
}

func scatterPlot(d dataset.Dataset, _ string) (*Result, error) {
	points := chart.ToScatterPoints(d)
	return &Result{Count: len(points), Message: chart.ScatterTitle, Points: points}, nil
}

func pieChart(d dataset.Dataset, _ string) (*Result, error) {
	dist := chart.ToClassDistribution(d)
	return &Result{
		Count:        len(dist),
		Message:      chart.PieTitle,
		Distribution: dist,
		Slices:       chart.SortedDistribution(dist),
	}, nil
}

func studentsResult(students []model.Student, found, notFound string) *Result {
	msg := found
	if len(students) == 0 {
		msg = notFound
	}
	return &Result{Count: len(students), Message: msg, Students: students}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
