package chart

import (
	"errors"
	"fmt"
	"io"
	"math"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"studentdash/internal/model"
)

// ErrNoData is returned when there is nothing to draw.
var ErrNoData = errors.New("chart: no data to render")

const (
	ScatterTitle = "Student Performance (Marks vs Attendance)"
	PieTitle     = "Class-wise Student Distribution"
)

// Series palette, one colour per class in first-seen order.
var palette = []string{
	"4F46E5", "10B981", "F59E0B", "EF4444", "8B5CF6",
	"06B6D4", "EC4899", "84CC16", "F97316", "6366F1",
}

// RenderOptions sizes the output image in pixels.
type RenderOptions struct {
	Width  int
	Height int
}

func (o RenderOptions) withDefaults() RenderOptions {
	if o.Width <= 0 {
		o.Width = 900
	}
	if o.Height <= 0 {
		o.Height = 600
	}
	return o
}

// RenderScatter draws marks (x) against attendance (y) as a PNG, one
// coloured series per class, dot size following marks and each dot
// labelled with the student's name.
func RenderScatter(w io.Writer, points []model.ScatterPoint, opts RenderOptions) error {
	if len(points) == 0 {
		return ErrNoData
	}
	opts = opts.withDefaults()

	order, grouped := groupPoints(points)
	series := make([]gochart.Series, 0, len(order)+1)
	for i, group := range order {
		members := grouped[group]
		xs := make([]float64, len(members))
		ys := make([]float64, len(members))
		sizes := make([]float64, len(members))
		for j, p := range members {
			xs[j], ys[j], sizes[j] = p.X, p.Y, p.Size
		}

		series = append(series, gochart.ContinuousSeries{
			Name: group,
			Style: gochart.Style{
				StrokeWidth: gochart.Disabled,
				DotColor:    seriesColor(i),
				DotWidth:    dotWidth(0),
				DotWidthProvider: func(_, _ gochart.Range, index int, _, _ float64) float64 {
					return dotWidth(sizes[index])
				},
			},
			XValues: xs,
			YValues: ys,
		})
	}

	labels := make([]gochart.Value2, 0, len(points))
	for _, p := range points {
		labels = append(labels, gochart.Value2{XValue: p.X, YValue: p.Y, Label: p.Label})
	}
	series = append(series, gochart.AnnotationSeries{Annotations: labels})

	xMin, xMax, yMin, yMax := bounds(points)
	graph := gochart.Chart{
		Title:      ScatterTitle,
		Width:      opts.Width,
		Height:     opts.Height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20}},
		XAxis:      gochart.XAxis{Name: "Marks", Range: &gochart.ContinuousRange{Min: xMin, Max: xMax}},
		YAxis:      gochart.YAxis{Name: "Attendance", Range: &gochart.ContinuousRange{Min: yMin, Max: yMax}},
		Series:     series,
	}
	graph.Elements = []gochart.Renderable{gochart.Legend(&graph)}

	if err := graph.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("render scatter: %w", err)
	}
	return nil
}

// RenderPie draws the class distribution as a PNG pie chart.
func RenderPie(w io.Writer, slices []model.ClassCount, opts RenderOptions) error {
	values := make([]gochart.Value, 0, len(slices))
	for i, s := range slices {
		if s.Count <= 0 {
			continue
		}
		values = append(values, gochart.Value{
			Value: float64(s.Count),
			Label: fmt.Sprintf("%s (%.1f%%)", s.Class, s.Percent),
			Style: gochart.Style{FillColor: seriesColor(i)},
		})
	}
	if len(values) == 0 {
		return ErrNoData
	}
	opts = opts.withDefaults()

	pie := gochart.PieChart{
		Title:  PieTitle,
		Width:  opts.Width,
		Height: opts.Height,
		Values: values,
	}
	if err := pie.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("render pie: %w", err)
	}
	return nil
}

func seriesColor(i int) drawing.Color {
	return drawing.ColorFromHex(palette[i%len(palette)])
}

// dotWidth scales a 0–100 mark into a 3–13px dot.
func dotWidth(size float64) float64 {
	return 3 + math.Max(0, math.Min(size, 100))/10
}

// bounds returns axis ranges covering 0–100 and any out-of-range values,
// which also keeps single-point charts from collapsing to a zero range.
func bounds(points []model.ScatterPoint) (xMin, xMax, yMin, yMax float64) {
	xMin, xMax, yMin, yMax = 0, 100, 0, 100
	for _, p := range points {
		xMin, xMax = math.Min(xMin, p.X), math.Max(xMax, p.X)
		yMin, yMax = math.Min(yMin, p.Y), math.Max(yMax, p.Y)
	}
	return xMin, xMax, yMin, yMax
}
