package handler

import (
	"bytes"
	"net/http"
	"strconv"

	"studentdash/internal/operation"
)

type ChartHandler struct {
	dashboard Dashboard
}

func NewChartHandler(dashboard Dashboard) *ChartHandler {
	return &ChartHandler{dashboard: dashboard}
}

// Scatter returns the scatter points as JSON.
func (h *ChartHandler) Scatter(w http.ResponseWriter, r *http.Request) {
	execute(h.dashboard, w, r, operation.ScatterPlot, "")
}

// Pie returns the class distribution as JSON.
func (h *ChartHandler) Pie(w http.ResponseWriter, r *http.Request) {
	execute(h.dashboard, w, r, operation.PieChart, "")
}

func (h *ChartHandler) ScatterPNG(w http.ResponseWriter, r *http.Request) {
	h.png(w, r, operation.ScatterPlot)
}

func (h *ChartHandler) PiePNG(w http.ResponseWriter, r *http.Request) {
	h.png(w, r, operation.PieChart)
}

// png renders into memory first so a render failure can still be reported
// as a JSON error.
func (h *ChartHandler) png(w http.ResponseWriter, r *http.Request, op operation.Operation) {
	var buf bytes.Buffer
	if err := h.dashboard.RenderChart(op, &buf); err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
