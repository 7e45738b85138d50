package handler

import (
	"errors"
	"io"
	"net/http"

	"studentdash/internal/chart"
	"studentdash/internal/model"
	"studentdash/internal/operation"
	"studentdash/internal/query"
	"studentdash/internal/response"
	"studentdash/internal/service"
)

// Dashboard is the subset of service.DashboardService the HTTP handlers
// depend on.
type Dashboard interface {
	Operations() []operation.Descriptor
	Execute(op operation.Operation, raw string) (*service.Result, error)
	Preview(n int) []model.Student
	RenderChart(op operation.Operation, w io.Writer) error
}

// execute runs op and writes either the result or a mapped error.
func execute(d Dashboard, w http.ResponseWriter, r *http.Request, op operation.Operation, raw string) {
	result, err := d.Execute(op, raw)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Success(w, r, http.StatusOK, result)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *query.ValidationError
	switch {
	case errors.As(err, &ve):
		response.FailWithFields(w, r, http.StatusBadRequest, response.ErrValidation, ve.Fields())
	case errors.Is(err, operation.ErrUnknown), errors.Is(err, service.ErrNotChart):
		response.Fail(w, r, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, chart.ErrNoData):
		response.Fail(w, r, http.StatusNotFound, response.ErrNoData)
	default:
		response.Fail(w, r, http.StatusInternalServerError, response.ErrInternal)
	}
}
