package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"studentdash/internal/operation"
	"studentdash/internal/query"
	"studentdash/internal/response"
)

const defaultPreviewSize = 5

type StudentHandler struct {
	dashboard Dashboard
}

func NewStudentHandler(dashboard Dashboard) *StudentHandler {
	return &StudentHandler{dashboard: dashboard}
}

// ListStudents returns the full dataset.
func (h *StudentHandler) ListStudents(w http.ResponseWriter, r *http.Request) {
	execute(h.dashboard, w, r, operation.ViewDataset, "")
}

// PreviewStudents returns the first n records (default 5).
func (h *StudentHandler) PreviewStudents(w http.ResponseWriter, r *http.Request) {
	n, err := query.ParseCount(r.URL.Query().Get("n"), defaultPreviewSize)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Success(w, r, http.StatusOK, h.dashboard.Preview(n))
}

// GetStudent returns every record with the ID in the path. No match is an
// empty result, not a 404.
func (h *StudentHandler) GetStudent(w http.ResponseWriter, r *http.Request) {
	execute(h.dashboard, w, r, operation.SearchByID, mux.Vars(r)["id"])
}

// SearchStudents matches ?name= case-insensitively.
func (h *StudentHandler) SearchStudents(w http.ResponseWriter, r *http.Request) {
	execute(h.dashboard, w, r, operation.SearchByName, r.URL.Query().Get("name"))
}

// FilterByMarks keeps students with marks >= ?min= (default 50).
func (h *StudentHandler) FilterByMarks(w http.ResponseWriter, r *http.Request) {
	execute(h.dashboard, w, r, operation.FilterByMinMarks, r.URL.Query().Get("min"))
}

// FilterByAttendance keeps students with attendance >= ?min= (default 75).
func (h *StudentHandler) FilterByAttendance(w http.ResponseWriter, r *http.Request) {
	execute(h.dashboard, w, r, operation.FilterByMinAttendance, r.URL.Query().Get("min"))
}
