package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"studentdash/internal/operation"
	"studentdash/internal/response"
)

type OperationHandler struct {
	dashboard Dashboard
}

func NewOperationHandler(dashboard Dashboard) *OperationHandler {
	return &OperationHandler{dashboard: dashboard}
}

// ListOperations returns the menu entries.
func (h *OperationHandler) ListOperations(w http.ResponseWriter, r *http.Request) {
	response.Success(w, r, http.StatusOK, h.dashboard.Operations())
}

// RunOperation dispatches /operations/{slug}?value= through the operation
// table.
func (h *OperationHandler) RunOperation(w http.ResponseWriter, r *http.Request) {
	op, err := operation.Parse(mux.Vars(r)["slug"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	execute(h.dashboard, w, r, op, r.URL.Query().Get("value"))
}
