package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"studentdash/internal/response"
	"studentdash/internal/service"
)

// Importer is the part of service.ImportService the progress endpoints use.
type Importer interface {
	StartImport(ctx context.Context, filePath string) (*service.ProgressInfo, error)
	GetFileProgress(fileName string) *service.ProgressInfo
	GetAllFileProgress() []service.ProgressInfo
	RegisterProgressListener(ch chan service.ProgressInfo)
	UnregisterProgressListener(ch chan service.ProgressInfo)
}

type ProgressHandler struct {
	importer Importer
	path     string
	log      zerolog.Logger
}

// NewProgressHandler serves import progress for the CSV at path.
func NewProgressHandler(importer Importer, path string, log zerolog.Logger) *ProgressHandler {
	return &ProgressHandler{
		importer: importer,
		path:     path,
		log:      log.With().Str("component", "import-http").Logger(),
	}
}

// StartImport copies the configured CSV into the database in the
// background. The running dashboard keeps serving the dataset it started
// with. A request made while an import runs gets that import's progress.
func (h *ProgressHandler) StartImport(w http.ResponseWriter, r *http.Request) {
	progress, err := h.importer.StartImport(r.Context(), h.path)
	switch {
	case errors.Is(err, service.ErrImportInProgress):
		h.log.Debug().Str("file", filepath.Base(h.path)).Msg("Import already running")
	case err != nil:
		h.log.Error().Err(err).Msg("Start import")
		response.Fail(w, r, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(w, r, http.StatusAccepted, progress)
}

// GetFileProgress returns the progress for one file.
func (h *ProgressHandler) GetFileProgress(w http.ResponseWriter, r *http.Request) {
	progress := h.importer.GetFileProgress(filepath.Base(mux.Vars(r)["name"]))
	if progress == nil {
		response.Fail(w, r, http.StatusNotFound, response.ErrNotFound)
		return
	}
	response.Success(w, r, http.StatusOK, progress)
}

// GetAllProgress returns the progress for every file seen since start-up.
func (h *ProgressHandler) GetAllProgress(w http.ResponseWriter, r *http.Request) {
	response.Success(w, r, http.StatusOK, h.importer.GetAllFileProgress())
}

// SSEProgress streams progress updates as server-sent events until the
// client disconnects.
func (h *ProgressHandler) SSEProgress(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		response.Fail(w, r, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	progressChan := make(chan service.ProgressInfo, 16)
	h.importer.RegisterProgressListener(progressChan)
	defer h.importer.UnregisterProgressListener(progressChan)

	for {
		select {
		case progress := <-progressChan:
			data, err := json.Marshal(progress)
			if err != nil {
				h.log.Error().Err(err).Msg("Marshal progress")
				continue
			}
			if _, err := w.Write([]byte("data: " + string(data) + "\n\n")); err != nil {
				h.log.Debug().Err(err).Msg("SSE client gone")
				return
			}
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}
