package handler_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studentdash/internal/database"
	"studentdash/internal/handler"
	"studentdash/internal/service"
)

func setupImport(t *testing.T) (*service.ImportService, string) {
	t.Helper()
	db, err := database.OpenDSN("sqlite", ":memory:", zerolog.Nop())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "students.csv")
	csv := "StudentID,Name,Class,Marks,Attendance\n1,Ann,A,80,90\n2,Bob,B,40,60\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	return service.NewImportService(db, zerolog.Nop(), 1), path
}

func progressRouter(h *handler.ProgressHandler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/imports", h.StartImport).Methods(http.MethodPost)
	r.HandleFunc("/imports", h.GetAllProgress).Methods(http.MethodGet)
	r.HandleFunc("/imports/events", h.SSEProgress).Methods(http.MethodGet)
	r.HandleFunc("/imports/{name}", h.GetFileProgress).Methods(http.MethodGet)
	return r
}

func TestProgressHandlerImport(t *testing.T) {
	importer, path := setupImport(t)
	r := progressRouter(handler.NewProgressHandler(importer, path, zerolog.Nop()))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/imports", nil))
	assert.Equal(t, http.StatusAccepted, rr.Code)

	require.Eventually(t, func() bool {
		p := importer.GetFileProgress("students.csv")
		return p != nil && p.Status == service.StatusCompleted
	}, 5*time.Second, 10*time.Millisecond)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/imports/students.csv", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	var p service.ProgressInfo
	require.NoError(t, json.Unmarshal(decode(t, rr).Data, &p))
	assert.Equal(t, 2, p.Processed)
	assert.Equal(t, service.StatusCompleted, p.Status)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/imports", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	var all []service.ProgressInfo
	require.NoError(t, json.Unmarshal(decode(t, rr).Data, &all))
	assert.Len(t, all, 1)
}

func TestProgressHandlerUnknownFile(t *testing.T) {
	importer, path := setupImport(t)
	r := progressRouter(handler.NewProgressHandler(importer, path, zerolog.Nop()))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/imports/other.csv", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "NOT_FOUND", decode(t, rr).Error.Code)
}

func TestProgressHandlerSSE(t *testing.T) {
	importer, path := setupImport(t)
	srv := httptest.NewServer(progressRouter(handler.NewProgressHandler(importer, path, zerolog.Nop())))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/imports/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	// The listener is registered after the headers are flushed; retry the
	// import until an event arrives.
	events := make(chan string, 1)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			if line := scanner.Text(); strings.HasPrefix(line, "data: ") {
				events <- strings.TrimPrefix(line, "data: ")
				return
			}
		}
	}()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case data := <-events:
			var p service.ProgressInfo
			require.NoError(t, json.Unmarshal([]byte(data), &p))
			assert.Equal(t, "students.csv", p.FileName)
			return
		case <-ticker.C:
			_, _ = importer.ImportCSV(ctx, path)
		case <-ctx.Done():
			t.Fatal("no progress event received")
		}
	}
}

type busyImporter struct {
	*service.ImportService
	running *service.ProgressInfo
	err     error
}

func (b busyImporter) StartImport(context.Context, string) (*service.ProgressInfo, error) {
	return b.running, b.err
}

func TestProgressHandlerImportAlreadyRunning(t *testing.T) {
	importer, path := setupImport(t)
	running := &service.ProgressInfo{FileName: "students.csv", Status: service.StatusProcessing, Processed: 1, TotalRecords: 2}
	h := handler.NewProgressHandler(busyImporter{importer, running, service.ErrImportInProgress}, path, zerolog.Nop())

	rr := httptest.NewRecorder()
	progressRouter(h).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/imports", nil))

	assert.Equal(t, http.StatusAccepted, rr.Code)
	var p service.ProgressInfo
	require.NoError(t, json.Unmarshal(decode(t, rr).Data, &p))
	assert.Equal(t, service.StatusProcessing, p.Status)
	assert.Equal(t, 1, p.Processed)
}

func TestProgressHandlerImportFailsToStart(t *testing.T) {
	importer, path := setupImport(t)
	h := handler.NewProgressHandler(busyImporter{importer, nil, errors.New("no database")}, path, zerolog.Nop())

	rr := httptest.NewRecorder()
	progressRouter(h).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/imports", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "INTERNAL_ERROR", decode(t, rr).Error.Code)
}
