package router

import (
	"fmt"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"studentdash/internal/handler"
	"studentdash/internal/metrics"
	"studentdash/internal/middleware"
	"studentdash/internal/response"
)

type Options struct {
	AllowedOrigins []string
	Metrics        *metrics.Metrics
	Log            zerolog.Logger

	// Importer enables the /imports endpoints when non-nil.
	Importer   handler.Importer
	ImportPath string
}

// New builds the HTTP handler for the dashboard API.
func New(dashboard handler.Dashboard, opts Options) http.Handler {
	studentHandler := handler.NewStudentHandler(dashboard)
	chartHandler := handler.NewChartHandler(dashboard)
	operationHandler := handler.NewOperationHandler(dashboard)

	r := mux.NewRouter()
	r.Use(middleware.RequestID, middleware.AccessLog(opts.Log))

	r.HandleFunc("/healthz", healthz).Methods(http.MethodGet)
	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics.Handler()).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/operations", operationHandler.ListOperations).Methods(http.MethodGet)
	api.HandleFunc("/operations/{slug}", operationHandler.RunOperation).Methods(http.MethodGet)

	api.HandleFunc("/students", studentHandler.ListStudents).Methods(http.MethodGet)
	api.HandleFunc("/students/preview", studentHandler.PreviewStudents).Methods(http.MethodGet)
	api.HandleFunc("/students/search", studentHandler.SearchStudents).Methods(http.MethodGet)
	api.HandleFunc("/students/filter/marks", studentHandler.FilterByMarks).Methods(http.MethodGet)
	api.HandleFunc("/students/filter/attendance", studentHandler.FilterByAttendance).Methods(http.MethodGet)
	api.HandleFunc("/students/{id}", studentHandler.GetStudent).Methods(http.MethodGet)

	api.HandleFunc("/charts/scatter", chartHandler.Scatter).Methods(http.MethodGet)
	api.HandleFunc("/charts/pie", chartHandler.Pie).Methods(http.MethodGet)
	api.HandleFunc("/charts/scatter.png", chartHandler.ScatterPNG).Methods(http.MethodGet)
	api.HandleFunc("/charts/pie.png", chartHandler.PiePNG).Methods(http.MethodGet)

	if opts.Importer != nil {
		progressHandler := handler.NewProgressHandler(opts.Importer, opts.ImportPath, opts.Log)
		api.HandleFunc("/imports", progressHandler.StartImport).Methods(http.MethodPost)
		api.HandleFunc("/imports", progressHandler.GetAllProgress).Methods(http.MethodGet)
		api.HandleFunc("/imports/events", progressHandler.SSEProgress).Methods(http.MethodGet)
		api.HandleFunc("/imports/{name}", progressHandler.GetFileProgress).Methods(http.MethodGet)
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		response.Fail(w, req, http.StatusNotFound, response.ErrNotFound)
	})

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	cors := handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", response.HeaderRequestID}),
		handlers.ExposedHeaders([]string{response.HeaderRequestID}),
	)
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{log: opts.Log}),
		handlers.PrintRecoveryStack(false),
	)
	return recovery(cors(r))
}

func healthz(w http.ResponseWriter, r *http.Request) {
	response.Success(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

type recoveryLogger struct {
	log zerolog.Logger
}

func (l recoveryLogger) Println(v ...interface{}) {
	l.log.Error().Msg(fmt.Sprint(v...))
}
