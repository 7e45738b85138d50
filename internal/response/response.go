package response

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Response is the standardized API response envelope.
type Response struct {
	Data     interface{} `json:"data"`
	Error    *ErrorBody  `json:"error,omitempty"`
	Metadata Metadata    `json:"metadata"`
}

// ErrorBody represents a structured error response.
type ErrorBody struct {
	Code    ErrCode           `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Metadata includes request tracing and timing.
type Metadata struct {
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
}

type ctxKey struct{}

// HeaderRequestID carries the request ID in and out.
const HeaderRequestID = "X-Request-ID"

// WithRequestID stores id in ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// RequestID returns the ID stored by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// Success writes data with the given status code.
func Success(w http.ResponseWriter, r *http.Request, statusCode int, data interface{}) {
	write(w, statusCode, Response{
		Data:     data,
		Metadata: buildMetadata(r),
	})
}

// Fail writes an error envelope with no field-level details.
func Fail(w http.ResponseWriter, r *http.Request, statusCode int, code ErrCode) {
	write(w, statusCode, Response{
		Error:    &ErrorBody{Code: code, Message: GetMessage(code)},
		Metadata: buildMetadata(r),
	})
}

// FailWithFields writes an error envelope with field-level details.
func FailWithFields(w http.ResponseWriter, r *http.Request, statusCode int, code ErrCode, fields map[string]string) {
	write(w, statusCode, Response{
		Error:    &ErrorBody{Code: code, Message: GetMessage(code), Fields: fields},
		Metadata: buildMetadata(r),
	})
}

// write encodes body before sending the status so an unencodable payload
// becomes a 500 instead of an empty 200.
func write(w http.ResponseWriter, statusCode int, body Response) {
	raw, err := json.Marshal(body)
	if err != nil {
		statusCode = http.StatusInternalServerError
		raw, _ = json.Marshal(Response{
			Error:    &ErrorBody{Code: ErrInternal, Message: GetMessage(ErrInternal)},
			Metadata: body.Metadata,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, _ = w.Write(append(raw, '\n'))
}

func buildMetadata(r *http.Request) Metadata {
	id := RequestID(r.Context())
	if id == "" {
		id = uuid.New().String()
	}
	return Metadata{
		RequestID: id,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
