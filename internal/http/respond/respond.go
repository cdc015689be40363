package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/nhadat/listing-auth/internal/apperr"
)

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

var now = time.Now

// Envelope is the success response wrapper used across handlers.
type Envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp"`
	Path      string `json:"path"`
}

// ErrorEnvelope is the error response wrapper.
type ErrorEnvelope struct {
	Success   bool      `json:"success"`
	Error     ErrorBody `json:"error"`
	Timestamp string    `json:"timestamp"`
	Path      string    `json:"path"`
}

// ErrorBody carries the machine code, the client message and optional field details.
type ErrorBody struct {
	Code    apperr.Code         `json:"code"`
	Message string              `json:"message"`
	Details []apperr.FieldError `json:"details,omitempty"`
}

// JSON writes a success response using the common envelope.
func JSON(w http.ResponseWriter, r *http.Request, status int, message string, data any) {
	Result(w, r, status, true, message, data)
}

// Result writes the common envelope with an explicit success flag, for
// responses such as health reports that carry data even when failing.
func Result(w http.ResponseWriter, r *http.Request, status int, ok bool, message string, data any) {
	write(w, status, Envelope{
		Success:   ok,
		Data:      data,
		Message:   message,
		Timestamp: timestamp(),
		Path:      r.URL.Path,
	})
}

// Error writes err as an error envelope. Non-application errors become a generic 500
// and their cause is logged.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperr.From(err)
	status := appErr.Status()
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("code", string(appErr.Code)),
			slog.Any("error", err),
		)
	}
	write(w, status, ErrorEnvelope{
		Success: false,
		Error: ErrorBody{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: appErr.Details,
		},
		Timestamp: timestamp(),
		Path:      r.URL.Path,
	})
}

func timestamp() string {
	return now().UTC().Format(timestampLayout)
}

func write(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("respond: encode payload failed", slog.Any("error", err))
	}
}
