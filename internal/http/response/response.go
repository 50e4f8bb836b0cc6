// Package response writes the plain JSON bodies used outside huma: the ajax
// action endpoint, rate limiting and streaming routes.
package response

import (
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"
)

// Failure is the body of every non-huma error and of a failed ajax action.
type Failure struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Stats carries the collection size after an ajax toggle.
type Stats struct {
	Count int `json:"count"`
}

// ActionResult is the body of a successful ajax action.
type ActionResult struct {
	Success bool  `json:"success"`
	Status  bool  `json:"status"`
	Stats   Stats `json:"stats"`
}

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil && logger != nil {
		logger.Error("Failed to encode JSON response", "error", err)
	}
}

// Action writes a successful ajax action result with 200 OK.
func Action(w http.ResponseWriter, status bool, count int, logger *slog.Logger) {
	JSON(w, http.StatusOK, ActionResult{Success: true, Status: status, Stats: Stats{Count: count}}, logger)
}

// ActionFailed writes a failed ajax action. Failures still answer 200 OK so
// browser code only has to look at the success field.
func ActionFailed(w http.ResponseWriter, message string, logger *slog.Logger) {
	JSON(w, http.StatusOK, Failure{Success: false, Message: message}, logger)
}

// Error writes an error response with the given status code.
func Error(w http.ResponseWriter, status int, message string, logger *slog.Logger) {
	JSON(w, status, Failure{Success: false, Message: message}, logger)
}

// Unauthorized writes a 401 Unauthorized response.
func Unauthorized(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusUnauthorized, message, logger)
}

// NotFound writes a 404 Not Found response.
func NotFound(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusNotFound, message, logger)
}

// TooManyRequests writes a 429 Too Many Requests response.
func TooManyRequests(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusTooManyRequests, message, logger)
}

// InternalError writes a 500 Internal Server Error response.
func InternalError(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusInternalServerError, message, logger)
}
