package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/kyanagi/yamabuki-cup-app/internal/quiz"
)

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func InternalServerError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	JSON(w, http.StatusInternalServerError, errorBody{Error: "Internal Server Error"})
}

func BadRequest(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("bad request", "message", msg, "error", err)
	} else {
		slog.Warn("bad request", "message", msg)
	}
	JSON(w, http.StatusBadRequest, errorBody{Error: msg})
}

func NotFound(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("not found", "message", msg, "error", err)
	} else {
		slog.Warn("not found", "message", msg)
	}
	JSON(w, http.StatusNotFound, errorBody{Error: msg})
}

// StatusOf maps an engine error kind to its HTTP status. Unknown errors are 500.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, quiz.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, quiz.ErrStateConflict):
		return http.StatusConflict
	case errors.Is(err, quiz.ErrInvariantViolation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, quiz.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// Error writes err with the status its kind maps to. Errors without a kind are
// logged and hidden behind a generic 500.
func Error(w http.ResponseWriter, msg string, err error) {
	status := StatusOf(err)
	if status == http.StatusInternalServerError {
		InternalServerError(w, msg, err)
		return
	}

	body := errorBody{Error: err.Error()}
	var qe *quiz.Error
	if errors.As(err, &qe) {
		body.Error = qe.Msg
		body.Kind = qe.Kind.Error()
	}
	slog.Warn("request rejected", "message", msg, "status", status, "error", err)
	JSON(w, status, body)
}
