package httputil

import (
	"log/slog"
	"net/http"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, ErrorBody{Error: msg})
}

// warn logs a client error, with its cause when there is one.
func warn(kind, msg string, err error) {
	if err != nil {
		slog.Warn(kind, "message", msg, "error", err)
		return
	}
	slog.Warn(kind, "message", msg)
}

// InternalServerError logs msg and err but never sends them to the client.
func InternalServerError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	writeError(w, http.StatusInternalServerError, "Internal Server Error")
}

func BadRequest(w http.ResponseWriter, msg string, err error) {
	warn("bad request", msg, err)
	writeError(w, http.StatusBadRequest, msg)
}

func NotFound(w http.ResponseWriter, msg string, err error) {
	warn("not found", msg, err)
	writeError(w, http.StatusNotFound, msg)
}

func Unauthorized(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, "Unauthorized")
}

func Forbidden(w http.ResponseWriter, msg string) {
	warn("forbidden", msg, nil)
	writeError(w, http.StatusForbidden, msg)
}

func Conflict(w http.ResponseWriter, msg string, err error) {
	warn("conflict", msg, err)
	writeError(w, http.StatusConflict, msg)
}
