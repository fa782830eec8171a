// internal/app/features/errors/render.go
package errors

import (
	"encoding/json"
	"net/http"
)

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Detail writes the {"detail": msg} error body.
func Detail(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"detail": msg})
}

// Unauthorized answers 401 when a bearer route has no usable caller.
func Unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	Detail(w, http.StatusUnauthorized, "Invalid authentication credentials")
}

// NotFound answers 404 for unknown routes.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	Detail(w, http.StatusNotFound, "Not Found")
}

// MethodNotAllowed answers 405 for known routes with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	Detail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
}
