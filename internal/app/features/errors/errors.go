// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/drshaadi/internal/app/system/apperr"
	"github.com/dalemusser/drshaadi/internal/app/system/auth"
	"go.uber.org/zap"
)

// redacted replaces 5xx detail when debug is off.
const redacted = "internal server error"

// ErrorLogger writes {"detail": ...} error responses and logs the ones
// that matter. Handlers share one instance built in bootstrap.
type ErrorLogger struct {
	Log   *zap.Logger
	Debug bool
}

// NewErrorLogger returns an ErrorLogger. With debug on, 5xx responses
// carry the underlying error text instead of a generic message.
func NewErrorLogger(logger *zap.Logger, debug bool) *ErrorLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorLogger{Log: logger, Debug: debug}
}

// Write maps err to a status through apperr and writes the detail body.
func (e *ErrorLogger) Write(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.Status(err)
	detail := apperr.Message(err)

	if status >= http.StatusInternalServerError {
		e.Log.Error("request failed",
			append(requestFields(r),
				zap.String("kind", apperr.KindOf(err).String()),
				zap.Error(err))...)
		if e.Debug {
			detail = err.Error()
		} else {
			detail = redacted
		}
	} else {
		e.Log.Debug("request rejected",
			append(requestFields(r),
				zap.Int("status", status),
				zap.String("detail", detail))...)
	}

	Detail(w, status, detail)
}

// LogServerError logs err with msg and answers 500. userMsg is returned to
// the caller unless debug is on, in which case err's text is.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg string) {
	e.Log.Error(msg, append(requestFields(r), zap.Error(err))...)
	if userMsg == "" {
		userMsg = redacted
	}
	if e.Debug && err != nil {
		userMsg = err.Error()
	}
	Detail(w, http.StatusInternalServerError, userMsg)
}

// LogBadRequest logs at debug level and answers 400 with userMsg.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg string) {
	e.Log.Debug(msg, append(requestFields(r), zap.Error(err))...)
	Detail(w, http.StatusBadRequest, userMsg)
}

func requestFields(r *http.Request) []zap.Field {
	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	}
	if u, ok := auth.CurrentUser(r); ok && u != nil {
		fields = append(fields, zap.String("user_id", u.ID))
	}
	return fields
}
