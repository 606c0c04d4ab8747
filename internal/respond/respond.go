// Package respond writes API responses. Errors always use the
// {"error": "<message>"} shape.
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/Dan9191/microfund/internal/apperror"
	"github.com/sirupsen/logrus"
)

// JSON writes payload with the given status code.
func JSON(log *logrus.Logger, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.WithError(err).Warn("Failed to encode response")
	}
}

// Text writes a plain text body.
func Text(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(message))
}

// Message writes an error body without going through apperror.
func Message(log *logrus.Logger, w http.ResponseWriter, status int, message string) {
	JSON(log, w, status, map[string]string{"error": message})
}

// Error maps err to its status code and public message. Internal causes are
// logged and replaced by a generic message.
func Error(log *logrus.Logger, w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperror.From(err)
	if appErr.Kind == apperror.KindInternal {
		log.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).WithError(appErr.Err).Error("Internal error")
	}
	Message(log, w, appErr.StatusCode(), appErr.PublicMessage())
}
