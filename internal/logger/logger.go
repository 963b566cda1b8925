// Package logger configures the process-wide structured logger.
package logger

import (
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Setup configures the global logrus logger. Local environments get a
// pretty console; everything else gets JSON.
func Setup(level string) {
	env := os.Getenv("ENVIRONMENT")
	if env == "" || env == "local" {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
		})
	}
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(parseLevel(level))
}

func parseLevel(level string) logrus.Level {
	switch level {
	case "debug", "DEBUG":
		return logrus.DebugLevel
	case "warn", "WARN":
		return logrus.WarnLevel
	case "error", "ERROR":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// WithRequest returns an entry tagged with request metadata and a request
// ID (taken from X-Request-ID or generated).
func WithRequest(r *http.Request) *logrus.Entry {
	reqID := r.Header.Get("X-Request-ID")
	if reqID == "" {
		reqID = uuid.New().String()
	}
	return logrus.WithFields(logrus.Fields{
		"req_id": reqID,
		"method": r.Method,
		"path":   r.URL.Path,
	})
}
