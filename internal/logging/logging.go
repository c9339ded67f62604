// Package logging configures the process-wide zerolog logger used by every
// component. Components never construct their own root logger; they derive
// a child via With().Str("component", ...).Logger().
package logging

import (
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Init configures the global zerolog logger from a textual level
// ("debug", "info", "warn", "error") and returns the configured logger.
// Unknown levels fall back to "info".
func Init(level string, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339

	console := zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	logger := zerolog.New(console).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &logger
	return logger
}

// Component returns a child logger tagged with the given component name.
func Component(base zerolog.Logger, name string) zerolog.Logger {
	return base.With().Str("component", name).Logger()
}

// Camera returns a child logger tagged with component and camera_id, the
// identity spec.md §6 requires on every camera-scoped log line.
func Camera(base zerolog.Logger, component, cameraID string) zerolog.Logger {
	return base.With().Str("component", component).Str("camera_id", cameraID).Logger()
}

// requestIDHeader is the header a caller may set to propagate its own
// correlation ID; a fresh one is minted when absent.
const requestIDHeader = "X-Request-Id"

// RequestID wraps an http.Handler, tagging each request with a request_id
// (propagated from the X-Request-Id header, or minted fresh) logged at
// request start and returned on the response for client-side correlation.
func RequestID(log zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(requestIDHeader)
		if reqID == "" {
			reqID = uuid.New().String()
		}
		w.Header().Set(requestIDHeader, reqID)

		log.Debug().Str("request_id", reqID).Str("method", r.Method).Str("path", r.URL.Path).Msg("request received")
		next.ServeHTTP(w, r)
	})
}
