// internal/middleware/logging.go

package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// LogMiddleware logs each request's method, path, status and duration.
// 5xx responses log at Error, 4xx at Warn.
func LogMiddleware(logger logrus.FieldLogger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				// hijacked (websocket) or nothing written
				status = http.StatusOK
			}
			entry := logger.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   status,
				"bytes":    ww.BytesWritten(),
				"duration": time.Since(start),
				"remote":   r.RemoteAddr,
			})
			if reqID := chimw.GetReqID(r.Context()); reqID != "" {
				entry = entry.WithField("request_id", reqID)
			}

			switch {
			case status >= 500:
				entry.Error("HTTP Request")
			case status >= 400:
				entry.Warn("HTTP Request")
			default:
				entry.Info("HTTP Request")
			}
		})
	}
}

// LogWebSocketConnect logs a player's websocket joining a game.
func LogWebSocketConnect(logger logrus.FieldLogger, r *http.Request, gameID, playerID uuid.UUID) {
	logger.WithFields(logrus.Fields{
		"remote":    r.RemoteAddr,
		"path":      r.URL.Path,
		"game_id":   gameID,
		"player_id": playerID,
	}).Info("WebSocket connected")
}

// LogWebSocketDisconnect logs a player's websocket leaving; err is the read error that ended the loop, if any.
func LogWebSocketDisconnect(logger logrus.FieldLogger, r *http.Request, gameID, playerID uuid.UUID, err error) {
	fields := logrus.Fields{
		"remote":    r.RemoteAddr,
		"path":      r.URL.Path,
		"game_id":   gameID,
		"player_id": playerID,
	}
	if err != nil {
		fields["error"] = err
	}
	logger.WithFields(fields).Info("WebSocket disconnected")
}
