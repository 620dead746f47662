package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/AnshRaj112/classroom-journal/internal/logging"
	"github.com/AnshRaj112/classroom-journal/pkg/clientip"
)

const HeaderRequestID = "X-Request-ID"

// RequestLogger attaches a request-scoped logger carrying a request id and
// logs one line per completed request.
func RequestLogger(logger *logrus.Logger, trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := r.Header.Get(HeaderRequestID)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(HeaderRequestID, requestID)

			entry := logger.WithFields(logrus.Fields{
				"request_id": requestID,
				"method":     r.Method,
				"path":       r.URL.Path,
				"client_ip":  clientip.FromRequest(r, trustProxy),
			})

			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r.WithContext(logging.WithLogger(r.Context(), entry)))

			fields := logrus.Fields{
				"status":      rec.status,
				"duration_ms": time.Since(start).Milliseconds(),
			}
			switch {
			case rec.status >= http.StatusInternalServerError:
				entry.WithFields(fields).Error("request completed")
			case rec.status >= http.StatusBadRequest:
				entry.WithFields(fields).Warn("request completed")
			default:
				entry.WithFields(fields).Info("request completed")
			}
		})
	}
}
