package middleware

import (
	"net/http"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/fleet-compliance/internal/metrics"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// RequestLogger logs every request and records its latency.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		metrics.HTTPRequestDuration.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Observe(elapsed.Seconds())

		entry := log.WithFields(log.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rec.status,
			"duration_ms": elapsed.Milliseconds(),
			"client_ip":   getClientIP(r),
		})
		switch {
		case rec.status >= 500:
			entry.Error("Request failed")
		case rec.status >= 400:
			entry.Warn("Request rejected")
		default:
			entry.Debug("Request served")
		}
	})
}
