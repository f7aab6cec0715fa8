package middleware

import (
	"net/http"
	"time"

	"github.com/soaringjerry/Scamwatch/internal/logging"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

// RequestLogger logs one line per request. Query strings are left out since
// they carry the identifiers people look up.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		kv := []interface{}{"method", r.Method, "path", r.URL.Path, "status", rec.status, "bytes", rec.bytes, "ip", ClientIP(r), "dur", time.Since(start).Round(time.Millisecond)}
		switch {
		case rec.status >= 500:
			logging.Error("request", kv...)
		case rec.status >= 400:
			logging.Warn("request", kv...)
		default:
			logging.Debug("request", kv...)
		}
	})
}
