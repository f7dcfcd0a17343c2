package cache

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// CacheHeader reports HIT or MISS on cacheable responses
const CacheHeader = "X-Cache"

type cachedResponse struct {
	StatusCode  int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// Middleware serves GET responses from c and stores successful ones for ttl.
// Backend failures are logged and the request is served uncached.
func Middleware(c Cache, ttl time.Duration, logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			key := RequestKey(r)

			data, err := c.Get(ctx, key)
			switch {
			case err == nil:
				var cached cachedResponse
				if err := json.Unmarshal(data, &cached); err == nil {
					w.Header().Set("Content-Type", cached.ContentType)
					w.Header().Set(CacheHeader, "HIT")
					w.WriteHeader(cached.StatusCode)
					w.Write(cached.Body)
					return
				}
				logger.Warn("discarding corrupt cache entry", zap.String("path", r.URL.Path))
			case !IsCacheMiss(err):
				logger.Warn("cache lookup failed", zap.String("path", r.URL.Path), zap.Error(err))
			}

			w.Header().Set(CacheHeader, "MISS")
			recorder := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(recorder, r)

			if recorder.statusCode != http.StatusOK {
				return
			}

			data, err = json.Marshal(cachedResponse{
				StatusCode:  recorder.statusCode,
				ContentType: recorder.Header().Get("Content-Type"),
				Body:        recorder.body.Bytes(),
			})
			if err != nil {
				return
			}
			if err := c.Set(ctx, key, data, ttl); err != nil {
				logger.Warn("cache store failed", zap.String("path", r.URL.Path), zap.Error(err))
			}
		})
	}
}

// responseRecorder copies the body written to the client
type responseRecorder struct {
	http.ResponseWriter
	statusCode  int
	body        bytes.Buffer
	wroteHeader bool
}

func (rr *responseRecorder) WriteHeader(statusCode int) {
	if !rr.wroteHeader {
		rr.statusCode = statusCode
		rr.wroteHeader = true
		rr.ResponseWriter.WriteHeader(statusCode)
	}
}

func (rr *responseRecorder) Write(b []byte) (int, error) {
	if !rr.wroteHeader {
		rr.WriteHeader(http.StatusOK)
	}
	rr.body.Write(b)
	return rr.ResponseWriter.Write(b)
}
