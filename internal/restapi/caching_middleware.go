package restapi

import (
	"fmt"
	"net/http"
	"time"
)

const noStore = "no-cache, no-store, must-revalidate"

// cacheHeader is the Cache-Control value for a response that may be reused
// for maxAge. Anything under a second is not stored.
func cacheHeader(maxAge time.Duration) string {
	if maxAge < time.Second {
		return noStore
	}
	return fmt.Sprintf("public, max-age=%d", int(maxAge/time.Second))
}

// CacheControlMiddleware marks successful responses cacheable for maxAge.
// Error responses are never stored.
func CacheControlMiddleware(maxAge time.Duration, next http.Handler) http.Handler {
	headerValue := cacheHeader(maxAge)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(&cacheControlWriter{ResponseWriter: w, headerValue: headerValue}, r)
	})
}

// loadedFeed is what feed-derived responses need to know about the network
// they were built from.
type loadedFeed interface {
	LastUpdated() time.Time
	NextRefresh() time.Time
	IsHealthy() bool
}

// FeedCacheControlMiddleware caches responses built from the loaded feed.
// The max age never runs past the next scheduled reload, successful
// responses carry the load time as Last-Modified, and nothing is stored
// while the feed is unhealthy.
func FeedCacheControlMiddleware(maxAge time.Duration, feed loadedFeed, now func() time.Time, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrapped := &cacheControlWriter{ResponseWriter: w, headerValue: noStore}
		if feed != nil && feed.IsHealthy() {
			age := maxAge
			if refresh := feed.NextRefresh(); !refresh.IsZero() {
				age = min(age, refresh.Sub(now()))
			}
			wrapped.headerValue = cacheHeader(age)
			if lastUpdated := feed.LastUpdated(); !lastUpdated.IsZero() {
				wrapped.lastModified = lastUpdated.UTC().Format(http.TimeFormat)
			}
		}
		next.ServeHTTP(wrapped, r)
	})
}

type cacheControlWriter struct {
	http.ResponseWriter
	headerValue   string
	lastModified  string
	headerWritten bool
}

func (w *cacheControlWriter) WriteHeader(code int) {
	if !w.headerWritten {
		w.headerWritten = true
		header := w.ResponseWriter.Header()
		if code >= 200 && code < 300 {
			header.Set("Cache-Control", w.headerValue)
			if w.lastModified != "" {
				header.Set("Last-Modified", w.lastModified)
			}
		} else {
			header.Set("Cache-Control", noStore)
		}
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *cacheControlWriter) Write(b []byte) (int, error) {
	if !w.headerWritten {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *cacheControlWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
