package restapi

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"flex.onebusaway.org/internal/clock"
	"flex.onebusaway.org/internal/models"
)

const (
	clientIDHeader     = "X-Client-ID"
	limiterIdleTimeout = 10 * time.Minute
)

// rateLimitClient tracks a limiter and when it was last used so idle clients
// can be evicted.
type rateLimitClient struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // Unix nanoseconds
}

// RateLimitMiddleware limits requests per client. A client is identified by
// its X-Client-ID header, or by its remote address when the header is absent.
type RateLimitMiddleware struct {
	limiters      map[string]*rateLimitClient
	mu            sync.RWMutex
	rateLimit     rate.Limit
	burstSize     int
	cleanupTick   *time.Ticker
	exemptClients map[string]bool
	stopChan      chan struct{}
	stopOnce      sync.Once
	clock         clock.Clock
}

// NewRateLimitMiddleware allows ratePerInterval requests per interval per
// client, with bursts of the same size. Zero rejects every non-exempt request.
func NewRateLimitMiddleware(ratePerInterval int, interval time.Duration, exemptClients []string, clk clock.Clock) *RateLimitMiddleware {
	var limit rate.Limit
	switch {
	case ratePerInterval < 0:
		limit = rate.Inf
	case ratePerInterval == 0:
		limit = 0
	default:
		limit = rate.Every(interval / time.Duration(ratePerInterval))
	}

	exempt := make(map[string]bool)
	for _, client := range exemptClients {
		if trimmed := strings.TrimSpace(client); trimmed != "" {
			exempt[trimmed] = true
		}
	}
	if clk == nil {
		clk = clock.RealClock{}
	}

	rl := &RateLimitMiddleware{
		limiters:      make(map[string]*rateLimitClient),
		rateLimit:     limit,
		burstSize:     max(ratePerInterval, 0),
		cleanupTick:   time.NewTicker(5 * time.Minute),
		exemptClients: exempt,
		stopChan:      make(chan struct{}),
		clock:         clk,
	}
	go rl.cleanup()
	return rl
}

func (rl *RateLimitMiddleware) Handler() func(http.Handler) http.Handler {
	return rl.rateLimitHandler
}

// clientID identifies the caller of r.
func clientID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(clientIDHeader)); id != "" {
		return id
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// getLimiter returns the client's limiter, creating it on first use.
func (rl *RateLimitMiddleware) getLimiter(client string) *rate.Limiter {
	now := rl.clock.Now().UnixNano()

	rl.mu.RLock()
	if c, ok := rl.limiters[client]; ok {
		c.lastSeen.Store(now)
		rl.mu.RUnlock()
		return c.limiter
	}
	rl.mu.RUnlock()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if c, ok := rl.limiters[client]; ok {
		c.lastSeen.Store(now)
		return c.limiter
	}
	c := &rateLimitClient{limiter: rate.NewLimiter(rl.rateLimit, rl.burstSize)}
	c.lastSeen.Store(now)
	rl.limiters[client] = c
	return c.limiter
}

func (rl *RateLimitMiddleware) rateLimitHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := clientID(r)
		if rl.exemptClients[client] {
			next.ServeHTTP(w, r)
			return
		}
		if !rl.getLimiter(client).AllowN(rl.clock.Now(), 1) {
			rl.sendRateLimitExceeded(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimitMiddleware) sendRateLimitExceeded(w http.ResponseWriter) {
	retryAfter := time.Second
	switch rl.rateLimit {
	case 0:
		retryAfter = time.Hour
	case rate.Inf:
	default:
		if every := time.Duration(float64(time.Second) / float64(rl.rateLimit)); every > retryAfter {
			retryAfter = every
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.burstSize))
	w.Header().Set("X-RateLimit-Remaining", "0")
	w.WriteHeader(http.StatusTooManyRequests)

	response := models.NewErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.", rl.clock)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("failed to encode rate limit response", "error", err)
	}
}

// cleanupOnce evicts limiters idle for longer than limiterIdleTimeout.
func (rl *RateLimitMiddleware) cleanupOnce() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	for client, c := range rl.limiters {
		lastSeen := c.lastSeen.Load()
		if lastSeen == 0 {
			continue
		}
		if now.Sub(time.Unix(0, lastSeen)) > limiterIdleTimeout {
			delete(rl.limiters, client)
		}
	}
}

func (rl *RateLimitMiddleware) cleanup() {
	for {
		select {
		case <-rl.cleanupTick.C:
			rl.cleanupOnce()
		case <-rl.stopChan:
			return
		}
	}
}

// Stop stops the cleanup goroutine. It is safe to call multiple times.
func (rl *RateLimitMiddleware) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.stopChan)
		rl.cleanupTick.Stop()
	})
}
