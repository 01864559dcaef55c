package middleware

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter throttles requests per client. Authenticated requests are
// keyed by user id, anonymous ones by IP. In-memory only; a multi-instance
// deployment would move this to Redis.
type RateLimiter struct {
	mu       sync.Mutex
	clients  map[string]*clientLimiter
	perMin   int
	lastSeen time.Duration
}

type clientLimiter struct {
	limiter *rate.Limiter
	seen    time.Time
}

func NewRateLimiter() *RateLimiter {
	perMin := 60
	if raw := os.Getenv("RATE_LIMIT_PER_MINUTE"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			perMin = n
		}
	}

	rl := &RateLimiter{
		clients:  make(map[string]*clientLimiter),
		perMin:   perMin,
		lastSeen: 10 * time.Minute,
	}
	go rl.cleanupLoop()
	return rl
}

// Middleware applies the per-client limit. Health checks are exempt.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		clientID := clientKey(r)
		if !rl.allow(clientID) {
			log.Printf("WARN: [ratelimit] limit exceeded: %s", clientID)
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "60")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error":       "rate_limit_exceeded",
				"message":     "Too many requests. Limit: " + strconv.Itoa(rl.perMin) + " requests per minute",
				"retry_after": 60,
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(clientID string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cl, ok := rl.clients[clientID]
	if !ok {
		cl = &clientLimiter{
			limiter: rate.NewLimiter(rate.Limit(float64(rl.perMin)/60.0), rl.perMin),
		}
		rl.clients[clientID] = cl
	}
	cl.seen = time.Now()
	return cl.limiter.Allow()
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		rl.mu.Lock()
		cutoff := time.Now().Add(-rl.lastSeen)
		for id, cl := range rl.clients {
			if cl.seen.Before(cutoff) {
				delete(rl.clients, id)
			}
		}
		rl.mu.Unlock()
	}
}

// clientKey prefers the authenticated user id, falling back to remote IP.
func clientKey(r *http.Request) string {
	if userID, ok := r.Context().Value("user_id").(int64); ok {
		return "user:" + strconv.FormatInt(userID, 10)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "ip:" + r.RemoteAddr
	}
	return "ip:" + host
}
