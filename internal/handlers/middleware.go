package handlers

import (
	"context"
	"encoding/gob"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/sessions"
)

// Register types for gob encoding (used by sessions)
func init() {
	gob.Register(FlashMessage{})
	gob.Register(map[string]string{})
}

// LoggingMiddleware logs the details of each HTTP request
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		// Wrap ResponseWriter to capture status code
		ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(ww, r)
		slog.Info("HTTP Request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.statusCode,
			"duration", time.Since(start),
			"ip", r.RemoteAddr,
		)
	})
}

// Custom ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the real writer (SSE flushes).
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// SecurityHeadersMiddleware adds standard security headers
func SecurityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "same-origin")
		// QR labels are rendered by an external image service.
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data: https://api.qrserver.com; script-src 'self'; connect-src 'self'")
		next.ServeHTTP(w, r)
	})
}

// RateLimiter allows one request per window per client address.
type RateLimiter struct {
	visitors sync.Map
	window   time.Duration
}

// NewRateLimiter starts a cleanup goroutine that runs until ctx is done.
func NewRateLimiter(ctx context.Context, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		window: window,
	}
	go rl.cleanup(ctx)
	return rl
}

// cleanup removes old entries to prevent memory leaks
func (rl *RateLimiter) cleanup(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			rl.visitors.Range(func(key, value any) bool {
				if now.Sub(value.(time.Time)) > rl.window {
					rl.visitors.Delete(key)
				}
				return true
			})
		}
	}
}

// Middleware enforces the rate limit
func (rl *RateLimiter) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		if lastSeen, ok := rl.visitors.Load(ip); ok {
			if time.Since(lastSeen.(time.Time)) < rl.window {
				slog.Warn("Rate limit exceeded", "ip", ip, "path", r.URL.Path)
				writeJSON(w, http.StatusTooManyRequests, map[string]string{
					"code":    "RATE_LIMITED",
					"message": "Too many requests. Please wait a moment and try again.",
				})
				return
			}
		}

		rl.visitors.Store(ip, time.Now())
		next(w, r)
	}
}

// FlashMessage is a one-shot notice shown on the next page render. Copy is
// text offered for the clipboard and Link an outbound deep link.
type FlashMessage struct {
	Type    string
	Message string
	Copy    string
	Link    string
}

// GetFlash retrieves flash messages from the session
func GetFlash(session *sessions.Session) []FlashMessage {
	flashes := session.Flashes()
	var messages []FlashMessage
	for _, f := range flashes {
		if fm, ok := f.(FlashMessage); ok {
			messages = append(messages, fm)
		}
	}
	return messages
}
