package httpapi

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"opertrack.org/internal/audit"
	"opertrack.org/internal/ids"
	"opertrack.org/internal/obs"
)

// request body cap; large enough for spreadsheet uploads
const maxRequestBytes = 32 << 20

type requestIDContextKey struct{}

// RequestID assigns a ULID to every request and echoes it back in the
// X-Request-Id header. Inbound ids are trusted when present.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := strings.TrimSpace(r.Header.Get("X-Request-Id"))
		if rid == "" {
			rid = ids.New()
		}
		w.Header().Set("X-Request-Id", rid)
		ctx := context.WithValue(r.Context(), requestIDContextKey{}, rid)
		ctx = audit.WithRequestID(ctx, rid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDFromContext returns the id assigned by RequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDContextKey{}).(string); ok {
		return v
	}
	return ""
}

type loggingWriter struct {
	http.ResponseWriter
	code int
}

func (w *loggingWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// LoggingJSON emits one structured line per request.
func LoggingJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lw := &loggingWriter{ResponseWriter: w, code: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(lw, r)
		obs.LogRequest(map[string]any{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      lw.code,
			"duration_ms": time.Since(start).Milliseconds(),
			"ip":          clientIP(r),
			"request_id":  RequestIDFromContext(r.Context()),
		})
	})
}

// SecurityHeaders applies baseline hardening. The API serves JSON only,
// so the CSP can stay strict.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Content-Security-Policy",
			"default-src 'none'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}

// CORS wraps the handler with the configured allow-list. An empty list
// means same-origin only, except for local development hosts.
func CORS(next http.Handler, origins []string) http.Handler {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           600,
	})
	return c.Handler(next)
}

// MaxBodyBytes caps request body size before any handler reads it.
func MaxBodyBytes(next http.Handler, maxBytes int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		next.ServeHTTP(w, r)
	})
}

const (
	bucketTTL     = 5 * time.Minute
	sweepInterval = time.Minute
)

type ipBucket struct {
	lim *rate.Limiter
	ts  time.Time
}

// ipBuckets holds one token bucket per client IP. Idle buckets are swept
// lazily on the request path, so the limiter owns no goroutine and every
// constructed handler can be garbage collected.
type ipBuckets struct {
	mu        sync.Mutex
	buckets   map[string]*ipBucket
	lastSweep time.Time
}

func newIPBuckets() *ipBuckets {
	return &ipBuckets{
		buckets:   make(map[string]*ipBucket),
		lastSweep: time.Now(),
	}
}

func (s *ipBuckets) allow(ip string, limit rate.Limit, burst int) bool {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	if now.Sub(s.lastSweep) > sweepInterval {
		s.sweep(now)
	}
	b, ok := s.buckets[ip]
	if !ok {
		b = &ipBucket{lim: rate.NewLimiter(limit, burst)}
		s.buckets[ip] = b
	}
	b.ts = now
	return b.lim.Allow()
}

// sweep drops buckets idle past the TTL. Caller holds mu.
func (s *ipBuckets) sweep(now time.Time) {
	for k, b := range s.buckets {
		if now.Sub(b.ts) > bucketTTL {
			delete(s.buckets, k)
		}
	}
	s.lastSweep = now
}

// RateLimit enforces a per-client-IP token bucket on /api/* paths.
// perMinute tokens refill per minute.
func RateLimit(next http.Handler, burst, perMinute int) http.Handler {
	if perMinute <= 0 {
		return next
	}
	if burst <= 0 {
		burst = perMinute
	}
	state := newIPBuckets()
	perSecond := rate.Limit(float64(perMinute) / 60.0)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			next.ServeHTTP(w, r)
			return
		}
		ip := clientIP(r)
		if ip == "" {
			ip = "unknown"
		}
		if !state.allow(ip, perSecond, burst) {
			w.Header().Set("Retry-After", "60")
			writeError(w, r, http.StatusTooManyRequests,
				"limite de requisições excedido, tente novamente em instantes")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	// X-Forwarded-For support (first IP)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
