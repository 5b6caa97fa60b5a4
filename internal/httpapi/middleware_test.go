package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRequestIDAssignedAndEchoed(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/operations", nil))

	if seen == "" {
		t.Fatal("request id missing from context")
	}
	if got := rec.Header().Get("X-Request-Id"); got != seen {
		t.Fatalf("header id %q != context id %q", got, seen)
	}
}

func TestRequestIDPreservesInbound(t *testing.T) {
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "upstream-id")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-Id"); got != "upstream-id" {
		t.Fatalf("inbound id replaced: %q", got)
	}
}

func TestRateLimitAppliesOnlyToAPIPaths(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	// burst 1, negligible refill: second /api request in a row must fail
	h := RateLimit(next, 1, 1)

	call := func(path string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "10.0.0.1:5000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := call("/api/operations"); code != http.StatusOK {
		t.Fatalf("first call = %d, want 200", code)
	}
	if code := call("/api/operations"); code != http.StatusTooManyRequests {
		t.Fatalf("second call = %d, want 429", code)
	}
	if code := call("/healthz"); code != http.StatusOK {
		t.Fatalf("non-api path should bypass the limiter, got %d", code)
	}
}

func TestRateLimitBucketsPerIP(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := RateLimit(next, 1, 1)

	call := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/operations", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := call("10.0.0.1:5000"); code != http.StatusOK {
		t.Fatalf("first ip first call = %d", code)
	}
	if code := call("10.0.0.2:5000"); code != http.StatusOK {
		t.Fatalf("second ip must have its own bucket, got %d", code)
	}
}

func TestRateLimitSetsRetryAfter(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	h := RateLimit(next, 1, 1)

	req := httptest.NewRequest(http.MethodGet, "/api/operations", nil)
	req.RemoteAddr = "10.0.0.9:5000"
	h.ServeHTTP(httptest.NewRecorder(), req)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("Retry-After header missing")
	}
}

func TestIPBucketsSweepDropsIdleEntries(t *testing.T) {
	state := newIPBuckets()
	if !state.allow("10.0.0.1", 1, 1) {
		t.Fatal("fresh bucket should allow")
	}
	state.allow("10.0.0.2", 1, 1)

	state.mu.Lock()
	state.buckets["10.0.0.1"].ts = time.Now().Add(-bucketTTL - time.Minute)
	state.sweep(time.Now())
	remaining := len(state.buckets)
	state.mu.Unlock()

	if remaining != 1 {
		t.Fatalf("expected the idle bucket swept, %d buckets remain", remaining)
	}
}

func TestSecurityHeaders(t *testing.T) {
	h := SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Fatalf("X-Frame-Options = %q", got)
	}
}

func TestClientIPPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5000"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if got := clientIP(req); got != "203.0.113.7" {
		t.Fatalf("clientIP = %q", got)
	}

	req.Header.Del("X-Forwarded-For")
	if got := clientIP(req); got != "10.0.0.1" {
		t.Fatalf("clientIP = %q", got)
	}
}
