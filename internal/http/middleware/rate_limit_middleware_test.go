package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func doFrom(t *testing.T, h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/login", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestLocalLimiterAllowsThenRejects(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	h := rl.Middleware()(okHandler())

	for i := 0; i < 2; i++ {
		if rec := doFrom(t, h, "10.0.0.1:1234"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
	}

	rec := doFrom(t, h, "10.0.0.1:1234")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
}

func TestLocalLimiterKeysByClientIP(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	h := rl.Middleware()(okHandler())

	if rec := doFrom(t, h, "10.0.0.1:1234"); rec.Code != http.StatusOK {
		t.Fatalf("first client: expected 200, got %d", rec.Code)
	}
	if rec := doFrom(t, h, "10.0.0.1:9999"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("same ip different port must share a bucket, got %d", rec.Code)
	}
	if rec := doFrom(t, h, "10.0.0.2:1234"); rec.Code != http.StatusOK {
		t.Fatalf("other client must have its own bucket, got %d", rec.Code)
	}
}

func TestLocalLimiterWindowResets(t *testing.T) {
	limiter := NewLocalFixedWindowLimiter()
	ctx := context.Background()

	if ok, _, err := limiter.Allow(ctx, "k", 1, 10*time.Millisecond); !ok || err != nil {
		t.Fatalf("first: ok=%v err=%v", ok, err)
	}
	if ok, retryAfter, _ := limiter.Allow(ctx, "k", 1, 10*time.Millisecond); ok || retryAfter <= 0 {
		t.Fatalf("second inside window: ok=%v retryAfter=%v", ok, retryAfter)
	}
	time.Sleep(15 * time.Millisecond)
	if ok, _, err := limiter.Allow(ctx, "k", 1, 10*time.Millisecond); !ok || err != nil {
		t.Fatalf("after window: ok=%v err=%v", ok, err)
	}
}

type erroringLimiter struct{}

func (erroringLimiter) Allow(context.Context, string, int, time.Duration) (bool, time.Duration, error) {
	return false, 0, errors.New("backend down")
}

func TestFailureModes(t *testing.T) {
	t.Run("fail open lets the request through", func(t *testing.T) {
		rl := NewDistributedRateLimiter(erroringLimiter{}, 1, time.Minute, FailOpen, "api")
		if rec := doFrom(t, rl.Middleware()(okHandler()), "10.0.0.1:1234"); rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("fail closed rejects with retry hint", func(t *testing.T) {
		rl := NewDistributedRateLimiter(erroringLimiter{}, 1, time.Minute, FailClosed, "auth")
		rec := doFrom(t, rl.Middleware()(okHandler()), "10.0.0.1:1234")
		if rec.Code != http.StatusTooManyRequests {
			t.Fatalf("expected 429, got %d", rec.Code)
		}
		if rec.Header().Get("Retry-After") == "" {
			t.Fatal("expected Retry-After header")
		}
	})
}

func TestRetryAfterHeaderRounding(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{0, "1"},
		{300 * time.Millisecond, "1"},
		{time.Second, "1"},
		{61 * time.Second, "61"},
	}
	for _, tc := range cases {
		if got := retryAfterHeader(tc.in); got != tc.want {
			t.Fatalf("retryAfterHeader(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
