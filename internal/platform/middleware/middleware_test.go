package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func TestRequestID_GeneratesNew(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	mw := RequestID()
	handler := mw(func(c echo.Context) error {
		if rid, ok := c.Get("request_id").(string); !ok || rid == "" {
			t.Error("expected request_id in context")
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("expected request id in response header")
	}
}

func TestRequestID_PreservesExisting(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "my-custom-id")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	mw := RequestID()
	handler := mw(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Header().Get(RequestIDHeader) != "my-custom-id" {
		t.Errorf("expected my-custom-id in response header, got %s", rec.Header().Get(RequestIDHeader))
	}
}

func TestRecovery_RecoversPanic(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	mw := Recovery(logger)
	handler := mw(func(c echo.Context) error {
		panic("boom")
	})

	err := handler(c)
	if err == nil {
		t.Fatal("expected error from recovered panic")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", httpErr.Code)
	}
}

func TestLogger_AttributesAuthenticatedCaller(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/risk/check", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var buf bytes.Buffer
	mw := Logger(zerolog.New(&buf))
	handler := mw(func(c echo.Context) error {
		c.Set("caller", "interaction-checker")
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	line := buf.String()
	if !strings.Contains(line, `"caller":"interaction-checker"`) {
		t.Errorf("expected caller field in log line, got %s", line)
	}
	if !strings.Contains(line, `"path":"/api/v1/risk/check"`) {
		t.Errorf("expected path field in log line, got %s", line)
	}
}

func TestLogger_OmitsCallerWhenUnauthenticated(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var buf bytes.Buffer
	mw := Logger(zerolog.New(&buf))
	handler := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	if err := handler(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(buf.String(), `"caller"`) {
		t.Errorf("expected no caller field for unauthenticated request, got %s", buf.String())
	}
}

func TestRecovery_LogsRequestPath(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/risk/train", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var buf bytes.Buffer
	mw := Recovery(zerolog.New(&buf))
	handler := mw(func(c echo.Context) error {
		panic("boom")
	})

	if err := handler(c); err == nil {
		t.Fatal("expected error from recovered panic")
	}
	line := buf.String()
	if !strings.Contains(line, `"path":"/api/v1/risk/train"`) {
		t.Errorf("expected panic log to carry the request path, got %s", line)
	}
	if !strings.Contains(line, `"panic":"boom"`) {
		t.Errorf("expected panic value in log line, got %s", line)
	}
}

func TestRateLimit_Allows(t *testing.T) {
	e := echo.New()
	mw := RateLimit(RateLimitConfig{RequestsPerSecond: 100, BurstSize: 5})
	handler := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Header().Get("X-RateLimit-Limit") == "" {
		t.Error("expected X-RateLimit-Limit header")
	}
}

func TestRateLimit_BlocksAfterBurst(t *testing.T) {
	e := echo.New()
	mw := RateLimit(RateLimitConfig{RequestsPerSecond: 0.001, BurstSize: 2})
	handler := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	var lastErr error
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		lastErr = handler(c)
	}

	if lastErr == nil {
		t.Fatal("expected rate limit error on third request")
	}
	httpErr, ok := lastErr.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %v", lastErr)
	}
}

func TestRateLimit_KeysOnAuthenticatedCaller(t *testing.T) {
	e := echo.New()
	mw := RateLimit(RateLimitConfig{RequestsPerSecond: 0.001, BurstSize: 1})
	handler := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	do := func(caller string) error {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.Set("caller", caller)
		return handler(c)
	}

	if err := do("svc-a"); err != nil {
		t.Fatalf("unexpected error for first svc-a request: %v", err)
	}
	err := do("svc-a")
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429 for exhausted svc-a bucket, got %v", err)
	}
	// Same IP, different service, fresh bucket.
	if err := do("svc-b"); err != nil {
		t.Errorf("expected svc-b to have its own bucket, got %v", err)
	}
}

func TestRateLimiterStore_EvictsIdleBuckets(t *testing.T) {
	store := newRateLimiterStore(RateLimitConfig{RequestsPerSecond: 10, BurstSize: 10})

	stale := store.getBucket("svc:gone")
	stale.mu.Lock()
	stale.lastRefill = time.Now().Add(-bucketIdleTTL - time.Minute)
	stale.mu.Unlock()

	active := store.getBucket("svc:busy")
	if !active.allow() {
		t.Fatal("expected active bucket to allow")
	}

	// A previously unseen key triggers the idle scan.
	store.getBucket("svc:new")

	store.mu.RLock()
	_, staleKept := store.buckets["svc:gone"]
	_, activeKept := store.buckets["svc:busy"]
	store.mu.RUnlock()

	if staleKept {
		t.Error("expected idle bucket to be evicted")
	}
	if !activeKept {
		t.Error("expected recently used bucket to survive eviction")
	}
}
