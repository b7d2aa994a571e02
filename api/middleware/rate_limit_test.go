package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeWindowStore struct {
	counts map[string]int64
	err    error
}

func (f *fakeWindowStore) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	if f.err != nil {
		return false, 0, f.err
	}
	if f.counts == nil {
		f.counts = map[string]int64{}
	}
	f.counts[scope]++
	return f.counts[scope] <= limit, f.counts[scope], nil
}

func rateLimitedRequest(handler http.Handler, userID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	if userID != "" {
		req = req.WithContext(WithUserID(req.Context(), userID))
	}
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func TestRateLimitBlocksAfterLimit(t *testing.T) {
	store := &fakeWindowStore{}
	handler := RateLimit(NewRateLimitPolicy("Analyze", time.Minute, 2), store, nil)(okHandler(nil))

	for i := 0; i < 2; i++ {
		if resp := rateLimitedRequest(handler, "user_1"); resp.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200 got %d", i, resp.Code)
		}
	}
	resp := rateLimitedRequest(handler, "user_1")
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", resp.Code)
	}
	if resp.Header().Get("Retry-After") != "60" {
		t.Fatalf("expected Retry-After 60, got %q", resp.Header().Get("Retry-After"))
	}
	if resp.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Fatalf("expected no remaining budget")
	}
	if _, ok := store.counts["analyze:user_1"]; !ok {
		t.Fatalf("expected scope keyed by policy and user, got %v", store.counts)
	}

	if resp := rateLimitedRequest(handler, "user_2"); resp.Code != http.StatusOK {
		t.Fatalf("other users keep their own window, got %d", resp.Code)
	}
}

func TestRateLimitFailsOpen(t *testing.T) {
	store := &fakeWindowStore{err: errors.New("redis down")}
	handler := RateLimit(NewRateLimitPolicy("analyze", time.Minute, 1), store, nil)(okHandler(nil))
	if resp := rateLimitedRequest(handler, "user_1"); resp.Code != http.StatusOK {
		t.Fatalf("expected pass-through on store error, got %d", resp.Code)
	}
}

func TestRateLimitRequiresUser(t *testing.T) {
	handler := RateLimit(NewRateLimitPolicy("analyze", time.Minute, 1), &fakeWindowStore{}, nil)(okHandler(nil))
	if resp := rateLimitedRequest(handler, ""); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestRateLimitDisabledPolicy(t *testing.T) {
	store := &fakeWindowStore{}
	handler := RateLimit(NewRateLimitPolicy("analyze", 0, 0), store, nil)(okHandler(nil))
	for i := 0; i < 5; i++ {
		if resp := rateLimitedRequest(handler, "user_1"); resp.Code != http.StatusOK {
			t.Fatalf("disabled policy should not throttle")
		}
	}
	if len(store.counts) != 0 {
		t.Fatalf("disabled policy should not touch the store")
	}
}
