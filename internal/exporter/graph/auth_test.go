package graph

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestTokenCache_AcquiresToken(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("failed to parse form: %v", err)
		}
		want := map[string]string{
			"grant_type":    "client_credentials",
			"client_id":     "test-client-id",
			"client_secret": "test-client-secret",
			"scope":         graphScope,
		}
		for k, v := range want {
			if got := r.FormValue(k); got != v {
				t.Errorf("%s: got %q, want %q", k, got, v)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(tokenResponse{
			AccessToken: "test-access-token",
			ExpiresIn:   3600,
			TokenType:   "Bearer",
		})
	}))
	defer server.Close()

	tc := newTokenCache(server.URL, "test-client-id", "test-client-secret", server.Client())

	token, err := tc.Token(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "test-access-token" {
		t.Errorf("token: got %q, want %q", token, "test-access-token")
	}
}

func TestTokenCache_CachesToken(t *testing.T) {
	t.Parallel()

	var callCount atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callCount.Add(1)
		json.NewEncoder(w).Encode(tokenResponse{AccessToken: "cached-token", ExpiresIn: 3600})
	}))
	defer server.Close()

	tc := newTokenCache(server.URL, "cid", "csecret", server.Client())

	for i := 0; i < 3; i++ {
		token, err := tc.Token(context.Background())
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if token != "cached-token" {
			t.Errorf("call %d token: got %q", i, token)
		}
	}
	if callCount.Load() != 1 {
		t.Errorf("server call count: got %d, want 1", callCount.Load())
	}
}

func TestTokenCache_RefreshesExpiredToken(t *testing.T) {
	t.Parallel()

	var callCount atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count := callCount.Add(1)
		// 1s lifetime is already past the expiry buffer.
		json.NewEncoder(w).Encode(tokenResponse{
			AccessToken: "token-" + strconv.Itoa(int(count)),
			ExpiresIn:   1,
		})
	}))
	defer server.Close()

	tc := newTokenCache(server.URL, "cid", "csecret", server.Client())

	first, err := tc.Token(context.Background())
	if err != nil {
		t.Fatalf("first call error: %v", err)
	}
	second, err := tc.Token(context.Background())
	if err != nil {
		t.Fatalf("second call error: %v", err)
	}

	if callCount.Load() != 2 {
		t.Errorf("server call count: got %d, want 2", callCount.Load())
	}
	if first == second {
		t.Errorf("expected a new token, got %q twice", first)
	}
}

func TestTokenCache_ForceRefresh(t *testing.T) {
	t.Parallel()

	var callCount atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count := callCount.Add(1)
		json.NewEncoder(w).Encode(tokenResponse{
			AccessToken: "force-token-" + strconv.Itoa(int(count)),
			ExpiresIn:   3600,
		})
	}))
	defer server.Close()

	tc := newTokenCache(server.URL, "cid", "csecret", server.Client())

	if _, err := tc.Token(context.Background()); err != nil {
		t.Fatalf("first call error: %v", err)
	}
	token, err := tc.ForceRefresh(context.Background())
	if err != nil {
		t.Fatalf("force refresh error: %v", err)
	}

	if callCount.Load() != 2 {
		t.Errorf("server call count: got %d, want 2", callCount.Load())
	}
	if token != "force-token-2" {
		t.Errorf("token: got %q, want %q", token, "force-token-2")
	}
}

func TestTokenCache_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	var callCount atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callCount.Add(1)
		time.Sleep(10 * time.Millisecond)
		json.NewEncoder(w).Encode(tokenResponse{AccessToken: "concurrent-token", ExpiresIn: 3600})
	}))
	defer server.Close()

	tc := newTokenCache(server.URL, "cid", "csecret", server.Client())

	const goroutines = 10
	var wg sync.WaitGroup
	tokens := make([]string, goroutines)
	errs := make([]error, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			tokens[idx], errs[idx] = tc.Token(context.Background())
		}(i)
	}
	wg.Wait()

	for i := range tokens {
		if errs[i] != nil {
			t.Errorf("goroutine %d error: %v", i, errs[i])
		}
		if tokens[i] != "concurrent-token" {
			t.Errorf("goroutine %d token: got %q", i, tokens[i])
		}
	}
	if callCount.Load() != 1 {
		t.Errorf("server call count: got %d, want 1", callCount.Load())
	}
}

func TestTokenCache_Errors(t *testing.T) {
	t.Parallel()

	tests := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error": "internal server error"}`))
		},
		"empty token": func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(tokenResponse{ExpiresIn: 3600})
		},
		"not json": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>"))
		},
	}

	for name, handler := range tests {
		handler := handler
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(handler)
			defer server.Close()

			tc := newTokenCache(server.URL, "cid", "csecret", server.Client())
			if _, err := tc.Token(context.Background()); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestTokenCache_ContextCancelled(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(tokenResponse{AccessToken: "t", ExpiresIn: 3600})
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tc := newTokenCache(server.URL, "cid", "csecret", server.Client())
	if _, err := tc.Token(ctx); err == nil {
		t.Error("expected error for cancelled context, got nil")
	}
}
