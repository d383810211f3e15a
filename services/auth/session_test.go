package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"bookitgy/models"
	"bookitgy/services/api"
	"bookitgy/services/storage"

	"golang.org/x/oauth2"
)

func newTestSession(t *testing.T, h http.Handler) (*api.Client, *Session, *storage.TokenStore) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	client, err := api.NewClient(api.Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	store := storage.NewTokenStore(storage.NewMemoryStore())
	session := NewSession(client, store, nil)
	client.SetCredentials(session)
	return client, session, store
}

func TestConcurrentUnauthorizedTriggersOneRefresh(t *testing.T) {
	var refreshes int32
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshes, 1)
		time.Sleep(50 * time.Millisecond)
		json.NewEncoder(w).Encode(models.TokenPair{AccessToken: "new", RefreshToken: "r2"})
	})
	mux.HandleFunc("/bookings/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer new" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`[]`))
	})

	client, session, _ := newTestSession(t, mux)
	session.SetTokens(context.Background(), models.TokenPair{AccessToken: "old", RefreshToken: "r1"})

	var wg sync.WaitGroup
	errs := make(chan error, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- client.Do(context.Background(), api.Request{Path: "/bookings/me"}, nil)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
	}
	if refreshes != 1 {
		t.Fatalf("refresh calls = %d, want 1", refreshes)
	}
	tok, _ := session.Token(context.Background())
	if tok.AccessToken != "new" || tok.RefreshToken != "r2" {
		t.Fatalf("token = %+v", tok)
	}
}

func TestRefreshReturnsCurrentWhenAlreadyRotated(t *testing.T) {
	_, session, _ := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected call to %s", r.URL.Path)
	}))
	session.SetTokens(context.Background(), models.TokenPair{AccessToken: "current", RefreshToken: "r"})

	tok, err := session.Refresh(context.Background(), &oauth2.Token{AccessToken: "stale"})
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if tok.AccessToken != "current" {
		t.Fatalf("AccessToken = %q, want current", tok.AccessToken)
	}
}

func TestRefreshFailureClearsTokensAndNotifies(t *testing.T) {
	_, session, store := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"Refresh token revoked"}`))
	}))
	ctx := context.Background()
	stale := session.SetTokens(ctx, models.TokenPair{AccessToken: "a", RefreshToken: "r"})

	expired := 0
	session.OnExpired(func() { expired++ })

	if _, err := session.Refresh(ctx, stale); !errors.Is(err, api.ErrSessionExpired) {
		t.Fatalf("err = %v, want ErrSessionExpired", err)
	}
	if expired != 1 {
		t.Fatalf("expired hook calls = %d, want 1", expired)
	}
	if session.SignedIn() {
		t.Fatal("session still signed in")
	}
	if tok, _ := store.Load(ctx); tok != nil {
		t.Fatalf("stored token = %+v, want none", tok)
	}
}

func TestRefreshRequiresBothTokens(t *testing.T) {
	_, session, _ := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"only"}`))
	}))
	ctx := context.Background()
	stale := session.SetTokens(ctx, models.TokenPair{AccessToken: "a", RefreshToken: "r"})

	if _, err := session.Refresh(ctx, stale); !errors.Is(err, api.ErrSessionExpired) {
		t.Fatalf("err = %v, want ErrSessionExpired", err)
	}
}
