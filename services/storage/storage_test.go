package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"golang.org/x/oauth2"
)

type failingStore struct{ err error }

func (f failingStore) Get(ctx context.Context, key string) (string, error) { return "", f.err }
func (f failingStore) Set(ctx context.Context, key, value string) error    { return f.err }
func (f failingStore) Delete(ctx context.Context, keys ...string) error    { return f.err }

func TestEncryptedFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "secure.json")

	s, err := NewEncryptedFileStore(path, "s3cret")
	if err != nil {
		t.Fatalf("NewEncryptedFileStore: %v", err)
	}
	if _, err := s.Get(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get on empty store err = %v, want ErrNotFound", err)
	}
	if err := s.Set(ctx, "a", "1"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	reopened, _ := NewEncryptedFileStore(path, "s3cret")
	if got, err := reopened.Get(ctx, "a"); err != nil || got != "1" {
		t.Fatalf("Get after reopen = %q, %v", got, err)
	}

	wrongKey, _ := NewEncryptedFileStore(path, "other")
	if _, err := wrongKey.Get(ctx, "a"); err == nil {
		t.Fatal("file opened with the wrong secret")
	}

	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after delete err = %v", err)
	}
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	s := NewRedisStore(client, "bookitgy:", time.Hour)
	if err := s.Set(ctx, "favorites:7", `["1"]`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got, _ := mr.Get("bookitgy:favorites:7"); got != `["1"]` {
		t.Fatalf("raw value = %q", got)
	}
	if mr.TTL("bookitgy:favorites:7") != time.Hour {
		t.Fatalf("ttl = %v", mr.TTL("bookitgy:favorites:7"))
	}
	if err := s.Delete(ctx, "favorites:7"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "favorites:7"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after delete err = %v", err)
	}
}

func TestFallbackStoreUsesSecondaryWhenPrimaryFails(t *testing.T) {
	ctx := context.Background()
	secondary := NewMemoryStore()
	s := NewFallbackStore(failingStore{err: errors.New("keychain locked")}, secondary, nil)

	if err := s.Set(ctx, "accessToken", "tok"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got, _ := secondary.Get(ctx, "accessToken"); got != "tok" {
		t.Fatalf("secondary value = %q", got)
	}
	if got, err := s.Get(ctx, "accessToken"); err != nil || got != "tok" {
		t.Fatalf("Get = %q, %v", got, err)
	}
}

func TestFallbackStorePrimaryWriteClearsSecondary(t *testing.T) {
	ctx := context.Background()
	primary, secondary := NewMemoryStore(), NewMemoryStore()
	secondary.Set(ctx, "k", "old")

	s := NewFallbackStore(primary, secondary, nil)
	if err := s.Set(ctx, "k", "new"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := secondary.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("secondary still holds a copy")
	}
	if got, _ := s.Get(ctx, "k"); got != "new" {
		t.Fatalf("Get = %q, want new", got)
	}
}

func TestTokenStore(t *testing.T) {
	ctx := context.Background()
	ts := NewTokenStore(NewMemoryStore())

	tok, err := ts.Load(ctx)
	if err != nil || tok != nil {
		t.Fatalf("Load on empty store = %v, %v", tok, err)
	}
	if err := ts.Save(ctx, &oauth2.Token{AccessToken: "a", RefreshToken: "r"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	tok, err = ts.Load(ctx)
	if err != nil || tok.AccessToken != "a" || tok.RefreshToken != "r" {
		t.Fatalf("Load = %+v, %v", tok, err)
	}
	if err := ts.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if tok, _ := ts.Load(ctx); tok != nil {
		t.Fatalf("Load after Clear = %+v", tok)
	}
}
