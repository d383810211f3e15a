package billing

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"bookitgy/services/api"
	"bookitgy/services/storage"
	"bookitgy/utils"
)

func newChargeService(t *testing.T, h http.HandlerFunc, cache storage.KeyValueStore) *ServiceChargeService {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	apiClient, err := api.NewClient(api.Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return NewServiceChargeService(apiClient, cache, nil)
}

func TestNormalizeServiceCharge(t *testing.T) {
	cases := map[float64]float64{-5: 0, 0: 0, 12.5: 12.5, 100: 100, 250: 100, math.NaN(): 0}
	for in, want := range cases {
		if got := NormalizeServiceCharge(in); got != want {
			t.Errorf("NormalizeServiceCharge(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestServiceChargeFieldPrecedence(t *testing.T) {
	cases := []struct {
		body string
		want float64
	}{
		{`{"service_charge_percentage":12}`, 12},
		{`{"service_charge_percent":15}`, 15},
		{`{"service_charge_rate":0.2}`, 20},
		{`{"service_charge_percentage":130}`, 100},
		{`{}`, 0},
	}
	for _, tc := range cases {
		s := newChargeService(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(tc.body))
		}, storage.NewMemoryStore())
		got, err := s.Get(context.Background())
		if err != nil {
			t.Fatalf("Get(%s): %v", tc.body, err)
		}
		if got.Percentage != tc.want || got.Stale {
			t.Errorf("Get(%s) = %+v, want %v", tc.body, got, tc.want)
		}
	}
}

func TestServiceChargeFallsBackToCache(t *testing.T) {
	cache := storage.NewMemoryStore()
	var down atomic.Bool
	s := newChargeService(t, func(w http.ResponseWriter, r *http.Request) {
		if down.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"service_charge_percentage":7.5}`))
	}, cache)
	ctx := context.Background()

	if _, err := s.Get(ctx); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v, _ := cache.Get(ctx, utils.ServiceChargeKey); v != "7.5" {
		t.Fatalf("cached = %q", v)
	}

	down.Store(true)
	got, err := s.Get(ctx)
	if err == nil {
		t.Fatal("expected the fetch error to be reported")
	}
	if got.Percentage != 7.5 || !got.Stale {
		t.Fatalf("fallback = %+v", got)
	}
}

func TestServiceChargeDefaultWithoutCache(t *testing.T) {
	s := newChargeService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, storage.NewMemoryStore())
	got, _ := s.Get(context.Background())
	if got.Percentage != utils.DefaultServiceCharge || !got.Stale {
		t.Fatalf("Get = %+v", got)
	}
}

func TestServiceChargeSaveNormalizes(t *testing.T) {
	s := newChargeService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s", r.Method)
		}
		w.Write([]byte(`{"service_charge_percentage":100}`))
	}, storage.NewMemoryStore())
	got, err := s.Save(context.Background(), 140)
	if err != nil || got.Percentage != 100 {
		t.Fatalf("Save = %+v, %v", got, err)
	}
}
