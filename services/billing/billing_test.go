package billing

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

	"bookitgy/services/api"
	"bookitgy/services/mutation"
)

func newTestService(t *testing.T, h http.Handler) *Service {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	apiClient, err := api.NewClient(api.Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return NewService(apiClient, nil, nil)
}

const billingRows = `[
	{"provider_id":1,"provider_name":"Ann","account_number":"ACC-1","amount_due_gyd":5000,"is_paid":false,"is_suspended":false},
	{"provider_id":2,"provider_name":"Bob","account_number":"ACC-2","amount_due_gyd":0,"is_paid":true,"is_suspended":false}
]`

func TestCycleMonth(t *testing.T) {
	if got := CycleMonth(2024, time.May); got != "2024-05-01" {
		t.Fatalf("CycleMonth = %q", got)
	}
}

func TestLoadAcceptsKnownShapes(t *testing.T) {
	for _, body := range []string{billingRows, `{"providers":` + billingRows + `}`, `{"data":` + billingRows + `}`} {
		s := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("cycle_month") != "2024-05-01" {
				t.Errorf("cycle_month = %q", r.URL.Query().Get("cycle_month"))
			}
			w.Write([]byte(body))
		}))
		rows, err := s.Load(context.Background(), "2024-05-01")
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if len(rows) != 2 || rows[0].AccountNumber != "ACC-1" || rows[0].AmountDue != 5000 {
			t.Fatalf("rows = %+v", rows)
		}
	}
}

func TestLoadRejectsUnknownShape(t *testing.T) {
	s := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rows":[]}`))
	}))
	if _, err := s.Load(context.Background(), "2024-05-01"); !errors.Is(err, api.ErrUnexpectedShape) {
		t.Fatalf("err = %v, want ErrUnexpectedShape", err)
	}
	if rows := s.Rows(); len(rows) != 0 {
		t.Fatalf("rows = %+v, want none", rows)
	}
}

func TestToggleSuspensionSingleRequestForRapidRepeats(t *testing.T) {
	var requests int32
	entered := make(chan struct{})
	release := make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc("/admin/billing", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(billingRows))
	})
	mux.HandleFunc("/admin/providers/suspension", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		close(entered)
		<-release
		w.Write([]byte(`{"is_suspended":true}`))
	})
	s := newTestService(t, mux)
	ctx := context.Background()
	s.Load(ctx, "2024-05-01")

	var wg sync.WaitGroup
	wg.Add(1)
	var firstErr error
	go func() {
		defer wg.Done()
		_, firstErr = s.ToggleSuspension(ctx, "ACC-1", true)
	}()
	<-entered

	if _, err := s.ToggleSuspension(ctx, "ACC-1", true); !errors.Is(err, mutation.ErrInFlight) {
		t.Fatalf("second call err = %v, want ErrInFlight", err)
	}
	close(release)
	wg.Wait()

	if firstErr != nil {
		t.Fatalf("first call: %v", firstErr)
	}
	if requests != 1 {
		t.Fatalf("requests = %d, want 1", requests)
	}
	if !s.Rows()[0].IsSuspended {
		t.Fatal("row not suspended")
	}
}

func TestToggleSuspensionOtherAccountsProceed(t *testing.T) {
	entered := make(chan struct{}, 2)
	release := make(chan struct{})
	s := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entered <- struct{}{}
		<-release
		w.Write([]byte(`{"is_suspended":true}`))
	}))

	var wg sync.WaitGroup
	for _, acc := range []string{"ACC-1", "ACC-2"} {
		acc := acc
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.ToggleSuspension(context.Background(), acc, true); err != nil {
				t.Errorf("%s: %v", acc, err)
			}
		}()
	}
	<-entered
	<-entered
	close(release)
	wg.Wait()
}

func TestToggleSuspensionRefetchesWithoutAuthoritativeField(t *testing.T) {
	var loads int32
	mux := http.NewServeMux()
	mux.HandleFunc("/admin/billing", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&loads, 1) == 1 {
			w.Write([]byte(billingRows))
			return
		}
		// Server decided differently from what was asked.
		w.Write([]byte(`[{"account_number":"ACC-1","is_suspended":false}]`))
	})
	mux.HandleFunc("/admin/providers/suspension", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["account_number"] != "ACC-1" || body["is_suspended"] != true {
			t.Errorf("body = %v", body)
		}
		w.Write([]byte(`{"ok":true}`))
	})
	s := newTestService(t, mux)
	ctx := context.Background()
	s.Load(ctx, "2024-05-01")

	if _, err := s.ToggleSuspension(ctx, "ACC-1", true); err != nil {
		t.Fatalf("ToggleSuspension: %v", err)
	}
	if loads != 2 {
		t.Fatalf("loads = %d, want 2", loads)
	}
	if rows := s.Rows(); len(rows) != 1 || rows[0].IsSuspended {
		t.Fatalf("rows = %+v, want the refetched state", rows)
	}
}

func TestMarkPaidTrustsResponse(t *testing.T) {
	var loads int32
	mux := http.NewServeMux()
	mux.HandleFunc("/admin/billing", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&loads, 1)
		w.Write([]byte(billingRows))
	})
	mux.HandleFunc("/admin/billing/ACC-1/mark-paid", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["cycle_month"] != "2024-05-01" {
			t.Errorf("cycle_month = %q", body["cycle_month"])
		}
		w.Write([]byte(`{"is_paid":true,"paid_at":"2024-05-20T10:00:00Z"}`))
	})
	s := newTestService(t, mux)
	ctx := context.Background()
	s.Load(ctx, "2024-05-01")

	if err := s.MarkPaid(ctx, "ACC-1"); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}
	row := s.Rows()[0]
	if !row.IsPaid || row.PaidAt == nil {
		t.Fatalf("row = %+v", row)
	}
	if loads != 1 {
		t.Fatalf("loads = %d, want no refetch", loads)
	}
}

func TestMissingAccountIsPrecondition(t *testing.T) {
	s := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	}))
	ctx := context.Background()
	var pe *PreconditionError
	if err := s.MarkPaid(ctx, " "); !errors.As(err, &pe) {
		t.Fatalf("MarkPaid err = %v", err)
	}
	if _, err := s.ToggleSuspension(ctx, "", true); !errors.As(err, &pe) {
		t.Fatalf("ToggleSuspension err = %v", err)
	}
	if err := s.AddCredit(ctx, "ACC-1", 0); !errors.As(err, &pe) {
		t.Fatalf("AddCredit err = %v", err)
	}
}

func TestMarkAllPaidRefetches(t *testing.T) {
	var loads, marks int32
	mux := http.NewServeMux()
	mux.HandleFunc("/admin/billing", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&loads, 1)
		w.Write([]byte(billingRows))
	})
	mux.HandleFunc("/admin/billing/mark-all-paid", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&marks, 1)
		w.WriteHeader(http.StatusNoContent)
	})
	s := newTestService(t, mux)
	ctx := context.Background()
	s.Load(ctx, "2024-05-01")

	if err := s.MarkAllPaid(ctx); err != nil {
		t.Fatalf("MarkAllPaid: %v", err)
	}
	if marks != 1 || loads != 2 {
		t.Fatalf("marks = %d loads = %d", marks, loads)
	}
}

func TestAddCredit(t *testing.T) {
	s := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/admin/promotions/ACC-1234" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		var body map[string]float64
		json.NewDecoder(r.Body).Decode(&body)
		if body["credit_gyd"] != 5000 {
			t.Errorf("credit_gyd = %v", body["credit_gyd"])
		}
	}))
	if err := s.AddCredit(context.Background(), "ACC-1234", 5000); err != nil {
		t.Fatalf("AddCredit: %v", err)
	}
}

func TestReloadInFlightDuringMutationsIsDiscarded(t *testing.T) {
	var loads int32
	entered := make(chan struct{})
	release := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("/admin/billing", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&loads, 1) == 2 {
			close(entered)
			<-release
		}
		w.Write([]byte(billingRows))
	})
	mux.HandleFunc("/admin/billing/ACC-1/mark-paid", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"is_paid":true}`))
	})
	mux.HandleFunc("/admin/providers/suspension", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"is_suspended":true}`))
	})
	s := newTestService(t, mux)
	ctx := context.Background()
	if _, err := s.Load(ctx, "2024-05-01"); err != nil {
		t.Fatalf("Load: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- s.Reload(ctx) }()
	<-entered

	if err := s.MarkPaid(ctx, "ACC-1"); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}
	if _, err := s.ToggleSuspension(ctx, "ACC-1", true); err != nil {
		t.Fatalf("ToggleSuspension: %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("late Reload: %v", err)
	}

	row := s.Rows()[0]
	if !row.IsPaid {
		t.Errorf("IsPaid = %v, want true", row.IsPaid)
	}
	if !row.IsSuspended {
		t.Errorf("IsSuspended = %v, want true", row.IsSuspended)
	}
	if got := s.Cycle(); got != "2024-05-01" {
		t.Errorf("Cycle = %q, want 2024-05-01", got)
	}
}

func TestLoadOfAnotherCycleIsNotDiscarded(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("/admin/billing", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("cycle_month") == "2024-06-01" {
			close(entered)
			<-release
			w.Write([]byte(`[{"account_number":"ACC-9","is_paid":false}]`))
			return
		}
		w.Write([]byte(billingRows))
	})
	mux.HandleFunc("/admin/billing/ACC-1/mark-paid", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"is_paid":true}`))
	})
	s := newTestService(t, mux)
	ctx := context.Background()
	s.Load(ctx, "2024-05-01")

	done := make(chan error, 1)
	go func() {
		_, err := s.Load(ctx, "2024-06-01")
		done <- err
	}()
	<-entered
	if err := s.MarkPaid(ctx, "ACC-1"); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := s.Cycle(); got != "2024-06-01" {
		t.Fatalf("Cycle = %q, want 2024-06-01", got)
	}
	if rows := s.Rows(); len(rows) != 1 || rows[0].AccountNumber != "ACC-9" {
		t.Fatalf("rows = %+v, want the June cycle", rows)
	}
}

func TestMarkPaidAndSuspensionUseSeparateGuards(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var suspensions int32
	mux := http.NewServeMux()
	mux.HandleFunc("/admin/billing", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(billingRows))
	})
	mux.HandleFunc("/admin/billing/ACC-1/mark-paid", func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		w.Write([]byte(`{"is_paid":true}`))
	})
	mux.HandleFunc("/admin/providers/suspension", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&suspensions, 1)
		w.Write([]byte(`{"is_suspended":true}`))
	})
	s := newTestService(t, mux)
	ctx := context.Background()
	s.Load(ctx, "2024-05-01")

	done := make(chan error, 1)
	go func() { done <- s.MarkPaid(ctx, "ACC-1") }()
	<-entered

	if !s.Pending("ACC-1") {
		t.Errorf("Pending(ACC-1) = false while mark-paid is in flight")
	}
	state, err := s.ToggleSuspension(ctx, "ACC-1", true)
	if err != nil {
		t.Errorf("ToggleSuspension while mark-paid is in flight: %v", err)
	}
	if !state {
		t.Errorf("state = %v, want true", state)
	}
	if err := s.MarkPaid(ctx, "ACC-1"); !errors.Is(err, mutation.ErrInFlight) {
		t.Errorf("second MarkPaid err = %v, want ErrInFlight", err)
	}
	if err := s.MarkAllPaid(ctx); !errors.Is(err, mutation.ErrInFlight) {
		t.Errorf("MarkAllPaid err = %v, want ErrInFlight", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}

	if got := atomic.LoadInt32(&suspensions); got != 1 {
		t.Fatalf("suspension requests = %d, want 1", got)
	}
	row := s.Rows()[0]
	if !row.IsPaid || !row.IsSuspended {
		t.Fatalf("row = %+v, want paid and suspended", row)
	}
	if s.Pending("ACC-1") {
		t.Fatalf("Pending(ACC-1) = true after both mutations finished")
	}
}
