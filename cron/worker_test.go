package cron

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestRunOnceRunsEveryJob(t *testing.T) {
	var ran []string
	job := func(name string, err error) Job {
		return Job{Name: name, Run: func(ctx context.Context) error {
			ran = append(ran, name)
			return err
		}}
	}
	w, err := NewRefreshWorker("@every 1m", func() bool { return true }, time.Second, nil,
		job("bookings", nil),
		job("billing", errors.New("boom")),
		job("service-charge", nil),
	)
	if err != nil {
		t.Fatalf("NewRefreshWorker: %v", err)
	}

	err = w.RunOnce(context.Background())
	if err == nil || !strings.Contains(err.Error(), "billing: boom") {
		t.Fatalf("err = %v", err)
	}
	if len(ran) != 3 {
		t.Fatalf("ran = %v", ran)
	}
}

func TestRunOnceSkipsWhileSignedOut(t *testing.T) {
	called := false
	w, err := NewRefreshWorker("@every 1m", func() bool { return false }, time.Second, nil,
		Job{Name: "bookings", Run: func(ctx context.Context) error { called = true; return nil }},
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.RunOnce(context.Background()); err != nil || called {
		t.Fatalf("err = %v, called = %v", err, called)
	}
}

func TestJobsAreBoundedByTimeout(t *testing.T) {
	w, err := NewRefreshWorker("@every 1m", nil, 20*time.Millisecond, nil,
		Job{Name: "slow", Run: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}},
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.RunOnce(context.Background()); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v", err)
	}
}

func TestInvalidSchedule(t *testing.T) {
	if _, err := NewRefreshWorker("every now and then", nil, 0, nil); err == nil {
		t.Fatal("expected schedule error")
	}
}
