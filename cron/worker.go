package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is one background refresh.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// RefreshWorker refreshes cached client state on a cron schedule while a session is held.
type RefreshWorker struct {
	cron     *cron.Cron
	jobs     []Job
	signedIn func() bool
	timeout  time.Duration
	logger   *zap.Logger
}

// NewRefreshWorker schedules jobs on spec, e.g. "@every 5m" or "*/10 * * * *". A run that is
// still going when the next tick fires makes that tick a no-op.
func NewRefreshWorker(spec string, signedIn func() bool, timeout time.Duration, logger *zap.Logger, jobs ...Job) (*RefreshWorker, error) {
	if logger == nil {
		logger = zap.L()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	w := &RefreshWorker{
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		jobs:     jobs,
		signedIn: signedIn,
		timeout:  timeout,
		logger:   logger,
	}
	if _, err := w.cron.AddFunc(spec, func() {
		if err := w.RunOnce(context.Background()); err != nil {
			w.logger.Warn("Background refresh incomplete", zap.Error(err))
		}
	}); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}
	return w, nil
}

// RunOnce runs every job in order, each bounded by the worker timeout. Nothing runs while
// signed out. Job failures are joined; one failing job does not stop the others.
func (w *RefreshWorker) RunOnce(ctx context.Context) error {
	if w.signedIn != nil && !w.signedIn() {
		w.logger.Debug("Skipping background refresh while signed out")
		return nil
	}
	var errs []error
	for _, job := range w.jobs {
		jobCtx, cancel := context.WithTimeout(ctx, w.timeout)
		start := time.Now()
		err := job.Run(jobCtx)
		cancel()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", job.Name, err))
			continue
		}
		w.logger.Debug("Background refresh done", zap.String("job", job.Name), zap.Duration("took", time.Since(start)))
	}
	return errors.Join(errs...)
}

func (w *RefreshWorker) Start() {
	w.cron.Start()
	w.logger.Info("Refresh worker started", zap.Int("jobs", len(w.jobs)))
}

// Stop stops scheduling and returns a context that is done once a running refresh finishes.
func (w *RefreshWorker) Stop() context.Context {
	return w.cron.Stop()
}
