// Package application contains use-case orchestration services.
package application

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ericfisherdev/gerritwatch/internal/domain/model"
	"github.com/ericfisherdev/gerritwatch/internal/domain/port/driven"
)

// defaultConcurrency bounds the number of in-flight change queries per poll
// cycle when the caller passes a non-positive value.
const defaultConcurrency = 4

// refreshRequest represents a manual refresh trigger.
type refreshRequest struct {
	changeID string
	done     chan error
}

// PollService orchestrates periodic Gerrit polling of tracked changes and
// persistence of their latest results.
type PollService struct {
	client       driven.GerritClient
	optionsStore driven.OptionsStore
	changeStore  driven.ChangeStore
	endpoint     *EndpointProvider
	concurrency  int
	refreshCh    chan refreshRequest
	restartCh    chan chan error
}

// NewPollService creates a new PollService with all required dependencies.
func NewPollService(
	client driven.GerritClient,
	optionsStore driven.OptionsStore,
	changeStore driven.ChangeStore,
	endpoint *EndpointProvider,
	concurrency int,
) *PollService {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	return &PollService{
		client:       client,
		optionsStore: optionsStore,
		changeStore:  changeStore,
		endpoint:     endpoint,
		concurrency:  concurrency,
		refreshCh:    make(chan refreshRequest),
		restartCh:    make(chan chan error),
	}
}

// Start begins the polling loop. It loads the saved options, runs an
// immediate poll, then polls every RefreshTime seconds. It also serves
// restart and manual refresh requests. Start blocks until the context is
// canceled.
func (s *PollService) Start(ctx context.Context) {
	if err := s.reload(ctx); err != nil {
		slog.Error("load options failed", "error", err)
	}
	s.pollAll(ctx)

	ticker := time.NewTicker(s.interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("poll service stopped")
			return
		case <-ticker.C:
			s.pollAll(ctx)
		case done := <-s.restartCh:
			err := s.reload(ctx)
			if err == nil {
				ticker.Reset(s.interval())
			}
			// Answer before polling so callers never wait on Gerrit.
			done <- err
			if err == nil {
				s.pollAll(ctx)
			}
		case req := <-s.refreshCh:
			req.done <- s.pollChange(ctx, s.endpoint.Get(), req.changeID)
		}
	}
}

// Restart re-reads the saved options and restarts the polling schedule with
// them, then polls every tracked change straight away. It returns once the
// options are reloaded, without waiting for that poll, or when the context is
// canceled. A loop busy with a poll cycle picks the restart up afterwards.
func (s *PollService) Restart(ctx context.Context) error {
	done := make(chan error, 1)

	select {
	case s.restartCh <- done:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RefreshChange polls a single tracked change outside the regular schedule.
// It blocks until the refresh completes or the context is canceled.
func (s *PollService) RefreshChange(ctx context.Context, changeID string) error {
	done := make(chan error, 1)
	req := refreshRequest{changeID: changeID, done: done}

	select {
	case s.refreshCh <- req:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// reload copies the stored options into the endpoint provider. Absent
// options leave the defaults in place.
func (s *PollService) reload(ctx context.Context) error {
	opts, err := s.optionsStore.Load(ctx)
	if err != nil {
		return err
	}

	if opts == nil {
		s.endpoint.Replace(model.DefaultOptions())
		slog.Info("no options saved, polling disabled until an endpoint is configured")
		return nil
	}

	s.endpoint.Replace(*opts)
	slog.Info("options loaded",
		"endpoint", opts.Endpoint,
		"refresh_time", opts.RefreshTime,
		"email", opts.Credentials.Email,
	)
	return nil
}

// interval converts the configured refresh time into a ticker period.
func (s *PollService) interval() time.Duration {
	seconds := s.endpoint.Get().RefreshTime
	if seconds <= 0 {
		seconds = model.DefaultRefreshTime
	}
	return time.Duration(seconds) * time.Second
}

// pollAll queries every tracked change concurrently. A failing change is
// logged and counted but never aborts the cycle.
func (s *PollService) pollAll(ctx context.Context) {
	opts := s.endpoint.Get()
	if !opts.IsConfigured() {
		slog.Debug("poll skipped, no endpoint configured")
		return
	}

	start := time.Now()

	changes, err := s.changeStore.ListAll(ctx)
	if err != nil {
		slog.Error("list tracked changes failed", "error", err)
		return
	}

	var pollErrors atomic.Int32
	var g errgroup.Group
	g.SetLimit(s.concurrency)

	for _, tc := range changes {
		if ctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if err := s.pollChange(ctx, opts, tc.ChangeID); err != nil {
				pollErrors.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	slog.Info("poll cycle complete",
		"changes", len(changes),
		"errors", pollErrors.Load(),
		"duration", time.Since(start).Round(time.Millisecond),
	)
}

// pollChange queries one change and persists the outcome. An unexpected
// payload shape is stored as an error result and returned.
func (s *PollService) pollChange(ctx context.Context, opts model.Options, changeID string) error {
	if !opts.IsConfigured() {
		return ErrMissingConfig
	}

	result, queryErr := s.client.Query(ctx, opts, changeID)
	if queryErr != nil {
		slog.Error("unexpected change payload", "change_id", changeID, "error", queryErr)
		result = model.ErrorResult(changeID)
	}

	if err := s.changeStore.SaveResult(ctx, changeID, result, time.Now().UTC()); err != nil {
		slog.Error("save result failed", "change_id", changeID, "error", err)
		return errors.Join(queryErr, err)
	}

	slog.Debug("change polled", "change_id", changeID, "result", result.Kind.String())

	if queryErr != nil {
		return queryErr
	}
	if result.Kind == model.ResultError {
		return errQueryFailed
	}
	return nil
}
