package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/ericfisherdev/gerritwatch/internal/domain/model"
	"github.com/ericfisherdev/gerritwatch/internal/domain/port/driven"
)

var (
	// ErrMissingConfig is returned when a required option is empty.
	ErrMissingConfig = errors.New("missing configuration")

	// ErrInvalidConfig is returned when an option is set but unusable.
	ErrInvalidConfig = errors.New("invalid configuration")

	// errQueryFailed marks a change whose query failed at the transport level.
	errQueryFailed = errors.New("change query failed")
)

// Restarter restarts the polling schedule after the options change.
type Restarter interface {
	Restart(ctx context.Context) error
}

// OptionsService implements the options surface: loading, saving, and
// testing the Gerrit endpoint configuration.
type OptionsService struct {
	store     driven.OptionsStore
	client    driven.GerritClient
	restarter Restarter
}

// NewOptionsService creates an OptionsService.
func NewOptionsService(store driven.OptionsStore, client driven.GerritClient, restarter Restarter) *OptionsService {
	return &OptionsService{
		store:     store,
		client:    client,
		restarter: restarter,
	}
}

// Load returns the saved options, or the defaults if none were saved.
func (s *OptionsService) Load(ctx context.Context) (model.Options, error) {
	opts, err := s.store.Load(ctx)
	if err != nil {
		return model.Options{}, fmt.Errorf("load options: %w", err)
	}
	if opts == nil {
		return model.DefaultOptions(), nil
	}
	return *opts, nil
}

// Save persists opts and asks the poller to restart with them. The restart
// runs in the background, so a slow or stalled Gerrit server never holds up
// the caller. An empty endpoint is rejected with ErrMissingConfig.
func (s *OptionsService) Save(ctx context.Context, opts model.Options) error {
	if opts.Endpoint == "" {
		return ErrMissingConfig
	}
	if err := Validate(opts); err != nil {
		return err
	}

	if err := s.store.Save(ctx, opts); err != nil {
		return fmt.Errorf("save options: %w", err)
	}

	restartCtx := context.WithoutCancel(ctx)
	go func() {
		if err := s.restarter.Restart(restartCtx); err != nil {
			slog.Error("restart poller after save failed", "error", err)
		}
	}()

	return nil
}

// Update saves opts like Save, except that an empty password keeps the
// stored one as long as the email is unchanged. The options surfaces never
// echo the stored password back, so an untouched password field arrives empty.
func (s *OptionsService) Update(ctx context.Context, opts model.Options) error {
	if opts.Credentials.Password == "" {
		current, err := s.store.Load(ctx)
		if err != nil {
			return fmt.Errorf("load options: %w", err)
		}
		if current != nil && current.Credentials.Email == opts.Credentials.Email {
			opts.Credentials.Password = current.Credentials.Password
		}
	}

	return s.Save(ctx, opts)
}

// TestEndpoint checks that opts reach a Gerrit server that accepts the
// credentials. Refresh time, endpoint, and credentials must all be set.
func (s *OptionsService) TestEndpoint(ctx context.Context, opts model.Options) (bool, error) {
	if opts.RefreshTime == 0 || opts.Endpoint == "" || opts.Credentials.IsEmpty() {
		return false, ErrMissingConfig
	}

	return s.client.Test(ctx, opts.Endpoint, opts.Credentials), nil
}

// Validate checks that the refresh time is positive and the endpoint is an
// absolute http or https URL.
func Validate(opts model.Options) error {
	if opts.RefreshTime < 1 {
		return fmt.Errorf("refresh time must be at least 1 second, got %d: %w", opts.RefreshTime, ErrInvalidConfig)
	}

	u, err := url.Parse(opts.Endpoint)
	if err != nil {
		return fmt.Errorf("endpoint %q: %v: %w", opts.Endpoint, err, ErrInvalidConfig)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("endpoint %q must be an absolute http(s) URL: %w", opts.Endpoint, ErrInvalidConfig)
	}

	return nil
}
