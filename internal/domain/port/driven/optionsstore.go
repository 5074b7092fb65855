package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/gerritwatch/internal/domain/model"
)

// ErrEncryptionKeyNotSet is returned by OptionsStore.Save when a password
// must be persisted but GERRITWATCH_SECRET_KEY has not been configured.
var ErrEncryptionKeyNotSet = errors.New("encryption key not configured: set GERRITWATCH_SECRET_KEY")

// OptionsStore defines the driven port for the persisted endpoint configuration.
// The adapter is responsible for protecting the password at rest; this
// interface operates on plaintext values at the domain boundary.
type OptionsStore interface {
	// Load returns the saved options, or (nil, nil) if none were saved.
	Load(ctx context.Context) (*model.Options, error)

	// Save replaces the saved options.
	Save(ctx context.Context, opts model.Options) error
}
