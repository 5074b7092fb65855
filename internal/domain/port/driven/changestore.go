package driven

import (
	"context"
	"errors"
	"time"

	"github.com/ericfisherdev/gerritwatch/internal/domain/model"
)

// Sentinel errors returned by ChangeStore implementations.
var (
	// ErrChangeNotTracked indicates the change id is not on the watch list.
	ErrChangeNotTracked = errors.New("change not tracked")

	// ErrChangeAlreadyTracked indicates the change id is already on the watch list.
	ErrChangeAlreadyTracked = errors.New("change already tracked")
)

// ChangeStore defines the driven port for tracked changes and their latest
// polled results.
// Add returns ErrChangeAlreadyTracked if the change is already tracked.
// Remove and SaveResult return ErrChangeNotTracked if it is not.
type ChangeStore interface {
	Add(ctx context.Context, changeID string) error
	Remove(ctx context.Context, changeID string) error
	Get(ctx context.Context, changeID string) (*model.TrackedChange, error)
	ListAll(ctx context.Context) ([]model.TrackedChange, error)
	SaveResult(ctx context.Context, changeID string, result model.QueryResult, polledAt time.Time) error
}
