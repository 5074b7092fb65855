package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ericfisherdev/gerritwatch/internal/domain/model"
	"github.com/ericfisherdev/gerritwatch/internal/domain/port/driven"
)

// optionsKey is the single row the options blob is stored under.
const optionsKey = "options"

// Compile-time interface satisfaction check.
var _ driven.OptionsStore = (*OptionsRepo)(nil)

// OptionsRepo is the SQLite implementation of the OptionsStore port interface.
// The options are stored as one JSON blob; the password inside it is
// encrypted with AES-256-GCM.
type OptionsRepo struct {
	db     *DB
	sealer sealer
}

// NewOptionsRepo creates a new OptionsRepo. key must be 32 bytes for AES-256-GCM,
// or nil, in which case options with a non-empty password cannot be saved.
func NewOptionsRepo(db *DB, key []byte) *OptionsRepo {
	return &OptionsRepo{db: db, sealer: sealer{key: key}}
}

// storedOptions is the persisted form of model.Options.
type storedOptions struct {
	RefreshTime int    `json:"refreshTime"`
	Endpoint    string `json:"endpoint"`
	Email       string `json:"email"`
	// SealedPassword is empty when no password was configured.
	SealedPassword string `json:"sealedPassword,omitempty"`
}

// Load returns the saved options, or (nil, nil) if nothing was saved yet.
func (r *OptionsRepo) Load(ctx context.Context) (*model.Options, error) {
	const query = `SELECT value FROM options WHERE key = ?`

	var blob string
	err := r.db.Reader.QueryRowContext(ctx, query, optionsKey).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load options: %w", err)
	}

	var stored storedOptions
	if err := json.Unmarshal([]byte(blob), &stored); err != nil {
		return nil, fmt.Errorf("decode options: %w", err)
	}

	opts := model.Options{
		RefreshTime: stored.RefreshTime,
		Endpoint:    stored.Endpoint,
		Credentials: model.Credentials{Email: stored.Email},
	}

	if stored.SealedPassword != "" {
		password, err := r.sealer.open(stored.SealedPassword)
		if err != nil {
			return nil, fmt.Errorf("decrypt options password: %w", err)
		}
		opts.Credentials.Password = password
	}

	return &opts, nil
}

// Save replaces the saved options.
func (r *OptionsRepo) Save(ctx context.Context, opts model.Options) error {
	stored := storedOptions{
		RefreshTime: opts.RefreshTime,
		Endpoint:    opts.Endpoint,
		Email:       opts.Credentials.Email,
	}

	if opts.Credentials.Password != "" {
		sealed, err := r.sealer.seal(opts.Credentials.Password)
		if err != nil {
			return fmt.Errorf("encrypt options password: %w", err)
		}
		stored.SealedPassword = sealed
	}

	blob, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("encode options: %w", err)
	}

	const query = `
		INSERT INTO options (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`

	if _, err := r.db.Writer.ExecContext(ctx, query, optionsKey, string(blob)); err != nil {
		return fmt.Errorf("save options: %w", err)
	}

	return nil
}
