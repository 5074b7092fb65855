package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ericfisherdev/gerritwatch/internal/domain/model"
	"github.com/ericfisherdev/gerritwatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ChangeStore = (*ChangeRepo)(nil)

// ChangeRepo is the SQLite implementation of the ChangeStore port interface.
type ChangeRepo struct {
	db *DB
}

// NewChangeRepo creates a new ChangeRepo backed by the given DB.
func NewChangeRepo(db *DB) *ChangeRepo {
	return &ChangeRepo{db: db}
}

// Add starts tracking a change. Returns an error wrapping
// driven.ErrChangeAlreadyTracked if the change is already tracked.
func (r *ChangeRepo) Add(ctx context.Context, changeID string) error {
	const query = `INSERT INTO tracked_changes (change_id, added_at) VALUES (?, ?)`

	_, err := r.db.Writer.ExecContext(ctx, query, changeID, time.Now().UTC())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return fmt.Errorf("add change %s: %w", changeID, driven.ErrChangeAlreadyTracked)
		}
		return fmt.Errorf("add change %s: %w", changeID, err)
	}

	return nil
}

// Remove stops tracking a change. Returns an error wrapping
// driven.ErrChangeNotTracked if the change was not tracked.
func (r *ChangeRepo) Remove(ctx context.Context, changeID string) error {
	const query = `DELETE FROM tracked_changes WHERE change_id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, changeID)
	if err != nil {
		return fmt.Errorf("remove change %s: %w", changeID, err)
	}

	return requireAffected(result, "remove change "+changeID)
}

// Get retrieves a tracked change. Returns nil, nil if it is not tracked.
func (r *ChangeRepo) Get(ctx context.Context, changeID string) (*model.TrackedChange, error) {
	const query = `
		SELECT change_id, added_at, last_result, last_status_code, last_polled_at
		FROM tracked_changes
		WHERE change_id = ?
	`

	tc, err := scanTrackedChange(r.db.Reader.QueryRowContext(ctx, query, changeID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get change %s: %w", changeID, err)
	}

	return tc, nil
}

// ListAll returns all tracked changes in the order they were added.
func (r *ChangeRepo) ListAll(ctx context.Context) ([]model.TrackedChange, error) {
	const query = `
		SELECT change_id, added_at, last_result, last_status_code, last_polled_at
		FROM tracked_changes
		ORDER BY id
	`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list changes: %w", err)
	}
	defer rows.Close()

	changes := []model.TrackedChange{}
	for rows.Next() {
		tc, err := scanTrackedChange(rows)
		if err != nil {
			return nil, fmt.Errorf("scan change: %w", err)
		}
		changes = append(changes, *tc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate changes: %w", err)
	}

	return changes, nil
}

// SaveResult records the latest query result for a tracked change.
func (r *ChangeRepo) SaveResult(ctx context.Context, changeID string, result model.QueryResult, polledAt time.Time) error {
	encoded, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result for %s: %w", changeID, err)
	}

	const query = `
		UPDATE tracked_changes
		SET last_result = ?, last_status_code = ?, last_polled_at = ?
		WHERE change_id = ?
	`

	res, err := r.db.Writer.ExecContext(ctx, query, string(encoded), result.StatusCode, polledAt.UTC(), changeID)
	if err != nil {
		return fmt.Errorf("save result for %s: %w", changeID, err)
	}

	return requireAffected(res, "save result for "+changeID)
}

// requireAffected turns a zero-row update into driven.ErrChangeNotTracked.
func requireAffected(result sql.Result, op string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("%s: %w", op, driven.ErrChangeNotTracked)
	}

	return nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTrackedChange(s scanner) (*model.TrackedChange, error) {
	var tc model.TrackedChange
	var addedAt string
	var lastResult, lastPolledAt sql.NullString
	var statusCode int

	if err := s.Scan(&tc.ChangeID, &addedAt, &lastResult, &statusCode, &lastPolledAt); err != nil {
		return nil, err
	}

	var err error
	tc.AddedAt, err = parseTime(addedAt)
	if err != nil {
		return nil, fmt.Errorf("parse added_at: %w", err)
	}

	if lastResult.Valid {
		var result model.QueryResult
		if err := json.Unmarshal([]byte(lastResult.String), &result); err != nil {
			return nil, fmt.Errorf("decode last_result: %w", err)
		}
		if result.Kind == model.ResultEmpty {
			result.StatusCode = statusCode
		}
		tc.LastResult = &result
	}

	if lastPolledAt.Valid {
		tc.LastPolledAt, err = parseTime(lastPolledAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse last_polled_at: %w", err)
		}
	}

	return &tc, nil
}
