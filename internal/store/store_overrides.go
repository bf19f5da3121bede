package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// GetOverride returns the manual correction for a performer, or nil.
func (s *Store) GetOverride(ctx context.Context, performerID string) (*Override, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT performer_id, is_artificial, reason, timestamp FROM overrides WHERE performer_id = ?`,
		performerID,
	)
	var (
		override     Override
		isArtificial int
		reason       sql.NullString
		timestampRaw string
	)
	err := row.Scan(&override.PerformerID, &isArtificial, &reason, &timestampRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get override: %w", err)
	}
	override.IsArtificial = isArtificial != 0
	override.Reason = reason.String
	if timestamp, err := parseTimeString(timestampRaw); err == nil {
		override.Timestamp = timestamp
	}
	return &override, nil
}

// ListOverrides returns every manual correction, newest first.
func (s *Store) ListOverrides(ctx context.Context) ([]*Override, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT performer_id, is_artificial, reason, timestamp FROM overrides ORDER BY timestamp DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list overrides: %w", err)
	}
	defer rows.Close()

	var overrides []*Override
	for rows.Next() {
		var (
			override     Override
			isArtificial int
			reason       sql.NullString
			timestampRaw string
		)
		if err := rows.Scan(&override.PerformerID, &isArtificial, &reason, &timestampRaw); err != nil {
			return nil, err
		}
		override.IsArtificial = isArtificial != 0
		override.Reason = reason.String
		if timestamp, err := parseTimeString(timestampRaw); err == nil {
			override.Timestamp = timestamp
		}
		overrides = append(overrides, &override)
	}
	return overrides, rows.Err()
}

// SetOverride inserts or replaces the manual correction for a performer.
func (s *Store) SetOverride(ctx context.Context, performerID string, isArtificial bool, reason string) error {
	if err := s.execWithoutResultRetry(
		ctx,
		`INSERT INTO overrides (performer_id, is_artificial, reason, timestamp)
         VALUES (?, ?, ?, ?)
         ON CONFLICT(performer_id) DO UPDATE SET
             is_artificial = excluded.is_artificial,
             reason = excluded.reason,
             timestamp = excluded.timestamp`,
		performerID,
		boolToInt(isArtificial),
		nullableString(reason),
		formatTime(time.Now()),
	); err != nil {
		return fmt.Errorf("set override: %w", err)
	}
	return nil
}

// DeleteOverride removes the manual correction for a performer.
func (s *Store) DeleteOverride(ctx context.Context, performerID string) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM overrides WHERE performer_id = ?`, performerID)
	if err != nil {
		return false, fmt.Errorf("delete override: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}
