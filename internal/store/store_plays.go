package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// InsertAction records the side effects attempted for a play.
func (s *Store) InsertAction(ctx context.Context, action Action) error {
	timestamp := action.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}
	if err := s.execWithoutResultRetry(
		ctx,
		`INSERT INTO actions (play_id, timestamp, skipped, removed_from_playlist, added_to_blocked_playlist)
         VALUES (?, ?, ?, ?, ?)`,
		action.PlayID,
		formatTime(timestamp),
		boolToInt(action.Skipped),
		boolToInt(action.RemovedFromPlaylist),
		boolToInt(action.AddedToBlockedPlaylist),
	); err != nil {
		return fmt.Errorf("insert action: %w", err)
	}
	return nil
}

// RecentPlays returns plays joined with track, release, and context names, newest first.
func (s *Store) RecentPlays(ctx context.Context, limit, offset int) ([]*PlayView, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT p.id, p.timestamp, p.track_id, p.release_id, p.context_uri,
                p.device_id, p.device_name, p.device_type, p.progress_ms, p.is_playing,
                COALESCE(t.name, ''), COALESCE(r.name, ''), COALESCE(c.name, ''), COALESCE(c.type, '')
         FROM plays p
         LEFT JOIN tracks t ON p.track_id = t.id
         LEFT JOIN releases r ON p.release_id = r.id
         LEFT JOIN play_contexts c ON p.context_uri = c.uri
         ORDER BY p.timestamp DESC
         LIMIT ? OFFSET ?`,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("query plays: %w", err)
	}
	defer rows.Close()

	var views []*PlayView
	for rows.Next() {
		var (
			view         PlayView
			timestampRaw string
			releaseID    sql.NullString
			contextURI   sql.NullString
			deviceID     sql.NullString
			deviceName   sql.NullString
			deviceType   sql.NullString
			progressMS   sql.NullInt64
			isPlaying    sql.NullInt64
		)
		if err := rows.Scan(
			&view.Play.ID,
			&timestampRaw,
			&view.TrackID,
			&releaseID,
			&contextURI,
			&deviceID,
			&deviceName,
			&deviceType,
			&progressMS,
			&isPlaying,
			&view.TrackName,
			&view.ReleaseName,
			&view.ContextName,
			&view.ContextType,
		); err != nil {
			return nil, err
		}
		view.ReleaseID = releaseID.String
		view.ContextURI = contextURI.String
		view.DeviceID = deviceID.String
		view.DeviceName = deviceName.String
		view.DeviceType = deviceType.String
		view.ProgressMS = progressMS.Int64
		view.IsPlaying = isPlaying.Valid && isPlaying.Int64 != 0
		if timestamp, err := parseTimeString(timestampRaw); err == nil {
			view.Play.Timestamp = timestamp
		}
		views = append(views, &view)
	}
	return views, rows.Err()
}

// PlayCount reports the total number of recorded plays.
func (s *Store) PlayCount(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM plays`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count plays: %w", err)
	}
	return count, nil
}

// DecisionCount reports the total number of recorded decisions.
func (s *Store) DecisionCount(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM decisions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count decisions: %w", err)
	}
	return count, nil
}
