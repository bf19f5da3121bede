package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// UpsertPerformer inserts or refreshes a performer and bumps its play count.
func (s *Store) UpsertPerformer(ctx context.Context, id, name, uri string) error {
	now := formatTime(time.Now())
	if err := s.execWithoutResultRetry(
		ctx,
		`INSERT INTO performers (id, name, uri, first_seen, last_seen, play_count)
         VALUES (?, ?, ?, ?, ?, 1)
         ON CONFLICT(id) DO UPDATE SET
             name = excluded.name,
             uri = excluded.uri,
             last_seen = excluded.last_seen,
             play_count = play_count + 1`,
		id,
		name,
		nullableString(uri),
		now,
		now,
	); err != nil {
		return fmt.Errorf("upsert performer: %w", err)
	}
	return nil
}

// EnsurePerformer inserts a performer if it is not known yet, without
// touching the play count. Used when classifying outside a playback event.
func (s *Store) EnsurePerformer(ctx context.Context, id, name, uri string) error {
	now := formatTime(time.Now())
	if err := s.execWithoutResultRetry(
		ctx,
		`INSERT INTO performers (id, name, uri, first_seen, last_seen, play_count)
         VALUES (?, ?, ?, ?, ?, 0)
         ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
		id,
		name,
		nullableString(uri),
		now,
		now,
	); err != nil {
		return fmt.Errorf("ensure performer: %w", err)
	}
	return nil
}

// UpsertTrack inserts or refreshes a track and bumps its play count.
func (s *Store) UpsertTrack(ctx context.Context, track Track) error {
	now := formatTime(time.Now())
	if err := s.execWithoutResultRetry(
		ctx,
		`INSERT INTO tracks (id, name, uri, duration_ms, explicit, popularity, is_local, first_seen, last_seen, play_count)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
         ON CONFLICT(id) DO UPDATE SET
             name = excluded.name,
             uri = excluded.uri,
             duration_ms = excluded.duration_ms,
             explicit = excluded.explicit,
             popularity = excluded.popularity,
             is_local = excluded.is_local,
             last_seen = excluded.last_seen,
             play_count = play_count + 1`,
		track.ID,
		track.Name,
		nullableString(track.URI),
		track.DurationMS,
		boolToInt(track.Explicit),
		track.Popularity,
		boolToInt(track.IsLocal),
		now,
		now,
	); err != nil {
		return fmt.Errorf("upsert track: %w", err)
	}
	return nil
}

// UpsertRelease inserts or refreshes a release.
func (s *Store) UpsertRelease(ctx context.Context, release Release) error {
	now := formatTime(time.Now())
	if err := s.execWithoutResultRetry(
		ctx,
		`INSERT INTO releases (id, name, uri, release_date, first_seen)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET
             name = excluded.name,
             uri = excluded.uri,
             release_date = excluded.release_date`,
		release.ID,
		release.Name,
		nullableString(release.URI),
		nullableString(release.ReleaseDate),
		now,
	); err != nil {
		return fmt.Errorf("upsert release: %w", err)
	}
	return nil
}

// LinkTrackPerformer records a track's credit at the given position.
func (s *Store) LinkTrackPerformer(ctx context.Context, trackID, performerID string, position int) error {
	if err := s.execWithoutResultRetry(
		ctx,
		`INSERT OR IGNORE INTO track_performers (track_id, performer_id, position) VALUES (?, ?, ?)`,
		trackID,
		performerID,
		position,
	); err != nil {
		return fmt.Errorf("link track performer: %w", err)
	}
	return nil
}

// UpsertContext inserts or refreshes a playback context.
func (s *Store) UpsertContext(ctx context.Context, pc PlayContext) error {
	now := formatTime(time.Now())
	if err := s.execWithoutResultRetry(
		ctx,
		`INSERT INTO play_contexts (uri, type, name, owner, href, first_seen, last_seen)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(uri) DO UPDATE SET
             type = excluded.type,
             name = excluded.name,
             owner = excluded.owner,
             href = excluded.href,
             last_seen = excluded.last_seen`,
		pc.URI,
		pc.Type,
		nullableString(pc.Name),
		nullableString(pc.Owner),
		nullableString(pc.Href),
		now,
		now,
	); err != nil {
		return fmt.Errorf("upsert context: %w", err)
	}
	return nil
}

// InsertPlay appends one playback observation.
func (s *Store) InsertPlay(ctx context.Context, play Play) error {
	if err := s.execWithoutResultRetry(
		ctx,
		`INSERT INTO plays (id, timestamp, track_id, release_id, context_uri, device_id, device_name, device_type, progress_ms, is_playing)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		play.ID,
		formatTime(play.Timestamp),
		play.TrackID,
		nullableString(play.ReleaseID),
		nullableString(play.ContextURI),
		nullableString(play.DeviceID),
		nullableString(play.DeviceName),
		nullableString(play.DeviceType),
		play.ProgressMS,
		boolToInt(play.IsPlaying),
	); err != nil {
		return fmt.Errorf("insert play: %w", err)
	}
	return nil
}

// GetPerformer fetches a performer by id.
func (s *Store) GetPerformer(ctx context.Context, id string) (*Performer, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, name, uri, first_seen, last_seen, play_count FROM performers WHERE id = ?`,
		id,
	)
	var (
		performer Performer
		uri       sql.NullString
		firstRaw  string
		lastRaw   string
	)
	err := row.Scan(&performer.ID, &performer.Name, &uri, &firstRaw, &lastRaw, &performer.PlayCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get performer: %w", err)
	}
	performer.URI = uri.String
	if first, err := parseTimeString(firstRaw); err == nil {
		performer.FirstSeen = first
	}
	if last, err := parseTimeString(lastRaw); err == nil {
		performer.LastSeen = last
	}
	return &performer, nil
}
