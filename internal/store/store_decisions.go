package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// InsertDecision appends a classification decision.
func (s *Store) InsertDecision(ctx context.Context, decision Decision) error {
	timestamp := decision.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}
	if err := s.execWithoutResultRetry(
		ctx,
		`INSERT INTO decisions (id, performer_id, timestamp, label, is_artificial, confidence,
                                sources_agreeing, min_required, band_policy_applied, llm_used,
                                decision_reason, cached_until)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		decision.ID,
		decision.PerformerID,
		formatTime(timestamp),
		decision.Label,
		nullableBoolInt(decision.IsArtificial),
		decision.Confidence,
		decision.SourcesAgreeing,
		decision.MinRequired,
		boolToInt(decision.BandPolicyApplied),
		boolToInt(decision.LLMUsed),
		nullableString(decision.Reason),
		formatTime(decision.CachedUntil),
	); err != nil {
		return fmt.Errorf("insert decision: %w", err)
	}
	return nil
}

// InsertSourceResult appends one evidence source's answer for a decision.
func (s *Store) InsertSourceResult(ctx context.Context, result SourceResult) error {
	if err := s.execWithoutResultRetry(
		ctx,
		`INSERT INTO source_results (decision_id, source_name, success, result, signals, url, query_time_ms)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		result.DecisionID,
		result.SourceName,
		boolToInt(result.Success),
		nullableString(result.Result),
		nullableString(result.Signals),
		nullableString(result.URL),
		result.QueryTimeMS,
	); err != nil {
		return fmt.Errorf("insert source result: %w", err)
	}
	return nil
}

// InsertLLMOutput appends the raw fallback model exchange for a decision.
func (s *Store) InsertLLMOutput(ctx context.Context, output LLMOutput) error {
	if err := s.execWithoutResultRetry(
		ctx,
		`INSERT INTO llm_outputs (decision_id, model, prompt, output, load_duration_ms, eval_duration_ms, total_duration_ms)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		output.DecisionID,
		output.Model,
		nullableString(output.Prompt),
		nullableString(output.Output),
		output.LoadDurationMS,
		output.EvalDurationMS,
		output.TotalDurationMS,
	); err != nil {
		return fmt.Errorf("insert llm output: %w", err)
	}
	return nil
}

// CachedDecision returns the newest unexpired decision for a performer, or nil.
func (s *Store) CachedDecision(ctx context.Context, performerID string) (*Decision, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+decisionColumns+` FROM decisions
         WHERE performer_id = ? AND cached_until > ?
         ORDER BY timestamp DESC LIMIT 1`,
		performerID,
		formatTime(time.Now()),
	)
	decision, err := scanDecision(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cached decision: %w", err)
	}
	return decision, nil
}

// InvalidateCache force-expires all cached decisions for a performer.
func (s *Store) InvalidateCache(ctx context.Context, performerID string) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE decisions SET cached_until = ? WHERE performer_id = ? AND cached_until > ?`,
		formatTime(time.Now().Add(-time.Second)),
		performerID,
		formatTime(time.Now()),
	)
	if err != nil {
		return 0, fmt.Errorf("invalidate cache: %w", err)
	}
	return res.RowsAffected()
}

// RecentDecisions returns decisions joined with performer names, newest first.
func (s *Store) RecentDecisions(ctx context.Context, limit, offset int) ([]*DecisionView, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT d.id, d.performer_id, d.timestamp, d.label, d.is_artificial, d.confidence,
                d.sources_agreeing, d.min_required, d.band_policy_applied, d.llm_used,
                d.decision_reason, d.cached_until, COALESCE(p.name, '')
         FROM decisions d
         LEFT JOIN performers p ON d.performer_id = p.id
         ORDER BY d.timestamp DESC
         LIMIT ? OFFSET ?`,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	var views []*DecisionView
	for rows.Next() {
		var (
			view         DecisionView
			isArtificial sql.NullInt64
			bandPolicy   sql.NullInt64
			llmUsed      sql.NullInt64
			reason       sql.NullString
			timestampRaw string
			cachedRaw    sql.NullString
		)
		if err := rows.Scan(
			&view.ID,
			&view.PerformerID,
			&timestampRaw,
			&view.Label,
			&isArtificial,
			&view.Confidence,
			&view.SourcesAgreeing,
			&view.MinRequired,
			&bandPolicy,
			&llmUsed,
			&reason,
			&cachedRaw,
			&view.PerformerName,
		); err != nil {
			return nil, err
		}
		if isArtificial.Valid {
			value := isArtificial.Int64 != 0
			view.IsArtificial = &value
		}
		view.BandPolicyApplied = bandPolicy.Valid && bandPolicy.Int64 != 0
		view.LLMUsed = llmUsed.Valid && llmUsed.Int64 != 0
		view.Reason = reason.String
		if timestamp, err := parseTimeString(timestampRaw); err == nil {
			view.Timestamp = timestamp
		}
		if cachedRaw.Valid {
			if cached, err := parseTimeString(cachedRaw.String); err == nil {
				view.CachedUntil = cached
			}
		}
		views = append(views, &view)
	}
	return views, rows.Err()
}
