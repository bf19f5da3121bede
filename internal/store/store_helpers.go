package store

import (
	"database/sql"
	"errors"
	"time"
)

const decisionColumns = "id, performer_id, timestamp, label, is_artificial, confidence, sources_agreeing, min_required, band_policy_applied, llm_used, decision_reason, cached_until"

func scanDecision(scanner interface{ Scan(dest ...any) error }) (*Decision, error) {
	var (
		id           string
		performerID  string
		timestampRaw string
		label        string
		isArtificial sql.NullInt64
		confidence   float64
		agreeing     int
		minRequired  int
		bandPolicy   sql.NullInt64
		llmUsed      sql.NullInt64
		reason       sql.NullString
		cachedRaw    sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&performerID,
		&timestampRaw,
		&label,
		&isArtificial,
		&confidence,
		&agreeing,
		&minRequired,
		&bandPolicy,
		&llmUsed,
		&reason,
		&cachedRaw,
	); err != nil {
		return nil, err
	}

	decision := &Decision{
		ID:                id,
		PerformerID:       performerID,
		Label:             label,
		Confidence:        confidence,
		SourcesAgreeing:   agreeing,
		MinRequired:       minRequired,
		BandPolicyApplied: bandPolicy.Valid && bandPolicy.Int64 != 0,
		LLMUsed:           llmUsed.Valid && llmUsed.Int64 != 0,
		Reason:            reason.String,
	}
	if isArtificial.Valid {
		value := isArtificial.Int64 != 0
		decision.IsArtificial = &value
	}
	if timestamp, err := parseTimeString(timestampRaw); err == nil {
		decision.Timestamp = timestamp
	}
	if cachedRaw.Valid {
		if cached, err := parseTimeString(cachedRaw.String); err == nil {
			decision.CachedUntil = cached
		}
	}
	return decision, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableBoolInt(value *bool) any {
	if value == nil {
		return nil
	}
	return boolToInt(*value)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

// timeFormat is RFC 3339 with a fixed-width fraction. cached_until filtering
// compares stored strings, so string order must equal chronological order;
// RFC3339Nano trims trailing zeros and breaks that for whole-second values.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(value time.Time) string {
	return value.UTC().Format(timeFormat)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
