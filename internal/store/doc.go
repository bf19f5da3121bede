// Package store persists playback history, classification decisions, and
// manual overrides in SQLite. Plays, decisions, source results, and actions
// are append-only; performers, tracks, releases, and contexts are upserted
// idempotently keyed by the provider id.
package store
