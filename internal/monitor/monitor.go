// Package monitor polls Spotify playback, records plays, classifies the
// performer of each new track, and hands flagged plays to the action engine.
package monitor

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"skipper/internal/classify"
	"skipper/internal/config"
	"skipper/internal/logging"
	"skipper/internal/spotify"
	"skipper/internal/store"
)

// Player is the slice of the Spotify client the monitor needs.
type Player interface {
	CurrentPlayback(ctx context.Context) (*spotify.Snapshot, error)
	Playlist(ctx context.Context, playlistID string) (*spotify.PlaylistInfo, error)
}

// Decider classifies a performer.
type Decider interface {
	Classify(ctx context.Context, performerID, performerName string) (*store.Decision, []classify.Result, error)
}

// ActionRunner applies side effects to flagged plays.
type ActionRunner interface {
	EnsureBlockedPlaylist(ctx context.Context) error
	Apply(ctx context.Context, playID string, snapshot *spotify.Snapshot, decision *store.Decision) store.Action
}

// TrackStatus is the currently observed track, exposed for status display.
type TrackStatus struct {
	TrackID       string
	TrackName     string
	PerformerID   string
	PerformerName string
	ObservedAt    time.Time
}

// Monitor drives the poll loop. Rate limiting grows the poll delay
// multiplicatively up to a cap; any successful cycle resets it.
type Monitor struct {
	player     Player
	classifier Decider
	actions    ActionRunner
	store      *store.Store
	logger     *slog.Logger

	pollInterval time.Duration
	multiplier   float64
	maxBackoff   time.Duration

	backoff     time.Duration
	lastTrackID string
	processed   *trackSet

	mu           sync.RWMutex
	currentTrack *TrackStatus
	lastDecision *store.Decision
}

// New builds a Monitor from the monitor config section.
func New(player Player, classifier Decider, actions ActionRunner, st *store.Store, cfg config.Monitor, logger *slog.Logger) *Monitor {
	poll := time.Duration(cfg.PollIntervalSeconds) * time.Second
	if poll <= 0 {
		poll = 5 * time.Second
	}
	return &Monitor{
		player:       player,
		classifier:   classifier,
		actions:      actions,
		store:        st,
		logger:       logging.NewComponentLogger(logger, "monitor"),
		pollInterval: poll,
		multiplier:   cfg.RateLimitBackoffMultiplier,
		maxBackoff:   time.Duration(cfg.MaxBackoffSeconds) * time.Second,
		backoff:      poll,
		processed:    newTrackSet(cfg.ProcessedTrackCap),
	}
}

// Run polls until the context is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("starting playback monitor",
		logging.Duration("poll_interval", m.pollInterval),
	)
	if err := m.actions.EnsureBlockedPlaylist(ctx); err != nil {
		m.logger.Error("ensure blocked playlist failed", logging.Error(err))
	}
	for {
		m.RunOnce(ctx)
		timer := time.NewTimer(m.Backoff())
		select {
		case <-ctx.Done():
			timer.Stop()
			m.logger.Info("stopping playback monitor")
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Backoff reports the delay before the next poll.
func (m *Monitor) Backoff() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.backoff
}

// Status reports the currently observed track and the latest decision.
func (m *Monitor) Status() (*TrackStatus, *store.Decision) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentTrack, m.lastDecision
}

// RunOnce performs a single poll cycle. Errors and panics are absorbed into
// logging and backoff state so the loop always continues.
func (m *Monitor) RunOnce(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("poll cycle panicked", logging.Any("panic", r))
		}
	}()

	snapshot, err := m.player.CurrentPlayback(ctx)
	if errors.Is(err, spotify.ErrRateLimited) {
		m.growBackoff()
		return
	}
	if err != nil {
		m.logger.Error("playback poll failed", logging.Error(err))
		m.resetBackoff()
		return
	}
	m.resetBackoff()

	if snapshot == nil || !snapshot.IsPlaying {
		return
	}
	if !m.observe(snapshot) {
		return
	}

	if snapshot.TrackID == m.lastTrackID {
		return
	}
	m.lastTrackID = snapshot.TrackID

	if m.processed.Contains(snapshot.TrackID) {
		return
	}
	m.processed.Add(snapshot.TrackID)

	m.processTrack(ctx, snapshot)
}

// observe updates the status projection. It reports false for snapshots the
// monitor cannot act on (no primary artist).
func (m *Monitor) observe(snapshot *spotify.Snapshot) bool {
	primary := snapshot.PrimaryArtist()
	status := &TrackStatus{
		TrackID:    snapshot.TrackID,
		TrackName:  snapshot.TrackName,
		ObservedAt: time.Now().UTC(),
	}
	if primary != nil {
		status.PerformerID = primary.ID
		status.PerformerName = primary.Name
	}
	m.mu.Lock()
	m.currentTrack = status
	m.mu.Unlock()

	if primary == nil {
		m.logger.Warn("track has no performers",
			logging.String(logging.FieldTrackID, snapshot.TrackID),
			logging.String("track", snapshot.TrackName),
		)
		return false
	}
	return true
}

func (m *Monitor) processTrack(ctx context.Context, snapshot *spotify.Snapshot) {
	primary := snapshot.PrimaryArtist()
	m.logger.Info("processing track",
		logging.String("track", snapshot.TrackName),
		logging.String(logging.FieldPerformer, primary.Name),
	)

	playID := m.logPlay(ctx, snapshot)

	decision, _, err := m.classifier.Classify(ctx, primary.ID, primary.Name)
	if err != nil {
		m.logger.Error("classification failed",
			logging.String(logging.FieldPerformer, primary.Name),
			logging.Error(err),
		)
		return
	}
	m.mu.Lock()
	m.lastDecision = decision
	m.mu.Unlock()

	verdict := "inconclusive"
	if decision.IsArtificial != nil {
		verdict = strconv.FormatBool(*decision.IsArtificial)
	}
	m.logger.Info("classification",
		logging.String(logging.FieldPerformer, primary.Name),
		logging.String("label", decision.Label),
		logging.String("is_artificial", verdict),
		logging.Float64("confidence", decision.Confidence),
	)

	if decision.IsArtificial != nil && *decision.IsArtificial {
		m.actions.Apply(ctx, playID, snapshot, decision)
	}
}

// logPlay records the play and its catalog rows. Database failures are
// logged and the generated play id is returned regardless, so downstream
// bookkeeping degrades instead of halting the monitor.
func (m *Monitor) logPlay(ctx context.Context, snapshot *spotify.Snapshot) string {
	playID := "play_" + uuid.NewString()

	if err := m.store.UpsertTrack(ctx, store.Track{
		ID:         snapshot.TrackID,
		Name:       snapshot.TrackName,
		URI:        snapshot.TrackURI,
		DurationMS: snapshot.DurationMS,
		Explicit:   snapshot.Explicit,
		Popularity: snapshot.Popularity,
		IsLocal:    snapshot.IsLocal,
	}); err != nil {
		m.logger.Error("log play failed", logging.Error(err))
		return playID
	}

	if snapshot.AlbumID != "" {
		if err := m.store.UpsertRelease(ctx, store.Release{
			ID:          snapshot.AlbumID,
			Name:        snapshot.AlbumName,
			URI:         snapshot.AlbumURI,
			ReleaseDate: snapshot.ReleaseDate,
		}); err != nil {
			m.logger.Error("log play failed", logging.Error(err))
		}
	}

	for position, artist := range snapshot.Artists {
		if err := m.store.UpsertPerformer(ctx, artist.ID, artist.Name, artist.URI); err != nil {
			m.logger.Error("log play failed", logging.Error(err))
			continue
		}
		if err := m.store.LinkTrackPerformer(ctx, snapshot.TrackID, artist.ID, position); err != nil {
			m.logger.Error("log play failed", logging.Error(err))
		}
	}

	if snapshot.ContextURI != "" {
		m.upsertContext(ctx, snapshot)
	}

	if err := m.store.InsertPlay(ctx, store.Play{
		ID:         playID,
		Timestamp:  time.Now().UTC(),
		TrackID:    snapshot.TrackID,
		ReleaseID:  snapshot.AlbumID,
		ContextURI: snapshot.ContextURI,
		DeviceID:   snapshot.DeviceID,
		DeviceName: snapshot.DeviceName,
		DeviceType: snapshot.DeviceType,
		ProgressMS: snapshot.ProgressMS,
		IsPlaying:  snapshot.IsPlaying,
	}); err != nil {
		m.logger.Error("log play failed", logging.Error(err))
	}
	return playID
}

// upsertContext records the playback context, resolving playlist names when
// the playlist is fetchable.
func (m *Monitor) upsertContext(ctx context.Context, snapshot *spotify.Snapshot) {
	playContext := store.PlayContext{
		URI:  snapshot.ContextURI,
		Type: snapshot.ContextType,
		Href: snapshot.ContextHref,
	}
	if snapshot.ContextType == "playlist" {
		if id := playlistIDFromURI(snapshot.ContextURI); id != "" {
			if playlist, err := m.player.Playlist(ctx, id); err == nil && playlist != nil {
				playContext.Name = playlist.Name
				playContext.Owner = playlist.OwnerID
			}
		}
	}
	if err := m.store.UpsertContext(ctx, playContext); err != nil {
		m.logger.Error("log play failed", logging.Error(err))
	}
}

func (m *Monitor) growBackoff() {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := time.Duration(float64(m.backoff) * m.multiplier)
	if next > m.maxBackoff {
		next = m.maxBackoff
	}
	m.backoff = next
	m.logger.Warn("rate limited, backing off",
		logging.Duration("backoff", m.backoff),
	)
}

func (m *Monitor) resetBackoff() {
	m.mu.Lock()
	m.backoff = m.pollInterval
	m.mu.Unlock()
}

func playlistIDFromURI(uri string) string {
	if uri == "" {
		return ""
	}
	if idx := strings.LastIndexByte(uri, ':'); idx >= 0 {
		return uri[idx+1:]
	}
	return uri
}
