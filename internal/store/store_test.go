package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"skipper/internal/store"
	"skipper/internal/testsupport"
)

func TestUpsertPerformerIncrementsPlayCount(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	if err := st.UpsertPerformer(ctx, "perf-1", "Hatsune Miku", "spotify:artist:perf-1"); err != nil {
		t.Fatalf("UpsertPerformer: %v", err)
	}
	if err := st.UpsertPerformer(ctx, "perf-1", "Hatsune Miku", "spotify:artist:perf-1"); err != nil {
		t.Fatalf("UpsertPerformer second: %v", err)
	}

	performer, err := st.GetPerformer(ctx, "perf-1")
	if err != nil {
		t.Fatalf("GetPerformer: %v", err)
	}
	if performer == nil {
		t.Fatal("expected performer to exist")
	}
	if performer.PlayCount != 2 {
		t.Fatalf("play_count = %d, want 2", performer.PlayCount)
	}
	if performer.Name != "Hatsune Miku" {
		t.Fatalf("unexpected name %q", performer.Name)
	}
}

func TestInsertPlayWithCatalog(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	if err := st.UpsertTrack(ctx, store.Track{ID: "track-1", Name: "Song", DurationMS: 180000}); err != nil {
		t.Fatalf("UpsertTrack: %v", err)
	}
	if err := st.UpsertRelease(ctx, store.Release{ID: "rel-1", Name: "Album", ReleaseDate: "2024-01-01"}); err != nil {
		t.Fatalf("UpsertRelease: %v", err)
	}
	if err := st.UpsertContext(ctx, store.PlayContext{URI: "spotify:playlist:ctx-1", Type: "playlist", Name: "Mix"}); err != nil {
		t.Fatalf("UpsertContext: %v", err)
	}
	if err := st.UpsertPerformer(ctx, "perf-1", "Performer", ""); err != nil {
		t.Fatalf("UpsertPerformer: %v", err)
	}
	if err := st.LinkTrackPerformer(ctx, "track-1", "perf-1", 0); err != nil {
		t.Fatalf("LinkTrackPerformer: %v", err)
	}
	// Duplicate link must be ignored, not fail.
	if err := st.LinkTrackPerformer(ctx, "track-1", "perf-1", 0); err != nil {
		t.Fatalf("LinkTrackPerformer duplicate: %v", err)
	}

	play := store.Play{
		ID:         uuid.NewString(),
		Timestamp:  time.Now(),
		TrackID:    "track-1",
		ReleaseID:  "rel-1",
		ContextURI: "spotify:playlist:ctx-1",
		DeviceName: "desk",
		IsPlaying:  true,
	}
	if err := st.InsertPlay(ctx, play); err != nil {
		t.Fatalf("InsertPlay: %v", err)
	}

	views, err := st.RecentPlays(ctx, 10, 0)
	if err != nil {
		t.Fatalf("RecentPlays: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected 1 play, got %d", len(views))
	}
	view := views[0]
	if view.TrackName != "Song" || view.ReleaseName != "Album" || view.ContextName != "Mix" {
		t.Fatalf("unexpected join fields: %#v", view)
	}
	if view.ContextType != "playlist" {
		t.Fatalf("context type = %q", view.ContextType)
	}

	count, err := st.PlayCount(ctx)
	if err != nil {
		t.Fatalf("PlayCount: %v", err)
	}
	if count != 1 {
		t.Fatalf("PlayCount = %d, want 1", count)
	}
}

func TestCachedDecisionExpiry(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	if err := st.UpsertPerformer(ctx, "perf-1", "Performer", ""); err != nil {
		t.Fatalf("UpsertPerformer: %v", err)
	}

	expired := store.Decision{
		ID:          uuid.NewString(),
		PerformerID: "perf-1",
		Timestamp:   time.Now().Add(-2 * time.Hour),
		Label:       "vocaloid",
		Confidence:  0.9,
		CachedUntil: time.Now().Add(-time.Hour),
	}
	if err := st.InsertDecision(ctx, expired); err != nil {
		t.Fatalf("InsertDecision expired: %v", err)
	}

	cached, err := st.CachedDecision(ctx, "perf-1")
	if err != nil {
		t.Fatalf("CachedDecision: %v", err)
	}
	if cached != nil {
		t.Fatalf("expected no cached decision, got %#v", cached)
	}

	artificial := true
	fresh := store.Decision{
		ID:                uuid.NewString(),
		PerformerID:       "perf-1",
		Timestamp:         time.Now(),
		Label:             "vocaloid",
		IsArtificial:      &artificial,
		Confidence:        0.667,
		SourcesAgreeing:   2,
		MinRequired:       2,
		BandPolicyApplied: false,
		Reason:            "2 sources agree",
		CachedUntil:       time.Now().Add(time.Hour),
	}
	if err := st.InsertDecision(ctx, fresh); err != nil {
		t.Fatalf("InsertDecision fresh: %v", err)
	}

	cached, err = st.CachedDecision(ctx, "perf-1")
	if err != nil {
		t.Fatalf("CachedDecision fresh: %v", err)
	}
	if cached == nil {
		t.Fatal("expected cached decision")
	}
	if cached.ID != fresh.ID {
		t.Fatalf("cached id = %s, want %s", cached.ID, fresh.ID)
	}
	if cached.IsArtificial == nil || !*cached.IsArtificial {
		t.Fatalf("cached is_artificial = %v, want true", cached.IsArtificial)
	}
	if cached.SourcesAgreeing != 2 || cached.MinRequired != 2 {
		t.Fatalf("unexpected tally fields: %#v", cached)
	}
}

func TestCachedDecisionWholeSecondExpiry(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	if err := st.UpsertPerformer(ctx, "perf-1", "Performer", ""); err != nil {
		t.Fatalf("UpsertPerformer: %v", err)
	}

	// A cached_until landing exactly on a second boundary must still expire:
	// the stored string is compared against a now that almost always carries
	// a fractional component.
	expired := store.Decision{
		ID:          uuid.NewString(),
		PerformerID: "perf-1",
		Timestamp:   time.Now().Add(-time.Hour),
		Label:       "vocaloid",
		Confidence:  0.9,
		CachedUntil: time.Now().Truncate(time.Second),
	}
	if err := st.InsertDecision(ctx, expired); err != nil {
		t.Fatalf("InsertDecision: %v", err)
	}

	cached, err := st.CachedDecision(ctx, "perf-1")
	if err != nil {
		t.Fatalf("CachedDecision: %v", err)
	}
	if cached != nil {
		t.Fatalf("expected whole-second cached_until to be expired, got %#v", cached)
	}
}

func TestCachedDecisionTriStateNull(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	if err := st.UpsertPerformer(ctx, "perf-1", "Performer", ""); err != nil {
		t.Fatalf("UpsertPerformer: %v", err)
	}

	unknown := store.Decision{
		ID:          uuid.NewString(),
		PerformerID: "perf-1",
		Timestamp:   time.Now(),
		Label:       "unknown",
		Confidence:  0,
		CachedUntil: time.Now().Add(time.Hour),
	}
	if err := st.InsertDecision(ctx, unknown); err != nil {
		t.Fatalf("InsertDecision: %v", err)
	}

	cached, err := st.CachedDecision(ctx, "perf-1")
	if err != nil {
		t.Fatalf("CachedDecision: %v", err)
	}
	if cached == nil {
		t.Fatal("expected cached decision")
	}
	if cached.IsArtificial != nil {
		t.Fatalf("is_artificial = %v, want nil", *cached.IsArtificial)
	}
}

func TestInvalidateCache(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	if err := st.UpsertPerformer(ctx, "perf-1", "Performer", ""); err != nil {
		t.Fatalf("UpsertPerformer: %v", err)
	}
	decision := store.Decision{
		ID:          uuid.NewString(),
		PerformerID: "perf-1",
		Timestamp:   time.Now(),
		Label:       "human",
		Confidence:  1,
		CachedUntil: time.Now().Add(time.Hour),
	}
	if err := st.InsertDecision(ctx, decision); err != nil {
		t.Fatalf("InsertDecision: %v", err)
	}

	affected, err := st.InvalidateCache(ctx, "perf-1")
	if err != nil {
		t.Fatalf("InvalidateCache: %v", err)
	}
	if affected != 1 {
		t.Fatalf("affected = %d, want 1", affected)
	}

	cached, err := st.CachedDecision(ctx, "perf-1")
	if err != nil {
		t.Fatalf("CachedDecision: %v", err)
	}
	if cached != nil {
		t.Fatalf("expected cache invalidated, got %#v", cached)
	}
}

func TestOverrideUpsertReplace(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	if err := st.UpsertPerformer(ctx, "perf-1", "Performer", ""); err != nil {
		t.Fatalf("UpsertPerformer: %v", err)
	}

	if err := st.SetOverride(ctx, "perf-1", true, "known vtuber"); err != nil {
		t.Fatalf("SetOverride: %v", err)
	}
	override, err := st.GetOverride(ctx, "perf-1")
	if err != nil {
		t.Fatalf("GetOverride: %v", err)
	}
	if override == nil || !override.IsArtificial || override.Reason != "known vtuber" {
		t.Fatalf("unexpected override: %#v", override)
	}

	if err := st.SetOverride(ctx, "perf-1", false, "mislabeled"); err != nil {
		t.Fatalf("SetOverride replace: %v", err)
	}
	override, err = st.GetOverride(ctx, "perf-1")
	if err != nil {
		t.Fatalf("GetOverride after replace: %v", err)
	}
	if override == nil || override.IsArtificial || override.Reason != "mislabeled" {
		t.Fatalf("override not replaced: %#v", override)
	}

	removed, err := st.DeleteOverride(ctx, "perf-1")
	if err != nil {
		t.Fatalf("DeleteOverride: %v", err)
	}
	if !removed {
		t.Fatal("expected override to be deleted")
	}
	override, err = st.GetOverride(ctx, "perf-1")
	if err != nil {
		t.Fatalf("GetOverride after delete: %v", err)
	}
	if override != nil {
		t.Fatalf("override should be gone, got %#v", override)
	}
}

func TestSourceResultsAndLLMOutputs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	if err := st.UpsertPerformer(ctx, "perf-1", "Performer", ""); err != nil {
		t.Fatalf("UpsertPerformer: %v", err)
	}
	decision := store.Decision{
		ID:          uuid.NewString(),
		PerformerID: "perf-1",
		Timestamp:   time.Now(),
		Label:       "vtuber",
		Confidence:  0.333,
		LLMUsed:     true,
		CachedUntil: time.Now().Add(time.Hour),
	}
	if err := st.InsertDecision(ctx, decision); err != nil {
		t.Fatalf("InsertDecision: %v", err)
	}

	if err := st.InsertSourceResult(ctx, store.SourceResult{
		DecisionID:  decision.ID,
		SourceName:  "wikidata",
		Success:     true,
		Result:      "vtuber",
		Signals:     `["Q55155641"]`,
		URL:         "https://www.wikidata.org/wiki/Q1",
		QueryTimeMS: 120,
	}); err != nil {
		t.Fatalf("InsertSourceResult: %v", err)
	}

	if err := st.InsertLLMOutput(ctx, store.LLMOutput{
		DecisionID:      decision.ID,
		Model:           "test-model",
		Prompt:          "classify Performer",
		Output:          `{"label":"vtuber"}`,
		TotalDurationMS: 900,
	}); err != nil {
		t.Fatalf("InsertLLMOutput: %v", err)
	}
}

func TestRecentDecisionsOrderedNewestFirst(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	if err := st.UpsertPerformer(ctx, "perf-1", "Performer One", ""); err != nil {
		t.Fatalf("UpsertPerformer: %v", err)
	}

	older := store.Decision{
		ID:          uuid.NewString(),
		PerformerID: "perf-1",
		Timestamp:   time.Now().Add(-time.Hour),
		Label:       "human",
		Confidence:  1,
		CachedUntil: time.Now().Add(time.Hour),
	}
	newer := store.Decision{
		ID:          uuid.NewString(),
		PerformerID: "perf-1",
		Timestamp:   time.Now(),
		Label:       "vocaloid",
		Confidence:  0.667,
		CachedUntil: time.Now().Add(time.Hour),
	}
	if err := st.InsertDecision(ctx, older); err != nil {
		t.Fatalf("InsertDecision older: %v", err)
	}
	if err := st.InsertDecision(ctx, newer); err != nil {
		t.Fatalf("InsertDecision newer: %v", err)
	}

	views, err := st.RecentDecisions(ctx, 10, 0)
	if err != nil {
		t.Fatalf("RecentDecisions: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 decisions, got %d", len(views))
	}
	if views[0].ID != newer.ID {
		t.Fatalf("first decision = %s, want newest %s", views[0].ID, newer.ID)
	}
	if views[0].PerformerName != "Performer One" {
		t.Fatalf("performer name = %q", views[0].PerformerName)
	}
}
