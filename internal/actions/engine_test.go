package actions_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"skipper/internal/actions"
	"skipper/internal/config"
	"skipper/internal/spotify"
	"skipper/internal/store"
	"skipper/internal/testsupport"
)

type fakeControl struct {
	skipErr       error
	skips         int
	playlists     map[string]*spotify.PlaylistInfo
	removed       [][2]string
	added         [][2]string
	created       []string
	findResult    string
	createdID     string
	currentUserID string
}

func (f *fakeControl) SkipToNext(ctx context.Context) error {
	if f.skipErr != nil {
		return f.skipErr
	}
	f.skips++
	return nil
}

func (f *fakeControl) Playlist(ctx context.Context, playlistID string) (*spotify.PlaylistInfo, error) {
	return f.playlists[playlistID], nil
}

func (f *fakeControl) RemoveFromPlaylist(ctx context.Context, playlistID, trackID string) error {
	f.removed = append(f.removed, [2]string{playlistID, trackID})
	return nil
}

func (f *fakeControl) AddToPlaylist(ctx context.Context, playlistID, trackID string) error {
	f.added = append(f.added, [2]string{playlistID, trackID})
	return nil
}

func (f *fakeControl) CreatePlaylist(ctx context.Context, name, description string) (string, error) {
	f.created = append(f.created, name)
	return f.createdID, nil
}

func (f *fakeControl) FindPlaylistByName(ctx context.Context, name string) (string, error) {
	return f.findResult, nil
}

func (f *fakeControl) CurrentUserID(ctx context.Context) (string, error) {
	return f.currentUserID, nil
}

func seedPlay(t *testing.T, st *store.Store, trackID string) string {
	t.Helper()
	ctx := context.Background()
	if err := st.UpsertTrack(ctx, store.Track{ID: trackID, Name: "Test Track", URI: "spotify:track:" + trackID}); err != nil {
		t.Fatalf("UpsertTrack: %v", err)
	}
	playID := "play_" + uuid.NewString()
	if err := st.InsertPlay(ctx, store.Play{
		ID:        playID,
		Timestamp: time.Now().UTC(),
		TrackID:   trackID,
		IsPlaying: true,
	}); err != nil {
		t.Fatalf("InsertPlay: %v", err)
	}
	return playID
}

func flaggedDecision() *store.Decision {
	isArtificial := true
	return &store.Decision{
		ID:           "decision_" + uuid.NewString(),
		Label:        "vocaloid",
		IsArtificial: &isArtificial,
		Confidence:   0.9,
	}
}

func TestApplySkipsAndRecords(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	playID := seedPlay(t, st, "track-1")

	control := &fakeControl{}
	engine := actions.New(control, st, config.Actions{AutoSkip: true}, nil)

	snapshot := &spotify.Snapshot{TrackID: "track-1", TrackName: "Test Track"}
	action := engine.Apply(context.Background(), playID, snapshot, flaggedDecision())

	if !action.Skipped {
		t.Fatal("expected skip")
	}
	if control.skips != 1 {
		t.Fatalf("skips = %d, want 1", control.skips)
	}
	if action.RemovedFromPlaylist || action.AddedToBlockedPlaylist {
		t.Fatalf("unexpected extra actions: %+v", action)
	}
}

func TestApplySkipFailureStillRecords(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	playID := seedPlay(t, st, "track-2")

	control := &fakeControl{skipErr: errors.New("no active device")}
	engine := actions.New(control, st, config.Actions{AutoSkip: true}, nil)

	snapshot := &spotify.Snapshot{TrackID: "track-2", TrackName: "Test Track"}
	action := engine.Apply(context.Background(), playID, snapshot, flaggedDecision())

	if action.Skipped {
		t.Fatal("skip should be recorded as failed")
	}
}

func TestApplyRemovesOnlyFromOwnPlaylists(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	cases := []struct {
		name       string
		owner      string
		wantRemove bool
	}{
		{"own playlist", "me", true},
		{"someone else's playlist", "them", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			playID := seedPlay(t, st, "track-"+uuid.NewString())
			control := &fakeControl{
				currentUserID: "me",
				playlists: map[string]*spotify.PlaylistInfo{
					"pl-1": {ID: "pl-1", Name: "My Mix", OwnerID: tc.owner},
				},
			}
			engine := actions.New(control, st, config.Actions{RemoveFromUserPlaylists: true}, nil)

			snapshot := &spotify.Snapshot{
				TrackID:     "track-x",
				TrackName:   "Test Track",
				ContextType: "playlist",
				ContextURI:  "spotify:playlist:pl-1",
			}
			action := engine.Apply(context.Background(), playID, snapshot, flaggedDecision())

			if action.RemovedFromPlaylist != tc.wantRemove {
				t.Fatalf("removed = %v, want %v", action.RemovedFromPlaylist, tc.wantRemove)
			}
			if tc.wantRemove && len(control.removed) != 1 {
				t.Fatalf("removed calls = %d, want 1", len(control.removed))
			}
		})
	}
}

func TestApplySkipsUnfetchablePlaylistContext(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	playID := seedPlay(t, st, "track-3")

	// Algorithmic mixes are not fetchable; the engine leaves them alone.
	control := &fakeControl{currentUserID: "me", playlists: map[string]*spotify.PlaylistInfo{}}
	engine := actions.New(control, st, config.Actions{RemoveFromUserPlaylists: true}, nil)

	snapshot := &spotify.Snapshot{
		TrackID:     "track-3",
		ContextType: "playlist",
		ContextURI:  "spotify:playlist:algo-mix",
	}
	action := engine.Apply(context.Background(), playID, snapshot, flaggedDecision())
	if action.RemovedFromPlaylist {
		t.Fatal("should not remove from an unfetchable playlist")
	}
}

func TestApplyAddsToExistingBlockedPlaylist(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	playID := seedPlay(t, st, "track-4")

	control := &fakeControl{findResult: "blocked-1"}
	engine := actions.New(control, st, config.Actions{BlockedPlaylistName: "Blocked"}, nil)

	snapshot := &spotify.Snapshot{TrackID: "track-4", TrackName: "Test Track"}
	action := engine.Apply(context.Background(), playID, snapshot, flaggedDecision())

	if !action.AddedToBlockedPlaylist {
		t.Fatal("expected add to blocked playlist")
	}
	if len(control.created) != 0 {
		t.Fatalf("created = %v, want none", control.created)
	}
	if len(control.added) != 1 || control.added[0] != [2]string{"blocked-1", "track-4"} {
		t.Fatalf("added = %v", control.added)
	}
}

func TestApplyCreatesBlockedPlaylistOnce(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	control := &fakeControl{createdID: "blocked-new"}
	engine := actions.New(control, st, config.Actions{BlockedPlaylistName: "Blocked"}, nil)

	for i := 0; i < 2; i++ {
		playID := seedPlay(t, st, "track-"+uuid.NewString())
		snapshot := &spotify.Snapshot{TrackID: "track-y", TrackName: "Test Track"}
		action := engine.Apply(context.Background(), playID, snapshot, flaggedDecision())
		if !action.AddedToBlockedPlaylist {
			t.Fatalf("iteration %d: expected add to blocked playlist", i)
		}
	}
	if len(control.created) != 1 {
		t.Fatalf("created calls = %d, want 1 (id cached)", len(control.created))
	}
}
