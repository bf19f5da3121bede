package store

import "time"

// Performer is an artist credited on a played track, keyed by the provider id.
type Performer struct {
	ID        string
	Name      string
	URI       string
	FirstSeen time.Time
	LastSeen  time.Time
	PlayCount int64
}

// Track is descriptive metadata for a played item.
type Track struct {
	ID         string
	Name       string
	URI        string
	DurationMS int64
	Explicit   bool
	Popularity int64
	IsLocal    bool
	FirstSeen  time.Time
	LastSeen   time.Time
	PlayCount  int64
}

// Release is the album or single a track belongs to.
type Release struct {
	ID          string
	Name        string
	URI         string
	ReleaseDate string
	FirstSeen   time.Time
}

// PlayContext is the playlist/album/radio context a track played from.
type PlayContext struct {
	URI       string
	Type      string
	Name      string
	Owner     string
	Href      string
	FirstSeen time.Time
	LastSeen  time.Time
}

// Play is one observed playback event.
type Play struct {
	ID         string
	Timestamp  time.Time
	TrackID    string
	ReleaseID  string
	ContextURI string
	DeviceID   string
	DeviceName string
	DeviceType string
	ProgressMS int64
	IsPlaying  bool
}

// Decision is a classification verdict for a performer at a point in time.
// IsArtificial is tri-state: nil means the sources were inconclusive.
type Decision struct {
	ID                string
	PerformerID       string
	Timestamp         time.Time
	Label             string
	IsArtificial      *bool
	Confidence        float64
	SourcesAgreeing   int
	MinRequired       int
	BandPolicyApplied bool
	LLMUsed           bool
	Reason            string
	CachedUntil       time.Time
}

// SourceResult records one evidence source's answer for a decision.
type SourceResult struct {
	ID          int64
	DecisionID  string
	SourceName  string
	Success     bool
	Result      string
	Signals     string
	URL         string
	QueryTimeMS int64
}

// LLMOutput records the raw fallback model exchange behind a decision.
type LLMOutput struct {
	ID              int64
	DecisionID      string
	Model           string
	Prompt          string
	Output          string
	LoadDurationMS  int64
	EvalDurationMS  int64
	TotalDurationMS int64
}

// Action records the side effects attempted for a play.
type Action struct {
	ID                     int64
	PlayID                 string
	Timestamp              time.Time
	Skipped                bool
	RemovedFromPlaylist    bool
	AddedToBlockedPlaylist bool
}

// Override is a manual correction that bypasses source querying entirely.
type Override struct {
	PerformerID  string
	IsArtificial bool
	Reason       string
	Timestamp    time.Time
}

// PlayView is a play joined with track, release, and context names for display.
type PlayView struct {
	Play
	TrackName   string
	ReleaseName string
	ContextName string
	ContextType string
}

// DecisionView is a decision joined with the performer name for display.
type DecisionView struct {
	Decision
	PerformerName string
}
