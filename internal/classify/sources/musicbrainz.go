package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"skipper/internal/classify"
)

const musicBrainzSourceName = "musicbrainz"

// MusicBrainz classifies performers through artist tags and genres on the
// MusicBrainz web service. MusicBrainz asks clients to stay at or below one
// request per second, enforced here with a rate limiter shared across
// lookups.
type MusicBrainz struct {
	baseURL    string
	userAgent  string
	timeout    time.Duration
	limiter    *rate.Limiter
	httpClient *http.Client
}

// NewMusicBrainz builds a MusicBrainz source. ratePerSec caps outbound
// requests; values at or below zero fall back to one per second.
func NewMusicBrainz(baseURL, userAgent string, timeout time.Duration, ratePerSec float64, client *http.Client) *MusicBrainz {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if ratePerSec <= 0 {
		ratePerSec = 1.0
	}
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &MusicBrainz{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		userAgent:  strings.TrimSpace(userAgent),
		timeout:    timeout,
		limiter:    rate.NewLimiter(rate.Limit(ratePerSec), 1),
		httpClient: client,
	}
}

func (m *MusicBrainz) Name() string {
	return musicBrainzSourceName
}

// Classify searches for the performer's MBID, fetches its tags and genres,
// and matches them against the virtual tag set. A known artist with no
// matching tags is reported as human.
func (m *MusicBrainz) Classify(ctx context.Context, name, performerID string) classify.Result {
	started := time.Now()

	mbid, err := m.searchArtist(ctx, name)
	if err != nil {
		return classify.FailedResult(musicBrainzSourceName, time.Since(started), err)
	}
	if mbid == "" {
		return classify.FailedResult(musicBrainzSourceName, time.Since(started), errors.New("artist not found"))
	}

	tags, err := m.artistTags(ctx, mbid)
	if err != nil {
		return classify.FailedResult(musicBrainzSourceName, time.Since(started), err)
	}

	result := classify.Result{
		Source:    musicBrainzSourceName,
		Success:   true,
		Label:     classify.LabelHuman,
		URL:       "https://musicbrainz.org/artist/" + mbid,
		QueryTime: time.Since(started),
	}
	if matched := matchVirtualTags(tags); len(matched) > 0 {
		result.Label = labelFromTags(matched)
		result.Signals = matched
	}
	return result
}

func (m *MusicBrainz) searchArtist(ctx context.Context, name string) (string, error) {
	params := url.Values{}
	params.Set("query", fmt.Sprintf("artist:%q", name))
	params.Set("fmt", "json")
	params.Set("limit", "1")

	var parsed struct {
		Artists []struct {
			ID string `json:"id"`
		} `json:"artists"`
	}
	if err := m.get(ctx, m.baseURL+"/artist/?"+params.Encode(), &parsed); err != nil {
		return "", err
	}
	if len(parsed.Artists) == 0 {
		return "", nil
	}
	return parsed.Artists[0].ID, nil
}

func (m *MusicBrainz) artistTags(ctx context.Context, mbid string) ([]string, error) {
	params := url.Values{}
	params.Set("inc", "tags+genres")
	params.Set("fmt", "json")

	var parsed struct {
		Tags []struct {
			Name string `json:"name"`
		} `json:"tags"`
		Genres []struct {
			Name string `json:"name"`
		} `json:"genres"`
	}
	if err := m.get(ctx, m.baseURL+"/artist/"+mbid+"?"+params.Encode(), &parsed); err != nil {
		return nil, err
	}
	tags := make([]string, 0, len(parsed.Tags)+len(parsed.Genres))
	for _, tag := range parsed.Tags {
		tags = append(tags, tag.Name)
	}
	for _, genre := range parsed.Genres {
		tags = append(tags, genre.Name)
	}
	return tags, nil
}

func (m *MusicBrainz) get(ctx context.Context, requestURL string, target any) error {
	if err := m.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("musicbrainz request: rate limit wait: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("musicbrainz request: new request: %w", err)
	}
	req.Header.Set("User-Agent", m.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("musicbrainz request: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("musicbrainz request: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("musicbrainz request: http %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("musicbrainz request: decode response: %w", err)
	}
	return nil
}
