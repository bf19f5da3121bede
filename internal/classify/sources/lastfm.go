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

	"skipper/internal/classify"
)

const lastFMSourceName = "lastfm"

// LastFM classifies performers through Last.fm top tags. Tags below the
// configured count threshold are ignored to filter crowd noise.
type LastFM struct {
	baseURL     string
	apiKey      string
	timeout     time.Duration
	minTagCount int
	httpClient  *http.Client
}

// NewLastFM builds a Last.fm source.
func NewLastFM(baseURL, apiKey string, timeout time.Duration, minTagCount int, client *http.Client) *LastFM {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &LastFM{
		baseURL:     strings.TrimSpace(baseURL),
		apiKey:      strings.TrimSpace(apiKey),
		timeout:     timeout,
		minTagCount: minTagCount,
		httpClient:  client,
	}
}

func (l *LastFM) Name() string {
	return lastFMSourceName
}

// Classify fetches the performer's top tags and matches those above the
// count threshold against the virtual tag set. A performer with no tags at
// all is a failed lookup rather than a human vote, since Last.fm knows
// nothing about it.
func (l *LastFM) Classify(ctx context.Context, name, performerID string) classify.Result {
	started := time.Now()

	tags, err := l.topTags(ctx, name)
	if err != nil {
		return classify.FailedResult(lastFMSourceName, time.Since(started), err)
	}
	if len(tags) == 0 {
		return classify.FailedResult(lastFMSourceName, time.Since(started), errors.New("no tags found"))
	}

	var candidates []string
	for _, tag := range tags {
		if tag.count >= l.minTagCount {
			candidates = append(candidates, tag.name)
		}
	}

	result := classify.Result{
		Source:    lastFMSourceName,
		Success:   true,
		Label:     classify.LabelHuman,
		URL:       "https://www.last.fm/music/" + strings.ReplaceAll(name, " ", "+"),
		QueryTime: time.Since(started),
	}
	if matched := matchVirtualTags(candidates); len(matched) > 0 {
		result.Label = labelFromTags(matched)
		result.Signals = matched
	}
	return result
}

type lastFMTag struct {
	name  string
	count int
}

func (l *LastFM) topTags(ctx context.Context, name string) ([]lastFMTag, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	params := url.Values{}
	params.Set("method", "artist.getTopTags")
	params.Set("artist", name)
	params.Set("api_key", l.apiKey)
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("lastfm request: new request: %w", err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lastfm request: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("lastfm request: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("lastfm request: http %d", resp.StatusCode)
	}

	// Tag counts arrive as numbers or strings depending on the endpoint, so
	// decode through json.Number.
	var parsed struct {
		TopTags struct {
			Tag []struct {
				Name  string      `json:"name"`
				Count json.Number `json:"count"`
			} `json:"tag"`
		} `json:"toptags"`
		Error   int    `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("lastfm request: decode response: %w", err)
	}
	if parsed.Error != 0 {
		return nil, fmt.Errorf("lastfm request: api error %d: %s", parsed.Error, parsed.Message)
	}

	tags := make([]lastFMTag, 0, len(parsed.TopTags.Tag))
	for _, tag := range parsed.TopTags.Tag {
		count, err := tag.Count.Int64()
		if err != nil {
			continue
		}
		tags = append(tags, lastFMTag{name: tag.Name, count: int(count)})
	}
	return tags, nil
}
