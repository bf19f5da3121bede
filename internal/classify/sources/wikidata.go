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

const wikidataSourceName = "wikidata"

// Wikidata QIDs that mark an entity as an artificial performer.
var virtualQIDs = map[string]string{
	"Q55155641":  classify.LabelVTuber,
	"Q24236999":  classify.LabelVirtualIdol,
	"Q125130106": classify.LabelVocaloid,
	"Q3736859":   classify.LabelVirtualBand,
}

// Disambiguation pages are never performers.
const disambiguationQID = "Q4167410"

// Wikidata classifies performers through the Wikidata SPARQL endpoint.
type Wikidata struct {
	endpoint   string
	timeout    time.Duration
	httpClient *http.Client
}

// NewWikidata builds a Wikidata source. A nil client falls back to a default
// HTTP client with the supplied timeout.
func NewWikidata(endpoint string, timeout time.Duration, client *http.Client) *Wikidata {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &Wikidata{
		endpoint:   strings.TrimSpace(endpoint),
		timeout:    timeout,
		httpClient: client,
	}
}

func (w *Wikidata) Name() string {
	return wikidataSourceName
}

// Classify finds the performer's Wikidata entity and checks its classes and
// occupations against the virtual QID set. An entity with no virtual signals
// is reported as human.
func (w *Wikidata) Classify(ctx context.Context, name, performerID string) classify.Result {
	started := time.Now()

	entityID, err := w.findEntity(ctx, name)
	if err != nil {
		return classify.FailedResult(wikidataSourceName, time.Since(started), err)
	}
	if entityID == "" {
		return classify.FailedResult(wikidataSourceName, time.Since(started), errors.New("entity not found"))
	}

	signals, err := w.virtualSignals(ctx, entityID)
	if err != nil {
		return classify.FailedResult(wikidataSourceName, time.Since(started), err)
	}

	result := classify.Result{
		Source:    wikidataSourceName,
		Success:   true,
		Label:     classify.LabelHuman,
		URL:       "https://www.wikidata.org/wiki/" + entityID,
		QueryTime: time.Since(started),
	}
	if len(signals) > 0 {
		result.Label = virtualQIDs[signals[0]]
		result.Signals = signals
	}
	return result
}

// findEntity resolves a performer name to a Q-number. The query accepts
// humans, musical groups, and anything with an occupation, and excludes
// disambiguation pages.
func (w *Wikidata) findEntity(ctx context.Context, name string) (string, error) {
	escaped := strings.ReplaceAll(name, `"`, `\"`)
	query := fmt.Sprintf(`SELECT ?item WHERE {
  { ?item rdfs:label "%[1]s"@en . ?item wdt:P31/wdt:P279* wd:Q5 .
    FILTER NOT EXISTS { ?item wdt:P31 wd:%[2]s } }
  UNION
  { ?item rdfs:label "%[1]s"@en . ?item wdt:P31/wdt:P279* wd:Q215380 .
    FILTER NOT EXISTS { ?item wdt:P31 wd:%[2]s } }
  UNION
  { ?item rdfs:label "%[1]s"@en . ?item wdt:P106 ?occupation .
    FILTER NOT EXISTS { ?item wdt:P31 wd:%[2]s } }
}
LIMIT 1`, escaped, disambiguationQID)

	bindings, err := w.runQuery(ctx, query)
	if err != nil {
		return "", err
	}
	if len(bindings) == 0 {
		return "", nil
	}
	return qidFromURI(bindings[0].Item.Value), nil
}

// virtualSignals returns the virtual QIDs reachable from the entity through
// instance-of or occupation, following subclass links.
func (w *Wikidata) virtualSignals(ctx context.Context, entityID string) ([]string, error) {
	query := fmt.Sprintf(`SELECT ?class WHERE {
  wd:%s (wdt:P31|wdt:P106)/wdt:P279* ?class .
}`, entityID)

	bindings, err := w.runQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	var signals []string
	for _, binding := range bindings {
		qid := qidFromURI(binding.Class.Value)
		if _, ok := virtualQIDs[qid]; ok {
			signals = append(signals, qid)
		}
	}
	return signals, nil
}

type sparqlBinding struct {
	Item  sparqlValue `json:"item"`
	Class sparqlValue `json:"class"`
}

type sparqlValue struct {
	Value string `json:"value"`
}

func (w *Wikidata) runQuery(ctx context.Context, query string) ([]sparqlBinding, error) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	params := url.Values{}
	params.Set("query", query)
	params.Set("format", "json")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("wikidata query: new request: %w", err)
	}
	req.Header.Set("Accept", "application/sparql-results+json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wikidata query: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("wikidata query: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wikidata query: http %d", resp.StatusCode)
	}

	var parsed struct {
		Results struct {
			Bindings []sparqlBinding `json:"bindings"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("wikidata query: decode response: %w", err)
	}
	return parsed.Results.Bindings, nil
}

func qidFromURI(uri string) string {
	if idx := strings.LastIndex(uri, "/"); idx >= 0 {
		return uri[idx+1:]
	}
	return uri
}
