package sources_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"skipper/internal/classify"
	"skipper/internal/classify/sources"
)

func sparqlBindings(values ...string) string {
	type binding map[string]map[string]string
	var bindings []binding
	for _, value := range values {
		bindings = append(bindings, binding{"item": {"value": value}})
	}
	payload := map[string]any{"results": map[string]any{"bindings": bindings}}
	encoded, _ := json.Marshal(payload)
	return string(encoded)
}

func TestWikidataClassifiesVocaloid(t *testing.T) {
	var queries []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("query")
		queries = append(queries, query)
		if strings.Contains(query, "rdfs:label") {
			w.Write([]byte(sparqlBindings("http://www.wikidata.org/entity/Q12345")))
			return
		}
		payload := map[string]any{"results": map[string]any{"bindings": []map[string]any{
			{"class": map[string]string{"value": "http://www.wikidata.org/entity/Q215380"}},
			{"class": map[string]string{"value": "http://www.wikidata.org/entity/Q125130106"}},
		}}}
		json.NewEncoder(w).Encode(payload)
	}))
	defer server.Close()

	source := sources.NewWikidata(server.URL, 5*time.Second, server.Client())
	result := source.Classify(context.Background(), "Hatsune Miku", "artist-1")
	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Err)
	}
	if result.Label != classify.LabelVocaloid {
		t.Fatalf("label = %q, want vocaloid", result.Label)
	}
	if len(result.Signals) != 1 || result.Signals[0] != "Q125130106" {
		t.Fatalf("signals = %v, want [Q125130106]", result.Signals)
	}
	if result.URL != "https://www.wikidata.org/wiki/Q12345" {
		t.Fatalf("url = %q", result.URL)
	}
	if len(queries) != 2 {
		t.Fatalf("queries = %d, want 2", len(queries))
	}
	if !strings.Contains(queries[0], "Q4167410") {
		t.Fatal("entity query should exclude disambiguation pages")
	}
}

func TestWikidataDefaultsToHuman(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Query().Get("query"), "rdfs:label") {
			w.Write([]byte(sparqlBindings("http://www.wikidata.org/entity/Q777")))
			return
		}
		payload := map[string]any{"results": map[string]any{"bindings": []map[string]any{
			{"class": map[string]string{"value": "http://www.wikidata.org/entity/Q5"}},
		}}}
		json.NewEncoder(w).Encode(payload)
	}))
	defer server.Close()

	source := sources.NewWikidata(server.URL, 5*time.Second, server.Client())
	result := source.Classify(context.Background(), "Some Artist", "artist-2")
	if !result.Success || result.Label != classify.LabelHuman {
		t.Fatalf("result = %+v, want human success", result)
	}
	if len(result.Signals) != 0 {
		t.Fatalf("signals = %v, want none", result.Signals)
	}
}

func TestWikidataEntityNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sparqlBindings()))
	}))
	defer server.Close()

	source := sources.NewWikidata(server.URL, 5*time.Second, server.Client())
	result := source.Classify(context.Background(), "Nobody At All", "artist-3")
	if result.Success {
		t.Fatal("expected failure for unknown entity")
	}
	if !strings.Contains(result.Err, "entity not found") {
		t.Fatalf("err = %q, want entity not found", result.Err)
	}
}

func TestMusicBrainzClassifiesByTags(t *testing.T) {
	var userAgents []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgents = append(userAgents, r.Header.Get("User-Agent"))
		if strings.HasPrefix(r.URL.Path, "/artist/") && r.URL.Path != "/artist/" {
			if r.URL.Query().Get("inc") != "tags+genres" {
				t.Errorf("inc = %q, want tags+genres", r.URL.Query().Get("inc"))
			}
			fmt.Fprint(w, `{"tags":[{"name":"electronic"},{"name":"Vocaloid"}],"genres":[{"name":"j-pop"}]}`)
			return
		}
		fmt.Fprint(w, `{"artists":[{"id":"mbid-123"}]}`)
	}))
	defer server.Close()

	source := sources.NewMusicBrainz(server.URL, "skipper-test/1.0", 5*time.Second, 100, server.Client())
	result := source.Classify(context.Background(), "Hatsune Miku", "artist-1")
	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Err)
	}
	if result.Label != classify.LabelVocaloid {
		t.Fatalf("label = %q, want vocaloid", result.Label)
	}
	if len(result.Signals) != 1 || result.Signals[0] != "Vocaloid" {
		t.Fatalf("signals = %v, want [Vocaloid]", result.Signals)
	}
	if result.URL != "https://musicbrainz.org/artist/mbid-123" {
		t.Fatalf("url = %q", result.URL)
	}
	for _, ua := range userAgents {
		if ua != "skipper-test/1.0" {
			t.Fatalf("user agent = %q", ua)
		}
	}
}

func TestMusicBrainzArtistNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"artists":[]}`)
	}))
	defer server.Close()

	source := sources.NewMusicBrainz(server.URL, "skipper-test/1.0", 5*time.Second, 100, server.Client())
	result := source.Classify(context.Background(), "Nobody At All", "artist-2")
	if result.Success {
		t.Fatal("expected failure for unknown artist")
	}
	if !strings.Contains(result.Err, "artist not found") {
		t.Fatalf("err = %q", result.Err)
	}
}

func TestMusicBrainzNoMatchingTagsIsHuman(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/artist/") && r.URL.Path != "/artist/" {
			fmt.Fprint(w, `{"tags":[{"name":"rock"},{"name":"indie"}]}`)
			return
		}
		fmt.Fprint(w, `{"artists":[{"id":"mbid-456"}]}`)
	}))
	defer server.Close()

	source := sources.NewMusicBrainz(server.URL, "skipper-test/1.0", 5*time.Second, 100, server.Client())
	result := source.Classify(context.Background(), "Some Band", "artist-3")
	if !result.Success || result.Label != classify.LabelHuman {
		t.Fatalf("result = %+v, want human success", result)
	}
}

func TestLastFMFiltersTagsByCount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("method") != "artist.getTopTags" {
			t.Errorf("method = %q", r.URL.Query().Get("method"))
		}
		if r.URL.Query().Get("api_key") != "key-1" {
			t.Errorf("api_key = %q", r.URL.Query().Get("api_key"))
		}
		fmt.Fprint(w, `{"toptags":{"tag":[{"name":"vocaloid","count":3},{"name":"j-pop","count":"80"}]}}`)
	}))
	defer server.Close()

	// The only virtual tag sits below the threshold, so the verdict is human.
	source := sources.NewLastFM(server.URL, "key-1", 5*time.Second, 10, server.Client())
	result := source.Classify(context.Background(), "Some Artist", "artist-1")
	if !result.Success || result.Label != classify.LabelHuman {
		t.Fatalf("result = %+v, want human success", result)
	}
}

func TestLastFMClassifiesVTuber(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"toptags":{"tag":[{"name":"VTuber","count":55},{"name":"pop","count":40}]}}`)
	}))
	defer server.Close()

	source := sources.NewLastFM(server.URL, "key-1", 5*time.Second, 10, server.Client())
	result := source.Classify(context.Background(), "Kizuna AI", "artist-2")
	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Err)
	}
	if result.Label != classify.LabelVTuber {
		t.Fatalf("label = %q, want vtuber", result.Label)
	}
	if result.URL != "https://www.last.fm/music/Kizuna+AI" {
		t.Fatalf("url = %q", result.URL)
	}
}

func TestLastFMNoTagsIsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"toptags":{"tag":[]}}`)
	}))
	defer server.Close()

	source := sources.NewLastFM(server.URL, "key-1", 5*time.Second, 10, server.Client())
	result := source.Classify(context.Background(), "Nobody At All", "artist-3")
	if result.Success {
		t.Fatal("expected failure when no tags exist")
	}
	if !strings.Contains(result.Err, "no tags found") {
		t.Fatalf("err = %q", result.Err)
	}
}

func TestLastFMAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error":6,"message":"The artist you supplied could not be found"}`)
	}))
	defer server.Close()

	source := sources.NewLastFM(server.URL, "key-1", 5*time.Second, 10, server.Client())
	result := source.Classify(context.Background(), "Nobody At All", "artist-4")
	if result.Success {
		t.Fatal("expected failure for api error")
	}
}
