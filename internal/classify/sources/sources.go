// Package sources implements the external metadata lookups used to decide
// whether a performer is an artificial act: Wikidata SPARQL, the MusicBrainz
// web service, and Last.fm top tags.
package sources

import (
	"strings"

	"skipper/internal/classify"
)

// Tag substrings that mark a performer as artificial on tag-based services.
var virtualTagSubstrings = []string{
	"vocaloid", "vtuber", "virtual", "virtual idol", "virtual singer",
	"fictional", "ai generated", "voice synthesis", "synthesized",
}

func matchVirtualTags(tags []string) []string {
	var matched []string
	for _, tag := range tags {
		lower := strings.ToLower(tag)
		for _, sub := range virtualTagSubstrings {
			if strings.Contains(lower, sub) {
				matched = append(matched, tag)
				break
			}
		}
	}
	return matched
}

// labelFromTags maps matched tags to a label, most specific first.
func labelFromTags(tags []string) string {
	lower := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		lower[strings.ToLower(tag)] = struct{}{}
	}
	has := func(names ...string) bool {
		for _, name := range names {
			if _, ok := lower[name]; ok {
				return true
			}
		}
		return false
	}
	switch {
	case has("vocaloid"):
		return classify.LabelVocaloid
	case has("vtuber"):
		return classify.LabelVTuber
	case has("virtual idol", "virtual singer"):
		return classify.LabelVirtualIdol
	case has("fictional"):
		return classify.LabelFictional
	case has("ai generated"):
		return classify.LabelAIGenerated
	default:
		return classify.LabelVirtual
	}
}
