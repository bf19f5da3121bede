// Package classify decides whether a performer is an artificial act by
// tallying votes from external metadata sources, with user overrides, a
// decision cache, and an optional LLM fallback for inconclusive tallies.
package classify
