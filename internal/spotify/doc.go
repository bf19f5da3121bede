// Package spotify wraps the Web API calls the monitor and action engine
// need: playback state, skip, and playlist edits. Authentication uses the
// authorization code flow with a token cached on disk.
package spotify
