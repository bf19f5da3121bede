// Package main hosts the skipper CLI entrypoint and command graph.
//
// The Cobra-based command tree covers the long-running playback monitor, the
// interactive Spotify login, one-off performer classification, manual
// overrides, play and decision history, and configuration scaffolding. It
// centralizes configuration resolution and logging setup so subcommands can
// focus on user experience instead of wiring.
package main
