// Package config loads, normalizes, and validates the TOML configuration
// file. Defaults are applied before decoding so a partial file works, and
// ${VAR} placeholders are expanded from the environment.
package config
