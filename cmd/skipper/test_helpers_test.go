package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeCLIConfig writes a minimal valid config into dir and returns its path.
func writeCLIConfig(t *testing.T, dir string) string {
	t.Helper()

	body := fmt.Sprintf(`[database]
path = %q

[spotify]
client_id = "test-client"
client_secret = "test-secret"
token_cache = %q

[sources.musicbrainz]
user_agent = "skipper-cli-test/1.0"
`, filepath.Join(dir, "skipper.db"), filepath.Join(dir, "token.json"))

	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Fatalf("output missing %q:\n%s", want, output)
	}
}
