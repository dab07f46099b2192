package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
}

func setupCLITestEnv(t *testing.T, serverURL string) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	home := filepath.Join(base, "home")
	if err := os.MkdirAll(home, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", home)
	for _, key := range []string{"PORT", "SEGMIND_API_URL", "SEGMIND_API_KEY", "GIFRELAY_PUBLIC_URL", "GIFRELAY_CORS_ORIGIN", "GIFRELAY_SERVER_URL"} {
		t.Setenv(key, "")
	}

	configPath := filepath.Join(base, "gifrelay.toml")
	content := fmt.Sprintf(`[server]
bind = "127.0.0.1:0"

[upstream]
api_url = "https://upstream.example/animate"
api_key = "secret-key-1234"

[artifacts]
dir = %q

[client]
server_url = %q
timeout_seconds = 5
ffmpeg_binary = "definitely-not-ffmpeg"

[logging]
level = "error"
`, filepath.Join(base, "artifacts"), serverURL)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return &cliTestEnv{baseDir: base, configPath: configPath}
}

func runCLI(t *testing.T, args []string, configPath, stdin string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
