package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t, "http://127.0.0.1:1")

	out, _, err := runCLI(t, []string{"config", "validate", "--relay"}, env.configPath, "")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.configPath)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "", "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, "", ""); err == nil {
		t.Fatal("expected error when config already exists")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, "", ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigValidateRelayRequiresUpstream(t *testing.T) {
	env := setupCLITestEnv(t, "http://127.0.0.1:1")
	missing := filepath.Join(env.baseDir, "bare.toml")
	if err := os.WriteFile(missing, []byte("[logging]\nlevel = \"info\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, _, err := runCLI(t, []string{"config", "validate"}, missing, ""); err != nil {
		t.Fatalf("plain validate should pass: %v", err)
	}
	_, _, err := runCLI(t, []string{"config", "validate", "--relay"}, missing, "")
	if err == nil || !strings.Contains(err.Error(), "SEGMIND_API_KEY") {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestConfigShowMasksKey(t *testing.T) {
	env := setupCLITestEnv(t, "http://127.0.0.1:1")

	out, _, err := runCLI(t, []string{"config", "show"}, env.configPath, "")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "upstream.api_key")
	requireContains(t, out, "****1234")
	if strings.Contains(out, "secret-key-1234") {
		t.Fatalf("api key leaked in output: %s", out)
	}
	requireContains(t, out, "2m0s")
}
