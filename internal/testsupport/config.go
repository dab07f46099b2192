package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"gifrelay/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with a unique artifact directory per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Server.Bind = "127.0.0.1:0"
	cfgVal.Upstream.APIURL = "http://127.0.0.1:1/animate"
	cfgVal.Upstream.APIKey = "test"
	cfgVal.Artifacts.Dir = filepath.Join(base, "artifacts")
	cfgVal.Logging.Level = "error"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithUpstream points the relay at the given animation API endpoint.
func WithUpstream(url, key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Upstream.APIURL = url
		b.cfg.Upstream.APIKey = key
	}
}

// WithUpstreamTimeout overrides the upstream deadline in seconds.
func WithUpstreamTimeout(seconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Upstream.TimeoutSeconds = seconds
	}
}

// WithPublicURL sets the base used when building artifact URLs.
func WithPublicURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Server.PublicURL = url
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffmpeg is stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}
		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Artifacts.Dir)
}
