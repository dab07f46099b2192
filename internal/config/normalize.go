package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeServer()
	c.normalizeUpstream()
	if err := c.normalizeArtifacts(); err != nil {
		return err
	}
	c.normalizeClient()
	return c.normalizeLogging()
}

func (c *Config) normalizeServer() {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
			c.Server.Bind = ":" + port
		} else {
			c.Server.Bind = defaultBind
		}
	}
	if value := envValue("GIFRELAY_PUBLIC_URL"); value != "" {
		c.Server.PublicURL = value
	}
	c.Server.PublicURL = strings.TrimRight(strings.TrimSpace(c.Server.PublicURL), "/")
	if value := envValue("GIFRELAY_CORS_ORIGIN"); value != "" {
		c.Server.CORSOrigin = value
	}
	// Browsers send Origin without a trailing slash.
	c.Server.CORSOrigin = strings.TrimRight(strings.TrimSpace(c.Server.CORSOrigin), "/")
	if c.Server.MaxBodyBytes <= 0 {
		c.Server.MaxBodyBytes = defaultMaxBodyBytes
	}
}

func (c *Config) normalizeUpstream() {
	if value := envValue("SEGMIND_API_URL"); value != "" {
		c.Upstream.APIURL = value
	}
	if value := envValue("SEGMIND_API_KEY"); value != "" {
		c.Upstream.APIKey = value
	}
	c.Upstream.APIURL = strings.TrimSpace(c.Upstream.APIURL)
	c.Upstream.APIKey = strings.TrimSpace(c.Upstream.APIKey)
	if c.Upstream.TimeoutSeconds <= 0 {
		c.Upstream.TimeoutSeconds = defaultUpstreamTimeout
	}
}

func (c *Config) normalizeArtifacts() error {
	var err error
	if strings.TrimSpace(c.Artifacts.Dir) == "" {
		c.Artifacts.Dir = defaultArtifactDir
	}
	if c.Artifacts.Dir, err = expandPath(strings.TrimSpace(c.Artifacts.Dir)); err != nil {
		return fmt.Errorf("artifacts.dir: %w", err)
	}
	if c.Artifacts.MaxAgeMinutes < 0 {
		c.Artifacts.MaxAgeMinutes = 0
	}
	return nil
}

func (c *Config) normalizeClient() {
	if value := envValue("GIFRELAY_SERVER_URL"); value != "" {
		c.Client.ServerURL = value
	}
	c.Client.ServerURL = strings.TrimRight(strings.TrimSpace(c.Client.ServerURL), "/")
	if c.Client.ServerURL == "" {
		c.Client.ServerURL = defaultClientServerURL
	}
	if c.Client.TimeoutSeconds < 0 {
		c.Client.TimeoutSeconds = 0
	}
	c.Client.CameraDevice = strings.TrimSpace(c.Client.CameraDevice)
	if c.Client.CameraDevice == "" {
		c.Client.CameraDevice = defaultCameraDevice
	}
	c.Client.FFmpegBinary = strings.TrimSpace(c.Client.FFmpegBinary)
	if c.Client.FFmpegBinary == "" {
		c.Client.FFmpegBinary = defaultFFmpegBinary
	}
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if file := strings.TrimSpace(c.Logging.File); file != "" {
		expanded, err := expandPath(file)
		if err != nil {
			return fmt.Errorf("logging.file: %w", err)
		}
		c.Logging.File = expanded
	}
	return nil
}

func envValue(key string) string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}
