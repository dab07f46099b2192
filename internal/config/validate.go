package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable by every command.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateClient(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

// ValidateRelay enforces the settings the relay cannot start without.
func (c *Config) ValidateRelay() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Upstream.APIURL == "" || c.Upstream.APIKey == "" {
		return errors.New("upstream.api_url and upstream.api_key must be set (or export SEGMIND_API_URL and SEGMIND_API_KEY)")
	}
	if err := validateHTTPURL("upstream.api_url", c.Upstream.APIURL); err != nil {
		return err
	}
	if strings.TrimSpace(c.Artifacts.Dir) == "" {
		return errors.New("artifacts.dir must be set")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Bind == "" {
		return errors.New("server.bind must be set")
	}
	if c.Server.PublicURL != "" {
		if err := validateHTTPURL("server.public_url", c.Server.PublicURL); err != nil {
			return err
		}
	}
	if c.Server.MaxBodyBytes <= 0 {
		return errors.New("server.max_body_bytes must be positive")
	}
	if c.Upstream.TimeoutSeconds <= 0 {
		return errors.New("upstream.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateClient() error {
	return validateHTTPURL("client.server_url", c.Client.ServerURL)
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}

func validateHTTPURL(key, value string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) URL, got %q", key, value)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host, got %q", key, value)
	}
	return nil
}
