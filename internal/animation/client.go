package animation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"strings"
	"time"

	"gifrelay/internal/config"
	"gifrelay/internal/imagedata"
	"gifrelay/internal/logging"
	"gifrelay/internal/services"
)

const (
	apiKeyHeader     = "x-api-key"
	defaultTimeout   = 120 * time.Second
	errorBodyPreview = 512
)

var (
	errEmptyResponse = services.Wrap(services.ErrExternalTool, "animation", "parse", "empty response body", nil)
	errNoMediaURL    = services.Wrap(services.ErrExternalTool, "animation", "parse", "response did not contain a media URL", nil)
)

// HTTPDoer describes the HTTP client used to reach the animation API.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client posts face images to the animation API.
type Client struct {
	endpoint string
	apiKey   string
	timeout  time.Duration
	params   Params
	doer     HTTPDoer
	logger   *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPDoer swaps the HTTP client.
func WithHTTPDoer(doer HTTPDoer) Option {
	return func(c *Client) {
		if doer != nil {
			c.doer = doer
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logging.NewComponentLogger(logger, "animation") }
}

// NewClient constructs a client for endpoint. A non-positive timeout uses 120s.
func NewClient(endpoint, apiKey string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Client{
		endpoint: strings.TrimSpace(endpoint),
		apiKey:   strings.TrimSpace(apiKey),
		timeout:  timeout,
		params:   DefaultParams(),
		doer:     http.DefaultClient,
		logger:   logging.NewComponentLogger(nil, "animation"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewConfiguredClient builds a client from the upstream config section.
func NewConfiguredClient(cfg *config.Config, logger *slog.Logger) *Client {
	return NewClient(cfg.Upstream.APIURL, cfg.Upstream.APIKey, cfg.UpstreamTimeout(), WithLogger(logger))
}

// Generate submits img and returns the normalized outcome. The call is bounded
// by the client timeout; exceeding it yields OutcomeTimeout.
func (c *Client) Generate(ctx context.Context, img imagedata.Image) Outcome {
	if c.endpoint == "" || c.apiKey == "" {
		return failure(services.Wrap(services.ErrConfiguration, "animation", "generate", "api url and key are required", nil))
	}

	body, contentType, err := c.buildForm(img)
	if err != nil {
		return failure(wrapUpstream("build form", err))
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return failure(wrapUpstream("build request", err))
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(apiKeyHeader, c.apiKey)

	logger := logging.WithContext(ctx, c.logger)
	started := time.Now()
	logger.Debug("animation request started", logging.String("endpoint", c.endpoint), logging.Bytes(len(img.Payload)))

	resp, err := c.doer.Do(req)
	if err != nil {
		return c.transportOutcome(logger, started, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.transportOutcome(logger, started, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		logger.Warn("animation request rejected",
			logging.Status(resp.StatusCode),
			logging.Elapsed(started),
		)
		return failure(services.Wrap(services.ErrExternalTool, "animation", "generate",
			fmt.Sprintf("upstream returned %d", resp.StatusCode), errors.New(errorDetail(data))))
	}

	outcome := ParseResponse(resp.Header.Get("Content-Type"), data)
	logger.Info("animation request completed",
		logging.String("outcome", outcome.Kind.String()),
		logging.Bytes(len(data)),
		logging.Elapsed(started),
	)
	return outcome
}

func (c *Client) buildForm(img imagedata.Image) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("face_image", img.Payload); err != nil {
		return nil, "", err
	}
	if err := c.params.writeTo(w); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func (c *Client) transportOutcome(logger *slog.Logger, started time.Time, err error) Outcome {
	if isTimeout(err) {
		logger.Warn("animation request timed out", logging.Elapsed(started))
		return Outcome{Kind: OutcomeTimeout, Err: services.Wrap(services.ErrTimeout, "animation", "generate", "deadline exceeded", err)}
	}
	logger.Error("animation request failed", logging.Error(err), logging.Elapsed(started))
	return failure(wrapUpstream("send request", err))
}

// isTimeout also treats transport read/dial timeouts as a deadline.
func isTimeout(err error) bool {
	if services.IsTimeout(err) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func wrapUpstream(operation string, err error) error {
	return services.Wrap(services.ErrExternalTool, "animation", operation, "", err)
}

// errorDetail extracts a human readable message from an upstream error body.
func errorDetail(body []byte) string {
	var payload map[string]any
	if json.Unmarshal(body, &payload) == nil {
		for _, key := range []string{"error", "message", "detail", "details"} {
			if s, ok := payload[key].(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	text := strings.TrimSpace(string(body))
	if len(text) > errorBodyPreview {
		text = text[:errorBodyPreview]
	}
	if text == "" {
		return "empty error body"
	}
	return text
}
