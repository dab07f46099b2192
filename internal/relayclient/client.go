package relayclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gifrelay/internal/relay"
)

const (
	generatePath = "/api/generate-gif"
	healthPath   = "/api/health"
)

// ErrNoGifURL reports a 200 answer that did not carry a gifUrl.
var ErrNoGifURL = errors.New("relay response did not include a gifUrl")

// ResponseError is a non-2xx answer from the relay.
type ResponseError struct {
	StatusCode int
	Message    string
	Details    string
	Status     string
}

func (e *ResponseError) Error() string {
	msg := e.ServerMessage()
	if msg == "" {
		return fmt.Sprintf("relay returned status %d", e.StatusCode)
	}
	return msg
}

// ServerMessage returns the relay's own error string, empty when the body
// carried none.
func (e *ResponseError) ServerMessage() string {
	return e.Message
}

// Client posts images to a running relay.
type Client struct {
	base *url.URL
	http *http.Client
}

// New builds a client for serverURL. A zero timeout waits until the relay
// answers, which is bounded by the relay's own upstream deadline.
func New(serverURL string, timeout time.Duration) (*Client, error) {
	serverURL = strings.TrimSpace(serverURL)
	if serverURL == "" {
		return nil, errors.New("relay server url is required")
	}
	if !strings.Contains(serverURL, "://") {
		serverURL = "http://" + serverURL
	}
	base, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("parse relay url: %w", err)
	}
	base.Path = strings.TrimRight(base.Path, "/")
	base.RawQuery = ""
	base.Fragment = ""

	return &Client{
		base: base,
		http: &http.Client{Timeout: timeout},
	}, nil
}

// Generate submits imageData and returns the animated GIF URL.
func (c *Client) Generate(ctx context.Context, imageData string) (string, error) {
	body, err := json.Marshal(relay.GenerateRequest{ImageData: imageData})
	if err != nil {
		return "", err
	}

	endpoint := *c.base
	endpoint.Path = c.base.Path + generatePath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		respErr := &ResponseError{StatusCode: resp.StatusCode}
		var payload relay.ErrorResponse
		if json.Unmarshal(data, &payload) == nil {
			respErr.Message = strings.TrimSpace(payload.Error)
			respErr.Details = strings.TrimSpace(payload.Details)
			respErr.Status = strings.TrimSpace(payload.Status)
		}
		return "", respErr
	}

	var payload relay.GenerateResponse
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", fmt.Errorf("decode relay response: %w", err)
	}
	if strings.TrimSpace(payload.GifURL) == "" {
		return "", ErrNoGifURL
	}
	return payload.GifURL, nil
}

// Health checks that the relay answers its health route.
func (c *Client) Health(ctx context.Context) error {
	endpoint := *c.base
	endpoint.Path = c.base.Path + healthPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var payload relay.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("decode health response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || payload.Status != "ok" {
		return &ResponseError{StatusCode: resp.StatusCode, Status: payload.Status}
	}
	return nil
}

// BaseURL returns the relay address the client talks to.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// IsUnavailable reports whether err means the relay could not be reached.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
