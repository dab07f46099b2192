package relay_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"gifrelay/internal/animation"
	"gifrelay/internal/artifact"
	"gifrelay/internal/config"
	"gifrelay/internal/imagedata"
	"gifrelay/internal/relay"
	"gifrelay/internal/services"
	"gifrelay/internal/testsupport"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type fakeGenerator struct {
	mu      sync.Mutex
	calls   int
	got     imagedata.Image
	outcome animation.Outcome
}

func (f *fakeGenerator) Generate(_ context.Context, img imagedata.Image) animation.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.got = img
	return f.outcome
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newServer(t *testing.T, gen relay.Generator, opts ...testsupport.ConfigOption) (*relay.Server, *config.Config, *artifact.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	store, err := artifact.NewStore(cfg.Artifacts.Dir, nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	srv, err := relay.New(cfg, store, gen, nil)
	if err != nil {
		t.Fatalf("relay.New: %v", err)
	}
	return srv, cfg, store
}

func postGenerate(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/generate-gif", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return payload
}

func imageBody(t *testing.T) string {
	return `{"imageData":"` + testsupport.JPEGDataURL(t) + `"}`
}

func TestGenerateSuccessWithURL(t *testing.T) {
	gen := &fakeGenerator{outcome: animation.Outcome{Kind: animation.OutcomeSuccess, URL: "https://cdn.example/out.gif"}}
	srv, _, _ := newServer(t, gen)

	rec := postGenerate(t, srv.Handler(), imageBody(t))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	payload := decode(t, rec)
	if payload["gifUrl"] != "https://cdn.example/out.gif" || payload["status"] != "success" || payload["message"] != "GIF generated successfully" {
		t.Fatalf("unexpected payload %#v", payload)
	}
	if gen.got.MIMEType != "image/jpeg" || strings.HasPrefix(gen.got.Payload, "data:") {
		t.Fatalf("generator got %q / prefix not stripped", gen.got.MIMEType)
	}
}

func TestGenerateBinaryOutcomeIsServedAsArtifact(t *testing.T) {
	gen := &fakeGenerator{outcome: animation.Outcome{Kind: animation.OutcomeSuccess, Media: []byte("GIF89a-bytes"), ContentType: "image/gif"}}
	srv, _, _ := newServer(t, gen)

	req := httptest.NewRequest(http.MethodPost, "/api/generate-gif", strings.NewReader(imageBody(t)))
	req.Host = "relay.local:5000"
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	gifURL, _ := decode(t, rec)["gifUrl"].(string)
	if !strings.HasPrefix(gifURL, "http://relay.local:5000/artifacts/generated-") || !strings.HasSuffix(gifURL, ".gif") {
		t.Fatalf("unexpected gifUrl %q", gifURL)
	}

	path := strings.TrimPrefix(gifURL, "http://relay.local:5000")
	getRec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(getRec, httptest.NewRequest(http.MethodGet, path, nil))
	if getRec.Code != http.StatusOK || getRec.Body.String() != "GIF89a-bytes" {
		t.Fatalf("artifact fetch status=%d body=%q", getRec.Code, getRec.Body.String())
	}
}

func TestGenerateArtifactURLUsesPublicURL(t *testing.T) {
	gen := &fakeGenerator{outcome: animation.Outcome{Kind: animation.OutcomeSuccess, Media: []byte("GIF89a"), ContentType: "image/gif"}}
	srv, _, _ := newServer(t, gen, testsupport.WithPublicURL("https://relay.example.com/"))

	rec := postGenerate(t, srv.Handler(), imageBody(t))
	gifURL, _ := decode(t, rec)["gifUrl"].(string)
	if !strings.HasPrefix(gifURL, "https://relay.example.com/artifacts/generated-") {
		t.Fatalf("unexpected gifUrl %q", gifURL)
	}
}

func TestGenerateMissingInput(t *testing.T) {
	cases := map[string]string{
		"empty object": `{}`,
		"empty string": `{"imageData":""}`,
		"null":         `{"imageData":null}`,
		"empty body":   ``,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			gen := &fakeGenerator{}
			srv, _, _ := newServer(t, gen)
			rec := postGenerate(t, srv.Handler(), body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d", rec.Code)
			}
			payload := decode(t, rec)
			if payload["error"] != "No image data provided" || payload["details"] != "Please upload an image first" {
				t.Fatalf("unexpected payload %#v", payload)
			}
			if gen.callCount() != 0 {
				t.Fatal("generator must not be called")
			}
		})
	}
}

func TestGenerateInvalidFormat(t *testing.T) {
	cases := map[string]string{
		"webp":        `{"imageData":"data:image/webp;base64,AAAA"}`,
		"raw base64":  `{"imageData":"AAAA"}`,
		"bad payload": `{"imageData":"data:image/png;base64,%%%%"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			gen := &fakeGenerator{}
			srv, _, _ := newServer(t, gen)
			rec := postGenerate(t, srv.Handler(), body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d", rec.Code)
			}
			payload := decode(t, rec)
			if payload["error"] != "Invalid base64 data" || payload["details"] != "The provided image data is not in valid base64 format" {
				t.Fatalf("unexpected payload %#v", payload)
			}
			if gen.callCount() != 0 {
				t.Fatal("generator must not be called")
			}
		})
	}
}

func TestGenerateMalformedJSON(t *testing.T) {
	srv, _, _ := newServer(t, &fakeGenerator{})
	rec := postGenerate(t, srv.Handler(), `{"imageData":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if decode(t, rec)["error"] != "Invalid base64 data" {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestGenerateBodyTooLarge(t *testing.T) {
	gen := &fakeGenerator{}
	cfg := testsupport.NewConfig(t)
	cfg.Server.MaxBodyBytes = 64
	store, err := artifact.NewStore(cfg.Artifacts.Dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	srv, err := relay.New(cfg, store, gen, nil)
	if err != nil {
		t.Fatal(err)
	}

	rec := postGenerate(t, srv.Handler(), imageBody(t))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if gen.callCount() != 0 {
		t.Fatal("generator must not be called")
	}
}

func TestGenerateTimeout(t *testing.T) {
	gen := &fakeGenerator{outcome: animation.Outcome{Kind: animation.OutcomeTimeout, Err: services.ErrTimeout}}
	srv, _, _ := newServer(t, gen)

	rec := postGenerate(t, srv.Handler(), imageBody(t))
	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("status = %d", rec.Code)
	}
	payload := decode(t, rec)
	if payload["error"] != "Request is taking longer than expected" || payload["status"] != "processing" {
		t.Fatalf("unexpected payload %#v", payload)
	}
	if _, ok := payload["details"]; ok {
		t.Fatalf("timeout payload should not carry details: %#v", payload)
	}
}

func TestGenerateFailure(t *testing.T) {
	gen := &fakeGenerator{outcome: animation.Outcome{Kind: animation.OutcomeFailure, Err: errors.New("upstream returned 401")}}
	srv, _, _ := newServer(t, gen)

	rec := postGenerate(t, srv.Handler(), imageBody(t))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	payload := decode(t, rec)
	if payload["error"] != "Failed to process request" || payload["status"] != "failed" || payload["details"] != "upstream returned 401" {
		t.Fatalf("unexpected payload %#v", payload)
	}
}

func TestGenerateStatusFollowsErrorMarker(t *testing.T) {
	tests := []struct {
		name    string
		outcome animation.Outcome
		want    int
	}{
		{"timeout without error", animation.Outcome{Kind: animation.OutcomeTimeout}, http.StatusGatewayTimeout},
		{"failure wrapping deadline", animation.Outcome{Kind: animation.OutcomeFailure, Err: services.Wrap(services.ErrExternalTool, "animation", "generate", "", context.DeadlineExceeded)}, http.StatusGatewayTimeout},
		{"failure without error", animation.Outcome{Kind: animation.OutcomeFailure}, http.StatusInternalServerError},
		{"configuration failure", animation.Outcome{Kind: animation.OutcomeFailure, Err: services.Wrap(services.ErrConfiguration, "animation", "generate", "api url and key are required", nil)}, http.StatusInternalServerError},
		{"unavailable upstream", animation.Outcome{Kind: animation.OutcomeFailure, Err: services.ErrUnavailable}, http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv, _, _ := newServer(t, &fakeGenerator{outcome: tc.outcome})
			rec := postGenerate(t, srv.Handler(), imageBody(t))
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d body=%s", rec.Code, tc.want, rec.Body.String())
			}
			payload := decode(t, rec)
			if tc.want == http.StatusGatewayTimeout && payload["status"] != "processing" {
				t.Fatalf("unexpected timeout payload %#v", payload)
			}
			if tc.want == http.StatusInternalServerError && (payload["error"] != "Failed to process request" || payload["details"] == "") {
				t.Fatalf("unexpected failure payload %#v", payload)
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	srv, cfg, _ := newServer(t, &fakeGenerator{})

	req := httptest.NewRequest(http.MethodOptions, "/api/generate-gif", nil)
	req.Header.Set("Origin", cfg.Server.CORSOrigin)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != cfg.Server.CORSOrigin {
		t.Fatalf("allow origin = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST" {
		t.Fatalf("allow methods = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Headers"); got != "Content-Type, x-api-key" {
		t.Fatalf("allow headers = %q", got)
	}
}

func TestRequestIDEchoedAndGenerated(t *testing.T) {
	srv, _, _ := newServer(t, &fakeGenerator{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "req-123" {
		t.Fatalf("request id = %q", got)
	}
	if decode(t, rec)["status"] != "ok" {
		t.Fatalf("unexpected health body %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if len(rec.Header().Get("X-Request-ID")) != 36 {
		t.Fatalf("expected generated uuid, got %q", rec.Header().Get("X-Request-ID"))
	}
}

func TestArtifactRouteRejectsForeignFiles(t *testing.T) {
	srv, _, store := newServer(t, &fakeGenerator{})
	testsupport.WriteFile(t, filepath.Join(store.Dir(), "gifrelay.lock"), []byte("lock"))

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/artifacts/gifrelay.lock", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestServerEndToEndWithUpstream(t *testing.T) {
	keys := make(chan string, 1)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		keys <- r.Header.Get("x-api-key")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.FormValue("face_image") == "" {
			t.Error("expected face_image field")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"output":["https://cdn.example/portrait.gif"]}`)
	}))
	defer upstream.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithUpstream(upstream.URL, "live-key"))
	store, err := artifact.NewStore(cfg.Artifacts.Dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	srv, err := relay.New(cfg, store, animation.NewConfiguredClient(cfg, nil), nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := srv.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer srv.Stop()

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Post("http://"+srv.Addr()+"/api/generate-gif", "application/json", bytes.NewBufferString(imageBody(t)))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var payload relay.GenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatal(err)
	}
	if payload.GifURL != "https://cdn.example/portrait.gif" {
		t.Fatalf("gifUrl = %q", payload.GifURL)
	}
	if got := <-keys; got != "live-key" {
		t.Fatalf("api key = %q", got)
	}
}

func TestNewRequiresDependencies(t *testing.T) {
	if _, err := relay.New(nil, nil, nil, nil); err == nil {
		t.Fatal("expected error")
	}
}
