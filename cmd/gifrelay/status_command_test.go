package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gifrelay/internal/capture"
)

func TestStatusReportsRelayAndDependencies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"ok"}`)
	}))
	defer srv.Close()
	env := setupCLITestEnv(t, srv.URL)

	out, _, err := runCLI(t, []string{"status"}, env.configPath, "")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "== Relay ==")
	requireContains(t, out, "[OK] "+srv.URL)
	requireContains(t, out, "FFmpeg:")
	requireContains(t, out, "[WARN]")
}

func TestStatusUnreachableRelay(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()
	env := setupCLITestEnv(t, url)

	out, _, err := runCLI(t, []string{"status"}, env.configPath, "")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "[ERROR] not reachable")
}

func TestRenderStatusLineColor(t *testing.T) {
	plain := renderStatusLine("Relay", statusOK, "up", false)
	if strings.Contains(plain, "\x1b[") {
		t.Fatalf("unexpected color codes in %q", plain)
	}
	colored := renderStatusLine("Relay", statusError, "down", true)
	if !strings.HasPrefix(colored, ansiRed) || !strings.HasSuffix(colored, ansiReset) {
		t.Fatalf("expected red line, got %q", colored)
	}
}

func TestStateLabel(t *testing.T) {
	cases := map[capture.State]string{
		capture.StateEmpty:      "Empty",
		capture.StateHasImage:   "Has Image",
		capture.StateGenerating: "Generating",
		capture.StateResult:     "Result",
		capture.StateError:      "Error",
	}
	for state, want := range cases {
		if got := stateLabel(state); got != want {
			t.Fatalf("stateLabel(%v) = %q, want %q", state, got, want)
		}
	}
}

func TestRenderTable(t *testing.T) {
	out := renderTable([]string{"Key", "Value"}, [][]string{{"a", "1"}, {"b"}}, []columnAlignment{alignLeft, alignRight})
	for _, want := range []string{"KEY", "VALUE", "a", "1", "b"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in table %q", want, out)
		}
	}
	if renderTable(nil, nil, nil) != "" {
		t.Fatal("expected empty output without headers")
	}
}
