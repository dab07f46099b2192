package animation_test

import (
	"errors"
	"testing"

	"gifrelay/internal/animation"
	"gifrelay/internal/services"
)

func TestParseResponseShapes(t *testing.T) {
	const want = "https://cdn.example/out.gif"
	cases := map[string]string{
		"gifUrl":       `{"gifUrl":"` + want + `"}`,
		"gif_url":      `{"gif_url":"` + want + `"}`,
		"output_url":   `{"output_url":"` + want + `"}`,
		"outputUrl":    `{"outputUrl":"` + want + `"}`,
		"url":          `{"url":"` + want + `"}`,
		"output":       `{"output":"` + want + `"}`,
		"output array": `{"output":["` + want + `","https://cdn.example/other.gif"]}`,
		"image":        `{"image":"` + want + `"}`,
		"video":        `{"video":"` + want + `"}`,
		"nested data":  `{"status":"ok","data":{"url":"` + want + `"}}`,
		"top array":    `[{"url":"` + want + `"}]`,
		"priority":     `{"url":"https://cdn.example/low.gif","gifUrl":"` + want + `"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			outcome := animation.ParseResponse("application/json", []byte(body))
			if outcome.Kind != animation.OutcomeSuccess {
				t.Fatalf("kind = %v, err = %v", outcome.Kind, outcome.Err)
			}
			if outcome.URL != want {
				t.Fatalf("url = %q, want %q", outcome.URL, want)
			}
		})
	}
}

func TestParseResponseSniffsJSONWithoutContentType(t *testing.T) {
	outcome := animation.ParseResponse("", []byte(` {"gifUrl":"https://x/y.gif"}`))
	if outcome.URL != "https://x/y.gif" {
		t.Fatalf("url = %q", outcome.URL)
	}
}

func TestParseResponseBinary(t *testing.T) {
	outcome := animation.ParseResponse("video/mp4; codecs=avc1", []byte{0, 0, 0, 0x18, 'f', 't', 'y', 'p'})
	if outcome.Kind != animation.OutcomeSuccess || len(outcome.Media) != 8 {
		t.Fatalf("unexpected outcome %#v", outcome)
	}
	if outcome.ContentType != "video/mp4" {
		t.Fatalf("content type = %q", outcome.ContentType)
	}
}

func TestParseResponseFailures(t *testing.T) {
	cases := map[string]struct {
		contentType string
		body        string
	}{
		"empty":       {"image/gif", ""},
		"no url":      {"application/json", `{"status":"done"}`},
		"broken json": {"application/json", `{"gifUrl":`},
		"empty url":   {"application/json", `{"gifUrl":"  "}`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			outcome := animation.ParseResponse(tc.contentType, []byte(tc.body))
			if outcome.Kind != animation.OutcomeFailure {
				t.Fatalf("kind = %v", outcome.Kind)
			}
			if !errors.Is(outcome.Err, services.ErrExternalTool) {
				t.Fatalf("expected external tool marker, got %v", outcome.Err)
			}
		})
	}
}

func TestDefaultParamsFields(t *testing.T) {
	fields := animation.DefaultParams().Fields()
	if len(fields) != 9 {
		t.Fatalf("expected 9 fields, got %d", len(fields))
	}
	if fields[0][0] != "driving_video" || fields[len(fields)-1][0] != "video_select_every_n_frames" {
		t.Fatalf("unexpected order %v", fields)
	}
}
