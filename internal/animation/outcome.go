package animation

import (
	"bytes"
	"encoding/json"
	"mime"
	"strings"
)

// Kind tags the result of an upstream call.
type Kind int

const (
	OutcomeFailure Kind = iota
	OutcomeSuccess
	OutcomeTimeout
)

func (k Kind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeTimeout:
		return "timeout"
	default:
		return "failure"
	}
}

// Outcome is the normalized upstream result. A success carries either URL or
// Media; failures and timeouts carry Err.
type Outcome struct {
	Kind        Kind
	URL         string
	Media       []byte
	ContentType string
	Err         error
}

// urlKeys lists the response fields searched for a media URL, in priority order.
var urlKeys = []string{"gifUrl", "gif_url", "output_url", "outputUrl", "url", "output", "image", "video"}

// ParseResponse normalizes a successful upstream body. JSON bodies are searched
// for a media URL; any other body is treated as the binary media itself.
func ParseResponse(contentType string, body []byte) Outcome {
	if len(body) == 0 {
		return failure(errEmptyResponse)
	}
	if isJSON(contentType, body) {
		var decoded any
		if err := json.Unmarshal(body, &decoded); err != nil {
			return failure(wrapUpstream("decode response", err))
		}
		if url := findURL(decoded); url != "" {
			return Outcome{Kind: OutcomeSuccess, URL: url}
		}
		return failure(errNoMediaURL)
	}
	return Outcome{Kind: OutcomeSuccess, Media: body, ContentType: mediaType(contentType)}
}

func isJSON(contentType string, body []byte) bool {
	if mt := mediaType(contentType); mt == "application/json" || strings.HasSuffix(mt, "+json") {
		return true
	}
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') && json.Valid(trimmed)
}

func mediaType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}

func findURL(v any) string {
	switch typed := v.(type) {
	case map[string]any:
		for _, key := range urlKeys {
			if url := stringOrFirst(typed[key]); url != "" {
				return url
			}
		}
		if nested, ok := typed["data"]; ok {
			return findURL(nested)
		}
	case []any:
		if len(typed) > 0 {
			return findURL(typed[0])
		}
	}
	return ""
}

func stringOrFirst(v any) string {
	switch typed := v.(type) {
	case string:
		return strings.TrimSpace(typed)
	case []any:
		if len(typed) > 0 {
			if s, ok := typed[0].(string); ok {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

func failure(err error) Outcome {
	return Outcome{Kind: OutcomeFailure, Err: err}
}
