package imagedata

import (
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gifrelay/internal/services"
)

// Accepted MIME types for encoded images.
const (
	MIMEJPEG = "image/jpeg"
	MIMEPNG  = "image/png"
	MIMEGIF  = "image/gif"
)

var (
	// ErrMissing reports an absent or empty encoded image.
	ErrMissing = errors.New("no image data provided")
	// ErrInvalidFormat reports a prefix or payload that is not a supported base64 image.
	ErrInvalidFormat = errors.New("invalid base64 data")

	acceptedPrefix = regexp.MustCompile(`^data:image/(jpeg|png|gif);base64,`)
	anyImagePrefix = regexp.MustCompile(`^data:image/\w+;base64,`)
)

// Image is a parsed data URL. Payload holds the base64 text without its prefix.
type Image struct {
	MIMEType string
	Payload  string
}

// Parse validates a data:image/<type>;base64,<payload> string and splits it.
// The payload must decode as standard base64 and must not be empty.
func Parse(dataURL string) (Image, error) {
	if strings.TrimSpace(dataURL) == "" {
		return Image{}, services.Wrap(services.ErrValidation, "imagedata", "parse", "", ErrMissing)
	}
	match := acceptedPrefix.FindStringSubmatch(dataURL)
	if match == nil {
		return Image{}, services.Wrap(services.ErrValidation, "imagedata", "parse", "unsupported prefix", ErrInvalidFormat)
	}
	payload := anyImagePrefix.ReplaceAllString(dataURL, "")
	if payload == "" {
		return Image{}, services.Wrap(services.ErrValidation, "imagedata", "parse", "empty payload", ErrInvalidFormat)
	}
	if _, err := base64.StdEncoding.DecodeString(payload); err != nil {
		return Image{}, services.Wrap(services.ErrValidation, "imagedata", "parse", "decode payload", errors.Join(ErrInvalidFormat, err))
	}
	return Image{MIMEType: "image/" + match[1], Payload: payload}, nil
}

// Encode builds an Image from raw bytes. Only jpeg, png, and gif are accepted.
func Encode(mimeType string, data []byte) (Image, error) {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if !Supported(mimeType) {
		return Image{}, services.Wrap(services.ErrValidation, "imagedata", "encode", fmt.Sprintf("unsupported type %q", mimeType), ErrInvalidFormat)
	}
	if len(data) == 0 {
		return Image{}, services.Wrap(services.ErrValidation, "imagedata", "encode", "", ErrMissing)
	}
	return Image{MIMEType: mimeType, Payload: base64.StdEncoding.EncodeToString(data)}, nil
}

// Supported reports whether mimeType is one of the accepted image types.
func Supported(mimeType string) bool {
	switch mimeType {
	case MIMEJPEG, MIMEPNG, MIMEGIF:
		return true
	default:
		return false
	}
}

// DataURL renders the image back into its data URL form.
func (i Image) DataURL() string {
	return "data:" + i.MIMEType + ";base64," + i.Payload
}

// Bytes decodes the payload.
func (i Image) Bytes() ([]byte, error) {
	return base64.StdEncoding.DecodeString(i.Payload)
}

// Empty reports whether the image carries no payload.
func (i Image) Empty() bool {
	return i.Payload == ""
}
