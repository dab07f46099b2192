package artifact

import (
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"gifrelay/internal/fileutil"
	"gifrelay/internal/logging"
	"gifrelay/internal/services"
)

const (
	namePrefix  = "generated-"
	namePattern = namePrefix + "*"
)

// Store parks binary media returned by the animation API so the relay can
// hand out a URL for it. Contents do not survive a restart.
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore creates the directory if needed and returns a store rooted there.
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, services.Wrap(services.ErrConfiguration, "artifact", "open store", "directory is required", nil)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve artifact dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	return &Store{dir: abs, logger: logging.NewComponentLogger(logger, "artifact")}, nil
}

// Dir returns the absolute directory served under /artifacts/.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes data under a unique generated-<ULID>.<ext> name and returns the name.
func (s *Store) Save(data []byte, contentType string) (string, error) {
	if len(data) == 0 {
		return "", services.Wrap(services.ErrValidation, "artifact", "save", "empty media", nil)
	}
	name := namePrefix + strings.ToLower(ulid.Make().String()) + "." + Extension(contentType, data)
	if err := fileutil.WriteFileAtomic(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", services.Wrap(services.ErrTransient, "artifact", "save", name, err)
	}
	s.logger.Debug("artifact saved", logging.String("name", name), logging.Bytes(len(data)))
	return name, nil
}

// Purge removes every generated artifact.
func (s *Store) Purge() (int, error) {
	return s.remove(func(os.FileInfo) bool { return true })
}

// Prune removes generated artifacts last modified more than maxAge ago.
// A non-positive maxAge disables pruning.
func (s *Store) Prune(maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	cutoff := time.Now().Add(-maxAge)
	return s.remove(func(info os.FileInfo) bool { return info.ModTime().Before(cutoff) })
}

func (s *Store) remove(match func(os.FileInfo) bool) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("read artifact dir: %w", err)
	}
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if ok, _ := filepath.Match(namePattern, entry.Name()); !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil || !match(info) {
			continue
		}
		fullPath := filepath.Join(s.dir, entry.Name())
		if err := os.Remove(fullPath); err != nil {
			s.logger.Warn("artifact remove failed; file remains", logging.String("path", fullPath), logging.Error(err))
			continue
		}
		removed++
	}
	return removed, nil
}

// Extension picks a file extension from the content type, sniffing data when
// the type is missing or generic.
func Extension(contentType string, data []byte) string {
	mt := strings.ToLower(strings.TrimSpace(contentType))
	if parsed, _, err := mime.ParseMediaType(mt); err == nil {
		mt = parsed
	}
	if mt == "" || mt == "application/octet-stream" {
		mt = sniff(data)
	}
	switch mt {
	case "image/gif":
		return "gif"
	case "video/mp4":
		return "mp4"
	case "image/webp":
		return "webp"
	case "image/png":
		return "png"
	case "image/jpeg":
		return "jpg"
	default:
		return "bin"
	}
}

func sniff(data []byte) string {
	switch {
	case len(data) >= 6 && (string(data[:6]) == "GIF87a" || string(data[:6]) == "GIF89a"):
		return "image/gif"
	case len(data) >= 12 && string(data[4:8]) == "ftyp":
		return "video/mp4"
	case len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return "image/webp"
	case len(data) >= 8 && string(data[:8]) == "\x89PNG\r\n\x1a\n":
		return "image/png"
	case len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return "image/jpeg"
	default:
		return ""
	}
}
