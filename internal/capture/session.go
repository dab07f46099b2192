package capture

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"gifrelay/internal/imagedata"
	"gifrelay/internal/logging"
)

// User-facing messages.
const (
	MessageCameraUnavailable = "Could not access the camera."
	MessageNoImage           = "Please provide an image."
	generateFailurePrefix    = "Failed to generate GIF: "
)

var (
	// ErrGenerationInFlight is returned when Generate is called while a call is pending.
	ErrGenerationInFlight = errors.New("generation already in progress")
	// ErrNoImage is returned when Generate is called before an image was chosen.
	ErrNoImage = errors.New("no image selected")
)

// State names what the UI should render.
type State int

const (
	StateEmpty State = iota
	StateHasImage
	StateGenerating
	StateResult
	StateError
)

func (s State) String() string {
	switch s {
	case StateHasImage:
		return "has image"
	case StateGenerating:
		return "generating"
	case StateResult:
		return "result"
	case StateError:
		return "error"
	default:
		return "empty"
	}
}

// Generator submits an encoded image and returns the GIF URL.
type Generator interface {
	Generate(ctx context.Context, imageData string) (string, error)
}

// serverMessenger is implemented by errors that carry a message from the relay.
type serverMessenger interface {
	ServerMessage() string
}

// View is a snapshot of session state for rendering.
type View struct {
	State        State
	Image        imagedata.Image
	ResultURL    string
	Error        string
	CameraActive bool
}

// Session holds the state of one capture screen.
type Session struct {
	generator Generator
	camera    *CameraSource
	logger    *slog.Logger

	mu         sync.Mutex
	image      imagedata.Image
	resultURL  string
	errMessage string
	generating bool
	// epoch changes whenever the image is replaced or cleared; a pending
	// generation only lands if the epoch it started under is still current.
	epoch uint64
}

// NewSession builds a session. camera may be nil when no camera is available.
func NewSession(generator Generator, camera *CameraSource, logger *slog.Logger) *Session {
	return &Session{
		generator: generator,
		camera:    camera,
		logger:    logging.NewComponentLogger(logger, "capture"),
	}
}

// SelectFile loads src as the current image. No file chosen is a no-op.
func (s *Session) SelectFile(ctx context.Context, src FileSource) error {
	img, err := src.Acquire(ctx)
	if errors.Is(err, ErrNoFile) {
		return nil
	}
	if err != nil {
		s.setError(err.Error())
		return err
	}
	s.setImage(img)
	return nil
}

// StartCamera opens the camera stream.
func (s *Session) StartCamera(ctx context.Context) error {
	if s.camera == nil {
		s.setError(MessageCameraUnavailable)
		return errors.New(MessageCameraUnavailable)
	}
	if err := s.camera.Start(ctx); err != nil {
		s.logger.Warn("camera start failed", logging.Error(err))
		s.setError(MessageCameraUnavailable)
		return err
	}
	return nil
}

// CaptureFrame takes the current camera frame as the image and releases the camera.
func (s *Session) CaptureFrame(ctx context.Context) error {
	if s.camera == nil {
		s.setError(MessageCameraUnavailable)
		return errors.New(MessageCameraUnavailable)
	}
	img, err := s.camera.Acquire(ctx)
	if err != nil {
		s.logger.Warn("frame capture failed", logging.Error(err))
		s.setError(MessageCameraUnavailable)
		return err
	}
	s.setImage(img)
	return nil
}

// Clear resets the session to empty, stops any active camera stream and
// abandons a pending generation.
func (s *Session) Clear() {
	if s.camera != nil {
		if err := s.camera.Stop(); err != nil {
			s.logger.Warn("camera stop failed", logging.Error(err))
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset(imagedata.Image{})
}

// Generate submits the current image. Only one call runs at a time. A result
// that arrives after Clear or a new image was chosen is discarded.
func (s *Session) Generate(ctx context.Context) error {
	s.mu.Lock()
	if s.generating {
		s.mu.Unlock()
		return ErrGenerationInFlight
	}
	if s.image.Empty() {
		s.errMessage = MessageNoImage
		s.mu.Unlock()
		return ErrNoImage
	}
	img := s.image
	epoch := s.epoch
	s.generating = true
	s.errMessage = ""
	s.resultURL = ""
	s.mu.Unlock()

	url, err := s.generator.Generate(ctx, img.DataURL())

	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		s.logger.Debug("discarding superseded generation result", logging.Error(err))
		return err
	}
	s.generating = false
	if err != nil {
		s.errMessage = generateFailurePrefix + failureMessage(err)
		s.logger.Warn("gif generation failed", logging.Error(err))
		return err
	}
	s.resultURL = url
	s.logger.Info("gif generated", logging.GifURL(url))
	return nil
}

// View returns a snapshot of the session.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := View{
		Image:     s.image,
		ResultURL: s.resultURL,
		Error:     s.errMessage,
	}
	if s.camera != nil {
		v.CameraActive = s.camera.Active()
	}
	switch {
	case s.generating:
		v.State = StateGenerating
	case s.errMessage != "":
		v.State = StateError
	case s.resultURL != "":
		v.State = StateResult
	case !s.image.Empty():
		v.State = StateHasImage
	default:
		v.State = StateEmpty
	}
	return v
}

func (s *Session) setImage(img imagedata.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset(img)
}

// reset replaces the image and abandons any pending generation. Callers hold mu.
func (s *Session) reset(img imagedata.Image) {
	s.image = img
	s.resultURL = ""
	s.errMessage = ""
	s.generating = false
	s.epoch++
}

func (s *Session) setError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMessage = msg
}

// failureMessage prefers the relay's own error string over the transport error.
func failureMessage(err error) string {
	var messenger serverMessenger
	if errors.As(err, &messenger) {
		if msg := messenger.ServerMessage(); msg != "" {
			return msg
		}
	}
	return err.Error()
}
