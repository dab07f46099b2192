package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"net/http"
	"os"
	"strings"
	"sync"

	"gifrelay/internal/imagedata"
	"gifrelay/internal/services"
)

// ErrNoFile reports that no file was chosen.
var ErrNoFile = errors.New("no file chosen")

// ImageSource produces an encoded image.
type ImageSource interface {
	Acquire(ctx context.Context) (imagedata.Image, error)
}

// FileSource reads an image from disk.
type FileSource struct {
	Path string
}

// Acquire reads the file, sniffs its type, and encodes it as a data URL.
func (f FileSource) Acquire(ctx context.Context) (imagedata.Image, error) {
	path := strings.TrimSpace(f.Path)
	if path == "" {
		return imagedata.Image{}, ErrNoFile
	}
	if err := ctx.Err(); err != nil {
		return imagedata.Image{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return imagedata.Image{}, fmt.Errorf("read image: %w", err)
	}
	return imagedata.Encode(http.DetectContentType(data), data)
}

// Camera opens a live video stream.
type Camera interface {
	Open(ctx context.Context) (Stream, error)
}

// Stream yields frames until stopped. Stop releases the device.
type Stream interface {
	Frame(ctx context.Context) (image.Image, error)
	Stop() error
}

// CameraSource manages at most one open Stream on a Camera.
type CameraSource struct {
	camera Camera

	mu     sync.Mutex
	stream Stream
}

// NewCameraSource wraps camera.
func NewCameraSource(camera Camera) *CameraSource {
	return &CameraSource{camera: camera}
}

// Start opens the camera. Starting while a stream is active is a no-op.
func (c *CameraSource) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream != nil {
		return nil
	}
	if c.camera == nil {
		return services.Wrap(services.ErrUnavailable, "capture", "start camera", "no camera configured", nil)
	}
	stream, err := c.camera.Open(ctx)
	if err != nil {
		return err
	}
	c.stream = stream
	return nil
}

// Active reports whether a stream is open.
func (c *CameraSource) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stream != nil
}

// Acquire grabs the current frame, redraws it into an RGBA bitmap, encodes it
// as JPEG, and stops the stream whether or not the grab succeeded.
func (c *CameraSource) Acquire(ctx context.Context) (imagedata.Image, error) {
	c.mu.Lock()
	stream := c.stream
	c.stream = nil
	c.mu.Unlock()

	if stream == nil {
		return imagedata.Image{}, services.Wrap(services.ErrValidation, "capture", "capture frame", "camera is not started", nil)
	}
	defer stream.Stop() //nolint:errcheck

	frame, err := stream.Frame(ctx)
	if err != nil {
		return imagedata.Image{}, fmt.Errorf("grab frame: %w", err)
	}
	bounds := frame.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(canvas, canvas.Bounds(), frame, bounds.Min, draw.Src)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: 92}); err != nil {
		return imagedata.Image{}, fmt.Errorf("encode frame: %w", err)
	}
	return imagedata.Encode(imagedata.MIMEJPEG, buf.Bytes())
}

// Stop releases any active stream.
func (c *CameraSource) Stop() error {
	c.mu.Lock()
	stream := c.stream
	c.stream = nil
	c.mu.Unlock()
	if stream == nil {
		return nil
	}
	return stream.Stop()
}
