package webcam

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"os/exec"
	"strings"
	"sync"

	"gifrelay/internal/capture"
	"gifrelay/internal/services"
)

// ErrUnavailable reports a missing frame grabber binary or camera device.
var ErrUnavailable = errors.New("camera unavailable")

// FFmpegCamera grabs frames from a V4L2 device with ffmpeg.
type FFmpegCamera struct {
	Device string
	Binary string
}

// Open checks that ffmpeg and the device exist and returns a frame stream.
func (c FFmpegCamera) Open(ctx context.Context) (capture.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	binary := strings.TrimSpace(c.Binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	resolved, err := exec.LookPath(binary)
	if err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "webcam", "open", fmt.Sprintf("binary %q not found", binary), ErrUnavailable)
	}
	device := strings.TrimSpace(c.Device)
	if device == "" {
		return nil, services.Wrap(services.ErrUnavailable, "webcam", "open", "no camera device configured", ErrUnavailable)
	}
	if _, err := os.Stat(device); err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "webcam", "open", device, errors.Join(ErrUnavailable, err))
	}
	return &ffmpegStream{binary: resolved, device: device}, nil
}

type ffmpegStream struct {
	binary string
	device string

	mu      sync.Mutex
	stopped bool
}

// Frame runs a single-frame ffmpeg capture and decodes the MJPEG output.
func (s *ffmpegStream) Frame(ctx context.Context) (image.Image, error) {
	s.mu.Lock()
	stopped := s.stopped
	s.mu.Unlock()
	if stopped {
		return nil, services.Wrap(services.ErrValidation, "webcam", "frame", "stream stopped", nil)
	}

	cmd := exec.CommandContext(ctx, s.binary, frameArgs(s.device)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = "ffmpeg frame grab failed"
		}
		return nil, services.Wrap(services.ErrExternalTool, "webcam", "frame", detail, err)
	}
	img, err := jpeg.Decode(&stdout)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "webcam", "decode frame", "", err)
	}
	return img, nil
}

// Stop marks the stream closed. Each frame grab opens and releases the device,
// so nothing else is held between calls.
func (s *ffmpegStream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	return nil
}

func frameArgs(device string) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-f", "v4l2",
		"-i", device,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-",
	}
}
