package relay

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"gifrelay/internal/animation"
	"gifrelay/internal/imagedata"
	"gifrelay/internal/logging"
	"gifrelay/internal/services"
)

func (s *Server) handleGenerate(c *gin.Context) {
	log := logging.WithContext(c.Request.Context(), s.logger)

	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeBindError(c, err)
		return
	}

	img, err := imagedata.Parse(req.ImageData)
	if err != nil {
		log.Info("image rejected", logging.Error(err))
		body := errInvalidFormat
		if errors.Is(err, imagedata.ErrMissing) {
			body = errMissingInput
		}
		c.JSON(services.HTTPStatus(err), body)
		return
	}

	outcome := s.generator.Generate(c.Request.Context(), img)
	if outcome.Kind == animation.OutcomeSuccess {
		s.writeGenerated(c, log, outcome)
		return
	}

	err = outcome.Err
	switch {
	case outcome.Kind == animation.OutcomeTimeout && !services.IsTimeout(err):
		err = services.Wrap(services.ErrTimeout, "relay", "generate", "upstream deadline", err)
	case err == nil:
		err = services.Wrap(services.ErrExternalTool, "relay", "generate", "unknown upstream failure", nil)
	}
	if services.HTTPStatus(err) == http.StatusGatewayTimeout {
		log.Warn("gif generation timed out", logging.Error(err))
		c.JSON(http.StatusGatewayTimeout, errUpstreamTimeout)
		return
	}
	log.Error("gif generation failed", logging.Error(err))
	c.JSON(http.StatusInternalServerError, upstreamFailure(err.Error()))
}

// writeGenerated answers with the upstream URL, or stores returned media as an
// artifact and answers with its public URL.
func (s *Server) writeGenerated(c *gin.Context, log *slog.Logger, outcome animation.Outcome) {
	url := outcome.URL
	if url == "" {
		name, err := s.store.Save(outcome.Media, outcome.ContentType)
		if err != nil {
			log.Error("artifact write failed", logging.Error(err))
			c.JSON(http.StatusInternalServerError, upstreamFailure(err.Error()))
			return
		}
		url = s.publicBase(c) + artifactsPath + "/" + name
	}
	log.Info("gif generated", logging.GifURL(url), logging.Bool("artifact", outcome.URL == ""))
	c.JSON(http.StatusOK, GenerateResponse{GifURL: url, Status: statusSuccess, Message: messageGenerated})
}

func (s *Server) writeBindError(c *gin.Context, err error) {
	var maxBytes *http.MaxBytesError
	var validationErrs validator.ValidationErrors
	switch {
	case errors.As(err, &maxBytes):
		c.JSON(http.StatusRequestEntityTooLarge, bodyTooLarge(maxBytes.Limit))
	case errors.As(err, &validationErrs), errors.Is(err, io.EOF):
		c.JSON(http.StatusBadRequest, errMissingInput)
	default:
		resp := errInvalidFormat
		resp.Details = "Request body is not valid JSON: " + err.Error()
		c.JSON(http.StatusBadRequest, resp)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleArtifact serves generated media by name. Only files the store wrote
// are reachable.
func (s *Server) handleArtifact(c *gin.Context) {
	name := c.Param("name")
	if name != filepath.Base(name) || !strings.HasPrefix(name, "generated-") {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
		return
	}
	c.File(filepath.Join(s.store.Dir(), name))
}

// publicBase returns the absolute origin artifact URLs are built on.
func (s *Server) publicBase(c *gin.Context) string {
	if s.publicURL != "" {
		return s.publicURL
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := strings.TrimSpace(c.GetHeader("X-Forwarded-Proto")); proto != "" {
		scheme = strings.ToLower(strings.Split(proto, ",")[0])
	}
	return fmt.Sprintf("%s://%s", scheme, c.Request.Host)
}

func formatBytes(n int64) string {
	const mib = 1 << 20
	if n >= mib && n%mib == 0 {
		return fmt.Sprintf("%d MiB", n/mib)
	}
	return fmt.Sprintf("%d bytes", n)
}
