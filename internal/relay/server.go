package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"gifrelay/internal/animation"
	"gifrelay/internal/artifact"
	"gifrelay/internal/config"
	"gifrelay/internal/imagedata"
	"gifrelay/internal/logging"
)

const (
	generatePath  = "/api/generate-gif"
	healthPath    = "/api/health"
	artifactsPath = "/artifacts"
)

// Generator turns a face image into an animation outcome.
type Generator interface {
	Generate(ctx context.Context, img imagedata.Image) animation.Outcome
}

// Server is the HTTP relay between the capture UI and the animation API.
type Server struct {
	bind      string
	publicURL string
	logger    *slog.Logger
	generator Generator
	store     *artifact.Store
	engine    *gin.Engine

	listener net.Listener
	server   *http.Server
}

// New wires the gin engine and routes. cfg is read once and never mutated.
func New(cfg *config.Config, store *artifact.Store, generator Generator, logger *slog.Logger) (*Server, error) {
	if cfg == nil || store == nil || generator == nil {
		return nil, errors.New("relay: config, artifact store, and generator are required")
	}
	logger = logging.NewComponentLogger(logger, "relay")

	srv := &Server{
		bind:      strings.TrimSpace(cfg.Server.Bind),
		publicURL: strings.TrimRight(strings.TrimSpace(cfg.Server.PublicURL), "/"),
		logger:    logger,
		generator: generator,
		store:     store,
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestIDMiddleware())
	engine.Use(accessLogMiddleware(logger))
	engine.Use(corsMiddleware(cfg.Server.CORSOrigin))

	engine.POST(generatePath, bodyLimitMiddleware(cfg.Server.MaxBodyBytes), srv.handleGenerate)
	engine.GET(healthPath, srv.handleHealth)
	engine.GET(artifactsPath+"/:name", srv.handleArtifact)
	engine.HEAD(artifactsPath+"/:name", srv.handleArtifact)
	srv.engine = engine

	// The write deadline has to outlive the upstream call so a 504 can still be sent.
	writeTimeout := cfg.UpstreamTimeout() + 30*time.Second
	srv.server = &http.Server{
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start listens on the configured bind address and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	if s.bind == "" {
		return errors.New("relay: bind address is empty")
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("relay listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("relay server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("relay listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Stop shuts the server down, waiting briefly for in-flight requests.
func (s *Server) Stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
}

// Addr reports the bound listener address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}
