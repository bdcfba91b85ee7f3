// Package server exposes the analysis pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spigell/resume-scorer/internal/logger"
	"github.com/spigell/resume-scorer/internal/pipeline"
	"github.com/spigell/resume-scorer/internal/utils"
)

const (
	// FormField is the multipart field carrying the uploaded document.
	FormField = "resume"
	// HeaderCategory carries the failure category of an unsuccessful analysis.
	HeaderCategory = "X-Analysis-Category"

	msgTooLarge = "File is too large"

	defaultShutdownTimeout = 10 * time.Second
)

// Analyzer runs one document through the pipeline.
type Analyzer interface {
	Analyze(ctx context.Context, doc *pipeline.Document) (*pipeline.Result, error)
}

type Config struct {
	Listen          string        `mapstructure:"listen" validate:"required"`
	ResponseDelay   time.Duration `mapstructure:"response-delay" validate:"gte=0"`
	MaxUploadBytes  int64         `mapstructure:"max-upload-bytes" validate:"gt=0"`
	AllowedOrigins  []string      `mapstructure:"allowed-origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown-timeout" validate:"gte=0"`
}

type Server struct {
	cfg      Config
	analyzer Analyzer
	logger   *zap.Logger
	engine   *gin.Engine
}

func New(cfg Config, analyzer Analyzer, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}

	s := &Server{
		cfg:      cfg,
		analyzer: analyzer,
		logger:   log,
		engine:   gin.New(),
	}

	s.engine.Use(
		requestID(),
		accessLog(log),
		recovery(log),
		cors(cfg.AllowedOrigins),
	)

	s.engine.GET("/", s.index)
	s.engine.GET("/healthz", s.health)
	s.engine.POST("/api/analyze", s.analyze)

	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run listens on the configured address until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Listen, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully waiting for in-flight requests.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server is listening", zap.String("address", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}

	s.logger.Info("shutting down the server", zap.Duration("timeout", timeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return <-errCh
}

func (s *Server) index(c *gin.Context) {
	c.String(http.StatusOK, "Server is running")
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) analyze(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.WithFields(s.logger, zap.String(logger.FieldRequestID, RequestID(c)))

	if s.cfg.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes)
	}

	doc, err := readDocument(c)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			log.Warn("upload rejected", zap.Int64("limit_bytes", tooLarge.Limit))
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": msgTooLarge})
			return
		}
		// Anything else means there is no usable upload; the pipeline
		// reports it as such.
		log.Debug("no document in request", zap.Error(err))
		doc = nil
	}

	res, err := s.analyzer.Analyze(ctx, doc)
	if err != nil {
		if ctx.Err() != nil {
			log.Info("request cancelled during analysis", zap.Error(err))
			c.Abort()
			return
		}
		category := pipeline.CategoryOf(err)
		if category != "" {
			c.Header(HeaderCategory, string(category))
		}
		c.JSON(StatusFor(category), gin.H{"error": pipeline.MessageOf(err)})
		return
	}

	// Only successful answers are delayed.
	if waitErr := utils.WaitFor(ctx, s.cfg.ResponseDelay); waitErr != nil {
		log.Info("client went away before the response was sent", zap.Error(waitErr))
		c.Abort()
		return
	}

	c.JSON(http.StatusOK, res)
}

func readDocument(c *gin.Context) (*pipeline.Document, error) {
	header, err := c.FormFile(FormField)
	if err != nil {
		return nil, err
	}

	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}

	return &pipeline.Document{
		Content:   data,
		MediaType: header.Header.Get("Content-Type"),
		Filename:  header.Filename,
	}, nil
}

// StatusFor maps a failure category to the HTTP status returned to clients.
// Failures caused by the upload are client errors; the rest are server errors.
func StatusFor(category pipeline.Category) int {
	switch category {
	case pipeline.CategoryNoFileProvided,
		pipeline.CategoryUnsupportedLegacyFormat,
		pipeline.CategoryEmptyOrUnreadableDocument,
		pipeline.CategoryExtractionError,
		pipeline.CategoryEmptyExtraction,
		pipeline.CategoryNotResumeLike:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
