// Package server exposes the extraction pipeline and the invoice store over
// HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/playerMars/final-ocr/internal/common"
	"github.com/playerMars/final-ocr/internal/core"
	"github.com/playerMars/final-ocr/internal/entity"
	"github.com/playerMars/final-ocr/internal/export"
	"github.com/playerMars/final-ocr/internal/repository"
)

const (
	maxTextLen    = 1 << 20
	pingTimeout   = 2 * time.Second
	shutdownGrace = 10 * time.Second
)

// Pipeline is the part of core.Processor the handlers need.
type Pipeline interface {
	ProcessFile(ctx context.Context, file entity.SourceFile) (*core.ProcessResult, error)
	ProcessText(ctx context.Context, name, text string) (*core.ProcessResult, error)
}

var _ Pipeline = (*core.Processor)(nil)

// Deps are the collaborators of a Server. Only Pipeline is required; the
// store-backed routes answer 503 when their repository is nil.
type Deps struct {
	Pipeline Pipeline
	DB       *repository.DB
	Invoices repository.InvoiceRepository
	Jobs     repository.ExtractJobRepository
	Exports  *export.Service
}

type Server struct {
	deps   Deps
	cfg    common.ServerConfig
	logger *slog.Logger
	router *gin.Engine
}

func New(deps Deps, cfg common.ServerConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 20 << 20
	}
	s := &Server{deps: deps, cfg: cfg, logger: logger}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestContext())
	r.MaxMultipartMemory = 32 << 20

	r.GET("/healthz", s.handleHealth)

	api := r.Group("/api/v1")
	api.POST("/parse", s.handleParse)
	api.POST("/extract", s.handleExtract)
	api.GET("/invoices", s.handleListInvoices)
	api.GET("/invoices/:id", s.handleGetInvoice)
	api.GET("/jobs/:id", s.handleGetJob)
	api.GET("/export.xlsx", s.handleExportXLSX)
	api.GET("/export/:format", s.handleExport)
	return r
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves on cfg.HTTPAddr until ctx is done, then drains in-flight
// requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http.listen", "addr", s.cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("http.shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// requestContext tags each request with an ID and logs it once served.
func (s *Server) requestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-ID", id)
		c.Request = c.Request.WithContext(common.WithRequestID(c.Request.Context(), id))

		start := time.Now()
		c.Next()

		s.logger.Info("http.request",
			"request_id", id,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func (s *Server) respondError(c *gin.Context, err error) {
	status := common.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("http.request.failed", "request_id", common.RequestIDFromContext(c.Request.Context()), "err", err)
	}
	body := gin.H{"error": err.Error()}
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		body["code"] = appErr.Code
	}
	c.JSON(status, body)
}

func storeDisabled(c *gin.Context) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": "invoice store is not configured"})
}

func (s *Server) handleHealth(c *gin.Context) {
	if s.deps.DB != nil {
		if err := PingDB(c.Request.Context(), s.deps.DB, s.logger, pingTimeout); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
