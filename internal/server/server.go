// Package server exposes the operational HTTP surface: review queue, manual
// triggers, connectivity self-tests, and exports. Authentication is expected
// to terminate at a fronting proxy; handlers trust the tenant header.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/chavannishanthrao/AutoPOProcessor/internal/erp"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/export"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/llm"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/pipeline"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/poller"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/repository"
)

const tenantHeader = "X-Tenant-ID"

type Server struct {
	echo         *echo.Echo
	store        *repository.Store
	pos          repository.PurchaseOrderRepository
	logs         repository.ProcessingLogRepository
	erps         repository.ERPSystemRepository
	ais          repository.AIConfigurationRepository
	orchestrator *pipeline.Orchestrator
	poller       *poller.Poller
	registry     *erp.Registry
	llmExtractor *llm.Extractor
	exporter     *export.Service
	logger       *slog.Logger
}

type Deps struct {
	Store        *repository.Store
	Orchestrator *pipeline.Orchestrator
	Poller       *poller.Poller
	Registry     *erp.Registry
	LLMExtractor *llm.Extractor
	Exporter     *export.Service
	Logger       *slog.Logger
}

func New(d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	s := &Server{
		echo:         e,
		store:        d.Store,
		pos:          d.Store,
		logs:         d.Store,
		erps:         d.Store,
		ais:          d.Store,
		orchestrator: d.Orchestrator,
		poller:       d.Poller,
		registry:     d.Registry,
		llmExtractor: d.LLMExtractor,
		exporter:     d.Exporter,
		logger:       logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	e := s.echo
	e.GET("/healthz", s.healthz)

	api := e.Group("/api")
	api.POST("/poll", s.triggerPoll)
	api.GET("/purchase-orders", s.listPurchaseOrders)
	api.GET("/purchase-orders/:id", s.getPurchaseOrder)
	api.GET("/purchase-orders/:id/logs", s.listLogs)
	api.POST("/purchase-orders/:id/reprocess", s.reprocess)
	api.GET("/purchase-orders/export", s.exportXLSX)
	api.POST("/erp-systems/:id/test", s.testERP)
	api.POST("/ai-configurations/test", s.testAI)
}

// Start blocks until the listener fails or Shutdown is called.
func (s *Server) Start(addr string) error {
	s.logger.Info("server.start", "addr", addr)
	if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) healthz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "degraded", "error": err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// tenantID reads the tenant from the header, falling back to a query param
// for convenience in curl-driven operation.
func tenantID(c echo.Context) (uuid.UUID, error) {
	raw := c.Request().Header.Get(tenantHeader)
	if raw == "" {
		raw = c.QueryParam("tenantId")
	}
	if raw == "" {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "missing "+tenantHeader+" header")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid tenant ID")
	}
	return id, nil
}
