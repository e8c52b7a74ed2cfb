package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// triggerPoll kicks one synchronous poll pass over all active accounts.
func (s *Server) triggerPoll(c echo.Context) error {
	s.logger.Info("server.manual_poll")
	s.poller.PollOnce(c.Request().Context())
	return c.JSON(http.StatusOK, echo.Map{"status": "completed"})
}

// listPurchaseOrders returns a tenant's orders, or only the review queue when
// reviewOnly=true.
func (s *Server) listPurchaseOrders(c echo.Context) error {
	tenant, err := tenantID(c)
	if err != nil {
		return err
	}
	reviewOnly, _ := strconv.ParseBool(c.QueryParam("reviewOnly"))

	orders, err := s.pos.ListPurchaseOrders(c.Request().Context(), tenant, reviewOnly)
	if err != nil {
		s.logger.Error("server.list_pos_failed", "tenant_id", tenant, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "list purchase orders")
	}
	return c.JSON(http.StatusOK, orders)
}

func (s *Server) getPurchaseOrder(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid purchase order ID")
	}
	po, err := s.pos.GetPurchaseOrder(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "purchase order not found")
	}
	return c.JSON(http.StatusOK, po)
}

func (s *Server) listLogs(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid purchase order ID")
	}
	logs, err := s.logs.ListProcessingLogs(c.Request().Context(), id)
	if err != nil {
		s.logger.Error("server.list_logs_failed", "po_id", id, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "list processing logs")
	}
	return c.JSON(http.StatusOK, logs)
}

// reprocess re-enters an order at vendor validation, with optional field
// corrections in the body. It serves both kicking off a pending order and
// retrying a failed one; only in-flight orders are rejected.
func (s *Server) reprocess(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid purchase order ID")
	}

	overrides := map[string]any{}
	if c.Request().ContentLength > 0 {
		if err := json.NewDecoder(c.Request().Body).Decode(&overrides); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid overrides body")
		}
	}

	po, err := s.orchestrator.Reprocess(c.Request().Context(), id, overrides)
	if err != nil {
		s.logger.Error("server.reprocess_failed", "po_id", id, "error", err)
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return c.JSON(http.StatusOK, po)
}

func (s *Server) exportXLSX(c echo.Context) error {
	tenant, err := tenantID(c)
	if err != nil {
		return err
	}
	from, err := parseDateParam(c.QueryParam("from"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid from date, want YYYY-MM-DD")
	}
	to, err := parseDateParam(c.QueryParam("to"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid to date, want YYYY-MM-DD")
	}

	data, err := s.exporter.ExportPurchaseOrdersXLSX(c.Request().Context(), tenant, from, to)
	if err != nil {
		s.logger.Error("server.export_failed", "tenant_id", tenant, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "export failed")
	}

	filename := "purchase-orders-" + time.Now().Format("20060102") + ".xlsx"
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Blob(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// testERP runs the connectivity self-test for one configured ERP system.
func (s *Server) testERP(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid ERP system ID")
	}
	sys, err := s.erps.GetERPSystem(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "ERP system not found")
	}
	adapter, err := s.registry.ForType(sys.Type)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	result := adapter.TestConnection(c.Request().Context(), sys)
	return c.JSON(http.StatusOK, result)
}

// testAI runs the connectivity self-test against the tenant's active LLM
// configuration.
func (s *Server) testAI(c echo.Context) error {
	tenant, err := tenantID(c)
	if err != nil {
		return err
	}
	aiCfg, err := s.ais.GetActiveAIConfiguration(c.Request().Context(), tenant)
	if err != nil {
		s.logger.Error("server.load_ai_config_failed", "tenant_id", tenant, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "load AI configuration")
	}
	if aiCfg == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no active AI configuration")
	}
	result := s.llmExtractor.TestConnection(c.Request().Context(), aiCfg)
	return c.JSON(http.StatusOK, result)
}

func parseDateParam(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
