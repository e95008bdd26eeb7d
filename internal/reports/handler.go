package reports

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"game-reports/report-desk/internal/notifications/websocket"
	"game-reports/report-desk/internal/reports/export"
)

const reportTitle = "Game Sales"

// Handler handles HTTP requests for the sales report
type Handler struct {
	controller *Controller
	service    *Service
	exporter   *export.Exporter
	sockets    *websocket.Manager
	logger     *zap.Logger
}

// NewHandler creates a new reports handler. sockets may be nil.
func NewHandler(controller *Controller, service *Service, exporter *export.Exporter, sockets *websocket.Manager, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		controller: controller,
		service:    service,
		exporter:   exporter,
		sockets:    sockets,
		logger:     logger,
	}
}

// RegisterRoutes registers reporting routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	report := router.Group("/report")
	{
		report.GET("", h.getReport)
		report.GET("/categories", h.getCategories)
		report.GET("/export/:format", h.exportReport)
		if h.sockets != nil {
			report.GET("/ws/notifications", h.streamNotifications)
		}
	}
}

// ReportResponse is the JSON shape of one applied filter
type ReportResponse struct {
	*Report
	SummaryText string `json:"summary_text"`
}

// =====================================================
// Report Endpoints
// =====================================================

// getReport handles GET /api/v1/report?search=&category=
func (h *Handler) getReport(c *gin.Context) {
	var criteria Criteria
	if err := c.ShouldBindQuery(&criteria); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.controller.ApplyFilters(c.Request.Context(), criteria.SearchText, criteria.Category)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, ReportResponse{Report: report, SummaryText: report.Summary.Text()})
}

// getCategories handles GET /api/v1/report/categories
func (h *Handler) getCategories(c *gin.Context) {
	options, err := h.service.CategoryOptions(c.Request.Context())
	if err != nil {
		h.logger.Warn("Serving categories without lookup", zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"categories": options})
}

// exportReport handles GET /api/v1/report/export/:format
func (h *Handler) exportReport(c *gin.Context) {
	format, err := export.ParseFormat(c.Param("format"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var criteria Criteria
	if err := c.ShouldBindQuery(&criteria); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.controller.ApplyFilters(c.Request.Context(), criteria.SearchText, criteria.Category)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	filename := fmt.Sprintf("game-sales-%s%s", time.Now().Format("20060102-150405"), format.Extension())
	c.Header("Content-Type", format.ContentType())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)

	if err := h.exporter.Render(c.Writer, format, ToDocument(report, reportTitle)); err != nil {
		h.logger.Error("Failed to stream export",
			zap.String("format", string(format)),
			zap.Error(err))
		_ = c.Error(err)
	}
}

// streamNotifications handles GET /api/v1/report/ws/notifications
func (h *Handler) streamNotifications(c *gin.Context) {
	conn, err := h.sockets.HandleConnection(c.Writer, c.Request)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	h.logger.Debug("Notification client connected", zap.String("connection_id", conn.ID))
}

func statusFor(err error) int {
	if errors.Is(err, ErrAggregation) || errors.Is(err, ErrChartShape) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
