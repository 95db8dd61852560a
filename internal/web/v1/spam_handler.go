package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/duynhne/callerid-service/internal/core/domain"
	logicv1 "github.com/duynhne/callerid-service/internal/logic/v1"
	"github.com/duynhne/callerid-service/middleware"
)

// SpamReportHandler accepts and lists spam reports
type SpamReportHandler struct {
	service *logicv1.SpamService
}

// NewSpamReportHandler creates a new spam report handler
func NewSpamReportHandler(service *logicv1.SpamService) *SpamReportHandler {
	return &SpamReportHandler{service: service}
}

// Create handles POST /spam-reports
func (h *SpamReportHandler) Create(c *gin.Context) {
	span := startRequestSpan(c)
	defer span.End()
	logger := middleware.GetLoggerFromGinContext(c)

	var req domain.SpamReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": sanitizeValidationError(err)})
		return
	}

	report, err := h.service.Report(c.Request.Context(), middleware.AccountID(c), req.PhoneNumber)
	if err != nil {
		respondError(c, span, logger, "Failed to record spam report", err)
		return
	}

	logger.Info("Spam report recorded", zap.Int64("report_id", report.ID))
	c.JSON(http.StatusCreated, report)
}

// List handles GET /spam-reports and returns the caller's own reports
func (h *SpamReportHandler) List(c *gin.Context) {
	span := startRequestSpan(c)
	defer span.End()
	logger := middleware.GetLoggerFromGinContext(c)

	reports, err := h.service.ListReports(c.Request.Context(), middleware.AccountID(c))
	if err != nil {
		respondError(c, span, logger, "Failed to list spam reports", err)
		return
	}
	if reports == nil {
		reports = []domain.SpamReport{}
	}
	c.JSON(http.StatusOK, reports)
}
