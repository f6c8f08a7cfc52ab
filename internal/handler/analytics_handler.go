package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ccmr-api/internal/service"
	appErrors "github.com/noah-isme/ccmr-api/pkg/errors"
	"github.com/noah-isme/ccmr-api/pkg/response"
)

// AnalyticsHandler exposes the office dashboard counters. The bodies are the
// bare summary objects the legacy dashboards consume, no envelope.
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
}

// NewAnalyticsHandler constructs the analytics handler.
func NewAnalyticsHandler(analytics *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// OPD returns the discipline office summary.
func (h *AnalyticsHandler) OPD(c *gin.Context) {
	if h.analytics == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	summary, err := h.analytics.OPDSummary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, summary)
}

// GCO returns the guidance office summary.
func (h *AnalyticsHandler) GCO(c *gin.Context) {
	if h.analytics == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	summary, err := h.analytics.GCOSummary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, summary)
}

// INF returns the infirmary summary.
func (h *AnalyticsHandler) INF(c *gin.Context) {
	if h.analytics == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	summary, err := h.analytics.INFSummary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, summary)
}
