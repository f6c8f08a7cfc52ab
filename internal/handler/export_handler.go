package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ccmr-api/internal/service"
	appErrors "github.com/noah-isme/ccmr-api/pkg/errors"
	"github.com/noah-isme/ccmr-api/pkg/response"
)

type exportService interface {
	StudentHistory(ctx context.Context, studentID string, format service.ExportFormat) (*service.ExportResult, error)
}

// ExportHandler streams a student's aggregated record history as a file.
type ExportHandler struct {
	service exportService
}

// NewExportHandler constructs the export handler.
func NewExportHandler(service exportService) *ExportHandler {
	return &ExportHandler{service: service}
}

// StudentHistory renders the student's records across all three offices in
// the requested format.
func (h *ExportHandler) StudentHistory(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "export service not configured"))
		return
	}
	if claimsFromContext(c) == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	format := service.ExportFormat(c.DefaultQuery("format", string(service.ExportCSV)))
	result, err := h.service.StudentHistory(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Content)
}
