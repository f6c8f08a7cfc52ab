package handler

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ccmr-api/internal/models"
	"github.com/noah-isme/ccmr-api/internal/service"
	appErrors "github.com/noah-isme/ccmr-api/pkg/errors"
	"github.com/noah-isme/ccmr-api/pkg/response"
)

type caseRecordService interface {
	List(ctx context.Context) ([]models.CaseRecord, error)
	ListReferred(ctx context.Context) ([]models.CaseRecord, error)
	Search(ctx context.Context, term string, referredOnly bool) ([]models.CaseRecord, error)
	GetByID(ctx context.Context, id int64) (*models.CaseRecord, error)
	ListByStudent(ctx context.Context, studentID string, referredOnly bool) ([]models.CaseRecord, error)
	Create(ctx context.Context, params service.CaseRecordParams, files []*multipart.FileHeader) (*service.CaseSaveResult, error)
	Update(ctx context.Context, id int64, params service.CaseRecordParams, files []*multipart.FileHeader, kept models.AttachmentList, deletions []string) (*service.CaseSaveResult, error)
	Attachments(ctx context.Context, id int64) (models.AttachmentList, error)
	DeleteAttachment(ctx context.Context, id int64, filename string) error
}

// CaseRecordHandler exposes the OPD disciplinary case record endpoints.
type CaseRecordHandler struct {
	service caseRecordService
	files   *service.AttachmentService
}

// NewCaseRecordHandler constructs the case record handler.
func NewCaseRecordHandler(service caseRecordService, files *service.AttachmentService) *CaseRecordHandler {
	return &CaseRecordHandler{service: service, files: files}
}

// List returns all case records, newest first.
func (h *CaseRecordHandler) List(c *gin.Context) {
	h.respondList(c, func(ctx context.Context) ([]models.CaseRecord, error) {
		return h.service.List(ctx)
	})
}

// ListReferred returns referred case records only.
func (h *CaseRecordHandler) ListReferred(c *gin.Context) {
	h.respondList(c, func(ctx context.Context) ([]models.CaseRecord, error) {
		return h.service.ListReferred(ctx)
	})
}

// Search matches a query against the legacy search columns.
func (h *CaseRecordHandler) Search(c *gin.Context) {
	h.search(c, false)
}

// SearchReferred searches referred case records only.
func (h *CaseRecordHandler) SearchReferred(c *gin.Context) {
	h.search(c, true)
}

func (h *CaseRecordHandler) search(c *gin.Context, referredOnly bool) {
	term := c.Query("query")
	if term == "" {
		response.JSON(c, http.StatusBadRequest, gin.H{"success": false, "error": "Search query is required"})
		return
	}
	h.respondList(c, func(ctx context.Context) ([]models.CaseRecord, error) {
		return h.service.Search(ctx, term, referredOnly)
	})
}

// Get returns one case record with its attachment metadata.
func (h *CaseRecordHandler) Get(c *gin.Context) {
	id, err := recordID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	record, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"success": true, "record": record})
}

// ListByStudent returns a student's case history.
func (h *CaseRecordHandler) ListByStudent(c *gin.Context) {
	studentID := c.Param("studentId")
	h.respondList(c, func(ctx context.Context) ([]models.CaseRecord, error) {
		return h.service.ListByStudent(ctx, studentID, false)
	})
}

// Create stores a new case record from a multipart form.
func (h *CaseRecordHandler) Create(c *gin.Context) {
	result, err := h.service.Create(c.Request.Context(), caseParamsFromForm(c), formFiles(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{
		"success":      true,
		"message":      "Case record added successfully",
		"caseId":       result.CaseID,
		"affectedRows": result.AffectedRows,
		"fileCount":    result.FileCount,
	})
}

// Update overwrites a case record from a multipart form.
func (h *CaseRecordHandler) Update(c *gin.Context) {
	id, err := recordID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	kept, deletions, err := keptAttachments(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.Update(c.Request.Context(), id, caseParamsFromForm(c), formFiles(c), kept, deletions)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{
		"success":      true,
		"message":      "Case record updated successfully",
		"caseId":       result.CaseID,
		"affectedRows": result.AffectedRows,
		"fileCount":    result.FileCount,
	})
}

// DownloadFile streams one attachment as a download.
func (h *CaseRecordHandler) DownloadFile(c *gin.Context) {
	id, err := recordID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	attachments, err := h.service.Attachments(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	serveAttachment(c, attachments, c.Param("filename"), func(relPath string) (io.ReadCloser, error) {
		return h.files.Open(relPath)
	})
}

// DeleteFile removes one attachment from the record and from disk.
func (h *CaseRecordHandler) DeleteFile(c *gin.Context) {
	id, err := recordID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.DeleteAttachment(c.Request.Context(), id, c.Param("filename")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"success": true, "message": "File deleted successfully"})
}

func (h *CaseRecordHandler) respondList(c *gin.Context, list func(ctx context.Context) ([]models.CaseRecord, error)) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "case record service not configured"))
		return
	}
	records, err := list(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	if records == nil {
		records = []models.CaseRecord{}
	}
	response.OK(c, gin.H{"success": true, "records": records, "count": len(records)})
}

func caseParamsFromForm(c *gin.Context) service.CaseRecordParams {
	return service.CaseRecordParams{
		StudentID:          c.PostForm("studentId"),
		StudentName:        c.PostForm("studentName"),
		Strand:             c.PostForm("strand"),
		GradeLevel:         c.PostForm("gradeLevel"),
		Section:            c.PostForm("section"),
		SchoolYearSemester: optionalForm(c, "schoolYearSemester"),
		ViolationLevel:     models.ViolationLevel(c.PostForm("violationLevel")),
		Status:             c.PostForm("status"),
		Description:        c.PostForm("description"),
		Remarks:            c.PostForm("remarks"),
		ReferredToGCO:      c.PostForm("referredToGCO"),
	}
}
