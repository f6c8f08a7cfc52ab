package handler

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ccmr-api/internal/models"
	"github.com/noah-isme/ccmr-api/internal/service"
	appErrors "github.com/noah-isme/ccmr-api/pkg/errors"
	"github.com/noah-isme/ccmr-api/pkg/response"
)

type counselingRecordService interface {
	List(ctx context.Context, status models.CounselingStatus) ([]models.CounselingRecord, error)
	Search(ctx context.Context, term string) ([]models.CounselingRecord, error)
	GetByID(ctx context.Context, id int64) (*models.CounselingRecord, error)
	ListByStudent(ctx context.Context, studentID string, psychOnly bool) ([]models.CounselingRecord, error)
	ListPsychological(ctx context.Context) ([]models.CounselingRecord, error)
	Create(ctx context.Context, params service.CounselingRecordParams, files []*multipart.FileHeader) (int64, error)
	Update(ctx context.Context, id int64, params service.CounselingRecordParams, files []*multipart.FileHeader, kept models.AttachmentList, deletions []string) error
	Attachments(ctx context.Context, id int64) (models.AttachmentList, error)
	DeleteAttachment(ctx context.Context, id int64, filename string) error
}

// CounselingRecordHandler exposes the guidance counseling record endpoints.
type CounselingRecordHandler struct {
	service counselingRecordService
	files   *service.AttachmentService
}

// NewCounselingRecordHandler constructs the counseling record handler.
func NewCounselingRecordHandler(service counselingRecordService, files *service.AttachmentService) *CounselingRecordHandler {
	return &CounselingRecordHandler{service: service, files: files}
}

// List returns counseling records, optionally narrowed by status.
func (h *CounselingRecordHandler) List(c *gin.Context) {
	h.respondList(c, func(ctx context.Context) ([]models.CounselingRecord, error) {
		return h.service.List(ctx, models.CounselingStatus(c.Query("status")))
	})
}

// ListPsychological returns the infirmary view of counseling records.
func (h *CounselingRecordHandler) ListPsychological(c *gin.Context) {
	h.respondList(c, func(ctx context.Context) ([]models.CounselingRecord, error) {
		return h.service.ListPsychological(ctx)
	})
}

// Search matches a query against the legacy search columns.
func (h *CounselingRecordHandler) Search(c *gin.Context) {
	term := c.Query("query")
	if term == "" {
		response.JSON(c, http.StatusBadRequest, gin.H{"success": false, "error": "Search query is required"})
		return
	}
	h.respondList(c, func(ctx context.Context) ([]models.CounselingRecord, error) {
		return h.service.Search(ctx, term)
	})
}

// Get returns one counseling record with edit-form date formatting.
func (h *CounselingRecordHandler) Get(c *gin.Context) {
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

// ListByStudent returns a student's counseling history.
func (h *CounselingRecordHandler) ListByStudent(c *gin.Context) {
	studentID := c.Param("studentId")
	psychOnly := c.Query("psychological") == "true"
	h.respondList(c, func(ctx context.Context) ([]models.CounselingRecord, error) {
		return h.service.ListByStudent(ctx, studentID, psychOnly)
	})
}

// Create stores a new walk-in counseling record from a multipart form.
func (h *CounselingRecordHandler) Create(c *gin.Context) {
	id, err := h.service.Create(c.Request.Context(), counselingParamsFromForm(c), formFiles(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{
		"success":  true,
		"message":  "Counseling record added successfully",
		"recordId": id,
	})
}

// Update overwrites a counseling record from a multipart form.
func (h *CounselingRecordHandler) Update(c *gin.Context) {
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
	if err := h.service.Update(c.Request.Context(), id, counselingParamsFromForm(c), formFiles(c), kept, deletions); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{
		"success": true,
		"message": "Counseling record updated successfully",
	})
}

// DownloadFile streams one attachment as a download.
func (h *CounselingRecordHandler) DownloadFile(c *gin.Context) {
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
func (h *CounselingRecordHandler) DeleteFile(c *gin.Context) {
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

func (h *CounselingRecordHandler) respondList(c *gin.Context, list func(ctx context.Context) ([]models.CounselingRecord, error)) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "counseling record service not configured"))
		return
	}
	records, err := list(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	if records == nil {
		records = []models.CounselingRecord{}
	}
	response.OK(c, gin.H{"success": true, "records": records, "count": len(records)})
}

func counselingParamsFromForm(c *gin.Context) service.CounselingRecordParams {
	sessionNumber, _ := strconv.Atoi(c.PostForm("sessionNumber"))
	return service.CounselingRecordParams{
		StudentID:          c.PostForm("studentId"),
		StudentName:        c.PostForm("studentName"),
		Strand:             c.PostForm("strand"),
		GradeLevel:         c.PostForm("gradeLevel"),
		Section:            c.PostForm("section"),
		SchoolYearSemester: optionalForm(c, "schoolYearSemester"),
		SessionNumber:      sessionNumber,
		Status:             models.CounselingStatus(c.PostForm("status")),
		Date:               optionalForm(c, "date"),
		Time:               optionalForm(c, "time"),
		Concern:            c.PostForm("concern"),
		Remarks:            c.PostForm("remarks"),
		PsychCondition:     models.PsychCondition(c.PostForm("psychologicalCondition")),
	}
}
