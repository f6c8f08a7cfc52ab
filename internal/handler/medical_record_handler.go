package handler

import (
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ccmr-api/internal/models"
	"github.com/noah-isme/ccmr-api/internal/service"
	appErrors "github.com/noah-isme/ccmr-api/pkg/errors"
	"github.com/noah-isme/ccmr-api/pkg/response"
)

type medicalRecordService interface {
	List(ctx context.Context, filter models.MedicalClassFilter) ([]models.MedicalRecord, error)
	ListReferred(ctx context.Context, filter models.MedicalClassFilter) ([]models.MedicalRecord, error)
	Search(ctx context.Context, term string, referredOnly bool, filter models.MedicalClassFilter) ([]models.MedicalRecord, error)
	GetByID(ctx context.Context, id int64) (*models.MedicalRecord, error)
	ListByStudent(ctx context.Context, studentID string, filter models.MedicalClassFilter) ([]models.MedicalRecord, error)
	Create(ctx context.Context, params service.MedicalRecordParams, files []*multipart.FileHeader, classifications []service.FileClassification) (*service.MedicalSaveResult, error)
	Update(ctx context.Context, id int64, params service.MedicalRecordParams, files []*multipart.FileHeader, classifications []service.FileClassification, kept models.AttachmentList, deletions []string) (*service.MedicalSaveResult, error)
	Attachments(ctx context.Context, id int64) (models.AttachmentList, error)
	DeleteAttachment(ctx context.Context, id int64, filename string) error
}

// MedicalRecordHandler exposes the infirmary medical record endpoints.
type MedicalRecordHandler struct {
	service medicalRecordService
	files   *service.AttachmentService
}

// NewMedicalRecordHandler constructs the medical record handler.
func NewMedicalRecordHandler(service medicalRecordService, files *service.AttachmentService) *MedicalRecordHandler {
	return &MedicalRecordHandler{service: service, files: files}
}

// List returns medical records narrowed by the classification filter.
func (h *MedicalRecordHandler) List(c *gin.Context) {
	h.respondList(c, func(ctx context.Context) ([]models.MedicalRecord, error) {
		return h.service.List(ctx, classFilter(c))
	})
}

// ListReferred returns referred medical records only.
func (h *MedicalRecordHandler) ListReferred(c *gin.Context) {
	h.respondList(c, func(ctx context.Context) ([]models.MedicalRecord, error) {
		return h.service.ListReferred(ctx, classFilter(c))
	})
}

// Search matches a query against the legacy search columns.
func (h *MedicalRecordHandler) Search(c *gin.Context) {
	h.search(c, false)
}

// SearchReferred searches referred medical records only.
func (h *MedicalRecordHandler) SearchReferred(c *gin.Context) {
	h.search(c, true)
}

func (h *MedicalRecordHandler) search(c *gin.Context, referredOnly bool) {
	term := c.Query("query")
	if term == "" {
		response.JSON(c, http.StatusBadRequest, gin.H{"success": false, "error": "Search query is required"})
		return
	}
	h.respondList(c, func(ctx context.Context) ([]models.MedicalRecord, error) {
		return h.service.Search(ctx, term, referredOnly, classFilter(c))
	})
}

// Get returns one medical record with its attachment metadata.
func (h *MedicalRecordHandler) Get(c *gin.Context) {
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

// ListByStudent returns a student's medical history.
func (h *MedicalRecordHandler) ListByStudent(c *gin.Context) {
	studentID := c.Param("studentId")
	h.respondList(c, func(ctx context.Context) ([]models.MedicalRecord, error) {
		return h.service.ListByStudent(ctx, studentID, classFilter(c))
	})
}

// Create stores a new medical record from a multipart form.
func (h *MedicalRecordHandler) Create(c *gin.Context) {
	result, err := h.service.Create(c.Request.Context(), medicalParamsFromForm(c), formFiles(c), fileClassifications(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{
		"success":      true,
		"message":      "Medical record added successfully",
		"recordId":     result.RecordID,
		"affectedRows": result.AffectedRows,
		"fileCount":    result.FileCount,
	})
}

// Update overwrites a medical record from a multipart form.
func (h *MedicalRecordHandler) Update(c *gin.Context) {
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
	result, err := h.service.Update(c.Request.Context(), id, medicalParamsFromForm(c), formFiles(c), fileClassifications(c), kept, deletions)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{
		"success":      true,
		"message":      "Medical record updated successfully",
		"recordId":     result.RecordID,
		"affectedRows": result.AffectedRows,
		"fileCount":    result.FileCount,
	})
}

// DownloadFile streams one attachment as a download.
func (h *MedicalRecordHandler) DownloadFile(c *gin.Context) {
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
func (h *MedicalRecordHandler) DeleteFile(c *gin.Context) {
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

func (h *MedicalRecordHandler) respondList(c *gin.Context, list func(ctx context.Context) ([]models.MedicalRecord, error)) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "medical record service not configured"))
		return
	}
	records, err := list(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	if records == nil {
		records = []models.MedicalRecord{}
	}
	response.OK(c, gin.H{"success": true, "records": records, "count": len(records)})
}

// classFilter reads the classification filter, defaulting to ALL.
func classFilter(c *gin.Context) models.MedicalClassFilter {
	raw := c.Query("filter")
	if raw == "" {
		return models.FilterAll
	}
	return models.MedicalClassFilter(raw)
}

// fileClassifications parses the fileClassifications form field. The legacy
// front end sends a single field holding a JSON array; repeated fields each
// carrying one JSON object are accepted too. A value that fails to parse is
// skipped the way the legacy API skipped it.
func fileClassifications(c *gin.Context) []service.FileClassification {
	values := c.PostFormArray("fileClassifications")
	classifications := make([]service.FileClassification, 0, len(values))
	for _, value := range values {
		var batch []service.FileClassification
		if err := json.Unmarshal([]byte(value), &batch); err == nil {
			classifications = append(classifications, batch...)
			continue
		}
		var classification service.FileClassification
		if err := json.Unmarshal([]byte(value), &classification); err != nil {
			continue
		}
		classifications = append(classifications, classification)
	}
	return classifications
}

func medicalParamsFromForm(c *gin.Context) service.MedicalRecordParams {
	return service.MedicalRecordParams{
		StudentID:          c.PostForm("studentId"),
		StudentName:        c.PostForm("studentName"),
		Strand:             c.PostForm("strand"),
		GradeLevel:         c.PostForm("gradeLevel"),
		Section:            c.PostForm("section"),
		SchoolYearSemester: optionalForm(c, "schoolYearSemester"),
		Subject:            c.PostForm("subject"),
		Status:             c.PostForm("status"),
		MedicalDetails:     c.PostForm("medicalDetails"),
		Remarks:            c.PostForm("remarks"),
		ReferredToGCO:      c.PostForm("referredToGCO"),
		IsPsychological:    models.YesNo(c.PostForm("isPsychological")),
		IsMedical:          models.YesNo(c.PostForm("isMedical")),
	}
}
