package service

import (
	"context"
	"database/sql"
	"errors"
	"mime/multipart"

	"go.uber.org/zap"

	"github.com/noah-isme/ccmr-api/internal/models"
	appErrors "github.com/noah-isme/ccmr-api/pkg/errors"
)

const counselingUploadKind = "counseling-records"

type counselingRecordStore interface {
	List(ctx context.Context, status models.CounselingStatus) ([]models.CounselingRecord, error)
	Search(ctx context.Context, pattern string) ([]models.CounselingRecord, error)
	GetByID(ctx context.Context, id int64) (*models.CounselingRecord, error)
	ListByStudent(ctx context.Context, studentID string, psychOnly bool) ([]models.CounselingRecord, error)
	ListPsychological(ctx context.Context) ([]models.CounselingRecord, error)
	Create(ctx context.Context, input models.CounselingRecordInput) (int64, error)
	Update(ctx context.Context, id int64, input models.CounselingRecordInput) error
	GetAttachments(ctx context.Context, id int64) (models.AttachmentList, error)
	UpdateAttachments(ctx context.Context, id int64, attachments models.AttachmentList) error
}

// CounselingRecordParams carries the form fields of a counseling record
// save. Origin references apply on create only.
type CounselingRecordParams struct {
	OriginMedicalID    *int64
	OriginCaseID       *int64
	StudentID          string
	StudentName        string
	Strand             string
	GradeLevel         string
	Section            string
	SchoolYearSemester *string
	SessionNumber      int
	Status             models.CounselingStatus
	Date               *string
	Time               *string
	Concern            string
	Remarks            string
	PsychCondition     models.PsychCondition
}

// CounselingRecordService owns guidance session records, both walk-in and
// referral-derived.
type CounselingRecordService struct {
	repo        counselingRecordStore
	attachments *AttachmentService
	logger      *zap.Logger
}

// NewCounselingRecordService constructs the counseling record service.
func NewCounselingRecordService(repo counselingRecordStore, attachments *AttachmentService, logger *zap.Logger) *CounselingRecordService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CounselingRecordService{repo: repo, attachments: attachments, logger: logger}
}

// List returns counseling records, optionally narrowed to one status.
func (s *CounselingRecordService) List(ctx context.Context, status models.CounselingStatus) ([]models.CounselingRecord, error) {
	records, err := s.repo.List(ctx, status)
	if err != nil {
		return nil, appErrors.Wrap(err, "COUNSELING_RECORDS_FAILED", 500, "failed to fetch counseling records")
	}
	return records, nil
}

// Search matches a term against the legacy search columns.
func (s *CounselingRecordService) Search(ctx context.Context, term string) ([]models.CounselingRecord, error) {
	records, err := s.repo.Search(ctx, "%"+term+"%")
	if err != nil {
		return nil, appErrors.Wrap(err, "COUNSELING_RECORDS_FAILED", 500, "failed to search counseling records")
	}
	return records, nil
}

// GetByID fetches one counseling record.
func (s *CounselingRecordService) GetByID(ctx context.Context, id int64) (*models.CounselingRecord, error) {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Counseling record not found")
		}
		return nil, appErrors.Wrap(err, "COUNSELING_RECORDS_FAILED", 500, "failed to fetch counseling record")
	}
	return record, nil
}

// ListByStudent returns a student's counseling history.
func (s *CounselingRecordService) ListByStudent(ctx context.Context, studentID string, psychOnly bool) ([]models.CounselingRecord, error) {
	records, err := s.repo.ListByStudent(ctx, studentID, psychOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, "COUNSELING_RECORDS_FAILED", 500, "failed to fetch student counseling records")
	}
	return records, nil
}

// ListPsychological returns the infirmary view of counseling records.
func (s *CounselingRecordService) ListPsychological(ctx context.Context) ([]models.CounselingRecord, error) {
	records, err := s.repo.ListPsychological(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, "COUNSELING_RECORDS_FAILED", 500, "failed to fetch psychological counseling records")
	}
	return records, nil
}

// Create stores a walk-in counseling record with up to five attachments.
func (s *CounselingRecordService) Create(ctx context.Context, params CounselingRecordParams, files []*multipart.FileHeader) (int64, error) {
	if err := validateCounselingParams(params); err != nil {
		return 0, err
	}

	staged, err := s.attachments.Stage(counselingUploadKind, files, 0)
	if err != nil {
		return 0, err
	}

	input := buildCounselingInput(params)
	input.OriginMedicalID = params.OriginMedicalID
	input.OriginCaseID = params.OriginCaseID
	input.Attachments = staged

	id, err := s.repo.Create(ctx, input)
	if err != nil {
		s.attachments.Discard(staged)
		return 0, appErrors.Wrap(err, "COUNSELING_RECORD_SAVE_FAILED", 500, "failed to add counseling record")
	}
	return id, nil
}

// Update overwrites a counseling record. The attachment set becomes the kept
// existing files plus the new uploads.
func (s *CounselingRecordService) Update(ctx context.Context, id int64, params CounselingRecordParams, files []*multipart.FileHeader, kept models.AttachmentList, deletions []string) error {
	if err := validateCounselingParams(params); err != nil {
		return err
	}

	staged, err := s.attachments.Stage(counselingUploadKind, files, 0)
	if err != nil {
		return err
	}

	input := buildCounselingInput(params)
	input.Attachments = append(kept, staged...)

	// The update overwrites the attachments column, so the rows holding the
	// stored paths of dropped files must be read before the write.
	var stale models.AttachmentList
	if len(deletions) > 0 {
		if existing, err := s.repo.GetAttachments(ctx, id); err == nil {
			stale = existing
		}
	}

	if err := s.repo.Update(ctx, id, input); err != nil {
		s.attachments.Discard(staged)
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "Counseling record not found")
		}
		return appErrors.Wrap(err, "COUNSELING_RECORD_SAVE_FAILED", 500, "failed to update counseling record")
	}

	s.attachments.DeleteNamed(stale, deletions)
	return nil
}

// Attachments fetches a record's attachment metadata.
func (s *CounselingRecordService) Attachments(ctx context.Context, id int64) (models.AttachmentList, error) {
	attachments, err := s.repo.GetAttachments(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Counseling record not found")
		}
		return nil, appErrors.Wrap(err, "COUNSELING_RECORDS_FAILED", 500, "failed to fetch counseling record attachments")
	}
	return attachments, nil
}

// DeleteAttachment removes one file from the record and from disk.
func (s *CounselingRecordService) DeleteAttachment(ctx context.Context, id int64, filename string) error {
	attachments, err := s.Attachments(ctx, id)
	if err != nil {
		return err
	}
	if len(attachments) == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "No attachments found")
	}

	target, ok := attachments.Find(filename)
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "File not found")
	}

	if err := s.repo.UpdateAttachments(ctx, id, attachments.Without(filename)); err != nil {
		return appErrors.Wrap(err, "COUNSELING_RECORD_SAVE_FAILED", 500, "failed to update counseling record attachments")
	}
	if err := s.attachments.Delete(target.Path); err != nil {
		s.logger.Warn("attachment file removal failed", zap.String("path", target.Path), zap.Error(err))
	}
	return nil
}

func validateCounselingParams(params CounselingRecordParams) error {
	if params.StudentID == "" || params.StudentName == "" || params.Strand == "" ||
		params.GradeLevel == "" || params.Section == "" || params.SessionNumber == 0 ||
		params.Status == "" || params.Concern == "" {
		return appErrors.Clone(appErrors.ErrValidation, "Missing required fields")
	}
	return nil
}

func buildCounselingInput(params CounselingRecordParams) models.CounselingRecordInput {
	psych := params.PsychCondition
	if psych == "" {
		psych = models.PsychNo
	}
	return models.CounselingRecordInput{
		StudentID:          params.StudentID,
		StudentName:        params.StudentName,
		Strand:             params.Strand,
		GradeLevel:         params.GradeLevel,
		Section:            params.Section,
		SchoolYearSemester: params.SchoolYearSemester,
		SessionNumber:      params.SessionNumber,
		Status:             params.Status,
		Date:               params.Date,
		Time:               params.Time,
		Concern:            params.Concern,
		Remarks:            params.Remarks,
		PsychCondition:     psych,
	}
}
