package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"html/template"
	"mime/multipart"

	"go.uber.org/zap"

	"github.com/noah-isme/ccmr-api/internal/models"
	"github.com/noah-isme/ccmr-api/internal/repository"
	appErrors "github.com/noah-isme/ccmr-api/pkg/errors"
)

const caseUploadKind = "case-records"

type caseRecordStore interface {
	List(ctx context.Context) ([]models.CaseRecord, error)
	ListReferred(ctx context.Context) ([]models.CaseRecord, error)
	Search(ctx context.Context, pattern string, referredOnly bool) ([]models.CaseRecord, error)
	GetByID(ctx context.Context, id int64) (*models.CaseRecord, error)
	ListByStudent(ctx context.Context, studentID string, referredOnly bool) ([]models.CaseRecord, error)
	Create(ctx context.Context, input models.CaseRecordInput) (int64, error)
	Update(ctx context.Context, id int64, input models.CaseRecordInput) error
	GetAttachments(ctx context.Context, id int64) (models.AttachmentList, error)
	UpdateAttachments(ctx context.Context, id int64, attachments models.AttachmentList) error
}

// CaseRecordParams carries the form fields of a case record save.
type CaseRecordParams struct {
	StudentID          string
	StudentName        string
	Strand             string
	GradeLevel         string
	Section            string
	SchoolYearSemester *string
	ViolationLevel     models.ViolationLevel
	Status             string
	Description        string
	Remarks            string
	ReferredToGCO      string
}

// CaseSaveResult reports a create or update outcome.
type CaseSaveResult struct {
	CaseID       int64
	AffectedRows int64
	FileCount    int
}

// CaseRecordService owns disciplinary case records and the OPD side of the
// referral handshake.
type CaseRecordService struct {
	repo          caseRecordStore
	attachments   *AttachmentService
	notifications notificationPublisher
	mailer        officeNotifier
	logger        *zap.Logger
}

// NewCaseRecordService constructs the case record service.
func NewCaseRecordService(repo caseRecordStore, attachments *AttachmentService, notifications notificationPublisher, mailer officeNotifier, logger *zap.Logger) *CaseRecordService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CaseRecordService{
		repo:          repo,
		attachments:   attachments,
		notifications: notifications,
		mailer:        mailer,
		logger:        logger,
	}
}

// List returns all case records.
func (s *CaseRecordService) List(ctx context.Context) ([]models.CaseRecord, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, "CASE_RECORDS_FAILED", 500, "failed to fetch case records")
	}
	return records, nil
}

// ListReferred returns referred case records only.
func (s *CaseRecordService) ListReferred(ctx context.Context) ([]models.CaseRecord, error) {
	records, err := s.repo.ListReferred(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, "CASE_RECORDS_FAILED", 500, "failed to fetch referred case records")
	}
	return records, nil
}

// Search matches a term against the legacy search columns.
func (s *CaseRecordService) Search(ctx context.Context, term string, referredOnly bool) ([]models.CaseRecord, error) {
	records, err := s.repo.Search(ctx, "%"+term+"%", referredOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, "CASE_RECORDS_FAILED", 500, "failed to search case records")
	}
	return records, nil
}

// GetByID fetches one case record.
func (s *CaseRecordService) GetByID(ctx context.Context, id int64) (*models.CaseRecord, error) {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Case record not found")
		}
		return nil, appErrors.Wrap(err, "CASE_RECORDS_FAILED", 500, "failed to fetch case record")
	}
	return record, nil
}

// ListByStudent returns a student's case history.
func (s *CaseRecordService) ListByStudent(ctx context.Context, studentID string, referredOnly bool) ([]models.CaseRecord, error) {
	records, err := s.repo.ListByStudent(ctx, studentID, referredOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, "CASE_RECORDS_FAILED", 500, "failed to fetch student case records")
	}
	return records, nil
}

// Create stores a new case record with up to five attachments. Referring the
// case to guidance marks it pending in the same write and notifies GCO
// best-effort afterwards.
func (s *CaseRecordService) Create(ctx context.Context, params CaseRecordParams, files []*multipart.FileHeader) (*CaseSaveResult, error) {
	if params.StudentID == "" || params.StudentName == "" || params.ViolationLevel == "" || params.Status == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Missing required fields")
	}

	staged, err := s.attachments.Stage(caseUploadKind, files, 0)
	if err != nil {
		return nil, err
	}

	input := s.buildInput(params)
	input.Attachments = staged

	id, err := s.repo.Create(ctx, input)
	if err != nil {
		s.attachments.Discard(staged)
		return nil, appErrors.Wrap(err, "CASE_RECORD_SAVE_FAILED", 500, "failed to add case record")
	}

	if input.Referred == models.Yes {
		s.publishReferral(ctx, id, params, fmt.Sprintf("New Case Referral - %s (%s)", params.StudentName, params.StudentID))
	}

	return &CaseSaveResult{CaseID: id, AffectedRows: 1, FileCount: len(staged)}, nil
}

// Update overwrites a case record. At most one new upload is accepted and it
// replaces the attachment set; files the client dropped are deleted from
// disk after the write commits.
func (s *CaseRecordService) Update(ctx context.Context, id int64, params CaseRecordParams, files []*multipart.FileHeader, kept models.AttachmentList, deletions []string) (*CaseSaveResult, error) {
	if params.StudentID == "" || params.StudentName == "" || params.ViolationLevel == "" || params.Status == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Missing required fields")
	}

	staged, err := s.attachments.Stage(caseUploadKind, files, 1)
	if err != nil {
		return nil, err
	}

	input := s.buildInput(params)
	// a new upload replaces the attachment set; otherwise the kept files
	// minus the requested deletions survive
	input.Attachments = kept
	if len(staged) > 0 {
		input.Attachments = staged
	}

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
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Case record not found")
		}
		return nil, appErrors.Wrap(err, "CASE_RECORD_SAVE_FAILED", 500, "failed to update case record")
	}

	s.attachments.DeleteNamed(stale, deletions)

	if input.Referred == models.Yes {
		s.publishReferral(ctx, id, params, fmt.Sprintf("Case Update - %s (%s)", params.StudentName, params.StudentID))
	}

	return &CaseSaveResult{CaseID: id, AffectedRows: 1, FileCount: len(staged)}, nil
}

// Attachments fetches a record's attachment metadata.
func (s *CaseRecordService) Attachments(ctx context.Context, id int64) (models.AttachmentList, error) {
	attachments, err := s.repo.GetAttachments(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Case record not found")
		}
		return nil, appErrors.Wrap(err, "CASE_RECORDS_FAILED", 500, "failed to fetch case record attachments")
	}
	return attachments, nil
}

// DeleteAttachment removes one file from the record and from disk.
func (s *CaseRecordService) DeleteAttachment(ctx context.Context, id int64, filename string) error {
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
		return appErrors.Wrap(err, "CASE_RECORD_SAVE_FAILED", 500, "failed to update case record attachments")
	}
	if err := s.attachments.Delete(target.Path); err != nil {
		s.logger.Warn("attachment file removal failed", zap.String("path", target.Path), zap.Error(err))
	}
	return nil
}

func (s *CaseRecordService) buildInput(params CaseRecordParams) models.CaseRecordInput {
	input := models.CaseRecordInput{
		StudentID:          params.StudentID,
		StudentName:        params.StudentName,
		Strand:             params.Strand,
		GradeLevel:         params.GradeLevel,
		Section:            params.Section,
		SchoolYearSemester: params.SchoolYearSemester,
		ViolationLevel:     params.ViolationLevel,
		Status:             params.Status,
		Description:        params.Description,
		Remarks:            params.Remarks,
		Referred:           models.No,
	}
	if params.ReferredToGCO == string(models.Yes) {
		pending := models.ReferralPending
		input.Referred = models.Yes
		input.ReferralConfirmation = &pending
	}
	return input
}

// publishReferral notifies guidance about a new or updated referral.
// Failures are logged and never fail the save.
func (s *CaseRecordService) publishReferral(ctx context.Context, id int64, params CaseRecordParams, subject string) {
	recordType := models.RefCaseRecord
	message := fmt.Sprintf("New case referral for %s (%s) - %s violation", params.StudentName, params.StudentID, params.ViolationLevel)
	if s.notifications != nil {
		err := s.notifications.Publish(ctx, repository.NotificationInput{
			Sender:            models.DepartmentOPD,
			Receiver:          models.DepartmentGCO,
			Type:              models.NotificationReferral,
			Message:           message,
			RelatedRecordID:   &id,
			RelatedRecordType: &recordType,
		})
		if err != nil {
			s.logger.Warn("referral notification failed", zap.Int64("case_id", id), zap.Error(err))
		}
	}

	if s.mailer != nil {
		body := template.HTML(fmt.Sprintf(
			"<p>A case for <strong>%s (%s)</strong> has been referred to the Guidance Counseling Office.</p><p>Violation level: <strong>%s</strong></p>",
			template.HTMLEscapeString(params.StudentName), template.HTMLEscapeString(params.StudentID), params.ViolationLevel))
		s.mailer.Notify(string(models.DepartmentGCO), subject, body)
	}
}
