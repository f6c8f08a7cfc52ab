package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"html/template"
	"mime/multipart"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/ccmr-api/internal/models"
	"github.com/noah-isme/ccmr-api/internal/repository"
	appErrors "github.com/noah-isme/ccmr-api/pkg/errors"
)

const medicalUploadKind = "medical-records"

type medicalRecordStore interface {
	List(ctx context.Context, filter models.MedicalClassFilter) ([]models.MedicalRecord, error)
	ListReferred(ctx context.Context, filter models.MedicalClassFilter) ([]models.MedicalRecord, error)
	Search(ctx context.Context, pattern string, referredOnly bool, filter models.MedicalClassFilter) ([]models.MedicalRecord, error)
	GetByID(ctx context.Context, id int64) (*models.MedicalRecord, error)
	ListByStudent(ctx context.Context, studentID string, filter models.MedicalClassFilter) ([]models.MedicalRecord, error)
	Create(ctx context.Context, input models.MedicalRecordInput) (int64, error)
	Update(ctx context.Context, id int64, input models.MedicalRecordInput) error
	GetAttachments(ctx context.Context, id int64) (models.AttachmentList, error)
	UpdateAttachments(ctx context.Context, id int64, attachments models.AttachmentList) error
}

// FileClassification tags one uploaded file as medical and/or psychological.
// Matched to uploads by original filename.
type FileClassification struct {
	Filename        string `json:"filename"`
	IsMedical       bool   `json:"isMedical"`
	IsPsychological bool   `json:"isPsychological"`
}

// MedicalRecordParams carries the form fields of a medical record save.
type MedicalRecordParams struct {
	StudentID          string
	StudentName        string
	Strand             string
	GradeLevel         string
	Section            string
	SchoolYearSemester *string
	Subject            string
	Status             string
	MedicalDetails     string
	Remarks            string
	ReferredToGCO      string
	IsPsychological    models.YesNo
	IsMedical          models.YesNo
}

// MedicalSaveResult reports a create or update outcome.
type MedicalSaveResult struct {
	RecordID     int64
	AffectedRows int64
	FileCount    int
}

// MedicalRecordService owns infirmary records and the INF side of the
// referral handshake, plus the certificate-upload notifications to OPD.
type MedicalRecordService struct {
	repo          medicalRecordStore
	attachments   *AttachmentService
	notifications notificationPublisher
	mailer        officeNotifier
	logger        *zap.Logger
}

// NewMedicalRecordService constructs the medical record service.
func NewMedicalRecordService(repo medicalRecordStore, attachments *AttachmentService, notifications notificationPublisher, mailer officeNotifier, logger *zap.Logger) *MedicalRecordService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MedicalRecordService{
		repo:          repo,
		attachments:   attachments,
		notifications: notifications,
		mailer:        mailer,
		logger:        logger,
	}
}

// List returns medical records narrowed by classification.
func (s *MedicalRecordService) List(ctx context.Context, filter models.MedicalClassFilter) ([]models.MedicalRecord, error) {
	records, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, "MEDICAL_RECORDS_FAILED", 500, "failed to fetch medical records")
	}
	return records, nil
}

// ListReferred returns referred medical records only.
func (s *MedicalRecordService) ListReferred(ctx context.Context, filter models.MedicalClassFilter) ([]models.MedicalRecord, error) {
	records, err := s.repo.ListReferred(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, "MEDICAL_RECORDS_FAILED", 500, "failed to fetch referred medical records")
	}
	return records, nil
}

// Search matches a term against the legacy search columns.
func (s *MedicalRecordService) Search(ctx context.Context, term string, referredOnly bool, filter models.MedicalClassFilter) ([]models.MedicalRecord, error) {
	records, err := s.repo.Search(ctx, "%"+term+"%", referredOnly, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, "MEDICAL_RECORDS_FAILED", 500, "failed to search medical records")
	}
	return records, nil
}

// GetByID fetches one medical record.
func (s *MedicalRecordService) GetByID(ctx context.Context, id int64) (*models.MedicalRecord, error) {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Medical record not found")
		}
		return nil, appErrors.Wrap(err, "MEDICAL_RECORDS_FAILED", 500, "failed to fetch medical record")
	}
	return record, nil
}

// ListByStudent returns a student's medical history.
func (s *MedicalRecordService) ListByStudent(ctx context.Context, studentID string, filter models.MedicalClassFilter) ([]models.MedicalRecord, error) {
	records, err := s.repo.ListByStudent(ctx, studentID, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, "MEDICAL_RECORDS_FAILED", 500, "failed to fetch student medical records")
	}
	return records, nil
}

// Create stores a new medical record with up to five classified attachments.
// Every upload raises a certificate notification to OPD; referring the record
// to guidance marks it pending and notifies GCO.
func (s *MedicalRecordService) Create(ctx context.Context, params MedicalRecordParams, files []*multipart.FileHeader, classifications []FileClassification) (*MedicalSaveResult, error) {
	if err := validateMedicalParams(params); err != nil {
		return nil, err
	}

	staged, err := s.attachments.Stage(medicalUploadKind, files, 0)
	if err != nil {
		return nil, err
	}
	applyClassifications(staged, classifications)

	input := s.buildInput(params)
	input.Attachments = staged

	id, err := s.repo.Create(ctx, input)
	if err != nil {
		s.attachments.Discard(staged)
		return nil, appErrors.Wrap(err, "MEDICAL_RECORD_SAVE_FAILED", 500, "failed to add medical record")
	}

	for _, attachment := range staged {
		s.publishCertificate(ctx, id, params, attachment)
	}

	if input.Referred == models.Yes {
		s.publishReferral(ctx, id, params, false)
	}

	return &MedicalSaveResult{RecordID: id, AffectedRows: 1, FileCount: len(staged)}, nil
}

// Update overwrites a medical record. The attachment set becomes the kept
// existing files plus the new classified uploads; files the client dropped
// are deleted from disk after the write commits.
func (s *MedicalRecordService) Update(ctx context.Context, id int64, params MedicalRecordParams, files []*multipart.FileHeader, classifications []FileClassification, kept models.AttachmentList, deletions []string) (*MedicalSaveResult, error) {
	if err := validateMedicalParams(params); err != nil {
		return nil, err
	}

	staged, err := s.attachments.Stage(medicalUploadKind, files, 0)
	if err != nil {
		return nil, err
	}
	applyClassifications(staged, classifications)

	input := s.buildInput(params)
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
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Medical record not found")
		}
		return nil, appErrors.Wrap(err, "MEDICAL_RECORD_SAVE_FAILED", 500, "failed to update medical record")
	}

	s.attachments.DeleteNamed(stale, deletions)

	for _, attachment := range staged {
		s.publishCertificate(ctx, id, params, attachment)
	}

	if input.Referred == models.Yes {
		s.publishReferral(ctx, id, params, true)
	}

	return &MedicalSaveResult{RecordID: id, AffectedRows: 1, FileCount: len(staged)}, nil
}

// Attachments fetches a record's attachment metadata.
func (s *MedicalRecordService) Attachments(ctx context.Context, id int64) (models.AttachmentList, error) {
	attachments, err := s.repo.GetAttachments(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Medical record not found")
		}
		return nil, appErrors.Wrap(err, "MEDICAL_RECORDS_FAILED", 500, "failed to fetch medical record attachments")
	}
	return attachments, nil
}

// DeleteAttachment removes one file from the record and from disk.
func (s *MedicalRecordService) DeleteAttachment(ctx context.Context, id int64, filename string) error {
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
		return appErrors.Wrap(err, "MEDICAL_RECORD_SAVE_FAILED", 500, "failed to update medical record attachments")
	}
	if err := s.attachments.Delete(target.Path); err != nil {
		s.logger.Warn("attachment file removal failed", zap.String("path", target.Path), zap.Error(err))
	}
	return nil
}

func validateMedicalParams(params MedicalRecordParams) error {
	if params.StudentID == "" || params.StudentName == "" || params.Subject == "" ||
		params.Status == "" || params.MedicalDetails == "" ||
		params.IsPsychological == "" || params.IsMedical == "" {
		return appErrors.Clone(appErrors.ErrValidation, "Missing required fields")
	}
	if params.IsPsychological == models.No && params.IsMedical == models.No {
		return appErrors.Clone(appErrors.ErrValidation, "Record cannot be neither medical nor psychological")
	}
	return nil
}

func applyClassifications(attachments []models.Attachment, classifications []FileClassification) {
	for i := range attachments {
		medical, psychological := false, false
		for _, classification := range classifications {
			if classification.Filename == attachments[i].OriginalName {
				medical = classification.IsMedical
				psychological = classification.IsPsychological
				break
			}
		}
		attachments[i].IsMedical = &medical
		attachments[i].IsPsychological = &psychological
	}
}

func (s *MedicalRecordService) buildInput(params MedicalRecordParams) models.MedicalRecordInput {
	input := models.MedicalRecordInput{
		StudentID:          params.StudentID,
		StudentName:        params.StudentName,
		Strand:             params.Strand,
		GradeLevel:         params.GradeLevel,
		Section:            params.Section,
		SchoolYearSemester: params.SchoolYearSemester,
		Subject:            params.Subject,
		Status:             params.Status,
		MedicalDetails:     params.MedicalDetails,
		Remarks:            params.Remarks,
		Referred:           models.No,
		IsPsychological:    params.IsPsychological,
		IsMedical:          params.IsMedical,
	}
	if params.ReferredToGCO == string(models.Yes) {
		pending := models.ReferralPending
		input.Referred = models.Yes
		input.ReferralConfirmation = &pending
	}
	return input
}

// publishCertificate tells OPD that a certificate landed on a medical
// record. Failures are logged and never fail the save.
func (s *MedicalRecordService) publishCertificate(ctx context.Context, id int64, params MedicalRecordParams, attachment models.Attachment) {
	recordType := models.RefMedicalRecord
	if s.notifications != nil {
		err := s.notifications.Publish(ctx, repository.NotificationInput{
			Sender:            models.DepartmentINF,
			Receiver:          models.DepartmentOPD,
			Type:              models.NotificationOPDCertificate,
			Message:           fmt.Sprintf("Certificate %s uploaded for %s (%s)", attachment.OriginalName, params.StudentName, params.StudentID),
			RelatedRecordID:   &id,
			RelatedRecordType: &recordType,
		})
		if err != nil {
			s.logger.Warn("certificate notification failed", zap.Int64("medical_id", id), zap.Error(err))
		}
	}

	if s.mailer != nil {
		subject := fmt.Sprintf("OPD Added Certificate - %s (%s)", params.StudentName, params.StudentID)
		body := template.HTML(fmt.Sprintf(
			"<h3>OPD Added Certificate</h3><p><strong>Student:</strong> %s (%s)</p><p><strong>File Name:</strong> %s</p><p><strong>File Classification:</strong> %s</p><p><strong>Record ID:</strong> %d</p><p>A new certificate/file has been uploaded to the medical record system.</p>",
			template.HTMLEscapeString(params.StudentName), template.HTMLEscapeString(params.StudentID),
			template.HTMLEscapeString(attachment.OriginalName), classificationLabel(attachment), id))
		s.mailer.Notify(string(models.DepartmentOPD), subject, body)
	}
}

// publishReferral notifies guidance about a new or updated medical referral.
func (s *MedicalRecordService) publishReferral(ctx context.Context, id int64, params MedicalRecordParams, isUpdate bool) {
	conditionType := "Medical"
	if params.IsPsychological == models.Yes {
		conditionType = "Psychological"
	}

	recordType := models.RefMedicalRecord
	if s.notifications != nil {
		err := s.notifications.Publish(ctx, repository.NotificationInput{
			Sender:            models.DepartmentINF,
			Receiver:          models.DepartmentGCO,
			Type:              models.NotificationReferral,
			Message:           fmt.Sprintf("New %s referral for %s (%s)", strings.ToLower(conditionType), params.StudentName, params.StudentID),
			RelatedRecordID:   &id,
			RelatedRecordType: &recordType,
		})
		if err != nil {
			s.logger.Warn("referral notification failed", zap.Int64("medical_id", id), zap.Error(err))
		}
	}

	if s.mailer != nil {
		subject := fmt.Sprintf("New Medical Case Referral - %s (%s)", params.StudentName, params.StudentID)
		if isUpdate {
			subject = fmt.Sprintf("Medical Case Update - %s (%s)", params.StudentName, params.StudentID)
		}
		body := template.HTML(fmt.Sprintf(
			"<p><strong>Student:</strong> %s (%s)</p><p><strong>Condition Type:</strong> %s</p><p><strong>Medical Details:</strong> %s</p><p><strong>Record ID:</strong> %d</p><p>This medical case has been referred to GCO for further action.</p>",
			template.HTMLEscapeString(params.StudentName), template.HTMLEscapeString(params.StudentID),
			conditionType, template.HTMLEscapeString(params.MedicalDetails), id))
		s.mailer.Notify(string(models.DepartmentGCO), subject, body)
	}
}

func classificationLabel(attachment models.Attachment) string {
	labels := make([]string, 0, 2)
	if attachment.IsMedical != nil && *attachment.IsMedical {
		labels = append(labels, "Medical")
	}
	if attachment.IsPsychological != nil && *attachment.IsPsychological {
		labels = append(labels, "Psychological")
	}
	if len(labels) == 0 {
		return "Unclassified"
	}
	return strings.Join(labels, " & ")
}
