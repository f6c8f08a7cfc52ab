package service

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/ccmr-api/internal/models"
	appErrors "github.com/noah-isme/ccmr-api/pkg/errors"
)

type stubMedicalRecordStore struct {
	createdInput models.MedicalRecordInput
	updatedInput models.MedicalRecordInput
	updateErr    error
	attachments  models.AttachmentList
}

func (s *stubMedicalRecordStore) List(ctx context.Context, filter models.MedicalClassFilter) ([]models.MedicalRecord, error) {
	return nil, nil
}

func (s *stubMedicalRecordStore) ListReferred(ctx context.Context, filter models.MedicalClassFilter) ([]models.MedicalRecord, error) {
	return nil, nil
}

func (s *stubMedicalRecordStore) Search(ctx context.Context, pattern string, referredOnly bool, filter models.MedicalClassFilter) ([]models.MedicalRecord, error) {
	return nil, nil
}

func (s *stubMedicalRecordStore) GetByID(ctx context.Context, id int64) (*models.MedicalRecord, error) {
	return nil, sql.ErrNoRows
}

func (s *stubMedicalRecordStore) ListByStudent(ctx context.Context, studentID string, filter models.MedicalClassFilter) ([]models.MedicalRecord, error) {
	return nil, nil
}

func (s *stubMedicalRecordStore) Create(ctx context.Context, input models.MedicalRecordInput) (int64, error) {
	s.createdInput = input
	return 12, nil
}

func (s *stubMedicalRecordStore) Update(ctx context.Context, id int64, input models.MedicalRecordInput) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updatedInput = input
	return nil
}

func (s *stubMedicalRecordStore) GetAttachments(ctx context.Context, id int64) (models.AttachmentList, error) {
	return s.attachments, nil
}

func (s *stubMedicalRecordStore) UpdateAttachments(ctx context.Context, id int64, attachments models.AttachmentList) error {
	s.attachments = attachments
	return nil
}

func medicalParams(referred string, psychological models.YesNo) MedicalRecordParams {
	return MedicalRecordParams{
		StudentID:       "2023-00456",
		StudentName:     "Maria Santos",
		Strand:          "HUMSS",
		GradeLevel:      "12",
		Section:         "B",
		Subject:         "Recurring headaches",
		Status:          "Ongoing",
		MedicalDetails:  "Complains of headaches during morning classes",
		ReferredToGCO:   referred,
		IsPsychological: psychological,
		IsMedical:       models.Yes,
	}
}

func TestMedicalRecordServiceCreateMissingFields(t *testing.T) {
	svc := NewMedicalRecordService(&stubMedicalRecordStore{}, testAttachmentService(t), &stubPublisher{}, &stubNotifier{}, zap.NewNop())

	params := medicalParams("No", models.No)
	params.MedicalDetails = ""
	_, err := svc.Create(context.Background(), params, nil, nil)
	appErr := appErrors.FromError(err)
	require.Equal(t, 400, appErr.Status)
	require.Equal(t, "Missing required fields", appErr.Message)
}

func TestMedicalRecordServiceRejectsNeitherClassification(t *testing.T) {
	svc := NewMedicalRecordService(&stubMedicalRecordStore{}, testAttachmentService(t), &stubPublisher{}, &stubNotifier{}, zap.NewNop())

	params := medicalParams("No", models.No)
	params.IsMedical = models.No
	_, err := svc.Create(context.Background(), params, nil, nil)
	appErr := appErrors.FromError(err)
	require.Equal(t, 400, appErr.Status)
	require.Equal(t, "Record cannot be neither medical nor psychological", appErr.Message)
}

func TestMedicalRecordServiceCreateReferredPsychological(t *testing.T) {
	store := &stubMedicalRecordStore{}
	publisher := &stubPublisher{}
	notifier := &stubNotifier{}
	svc := NewMedicalRecordService(store, testAttachmentService(t), publisher, notifier, zap.NewNop())

	result, err := svc.Create(context.Background(), medicalParams("Yes", models.Yes), nil, nil)
	require.NoError(t, err)
	require.Equal(t, int64(12), result.RecordID)

	require.Equal(t, models.Yes, store.createdInput.Referred)
	require.NotNil(t, store.createdInput.ReferralConfirmation)
	require.Equal(t, models.ReferralPending, *store.createdInput.ReferralConfirmation)

	require.Len(t, publisher.inputs, 1)
	notification := publisher.inputs[0]
	require.Equal(t, models.DepartmentINF, notification.Sender)
	require.Equal(t, models.DepartmentGCO, notification.Receiver)
	require.Equal(t, "New psychological referral for Maria Santos (2023-00456)", notification.Message)

	require.Equal(t, []string{"New Medical Case Referral - Maria Santos (2023-00456)"}, notifier.subjects)
	require.Equal(t, []string{"GCO"}, notifier.departments)
}

func TestMedicalRecordServiceUpdateUsesUpdateSubject(t *testing.T) {
	store := &stubMedicalRecordStore{}
	publisher := &stubPublisher{}
	notifier := &stubNotifier{}
	svc := NewMedicalRecordService(store, testAttachmentService(t), publisher, notifier, zap.NewNop())

	kept := models.AttachmentList{{Filename: "old.pdf", OriginalName: "old.pdf", Path: "medical-records/old.pdf"}}
	result, err := svc.Update(context.Background(), 12, medicalParams("Yes", models.No), nil, nil, kept, nil)
	require.NoError(t, err)
	require.Equal(t, int64(12), result.RecordID)

	require.Equal(t, "New medical referral for Maria Santos (2023-00456)", publisher.inputs[0].Message)
	require.Equal(t, []string{"Medical Case Update - Maria Santos (2023-00456)"}, notifier.subjects)
	require.Len(t, store.updatedInput.Attachments, 1)
}

func TestMedicalRecordServiceUpdateRemovesDroppedFiles(t *testing.T) {
	dir := t.TempDir()
	stored := filepath.Join(dir, "medical-records", "certificate-4c1.pdf")
	require.NoError(t, os.MkdirAll(filepath.Dir(stored), 0o755))
	require.NoError(t, os.WriteFile(stored, []byte("%PDF-1.4"), 0o644))

	store := &stubMedicalRecordStore{attachments: models.AttachmentList{{
		Filename:     "certificate-4c1.pdf",
		OriginalName: "certificate.pdf",
		Path:         "medical-records/certificate-4c1.pdf",
	}}}
	svc := NewMedicalRecordService(store, testAttachmentServiceIn(t, dir), &stubPublisher{}, &stubNotifier{}, zap.NewNop())

	_, err := svc.Update(context.Background(), 12, medicalParams("No", models.No), nil, nil, nil, []string{"certificate-4c1.pdf"})
	require.NoError(t, err)
	require.Empty(t, store.updatedInput.Attachments)

	_, err = os.Stat(stored)
	require.True(t, os.IsNotExist(err))
}

func TestMedicalRecordServiceUpdateNotFound(t *testing.T) {
	store := &stubMedicalRecordStore{updateErr: sql.ErrNoRows}
	svc := NewMedicalRecordService(store, testAttachmentService(t), &stubPublisher{}, &stubNotifier{}, zap.NewNop())

	_, err := svc.Update(context.Background(), 99, medicalParams("No", models.No), nil, nil, nil, nil)
	appErr := appErrors.FromError(err)
	require.Equal(t, 404, appErr.Status)
	require.Equal(t, "Medical record not found", appErr.Message)
}

func TestApplyClassificationsMatchesByOriginalName(t *testing.T) {
	attachments := []models.Attachment{
		{Filename: "abc123.pdf", OriginalName: "certificate.pdf"},
		{Filename: "def456.pdf", OriginalName: "notes.pdf"},
	}
	applyClassifications(attachments, []FileClassification{
		{Filename: "certificate.pdf", IsMedical: true, IsPsychological: true},
	})

	require.True(t, *attachments[0].IsMedical)
	require.True(t, *attachments[0].IsPsychological)
	require.False(t, *attachments[1].IsMedical)
	require.False(t, *attachments[1].IsPsychological)
}

func TestClassificationLabel(t *testing.T) {
	yes := true
	require.Equal(t, "Medical & Psychological", classificationLabel(models.Attachment{IsMedical: &yes, IsPsychological: &yes}))
	require.Equal(t, "Medical", classificationLabel(models.Attachment{IsMedical: &yes}))
	require.Equal(t, "Unclassified", classificationLabel(models.Attachment{}))
}
