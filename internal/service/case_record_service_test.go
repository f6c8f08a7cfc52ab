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
	"github.com/noah-isme/ccmr-api/pkg/config"
	appErrors "github.com/noah-isme/ccmr-api/pkg/errors"
	"github.com/noah-isme/ccmr-api/pkg/storage"
)

type stubCaseRecordStore struct {
	createdInput models.CaseRecordInput
	updatedInput models.CaseRecordInput
	updateErr    error
	attachments  models.AttachmentList
	saved        models.AttachmentList
}

func (s *stubCaseRecordStore) List(ctx context.Context) ([]models.CaseRecord, error) {
	return nil, nil
}

func (s *stubCaseRecordStore) ListReferred(ctx context.Context) ([]models.CaseRecord, error) {
	return nil, nil
}

func (s *stubCaseRecordStore) Search(ctx context.Context, pattern string, referredOnly bool) ([]models.CaseRecord, error) {
	return nil, nil
}

func (s *stubCaseRecordStore) GetByID(ctx context.Context, id int64) (*models.CaseRecord, error) {
	return nil, sql.ErrNoRows
}

func (s *stubCaseRecordStore) ListByStudent(ctx context.Context, studentID string, referredOnly bool) ([]models.CaseRecord, error) {
	return nil, nil
}

func (s *stubCaseRecordStore) Create(ctx context.Context, input models.CaseRecordInput) (int64, error) {
	s.createdInput = input
	return 7, nil
}

func (s *stubCaseRecordStore) Update(ctx context.Context, id int64, input models.CaseRecordInput) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updatedInput = input
	return nil
}

func (s *stubCaseRecordStore) GetAttachments(ctx context.Context, id int64) (models.AttachmentList, error) {
	return s.attachments, nil
}

func (s *stubCaseRecordStore) UpdateAttachments(ctx context.Context, id int64, attachments models.AttachmentList) error {
	s.saved = attachments
	return nil
}

func testAttachmentService(t *testing.T) *AttachmentService {
	t.Helper()
	return testAttachmentServiceIn(t, t.TempDir())
}

func testAttachmentServiceIn(t *testing.T, dir string) *AttachmentService {
	t.Helper()
	store, err := storage.NewAttachmentStore(dir)
	require.NoError(t, err)
	return NewAttachmentService(store, config.UploadsConfig{
		MaxFileSizeBytes: 10 * 1024 * 1024,
		MaxFilesPerSave:  5,
		AllowedMIMEs: []string{
			"application/pdf",
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		},
	}, zap.NewNop())
}

func caseParams(referred string) CaseRecordParams {
	return CaseRecordParams{
		StudentID:      "2023-00123",
		StudentName:    "Juan Dela Cruz",
		Strand:         "STEM",
		GradeLevel:     "11",
		Section:        "A",
		ViolationLevel: models.ViolationMajor,
		Status:         "Ongoing",
		Description:    "Cutting classes",
		ReferredToGCO:  referred,
	}
}

func TestCaseRecordServiceCreateMissingFields(t *testing.T) {
	svc := NewCaseRecordService(&stubCaseRecordStore{}, testAttachmentService(t), &stubPublisher{}, &stubNotifier{}, zap.NewNop())

	params := caseParams("No")
	params.StudentName = ""
	_, err := svc.Create(context.Background(), params, nil)
	appErr := appErrors.FromError(err)
	require.Equal(t, 400, appErr.Status)
	require.Equal(t, "Missing required fields", appErr.Message)
}

func TestCaseRecordServiceCreateWithReferralMarksPending(t *testing.T) {
	store := &stubCaseRecordStore{}
	publisher := &stubPublisher{}
	notifier := &stubNotifier{}
	svc := NewCaseRecordService(store, testAttachmentService(t), publisher, notifier, zap.NewNop())

	result, err := svc.Create(context.Background(), caseParams("Yes"), nil)
	require.NoError(t, err)
	require.Equal(t, int64(7), result.CaseID)

	require.Equal(t, models.Yes, store.createdInput.Referred)
	require.NotNil(t, store.createdInput.ReferralConfirmation)
	require.Equal(t, models.ReferralPending, *store.createdInput.ReferralConfirmation)

	require.Len(t, publisher.inputs, 1)
	notification := publisher.inputs[0]
	require.Equal(t, models.DepartmentOPD, notification.Sender)
	require.Equal(t, models.DepartmentGCO, notification.Receiver)
	require.Equal(t, models.NotificationReferral, notification.Type)
	require.Equal(t, "New case referral for Juan Dela Cruz (2023-00123) - Major violation", notification.Message)

	require.Equal(t, []string{"New Case Referral - Juan Dela Cruz (2023-00123)"}, notifier.subjects)
	require.Equal(t, []string{"GCO"}, notifier.departments)
}

func TestCaseRecordServiceCreateWithoutReferralIsSilent(t *testing.T) {
	store := &stubCaseRecordStore{}
	publisher := &stubPublisher{}
	notifier := &stubNotifier{}
	svc := NewCaseRecordService(store, testAttachmentService(t), publisher, notifier, zap.NewNop())

	_, err := svc.Create(context.Background(), caseParams("No"), nil)
	require.NoError(t, err)
	require.Equal(t, models.No, store.createdInput.Referred)
	require.Nil(t, store.createdInput.ReferralConfirmation)
	require.Empty(t, publisher.inputs)
	require.Empty(t, notifier.subjects)
}

func TestCaseRecordServiceUpdateNotFound(t *testing.T) {
	store := &stubCaseRecordStore{updateErr: sql.ErrNoRows}
	svc := NewCaseRecordService(store, testAttachmentService(t), &stubPublisher{}, &stubNotifier{}, zap.NewNop())

	_, err := svc.Update(context.Background(), 42, caseParams("No"), nil, nil, nil)
	appErr := appErrors.FromError(err)
	require.Equal(t, 404, appErr.Status)
	require.Equal(t, "Case record not found", appErr.Message)
}

func TestCaseRecordServiceUpdateUsesUpdateSubject(t *testing.T) {
	store := &stubCaseRecordStore{}
	notifier := &stubNotifier{}
	svc := NewCaseRecordService(store, testAttachmentService(t), &stubPublisher{}, notifier, zap.NewNop())

	kept := models.AttachmentList{{Filename: "kept.pdf", OriginalName: "kept.pdf", Path: "case-records/kept.pdf"}}
	result, err := svc.Update(context.Background(), 7, caseParams("Yes"), nil, kept, nil)
	require.NoError(t, err)
	require.Equal(t, int64(7), result.CaseID)
	require.Equal(t, []string{"Case Update - Juan Dela Cruz (2023-00123)"}, notifier.subjects)
	require.Len(t, store.updatedInput.Attachments, 1)
}

func TestCaseRecordServiceUpdateRemovesDroppedFiles(t *testing.T) {
	dir := t.TempDir()
	stored := filepath.Join(dir, "case-records", "report-9f2.pdf")
	require.NoError(t, os.MkdirAll(filepath.Dir(stored), 0o755))
	require.NoError(t, os.WriteFile(stored, []byte("%PDF-1.4"), 0o644))

	store := &stubCaseRecordStore{attachments: models.AttachmentList{{
		Filename:     "report-9f2.pdf",
		OriginalName: "report.pdf",
		Path:         "case-records/report-9f2.pdf",
	}}}
	svc := NewCaseRecordService(store, testAttachmentServiceIn(t, dir), &stubPublisher{}, &stubNotifier{}, zap.NewNop())

	_, err := svc.Update(context.Background(), 7, caseParams("No"), nil, nil, []string{"report-9f2.pdf"})
	require.NoError(t, err)
	require.Empty(t, store.updatedInput.Attachments)

	_, err = os.Stat(stored)
	require.True(t, os.IsNotExist(err))
}

func TestCaseRecordServiceDeleteAttachment(t *testing.T) {
	store := &stubCaseRecordStore{attachments: models.AttachmentList{
		{Filename: "a.pdf", OriginalName: "a.pdf", Path: "case-records/a.pdf"},
		{Filename: "b.pdf", OriginalName: "b.pdf", Path: "case-records/b.pdf"},
	}}
	svc := NewCaseRecordService(store, testAttachmentService(t), &stubPublisher{}, &stubNotifier{}, zap.NewNop())

	require.NoError(t, svc.DeleteAttachment(context.Background(), 7, "a.pdf"))
	require.Len(t, store.saved, 1)
	require.Equal(t, "b.pdf", store.saved[0].Filename)
}

func TestCaseRecordServiceDeleteAttachmentErrors(t *testing.T) {
	svc := NewCaseRecordService(&stubCaseRecordStore{}, testAttachmentService(t), &stubPublisher{}, &stubNotifier{}, zap.NewNop())
	err := svc.DeleteAttachment(context.Background(), 7, "a.pdf")
	require.Equal(t, "No attachments found", appErrors.FromError(err).Message)

	svc = NewCaseRecordService(&stubCaseRecordStore{attachments: models.AttachmentList{
		{Filename: "b.pdf", OriginalName: "b.pdf", Path: "case-records/b.pdf"},
	}}, testAttachmentService(t), &stubPublisher{}, &stubNotifier{}, zap.NewNop())
	err = svc.DeleteAttachment(context.Background(), 7, "a.pdf")
	require.Equal(t, "File not found", appErrors.FromError(err).Message)
}
