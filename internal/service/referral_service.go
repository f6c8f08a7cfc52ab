package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/ccmr-api/internal/models"
	"github.com/noah-isme/ccmr-api/internal/repository"
	appErrors "github.com/noah-isme/ccmr-api/pkg/errors"
)

type caseReferralStore interface {
	ListPendingReferrals(ctx context.Context) ([]models.PendingReferral, error)
	GetPendingSnapshot(ctx context.Context, id int64) (*models.CaseReferralSnapshot, error)
	ConfirmPending(ctx context.Context, id int64) error
}

type medicalReferralStore interface {
	ListPendingReferrals(ctx context.Context) ([]models.PendingReferral, error)
	GetPendingSnapshot(ctx context.Context, id int64) (*models.MedicalReferralSnapshot, error)
	ConfirmPending(ctx context.Context, id int64) error
}

type counselingCreator interface {
	Create(ctx context.Context, input models.CounselingRecordInput) (int64, error)
}

// notificationPublisher persists an in-app notification and keeps the unread
// counters coherent. Implemented by NotificationService.
type notificationPublisher interface {
	Publish(ctx context.Context, input repository.NotificationInput) error
}

// officeNotifier queues an email to an office mailbox.
type officeNotifier interface {
	Notify(department, subject string, body template.HTML)
}

// PendingReferrals is the union listing with per-source counts.
type PendingReferrals struct {
	Referrals    []models.PendingReferral
	CaseCount    int
	MedicalCount int
}

// ReferralService owns the cross-office referral workflow: pending listings
// and the guidance-side confirmation that derives a counseling record.
type ReferralService struct {
	cases         caseReferralStore
	medical       medicalReferralStore
	counseling    counselingCreator
	notifications notificationPublisher
	mailer        officeNotifier
	metrics       *MetricsService
	logger        *zap.Logger
}

// NewReferralService constructs the referral workflow service.
func NewReferralService(cases caseReferralStore, medical medicalReferralStore, counseling counselingCreator, notifications notificationPublisher, mailer officeNotifier, metrics *MetricsService, logger *zap.Logger) *ReferralService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReferralService{
		cases:         cases,
		medical:       medical,
		counseling:    counseling,
		notifications: notifications,
		mailer:        mailer,
		metrics:       metrics,
		logger:        logger,
	}
}

// ListPending returns every referral still awaiting guidance confirmation,
// case records first.
func (s *ReferralService) ListPending(ctx context.Context) (*PendingReferrals, error) {
	caseReferrals, err := s.cases.ListPendingReferrals(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, "PENDING_REFERRALS_FAILED", 500, "failed to fetch pending referrals")
	}
	medicalReferrals, err := s.medical.ListPendingReferrals(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, "PENDING_REFERRALS_FAILED", 500, "failed to fetch pending referrals")
	}

	referrals := make([]models.PendingReferral, 0, len(caseReferrals)+len(medicalReferrals))
	referrals = append(referrals, caseReferrals...)
	referrals = append(referrals, medicalReferrals...)

	return &PendingReferrals{
		Referrals:    referrals,
		CaseCount:    len(caseReferrals),
		MedicalCount: len(medicalReferrals),
	}, nil
}

// ConfirmCase accepts a pending case referral and derives the first
// counseling session from the referral snapshot. The acceptance commits even
// when the notification, email, or counseling insert fails afterwards; a
// failed counseling insert is reported through the result's Warning.
func (s *ReferralService) ConfirmCase(ctx context.Context, id int64) (*models.ConfirmResult, error) {
	snapshot, err := s.cases.GetPendingSnapshot(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrAlreadyProcessed, "Case record referral not found or already processed")
		}
		return nil, appErrors.Wrap(err, "CONFIRM_FAILED", 500, "failed to confirm case referral")
	}

	if err := s.cases.ConfirmPending(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrAlreadyProcessed, "Case record referral not found or already processed")
		}
		return nil, appErrors.Wrap(err, "CONFIRM_FAILED", 500, "failed to confirm case referral")
	}

	s.metrics.CountReferralConfirmed(string(models.RefCaseRecord))
	s.publishAcceptance(ctx, id, models.RefCaseRecord, snapshot.StudentName, snapshot.StudentID)

	input := models.CounselingRecordInput{
		OriginCaseID:       &id,
		SessionNumber:      1,
		StudentID:          snapshot.StudentID,
		StudentName:        snapshot.StudentName,
		Strand:             snapshot.Strand,
		GradeLevel:         snapshot.GradeLevel,
		Section:            snapshot.Section,
		SchoolYearSemester: snapshot.SchoolYearSemester,
		Status:             models.CounselingToSchedule,
		Concern:            "",
		PsychCondition:     models.PsychUnconfirmed,
	}

	counselingID, err := s.counseling.Create(ctx, input)
	if err != nil {
		s.logger.Warn("counseling record creation failed after case confirm",
			zap.Int64("case_id", id), zap.Error(err))
		return &models.ConfirmResult{
			Message: "Case referral confirmed successfully, but failed to create counseling record",
			Warning: err.Error(),
		}, nil
	}

	return &models.ConfirmResult{
		Message:            "Case referral confirmed and counseling record created successfully",
		CounselingRecordID: counselingID,
	}, nil
}

// ConfirmMedical accepts a pending medical referral. The derived counseling
// record carries the record's psychological flag forward as a confirmed
// YES or NO condition.
func (s *ReferralService) ConfirmMedical(ctx context.Context, id int64) (*models.ConfirmResult, error) {
	snapshot, err := s.medical.GetPendingSnapshot(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrAlreadyProcessed, "Medical record referral not found or already processed")
		}
		return nil, appErrors.Wrap(err, "CONFIRM_FAILED", 500, "failed to confirm medical referral")
	}

	if err := s.medical.ConfirmPending(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrAlreadyProcessed, "Medical record referral not found or already processed")
		}
		return nil, appErrors.Wrap(err, "CONFIRM_FAILED", 500, "failed to confirm medical referral")
	}

	s.metrics.CountReferralConfirmed(string(models.RefMedicalRecord))
	s.publishAcceptance(ctx, id, models.RefMedicalRecord, snapshot.StudentName, snapshot.StudentID)

	psych := models.PsychNo
	if snapshot.IsPsychological == models.Yes {
		psych = models.PsychYes
	}

	input := models.CounselingRecordInput{
		OriginMedicalID:    &id,
		SessionNumber:      1,
		StudentID:          snapshot.StudentID,
		StudentName:        snapshot.StudentName,
		Strand:             snapshot.Strand,
		GradeLevel:         snapshot.GradeLevel,
		Section:            snapshot.Section,
		SchoolYearSemester: snapshot.SchoolYearSemester,
		Status:             models.CounselingToSchedule,
		Concern:            "",
		PsychCondition:     psych,
	}

	counselingID, err := s.counseling.Create(ctx, input)
	if err != nil {
		s.logger.Warn("counseling record creation failed after medical confirm",
			zap.Int64("medical_id", id), zap.Error(err))
		return &models.ConfirmResult{
			Message: "Medical referral confirmed successfully, but failed to create counseling record",
			Warning: err.Error(),
		}, nil
	}

	return &models.ConfirmResult{
		Message:            "Medical referral confirmed and counseling record created successfully",
		CounselingRecordID: counselingID,
	}, nil
}

// publishAcceptance notifies the referring office that guidance accepted the
// referral. Failures are logged and never block the confirmation.
func (s *ReferralService) publishAcceptance(ctx context.Context, id int64, recordType models.RecordRefType, studentName, studentID string) {
	kind := "Case"
	receiver := models.DepartmentOPD
	if recordType == models.RefMedicalRecord {
		kind = "Medical"
		receiver = models.DepartmentINF
	}

	message := fmt.Sprintf("%s referral for %s (%s) has been accepted by GCO", kind, studentName, studentID)
	if s.notifications != nil {
		err := s.notifications.Publish(ctx, repository.NotificationInput{
			Sender:            models.DepartmentGCO,
			Receiver:          receiver,
			Type:              models.NotificationAcceptance,
			Message:           message,
			RelatedRecordID:   &id,
			RelatedRecordType: &recordType,
		})
		if err != nil {
			s.logger.Warn("acceptance notification failed",
				zap.Int64("record_id", id), zap.String("record_type", string(recordType)), zap.Error(err))
		}
	}

	if s.mailer != nil {
		subject := fmt.Sprintf("%s Referral Accepted - %s (%s)", kind, studentName, studentID)
		body := template.HTML(fmt.Sprintf(
			"<p>The %s referral for <strong>%s (%s)</strong> has been accepted by the Guidance Counseling Office.</p><p>A counseling session has been queued for scheduling.</p>",
			strings.ToLower(kind), template.HTMLEscapeString(studentName), template.HTMLEscapeString(studentID)))
		s.mailer.Notify(string(receiver), subject, body)
	}
}
