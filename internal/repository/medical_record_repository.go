package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/ccmr-api/internal/models"
)

const medicalColumns = `mr_medical_id, mr_student_id, mr_student_name, mr_student_strand,
       mr_subject, mr_status, mr_grade_level, mr_section, mr_school_year_semester,
       mr_medical_details, mr_additional_remarks, mr_attachments, mr_referred,
       mr_referral_confirmation, mr_is_psychological, mr_is_medical,
       to_char(mr_record_date, 'MM/DD/YYYY') AS date`

// MedicalRecordRepository persists infirmary medical records.
type MedicalRecordRepository struct {
	db *sqlx.DB
}

// NewMedicalRecordRepository constructs the repository.
func NewMedicalRecordRepository(db *sqlx.DB) *MedicalRecordRepository {
	return &MedicalRecordRepository{db: db}
}

// classificationClause renders the condition for a classification filter,
// or an empty string for ALL.
func classificationClause(filter models.MedicalClassFilter) string {
	switch filter {
	case models.FilterMedicalPsychological:
		return "mr_is_medical = 'Yes' AND mr_is_psychological = 'Yes'"
	case models.FilterMedical:
		return "mr_is_medical = 'Yes' AND mr_is_psychological = 'No'"
	case models.FilterPsychological:
		return "mr_is_medical = 'No' AND mr_is_psychological = 'Yes'"
	default:
		return ""
	}
}

// List returns medical records narrowed by the classification filter.
func (r *MedicalRecordRepository) List(ctx context.Context, filter models.MedicalClassFilter) ([]models.MedicalRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM tbl_medical_records", medicalColumns)
	if clause := classificationClause(filter); clause != "" {
		query += " WHERE " + clause
	}
	query += " ORDER BY mr_record_date DESC"

	var records []models.MedicalRecord
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("list medical records: %w", err)
	}
	return records, nil
}

// ListReferred returns referred medical records narrowed by classification.
func (r *MedicalRecordRepository) ListReferred(ctx context.Context, filter models.MedicalClassFilter) ([]models.MedicalRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM tbl_medical_records WHERE mr_referred = 'Yes'", medicalColumns)
	if clause := classificationClause(filter); clause != "" {
		query += " AND " + clause
	}
	query += " ORDER BY mr_record_date DESC"

	var records []models.MedicalRecord
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("list referred medical records: %w", err)
	}
	return records, nil
}

// Search matches the like-pattern across the legacy search columns.
func (r *MedicalRecordRepository) Search(ctx context.Context, pattern string, referredOnly bool, filter models.MedicalClassFilter) ([]models.MedicalRecord, error) {
	conditions := "(mr_student_name ILIKE $1 OR mr_student_id ILIKE $1 OR mr_medical_id::text ILIKE $1 OR mr_school_year_semester ILIKE $1)"
	if referredOnly {
		conditions = "mr_referred = 'Yes' AND (mr_student_name ILIKE $1 OR mr_student_id ILIKE $1 OR mr_medical_id::text ILIKE $1 OR mr_medical_details ILIKE $1 OR mr_school_year_semester ILIKE $1)"
	}
	if clause := classificationClause(filter); clause != "" {
		conditions = "(" + clause + ") AND " + conditions
	}
	query := fmt.Sprintf("SELECT %s FROM tbl_medical_records WHERE %s ORDER BY mr_record_date DESC", medicalColumns, conditions)

	var records []models.MedicalRecord
	if err := r.db.SelectContext(ctx, &records, query, pattern); err != nil {
		return nil, fmt.Errorf("search medical records: %w", err)
	}
	return records, nil
}

// GetByID fetches one medical record.
func (r *MedicalRecordRepository) GetByID(ctx context.Context, id int64) (*models.MedicalRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM tbl_medical_records WHERE mr_medical_id = $1", medicalColumns)
	var record models.MedicalRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// ListByStudent returns a student's medical history narrowed by classification.
func (r *MedicalRecordRepository) ListByStudent(ctx context.Context, studentID string, filter models.MedicalClassFilter) ([]models.MedicalRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM tbl_medical_records WHERE mr_student_id = $1", medicalColumns)
	if clause := classificationClause(filter); clause != "" {
		query += " AND " + clause
	}
	query += " ORDER BY mr_record_date DESC"

	var records []models.MedicalRecord
	if err := r.db.SelectContext(ctx, &records, query, studentID); err != nil {
		return nil, fmt.Errorf("list medical records for student: %w", err)
	}
	return records, nil
}

// Create inserts a new medical record and returns the generated identifier.
func (r *MedicalRecordRepository) Create(ctx context.Context, input models.MedicalRecordInput) (int64, error) {
	const query = `INSERT INTO tbl_medical_records
	(mr_student_id, mr_student_name, mr_student_strand, mr_grade_level, mr_section,
	 mr_school_year_semester, mr_subject, mr_status, mr_medical_details,
	 mr_additional_remarks, mr_referred, mr_referral_confirmation,
	 mr_is_psychological, mr_is_medical, mr_attachments, mr_record_date)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, CURRENT_DATE)
	RETURNING mr_medical_id`

	var id int64
	err := r.db.QueryRowxContext(ctx, query,
		input.StudentID, input.StudentName, input.Strand, input.GradeLevel, input.Section,
		input.SchoolYearSemester, input.Subject, input.Status, input.MedicalDetails,
		input.Remarks, input.Referred, input.ReferralConfirmation,
		input.IsPsychological, input.IsMedical, input.Attachments,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create medical record: %w", err)
	}
	return id, nil
}

// Update overwrites a medical record's mutable columns. The referral
// confirmation is left untouched so an already accepted referral is not
// re-pended by an edit; only Create and the confirmation flow write it.
func (r *MedicalRecordRepository) Update(ctx context.Context, id int64, input models.MedicalRecordInput) error {
	const query = `UPDATE tbl_medical_records SET
	mr_student_id = $1, mr_student_name = $2, mr_student_strand = $3,
	mr_grade_level = $4, mr_section = $5, mr_school_year_semester = $6,
	mr_subject = $7, mr_status = $8, mr_medical_details = $9,
	mr_additional_remarks = $10, mr_referred = $11,
	mr_is_psychological = $12, mr_is_medical = $13, mr_attachments = $14
	WHERE mr_medical_id = $15`

	result, err := r.db.ExecContext(ctx, query,
		input.StudentID, input.StudentName, input.Strand, input.GradeLevel, input.Section,
		input.SchoolYearSemester, input.Subject, input.Status, input.MedicalDetails,
		input.Remarks, input.Referred,
		input.IsPsychological, input.IsMedical, input.Attachments, id,
	)
	if err != nil {
		return fmt.Errorf("update medical record: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check medical record update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// GetAttachments fetches only the attachments column.
func (r *MedicalRecordRepository) GetAttachments(ctx context.Context, id int64) (models.AttachmentList, error) {
	var attachments models.AttachmentList
	if err := r.db.GetContext(ctx, &attachments, "SELECT mr_attachments FROM tbl_medical_records WHERE mr_medical_id = $1", id); err != nil {
		return nil, err
	}
	return attachments, nil
}

// UpdateAttachments replaces the attachments column.
func (r *MedicalRecordRepository) UpdateAttachments(ctx context.Context, id int64, attachments models.AttachmentList) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE tbl_medical_records SET mr_attachments = $1 WHERE mr_medical_id = $2", attachments, id); err != nil {
		return fmt.Errorf("update medical record attachments: %w", err)
	}
	return nil
}

// ListPendingReferrals returns medical records awaiting guidance
// confirmation, shaped for the pending-referral union.
func (r *MedicalRecordRepository) ListPendingReferrals(ctx context.Context) ([]models.PendingReferral, error) {
	const query = `SELECT
	mr_medical_id AS record_id,
	mr_student_id AS student_id,
	mr_student_name AS student_name,
	mr_student_strand AS student_strand,
	mr_grade_level AS student_grade_level,
	mr_section AS student_section,
	mr_school_year_semester AS school_year_semester,
	NULL AS violation_level,
	to_char(mr_record_date, 'MM/DD/YYYY') AS record_date,
	mr_medical_details AS details,
	mr_sender AS sender,
	'medical_record' AS record_type
FROM tbl_medical_records
WHERE mr_referred = 'Yes' AND mr_referral_confirmation = 'Pending'
ORDER BY mr_record_date DESC`

	var referrals []models.PendingReferral
	if err := r.db.SelectContext(ctx, &referrals, query); err != nil {
		return nil, fmt.Errorf("list pending medical referrals: %w", err)
	}
	return referrals, nil
}

// GetPendingSnapshot fetches the student snapshot for a pending referral.
// Returns sql.ErrNoRows when the record is missing or not pending.
func (r *MedicalRecordRepository) GetPendingSnapshot(ctx context.Context, id int64) (*models.MedicalReferralSnapshot, error) {
	const query = `SELECT mr_student_id, mr_student_name, mr_student_strand,
       mr_grade_level, mr_section, mr_school_year_semester,
       mr_medical_details, mr_is_psychological
FROM tbl_medical_records
WHERE mr_medical_id = $1 AND mr_referred = 'Yes' AND mr_referral_confirmation = 'Pending'`

	var snapshot models.MedicalReferralSnapshot
	if err := r.db.GetContext(ctx, &snapshot, query, id); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// ConfirmPending flips a pending referral to Accepted. Only one concurrent
// confirm can match the pending predicate; the loser gets sql.ErrNoRows.
func (r *MedicalRecordRepository) ConfirmPending(ctx context.Context, id int64) error {
	const query = `UPDATE tbl_medical_records SET mr_referral_confirmation = 'Accepted'
WHERE mr_medical_id = $1 AND mr_referred = 'Yes' AND mr_referral_confirmation = 'Pending'`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("confirm medical referral: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check medical referral confirm rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
