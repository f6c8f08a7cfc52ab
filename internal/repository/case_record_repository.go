package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/ccmr-api/internal/models"
)

const caseColumns = `cr_case_id, cr_student_id, cr_student_name, cr_student_strand,
       cr_student_grade_level, cr_student_section, cr_school_year_semester,
       cr_violation_level, cr_status, to_char(cr_case_date, 'MM/DD/YYYY') AS date,
       cr_referred, cr_referral_confirmation, cr_general_description,
       cr_additional_remarks, cr_attachments`

// CaseRecordRepository persists disciplinary case records.
type CaseRecordRepository struct {
	db *sqlx.DB
}

// NewCaseRecordRepository constructs the repository.
func NewCaseRecordRepository(db *sqlx.DB) *CaseRecordRepository {
	return &CaseRecordRepository{db: db}
}

// List returns all case records, newest case number first.
func (r *CaseRecordRepository) List(ctx context.Context) ([]models.CaseRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM tbl_case_records ORDER BY cr_case_id DESC", caseColumns)
	var records []models.CaseRecord
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("list case records: %w", err)
	}
	return records, nil
}

// ListReferred returns referred case records only.
func (r *CaseRecordRepository) ListReferred(ctx context.Context) ([]models.CaseRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM tbl_case_records WHERE cr_referred = 'Yes' ORDER BY cr_case_id DESC", caseColumns)
	var records []models.CaseRecord
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("list referred case records: %w", err)
	}
	return records, nil
}

// Search matches the like-pattern across the legacy search columns.
func (r *CaseRecordRepository) Search(ctx context.Context, pattern string, referredOnly bool) ([]models.CaseRecord, error) {
	referredClause := ""
	if referredOnly {
		referredClause = "cr_referred = 'Yes' AND "
	}
	query := fmt.Sprintf(`SELECT %s FROM tbl_case_records
WHERE %s(cr_student_id ILIKE $1 OR cr_student_name ILIKE $1 OR cr_student_strand ILIKE $1
	OR cr_violation_level ILIKE $1 OR cr_status ILIKE $1 OR cr_school_year_semester ILIKE $1)
ORDER BY cr_case_id DESC`, caseColumns, referredClause)

	var records []models.CaseRecord
	if err := r.db.SelectContext(ctx, &records, query, pattern); err != nil {
		return nil, fmt.Errorf("search case records: %w", err)
	}
	return records, nil
}

// GetByID fetches one case record.
func (r *CaseRecordRepository) GetByID(ctx context.Context, id int64) (*models.CaseRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM tbl_case_records WHERE cr_case_id = $1", caseColumns)
	var record models.CaseRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// ListByStudent returns a student's case history.
func (r *CaseRecordRepository) ListByStudent(ctx context.Context, studentID string, referredOnly bool) ([]models.CaseRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM tbl_case_records WHERE cr_student_id = $1", caseColumns)
	if referredOnly {
		query += " AND cr_referred = 'Yes'"
	}
	query += " ORDER BY cr_case_id DESC"

	var records []models.CaseRecord
	if err := r.db.SelectContext(ctx, &records, query, studentID); err != nil {
		return nil, fmt.Errorf("list case records for student: %w", err)
	}
	return records, nil
}

// Create inserts a new case record and returns the generated case number.
func (r *CaseRecordRepository) Create(ctx context.Context, input models.CaseRecordInput) (int64, error) {
	const query = `INSERT INTO tbl_case_records
	(cr_student_id, cr_student_name, cr_student_strand, cr_student_grade_level,
	 cr_student_section, cr_school_year_semester, cr_violation_level, cr_status,
	 cr_referred, cr_referral_confirmation, cr_general_description,
	 cr_additional_remarks, cr_attachments, cr_case_date)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
	RETURNING cr_case_id`

	var id int64
	err := r.db.QueryRowxContext(ctx, query,
		input.StudentID, input.StudentName, input.Strand, input.GradeLevel,
		input.Section, input.SchoolYearSemester, input.ViolationLevel, input.Status,
		input.Referred, input.ReferralConfirmation, input.Description,
		input.Remarks, input.Attachments,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create case record: %w", err)
	}
	return id, nil
}

// Update overwrites a case record's mutable columns.
func (r *CaseRecordRepository) Update(ctx context.Context, id int64, input models.CaseRecordInput) error {
	const query = `UPDATE tbl_case_records SET
	cr_student_id = $1, cr_student_name = $2, cr_student_strand = $3,
	cr_student_grade_level = $4, cr_student_section = $5, cr_school_year_semester = $6,
	cr_violation_level = $7, cr_status = $8, cr_referred = $9,
	cr_referral_confirmation = $10, cr_general_description = $11,
	cr_additional_remarks = $12, cr_attachments = $13
	WHERE cr_case_id = $14`

	result, err := r.db.ExecContext(ctx, query,
		input.StudentID, input.StudentName, input.Strand, input.GradeLevel,
		input.Section, input.SchoolYearSemester, input.ViolationLevel, input.Status,
		input.Referred, input.ReferralConfirmation, input.Description,
		input.Remarks, input.Attachments, id,
	)
	if err != nil {
		return fmt.Errorf("update case record: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check case record update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// GetAttachments fetches only the attachments column.
func (r *CaseRecordRepository) GetAttachments(ctx context.Context, id int64) (models.AttachmentList, error) {
	var attachments models.AttachmentList
	if err := r.db.GetContext(ctx, &attachments, "SELECT cr_attachments FROM tbl_case_records WHERE cr_case_id = $1", id); err != nil {
		return nil, err
	}
	return attachments, nil
}

// UpdateAttachments replaces the attachments column.
func (r *CaseRecordRepository) UpdateAttachments(ctx context.Context, id int64, attachments models.AttachmentList) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE tbl_case_records SET cr_attachments = $1 WHERE cr_case_id = $2", attachments, id); err != nil {
		return fmt.Errorf("update case record attachments: %w", err)
	}
	return nil
}

// ListPendingReferrals returns case records awaiting guidance confirmation,
// shaped for the pending-referral union.
func (r *CaseRecordRepository) ListPendingReferrals(ctx context.Context) ([]models.PendingReferral, error) {
	const query = `SELECT
	cr_case_id AS record_id,
	cr_student_id AS student_id,
	cr_student_name AS student_name,
	cr_student_strand AS student_strand,
	cr_student_grade_level AS student_grade_level,
	cr_student_section AS student_section,
	cr_school_year_semester AS school_year_semester,
	cr_violation_level AS violation_level,
	to_char(cr_case_date, 'MM/DD/YYYY') AS record_date,
	cr_general_description AS details,
	cr_sender AS sender,
	'case_record' AS record_type
FROM tbl_case_records
WHERE cr_referred = 'Yes' AND cr_referral_confirmation = 'Pending'
ORDER BY cr_case_date DESC`

	var referrals []models.PendingReferral
	if err := r.db.SelectContext(ctx, &referrals, query); err != nil {
		return nil, fmt.Errorf("list pending case referrals: %w", err)
	}
	return referrals, nil
}

// GetPendingSnapshot fetches the student snapshot for a pending referral.
// Returns sql.ErrNoRows when the record is missing or not pending.
func (r *CaseRecordRepository) GetPendingSnapshot(ctx context.Context, id int64) (*models.CaseReferralSnapshot, error) {
	const query = `SELECT cr_student_id, cr_student_name, cr_student_strand,
       cr_student_grade_level, cr_student_section, cr_school_year_semester,
       cr_general_description
FROM tbl_case_records
WHERE cr_case_id = $1 AND cr_referred = 'Yes' AND cr_referral_confirmation = 'Pending'`

	var snapshot models.CaseReferralSnapshot
	if err := r.db.GetContext(ctx, &snapshot, query, id); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// ConfirmPending flips a pending referral to Accepted. The WHERE predicate
// repeats the pending precondition so a concurrent double-confirm loses the
// affected-row check and surfaces sql.ErrNoRows.
func (r *CaseRecordRepository) ConfirmPending(ctx context.Context, id int64) error {
	const query = `UPDATE tbl_case_records SET cr_referral_confirmation = 'Accepted'
WHERE cr_case_id = $1 AND cr_referred = 'Yes' AND cr_referral_confirmation = 'Pending'`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("confirm case referral: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check case referral confirm rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
