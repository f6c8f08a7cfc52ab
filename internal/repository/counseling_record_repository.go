package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/ccmr-api/internal/models"
)

const counselingColumns = `cor_record_id, cor_origin_medical_id, cor_origin_case_id,
       cor_session_number, cor_student_id_number, cor_student_name, cor_student_strand,
       cor_student_grade_level, cor_student_section, cor_school_year_semester, cor_status,
       to_char(cor_date, 'MM/DD/YYYY') AS date,
       to_char(cor_time, 'HH24:MI') AS time,
       cor_general_concern, cor_additional_remarks, cor_attachments, cor_is_psychological_condition`

// detail view keeps the date in input format so edit forms round-trip.
const counselingDetailColumns = `cor_record_id, cor_origin_medical_id, cor_origin_case_id,
       cor_session_number, cor_student_id_number, cor_student_name, cor_student_strand,
       cor_student_grade_level, cor_student_section, cor_school_year_semester, cor_status,
       to_char(cor_date, 'YYYY-MM-DD') AS date,
       to_char(cor_time, 'HH24:MI') AS time,
       cor_general_concern, cor_additional_remarks, cor_attachments, cor_is_psychological_condition`

// CounselingRecordRepository persists guidance counseling records.
type CounselingRecordRepository struct {
	db *sqlx.DB
}

// NewCounselingRecordRepository constructs the repository.
func NewCounselingRecordRepository(db *sqlx.DB) *CounselingRecordRepository {
	return &CounselingRecordRepository{db: db}
}

// List returns counseling records, optionally narrowed to one status.
func (r *CounselingRecordRepository) List(ctx context.Context, status models.CounselingStatus) ([]models.CounselingRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM tbl_counseling_records", counselingColumns)
	args := []interface{}{}
	if status != "" {
		query += " WHERE cor_status = $1"
		args = append(args, status)
	}
	query += " ORDER BY cor_record_id DESC"

	var records []models.CounselingRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list counseling records: %w", err)
	}
	return records, nil
}

// Search matches the like-pattern across the legacy search columns.
func (r *CounselingRecordRepository) Search(ctx context.Context, pattern string) ([]models.CounselingRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM tbl_counseling_records
WHERE cor_student_name ILIKE $1
   OR cor_student_id_number ILIKE $1
   OR cor_record_id::text ILIKE $1
   OR cor_general_concern ILIKE $1
   OR cor_school_year_semester ILIKE $1
   OR cor_status ILIKE $1
ORDER BY cor_record_id DESC`, counselingColumns)

	var records []models.CounselingRecord
	if err := r.db.SelectContext(ctx, &records, query, pattern); err != nil {
		return nil, fmt.Errorf("search counseling records: %w", err)
	}
	return records, nil
}

// GetByID fetches one counseling record in edit-form date format.
func (r *CounselingRecordRepository) GetByID(ctx context.Context, id int64) (*models.CounselingRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM tbl_counseling_records WHERE cor_record_id = $1", counselingDetailColumns)
	var record models.CounselingRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// ListByStudent returns a student's counseling history, optionally only
// sessions tied to a psychological condition.
func (r *CounselingRecordRepository) ListByStudent(ctx context.Context, studentID string, psychOnly bool) ([]models.CounselingRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM tbl_counseling_records WHERE cor_student_id_number = $1", counselingColumns)
	if psychOnly {
		query += " AND cor_is_psychological_condition = 'YES'"
	}
	query += " ORDER BY cor_record_id DESC"

	var records []models.CounselingRecord
	if err := r.db.SelectContext(ctx, &records, query, studentID); err != nil {
		return nil, fmt.Errorf("list counseling records for student: %w", err)
	}
	return records, nil
}

// ListPsychological returns the infirmary view of counseling records,
// confirmed psychological sessions only.
func (r *CounselingRecordRepository) ListPsychological(ctx context.Context) ([]models.CounselingRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM tbl_counseling_records WHERE cor_is_psychological_condition = 'YES' ORDER BY cor_record_id DESC", counselingColumns)

	var records []models.CounselingRecord
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("list psychological counseling records: %w", err)
	}
	return records, nil
}

// Create inserts a counseling record and returns the generated identifier.
func (r *CounselingRecordRepository) Create(ctx context.Context, input models.CounselingRecordInput) (int64, error) {
	const query = `INSERT INTO tbl_counseling_records
	(cor_origin_medical_id, cor_origin_case_id, cor_session_number,
	 cor_student_id_number, cor_student_name, cor_student_strand, cor_student_grade_level,
	 cor_student_section, cor_school_year_semester, cor_status, cor_date, cor_time,
	 cor_general_concern, cor_additional_remarks, cor_attachments, cor_is_psychological_condition)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	RETURNING cor_record_id`

	var id int64
	err := r.db.QueryRowxContext(ctx, query,
		input.OriginMedicalID, input.OriginCaseID, input.SessionNumber,
		input.StudentID, input.StudentName, input.Strand, input.GradeLevel,
		input.Section, input.SchoolYearSemester, input.Status, input.Date, input.Time,
		input.Concern, input.Remarks, input.Attachments, input.PsychCondition,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create counseling record: %w", err)
	}
	return id, nil
}

// Update overwrites a counseling record's mutable columns.
func (r *CounselingRecordRepository) Update(ctx context.Context, id int64, input models.CounselingRecordInput) error {
	const query = `UPDATE tbl_counseling_records SET
	cor_session_number = $1, cor_student_id_number = $2, cor_student_name = $3,
	cor_student_strand = $4, cor_student_grade_level = $5, cor_student_section = $6,
	cor_school_year_semester = $7, cor_status = $8, cor_date = $9, cor_time = $10,
	cor_general_concern = $11, cor_additional_remarks = $12, cor_attachments = $13,
	cor_is_psychological_condition = $14
	WHERE cor_record_id = $15`

	result, err := r.db.ExecContext(ctx, query,
		input.SessionNumber, input.StudentID, input.StudentName,
		input.Strand, input.GradeLevel, input.Section,
		input.SchoolYearSemester, input.Status, input.Date, input.Time,
		input.Concern, input.Remarks, input.Attachments,
		input.PsychCondition, id,
	)
	if err != nil {
		return fmt.Errorf("update counseling record: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check counseling record update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// GetAttachments fetches only the attachments column.
func (r *CounselingRecordRepository) GetAttachments(ctx context.Context, id int64) (models.AttachmentList, error) {
	var attachments models.AttachmentList
	if err := r.db.GetContext(ctx, &attachments, "SELECT cor_attachments FROM tbl_counseling_records WHERE cor_record_id = $1", id); err != nil {
		return nil, err
	}
	return attachments, nil
}

// UpdateAttachments replaces the attachments column.
func (r *CounselingRecordRepository) UpdateAttachments(ctx context.Context, id int64, attachments models.AttachmentList) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE tbl_counseling_records SET cor_attachments = $1 WHERE cor_record_id = $2", attachments, id); err != nil {
		return fmt.Errorf("update counseling record attachments: %w", err)
	}
	return nil
}
