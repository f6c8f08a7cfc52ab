package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/ccmr-api/internal/models"
)

// searchLimit caps autocomplete result sets.
const searchLimit = 30

// StudentRepository reads the student master list.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// SearchByIDPrefix returns students whose ID number starts with the prefix.
func (r *StudentRepository) SearchByIDPrefix(ctx context.Context, prefix string) ([]models.Student, error) {
	const query = `SELECT sd_id_number, sd_student_name, sd_strand,
       sd_school_year_semester, sd_grade_level, sd_section
FROM tbl_student_data
WHERE sd_id_number LIKE $1
ORDER BY sd_id_number
LIMIT $2`

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, prefix+"%", searchLimit); err != nil {
		return nil, fmt.Errorf("search students: %w", err)
	}
	return students, nil
}

// GetByID fetches one student by exact ID number.
func (r *StudentRepository) GetByID(ctx context.Context, idNumber string) (*models.Student, error) {
	const query = `SELECT sd_id_number, sd_student_name, sd_strand,
       sd_school_year_semester, sd_grade_level, sd_section
FROM tbl_student_data
WHERE sd_id_number = $1`

	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, idNumber); err != nil {
		return nil, err
	}
	return &student, nil
}
