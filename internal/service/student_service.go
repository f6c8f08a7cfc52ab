package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/noah-isme/ccmr-api/internal/models"
	appErrors "github.com/noah-isme/ccmr-api/pkg/errors"
)

// prefixes shorter than this return no rows instead of scanning the table
const minSearchPrefix = 3

type studentStore interface {
	SearchByIDPrefix(ctx context.Context, prefix string) ([]models.Student, error)
	GetByID(ctx context.Context, idNumber string) (*models.Student, error)
}

// StudentService serves the student master list lookups behind the record
// entry forms.
type StudentService struct {
	repo studentStore
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentStore) *StudentService {
	return &StudentService{repo: repo}
}

// SearchByID returns students whose ID number starts with the query.
func (s *StudentService) SearchByID(ctx context.Context, query string) ([]models.Student, error) {
	query = strings.TrimSpace(query)
	if len(query) < minSearchPrefix {
		return []models.Student{}, nil
	}

	students, err := s.repo.SearchByIDPrefix(ctx, query)
	if err != nil {
		return nil, appErrors.Wrap(err, "STUDENT_SEARCH_FAILED", 500, "failed to search students")
	}
	if students == nil {
		students = []models.Student{}
	}
	return students, nil
}

// GetByID fetches one student by exact ID number.
func (s *StudentService) GetByID(ctx context.Context, idNumber string) (*models.Student, error) {
	student, err := s.repo.GetByID(ctx, idNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Student not found")
		}
		return nil, appErrors.Wrap(err, "STUDENT_LOOKUP_FAILED", 500, "failed to fetch student")
	}
	return student, nil
}
