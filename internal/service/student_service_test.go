package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ccmr-api/internal/models"
	appErrors "github.com/noah-isme/ccmr-api/pkg/errors"
)

type stubStudentStore struct {
	students   []models.Student
	student    *models.Student
	getErr     error
	lastPrefix string
	searches   int
}

func (s *stubStudentStore) SearchByIDPrefix(ctx context.Context, prefix string) ([]models.Student, error) {
	s.searches++
	s.lastPrefix = prefix
	return s.students, nil
}

func (s *stubStudentStore) GetByID(ctx context.Context, idNumber string) (*models.Student, error) {
	return s.student, s.getErr
}

func TestStudentServiceSearchShortQueryReturnsEmpty(t *testing.T) {
	store := &stubStudentStore{}
	svc := NewStudentService(store)

	students, err := svc.SearchByID(context.Background(), "20")
	require.NoError(t, err)
	require.Empty(t, students)
	require.Zero(t, store.searches)
}

func TestStudentServiceSearchTrimsQuery(t *testing.T) {
	store := &stubStudentStore{students: []models.Student{{IDNumber: "2023-00123", Name: "Juan Dela Cruz"}}}
	svc := NewStudentService(store)

	students, err := svc.SearchByID(context.Background(), "  2023  ")
	require.NoError(t, err)
	require.Len(t, students, 1)
	require.Equal(t, "2023", store.lastPrefix)
}

func TestStudentServiceSearchNilResultBecomesEmptySlice(t *testing.T) {
	svc := NewStudentService(&stubStudentStore{})

	students, err := svc.SearchByID(context.Background(), "2023")
	require.NoError(t, err)
	require.NotNil(t, students)
	require.Empty(t, students)
}

func TestStudentServiceGetByIDNotFound(t *testing.T) {
	svc := NewStudentService(&stubStudentStore{getErr: sql.ErrNoRows})

	_, err := svc.GetByID(context.Background(), "9999-99999")
	appErr := appErrors.FromError(err)
	require.Equal(t, 404, appErr.Status)
	require.Equal(t, "Student not found", appErr.Message)
}
