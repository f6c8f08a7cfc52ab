package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ccmr-api/internal/models"
)

func TestUserRepositoryFindByEmail(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	rows := sqlmock.NewRows([]string{"u_id", "u_email", "u_password", "u_name", "u_type", "u_department"}).
		AddRow(int64(4), "counselor@adzu.edu.ph", "$2a$10$hash", "Ana Reyes", "GCO", "Guidance")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE u_email = $1")).
		WithArgs("counselor@adzu.edu.ph").
		WillReturnRows(rows)

	user, err := repo.FindByEmail(context.Background(), "counselor@adzu.edu.ph")
	require.NoError(t, err)
	require.Equal(t, models.DepartmentGCO, user.Type)
	require.Equal(t, "Guidance Counseling Office", user.DepartmentName())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryFindByEmailNoRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE u_email = $1")).
		WithArgs("nobody@adzu.edu.ph").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByEmail(context.Background(), "nobody@adzu.edu.ph")
	require.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}
