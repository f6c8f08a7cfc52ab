package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ccmr-api/internal/models"
)

var medicalRowColumns = []string{
	"mr_medical_id", "mr_student_id", "mr_student_name", "mr_student_strand",
	"mr_subject", "mr_status", "mr_grade_level", "mr_section", "mr_school_year_semester",
	"mr_medical_details", "mr_additional_remarks", "mr_attachments", "mr_referred",
	"mr_referral_confirmation", "mr_is_psychological", "mr_is_medical", "date",
}

func TestMedicalRecordRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewMedicalRecordRepository(db)
	rows := sqlmock.NewRows(medicalRowColumns).
		AddRow(int64(4), "2023-00789", "Pedro Reyes", "HUMSS",
			"Checkup", "Treated", "12", "C", nil,
			"Fever and cough", "", nil, "No", nil, "No", "Yes", "03/10/2026")
	mock.ExpectQuery(regexp.QuoteMeta("mr_is_medical = 'Yes' AND mr_is_psychological = 'No'")).
		WillReturnRows(rows)

	records, err := repo.List(context.Background(), models.FilterMedical)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, models.Yes, records[0].IsMedical)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMedicalRecordRepositoryListAllHasNoFilter(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewMedicalRecordRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("FROM tbl_medical_records ORDER BY mr_record_date DESC")).
		WillReturnRows(sqlmock.NewRows(medicalRowColumns))

	records, err := repo.List(context.Background(), models.FilterAll)
	require.NoError(t, err)
	require.Empty(t, records)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMedicalRecordRepositoryCreateReturnsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewMedicalRecordRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO tbl_medical_records")).
		WillReturnRows(sqlmock.NewRows([]string{"mr_medical_id"}).AddRow(int64(11)))

	id, err := repo.Create(context.Background(), models.MedicalRecordInput{
		StudentID:       "2023-00789",
		StudentName:     "Pedro Reyes",
		IsMedical:       models.Yes,
		IsPsychological: models.No,
	})
	require.NoError(t, err)
	require.Equal(t, int64(11), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMedicalRecordRepositoryUpdateKeepsConfirmation(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewMedicalRecordRepository(db)
	mock.ExpectExec(`UPDATE tbl_medical_records SET[\s\S]*mr_referred = \$11,\s*mr_is_psychological = \$12`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	pending := models.ReferralPending
	err := repo.Update(context.Background(), 4, models.MedicalRecordInput{
		StudentID:            "2023-00789",
		StudentName:          "Pedro Reyes",
		Referred:             models.Yes,
		ReferralConfirmation: &pending,
		IsMedical:            models.Yes,
		IsPsychological:      models.No,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMedicalRecordRepositoryGetPendingSnapshot(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewMedicalRecordRepository(db)
	rows := sqlmock.NewRows([]string{
		"mr_student_id", "mr_student_name", "mr_student_strand",
		"mr_grade_level", "mr_section", "mr_school_year_semester",
		"mr_medical_details", "mr_is_psychological",
	}).AddRow("2023-00789", "Pedro Reyes", "HUMSS", "12", "C", nil, "Recurring anxiety", "Yes")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE mr_medical_id = $1 AND mr_referred = 'Yes' AND mr_referral_confirmation = 'Pending'")).
		WithArgs(int64(4)).
		WillReturnRows(rows)

	snapshot, err := repo.GetPendingSnapshot(context.Background(), 4)
	require.NoError(t, err)
	require.Equal(t, models.Yes, snapshot.IsPsychological)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMedicalRecordRepositoryConfirmPendingTwice(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewMedicalRecordRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("SET mr_referral_confirmation = 'Accepted'")).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.ConfirmPending(context.Background(), 4))

	mock.ExpectExec(regexp.QuoteMeta("SET mr_referral_confirmation = 'Accepted'")).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.ConfirmPending(context.Background(), 4)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
