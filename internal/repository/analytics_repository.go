package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/ccmr-api/internal/models"
)

// AnalyticsRepository computes per-office dashboard summaries.
type AnalyticsRepository struct {
	db *sqlx.DB
}

// NewAnalyticsRepository constructs the repository.
func NewAnalyticsRepository(db *sqlx.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// OPDSummary counts case records by violation level and status.
func (r *AnalyticsRepository) OPDSummary(ctx context.Context) (*models.OPDAnalytics, error) {
	const query = `SELECT
	COUNT(*) FILTER (WHERE cr_violation_level = 'Minor') AS minor,
	COUNT(*) FILTER (WHERE cr_violation_level = 'Major') AS major,
	COUNT(*) FILTER (WHERE cr_violation_level = 'Serious') AS serious,
	COUNT(*) FILTER (WHERE cr_status = 'Ongoing') AS ongoing,
	COUNT(*) FILTER (WHERE cr_status = 'Resolved') AS resolved
FROM tbl_case_records`

	var summary models.OPDAnalytics
	if err := r.db.GetContext(ctx, &summary, query); err != nil {
		return nil, fmt.Errorf("summarize case records: %w", err)
	}
	return &summary, nil
}

// GCOSummary counts counseling records by scheduling status.
func (r *AnalyticsRepository) GCOSummary(ctx context.Context) (*models.GCOAnalytics, error) {
	const query = `SELECT
	COUNT(*) FILTER (WHERE cor_status = 'SCHEDULED') AS scheduled,
	COUNT(*) FILTER (WHERE cor_status = 'TO SCHEDULE') AS to_schedule,
	COUNT(*) FILTER (WHERE cor_status = 'DONE') AS done
FROM tbl_counseling_records`

	var summary models.GCOAnalytics
	if err := r.db.GetContext(ctx, &summary, query); err != nil {
		return nil, fmt.Errorf("summarize counseling records: %w", err)
	}
	return &summary, nil
}

// INFSummary counts medical records by classification and status.
func (r *AnalyticsRepository) INFSummary(ctx context.Context) (*models.INFAnalytics, error) {
	const query = `SELECT
	COUNT(*) FILTER (WHERE mr_is_medical = 'Yes') AS medical,
	COUNT(*) FILTER (WHERE mr_is_psychological = 'Yes') AS psychological,
	COUNT(*) FILTER (WHERE mr_status = 'Ongoing') AS ongoing,
	COUNT(*) FILTER (WHERE mr_status = 'Treated') AS treated,
	COUNT(*) FILTER (WHERE mr_status = 'For Treatment') AS for_treatment
FROM tbl_medical_records`

	var summary models.INFAnalytics
	if err := r.db.GetContext(ctx, &summary, query); err != nil {
		return nil, fmt.Errorf("summarize medical records: %w", err)
	}
	return &summary, nil
}
