package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/noah-isme/ccmr-api/internal/models"
	appErrors "github.com/noah-isme/ccmr-api/pkg/errors"
	"github.com/noah-isme/ccmr-api/pkg/export"
)

// ExportFormat selects the rendering of a student history export.
type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

var exportHeaders = []string{"Record Type", "Record ID", "Date", "Status", "Details", "Referred"}

type exportCaseStore interface {
	ListByStudent(ctx context.Context, studentID string, referredOnly bool) ([]models.CaseRecord, error)
}

type exportMedicalStore interface {
	ListByStudent(ctx context.Context, studentID string, filter models.MedicalClassFilter) ([]models.MedicalRecord, error)
}

type exportCounselingStore interface {
	ListByStudent(ctx context.Context, studentID string, psychOnly bool) ([]models.CounselingRecord, error)
}

// ExportResult is a rendered student history document.
type ExportResult struct {
	Content     []byte
	ContentType string
	Filename    string
}

// ExportService renders a student's aggregated record history across all
// three offices as CSV or PDF.
type ExportService struct {
	students   studentStore
	cases      exportCaseStore
	medical    exportMedicalStore
	counseling exportCounselingStore
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
}

// NewExportService constructs the export service.
func NewExportService(students studentStore, cases exportCaseStore, medical exportMedicalStore, counseling exportCounselingStore) *ExportService {
	return &ExportService{
		students:   students,
		cases:      cases,
		medical:    medical,
		counseling: counseling,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
	}
}

// StudentHistory renders every record tied to the student.
func (s *ExportService) StudentHistory(ctx context.Context, studentID string, format ExportFormat) (*ExportResult, error) {
	if format != ExportCSV && format != ExportPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Unsupported export format")
	}

	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "Student not found")
	}

	dataset, err := s.buildDataset(ctx, studentID)
	if err != nil {
		return nil, err
	}

	title := fmt.Sprintf("Record History - %s (%s)", student.Name, student.IDNumber)
	if format == ExportPDF {
		content, err := s.pdf.Render(*dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, "EXPORT_FAILED", 500, "failed to render export")
		}
		return &ExportResult{
			Content:     content,
			ContentType: "application/pdf",
			Filename:    fmt.Sprintf("records-%s.pdf", studentID),
		}, nil
	}

	content, err := s.csv.Render(*dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, "EXPORT_FAILED", 500, "failed to render export")
	}
	return &ExportResult{
		Content:     content,
		ContentType: "text/csv",
		Filename:    fmt.Sprintf("records-%s.csv", studentID),
	}, nil
}

func (s *ExportService) buildDataset(ctx context.Context, studentID string) (*export.Dataset, error) {
	cases, err := s.cases.ListByStudent(ctx, studentID, false)
	if err != nil {
		return nil, appErrors.Wrap(err, "EXPORT_FAILED", 500, "failed to fetch student case records")
	}
	medical, err := s.medical.ListByStudent(ctx, studentID, models.FilterAll)
	if err != nil {
		return nil, appErrors.Wrap(err, "EXPORT_FAILED", 500, "failed to fetch student medical records")
	}
	counseling, err := s.counseling.ListByStudent(ctx, studentID, false)
	if err != nil {
		return nil, appErrors.Wrap(err, "EXPORT_FAILED", 500, "failed to fetch student counseling records")
	}

	rows := make([]map[string]string, 0, len(cases)+len(medical)+len(counseling))
	for _, record := range cases {
		rows = append(rows, map[string]string{
			"Record Type": "Case",
			"Record ID":   strconv.FormatInt(record.CaseID, 10),
			"Date":        record.Date,
			"Status":      record.Status,
			"Details":     fmt.Sprintf("%s violation: %s", record.ViolationLevel, record.Description),
			"Referred":    string(record.Referred),
		})
	}
	for _, record := range medical {
		rows = append(rows, map[string]string{
			"Record Type": "Medical",
			"Record ID":   strconv.FormatInt(record.MedicalID, 10),
			"Date":        record.Date,
			"Status":      record.Status,
			"Details":     record.MedicalDetails,
			"Referred":    string(record.Referred),
		})
	}
	for _, record := range counseling {
		date := ""
		if record.Date != nil {
			date = *record.Date
		}
		rows = append(rows, map[string]string{
			"Record Type": "Counseling",
			"Record ID":   strconv.FormatInt(record.RecordID, 10),
			"Date":        date,
			"Status":      string(record.Status),
			"Details":     record.Concern,
			"Referred":    "",
		})
	}

	return &export.Dataset{Headers: exportHeaders, Rows: rows}, nil
}
