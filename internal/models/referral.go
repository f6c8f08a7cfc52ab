package models

// PendingReferral is one row of the pending-referral union across case and
// medical records, tagged by RecordType. Field names follow the legacy
// column aliases consumed by the front end.
type PendingReferral struct {
	RecordID           int64           `db:"record_id" json:"record_id"`
	StudentID          string          `db:"student_id" json:"student_id"`
	StudentName        string          `db:"student_name" json:"student_name"`
	Strand             string          `db:"student_strand" json:"student_strand"`
	GradeLevel         string          `db:"student_grade_level" json:"student_grade_level"`
	Section            string          `db:"student_section" json:"student_section"`
	SchoolYearSemester *string         `db:"school_year_semester" json:"school_year_semester"`
	ViolationLevel     *ViolationLevel `db:"violation_level" json:"violation_level"`
	RecordDate         string          `db:"record_date" json:"record_date"`
	Details            string          `db:"details" json:"details"`
	Sender             string          `db:"sender" json:"sender"`
	RecordType         RecordRefType   `db:"record_type" json:"record_type"`
}

// ConfirmResult reports the outcome of a referral confirmation. A set
// Warning means the confirmation committed but the counseling record
// insert failed; the referral is never rolled back for that.
type ConfirmResult struct {
	Message            string
	CounselingRecordID int64
	Warning            string
}
