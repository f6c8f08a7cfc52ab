package models

// CaseRecord is a disciplinary case owned by the OPD until referred.
// JSON tags mirror the legacy API field names; db tags mirror the shared
// schema's cr_ column prefix. The date column is formatted in SQL.
type CaseRecord struct {
	CaseID               int64                 `db:"cr_case_id" json:"caseNo"`
	StudentID            string                `db:"cr_student_id" json:"id"`
	StudentName          string                `db:"cr_student_name" json:"name"`
	Strand               string                `db:"cr_student_strand" json:"strand"`
	GradeLevel           string                `db:"cr_student_grade_level" json:"gradeLevel"`
	Section              string                `db:"cr_student_section" json:"section"`
	SchoolYearSemester   *string               `db:"cr_school_year_semester" json:"schoolYearSemester"`
	ViolationLevel       ViolationLevel        `db:"cr_violation_level" json:"violationLevel"`
	Status               string                `db:"cr_status" json:"status"`
	Date                 string                `db:"date" json:"date"`
	Referred             YesNo                 `db:"cr_referred" json:"referred"`
	ReferralConfirmation *ReferralConfirmation `db:"cr_referral_confirmation" json:"referralConfirmation"`
	Description          string                `db:"cr_general_description" json:"description"`
	Remarks              string                `db:"cr_additional_remarks" json:"remarks"`
	Attachments          AttachmentList        `db:"cr_attachments" json:"attachments"`
}

// CaseRecordInput carries the persisted columns for a create or update.
type CaseRecordInput struct {
	StudentID            string
	StudentName          string
	Strand               string
	GradeLevel           string
	Section              string
	SchoolYearSemester   *string
	ViolationLevel       ViolationLevel
	Status               string
	Referred             YesNo
	ReferralConfirmation *ReferralConfirmation
	Description          string
	Remarks              string
	Attachments          AttachmentList
}

// CaseReferralSnapshot is the student data captured when guidance confirms
// a pending case referral. The counseling record copies these values as a
// snapshot, not a live join.
type CaseReferralSnapshot struct {
	StudentID          string  `db:"cr_student_id"`
	StudentName        string  `db:"cr_student_name"`
	Strand             string  `db:"cr_student_strand"`
	GradeLevel         string  `db:"cr_student_grade_level"`
	Section            string  `db:"cr_student_section"`
	SchoolYearSemester *string `db:"cr_school_year_semester"`
	Description        string  `db:"cr_general_description"`
}
