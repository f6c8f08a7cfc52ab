package models

// CounselingRecord is a guidance-owned session record. The origin references
// are mutually exclusive: referral-derived records carry exactly one of
// OriginCaseID or OriginMedicalID; walk-in records carry neither.
type CounselingRecord struct {
	RecordID           int64            `db:"cor_record_id" json:"recordId"`
	OriginMedicalID    *int64           `db:"cor_origin_medical_id" json:"originMedicalId"`
	OriginCaseID       *int64           `db:"cor_origin_case_id" json:"originCaseId"`
	SessionNumber      int              `db:"cor_session_number" json:"sessionNumber"`
	StudentID          string           `db:"cor_student_id_number" json:"id"`
	StudentName        string           `db:"cor_student_name" json:"name"`
	Strand             string           `db:"cor_student_strand" json:"strand"`
	GradeLevel         string           `db:"cor_student_grade_level" json:"gradeLevel"`
	Section            string           `db:"cor_student_section" json:"section"`
	SchoolYearSemester *string          `db:"cor_school_year_semester" json:"schoolYearSemester"`
	Status             CounselingStatus `db:"cor_status" json:"status"`
	Date               *string          `db:"date" json:"date"`
	Time               *string          `db:"time" json:"time"`
	Concern            string           `db:"cor_general_concern" json:"concern"`
	Remarks            string           `db:"cor_additional_remarks" json:"remarks"`
	Attachments        AttachmentList   `db:"cor_attachments" json:"attachments"`
	PsychCondition     PsychCondition   `db:"cor_is_psychological_condition" json:"psychologicalCondition"`
}

// CounselingRecordInput carries persisted columns for create and update.
type CounselingRecordInput struct {
	OriginMedicalID    *int64
	OriginCaseID       *int64
	StudentID          string
	StudentName        string
	Strand             string
	GradeLevel         string
	Section            string
	SchoolYearSemester *string
	SessionNumber      int
	Status             CounselingStatus
	Date               *string
	Time               *string
	Concern            string
	Remarks            string
	Attachments        AttachmentList
	PsychCondition     PsychCondition
}
