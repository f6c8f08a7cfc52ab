package models

// MedicalClassFilter narrows medical record listings by classification.
type MedicalClassFilter string

const (
	FilterAll                  MedicalClassFilter = "ALL"
	FilterMedical              MedicalClassFilter = "MEDICAL"
	FilterPsychological        MedicalClassFilter = "PSYCHOLOGICAL"
	FilterMedicalPsychological MedicalClassFilter = "MEDICALPSYCHOLOGICAL"
)

// MedicalRecord is an infirmary record owned by the INF until referred.
type MedicalRecord struct {
	MedicalID            int64                 `db:"mr_medical_id" json:"recordId"`
	StudentID            string                `db:"mr_student_id" json:"id"`
	StudentName          string                `db:"mr_student_name" json:"name"`
	Strand               string                `db:"mr_student_strand" json:"strand"`
	Subject              string                `db:"mr_subject" json:"subject"`
	Status               string                `db:"mr_status" json:"status"`
	GradeLevel           string                `db:"mr_grade_level" json:"gradeLevel"`
	Section              string                `db:"mr_section" json:"section"`
	SchoolYearSemester   *string               `db:"mr_school_year_semester" json:"schoolYearSemester"`
	MedicalDetails       string                `db:"mr_medical_details" json:"medicalDetails"`
	Remarks              string                `db:"mr_additional_remarks" json:"remarks"`
	Attachments          AttachmentList        `db:"mr_attachments" json:"attachments"`
	Referred             YesNo                 `db:"mr_referred" json:"referred"`
	ReferralConfirmation *ReferralConfirmation `db:"mr_referral_confirmation" json:"referralConfirmation"`
	IsPsychological      YesNo                 `db:"mr_is_psychological" json:"isPsychological"`
	IsMedical            YesNo                 `db:"mr_is_medical" json:"isMedical"`
	Date                 string                `db:"date" json:"date"`
}

// MedicalRecordInput carries persisted columns for create and update.
type MedicalRecordInput struct {
	StudentID            string
	StudentName          string
	Strand               string
	GradeLevel           string
	Section              string
	SchoolYearSemester   *string
	Subject              string
	Status               string
	MedicalDetails       string
	Remarks              string
	Referred             YesNo
	ReferralConfirmation *ReferralConfirmation
	IsPsychological      YesNo
	IsMedical            YesNo
	Attachments          AttachmentList
}

// MedicalReferralSnapshot is the student data captured when guidance
// confirms a pending medical referral.
type MedicalReferralSnapshot struct {
	StudentID          string  `db:"mr_student_id"`
	StudentName        string  `db:"mr_student_name"`
	Strand             string  `db:"mr_student_strand"`
	GradeLevel         string  `db:"mr_grade_level"`
	Section            string  `db:"mr_section"`
	SchoolYearSemester *string `db:"mr_school_year_semester"`
	MedicalDetails     string  `db:"mr_medical_details"`
	IsPsychological    YesNo   `db:"mr_is_psychological"`
}
