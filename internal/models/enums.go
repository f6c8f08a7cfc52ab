package models

// YesNo is the legacy boolean sentinel persisted by the shared schema.
// Downstream SQL and the existing front end match on the literal strings,
// so values are stored bit-exact.
type YesNo string

const (
	Yes YesNo = "Yes"
	No  YesNo = "No"
)

// Bool reports whether the sentinel carries an affirmative value.
func (y YesNo) Bool() bool { return y == Yes }

// ReferralConfirmation tracks the referral workflow state on case and
// medical records. A NULL column means the record was never referred.
type ReferralConfirmation string

const (
	ReferralPending  ReferralConfirmation = "Pending"
	ReferralAccepted ReferralConfirmation = "Accepted"
)

// Department identifies one of the three student-affairs offices.
type Department string

const (
	DepartmentOPD Department = "OPD"
	DepartmentGCO Department = "GCO"
	DepartmentINF Department = "INF"
)

// DepartmentNames maps office codes to their display names.
var DepartmentNames = map[Department]string{
	DepartmentGCO: "Guidance Counseling Office",
	DepartmentINF: "Infirmary",
	DepartmentOPD: "Office of the Prefect of Discipline",
}

// CounselingStatus tracks counseling session scheduling.
type CounselingStatus string

const (
	CounselingToSchedule CounselingStatus = "TO SCHEDULE"
	CounselingScheduled  CounselingStatus = "SCHEDULED"
	CounselingDone       CounselingStatus = "DONE"
)

// PsychCondition is the counseling record's psychological-condition flag.
// Case-origin referrals always get UNCONFIRMED; medical-origin referrals
// derive YES/NO from the medical record's classification.
type PsychCondition string

const (
	PsychYes         PsychCondition = "YES"
	PsychNo          PsychCondition = "NO"
	PsychUnconfirmed PsychCondition = "UNCONFIRMED"
)

// ViolationLevel categorises disciplinary cases.
type ViolationLevel string

const (
	ViolationMinor   ViolationLevel = "Minor"
	ViolationMajor   ViolationLevel = "Major"
	ViolationSerious ViolationLevel = "Serious"
)

// NotificationType enumerates in-app notification categories.
type NotificationType string

const (
	NotificationReferral       NotificationType = "Referral"
	NotificationAcceptance     NotificationType = "Acceptance"
	NotificationOPDCertificate NotificationType = "OPD Medical Certificate"
)

// RecordRefType tags the polymorphic notification back-reference.
type RecordRefType string

const (
	RefCaseRecord    RecordRefType = "case_record"
	RefMedicalRecord RecordRefType = "medical_record"
)
