package models

// OPDAnalytics summarises disciplinary cases for the OPD dashboard.
type OPDAnalytics struct {
	Minor    int `db:"minor" json:"minor"`
	Major    int `db:"major" json:"major"`
	Serious  int `db:"serious" json:"serious"`
	Ongoing  int `db:"ongoing" json:"ongoing"`
	Resolved int `db:"resolved" json:"resolved"`
}

// GCOAnalytics summarises counseling sessions for the guidance dashboard.
type GCOAnalytics struct {
	Scheduled  int `db:"scheduled" json:"scheduled"`
	ToSchedule int `db:"to_schedule" json:"to_schedule"`
	Done       int `db:"done" json:"done"`
}

// INFAnalytics summarises medical records for the infirmary dashboard.
type INFAnalytics struct {
	Medical       int `db:"medical" json:"medical"`
	Psychological int `db:"psychological" json:"psychological"`
	Ongoing       int `db:"ongoing" json:"ongoing"`
	Treated       int `db:"treated" json:"treated"`
	ForTreatment  int `db:"for_treatment" json:"for_treatment"`
}
