package models

// Student is one roster row. A student appears once per school-year
// semester, so the same ID number can repeat across semesters.
type Student struct {
	IDNumber           string `db:"sd_id_number" json:"sd_id_number"`
	Name               string `db:"sd_student_name" json:"sd_student_name"`
	Strand             string `db:"sd_strand" json:"sd_strand"`
	SchoolYearSemester string `db:"sd_school_year_semester" json:"sd_school_year_semester"`
	GradeLevel         string `db:"sd_grade_level" json:"sd_grade_level"`
	Section            string `db:"sd_section" json:"sd_section"`
}
