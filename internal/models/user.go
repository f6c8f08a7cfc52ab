package models

// User is an office staff account.
type User struct {
	ID           int64      `db:"u_id" json:"id"`
	Email        string     `db:"u_email" json:"email"`
	PasswordHash string     `db:"u_password" json:"-"`
	Name         string     `db:"u_name" json:"name"`
	Type         Department `db:"u_type" json:"type"`
	Department   string     `db:"u_department" json:"department"`
}

// DepartmentName resolves the display name for the user's office,
// falling back to the stored department text for unknown codes.
func (u *User) DepartmentName() string {
	if name, ok := DepartmentNames[u.Type]; ok {
		return name
	}
	return u.Department
}
