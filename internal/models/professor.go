package models

import "time"

// ProfessorProfile is the staff record linked one-to-one with a professor Account.
type ProfessorProfile struct {
	ID         string    `db:"id" json:"id"`
	AccountID  string    `db:"account_id" json:"account_id"`
	TeacherID  string    `db:"teacher_id" json:"teacher_id"`
	FullName   string    `db:"full_name" json:"full_name"`
	Email      string    `db:"email" json:"email"`
	Department string    `db:"department" json:"department"`
	Contact    *string   `db:"contact" json:"contact,omitempty"`
	FirstLogin bool      `db:"first_login" json:"first_login"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// ProfessorSubject assigns teaching duty for a subject to a professor.
type ProfessorSubject struct {
	ID          string    `db:"id" json:"id"`
	ProfessorID string    `db:"professor_id" json:"professor_id"`
	SubjectID   string    `db:"subject_id" json:"subject_id"`
	Semester    int       `db:"semester" json:"semester"`
	BranchID    string    `db:"branch_id" json:"branch_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// ProfessorFilter captures filtering criteria for listing professors.
type ProfessorFilter struct {
	Department string
	Search     string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
