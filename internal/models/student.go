package models

import "time"

// StudentProfile is the academic record linked one-to-one with a student Account.
// Created and deleted transactionally together with its account.
type StudentProfile struct {
	ID              string    `db:"id" json:"id"`
	AccountID       string    `db:"account_id" json:"account_id"`
	ScholarNumber   string    `db:"scholar_number" json:"scholar_number"`
	FullName        string    `db:"full_name" json:"full_name"`
	Email           string    `db:"email" json:"email"`
	Mobile          *string   `db:"mobile" json:"mobile,omitempty"`
	CurrentSemester int       `db:"current_semester" json:"current_semester"`
	BranchID        string    `db:"branch_id" json:"branch_id"`
	Hostel          *string   `db:"hostel" json:"hostel,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// StudentDetail joins a profile with its branch name for list views.
type StudentDetail struct {
	StudentProfile
	BranchName *string `db:"branch_name" json:"branch_name,omitempty"`
}

// StudentFilter captures filtering criteria for listing students.
type StudentFilter struct {
	BranchID  string
	Semester  int
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// RosterImportError reports a single rejected roster row.
type RosterImportError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// RosterImportResult summarises a bulk roster import.
type RosterImportResult struct {
	Imported int                 `json:"imported"`
	Failed   []RosterImportError `json:"failed"`
}
