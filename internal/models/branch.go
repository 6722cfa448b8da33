package models

import "time"

// Branch is an academic branch (e.g. CSE, ECE) within a department.
type Branch struct {
	ID                string    `db:"id" json:"id"`
	Name              string    `db:"name" json:"name"`
	Code              string    `db:"code" json:"code"`
	Department        string    `db:"department" json:"department"`
	Capacity          int       `db:"capacity" json:"capacity"`
	EstablishmentYear int       `db:"establishment_year" json:"establishment_year"`
	Semesters         int       `db:"semesters" json:"semesters"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// Subject is a course unit taught within a branch semester.
type Subject struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Code      string    `db:"code" json:"code"`
	Credits   int       `db:"credits" json:"credits"`
	Semester  int       `db:"semester" json:"semester"`
	BranchID  string    `db:"branch_id" json:"branch_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
