package models

import "time"

// Assignment is coursework published to a course by a professor.
type Assignment struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	DueDate     time.Time `db:"due_date" json:"due_date"`
	FilePath    *string   `db:"file_path" json:"file_path,omitempty"`
	CourseID    string    `db:"course_id" json:"course_id"`
	CreatorID   string    `db:"creator_id" json:"creator_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// AssignmentSubmission is a student's answer to an assignment.
// At most one row per (assignment, student).
type AssignmentSubmission struct {
	ID           string    `db:"id" json:"id"`
	AssignmentID string    `db:"assignment_id" json:"assignment_id"`
	StudentID    string    `db:"student_id" json:"student_id"`
	FilePath     string    `db:"file_path" json:"file_path"`
	SubmittedAt  time.Time `db:"submitted_at" json:"submitted_at"`
	Grade        *string   `db:"grade" json:"grade,omitempty"`
	Feedback     *string   `db:"feedback" json:"feedback,omitempty"`
}
