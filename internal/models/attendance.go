package models

import "time"

// AttendanceStatus marks the presence state for one student on one date.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "PRESENT"
	AttendanceAbsent  AttendanceStatus = "ABSENT"
	AttendanceLate    AttendanceStatus = "LATE"
)

// AttendanceRecord is one student's attendance for one subject on one date.
// Unique per (subject, student, date); re-marking upserts.
type AttendanceRecord struct {
	ID        string           `db:"id" json:"id"`
	SubjectID string           `db:"subject_id" json:"subject_id"`
	StudentID string           `db:"student_id" json:"student_id"`
	Date      string           `db:"date" json:"date"`
	Status    AttendanceStatus `db:"status" json:"status"`
	MarkedBy  string           `db:"marked_by" json:"marked_by"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// ExamType identifies which assessment a mark belongs to.
type ExamType string

const (
	ExamMidterm  ExamType = "MIDTERM"
	ExamFinal    ExamType = "FINAL"
	ExamInternal ExamType = "INTERNAL"
)

// Mark records a score for a student in a subject exam.
// Unique per (student, subject, exam type).
type Mark struct {
	ID         string    `db:"id" json:"id"`
	StudentID  string    `db:"student_id" json:"student_id"`
	SubjectID  string    `db:"subject_id" json:"subject_id"`
	ExamType   ExamType  `db:"exam_type" json:"exam_type"`
	Score      float64   `db:"score" json:"score"`
	MaxScore   float64   `db:"max_score" json:"max_score"`
	RecordedBy string    `db:"recorded_by" json:"recorded_by"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
