package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Aisenh037/dept-mgmt-api/internal/models"
)

// AttendanceRepository manages persistence for attendance records and marks.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs an AttendanceRepository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// UpsertRecord inserts or updates the attendance status for one student on
// one date. Re-marking the same (subject, student, date) overwrites.
func (r *AttendanceRepository) UpsertRecord(ctx context.Context, record *models.AttendanceRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	const query = `INSERT INTO attendance_records (id, subject_id, student_id, date, status, marked_by, created_at, updated_at)
        VALUES (:id, :subject_id, :student_id, :date, :status, :marked_by, :created_at, :updated_at)
        ON CONFLICT (subject_id, student_id, date) DO UPDATE SET status = EXCLUDED.status, marked_by = EXCLUDED.marked_by, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("upsert attendance: %w", err)
	}
	return nil
}

// ListBySubjectDate returns the attendance sheet for a subject on a date.
func (r *AttendanceRepository) ListBySubjectDate(ctx context.Context, subjectID, date string) ([]models.AttendanceRecord, error) {
	const query = `SELECT id, subject_id, student_id, date, status, marked_by, created_at, updated_at FROM attendance_records WHERE subject_id = $1 AND date = $2 ORDER BY student_id ASC`
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, subjectID, date); err != nil {
		return nil, fmt.Errorf("list attendance by subject: %w", err)
	}
	return records, nil
}

// ListByStudent returns a student's attendance history, newest first.
func (r *AttendanceRepository) ListByStudent(ctx context.Context, studentID string) ([]models.AttendanceRecord, error) {
	const query = `SELECT id, subject_id, student_id, date, status, marked_by, created_at, updated_at FROM attendance_records WHERE student_id = $1 ORDER BY date DESC`
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, studentID); err != nil {
		return nil, fmt.Errorf("list attendance by student: %w", err)
	}
	return records, nil
}

// UpsertMark inserts or updates a score for one (student, subject, exam).
func (r *AttendanceRepository) UpsertMark(ctx context.Context, mark *models.Mark) error {
	if mark.ID == "" {
		mark.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if mark.CreatedAt.IsZero() {
		mark.CreatedAt = now
	}
	mark.UpdatedAt = now
	const query = `INSERT INTO marks (id, student_id, subject_id, exam_type, score, max_score, recorded_by, created_at, updated_at)
        VALUES (:id, :student_id, :subject_id, :exam_type, :score, :max_score, :recorded_by, :created_at, :updated_at)
        ON CONFLICT (student_id, subject_id, exam_type) DO UPDATE SET score = EXCLUDED.score, max_score = EXCLUDED.max_score, recorded_by = EXCLUDED.recorded_by, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, mark); err != nil {
		return fmt.Errorf("upsert mark: %w", err)
	}
	return nil
}

// ListMarksByStudent returns all recorded marks for a student.
func (r *AttendanceRepository) ListMarksByStudent(ctx context.Context, studentID string) ([]models.Mark, error) {
	const query = `SELECT id, student_id, subject_id, exam_type, score, max_score, recorded_by, created_at, updated_at FROM marks WHERE student_id = $1 ORDER BY subject_id ASC, exam_type ASC`
	var marks []models.Mark
	if err := r.db.SelectContext(ctx, &marks, query, studentID); err != nil {
		return nil, fmt.Errorf("list marks by student: %w", err)
	}
	return marks, nil
}
