package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Aisenh037/dept-mgmt-api/internal/models"
)

// CourseRepository manages persistence for courses and enrollments.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns courses optionally filtered by branch.
func (r *CourseRepository) List(ctx context.Context, branchID string) ([]models.Course, error) {
	query := `SELECT id, branch_id, semester, term, created_at, updated_at FROM courses`
	var args []interface{}
	if branchID != "" {
		query += " WHERE branch_id = $1"
		args = append(args, branchID)
	}
	query += " ORDER BY semester ASC, term ASC"
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// FindByID fetches a course by ID.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT id, branch_id, semester, term, created_at, updated_at FROM courses WHERE id = $1 LIMIT 1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// Create inserts a new course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = now
	const query = `INSERT INTO courses (id, branch_id, semester, term, created_at, updated_at) VALUES (:id, :branch_id, :semester, :term, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// IsEnrolled reports whether the student already has an enrollment row.
func (r *CourseRepository) IsEnrolled(ctx context.Context, courseID, studentID string) (bool, error) {
	var exists int
	if err := r.db.GetContext(ctx, &exists, `SELECT 1 FROM course_enrollments WHERE course_id = $1 AND student_id = $2 LIMIT 1`, courseID, studentID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return true, nil
}

// Enroll links a student to a course.
func (r *CourseRepository) Enroll(ctx context.Context, enrollment *models.CourseEnrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.JoinedAt.IsZero() {
		enrollment.JoinedAt = time.Now().UTC()
	}
	const query = `INSERT INTO course_enrollments (id, course_id, student_id, joined_at) VALUES (:id, :course_id, :student_id, :joined_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("enroll student: %w", err)
	}
	return nil
}

// Unenroll removes a student's enrollment from a course.
func (r *CourseRepository) Unenroll(ctx context.Context, courseID, studentID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM course_enrollments WHERE course_id = $1 AND student_id = $2`, courseID, studentID); err != nil {
		return fmt.Errorf("unenroll student: %w", err)
	}
	return nil
}

// ListEnrollments returns the students enrolled in a course.
func (r *CourseRepository) ListEnrollments(ctx context.Context, courseID string) ([]models.CourseEnrollment, error) {
	const query = `SELECT id, course_id, student_id, joined_at FROM course_enrollments WHERE course_id = $1 ORDER BY joined_at ASC`
	var enrollments []models.CourseEnrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, courseID); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return enrollments, nil
}
