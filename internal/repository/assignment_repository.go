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

// AssignmentRepository manages persistence for assignments and submissions.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs an AssignmentRepository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

const assignmentColumns = `id, title, description, due_date, file_path, course_id, creator_id, created_at, updated_at`

// ListByCourse returns the assignments published to a course.
func (r *AssignmentRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Assignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM assignments WHERE course_id = $1 ORDER BY due_date ASC`, assignmentColumns)
	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query, courseID); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return assignments, nil
}

// FindByID fetches an assignment by ID.
func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM assignments WHERE id = $1 LIMIT 1`, assignmentColumns)
	var assignment models.Assignment
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// Create inserts a new assignment.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = now
	}
	assignment.UpdatedAt = now
	const query = `INSERT INTO assignments (id, title, description, due_date, file_path, course_id, creator_id, created_at, updated_at) VALUES (:id, :title, :description, :due_date, :file_path, :course_id, :creator_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// HasSubmission reports whether the student already submitted.
func (r *AssignmentRepository) HasSubmission(ctx context.Context, assignmentID, studentID string) (bool, error) {
	var exists int
	if err := r.db.GetContext(ctx, &exists, `SELECT 1 FROM assignment_submissions WHERE assignment_id = $1 AND student_id = $2 LIMIT 1`, assignmentID, studentID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check submission: %w", err)
	}
	return true, nil
}

// CreateSubmission appends a student submission.
func (r *AssignmentRepository) CreateSubmission(ctx context.Context, submission *models.AssignmentSubmission) error {
	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}
	if submission.SubmittedAt.IsZero() {
		submission.SubmittedAt = time.Now().UTC()
	}
	const query = `INSERT INTO assignment_submissions (id, assignment_id, student_id, file_path, submitted_at, grade, feedback) VALUES (:id, :assignment_id, :student_id, :file_path, :submitted_at, :grade, :feedback)`
	if _, err := r.db.NamedExecContext(ctx, query, submission); err != nil {
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

// FindSubmission fetches a submission by ID.
func (r *AssignmentRepository) FindSubmission(ctx context.Context, id string) (*models.AssignmentSubmission, error) {
	const query = `SELECT id, assignment_id, student_id, file_path, submitted_at, grade, feedback FROM assignment_submissions WHERE id = $1 LIMIT 1`
	var submission models.AssignmentSubmission
	if err := r.db.GetContext(ctx, &submission, query, id); err != nil {
		return nil, err
	}
	return &submission, nil
}

// ListSubmissions returns all submissions for an assignment.
func (r *AssignmentRepository) ListSubmissions(ctx context.Context, assignmentID string) ([]models.AssignmentSubmission, error) {
	const query = `SELECT id, assignment_id, student_id, file_path, submitted_at, grade, feedback FROM assignment_submissions WHERE assignment_id = $1 ORDER BY submitted_at ASC`
	var submissions []models.AssignmentSubmission
	if err := r.db.SelectContext(ctx, &submissions, query, assignmentID); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return submissions, nil
}

// GradeSubmission sets the grade and feedback on a submission.
func (r *AssignmentRepository) GradeSubmission(ctx context.Context, id, grade, feedback string) error {
	const query = `UPDATE assignment_submissions SET grade = $2, feedback = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, grade, feedback); err != nil {
		return fmt.Errorf("grade submission: %w", err)
	}
	return nil
}
