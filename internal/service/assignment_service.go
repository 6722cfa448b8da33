package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Aisenh037/dept-mgmt-api/internal/models"
	"github.com/Aisenh037/dept-mgmt-api/internal/policy"
	appErrors "github.com/Aisenh037/dept-mgmt-api/pkg/errors"
)

type assignmentRepository interface {
	ListByCourse(ctx context.Context, courseID string) ([]models.Assignment, error)
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	HasSubmission(ctx context.Context, assignmentID, studentID string) (bool, error)
	CreateSubmission(ctx context.Context, submission *models.AssignmentSubmission) error
	FindSubmission(ctx context.Context, id string) (*models.AssignmentSubmission, error)
	ListSubmissions(ctx context.Context, assignmentID string) ([]models.AssignmentSubmission, error)
	GradeSubmission(ctx context.Context, id, grade, feedback string) error
}

type assignmentCourseFinder interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	IsEnrolled(ctx context.Context, courseID, studentID string) (bool, error)
}

// fileStore is the subset of storage used for assignment files. The file is
// written before its database row so a failed write never leaves a row
// pointing at nothing.
type fileStore interface {
	SaveStream(filename string, r io.Reader) (string, error)
	Delete(filename string) error
}

type urlSigner interface {
	Generate(fileID, relPath string) (string, time.Time, error)
}

// CreateAssignmentRequest holds payload for publishing an assignment.
type CreateAssignmentRequest struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date" validate:"required"`
	CourseID    string    `json:"course_id" validate:"required"`
}

// GradeSubmissionRequest records a grade for a submission.
type GradeSubmissionRequest struct {
	Grade    string `json:"grade" validate:"required"`
	Feedback string `json:"feedback"`
}

// SignedFileURL is a time-limited download reference.
type SignedFileURL struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AssignmentService manages coursework and submissions.
type AssignmentService struct {
	repo      assignmentRepository
	courses   assignmentCourseFinder
	files     fileStore
	signer    urlSigner
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAssignmentService constructs the assignment service.
func NewAssignmentService(repo assignmentRepository, courses assignmentCourseFinder, files fileStore, signer urlSigner, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{repo: repo, courses: courses, files: files, signer: signer, validator: validate, logger: logger}
}

// ListByCourse returns the assignments published to a course.
func (s *AssignmentService) ListByCourse(ctx context.Context, courseID string) ([]models.Assignment, error) {
	assignments, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, nil
}

// Get returns one assignment.
func (s *AssignmentService) Get(ctx context.Context, id string) (*models.Assignment, error) {
	assignment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	return assignment, nil
}

// Create publishes an assignment, optionally with an attached file. Upload
// is two-phase: the file lands in storage first, then the row is inserted;
// on insert failure the stored file is removed again.
func (s *AssignmentService) Create(ctx context.Context, actor policy.Actor, req CreateAssignmentRequest, filename string, file io.Reader) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	switch actor.Role {
	case models.RoleProfessor, models.RoleHOD, models.RoleAdmin, models.RoleCreator, models.RoleDirector:
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only teaching or admin staff may publish assignments")
	}
	if _, err := s.courses.FindByID(ctx, req.CourseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	assignment := &models.Assignment{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		CourseID:    req.CourseID,
		CreatorID:   actor.ID,
	}

	var storedPath string
	if file != nil {
		storedPath = filepath.Join("assignments", assignment.ID, filepath.Base(filename))
		if _, err := s.files.SaveStream(storedPath, file); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store assignment file")
		}
		assignment.FilePath = &storedPath
	}

	if err := s.repo.Create(ctx, assignment); err != nil {
		if storedPath != "" {
			if cleanupErr := s.files.Delete(storedPath); cleanupErr != nil {
				s.logger.Warn("failed to remove orphaned assignment file", zap.String("path", storedPath), zap.Error(cleanupErr))
			}
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}
	return assignment, nil
}

// Submit records a student's answer file. One submission per student per
// assignment; resubmission is a conflict.
func (s *AssignmentService) Submit(ctx context.Context, actor policy.Actor, assignmentID, filename string, file io.Reader) (*models.AssignmentSubmission, error) {
	if file == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "submission file is required")
	}

	assignment, err := s.repo.FindByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}

	enrolled, err := s.courses.IsEnrolled(ctx, assignment.CourseID, actor.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	if !enrolled {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "student is not enrolled in this course")
	}

	submitted, err := s.repo.HasSubmission(ctx, assignmentID, actor.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check submission")
	}
	if submitted {
		return nil, appErrors.Clone(appErrors.ErrDuplicateSubmission, "assignment already submitted")
	}

	submission := &models.AssignmentSubmission{
		ID:           uuid.NewString(),
		AssignmentID: assignmentID,
		StudentID:    actor.ID,
		SubmittedAt:  time.Now().UTC(),
	}

	storedPath := filepath.Join("submissions", assignmentID, fmt.Sprintf("%s-%s", actor.ID, filepath.Base(filename)))
	if _, err := s.files.SaveStream(storedPath, file); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store submission file")
	}
	submission.FilePath = storedPath

	if err := s.repo.CreateSubmission(ctx, submission); err != nil {
		if cleanupErr := s.files.Delete(storedPath); cleanupErr != nil {
			s.logger.Warn("failed to remove orphaned submission file", zap.String("path", storedPath), zap.Error(cleanupErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record submission")
	}
	return submission, nil
}

// Submissions lists the answers handed in for an assignment.
func (s *AssignmentService) Submissions(ctx context.Context, actor policy.Actor, assignmentID string) ([]models.AssignmentSubmission, error) {
	assignment, err := s.repo.FindByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	if d := policy.Decide(actor, policy.Target{OwnerID: assignment.CreatorID}, policy.ActionRead); !d.Allowed {
		return nil, appErrors.Clone(appErrors.ErrForbidden, d.Reason)
	}
	submissions, err := s.repo.ListSubmissions(ctx, assignmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}
	return submissions, nil
}

// Grade records a grade and feedback on a submission.
func (s *AssignmentService) Grade(ctx context.Context, actor policy.Actor, submissionID string, req GradeSubmissionRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}

	submission, err := s.repo.FindSubmission(ctx, submissionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}

	assignment, err := s.repo.FindByID(ctx, submission.AssignmentID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	if d := policy.Decide(actor, policy.Target{OwnerID: assignment.CreatorID}, policy.ActionUpdate); !d.Allowed {
		return appErrors.Clone(appErrors.ErrForbidden, d.Reason)
	}

	if err := s.repo.GradeSubmission(ctx, submissionID, req.Grade, req.Feedback); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to grade submission")
	}
	return nil
}

// FileURL returns a signed, time-limited download token for an assignment
// attachment or a submission file.
func (s *AssignmentService) FileURL(ctx context.Context, actor policy.Actor, submissionID string) (*SignedFileURL, error) {
	submission, err := s.repo.FindSubmission(ctx, submissionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}

	assignment, err := s.repo.FindByID(ctx, submission.AssignmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	// The submitting student and the assignment's creator may both download.
	if actor.ID != submission.StudentID {
		if d := policy.Decide(actor, policy.Target{OwnerID: assignment.CreatorID}, policy.ActionRead); !d.Allowed {
			return nil, appErrors.Clone(appErrors.ErrForbidden, d.Reason)
		}
	}

	token, expiresAt, err := s.signer.Generate(submission.ID, submission.FilePath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download url")
	}
	return &SignedFileURL{Token: token, ExpiresAt: expiresAt}, nil
}
