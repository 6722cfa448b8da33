package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Aisenh037/dept-mgmt-api/internal/models"
	appErrors "github.com/Aisenh037/dept-mgmt-api/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context, branchID string) ([]models.Course, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	IsEnrolled(ctx context.Context, courseID, studentID string) (bool, error)
	Enroll(ctx context.Context, enrollment *models.CourseEnrollment) error
	Unenroll(ctx context.Context, courseID, studentID string) error
	ListEnrollments(ctx context.Context, courseID string) ([]models.CourseEnrollment, error)
}

type courseStudentFinder interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
}

// CreateCourseRequest holds payload for opening a course.
type CreateCourseRequest struct {
	BranchID string `json:"branch_id" validate:"required"`
	Semester int    `json:"semester" validate:"required,min=1,max=12"`
	Term     string `json:"term" validate:"required"`
}

// CourseService manages courses and their enrollments.
type CourseService struct {
	repo      courseRepository
	students  courseStudentFinder
	branches  studentBranchFinder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs the course service.
func NewCourseService(repo courseRepository, students courseStudentFinder, branches studentBranchFinder, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, students: students, branches: branches, validator: validate, logger: logger}
}

// List returns courses, optionally filtered by branch.
func (s *CourseService) List(ctx context.Context, branchID string) ([]models.Course, error) {
	courses, err := s.repo.List(ctx, branchID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// Get returns one course.
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// Create opens a course for a branch semester term.
func (s *CourseService) Create(ctx context.Context, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	if _, err := s.branches.FindByID(ctx, req.BranchID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "branch not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load branch")
	}
	course := &models.Course{
		BranchID: req.BranchID,
		Semester: req.Semester,
		Term:     req.Term,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	return course, nil
}

// Enroll adds a student to a course. Enrolling twice is a conflict.
func (s *CourseService) Enroll(ctx context.Context, courseID, studentID string) (*models.CourseEnrollment, error) {
	if _, err := s.repo.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	enrolled, err := s.repo.IsEnrolled(ctx, courseID, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	if enrolled {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student already enrolled in course")
	}
	enrollment := &models.CourseEnrollment{CourseID: courseID, StudentID: studentID}
	if err := s.repo.Enroll(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll student")
	}
	return enrollment, nil
}

// Unenroll drops a student from a course.
func (s *CourseService) Unenroll(ctx context.Context, courseID, studentID string) error {
	enrolled, err := s.repo.IsEnrolled(ctx, courseID, studentID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	if !enrolled {
		return appErrors.Clone(appErrors.ErrNotFound, "student is not enrolled in course")
	}
	if err := s.repo.Unenroll(ctx, courseID, studentID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unenroll student")
	}
	return nil
}

// Enrollments lists the students enrolled in a course.
func (s *CourseService) Enrollments(ctx context.Context, courseID string) ([]models.CourseEnrollment, error) {
	enrollments, err := s.repo.ListEnrollments(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, nil
}
