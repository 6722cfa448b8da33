package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aisenh037/dept-mgmt-api/internal/models"
	appErrors "github.com/Aisenh037/dept-mgmt-api/pkg/errors"
)

type mockCourseRepo struct {
	courses     map[string]*models.Course
	enrollments map[string]bool
}

func enrollmentKey(courseID, studentID string) string {
	return fmt.Sprintf("%s|%s", courseID, studentID)
}

func (m *mockCourseRepo) List(ctx context.Context, branchID string) ([]models.Course, error) {
	out := make([]models.Course, 0, len(m.courses))
	for _, course := range m.courses {
		if branchID != "" && course.BranchID != branchID {
			continue
		}
		out = append(out, *course)
	}
	return out, nil
}

func (m *mockCourseRepo) FindByID(ctx context.Context, id string) (*models.Course, error) {
	course, ok := m.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return course, nil
}

func (m *mockCourseRepo) Create(ctx context.Context, course *models.Course) error {
	course.ID = fmt.Sprintf("c-%s-%d", course.BranchID, course.Semester)
	if m.courses == nil {
		m.courses = make(map[string]*models.Course)
	}
	m.courses[course.ID] = course
	return nil
}

func (m *mockCourseRepo) IsEnrolled(ctx context.Context, courseID, studentID string) (bool, error) {
	return m.enrollments[enrollmentKey(courseID, studentID)], nil
}

func (m *mockCourseRepo) Enroll(ctx context.Context, enrollment *models.CourseEnrollment) error {
	enrollment.ID = "e-" + enrollment.StudentID
	if m.enrollments == nil {
		m.enrollments = make(map[string]bool)
	}
	m.enrollments[enrollmentKey(enrollment.CourseID, enrollment.StudentID)] = true
	return nil
}

func (m *mockCourseRepo) Unenroll(ctx context.Context, courseID, studentID string) error {
	delete(m.enrollments, enrollmentKey(courseID, studentID))
	return nil
}

func (m *mockCourseRepo) ListEnrollments(ctx context.Context, courseID string) ([]models.CourseEnrollment, error) {
	return nil, nil
}

type mockStudentFinder struct {
	students map[string]*models.StudentDetail
}

func (m *mockStudentFinder) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	st, ok := m.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return st, nil
}

func newCourseService(repo *mockCourseRepo) *CourseService {
	students := &mockStudentFinder{students: map[string]*models.StudentDetail{
		"st1": {StudentProfile: models.StudentProfile{ID: "st1", ScholarNumber: "2024001"}},
	}}
	branches := &mockBranchFinder{branches: map[string]*models.Branch{"b1": cseBranch()}}
	return NewCourseService(repo, students, branches, nil, nil)
}

func TestCourseCreateUnknownBranch(t *testing.T) {
	svc := newCourseService(&mockCourseRepo{})

	_, err := svc.Create(context.Background(), CreateCourseRequest{
		BranchID: "missing",
		Semester: 5,
		Term:     "2024-autumn",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCourseEnrollOnce(t *testing.T) {
	repo := &mockCourseRepo{courses: map[string]*models.Course{
		"c1": {ID: "c1", BranchID: "b1", Semester: 5},
	}}
	svc := newCourseService(repo)

	enrollment, err := svc.Enroll(context.Background(), "c1", "st1")
	require.NoError(t, err)
	assert.Equal(t, "c1", enrollment.CourseID)

	_, err = svc.Enroll(context.Background(), "c1", "st1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "already enrolled")
}

func TestCourseEnrollUnknownStudent(t *testing.T) {
	repo := &mockCourseRepo{courses: map[string]*models.Course{
		"c1": {ID: "c1", BranchID: "b1"},
	}}
	svc := newCourseService(repo)

	_, err := svc.Enroll(context.Background(), "c1", "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCourseUnenrollRequiresEnrollment(t *testing.T) {
	repo := &mockCourseRepo{courses: map[string]*models.Course{
		"c1": {ID: "c1", BranchID: "b1"},
	}}
	svc := newCourseService(repo)

	err := svc.Unenroll(context.Background(), "c1", "st1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = svc.Enroll(context.Background(), "c1", "st1")
	require.NoError(t, err)
	require.NoError(t, svc.Unenroll(context.Background(), "c1", "st1"))
}
