package service

import (
	"context"
	"database/sql"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Aisenh037/dept-mgmt-api/internal/models"
	"github.com/Aisenh037/dept-mgmt-api/internal/policy"
	appErrors "github.com/Aisenh037/dept-mgmt-api/pkg/errors"
)

type mockAssignmentRepo struct {
	assignments  map[string]*models.Assignment
	submissions  map[string]*models.AssignmentSubmission
	createErr    error
	submitErr    error
	hasSubmitted bool
	graded       map[string][2]string
}

func (m *mockAssignmentRepo) ListByCourse(ctx context.Context, courseID string) ([]models.Assignment, error) {
	var out []models.Assignment
	for _, a := range m.assignments {
		if a.CourseID == courseID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *mockAssignmentRepo) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	a, ok := m.assignments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return a, nil
}

func (m *mockAssignmentRepo) Create(ctx context.Context, assignment *models.Assignment) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.assignments == nil {
		m.assignments = make(map[string]*models.Assignment)
	}
	m.assignments[assignment.ID] = assignment
	return nil
}

func (m *mockAssignmentRepo) HasSubmission(ctx context.Context, assignmentID, studentID string) (bool, error) {
	return m.hasSubmitted, nil
}

func (m *mockAssignmentRepo) CreateSubmission(ctx context.Context, submission *models.AssignmentSubmission) error {
	if m.submitErr != nil {
		return m.submitErr
	}
	if m.submissions == nil {
		m.submissions = make(map[string]*models.AssignmentSubmission)
	}
	m.submissions[submission.ID] = submission
	return nil
}

func (m *mockAssignmentRepo) FindSubmission(ctx context.Context, id string) (*models.AssignmentSubmission, error) {
	sub, ok := m.submissions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return sub, nil
}

func (m *mockAssignmentRepo) ListSubmissions(ctx context.Context, assignmentID string) ([]models.AssignmentSubmission, error) {
	var out []models.AssignmentSubmission
	for _, sub := range m.submissions {
		if sub.AssignmentID == assignmentID {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (m *mockAssignmentRepo) GradeSubmission(ctx context.Context, id, grade, feedback string) error {
	if m.graded == nil {
		m.graded = make(map[string][2]string)
	}
	m.graded[id] = [2]string{grade, feedback}
	return nil
}

type mockCourseFinder struct {
	courses  map[string]*models.Course
	enrolled bool
}

func (m *mockCourseFinder) FindByID(ctx context.Context, id string) (*models.Course, error) {
	c, ok := m.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return c, nil
}

func (m *mockCourseFinder) IsEnrolled(ctx context.Context, courseID, studentID string) (bool, error) {
	return m.enrolled, nil
}

type mockFileStore struct {
	saved   []string
	deleted []string
	saveErr error
}

func (m *mockFileStore) SaveStream(filename string, r io.Reader) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	m.saved = append(m.saved, filename)
	return filename, nil
}

func (m *mockFileStore) Delete(filename string) error {
	m.deleted = append(m.deleted, filename)
	return nil
}

type mockSigner struct{}

func (m *mockSigner) Generate(fileID, relPath string) (string, time.Time, error) {
	return fileID + ".signed", time.Now().Add(time.Hour), nil
}

func newAssignmentService(repo *mockAssignmentRepo, courses *mockCourseFinder, files *mockFileStore) *AssignmentService {
	if courses == nil {
		courses = &mockCourseFinder{courses: map[string]*models.Course{"c1": {ID: "c1", BranchID: "b1", Semester: 3, Term: "2024-monsoon"}}, enrolled: true}
	}
	if files == nil {
		files = &mockFileStore{}
	}
	return NewAssignmentService(repo, courses, files, &mockSigner{}, validator.New(), zap.NewNop())
}

func validAssignmentRequest() CreateAssignmentRequest {
	return CreateAssignmentRequest{Title: "Graph homework", DueDate: time.Now().Add(72 * time.Hour), CourseID: "c1"}
}

func TestAssignmentCreateWithFile(t *testing.T) {
	repo := &mockAssignmentRepo{}
	files := &mockFileStore{}
	svc := newAssignmentService(repo, nil, files)
	actor := policy.Actor{ID: "prof1", Role: models.RoleProfessor}

	assignment, err := svc.Create(context.Background(), actor, validAssignmentRequest(), "brief.pdf", strings.NewReader("pdf"))
	require.NoError(t, err)
	require.NotNil(t, assignment.FilePath)
	require.Len(t, files.saved, 1)
	assert.Empty(t, files.deleted)
}

func TestAssignmentCreateCleansUpFileOnRowFailure(t *testing.T) {
	repo := &mockAssignmentRepo{createErr: assert.AnError}
	files := &mockFileStore{}
	svc := newAssignmentService(repo, nil, files)
	actor := policy.Actor{ID: "prof1", Role: models.RoleProfessor}

	_, err := svc.Create(context.Background(), actor, validAssignmentRequest(), "brief.pdf", strings.NewReader("pdf"))
	require.Error(t, err)
	require.Len(t, files.saved, 1)
	assert.Equal(t, files.saved, files.deleted, "stored file must be removed when the row insert fails")
}

func TestAssignmentCreateByAdminTier(t *testing.T) {
	for _, role := range []models.Role{models.RoleAdmin, models.RoleCreator, models.RoleDirector, models.RoleHOD} {
		repo := &mockAssignmentRepo{}
		svc := newAssignmentService(repo, nil, nil)

		_, err := svc.Create(context.Background(), policy.Actor{ID: "staff1", Role: role}, validAssignmentRequest(), "", nil)
		require.NoError(t, err, "role %s", role)
		require.Len(t, repo.assignments, 1)
	}
}

func TestAssignmentCreateByStudentDenied(t *testing.T) {
	svc := newAssignmentService(&mockAssignmentRepo{}, nil, nil)

	_, err := svc.Create(context.Background(), policy.Actor{ID: "stu1", Role: models.RoleStudent}, validAssignmentRequest(), "", nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestSubmitRejectsDuplicate(t *testing.T) {
	repo := &mockAssignmentRepo{
		assignments:  map[string]*models.Assignment{"a1": {ID: "a1", CourseID: "c1", CreatorID: "prof1"}},
		hasSubmitted: true,
	}
	svc := newAssignmentService(repo, nil, nil)

	_, err := svc.Submit(context.Background(), policy.Actor{ID: "stu1", Role: models.RoleStudent}, "a1", "answer.pdf", strings.NewReader("pdf"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicateSubmission.Code, appErrors.FromError(err).Code)
}

func TestSubmitRequiresEnrollment(t *testing.T) {
	repo := &mockAssignmentRepo{assignments: map[string]*models.Assignment{"a1": {ID: "a1", CourseID: "c1", CreatorID: "prof1"}}}
	courses := &mockCourseFinder{courses: map[string]*models.Course{"c1": {ID: "c1"}}, enrolled: false}
	svc := newAssignmentService(repo, courses, nil)

	_, err := svc.Submit(context.Background(), policy.Actor{ID: "stu1", Role: models.RoleStudent}, "a1", "answer.pdf", strings.NewReader("pdf"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestSubmitCleansUpFileOnRowFailure(t *testing.T) {
	repo := &mockAssignmentRepo{
		assignments: map[string]*models.Assignment{"a1": {ID: "a1", CourseID: "c1", CreatorID: "prof1"}},
		submitErr:   assert.AnError,
	}
	files := &mockFileStore{}
	svc := newAssignmentService(repo, nil, files)

	_, err := svc.Submit(context.Background(), policy.Actor{ID: "stu1", Role: models.RoleStudent}, "a1", "answer.pdf", strings.NewReader("pdf"))
	require.Error(t, err)
	assert.Equal(t, files.saved, files.deleted)
}

func TestGradeByCreator(t *testing.T) {
	repo := &mockAssignmentRepo{
		assignments: map[string]*models.Assignment{"a1": {ID: "a1", CourseID: "c1", CreatorID: "prof1"}},
		submissions: map[string]*models.AssignmentSubmission{"sub1": {ID: "sub1", AssignmentID: "a1", StudentID: "stu1"}},
	}
	svc := newAssignmentService(repo, nil, nil)

	err := svc.Grade(context.Background(), policy.Actor{ID: "prof1", Role: models.RoleProfessor}, "sub1", GradeSubmissionRequest{Grade: "A", Feedback: "well done"})
	require.NoError(t, err)
	assert.Equal(t, [2]string{"A", "well done"}, repo.graded["sub1"])
}

func TestGradeByOtherProfessorDenied(t *testing.T) {
	repo := &mockAssignmentRepo{
		assignments: map[string]*models.Assignment{"a1": {ID: "a1", CourseID: "c1", CreatorID: "prof1"}},
		submissions: map[string]*models.AssignmentSubmission{"sub1": {ID: "sub1", AssignmentID: "a1", StudentID: "stu1"}},
	}
	svc := newAssignmentService(repo, nil, nil)

	err := svc.Grade(context.Background(), policy.Actor{ID: "prof2", Role: models.RoleProfessor}, "sub1", GradeSubmissionRequest{Grade: "B"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestFileURLForOwnerAndCreator(t *testing.T) {
	repo := &mockAssignmentRepo{
		assignments: map[string]*models.Assignment{"a1": {ID: "a1", CourseID: "c1", CreatorID: "prof1"}},
		submissions: map[string]*models.AssignmentSubmission{"sub1": {ID: "sub1", AssignmentID: "a1", StudentID: "stu1", FilePath: "submissions/a1/stu1-answer.pdf"}},
	}
	svc := newAssignmentService(repo, nil, nil)

	url, err := svc.FileURL(context.Background(), policy.Actor{ID: "stu1", Role: models.RoleStudent}, "sub1")
	require.NoError(t, err)
	assert.Equal(t, "sub1.signed", url.Token)

	_, err = svc.FileURL(context.Background(), policy.Actor{ID: "prof1", Role: models.RoleProfessor}, "sub1")
	require.NoError(t, err)

	_, err = svc.FileURL(context.Background(), policy.Actor{ID: "stu2", Role: models.RoleStudent}, "sub1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
