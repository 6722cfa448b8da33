package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aisenh037/dept-mgmt-api/internal/models"
	appErrors "github.com/Aisenh037/dept-mgmt-api/pkg/errors"
)

type mockSubjectRepo struct {
	subjects  map[string]*models.Subject
	codeTaken bool
	deleted   []string
}

func (m *mockSubjectRepo) List(ctx context.Context, branchID string, semester int) ([]models.Subject, error) {
	out := make([]models.Subject, 0, len(m.subjects))
	for _, sub := range m.subjects {
		if branchID != "" && sub.BranchID != branchID {
			continue
		}
		if semester != 0 && sub.Semester != semester {
			continue
		}
		out = append(out, *sub)
	}
	return out, nil
}

func (m *mockSubjectRepo) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	sub, ok := m.subjects[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return sub, nil
}

func (m *mockSubjectRepo) ExistsByCode(ctx context.Context, code, excludeID string) (bool, error) {
	if m.codeTaken {
		return true, nil
	}
	for _, sub := range m.subjects {
		if sub.Code == code && sub.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockSubjectRepo) Create(ctx context.Context, subject *models.Subject) error {
	subject.ID = "s-" + subject.Code
	if m.subjects == nil {
		m.subjects = make(map[string]*models.Subject)
	}
	m.subjects[subject.ID] = subject
	return nil
}

func (m *mockSubjectRepo) Update(ctx context.Context, subject *models.Subject) error {
	m.subjects[subject.ID] = subject
	return nil
}

func (m *mockSubjectRepo) Delete(ctx context.Context, id string) error {
	delete(m.subjects, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func newSubjectService(repo *mockSubjectRepo) *SubjectService {
	branches := &mockBranchFinder{branches: map[string]*models.Branch{"b1": cseBranch()}}
	return NewSubjectService(repo, branches, nil, nil)
}

func TestSubjectCreateSuccess(t *testing.T) {
	repo := &mockSubjectRepo{}
	svc := newSubjectService(repo)

	subject, err := svc.Create(context.Background(), SubjectRequest{
		Name:     "Operating Systems",
		Code:     "CS301",
		Credits:  4,
		Semester: 5,
		BranchID: "b1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, subject.ID)
}

func TestSubjectCreateSemesterBeyondBranchDuration(t *testing.T) {
	// cseBranch runs 8 semesters
	svc := newSubjectService(&mockSubjectRepo{})

	_, err := svc.Create(context.Background(), SubjectRequest{
		Name:     "Phantom Course",
		Code:     "CS999",
		Credits:  3,
		Semester: 9,
		BranchID: "b1",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "exceeds branch duration")
}

func TestSubjectCreateDuplicateCode(t *testing.T) {
	svc := newSubjectService(&mockSubjectRepo{codeTaken: true})

	_, err := svc.Create(context.Background(), SubjectRequest{
		Name:     "Operating Systems",
		Code:     "CS301",
		Credits:  4,
		Semester: 5,
		BranchID: "b1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestSubjectCreateUnknownBranch(t *testing.T) {
	svc := newSubjectService(&mockSubjectRepo{})

	_, err := svc.Create(context.Background(), SubjectRequest{
		Name:     "Operating Systems",
		Code:     "CS301",
		Credits:  4,
		Semester: 5,
		BranchID: "missing",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSubjectUpdateAllowsKeepingOwnCode(t *testing.T) {
	repo := &mockSubjectRepo{subjects: map[string]*models.Subject{
		"s1": {ID: "s1", Name: "Operating Systems", Code: "CS301", Credits: 4, Semester: 5, BranchID: "b1"},
	}}
	svc := newSubjectService(repo)

	subject, err := svc.Update(context.Background(), "s1", SubjectRequest{
		Name:     "Advanced Operating Systems",
		Code:     "CS301",
		Credits:  4,
		Semester: 5,
		BranchID: "b1",
	})
	require.NoError(t, err)
	assert.Equal(t, "Advanced Operating Systems", subject.Name)
}
