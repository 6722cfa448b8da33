package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Aisenh037/dept-mgmt-api/internal/models"
	"github.com/Aisenh037/dept-mgmt-api/internal/policy"
	appErrors "github.com/Aisenh037/dept-mgmt-api/pkg/errors"
)

type mockAttendanceRepo struct {
	records map[string]*models.AttendanceRecord
	marks   map[string]*models.Mark
}

func attendanceKey(r *models.AttendanceRecord) string {
	return r.SubjectID + "|" + r.StudentID + "|" + r.Date
}

func markKey(m *models.Mark) string {
	return m.StudentID + "|" + m.SubjectID + "|" + string(m.ExamType)
}

func (m *mockAttendanceRepo) UpsertRecord(ctx context.Context, record *models.AttendanceRecord) error {
	if m.records == nil {
		m.records = make(map[string]*models.AttendanceRecord)
	}
	clone := *record
	m.records[attendanceKey(record)] = &clone
	return nil
}

func (m *mockAttendanceRepo) ListBySubjectDate(ctx context.Context, subjectID, date string) ([]models.AttendanceRecord, error) {
	var out []models.AttendanceRecord
	for _, r := range m.records {
		if r.SubjectID == subjectID && r.Date == date {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *mockAttendanceRepo) ListByStudent(ctx context.Context, studentID string) ([]models.AttendanceRecord, error) {
	var out []models.AttendanceRecord
	for _, r := range m.records {
		if r.StudentID == studentID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *mockAttendanceRepo) UpsertMark(ctx context.Context, mark *models.Mark) error {
	if m.marks == nil {
		m.marks = make(map[string]*models.Mark)
	}
	clone := *mark
	m.marks[markKey(mark)] = &clone
	return nil
}

func (m *mockAttendanceRepo) ListMarksByStudent(ctx context.Context, studentID string) ([]models.Mark, error) {
	var out []models.Mark
	for _, mk := range m.marks {
		if mk.StudentID == studentID {
			out = append(out, *mk)
		}
	}
	return out, nil
}

func newAttendanceService(repo *mockAttendanceRepo) *AttendanceService {
	return NewAttendanceService(repo, validator.New(), zap.NewNop())
}

func TestMarkAttendanceUpserts(t *testing.T) {
	repo := &mockAttendanceRepo{}
	svc := newAttendanceService(repo)
	actor := policy.Actor{ID: "prof1", Role: models.RoleProfessor}

	_, err := svc.Mark(context.Background(), actor, MarkAttendanceRequest{
		SubjectID: "s1", Date: "2024-03-01",
		Entries: []AttendanceEntry{{StudentID: "stu1", Status: "present"}},
	})
	require.NoError(t, err)

	// Re-marking the same key overwrites, no duplicate row.
	_, err = svc.Mark(context.Background(), actor, MarkAttendanceRequest{
		SubjectID: "s1", Date: "2024-03-01",
		Entries: []AttendanceEntry{{StudentID: "stu1", Status: "ABSENT"}},
	})
	require.NoError(t, err)

	require.Len(t, repo.records, 1)
	sheet, err := svc.Sheet(context.Background(), "s1", "2024-03-01")
	require.NoError(t, err)
	require.Len(t, sheet, 1)
	assert.Equal(t, models.AttendanceAbsent, sheet[0].Status)
}

func TestMarkAttendanceByStudentDenied(t *testing.T) {
	svc := newAttendanceService(&mockAttendanceRepo{})

	_, err := svc.Mark(context.Background(), policy.Actor{ID: "stu1", Role: models.RoleStudent}, MarkAttendanceRequest{
		SubjectID: "s1", Date: "2024-03-01",
		Entries: []AttendanceEntry{{StudentID: "stu1", Status: "PRESENT"}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestMarkAttendanceInvalidStatus(t *testing.T) {
	svc := newAttendanceService(&mockAttendanceRepo{})

	_, err := svc.Mark(context.Background(), policy.Actor{ID: "prof1", Role: models.RoleProfessor}, MarkAttendanceRequest{
		SubjectID: "s1", Date: "2024-03-01",
		Entries: []AttendanceEntry{{StudentID: "stu1", Status: "SLEEPING"}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStudentHistoryOwnershipEnforced(t *testing.T) {
	repo := &mockAttendanceRepo{}
	svc := newAttendanceService(repo)

	_, err := svc.StudentHistory(context.Background(), policy.Actor{ID: "stu2", Role: models.RoleStudent}, "stu1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.StudentHistory(context.Background(), policy.Actor{ID: "stu1", Role: models.RoleStudent}, "stu1")
	require.NoError(t, err)
}

func TestRecordMarkUpsertsAndValidatesScore(t *testing.T) {
	repo := &mockAttendanceRepo{}
	svc := newAttendanceService(repo)
	actor := policy.Actor{ID: "prof1", Role: models.RoleProfessor}

	_, err := svc.RecordMark(context.Background(), actor, RecordMarkRequest{StudentID: "stu1", SubjectID: "s1", ExamType: "midterm", Score: 40, MaxScore: 50})
	require.NoError(t, err)
	_, err = svc.RecordMark(context.Background(), actor, RecordMarkRequest{StudentID: "stu1", SubjectID: "s1", ExamType: "MIDTERM", Score: 45, MaxScore: 50})
	require.NoError(t, err)
	require.Len(t, repo.marks, 1)

	_, err = svc.RecordMark(context.Background(), actor, RecordMarkRequest{StudentID: "stu1", SubjectID: "s1", ExamType: "FINAL", Score: 60, MaxScore: 50})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
