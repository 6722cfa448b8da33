package service

import (
	"context"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Aisenh037/dept-mgmt-api/internal/models"
	"github.com/Aisenh037/dept-mgmt-api/internal/policy"
	appErrors "github.com/Aisenh037/dept-mgmt-api/pkg/errors"
)

type attendanceRepository interface {
	UpsertRecord(ctx context.Context, record *models.AttendanceRecord) error
	ListBySubjectDate(ctx context.Context, subjectID, date string) ([]models.AttendanceRecord, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.AttendanceRecord, error)
	UpsertMark(ctx context.Context, mark *models.Mark) error
	ListMarksByStudent(ctx context.Context, studentID string) ([]models.Mark, error)
}

// MarkAttendanceRequest records presence for a batch of students in one
// subject on one date.
type MarkAttendanceRequest struct {
	SubjectID string            `json:"subject_id" validate:"required"`
	Date      string            `json:"date" validate:"required"`
	Entries   []AttendanceEntry `json:"entries" validate:"required,min=1,dive"`
}

// AttendanceEntry is one student's status within a batch.
type AttendanceEntry struct {
	StudentID string `json:"student_id" validate:"required"`
	Status    string `json:"status" validate:"required"`
}

// RecordMarkRequest records an exam score.
type RecordMarkRequest struct {
	StudentID string  `json:"student_id" validate:"required"`
	SubjectID string  `json:"subject_id" validate:"required"`
	ExamType  string  `json:"exam_type" validate:"required"`
	Score     float64 `json:"score" validate:"min=0"`
	MaxScore  float64 `json:"max_score" validate:"required,gtefield=Score"`
}

var attendanceDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// AttendanceService records attendance and exam marks. Both are upserts:
// re-marking the same key overwrites instead of duplicating.
type AttendanceService struct {
	repo      attendanceRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(repo attendanceRepository, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{repo: repo, validator: validate, logger: logger}
}

// Mark records attendance for a batch of students.
func (s *AttendanceService) Mark(ctx context.Context, actor policy.Actor, req MarkAttendanceRequest) ([]models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	if !attendanceDatePattern.MatchString(req.Date) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}
	if actor.Role == models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "students may not mark attendance")
	}

	records := make([]models.AttendanceRecord, 0, len(req.Entries))
	for _, entry := range req.Entries {
		status := models.AttendanceStatus(strings.ToUpper(entry.Status))
		switch status {
		case models.AttendancePresent, models.AttendanceAbsent, models.AttendanceLate:
		default:
			return nil, appErrors.Clone(appErrors.ErrValidation, "status must be PRESENT, ABSENT or LATE")
		}
		record := models.AttendanceRecord{
			SubjectID: req.SubjectID,
			StudentID: entry.StudentID,
			Date:      req.Date,
			Status:    status,
			MarkedBy:  actor.ID,
		}
		if err := s.repo.UpsertRecord(ctx, &record); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
		}
		records = append(records, record)
	}
	return records, nil
}

// Sheet returns the attendance records of a subject on a date.
func (s *AttendanceService) Sheet(ctx context.Context, subjectID, date string) ([]models.AttendanceRecord, error) {
	if !attendanceDatePattern.MatchString(date) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}
	records, err := s.repo.ListBySubjectDate(ctx, subjectID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return records, nil
}

// StudentHistory returns a student's attendance records. Students may only
// read their own history.
func (s *AttendanceService) StudentHistory(ctx context.Context, actor policy.Actor, studentAccountID string) ([]models.AttendanceRecord, error) {
	if d := policy.Decide(actor, policy.Target{OwnerID: studentAccountID}, policy.ActionRead); !d.Allowed {
		return nil, appErrors.Clone(appErrors.ErrForbidden, d.Reason)
	}
	records, err := s.repo.ListByStudent(ctx, studentAccountID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return records, nil
}

// RecordMark upserts an exam score.
func (s *AttendanceService) RecordMark(ctx context.Context, actor policy.Actor, req RecordMarkRequest) (*models.Mark, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid mark payload")
	}
	if actor.Role == models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "students may not record marks")
	}
	examType := models.ExamType(strings.ToUpper(req.ExamType))
	switch examType {
	case models.ExamMidterm, models.ExamFinal, models.ExamInternal:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "exam_type must be MIDTERM, FINAL or INTERNAL")
	}
	if req.Score > req.MaxScore {
		return nil, appErrors.Clone(appErrors.ErrValidation, "score exceeds max score")
	}

	mark := &models.Mark{
		StudentID:  req.StudentID,
		SubjectID:  req.SubjectID,
		ExamType:   examType,
		Score:      req.Score,
		MaxScore:   req.MaxScore,
		RecordedBy: actor.ID,
	}
	if err := s.repo.UpsertMark(ctx, mark); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record mark")
	}
	return mark, nil
}

// StudentMarks returns a student's marks. Students may only read their own.
func (s *AttendanceService) StudentMarks(ctx context.Context, actor policy.Actor, studentAccountID string) ([]models.Mark, error) {
	if d := policy.Decide(actor, policy.Target{OwnerID: studentAccountID}, policy.ActionRead); !d.Allowed {
		return nil, appErrors.Clone(appErrors.ErrForbidden, d.Reason)
	}
	marks, err := s.repo.ListMarksByStudent(ctx, studentAccountID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list marks")
	}
	return marks, nil
}
