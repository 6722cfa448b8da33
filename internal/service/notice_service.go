package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Aisenh037/dept-mgmt-api/internal/models"
	"github.com/Aisenh037/dept-mgmt-api/internal/policy"
	appErrors "github.com/Aisenh037/dept-mgmt-api/pkg/errors"
	"github.com/Aisenh037/dept-mgmt-api/pkg/jobs"
	"github.com/Aisenh037/dept-mgmt-api/pkg/mailer"
)

type noticeRepository interface {
	Create(ctx context.Context, notice *models.Notice) error
	ListVisible(ctx context.Context, audiences []models.NoticeAudience, branchID string) ([]models.Notice, error)
	ListRecipientEmails(ctx context.Context, notice *models.Notice) ([]string, error)
}

type noticeQueue interface {
	Enqueue(job jobs.Job) error
}

// CreateNoticeRequest holds payload for publishing a notice.
type CreateNoticeRequest struct {
	Title    string  `json:"title" validate:"required"`
	Body     string  `json:"body" validate:"required"`
	Audience string  `json:"audience" validate:"required,audience"`
	BranchID *string `json:"branch_id,omitempty"`
}

// noticeEmailPayload travels through the job queue for async delivery.
type noticeEmailPayload struct {
	NoticeID string
	Title    string
	Body     string
	Audience models.NoticeAudience
	BranchID *string
}

// NoticeService publishes departmental announcements. Creating a notice
// returns as soon as the row is written; email fan-out happens on the
// background queue so a slow mail provider never blocks the request.
type NoticeService struct {
	repo      noticeRepository
	queue     noticeQueue
	mailer    mailer.Mailer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewNoticeService constructs the notice service.
func NewNoticeService(repo noticeRepository, queue noticeQueue, mail mailer.Mailer, validate *validator.Validate, logger *zap.Logger) *NoticeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &NoticeService{repo: repo, queue: queue, mailer: mail, validator: validate, logger: logger}
	svc.validator.RegisterValidation("audience", func(fl validator.FieldLevel) bool {
		switch models.NoticeAudience(strings.ToUpper(fl.Field().String())) {
		case models.AudienceAll, models.AudienceStudents, models.AudienceProfessors, models.AudienceBranch:
			return true
		default:
			return false
		}
	})
	return svc
}

// Create publishes a notice and queues the email fan-out.
func (s *NoticeService) Create(ctx context.Context, actor policy.Actor, req CreateNoticeRequest) (*models.Notice, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notice payload")
	}

	switch actor.Role {
	case models.RoleStudent:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "students may not publish notices")
	}

	audience := models.NoticeAudience(strings.ToUpper(req.Audience))
	if audience == models.AudienceBranch && (req.BranchID == nil || *req.BranchID == "") {
		return nil, appErrors.Clone(appErrors.ErrValidation, "branch_id is required for branch notices")
	}

	notice := &models.Notice{
		Title:     req.Title,
		Body:      req.Body,
		Audience:  audience,
		BranchID:  req.BranchID,
		CreatedBy: actor.ID,
	}
	if err := s.repo.Create(ctx, notice); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create notice")
	}

	if err := s.queue.Enqueue(jobs.Job{
		ID:      notice.ID,
		Type:    "notice_email",
		Payload: noticeEmailPayload{NoticeID: notice.ID, Title: notice.Title, Body: notice.Body, Audience: notice.Audience, BranchID: notice.BranchID},
	}); err != nil {
		// The notice itself is published; delivery just stays best-effort.
		s.logger.Warn("failed to queue notice email fan-out", zap.String("notice_id", notice.ID), zap.Error(err))
	}

	return notice, nil
}

// ListFor returns the notices visible to the given actor.
func (s *NoticeService) ListFor(ctx context.Context, actor policy.Actor, branchID string) ([]models.Notice, error) {
	audiences := []models.NoticeAudience{models.AudienceAll}
	switch actor.Role {
	case models.RoleStudent:
		audiences = append(audiences, models.AudienceStudents)
	case models.RoleProfessor:
		audiences = append(audiences, models.AudienceProfessors)
	default:
		audiences = append(audiences, models.AudienceStudents, models.AudienceProfessors)
	}
	if branchID != "" {
		audiences = append(audiences, models.AudienceBranch)
	}

	notices, err := s.repo.ListVisible(ctx, audiences, branchID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notices")
	}
	return notices, nil
}

// HandleEmailJob is the queue handler that delivers a published notice to
// its audience. Wire it as the handler of the notices queue.
func (s *NoticeService) HandleEmailJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(noticeEmailPayload)
	if !ok {
		return fmt.Errorf("unexpected payload type %T for job %s", job.Payload, job.ID)
	}

	recipients, err := s.repo.ListRecipientEmails(ctx, &models.Notice{ID: payload.NoticeID, Audience: payload.Audience, BranchID: payload.BranchID})
	if err != nil {
		return fmt.Errorf("resolve notice recipients: %w", err)
	}

	var failed int
	for _, to := range recipients {
		msg := mailer.Message{
			To:      to,
			Subject: "Notice: " + payload.Title,
			HTML:    fmt.Sprintf("<h3>%s</h3><p>%s</p>", payload.Title, payload.Body),
		}
		if err := s.mailer.Send(ctx, msg); err != nil {
			failed++
			s.logger.Warn("failed to deliver notice email", zap.String("notice_id", payload.NoticeID), zap.String("to", to), zap.Error(err))
		}
	}
	if failed > 0 && failed == len(recipients) {
		return fmt.Errorf("all %d notice emails failed", failed)
	}
	return nil
}
