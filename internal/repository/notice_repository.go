package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Aisenh037/dept-mgmt-api/internal/models"
)

// NoticeRepository manages persistence for departmental notices.
type NoticeRepository struct {
	db *sqlx.DB
}

// NewNoticeRepository constructs a NoticeRepository.
func NewNoticeRepository(db *sqlx.DB) *NoticeRepository {
	return &NoticeRepository{db: db}
}

// Create inserts a new notice.
func (r *NoticeRepository) Create(ctx context.Context, notice *models.Notice) error {
	if notice.ID == "" {
		notice.ID = uuid.NewString()
	}
	if notice.CreatedAt.IsZero() {
		notice.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO notices (id, title, body, audience, branch_id, created_by, created_at) VALUES (:id, :title, :body, :audience, :branch_id, :created_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, notice); err != nil {
		return fmt.Errorf("create notice: %w", err)
	}
	return nil
}

// ListVisible returns notices visible to the given audiences, newest first.
func (r *NoticeRepository) ListVisible(ctx context.Context, audiences []models.NoticeAudience, branchID string) ([]models.Notice, error) {
	query := `SELECT id, title, body, audience, branch_id, created_by, created_at FROM notices WHERE audience IN (?)`
	args := []interface{}{audiences}
	if branchID != "" {
		query += ` OR (audience = ? AND branch_id = ?)`
		args = append(args, models.AudienceBranch, branchID)
	}
	query += ` ORDER BY created_at DESC`

	expanded, expandedArgs, err := sqlx.In(query, args...)
	if err != nil {
		return nil, fmt.Errorf("expand notice query: %w", err)
	}
	expanded = r.db.Rebind(expanded)

	var notices []models.Notice
	if err := r.db.SelectContext(ctx, &notices, expanded, expandedArgs...); err != nil {
		return nil, fmt.Errorf("list notices: %w", err)
	}
	return notices, nil
}

// ListRecipientEmails returns the email addresses a notice should fan out to.
func (r *NoticeRepository) ListRecipientEmails(ctx context.Context, notice *models.Notice) ([]string, error) {
	switch notice.Audience {
	case models.AudienceAll:
		return r.selectEmails(ctx, `SELECT email FROM accounts WHERE active = TRUE`)
	case models.AudienceStudents:
		return r.selectEmails(ctx, `SELECT email FROM accounts WHERE active = TRUE AND role = $1`, models.RoleStudent)
	case models.AudienceProfessors:
		return r.selectEmails(ctx, `SELECT email FROM accounts WHERE active = TRUE AND role = $1`, models.RoleProfessor)
	case models.AudienceBranch:
		if notice.BranchID == nil {
			return nil, nil
		}
		return r.selectEmails(ctx, `SELECT email FROM student_profiles WHERE branch_id = $1`, *notice.BranchID)
	}
	return nil, nil
}

func (r *NoticeRepository) selectEmails(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	var emails []string
	if err := r.db.SelectContext(ctx, &emails, query, args...); err != nil {
		return nil, fmt.Errorf("list notice recipients: %w", err)
	}
	return emails, nil
}
