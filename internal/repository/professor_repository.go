package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Aisenh037/dept-mgmt-api/internal/models"
)

// ProfessorRepository manages persistence for professor profiles, their
// linked accounts and subject assignments.
type ProfessorRepository struct {
	db *sqlx.DB
}

// NewProfessorRepository constructs a ProfessorRepository.
func NewProfessorRepository(db *sqlx.DB) *ProfessorRepository {
	return &ProfessorRepository{db: db}
}

const professorColumns = `id, account_id, teacher_id, full_name, email, department, contact, first_login, created_at, updated_at`

// List returns professors matching the provided filters.
func (r *ProfessorRepository) List(ctx context.Context, filter models.ProfessorFilter) ([]models.ProfessorProfile, int, error) {
	base := "FROM professor_profiles WHERE 1=1"
	var args []interface{}

	if filter.Department != "" {
		args = append(args, filter.Department)
		base += fmt.Sprintf(" AND department = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		base += fmt.Sprintf(" AND (LOWER(full_name) LIKE $%d OR LOWER(teacher_id) LIKE $%d)", len(args), len(args))
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s %s ORDER BY full_name %s LIMIT %d OFFSET %d`, professorColumns, base, order, size, offset)

	var professors []models.ProfessorProfile
	if err := r.db.SelectContext(ctx, &professors, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list professors: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count professors: %w", err)
	}
	return professors, total, nil
}

// FindByID fetches a professor profile by ID.
func (r *ProfessorRepository) FindByID(ctx context.Context, id string) (*models.ProfessorProfile, error) {
	query := fmt.Sprintf(`SELECT %s FROM professor_profiles WHERE id = $1 LIMIT 1`, professorColumns)
	var profile models.ProfessorProfile
	if err := r.db.GetContext(ctx, &profile, query, id); err != nil {
		return nil, err
	}
	return &profile, nil
}

// ExistsByTeacherID checks if a profile with the given teacher ID exists.
func (r *ProfessorRepository) ExistsByTeacherID(ctx context.Context, teacherID string) (bool, error) {
	var exists int
	if err := r.db.GetContext(ctx, &exists, `SELECT 1 FROM professor_profiles WHERE teacher_id = $1 LIMIT 1`, teacherID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check teacher id: %w", err)
	}
	return true, nil
}

// CreateWithAccount inserts the account and the profile as one transaction,
// mirroring the student workflow with teacher_id as the uniqueness key.
func (r *ProfessorRepository) CreateWithAccount(ctx context.Context, account *models.Account, profile *models.ProfessorProfile) error {
	prepareAccount(account)
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now
	profile.AccountID = account.ID

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create professor: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.NamedExecContext(ctx, `INSERT INTO accounts (id, email, password_hash, full_name, role, department, active, created_at, updated_at) VALUES (:id, :email, :password_hash, :full_name, :role, :department, :active, :created_at, :updated_at)`, account); err != nil {
		return fmt.Errorf("create professor account: %w", err)
	}

	if _, err = tx.NamedExecContext(ctx, `INSERT INTO professor_profiles (id, account_id, teacher_id, full_name, email, department, contact, first_login, created_at, updated_at) VALUES (:id, :account_id, :teacher_id, :full_name, :email, :department, :contact, :first_login, :created_at, :updated_at)`, profile); err != nil {
		return fmt.Errorf("create professor profile: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create professor: %w", err)
	}
	return nil
}

// DeleteWithAccount removes the profile and its linked account as one
// transaction.
func (r *ProfessorRepository) DeleteWithAccount(ctx context.Context, profileID, accountID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete professor: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM professor_subjects WHERE professor_id = $1`, profileID); err != nil {
		return fmt.Errorf("delete professor subjects: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM professor_profiles WHERE id = $1`, profileID); err != nil {
		return fmt.Errorf("delete professor profile: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, accountID); err != nil {
		return fmt.Errorf("delete professor account: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete professor: %w", err)
	}
	return nil
}

// AssignSubject records a teaching assignment for a professor.
func (r *ProfessorRepository) AssignSubject(ctx context.Context, assignment *models.ProfessorSubject) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO professor_subjects (id, professor_id, subject_id, semester, branch_id, created_at) VALUES (:id, :professor_id, :subject_id, :semester, :branch_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("assign subject: %w", err)
	}
	return nil
}

// ListSubjects returns the teaching assignments for a professor.
func (r *ProfessorRepository) ListSubjects(ctx context.Context, professorID string) ([]models.ProfessorSubject, error) {
	const query = `SELECT id, professor_id, subject_id, semester, branch_id, created_at FROM professor_subjects WHERE professor_id = $1 ORDER BY created_at ASC`
	var assignments []models.ProfessorSubject
	if err := r.db.SelectContext(ctx, &assignments, query, professorID); err != nil {
		return nil, fmt.Errorf("list professor subjects: %w", err)
	}
	return assignments, nil
}
