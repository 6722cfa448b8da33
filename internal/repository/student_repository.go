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

// StudentRepository manages persistence for student profiles and their linked
// accounts. The account+profile pair is only ever written inside one
// transaction so that no orphan of either kind can become visible.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = `s.id, s.account_id, s.scholar_number, s.full_name, s.email, s.mobile, s.current_semester, s.branch_id, s.hostel, s.created_at, s.updated_at`

// List returns students matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	base := "FROM student_profiles s LEFT JOIN branches b ON b.id = s.branch_id"
	var args []interface{}
	conditions := []string{"1=1"}

	if filter.BranchID != "" {
		conditions = append(conditions, fmt.Sprintf("s.branch_id = $%d", len(args)+1))
		args = append(args, filter.BranchID)
	}
	if filter.Semester > 0 {
		conditions = append(conditions, fmt.Sprintf("s.current_semester = $%d", len(args)+1))
		args = append(args, filter.Semester)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(s.full_name) LIKE $%d OR LOWER(s.scholar_number) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"full_name":      "s.full_name",
		"scholar_number": "s.scholar_number",
		"created_at":     "s.created_at",
	}
	if sortBy == "" {
		sortBy = "created_at"
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "s.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
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

	query := fmt.Sprintf(`SELECT %s, b.name AS branch_name %s ORDER BY %s %s LIMIT %d OFFSET %d`, studentColumns, base, column, order, size, offset)

	var students []models.StudentDetail
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID fetches a student profile by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	query := fmt.Sprintf(`SELECT %s, b.name AS branch_name FROM student_profiles s LEFT JOIN branches b ON b.id = s.branch_id WHERE s.id = $1`, studentColumns)
	var detail models.StudentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ExistsByScholarNumber checks if a profile with the given scholar number
// exists, optionally excluding an ID.
func (r *StudentRepository) ExistsByScholarNumber(ctx context.Context, scholarNumber string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM student_profiles WHERE scholar_number = $1"
	args := []interface{}{scholarNumber}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check scholar number: %w", err)
	}
	return true, nil
}

// CreateWithAccount inserts the account and the profile as one transaction.
// Either both rows commit or neither does; the unique indexes on
// accounts.email and student_profiles.scholar_number are the backstop for
// concurrent duplicates.
func (r *StudentRepository) CreateWithAccount(ctx context.Context, account *models.Account, profile *models.StudentProfile) error {
	prepareAccount(account)
	prepareStudentProfile(profile)
	profile.AccountID = account.ID

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create student: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.NamedExecContext(ctx, `INSERT INTO accounts (id, email, password_hash, full_name, role, department, active, created_at, updated_at) VALUES (:id, :email, :password_hash, :full_name, :role, :department, :active, :created_at, :updated_at)`, account); err != nil {
		return fmt.Errorf("create student account: %w", err)
	}

	if _, err = tx.NamedExecContext(ctx, `INSERT INTO student_profiles (id, account_id, scholar_number, full_name, email, mobile, current_semester, branch_id, hostel, created_at, updated_at) VALUES (:id, :account_id, :scholar_number, :full_name, :email, :mobile, :current_semester, :branch_id, :hostel, :created_at, :updated_at)`, profile); err != nil {
		return fmt.Errorf("create student profile: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create student: %w", err)
	}
	return nil
}

// DeleteWithAccount removes the profile and its linked account as one
// transaction.
func (r *StudentRepository) DeleteWithAccount(ctx context.Context, profileID, accountID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete student: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM student_profiles WHERE id = $1`, profileID); err != nil {
		return fmt.Errorf("delete student profile: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, accountID); err != nil {
		return fmt.Errorf("delete student account: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete student: %w", err)
	}
	return nil
}

// UpdateWithAccount writes the profile and, when the name or email changed,
// the linked account inside the same transaction.
func (r *StudentRepository) UpdateWithAccount(ctx context.Context, profile *models.StudentProfile, account *models.Account) error {
	profile.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update student: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.NamedExecContext(ctx, `UPDATE student_profiles SET scholar_number = :scholar_number, full_name = :full_name, email = :email, mobile = :mobile, current_semester = :current_semester, branch_id = :branch_id, hostel = :hostel, updated_at = :updated_at WHERE id = :id`, profile); err != nil {
		return fmt.Errorf("update student profile: %w", err)
	}

	if account != nil {
		account.UpdatedAt = profile.UpdatedAt
		if _, err = tx.NamedExecContext(ctx, `UPDATE accounts SET email = :email, full_name = :full_name, updated_at = :updated_at WHERE id = :id`, account); err != nil {
			return fmt.Errorf("update student account: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit update student: %w", err)
	}
	return nil
}

func prepareStudentProfile(profile *models.StudentProfile) {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now
}
