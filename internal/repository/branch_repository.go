package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Aisenh037/dept-mgmt-api/internal/models"
)

// BranchRepository manages persistence for academic branches.
type BranchRepository struct {
	db *sqlx.DB
}

// NewBranchRepository constructs a BranchRepository.
func NewBranchRepository(db *sqlx.DB) *BranchRepository {
	return &BranchRepository{db: db}
}

const branchColumns = `id, name, code, department, capacity, establishment_year, semesters, created_at, updated_at`

// List returns all branches ordered by name.
func (r *BranchRepository) List(ctx context.Context) ([]models.Branch, error) {
	query := fmt.Sprintf(`SELECT %s FROM branches ORDER BY name ASC`, branchColumns)
	var branches []models.Branch
	if err := r.db.SelectContext(ctx, &branches, query); err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	return branches, nil
}

// FindByID fetches a branch by ID.
func (r *BranchRepository) FindByID(ctx context.Context, id string) (*models.Branch, error) {
	query := fmt.Sprintf(`SELECT %s FROM branches WHERE id = $1 LIMIT 1`, branchColumns)
	var branch models.Branch
	if err := r.db.GetContext(ctx, &branch, query, id); err != nil {
		return nil, err
	}
	return &branch, nil
}

// ExistsByNameOrCode checks whether a branch with the given name or code exists.
func (r *BranchRepository) ExistsByNameOrCode(ctx context.Context, name, code string) (bool, error) {
	var exists int
	if err := r.db.GetContext(ctx, &exists, `SELECT 1 FROM branches WHERE name = $1 OR code = $2 LIMIT 1`, name, code); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check branch name/code: %w", err)
	}
	return true, nil
}

// CountStudents returns the number of student profiles in a branch.
func (r *BranchRepository) CountStudents(ctx context.Context, branchID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM student_profiles WHERE branch_id = $1`, branchID); err != nil {
		return 0, fmt.Errorf("count branch students: %w", err)
	}
	return count, nil
}

// Create inserts a new branch.
func (r *BranchRepository) Create(ctx context.Context, branch *models.Branch) error {
	if branch.ID == "" {
		branch.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if branch.CreatedAt.IsZero() {
		branch.CreatedAt = now
	}
	branch.UpdatedAt = now
	const query = `INSERT INTO branches (id, name, code, department, capacity, establishment_year, semesters, created_at, updated_at) VALUES (:id, :name, :code, :department, :capacity, :establishment_year, :semesters, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, branch); err != nil {
		return fmt.Errorf("create branch: %w", err)
	}
	return nil
}

// Update modifies an existing branch.
func (r *BranchRepository) Update(ctx context.Context, branch *models.Branch) error {
	branch.UpdatedAt = time.Now().UTC()
	const query = `UPDATE branches SET name = :name, code = :code, department = :department, capacity = :capacity, establishment_year = :establishment_year, semesters = :semesters, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, branch); err != nil {
		return fmt.Errorf("update branch: %w", err)
	}
	return nil
}

// Delete removes a branch.
func (r *BranchRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM branches WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete branch: %w", err)
	}
	return nil
}
