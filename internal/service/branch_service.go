package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Aisenh037/dept-mgmt-api/internal/models"
	appErrors "github.com/Aisenh037/dept-mgmt-api/pkg/errors"
)

type branchRepository interface {
	List(ctx context.Context) ([]models.Branch, error)
	FindByID(ctx context.Context, id string) (*models.Branch, error)
	ExistsByNameOrCode(ctx context.Context, name, code string) (bool, error)
	CountStudents(ctx context.Context, branchID string) (int, error)
	Create(ctx context.Context, branch *models.Branch) error
	Update(ctx context.Context, branch *models.Branch) error
	Delete(ctx context.Context, id string) error
}

// BranchRequest holds payload for creating or updating a branch.
type BranchRequest struct {
	Name              string `json:"name" validate:"required"`
	Code              string `json:"code" validate:"required"`
	Department        string `json:"department" validate:"required"`
	Capacity          int    `json:"capacity" validate:"required,min=1"`
	EstablishmentYear int    `json:"establishment_year" validate:"required,min=1900"`
	Semesters         int    `json:"semesters" validate:"required,min=1,max=12"`
}

const branchListCacheKey = "branches:list"

// BranchService handles academic branch management. The branch list is
// read-heavy and changes rarely, so it is served through the cache layer.
type BranchService struct {
	repo      branchRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBranchService constructs the branch service. cache may be nil.
func NewBranchService(repo branchRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *BranchService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BranchService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns all branches.
func (s *BranchService) List(ctx context.Context) ([]models.Branch, error) {
	var cached []models.Branch
	if hit, err := s.cache.Get(ctx, branchListCacheKey, &cached); err == nil && hit {
		return cached, nil
	}
	branches, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list branches")
	}
	if err := s.cache.Set(ctx, branchListCacheKey, branches, 0); err != nil {
		s.logger.Warn("failed to cache branch list", zap.Error(err))
	}
	return branches, nil
}

func (s *BranchService) invalidateCache(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, branchListCacheKey); err != nil {
		s.logger.Warn("failed to invalidate branch cache", zap.Error(err))
	}
}

// Get returns one branch.
func (s *BranchService) Get(ctx context.Context, id string) (*models.Branch, error) {
	branch, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "branch not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load branch")
	}
	return branch, nil
}

// Create registers a new branch. Name and code must both be unique.
func (s *BranchService) Create(ctx context.Context, req BranchRequest) (*models.Branch, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid branch payload")
	}
	exists, err := s.repo.ExistsByNameOrCode(ctx, req.Name, req.Code)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate branch")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "branch name or code already used")
	}
	branch := &models.Branch{
		Name:              req.Name,
		Code:              req.Code,
		Department:        req.Department,
		Capacity:          req.Capacity,
		EstablishmentYear: req.EstablishmentYear,
		Semesters:         req.Semesters,
	}
	if err := s.repo.Create(ctx, branch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create branch")
	}
	s.invalidateCache(ctx)
	return branch, nil
}

// Update modifies a branch.
func (s *BranchService) Update(ctx context.Context, id string, req BranchRequest) (*models.Branch, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid branch payload")
	}
	branch, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "branch not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load branch")
	}
	branch.Name = req.Name
	branch.Code = req.Code
	branch.Department = req.Department
	branch.Capacity = req.Capacity
	branch.EstablishmentYear = req.EstablishmentYear
	branch.Semesters = req.Semesters
	if err := s.repo.Update(ctx, branch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update branch")
	}
	s.invalidateCache(ctx)
	return branch, nil
}

// Delete removes a branch. Refused while students are still enrolled in it.
func (s *BranchService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "branch not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load branch")
	}
	enrolled, err := s.repo.CountStudents(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count enrolled students")
	}
	if enrolled > 0 {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("branch still has %d enrolled students", enrolled))
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete branch")
	}
	s.invalidateCache(ctx)
	return nil
}
