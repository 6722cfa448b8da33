package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Aisenh037/dept-mgmt-api/internal/models"
	"github.com/Aisenh037/dept-mgmt-api/internal/policy"
	appErrors "github.com/Aisenh037/dept-mgmt-api/pkg/errors"
)

type professorRepository interface {
	List(ctx context.Context, filter models.ProfessorFilter) ([]models.ProfessorProfile, int, error)
	FindByID(ctx context.Context, id string) (*models.ProfessorProfile, error)
	ExistsByTeacherID(ctx context.Context, teacherID string) (bool, error)
	CreateWithAccount(ctx context.Context, account *models.Account, profile *models.ProfessorProfile) error
	DeleteWithAccount(ctx context.Context, profileID, accountID string) error
	AssignSubject(ctx context.Context, assignment *models.ProfessorSubject) error
	ListSubjects(ctx context.Context, professorID string) ([]models.ProfessorSubject, error)
}

type professorAccountRepository interface {
	FindByID(ctx context.Context, id string) (*models.Account, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type professorSubjectFinder interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

// CreateProfessorRequest holds payload for registering a professor.
type CreateProfessorRequest struct {
	TeacherID  string  `json:"teacher_id" validate:"required"`
	FullName   string  `json:"full_name" validate:"required"`
	Email      string  `json:"email" validate:"required,email"`
	Password   string  `json:"password" validate:"required,min=6"`
	Department string  `json:"department" validate:"required"`
	Contact    *string `json:"contact,omitempty"`
}

// AssignSubjectRequest assigns teaching duty to a professor.
type AssignSubjectRequest struct {
	SubjectID string `json:"subject_id" validate:"required"`
	Semester  int    `json:"semester" validate:"required,min=1,max=12"`
	BranchID  string `json:"branch_id" validate:"required"`
}

// ProfessorService handles the professor lifecycle. Like students, the
// account and the staff profile live and die together.
type ProfessorService struct {
	repo      professorRepository
	accounts  professorAccountRepository
	subjects  professorSubjectFinder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProfessorService constructs the professor service.
func NewProfessorService(repo professorRepository, accounts professorAccountRepository, subjects professorSubjectFinder, validate *validator.Validate, logger *zap.Logger) *ProfessorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfessorService{repo: repo, accounts: accounts, subjects: subjects, validator: validate, logger: logger}
}

// List returns professors and pagination metadata.
func (s *ProfessorService) List(ctx context.Context, filter models.ProfessorFilter) ([]models.ProfessorProfile, *models.Pagination, error) {
	professors, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list professors")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return professors, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a professor profile.
func (s *ProfessorService) Get(ctx context.Context, id string) (*models.ProfessorProfile, error) {
	professor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "professor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load professor")
	}
	return professor, nil
}

// Create registers a professor account and profile in a single transaction.
// Only creator, director or the department's own hod may do this.
func (s *ProfessorService) Create(ctx context.Context, actor policy.Actor, req CreateProfessorRequest) (*models.ProfessorProfile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid professor payload")
	}

	if d := policy.Decide(actor, policy.Target{Department: req.Department, RequestedRole: models.RoleProfessor}, policy.ActionCreate); !d.Allowed {
		return nil, appErrors.Clone(appErrors.ErrForbidden, d.Reason)
	}

	email := strings.ToLower(req.Email)
	emailTaken, err := s.accounts.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate email")
	}
	if emailTaken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already used")
	}
	idTaken, err := s.repo.ExistsByTeacherID(ctx, req.TeacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate teacher id")
	}
	if idTaken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "teacher id already used")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	department := req.Department
	account := &models.Account{
		Email:        email,
		PasswordHash: string(passwordHash),
		FullName:     req.FullName,
		Role:         models.RoleProfessor,
		Department:   &department,
		Active:       true,
	}
	profile := &models.ProfessorProfile{
		TeacherID:  req.TeacherID,
		FullName:   req.FullName,
		Email:      email,
		Department: req.Department,
		Contact:    req.Contact,
		FirstLogin: true,
	}

	if err := s.repo.CreateWithAccount(ctx, account, profile); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create professor")
	}

	if err := s.accounts.CreateAuditLog(ctx, &models.AuditLog{
		AccountID:  &actor.ID,
		Action:     models.AuditActionCreate,
		Resource:   "professor",
		ResourceID: &profile.ID,
		NewValues:  []byte(fmt.Sprintf(`{"teacher_id":%q}`, profile.TeacherID)),
	}); err != nil {
		s.logger.Warn("failed to record professor create audit log", zap.Error(err))
	}

	return profile, nil
}

// Delete removes the profile, its subject assignments and the account in
// one transaction.
func (s *ProfessorService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "professor not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load professor")
	}

	account, err := s.accounts.FindByID(ctx, existing.AccountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "linked account not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load account")
	}

	if d := policy.CanDeleteAccount(actor, account); !d.Allowed {
		if account.Role == models.RoleCreator {
			return appErrors.Clone(appErrors.ErrProtectedAccount, d.Reason)
		}
		return appErrors.Clone(appErrors.ErrForbidden, d.Reason)
	}

	if err := s.repo.DeleteWithAccount(ctx, existing.ID, existing.AccountID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete professor")
	}

	if err := s.accounts.CreateAuditLog(ctx, &models.AuditLog{
		AccountID:  &actor.ID,
		Action:     models.AuditActionDelete,
		Resource:   "professor",
		ResourceID: &existing.ID,
		OldValues:  []byte(fmt.Sprintf(`{"teacher_id":%q}`, existing.TeacherID)),
	}); err != nil {
		s.logger.Warn("failed to record professor delete audit log", zap.Error(err))
	}

	return nil
}

// AssignSubject gives a professor teaching duty for a subject.
func (s *ProfessorService) AssignSubject(ctx context.Context, actor policy.Actor, professorID string, req AssignSubjectRequest) (*models.ProfessorSubject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	professor, err := s.repo.FindByID(ctx, professorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "professor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load professor")
	}

	if d := policy.Decide(actor, policy.Target{Department: professor.Department}, policy.ActionUpdate); !d.Allowed {
		return nil, appErrors.Clone(appErrors.ErrForbidden, d.Reason)
	}

	if _, err := s.subjects.FindByID(ctx, req.SubjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	assignment := &models.ProfessorSubject{
		ProfessorID: professor.ID,
		SubjectID:   req.SubjectID,
		Semester:    req.Semester,
		BranchID:    req.BranchID,
	}
	if err := s.repo.AssignSubject(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign subject")
	}
	return assignment, nil
}

// Subjects lists a professor's teaching assignments.
func (s *ProfessorService) Subjects(ctx context.Context, professorID string) ([]models.ProfessorSubject, error) {
	assignments, err := s.repo.ListSubjects(ctx, professorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subject assignments")
	}
	return assignments, nil
}
