package service

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Aisenh037/dept-mgmt-api/internal/models"
	"github.com/Aisenh037/dept-mgmt-api/internal/policy"
	appErrors "github.com/Aisenh037/dept-mgmt-api/pkg/errors"
	"github.com/Aisenh037/dept-mgmt-api/pkg/export"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	ExistsByScholarNumber(ctx context.Context, scholarNumber string, excludeID string) (bool, error)
	CreateWithAccount(ctx context.Context, account *models.Account, profile *models.StudentProfile) error
	DeleteWithAccount(ctx context.Context, profileID, accountID string) error
	UpdateWithAccount(ctx context.Context, profile *models.StudentProfile, account *models.Account) error
}

type studentAccountRepository interface {
	FindByID(ctx context.Context, id string) (*models.Account, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type studentBranchFinder interface {
	FindByID(ctx context.Context, id string) (*models.Branch, error)
}

// CreateStudentRequest holds payload for registering a student.
type CreateStudentRequest struct {
	ScholarNumber   string  `json:"scholar_number" validate:"required"`
	FullName        string  `json:"full_name" validate:"required"`
	Email           string  `json:"email" validate:"required,email"`
	Password        string  `json:"password" validate:"required,min=6"`
	Mobile          *string `json:"mobile,omitempty"`
	CurrentSemester int     `json:"current_semester" validate:"required,min=1,max=12"`
	BranchID        string  `json:"branch_id" validate:"required"`
	Hostel          *string `json:"hostel,omitempty"`
}

// UpdateStudentRequest holds payload for updating a student.
type UpdateStudentRequest struct {
	FullName        string  `json:"full_name" validate:"required"`
	Email           string  `json:"email" validate:"required,email"`
	Mobile          *string `json:"mobile,omitempty"`
	CurrentSemester int     `json:"current_semester" validate:"required,min=1,max=12"`
	BranchID        string  `json:"branch_id" validate:"required"`
	Hostel          *string `json:"hostel,omitempty"`
}

// StudentService handles the student lifecycle: the account and the academic
// profile are created, updated and deleted together.
type StudentService struct {
	repo      studentRepository
	accounts  studentAccountRepository
	branches  studentBranchFinder
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, accounts studentAccountRepository, branches studentBranchFinder, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{
		repo:      repo,
		accounts:  accounts,
		branches:  branches,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, *models.Pagination, error) {
	start := time.Now()
	students, total, err := s.repo.List(ctx, filter)
	s.metrics.ObserveDBQuery("students_list", time.Since(start))
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return students, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns detailed student information.
func (s *StudentService) Get(ctx context.Context, id string) (*models.StudentDetail, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Create registers a student account and profile in a single transaction.
func (s *StudentService) Create(ctx context.Context, actor policy.Actor, req CreateStudentRequest) (*models.StudentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	branch, err := s.branches.FindByID(ctx, req.BranchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "branch not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load branch")
	}

	if d := policy.Decide(actor, policy.Target{Department: branch.Department, RequestedRole: models.RoleStudent}, policy.ActionCreate); !d.Allowed {
		return nil, appErrors.Clone(appErrors.ErrForbidden, d.Reason)
	}

	if err := s.checkStudentUniqueness(ctx, req.Email, req.ScholarNumber, ""); err != nil {
		return nil, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	department := branch.Department
	account := &models.Account{
		Email:        strings.ToLower(req.Email),
		PasswordHash: string(passwordHash),
		FullName:     req.FullName,
		Role:         models.RoleStudent,
		Department:   &department,
		Active:       true,
	}
	profile := &models.StudentProfile{
		ScholarNumber:   req.ScholarNumber,
		FullName:        req.FullName,
		Email:           account.Email,
		Mobile:          req.Mobile,
		CurrentSemester: req.CurrentSemester,
		BranchID:        req.BranchID,
		Hostel:          req.Hostel,
	}

	// checkStudentUniqueness above is the 409 path; a unique-index violation
	// here means a concurrent insert won the race and surfaces as 500.
	if err := s.repo.CreateWithAccount(ctx, account, profile); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}

	if err := s.accounts.CreateAuditLog(ctx, &models.AuditLog{
		AccountID:  &actor.ID,
		Action:     models.AuditActionCreate,
		Resource:   "student",
		ResourceID: &profile.ID,
		NewValues:  []byte(fmt.Sprintf(`{"scholar_number":%q}`, profile.ScholarNumber)),
	}); err != nil {
		s.logger.Warn("failed to record student create audit log", zap.Error(err))
	}

	return &models.StudentDetail{StudentProfile: *profile, BranchName: &branch.Name}, nil
}

// Update modifies the profile and, when identity fields changed, the linked
// account in the same transaction.
func (s *StudentService) Update(ctx context.Context, actor policy.Actor, id string, req UpdateStudentRequest) (*models.StudentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	branch, err := s.branches.FindByID(ctx, req.BranchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "branch not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load branch")
	}

	if d := policy.Decide(actor, policy.Target{OwnerID: existing.AccountID, Department: branch.Department}, policy.ActionUpdate); !d.Allowed {
		return nil, appErrors.Clone(appErrors.ErrForbidden, d.Reason)
	}

	newEmail := strings.ToLower(req.Email)
	if newEmail != existing.Email {
		taken, err := s.accounts.ExistsByEmail(ctx, newEmail)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate email")
		}
		if taken {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already used")
		}
	}

	profile := existing.StudentProfile
	profile.FullName = req.FullName
	profile.Email = newEmail
	profile.Mobile = req.Mobile
	profile.CurrentSemester = req.CurrentSemester
	profile.BranchID = req.BranchID
	profile.Hostel = req.Hostel

	var account *models.Account
	if newEmail != existing.Email || req.FullName != existing.FullName {
		stored, err := s.accounts.FindByID(ctx, existing.AccountID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load account")
		}
		stored.Email = newEmail
		stored.FullName = req.FullName
		account = stored
	}

	if err := s.repo.UpdateWithAccount(ctx, &profile, account); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}

	return &models.StudentDetail{StudentProfile: profile, BranchName: &branch.Name}, nil
}

// Delete removes the profile and its account in one transaction.
func (s *StudentService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
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
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}

	if err := s.accounts.CreateAuditLog(ctx, &models.AuditLog{
		AccountID:  &actor.ID,
		Action:     models.AuditActionDelete,
		Resource:   "student",
		ResourceID: &existing.ID,
		OldValues:  []byte(fmt.Sprintf(`{"scholar_number":%q}`, existing.ScholarNumber)),
	}); err != nil {
		s.logger.Warn("failed to record student delete audit log", zap.Error(err))
	}

	return nil
}

// rosterColumns is the expected header of an imported roster CSV.
var rosterColumns = []string{"scholar_number", "full_name", "email", "password", "current_semester", "branch_id"}

// ImportRoster bulk-registers students from a CSV stream. Bad rows are
// reported individually and do not abort the rest of the file.
func (s *StudentService) ImportRoster(ctx context.Context, actor policy.Actor, r io.Reader) (*models.RosterImportResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "roster file is empty or unreadable")
	}
	if len(header) < len(rosterColumns) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "roster header must be: "+strings.Join(rosterColumns, ","))
	}
	for i, want := range rosterColumns {
		if strings.TrimSpace(strings.ToLower(header[i])) != want {
			return nil, appErrors.Clone(appErrors.ErrValidation, "roster header must be: "+strings.Join(rosterColumns, ","))
		}
	}

	result := &models.RosterImportResult{}
	row := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			result.Failed = append(result.Failed, models.RosterImportError{Row: row, Reason: "malformed csv row"})
			continue
		}

		semester, err := strconv.Atoi(strings.TrimSpace(record[4]))
		if err != nil {
			result.Failed = append(result.Failed, models.RosterImportError{Row: row, Reason: "current_semester must be a number"})
			continue
		}

		req := CreateStudentRequest{
			ScholarNumber:   strings.TrimSpace(record[0]),
			FullName:        strings.TrimSpace(record[1]),
			Email:           strings.TrimSpace(record[2]),
			Password:        record[3],
			CurrentSemester: semester,
			BranchID:        strings.TrimSpace(record[5]),
		}
		if _, err := s.Create(ctx, actor, req); err != nil {
			result.Failed = append(result.Failed, models.RosterImportError{Row: row, Reason: appErrors.FromError(err).Message})
			continue
		}
		result.Imported++
	}

	return result, nil
}

// ExportRoster renders the filtered student list as CSV or PDF bytes.
func (s *StudentService) ExportRoster(ctx context.Context, filter models.StudentFilter, format string) ([]byte, string, error) {
	filter.Page = 1
	filter.PageSize = 10000
	students, _, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}

	data := export.Dataset{Headers: []string{"Scholar Number", "Full Name", "Email", "Semester", "Branch"}}
	for _, st := range students {
		branch := st.BranchID
		if st.BranchName != nil {
			branch = *st.BranchName
		}
		data.Rows = append(data.Rows, map[string]string{
			"Scholar Number": st.ScholarNumber,
			"Full Name":      st.FullName,
			"Email":          st.Email,
			"Semester":       strconv.Itoa(st.CurrentSemester),
			"Branch":         branch,
		})
	}

	switch strings.ToLower(format) {
	case "", "csv":
		out, err := s.csv.Render(data)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return out, "text/csv", nil
	case "pdf":
		out, err := s.pdf.Render(data, "Student Roster")
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return out, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "unsupported export format: "+format)
	}
}

func (s *StudentService) checkStudentUniqueness(ctx context.Context, email, scholarNumber, excludeID string) error {
	emailTaken, err := s.accounts.ExistsByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate email")
	}
	if emailTaken {
		return appErrors.Clone(appErrors.ErrConflict, "email already used")
	}
	numberTaken, err := s.repo.ExistsByScholarNumber(ctx, scholarNumber, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate scholar number")
	}
	if numberTaken {
		return appErrors.Clone(appErrors.ErrConflict, "scholar number already used")
	}
	return nil
}
