package repository

import (
	"context"
	"fmt"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aisenh037/dept-mgmt-api/internal/models"
)

func TestCreateWithAccountCommitsBothInserts(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO accounts").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO student_profiles").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	account := &models.Account{Email: "a@x.com", PasswordHash: "hash", FullName: "A", Role: models.RoleStudent, Active: true}
	profile := &models.StudentProfile{ScholarNumber: "S1", FullName: "A", Email: "a@x.com", CurrentSemester: 1, BranchID: "b1"}

	err := repo.CreateWithAccount(context.Background(), account, profile)
	require.NoError(t, err)
	assert.NotEmpty(t, account.ID)
	assert.Equal(t, account.ID, profile.AccountID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithAccountRollsBackOnProfileFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO accounts").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO student_profiles").WillReturnError(fmt.Errorf("duplicate key value violates unique constraint"))
	mock.ExpectRollback()

	account := &models.Account{Email: "a@x.com", PasswordHash: "hash", FullName: "A", Role: models.RoleStudent, Active: true}
	profile := &models.StudentProfile{ScholarNumber: "S1", FullName: "A", Email: "a@x.com", CurrentSemester: 1, BranchID: "b1"}

	err := repo.CreateWithAccount(context.Background(), account, profile)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteWithAccountIsTransactional(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM student_profiles").WithArgs("p1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM accounts").WithArgs("a1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.DeleteWithAccount(context.Background(), "p1", "a1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteWithAccountRollsBackOnAccountFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM student_profiles").WithArgs("p1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM accounts").WithArgs("a1").WillReturnError(fmt.Errorf("connection reset"))
	mock.ExpectRollback()

	err := repo.DeleteWithAccount(context.Background(), "p1", "a1")
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateWithAccountSkipsAccountWhenUnchanged(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE student_profiles SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	profile := &models.StudentProfile{ID: "p1", ScholarNumber: "S1", FullName: "A", Email: "a@x.com", CurrentSemester: 2, BranchID: "b1"}
	err := repo.UpdateWithAccount(context.Background(), profile, nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExistsByScholarNumber(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("SELECT 1 FROM student_profiles WHERE scholar_number").
		WithArgs("S1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsByScholarNumber(context.Background(), "S1", "")
	require.NoError(t, err)
	assert.True(t, exists)
}
