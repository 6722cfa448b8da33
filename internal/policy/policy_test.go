package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Aisenh037/dept-mgmt-api/internal/models"
)

func actor(role models.Role, dept string) Actor {
	return Actor{ID: "actor-1", Role: role, Department: dept}
}

func TestPrivilegedRoleAssignment(t *testing.T) {
	privileged := []models.Role{models.RoleCreator, models.RoleDirector, models.RoleHOD}
	allRoles := []models.Role{
		models.RoleCreator, models.RoleDirector, models.RoleHOD,
		models.RoleProfessor, models.RoleStudent, models.RoleAdmin,
	}

	for _, requested := range allRoles {
		d := Decide(actor(models.RoleCreator, ""), Target{RequestedRole: requested}, ActionCreate)
		assert.True(t, d.Allowed, "creator should assign role %s", requested)
	}

	for _, role := range []models.Role{models.RoleDirector, models.RoleHOD, models.RoleAdmin, models.RoleProfessor, models.RoleStudent} {
		for _, requested := range privileged {
			d := Decide(actor(role, "CSE"), Target{RequestedRole: requested}, ActionCreate)
			assert.False(t, d.Allowed, "%s should not assign %s", role, requested)
		}
	}
}

func TestProfessorCreation(t *testing.T) {
	for _, role := range []models.Role{models.RoleCreator, models.RoleDirector} {
		d := Decide(actor(role, ""), Target{RequestedRole: models.RoleProfessor, Department: "ECE"}, ActionCreate)
		assert.True(t, d.Allowed, "%s should create professors", role)
	}

	d := Decide(actor(models.RoleHOD, "CSE"), Target{RequestedRole: models.RoleProfessor, Department: "CSE"}, ActionCreate)
	assert.True(t, d.Allowed, "hod should create professors in own department")

	d = Decide(actor(models.RoleHOD, "CSE"), Target{RequestedRole: models.RoleProfessor, Department: "ECE"}, ActionCreate)
	assert.False(t, d.Allowed, "hod should not create professors outside own department")

	for _, role := range []models.Role{models.RoleAdmin, models.RoleProfessor, models.RoleStudent} {
		d := Decide(actor(role, "CSE"), Target{RequestedRole: models.RoleProfessor, Department: "CSE"}, ActionCreate)
		assert.False(t, d.Allowed, "%s should not create professors", role)
	}
}

func TestCreatorAccountsAreUndeletable(t *testing.T) {
	creatorAccount := &models.Account{ID: "root", Role: models.RoleCreator}

	for _, role := range []models.Role{
		models.RoleCreator, models.RoleDirector, models.RoleHOD,
		models.RoleProfessor, models.RoleStudent, models.RoleAdmin,
	} {
		d := CanDeleteAccount(actor(role, ""), creatorAccount)
		assert.False(t, d.Allowed, "%s should not delete a creator account", role)
	}

	// Not even the creator account itself.
	d := CanDeleteAccount(Actor{ID: "root", Role: models.RoleCreator}, creatorAccount)
	assert.False(t, d.Allowed)
}

func TestHODDepartmentRestriction(t *testing.T) {
	hod := actor(models.RoleHOD, "CSE")

	d := Decide(hod, Target{Department: "CSE"}, ActionUpdate)
	assert.True(t, d.Allowed)

	d = Decide(hod, Target{Department: "ECE"}, ActionUpdate)
	assert.False(t, d.Allowed)

	// Creator and director bypass department checks entirely.
	d = Decide(actor(models.RoleDirector, "CSE"), Target{Department: "ECE"}, ActionUpdate)
	assert.True(t, d.Allowed)
}

func TestOwnershipAllowsAction(t *testing.T) {
	student := Actor{ID: "stu-9", Role: models.RoleStudent}

	d := Decide(student, Target{OwnerID: "stu-9"}, ActionUpdate)
	assert.True(t, d.Allowed)

	d = Decide(student, Target{OwnerID: "stu-8"}, ActionUpdate)
	assert.False(t, d.Allowed)
}

func TestDecideIsDeterministic(t *testing.T) {
	a := actor(models.RoleHOD, "CSE")
	tg := Target{Department: "CSE", RequestedRole: models.RoleProfessor}
	first := Decide(a, tg, ActionCreate)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Decide(a, tg, ActionCreate))
	}
}
