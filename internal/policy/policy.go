// Package policy holds the pure role-based authorization rules. Every
// ownership or department check in the API goes through Decide so the rules
// live in exactly one place.
package policy

import "github.com/Aisenh037/dept-mgmt-api/internal/models"

// Action is the kind of operation being attempted on a target.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Actor is the authenticated principal requesting an action.
type Actor struct {
	ID         string
	Role       models.Role
	Department string
}

// Target describes the resource being acted on. Zero-value fields mean the
// attribute does not apply to the resource.
type Target struct {
	OwnerID       string
	Department    string
	RequestedRole models.Role // set when the action creates or assigns a role
	TargetRole    models.Role // role of the account being acted on, if any
}

// Decision is the outcome of a policy evaluation.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Reason: reason}
}

// Decide evaluates whether the actor may perform the action on the target.
// It is deterministic and performs no I/O.
func Decide(actor Actor, target Target, action Action) Decision {
	// Creator accounts are immutable: nobody deletes them, bypass roles included.
	if action == ActionDelete && target.TargetRole == models.RoleCreator {
		return deny("creator accounts cannot be deleted")
	}

	if target.RequestedRole != "" {
		if d := decideRoleAssignment(actor, target.RequestedRole); !d.Allowed {
			return d
		}
	}

	switch actor.Role {
	case models.RoleCreator, models.RoleDirector, models.RoleAdmin:
		return allow()
	case models.RoleHOD:
		if target.Department != "" && target.Department != actor.Department {
			return deny("hod is restricted to own department")
		}
		return allow()
	}

	if target.OwnerID != "" && target.OwnerID == actor.ID {
		return allow()
	}

	return deny("role does not permit this action")
}

// decideRoleAssignment enforces who may create or assign privileged roles.
func decideRoleAssignment(actor Actor, requested models.Role) Decision {
	switch requested {
	case models.RoleCreator, models.RoleDirector, models.RoleHOD:
		if actor.Role != models.RoleCreator {
			return deny("only creator may assign privileged roles")
		}
	case models.RoleProfessor:
		switch actor.Role {
		case models.RoleCreator, models.RoleDirector, models.RoleHOD:
		default:
			return deny("creating professors requires creator, director or hod")
		}
	}
	return allow()
}

// CanDeleteAccount reports whether the actor may delete the given account.
func CanDeleteAccount(actor Actor, account *models.Account) Decision {
	dept := ""
	if account.Department != nil {
		dept = *account.Department
	}
	return Decide(actor, Target{
		OwnerID:    account.ID,
		Department: dept,
		TargetRole: account.Role,
	}, ActionDelete)
}
