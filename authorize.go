package library

import "github.com/google/uuid"

// Action is an operation subject to authorization
type Action string

const (
	ActionListAdmins  Action = "admins.list"
	ActionReadAdmin   Action = "admins.read"
	ActionCreateAdmin Action = "admins.create"
	ActionUpdateAdmin Action = "admins.update"
	ActionDeleteAdmin Action = "admins.delete"

	ActionListUsers  Action = "users.list"
	ActionReadUser   Action = "users.read"
	ActionUpdateUser Action = "users.update"
	ActionDeleteUser Action = "users.delete"
	ActionBanUser    Action = "users.ban"

	ActionCreateContent Action = "content.create"
	ActionModifyContent Action = "content.modify"
	ActionDeleteContent Action = "content.delete"
)

// Decision is the outcome of Authorize
type Decision bool

const (
	Deny  Decision = false
	Allow Decision = true
)

func (d Decision) String() string {
	if d {
		return "allow"
	}
	return "deny"
}

// Target is the resource an action applies to. ID is zero for collection
// actions.
type Target struct {
	ID uuid.UUID
}

// TargetID is a helper for single resource targets
func TargetID(id uuid.UUID) Target {
	return Target{ID: id}
}

type rule func(c Caller, t Target) Decision

func adminWith(perms ...Permission) rule {
	return func(c Caller, _ Target) Decision {
		return Decision(c.IsAdmin() && c.Permissions.HasAny(perms...))
	}
}

func sameAdminOr(perms ...Permission) rule {
	return func(c Caller, t Target) Decision {
		if c.Is(CallerAdmin, t.ID) {
			return Allow
		}
		return adminWith(perms...)(c, t)
	}
}

func sameUserOr(perms ...Permission) rule {
	return func(c Caller, t Target) Decision {
		if c.Is(CallerUser, t.ID) {
			return Allow
		}
		return adminWith(perms...)(c, t)
	}
}

var decisionTable = map[Action]rule{
	ActionListAdmins:  adminWith(PermissionSuperAdmin),
	ActionReadAdmin:   sameAdminOr(PermissionSuperAdmin),
	ActionCreateAdmin: adminWith(PermissionSuperAdmin),
	ActionUpdateAdmin: adminWith(PermissionSuperAdmin),
	ActionDeleteAdmin: adminWith(PermissionSuperAdmin),

	ActionListUsers:  adminWith(PermissionSuperAdmin, PermissionManageUsers),
	ActionReadUser:   sameUserOr(PermissionSuperAdmin, PermissionManageUsers),
	ActionUpdateUser: sameUserOr(PermissionSuperAdmin, PermissionManageUsers),
	ActionDeleteUser: adminWith(PermissionSuperAdmin, PermissionManageUsers),
	ActionBanUser:    adminWith(PermissionSuperAdmin, PermissionManageUsers),

	ActionCreateContent: adminWith(PermissionCreate),
	ActionModifyContent: adminWith(PermissionModify),
	ActionDeleteContent: adminWith(PermissionDelete),
}

// Authorize decides whether caller may perform action on target. It has no
// side effects and denies any action it does not know.
func Authorize(caller Caller, action Action, target Target) Decision {
	r, ok := decisionTable[action]
	if !ok {
		return Deny
	}
	return r(caller, target)
}
