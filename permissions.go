package library

// Permission names a single admin capability
type Permission string

const (
	PermissionSuperAdmin     Permission = "superAdmin"
	PermissionManageUsers    Permission = "manageUsers"
	PermissionManageComments Permission = "manageComments"
	PermissionCreate         Permission = "create"
	PermissionModify         Permission = "modify"
	PermissionDelete         Permission = "delete"
)

// DefaultPermissions is what a new admin gets when the request leaves a
// flag out: everything except superAdmin.
func DefaultPermissions() Permissions {
	return Permissions{
		SuperAdmin:     false,
		ManageUsers:    true,
		ManageComments: true,
		Create:         true,
		Modify:         true,
		Delete:         true,
	}
}

// Has reports whether the permission flag is set
func (p Permissions) Has(perm Permission) bool {
	switch perm {
	case PermissionSuperAdmin:
		return p.SuperAdmin
	case PermissionManageUsers:
		return p.ManageUsers
	case PermissionManageComments:
		return p.ManageComments
	case PermissionCreate:
		return p.Create
	case PermissionModify:
		return p.Modify
	case PermissionDelete:
		return p.Delete
	default:
		return false
	}
}

// HasAny reports whether at least one of the flags is set
func (p Permissions) HasAny(perms ...Permission) bool {
	for _, perm := range perms {
		if p.Has(perm) {
			return true
		}
	}
	return false
}

// PermissionsPatch carries optional permission flags from a request
type PermissionsPatch struct {
	SuperAdmin     *bool `json:"superAdmin,omitempty"`
	ManageUsers    *bool `json:"manageUsers,omitempty"`
	ManageComments *bool `json:"manageComments,omitempty"`
	Create         *bool `json:"create,omitempty"`
	Modify         *bool `json:"modify,omitempty"`
	Delete         *bool `json:"delete,omitempty"`
}

// Apply sets every flag present in the patch and leaves the rest as is
func (pp *PermissionsPatch) Apply(p Permissions) Permissions {
	if pp == nil {
		return p
	}
	set := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	set(&p.SuperAdmin, pp.SuperAdmin)
	set(&p.ManageUsers, pp.ManageUsers)
	set(&p.ManageComments, pp.ManageComments)
	set(&p.Create, pp.Create)
	set(&p.Modify, pp.Modify)
	set(&p.Delete, pp.Delete)
	return p
}
