package library

import "github.com/google/uuid"

// CallerKind tells who is behind a request
type CallerKind int

const (
	CallerAnonymous CallerKind = iota
	CallerUser
	CallerAdmin
)

func (k CallerKind) String() string {
	switch k {
	case CallerUser:
		return "user"
	case CallerAdmin:
		return "admin"
	default:
		return "anonymous"
	}
}

// Caller is the resolved identity of a request. Permissions are only
// meaningful for admins.
type Caller struct {
	Kind        CallerKind
	ID          uuid.UUID
	Permissions Permissions
}

// Anonymous is the caller of public routes
func Anonymous() Caller {
	return Caller{Kind: CallerAnonymous}
}

// UserCaller builds a caller for a regular account
func UserCaller(id uuid.UUID) Caller {
	return Caller{Kind: CallerUser, ID: id}
}

// AdminCaller builds a caller for an admin account
func AdminCaller(id uuid.UUID, perms Permissions) Caller {
	return Caller{Kind: CallerAdmin, ID: id, Permissions: perms}
}

func (c Caller) IsAdmin() bool { return c.Kind == CallerAdmin }

func (c Caller) IsUser() bool { return c.Kind == CallerUser }

// Is reports whether the caller is the given account of the same kind
func (c Caller) Is(kind CallerKind, id uuid.UUID) bool {
	return c.Kind == kind && c.ID != uuid.Nil && c.ID == id
}

// ActorRef identifies who triggered a change, for activity events
func (c Caller) ActorRef() ActorRef {
	ref := ActorRef{Type: c.Kind.String()}
	if c.ID != uuid.Nil {
		ref.ID = c.ID.String()
	}
	return ref
}
