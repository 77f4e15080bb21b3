package library_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	library "github.com/goliatone/go-library"
)

func TestAuthorize(t *testing.T) {
	self := uuid.New()
	other := uuid.New()

	super := library.AdminCaller(self, library.Permissions{SuperAdmin: true})
	manager := library.AdminCaller(self, library.Permissions{ManageUsers: true})
	editor := library.AdminCaller(self, library.Permissions{Create: true, Modify: true})
	remover := library.AdminCaller(self, library.Permissions{Delete: true})
	bare := library.AdminCaller(self, library.Permissions{})
	defaults := library.AdminCaller(self, library.DefaultPermissions())
	user := library.UserCaller(self)
	anon := library.Anonymous()

	tests := []struct {
		name   string
		caller library.Caller
		action library.Action
		target library.Target
		want   library.Decision
	}{
		{"super admin lists admins", super, library.ActionListAdmins, library.Target{}, library.Allow},
		{"default admin cannot list admins", defaults, library.ActionListAdmins, library.Target{}, library.Deny},
		{"user cannot list admins", user, library.ActionListAdmins, library.Target{}, library.Deny},
		{"admin reads itself", bare, library.ActionReadAdmin, library.TargetID(self), library.Allow},
		{"admin cannot read other admin", defaults, library.ActionReadAdmin, library.TargetID(other), library.Deny},
		{"super admin reads other admin", super, library.ActionReadAdmin, library.TargetID(other), library.Allow},
		{"user with same id is not that admin", user, library.ActionReadAdmin, library.TargetID(self), library.Deny},
		{"super admin creates admin", super, library.ActionCreateAdmin, library.Target{}, library.Allow},
		{"default admin cannot create admin", defaults, library.ActionCreateAdmin, library.Target{}, library.Deny},
		{"admin cannot update itself without super", defaults, library.ActionUpdateAdmin, library.TargetID(self), library.Deny},
		{"super admin deletes admin", super, library.ActionDeleteAdmin, library.TargetID(other), library.Allow},
		{"anonymous cannot delete admin", anon, library.ActionDeleteAdmin, library.TargetID(other), library.Deny},

		{"manager lists users", manager, library.ActionListUsers, library.Target{}, library.Allow},
		{"super admin lists users", super, library.ActionListUsers, library.Target{}, library.Allow},
		{"editor cannot list users", editor, library.ActionListUsers, library.Target{}, library.Deny},
		{"user cannot list users", user, library.ActionListUsers, library.Target{}, library.Deny},
		{"user reads itself", user, library.ActionReadUser, library.TargetID(self), library.Allow},
		{"user cannot read other user", user, library.ActionReadUser, library.TargetID(other), library.Deny},
		{"manager reads any user", manager, library.ActionReadUser, library.TargetID(other), library.Allow},
		{"admin id matching user id is not the user", bare, library.ActionReadUser, library.TargetID(self), library.Deny},
		{"user updates itself", user, library.ActionUpdateUser, library.TargetID(self), library.Allow},
		{"user cannot update other user", user, library.ActionUpdateUser, library.TargetID(other), library.Deny},
		{"user cannot delete itself", user, library.ActionDeleteUser, library.TargetID(self), library.Deny},
		{"manager deletes user", manager, library.ActionDeleteUser, library.TargetID(other), library.Allow},
		{"user cannot ban itself", user, library.ActionBanUser, library.TargetID(self), library.Deny},
		{"manager bans user", manager, library.ActionBanUser, library.TargetID(other), library.Allow},
		{"editor cannot ban", editor, library.ActionBanUser, library.TargetID(other), library.Deny},

		{"editor creates content", editor, library.ActionCreateContent, library.Target{}, library.Allow},
		{"editor modifies content", editor, library.ActionModifyContent, library.TargetID(other), library.Allow},
		{"editor cannot delete content", editor, library.ActionDeleteContent, library.TargetID(other), library.Deny},
		{"remover deletes content", remover, library.ActionDeleteContent, library.TargetID(other), library.Allow},
		{"super admin without create flag cannot create content", super, library.ActionCreateContent, library.Target{}, library.Deny},
		{"user cannot create content", user, library.ActionCreateContent, library.Target{}, library.Deny},
		{"anonymous cannot modify content", anon, library.ActionModifyContent, library.TargetID(other), library.Deny},

		{"unknown action is denied", super, library.Action("library.burn"), library.Target{}, library.Deny},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, library.Authorize(tt.caller, tt.action, tt.target))
		})
	}
}

func TestAuthorizeIsDeterministic(t *testing.T) {
	caller := library.UserCaller(uuid.New())
	target := library.TargetID(caller.ID)

	first := library.Authorize(caller, library.ActionUpdateUser, target)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, library.Authorize(caller, library.ActionUpdateUser, target))
	}
}

func TestAuthorizeNilIDNeverMatchesSelf(t *testing.T) {
	user := library.Caller{Kind: library.CallerUser}
	assert.Equal(t, library.Deny, library.Authorize(user, library.ActionReadUser, library.TargetID(uuid.Nil)))
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "allow", library.Allow.String())
	assert.Equal(t, "deny", library.Deny.String())
}

func TestPermissions(t *testing.T) {
	defaults := library.DefaultPermissions()
	assert.False(t, defaults.SuperAdmin)
	assert.True(t, defaults.ManageUsers)
	assert.True(t, defaults.ManageComments)
	assert.True(t, defaults.Create)
	assert.True(t, defaults.Modify)
	assert.True(t, defaults.Delete)

	assert.True(t, defaults.HasAny(library.PermissionSuperAdmin, library.PermissionDelete))
	assert.False(t, defaults.Has(library.PermissionSuperAdmin))
	assert.False(t, defaults.Has(library.Permission("unknown")))
	assert.False(t, library.Permissions{}.HasAny())
}

func TestPermissionsPatchApply(t *testing.T) {
	t.Run("nil patch keeps everything", func(t *testing.T) {
		var patch *library.PermissionsPatch
		assert.Equal(t, library.DefaultPermissions(), patch.Apply(library.DefaultPermissions()))
	})

	t.Run("only present flags change", func(t *testing.T) {
		patch := &library.PermissionsPatch{
			SuperAdmin: ptr(true),
			Delete:     ptr(false),
		}
		got := patch.Apply(library.DefaultPermissions())

		assert.True(t, got.SuperAdmin)
		assert.False(t, got.Delete)
		assert.True(t, got.ManageUsers)
		assert.True(t, got.Create)
	})
}

func TestCallerHelpers(t *testing.T) {
	id := uuid.New()

	user := library.UserCaller(id)
	assert.True(t, user.IsUser())
	assert.False(t, user.IsAdmin())
	assert.True(t, user.Is(library.CallerUser, id))
	assert.False(t, user.Is(library.CallerAdmin, id))
	assert.Equal(t, library.ActorRef{ID: id.String(), Type: "user"}, user.ActorRef())

	anon := library.Anonymous()
	assert.Equal(t, "anonymous", anon.Kind.String())
	assert.Equal(t, library.ActorRef{Type: "anonymous"}, anon.ActorRef())
}
