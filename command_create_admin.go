package library

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// CreateAdminMessage creates an admin account. Nil permission flags take
// their defaults.
type CreateAdminMessage struct {
	Username    string
	Email       string
	Password    string
	Permissions *PermissionsPatch
	Actor       Caller
	OnResponse  func(*AdminAccount)
}

func (e CreateAdminMessage) Type() string { return "admin.create" }

// CreateAdminHandler is shared by the HTTP controller and the CLI bootstrap
type CreateAdminHandler struct {
	repo   RepositoryManager
	hasher PasswordAuthenticator
	sink   ActivitySink
	logger Logger
	now    func() time.Time
}

// NewCreateAdminHandler returns the handler
func NewCreateAdminHandler(repo RepositoryManager, hasher PasswordAuthenticator, sink ActivitySink, logger Logger) *CreateAdminHandler {
	return &CreateAdminHandler{
		repo:   repo,
		hasher: hasher,
		sink:   normalizeActivitySink(sink),
		logger: normalizeLogger(logger),
		now:    time.Now,
	}
}

func (h *CreateAdminHandler) Execute(ctx context.Context, event CreateAdminMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during admin creation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *CreateAdminHandler) execute(ctx context.Context, event CreateAdminMessage) error {
	if err := ensureAdminUsernameFree(ctx, h.repo, event.Username, nil); err != nil {
		return err
	}
	if err := ensureAdminEmailFree(ctx, h.repo, event.Email, nil); err != nil {
		return err
	}

	hash, err := h.hasher.HashPassword(event.Password)
	if err != nil {
		return err
	}

	admin := &AdminAccount{
		Username:     event.Username,
		Email:        event.Email,
		PasswordHash: hash,
		Permissions:  event.Permissions.Apply(DefaultPermissions()),
		CreatedAt:    h.now().UTC(),
	}

	if admin, err = h.repo.Admins().Create(ctx, admin); err != nil {
		return err
	}

	emitActivity(ctx, h.sink, h.logger, ActivityEvent{
		EventType: ActivityEventAdminCreated,
		Actor:     event.Actor.ActorRef(),
		SubjectID: admin.ID.String(),
		Metadata:  map[string]any{"super_admin": admin.Permissions.SuperAdmin},
	})

	if event.OnResponse != nil {
		event.OnResponse(admin)
	}
	return nil
}

func ensureAdminUsernameFree(ctx context.Context, repo RepositoryManager, username string, self *AdminAccount) error {
	existing, err := repo.Admins().GetByUsername(ctx, username)
	return adminInUse(existing, self, err, ErrUsernameInUse)
}

func ensureAdminEmailFree(ctx context.Context, repo RepositoryManager, email string, self *AdminAccount) error {
	if email == "" {
		return nil
	}
	existing, err := repo.Admins().GetByEmail(ctx, email)
	return adminInUse(existing, self, err, ErrEmailInUse)
}

func adminInUse(existing, self *AdminAccount, err error, conflict error) error {
	if err != nil {
		if IsNotFound(err) {
			return nil
		}
		return err
	}
	if existing != nil && (self == nil || existing.ID != self.ID) {
		return conflict
	}
	return nil
}
