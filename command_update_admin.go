package library

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// UpdateAdminMessage is a partial admin update
type UpdateAdminMessage struct {
	ID          uuid.UUID
	Username    *string
	Email       *string
	Password    *string
	Permissions *PermissionsPatch
	Actor       Caller
	OnResponse  func(*AdminAccount)
}

func (e UpdateAdminMessage) Type() string { return "admin.update" }

// UpdateAdminHandler applies UpdateAdminMessage
type UpdateAdminHandler struct {
	repo   RepositoryManager
	hasher PasswordAuthenticator
	sink   ActivitySink
	logger Logger
}

// NewUpdateAdminHandler returns the handler
func NewUpdateAdminHandler(repo RepositoryManager, hasher PasswordAuthenticator, sink ActivitySink, logger Logger) *UpdateAdminHandler {
	return &UpdateAdminHandler{
		repo:   repo,
		hasher: hasher,
		sink:   normalizeActivitySink(sink),
		logger: normalizeLogger(logger),
	}
}

func (h *UpdateAdminHandler) Execute(ctx context.Context, event UpdateAdminMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during admin update",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *UpdateAdminHandler) execute(ctx context.Context, event UpdateAdminMessage) error {
	admin, err := h.repo.Admins().GetByID(ctx, event.ID)
	if err != nil {
		return notFoundAsInvalidID(err)
	}

	if event.Username != nil && *event.Username != admin.Username {
		if err := ensureAdminUsernameFree(ctx, h.repo, *event.Username, admin); err != nil {
			return err
		}
		admin.Username = *event.Username
	}

	if event.Email != nil && *event.Email != admin.Email {
		if err := ensureAdminEmailFree(ctx, h.repo, *event.Email, admin); err != nil {
			return err
		}
		admin.Email = *event.Email
	}

	if event.Password != nil {
		hash, err := h.hasher.HashPassword(*event.Password)
		if err != nil {
			return err
		}
		admin.PasswordHash = hash
	}

	admin.Permissions = event.Permissions.Apply(admin.Permissions)

	if admin, err = h.repo.Admins().Update(ctx, admin); err != nil {
		return notFoundAsInvalidID(err)
	}

	emitActivity(ctx, h.sink, h.logger, ActivityEvent{
		EventType: ActivityEventAdminUpdated,
		Actor:     event.Actor.ActorRef(),
		SubjectID: admin.ID.String(),
	})

	if event.OnResponse != nil {
		event.OnResponse(admin)
	}
	return nil
}
