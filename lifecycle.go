package library

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/google/uuid"
)

// RegisterAccountInput holds the fields of a new account
type RegisterAccountInput struct {
	Username string
	Email    string
	Password string
}

// AccountChanges is a partial update. Nil fields are left alone.
type AccountChanges struct {
	Username *string
	Email    *string
	Password *string
	Banned   *bool
}

// AccountLifecycle owns every state change of a regular account
type AccountLifecycle interface {
	Register(ctx context.Context, input RegisterAccountInput) (*Account, error)
	Confirm(ctx context.Context, id uuid.UUID, token string) (*Account, error)
	Update(ctx context.Context, actor Caller, id uuid.UUID, changes AccountChanges) (*Account, error)
	Delete(ctx context.Context, actor Caller, id uuid.UUID) error
	AddToLibrary(ctx context.Context, actor Caller, id, bookID uuid.UUID) (*Account, error)
	RemoveFromLibrary(ctx context.Context, actor Caller, id, bookID uuid.UUID) (*Account, error)
}

// LifecycleOption customizes the lifecycle service
type LifecycleOption func(*accountLifecycle)

// WithLifecycleClock injects a custom clock (useful for tests).
func WithLifecycleClock(clock func() time.Time) LifecycleOption {
	return func(l *accountLifecycle) {
		if clock != nil {
			l.now = clock
		}
	}
}

// WithLifecycleActivitySink configures the audit sink
func WithLifecycleActivitySink(sink ActivitySink) LifecycleOption {
	return func(l *accountLifecycle) {
		l.sink = normalizeActivitySink(sink)
	}
}

// WithLifecycleLogger sets the logger
func WithLifecycleLogger(logger Logger) LifecycleOption {
	return func(l *accountLifecycle) {
		l.logger = normalizeLogger(logger)
	}
}

type accountLifecycle struct {
	repo       RepositoryManager
	tokens     TokenService
	hasher     PasswordAuthenticator
	allowEmpty bool
	useHashid  bool
	now        func() time.Time
	sink       ActivitySink
	logger     Logger
}

// NewAccountLifecycle returns the lifecycle service
func NewAccountLifecycle(repo RepositoryManager, tokens TokenService, hasher PasswordAuthenticator, cfg Config, opts ...LifecycleOption) AccountLifecycle {
	l := &accountLifecycle{
		repo:       repo,
		tokens:     tokens,
		hasher:     hasher,
		allowEmpty: cfg.GetAllowEmptyConfirmationToken(),
		useHashid:  cfg.GetHashidAccountIDs(),
		now:        time.Now,
		sink:       noopActivitySink{},
		logger:     defLogger{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *accountLifecycle) Register(ctx context.Context, input RegisterAccountInput) (*Account, error) {
	if err := l.ensureUsernameFree(ctx, input.Username, uuid.Nil); err != nil {
		return nil, err
	}
	if err := l.ensureEmailFree(ctx, input.Email, uuid.Nil); err != nil {
		return nil, err
	}

	hash, err := l.hasher.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	token, err := l.tokens.IssueConfirmationToken(input.Username, input.Email)
	if err != nil {
		return nil, err
	}

	id, err := l.accountID(ctx, input.Email)
	if err != nil {
		return nil, err
	}

	account := &Account{
		ID:                id,
		Username:          input.Username,
		Email:             input.Email,
		PasswordHash:      hash,
		Gravatar:          GravatarURL(input.Email),
		EmailConfirmed:    false,
		ConfirmationToken: token,
		Library:           []LibraryEntry{},
		RegisteredAt:      l.now().UTC(),
	}

	// the pre-checks above race with concurrent registrations; the unique
	// constraints decide and come back as the same conflict errors
	if account, err = l.repo.Accounts().Create(ctx, account); err != nil {
		return nil, err
	}

	l.emit(ctx, ActivityEventAccountRegistered, Anonymous(), account, nil)
	return account, nil
}

// accountID derives the id from the email when hashed ids are on. An email
// given up by an email change still maps to its old owner's id, so a taken id
// falls back to a random one.
func (l *accountLifecycle) accountID(ctx context.Context, email string) (uuid.UUID, error) {
	id := newAccountID(email, l.useHashid)
	if !l.useHashid {
		return id, nil
	}
	_, err := l.repo.Accounts().GetByID(ctx, id)
	switch {
	case err == nil:
		return uuid.New(), nil
	case IsNotFound(err):
		return id, nil
	default:
		return uuid.Nil, err
	}
}

func (l *accountLifecycle) Confirm(ctx context.Context, id uuid.UUID, token string) (*Account, error) {
	account, err := l.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if account.EmailConfirmed {
		return nil, ErrEmailAlreadyValidated
	}

	if account.ConfirmationToken == "" {
		if !l.allowEmpty {
			return nil, ErrInvalidConfirmationToken
		}
	} else if subtle.ConstantTimeCompare([]byte(account.ConfirmationToken), []byte(token)) != 1 {
		return nil, ErrInvalidConfirmationToken
	}

	account.EmailConfirmed = true
	account.ConfirmationToken = ""

	if account, err = l.save(ctx, account); err != nil {
		return nil, err
	}

	l.emit(ctx, ActivityEventEmailConfirmed, UserCaller(account.ID), account, nil)
	return account, nil
}

func (l *accountLifecycle) Update(ctx context.Context, actor Caller, id uuid.UUID, changes AccountChanges) (*Account, error) {
	account, err := l.load(ctx, id)
	if err != nil {
		return nil, err
	}

	events := []ActivityEventType{}

	if changes.Username != nil && *changes.Username != account.Username {
		if err := l.ensureUsernameFree(ctx, *changes.Username, account.ID); err != nil {
			return nil, err
		}
		account.Username = *changes.Username
		events = append(events, ActivityEventUsernameChanged)
	}

	if changes.Email != nil && *changes.Email != account.Email {
		if err := l.ensureEmailFree(ctx, *changes.Email, account.ID); err != nil {
			return nil, err
		}
		account.Email = *changes.Email
		account.Gravatar = GravatarURL(account.Email)

		// only the owner proves the new address; admin edits keep the state
		if actor.Is(CallerUser, account.ID) {
			token, err := l.tokens.IssueConfirmationToken(account.Username, account.Email)
			if err != nil {
				return nil, err
			}
			account.EmailConfirmed = false
			account.ConfirmationToken = token
		}
		events = append(events, ActivityEventEmailChanged)
	}

	if changes.Password != nil {
		hash, err := l.hasher.HashPassword(*changes.Password)
		if err != nil {
			return nil, err
		}
		account.PasswordHash = hash
		events = append(events, ActivityEventPasswordChanged)
	}

	if changes.Banned != nil && *changes.Banned != account.Banned {
		account.Banned = *changes.Banned
		events = append(events, ActivityEventBanChanged)
	}

	if account, err = l.save(ctx, account); err != nil {
		return nil, err
	}

	for _, event := range events {
		l.emit(ctx, event, actor, account, nil)
	}
	return account, nil
}

func (l *accountLifecycle) Delete(ctx context.Context, actor Caller, id uuid.UUID) error {
	if err := l.repo.Accounts().Delete(ctx, id); err != nil {
		return notFoundAsInvalidID(err)
	}
	l.emit(ctx, ActivityEventAccountDeleted, actor, &Account{ID: id}, nil)
	return nil
}

func (l *accountLifecycle) AddToLibrary(ctx context.Context, actor Caller, id, bookID uuid.UUID) (*Account, error) {
	if _, err := l.repo.Books().GetByID(ctx, bookID); err != nil {
		return nil, notFoundAsInvalidID(err)
	}

	account, err := l.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if account.HasBook(bookID) {
		return account, nil
	}

	account.Library = append(account.Library, LibraryEntry{BookID: bookID, AddedAt: l.now().UTC()})
	if account, err = l.save(ctx, account); err != nil {
		return nil, err
	}

	l.emit(ctx, ActivityEventLibraryChanged, actor, account, map[string]any{"added": bookID.String()})
	return account, nil
}

func (l *accountLifecycle) RemoveFromLibrary(ctx context.Context, actor Caller, id, bookID uuid.UUID) (*Account, error) {
	account, err := l.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if !account.HasBook(bookID) {
		return nil, ErrInvalidID
	}

	kept := make([]LibraryEntry, 0, len(account.Library))
	for _, e := range account.Library {
		if e.BookID != bookID {
			kept = append(kept, e)
		}
	}
	account.Library = kept

	if account, err = l.save(ctx, account); err != nil {
		return nil, err
	}

	l.emit(ctx, ActivityEventLibraryChanged, actor, account, map[string]any{"removed": bookID.String()})
	return account, nil
}

func (l *accountLifecycle) load(ctx context.Context, id uuid.UUID) (*Account, error) {
	account, err := l.repo.Accounts().GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAsInvalidID(err)
	}
	return account, nil
}

func (l *accountLifecycle) save(ctx context.Context, account *Account) (*Account, error) {
	out, err := l.repo.Accounts().Update(ctx, account)
	if err != nil {
		return nil, notFoundAsInvalidID(err)
	}
	return out, nil
}

func (l *accountLifecycle) ensureUsernameFree(ctx context.Context, username string, self uuid.UUID) error {
	existing, err := l.repo.Accounts().GetByUsername(ctx, username)
	return inUse(existing, self, err, ErrUsernameInUse)
}

func (l *accountLifecycle) ensureEmailFree(ctx context.Context, email string, self uuid.UUID) error {
	existing, err := l.repo.Accounts().GetByEmail(ctx, email)
	return inUse(existing, self, err, ErrEmailInUse)
}

func inUse(existing *Account, self uuid.UUID, err error, conflict error) error {
	if err != nil {
		if IsNotFound(err) {
			return nil
		}
		return err
	}
	if existing != nil && existing.ID != self {
		return conflict
	}
	return nil
}

func (l *accountLifecycle) emit(ctx context.Context, eventType ActivityEventType, actor Caller, account *Account, meta map[string]any) {
	emitActivity(ctx, l.sink, l.logger, ActivityEvent{
		EventType:  eventType,
		Actor:      actor.ActorRef(),
		SubjectID:  account.ID.String(),
		Metadata:   meta,
		OccurredAt: l.now().UTC(),
	})
}

func notFoundAsInvalidID(err error) error {
	if errors.Is(err, ErrRecordNotFound) {
		return ErrInvalidID
	}
	return err
}
