package library

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// Realm tells admin logins from user logins
type Realm string

const (
	RealmAdmin Realm = "admin"
	RealmUser  Realm = "user"
)

// Auther authenticates admins and users with username and password
type Auther struct {
	repo         RepositoryManager
	tokens       TokenService
	hasher       PasswordAuthenticator
	logger       Logger
	activitySink ActivitySink

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthenticator returns a new Auther
func NewAuthenticator(repo RepositoryManager, tokens TokenService, hasher PasswordAuthenticator) *Auther {
	return &Auther{
		repo:         repo,
		tokens:       tokens,
		hasher:       hasher,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = normalizeLogger(logger)
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// LoginAdmin returns an admin access token. Unknown usernames and wrong
// passwords fail the same way.
func (s *Auther) LoginAdmin(ctx context.Context, username, password string) (string, error) {
	admin, err := s.repo.Admins().GetByUsername(ctx, username)
	if err != nil {
		return "", s.loginFailed(ctx, RealmAdmin, username, err)
	}

	if err := s.hasher.ComparePasswordAndHash(password, admin.PasswordHash); err != nil {
		return "", s.loginFailed(ctx, RealmAdmin, username, err)
	}

	token, err := s.tokens.IssueAdminToken(admin.ID)
	if err != nil {
		return "", err
	}

	s.emit(ctx, ActivityEventLoginSuccess, AdminCaller(admin.ID, admin.Permissions), RealmAdmin, username)
	return token, nil
}

// LoginUser returns an account access token
func (s *Auther) LoginUser(ctx context.Context, username, password string) (string, error) {
	account, err := s.repo.Accounts().GetByUsername(ctx, username)
	if err != nil {
		return "", s.loginFailed(ctx, RealmUser, username, err)
	}

	if err := s.hasher.ComparePasswordAndHash(password, account.PasswordHash); err != nil {
		return "", s.loginFailed(ctx, RealmUser, username, err)
	}

	if account.Banned {
		s.logger.Warn("Login blocked for banned account", "account_id", account.ID.String())
		s.emit(ctx, ActivityEventLoginFailure, UserCaller(account.ID), RealmUser, username)
		return "", ErrAccountBanned
	}

	token, err := s.tokens.IssueAccountToken(account.ID)
	if err != nil {
		return "", err
	}

	s.emit(ctx, ActivityEventLoginSuccess, UserCaller(account.ID), RealmUser, username)
	return token, nil
}

// CurrentAdmin returns the admin behind caller
func (s *Auther) CurrentAdmin(ctx context.Context, caller Caller) (*AdminAccount, error) {
	if !caller.IsAdmin() {
		return nil, ErrInvalidCredentials
	}
	admin, err := s.repo.Admins().GetByID(ctx, caller.ID)
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return admin, nil
}

// CurrentAccount returns the account behind caller
func (s *Auther) CurrentAccount(ctx context.Context, caller Caller) (*Account, error) {
	if !caller.IsUser() {
		return nil, ErrInvalidCredentials
	}
	account, err := s.repo.Accounts().GetByID(ctx, caller.ID)
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return account, nil
}

func (s *Auther) loginFailed(ctx context.Context, realm Realm, username string, cause error) error {
	if IsNotFound(cause) {
		// burn the same bcrypt work a real comparison costs
		_ = s.hasher.ComparePasswordAndHash("", s.dummy())
	} else if !isCredentialMismatch(cause) {
		s.logger.Error("Login lookup error", "realm", string(realm), "error", cause)
		return cause
	}

	s.emit(ctx, ActivityEventLoginFailure, Anonymous(), realm, username)
	return ErrInvalidCredentials
}

func (s *Auther) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.HashPassword(uuid.NewString())
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}

func isCredentialMismatch(err error) bool {
	return errors.Is(err, ErrMismatchedHashAndPassword)
}

func (s *Auther) emit(ctx context.Context, eventType ActivityEventType, actor Caller, realm Realm, username string) {
	emitActivity(ctx, s.activitySink, s.logger, ActivityEvent{
		EventType: eventType,
		Actor:     actor.ActorRef(),
		SubjectID: actor.ActorRef().ID,
		Metadata: map[string]any{
			"realm":    string(realm),
			"username": username,
		},
	})
}
