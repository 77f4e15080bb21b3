package library_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"

	library "github.com/goliatone/go-library"
	"github.com/goliatone/go-library/persistence"
)

type testConfig struct {
	SigningKey             string
	Issuer                 string
	TokenExpiration        time.Duration
	ConfirmationExpiration time.Duration
	AllowEmpty             bool
	Hashid                 bool
	BasePath               string
}

func newTestConfig() *testConfig {
	return &testConfig{
		SigningKey:             "test-signing-key-0123456789",
		Issuer:                 "go-library-test",
		TokenExpiration:        25 * time.Hour,
		ConfirmationExpiration: 72 * time.Hour,
		BasePath:               "/api/v1",
	}
}

func (c *testConfig) GetSigningKey() string                    { return c.SigningKey }
func (c *testConfig) GetIssuer() string                        { return c.Issuer }
func (c *testConfig) GetTokenExpiration() time.Duration        { return c.TokenExpiration }
func (c *testConfig) GetConfirmationExpiration() time.Duration { return c.ConfirmationExpiration }
func (c *testConfig) GetBcryptCost() int                       { return bcrypt.MinCost }
func (c *testConfig) GetAllowEmptyConfirmationToken() bool     { return c.AllowEmpty }
func (c *testConfig) GetHashidAccountIDs() bool                { return c.Hashid }
func (c *testConfig) GetBasePath() string                      { return c.BasePath }

var dbCounter atomic.Int64

// newTestDB opens a private in-memory sqlite database with the schema applied
func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	ctx := context.Background()
	dsn := fmt.Sprintf("file:library_test_%d?mode=memory&cache=shared", dbCounter.Add(1))

	db, dialect, err := persistence.Open(ctx, persistence.Options{URL: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, persistence.Migrate(ctx, db, dialect, nil))
	return db
}

func newTestRepo(t *testing.T) library.RepositoryManager {
	t.Helper()
	repo := library.NewRepositoryManager(newTestDB(t))
	require.NoError(t, repo.Validate())
	return repo
}

func newTestHasher() *library.BcryptHasher {
	return library.NewBcryptHasher(bcrypt.MinCost)
}

// recordingSink keeps every event it receives
type recordingSink struct {
	events []library.ActivityEvent
}

func (s *recordingSink) Record(_ context.Context, event library.ActivityEvent) error {
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) types() []library.ActivityEventType {
	out := make([]library.ActivityEventType, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.EventType)
	}
	return out
}

// nopLogger keeps test output quiet
type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

func seedAdmin(t *testing.T, repo library.RepositoryManager, username, password string, perms library.Permissions) *library.AdminAccount {
	t.Helper()
	hash, err := newTestHasher().HashPassword(password)
	require.NoError(t, err)

	admin, err := repo.Admins().Create(context.Background(), &library.AdminAccount{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		Permissions:  perms,
		CreatedAt:    time.Now().UTC(),
	})
	require.NoError(t, err)
	return admin
}

func seedBook(t *testing.T, repo library.RepositoryManager, title string, authorID uuid.UUID) *library.Book {
	t.Helper()
	var book *library.Book
	err := repo.RunInTx(context.Background(), nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		book, err = repo.Books().CreateTx(ctx, tx, &library.Book{
			Title:    title,
			AuthorID: authorID,
			AddedAt:  time.Now().UTC(),
		})
		return err
	})
	require.NoError(t, err)
	return book
}

func ptr[T any](v T) *T {
	return &v
}
