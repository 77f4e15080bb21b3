package library

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	Validate() error
	Ping(ctx context.Context) error
	RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error
	Accounts() Accounts
	Admins() Admins
	Authors() Authors
	Books() Books
}

type mngr struct {
	db       *bun.DB
	accounts Accounts
	admins   Admins
	authors  Authors
	books    Books
}

// NewRepositoryManager wires every repository to db
func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:       db,
		accounts: NewAccountsRepository(db),
		admins:   NewAdminsRepository(db),
		authors:  NewAuthorsRepository(db),
		books:    NewBooksRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.db == nil {
		return errors.New("repository database should be initialized")
	}
	if m.accounts == nil {
		return errors.New("repository accounts should be initialized")
	}
	if m.admins == nil {
		return errors.New("repository admins should be initialized")
	}
	if m.authors == nil || m.books == nil {
		return errors.New("repository content should be initialized")
	}
	return nil
}

func (m mngr) Ping(ctx context.Context) error {
	if err := m.db.PingContext(ctx); err != nil {
		return internalError(err, "database unreachable")
	}
	return nil
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return m.db.RunInTx(ctx, opts, f)
}

func (m mngr) Accounts() Accounts {
	return m.accounts
}

func (m mngr) Admins() Admins {
	return m.admins
}

func (m mngr) Authors() Authors {
	return m.authors
}

func (m mngr) Books() Books {
	return m.books
}
