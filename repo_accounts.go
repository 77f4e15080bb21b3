package library

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Accounts is the store of regular accounts
type Accounts interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByUsername(ctx context.Context, username string) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	List(ctx context.Context) ([]*Account, error)
	Create(ctx context.Context, record *Account) (*Account, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Account) (*Account, error)
	Update(ctx context.Context, record *Account) (*Account, error)
	UpdateTx(ctx context.Context, tx bun.IDB, record *Account) (*Account, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type accounts struct {
	db bun.IDB
}

// NewAccountsRepository returns a bun backed Accounts
func NewAccountsRepository(db bun.IDB) Accounts {
	return &accounts{db: db}
}

func (r *accounts) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	return r.getBy(ctx, "id", id)
}

func (r *accounts) GetByUsername(ctx context.Context, username string) (*Account, error) {
	return r.getBy(ctx, "username", username)
}

func (r *accounts) GetByEmail(ctx context.Context, email string) (*Account, error) {
	return r.getBy(ctx, "email", email)
}

func (r *accounts) getBy(ctx context.Context, column string, value any) (*Account, error) {
	record := &Account{}
	err := r.db.NewSelect().
		Model(record).
		Where("? = ?", bun.Ident(column), value).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, mapIdentityStoreError(err, "failed to load account")
	}
	return record, nil
}

func (r *accounts) List(ctx context.Context) ([]*Account, error) {
	records := []*Account{}
	if err := r.db.NewSelect().Model(&records).Order("registered_at ASC").Scan(ctx); err != nil {
		return nil, mapIdentityStoreError(err, "failed to list accounts")
	}
	return records, nil
}

func (r *accounts) Create(ctx context.Context, record *Account) (*Account, error) {
	return r.CreateTx(ctx, r.db, record)
}

func (r *accounts) CreateTx(ctx context.Context, tx bun.IDB, record *Account) (*Account, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.Library == nil {
		record.Library = []LibraryEntry{}
	}
	if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, mapIdentityStoreError(err, "failed to create account")
	}
	return record, nil
}

func (r *accounts) Update(ctx context.Context, record *Account) (*Account, error) {
	return r.UpdateTx(ctx, r.db, record)
}

func (r *accounts) UpdateTx(ctx context.Context, tx bun.IDB, record *Account) (*Account, error) {
	res, err := tx.NewUpdate().Model(record).WherePK().Exec(ctx)
	if err != nil {
		return nil, mapIdentityStoreError(err, "failed to update account")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrRecordNotFound
	}
	return record, nil
}

func (r *accounts) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.NewDelete().Model((*Account)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return mapIdentityStoreError(err, "failed to delete account")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrRecordNotFound
	}
	return nil
}
