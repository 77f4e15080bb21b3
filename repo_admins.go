package library

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Admins is the store of admin accounts
type Admins interface {
	GetByID(ctx context.Context, id uuid.UUID) (*AdminAccount, error)
	GetByUsername(ctx context.Context, username string) (*AdminAccount, error)
	GetByEmail(ctx context.Context, email string) (*AdminAccount, error)
	List(ctx context.Context) ([]*AdminAccount, error)
	Create(ctx context.Context, record *AdminAccount) (*AdminAccount, error)
	Update(ctx context.Context, record *AdminAccount) (*AdminAccount, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type admins struct {
	db bun.IDB
}

// NewAdminsRepository returns a bun backed Admins
func NewAdminsRepository(db bun.IDB) Admins {
	return &admins{db: db}
}

func (r *admins) GetByID(ctx context.Context, id uuid.UUID) (*AdminAccount, error) {
	return r.getBy(ctx, "id", id)
}

func (r *admins) GetByUsername(ctx context.Context, username string) (*AdminAccount, error) {
	return r.getBy(ctx, "username", username)
}

func (r *admins) GetByEmail(ctx context.Context, email string) (*AdminAccount, error) {
	return r.getBy(ctx, "email", email)
}

func (r *admins) getBy(ctx context.Context, column string, value any) (*AdminAccount, error) {
	record := &AdminAccount{}
	err := r.db.NewSelect().
		Model(record).
		Where("? = ?", bun.Ident(column), value).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, mapIdentityStoreError(err, "failed to load admin")
	}
	return record, nil
}

func (r *admins) List(ctx context.Context) ([]*AdminAccount, error) {
	records := []*AdminAccount{}
	if err := r.db.NewSelect().Model(&records).Order("created_at ASC").Scan(ctx); err != nil {
		return nil, mapIdentityStoreError(err, "failed to list admins")
	}
	return records, nil
}

func (r *admins) Create(ctx context.Context, record *AdminAccount) (*AdminAccount, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if _, err := r.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, mapIdentityStoreError(err, "failed to create admin")
	}
	return record, nil
}

func (r *admins) Update(ctx context.Context, record *AdminAccount) (*AdminAccount, error) {
	res, err := r.db.NewUpdate().Model(record).WherePK().Exec(ctx)
	if err != nil {
		return nil, mapIdentityStoreError(err, "failed to update admin")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrRecordNotFound
	}
	return record, nil
}

func (r *admins) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.NewDelete().Model((*AdminAccount)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return mapIdentityStoreError(err, "failed to delete admin")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrRecordNotFound
	}
	return nil
}
