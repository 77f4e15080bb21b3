package library

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Authors is the store of authors
type Authors interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Author, error)
	GetByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Author, error)
	List(ctx context.Context) ([]*Author, error)
	Create(ctx context.Context, record *Author) (*Author, error)
	Update(ctx context.Context, record *Author) (*Author, error)
	UpdateTx(ctx context.Context, tx bun.IDB, record *Author) (*Author, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Books is the store of books
type Books interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Book, error)
	GetByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Book, error)
	List(ctx context.Context) ([]*Book, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Book) (*Book, error)
	UpdateTx(ctx context.Context, tx bun.IDB, record *Book) (*Book, error)
	DeleteTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
}

type authors struct {
	db bun.IDB
}

// NewAuthorsRepository returns a bun backed Authors
func NewAuthorsRepository(db bun.IDB) Authors {
	return &authors{db: db}
}

func (r *authors) GetByID(ctx context.Context, id uuid.UUID) (*Author, error) {
	return r.GetByIDTx(ctx, r.db, id)
}

func (r *authors) GetByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Author, error) {
	record := &Author{}
	if err := tx.NewSelect().Model(record).Where("id = ?", id).Limit(1).Scan(ctx); err != nil {
		return nil, mapStoreError(err, "failed to load author")
	}
	if record.Books == nil {
		record.Books = []uuid.UUID{}
	}
	return record, nil
}

func (r *authors) List(ctx context.Context) ([]*Author, error) {
	records := []*Author{}
	if err := r.db.NewSelect().Model(&records).Order("name ASC").Scan(ctx); err != nil {
		return nil, mapStoreError(err, "failed to list authors")
	}
	return records, nil
}

func (r *authors) Create(ctx context.Context, record *Author) (*Author, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.Books == nil {
		record.Books = []uuid.UUID{}
	}
	if _, err := r.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, mapStoreError(err, "failed to create author")
	}
	return record, nil
}

func (r *authors) Update(ctx context.Context, record *Author) (*Author, error) {
	return r.UpdateTx(ctx, r.db, record)
}

func (r *authors) UpdateTx(ctx context.Context, tx bun.IDB, record *Author) (*Author, error) {
	res, err := tx.NewUpdate().Model(record).WherePK().Exec(ctx)
	if err != nil {
		return nil, mapStoreError(err, "failed to update author")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrRecordNotFound
	}
	return record, nil
}

func (r *authors) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.NewDelete().Model((*Author)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return mapStoreError(err, "failed to delete author")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrRecordNotFound
	}
	return nil
}

type books struct {
	db bun.IDB
}

// NewBooksRepository returns a bun backed Books
func NewBooksRepository(db bun.IDB) Books {
	return &books{db: db}
}

func (r *books) GetByID(ctx context.Context, id uuid.UUID) (*Book, error) {
	return r.GetByIDTx(ctx, r.db, id)
}

func (r *books) GetByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Book, error) {
	record := &Book{}
	if err := tx.NewSelect().Model(record).Where("id = ?", id).Limit(1).Scan(ctx); err != nil {
		return nil, mapStoreError(err, "failed to load book")
	}
	if record.Genre == nil {
		record.Genre = []string{}
	}
	return record, nil
}

func (r *books) List(ctx context.Context) ([]*Book, error) {
	records := []*Book{}
	if err := r.db.NewSelect().Model(&records).Order("title ASC").Scan(ctx); err != nil {
		return nil, mapStoreError(err, "failed to list books")
	}
	return records, nil
}

func (r *books) CreateTx(ctx context.Context, tx bun.IDB, record *Book) (*Book, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.Genre == nil {
		record.Genre = []string{}
	}
	if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, mapStoreError(err, "failed to create book")
	}
	return record, nil
}

func (r *books) UpdateTx(ctx context.Context, tx bun.IDB, record *Book) (*Book, error) {
	res, err := tx.NewUpdate().Model(record).WherePK().Exec(ctx)
	if err != nil {
		return nil, mapStoreError(err, "failed to update book")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrRecordNotFound
	}
	return record, nil
}

func (r *books) DeleteTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	res, err := tx.NewDelete().Model((*Book)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return mapStoreError(err, "failed to delete book")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrRecordNotFound
	}
	return nil
}
