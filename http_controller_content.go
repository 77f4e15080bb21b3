package library

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

func (a *API) ListAuthors(c *fiber.Ctx) error {
	records, err := a.repo.Authors().List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(records)
}

func (a *API) GetAuthor(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	author, err := a.repo.Authors().GetByID(c.UserContext(), id)
	if err != nil {
		return notFoundAsInvalidID(err)
	}
	return c.JSON(author)
}

func (a *API) CreateAuthor(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if err := a.guard.Check(ctx, a.caller(c), ActionCreateContent, Target{}); err != nil {
		return err
	}

	payload := new(AuthorRequest)
	if err := parseBody(c, payload); err != nil {
		return err
	}
	if err := payload.ValidateCreate(); err != nil {
		return validationFailed(err)
	}

	author := &Author{
		ImgURL:  DefaultAuthorImage,
		Books:   []uuid.UUID{},
		AddedAt: a.now().UTC(),
	}
	payload.Apply(author)

	author, err := a.repo.Authors().Create(ctx, author)
	if err != nil {
		return err
	}
	return c.JSON(author)
}

func (a *API) UpdateAuthor(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := a.guard.Check(ctx, a.caller(c), ActionModifyContent, TargetID(id)); err != nil {
		return err
	}

	payload := new(AuthorRequest)
	if err := bind(c, payload); err != nil {
		return err
	}

	author, err := a.repo.Authors().GetByID(ctx, id)
	if err != nil {
		return notFoundAsInvalidID(err)
	}
	payload.Apply(author)

	if author, err = a.repo.Authors().Update(ctx, author); err != nil {
		return notFoundAsInvalidID(err)
	}
	return c.JSON(author)
}

// DeleteAuthor removes the author only. Books keep their author id.
func (a *API) DeleteAuthor(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := a.guard.Check(ctx, a.caller(c), ActionDeleteContent, TargetID(id)); err != nil {
		return err
	}

	if err := a.repo.Authors().Delete(ctx, id); err != nil {
		return notFoundAsInvalidID(err)
	}
	return c.JSON(DeletedResponse{Deleted: id.String()})
}

func (a *API) ListBooks(c *fiber.Ctx) error {
	records, err := a.repo.Books().List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(records)
}

func (a *API) GetBook(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	book, err := a.repo.Books().GetByID(c.UserContext(), id)
	if err != nil {
		return notFoundAsInvalidID(err)
	}
	return c.JSON(book)
}

// CreateBook stores the book and appends it to the author's list in one
// transaction.
func (a *API) CreateBook(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if err := a.guard.Check(ctx, a.caller(c), ActionCreateContent, Target{}); err != nil {
		return err
	}

	payload := new(BookRequest)
	if err := parseBody(c, payload); err != nil {
		return err
	}
	if err := payload.ValidateCreate(); err != nil {
		return validationFailed(err)
	}

	authorID, err := ParseID(*payload.AuthorID)
	if err != nil {
		return err
	}

	book := &Book{
		AuthorID: authorID,
		Genre:    []string{},
		AddedAt:  a.now().UTC(),
	}
	payload.Apply(book)

	err = a.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		author, err := a.repo.Authors().GetByIDTx(ctx, tx, authorID)
		if err != nil {
			return notFoundAsInvalidID(err)
		}

		if book, err = a.repo.Books().CreateTx(ctx, tx, book); err != nil {
			return err
		}

		author.Books = append(author.Books, book.ID)
		_, err = a.repo.Authors().UpdateTx(ctx, tx, author)
		return err
	})
	if err != nil {
		return err
	}
	return c.JSON(book)
}

// UpdateBook moves the back reference when the author changes
func (a *API) UpdateBook(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := a.guard.Check(ctx, a.caller(c), ActionModifyContent, TargetID(id)); err != nil {
		return err
	}

	payload := new(BookRequest)
	if err := bind(c, payload); err != nil {
		return err
	}

	var book *Book
	err = a.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		if book, err = a.repo.Books().GetByIDTx(ctx, tx, id); err != nil {
			return notFoundAsInvalidID(err)
		}
		payload.Apply(book)

		if payload.AuthorID != nil {
			newAuthorID, err := ParseID(*payload.AuthorID)
			if err != nil {
				return err
			}
			if newAuthorID != book.AuthorID {
				if err := a.moveBook(ctx, tx, book, newAuthorID); err != nil {
					return err
				}
			}
		}

		book, err = a.repo.Books().UpdateTx(ctx, tx, book)
		return notFoundAsInvalidID(err)
	})
	if err != nil {
		return err
	}
	return c.JSON(book)
}

func (a *API) moveBook(ctx context.Context, tx bun.IDB, book *Book, newAuthorID uuid.UUID) error {
	newAuthor, err := a.repo.Authors().GetByIDTx(ctx, tx, newAuthorID)
	if err != nil {
		return notFoundAsInvalidID(err)
	}

	if err := a.detachBook(ctx, tx, book); err != nil {
		return err
	}

	newAuthor.Books = append(newAuthor.Books, book.ID)
	if _, err := a.repo.Authors().UpdateTx(ctx, tx, newAuthor); err != nil {
		return err
	}
	book.AuthorID = newAuthorID
	return nil
}

// detachBook drops the book from its author's list. A missing author is
// fine since author deletion does not cascade.
func (a *API) detachBook(ctx context.Context, tx bun.IDB, book *Book) error {
	author, err := a.repo.Authors().GetByIDTx(ctx, tx, book.AuthorID)
	if err != nil {
		if IsNotFound(err) {
			return nil
		}
		return err
	}
	author.Books = removeID(author.Books, book.ID)
	_, err = a.repo.Authors().UpdateTx(ctx, tx, author)
	return err
}

func (a *API) DeleteBook(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := a.guard.Check(ctx, a.caller(c), ActionDeleteContent, TargetID(id)); err != nil {
		return err
	}

	err = a.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		book, err := a.repo.Books().GetByIDTx(ctx, tx, id)
		if err != nil {
			return notFoundAsInvalidID(err)
		}
		if err := a.repo.Books().DeleteTx(ctx, tx, id); err != nil {
			return notFoundAsInvalidID(err)
		}
		return a.detachBook(ctx, tx, book)
	})
	if err != nil {
		return err
	}
	return c.JSON(DeletedResponse{Deleted: id.String()})
}
