package library

import (
	"github.com/gofiber/fiber/v2"
)

// RegisterAccount is public. The response carries the confirmation token.
func (a *API) RegisterAccount(c *fiber.Ctx) error {
	payload := new(RegisterRequest)
	if err := bind(c, payload); err != nil {
		return err
	}

	account, err := a.lifecycle.Register(c.UserContext(), RegisterAccountInput{
		Username: payload.Username,
		Email:    payload.Email,
		Password: payload.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(account)
}

// ConfirmEmail is public; knowing the token is the proof
func (a *API) ConfirmEmail(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	payload := new(ConfirmRequest)
	if err := bind(c, payload); err != nil {
		return err
	}

	account, err := a.lifecycle.Confirm(c.UserContext(), id, payload.Token)
	if err != nil {
		return err
	}
	return c.JSON(account)
}

func (a *API) ListUsers(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if err := a.guard.Check(ctx, a.caller(c), ActionListUsers, Target{}); err != nil {
		return err
	}

	records, err := a.repo.Accounts().List(ctx)
	if err != nil {
		return err
	}
	return c.JSON(records)
}

func (a *API) GetUser(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := a.guard.Check(ctx, a.caller(c), ActionReadUser, TargetID(id)); err != nil {
		return err
	}

	account, err := a.repo.Accounts().GetByID(ctx, id)
	if err != nil {
		return notFoundAsInvalidID(err)
	}
	return c.JSON(account)
}

// UpdateUser applies a partial update. Changing the banned flag needs the
// ban permission on top of update.
func (a *API) UpdateUser(c *fiber.Ctx) error {
	ctx := c.UserContext()
	caller := a.caller(c)
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := a.guard.Check(ctx, caller, ActionUpdateUser, TargetID(id)); err != nil {
		return err
	}

	payload := new(UpdateAccountRequest)
	if err := bind(c, payload); err != nil {
		return err
	}

	if payload.Banned != nil {
		if err := a.guard.Check(ctx, caller, ActionBanUser, TargetID(id)); err != nil {
			return err
		}
	}

	account, err := a.lifecycle.Update(ctx, caller, id, payload.Changes())
	if err != nil {
		return err
	}
	return c.JSON(account)
}

func (a *API) DeleteUser(c *fiber.Ctx) error {
	ctx := c.UserContext()
	caller := a.caller(c)
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := a.guard.Check(ctx, caller, ActionDeleteUser, TargetID(id)); err != nil {
		return err
	}

	if err := a.lifecycle.Delete(ctx, caller, id); err != nil {
		return err
	}
	return c.JSON(DeletedResponse{Deleted: id.String()})
}

func (a *API) AddToLibrary(c *fiber.Ctx) error {
	ctx := c.UserContext()
	caller := a.caller(c)
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := a.guard.Check(ctx, caller, ActionUpdateUser, TargetID(id)); err != nil {
		return err
	}

	payload := new(LibraryRequest)
	if err := bind(c, payload); err != nil {
		return err
	}

	bookID, err := ParseID(payload.BookID)
	if err != nil {
		return err
	}

	account, err := a.lifecycle.AddToLibrary(ctx, caller, id, bookID)
	if err != nil {
		return err
	}
	return c.JSON(account)
}

func (a *API) RemoveFromLibrary(c *fiber.Ctx) error {
	ctx := c.UserContext()
	caller := a.caller(c)
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := a.guard.Check(ctx, caller, ActionUpdateUser, TargetID(id)); err != nil {
		return err
	}

	bookID, err := paramID(c, "bookId")
	if err != nil {
		return err
	}

	account, err := a.lifecycle.RemoveFromLibrary(ctx, caller, id, bookID)
	if err != nil {
		return err
	}
	return c.JSON(account)
}
