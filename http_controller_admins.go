package library

import (
	"github.com/gofiber/fiber/v2"
)

func (a *API) ListAdmins(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if err := a.guard.Check(ctx, a.caller(c), ActionListAdmins, Target{}); err != nil {
		return err
	}

	records, err := a.repo.Admins().List(ctx)
	if err != nil {
		return err
	}
	return c.JSON(records)
}

func (a *API) GetAdmin(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := a.guard.Check(ctx, a.caller(c), ActionReadAdmin, TargetID(id)); err != nil {
		return err
	}

	admin, err := a.repo.Admins().GetByID(ctx, id)
	if err != nil {
		return notFoundAsInvalidID(err)
	}
	return c.JSON(admin)
}

// CreateAdmin is reserved to super admins; the check runs before the body
// is looked at.
func (a *API) CreateAdmin(c *fiber.Ctx) error {
	ctx := c.UserContext()
	caller := a.caller(c)
	if err := a.guard.Check(ctx, caller, ActionCreateAdmin, Target{}); err != nil {
		return err
	}

	payload := new(CreateAdminRequest)
	if err := bind(c, payload); err != nil {
		return err
	}

	var created *AdminAccount
	err := a.createAdmin.Execute(ctx, CreateAdminMessage{
		Username:    payload.Username,
		Email:       payload.Email,
		Password:    payload.Password,
		Permissions: payload.Permissions,
		Actor:       caller,
		OnResponse: func(admin *AdminAccount) {
			created = admin
		},
	})
	if err != nil {
		return err
	}
	return c.JSON(created)
}

func (a *API) UpdateAdmin(c *fiber.Ctx) error {
	ctx := c.UserContext()
	caller := a.caller(c)
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := a.guard.Check(ctx, caller, ActionUpdateAdmin, TargetID(id)); err != nil {
		return err
	}

	payload := new(UpdateAdminRequest)
	if err := bind(c, payload); err != nil {
		return err
	}

	var updated *AdminAccount
	err = a.updateAdmin.Execute(ctx, UpdateAdminMessage{
		ID:          id,
		Username:    payload.Username,
		Email:       payload.Email,
		Password:    payload.Password,
		Permissions: payload.Permissions,
		Actor:       caller,
		OnResponse: func(admin *AdminAccount) {
			updated = admin
		},
	})
	if err != nil {
		return err
	}
	return c.JSON(updated)
}

func (a *API) DeleteAdmin(c *fiber.Ctx) error {
	ctx := c.UserContext()
	caller := a.caller(c)
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := a.guard.Check(ctx, caller, ActionDeleteAdmin, TargetID(id)); err != nil {
		return err
	}

	if err := a.repo.Admins().Delete(ctx, id); err != nil {
		return notFoundAsInvalidID(err)
	}

	emitActivity(ctx, a.activity, a.logger, ActivityEvent{
		EventType: ActivityEventAdminDeleted,
		Actor:     caller.ActorRef(),
		SubjectID: id.String(),
	})
	return c.JSON(DeletedResponse{Deleted: id.String()})
}
