package library

import (
	"github.com/gofiber/fiber/v2"
)

// LoginAdmin responds with an admin token as a JSON string
func (a *API) LoginAdmin(c *fiber.Ctx) error {
	payload := new(LoginRequest)
	if err := bind(c, payload); err != nil {
		return err
	}

	token, err := a.auther.LoginAdmin(c.UserContext(), payload.Username, payload.Password)
	if err != nil {
		return err
	}
	return c.JSON(token)
}

// LoginUser responds with a user token as a JSON string
func (a *API) LoginUser(c *fiber.Ctx) error {
	payload := new(LoginRequest)
	if err := bind(c, payload); err != nil {
		return err
	}

	token, err := a.auther.LoginUser(c.UserContext(), payload.Username, payload.Password)
	if err != nil {
		return err
	}
	return c.JSON(token)
}

// CurrentAdmin returns the profile of the calling admin
func (a *API) CurrentAdmin(c *fiber.Ctx) error {
	admin, err := a.auther.CurrentAdmin(c.UserContext(), a.caller(c))
	if err != nil {
		return err
	}
	return c.JSON(admin)
}

// CurrentUser returns the profile of the calling user
func (a *API) CurrentUser(c *fiber.Ctx) error {
	account, err := a.auther.CurrentAccount(c.UserContext(), a.caller(c))
	if err != nil {
		return err
	}
	return c.JSON(account)
}
