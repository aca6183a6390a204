package api

import (
	"errors"

	"github.com/velvetlabs/livepoll/pkg/internal/http/exts"
	"github.com/velvetlabs/livepoll/pkg/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type credentialsForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

func showLogin(c *fiber.Ctx) error {
	return c.Render("login", fiber.Map{"ErrorMessage": nil})
}

func doLogin(c *fiber.Ctx) error {
	var data credentialsForm
	if err := exts.BindAndValidate(c, &data); err != nil {
		return c.Render("login", fiber.Map{"ErrorMessage": "Incorrect username or password"})
	}

	user, err := services.AuthAccount(data.Username, data.Password)
	if err != nil {
		if !errors.Is(err, services.ErrInvalidCredentials) {
			log.Warn().Err(err).Msg("An error occurred when authenticating account...")
		}
		return c.Render("login", fiber.Map{"ErrorMessage": "Incorrect username or password"})
	}

	if err := establishSession(c, user.ID); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.Redirect("/dashboard")
}

func showSignup(c *fiber.Ctx) error {
	if _, ok := sessionAccountID(c); ok {
		return c.Redirect("/dashboard")
	}

	return c.Render("signup", fiber.Map{"ErrorMessage": nil})
}

func doSignup(c *fiber.Ctx) error {
	return signupAccount(c, "signup")
}

func showRegister(c *fiber.Ctx) error {
	return c.Render("register", fiber.Map{"ErrorMessage": nil})
}

func doRegister(c *fiber.Ctx) error {
	return signupAccount(c, "register")
}

func signupAccount(c *fiber.Ctx, view string) error {
	var data credentialsForm
	if err := exts.BindAndValidate(c, &data); err != nil {
		return c.Render(view, fiber.Map{"ErrorMessage": "Username and password are required"})
	}

	user, err := services.SignupAccount(data.Username, data.Password)
	if err != nil {
		if errors.Is(err, services.ErrUsernameTaken) {
			return c.Render(view, fiber.Map{"ErrorMessage": "Username already exists"})
		}
		log.Warn().Err(err).Msg("An error occurred when creating account...")
		return c.Render(view, fiber.Map{"ErrorMessage": "Unable to create your account, please try again"})
	}

	if err := establishSession(c, user.ID); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.Redirect("/dashboard")
}

func doLogout(c *fiber.Ctx) error {
	if err := destroySession(c); err != nil {
		log.Warn().Err(err).Msg("An error occurred when destroying session...")
	}

	return c.Redirect("/")
}
