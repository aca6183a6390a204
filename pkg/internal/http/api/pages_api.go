package api

import (
	"github.com/velvetlabs/livepoll/pkg/internal/services"

	"github.com/gofiber/fiber/v2"
)

func showIndex(c *fiber.Ctx) error {
	if accountID, ok := sessionAccountID(c); ok {
		if user, err := services.GetAccount(accountID); err == nil {
			polls, _ := services.ListPolls()
			return c.Render("dashboard", fiber.Map{"User": user, "Polls": polls})
		}
	}

	count, _ := services.CountPolls()
	return c.Render("index", fiber.Map{"PollCount": count})
}

func showDashboard(c *fiber.Ctx) error {
	accountID, _ := sessionAccountID(c)
	user, err := services.GetAccount(accountID)
	if err != nil {
		return c.Redirect("/")
	}

	polls, err := services.ListPolls()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.Render("dashboard", fiber.Map{"User": user, "Polls": polls})
}

func showProfile(c *fiber.Ctx) error {
	accountID, _ := sessionAccountID(c)
	user, err := services.GetAccount(accountID)
	if err != nil {
		return c.Redirect("/")
	}

	return c.Render("profile", fiber.Map{"User": user})
}
