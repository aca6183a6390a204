package api

import (
	"errors"
	"strings"

	"github.com/velvetlabs/livepoll/pkg/internal/http/exts"
	"github.com/velvetlabs/livepoll/pkg/internal/models"
	"github.com/velvetlabs/livepoll/pkg/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
)

func showPoll(c *fiber.Ctx) error {
	pollID, err := c.ParamsInt("id")
	if err != nil {
		return c.Redirect("/dashboard")
	}

	poll, err := services.GetPoll(uint(pollID))
	if err != nil {
		return c.Redirect("/dashboard")
	}

	return c.Render("poll", fiber.Map{"Poll": poll, "ErrorMessage": nil})
}

func showCreatePoll(c *fiber.Ctx) error {
	return c.Render("create-poll", fiber.Map{"ErrorMessage": nil})
}

// createPoll handles POST /poll where the options arrive as repeated
// form fields, already split.
func createPoll(c *fiber.Ctx) error {
	accountID, _ := sessionAccountID(c)

	var data struct {
		Question string   `form:"question" validate:"required"`
		Options  []string `form:"options" validate:"required,min=1"`
	}

	if err := exts.BindAndValidate(c, &data); err != nil {
		return c.Render("create-poll", fiber.Map{"ErrorMessage": "A poll needs a question and at least one option"})
	}

	return persistPoll(c, accountID, data.Question, data.Options)
}

// createPollInline handles POST /createPoll where the options arrive as
// one comma-separated string.
func createPollInline(c *fiber.Ctx) error {
	accountID, _ := sessionAccountID(c)

	var data struct {
		Question string `form:"question" validate:"required"`
		Options  string `form:"options" validate:"required"`
	}

	if err := exts.BindAndValidate(c, &data); err != nil {
		return c.Render("create-poll", fiber.Map{"ErrorMessage": "A poll needs a question and at least one option"})
	}

	return persistPoll(c, accountID, data.Question, strings.Split(data.Options, ","))
}

func persistPoll(c *fiber.Ctx, accountID uint, question string, labels []string) error {
	options := lo.Map(labels, func(item string, index int) models.PollOption {
		return models.PollOption{Label: strings.TrimSpace(item)}
	})

	poll := models.Poll{
		Question:  question,
		Options:   options,
		AccountID: accountID,
	}

	if _, err := services.NewPoll(poll); err != nil {
		if errors.Is(err, services.ErrInvalidOptions) {
			return c.Render("create-poll", fiber.Map{"ErrorMessage": "A poll needs a question and at least one option"})
		}
		return c.Render("create-poll", fiber.Map{"ErrorMessage": "Error creating the poll, please try again"})
	}

	return c.Redirect("/dashboard")
}
