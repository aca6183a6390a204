package api

import (
	"errors"
	"fmt"

	"github.com/velvetlabs/livepoll/pkg/internal/http/exts"
	"github.com/velvetlabs/livepoll/pkg/internal/services"

	"github.com/gofiber/fiber/v2"
)

func votePoll(c *fiber.Ctx) error {
	pollID, err := c.ParamsInt("id")
	if err != nil {
		return c.Redirect("/dashboard")
	}
	accountID, _ := sessionAccountID(c)

	var data struct {
		PollOption string `form:"pollOption" validate:"required"`
	}

	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}

	poll, err := services.CastVote(accountID, uint(pollID), services.SelectOptionByLabel(data.PollOption), false)
	switch {
	case errors.Is(err, services.ErrAlreadyVoted):
		return c.Render("poll", fiber.Map{"Poll": poll, "ErrorMessage": "You have already voted on this poll"})
	case errors.Is(err, services.ErrPollNotFound), errors.Is(err, services.ErrUserNotFound):
		return c.Redirect("/dashboard")
	case err != nil:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.Redirect(fmt.Sprintf("/poll/%d", pollID))
}
