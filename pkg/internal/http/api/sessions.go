package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

// Sessions only carry the account id; the account record itself is
// re-fetched per request so profile changes are visible immediately.
var sessions *session.Store

func openSessionStore() {
	sessions = session.New(session.Config{
		Expiration:     72 * time.Hour,
		CookieHTTPOnly: true,
	})
}

func sessionAccountID(c *fiber.Ctx) (uint, bool) {
	sess, err := sessions.Get(c)
	if err != nil {
		return 0, false
	}
	id, ok := sess.Get("account_id").(uint)
	return id, ok && id > 0
}

func establishSession(c *fiber.Ctx, accountID uint) error {
	sess, err := sessions.Get(c)
	if err != nil {
		return err
	}
	sess.Set("account_id", accountID)
	return sess.Save()
}

func destroySession(c *fiber.Ctx) error {
	sess, err := sessions.Get(c)
	if err != nil {
		return err
	}
	return sess.Destroy()
}

func authRequired(c *fiber.Ctx) error {
	if _, ok := sessionAccountID(c); !ok {
		return c.Redirect("/")
	}
	return c.Next()
}
