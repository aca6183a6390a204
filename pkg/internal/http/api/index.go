package api

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

func MapControllers(app *fiber.App) {
	openSessionStore()

	app.Get("/", showIndex)
	app.Get("/login", showLogin)
	app.Post("/login", doLogin)
	app.Get("/signup", showSignup)
	app.Post("/signup", doSignup)
	app.Get("/register", showRegister)
	app.Post("/register", doRegister)
	app.Get("/logout", doLogout)

	app.Get("/dashboard", authRequired, showDashboard)
	app.Get("/profile", authRequired, showProfile)
	app.Get("/createPoll", authRequired, showCreatePoll)
	app.Post("/createPoll", authRequired, createPollInline)
	app.Post("/poll", authRequired, createPoll)
	app.Get("/poll/:id", authRequired, showPoll)
	app.Post("/vote/:id", authRequired, votePoll)

	// Live sockets; the gate runs before the upgrade so the session is
	// still readable.
	app.Get("/ws", upgradeGate, websocket.New(handleEventStream))
	app.Get("/vote/:id", upgradeGate, websocket.New(handleVoteStream))
}
