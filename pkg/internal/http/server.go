package http

import (
	"github.com/velvetlabs/livepoll/pkg/internal/http/api"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/encryptcookie"
	"github.com/gofiber/template/html/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type App struct {
	app *fiber.App
}

func NewServer() *App {
	engine := html.New("./views", ".html")

	app := fiber.New(fiber.Config{
		AppName:               "LivePoll",
		Views:                 engine,
		DisableStartupMessage: true,
	})

	// Session cookies are integrity-protected with a key from the
	// settings file, never a source literal.
	app.Use(encryptcookie.New(encryptcookie.Config{
		Key: viper.GetString("security.cookie_secret"),
	}))

	app.Static("/", "./public")

	api.MapControllers(app)

	return &App{app}
}

func (v *App) Listen() {
	if err := v.app.Listen(viper.GetString("bind")); err != nil {
		log.Fatal().Err(err).Msg("An error occurred when starting http server.")
	}
}
