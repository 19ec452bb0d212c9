package router

import (
	"github.com/gofiber/fiber/v2"
)

// Router is one mountable route group.
type Router interface {
	InstallRouter(app *fiber.App)
}

// InstallRouter mounts the browser-facing routes first so the session store,
// OAuth providers and the global user-context middleware exist before the
// JSON API group (whose auth guards read that context) is registered.
func InstallRouter(app *fiber.App) {
	setup(app, NewHttpRouter(), NewApiRouter())
}

func setup(app *fiber.App, routers ...Router) {
	for _, r := range routers {
		r.InstallRouter(app)
	}
}
