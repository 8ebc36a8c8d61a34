package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/quietpage/quietpage/internal/pkg/images"
	"github.com/quietpage/quietpage/internal/pkg/statistics"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

func InstallRouter(app *fiber.App, svc *images.Service, collector *statistics.Collector) {
	setup(app, NewApiRouter(svc, collector))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
