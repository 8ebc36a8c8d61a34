package router

import (
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/storage/redis"

	"github.com/quietpage/quietpage/app/controllers"
	"github.com/quietpage/quietpage/internal/pkg/cache"
	"github.com/quietpage/quietpage/internal/pkg/env"
	"github.com/quietpage/quietpage/internal/pkg/images"
	"github.com/quietpage/quietpage/internal/pkg/middleware"
	"github.com/quietpage/quietpage/internal/pkg/statistics"
)

type ApiRouter struct {
	image  *controllers.ImageController
	upload *controllers.UploadController
	admin  *controllers.AdminController
}

func NewApiRouter(svc *images.Service, collector *statistics.Collector) *ApiRouter {
	return &ApiRouter{
		image:  controllers.NewImageController(svc),
		upload: controllers.NewUploadController(svc),
		admin:  controllers.NewAdminController(svc, collector),
	}
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{
		Max:        env.GetEnvInt("API_RATE_LIMIT", 120),
		Expiration: 1 * time.Minute,
		Storage:    rateLimitStorage(),
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   "rate_limited",
				"message": "Too many requests",
			})
		},
	}))

	v1 := api.Group("/v1")
	v1.Get("/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	imageGroup := v1.Group("/images", middleware.APIKeyAuth("API_KEY"))
	imageGroup.Post("/", h.upload.HandleUpload)
	imageGroup.Post("/base64", h.upload.HandleUploadBase64)
	imageGroup.Post("/from-url", h.upload.HandleUploadFromURL)
	imageGroup.Get("/:uuid", h.image.HandleGet)
	imageGroup.Get("/:uuid/thumbnail", h.image.HandleThumbnail)
	imageGroup.Delete("/:uuid", h.image.HandleDelete)

	adminGroup := v1.Group("/admin", middleware.APIKeyAuth("ADMIN_API_KEY"))
	adminGroup.Post("/images/sweep", h.admin.HandleSweep)
	adminGroup.Get("/stats", h.admin.HandleStats)
}

// rateLimitStorage keeps limiter counters in Redis so limits hold across
// instances. Connection details come from the existing cache client; the
// limiter uses database 1 to stay out of the cache's keyspace.
func rateLimitStorage() *redis.Storage {
	host := "localhost"
	port := 6379
	password := env.GetEnv("CACHE_PASSWORD", "")
	if client := cache.GetClient(); client != nil {
		addr := client.Options().Addr
		if h, p, err := net.SplitHostPort(addr); err == nil {
			host = h
			if v, err := strconv.Atoi(p); err == nil {
				port = v
			}
		}
		if p := client.Options().Password; p != "" {
			password = p
		}
	}

	return redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: 1,
		Reset:    false,
	})
}
