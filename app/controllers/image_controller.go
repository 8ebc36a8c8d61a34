package controllers

import (
	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/quietpage/quietpage/internal/pkg/images"
	"github.com/quietpage/quietpage/internal/pkg/jobqueue"
	metrics "github.com/quietpage/quietpage/internal/pkg/metrics/counter"
)

// Thumbnail edges are clamped to this to keep one request from asking the
// codec for a wall-sized render.
const maxThumbnailEdge = 4096

// ImageController serves the read and delete side of the image API.
type ImageController struct {
	svc *images.Service
}

func NewImageController(svc *images.Service) *ImageController {
	return &ImageController{svc: svc}
}

// HandleGet returns the canonical image resource and counts the view.
func (ic *ImageController) HandleGet(c *fiber.Ctx) error {
	uuid := c.Params("uuid")
	if uuid == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "uuid missing"})
	}

	image, err := ic.svc.GetByUUID(uuid)
	if err != nil || image == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "image not found"})
	}

	_ = metrics.AddImageView(image.ID)
	return c.JSON(buildImageResponse(ic.svc.Resolver(), image))
}

// HandleThumbnail resolves a derived rendition and returns its public URL.
// fit=crop fills the box exactly, fit=scale fits within it.
func (ic *ImageController) HandleThumbnail(c *fiber.Ctx) error {
	uuid := c.Params("uuid")
	if uuid == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "uuid missing"})
	}

	image, err := ic.svc.GetByUUID(uuid)
	if err != nil || image == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "image not found"})
	}

	width := c.QueryInt("width", 0)
	height := c.QueryInt("height", 0)
	if width <= 0 || height <= 0 || width > maxThumbnailEdge || height > maxThumbnailEdge {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "width and height must be between 1 and 4096"})
	}

	var keepRatio bool
	switch c.Query("fit", "crop") {
	case "crop":
		keepRatio = false
	case "scale":
		keepRatio = true
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "fit must be crop or scale"})
	}

	url, err := ic.svc.GetThumbnail(image, width, height, keepRatio)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"url": url})
}

// HandleDelete removes an image. The removal is queued when the job queue is
// up, otherwise it runs synchronously before responding.
func (ic *ImageController) HandleDelete(c *fiber.Ctx) error {
	uuid := c.Params("uuid")
	if uuid == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "uuid missing"})
	}

	image, err := ic.svc.GetByUUID(uuid)
	if err != nil || image == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "image not found"})
	}

	if manager := jobqueue.GetManager(); manager != nil && manager.IsRunning() {
		job, err := manager.GetQueue().EnqueueImageDelete(image.ID, image.UUID, nil)
		if err == nil {
			return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "queued", "job_id": job.ID})
		}
		fiberlog.Warnf("[API] enqueue for image %s failed, deleting synchronously: %v", image.UUID, err)
	}

	if err := ic.svc.Destroy(image); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"status": "deleted"})
}
