package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/quietpage/quietpage/app/models"
	"github.com/quietpage/quietpage/internal/pkg/images"
	"github.com/quietpage/quietpage/internal/pkg/storage"
)

// imageResponse is the canonical image resource shape returned by the API.
type imageResponse struct {
	UUID       string    `json:"uuid"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Path       string    `json:"path"`
	URL        string    `json:"url"`
	FileSize   int64     `json:"file_size"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	UploadedTo uint      `json:"uploaded_to,omitempty"`
	ViewCount  uint64    `json:"view_count"`
	ThumbCount uint64    `json:"thumb_count"`
	CreatedAt  time.Time `json:"created_at"`
}

func buildImageResponse(resolver *images.Resolver, image *models.Image) imageResponse {
	return imageResponse{
		UUID:       image.UUID,
		Name:       image.Name,
		Type:       image.Type,
		Path:       image.Path,
		URL:        resolver.ToPublicURL(image.Path),
		FileSize:   image.FileSize,
		Width:      image.Width,
		Height:     image.Height,
		UploadedTo: image.UploadedTo,
		ViewCount:  image.ViewCount,
		ThumbCount: image.ThumbCount,
		CreatedAt:  image.CreatedAt,
	}
}

// respondServiceError maps image service errors onto HTTP responses.
func respondServiceError(c *fiber.Ctx, err error) error {
	var (
		validationErr *images.UploadValidationError
		fetchErr      *images.RemoteFetchError
		derivationErr *images.DerivationError
		writeErr      *images.StorageWriteError
	)
	switch {
	case errors.As(err, &validationErr):
		return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{"error": "invalid_image", "message": validationErr.Error()})
	case errors.As(err, &fetchErr):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "fetch_failed", "message": fetchErr.Error()})
	case errors.Is(err, storage.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "image file not found"})
	case errors.As(err, &derivationErr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "derivation_failed", "message": derivationErr.Error()})
	case errors.As(err, &writeErr):
		fiberlog.Errorf("[API] storage write failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "storage_error", "message": "could not write image data"})
	default:
		fiberlog.Errorf("[API] unexpected error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "unexpected error"})
	}
}
