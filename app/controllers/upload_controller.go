package controllers

import (
	"io"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/quietpage/quietpage/app/models"
	"github.com/quietpage/quietpage/internal/pkg/images"
	"github.com/quietpage/quietpage/internal/pkg/statistics"
)

// UploadController accepts new images over the three ingest channels.
type UploadController struct {
	svc *images.Service
}

func NewUploadController(svc *images.Service) *UploadController {
	return &UploadController{svc: svc}
}

// HandleUpload stores a multipart upload. Fields: file (required), type
// (defaults to gallery), uploaded_to, created_by.
func (uc *UploadController) HandleUpload(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "invalid multipart form"})
	}
	defer func() { _ = form.RemoveAll() }()

	files := form.File["file"]
	if len(files) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "file missing"})
	}
	file := files[0]

	src, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "failed to open file"})
	}
	data, err := io.ReadAll(src)
	_ = src.Close()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "failed to read file"})
	}

	image, err := uc.svc.SaveNew(file.Filename, data, formImageType(form.Value), formUint(form.Value, "uploaded_to"), formUint(form.Value, "created_by"))
	if err != nil {
		return respondServiceError(c, err)
	}

	statistics.Invalidate()
	fiberlog.Infof("[API] uploaded %s (%d bytes)", image.Path, image.FileSize)
	return c.Status(fiber.StatusCreated).JSON(buildImageResponse(uc.svc.Resolver(), image))
}

type base64UploadRequest struct {
	Data       string `json:"data"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	UploadedTo uint   `json:"uploaded_to"`
	CreatedBy  uint   `json:"created_by"`
}

// HandleUploadBase64 stores an image posted as a base64 data URI.
func (uc *UploadController) HandleUploadBase64(c *fiber.Ctx) error {
	var req base64UploadRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "invalid request body"})
	}
	if req.Data == "" || req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "data and name are required"})
	}
	if req.Type == "" {
		req.Type = models.ImageTypeGallery
	}

	image, err := uc.svc.SaveNewFromBase64(req.Data, req.Name, req.Type, req.UploadedTo, req.CreatedBy)
	if err != nil {
		return respondServiceError(c, err)
	}

	statistics.Invalidate()
	return c.Status(fiber.StatusCreated).JSON(buildImageResponse(uc.svc.Resolver(), image))
}

type urlUploadRequest struct {
	URL        string `json:"url"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	UploadedTo uint   `json:"uploaded_to"`
	CreatedBy  uint   `json:"created_by"`
}

// HandleUploadFromURL fetches a remote image and stores it.
func (uc *UploadController) HandleUploadFromURL(c *fiber.Ctx) error {
	var req urlUploadRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "invalid request body"})
	}
	if req.URL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "url is required"})
	}
	if req.Type == "" {
		req.Type = models.ImageTypeGallery
	}

	image, err := uc.svc.SaveNewFromURL(c.UserContext(), req.URL, req.Name, req.Type, req.UploadedTo, req.CreatedBy)
	if err != nil {
		return respondServiceError(c, err)
	}

	statistics.Invalidate()
	return c.Status(fiber.StatusCreated).JSON(buildImageResponse(uc.svc.Resolver(), image))
}

func formImageType(values map[string][]string) string {
	if v := firstFormValue(values, "type"); v != "" {
		return v
	}
	return models.ImageTypeGallery
}

func formUint(values map[string][]string, key string) uint {
	raw := firstFormValue(values, key)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0
	}
	return uint(v)
}

func firstFormValue(values map[string][]string, key string) string {
	if vs, ok := values[key]; ok && len(vs) > 0 {
		return strings.TrimSpace(vs[0])
	}
	return ""
}
