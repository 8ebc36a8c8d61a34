package images

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/gofiber/fiber/v2/log"

	"github.com/quietpage/quietpage/app/models"
	"github.com/quietpage/quietpage/app/repository"
	"github.com/quietpage/quietpage/internal/pkg/imageprocessor"
	"github.com/quietpage/quietpage/internal/pkg/storage"
	"github.com/quietpage/quietpage/internal/pkg/upload"
	"github.com/quietpage/quietpage/internal/pkg/utils"
)

// Avatar fetch size in pixels.
const avatarSize = 500

// StorageProvider yields the gateway responsible for an image type.
// *storage.Manager is the production implementation.
type StorageProvider interface {
	ForType(imageType string) storage.Gateway
	Config() *storage.Config
}

// Service bundles naming, storage, thumbnail derivation and cleanup for
// image assets.
type Service struct {
	storage  StorageProvider
	resolver *Resolver
	repos    *repository.Repositories
	fetcher  *Fetcher
}

// NewService wires the image service. A nil fetcher gets the default HTTP
// client.
func NewService(storageManager StorageProvider, resolver *Resolver, repos *repository.Repositories, fetcher *Fetcher) *Service {
	if fetcher == nil {
		fetcher = NewFetcher(nil)
	}
	return &Service{
		storage:  storageManager,
		resolver: resolver,
		repos:    repos,
		fetcher:  fetcher,
	}
}

// Resolver exposes the URL resolver the service was built with.
func (s *Service) Resolver() *Resolver {
	return s.resolver
}

// SaveNew validates, names and stores a new image and creates its record.
// Nothing is persisted when validation or the storage write fails.
func (s *Service) SaveNew(name string, data []byte, imageType string, uploadedTo uint, createdBy uint) (*models.Image, error) {
	if !models.IsValidImageType(imageType) {
		return nil, &UploadValidationError{Reason: fmt.Sprintf("unknown image type %q", imageType)}
	}
	if _, err := upload.ValidateImageBySniff(name, data); err != nil {
		return nil, &UploadValidationError{Reason: err.Error()}
	}

	gw := s.storage.ForType(imageType)
	storagePath, err := BuildSourcePath(name, imageType, s.storage.Config().SecureUploads, gw.Exists)
	if err != nil {
		return nil, err
	}

	if err := gw.Put(storagePath, data); err != nil {
		return nil, &StorageWriteError{Path: storagePath, Err: err}
	}
	if err := gw.SetPublic(storagePath); err != nil {
		return nil, &StorageWriteError{Path: storagePath, Err: err}
	}

	image := &models.Image{
		Name:       name,
		Path:       storagePath,
		Type:       imageType,
		UploadedTo: uploadedTo,
		FileSize:   int64(len(data)),
		CreatedBy:  createdBy,
		UpdatedBy:  createdBy,
	}
	if width, height, err := imageprocessor.Dimensions(data); err == nil {
		image.Width = width
		image.Height = height
	}
	if meta, err := imageprocessor.ExtractMetadata(data); err == nil && meta != nil {
		image.Metadata = meta
	}

	if err := s.repos.Image.Create(image); err != nil {
		return nil, err
	}

	log.Infof("[Images] stored %s as %s", name, storagePath)
	return image, nil
}

// SaveNewFromBase64 decodes a data-URI payload and stores it like SaveNew.
func (s *Service) SaveNewFromBase64(payload, name, imageType string, uploadedTo uint, createdBy uint) (*models.Image, error) {
	_, encoded, found := strings.Cut(payload, ";base64,")
	if !found {
		return nil, &UploadValidationError{Reason: "base64 payload is missing its data-URI delimiter"}
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, &UploadValidationError{Reason: fmt.Sprintf("base64 payload cannot be decoded: %v", err)}
	}

	return s.SaveNew(name, data, imageType, uploadedTo, createdBy)
}

// SaveNewFromURL downloads a remote image and stores it like SaveNew. An
// empty name falls back to the URL basename.
func (s *Service) SaveNewFromURL(ctx context.Context, rawURL, name, imageType string, uploadedTo uint, createdBy uint) (*models.Image, error) {
	if name == "" {
		if u, err := url.Parse(rawURL); err == nil {
			if base := path.Base(u.Path); base != "." && base != "/" {
				name = base
			}
		}
	}
	if name == "" {
		return nil, &UploadValidationError{Reason: "no usable file name in URL, provide one explicitly"}
	}

	data, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	return s.SaveNew(name, data, imageType, uploadedTo, createdBy)
}

// SaveGravatar fetches the avatar for an email address and stores it as an
// avatar image owned by userID.
func (s *Service) SaveGravatar(ctx context.Context, email string, userID uint) (*models.Image, error) {
	avatarURL := utils.GetGravatarURL(email, avatarSize)

	data, err := s.fetcher.Fetch(ctx, avatarURL)
	if err != nil {
		return nil, err
	}

	name := fmt.Sprintf("%d-avatar.png", userID)
	return s.SaveNew(name, data, models.ImageTypeAvatar, models.Unattached, userID)
}

// UpdateAttachedTo moves an image to another owning page.
func (s *Service) UpdateAttachedTo(image *models.Image, uploadedTo uint, updatedBy uint) error {
	return s.repos.Image.UpdateFields(image, map[string]interface{}{
		"uploaded_to": uploadedTo,
		"updated_by":  updatedBy,
	})
}

// GetByUUID loads one image record.
func (s *Service) GetByUUID(uuid string) (*models.Image, error) {
	return s.repos.Image.GetByUUID(uuid)
}

// GetByID loads one image record by its database ID.
func (s *Service) GetByID(id uint) (*models.Image, error) {
	return s.repos.Image.GetByID(id)
}
