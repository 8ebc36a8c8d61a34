package models

import (
	"path"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Image types determine which storage backend serves an image, whether it is
// publicly visible and whether the orphan sweep may delete it.
const (
	ImageTypeGallery = "gallery"
	ImageTypeDrawing = "drawing"
	ImageTypeAvatar  = "avatar"
	ImageTypeCover   = "cover"
	ImageTypeSystem  = "system"
)

// AllImageTypes lists every valid image type.
var AllImageTypes = []string{
	ImageTypeGallery,
	ImageTypeDrawing,
	ImageTypeAvatar,
	ImageTypeCover,
	ImageTypeSystem,
}

// NoUser is the CreatedBy/UpdatedBy sentinel for system-initiated uploads.
const NoUser uint = 0

// Unattached is the UploadedTo sentinel for images not bound to a page.
const Unattached uint = 0

type Image struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	UUID       string         `gorm:"type:char(36) CHARACTER SET utf8 COLLATE utf8_bin;uniqueIndex;not null" json:"uuid"`
	Name       string         `gorm:"type:varchar(255);not null" json:"name" validate:"required,max=255"`
	Path       string         `gorm:"type:varchar(400);uniqueIndex;not null" json:"path" validate:"required,max=400"`
	Type       string         `gorm:"type:varchar(30);index;not null" json:"type" validate:"required,oneof=gallery drawing avatar cover system"`
	UploadedTo uint           `gorm:"index;default:0" json:"uploaded_to"`
	FileSize   int64          `gorm:"type:bigint" json:"file_size"`
	Width      int            `gorm:"type:int" json:"width"`
	Height     int            `gorm:"type:int" json:"height"`
	ViewCount  uint64         `gorm:"default:0" json:"view_count"`
	ThumbCount uint64         `gorm:"default:0" json:"thumb_count"`
	CreatedBy  uint           `gorm:"index;default:0" json:"created_by"`
	UpdatedBy  uint           `gorm:"default:0" json:"updated_by"`
	Metadata   *ImageMetadata `gorm:"foreignKey:ImageID" json:"metadata,omitempty"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// BeforeCreate assigns the UUID if the caller did not set one.
func (i *Image) BeforeCreate(tx *gorm.DB) error {
	if i.UUID == "" {
		i.UUID = uuid.New().String()
	}
	return nil
}

func (i *Image) Validate() error {
	v := validator.New()
	return v.Struct(i)
}

// Filename returns the leaf name of the stored source file. Storage paths
// always use forward slashes, independent of the host OS.
func (i *Image) Filename() string {
	return path.Base(i.Path)
}

// IsValidImageType reports whether t is one of the known image types.
func IsValidImageType(t string) bool {
	for _, known := range AllImageTypes {
		if t == known {
			return true
		}
	}
	return false
}

// FindImageByUUID finds an image by its UUID
func FindImageByUUID(db *gorm.DB, uuid string) (*Image, error) {
	var image Image
	result := db.Where("uuid = ?", uuid).First(&image)
	return &image, result.Error
}

// FindImageByPath finds an image by its canonical storage path
func FindImageByPath(db *gorm.DB, storagePath string) (*Image, error) {
	var image Image
	result := db.Where("path = ?", storagePath).First(&image)
	return &image, result.Error
}
