package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

// JSON stores raw JSON documents in a MySQL json column.
type JSON json.RawMessage

// Value implements the driver.Valuer interface
func (j JSON) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}

	// Validate JSON before returning
	var temp interface{}
	if err := json.Unmarshal(j, &temp); err != nil {
		// If JSON is invalid, return empty JSON object
		return "{}", nil
	}

	return string(j), nil
}

// Scan implements the sql.Scanner interface
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = JSON("{}")
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("invalid scan source")
	}
	*j = JSON(bytes)
	return nil
}

// MarshalJSON implements the json.Marshaler interface
func (j JSON) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return j, nil
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (j *JSON) UnmarshalJSON(data []byte) error {
	*j = JSON(data)
	return nil
}

// ImageMetadata is the EXIF sidecar extracted from JPEG sources at ingest.
// Images without EXIF simply have no row here.
type ImageMetadata struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	ImageID      uint       `gorm:"index;not null" json:"image_id"`
	CameraModel  *string    `gorm:"type:varchar(255)" json:"camera_model"`
	TakenAt      *time.Time `gorm:"type:datetime" json:"taken_at"`
	Latitude     *float64   `gorm:"type:decimal(10,8)" json:"latitude"`
	Longitude    *float64   `gorm:"type:decimal(11,8)" json:"longitude"`
	ExposureTime *string    `gorm:"type:varchar(50)" json:"exposure_time"`
	Aperture     *string    `gorm:"type:varchar(20)" json:"aperture"`
	ISO          *int       `gorm:"type:int" json:"iso"`
	FocalLength  *string    `gorm:"type:varchar(20)" json:"focal_length"`
	RawTags      *JSON      `gorm:"type:json" json:"raw_tags"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// FindMetadataByImageID finds metadata for an image by its ID
func FindMetadataByImageID(db *gorm.DB, imageID uint) (*ImageMetadata, error) {
	var metadata ImageMetadata
	result := db.Where("image_id = ?", imageID).First(&metadata)
	return &metadata, result.Error
}
