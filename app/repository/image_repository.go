package repository

import (
	"gorm.io/gorm"

	"github.com/quietpage/quietpage/app/models"
)

// imageRepository implements the ImageRepository interface
type imageRepository struct {
	db *gorm.DB
}

// NewImageRepository creates a new image repository instance
func NewImageRepository(db *gorm.DB) ImageRepository {
	return &imageRepository{db: db}
}

// Create creates a new image in the database
func (r *imageRepository) Create(image *models.Image) error {
	return r.db.Create(image).Error
}

// GetByID retrieves an image by its ID
func (r *imageRepository) GetByID(id uint) (*models.Image, error) {
	var image models.Image
	err := r.db.Preload("Metadata").First(&image, id).Error
	if err != nil {
		return nil, err
	}
	return &image, nil
}

// GetByUUID retrieves an image by its UUID
func (r *imageRepository) GetByUUID(uuid string) (*models.Image, error) {
	var image models.Image
	err := r.db.Preload("Metadata").Where("uuid = ?", uuid).First(&image).Error
	if err != nil {
		return nil, err
	}
	return &image, nil
}

// GetByPath retrieves an image by its canonical storage path
func (r *imageRepository) GetByPath(path string) (*models.Image, error) {
	var image models.Image
	err := r.db.Where("path = ?", path).First(&image).Error
	if err != nil {
		return nil, err
	}
	return &image, nil
}

// Update updates an existing image in the database
func (r *imageRepository) Update(image *models.Image) error {
	return r.db.Save(image).Error
}

// UpdateFields updates selected columns of an image without touching the rest
func (r *imageRepository) UpdateFields(image *models.Image, fields map[string]interface{}) error {
	return r.db.Model(image).Updates(fields).Error
}

// Delete removes an image record and its metadata sidecar. The record is
// removed for good; the caller is responsible for deleting the stored bytes
// first.
func (r *imageRepository) Delete(image *models.Image) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("image_id = ?", image.ID).Delete(&models.ImageMetadata{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Image{}, image.ID).Error; err != nil {
			return err
		}
		return nil
	})
}

// List retrieves a paginated list of images
func (r *imageRepository) List(offset, limit int) ([]models.Image, error) {
	var images []models.Image
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&images).Error
	return images, err
}

// Count returns the total number of images
func (r *imageRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Image{}).Count(&count).Error
	return count, err
}

// CountByType returns image counts grouped by image type
func (r *imageRepository) CountByType() (map[string]int64, error) {
	var rows []struct {
		Type  string
		Count int64
	}
	err := r.db.Model(&models.Image{}).
		Select("type, COUNT(*) as count").
		Group("type").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Type] = row.Count
	}
	return counts, nil
}

// SumFileSize returns the total stored source bytes across all images
func (r *imageRepository) SumFileSize() (int64, error) {
	var total int64
	err := r.db.Model(&models.Image{}).
		Select("COALESCE(SUM(file_size), 0)").
		Row().Scan(&total)
	return total, err
}

// QueryByTypes iterates images of the given types in batches of batchSize,
// invoking fn once per batch. Iteration stops on the first fn error.
func (r *imageRepository) QueryByTypes(types []string, batchSize int, fn func(batch []models.Image) error) error {
	var batch []models.Image
	result := r.db.Where("type IN ?", types).Order("id").
		FindInBatches(&batch, batchSize, func(tx *gorm.DB, _ int) error {
			return fn(batch)
		})
	return result.Error
}
