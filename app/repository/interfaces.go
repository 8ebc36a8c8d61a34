package repository

import (
	"gorm.io/gorm"

	"github.com/quietpage/quietpage/app/models"
)

// ImageRepository defines the interface for image-related database operations
type ImageRepository interface {
	Create(image *models.Image) error
	GetByID(id uint) (*models.Image, error)
	GetByUUID(uuid string) (*models.Image, error)
	GetByPath(path string) (*models.Image, error)
	Update(image *models.Image) error
	UpdateFields(image *models.Image, fields map[string]interface{}) error
	Delete(image *models.Image) error
	List(offset, limit int) ([]models.Image, error)
	Count() (int64, error)
	CountByType() (map[string]int64, error)
	SumFileSize() (int64, error)
	// QueryByTypes iterates all images of the given types in bounded batches
	// so a sweep over a large corpus never loads the whole table at once.
	QueryByTypes(types []string, batchSize int, fn func(batch []models.Image) error) error
}

// PageRepository defines the interface for page-related operations, including
// the content-reference counts the orphan sweep relies on.
type PageRepository interface {
	Create(page *models.Page) error
	GetByID(id uint) (*models.Page, error)
	GetBySlug(slug string) (*models.Page, error)
	Update(page *models.Page) error
	Delete(id uint) error
	Count() (int64, error)
	// CountContaining counts live pages whose raw content contains the
	// substring. Deactivated pages still count, only soft-deleted ones
	// drop out. Deliberately coarse, see the cleanup service.
	CountContaining(substring string) (int64, error)
	// CountRevisionsContaining is the same check over historical revisions.
	CountRevisionsContaining(substring string) (int64, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	Image ImageRepository
	Page  PageRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Image: NewImageRepository(db),
		Page:  NewPageRepository(db),
	}
}
