package repository

import (
	"gorm.io/gorm"

	"github.com/quietpage/quietpage/app/models"
)

// pageRepository implements the PageRepository interface
type pageRepository struct {
	db *gorm.DB
}

// NewPageRepository creates a new page repository instance
func NewPageRepository(db *gorm.DB) PageRepository {
	return &pageRepository{db: db}
}

// Create creates a new page in the database
func (r *pageRepository) Create(page *models.Page) error {
	return r.db.Create(page).Error
}

// GetByID retrieves a page by its ID
func (r *pageRepository) GetByID(id uint) (*models.Page, error) {
	var page models.Page
	err := r.db.First(&page, id).Error
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// GetBySlug retrieves a page by its slug
func (r *pageRepository) GetBySlug(slug string) (*models.Page, error) {
	var page models.Page
	err := r.db.Where("slug = ? AND is_active = ?", slug, true).First(&page).Error
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// Update updates an existing page in the database
func (r *pageRepository) Update(page *models.Page) error {
	return r.db.Save(page).Error
}

// Delete soft deletes a page by its ID
func (r *pageRepository) Delete(id uint) error {
	return r.db.Delete(&models.Page{}, id).Error
}

// Count returns the total number of pages
func (r *pageRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Page{}).Count(&count).Error
	return count, err
}

// CountContaining counts pages whose content contains the substring. The
// pattern is not escaped, image basenames are slugified so LIKE
// metacharacters do not occur in practice.
func (r *pageRepository) CountContaining(substring string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Page{}).
		Where("content LIKE ?", "%"+substring+"%").
		Count(&count).Error
	return count, err
}

// CountRevisionsContaining runs the same containment check over the page
// revision history.
func (r *pageRepository) CountRevisionsContaining(substring string) (int64, error) {
	var count int64
	err := r.db.Model(&models.PageRevision{}).
		Where("content LIKE ?", "%"+substring+"%").
		Count(&count).Error
	return count, err
}
