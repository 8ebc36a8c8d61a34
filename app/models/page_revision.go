package models

import (
	"time"

	"gorm.io/gorm"
)

// PageRevision is an immutable content snapshot taken whenever a page is
// saved. The orphan sweep optionally scans revisions too, so an image still
// referenced only by page history survives the sweep.
type PageRevision struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PageID    uint      `gorm:"index;not null" json:"page_id"`
	Revision  uint      `gorm:"not null" json:"revision"`
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`
	Content   string    `gorm:"type:longtext;not null" json:"content"`
	CreatedBy uint      `gorm:"index;default:0" json:"created_by"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// SaveRevision snapshots the page's current title and content as the next
// revision number.
func SaveRevision(db *gorm.DB, page *Page, createdBy uint) (*PageRevision, error) {
	var last uint
	row := db.Model(&PageRevision{}).Where("page_id = ?", page.ID).Select("COALESCE(MAX(revision), 0)").Row()
	if err := row.Scan(&last); err != nil {
		return nil, err
	}

	rev := &PageRevision{
		PageID:    page.ID,
		Revision:  last + 1,
		Title:     page.Title,
		Content:   page.Content,
		CreatedBy: createdBy,
	}
	if err := db.Create(rev).Error; err != nil {
		return nil, err
	}
	return rev, nil
}

// FindRevisionsByPageID returns a page's revisions, newest first.
func FindRevisionsByPageID(db *gorm.DB, pageID uint) ([]PageRevision, error) {
	var revisions []PageRevision
	err := db.Where("page_id = ?", pageID).Order("revision DESC").Find(&revisions).Error
	return revisions, err
}
