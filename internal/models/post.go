// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Post represents a dated blog entry. A post whose PubDate is in the future is
// scheduled and stays out of public feeds until that moment passes.
type Post struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:256;not null" json:"title"`
	Text        string    `gorm:"type:text;not null" json:"text"`
	PubDate     time.Time `gorm:"not null;index" json:"pub_date"`
	AuthorID    uint      `gorm:"not null;index" json:"author_id"`
	Author      User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author"`
	LocationID  *uint     `gorm:"index" json:"location_id"`
	Location    *Location `gorm:"foreignKey:LocationID;constraint:OnDelete:SET NULL" json:"location,omitempty"`
	CategoryID  *uint     `gorm:"index" json:"category_id"`
	Category    *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL" json:"category,omitempty"`
	Image       string    `gorm:"size:255" json:"image,omitempty"`
	ImageURL    string    `gorm:"-" json:"image_url,omitempty"`
	IsPublished bool      `gorm:"not null;default:true" json:"is_published"`
	// CommentCount is not persisted; computed at query time. A joined Post
	// query must select it or select posts.* explicitly.
	CommentCount int       `gorm:"->;-:migration" json:"comment_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// BeforeSave keeps publication timestamps in UTC so they compare correctly
// against the UTC clock used by the visibility filter.
func (p *Post) BeforeSave(_ *gorm.DB) error {
	p.PubDate = p.PubDate.UTC()
	return nil
}

// IsOwnedBy reports whether userID authored the post.
func (p *Post) IsOwnedBy(userID uint) bool {
	return userID != 0 && p.AuthorID == userID
}
