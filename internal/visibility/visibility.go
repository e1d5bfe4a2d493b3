// Package visibility implements the rule deciding which posts the public sees:
// the post is published, its category exists and is published, and its
// publication time has been reached.
package visibility

import (
	"sort"
	"time"

	"blogicum/internal/models"

	"gorm.io/gorm"
)

// IsVisible reports whether post is publicly visible at now.
// A post without a category is never visible.
func IsVisible(post *models.Post, now time.Time) bool {
	if post == nil || !post.IsPublished {
		return false
	}
	if post.Category == nil || !post.Category.IsPublished {
		return false
	}
	return !post.PubDate.After(now)
}

// Filter returns the visible subset of posts, newest first. Posts sharing a
// pub_date are ordered by id, highest first. The input slice is not modified.
func Filter(posts []models.Post, now time.Time) []models.Post {
	out := make([]models.Post, 0, len(posts))
	for i := range posts {
		if IsVisible(&posts[i], now) {
			out = append(out, posts[i])
		}
	}
	SortByPubDate(out)
	return out
}

// SortByPubDate orders posts by pub_date descending with id as tie-break.
func SortByPubDate(posts []models.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		if !posts[i].PubDate.Equal(posts[j].PubDate) {
			return posts[i].PubDate.After(posts[j].PubDate)
		}
		return posts[i].ID > posts[j].ID
	})
}

// Scope restricts a posts query to publicly visible rows at now.
func Scope(now time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.
			Joins("JOIN categories ON categories.id = posts.category_id").
			Where("posts.is_published = ?", true).
			Where("categories.is_published = ?", true).
			Where("posts.pub_date <= ?", now.UTC())
	}
}

// Newest orders posts the same way Filter does.
func Newest(db *gorm.DB) *gorm.DB {
	return db.Order("posts.pub_date DESC").Order("posts.id DESC")
}
