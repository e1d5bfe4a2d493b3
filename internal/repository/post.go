// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"blogicum/internal/models"
	"blogicum/internal/observability"
	"blogicum/internal/pagination"
	"blogicum/internal/visibility"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FeedQuery selects the posts of one feed.
type FeedQuery struct {
	// Now is the instant visibility is evaluated at.
	Now time.Time
	// CategoryID restricts the feed to one category when non-zero.
	CategoryID uint
	// AuthorID restricts the feed to one author when non-zero.
	AuthorID uint
	// IncludeHidden skips the visibility filter. Used for an author's own profile.
	IncludeHidden bool
}

func (q FeedQuery) scope(db *gorm.DB) *gorm.DB {
	if !q.IncludeHidden {
		db = db.Scopes(visibility.Scope(q.Now))
	}
	if q.CategoryID != 0 {
		db = db.Where("posts.category_id = ?", q.CategoryID)
	}
	if q.AuthorID != 0 {
		db = db.Where("posts.author_id = ?", q.AuthorID)
	}
	return db
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	List(ctx context.Context, q FeedQuery, w pagination.Window) ([]models.Post, error)
	Count(ctx context.Context, q FeedQuery) (int64, error)
	GetVisible(ctx context.Context, id uint, now time.Time) (*models.Post, error)
	GetForAuthor(ctx context.Context, id, authorID uint) (*models.Post, error)
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	Create(ctx context.Context, post *models.Post) error
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = "posts.*, " +
	"(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comment_count"

// withDetails selects the comment count and eager-loads the post's relations.
func withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Select(postColumns).
		Preload("Author").
		Preload("Category").
		Preload("Location")
}

func (r *postRepository) List(ctx context.Context, q FeedQuery, w pagination.Window) ([]models.Post, error) {
	ctx, span := observability.StartRepositorySpan(ctx, "PostRepository.List", "posts")
	defer span.End()

	posts := make([]models.Post, 0, w.Limit)
	err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Scopes(withDetails, q.scope, visibility.Newest).
		Offset(w.Offset).
		Limit(w.Limit).
		Find(&posts).Error
	if err != nil {
		observability.EndSpan(span, err)
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

func (r *postRepository) Count(ctx context.Context, q FeedQuery) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Scopes(q.scope).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return total, nil
}

func (r *postRepository) GetVisible(ctx context.Context, id uint, now time.Time) (*models.Post, error) {
	return r.first(ctx, id, r.db.WithContext(ctx).Scopes(visibility.Scope(now)))
}

func (r *postRepository) GetForAuthor(ctx context.Context, id, authorID uint) (*models.Post, error) {
	return r.first(ctx, id, r.db.WithContext(ctx).Where("posts.author_id = ?", authorID))
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return r.first(ctx, id, r.db.WithContext(ctx))
}

func (r *postRepository) first(ctx context.Context, id uint, db *gorm.DB) (*models.Post, error) {
	_, span := observability.StartRepositorySpan(ctx, "PostRepository.First", "posts")
	defer span.End()

	var post models.Post
	err := db.Model(&models.Post{}).
		Scopes(withDetails).
		Where("posts.id = ?", id).
		Take(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		observability.EndSpan(span, err)
		return nil, fmt.Errorf("get post %d: %w", id, err)
	}
	return &post, nil
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	published := post.IsPublished
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(post).Error; err != nil {
			return fmt.Errorf("create post: %w", err)
		}
		// gorm fills a zero is_published with its column default, so false
		// has to be written back explicitly.
		if !published {
			if err := tx.Model(post).UpdateColumn("is_published", false).Error; err != nil {
				return fmt.Errorf("create post: %w", err)
			}
			post.IsPublished = false
		}
		return nil
	})
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	result := r.db.WithContext(ctx).
		Model(post).
		Select("title", "text", "pub_date", "location_id", "category_id", "image", "is_published").
		Updates(post)
	if result.Error != nil {
		return fmt.Errorf("update post %d: %w", post.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Post", post.ID)
	}
	return nil
}

// Delete removes the post together with its comments.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("delete comments of post %d: %w", id, err)
		}
		result := tx.Delete(&models.Post{}, id)
		if result.Error != nil {
			return fmt.Errorf("delete post %d: %w", id, result.Error)
		}
		if result.RowsAffected == 0 {
			return models.NewNotFoundError("Post", id)
		}
		return nil
	})
}
