package repository

import (
	"context"
	"errors"
	"fmt"

	"blogicum/internal/models"

	"gorm.io/gorm"
)

// CategoryRepository defines persistence operations for categories.
type CategoryRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Category, error)
	GetPublishedBySlug(ctx context.Context, slug string) (*models.Category, error)
	ListPublished(ctx context.Context) ([]models.Category, error)
	Create(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id uint) error
}

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository returns a new CategoryRepository implementation.
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) GetByID(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Category", id)
		}
		return nil, fmt.Errorf("get category %d: %w", id, err)
	}
	return &category, nil
}

// GetPublishedBySlug treats an unpublished category as missing.
func (r *categoryRepository) GetPublishedBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).
		Where("slug = ? AND is_published = ?", slug, true).
		First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Category", slug)
		}
		return nil, fmt.Errorf("get category %q: %w", slug, err)
	}
	return &category, nil
}

func (r *categoryRepository) ListPublished(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.WithContext(ctx).
		Where("is_published = ?", true).
		Order("title ASC").
		Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (r *categoryRepository) Create(ctx context.Context, category *models.Category) error {
	return createPublishable(ctx, r.db, category, category.IsPublished)
}

// Delete detaches the category's posts before removing it.
func (r *categoryRepository) Delete(ctx context.Context, id uint) error {
	return detachAndDelete(ctx, r.db, "Category", "category_id", &models.Category{}, id)
}

// LocationRepository defines persistence operations for locations.
type LocationRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Location, error)
	ListPublished(ctx context.Context) ([]models.Location, error)
	Create(ctx context.Context, location *models.Location) error
	Delete(ctx context.Context, id uint) error
}

type locationRepository struct {
	db *gorm.DB
}

// NewLocationRepository returns a new LocationRepository implementation.
func NewLocationRepository(db *gorm.DB) LocationRepository {
	return &locationRepository{db: db}
}

func (r *locationRepository) GetByID(ctx context.Context, id uint) (*models.Location, error) {
	var location models.Location
	if err := r.db.WithContext(ctx).First(&location, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Location", id)
		}
		return nil, fmt.Errorf("get location %d: %w", id, err)
	}
	return &location, nil
}

func (r *locationRepository) ListPublished(ctx context.Context) ([]models.Location, error) {
	var locations []models.Location
	err := r.db.WithContext(ctx).
		Where("is_published = ?", true).
		Order("name ASC").
		Find(&locations).Error
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	return locations, nil
}

func (r *locationRepository) Create(ctx context.Context, location *models.Location) error {
	return createPublishable(ctx, r.db, location, location.IsPublished)
}

func (r *locationRepository) Delete(ctx context.Context, id uint) error {
	return detachAndDelete(ctx, r.db, "Location", "location_id", &models.Location{}, id)
}

// createPublishable inserts a row whose is_published column defaults to true.
// gorm replaces a zero bool with that default, so false is written afterwards.
func createPublishable(ctx context.Context, db *gorm.DB, value any, published bool) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(value).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return models.NewConflictError("slug already in use")
			}
			return fmt.Errorf("create %T: %w", value, err)
		}
		if !published {
			if err := tx.Model(value).UpdateColumn("is_published", false).Error; err != nil {
				return fmt.Errorf("create %T: %w", value, err)
			}
		}
		return nil
	})
}

func detachAndDelete(ctx context.Context, db *gorm.DB, resource, column string, model any, id uint) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Post{}).
			Where(column+" = ?", id).
			UpdateColumn(column, gorm.Expr("NULL")).Error
		if err != nil {
			return fmt.Errorf("detach posts from %s %d: %w", resource, id, err)
		}
		result := tx.Delete(model, id)
		if result.Error != nil {
			return fmt.Errorf("delete %s %d: %w", resource, id, result.Error)
		}
		if result.RowsAffected == 0 {
			return models.NewNotFoundError(resource, id)
		}
		return nil
	})
}
