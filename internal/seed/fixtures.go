package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"blogicum/internal/models"
	"blogicum/internal/repository"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed fixtures.yaml
var fixturesYAML []byte

// CategoryFixture is a built-in category.
type CategoryFixture struct {
	Title       string `yaml:"title"`
	Slug        string `yaml:"slug"`
	Description string `yaml:"description"`
	Published   bool   `yaml:"published"`
}

// LocationFixture is a built-in location.
type LocationFixture struct {
	Name      string `yaml:"name"`
	Published bool   `yaml:"published"`
}

// FixtureSet is the parsed contents of fixtures.yaml.
type FixtureSet struct {
	Categories []CategoryFixture `yaml:"categories"`
	Locations  []LocationFixture `yaml:"locations"`
}

// LoadFixtures parses the embedded fixture file.
func LoadFixtures() (*FixtureSet, error) {
	var set FixtureSet
	if err := yaml.Unmarshal(fixturesYAML, &set); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	return &set, nil
}

// Fixtures creates the built-in categories and locations that do not exist
// yet. Existing rows are left untouched, so it is safe to run on every start.
func Fixtures(ctx context.Context, db *gorm.DB) error {
	set, err := LoadFixtures()
	if err != nil {
		return err
	}

	categories := repository.NewCategoryRepository(db)
	for _, item := range set.Categories {
		var existing models.Category
		err := db.WithContext(ctx).Where("slug = ?", item.Slug).First(&existing).Error
		switch {
		case err == nil:
			continue
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("look up category %s: %w", item.Slug, err)
		}
		if err := categories.Create(ctx, &models.Category{
			Title:       item.Title,
			Slug:        item.Slug,
			Description: item.Description,
			IsPublished: item.Published,
		}); err != nil {
			return fmt.Errorf("seed category %s: %w", item.Slug, err)
		}
	}

	locations := repository.NewLocationRepository(db)
	for _, item := range set.Locations {
		var count int64
		if err := db.WithContext(ctx).Model(&models.Location{}).Where("name = ?", item.Name).Count(&count).Error; err != nil {
			return fmt.Errorf("look up location %s: %w", item.Name, err)
		}
		if count > 0 {
			continue
		}
		if err := locations.Create(ctx, &models.Location{Name: item.Name, IsPublished: item.Published}); err != nil {
			return fmt.Errorf("seed location %s: %w", item.Name, err)
		}
	}
	return nil
}
