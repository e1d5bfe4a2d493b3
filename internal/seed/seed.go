// Package seed loads the built-in categories and locations and fills a
// development database with fake users, posts and comments.
package seed

import (
	"context"
	"errors"
	"fmt"

	"blogicum/internal/middleware"
	"blogicum/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configure the seeder.
type Options struct {
	NumUsers           int
	NumPosts           int
	MaxCommentsPerPost int
	ShouldClean        bool
	// MaxDays bounds how far in the past publication dates are spread.
	MaxDays int
	// DraftPercent and ScheduledPercent are the shares of unpublished and
	// future-dated posts.
	DraftPercent     int
	ScheduledPercent int
	RandomSeed       int64
	BcryptCost       int
}

func (o Options) withDefaults() Options {
	if o.MaxDays <= 0 {
		o.MaxDays = 90
	}
	if o.DraftPercent < 0 {
		o.DraftPercent = 0
	}
	if o.ScheduledPercent < 0 {
		o.ScheduledPercent = 0
	}
	if o.BcryptCost == 0 {
		o.BcryptCost = bcrypt.DefaultCost
	}
	return o
}

// Summary counts what Seed created.
type Summary struct {
	Users    int
	Posts    int
	Comments int
}

// baseUsers always exist after seeding so there is a known login.
var baseUsers = []string{"author", "reader"}

// Seed populates the database with fixtures and fake content.
func Seed(ctx context.Context, db *gorm.DB, opts Options) (*Summary, error) {
	opts = opts.withDefaults()
	log := middleware.Logger
	log.InfoContext(ctx, "seeding database", "users", opts.NumUsers, "posts", opts.NumPosts)

	if opts.ShouldClean {
		if err := clearData(ctx, db); err != nil {
			return nil, fmt.Errorf("clear data: %w", err)
		}
	}
	if err := Fixtures(ctx, db); err != nil {
		return nil, err
	}

	var categories []models.Category
	if err := db.WithContext(ctx).Order("id").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	var locations []models.Location
	if err := db.WithContext(ctx).Order("id").Find(&locations).Error; err != nil {
		return nil, fmt.Errorf("load locations: %w", err)
	}

	f := NewFactory(db, opts)
	summary := &Summary{}

	users, err := createUsers(ctx, db, f, opts.NumUsers)
	if err != nil {
		return nil, err
	}
	summary.Users = len(users)
	log.InfoContext(ctx, "users ready", "count", len(users))
	if len(users) == 0 {
		return summary, nil
	}

	for i := 0; i < opts.NumPosts; i++ {
		author := &users[f.faker.Number(0, len(users)-1)]
		post := f.BuildPost(author, categories, locations)
		if err := f.CreatePost(ctx, post); err != nil {
			return nil, fmt.Errorf("create post: %w", err)
		}
		summary.Posts++

		for j := f.faker.Number(0, opts.MaxCommentsPerPost); j > 0; j-- {
			commenter := &users[f.faker.Number(0, len(users)-1)]
			if _, err := f.CreateComment(ctx, commenter, post); err != nil {
				return nil, fmt.Errorf("create comment: %w", err)
			}
			summary.Comments++
		}
	}

	log.InfoContext(ctx, "seeding complete",
		"users", summary.Users, "posts", summary.Posts, "comments", summary.Comments)
	return summary, nil
}

// createUsers returns count users, reusing the base accounts when they
// already exist.
func createUsers(ctx context.Context, db *gorm.DB, f *Factory, count int) ([]models.User, error) {
	users := make([]models.User, 0, count)
	for _, name := range baseUsers {
		if len(users) >= count {
			break
		}
		var existing models.User
		err := db.WithContext(ctx).Where("username = ?", name).First(&existing).Error
		switch {
		case err == nil:
			users = append(users, existing)
			continue
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, fmt.Errorf("look up user %s: %w", name, err)
		}
		user, err := f.CreateUser(ctx, func(u *models.User) {
			u.Username = name
			u.Email = name + "@example.com"
		})
		if err != nil {
			return nil, fmt.Errorf("create user %s: %w", name, err)
		}
		users = append(users, *user)
	}

	for len(users) < count {
		user, err := f.CreateUser(ctx)
		if err != nil {
			if models.ErrorCode(err) == models.CodeConflict {
				continue
			}
			return nil, fmt.Errorf("create user: %w", err)
		}
		users = append(users, *user)
	}
	return users, nil
}

// clearData removes users, posts and comments. Categories and locations
// stay because Fixtures recreates only missing ones.
func clearData(ctx context.Context, db *gorm.DB) error {
	middleware.Logger.InfoContext(ctx, "clearing existing data")
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		for _, model := range []any{&models.Comment{}, &models.Post{}, &models.User{}} {
			if err := all.Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
