package repository

import (
	"testing"
	"time"

	"blogicum/internal/database"
	"blogicum/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// newTestDB opens a private in-memory sqlite database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(sqlite.Open(":memory:"))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	require.NoError(t, err)
	return gormDB, mock
}

type fixture struct {
	db *gorm.DB
	t  *testing.T
}

func (f fixture) user(username string) *models.User {
	f.t.Helper()
	u := &models.User{Username: username, Password: "hash"}
	require.NoError(f.t, f.db.Create(u).Error)
	return u
}

func (f fixture) category(slug string, published bool) *models.Category {
	f.t.Helper()
	c := &models.Category{Title: slug, Description: slug, Slug: slug, IsPublished: published}
	require.NoError(f.t, NewCategoryRepository(f.db).Create(f.t.Context(), c))
	return c
}

func (f fixture) location(name string) *models.Location {
	f.t.Helper()
	l := &models.Location{Name: name, IsPublished: true}
	require.NoError(f.t, NewLocationRepository(f.db).Create(f.t.Context(), l))
	return l
}

type postOpt func(*models.Post)

func hidden(p *models.Post) { p.IsPublished = false }

func publishedAt(ts time.Time) postOpt {
	return func(p *models.Post) { p.PubDate = ts }
}

func inCategory(c *models.Category) postOpt {
	return func(p *models.Post) {
		if c == nil {
			p.CategoryID = nil
			return
		}
		p.CategoryID = &c.ID
	}
}

func atLocation(l *models.Location) postOpt {
	return func(p *models.Post) { p.LocationID = &l.ID }
}

// post creates a visible post in cat an hour before testNow unless opts say otherwise.
func (f fixture) post(author *models.User, cat *models.Category, title string, opts ...postOpt) *models.Post {
	f.t.Helper()
	p := &models.Post{
		Title:       title,
		Text:        title + " text",
		PubDate:     testNow.Add(-time.Hour),
		AuthorID:    author.ID,
		IsPublished: true,
	}
	inCategory(cat)(p)
	for _, opt := range opts {
		opt(p)
	}
	require.NoError(f.t, NewPostRepository(f.db).Create(f.t.Context(), p))
	return p
}

func (f fixture) comment(author *models.User, post *models.Post, text string) *models.Comment {
	f.t.Helper()
	c := &models.Comment{Text: text, PostID: post.ID, AuthorID: author.ID}
	require.NoError(f.t, NewCommentRepository(f.db).Create(f.t.Context(), c))
	return c
}
