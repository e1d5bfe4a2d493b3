package seed

import (
	"context"
	"fmt"
	"time"

	"blogicum/internal/models"
	"blogicum/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "blogicum42"

// Factory builds domain entities with fake content and persists them through
// the repositories. It is used by Seed and by tests that need realistic data.
type Factory struct {
	faker    *gofakeit.Faker
	opts     Options
	now      func() time.Time
	users    repository.UserRepository
	posts    repository.PostRepository
	comments repository.CommentRepository
	hash     string
}

// NewFactory creates a Factory bound to db. A zero RandomSeed picks a
// time-based one.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	opts = opts.withDefaults()
	seed := opts.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{
		faker:    gofakeit.New(seed),
		opts:     opts,
		now:      func() time.Time { return time.Now().UTC() },
		users:    repository.NewUserRepository(db),
		posts:    repository.NewPostRepository(db),
		comments: repository.NewCommentRepository(db),
	}
}

// passwordHash hashes DefaultPassword once per factory.
func (f *Factory) passwordHash() (string, error) {
	if f.hash != "" {
		return f.hash, nil
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), f.opts.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash seed password: %w", err)
	}
	f.hash = string(hashed)
	return f.hash, nil
}

// BuildUser constructs an unsaved user with a unique-looking username.
func (f *Factory) BuildUser(overrides ...func(*models.User)) *models.User {
	first, last := f.faker.FirstName(), f.faker.LastName()
	user := &models.User{
		Username:  fmt.Sprintf("%s%d", f.faker.Username(), f.faker.Number(100, 99999)),
		FirstName: first,
		LastName:  last,
		Email:     f.faker.Email(),
	}
	for _, override := range overrides {
		override(user)
	}
	return user
}

// CreateUser builds and persists a user with DefaultPassword.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	hash, err := f.passwordHash()
	if err != nil {
		return nil, err
	}
	user := f.BuildUser(overrides...)
	user.Password = hash
	if err := f.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPost constructs an unsaved post by author. Most posts are published
// in the past; some are drafts and some are scheduled for the future so the
// seeded feeds exercise every visibility rule.
func (f *Factory) BuildPost(author *models.User, categories []models.Category, locations []models.Location, overrides ...func(*models.Post)) *models.Post {
	now := f.now()
	age := time.Duration(f.faker.Number(0, f.opts.MaxDays*24*60)) * time.Minute
	post := &models.Post{
		Title:       trimTitle(f.faker.Sentence(f.faker.Number(3, 8))),
		Text:        f.faker.Paragraph(f.faker.Number(1, 3), f.faker.Number(2, 6), 12, "\n\n"),
		PubDate:     now.Add(-age).Truncate(time.Minute),
		AuthorID:    author.ID,
		IsPublished: true,
	}

	switch roll := f.faker.Number(1, 100); {
	case roll <= f.opts.DraftPercent:
		post.IsPublished = false
	case roll <= f.opts.DraftPercent+f.opts.ScheduledPercent:
		post.PubDate = now.Add(time.Duration(f.faker.Number(1, 7*24)) * time.Hour).Truncate(time.Minute)
	}

	if len(categories) > 0 {
		c := categories[f.faker.Number(0, len(categories)-1)]
		post.CategoryID = &c.ID
	}
	if len(locations) > 0 && f.faker.Number(1, 100) <= 70 {
		l := locations[f.faker.Number(0, len(locations)-1)]
		post.LocationID = &l.ID
	}

	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePost persists a post built by BuildPost.
func (f *Factory) CreatePost(ctx context.Context, post *models.Post) error {
	return f.posts.Create(ctx, post)
}

// CreateComment constructs and persists a comment by author on post.
func (f *Factory) CreateComment(ctx context.Context, author *models.User, post *models.Post, overrides ...func(*models.Comment)) (*models.Comment, error) {
	comment := &models.Comment{
		Text:     f.faker.Sentence(f.faker.Number(4, 16)),
		AuthorID: author.ID,
		PostID:   post.ID,
	}
	for _, override := range overrides {
		override(comment)
	}
	if err := f.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// trimTitle keeps titles inside the 256 character column.
func trimTitle(s string) string {
	r := []rune(s)
	if len(r) > 256 {
		return string(r[:256])
	}
	return s
}
