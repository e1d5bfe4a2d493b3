package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"blogicum/internal/models"
	"blogicum/internal/pagination"
	"blogicum/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	listFn         func(context.Context, repository.FeedQuery, pagination.Window) ([]models.Post, error)
	countFn        func(context.Context, repository.FeedQuery) (int64, error)
	getVisibleFn   func(context.Context, uint, time.Time) (*models.Post, error)
	getForAuthorFn func(context.Context, uint, uint) (*models.Post, error)
	getByIDFn      func(context.Context, uint) (*models.Post, error)
	createFn       func(context.Context, *models.Post) error
	updateFn       func(context.Context, *models.Post) error
	deleteFn       func(context.Context, uint) error
}

func (s *postRepoStub) List(ctx context.Context, q repository.FeedQuery, w pagination.Window) ([]models.Post, error) {
	return s.listFn(ctx, q, w)
}
func (s *postRepoStub) Count(ctx context.Context, q repository.FeedQuery) (int64, error) {
	return s.countFn(ctx, q)
}
func (s *postRepoStub) GetVisible(ctx context.Context, id uint, now time.Time) (*models.Post, error) {
	return s.getVisibleFn(ctx, id, now)
}
func (s *postRepoStub) GetForAuthor(ctx context.Context, id, authorID uint) (*models.Post, error) {
	return s.getForAuthorFn(ctx, id, authorID)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopPostRepo() *postRepoStub {
	notFound := func(id uint) (*models.Post, error) { return nil, models.NewNotFoundError("Post", id) }
	return &postRepoStub{
		listFn:         func(context.Context, repository.FeedQuery, pagination.Window) ([]models.Post, error) { return nil, nil },
		countFn:        func(context.Context, repository.FeedQuery) (int64, error) { return 0, nil },
		getVisibleFn:   func(_ context.Context, id uint, _ time.Time) (*models.Post, error) { return notFound(id) },
		getForAuthorFn: func(_ context.Context, id, _ uint) (*models.Post, error) { return notFound(id) },
		getByIDFn:      func(_ context.Context, id uint) (*models.Post, error) { return notFound(id) },
		createFn:       func(context.Context, *models.Post) error { return nil },
		updateFn:       func(context.Context, *models.Post) error { return nil },
		deleteFn:       func(context.Context, uint) error { return nil },
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn     func(context.Context, *models.Comment) error
	getByIDFn    func(context.Context, uint) (*models.Comment, error)
	getOnPostFn  func(context.Context, uint, uint) (*models.Comment, error)
	listByPostFn func(context.Context, uint) ([]models.Comment, error)
	updateFn     func(context.Context, *models.Comment) error
	deleteFn     func(context.Context, uint) error
}

func (s *commentRepoStub) Create(ctx context.Context, c *models.Comment) error {
	return s.createFn(ctx, c)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) GetOnPost(ctx context.Context, id, postID uint) (*models.Comment, error) {
	return s.getOnPostFn(ctx, id, postID)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint) ([]models.Comment, error) {
	return s.listByPostFn(ctx, postID)
}
func (s *commentRepoStub) Update(ctx context.Context, c *models.Comment) error {
	return s.updateFn(ctx, c)
}
func (s *commentRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:     func(context.Context, *models.Comment) error { return nil },
		getByIDFn:    func(_ context.Context, id uint) (*models.Comment, error) { return nil, models.NewNotFoundError("Comment", id) },
		getOnPostFn:  func(_ context.Context, id, _ uint) (*models.Comment, error) { return nil, models.NewNotFoundError("Comment", id) },
		listByPostFn: func(context.Context, uint) ([]models.Comment, error) { return []models.Comment{}, nil },
		updateFn:     func(context.Context, *models.Comment) error { return nil },
		deleteFn:     func(context.Context, uint) error { return nil },
	}
}

// categoryRepoStub serves a fixed set of categories.
type categoryRepoStub struct {
	categories []models.Category
}

func (s *categoryRepoStub) GetByID(_ context.Context, id uint) (*models.Category, error) {
	for i := range s.categories {
		if s.categories[i].ID == id {
			return &s.categories[i], nil
		}
	}
	return nil, models.NewNotFoundError("Category", id)
}
func (s *categoryRepoStub) GetPublishedBySlug(_ context.Context, slug string) (*models.Category, error) {
	for i := range s.categories {
		if s.categories[i].Slug == slug && s.categories[i].IsPublished {
			return &s.categories[i], nil
		}
	}
	return nil, models.NewNotFoundError("Category", slug)
}
func (s *categoryRepoStub) ListPublished(context.Context) ([]models.Category, error) {
	return s.categories, nil
}
func (s *categoryRepoStub) Create(context.Context, *models.Category) error { return nil }
func (s *categoryRepoStub) Delete(context.Context, uint) error             { return nil }

// locationRepoStub serves a fixed set of locations.
type locationRepoStub struct {
	locations []models.Location
}

func (s *locationRepoStub) GetByID(_ context.Context, id uint) (*models.Location, error) {
	for i := range s.locations {
		if s.locations[i].ID == id {
			return &s.locations[i], nil
		}
	}
	return nil, models.NewNotFoundError("Location", id)
}
func (s *locationRepoStub) ListPublished(context.Context) ([]models.Location, error) {
	return s.locations, nil
}
func (s *locationRepoStub) Create(context.Context, *models.Location) error { return nil }
func (s *locationRepoStub) Delete(context.Context, uint) error             { return nil }

// userRepoStub keeps users in a map keyed by id.
type userRepoStub struct {
	users     map[uint]*models.User
	nextID    uint
	updateErr error
}

func newUserRepoStub(users ...*models.User) *userRepoStub {
	s := &userRepoStub{users: make(map[uint]*models.User), nextID: 100}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *userRepoStub) GetByID(_ context.Context, id uint) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, models.NewNotFoundError("User", id)
}
func (s *userRepoStub) GetByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, models.NewNotFoundError("User", username)
}
func (s *userRepoStub) Create(_ context.Context, user *models.User) error {
	s.nextID++
	user.ID = s.nextID
	cp := *user
	s.users[user.ID] = &cp
	return nil
}
func (s *userRepoStub) Update(_ context.Context, user *models.User) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}
func (s *userRepoStub) Delete(_ context.Context, id uint) error {
	delete(s.users, id)
	return nil
}

func assertCode(t *testing.T, err error, code string) *models.AppError {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
	return appErr
}

// assertNotFoundError asserts that err is an AppError with code NOT_FOUND.
func assertNotFoundError(t *testing.T, err error) {
	t.Helper()
	assertCode(t, err, models.CodeNotFound)
}

// assertRedirect asserts a REDIRECT AppError pointing at target.
func assertRedirect(t *testing.T, err error, target string) {
	t.Helper()
	assert.Equal(t, target, assertCode(t, err, models.CodeRedirect).Target)
}

// assertLoginRequired asserts a LOGIN_REQUIRED AppError returning to next.
func assertLoginRequired(t *testing.T, err error, next string) {
	t.Helper()
	assert.Equal(t, next, assertCode(t, err, models.CodeLoginRequired).Target)
}

func assertFieldError(t *testing.T, err error, field string) string {
	t.Helper()
	appErr := assertCode(t, err, models.CodeValidation)
	require.Contains(t, appErr.Fields, field)
	return appErr.Fields[field]
}
