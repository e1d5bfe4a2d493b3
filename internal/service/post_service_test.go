package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"blogicum/internal/authz"
	"blogicum/internal/media"
	"blogicum/internal/models"
	"blogicum/internal/observability"
	"blogicum/internal/pagination"
	"blogicum/internal/repository"
	"blogicum/internal/routes"
	"blogicum/internal/validation"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

var (
	alice = authz.Viewer{ID: 1, Username: "alice"}
	bob   = authz.Viewer{ID: 2, Username: "bob"}
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)

func newTestPostService(posts *postRepoStub, comments *commentRepoStub) (*PostService, *media.LocalStore) {
	store := media.NewLocalStore(afero.NewMemMapFs(), "media", "/media/")
	categories := &categoryRepoStub{categories: []models.Category{
		{ID: 1, Slug: "travel", Title: "Travel", IsPublished: true},
		{ID: 2, Slug: "secret", Title: "Secret", IsPublished: false},
	}}
	locations := &locationRepoStub{locations: []models.Location{{ID: 1, Name: "Alps", IsPublished: true}}}
	users := newUserRepoStub(
		&models.User{ID: 1, Username: "alice"},
		&models.User{ID: 2, Username: "bob"},
	)
	svc := NewPostService(posts, comments, categories, locations, users, store, PostServiceOptions{
		PerPage:       10,
		MaxImageBytes: 1 << 20,
	})
	svc.now = func() time.Time { return testNow }
	return svc, store
}

func validPostForm() validation.PostForm {
	return validation.PostForm{Title: "Alps", Text: "Snow", PubDate: "2024-05-01T10:30", CategoryID: 1}
}

func TestPostService_HomeFeedPaginates(t *testing.T) {
	t.Parallel()

	var gotQuery repository.FeedQuery
	var gotWindow pagination.Window
	posts := noopPostRepo()
	posts.countFn = func(_ context.Context, q repository.FeedQuery) (int64, error) {
		gotQuery = q
		return 25, nil
	}
	posts.listFn = func(_ context.Context, _ repository.FeedQuery, w pagination.Window) ([]models.Post, error) {
		gotWindow = w
		return make([]models.Post, 5), nil
	}
	svc, _ := newTestPostService(posts, noopCommentRepo())

	tests := []struct {
		raw        string
		wantNumber int
		wantOffset int
	}{
		{"", 1, 0},
		{"2", 2, 10},
		{"3", 3, 20},
		{"99", 3, 20},
		{"-4", 1, 0},
		{"abc", 1, 0},
	}
	for _, tt := range tests {
		page, err := svc.HomeFeed(context.Background(), tt.raw)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.wantNumber, page.Number, tt.raw)
		assert.Equal(t, pagination.Window{Offset: tt.wantOffset, Limit: 10}, gotWindow, tt.raw)
		assert.Equal(t, 3, page.NumPages)
		assert.EqualValues(t, 25, page.Total)
	}

	assert.Equal(t, repository.FeedQuery{Now: testNow}, gotQuery)
}

func TestPostService_HomeFeedEmptyHasOnePage(t *testing.T) {
	t.Parallel()

	svc, _ := newTestPostService(noopPostRepo(), noopCommentRepo())
	page, err := svc.HomeFeed(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, 1, page.Number)
	assert.Equal(t, 1, page.NumPages)
	assert.NotNil(t, page.Items)
	assert.False(t, page.HasNext)
	assert.False(t, page.HasPrevious)
}

func TestPostService_CategoryFeed(t *testing.T) {
	t.Parallel()

	var gotQuery repository.FeedQuery
	posts := noopPostRepo()
	posts.countFn = func(_ context.Context, q repository.FeedQuery) (int64, error) {
		gotQuery = q
		return 0, nil
	}
	svc, _ := newTestPostService(posts, noopCommentRepo())
	ctx := context.Background()

	feed, err := svc.CategoryFeed(ctx, "travel", "")
	require.NoError(t, err)
	assert.Equal(t, "Travel", feed.Category.Title)
	assert.Equal(t, uint(1), gotQuery.CategoryID)
	assert.False(t, gotQuery.IncludeHidden)

	_, err = svc.CategoryFeed(ctx, "secret", "")
	assertNotFoundError(t, err)
	_, err = svc.CategoryFeed(ctx, "missing", "")
	assertNotFoundError(t, err)
}

// Swaps the package tracer, so it must not run in parallel.
func TestPostService_FeedLookupFailureMarksSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	previous := observability.Tracer
	observability.Tracer = sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)).Tracer("test")
	t.Cleanup(func() { observability.Tracer = previous })

	svc, _ := newTestPostService(noopPostRepo(), noopCommentRepo())
	ctx := context.Background()

	_, err := svc.CategoryFeed(ctx, "missing", "")
	assertNotFoundError(t, err)
	_, err = svc.ProfileFeed(ctx, alice, "nobody", "")
	assertNotFoundError(t, err)

	status := map[string]codes.Code{}
	for _, span := range recorder.Ended() {
		status[span.Name()] = span.Status().Code
	}
	assert.Equal(t, codes.Error, status["PostService.CategoryFeed"])
	assert.Equal(t, codes.Error, status["PostService.ProfileFeed"])
}

func TestPostService_ProfileFeedOwnerSeesHidden(t *testing.T) {
	t.Parallel()

	var gotQuery repository.FeedQuery
	posts := noopPostRepo()
	posts.countFn = func(_ context.Context, q repository.FeedQuery) (int64, error) {
		gotQuery = q
		return 0, nil
	}
	svc, _ := newTestPostService(posts, noopCommentRepo())
	ctx := context.Background()

	tests := []struct {
		name   string
		viewer authz.Viewer
		hidden bool
	}{
		{"owner", alice, true},
		{"other user", bob, false},
		{"anonymous", authz.Anonymous, false},
	}
	for _, tt := range tests {
		feed, err := svc.ProfileFeed(ctx, tt.viewer, "alice", "1")
		require.NoError(t, err, tt.name)
		assert.Equal(t, "alice", feed.Profile.Username, tt.name)
		assert.Equal(t, uint(1), gotQuery.AuthorID, tt.name)
		assert.Equal(t, tt.hidden, gotQuery.IncludeHidden, tt.name)
	}

	_, err := svc.ProfileFeed(ctx, alice, "nobody", "")
	assertNotFoundError(t, err)
}

func TestPostService_GetPostDetail(t *testing.T) {
	t.Parallel()

	draft := &models.Post{ID: 7, AuthorID: 1, Title: "draft"}
	public := &models.Post{ID: 8, AuthorID: 1, Title: "public"}

	var ownerLookups int
	posts := noopPostRepo()
	posts.getVisibleFn = func(_ context.Context, id uint, now time.Time) (*models.Post, error) {
		assert.Equal(t, testNow, now)
		if id == public.ID {
			return public, nil
		}
		return nil, models.NewNotFoundError("Post", id)
	}
	posts.getForAuthorFn = func(_ context.Context, id, authorID uint) (*models.Post, error) {
		ownerLookups++
		if id == draft.ID && authorID == draft.AuthorID {
			return draft, nil
		}
		return nil, models.NewNotFoundError("Post", id)
	}
	comments := noopCommentRepo()
	comments.listByPostFn = func(_ context.Context, postID uint) ([]models.Comment, error) {
		return []models.Comment{{ID: 1, PostID: postID, Text: "hi"}}, nil
	}
	svc, _ := newTestPostService(posts, comments)
	ctx := context.Background()

	detail, err := svc.GetPostDetail(ctx, authz.Anonymous, public.ID)
	require.NoError(t, err)
	assert.Equal(t, "public", detail.Post.Title)
	assert.Len(t, detail.Comments, 1)
	assert.False(t, detail.CanEdit)
	assert.Zero(t, ownerLookups, "visible post needs no owner fallback")

	detail, err = svc.GetPostDetail(ctx, alice, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, "draft", detail.Post.Title)
	assert.True(t, detail.CanEdit)

	_, err = svc.GetPostDetail(ctx, bob, draft.ID)
	assertNotFoundError(t, err)

	lookups := ownerLookups
	_, err = svc.GetPostDetail(ctx, authz.Anonymous, draft.ID)
	assertNotFoundError(t, err)
	assert.Equal(t, lookups, ownerLookups, "anonymous viewers get no owner fallback")
}

func TestPostService_CreatePost(t *testing.T) {
	t.Parallel()

	var created *models.Post
	posts := noopPostRepo()
	posts.createFn = func(_ context.Context, p *models.Post) error {
		p.ID = 42
		created = p
		return nil
	}
	svc, store := newTestPostService(posts, noopCommentRepo())
	ctx := context.Background()

	_, err := svc.CreatePost(ctx, PostInput{Viewer: authz.Anonymous, Form: validPostForm()})
	assertLoginRequired(t, err, routes.CreatePost)

	_, err = svc.CreatePost(ctx, PostInput{Viewer: alice, Form: validation.PostForm{Title: "x"}})
	assertFieldError(t, err, "text")

	badCategory := validPostForm()
	badCategory.CategoryID = 99
	_, err = svc.CreatePost(ctx, PostInput{Viewer: alice, Form: badCategory})
	assert.Contains(t, assertFieldError(t, err, "category"), "valid choice")

	badLocation := validPostForm()
	badLocation.LocationID = 99
	_, err = svc.CreatePost(ctx, PostInput{Viewer: alice, Form: badLocation})
	assertFieldError(t, err, "location")

	_, err = svc.CreatePost(ctx, PostInput{Viewer: alice, Form: validPostForm(), Image: []byte("not an image")})
	assertFieldError(t, err, "image")
	assert.Nil(t, created)

	form := validPostForm()
	form.LocationID = 1
	post, err := svc.CreatePost(ctx, PostInput{Viewer: alice, Form: form, Image: pngBytes})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, uint(42), post.ID)
	assert.Equal(t, alice.ID, created.AuthorID)
	assert.True(t, created.IsPublished)
	require.NotNil(t, created.CategoryID)
	assert.Equal(t, uint(1), *created.CategoryID)
	require.NotNil(t, created.LocationID)
	assert.Equal(t, uint(1), *created.LocationID)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC), created.PubDate)
	assert.True(t, strings.HasPrefix(created.Image, media.ImageDir+"/"))
	assert.Equal(t, "/media/"+created.Image, post.ImageURL)

	rc, contentType, err := store.Open(ctx, created.Image)
	require.NoError(t, err)
	_ = rc.Close()
	assert.Equal(t, "image/png", contentType)
}

func TestPostService_UpdatePostGate(t *testing.T) {
	t.Parallel()

	updates := 0
	posts := noopPostRepo()
	posts.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
		if id != 5 {
			return nil, models.NewNotFoundError("Post", id)
		}
		cat := uint(1)
		return &models.Post{ID: 5, AuthorID: alice.ID, Title: "old", CategoryID: &cat, IsPublished: true}, nil
	}
	posts.updateFn = func(_ context.Context, p *models.Post) error {
		updates++
		assert.Equal(t, "Alps", p.Title)
		assert.Equal(t, alice.ID, p.AuthorID)
		return nil
	}
	svc, _ := newTestPostService(posts, noopCommentRepo())
	ctx := context.Background()

	_, err := svc.UpdatePost(ctx, PostInput{Viewer: bob, PostID: 5, Form: validPostForm()})
	assertRedirect(t, err, routes.PostDetail(5))

	_, err = svc.UpdatePost(ctx, PostInput{Viewer: authz.Anonymous, PostID: 5, Form: validPostForm()})
	assertLoginRequired(t, err, routes.EditPost(5))

	_, err = svc.UpdatePost(ctx, PostInput{Viewer: alice, PostID: 6, Form: validPostForm()})
	assertNotFoundError(t, err)
	assert.Zero(t, updates)

	_, err = svc.GetPostForEdit(ctx, bob, 5)
	assertRedirect(t, err, routes.PostDetail(5))

	post, err := svc.UpdatePost(ctx, PostInput{Viewer: alice, PostID: 5, Form: validPostForm()})
	require.NoError(t, err)
	assert.Equal(t, "Alps", post.Title)
	assert.Equal(t, 1, updates)
}

func TestPostService_UpdatePostReplacesImage(t *testing.T) {
	t.Parallel()

	posts := noopPostRepo()
	svc, store := newTestPostService(posts, noopCommentRepo())
	ctx := context.Background()

	oldKey, err := media.UploadImage(ctx, store, pngBytes, 0)
	require.NoError(t, err)
	posts.getByIDFn = func(context.Context, uint) (*models.Post, error) {
		return &models.Post{ID: 5, AuthorID: alice.ID, Image: oldKey}, nil
	}

	post, err := svc.UpdatePost(ctx, PostInput{Viewer: alice, PostID: 5, Form: validPostForm(), Image: pngBytes})
	require.NoError(t, err)
	assert.NotEqual(t, oldKey, post.Image)

	_, _, err = store.Open(ctx, oldKey)
	assert.ErrorIs(t, err, media.ErrNotFound)
	rc, _, err := store.Open(ctx, post.Image)
	require.NoError(t, err)
	_ = rc.Close()
}

func TestPostService_FailedWriteDiscardsUpload(t *testing.T) {
	t.Parallel()

	var written []string
	posts := noopPostRepo()
	posts.createFn = func(_ context.Context, p *models.Post) error {
		written = append(written, p.Image)
		return models.NewInternalError(assert.AnError)
	}
	posts.updateFn = posts.createFn
	svc, store := newTestPostService(posts, noopCommentRepo())
	ctx := context.Background()

	oldKey, err := media.UploadImage(ctx, store, pngBytes, 0)
	require.NoError(t, err)
	posts.getByIDFn = func(context.Context, uint) (*models.Post, error) {
		return &models.Post{ID: 5, AuthorID: alice.ID, Image: oldKey}, nil
	}

	_, err = svc.CreatePost(ctx, PostInput{Viewer: alice, Form: validPostForm(), Image: pngBytes})
	require.Error(t, err)
	_, err = svc.UpdatePost(ctx, PostInput{Viewer: alice, PostID: 5, Form: validPostForm(), Image: pngBytes})
	require.Error(t, err)

	require.Len(t, written, 2)
	for _, key := range written {
		require.NotEqual(t, oldKey, key)
		_, _, err := store.Open(ctx, key)
		assert.ErrorIs(t, err, media.ErrNotFound)
	}
	rc, _, err := store.Open(ctx, oldKey)
	require.NoError(t, err, "the stored image survives a failed update")
	_ = rc.Close()
}

func TestPostService_DeletePost(t *testing.T) {
	t.Parallel()

	var deleted []uint
	posts := noopPostRepo()
	svc, store := newTestPostService(posts, noopCommentRepo())
	ctx := context.Background()

	key, err := media.UploadImage(ctx, store, pngBytes, 0)
	require.NoError(t, err)
	posts.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
		return &models.Post{ID: id, AuthorID: alice.ID, Image: key}, nil
	}
	posts.deleteFn = func(_ context.Context, id uint) error {
		deleted = append(deleted, id)
		return nil
	}

	err = svc.DeletePost(ctx, bob, 5)
	assertRedirect(t, err, routes.PostDetail(5))
	assert.Empty(t, deleted)

	err = svc.DeletePost(ctx, authz.Anonymous, 5)
	assertLoginRequired(t, err, routes.DeletePost(5))

	require.NoError(t, svc.DeletePost(ctx, alice, 5))
	assert.Equal(t, []uint{5}, deleted)
	_, _, err = store.Open(ctx, key)
	assert.ErrorIs(t, err, media.ErrNotFound)
}

func TestPostService_FormChoices(t *testing.T) {
	t.Parallel()

	svc, _ := newTestPostService(noopPostRepo(), noopCommentRepo())
	choices, err := svc.FormChoices(context.Background())
	require.NoError(t, err)
	assert.Len(t, choices.Categories, 2)
	assert.Len(t, choices.Locations, 1)
}
