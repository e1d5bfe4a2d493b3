// Package service holds the use cases behind the HTTP handlers: feeds, post
// and comment mutation, accounts.
package service

import (
	"context"
	"time"

	"blogicum/internal/authz"
	"blogicum/internal/media"
	"blogicum/internal/middleware"
	"blogicum/internal/models"
	"blogicum/internal/observability"
	"blogicum/internal/pagination"
	"blogicum/internal/repository"
	"blogicum/internal/routes"
	"blogicum/internal/validation"
)

const defaultPerPage = 10

type PostService struct {
	postRepo      repository.PostRepository
	commentRepo   repository.CommentRepository
	categoryRepo  repository.CategoryRepository
	locationRepo  repository.LocationRepository
	userRepo      repository.UserRepository
	store         media.Store
	perPage       int
	maxImageBytes int64
	now           func() time.Time
}

// PostServiceOptions tunes feeds and uploads.
type PostServiceOptions struct {
	PerPage       int
	MaxImageBytes int64
}

// PostInput carries a submitted post form. Image is the raw upload, nil when
// no file was sent.
type PostInput struct {
	Viewer authz.Viewer
	PostID uint
	Form   validation.PostForm
	Image  []byte
}

// PostDetail is the post detail page context.
type PostDetail struct {
	Post     *models.Post     `json:"post"`
	Comments []models.Comment `json:"comments"`
	CanEdit  bool             `json:"can_edit"`
}

// FormChoices lists what a post form can reference.
type FormChoices struct {
	Categories []models.Category `json:"categories"`
	Locations  []models.Location `json:"locations"`
}

// CategoryFeed is the category page context.
type CategoryFeed struct {
	Category *models.Category             `json:"category"`
	Page     pagination.Page[models.Post] `json:"page_obj"`
}

// ProfileFeed is the profile page context.
type ProfileFeed struct {
	Profile *models.User                 `json:"profile"`
	Page    pagination.Page[models.Post] `json:"page_obj"`
}

func NewPostService(
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
	categoryRepo repository.CategoryRepository,
	locationRepo repository.LocationRepository,
	userRepo repository.UserRepository,
	store media.Store,
	opts PostServiceOptions,
) *PostService {
	if opts.PerPage < 1 {
		opts.PerPage = defaultPerPage
	}
	return &PostService{
		postRepo:      postRepo,
		commentRepo:   commentRepo,
		categoryRepo:  categoryRepo,
		locationRepo:  locationRepo,
		userRepo:      userRepo,
		store:         store,
		perPage:       opts.PerPage,
		maxImageBytes: opts.MaxImageBytes,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// HomeFeed pages through every publicly visible post.
func (s *PostService) HomeFeed(ctx context.Context, rawPage string) (pagination.Page[models.Post], error) {
	ctx, span := observability.StartServiceSpan(ctx, "PostService", "HomeFeed")
	defer span.End()

	page, err := s.feed(ctx, repository.FeedQuery{Now: s.now()}, rawPage)
	observability.EndSpan(span, err)
	return page, err
}

// CategoryFeed pages through the visible posts of a published category.
func (s *PostService) CategoryFeed(ctx context.Context, slug, rawPage string) (*CategoryFeed, error) {
	ctx, span := observability.StartServiceSpan(ctx, "PostService", "CategoryFeed")
	defer span.End()

	category, err := s.categoryRepo.GetPublishedBySlug(ctx, slug)
	if err != nil {
		observability.EndSpan(span, err)
		return nil, err
	}
	page, err := s.feed(ctx, repository.FeedQuery{Now: s.now(), CategoryID: category.ID}, rawPage)
	if err != nil {
		observability.EndSpan(span, err)
		return nil, err
	}
	return &CategoryFeed{Category: category, Page: page}, nil
}

// ProfileFeed shows a user's posts. The owner also sees drafts, scheduled
// posts and posts in hidden categories.
func (s *PostService) ProfileFeed(ctx context.Context, viewer authz.Viewer, username, rawPage string) (*ProfileFeed, error) {
	ctx, span := observability.StartServiceSpan(ctx, "PostService", "ProfileFeed")
	defer span.End()

	profile, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		observability.EndSpan(span, err)
		return nil, err
	}
	q := repository.FeedQuery{
		Now:           s.now(),
		AuthorID:      profile.ID,
		IncludeHidden: viewer.Is(profile.ID),
	}
	page, err := s.feed(ctx, q, rawPage)
	if err != nil {
		observability.EndSpan(span, err)
		return nil, err
	}
	return &ProfileFeed{Profile: profile, Page: page}, nil
}

func (s *PostService) feed(ctx context.Context, q repository.FeedQuery, rawPage string) (pagination.Page[models.Post], error) {
	total, err := s.postRepo.Count(ctx, q)
	if err != nil {
		return pagination.Page[models.Post]{}, err
	}
	number, window := pagination.Resolve(rawPage, total, s.perPage)
	posts, err := s.postRepo.List(ctx, q, window)
	if err != nil {
		return pagination.Page[models.Post]{}, err
	}
	for i := range posts {
		s.decorate(&posts[i])
	}
	return pagination.New(posts, number, s.perPage, total), nil
}

// GetPostDetail loads a post with its comments.
func (s *PostService) GetPostDetail(ctx context.Context, viewer authz.Viewer, id uint) (*PostDetail, error) {
	ctx, span := observability.StartServiceSpan(ctx, "PostService", "GetPostDetail")
	defer span.End()

	post, err := resolvePost(ctx, s.postRepo, viewer, id, s.now())
	if err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.ListByPost(ctx, post.ID)
	if err != nil {
		observability.EndSpan(span, err)
		return nil, err
	}
	return &PostDetail{
		Post:     post,
		Comments: comments,
		CanEdit:  authz.PostAccess(viewer, post) == authz.Allow,
	}, nil
}

// resolvePost looks the post up under the public filter first and falls back
// to the viewer's own posts.
func resolvePost(ctx context.Context, posts repository.PostRepository, viewer authz.Viewer, id uint, now time.Time) (*models.Post, error) {
	post, err := posts.GetVisible(ctx, id, now)
	if err == nil {
		return post, nil
	}
	if !models.IsNotFound(err) || !viewer.Authenticated() {
		return nil, err
	}
	return posts.GetForAuthor(ctx, id, viewer.ID)
}

// FormChoices returns the categories and locations offered by the post form.
func (s *PostService) FormChoices(ctx context.Context) (*FormChoices, error) {
	categories, err := s.categoryRepo.ListPublished(ctx)
	if err != nil {
		return nil, err
	}
	locations, err := s.locationRepo.ListPublished(ctx)
	if err != nil {
		return nil, err
	}
	return &FormChoices{Categories: categories, Locations: locations}, nil
}

// CreatePost publishes a new post authored by the viewer.
func (s *PostService) CreatePost(ctx context.Context, in PostInput) (*models.Post, error) {
	ctx, span := observability.StartServiceSpan(ctx, "PostService", "CreatePost")
	defer span.End()

	if authz.RequireLogin(in.Viewer) == authz.RedirectToLogin {
		observability.RecordDenial("post", authz.DenyLogin.String())
		return nil, models.NewLoginRequiredError(routes.CreatePost)
	}
	if err := s.checkForm(ctx, &in.Form); err != nil {
		return nil, err
	}

	post := &models.Post{AuthorID: in.Viewer.ID, IsPublished: true}
	applyPostForm(post, &in.Form)
	if in.Image != nil {
		key, err := media.UploadImage(ctx, s.store, in.Image, s.maxImageBytes)
		if err != nil {
			return nil, err
		}
		post.Image = key
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		if post.Image != "" {
			s.removeImage(ctx, post.Image)
		}
		observability.EndSpan(span, err)
		return nil, err
	}
	observability.RecordWrite("post", "create")
	middleware.Logger.InfoContext(ctx, "post created", "post_id", post.ID, "author_id", post.AuthorID)
	s.decorate(post)
	return post, nil
}

// GetPostForEdit loads a post the viewer is about to edit or delete.
func (s *PostService) GetPostForEdit(ctx context.Context, viewer authz.Viewer, id uint) (*models.Post, error) {
	return s.ownedPost(ctx, viewer, id, routes.EditPost(id))
}

// UpdatePost applies the form to a post the viewer owns.
func (s *PostService) UpdatePost(ctx context.Context, in PostInput) (*models.Post, error) {
	ctx, span := observability.StartServiceSpan(ctx, "PostService", "UpdatePost")
	defer span.End()

	post, err := s.ownedPost(ctx, in.Viewer, in.PostID, routes.EditPost(in.PostID))
	if err != nil {
		return nil, err
	}
	if err := s.checkForm(ctx, &in.Form); err != nil {
		return nil, err
	}

	applyPostForm(post, &in.Form)
	previousImage := post.Image
	if in.Image != nil {
		key, err := media.UploadImage(ctx, s.store, in.Image, s.maxImageBytes)
		if err != nil {
			return nil, err
		}
		post.Image = key
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		if post.Image != previousImage {
			s.removeImage(ctx, post.Image)
		}
		observability.EndSpan(span, err)
		return nil, err
	}
	if previousImage != "" && previousImage != post.Image {
		s.removeImage(ctx, previousImage)
	}
	observability.RecordWrite("post", "update")
	s.decorate(post)
	return post, nil
}

// GetPostForDelete loads the post shown on the delete confirmation page.
func (s *PostService) GetPostForDelete(ctx context.Context, viewer authz.Viewer, id uint) (*models.Post, error) {
	return s.ownedPost(ctx, viewer, id, routes.DeletePost(id))
}

// DeletePost removes a post the viewer owns along with its comments and image.
func (s *PostService) DeletePost(ctx context.Context, viewer authz.Viewer, id uint) error {
	ctx, span := observability.StartServiceSpan(ctx, "PostService", "DeletePost")
	defer span.End()

	post, err := s.ownedPost(ctx, viewer, id, routes.DeletePost(id))
	if err != nil {
		return err
	}
	if err := s.postRepo.Delete(ctx, post.ID); err != nil {
		observability.EndSpan(span, err)
		return err
	}
	if post.Image != "" {
		s.removeImage(ctx, post.Image)
	}
	observability.RecordWrite("post", "delete")
	return nil
}

// ownedPost applies the post edit/delete gate. next is where an anonymous
// viewer returns after login.
func (s *PostService) ownedPost(ctx context.Context, viewer authz.Viewer, id uint, next string) (*models.Post, error) {
	if authz.RequireLogin(viewer) == authz.RedirectToLogin {
		observability.RecordDenial("post", authz.DenyLogin.String())
		return nil, models.NewLoginRequiredError(next)
	}
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch decision := authz.PostAccess(viewer, post); decision {
	case authz.Allow:
		s.decorate(post)
		return post, nil
	case authz.DenyLogin:
		observability.RecordDenial("post", decision.String())
		return nil, models.NewLoginRequiredError(next)
	default:
		observability.RecordDenial("post", decision.String())
		return nil, models.NewRedirectError(routes.PostDetail(post.ID))
	}
}

func (s *PostService) checkForm(ctx context.Context, form *validation.PostForm) error {
	if err := validation.Validate(form); err != nil {
		return err
	}
	const invalidChoice = "Select a valid choice. That choice is not one of the available choices."
	if _, err := s.categoryRepo.GetByID(ctx, form.CategoryID); err != nil {
		if models.IsNotFound(err) {
			return models.NewFieldValidationError(map[string]string{"category": invalidChoice})
		}
		return err
	}
	if form.LocationID != 0 {
		if _, err := s.locationRepo.GetByID(ctx, form.LocationID); err != nil {
			if models.IsNotFound(err) {
				return models.NewFieldValidationError(map[string]string{"location": invalidChoice})
			}
			return err
		}
	}
	return nil
}

func applyPostForm(post *models.Post, form *validation.PostForm) {
	post.Title = form.Title
	post.Text = form.Text
	post.PubDate = form.PubDateTime()
	categoryID := form.CategoryID
	post.CategoryID = &categoryID
	post.LocationID = nil
	if form.LocationID != 0 {
		locationID := form.LocationID
		post.LocationID = &locationID
	}
}

func (s *PostService) decorate(post *models.Post) {
	if post.Image != "" && s.store != nil {
		post.ImageURL = s.store.URL(post.Image)
	}
}

func (s *PostService) removeImage(ctx context.Context, key string) {
	if s.store == nil {
		return
	}
	if err := s.store.Delete(ctx, key); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to remove post image", "key", key, "error", err)
	}
}
