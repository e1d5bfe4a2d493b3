package service

import (
	"context"
	"time"

	"blogicum/internal/authz"
	"blogicum/internal/models"
	"blogicum/internal/observability"
	"blogicum/internal/repository"
	"blogicum/internal/routes"
	"blogicum/internal/validation"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	now         func() time.Time
}

// CommentInput carries a submitted comment form.
type CommentInput struct {
	Viewer    authz.Viewer
	PostID    uint
	CommentID uint
	Form      validation.CommentForm
}

func NewCommentService(commentRepo repository.CommentRepository, postRepo repository.PostRepository) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// AddComment attaches a comment to a post the viewer can see.
func (s *CommentService) AddComment(ctx context.Context, in CommentInput) (*models.Comment, error) {
	ctx, span := observability.StartServiceSpan(ctx, "CommentService", "AddComment")
	defer span.End()

	if authz.RequireLogin(in.Viewer) == authz.RedirectToLogin {
		observability.RecordDenial("comment", authz.DenyLogin.String())
		return nil, models.NewLoginRequiredError(routes.AddComment(in.PostID))
	}
	post, err := resolvePost(ctx, s.postRepo, in.Viewer, in.PostID, s.now())
	if err != nil {
		return nil, err
	}
	if err := validation.Validate(&in.Form); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		Text:     in.Form.Text,
		PostID:   post.ID,
		AuthorID: in.Viewer.ID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		observability.EndSpan(span, err)
		return nil, err
	}
	observability.RecordWrite("comment", "create")
	return comment, nil
}

// GetCommentForEdit loads a comment of postID the viewer wrote.
func (s *CommentService) GetCommentForEdit(ctx context.Context, viewer authz.Viewer, postID, commentID uint) (*models.Comment, error) {
	return s.ownedComment(ctx, viewer, postID, commentID, routes.EditComment(postID, commentID))
}

// GetCommentForDelete loads the comment shown on the delete confirmation page.
func (s *CommentService) GetCommentForDelete(ctx context.Context, viewer authz.Viewer, postID, commentID uint) (*models.Comment, error) {
	return s.ownedComment(ctx, viewer, postID, commentID, routes.DeleteComment(postID, commentID))
}

func (s *CommentService) UpdateComment(ctx context.Context, in CommentInput) (*models.Comment, error) {
	ctx, span := observability.StartServiceSpan(ctx, "CommentService", "UpdateComment")
	defer span.End()

	comment, err := s.ownedComment(ctx, in.Viewer, in.PostID, in.CommentID, routes.EditComment(in.PostID, in.CommentID))
	if err != nil {
		return nil, err
	}
	if err := validation.Validate(&in.Form); err != nil {
		return nil, err
	}

	comment.Text = in.Form.Text
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		observability.EndSpan(span, err)
		return nil, err
	}
	observability.RecordWrite("comment", "update")
	return comment, nil
}

func (s *CommentService) DeleteComment(ctx context.Context, viewer authz.Viewer, postID, commentID uint) error {
	ctx, span := observability.StartServiceSpan(ctx, "CommentService", "DeleteComment")
	defer span.End()

	comment, err := s.ownedComment(ctx, viewer, postID, commentID, routes.DeleteComment(postID, commentID))
	if err != nil {
		return err
	}
	if err := s.commentRepo.Delete(ctx, comment.ID); err != nil {
		observability.EndSpan(span, err)
		return err
	}
	observability.RecordWrite("comment", "delete")
	return nil
}

// ownedComment applies the comment edit/delete gate. Someone else's comment
// is reported as missing.
func (s *CommentService) ownedComment(ctx context.Context, viewer authz.Viewer, postID, commentID uint, next string) (*models.Comment, error) {
	if authz.RequireLogin(viewer) == authz.RedirectToLogin {
		observability.RecordDenial("comment", authz.DenyLogin.String())
		return nil, models.NewLoginRequiredError(next)
	}
	comment, err := s.commentRepo.GetOnPost(ctx, commentID, postID)
	if err != nil {
		return nil, err
	}
	if decision := authz.CommentAccess(viewer, comment); decision != authz.Allow {
		observability.RecordDenial("comment", decision.String())
		return nil, models.NewNotFoundError("Comment", commentID)
	}
	return comment, nil
}
