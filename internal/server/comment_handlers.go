package server

import (
	"blogicum/internal/middleware"
	"blogicum/internal/routes"
	"blogicum/internal/service"
	"blogicum/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// AddComment handles POST /posts/:id/comment/
func (s *Server) AddComment(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	in := service.CommentInput{Viewer: middleware.ViewerFrom(c), PostID: postID}
	if err := bindForm(c, &in.Form); err != nil {
		return nil
	}
	if _, err := s.commentService.AddComment(c.UserContext(), in); err != nil {
		return respondServiceError(c, err, in.Form)
	}
	return c.Redirect(routes.PostDetail(postID), fiber.StatusFound)
}

// EditCommentPage handles GET /posts/:id/edit_comment/:commentId/
func (s *Server) EditCommentPage(c *fiber.Ctx) error {
	postID, commentID, err := s.commentIDs(c)
	if err != nil {
		return nil
	}
	comment, err := s.commentService.GetCommentForEdit(c.UserContext(), middleware.ViewerFrom(c), postID, commentID)
	if err != nil {
		return respondServiceError(c, err, nil)
	}
	return c.JSON(fiber.Map{"comment": comment, "form": validation.CommentForm{Text: comment.Text}})
}

// EditComment handles POST /posts/:id/edit_comment/:commentId/
func (s *Server) EditComment(c *fiber.Ctx) error {
	postID, commentID, err := s.commentIDs(c)
	if err != nil {
		return nil
	}
	in := service.CommentInput{Viewer: middleware.ViewerFrom(c), PostID: postID, CommentID: commentID}
	if err := bindForm(c, &in.Form); err != nil {
		return nil
	}
	if _, err := s.commentService.UpdateComment(c.UserContext(), in); err != nil {
		return respondServiceError(c, err, in.Form)
	}
	return c.Redirect(routes.PostDetail(postID), fiber.StatusFound)
}

// DeleteCommentPage handles GET /posts/:id/delete_comment/:commentId/
func (s *Server) DeleteCommentPage(c *fiber.Ctx) error {
	postID, commentID, err := s.commentIDs(c)
	if err != nil {
		return nil
	}
	comment, err := s.commentService.GetCommentForDelete(c.UserContext(), middleware.ViewerFrom(c), postID, commentID)
	if err != nil {
		return respondServiceError(c, err, nil)
	}
	return c.JSON(fiber.Map{"comment": comment})
}

// DeleteComment handles POST /posts/:id/delete_comment/:commentId/
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	postID, commentID, err := s.commentIDs(c)
	if err != nil {
		return nil
	}
	if err := s.commentService.DeleteComment(c.UserContext(), middleware.ViewerFrom(c), postID, commentID); err != nil {
		return respondServiceError(c, err, nil)
	}
	return c.Redirect(routes.PostDetail(postID), fiber.StatusFound)
}

func (s *Server) commentIDs(c *fiber.Ctx) (uint, uint, error) {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return 0, 0, err
	}
	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return 0, 0, err
	}
	return postID, commentID, nil
}
