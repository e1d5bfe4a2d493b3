package server

import (
	"blogicum/internal/middleware"
	"blogicum/internal/models"
	"blogicum/internal/routes"
	"blogicum/internal/service"
	"blogicum/internal/validation"

	"github.com/gofiber/fiber/v2"
)

const formDateLayout = "2006-01-02T15:04"

// Index handles GET /
func (s *Server) Index(c *fiber.Ctx) error {
	page, err := s.postService.HomeFeed(c.UserContext(), c.Query("page"))
	if err != nil {
		return respondServiceError(c, err, nil)
	}
	return c.JSON(fiber.Map{"page_obj": page})
}

// CategoryPosts handles GET /category/:slug/
func (s *Server) CategoryPosts(c *fiber.Ctx) error {
	feed, err := s.postService.CategoryFeed(c.UserContext(), c.Params("slug"), c.Query("page"))
	if err != nil {
		return respondServiceError(c, err, nil)
	}
	return c.JSON(feed)
}

// Profile handles GET /profile/:username/
func (s *Server) Profile(c *fiber.Ctx) error {
	feed, err := s.postService.ProfileFeed(c.UserContext(), middleware.ViewerFrom(c), c.Params("username"), c.Query("page"))
	if err != nil {
		return respondServiceError(c, err, nil)
	}
	return c.JSON(feed)
}

// PostDetail handles GET /posts/:id/
func (s *Server) PostDetail(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	detail, err := s.postService.GetPostDetail(c.UserContext(), middleware.ViewerFrom(c), id)
	if err != nil {
		return respondServiceError(c, err, nil)
	}
	return c.JSON(fiber.Map{
		"post":     detail.Post,
		"comments": detail.Comments,
		"can_edit": detail.CanEdit,
		"form":     validation.CommentForm{},
	})
}

// CreatePostPage handles GET /posts/create/
func (s *Server) CreatePostPage(c *fiber.Ctx) error {
	choices, err := s.postService.FormChoices(c.UserContext())
	if err != nil {
		return respondServiceError(c, err, nil)
	}
	return c.JSON(fiber.Map{"form": validation.PostForm{}, "choices": choices})
}

// CreatePost handles POST /posts/create/
func (s *Server) CreatePost(c *fiber.Ctx) error {
	viewer := middleware.ViewerFrom(c)
	in, err := s.bindPostInput(c)
	if err != nil {
		return nil
	}
	in.Viewer = viewer

	if _, err := s.postService.CreatePost(c.UserContext(), in); err != nil {
		return respondServiceError(c, err, in.Form)
	}
	return c.Redirect(routes.Profile(viewer.Username), fiber.StatusFound)
}

// EditPostPage handles GET /posts/:id/edit/
func (s *Server) EditPostPage(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.postService.GetPostForEdit(c.UserContext(), middleware.ViewerFrom(c), id)
	if err != nil {
		return respondServiceError(c, err, nil)
	}
	choices, err := s.postService.FormChoices(c.UserContext())
	if err != nil {
		return respondServiceError(c, err, nil)
	}
	return c.JSON(fiber.Map{"post": post, "form": postFormFrom(post), "choices": choices})
}

// EditPost handles POST /posts/:id/edit/
func (s *Server) EditPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	in, err := s.bindPostInput(c)
	if err != nil {
		return nil
	}
	in.Viewer = middleware.ViewerFrom(c)
	in.PostID = id

	post, err := s.postService.UpdatePost(c.UserContext(), in)
	if err != nil {
		return respondServiceError(c, err, in.Form)
	}
	return c.Redirect(routes.PostDetail(post.ID), fiber.StatusFound)
}

// DeletePostPage handles GET /posts/:id/delete/
func (s *Server) DeletePostPage(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.postService.GetPostForDelete(c.UserContext(), middleware.ViewerFrom(c), id)
	if err != nil {
		return respondServiceError(c, err, nil)
	}
	return c.JSON(fiber.Map{"post": post, "form": postFormFrom(post)})
}

// DeletePost handles POST /posts/:id/delete/
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	viewer := middleware.ViewerFrom(c)
	if err := s.postService.DeletePost(c.UserContext(), viewer, id); err != nil {
		return respondServiceError(c, err, nil)
	}
	return c.Redirect(routes.Profile(viewer.Username), fiber.StatusFound)
}

func (s *Server) bindPostInput(c *fiber.Ctx) (service.PostInput, error) {
	var in service.PostInput
	if err := bindForm(c, &in.Form); err != nil {
		return in, err
	}
	image, err := readUpload(c, "image", s.maxImageBytes())
	if err != nil {
		_ = respondServiceError(c, models.NewInternalError(err), nil)
		return in, errResponseWritten
	}
	in.Image = image
	return in, nil
}

func postFormFrom(post *models.Post) validation.PostForm {
	form := validation.PostForm{
		Title:   post.Title,
		Text:    post.Text,
		PubDate: post.PubDate.UTC().Format(formDateLayout),
	}
	if post.CategoryID != nil {
		form.CategoryID = *post.CategoryID
	}
	if post.LocationID != nil {
		form.LocationID = *post.LocationID
	}
	return form
}
