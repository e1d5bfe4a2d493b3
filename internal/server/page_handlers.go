package server

import (
	"errors"

	"blogicum/internal/media"
	"blogicum/internal/models"

	"github.com/gofiber/fiber/v2"
)

// About handles GET /pages/about/
func (s *Server) About(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"page":  "about",
		"title": "About Blogicum",
		"text":  "Blogicum is a place to write about your travels, your city and everything in between.",
	})
}

// Rules handles GET /pages/rules/
func (s *Server) Rules(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"page":  "rules",
		"title": "Community rules",
		"rules": []string{
			"Be polite to other authors and commenters.",
			"Publish only content you have the right to share.",
			"No spam or advertising.",
		},
	})
}

// ServeMedia handles GET /media/* by streaming the object from the media store.
func (s *Server) ServeMedia(c *fiber.Ctx) error {
	key, ok := media.CleanKey(c.Params("*"))
	if !ok {
		return models.RespondWithError(c, fiber.StatusNotFound, models.NewNotFoundError("File", c.Params("*")))
	}
	rc, contentType, err := s.store.Open(c.UserContext(), key)
	if err != nil {
		if errors.Is(err, media.ErrNotFound) {
			return models.RespondWithError(c, fiber.StatusNotFound, models.NewNotFoundError("File", key))
		}
		return respondServiceError(c, err, nil)
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderCacheControl, "public, max-age=86400")
	return c.SendStream(rc)
}

// NotFound answers every unmatched route.
func (s *Server) NotFound(c *fiber.Ctx) error {
	return models.RespondWithError(c, fiber.StatusNotFound, models.NewNotFoundError("Page", c.Path()))
}
