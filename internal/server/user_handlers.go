package server

import (
	"blogicum/internal/middleware"
	"blogicum/internal/routes"
	"blogicum/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// EditProfilePage handles GET /profile/edit/
func (s *Server) EditProfilePage(c *fiber.Ctx) error {
	user, err := s.userService.GetProfileForEdit(c.UserContext(), middleware.ViewerFrom(c))
	if err != nil {
		return respondServiceError(c, err, nil)
	}
	return c.JSON(fiber.Map{"form": validation.ProfileForm{
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
	}})
}

// EditProfile handles POST /profile/edit/. A renamed user gets a fresh
// session so the token carries the new username.
func (s *Server) EditProfile(c *fiber.Ctx) error {
	var form validation.ProfileForm
	if err := bindForm(c, &form); err != nil {
		return nil
	}
	viewer := middleware.ViewerFrom(c)
	user, err := s.userService.UpdateProfile(c.UserContext(), viewer, form)
	if err != nil {
		return respondServiceError(c, err, form)
	}

	if user.Username != viewer.Username {
		if claims, ok := middleware.ClaimsFrom(c); ok {
			_ = s.tokens.Revoke(c.UserContext(), claims)
		}
		if _, _, err := s.startSession(c, user); err != nil {
			return respondServiceError(c, err, nil)
		}
	}
	return c.Redirect(routes.Profile(user.Username), fiber.StatusFound)
}
