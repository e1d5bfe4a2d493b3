package server

import (
	"time"

	"blogicum/internal/middleware"
	"blogicum/internal/models"
	"blogicum/internal/routes"
	"blogicum/internal/session"
	"blogicum/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// RegistrationPage handles GET /auth/registration/
func (s *Server) RegistrationPage(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"form": validation.RegistrationForm{}})
}

// Register handles POST /auth/registration/
func (s *Server) Register(c *fiber.Ctx) error {
	var form validation.RegistrationForm
	if err := bindForm(c, &form); err != nil {
		return nil
	}
	if _, err := s.userService.Register(c.UserContext(), form); err != nil {
		form.Password1, form.Password2 = "", ""
		return respondServiceError(c, err, form)
	}
	return c.Redirect(routes.Login, fiber.StatusFound)
}

// LoginPage handles GET /auth/login/
func (s *Server) LoginPage(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"form": validation.LoginForm{}, "next": safeNext(c.Query("next"))})
}

// Login handles POST /auth/login/. The token is set as the session cookie
// and returned in the body. With a local next parameter the client is
// redirected there instead.
func (s *Server) Login(c *fiber.Ctx) error {
	var form validation.LoginForm
	if err := bindForm(c, &form); err != nil {
		return nil
	}
	user, err := s.userService.Authenticate(c.UserContext(), form)
	if err != nil {
		form.Password = ""
		return respondServiceError(c, err, form)
	}

	token, claims, err := s.startSession(c, user)
	if err != nil {
		return respondServiceError(c, err, nil)
	}
	middleware.Logger.InfoContext(c.UserContext(), "user logged in", "user_id", user.ID)

	if next := safeNext(c.Query("next", c.FormValue("next"))); next != "" {
		return c.Redirect(next, fiber.StatusFound)
	}
	return c.JSON(fiber.Map{
		"token":      token,
		"expires_at": claims.ExpiresAt.Time,
		"user":       user,
	})
}

// Logout handles POST /auth/logout/
func (s *Server) Logout(c *fiber.Ctx) error {
	if claims, ok := middleware.ClaimsFrom(c); ok {
		if err := s.tokens.Revoke(c.UserContext(), claims); err != nil {
			middleware.Logger.WarnContext(c.UserContext(), "token revocation failed", "error", err)
		}
	}
	c.Cookie(&fiber.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(fiber.Map{"status": "logged_out"})
}

// startSession issues a token for user and stores it in the session cookie.
func (s *Server) startSession(c *fiber.Ctx, user *models.User) (string, *session.Claims, error) {
	token, claims, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return "", nil, models.NewInternalError(err)
	}
	c.Cookie(&fiber.Cookie{
		Name:     session.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  claims.ExpiresAt.Time,
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return token, claims, nil
}
