package server

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"blogicum/internal/middleware"
	"blogicum/internal/models"
	"blogicum/internal/routes"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 404 JSON response and returns errResponseWritten;
// a malformed id cannot name an existing page.
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError(humanizeParam(param), c.Params(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "commentId" -> "comment ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		words := splitCamel(param[:len(param)-2])
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	return append(words, s[start:])
}

// respondServiceError turns a service error into a response. form is echoed
// back on validation failures so the client can redisplay it.
func respondServiceError(c *fiber.Ctx, err error, form any) error {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed", "error", err)
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}

	switch appErr.Code {
	case models.CodeNotFound:
		return models.RespondWithError(c, fiber.StatusNotFound, appErr)
	case models.CodeValidation:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  appErr.Message,
			"code":   appErr.Code,
			"fields": appErr.Fields,
			"form":   form,
		})
	case models.CodeRedirect:
		return c.Redirect(appErr.Target, fiber.StatusFound)
	case models.CodeLoginRequired:
		return c.Redirect(routes.LoginWithNext(appErr.Target), fiber.StatusFound)
	case models.CodeUnauthorized:
		return models.RespondWithError(c, fiber.StatusUnauthorized, appErr)
	case models.CodeConflict:
		return models.RespondWithError(c, fiber.StatusConflict, appErr)
	default:
		middleware.Logger.ErrorContext(c.UserContext(), "request failed", "error", err)
		return models.RespondWithError(c, fiber.StatusInternalServerError, appErr)
	}
}

// bindForm parses a urlencoded, multipart or JSON body into form.
func bindForm(c *fiber.Ctx, form any) error {
	if len(c.Body()) == 0 && !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return nil
	}
	if err := c.BodyParser(form); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	return nil
}

// readUpload returns the bytes of the named multipart file, or nil when the
// request carries none. Reads stop one byte past limit so oversize files are
// still detected.
func readUpload(c *fiber.Ctx, field string, limit int64) ([]byte, error) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return nil, nil
	}
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload %s: %w", field, err)
	}
	defer func() { _ = f.Close() }()

	r := io.Reader(f)
	if limit > 0 {
		r = io.LimitReader(f, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload %s: %w", field, err)
	}
	return data, nil
}

// safeNext accepts only local absolute paths as post-login targets.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return ""
	}
	return next
}
