package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCode_UnwrapsWrappedAppError(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("load post: %w", NewNotFoundError("Post", 7))
	assert.Equal(t, CodeNotFound, ErrorCode(wrapped))
	assert.True(t, IsNotFound(wrapped))
	assert.Equal(t, "", ErrorCode(errors.New("plain")))
}

func TestAppError_ErrorIncludesCause(t *testing.T) {
	t.Parallel()

	err := NewInternalError(errors.New("db down"))
	assert.Equal(t, "Internal server error: db down", err.Error())
	assert.ErrorContains(t, errors.Unwrap(err), "db down")
}

func TestRespondWithError_FieldErrors(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return RespondWithError(c, fiber.StatusBadRequest,
			NewFieldValidationError(map[string]string{"title": "This field is required."}))
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	var got ErrorResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, CodeValidation, got.Code)
	assert.Equal(t, "This field is required.", got.Fields["title"])
}

func TestPost_BeforeSaveNormalizesToUTC(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC+3", 3*60*60)
	p := &Post{PubDate: time.Date(2024, 5, 1, 12, 0, 0, 0, loc)}
	require.NoError(t, p.BeforeSave(nil))
	assert.Equal(t, time.UTC, p.PubDate.Location())
	assert.Equal(t, 9, p.PubDate.Hour())
}

func TestOwnership(t *testing.T) {
	t.Parallel()

	p := &Post{AuthorID: 3}
	assert.True(t, p.IsOwnedBy(3))
	assert.False(t, p.IsOwnedBy(4))
	assert.False(t, (&Post{}).IsOwnedBy(0), "anonymous viewer never owns an orphan post")

	c := &Comment{AuthorID: 5}
	assert.True(t, c.IsOwnedBy(5))
	assert.False(t, c.IsOwnedBy(0))
}

func TestUser_FullName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Ann Lee", (&User{Username: "ann", FirstName: "Ann", LastName: "Lee"}).FullName())
	assert.Equal(t, "Ann", (&User{Username: "ann", FirstName: "Ann"}).FullName())
	assert.Equal(t, "ann", (&User{Username: "ann"}).FullName())
}
