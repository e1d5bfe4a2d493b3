package repository

import (
	"testing"

	"blogicum/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryRepository_GetPublishedBySlug(t *testing.T) {
	db := newTestDB(t)
	f := fixture{db: db, t: t}
	repo := NewCategoryRepository(db)
	ctx := t.Context()

	f.category("travel", true)
	f.category("secret", false)

	got, err := repo.GetPublishedBySlug(ctx, "travel")
	require.NoError(t, err)
	assert.True(t, got.IsPublished)

	_, err = repo.GetPublishedBySlug(ctx, "secret")
	assert.True(t, models.IsNotFound(err))
	_, err = repo.GetPublishedBySlug(ctx, "missing")
	assert.True(t, models.IsNotFound(err))

	listed, err := repo.ListPublished(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "travel", listed[0].Slug)
}

func TestCategoryRepository_DeleteDetachesPosts(t *testing.T) {
	db := newTestDB(t)
	f := fixture{db: db, t: t}
	ctx := t.Context()

	alice := f.user("alice")
	travel := f.category("travel", true)
	alps := f.location("Alps")
	post := f.post(alice, travel, "trip", atLocation(alps))

	require.NoError(t, NewCategoryRepository(db).Delete(ctx, travel.ID))
	require.NoError(t, NewLocationRepository(db).Delete(ctx, alps.ID))

	got, err := NewPostRepository(db).GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CategoryID)
	assert.Nil(t, got.LocationID)

	assert.True(t, models.IsNotFound(NewCategoryRepository(db).Delete(ctx, travel.ID)))
}

func TestLocationRepository_ListPublished(t *testing.T) {
	db := newTestDB(t)
	f := fixture{db: db, t: t}
	repo := NewLocationRepository(db)

	f.location("Zurich")
	f.location("Alps")
	require.NoError(t, repo.Create(t.Context(), &models.Location{Name: "Hidden", IsPublished: false}))

	got, err := repo.ListPublished(t.Context())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Alps", got[0].Name)
	assert.Equal(t, "Zurich", got[1].Name)
}
