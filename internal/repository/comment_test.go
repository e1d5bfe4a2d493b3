package repository

import (
	"testing"

	"blogicum/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentRepository_ListByPostOldestFirst(t *testing.T) {
	db := newTestDB(t)
	f := fixture{db: db, t: t}
	repo := NewCommentRepository(db)

	alice := f.user("alice")
	bob := f.user("bob")
	post := f.post(alice, f.category("travel", true), "trip")
	other := f.post(alice, f.category("food", true), "lunch")

	f.comment(bob, post, "first")
	f.comment(alice, post, "second")
	f.comment(bob, other, "elsewhere")

	comments, err := repo.ListByPost(t.Context(), post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Text)
	assert.Equal(t, "bob", comments[0].Author.Username)
	assert.Equal(t, "second", comments[1].Text)
}

func TestCommentRepository_GetOnPostChecksPost(t *testing.T) {
	db := newTestDB(t)
	f := fixture{db: db, t: t}
	repo := NewCommentRepository(db)
	ctx := t.Context()

	alice := f.user("alice")
	travel := f.category("travel", true)
	post := f.post(alice, travel, "trip")
	other := f.post(alice, travel, "other")
	c := f.comment(alice, post, "hello")

	got, err := repo.GetOnPost(ctx, c.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Text)

	_, err = repo.GetOnPost(ctx, c.ID, other.ID)
	assert.True(t, models.IsNotFound(err))
}

func TestCommentRepository_UpdateAndDelete(t *testing.T) {
	db := newTestDB(t)
	f := fixture{db: db, t: t}
	repo := NewCommentRepository(db)
	ctx := t.Context()

	alice := f.user("alice")
	post := f.post(alice, f.category("travel", true), "trip")
	c := f.comment(alice, post, "typo")

	c.Text = "fixed"
	require.NoError(t, repo.Update(ctx, c))
	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "fixed", got.Text)

	require.NoError(t, repo.Delete(ctx, c.ID))
	_, err = repo.GetByID(ctx, c.ID)
	assert.True(t, models.IsNotFound(err))
	assert.True(t, models.IsNotFound(repo.Delete(ctx, c.ID)))
}
