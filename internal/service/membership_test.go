package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/models"
)

func createRecipeRow(t *testing.T, db *gorm.DB, author *models.User, name string) *models.Recipe {
	t.Helper()
	recipe := models.Recipe{
		AuthorID:    author.ID,
		Name:        name,
		Text:        "text",
		CookingTime: 10,
	}
	require.NoError(t, db.Create(&recipe).Error)
	return &recipe
}

func TestMembershipAddTwice(t *testing.T) {
	db := newTestDB(t)
	membership := NewMembershipService(db)
	ctx := context.Background()

	user := createUser(t, db, "user")
	author := createUser(t, db, "author")
	recipe := createRecipeRow(t, db, author, "Soup")

	require.NoError(t, membership.Add(ctx, ListFavorites, user.ID, recipe.ID))
	err := membership.Add(ctx, ListFavorites, user.ID, recipe.ID)
	assert.ErrorIs(t, err, ErrAlreadyInList)

	// Still exactly one row.
	var count int64
	require.NoError(t, db.Model(&models.Favorite{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestMembershipRemoveAbsent(t *testing.T) {
	db := newTestDB(t)
	membership := NewMembershipService(db)
	ctx := context.Background()

	user := createUser(t, db, "user")
	author := createUser(t, db, "author")
	recipe := createRecipeRow(t, db, author, "Soup")

	err := membership.Remove(ctx, ListShoppingCart, user.ID, recipe.ID)
	assert.ErrorIs(t, err, ErrNotInList)
}

func TestMembershipAddRemoveRoundTrip(t *testing.T) {
	db := newTestDB(t)
	membership := NewMembershipService(db)
	ctx := context.Background()

	user := createUser(t, db, "user")
	author := createUser(t, db, "author")
	recipe := createRecipeRow(t, db, author, "Soup")

	require.NoError(t, membership.Add(ctx, ListShoppingCart, user.ID, recipe.ID))
	inCart, err := membership.Contains(ctx, ListShoppingCart, user.ID, recipe.ID)
	require.NoError(t, err)
	assert.True(t, inCart)

	require.NoError(t, membership.Remove(ctx, ListShoppingCart, user.ID, recipe.ID))
	inCart, err = membership.Contains(ctx, ListShoppingCart, user.ID, recipe.ID)
	require.NoError(t, err)
	assert.False(t, inCart)

	// Removing again is an error, not a no-op.
	assert.ErrorIs(t, membership.Remove(ctx, ListShoppingCart, user.ID, recipe.ID), ErrNotInList)
}

func TestMembershipListsAreIndependent(t *testing.T) {
	db := newTestDB(t)
	membership := NewMembershipService(db)
	ctx := context.Background()

	user := createUser(t, db, "user")
	author := createUser(t, db, "author")
	recipe := createRecipeRow(t, db, author, "Soup")

	require.NoError(t, membership.Add(ctx, ListFavorites, user.ID, recipe.ID))

	inCart, err := membership.Contains(ctx, ListShoppingCart, user.ID, recipe.ID)
	require.NoError(t, err)
	assert.False(t, inCart)
}

func TestSelfSubscription(t *testing.T) {
	db := newTestDB(t)
	membership := NewMembershipService(db)
	ctx := context.Background()

	user := createUser(t, db, "loner")

	assert.ErrorIs(t, membership.Add(ctx, ListSubscriptions, user.ID, user.ID), ErrSelfAction)
	assert.ErrorIs(t, membership.Remove(ctx, ListSubscriptions, user.ID, user.ID), ErrSelfAction)
}

func TestSubscriptionsList(t *testing.T) {
	db := newTestDB(t)
	membership := NewMembershipService(db)
	ctx := context.Background()

	follower := createUser(t, db, "follower")
	first := createUser(t, db, "first_author")
	second := createUser(t, db, "second_author")

	require.NoError(t, membership.Add(ctx, ListSubscriptions, follower.ID, first.ID))
	require.NoError(t, membership.Add(ctx, ListSubscriptions, follower.ID, second.ID))

	authors, err := membership.Subscriptions(ctx, follower.ID)
	require.NoError(t, err)
	require.Len(t, authors, 2)

	// Nobody follows the follower.
	authors, err = membership.Subscriptions(ctx, first.ID)
	require.NoError(t, err)
	assert.Empty(t, authors)
}
