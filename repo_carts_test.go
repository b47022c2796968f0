package store

import (
	"context"
	"testing"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartsAddItem(t *testing.T) {
	repo := newTestManager(t)
	ctx := context.Background()

	user := seedUser(t, repo, "bright@federation.example", false)
	product := seedProduct(t, repo, "RX-78-2 Gundam", "45.99", GradeHG)

	item, err := repo.Carts().AddItem(ctx, user.ID, product.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, item.Quantity)
	require.NotNil(t, item.Product)
	assert.Equal(t, product.Name, item.Product.Name)

	t.Run("repeated add increments quantity", func(t *testing.T) {
		again, err := repo.Carts().AddItem(ctx, user.ID, product.ID, 2)
		require.NoError(t, err)
		assert.Equal(t, item.ID, again.ID)
		assert.Equal(t, 3, again.Quantity)

		lines, err := repo.Carts().GetByUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Len(t, lines, 1)
	})

	t.Run("unknown product rejected", func(t *testing.T) {
		_, err := repo.Carts().AddItem(ctx, user.ID, uuid.New(), 1)
		require.Error(t, err)
		assert.True(t, repository.IsRecordNotFound(err))
	})

	t.Run("zero quantity rejected", func(t *testing.T) {
		_, err := repo.Carts().AddItem(ctx, user.ID, product.ID, 0)
		assert.Error(t, err)
	})
}

func TestCartsUserScoping(t *testing.T) {
	repo := newTestManager(t)
	ctx := context.Background()

	owner := seedUser(t, repo, "owner@example.com", false)
	other := seedUser(t, repo, "other@example.com", false)
	product := seedProduct(t, repo, "MSN-04 Sazabi", "89.50", GradeMG)

	item, err := repo.Carts().AddItem(ctx, owner.ID, product.ID, 1)
	require.NoError(t, err)

	t.Run("other user sees empty cart", func(t *testing.T) {
		lines, err := repo.Carts().GetByUser(ctx, other.ID)
		require.NoError(t, err)
		assert.Empty(t, lines)
	})

	t.Run("other user cannot update the line", func(t *testing.T) {
		_, err := repo.Carts().UpdateItem(ctx, other.ID, item.ID, 5)
		require.Error(t, err)
		assert.True(t, repository.IsRecordNotFound(err))
	})

	t.Run("other user cannot remove the line", func(t *testing.T) {
		err := repo.Carts().RemoveItem(ctx, other.ID, item.ID)
		require.Error(t, err)
		assert.True(t, repository.IsRecordNotFound(err))
	})
}

func TestCartsUpdateAndRemove(t *testing.T) {
	repo := newTestManager(t)
	ctx := context.Background()

	user := seedUser(t, repo, "sayla@federation.example", false)
	product := seedProduct(t, repo, "RX-0 Unicorn", "249.99", GradePG)

	item, err := repo.Carts().AddItem(ctx, user.ID, product.ID, 1)
	require.NoError(t, err)

	updated, err := repo.Carts().UpdateItem(ctx, user.ID, item.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Quantity)

	require.NoError(t, repo.Carts().RemoveItem(ctx, user.ID, item.ID))

	lines, err := repo.Carts().GetByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestCartsClear(t *testing.T) {
	repo := newTestManager(t)
	ctx := context.Background()

	user := seedUser(t, repo, "mirai@federation.example", false)
	first := seedProduct(t, repo, "RX-78-2 Gundam", "45.99", GradeHG)
	second := seedProduct(t, repo, "MSN-04 Sazabi", "89.50", GradeMG)

	_, err := repo.Carts().AddItem(ctx, user.ID, first.ID, 1)
	require.NoError(t, err)
	_, err = repo.Carts().AddItem(ctx, user.ID, second.ID, 2)
	require.NoError(t, err)

	require.NoError(t, repo.Carts().Clear(ctx, user.ID))

	lines, err := repo.Carts().GetByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)

	// clearing an already empty cart is not an error
	require.NoError(t, repo.Carts().Clear(ctx, user.ID))
}
