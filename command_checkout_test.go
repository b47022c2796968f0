package store

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckoutCreatesSnapshot(t *testing.T) {
	repo := newTestManager(t)
	ctx := context.Background()

	user := seedUser(t, repo, "buyer@example.com", false)
	gundam := seedProduct(t, repo, "RX-78-2 Gundam", "50.00", GradeHG)
	sazabi := seedProduct(t, repo, "MSN-04 Sazabi", "100.00", GradeMG)

	_, err := repo.Carts().AddItem(ctx, user.ID, gundam.ID, 1)
	require.NoError(t, err)
	_, err = repo.Carts().AddItem(ctx, user.ID, sazabi.ID, 2)
	require.NoError(t, err)

	msg := &CheckoutMessage{
		UserID:          user.ID,
		PaymentMethod:   "card",
		DeliveryAddress: "1-1 Gundam Front, Odaiba",
	}

	handler := NewCheckoutHandler(repo)
	require.NoError(t, handler.Execute(ctx, msg))

	order := msg.Order()
	require.NotNil(t, order)

	assert.Equal(t, user.ID, order.UserID)
	assert.Equal(t, OrderStatusPending, order.Status)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("250.00")),
		"total %s", order.TotalAmount)
	assert.Len(t, order.Items, 2)
	require.NotNil(t, order.EstimatedDelivery)
	assert.WithinDuration(t, time.Now().Add(EstimatedDeliveryWindow), *order.EstimatedDelivery, time.Minute)

	t.Run("cart is cleared", func(t *testing.T) {
		lines, err := repo.Carts().GetByUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Empty(t, lines)
	})

	t.Run("line prices are frozen", func(t *testing.T) {
		gundam.Price = decimal.RequireFromString("999.99")
		_, err := repo.Products().Update(ctx, gundam)
		require.NoError(t, err)

		reloaded, err := repo.Orders().GetByID(ctx, order.ID, &user.ID)
		require.NoError(t, err)

		var frozen decimal.Decimal
		for _, item := range reloaded.Items {
			if item.ProductID == gundam.ID {
				frozen = item.Price
			}
		}
		assert.True(t, frozen.Equal(decimal.RequireFromString("50.00")),
			"frozen price %s", frozen)
		assert.True(t, reloaded.TotalAmount.Equal(decimal.RequireFromString("250.00")))
	})
}

func TestCheckoutEmptyCart(t *testing.T) {
	repo := newTestManager(t)
	ctx := context.Background()

	user := seedUser(t, repo, "empty@example.com", false)

	msg := &CheckoutMessage{
		UserID:          user.ID,
		DeliveryAddress: "somewhere",
	}

	handler := NewCheckoutHandler(repo)
	err := handler.Execute(ctx, msg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Nil(t, msg.Order())
}

func TestCheckoutRequiresAddress(t *testing.T) {
	repo := newTestManager(t)

	handler := NewCheckoutHandler(repo)
	err := handler.Execute(context.Background(), &CheckoutMessage{})
	assert.Error(t, err)
}

func TestCheckoutAbortsWhenProductVanishes(t *testing.T) {
	repo := newTestManager(t)
	ctx := context.Background()

	user := seedUser(t, repo, "unlucky@example.com", false)
	kept := seedProduct(t, repo, "RX-78-2 Gundam", "50.00", GradeHG)
	pulled := seedProduct(t, repo, "MSN-04 Sazabi", "100.00", GradeMG)

	_, err := repo.Carts().AddItem(ctx, user.ID, kept.ID, 1)
	require.NoError(t, err)
	_, err = repo.Carts().AddItem(ctx, user.ID, pulled.ID, 1)
	require.NoError(t, err)

	// the product disappears from the catalog between carting and checkout
	require.NoError(t, repo.Products().Delete(ctx, pulled.ID))

	msg := &CheckoutMessage{
		UserID:          user.ID,
		DeliveryAddress: "1-1 Gundam Front, Odaiba",
	}

	handler := NewCheckoutHandler(repo)
	err = handler.Execute(ctx, msg)
	require.Error(t, err)
	assert.True(t, repository.IsRecordNotFound(err))
	assert.Nil(t, msg.Order())

	t.Run("cart survives intact", func(t *testing.T) {
		lines, err := repo.Carts().GetByUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Len(t, lines, 2)
	})

	t.Run("no order was written", func(t *testing.T) {
		page, err := repo.Orders().ListByUser(ctx, user.ID, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, 0, page.Total)
	})
}

func TestCheckoutUsesCurrentPrices(t *testing.T) {
	repo := newTestManager(t)
	ctx := context.Background()

	user := seedUser(t, repo, "late@example.com", false)
	product := seedProduct(t, repo, "RX-0 Unicorn", "200.00", GradePG)

	_, err := repo.Carts().AddItem(ctx, user.ID, product.ID, 1)
	require.NoError(t, err)

	// the price changes between carting and checkout
	product.Price = decimal.RequireFromString("180.00")
	_, err = repo.Products().Update(ctx, product)
	require.NoError(t, err)

	msg := &CheckoutMessage{
		UserID:          user.ID,
		DeliveryAddress: "somewhere",
	}

	handler := NewCheckoutHandler(repo)
	require.NoError(t, handler.Execute(ctx, msg))

	assert.True(t, msg.Order().TotalAmount.Equal(decimal.RequireFromString("180.00")),
		"total %s", msg.Order().TotalAmount)
}
