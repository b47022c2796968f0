package store

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrdersGetByIDScoping(t *testing.T) {
	repo := newTestManager(t)
	ctx := context.Background()

	owner := seedUser(t, repo, "owner@example.com", false)
	other := seedUser(t, repo, "other@example.com", false)
	order := seedOrder(t, repo, owner.ID, OrderStatusPending, "100.00")

	t.Run("owner scope", func(t *testing.T) {
		loaded, err := repo.Orders().GetByID(ctx, order.ID, &owner.ID)
		require.NoError(t, err)
		assert.Equal(t, order.ID, loaded.ID)
	})

	t.Run("foreign scope answers not found", func(t *testing.T) {
		_, err := repo.Orders().GetByID(ctx, order.ID, &other.ID)
		require.Error(t, err)
		assert.True(t, repository.IsRecordNotFound(err))
	})

	t.Run("nil scope reaches any order", func(t *testing.T) {
		loaded, err := repo.Orders().GetByID(ctx, order.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, order.ID, loaded.ID)
	})
}

func TestOrdersLifecycleGuard(t *testing.T) {
	repo := newTestManager(t)
	ctx := context.Background()

	user := seedUser(t, repo, "fraw@federation.example", false)

	t.Run("pending order can be cancelled", func(t *testing.T) {
		order := seedOrder(t, repo, user.ID, OrderStatusPending, "50.00")

		cancelled, err := repo.Orders().Cancel(ctx, order.ID, &user.ID)
		require.NoError(t, err)
		assert.Equal(t, OrderStatusCancelled, cancelled.Status)
	})

	t.Run("shipped order is locked", func(t *testing.T) {
		order := seedOrder(t, repo, user.ID, OrderStatusShipped, "50.00")

		_, err := repo.Orders().Cancel(ctx, order.ID, &user.ID)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrOrderLocked)

		status := OrderStatusPending
		_, err = repo.Orders().Update(ctx, order.ID, nil, OrderUpdate{Status: &status})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrOrderLocked)
	})

	t.Run("delivered order is locked", func(t *testing.T) {
		order := seedOrder(t, repo, user.ID, OrderStatusDelivered, "50.00")

		_, err := repo.Orders().Cancel(ctx, order.ID, &user.ID)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrOrderLocked)
	})

	t.Run("confirmed order accepts updates", func(t *testing.T) {
		order := seedOrder(t, repo, user.ID, OrderStatusConfirmed, "50.00")

		status := OrderStatusShipped
		paymentID := "pay_123"
		eta := time.Now().Add(96 * time.Hour).Truncate(time.Second)
		updated, err := repo.Orders().Update(ctx, order.ID, nil, OrderUpdate{
			Status:            &status,
			PaymentID:         &paymentID,
			EstimatedDelivery: &eta,
		})
		require.NoError(t, err)
		assert.Equal(t, OrderStatusShipped, updated.Status)
		assert.Equal(t, "pay_123", updated.PaymentID)
		require.NotNil(t, updated.EstimatedDelivery)
		assert.WithinDuration(t, eta, *updated.EstimatedDelivery, time.Second)
	})

	t.Run("unknown status rejected", func(t *testing.T) {
		order := seedOrder(t, repo, user.ID, OrderStatusPending, "50.00")

		status := OrderStatus("refunded")
		_, err := repo.Orders().Update(ctx, order.ID, nil, OrderUpdate{Status: &status})
		assert.Error(t, err)
	})
}

func TestOrdersListByUser(t *testing.T) {
	repo := newTestManager(t)
	ctx := context.Background()

	user := seedUser(t, repo, "lila@example.com", false)
	other := seedUser(t, repo, "rival@example.com", false)

	for i := 0; i < 3; i++ {
		seedOrder(t, repo, user.ID, OrderStatusPending, "10.00")
	}
	seedOrder(t, repo, other.ID, OrderStatusPending, "10.00")

	page, err := repo.Orders().ListByUser(ctx, user.ID, 1, 10)
	require.NoError(t, err)

	assert.Equal(t, 3, page.Total)
	assert.Len(t, page.Items, 3)
	for _, order := range page.Items {
		assert.Equal(t, user.ID, order.UserID)
	}
}

func TestOrdersListByStatus(t *testing.T) {
	repo := newTestManager(t)
	ctx := context.Background()

	user := seedUser(t, repo, "ramba@zeon.example", false)
	other := seedUser(t, repo, "hamon@zeon.example", false)

	seedOrder(t, repo, user.ID, OrderStatusPending, "10.00")
	seedOrder(t, repo, user.ID, OrderStatusShipped, "20.00")
	seedOrder(t, repo, user.ID, OrderStatusShipped, "30.00")
	seedOrder(t, repo, other.ID, OrderStatusShipped, "40.00")

	t.Run("scoped to one user", func(t *testing.T) {
		page, err := repo.Orders().ListByStatus(ctx, OrderStatusShipped, &user.ID, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, 2, page.Total)
		for _, order := range page.Items {
			assert.Equal(t, user.ID, order.UserID)
		}
	})

	t.Run("nil scope reaches every user", func(t *testing.T) {
		page, err := repo.Orders().ListByStatus(ctx, OrderStatusShipped, nil, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, 3, page.Total)
	})

	t.Run("unknown status rejected", func(t *testing.T) {
		_, err := repo.Orders().ListByStatus(ctx, "refunded", &user.ID, 1, 10)
		assert.Error(t, err)
	})
}

func TestOrdersStats(t *testing.T) {
	repo := newTestManager(t)
	ctx := context.Background()

	user := seedUser(t, repo, "buyer@example.com", false)
	other := seedUser(t, repo, "someone@example.com", false)

	seedOrder(t, repo, user.ID, OrderStatusPending, "10.00")
	seedOrder(t, repo, user.ID, OrderStatusDelivered, "100.00")
	seedOrder(t, repo, user.ID, OrderStatusDelivered, "50.00")
	seedOrder(t, repo, user.ID, OrderStatusCancelled, "30.00")
	seedOrder(t, repo, other.ID, OrderStatusDelivered, "500.00")

	t.Run("scoped to one user", func(t *testing.T) {
		stats, err := repo.Orders().Stats(ctx, &user.ID)
		require.NoError(t, err)

		assert.Equal(t, 4, stats.TotalOrders)
		assert.Equal(t, 1, stats.ByStatus[OrderStatusPending])
		assert.Equal(t, 2, stats.ByStatus[OrderStatusDelivered])
		assert.Equal(t, 1, stats.ByStatus[OrderStatusCancelled])
		assert.True(t, stats.TotalRevenue.Equal(decimal.RequireFromString("150.00")),
			"revenue %s", stats.TotalRevenue)
		assert.True(t, stats.AverageOrderValue.Equal(decimal.RequireFromString("75.00")),
			"average %s", stats.AverageOrderValue)
		assert.Equal(t, 4, stats.OrdersThisMonth)
		assert.True(t, stats.RevenueThisMonth.Equal(decimal.RequireFromString("150.00")))
	})

	t.Run("global", func(t *testing.T) {
		stats, err := repo.Orders().Stats(ctx, nil)
		require.NoError(t, err)

		assert.Equal(t, 5, stats.TotalOrders)
		assert.True(t, stats.TotalRevenue.Equal(decimal.RequireFromString("650.00")))
	})

	t.Run("empty scope", func(t *testing.T) {
		stranger := uuid.New()
		stats, err := repo.Orders().Stats(ctx, &stranger)
		require.NoError(t, err)

		assert.Equal(t, 0, stats.TotalOrders)
		assert.True(t, stats.TotalRevenue.IsZero())
		assert.True(t, stats.AverageOrderValue.IsZero())
	})
}
