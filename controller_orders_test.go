package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ordersHarness struct {
	repo  RepositoryManager
	authn *Auther
	app   *fiber.App
}

func newOrdersHarness(t *testing.T) *ordersHarness {
	t.Helper()

	repo := newTestManager(t)
	cfg := AuthConfig{SigningKey: testSigningKey}

	provider := NewUserProvider(dbUserTracker{users: repo.Users()})
	authn := NewAuthenticator(provider, cfg)

	route, err := NewHTTPAuthenticator(authn, cfg)
	require.NoError(t, err)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(nil)})
	RegisterOrderRoutes(app, NewOrdersController(repo, route))

	return &ordersHarness{repo: repo, authn: authn, app: app}
}

func (h *ordersHarness) token(t *testing.T, email string) string {
	t.Helper()

	token, err := h.authn.Login(context.Background(), email, "correct horse battery staple")
	require.NoError(t, err)
	return token
}

func (h *ordersHarness) get(t *testing.T, path, token string) *http.Response {
	t.Helper()

	req := httptest.NewRequest("GET", path, nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := h.app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestOrderStatusListingScopedToCaller(t *testing.T) {
	h := newOrdersHarness(t)

	buyer := seedUser(t, h.repo, "garma@zeon.example", false)
	rival := seedUser(t, h.repo, "dozle@zeon.example", false)
	admin := seedUser(t, h.repo, "degwin@zeon.example", true)

	seedOrder(t, h.repo, buyer.ID, OrderStatusShipped, "20.00")
	seedOrder(t, h.repo, buyer.ID, OrderStatusPending, "10.00")
	seedOrder(t, h.repo, rival.ID, OrderStatusShipped, "30.00")

	decodePage := func(t *testing.T, resp *http.Response) OrderPage {
		t.Helper()
		var page OrderPage
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
		return page
	}

	t.Run("regular user sees only their own orders", func(t *testing.T) {
		resp := h.get(t, "/order/status/shipped", h.token(t, buyer.Email))
		require.Equal(t, http.StatusOK, resp.StatusCode)

		page := decodePage(t, resp)
		require.Equal(t, 1, page.Total)
		assert.Equal(t, buyer.ID, page.Items[0].UserID)
		assert.Equal(t, OrderStatusShipped, page.Items[0].Status)
	})

	t.Run("admin sees every user", func(t *testing.T) {
		resp := h.get(t, "/order/status/shipped", h.token(t, admin.Email))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, 2, decodePage(t, resp).Total)
	})

	t.Run("unknown status answers 400", func(t *testing.T) {
		resp := h.get(t, "/order/status/refunded", h.token(t, buyer.Email))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestCartSummaryRoute(t *testing.T) {
	h := newOrdersHarness(t)
	ctx := context.Background()

	user := seedUser(t, h.repo, "shiro@federation.example", false)
	gundam := seedProduct(t, h.repo, "RX-78-2 Gundam", "50.00", GradeHG)
	sazabi := seedProduct(t, h.repo, "MSN-04 Sazabi", "100.00", GradeMG)

	_, err := h.repo.Carts().AddItem(ctx, user.ID, gundam.ID, 2)
	require.NoError(t, err)
	_, err = h.repo.Carts().AddItem(ctx, user.ID, sazabi.ID, 1)
	require.NoError(t, err)

	resp := h.get(t, "/order/cart/summary", h.token(t, user.Email))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		ItemsCount  int             `json:"items_count"`
		TotalAmount decimal.Decimal `json:"total_amount"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	assert.Equal(t, 3, body.ItemsCount)
	assert.True(t, body.TotalAmount.Equal(decimal.RequireFromString("200.00")),
		"total %s", body.TotalAmount)
}

func TestOrderItemsRoute(t *testing.T) {
	h := newOrdersHarness(t)
	ctx := context.Background()

	owner := seedUser(t, h.repo, "banagher@example.com", false)
	stranger := seedUser(t, h.repo, "riddhe@example.com", false)
	product := seedProduct(t, h.repo, "RX-0 Unicorn", "200.00", GradePG)

	_, err := h.repo.Carts().AddItem(ctx, owner.ID, product.ID, 2)
	require.NoError(t, err)

	msg := &CheckoutMessage{
		UserID:          owner.ID,
		DeliveryAddress: "Industrial 7, Side 4",
	}
	require.NoError(t, NewCheckoutHandler(h.repo).Execute(ctx, msg))
	order := msg.Order()

	t.Run("owner reads the lines", func(t *testing.T) {
		resp := h.get(t, "/order/"+order.ID.String()+"/items", h.token(t, owner.Email))
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var items []*OrderItem
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&items))
		require.Len(t, items, 1)
		assert.Equal(t, product.ID, items[0].ProductID)
		assert.Equal(t, 2, items[0].Quantity)
		assert.True(t, items[0].Price.Equal(decimal.RequireFromString("200.00")))
	})

	t.Run("stranger answers not found", func(t *testing.T) {
		resp := h.get(t, "/order/"+order.ID.String()+"/items", h.token(t, stranger.Email))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
