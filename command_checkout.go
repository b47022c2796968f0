package store

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// EstimatedDeliveryWindow is how far out we promise delivery at checkout.
var EstimatedDeliveryWindow = 72 * time.Hour

type CheckoutMessage struct {
	UserID          uuid.UUID `json:"-"`
	PaymentMethod   string    `json:"payment_method"`
	DeliveryAddress string    `json:"delivery_address"`

	order *Order
}

func (e CheckoutMessage) Type() string { return "order.checkout" }

// Order returns the created snapshot after a successful Execute.
func (e CheckoutMessage) Order() *Order { return e.order }

// CheckoutHandler turns the user's cart into an immutable order snapshot.
// The whole conversion runs in one transaction: line prices are re-read from
// the catalog at execution time, the total is the sum of those lines, and the
// cart is cleared before commit.
type CheckoutHandler struct {
	repo RepositoryManager
}

func NewCheckoutHandler(repo RepositoryManager) *CheckoutHandler {
	return &CheckoutHandler{repo: repo}
}

func (h *CheckoutHandler) Execute(ctx context.Context, event *CheckoutMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during checkout",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *CheckoutHandler) execute(ctx context.Context, event *CheckoutMessage) error {
	if event.DeliveryAddress == "" {
		return goerrors.New("delivery address is required", goerrors.CategoryValidation).
			WithTextCode("MISSING_ADDRESS")
	}

	var order *Order
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		lines, err := h.repo.Carts().GetByUserTx(ctx, tx, event.UserID)
		if err != nil {
			return err
		}

		if len(lines) == 0 {
			return ErrEmptyCart
		}

		total := decimal.Zero
		items := make([]*OrderItem, 0, len(lines))

		for _, line := range lines {
			// re-read the current catalog price; the cart never stores one
			product, err := h.repo.Products().GetByIDTx(ctx, tx, line.ProductID)
			if err != nil {
				return err
			}

			item := &OrderItem{
				ProductID: product.ID,
				Quantity:  line.Quantity,
				Price:     product.Price,
			}

			total = total.Add(item.LineTotal())
			items = append(items, item)
		}

		estimated := time.Now().Add(EstimatedDeliveryWindow)

		order, err = h.repo.Orders().CreateTx(ctx, tx, &Order{
			UserID:            event.UserID,
			TotalAmount:       total,
			Status:            OrderStatusPending,
			PaymentMethod:     event.PaymentMethod,
			DeliveryAddress:   event.DeliveryAddress,
			EstimatedDelivery: &estimated,
		}, items)
		if err != nil {
			return err
		}

		return h.repo.Carts().ClearTx(ctx, tx, event.UserID)
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "checkout transaction failed")
	}

	event.order = order

	return nil
}
