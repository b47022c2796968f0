package store

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrdersController serves the cart and order surface. Everything here runs
// behind RequireAuth; the admin routes add RequireAdmin.
type OrdersController struct {
	Repo   RepositoryManager
	Authn  *RouteAuthenticator
	Logger Logger
}

func NewOrdersController(repo RepositoryManager, authn *RouteAuthenticator) *OrdersController {
	return &OrdersController{
		Repo:   repo,
		Authn:  authn,
		Logger: defLogger{},
	}
}

func (o *OrdersController) WithLogger(l Logger) *OrdersController {
	if l != nil {
		o.Logger = l
	}
	return o
}

// RegisterOrderRoutes mounts the cart and order surface under /order. Static
// segments register before the :orderID matcher.
func RegisterOrderRoutes(app fiber.Router, ctrl *OrdersController) {
	requireAuth := ctrl.Authn.RequireAuth()
	requireAdmin := ctrl.Authn.RequireAdmin()

	group := app.Group("/order", requireAuth)

	group.Get("/cart", ctrl.CartView)
	group.Get("/cart/summary", ctrl.CartSummary)
	group.Post("/cart/add", ctrl.CartAdd)
	group.Put("/cart/:itemID", ctrl.CartUpdate)
	group.Delete("/cart/:itemID", ctrl.CartRemove)
	group.Delete("/cart", ctrl.CartClear)

	group.Post("/create", ctrl.Checkout)
	group.Get("/", ctrl.List)
	group.Get("/stats/summary", ctrl.Stats)
	group.Get("/admin/stats/global", requireAdmin, ctrl.GlobalStats)
	group.Get("/status/:status", ctrl.ListByStatus)
	group.Get("/:orderID", ctrl.Get)
	group.Get("/:orderID/items", ctrl.Items)
	group.Put("/:orderID", ctrl.Update)
	group.Patch("/:orderID/cancel", ctrl.Cancel)
}

// CartLineView is one cart line with its derived total.
type CartLineView struct {
	*CartItem
	LineTotal decimal.Decimal `json:"line_total"`
}

// CartView answers the cart lines plus aggregate totals.
func (o *OrdersController) CartView(c *fiber.Ctx) error {
	userID, err := UserIDFromContext(c)
	if err != nil {
		return err
	}

	items, err := o.Repo.Carts().GetByUser(c.UserContext(), userID)
	if err != nil {
		return err
	}

	lines := make([]CartLineView, 0, len(items))
	total := decimal.Zero
	count := 0

	for _, item := range items {
		lineTotal := decimal.Zero
		if item.Product != nil {
			lineTotal = item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		}
		total = total.Add(lineTotal)
		count += item.Quantity
		lines = append(lines, CartLineView{CartItem: item, LineTotal: lineTotal})
	}

	return c.JSON(fiber.Map{
		"items":        lines,
		"total_amount": total,
		"total_items":  count,
	})
}

// CartSummary answers the aggregate cart figures without the lines.
func (o *OrdersController) CartSummary(c *fiber.Ctx) error {
	userID, err := UserIDFromContext(c)
	if err != nil {
		return err
	}

	items, err := o.Repo.Carts().GetByUser(c.UserContext(), userID)
	if err != nil {
		return err
	}

	total := decimal.Zero
	count := 0

	for _, item := range items {
		if item.Product != nil {
			total = total.Add(item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
		count += item.Quantity
	}

	return c.JSON(fiber.Map{
		"items_count":  count,
		"total_amount": total,
	})
}

// CartAddPayload is the add-to-cart request body.
type CartAddPayload struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// Validate will validate the payload
func (r CartAddPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ProductID, validation.Required, validation.By(nonNilUUID)),
		validation.Field(&r.Quantity, validation.Min(1)),
	)
}

func nonNilUUID(value any) error {
	id, _ := value.(uuid.UUID)
	if id == uuid.Nil {
		return validation.NewError("validation_uuid", "must be a valid id")
	}
	return nil
}

func (o *OrdersController) CartAdd(c *fiber.Ctx) error {
	userID, err := UserIDFromContext(c)
	if err != nil {
		return err
	}

	payload := new(CartAddPayload)
	if err := c.BodyParser(payload); err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "failed to parse request body")
	}

	if payload.Quantity == 0 {
		payload.Quantity = 1
	}

	if err := payload.Validate(); err != nil {
		return errors.Wrap(err, errors.CategoryValidation, "invalid cart payload")
	}

	item, err := o.Repo.Carts().AddItem(c.UserContext(), userID, payload.ProductID, payload.Quantity)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(item)
}

// CartUpdatePayload is the quantity update request body.
type CartUpdatePayload struct {
	Quantity int `json:"quantity"`
}

// Validate will validate the payload
func (r CartUpdatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Quantity, validation.Required, validation.Min(1)),
	)
}

func (o *OrdersController) CartUpdate(c *fiber.Ctx) error {
	userID, err := UserIDFromContext(c)
	if err != nil {
		return err
	}

	itemID, err := parseUUIDParam(c, "itemID")
	if err != nil {
		return err
	}

	payload := new(CartUpdatePayload)
	if err := c.BodyParser(payload); err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "failed to parse request body")
	}

	if err := payload.Validate(); err != nil {
		return errors.Wrap(err, errors.CategoryValidation, "invalid cart payload")
	}

	item, err := o.Repo.Carts().UpdateItem(c.UserContext(), userID, itemID, payload.Quantity)
	if err != nil {
		return err
	}

	return c.JSON(item)
}

func (o *OrdersController) CartRemove(c *fiber.Ctx) error {
	userID, err := UserIDFromContext(c)
	if err != nil {
		return err
	}

	itemID, err := parseUUIDParam(c, "itemID")
	if err != nil {
		return err
	}

	if err := o.Repo.Carts().RemoveItem(c.UserContext(), userID, itemID); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "item removed",
	})
}

func (o *OrdersController) CartClear(c *fiber.Ctx) error {
	userID, err := UserIDFromContext(c)
	if err != nil {
		return err
	}

	if err := o.Repo.Carts().Clear(c.UserContext(), userID); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "cart cleared",
	})
}

// CheckoutPayload is the order creation request body.
type CheckoutPayload struct {
	PaymentMethod   string `json:"payment_method"`
	DeliveryAddress string `json:"delivery_address"`
}

// Validate will validate the payload
func (r CheckoutPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.DeliveryAddress, validation.Required, validation.Length(1, 500)),
		validation.Field(&r.PaymentMethod, validation.Length(0, 100)),
	)
}

func (o *OrdersController) Checkout(c *fiber.Ctx) error {
	userID, err := UserIDFromContext(c)
	if err != nil {
		return err
	}

	payload := new(CheckoutPayload)
	if err := c.BodyParser(payload); err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "failed to parse request body")
	}

	if err := payload.Validate(); err != nil {
		return errors.Wrap(err, errors.CategoryValidation, "invalid checkout payload")
	}

	msg := &CheckoutMessage{
		UserID:          userID,
		PaymentMethod:   payload.PaymentMethod,
		DeliveryAddress: payload.DeliveryAddress,
	}

	handler := NewCheckoutHandler(o.Repo)
	if err := handler.Execute(c.UserContext(), msg); err != nil {
		o.Logger.Error("checkout error", "error", err)
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(msg.Order())
}

func (o *OrdersController) List(c *fiber.Ctx) error {
	userID, err := UserIDFromContext(c)
	if err != nil {
		return err
	}

	page := c.QueryInt("page", 1)
	size := c.QueryInt("size", DefaultPageSize)

	orders, err := o.Repo.Orders().ListByUser(c.UserContext(), userID, page, size)
	if err != nil {
		return err
	}

	return c.JSON(orders)
}

func (o *OrdersController) Get(c *fiber.Ctx) error {
	scope, err := o.userScope(c)
	if err != nil {
		return err
	}

	orderID, err := parseUUIDParam(c, "orderID")
	if err != nil {
		return err
	}

	order, err := o.Repo.Orders().GetByID(c.UserContext(), orderID, scope)
	if err != nil {
		return err
	}

	return c.JSON(order)
}

// OrderUpdatePayload is the order update request body. Only admins may move
// the status; owners can adjust payment and delivery details while the order
// is still modifiable.
type OrderUpdatePayload struct {
	Status            *string    `json:"status"`
	PaymentMethod     *string    `json:"payment_method"`
	PaymentID         *string    `json:"payment_id"`
	DeliveryAddress   *string    `json:"delivery_address"`
	EstimatedDelivery *time.Time `json:"estimated_delivery"`
}

// Validate will validate the payload
func (r OrderUpdatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Status, validation.By(validOptionalStatus)),
	)
}

func validOptionalStatus(value any) error {
	s, _ := value.(*string)
	if s == nil {
		return nil
	}
	if !IsValidOrderStatus(OrderStatus(*s)) {
		return validation.NewError("validation_status", "must be a known order status")
	}
	return nil
}

func (o *OrdersController) Update(c *fiber.Ctx) error {
	identity, err := IdentityFromContext(c)
	if err != nil {
		return err
	}

	scope, err := o.userScope(c)
	if err != nil {
		return err
	}

	orderID, err := parseUUIDParam(c, "orderID")
	if err != nil {
		return err
	}

	payload := new(OrderUpdatePayload)
	if err := c.BodyParser(payload); err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "failed to parse request body")
	}

	if err := payload.Validate(); err != nil {
		return errors.Wrap(err, errors.CategoryValidation, "invalid order payload")
	}

	if payload.Status != nil && !identity.IsAdmin() {
		return ErrAdminRequired
	}

	changes := OrderUpdate{
		PaymentMethod:     payload.PaymentMethod,
		PaymentID:         payload.PaymentID,
		DeliveryAddress:   payload.DeliveryAddress,
		EstimatedDelivery: payload.EstimatedDelivery,
	}
	if payload.Status != nil {
		status := OrderStatus(*payload.Status)
		changes.Status = &status
	}

	order, err := o.Repo.Orders().Update(c.UserContext(), orderID, scope, changes)
	if err != nil {
		return err
	}

	return c.JSON(order)
}

func (o *OrdersController) Cancel(c *fiber.Ctx) error {
	scope, err := o.userScope(c)
	if err != nil {
		return err
	}

	orderID, err := parseUUIDParam(c, "orderID")
	if err != nil {
		return err
	}

	order, err := o.Repo.Orders().Cancel(c.UserContext(), orderID, scope)
	if err != nil {
		return err
	}

	return c.JSON(order)
}

// ListByStatus pages the caller's orders in one lifecycle state. Admins get
// the unscoped view across every user.
func (o *OrdersController) ListByStatus(c *fiber.Ctx) error {
	status, ok := ParseOrderStatus(c.Params("status"))
	if !ok {
		return errors.New("unknown order status", errors.CategoryValidation)
	}

	scope, err := o.userScope(c)
	if err != nil {
		return err
	}

	page := c.QueryInt("page", 1)
	size := c.QueryInt("size", DefaultPageSize)

	orders, err := o.Repo.Orders().ListByStatus(c.UserContext(), status, scope, page, size)
	if err != nil {
		return err
	}

	return c.JSON(orders)
}

// Items answers just the lines of one order.
func (o *OrdersController) Items(c *fiber.Ctx) error {
	scope, err := o.userScope(c)
	if err != nil {
		return err
	}

	orderID, err := parseUUIDParam(c, "orderID")
	if err != nil {
		return err
	}

	order, err := o.Repo.Orders().GetByID(c.UserContext(), orderID, scope)
	if err != nil {
		return err
	}

	return c.JSON(order.Items)
}

// Stats answers the caller's own order statistics.
func (o *OrdersController) Stats(c *fiber.Ctx) error {
	userID, err := UserIDFromContext(c)
	if err != nil {
		return err
	}

	stats, err := o.Repo.Orders().Stats(c.UserContext(), &userID)
	if err != nil {
		return err
	}

	return c.JSON(stats)
}

// GlobalStats answers store-wide statistics; admin only.
func (o *OrdersController) GlobalStats(c *fiber.Ctx) error {
	stats, err := o.Repo.Orders().Stats(c.UserContext(), nil)
	if err != nil {
		return err
	}

	return c.JSON(stats)
}

// userScope answers nil for admins, so they can reach any order, and the
// caller's id for everyone else.
func (o *OrdersController) userScope(c *fiber.Ctx) (*uuid.UUID, error) {
	identity, err := IdentityFromContext(c)
	if err != nil {
		return nil, err
	}

	if identity.IsAdmin() {
		return nil, nil
	}

	userID, err := UserIDFromContext(c)
	if err != nil {
		return nil, err
	}

	return &userID, nil
}
