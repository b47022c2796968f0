package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// OrderPage is one page of orders plus its pagination meta.
type OrderPage struct {
	Items []*Order `json:"items"`
	PageMeta
}

// OrderStats aggregates order counts and delivered revenue. Revenue and the
// average only count delivered orders; the month fields cover the current
// calendar month.
type OrderStats struct {
	TotalOrders       int                 `json:"total_orders"`
	ByStatus          map[OrderStatus]int `json:"by_status"`
	TotalRevenue      decimal.Decimal     `json:"total_revenue"`
	AverageOrderValue decimal.Decimal     `json:"average_order_value"`
	OrdersThisMonth   int                 `json:"orders_this_month"`
	RevenueThisMonth  decimal.Decimal     `json:"revenue_this_month"`
}

// OrderUpdate carries the fields an order accepts changes to after checkout.
// Nil fields are left untouched.
type OrderUpdate struct {
	Status            *OrderStatus `json:"status,omitempty"`
	PaymentMethod     *string      `json:"payment_method,omitempty"`
	PaymentID         *string      `json:"payment_id,omitempty"`
	DeliveryAddress   *string      `json:"delivery_address,omitempty"`
	EstimatedDelivery *time.Time   `json:"estimated_delivery,omitempty"`
}

// IsZero reports whether the update carries no changes at all.
func (u OrderUpdate) IsZero() bool {
	return u.Status == nil && u.PaymentMethod == nil &&
		u.PaymentID == nil && u.DeliveryAddress == nil &&
		u.EstimatedDelivery == nil
}

// Orders is the order repository. Orders are checkout snapshots: they are
// created inside the checkout transaction; afterwards only status, payment,
// and delivery fields ever change, and only while the lifecycle allows it.
type Orders interface {
	CreateTx(ctx context.Context, tx bun.IDB, order *Order, items []*OrderItem) (*Order, error)
	GetByID(ctx context.Context, id uuid.UUID, userID *uuid.UUID) (*Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page, size int) (*OrderPage, error)
	ListByStatus(ctx context.Context, status OrderStatus, userID *uuid.UUID, page, size int) (*OrderPage, error)
	Update(ctx context.Context, id uuid.UUID, userID *uuid.UUID, changes OrderUpdate) (*Order, error)
	Cancel(ctx context.Context, id uuid.UUID, userID *uuid.UUID) (*Order, error)
	Stats(ctx context.Context, userID *uuid.UUID) (*OrderStats, error)
}

type orders struct {
	db *bun.DB
}

var _ Orders = (*orders)(nil)

func NewOrdersRepository(db *bun.DB) Orders {
	return &orders{db: db}
}

// CreateTx inserts the order header and its lines in the caller's transaction.
func (r *orders) CreateTx(ctx context.Context, tx bun.IDB, order *Order, items []*OrderItem) (*Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}

	if _, err := tx.NewInsert().Model(order).Exec(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to create order")
	}

	for _, item := range items {
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.OrderID = order.ID
	}

	if len(items) > 0 {
		if _, err := tx.NewInsert().Model(&items).Exec(ctx); err != nil {
			return nil, errors.Wrap(err, errors.CategoryInternal, "failed to create order lines")
		}
	}

	order.Items = items

	return order, nil
}

// GetByID loads an order with its lines. A non-nil userID scopes the lookup
// so another user's order answers not-found rather than forbidden.
func (r *orders) GetByID(ctx context.Context, id uuid.UUID, userID *uuid.UUID) (*Order, error) {
	record := &Order{}
	q := r.db.NewSelect().
		Model(record).
		Relation("Items").
		Relation("Items.Product").
		Where("?TableAlias.id = ?", id)

	if userID != nil {
		q = q.Where("?TableAlias.user_id = ?", *userID)
	}

	err := q.Limit(1).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows || repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"order_id": id.String(),
				})
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load order")
	}

	return record, nil
}

func (r *orders) ListByUser(ctx context.Context, userID uuid.UUID, page, size int) (*OrderPage, error) {
	return r.list(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.user_id = ?", userID)
	}, page, size)
}

// ListByStatus pages orders in one lifecycle state. A non-nil userID scopes
// the listing to that user's orders; nil lists across the whole store.
func (r *orders) ListByStatus(ctx context.Context, status OrderStatus, userID *uuid.UUID, page, size int) (*OrderPage, error) {
	if status != "" && !IsValidOrderStatus(status) {
		return nil, errors.New("unknown order status", errors.CategoryValidation)
	}

	return r.list(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		if userID != nil {
			q = q.Where("?TableAlias.user_id = ?", *userID)
		}
		if status == "" {
			return q
		}
		return q.Where("?TableAlias.status = ?", status)
	}, page, size)
}

func (r *orders) list(ctx context.Context, filter func(*bun.SelectQuery) *bun.SelectQuery, page, size int) (*OrderPage, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}

	items := []*Order{}
	q := r.db.NewSelect().
		Model(&items).
		Relation("Items").
		Relation("Items.Product").
		Order("ord.created_at DESC").
		Limit(size).
		Offset((page - 1) * size)

	total, err := filter(q).ScanAndCount(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to list orders")
	}

	return &OrderPage{
		Items:    items,
		PageMeta: NewPageMeta(total, page, size),
	}, nil
}

// Update applies post-checkout changes. Shipped and delivered orders are
// terminal for callers; they reject any further change.
func (r *orders) Update(ctx context.Context, id uuid.UUID, userID *uuid.UUID, changes OrderUpdate) (*Order, error) {
	if changes.IsZero() {
		return r.GetByID(ctx, id, userID)
	}

	if changes.Status != nil && !IsValidOrderStatus(*changes.Status) {
		return nil, errors.New("unknown order status", errors.CategoryValidation)
	}

	current, err := r.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if !CanModify(current.Status) {
		return nil, ErrOrderLocked
	}

	upd := r.db.NewUpdate().
		Model((*Order)(nil)).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id)

	if changes.Status != nil {
		upd = upd.Set("status = ?", *changes.Status)
	}
	if changes.PaymentMethod != nil {
		upd = upd.Set("payment_method = ?", *changes.PaymentMethod)
	}
	if changes.PaymentID != nil {
		upd = upd.Set("payment_id = ?", *changes.PaymentID)
	}
	if changes.DeliveryAddress != nil {
		upd = upd.Set("delivery_address = ?", *changes.DeliveryAddress)
	}
	if changes.EstimatedDelivery != nil {
		upd = upd.Set("estimated_delivery = ?", *changes.EstimatedDelivery)
	}

	if _, err := upd.Exec(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to update order")
	}

	return r.GetByID(ctx, id, userID)
}

// Cancel marks the order cancelled, subject to the same lifecycle lock.
func (r *orders) Cancel(ctx context.Context, id uuid.UUID, userID *uuid.UUID) (*Order, error) {
	current, err := r.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if !CanModify(current.Status) {
		return nil, ErrOrderLocked
	}

	if _, err := r.db.NewUpdate().
		Model((*Order)(nil)).
		Set("status = ?", OrderStatusCancelled).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to cancel order")
	}

	return r.GetByID(ctx, id, userID)
}

// Stats aggregates counts and delivered revenue, optionally scoped to one
// user. A nil userID reports over the whole store.
func (r *orders) Stats(ctx context.Context, userID *uuid.UUID) (*OrderStats, error) {
	stats := &OrderStats{
		ByStatus:          map[OrderStatus]int{},
		TotalRevenue:      decimal.Zero,
		AverageOrderValue: decimal.Zero,
		RevenueThisMonth:  decimal.Zero,
	}

	scope := func(q *bun.SelectQuery) *bun.SelectQuery {
		if userID != nil {
			return q.Where("?TableAlias.user_id = ?", *userID)
		}
		return q
	}

	var rows []struct {
		Status OrderStatus `bun:"status"`
		Count  int         `bun:"count"`
	}

	if err := scope(r.db.NewSelect().
		Model((*Order)(nil)).
		ColumnExpr("?TableAlias.status AS status").
		ColumnExpr("COUNT(*) AS count").
		GroupExpr("?TableAlias.status")).
		Scan(ctx, &rows); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to count orders by status")
	}

	for _, row := range rows {
		stats.ByStatus[row.Status] = row.Count
		stats.TotalOrders += row.Count
	}

	var revenue decimal.NullDecimal
	var deliveredCount int

	if err := scope(r.db.NewSelect().
		Model((*Order)(nil)).
		ColumnExpr("COALESCE(SUM(?TableAlias.total_amount), 0)").
		ColumnExpr("COUNT(*)").
		Where("?TableAlias.status = ?", OrderStatusDelivered)).
		Scan(ctx, &revenue, &deliveredCount); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to sum delivered revenue")
	}

	if revenue.Valid {
		stats.TotalRevenue = revenue.Decimal
	}
	if deliveredCount > 0 {
		stats.AverageOrderValue = stats.TotalRevenue.
			Div(decimal.NewFromInt(int64(deliveredCount))).
			Round(2)
	}

	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	var monthRevenue decimal.NullDecimal

	if err := scope(r.db.NewSelect().
		Model((*Order)(nil)).
		ColumnExpr("COUNT(*)").
		Where("?TableAlias.created_at >= ?", monthStart)).
		Scan(ctx, &stats.OrdersThisMonth); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to count orders this month")
	}

	if err := scope(r.db.NewSelect().
		Model((*Order)(nil)).
		ColumnExpr("COALESCE(SUM(?TableAlias.total_amount), 0)").
		Where("?TableAlias.status = ?", OrderStatusDelivered).
		Where("?TableAlias.created_at >= ?", monthStart)).
		Scan(ctx, &monthRevenue); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to sum revenue this month")
	}

	if monthRevenue.Valid {
		stats.RevenueThisMonth = monthRevenue.Decimal
	}

	return stats, nil
}
