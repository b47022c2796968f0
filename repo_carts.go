package store

import (
	"context"
	"database/sql"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Carts is the per-user cart repository. Every operation is scoped to a user;
// one user can never see or mutate another user's lines.
type Carts interface {
	GetByUser(ctx context.Context, userID uuid.UUID) ([]*CartItem, error)
	GetByUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) ([]*CartItem, error)
	AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*CartItem, error)
	UpdateItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*CartItem, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
	ClearTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) error
}

type carts struct {
	db       *bun.DB
	products Products
}

var _ Carts = (*carts)(nil)

func NewCartsRepository(db *bun.DB, products Products) Carts {
	return &carts{db: db, products: products}
}

func (r *carts) GetByUser(ctx context.Context, userID uuid.UUID) ([]*CartItem, error) {
	return r.GetByUserTx(ctx, r.db, userID)
}

func (r *carts) GetByUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) ([]*CartItem, error) {
	items := []*CartItem{}
	err := tx.NewSelect().
		Model(&items).
		Relation("Product").
		Where("?TableAlias.user_id = ?", userID).
		Order("crt.created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load cart")
	}

	return items, nil
}

// AddItem puts a product in the cart. Adding a product already present
// increments that line's quantity instead of inserting a second line.
func (r *carts) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*CartItem, error) {
	if quantity < 1 {
		return nil, errors.New("quantity must be at least 1", errors.CategoryValidation)
	}

	// the product has to exist before it can be carted
	if _, err := r.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}

	existing := &CartItem{}
	err := r.db.NewSelect().
		Model(existing).
		Where("?TableAlias.user_id = ?", userID).
		Where("?TableAlias.product_id = ?", productID).
		Limit(1).
		Scan(ctx)

	if err == nil {
		existing.Quantity += quantity
		if _, err := r.db.NewUpdate().
			Model(existing).
			Column("quantity", "updated_at").
			WherePK().
			Exec(ctx); err != nil {
			return nil, errors.Wrap(err, errors.CategoryInternal, "failed to increment cart line")
		}
		return r.getItem(ctx, userID, existing.ID)
	}

	if err != sql.ErrNoRows && !repository.IsRecordNotFound(err) {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to inspect cart")
	}

	record := &CartItem{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	}

	if _, err := r.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to add cart line")
	}

	return r.getItem(ctx, userID, record.ID)
}

func (r *carts) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*CartItem, error) {
	if quantity < 1 {
		return nil, errors.New("quantity must be at least 1", errors.CategoryValidation)
	}

	res, err := r.db.NewUpdate().
		Model((*CartItem)(nil)).
		Set("quantity = ?", quantity).
		Where("id = ?", itemID).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to update cart line")
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"cart_item_id": itemID.String(),
			})
	}

	return r.getItem(ctx, userID, itemID)
}

func (r *carts) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*CartItem)(nil)).
		Where("id = ?", itemID).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to remove cart line")
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"cart_item_id": itemID.String(),
			})
	}

	return nil
}

func (r *carts) Clear(ctx context.Context, userID uuid.UUID) error {
	return r.ClearTx(ctx, r.db, userID)
}

// ClearTx empties the cart. Clearing an already empty cart is not an error.
func (r *carts) ClearTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) error {
	_, err := tx.NewDelete().
		Model((*CartItem)(nil)).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to clear cart")
	}

	return nil
}

func (r *carts) getItem(ctx context.Context, userID, itemID uuid.UUID) (*CartItem, error) {
	record := &CartItem{}
	err := r.db.NewSelect().
		Model(record).
		Relation("Product").
		Where("?TableAlias.id = ?", itemID).
		Where("?TableAlias.user_id = ?", userID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows || repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"cart_item_id": itemID.String(),
				})
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load cart line")
	}

	return record, nil
}
