package store

import (
	"context"
	"database/sql"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Products is the catalog repository.
type Products interface {
	Create(ctx context.Context, record *Product) (*Product, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)
	GetByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Product, error)
	Update(ctx context.Context, record *Product) (*Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, query ProductQuery) (*ProductPage, error)
	FilterOptions(ctx context.Context) (*FilterOptions, error)
}

type products struct {
	db *bun.DB
}

var _ Products = (*products)(nil)

func NewProductsRepository(db *bun.DB) Products {
	return &products{db: db}
}

func (r *products) Create(ctx context.Context, record *Product) (*Product, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	_, err := r.db.NewInsert().
		Model(record).
		Exec(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to create product")
	}

	return record, nil
}

func (r *products) GetByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	return r.GetByIDTx(ctx, r.db, id)
}

func (r *products) GetByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Product, error) {
	record := &Product{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows || repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"product_id": id.String(),
				})
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load product")
	}

	return record, nil
}

func (r *products) Update(ctx context.Context, record *Product) (*Product, error) {
	res, err := r.db.NewUpdate().
		Model(record).
		WherePK().
		OmitZero().
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to update product")
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"product_id": record.ID.String(),
			})
	}

	return record, nil
}

// Delete removes the product for good. Order lines keep their frozen copy of
// the price so history survives catalog deletes.
func (r *products) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*Product)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to delete product")
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"product_id": id.String(),
			})
	}

	return nil
}

func (r *products) List(ctx context.Context, query ProductQuery) (*ProductPage, error) {
	if err := query.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "invalid product query")
	}

	items := []*Product{}

	sel := r.db.NewSelect().Model(&items)
	sel = query.Apply(sel)
	sel = query.ApplyOrder(sel)
	sel = query.ApplyPagination(sel)

	total, err := sel.ScanAndCount(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to list products")
	}

	return &ProductPage{
		Items:    items,
		PageMeta: NewPageMeta(total, query.page(), query.size()),
	}, nil
}

// FilterOptions reports the distinct filterable values present in the catalog.
func (r *products) FilterOptions(ctx context.Context) (*FilterOptions, error) {
	opts := &FilterOptions{
		Grades:        []string{},
		Manufacturers: []string{},
		Series:        []string{},
	}

	if err := r.db.NewSelect().
		Model((*Product)(nil)).
		ColumnExpr("DISTINCT ?TableAlias.grade").
		OrderExpr("?TableAlias.grade ASC").
		Scan(ctx, &opts.Grades); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load grade options")
	}

	if err := r.db.NewSelect().
		Model((*Product)(nil)).
		ColumnExpr("DISTINCT ?TableAlias.manufacturer").
		OrderExpr("?TableAlias.manufacturer ASC").
		Scan(ctx, &opts.Manufacturers); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load manufacturer options")
	}

	if err := r.db.NewSelect().
		Model((*Product)(nil)).
		ColumnExpr("DISTINCT ?TableAlias.series").
		Where("?TableAlias.series <> ''").
		OrderExpr("?TableAlias.series ASC").
		Scan(ctx, &opts.Series); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load series options")
	}

	var minPrice, maxPrice decimal.NullDecimal
	var minDifficulty, maxDifficulty sql.NullInt64

	if err := r.db.NewSelect().
		Model((*Product)(nil)).
		ColumnExpr("MIN(?TableAlias.price)").
		ColumnExpr("MAX(?TableAlias.price)").
		ColumnExpr("MIN(?TableAlias.difficulty)").
		ColumnExpr("MAX(?TableAlias.difficulty)").
		Scan(ctx, &minPrice, &maxPrice, &minDifficulty, &maxDifficulty); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load price bounds")
	}

	if minPrice.Valid {
		opts.MinPrice = &minPrice.Decimal
	}
	if maxPrice.Valid {
		opts.MaxPrice = &maxPrice.Decimal
	}
	if minDifficulty.Valid {
		v := int(minDifficulty.Int64)
		opts.MinDifficulty = &v
	}
	if maxDifficulty.Valid {
		v := int(maxDifficulty.Int64)
		opts.MaxDifficulty = &v
	}

	return opts, nil
}
