package store

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Users() Users
	Products() Products
	Carts() Carts
	Orders() Orders
}

type mngr struct {
	db       *bun.DB
	users    Users
	products Products
	carts    Carts
	orders   Orders
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	products := NewProductsRepository(db)
	return &mngr{
		db:       db,
		users:    NewUsersRepository(db),
		products: products,
		carts:    NewCartsRepository(db, products),
		orders:   NewOrdersRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.products == nil {
		return errors.New("repository products should be initialized")
	}

	if m.carts == nil {
		return errors.New("repository carts should be initialized")
	}

	if m.orders == nil {
		return errors.New("repository orders should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Users() Users {
	return m.users
}

func (m mngr) Products() Products {
	return m.products
}

func (m mngr) Carts() Carts {
	return m.carts
}

func (m mngr) Orders() Orders {
	return m.orders
}
