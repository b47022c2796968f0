package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// User is the credential store record. Users are soft deleted, never removed.
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email          string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Username       string     `bun:"username,notnull,unique" json:"username,omitempty"`
	PasswordHash   string     `bun:"password_hash,notnull" json:"-"`
	FullName       string     `bun:"full_name" json:"full_name,omitempty"`
	Phone          string     `bun:"phone" json:"phone,omitempty"`
	Address        string     `bun:"address" json:"address,omitempty"`
	IsAdmin        bool       `bun:"is_admin,notnull,default:false" json:"is_admin"`
	IsActive       bool       `bun:"is_active,notnull,default:true" json:"is_active"`
	LoginAttempts  int        `bun:"login_attempts" json:"-"`
	LoginAttemptAt *time.Time `bun:"login_attempt_at" json:"-"`
	LoggedInAt     *time.Time `bun:"loggedin_at" json:"-"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"-"`
}

// DisplayName prefers the full name and falls back to the username.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// Product is a catalog record for a single model kit.
type Product struct {
	bun.BaseModel    `bun:"table:products,alias:prd"`
	ID               uuid.UUID       `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name             string          `bun:"name,notnull" json:"name"`
	Description      string          `bun:"description" json:"description,omitempty"`
	Price            decimal.Decimal `bun:"price,notnull,type:numeric(10,2)" json:"price"`
	Grade            Grade           `bun:"grade,notnull" json:"grade"`
	Manufacturer     string          `bun:"manufacturer,notnull" json:"manufacturer"`
	Series           string          `bun:"series" json:"series,omitempty"`
	Scale            string          `bun:"scale" json:"scale,omitempty"`
	Difficulty       int             `bun:"difficulty" json:"difficulty,omitempty"`
	InStock          int             `bun:"in_stock,notnull,default:0" json:"in_stock"`
	MainImage        string          `bun:"main_image" json:"main_image,omitempty"`
	AdditionalImages []string        `bun:"additional_images,type:jsonb" json:"additional_images,omitempty"`
	AverageRating    decimal.Decimal `bun:"average_rating,type:numeric(3,2)" json:"average_rating"`
	TotalReviews     int             `bun:"total_reviews,default:0" json:"total_reviews"`
	CreatedAt        *time.Time      `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt        *time.Time      `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// IsInStock reports whether at least one unit is available.
func (p *Product) IsInStock() bool {
	return p.InStock > 0
}

// RatingStars rounds the average rating to a 0-5 star count.
func (p *Product) RatingStars() int {
	f, _ := p.AverageRating.Round(0).Float64()
	return int(f)
}

// CartItem is one unpurchased line: (user, product, quantity). A repeated add
// for the same product increments quantity instead of inserting a new line.
type CartItem struct {
	bun.BaseModel `bun:"table:cart,alias:crt"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id"`
	ProductID     uuid.UUID  `bun:"product_id,notnull,type:uuid" json:"product_id"`
	Quantity      int        `bun:"quantity,notnull,default:1" json:"quantity"`
	Product       *Product   `bun:"rel:has-one,join:product_id=id" json:"product,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Order is an immutable checkout snapshot. TotalAmount equals the sum of its
// line totals at creation time and is never recomputed; line prices are frozen
// and decoupled from later catalog price changes.
type Order struct {
	bun.BaseModel     `bun:"table:orders,alias:ord"`
	ID                uuid.UUID       `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID            uuid.UUID       `bun:"user_id,notnull,type:uuid" json:"user_id"`
	TotalAmount       decimal.Decimal `bun:"total_amount,notnull,type:numeric(10,2)" json:"total_amount"`
	Status            OrderStatus     `bun:"status,notnull" json:"status"`
	PaymentMethod     string          `bun:"payment_method" json:"payment_method,omitempty"`
	PaymentID         string          `bun:"payment_id" json:"payment_id,omitempty"`
	DeliveryAddress   string          `bun:"delivery_address,notnull" json:"delivery_address"`
	EstimatedDelivery *time.Time      `bun:"estimated_delivery" json:"estimated_delivery,omitempty"`
	Items             []*OrderItem    `bun:"rel:has-many,join:id=order_id" json:"items,omitempty"`
	CreatedAt         *time.Time      `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt         *time.Time      `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// OrderItem is one line of an order with the price frozen at checkout.
type OrderItem struct {
	bun.BaseModel `bun:"table:order_items,alias:oit"`
	ID            uuid.UUID       `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	OrderID       uuid.UUID       `bun:"order_id,notnull,type:uuid" json:"order_id"`
	ProductID     uuid.UUID       `bun:"product_id,notnull,type:uuid" json:"product_id"`
	Quantity      int             `bun:"quantity,notnull" json:"quantity"`
	Price         decimal.Decimal `bun:"price,notnull,type:numeric(10,2)" json:"price"`
	Product       *Product        `bun:"rel:has-one,join:product_id=id" json:"product,omitempty"`
	CreatedAt     *time.Time      `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time      `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// LineTotal is price x quantity for this line.
func (i *OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
