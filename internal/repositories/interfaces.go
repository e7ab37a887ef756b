package repositories

import (
	"context"
	"time"

	domain "github.com/swiftcart/api/internal/domain"
)

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// ProductListFilter narrows catalog listings.
type ProductListFilter struct {
	Category   string
	Keywords   []string
	MinPrice   *float64
	MaxPrice   *float64
	Sizes      []string
	Sort       domain.ProductSort
	Pagination domain.Pagination
}

// StockAdjustment is one conditional stock change applied inside a transaction.
type StockAdjustment struct {
	ProductID string
	Delta     int
}

// ProductRepository persists catalog products.
type ProductRepository interface {
	Insert(ctx context.Context, product domain.Product) error
	Update(ctx context.Context, product domain.Product) error
	Delete(ctx context.Context, productID string) error
	FindByID(ctx context.Context, productID string) (domain.Product, error)
	List(ctx context.Context, filter ProductListFilter) (domain.Page[domain.Product], error)
	ListNewest(ctx context.Context, limit int) ([]domain.Product, error)
	// AdjustStock applies every adjustment atomically. A negative delta that
	// would take stock below zero fails the whole batch with a conflict.
	AdjustStock(ctx context.Context, adjustments []StockAdjustment) error
}

// CartRepository persists per-user carts keyed by user ID. Carts are never
// deleted; clearing one saves it back with no items.
type CartRepository interface {
	Get(ctx context.Context, userID string) (domain.Cart, error)
	Save(ctx context.Context, cart domain.Cart) error
}

// OrderListFilter narrows order listings.
type OrderListFilter struct {
	UserID     string
	Status     domain.OrderStatus
	Pagination domain.Pagination
}

// OrderStats aggregates revenue figures for the back office.
type OrderStats struct {
	TotalOrders  int64
	TotalRevenue float64
}

// OrderRepository persists placed orders.
type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) error
	Update(ctx context.Context, order domain.Order) error
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	List(ctx context.Context, filter OrderListFilter) (domain.Page[domain.Order], error)
	// Stats sums orders whose payment settled or that were delivered.
	Stats(ctx context.Context) (OrderStats, error)
	ListRecent(ctx context.Context, limit int) ([]domain.Order, error)
}

// UserRepository persists profile documents keyed by the identity UID.
type UserRepository interface {
	Insert(ctx context.Context, user domain.User) error
	Update(ctx context.Context, user domain.User) error
	FindByUID(ctx context.Context, uid string) (domain.User, error)
	Count(ctx context.Context) (int64, error)
}

// SaleListFilter narrows sale listings.
type SaleListFilter struct {
	ActiveOnly bool
	SaleMode   string
}

// SaleRepository persists discounted catalog entries.
type SaleRepository interface {
	Insert(ctx context.Context, sale domain.Sale) error
	Update(ctx context.Context, sale domain.Sale) error
	Delete(ctx context.Context, saleID string) error
	FindByID(ctx context.Context, saleID string) (domain.Sale, error)
	List(ctx context.Context, filter SaleListFilter) ([]domain.Sale, error)
}

// SaleModeRepository persists storefront campaign switches.
type SaleModeRepository interface {
	Upsert(ctx context.Context, mode domain.SaleMode) (domain.SaleMode, error)
	List(ctx context.Context) ([]domain.SaleMode, error)
	// Toggle flips the named mode and deactivates every other mode in the
	// same transaction so at most one mode is ever active.
	Toggle(ctx context.Context, name string, now time.Time) (domain.SaleMode, error)
	Delete(ctx context.Context, name string) error
}

// HealthRepository verifies connectivity with critical dependencies.
type HealthRepository interface {
	CheckDependencies(ctx context.Context) ([]DependencyStatus, error)
}
