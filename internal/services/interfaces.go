package services

import (
	"context"
	"time"

	domain "github.com/swiftcart/api/internal/domain"
	"github.com/swiftcart/api/internal/repositories"
)

// CatalogQuery captures the storefront listing parameters.
type CatalogQuery struct {
	Category string
	Search   string
	MinPrice *float64
	MaxPrice *float64
	Sizes    []string
	Sort     domain.ProductSort
	Page     int
	Limit    int
}

// ProductInput carries admin-supplied product fields. Numeric fields and
// sizes arrive as strings from multipart forms and are coerced on create.
type ProductInput struct {
	ID          string
	Name        string
	Description string
	Category    string
	Price       string
	Sizes       string
	Stock       string
	ImageData   []byte
	ImageName   string
	ImageURL    string
}

// CatalogService serves product reads through the cache and admin writes.
type CatalogService interface {
	ListProducts(ctx context.Context, query CatalogQuery) (domain.Page[domain.Product], error)
	GetProduct(ctx context.Context, productID string) (domain.Product, error)
	FeaturedProducts(ctx context.Context) ([]domain.Product, error)
	CreateProduct(ctx context.Context, input ProductInput) (domain.Product, error)
	CreateProducts(ctx context.Context, inputs []ProductInput) ([]domain.Product, error)
	UpdateProduct(ctx context.Context, input ProductInput) (domain.Product, error)
	DeleteProduct(ctx context.Context, productID string) error
}

// AddCartItemCommand adds or merges one line into the user's cart.
type AddCartItemCommand struct {
	UserID    string
	ProductID string
	Size      string
	Quantity  int
}

// UpdateCartItemCommand changes the quantity of an existing line.
type UpdateCartItemCommand struct {
	UserID   string
	ItemID   string
	Quantity int
}

// CartService manages per-user carts with live stock checks.
type CartService interface {
	GetCart(ctx context.Context, userID string) (domain.Cart, error)
	AddItem(ctx context.Context, cmd AddCartItemCommand) (domain.Cart, error)
	UpdateItemQuantity(ctx context.Context, cmd UpdateCartItemCommand) (domain.Cart, error)
	RemoveItem(ctx context.Context, userID, itemID string) (domain.Cart, error)
	ClearCart(ctx context.Context, userID string) error
}

// CreateOrderCommand places an order from the user's current cart.
type CreateOrderCommand struct {
	UserID          string
	Email           string
	PaymentMethod   domain.PaymentMethod
	ProviderOrderID string
	PaymentID       string
	Signature       string
	ShippingAddress domain.ShippingAddress
}

// OrderListQuery narrows order history listings.
type OrderListQuery struct {
	UserID string
	Status domain.OrderStatus
	Page   int
	Limit  int
}

// UpdateOrderStatusCommand is the admin-side fulfillment transition.
type UpdateOrderStatusCommand struct {
	OrderID        string
	Status         domain.OrderStatus
	TrackingNumber string
}

// OrderService runs the checkout pipeline and order lifecycle.
type OrderService interface {
	CreateOrder(ctx context.Context, cmd CreateOrderCommand) (domain.Order, error)
	GetOrder(ctx context.Context, userID, orderID string, isAdmin bool) (domain.Order, error)
	ListOrders(ctx context.Context, query OrderListQuery) (domain.Page[domain.Order], error)
	CancelOrder(ctx context.Context, userID, orderID, reason string) (domain.Order, error)

	ListAllOrders(ctx context.Context, query OrderListQuery) (domain.Page[domain.Order], error)
	UpdateOrderStatus(ctx context.Context, cmd UpdateOrderStatusCommand) (domain.Order, error)
	Stats(ctx context.Context) (domain.AdminStats, error)
}

// PaymentOrder is the provider-side order handed to the client for the
// payment handshake.
type PaymentOrder struct {
	ProviderOrderID string
	Amount          float64
	AmountMinor     int64
	Currency        string
	Receipt         string
}

// VerifyPaymentCommand carries the client's signed payment confirmation.
type VerifyPaymentCommand struct {
	ProviderOrderID string
	PaymentID       string
	Signature       string
}

// PaymentService fronts the payment provider and signature verification.
type PaymentService interface {
	CreatePaymentOrder(ctx context.Context, amount float64, receipt string) (PaymentOrder, error)
	VerifyPayment(ctx context.Context, cmd VerifyPaymentCommand) (bool, error)
}

// SaleInput carries admin-supplied sale fields, string-coerced like products.
type SaleInput struct {
	ID          string
	Name        string
	Description string
	Category    string
	Price       string
	SalePrice   string
	Sizes       string
	Stock       string
	SaleMode    string
	ImageData   []byte
	ImageName   string
	ImageURL    string
}

// SaleModeInput upserts a storefront campaign.
type SaleModeInput struct {
	Name   string
	Title  string
	Banner string
}

// SaleService serves the sale catalog and campaign switches.
type SaleService interface {
	ListSales(ctx context.Context, activeOnly bool) ([]domain.Sale, error)
	GetSale(ctx context.Context, saleID string) (domain.Sale, error)
	CreateSale(ctx context.Context, input SaleInput) (domain.Sale, error)
	UpdateSale(ctx context.Context, input SaleInput) (domain.Sale, error)
	DeleteSale(ctx context.Context, saleID string) error
	ListSaleModes(ctx context.Context) ([]domain.SaleMode, error)
	UpsertSaleMode(ctx context.Context, input SaleModeInput) (domain.SaleMode, error)
	ToggleSaleMode(ctx context.Context, name string) (domain.SaleMode, error)
	DeleteSaleMode(ctx context.Context, name string) error
}

// ResolveIdentityCommand upserts a profile from a verified token.
type ResolveIdentityCommand struct {
	UID   string
	Email string
	Name  string
	Roles []string
}

// AddressInput creates or updates an address book entry.
type AddressInput struct {
	ID         string
	FullName   string
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
	Phone      string
	IsDefault  bool
}

// UserService resolves identities into profiles and manages the address book.
type UserService interface {
	ResolveIdentity(ctx context.Context, cmd ResolveIdentityCommand) (domain.User, error)
	GetProfile(ctx context.Context, uid string) (domain.User, error)
	CountUsers(ctx context.Context) (int64, error)
	AddAddress(ctx context.Context, uid string, input AddressInput) (domain.User, error)
	UpdateAddress(ctx context.Context, uid string, input AddressInput) (domain.User, error)
	DeleteAddress(ctx context.Context, uid, addressID string) (domain.User, error)
}

// SystemHealth reports dependency probe outcomes for the health endpoint.
type SystemHealth struct {
	Healthy      bool
	Dependencies []repositories.DependencyStatus
	CheckedAt    time.Time
}

// SystemService exposes readiness information.
type SystemService interface {
	Health(ctx context.Context) (SystemHealth, error)
}

// OrderEvent is the payload published after a successful checkout.
type OrderEvent struct {
	Type       string    `json:"type"`
	OrderID    string    `json:"order_id"`
	UserID     string    `json:"user_id"`
	Email      string    `json:"email"`
	Total      float64   `json:"total"`
	OccurredAt time.Time `json:"occurred_at"`
}

// OrderEventPublisher delivers order events to async consumers, such as the
// confirmation email worker. Publishing is best-effort.
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, event OrderEvent) error
}
