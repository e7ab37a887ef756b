package domain

import (
	"time"
)

// Pagination defines standard page/limit inputs for list operations.
type Pagination struct {
	Page  int
	Limit int
}

// Page wraps a result window together with the total match count.
type Page[T any] struct {
	Items      []T
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// ProductSort indicates the ordering applied to catalog listings.
type ProductSort string

const (
	// ProductSortNewest sorts by creation time, newest first. Default.
	ProductSortNewest ProductSort = "newest"
	// ProductSortPriceAsc sorts by unit price, cheapest first.
	ProductSortPriceAsc ProductSort = "price-asc"
	// ProductSortPriceDesc sorts by unit price, most expensive first.
	ProductSortPriceDesc ProductSort = "price-desc"
	// ProductSortRating sorts by average rating, highest first.
	ProductSortRating ProductSort = "rating"
	// ProductSortPopular sorts by review count, highest first.
	ProductSortPopular ProductSort = "popular"
)

// Product is a sellable catalog item.
type Product struct {
	ID          string
	Name        string
	Description string
	Category    string
	Price       float64
	Sizes       []string
	Stock       int
	ImageURL    string
	Rating      float64
	ReviewCount int
	Keywords    []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CartItem is a single cart line. Lines merge on (ProductID, Size).
type CartItem struct {
	ID        string
	ProductID string
	Name      string
	Price     float64
	Size      string
	Quantity  int
	ImageURL  string
	AddedAt   time.Time
}

// Cart holds the working selection for one user. Carts are keyed by user ID.
type Cart struct {
	UserID    string
	Items     []CartItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Subtotal sums price * quantity across all lines.
func (c Cart) Subtotal() float64 {
	var total float64
	for _, item := range c.Items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

// OrderStatus tracks fulfillment progress.
type OrderStatus string

const (
	// OrderStatusConfirmed is the initial state of a successfully placed order.
	OrderStatusConfirmed OrderStatus = "confirmed"
	// OrderStatusProcessing indicates the order is being prepared.
	OrderStatusProcessing OrderStatus = "processing"
	// OrderStatusShipped indicates the order left the warehouse.
	OrderStatusShipped OrderStatus = "shipped"
	// OrderStatusDelivered indicates the order reached the customer.
	OrderStatusDelivered OrderStatus = "delivered"
	// OrderStatusCancelled indicates the order was cancelled before shipping.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Valid reports whether s is a known fulfillment status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusConfirmed, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// PaymentStatus tracks settlement of an order.
type PaymentStatus string

const (
	// PaymentStatusPending means no settlement has been recorded yet.
	PaymentStatusPending PaymentStatus = "pending"
	// PaymentStatusPaid means an online payment was verified or delivery completed.
	PaymentStatusPaid PaymentStatus = "paid"
	// PaymentStatusCOD marks cash-on-delivery orders awaiting collection.
	PaymentStatusCOD PaymentStatus = "cod"
)

// PaymentMethod enumerates how a customer settles an order.
type PaymentMethod string

const (
	// PaymentMethodCOD is cash on delivery.
	PaymentMethodCOD PaymentMethod = "cod"
	// PaymentMethodOnline is a provider-verified online payment.
	PaymentMethodOnline PaymentMethod = "online"
)

// OrderItem snapshots a purchased line at checkout time.
type OrderItem struct {
	ProductID string
	Name      string
	Price     float64
	Size      string
	Quantity  int
	ImageURL  string
}

// ShippingAddress is the destination captured on an order.
type ShippingAddress struct {
	FullName   string
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
	Phone      string
}

// Order is a placed purchase.
type Order struct {
	ID                 string
	UserID             string
	Email              string
	Items              []OrderItem
	Subtotal           float64
	ShippingFee        float64
	Total              float64
	Status             OrderStatus
	PaymentStatus      PaymentStatus
	PaymentMethod      PaymentMethod
	PaymentID          string
	ShippingAddress    ShippingAddress
	TrackingNumber     string
	EstimatedDelivery  time.Time
	CancelledAt        *time.Time
	CancellationReason string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Address is a saved entry in a user's address book.
type Address struct {
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

// User is the profile document backing an authenticated identity.
type User struct {
	UID       string
	Email     string
	Name      string
	Roles     []string
	Addresses []Address
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsAdmin reports whether the user carries the admin role.
func (u User) IsAdmin() bool {
	for _, role := range u.Roles {
		if role == "admin" {
			return true
		}
	}
	return false
}

// Sale is a discounted catalog entry shown while its sale mode is active.
type Sale struct {
	ID          string
	Name        string
	Description string
	Category    string
	Price       float64
	SalePrice   float64
	Discount    float64
	Sizes       []string
	Stock       int
	ImageURL    string
	SaleMode    string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SaleMode is a named storefront campaign. At most one mode is active at a time.
type SaleMode struct {
	ID        string
	Name      string
	Title     string
	Banner    string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AdminStats aggregates back-office dashboard figures.
type AdminStats struct {
	TotalUsers   int64
	TotalOrders  int64
	TotalRevenue float64
	RecentOrders []Order
}
