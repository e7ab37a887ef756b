package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/swiftcart/api/internal/domain"
	pfirestore "github.com/swiftcart/api/internal/platform/firestore"
	"github.com/swiftcart/api/internal/repositories"
)

const (
	orderCollection = "orders"

	defaultOrderPageSize = 10
	maxOrderPageSize     = 50
)

// OrderRepository persists placed orders within Firestore.
type OrderRepository struct {
	base *pfirestore.BaseRepository[orderDocument]
}

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[orderDocument](provider, orderCollection)
	return &OrderRepository{base: base}, nil
}

// Insert creates the order document. The ID must already be assigned.
func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) error {
	if r == nil || r.base == nil {
		return errors.New("order repository not initialised")
	}
	id := strings.TrimSpace(order.ID)
	if id == "" {
		return errors.New("order repository: order id is required")
	}
	_, err := r.base.Create(ctx, id, newOrderDocument(order))
	return err
}

// Update overwrites the stored order document.
func (r *OrderRepository) Update(ctx context.Context, order domain.Order) error {
	if r == nil || r.base == nil {
		return errors.New("order repository not initialised")
	}
	id := strings.TrimSpace(order.ID)
	if id == "" {
		return errors.New("order repository: order id is required")
	}
	_, err := r.base.Set(ctx, id, newOrderDocument(order))
	return err
}

// FindByID loads a single order.
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if r == nil || r.base == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	doc, err := r.base.Get(ctx, strings.TrimSpace(orderID))
	if err != nil {
		return domain.Order{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

// List returns orders newest first, optionally narrowed by user and status.
func (r *OrderRepository) List(ctx context.Context, filter repositories.OrderListFilter) (domain.Page[domain.Order], error) {
	if r == nil || r.base == nil {
		return domain.Page[domain.Order]{}, errors.New("order repository not initialised")
	}

	userID := strings.TrimSpace(filter.UserID)
	status := strings.TrimSpace(string(filter.Status))

	docs, err := r.base.Query(ctx, func(query firestore.Query) firestore.Query {
		if userID != "" {
			query = query.Where("userId", "==", userID)
		}
		if status != "" {
			query = query.Where("status", "==", status)
		}
		return query.OrderBy("createdAt", firestore.Desc)
	})
	if err != nil {
		return domain.Page[domain.Order]{}, err
	}

	orders := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		orders = append(orders, doc.Data.toDomain(doc.ID))
	}

	page := filter.Pagination.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Pagination.Limit
	if limit <= 0 {
		limit = defaultOrderPageSize
	}
	if limit > maxOrderPageSize {
		limit = maxOrderPageSize
	}

	total := int64(len(orders))
	start := (page - 1) * limit
	if start > len(orders) {
		start = len(orders)
	}
	end := start + limit
	if end > len(orders) {
		end = len(orders)
	}

	totalPages := int(total) / limit
	if int(total)%limit != 0 {
		totalPages++
	}

	return domain.Page[domain.Order]{
		Items:      orders[start:end],
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

// Stats sums revenue over orders that settled or were delivered.
func (r *OrderRepository) Stats(ctx context.Context) (repositories.OrderStats, error) {
	if r == nil || r.base == nil {
		return repositories.OrderStats{}, errors.New("order repository not initialised")
	}

	docs, err := r.base.Query(ctx, nil)
	if err != nil {
		return repositories.OrderStats{}, err
	}

	stats := repositories.OrderStats{TotalOrders: int64(len(docs))}
	for _, doc := range docs {
		if doc.Data.PaymentStatus == string(domain.PaymentStatusPaid) || doc.Data.Status == string(domain.OrderStatusDelivered) {
			stats.TotalRevenue += doc.Data.Total
		}
	}
	return stats, nil
}

// ListRecent returns the most recently placed orders.
func (r *OrderRepository) ListRecent(ctx context.Context, limit int) ([]domain.Order, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("order repository not initialised")
	}
	if limit <= 0 {
		limit = 5
	}

	docs, err := r.base.Query(ctx, func(query firestore.Query) firestore.Query {
		return query.OrderBy("createdAt", firestore.Desc).Limit(limit)
	})
	if err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		orders = append(orders, doc.Data.toDomain(doc.ID))
	}
	return orders, nil
}

type orderDocument struct {
	UserID             string                  `firestore:"userId"`
	Email              string                  `firestore:"email,omitempty"`
	Items              []orderItemDocument     `firestore:"items"`
	Subtotal           float64                 `firestore:"subtotal"`
	ShippingFee        float64                 `firestore:"shippingFee"`
	Total              float64                 `firestore:"total"`
	Status             string                  `firestore:"status"`
	PaymentStatus      string                  `firestore:"paymentStatus"`
	PaymentMethod      string                  `firestore:"paymentMethod"`
	PaymentID          string                  `firestore:"paymentId,omitempty"`
	ShippingAddress    shippingAddressDocument `firestore:"shippingAddress"`
	TrackingNumber     string                  `firestore:"trackingNumber,omitempty"`
	EstimatedDelivery  time.Time               `firestore:"estimatedDelivery"`
	CancelledAt        *time.Time              `firestore:"cancelledAt,omitempty"`
	CancellationReason string                  `firestore:"cancellationReason,omitempty"`
	CreatedAt          time.Time               `firestore:"createdAt"`
	UpdatedAt          time.Time               `firestore:"updatedAt"`
}

type orderItemDocument struct {
	ProductID string  `firestore:"productId"`
	Name      string  `firestore:"name"`
	Price     float64 `firestore:"price"`
	Size      string  `firestore:"size,omitempty"`
	Quantity  int     `firestore:"quantity"`
	ImageURL  string  `firestore:"imageUrl,omitempty"`
}

type shippingAddressDocument struct {
	FullName   string `firestore:"fullName"`
	Line1      string `firestore:"line1"`
	Line2      string `firestore:"line2,omitempty"`
	City       string `firestore:"city"`
	State      string `firestore:"state"`
	PostalCode string `firestore:"postalCode"`
	Country    string `firestore:"country"`
	Phone      string `firestore:"phone,omitempty"`
}

func newOrderDocument(order domain.Order) orderDocument {
	doc := orderDocument{
		UserID:             strings.TrimSpace(order.UserID),
		Email:              strings.TrimSpace(order.Email),
		Items:              make([]orderItemDocument, 0, len(order.Items)),
		Subtotal:           order.Subtotal,
		ShippingFee:        order.ShippingFee,
		Total:              order.Total,
		Status:             string(order.Status),
		PaymentStatus:      string(order.PaymentStatus),
		PaymentMethod:      string(order.PaymentMethod),
		PaymentID:          strings.TrimSpace(order.PaymentID),
		TrackingNumber:     strings.TrimSpace(order.TrackingNumber),
		EstimatedDelivery:  order.EstimatedDelivery.UTC(),
		CancellationReason: strings.TrimSpace(order.CancellationReason),
		CreatedAt:          order.CreatedAt.UTC(),
		UpdatedAt:          order.UpdatedAt.UTC(),
		ShippingAddress: shippingAddressDocument{
			FullName:   order.ShippingAddress.FullName,
			Line1:      order.ShippingAddress.Line1,
			Line2:      order.ShippingAddress.Line2,
			City:       order.ShippingAddress.City,
			State:      order.ShippingAddress.State,
			PostalCode: order.ShippingAddress.PostalCode,
			Country:    order.ShippingAddress.Country,
			Phone:      order.ShippingAddress.Phone,
		},
	}
	if order.CancelledAt != nil {
		cancelled := order.CancelledAt.UTC()
		doc.CancelledAt = &cancelled
	}
	for _, item := range order.Items {
		doc.Items = append(doc.Items, orderItemDocument{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Size:      item.Size,
			Quantity:  item.Quantity,
			ImageURL:  item.ImageURL,
		})
	}
	return doc
}

func (d orderDocument) toDomain(id string) domain.Order {
	order := domain.Order{
		ID:                 id,
		UserID:             d.UserID,
		Email:              d.Email,
		Items:              make([]domain.OrderItem, 0, len(d.Items)),
		Subtotal:           d.Subtotal,
		ShippingFee:        d.ShippingFee,
		Total:              d.Total,
		Status:             domain.OrderStatus(d.Status),
		PaymentStatus:      domain.PaymentStatus(d.PaymentStatus),
		PaymentMethod:      domain.PaymentMethod(d.PaymentMethod),
		PaymentID:          d.PaymentID,
		TrackingNumber:     d.TrackingNumber,
		EstimatedDelivery:  d.EstimatedDelivery,
		CancelledAt:        d.CancelledAt,
		CancellationReason: d.CancellationReason,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
		ShippingAddress: domain.ShippingAddress{
			FullName:   d.ShippingAddress.FullName,
			Line1:      d.ShippingAddress.Line1,
			Line2:      d.ShippingAddress.Line2,
			City:       d.ShippingAddress.City,
			State:      d.ShippingAddress.State,
			PostalCode: d.ShippingAddress.PostalCode,
			Country:    d.ShippingAddress.Country,
			Phone:      d.ShippingAddress.Phone,
		},
	}
	for _, item := range d.Items {
		order.Items = append(order.Items, domain.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Size:      item.Size,
			Quantity:  item.Quantity,
			ImageURL:  item.ImageURL,
		})
	}
	return order
}

var _ repositories.OrderRepository = (*OrderRepository)(nil)
