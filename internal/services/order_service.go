package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/swiftcart/api/internal/domain"
	"github.com/swiftcart/api/internal/platform/cache"
	"github.com/swiftcart/api/internal/repositories"
)

// ErrOrderInvalidInput indicates the caller supplied invalid input.
var ErrOrderInvalidInput = errors.New("order service: invalid input")

// ErrOrderNotFound indicates the order does not exist or is not visible to
// the caller.
var ErrOrderNotFound = errors.New("order service: not found")

// ErrOrderConflict indicates a concurrent modification clashed.
var ErrOrderConflict = errors.New("order service: conflict")

// ErrOrderUnavailable indicates the backing store cannot fulfil the request.
var ErrOrderUnavailable = errors.New("order service: unavailable")

// ErrOrderEmptyCart indicates checkout was attempted with no cart lines.
var ErrOrderEmptyCart = errors.New("order service: cart is empty")

// ErrOrderPaymentRequired indicates the online payment confirmation did not
// verify. No order is written and no stock moves.
var ErrOrderPaymentRequired = errors.New("order service: payment verification failed")

// ErrOrderInsufficientStock indicates at least one cart line exceeds the
// live stock at checkout time.
var ErrOrderInsufficientStock = errors.New("order service: insufficient stock")

// ErrOrderCancelNotAllowed indicates the order is past the point of
// cancellation.
var ErrOrderCancelNotAllowed = errors.New("order service: cancellation not allowed")

// ErrOrderInvalidTransition indicates a disallowed fulfillment transition.
var ErrOrderInvalidTransition = errors.New("order service: invalid status transition")

const (
	freeShippingThreshold = 2000
	standardShippingFee   = 99
	deliveryEstimateDays  = 7
	recentOrderCount      = 5
)

// orderTransitions enumerates the allowed fulfillment moves. Any forward
// move is permitted, including skips straight to delivered. Delivered and
// cancelled are terminal.
var orderTransitions = map[domain.OrderStatus][]domain.OrderStatus{
	domain.OrderStatusConfirmed:  {domain.OrderStatusProcessing, domain.OrderStatusShipped, domain.OrderStatusDelivered, domain.OrderStatusCancelled},
	domain.OrderStatusProcessing: {domain.OrderStatusShipped, domain.OrderStatusDelivered, domain.OrderStatusCancelled},
	domain.OrderStatusShipped:    {domain.OrderStatusDelivered},
}

// OrderServiceDeps wires the order pipeline collaborators.
type OrderServiceDeps struct {
	Orders      repositories.OrderRepository
	Carts       repositories.CartRepository
	Products    repositories.ProductRepository
	Users       repositories.UserRepository
	Payments    PaymentService
	Publisher   OrderEventPublisher
	Cache       cache.Cache
	Clock       func() time.Time
	Logger      func(context.Context, string, map[string]any)
	IDGenerator func(now time.Time) string
}

type orderService struct {
	orders    repositories.OrderRepository
	carts     repositories.CartRepository
	products  repositories.ProductRepository
	users     repositories.UserRepository
	payments  PaymentService
	publisher OrderEventPublisher
	cache     cache.Cache
	now       func() time.Time
	newID     func(now time.Time) string
	logger    func(context.Context, string, map[string]any)
}

// NewOrderService constructs an OrderService enforcing dependency validation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}
	if deps.Carts == nil {
		return nil, errors.New("order service: cart repository is required")
	}
	if deps.Products == nil {
		return nil, errors.New("order service: product repository is required")
	}
	if deps.Users == nil {
		return nil, errors.New("order service: user repository is required")
	}
	if deps.Payments == nil {
		return nil, errors.New("order service: payment service is required")
	}
	if deps.Clock == nil {
		return nil, errors.New("order service: clock is required")
	}

	store := deps.Cache
	if store == nil {
		store = cache.NewNoopCache()
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = newOrderID
	}

	return &orderService{
		orders:    deps.Orders,
		carts:     deps.Carts,
		products:  deps.Products,
		users:     deps.Users,
		payments:  deps.Payments,
		publisher: deps.Publisher,
		cache:     store,
		now:       func() time.Time { return deps.Clock().UTC() },
		newID:     idGen,
		logger:    logger,
	}, nil
}

// CreateOrder runs the checkout pipeline: verify payment, reserve stock,
// persist the order, then fire the best-effort side effects.
func (s *orderService) CreateOrder(ctx context.Context, cmd CreateOrderCommand) (domain.Order, error) {
	uid := strings.TrimSpace(cmd.UserID)
	if uid == "" {
		return domain.Order{}, fmt.Errorf("%w: user id is required", ErrOrderInvalidInput)
	}
	if cmd.PaymentMethod != domain.PaymentMethodCOD && cmd.PaymentMethod != domain.PaymentMethodOnline {
		return domain.Order{}, fmt.Errorf("%w: unsupported payment method %q", ErrOrderInvalidInput, cmd.PaymentMethod)
	}
	if err := validateShippingAddress(cmd.ShippingAddress); err != nil {
		return domain.Order{}, err
	}

	cart, err := s.carts.Get(ctx, uid)
	if err != nil {
		if isRepoNotFound(err) {
			return domain.Order{}, ErrOrderEmptyCart
		}
		return domain.Order{}, s.translate(err)
	}
	if len(cart.Items) == 0 {
		return domain.Order{}, ErrOrderEmptyCart
	}

	paymentStatus := domain.PaymentStatusCOD
	paymentID := ""
	if cmd.PaymentMethod == domain.PaymentMethodOnline {
		ok, err := s.payments.VerifyPayment(ctx, VerifyPaymentCommand{
			ProviderOrderID: cmd.ProviderOrderID,
			PaymentID:       cmd.PaymentID,
			Signature:       cmd.Signature,
		})
		if err != nil {
			if errors.Is(err, ErrPaymentInvalidInput) {
				return domain.Order{}, fmt.Errorf("%w: payment confirmation incomplete", ErrOrderInvalidInput)
			}
			return domain.Order{}, fmt.Errorf("%w: %v", ErrOrderUnavailable, err)
		}
		if !ok {
			return domain.Order{}, ErrOrderPaymentRequired
		}
		paymentStatus = domain.PaymentStatusPaid
		paymentID = strings.TrimSpace(cmd.PaymentID)
	}

	items, subtotal, err := s.buildOrderItems(ctx, cart)
	if err != nil {
		return domain.Order{}, err
	}

	adjustments := stockAdjustmentsFor(cart.Items, -1)
	if err := s.products.AdjustStock(ctx, adjustments); err != nil {
		var stockErr *repositories.InsufficientStockError
		if errors.As(err, &stockErr) {
			return domain.Order{}, fmt.Errorf("%w: product %s has %d left", ErrOrderInsufficientStock, stockErr.ProductID, stockErr.Available)
		}
		return domain.Order{}, s.translate(err)
	}

	now := s.now()
	shipping := shippingFeeFor(subtotal)
	order := domain.Order{
		ID:                s.newID(now),
		UserID:            uid,
		Email:             strings.TrimSpace(cmd.Email),
		Items:             items,
		Subtotal:          subtotal,
		ShippingFee:       shipping,
		Total:             subtotal + shipping,
		Status:            domain.OrderStatusConfirmed,
		PaymentMethod:     cmd.PaymentMethod,
		PaymentStatus:     paymentStatus,
		PaymentID:         paymentID,
		ShippingAddress:   cmd.ShippingAddress,
		EstimatedDelivery: now.AddDate(0, 0, deliveryEstimateDays),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.orders.Insert(ctx, order); err != nil {
		s.restoreStock(ctx, cart.Items, order.ID)
		return domain.Order{}, s.translate(err)
	}

	// Side effects are best-effort. The order stands even if they fail.
	// The cart document survives checkout with its items emptied.
	cart.Items = nil
	cart.UpdatedAt = now
	if err := s.carts.Save(ctx, cart); err != nil {
		s.logger(ctx, "order.cart_clear_failed", map[string]any{"orderID": order.ID, "userID": uid, "error": err.Error()})
	}
	if err := s.cache.Delete(ctx, cache.CartKey(uid)); err != nil {
		s.logger(ctx, "order.cache_invalidate_failed", map[string]any{"orderID": order.ID, "userID": uid, "error": err.Error()})
	}
	s.invalidateProducts(ctx, adjustments)
	s.publishEvent(ctx, "order.created", order)

	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, userID, orderID string, isAdmin bool) (domain.Order, error) {
	id := strings.TrimSpace(orderID)
	if id == "" {
		return domain.Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}

	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return domain.Order{}, s.translate(err)
	}
	// Non-owners get the same answer as a missing order.
	if !isAdmin && order.UserID != strings.TrimSpace(userID) {
		return domain.Order{}, ErrOrderNotFound
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, query OrderListQuery) (domain.Page[domain.Order], error) {
	uid := strings.TrimSpace(query.UserID)
	if uid == "" {
		return domain.Page[domain.Order]{}, fmt.Errorf("%w: user id is required", ErrOrderInvalidInput)
	}
	page, err := s.orders.List(ctx, repositories.OrderListFilter{
		UserID:     uid,
		Status:     query.Status,
		Pagination: domain.Pagination{Page: query.Page, Limit: query.Limit},
	})
	if err != nil {
		return domain.Page[domain.Order]{}, s.translate(err)
	}
	return page, nil
}

func (s *orderService) ListAllOrders(ctx context.Context, query OrderListQuery) (domain.Page[domain.Order], error) {
	page, err := s.orders.List(ctx, repositories.OrderListFilter{
		UserID:     strings.TrimSpace(query.UserID),
		Status:     query.Status,
		Pagination: domain.Pagination{Page: query.Page, Limit: query.Limit},
	})
	if err != nil {
		return domain.Page[domain.Order]{}, s.translate(err)
	}
	return page, nil
}

func (s *orderService) CancelOrder(ctx context.Context, userID, orderID, reason string) (domain.Order, error) {
	uid := strings.TrimSpace(userID)
	id := strings.TrimSpace(orderID)
	switch {
	case uid == "":
		return domain.Order{}, fmt.Errorf("%w: user id is required", ErrOrderInvalidInput)
	case id == "":
		return domain.Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}

	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return domain.Order{}, s.translate(err)
	}
	if order.UserID != uid {
		return domain.Order{}, ErrOrderNotFound
	}
	switch order.Status {
	case domain.OrderStatusShipped, domain.OrderStatusDelivered, domain.OrderStatusCancelled:
		return domain.Order{}, fmt.Errorf("%w: order is %s", ErrOrderCancelNotAllowed, order.Status)
	}

	now := s.now()
	order.Status = domain.OrderStatusCancelled
	order.CancelledAt = &now
	order.CancellationReason = strings.TrimSpace(reason)
	order.UpdatedAt = now

	if err := s.orders.Update(ctx, order); err != nil {
		return domain.Order{}, s.translate(err)
	}

	// Returning reserved stock is best-effort.
	restock := make([]repositories.StockAdjustment, 0, len(order.Items))
	for _, item := range order.Items {
		restock = append(restock, repositories.StockAdjustment{ProductID: item.ProductID, Delta: item.Quantity})
	}
	if err := s.products.AdjustStock(ctx, restock); err != nil {
		s.logger(ctx, "order.stock_restore_failed", map[string]any{"orderID": order.ID, "error": err.Error()})
	}
	s.invalidateProducts(ctx, restock)
	s.publishEvent(ctx, "order.cancelled", order)

	return order, nil
}

func (s *orderService) UpdateOrderStatus(ctx context.Context, cmd UpdateOrderStatusCommand) (domain.Order, error) {
	id := strings.TrimSpace(cmd.OrderID)
	if id == "" {
		return domain.Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	if !cmd.Status.Valid() {
		return domain.Order{}, fmt.Errorf("%w: unknown status %q", ErrOrderInvalidInput, cmd.Status)
	}

	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return domain.Order{}, s.translate(err)
	}
	if !transitionAllowed(order.Status, cmd.Status) {
		return domain.Order{}, fmt.Errorf("%w: %s to %s", ErrOrderInvalidTransition, order.Status, cmd.Status)
	}

	now := s.now()
	order.Status = cmd.Status
	order.UpdatedAt = now
	switch cmd.Status {
	case domain.OrderStatusShipped:
		tracking := strings.TrimSpace(cmd.TrackingNumber)
		if tracking == "" {
			tracking = "TRK" + randomBase36(10)
		}
		order.TrackingNumber = tracking
	case domain.OrderStatusDelivered:
		// Delivery settles cash-on-delivery balances.
		order.PaymentStatus = domain.PaymentStatusPaid
	case domain.OrderStatusCancelled:
		order.CancelledAt = &now
		if order.CancellationReason == "" {
			order.CancellationReason = "cancelled by store"
		}
	}

	if err := s.orders.Update(ctx, order); err != nil {
		return domain.Order{}, s.translate(err)
	}
	s.publishEvent(ctx, "order."+string(cmd.Status), order)
	return order, nil
}

func (s *orderService) Stats(ctx context.Context) (domain.AdminStats, error) {
	stats, err := s.orders.Stats(ctx)
	if err != nil {
		return domain.AdminStats{}, s.translate(err)
	}
	userCount, err := s.users.Count(ctx)
	if err != nil {
		return domain.AdminStats{}, s.translate(err)
	}
	recent, err := s.orders.ListRecent(ctx, recentOrderCount)
	if err != nil {
		return domain.AdminStats{}, s.translate(err)
	}
	return domain.AdminStats{
		TotalUsers:   userCount,
		TotalOrders:  stats.TotalOrders,
		TotalRevenue: stats.TotalRevenue,
		RecentOrders: recent,
	}, nil
}

// buildOrderItems snapshots the cart lines into order lines. Cart prices are
// the ones the shopper saw, so they are preserved; repricing since then is
// only logged for reconciliation.
func (s *orderService) buildOrderItems(ctx context.Context, cart domain.Cart) ([]domain.OrderItem, float64, error) {
	items := make([]domain.OrderItem, 0, len(cart.Items))
	subtotal := 0.0
	for _, line := range cart.Items {
		product, err := s.products.FindByID(ctx, line.ProductID)
		if err != nil {
			if isRepoNotFound(err) {
				return nil, 0, fmt.Errorf("%w: product %s is no longer available", ErrOrderInvalidInput, line.ProductID)
			}
			return nil, 0, s.translate(err)
		}
		if product.Price != line.Price {
			s.logger(ctx, "order.price_divergence", map[string]any{
				"userID":    cart.UserID,
				"productID": line.ProductID,
				"cartPrice": line.Price,
				"livePrice": product.Price,
			})
		}
		items = append(items, domain.OrderItem{
			ProductID: line.ProductID,
			Name:      line.Name,
			Price:     line.Price,
			Size:      line.Size,
			Quantity:  line.Quantity,
			ImageURL:  line.ImageURL,
		})
		subtotal += line.Price * float64(line.Quantity)
	}
	return items, subtotal, nil
}

// invalidateProducts drops the cached documents touched by a stock movement
// and sweeps the listing prefix. Cached reads must not outlive the stock
// they advertise.
func (s *orderService) invalidateProducts(ctx context.Context, adjustments []repositories.StockAdjustment) {
	for _, adj := range adjustments {
		if err := s.cache.Delete(ctx, cache.ProductKey(adj.ProductID)); err != nil {
			s.logger(ctx, "order.cache_invalidate_failed", map[string]any{"productID": adj.ProductID, "error": err.Error()})
		}
	}
	if err := s.cache.DeleteByPrefix(ctx, cache.ProductsPrefix); err != nil {
		s.logger(ctx, "order.cache_invalidate_failed", map[string]any{"prefix": cache.ProductsPrefix, "error": err.Error()})
	}
}

func (s *orderService) restoreStock(ctx context.Context, lines []domain.CartItem, orderID string) {
	if err := s.products.AdjustStock(ctx, stockAdjustmentsFor(lines, 1)); err != nil {
		s.logger(ctx, "order.stock_restore_failed", map[string]any{"orderID": orderID, "error": err.Error()})
	}
}

func (s *orderService) publishEvent(ctx context.Context, eventType string, order domain.Order) {
	if s.publisher == nil {
		return
	}
	event := OrderEvent{
		Type:       eventType,
		OrderID:    order.ID,
		UserID:     order.UserID,
		Email:      order.Email,
		Total:      order.Total,
		OccurredAt: s.now(),
	}
	if err := s.publisher.PublishOrderEvent(ctx, event); err != nil {
		s.logger(ctx, "order.event_publish_failed", map[string]any{"orderID": order.ID, "type": eventType, "error": err.Error()})
	}
}

func (s *orderService) translate(err error) error {
	return translateRepoError(err, ErrOrderNotFound, ErrOrderConflict, ErrOrderUnavailable)
}

// stockAdjustmentsFor aggregates cart lines per product so size variants of
// the same product land in one adjustment.
func stockAdjustmentsFor(lines []domain.CartItem, sign int) []repositories.StockAdjustment {
	totals := make(map[string]int, len(lines))
	order := make([]string, 0, len(lines))
	for _, line := range lines {
		if _, seen := totals[line.ProductID]; !seen {
			order = append(order, line.ProductID)
		}
		totals[line.ProductID] += line.Quantity
	}
	adjustments := make([]repositories.StockAdjustment, 0, len(order))
	for _, productID := range order {
		adjustments = append(adjustments, repositories.StockAdjustment{ProductID: productID, Delta: sign * totals[productID]})
	}
	return adjustments
}

func shippingFeeFor(subtotal float64) float64 {
	if subtotal >= freeShippingThreshold {
		return 0
	}
	return standardShippingFee
}

func transitionAllowed(from, to domain.OrderStatus) bool {
	for _, allowed := range orderTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func validateShippingAddress(addr domain.ShippingAddress) error {
	switch {
	case strings.TrimSpace(addr.FullName) == "":
		return fmt.Errorf("%w: shipping name is required", ErrOrderInvalidInput)
	case strings.TrimSpace(addr.Line1) == "":
		return fmt.Errorf("%w: shipping address line is required", ErrOrderInvalidInput)
	case strings.TrimSpace(addr.City) == "":
		return fmt.Errorf("%w: shipping city is required", ErrOrderInvalidInput)
	case strings.TrimSpace(addr.State) == "":
		return fmt.Errorf("%w: shipping state is required", ErrOrderInvalidInput)
	case strings.TrimSpace(addr.PostalCode) == "":
		return fmt.Errorf("%w: shipping postal code is required", ErrOrderInvalidInput)
	}
	return nil
}
