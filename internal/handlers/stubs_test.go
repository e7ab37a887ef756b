package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"time"

	domain "github.com/swiftcart/api/internal/domain"
	"github.com/swiftcart/api/internal/platform/auth"
	"github.com/swiftcart/api/internal/services"
)

var handlerNow = time.Date(2025, time.March, 14, 9, 30, 0, 0, time.UTC)

// identityMiddleware injects a verified identity the way the auth
// middleware would after token verification.
func identityMiddleware(identity *auth.Identity) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
		})
	}
}

func userIdentity() *auth.Identity {
	return &auth.Identity{UID: "uid-1", Email: "shopper@example.com", Roles: []string{auth.RoleUser}}
}

func adminIdentity() *auth.Identity {
	return &auth.Identity{UID: "admin-1", Email: "staff@example.com", Roles: []string{auth.RoleAdmin}}
}

func doRequest(handler http.Handler, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)
	return rec
}

func sampleProduct(id string) domain.Product {
	return domain.Product{
		ID:        id,
		Name:      "Oversized Hoodie",
		Category:  "hoodies",
		Price:     1299,
		Sizes:     []string{"M", "L"},
		Stock:     10,
		ImageURL:  "https://cdn.example.com/p/" + id + ".webp",
		CreatedAt: handlerNow,
		UpdatedAt: handlerNow,
	}
}

func sampleOrder(id, userID string) domain.Order {
	return domain.Order{
		ID:     id,
		UserID: userID,
		Items: []domain.OrderItem{
			{ProductID: "PROD-1", Name: "Oversized Hoodie", Price: 1299, Size: "M", Quantity: 1},
		},
		Subtotal:          1299,
		ShippingFee:       99,
		Total:             1398,
		Status:            domain.OrderStatusConfirmed,
		PaymentStatus:     domain.PaymentStatusPending,
		PaymentMethod:     domain.PaymentMethodCOD,
		ShippingAddress:   domain.ShippingAddress{FullName: "A Shopper", Line1: "1 Main St", City: "Pune", State: "MH", PostalCode: "411001"},
		EstimatedDelivery: handlerNow.AddDate(0, 0, 7),
		CreatedAt:         handlerNow,
		UpdatedAt:         handlerNow,
	}
}

type stubCatalogService struct {
	page       domain.Page[domain.Product]
	product    domain.Product
	featured   []domain.Product
	created    []services.ProductInput
	lastQuery  services.CatalogQuery
	err        error
	createErr  error
	bulkResult []domain.Product
}

func (s *stubCatalogService) ListProducts(_ context.Context, query services.CatalogQuery) (domain.Page[domain.Product], error) {
	s.lastQuery = query
	return s.page, s.err
}

func (s *stubCatalogService) GetProduct(_ context.Context, _ string) (domain.Product, error) {
	return s.product, s.err
}

func (s *stubCatalogService) FeaturedProducts(_ context.Context) ([]domain.Product, error) {
	return s.featured, s.err
}

func (s *stubCatalogService) CreateProduct(_ context.Context, input services.ProductInput) (domain.Product, error) {
	if s.createErr != nil {
		return domain.Product{}, s.createErr
	}
	s.created = append(s.created, input)
	return s.product, nil
}

func (s *stubCatalogService) CreateProducts(_ context.Context, inputs []services.ProductInput) ([]domain.Product, error) {
	s.created = append(s.created, inputs...)
	return s.bulkResult, s.createErr
}

func (s *stubCatalogService) UpdateProduct(_ context.Context, input services.ProductInput) (domain.Product, error) {
	if s.err != nil {
		return domain.Product{}, s.err
	}
	s.created = append(s.created, input)
	return s.product, nil
}

func (s *stubCatalogService) DeleteProduct(_ context.Context, _ string) error {
	return s.err
}

type stubCartService struct {
	cart    domain.Cart
	lastAdd services.AddCartItemCommand
	err     error
	cleared bool
}

func (s *stubCartService) GetCart(_ context.Context, userID string) (domain.Cart, error) {
	if s.err != nil {
		return domain.Cart{}, s.err
	}
	return s.cart, nil
}

func (s *stubCartService) AddItem(_ context.Context, cmd services.AddCartItemCommand) (domain.Cart, error) {
	s.lastAdd = cmd
	if s.err != nil {
		return domain.Cart{}, s.err
	}
	return s.cart, nil
}

func (s *stubCartService) UpdateItemQuantity(_ context.Context, _ services.UpdateCartItemCommand) (domain.Cart, error) {
	if s.err != nil {
		return domain.Cart{}, s.err
	}
	return s.cart, nil
}

func (s *stubCartService) RemoveItem(_ context.Context, _, _ string) (domain.Cart, error) {
	if s.err != nil {
		return domain.Cart{}, s.err
	}
	return s.cart, nil
}

func (s *stubCartService) ClearCart(_ context.Context, _ string) error {
	s.cleared = true
	return s.err
}

type stubOrderService struct {
	order     domain.Order
	page      domain.Page[domain.Order]
	stats     domain.AdminStats
	lastCmd   services.CreateOrderCommand
	lastQuery services.OrderListQuery
	err       error
}

func (s *stubOrderService) CreateOrder(_ context.Context, cmd services.CreateOrderCommand) (domain.Order, error) {
	s.lastCmd = cmd
	if s.err != nil {
		return domain.Order{}, s.err
	}
	return s.order, nil
}

func (s *stubOrderService) GetOrder(_ context.Context, _, _ string, _ bool) (domain.Order, error) {
	if s.err != nil {
		return domain.Order{}, s.err
	}
	return s.order, nil
}

func (s *stubOrderService) ListOrders(_ context.Context, query services.OrderListQuery) (domain.Page[domain.Order], error) {
	s.lastQuery = query
	return s.page, s.err
}

func (s *stubOrderService) CancelOrder(_ context.Context, _, _, _ string) (domain.Order, error) {
	if s.err != nil {
		return domain.Order{}, s.err
	}
	return s.order, nil
}

func (s *stubOrderService) ListAllOrders(_ context.Context, query services.OrderListQuery) (domain.Page[domain.Order], error) {
	s.lastQuery = query
	return s.page, s.err
}

func (s *stubOrderService) UpdateOrderStatus(_ context.Context, cmd services.UpdateOrderStatusCommand) (domain.Order, error) {
	if s.err != nil {
		return domain.Order{}, s.err
	}
	order := s.order
	order.Status = cmd.Status
	order.TrackingNumber = cmd.TrackingNumber
	return order, nil
}

func (s *stubOrderService) Stats(_ context.Context) (domain.AdminStats, error) {
	return s.stats, s.err
}

type stubPaymentHandlerService struct {
	order    services.PaymentOrder
	verified bool
	lastCmd  services.VerifyPaymentCommand
	err      error
	calls    int
}

func (s *stubPaymentHandlerService) CreatePaymentOrder(_ context.Context, amount float64, receipt string) (services.PaymentOrder, error) {
	s.calls++
	if s.err != nil {
		return services.PaymentOrder{}, s.err
	}
	return s.order, nil
}

func (s *stubPaymentHandlerService) VerifyPayment(_ context.Context, cmd services.VerifyPaymentCommand) (bool, error) {
	s.lastCmd = cmd
	return s.verified, s.err
}

type stubSaleService struct {
	sales       []domain.Sale
	sale        domain.Sale
	modes       []domain.SaleMode
	mode        domain.SaleMode
	lastOnly    bool
	lastInput   services.SaleInput
	deletedMode string
	err         error
}

func (s *stubSaleService) ListSales(_ context.Context, activeOnly bool) ([]domain.Sale, error) {
	s.lastOnly = activeOnly
	return s.sales, s.err
}

func (s *stubSaleService) GetSale(_ context.Context, _ string) (domain.Sale, error) {
	if s.err != nil {
		return domain.Sale{}, s.err
	}
	return s.sale, nil
}

func (s *stubSaleService) CreateSale(_ context.Context, _ services.SaleInput) (domain.Sale, error) {
	if s.err != nil {
		return domain.Sale{}, s.err
	}
	return s.sale, nil
}

func (s *stubSaleService) UpdateSale(_ context.Context, input services.SaleInput) (domain.Sale, error) {
	if s.err != nil {
		return domain.Sale{}, s.err
	}
	s.lastInput = input
	return s.sale, nil
}

func (s *stubSaleService) DeleteSale(_ context.Context, _ string) error {
	return s.err
}

func (s *stubSaleService) ListSaleModes(_ context.Context) ([]domain.SaleMode, error) {
	return s.modes, s.err
}

func (s *stubSaleService) UpsertSaleMode(_ context.Context, input services.SaleModeInput) (domain.SaleMode, error) {
	if s.err != nil {
		return domain.SaleMode{}, s.err
	}
	mode := s.mode
	mode.Name = input.Name
	mode.Title = input.Title
	return mode, nil
}

func (s *stubSaleService) ToggleSaleMode(_ context.Context, name string) (domain.SaleMode, error) {
	if s.err != nil {
		return domain.SaleMode{}, s.err
	}
	mode := s.mode
	mode.Name = name
	mode.IsActive = true
	return mode, nil
}

func (s *stubSaleService) DeleteSaleMode(_ context.Context, name string) error {
	if s.err != nil {
		return s.err
	}
	s.deletedMode = name
	return nil
}

type stubUserService struct {
	user    domain.User
	lastCmd services.ResolveIdentityCommand
	err     error
}

func (s *stubUserService) ResolveIdentity(_ context.Context, cmd services.ResolveIdentityCommand) (domain.User, error) {
	s.lastCmd = cmd
	if s.err != nil {
		return domain.User{}, s.err
	}
	return s.user, nil
}

func (s *stubUserService) GetProfile(_ context.Context, _ string) (domain.User, error) {
	if s.err != nil {
		return domain.User{}, s.err
	}
	return s.user, nil
}

func (s *stubUserService) CountUsers(_ context.Context) (int64, error) {
	return 1, s.err
}

func (s *stubUserService) AddAddress(_ context.Context, _ string, input services.AddressInput) (domain.User, error) {
	if s.err != nil {
		return domain.User{}, s.err
	}
	user := s.user
	user.Addresses = append(user.Addresses, domain.Address{
		ID:         "addr-new",
		FullName:   input.FullName,
		Line1:      input.Line1,
		City:       input.City,
		State:      input.State,
		PostalCode: input.PostalCode,
		IsDefault:  input.IsDefault,
	})
	return user, nil
}

func (s *stubUserService) UpdateAddress(_ context.Context, _ string, input services.AddressInput) (domain.User, error) {
	if s.err != nil {
		return domain.User{}, s.err
	}
	return s.user, nil
}

func (s *stubUserService) DeleteAddress(_ context.Context, _, _ string) (domain.User, error) {
	if s.err != nil {
		return domain.User{}, s.err
	}
	return s.user, nil
}

type stubSystemService struct {
	health services.SystemHealth
	err    error
}

func (s *stubSystemService) Health(_ context.Context) (services.SystemHealth, error) {
	return s.health, s.err
}
