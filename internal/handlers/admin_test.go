package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	domain "github.com/swiftcart/api/internal/domain"
	"github.com/swiftcart/api/internal/services"
)

type adminStubs struct {
	catalog *stubCatalogService
	sales   *stubSaleService
	orders  *stubOrderService
}

func newAdminRouter(stubs adminStubs) chi.Router {
	if stubs.catalog == nil {
		stubs.catalog = &stubCatalogService{}
	}
	if stubs.sales == nil {
		stubs.sales = &stubSaleService{}
	}
	if stubs.orders == nil {
		stubs.orders = &stubOrderService{}
	}
	router := chi.NewRouter()
	router.Route("/admin", func(r chi.Router) {
		r.Use(identityMiddleware(adminIdentity()))
		NewAdminHandlers(nil, stubs.catalog, stubs.sales, stubs.orders).Routes(r)
	})
	return router
}

func TestAdminHandlersCreateProductJSON(t *testing.T) {
	catalog := &stubCatalogService{product: sampleProduct("PROD-1")}
	router := newAdminRouter(adminStubs{catalog: catalog})

	body := strings.NewReader(`{
		"name": "Oversized Hoodie",
		"category": "hoodies",
		"price": 1299,
		"stock": "10",
		"sizes": "M,L",
		"image_url": "https://cdn.example.com/p/1.webp"
	}`)
	req := httptest.NewRequest(http.MethodPost, "/admin/products", body)
	req.Header.Set("Content-Type", "application/json")

	rec := doRequest(router, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	if len(catalog.created) != 1 {
		t.Fatalf("created = %d inputs", len(catalog.created))
	}
	input := catalog.created[0]
	if input.Price != "1299" || input.Stock != "10" {
		t.Fatalf("numeric coercion: price=%q stock=%q", input.Price, input.Stock)
	}
	if input.Sizes != "M,L" || input.ImageURL == "" {
		t.Fatalf("input = %+v", input)
	}
}

func TestAdminHandlersCreateProductMultipart(t *testing.T) {
	catalog := &stubCatalogService{product: sampleProduct("PROD-1")}
	router := newAdminRouter(adminStubs{catalog: catalog})

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	_ = form.WriteField("name", "Oversized Hoodie")
	_ = form.WriteField("category", "hoodies")
	_ = form.WriteField("price", "1299.50")
	_ = form.WriteField("stock", "10")
	_ = form.WriteField("sizes", "M,L,XL")
	part, err := form.CreateFormFile("image", "hoodie.webp")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	if _, err := part.Write([]byte("not-really-an-image")); err != nil {
		t.Fatalf("write image: %v", err)
	}
	if err := form.Close(); err != nil {
		t.Fatalf("close form: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/admin/products", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())

	rec := doRequest(router, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	input := catalog.created[0]
	if input.Price != "1299.50" || input.ImageName != "hoodie.webp" {
		t.Fatalf("input = %+v", input)
	}
	if string(input.ImageData) != "not-really-an-image" {
		t.Fatalf("image bytes were not captured")
	}
}

func TestAdminHandlersBulkCreateReportsPartialFailure(t *testing.T) {
	catalog := &stubCatalogService{
		bulkResult: []domain.Product{sampleProduct("PROD-1")},
		createErr:  services.ErrCatalogInvalidInput,
	}
	router := newAdminRouter(adminStubs{catalog: catalog})

	body := strings.NewReader(`[
		{"name": "A", "category": "hoodies", "price": 100, "image_url": "https://cdn.example.com/a.webp"},
		{"name": "", "category": "hoodies", "price": "x"}
	]`)
	req := httptest.NewRequest(http.MethodPost, "/admin/products/bulk", body)
	req.Header.Set("Content-Type", "application/json")

	rec := doRequest(router, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		Created int    `json:"created"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Created != 1 || resp.Error == "" {
		t.Fatalf("response = %+v", resp)
	}
}

func TestAdminHandlersBulkCreateRejectsEmptyBatch(t *testing.T) {
	router := newAdminRouter(adminStubs{})

	req := httptest.NewRequest(http.MethodPost, "/admin/products/bulk", strings.NewReader(`[]`))
	req.Header.Set("Content-Type", "application/json")

	rec := doRequest(router, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAdminHandlersUpdateProductThreadsID(t *testing.T) {
	catalog := &stubCatalogService{product: sampleProduct("PROD-7")}
	router := newAdminRouter(adminStubs{catalog: catalog})

	req := httptest.NewRequest(http.MethodPut, "/admin/products/PROD-7", strings.NewReader(`{"price":"999"}`))
	req.Header.Set("Content-Type", "application/json")

	rec := doRequest(router, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if catalog.created[0].ID != "PROD-7" {
		t.Fatalf("input ID = %q", catalog.created[0].ID)
	}
}

func TestAdminHandlersDeleteProduct(t *testing.T) {
	router := newAdminRouter(adminStubs{})

	rec := doRequest(router, httptest.NewRequest(http.MethodDelete, "/admin/products/PROD-1", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAdminHandlersCreateSaleJSON(t *testing.T) {
	sales := &stubSaleService{sale: sampleSale("SALE-1")}
	router := newAdminRouter(adminStubs{sales: sales})

	body := strings.NewReader(`{
		"name": "Festival Hoodie",
		"category": "hoodies",
		"price": 1000,
		"sale_price": "750",
		"sale_mode": "diwali",
		"image_url": "https://cdn.example.com/s/1.webp"
	}`)
	req := httptest.NewRequest(http.MethodPost, "/admin/sales", body)
	req.Header.Set("Content-Type", "application/json")

	rec := doRequest(router, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestAdminHandlersUpdateSaleJSON(t *testing.T) {
	sales := &stubSaleService{sale: sampleSale("SALE-1")}
	router := newAdminRouter(adminStubs{sales: sales})

	body := strings.NewReader(`{"sale_price": "650"}`)
	req := httptest.NewRequest(http.MethodPut, "/admin/sales/SALE-1", body)
	req.Header.Set("Content-Type", "application/json")

	rec := doRequest(router, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if sales.lastInput.ID != "SALE-1" || sales.lastInput.SalePrice != "650" {
		t.Fatalf("input = %+v", sales.lastInput)
	}
}

func TestAdminHandlersDeleteSaleMode(t *testing.T) {
	sales := &stubSaleService{}
	router := newAdminRouter(adminStubs{sales: sales})

	rec := doRequest(router, httptest.NewRequest(http.MethodDelete, "/admin/sale-modes/diwali", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if sales.deletedMode != "diwali" {
		t.Fatalf("deleted mode = %q", sales.deletedMode)
	}
}

func TestAdminHandlersToggleSaleMode(t *testing.T) {
	router := newAdminRouter(adminStubs{sales: &stubSaleService{mode: domain.SaleMode{ID: "mode-1"}}})

	rec := doRequest(router, httptest.NewRequest(http.MethodPost, "/admin/sale-modes/diwali/toggle", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		Mode struct {
			Name     string `json:"name"`
			IsActive bool   `json:"is_active"`
		} `json:"mode"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Mode.Name != "diwali" || !resp.Mode.IsActive {
		t.Fatalf("mode = %+v", resp.Mode)
	}
}

func TestAdminHandlersUpdateOrderStatus(t *testing.T) {
	orders := &stubOrderService{order: sampleOrder("SWC123", "uid-1")}
	router := newAdminRouter(adminStubs{orders: orders})

	body := strings.NewReader(`{"status":"Shipped","tracking_number":"TRK42"}`)
	req := httptest.NewRequest(http.MethodPatch, "/admin/orders/SWC123/status", body)
	req.Header.Set("Content-Type", "application/json")

	rec := doRequest(router, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Order struct {
			Status         string `json:"status"`
			TrackingNumber string `json:"tracking_number"`
		} `json:"order"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Order.Status != "shipped" || resp.Order.TrackingNumber != "TRK42" {
		t.Fatalf("order = %+v", resp.Order)
	}
}

func TestAdminHandlersUpdateOrderStatusMapsInvalidTransition(t *testing.T) {
	router := newAdminRouter(adminStubs{orders: &stubOrderService{err: services.ErrOrderInvalidTransition}})

	req := httptest.NewRequest(http.MethodPatch, "/admin/orders/SWC123/status", strings.NewReader(`{"status":"confirmed"}`))
	req.Header.Set("Content-Type", "application/json")

	rec := doRequest(router, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAdminHandlersStats(t *testing.T) {
	orders := &stubOrderService{stats: domain.AdminStats{
		TotalUsers:   12,
		TotalOrders:  40,
		TotalRevenue: 55960,
		RecentOrders: []domain.Order{sampleOrder("SWC123", "uid-1")},
	}}
	router := newAdminRouter(adminStubs{orders: orders})

	rec := doRequest(router, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		TotalUsers   int64   `json:"total_users"`
		TotalOrders  int64   `json:"total_orders"`
		TotalRevenue float64 `json:"total_revenue"`
		RecentOrders []struct {
			ID string `json:"id"`
		} `json:"recent_orders"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.TotalUsers != 12 || resp.TotalOrders != 40 || resp.TotalRevenue != 55960 {
		t.Fatalf("stats = %+v", resp)
	}
	if len(resp.RecentOrders) != 1 || resp.RecentOrders[0].ID != "SWC123" {
		t.Fatalf("recent = %+v", resp.RecentOrders)
	}
}

func TestAdminHandlersListAllOrdersPassesQuery(t *testing.T) {
	orders := &stubOrderService{page: domain.Page[domain.Order]{Page: 1, Limit: 20}}
	router := newAdminRouter(adminStubs{orders: orders})

	rec := doRequest(router, httptest.NewRequest(http.MethodGet, "/admin/orders?status=shipped", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if orders.lastQuery.Status != domain.OrderStatusShipped {
		t.Fatalf("query = %+v", orders.lastQuery)
	}
	if orders.lastQuery.UserID != "" {
		t.Fatalf("admin listing should not be user scoped: %+v", orders.lastQuery)
	}
}
