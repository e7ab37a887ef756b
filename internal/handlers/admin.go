package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/swiftcart/api/internal/domain"
	"github.com/swiftcart/api/internal/platform/auth"
	"github.com/swiftcart/api/internal/platform/httpx"
	"github.com/swiftcart/api/internal/services"
)

const (
	maxAdminBodySize     = 64 * 1024
	maxProductUploadSize = 8 << 20
	maxBulkProducts      = 50
)

// AdminHandlers exposes the back-office surface: catalog and sale writes,
// order fulfillment, and dashboard stats.
type AdminHandlers struct {
	authn   *auth.Authenticator
	catalog services.CatalogService
	sales   services.SaleService
	orders  services.OrderService
}

// NewAdminHandlers constructs the admin handler group.
func NewAdminHandlers(authn *auth.Authenticator, catalog services.CatalogService, sales services.SaleService, orders services.OrderService) *AdminHandlers {
	return &AdminHandlers{
		authn:   authn,
		catalog: catalog,
		sales:   sales,
		orders:  orders,
	}
}

// Routes wires the /admin endpoints onto the provided router. Every route
// requires the admin role.
func (h *AdminHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireFirebaseAuth(auth.RoleAdmin))
	}

	r.Post("/products", h.createProduct)
	r.Post("/products/bulk", h.createProducts)
	r.Put("/products/{productID}", h.updateProduct)
	r.Delete("/products/{productID}", h.deleteProduct)

	r.Post("/sales", h.createSale)
	r.Put("/sales/{saleID}", h.updateSale)
	r.Delete("/sales/{saleID}", h.deleteSale)
	r.Post("/sale-modes", h.upsertSaleMode)
	r.Post("/sale-modes/{name}/toggle", h.toggleSaleMode)
	r.Delete("/sale-modes/{name}", h.deleteSaleMode)

	r.Get("/orders", h.listAllOrders)
	r.Patch("/orders/{orderID}/status", h.updateOrderStatus)
	r.Get("/stats", h.stats)
}

func (h *AdminHandlers) createProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		writeCatalogError(ctx, w, services.ErrCatalogUnavailable)
		return
	}

	input, err := decodeProductInput(r)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	product, err := h.catalog.CreateProduct(ctx, input)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, productResponse{Product: buildProductPayload(product)})
}

func (h *AdminHandlers) createProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		writeCatalogError(ctx, w, services.ErrCatalogUnavailable)
		return
	}

	body, err := readLimitedBody(r, maxProductUploadSize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var reqs []productRequest
	if err := decodeJSONBody(body, &reqs); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	if len(reqs) == 0 {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "no products supplied", http.StatusBadRequest))
		return
	}
	if len(reqs) > maxBulkProducts {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "too many products in one batch", http.StatusBadRequest))
		return
	}

	inputs := make([]services.ProductInput, 0, len(reqs))
	for _, req := range reqs {
		inputs = append(inputs, req.toInput())
	}

	created, err := h.catalog.CreateProducts(ctx, inputs)
	payloads := make([]productPayload, 0, len(created))
	for _, product := range created {
		payloads = append(payloads, buildProductPayload(product))
	}
	if err != nil {
		// Partial batches report what landed alongside the failure.
		status := http.StatusBadRequest
		if errors.Is(err, services.ErrCatalogUnavailable) || errors.Is(err, services.ErrCatalogImageUpload) {
			status = http.StatusBadGateway
		}
		writeJSONResponse(w, status, bulkProductResponse{
			Products: payloads,
			Created:  len(payloads),
			Error:    err.Error(),
		})
		return
	}

	writeJSONResponse(w, http.StatusCreated, bulkProductResponse{Products: payloads, Created: len(payloads)})
}

func (h *AdminHandlers) updateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		writeCatalogError(ctx, w, services.ErrCatalogUnavailable)
		return
	}

	input, err := decodeProductInput(r)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	input.ID = chi.URLParam(r, "productID")

	product, err := h.catalog.UpdateProduct(ctx, input)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, productResponse{Product: buildProductPayload(product)})
}

func (h *AdminHandlers) deleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		writeCatalogError(ctx, w, services.ErrCatalogUnavailable)
		return
	}

	if err := h.catalog.DeleteProduct(ctx, chi.URLParam(r, "productID")); err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandlers) createSale(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.sales == nil {
		writeSaleError(ctx, w, services.ErrSaleUnavailable)
		return
	}

	input, err := decodeSaleInput(r)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	sale, err := h.sales.CreateSale(ctx, input)
	if err != nil {
		writeSaleError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, saleResponse{Sale: buildSalePayload(sale)})
}

func (h *AdminHandlers) updateSale(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.sales == nil {
		writeSaleError(ctx, w, services.ErrSaleUnavailable)
		return
	}

	input, err := decodeSaleInput(r)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	input.ID = chi.URLParam(r, "saleID")

	sale, err := h.sales.UpdateSale(ctx, input)
	if err != nil {
		writeSaleError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, saleResponse{Sale: buildSalePayload(sale)})
}

func (h *AdminHandlers) deleteSale(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.sales == nil {
		writeSaleError(ctx, w, services.ErrSaleUnavailable)
		return
	}

	if err := h.sales.DeleteSale(ctx, chi.URLParam(r, "saleID")); err != nil {
		writeSaleError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandlers) upsertSaleMode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.sales == nil {
		writeSaleError(ctx, w, services.ErrSaleUnavailable)
		return
	}

	body, err := readLimitedBody(r, maxAdminBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req saleModeRequest
	if err := decodeJSONBody(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	mode, err := h.sales.UpsertSaleMode(ctx, services.SaleModeInput{
		Name:   req.Name,
		Title:  req.Title,
		Banner: req.Banner,
	})
	if err != nil {
		writeSaleError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, saleModeResponse{Mode: buildSaleModePayload(mode)})
}

func (h *AdminHandlers) toggleSaleMode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.sales == nil {
		writeSaleError(ctx, w, services.ErrSaleUnavailable)
		return
	}

	mode, err := h.sales.ToggleSaleMode(ctx, chi.URLParam(r, "name"))
	if err != nil {
		writeSaleError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, saleModeResponse{Mode: buildSaleModePayload(mode)})
}

func (h *AdminHandlers) deleteSaleMode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.sales == nil {
		writeSaleError(ctx, w, services.ErrSaleUnavailable)
		return
	}

	if err := h.sales.DeleteSaleMode(ctx, chi.URLParam(r, "name")); err != nil {
		writeSaleError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandlers) listAllOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		writeOrderError(ctx, w, services.ErrOrderUnavailable)
		return
	}

	query, err := parseOrderListQuery(r)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	page, err := h.orders.ListAllOrders(ctx, query)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildOrderPage(page))
}

func (h *AdminHandlers) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		writeOrderError(ctx, w, services.ErrOrderUnavailable)
		return
	}

	body, err := readLimitedBody(r, maxAdminBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req updateOrderStatusRequest
	if err := decodeJSONBody(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	order, err := h.orders.UpdateOrderStatus(ctx, services.UpdateOrderStatusCommand{
		OrderID:        chi.URLParam(r, "orderID"),
		Status:         domain.OrderStatus(strings.ToLower(strings.TrimSpace(req.Status))),
		TrackingNumber: req.TrackingNumber,
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

func (h *AdminHandlers) stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		writeOrderError(ctx, w, services.ErrOrderUnavailable)
		return
	}

	stats, err := h.orders.Stats(ctx)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	recent := make([]orderPayload, 0, len(stats.RecentOrders))
	for _, order := range stats.RecentOrders {
		recent = append(recent, buildOrderPayload(order))
	}
	writeJSONResponse(w, http.StatusOK, adminStatsResponse{
		TotalUsers:   stats.TotalUsers,
		TotalOrders:  stats.TotalOrders,
		TotalRevenue: stats.TotalRevenue,
		RecentOrders: recent,
	})
}

// decodeProductInput accepts either a multipart form carrying the image
// bytes or a JSON body referencing an already hosted image URL.
func decodeProductInput(r *http.Request) (services.ProductInput, error) {
	if isMultipart(r) {
		form, err := parseUploadForm(r)
		if err != nil {
			return services.ProductInput{}, err
		}
		input := services.ProductInput{
			Name:        form.value("name"),
			Description: form.value("description"),
			Category:    form.value("category"),
			Price:       form.value("price"),
			Sizes:       form.value("sizes"),
			Stock:       form.value("stock"),
			ImageURL:    form.value("image_url"),
		}
		input.ImageData, input.ImageName = form.file("image")
		return input, nil
	}

	body, err := readLimitedBody(r, maxAdminBodySize)
	if err != nil {
		return services.ProductInput{}, err
	}
	var req productRequest
	if err := decodeJSONBody(body, &req); err != nil {
		return services.ProductInput{}, err
	}
	return req.toInput(), nil
}

func decodeSaleInput(r *http.Request) (services.SaleInput, error) {
	if isMultipart(r) {
		form, err := parseUploadForm(r)
		if err != nil {
			return services.SaleInput{}, err
		}
		input := services.SaleInput{
			Name:        form.value("name"),
			Description: form.value("description"),
			Category:    form.value("category"),
			Price:       form.value("price"),
			SalePrice:   form.value("sale_price"),
			Sizes:       form.value("sizes"),
			Stock:       form.value("stock"),
			SaleMode:    form.value("sale_mode"),
			ImageURL:    form.value("image_url"),
		}
		input.ImageData, input.ImageName = form.file("image")
		return input, nil
	}

	body, err := readLimitedBody(r, maxAdminBodySize)
	if err != nil {
		return services.SaleInput{}, err
	}
	var req saleRequest
	if err := decodeJSONBody(body, &req); err != nil {
		return services.SaleInput{}, err
	}
	return services.SaleInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price.String(),
		SalePrice:   req.SalePrice.String(),
		Sizes:       req.Sizes,
		Stock:       req.Stock.String(),
		SaleMode:    req.SaleMode,
		ImageURL:    req.ImageURL,
	}, nil
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mediaType == "multipart/form-data"
}

type uploadForm struct {
	form *multipart.Form
}

func parseUploadForm(r *http.Request) (*uploadForm, error) {
	if err := r.ParseMultipartForm(maxProductUploadSize); err != nil {
		return nil, err
	}
	return &uploadForm{form: r.MultipartForm}, nil
}

func (f *uploadForm) value(name string) string {
	if f == nil || f.form == nil {
		return ""
	}
	values := f.form.Value[name]
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}

func (f *uploadForm) file(name string) ([]byte, string) {
	if f == nil || f.form == nil {
		return nil, ""
	}
	headers := f.form.File[name]
	if len(headers) == 0 {
		return nil, ""
	}
	header := headers[0]
	file, err := header.Open()
	if err != nil {
		return nil, ""
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxProductUploadSize))
	if err != nil {
		return nil, ""
	}
	return data, header.Filename
}

// flexibleNumber tolerates clients sending numeric fields as either JSON
// numbers or strings.
type flexibleNumber string

func (n *flexibleNumber) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*n = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var value string
		if err := json.Unmarshal(data, &value); err != nil {
			return err
		}
		*n = flexibleNumber(strings.TrimSpace(value))
		return nil
	}
	var value json.Number
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	*n = flexibleNumber(value.String())
	return nil
}

func (n flexibleNumber) String() string {
	return string(n)
}

type productRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	Price       flexibleNumber `json:"price"`
	Sizes       string         `json:"sizes"`
	Stock       flexibleNumber `json:"stock"`
	ImageURL    string         `json:"image_url"`
}

func (r productRequest) toInput() services.ProductInput {
	return services.ProductInput{
		Name:        r.Name,
		Description: r.Description,
		Category:    r.Category,
		Price:       r.Price.String(),
		Sizes:       r.Sizes,
		Stock:       r.Stock.String(),
		ImageURL:    r.ImageURL,
	}
}

type saleRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	Price       flexibleNumber `json:"price"`
	SalePrice   flexibleNumber `json:"sale_price"`
	Sizes       string         `json:"sizes"`
	Stock       flexibleNumber `json:"stock"`
	SaleMode    string         `json:"sale_mode"`
	ImageURL    string         `json:"image_url"`
}

type bulkProductResponse struct {
	Products []productPayload `json:"products"`
	Created  int              `json:"created"`
	Error    string           `json:"error,omitempty"`
}

type saleModeRequest struct {
	Name   string `json:"name"`
	Title  string `json:"title"`
	Banner string `json:"banner"`
}

type saleModeResponse struct {
	Mode saleModePayload `json:"mode"`
}

type updateOrderStatusRequest struct {
	Status         string `json:"status"`
	TrackingNumber string `json:"tracking_number"`
}

type adminStatsResponse struct {
	TotalUsers   int64          `json:"total_users"`
	TotalOrders  int64          `json:"total_orders"`
	TotalRevenue float64        `json:"total_revenue"`
	RecentOrders []orderPayload `json:"recent_orders"`
}
