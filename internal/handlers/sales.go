package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/swiftcart/api/internal/domain"
	"github.com/swiftcart/api/internal/platform/httpx"
	"github.com/swiftcart/api/internal/services"
)

// SaleHandlers exposes the public sale catalog and active campaign lookup.
type SaleHandlers struct {
	sales services.SaleService
}

// NewSaleHandlers constructs handlers backed by the sale service.
func NewSaleHandlers(sales services.SaleService) *SaleHandlers {
	return &SaleHandlers{sales: sales}
}

// Routes wires the /sales endpoints onto the provided router.
func (h *SaleHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.listSales)
	r.Get("/active", h.listActiveSales)
	r.Get("/modes", h.listSaleModes)
	r.Get("/{saleID}", h.getSale)
}

func (h *SaleHandlers) listSales(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.sales == nil {
		writeSaleError(ctx, w, services.ErrSaleUnavailable)
		return
	}

	activeOnly := true
	if raw := strings.TrimSpace(r.URL.Query().Get("active")); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", errInvalidQueryValue("active", raw).Error(), http.StatusBadRequest))
			return
		}
		activeOnly = parsed
	}

	sales, err := h.sales.ListSales(ctx, activeOnly)
	if err != nil {
		writeSaleError(ctx, w, err)
		return
	}

	items := make([]salePayload, 0, len(sales))
	for _, sale := range sales {
		items = append(items, buildSalePayload(sale))
	}
	writeJSONResponse(w, http.StatusOK, saleListResponse{Sales: items, Total: len(items)})
}

// listActiveSales is a fixed alias for clients that cannot pass query parameters.
func (h *SaleHandlers) listActiveSales(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.sales == nil {
		writeSaleError(ctx, w, services.ErrSaleUnavailable)
		return
	}

	sales, err := h.sales.ListSales(ctx, true)
	if err != nil {
		writeSaleError(ctx, w, err)
		return
	}

	items := make([]salePayload, 0, len(sales))
	for _, sale := range sales {
		items = append(items, buildSalePayload(sale))
	}
	writeJSONResponse(w, http.StatusOK, saleListResponse{Sales: items, Total: len(items)})
}

func (h *SaleHandlers) listSaleModes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.sales == nil {
		writeSaleError(ctx, w, services.ErrSaleUnavailable)
		return
	}

	modes, err := h.sales.ListSaleModes(ctx)
	if err != nil {
		writeSaleError(ctx, w, err)
		return
	}

	items := make([]saleModePayload, 0, len(modes))
	for _, mode := range modes {
		items = append(items, buildSaleModePayload(mode))
	}
	writeJSONResponse(w, http.StatusOK, saleModeListResponse{Modes: items})
}

func (h *SaleHandlers) getSale(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.sales == nil {
		writeSaleError(ctx, w, services.ErrSaleUnavailable)
		return
	}

	sale, err := h.sales.GetSale(ctx, chi.URLParam(r, "saleID"))
	if err != nil {
		writeSaleError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, saleResponse{Sale: buildSalePayload(sale)})
}

func writeSaleError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrSaleInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrSaleNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("sale_not_found", "sale not found", http.StatusNotFound))
	case errors.Is(err, services.ErrSaleConflict):
		httpx.WriteError(ctx, w, httpx.NewError("sale_conflict", "sale has been modified; retry", http.StatusConflict))
	case errors.Is(err, services.ErrSaleImageUpload):
		httpx.WriteError(ctx, w, httpx.NewError("image_upload_failed", "sale image upload failed", http.StatusBadGateway))
	case errors.Is(err, services.ErrSaleUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("sale_service_unavailable", "sale service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("sale_error", "sale request failed", http.StatusInternalServerError))
	}
}

func buildSalePayload(sale domain.Sale) salePayload {
	return salePayload{
		ID:               sale.ID,
		Name:             sale.Name,
		Description:      sale.Description,
		Category:         sale.Category,
		Price:            sale.Price,
		SalePrice:        sale.SalePrice,
		Discount:         sale.Discount,
		DisplaySalePrice: displayPrinter.Sprintf("%.2f", sale.SalePrice),
		Sizes:            sale.Sizes,
		Stock:            sale.Stock,
		ImageURL:         sale.ImageURL,
		SaleMode:         sale.SaleMode,
		IsActive:         sale.IsActive,
		CreatedAt:        formatTime(sale.CreatedAt),
		UpdatedAt:        formatTime(sale.UpdatedAt),
	}
}

func buildSaleModePayload(mode domain.SaleMode) saleModePayload {
	return saleModePayload{
		ID:        mode.ID,
		Name:      mode.Name,
		Title:     mode.Title,
		Banner:    mode.Banner,
		IsActive:  mode.IsActive,
		CreatedAt: formatTime(mode.CreatedAt),
		UpdatedAt: formatTime(mode.UpdatedAt),
	}
}

type saleResponse struct {
	Sale salePayload `json:"sale"`
}

type saleListResponse struct {
	Sales []salePayload `json:"sales"`
	Total int           `json:"total"`
}

type saleModeListResponse struct {
	Modes []saleModePayload `json:"modes"`
}

type salePayload struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Description      string   `json:"description,omitempty"`
	Category         string   `json:"category"`
	Price            float64  `json:"price"`
	SalePrice        float64  `json:"sale_price"`
	Discount         float64  `json:"discount"`
	DisplaySalePrice string   `json:"display_sale_price"`
	Sizes            []string `json:"sizes"`
	Stock            int      `json:"stock"`
	ImageURL         string   `json:"image_url,omitempty"`
	SaleMode         string   `json:"sale_mode"`
	IsActive         bool     `json:"is_active"`
	CreatedAt        string   `json:"created_at"`
	UpdatedAt        string   `json:"updated_at"`
}

type saleModePayload struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Title     string `json:"title"`
	Banner    string `json:"banner,omitempty"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}
