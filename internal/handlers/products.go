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
	"github.com/swiftcart/api/internal/platform/pagination"
	"github.com/swiftcart/api/internal/services"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ProductHandlers exposes the public catalog endpoints.
type ProductHandlers struct {
	catalog services.CatalogService
}

// NewProductHandlers constructs the public catalog handlers.
func NewProductHandlers(catalog services.CatalogService) *ProductHandlers {
	return &ProductHandlers{catalog: catalog}
}

// Routes wires the /products endpoints onto the provided router.
func (h *ProductHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.listProducts)
	r.Get("/featured", h.featuredProducts)
	r.Get("/{productID}", h.getProduct)
}

func (h *ProductHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	query, err := parseCatalogQuery(r)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	page, err := h.catalog.ListProducts(ctx, query)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildProductPage(page))
}

func (h *ProductHandlers) featuredProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	products, err := h.catalog.FeaturedProducts(ctx)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	payload := make([]productPayload, 0, len(products))
	for _, product := range products {
		payload = append(payload, buildProductPayload(product))
	}
	writeJSONResponse(w, http.StatusOK, productListResponse{Products: payload})
}

func (h *ProductHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	product, err := h.catalog.GetProduct(ctx, chi.URLParam(r, "productID"))
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, productResponse{Product: buildProductPayload(product)})
}

func parseCatalogQuery(r *http.Request) (services.CatalogQuery, error) {
	values := r.URL.Query()
	query := services.CatalogQuery{
		Category: strings.TrimSpace(values.Get("category")),
		Search:   strings.TrimSpace(values.Get("search")),
		Sort:     domain.ProductSortNewest,
	}

	if raw := strings.TrimSpace(values.Get("sort")); raw != "" {
		sort := domain.ProductSort(raw)
		switch sort {
		case domain.ProductSortNewest, domain.ProductSortPriceAsc, domain.ProductSortPriceDesc, domain.ProductSortRating, domain.ProductSortPopular:
			query.Sort = sort
		default:
			return services.CatalogQuery{}, errInvalidQueryValue("sort", raw)
		}
	}

	if raw := strings.TrimSpace(values.Get("minPrice")); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil || price < 0 {
			return services.CatalogQuery{}, errInvalidQueryValue("minPrice", raw)
		}
		query.MinPrice = &price
	}
	if raw := strings.TrimSpace(values.Get("maxPrice")); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil || price < 0 {
			return services.CatalogQuery{}, errInvalidQueryValue("maxPrice", raw)
		}
		query.MaxPrice = &price
	}
	if query.MinPrice != nil && query.MaxPrice != nil && *query.MinPrice > *query.MaxPrice {
		return services.CatalogQuery{}, errInvalidQueryValue("minPrice", "greater than maxPrice")
	}

	if raw := strings.TrimSpace(values.Get("sizes")); raw != "" {
		for _, size := range strings.Split(raw, ",") {
			if size = strings.TrimSpace(size); size != "" {
				query.Sizes = append(query.Sizes, size)
			}
		}
	}

	params, err := pagination.Parse(values, pagination.Options{})
	if err != nil {
		switch {
		case errors.Is(err, pagination.ErrInvalidPage):
			return services.CatalogQuery{}, errInvalidQueryValue("page", values.Get("page"))
		case errors.Is(err, pagination.ErrInvalidLimit):
			return services.CatalogQuery{}, errInvalidQueryValue("limit", values.Get("limit"))
		default:
			return services.CatalogQuery{}, err
		}
	}
	query.Page = params.Page
	query.Limit = params.Limit

	return query, nil
}

func writeCatalogError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCatalogInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCatalogNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCatalogConflict):
		httpx.WriteError(ctx, w, httpx.NewError("catalog_conflict", "catalog entry has been modified; retry", http.StatusConflict))
	case errors.Is(err, services.ErrCatalogImageUpload):
		httpx.WriteError(ctx, w, httpx.NewError("image_upload_failed", "product image could not be stored", http.StatusBadGateway))
	case errors.Is(err, services.ErrCatalogUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("catalog_error", "catalog request failed", http.StatusInternalServerError))
	}
}

var displayPrinter = message.NewPrinter(language.English)

func buildProductPayload(product domain.Product) productPayload {
	return productPayload{
		ID:           product.ID,
		Name:         product.Name,
		Description:  product.Description,
		Category:     product.Category,
		Price:        product.Price,
		DisplayPrice: displayPrinter.Sprintf("%.2f", product.Price),
		Sizes:        product.Sizes,
		Stock:        product.Stock,
		InStock:      product.Stock > 0,
		ImageURL:     product.ImageURL,
		Rating:       product.Rating,
		ReviewCount:  product.ReviewCount,
		CreatedAt:    formatTime(product.CreatedAt),
		UpdatedAt:    formatTime(product.UpdatedAt),
	}
}

func buildProductPage(page domain.Page[domain.Product]) productPageResponse {
	items := make([]productPayload, 0, len(page.Items))
	for _, product := range page.Items {
		items = append(items, buildProductPayload(product))
	}
	return productPageResponse{
		Products:   items,
		Total:      page.Total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: page.TotalPages,
	}
}

type productResponse struct {
	Product productPayload `json:"product"`
}

type productListResponse struct {
	Products []productPayload `json:"products"`
}

type productPageResponse struct {
	Products   []productPayload `json:"products"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"total_pages"`
}

type productPayload struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Category     string   `json:"category"`
	Price        float64  `json:"price"`
	DisplayPrice string   `json:"display_price"`
	Sizes        []string `json:"sizes"`
	Stock        int      `json:"stock"`
	InStock      bool     `json:"in_stock"`
	ImageURL     string   `json:"image_url,omitempty"`
	Rating       float64  `json:"rating"`
	ReviewCount  int      `json:"review_count"`
	CreatedAt    string   `json:"created_at"`
	UpdatedAt    string   `json:"updated_at"`
}
