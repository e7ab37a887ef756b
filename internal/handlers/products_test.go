package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	domain "github.com/swiftcart/api/internal/domain"
	"github.com/swiftcart/api/internal/services"
)

func newProductRouter(catalog services.CatalogService) chi.Router {
	router := chi.NewRouter()
	router.Route("/products", NewProductHandlers(catalog).Routes)
	return router
}

func TestProductHandlersListParsesQuery(t *testing.T) {
	catalog := &stubCatalogService{
		page: domain.Page[domain.Product]{
			Items:      []domain.Product{sampleProduct("PROD-1")},
			Total:      1,
			Page:       2,
			Limit:      12,
			TotalPages: 1,
		},
	}
	router := newProductRouter(catalog)

	rec := doRequest(router, httptest.NewRequest(http.MethodGet, "/products?category=hoodies&search=oversized&sort=price-asc&minPrice=500&maxPrice=2000&sizes=M,L&page=2&limit=12", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	q := catalog.lastQuery
	if q.Category != "hoodies" || q.Search != "oversized" || q.Sort != domain.ProductSortPriceAsc {
		t.Fatalf("query = %+v", q)
	}
	if q.MinPrice == nil || *q.MinPrice != 500 || q.MaxPrice == nil || *q.MaxPrice != 2000 {
		t.Fatalf("price bounds = %v %v", q.MinPrice, q.MaxPrice)
	}
	if len(q.Sizes) != 2 || q.Page != 2 || q.Limit != 12 {
		t.Fatalf("query = %+v", q)
	}

	var resp struct {
		Products []struct {
			ID           string `json:"id"`
			DisplayPrice string `json:"display_price"`
		} `json:"products"`
		Total int64 `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Products) != 1 || resp.Products[0].ID != "PROD-1" {
		t.Fatalf("products = %+v", resp.Products)
	}
	if resp.Products[0].DisplayPrice != "1,299.00" {
		t.Fatalf("display price = %q", resp.Products[0].DisplayPrice)
	}
}

func TestProductHandlersListRejectsBadQuery(t *testing.T) {
	router := newProductRouter(&stubCatalogService{})

	for name, target := range map[string]string{
		"unknown sort":    "/products?sort=cheapest",
		"negative min":    "/products?minPrice=-5",
		"inverted bounds": "/products?minPrice=100&maxPrice=50",
		"zero page":       "/products?page=0",
		"bad limit":       "/products?limit=abc",
	} {
		rec := doRequest(router, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d", name, rec.Code)
		}
	}
}

func TestProductHandlersGetMapsNotFound(t *testing.T) {
	router := newProductRouter(&stubCatalogService{err: services.ErrCatalogNotFound})

	rec := doRequest(router, httptest.NewRequest(http.MethodGet, "/products/PROD-missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error != "product_not_found" {
		t.Fatalf("error code = %q", resp.Error)
	}
}

func TestProductHandlersFeatured(t *testing.T) {
	catalog := &stubCatalogService{featured: []domain.Product{sampleProduct("PROD-1"), sampleProduct("PROD-2")}}
	router := newProductRouter(catalog)

	rec := doRequest(router, httptest.NewRequest(http.MethodGet, "/products/featured", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		Products []json.RawMessage `json:"products"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Products) != 2 {
		t.Fatalf("featured count = %d", len(resp.Products))
	}
}

func TestProductHandlersServiceOutage(t *testing.T) {
	router := newProductRouter(&stubCatalogService{err: services.ErrCatalogUnavailable})

	rec := doRequest(router, httptest.NewRequest(http.MethodGet, "/products", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
}
