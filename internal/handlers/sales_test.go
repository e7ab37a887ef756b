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

func newSaleRouter(sales services.SaleService) chi.Router {
	router := chi.NewRouter()
	router.Route("/sales", NewSaleHandlers(sales).Routes)
	return router
}

func sampleSale(id string) domain.Sale {
	return domain.Sale{
		ID:        id,
		Name:      "Festival Hoodie",
		Category:  "hoodies",
		Price:     1000,
		SalePrice: 750,
		Discount:  25,
		SaleMode:  "diwali",
		IsActive:  true,
		CreatedAt: handlerNow,
		UpdatedAt: handlerNow,
	}
}

func TestSaleHandlersListDefaultsToActive(t *testing.T) {
	sales := &stubSaleService{sales: []domain.Sale{sampleSale("SALE-1")}}
	router := newSaleRouter(sales)

	rec := doRequest(router, httptest.NewRequest(http.MethodGet, "/sales", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !sales.lastOnly {
		t.Fatal("listing should default to active sales only")
	}

	var resp struct {
		Sales []struct {
			ID       string  `json:"id"`
			Discount float64 `json:"discount"`
		} `json:"sales"`
		Total int `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 1 || resp.Sales[0].Discount != 25 {
		t.Fatalf("response = %+v", resp)
	}
}

func TestSaleHandlersListAllWhenRequested(t *testing.T) {
	sales := &stubSaleService{}
	router := newSaleRouter(sales)

	rec := doRequest(router, httptest.NewRequest(http.MethodGet, "/sales?active=false", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if sales.lastOnly {
		t.Fatal("active=false should list every sale")
	}
}

func TestSaleHandlersActiveAliasForcesActiveOnly(t *testing.T) {
	sales := &stubSaleService{sales: []domain.Sale{sampleSale("SALE-1")}}
	router := newSaleRouter(sales)

	rec := doRequest(router, httptest.NewRequest(http.MethodGet, "/sales/active", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !sales.lastOnly {
		t.Fatal("/sales/active must list active sales only")
	}
}

func TestSaleHandlersListRejectsBadActiveFlag(t *testing.T) {
	router := newSaleRouter(&stubSaleService{})

	rec := doRequest(router, httptest.NewRequest(http.MethodGet, "/sales?active=maybe", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestSaleHandlersGetMapsNotFound(t *testing.T) {
	router := newSaleRouter(&stubSaleService{err: services.ErrSaleNotFound})

	rec := doRequest(router, httptest.NewRequest(http.MethodGet, "/sales/SALE-missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestSaleHandlersListModes(t *testing.T) {
	router := newSaleRouter(&stubSaleService{modes: []domain.SaleMode{
		{ID: "mode-1", Name: "diwali", Title: "Diwali Drop", IsActive: true},
		{ID: "mode-2", Name: "summer", Title: "Summer Clearance"},
	}})

	rec := doRequest(router, httptest.NewRequest(http.MethodGet, "/sales/modes", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		Modes []struct {
			Name     string `json:"name"`
			IsActive bool   `json:"is_active"`
		} `json:"modes"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Modes) != 2 || !resp.Modes[0].IsActive || resp.Modes[1].IsActive {
		t.Fatalf("modes = %+v", resp.Modes)
	}
}
