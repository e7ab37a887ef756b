package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	domain "github.com/swiftcart/api/internal/domain"
	"github.com/swiftcart/api/internal/platform/cache"
)

func newSaleForTest(t *testing.T, sales *stubSaleRepo, modes *stubSaleModeRepo, store *memoryCache, uploader ImageUploader) SaleService {
	t.Helper()
	svc, err := NewSaleService(SaleServiceDeps{
		Sales:     sales,
		SaleModes: modes,
		Cache:     store,
		Uploader:  uploader,
		Clock:     fixedClock,
	})
	if err != nil {
		t.Fatalf("NewSaleService: %v", err)
	}
	return svc
}

func TestSaleServiceCreateSaleComputesDiscount(t *testing.T) {
	sales := newStubSaleRepo()
	svc := newSaleForTest(t, sales, newStubSaleModeRepo(), newMemoryCache(), nil)

	sale, err := svc.CreateSale(context.Background(), SaleInput{
		Name:      "Festival Tee",
		Category:  "tees",
		Price:     "1000",
		SalePrice: "750",
		Stock:     "20",
		Sizes:     "S,M",
		SaleMode:  "diwali",
		ImageURL:  "https://cdn.example.com/sale.jpg",
	})
	if err != nil {
		t.Fatalf("CreateSale: %v", err)
	}
	if !strings.HasPrefix(sale.ID, "SALE-") {
		t.Fatalf("unexpected id %q", sale.ID)
	}
	if sale.Discount != 25 {
		t.Fatalf("discount = %v, want 25", sale.Discount)
	}
	if !sale.IsActive {
		t.Fatalf("new sales must start active")
	}
}

func TestSaleServiceCreateSaleRejectsInvertedPrices(t *testing.T) {
	svc := newSaleForTest(t, newStubSaleRepo(), newStubSaleModeRepo(), newMemoryCache(), nil)

	_, err := svc.CreateSale(context.Background(), SaleInput{
		Name:      "Bad Deal",
		Category:  "tees",
		Price:     "500",
		SalePrice: "600",
		Stock:     "1",
		Sizes:     "S",
		SaleMode:  "diwali",
		ImageURL:  "https://cdn.example.com/sale.jpg",
	})
	if !errors.Is(err, ErrSaleInvalidInput) {
		t.Fatalf("expected ErrSaleInvalidInput, got %v", err)
	}
}

func TestSaleServiceListSalesCaches(t *testing.T) {
	sales := newStubSaleRepo(
		domain.Sale{ID: "SALE-1", IsActive: true},
		domain.Sale{ID: "SALE-2", IsActive: false},
	)
	store := newMemoryCache()
	svc := newSaleForTest(t, sales, newStubSaleModeRepo(), store, nil)

	active, err := svc.ListSales(context.Background(), true)
	if err != nil {
		t.Fatalf("ListSales: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("expected 1 active sale, got %d", len(active))
	}
	if !store.has(cache.SalesActiveKey) {
		t.Fatalf("active listing not cached")
	}

	all, err := svc.ListSales(context.Background(), false)
	if err != nil {
		t.Fatalf("ListSales: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 sales, got %d", len(all))
	}
}

func TestSaleServiceUpdateSaleRecomputesDiscount(t *testing.T) {
	sales := newStubSaleRepo(domain.Sale{
		ID:        "SALE-1",
		Name:      "Festival Tee",
		Category:  "tees",
		Price:     1000,
		SalePrice: 750,
		Discount:  25,
		SaleMode:  "diwali",
		IsActive:  true,
	})
	store := newMemoryCache()
	svc := newSaleForTest(t, sales, newStubSaleModeRepo(), store, nil)

	if _, err := svc.GetSale(context.Background(), "SALE-1"); err != nil {
		t.Fatalf("GetSale: %v", err)
	}
	if !store.has(cache.SaleKey("SALE-1")) {
		t.Fatalf("sale not cached after read")
	}

	sale, err := svc.UpdateSale(context.Background(), SaleInput{ID: "SALE-1", SalePrice: "500"})
	if err != nil {
		t.Fatalf("UpdateSale: %v", err)
	}
	if sale.SalePrice != 500 || sale.Discount != 50 {
		t.Fatalf("discount not recomputed: %+v", sale)
	}
	// Untouched fields survive a partial update.
	if sale.Name != "Festival Tee" || sale.SaleMode != "diwali" {
		t.Fatalf("fields lost on partial update: %+v", sale)
	}
	if store.has(cache.SaleKey("SALE-1")) {
		t.Fatalf("cached sale must be invalidated on update")
	}
}

func TestSaleServiceUpdateSaleRejectsInvertedPrices(t *testing.T) {
	sales := newStubSaleRepo(domain.Sale{ID: "SALE-1", Name: "Tee", Category: "tees", Price: 1000, SalePrice: 750})
	svc := newSaleForTest(t, sales, newStubSaleModeRepo(), newMemoryCache(), nil)

	if _, err := svc.UpdateSale(context.Background(), SaleInput{ID: "SALE-1", SalePrice: "1200"}); !errors.Is(err, ErrSaleInvalidInput) {
		t.Fatalf("expected ErrSaleInvalidInput, got %v", err)
	}
	if _, err := svc.UpdateSale(context.Background(), SaleInput{ID: "SALE-404", SalePrice: "1"}); !errors.Is(err, ErrSaleNotFound) {
		t.Fatalf("expected ErrSaleNotFound, got %v", err)
	}
}

func TestSaleServiceDeleteSaleInvalidatesListings(t *testing.T) {
	sales := newStubSaleRepo(domain.Sale{ID: "SALE-1", IsActive: true})
	store := newMemoryCache()
	svc := newSaleForTest(t, sales, newStubSaleModeRepo(), store, nil)

	if _, err := svc.ListSales(context.Background(), false); err != nil {
		t.Fatalf("ListSales: %v", err)
	}
	if err := svc.DeleteSale(context.Background(), "SALE-1"); err != nil {
		t.Fatalf("DeleteSale: %v", err)
	}
	if store.has(cache.SalesAllKey) {
		t.Fatalf("sale listings must be invalidated on delete")
	}
	if err := svc.DeleteSale(context.Background(), "SALE-1"); !errors.Is(err, ErrSaleNotFound) {
		t.Fatalf("expected ErrSaleNotFound, got %v", err)
	}
}

func TestSaleServiceToggleSaleModeIsExclusive(t *testing.T) {
	modes := newStubSaleModeRepo(
		domain.SaleMode{ID: "diwali", Name: "diwali", IsActive: true},
		domain.SaleMode{ID: "summer", Name: "summer", IsActive: false},
	)
	svc := newSaleForTest(t, newStubSaleRepo(), modes, newMemoryCache(), nil)

	toggled, err := svc.ToggleSaleMode(context.Background(), "summer")
	if err != nil {
		t.Fatalf("ToggleSaleMode: %v", err)
	}
	if !toggled.IsActive {
		t.Fatalf("target mode must be active: %+v", toggled)
	}
	if modes.modes["diwali"].IsActive {
		t.Fatalf("previously active mode must be deactivated")
	}
}

func TestSaleServiceToggleSaleModeUnknown(t *testing.T) {
	svc := newSaleForTest(t, newStubSaleRepo(), newStubSaleModeRepo(), newMemoryCache(), nil)

	if _, err := svc.ToggleSaleMode(context.Background(), "nope"); !errors.Is(err, ErrSaleNotFound) {
		t.Fatalf("expected ErrSaleNotFound, got %v", err)
	}
}

func TestSaleServiceUpsertSaleMode(t *testing.T) {
	modes := newStubSaleModeRepo()
	svc := newSaleForTest(t, newStubSaleRepo(), modes, newMemoryCache(), nil)

	mode, err := svc.UpsertSaleMode(context.Background(), SaleModeInput{Name: "Diwali", Title: "Diwali Dhamaka", Banner: "https://cdn/banner.jpg"})
	if err != nil {
		t.Fatalf("UpsertSaleMode: %v", err)
	}
	if mode.Title != "Diwali Dhamaka" {
		t.Fatalf("unexpected mode: %+v", mode)
	}
	if _, err := svc.UpsertSaleMode(context.Background(), SaleModeInput{Name: "   "}); !errors.Is(err, ErrSaleInvalidInput) {
		t.Fatalf("expected ErrSaleInvalidInput, got %v", err)
	}
}

func TestSaleServiceDeleteSaleMode(t *testing.T) {
	modes := newStubSaleModeRepo(domain.SaleMode{ID: "diwali", Name: "diwali", IsActive: true})
	store := newMemoryCache()
	svc := newSaleForTest(t, newStubSaleRepo(), modes, store, nil)

	if _, err := svc.ListSales(context.Background(), false); err != nil {
		t.Fatalf("ListSales: %v", err)
	}
	if err := svc.DeleteSaleMode(context.Background(), "Diwali"); err != nil {
		t.Fatalf("DeleteSaleMode: %v", err)
	}
	if _, ok := modes.modes["diwali"]; ok {
		t.Fatalf("mode not deleted")
	}
	if store.has(cache.SalesAllKey) {
		t.Fatalf("sale listings must be invalidated on mode delete")
	}
	if err := svc.DeleteSaleMode(context.Background(), "diwali"); !errors.Is(err, ErrSaleNotFound) {
		t.Fatalf("expected ErrSaleNotFound, got %v", err)
	}
	if err := svc.DeleteSaleMode(context.Background(), "  "); !errors.Is(err, ErrSaleInvalidInput) {
		t.Fatalf("expected ErrSaleInvalidInput, got %v", err)
	}
}
