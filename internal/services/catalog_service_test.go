package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	domain "github.com/swiftcart/api/internal/domain"
	"github.com/swiftcart/api/internal/platform/cache"
)

func newCatalogForTest(t *testing.T, repo *stubProductRepo, store *memoryCache, uploader ImageUploader) CatalogService {
	t.Helper()
	svc, err := NewCatalogService(CatalogServiceDeps{
		Products: repo,
		Cache:    store,
		Uploader: uploader,
		Clock:    fixedClock,
	})
	if err != nil {
		t.Fatalf("NewCatalogService: %v", err)
	}
	return svc
}

func TestCatalogServiceListProductsCachesPage(t *testing.T) {
	repo := newStubProductRepo()
	repo.listPage = domain.Page[domain.Product]{
		Items:      []domain.Product{{ID: "PROD-AAA", Name: "Tee", Price: 499}},
		Total:      1,
		Page:       1,
		Limit:      20,
		TotalPages: 1,
	}
	store := newMemoryCache()
	svc := newCatalogForTest(t, repo, store, nil)

	query := CatalogQuery{Category: "tees", Sort: domain.ProductSortNewest}
	first, err := svc.ListProducts(context.Background(), query)
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if len(first.Items) != 1 || first.Items[0].ID != "PROD-AAA" {
		t.Fatalf("unexpected page: %+v", first)
	}

	if _, err := svc.ListProducts(context.Background(), query); err != nil {
		t.Fatalf("ListProducts (cached): %v", err)
	}
	if repo.listCalls != 1 {
		t.Fatalf("expected 1 repo call, got %d", repo.listCalls)
	}
}

func TestCatalogServiceListProductsSurvivesCacheOutage(t *testing.T) {
	repo := newStubProductRepo()
	repo.listPage = domain.Page[domain.Product]{Items: []domain.Product{{ID: "PROD-AAA"}}, Total: 1, Page: 1, Limit: 20, TotalPages: 1}
	store := newMemoryCache()
	store.failGet = true
	svc := newCatalogForTest(t, repo, store, nil)

	page, err := svc.ListProducts(context.Background(), CatalogQuery{})
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("expected repo fallback, got %+v", page)
	}
}

func TestCatalogServiceGetProductValidatesID(t *testing.T) {
	svc := newCatalogForTest(t, newStubProductRepo(), newMemoryCache(), nil)

	if _, err := svc.GetProduct(context.Background(), "  "); !errors.Is(err, ErrCatalogInvalidInput) {
		t.Fatalf("expected ErrCatalogInvalidInput, got %v", err)
	}
}

func TestCatalogServiceGetProductNotFound(t *testing.T) {
	svc := newCatalogForTest(t, newStubProductRepo(), newMemoryCache(), nil)

	if _, err := svc.GetProduct(context.Background(), "PROD-MISSING"); !errors.Is(err, ErrCatalogNotFound) {
		t.Fatalf("expected ErrCatalogNotFound, got %v", err)
	}
}

func TestCatalogServiceCreateProductSanitizesAndUploads(t *testing.T) {
	repo := newStubProductRepo()
	store := newMemoryCache()
	uploader := &stubUploader{}
	svc := newCatalogForTest(t, repo, store, uploader)

	product, err := svc.CreateProduct(context.Background(), ProductInput{
		Name:        "Oversized Hoodie",
		Description: `Cozy <script>alert("x")</script> fleece`,
		Category:    "hoodies",
		Price:       "1299.00",
		Stock:       "25",
		Sizes:       `["S","M","L"]`,
		ImageData:   []byte{0xFF, 0xD8},
		ImageName:   "front.jpg",
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if !strings.HasPrefix(product.ID, "PROD-") {
		t.Fatalf("unexpected id %q", product.ID)
	}
	if strings.Contains(product.Description, "<script>") {
		t.Fatalf("description not sanitized: %q", product.Description)
	}
	if product.Price != 1299 || product.Stock != 25 {
		t.Fatalf("unexpected coercion: price=%v stock=%d", product.Price, product.Stock)
	}
	if len(product.Sizes) != 3 {
		t.Fatalf("unexpected sizes: %v", product.Sizes)
	}
	if uploader.calls != 1 || !strings.Contains(product.ImageURL, product.ID) {
		t.Fatalf("unexpected image url %q", product.ImageURL)
	}
	if len(product.Keywords) == 0 {
		t.Fatalf("expected search keywords")
	}
}

func TestCatalogServiceCreateProductCSVSizes(t *testing.T) {
	svc := newCatalogForTest(t, newStubProductRepo(), newMemoryCache(), nil)

	product, err := svc.CreateProduct(context.Background(), ProductInput{
		Name:     "Basic Tee",
		Category: "tees",
		Price:    "499",
		Stock:    "10",
		Sizes:    "S, M ,L",
		ImageURL: "https://cdn.example.com/tee.jpg",
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	want := []string{"S", "M", "L"}
	if len(product.Sizes) != len(want) {
		t.Fatalf("unexpected sizes: %v", product.Sizes)
	}
	for i, size := range want {
		if product.Sizes[i] != size {
			t.Fatalf("sizes[%d] = %q, want %q", i, product.Sizes[i], size)
		}
	}
}

func TestCatalogServiceCreateProductAbortsOnUploadFailure(t *testing.T) {
	repo := newStubProductRepo()
	uploader := &stubUploader{err: errors.New("bucket unreachable")}
	svc := newCatalogForTest(t, repo, newMemoryCache(), uploader)

	_, err := svc.CreateProduct(context.Background(), ProductInput{
		Name:      "Basic Tee",
		Category:  "tees",
		Price:     "499",
		Stock:     "10",
		Sizes:     "S",
		ImageData: []byte{0x01},
		ImageName: "tee.jpg",
	})
	if !errors.Is(err, ErrCatalogImageUpload) {
		t.Fatalf("expected ErrCatalogImageUpload, got %v", err)
	}
	if len(repo.products) != 0 {
		t.Fatalf("product persisted despite upload failure")
	}
}

func TestCatalogServiceCreateProductRejectsBadNumbers(t *testing.T) {
	svc := newCatalogForTest(t, newStubProductRepo(), newMemoryCache(), nil)

	cases := []ProductInput{
		{Name: "Tee", Category: "tees", Price: "free", Stock: "1", Sizes: "S", ImageURL: "https://x/y.jpg"},
		{Name: "Tee", Category: "tees", Price: "-5", Stock: "1", Sizes: "S", ImageURL: "https://x/y.jpg"},
		{Name: "Tee", Category: "tees", Price: "499", Stock: "-1", Sizes: "S", ImageURL: "https://x/y.jpg"},
		{Name: "Tee", Category: "tees", Price: "499", Stock: "1", Sizes: " , ", ImageURL: "https://x/y.jpg"},
	}
	for i, input := range cases {
		if _, err := svc.CreateProduct(context.Background(), input); !errors.Is(err, ErrCatalogInvalidInput) {
			t.Fatalf("case %d: expected ErrCatalogInvalidInput, got %v", i, err)
		}
	}
}

func TestCatalogServiceUpdateProductInvalidatesCache(t *testing.T) {
	existing := domain.Product{ID: "PROD-AAA", Name: "Tee", Category: "tees", Price: 499, Stock: 5, Sizes: []string{"S"}, ImageURL: "https://x/y.jpg"}
	repo := newStubProductRepo(existing)
	store := newMemoryCache()
	svc := newCatalogForTest(t, repo, store, nil)

	// Warm both the document key and a listing key.
	if _, err := svc.GetProduct(context.Background(), "PROD-AAA"); err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if _, err := svc.ListProducts(context.Background(), CatalogQuery{Category: "tees"}); err != nil {
		t.Fatalf("ListProducts: %v", err)
	}

	updated, err := svc.UpdateProduct(context.Background(), ProductInput{ID: "PROD-AAA", Price: "599"})
	if err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}
	if updated.Price != 599 {
		t.Fatalf("price not updated: %v", updated.Price)
	}
	if updated.Name != "Tee" {
		t.Fatalf("unset fields must be preserved, got %+v", updated)
	}
	if store.has(cache.ProductKey("PROD-AAA")) {
		t.Fatalf("document key not invalidated")
	}
	for key := range store.entries {
		if strings.HasPrefix(key, cache.ProductsPrefix) {
			t.Fatalf("listing key %q not invalidated", key)
		}
	}
}

func TestCatalogServiceCreateProductsStopsOnFirstFailure(t *testing.T) {
	repo := newStubProductRepo()
	svc := newCatalogForTest(t, repo, newMemoryCache(), nil)

	created, err := svc.CreateProducts(context.Background(), []ProductInput{
		{Name: "Tee", Category: "tees", Price: "499", Stock: "1", Sizes: "S", ImageURL: "https://x/a.jpg"},
		{Name: "", Category: "tees", Price: "499", Stock: "1", Sizes: "S", ImageURL: "https://x/b.jpg"},
	})
	if !errors.Is(err, ErrCatalogInvalidInput) {
		t.Fatalf("expected ErrCatalogInvalidInput, got %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("expected the first product to be reported as created, got %d", len(created))
	}
}

func TestCatalogServiceDeleteProduct(t *testing.T) {
	repo := newStubProductRepo(domain.Product{ID: "PROD-AAA"})
	svc := newCatalogForTest(t, repo, newMemoryCache(), nil)

	if err := svc.DeleteProduct(context.Background(), "PROD-AAA"); err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}
	if err := svc.DeleteProduct(context.Background(), "PROD-AAA"); !errors.Is(err, ErrCatalogNotFound) {
		t.Fatalf("expected ErrCatalogNotFound, got %v", err)
	}
}
