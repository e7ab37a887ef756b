package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	domain "github.com/swiftcart/api/internal/domain"
	"github.com/swiftcart/api/internal/platform/cache"
	"github.com/swiftcart/api/internal/platform/textutil"
	"github.com/swiftcart/api/internal/repositories"
)

// ErrCatalogInvalidInput indicates the caller supplied invalid input.
var ErrCatalogInvalidInput = errors.New("catalog service: invalid input")

// ErrCatalogNotFound indicates the requested product does not exist.
var ErrCatalogNotFound = errors.New("catalog service: not found")

// ErrCatalogConflict indicates a concurrent modification clashed.
var ErrCatalogConflict = errors.New("catalog service: conflict")

// ErrCatalogUnavailable indicates the backing store cannot fulfil the request.
var ErrCatalogUnavailable = errors.New("catalog service: unavailable")

// ErrCatalogImageUpload indicates the product image could not be stored.
// Creates abort rather than persisting an entry without its image.
var ErrCatalogImageUpload = errors.New("catalog service: image upload failed")

const featuredProductCount = 4

// ImageUploader stores catalog images and returns their public URL.
type ImageUploader interface {
	UploadProductImage(ctx context.Context, productID, fileName string, data []byte) (string, error)
	UploadSaleImage(ctx context.Context, saleID, fileName string, data []byte) (string, error)
}

// CatalogServiceDeps wires the repository, cache, and upload dependencies.
type CatalogServiceDeps struct {
	Products    repositories.ProductRepository
	Cache       cache.Cache
	Uploader    ImageUploader
	Clock       func() time.Time
	Logger      func(context.Context, string, map[string]any)
	IDGenerator func(prefix string) string
}

type catalogService struct {
	products  repositories.ProductRepository
	cache     cache.Cache
	uploader  ImageUploader
	sanitizer *bluemonday.Policy
	now       func() time.Time
	newID     func(prefix string) string
	logger    func(context.Context, string, map[string]any)
}

// NewCatalogService constructs a CatalogService enforcing dependency validation.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Products == nil {
		return nil, errors.New("catalog service: product repository is required")
	}
	if deps.Clock == nil {
		return nil, errors.New("catalog service: clock is required")
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
		idGen = newCatalogID
	}

	return &catalogService{
		products:  deps.Products,
		cache:     store,
		uploader:  deps.Uploader,
		sanitizer: bluemonday.UGCPolicy(),
		now:       func() time.Time { return deps.Clock().UTC() },
		newID:     idGen,
		logger:    logger,
	}, nil
}

func (s *catalogService) ListProducts(ctx context.Context, query CatalogQuery) (domain.Page[domain.Product], error) {
	filter := repositories.ProductListFilter{
		Category: strings.TrimSpace(query.Category),
		Keywords: textutil.Keywords(query.Search),
		MinPrice: query.MinPrice,
		MaxPrice: query.MaxPrice,
		Sizes:    query.Sizes,
		Sort:     query.Sort,
		Pagination: domain.Pagination{
			Page:  query.Page,
			Limit: query.Limit,
		},
	}

	key := cache.ProductListKey(filter, string(query.Sort))
	var cached domain.Page[domain.Product]
	if err := s.cache.GetJSON(ctx, key, &cached); err == nil {
		return cached, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		s.logger(ctx, "catalog.cache_read_failed", map[string]any{"key": key, "error": err.Error()})
	}

	page, err := s.products.List(ctx, filter)
	if err != nil {
		return domain.Page[domain.Product]{}, s.translate(err)
	}

	if err := s.cache.SetJSON(ctx, key, page, cache.ProductTTL); err != nil {
		s.logger(ctx, "catalog.cache_write_failed", map[string]any{"key": key, "error": err.Error()})
	}
	return page, nil
}

func (s *catalogService) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	id := strings.TrimSpace(productID)
	if id == "" {
		return domain.Product{}, fmt.Errorf("%w: product id is required", ErrCatalogInvalidInput)
	}

	key := cache.ProductKey(id)
	var cached domain.Product
	if err := s.cache.GetJSON(ctx, key, &cached); err == nil {
		return cached, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		s.logger(ctx, "catalog.cache_read_failed", map[string]any{"key": key, "error": err.Error()})
	}

	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return domain.Product{}, s.translate(err)
	}

	if err := s.cache.SetJSON(ctx, key, product, cache.ProductTTL); err != nil {
		s.logger(ctx, "catalog.cache_write_failed", map[string]any{"key": key, "error": err.Error()})
	}
	return product, nil
}

func (s *catalogService) FeaturedProducts(ctx context.Context) ([]domain.Product, error) {
	var cached []domain.Product
	if err := s.cache.GetJSON(ctx, cache.FeaturedProductsKey, &cached); err == nil {
		return cached, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		s.logger(ctx, "catalog.cache_read_failed", map[string]any{"key": cache.FeaturedProductsKey, "error": err.Error()})
	}

	products, err := s.products.ListNewest(ctx, featuredProductCount)
	if err != nil {
		return nil, s.translate(err)
	}

	if err := s.cache.SetJSON(ctx, cache.FeaturedProductsKey, products, cache.ProductTTL); err != nil {
		s.logger(ctx, "catalog.cache_write_failed", map[string]any{"key": cache.FeaturedProductsKey, "error": err.Error()})
	}
	return products, nil
}

func (s *catalogService) CreateProduct(ctx context.Context, input ProductInput) (domain.Product, error) {
	product, err := s.buildProduct(input)
	if err != nil {
		return domain.Product{}, err
	}

	if len(input.ImageData) > 0 {
		if s.uploader == nil {
			return domain.Product{}, ErrCatalogImageUpload
		}
		url, err := s.uploader.UploadProductImage(ctx, product.ID, input.ImageName, input.ImageData)
		if err != nil {
			s.logger(ctx, "catalog.image_upload_failed", map[string]any{"productID": product.ID, "error": err.Error()})
			return domain.Product{}, ErrCatalogImageUpload
		}
		product.ImageURL = url
	}
	if product.ImageURL == "" {
		return domain.Product{}, fmt.Errorf("%w: product image is required", ErrCatalogInvalidInput)
	}

	if err := s.products.Insert(ctx, product); err != nil {
		return domain.Product{}, s.translate(err)
	}

	s.invalidateProducts(ctx, product.ID)
	return product, nil
}

func (s *catalogService) CreateProducts(ctx context.Context, inputs []ProductInput) ([]domain.Product, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: at least one product is required", ErrCatalogInvalidInput)
	}

	created := make([]domain.Product, 0, len(inputs))
	for i, input := range inputs {
		product, err := s.CreateProduct(ctx, input)
		if err != nil {
			return created, fmt.Errorf("product %d: %w", i, err)
		}
		created = append(created, product)
	}
	return created, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, input ProductInput) (domain.Product, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return domain.Product{}, fmt.Errorf("%w: product id is required", ErrCatalogInvalidInput)
	}

	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return domain.Product{}, s.translate(err)
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		product.Name = name
	}
	if desc := strings.TrimSpace(input.Description); desc != "" {
		product.Description = s.sanitizer.Sanitize(desc)
	}
	if category := strings.TrimSpace(input.Category); category != "" {
		product.Category = category
	}
	if raw := strings.TrimSpace(input.Price); raw != "" {
		price, err := parsePrice(raw)
		if err != nil {
			return domain.Product{}, err
		}
		product.Price = price
	}
	if raw := strings.TrimSpace(input.Stock); raw != "" {
		stock, err := parseStock(raw)
		if err != nil {
			return domain.Product{}, err
		}
		product.Stock = stock
	}
	if raw := strings.TrimSpace(input.Sizes); raw != "" {
		sizes, err := parseSizes(raw)
		if err != nil {
			return domain.Product{}, err
		}
		product.Sizes = sizes
	}
	if len(input.ImageData) > 0 {
		if s.uploader == nil {
			return domain.Product{}, ErrCatalogImageUpload
		}
		url, err := s.uploader.UploadProductImage(ctx, product.ID, input.ImageName, input.ImageData)
		if err != nil {
			s.logger(ctx, "catalog.image_upload_failed", map[string]any{"productID": product.ID, "error": err.Error()})
			return domain.Product{}, ErrCatalogImageUpload
		}
		product.ImageURL = url
	} else if url := strings.TrimSpace(input.ImageURL); url != "" {
		product.ImageURL = url
	}

	product.Keywords = textutil.Keywords(product.Name + " " + product.Category)
	product.UpdatedAt = s.now()

	if err := s.products.Update(ctx, product); err != nil {
		return domain.Product{}, s.translate(err)
	}

	s.invalidateProducts(ctx, product.ID)
	return product, nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, productID string) error {
	id := strings.TrimSpace(productID)
	if id == "" {
		return fmt.Errorf("%w: product id is required", ErrCatalogInvalidInput)
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return s.translate(err)
	}
	s.invalidateProducts(ctx, id)
	return nil
}

func (s *catalogService) buildProduct(input ProductInput) (domain.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return domain.Product{}, fmt.Errorf("%w: product name is required", ErrCatalogInvalidInput)
	}
	category := strings.TrimSpace(input.Category)
	if category == "" {
		return domain.Product{}, fmt.Errorf("%w: product category is required", ErrCatalogInvalidInput)
	}
	price, err := parsePrice(input.Price)
	if err != nil {
		return domain.Product{}, err
	}
	stock, err := parseStock(input.Stock)
	if err != nil {
		return domain.Product{}, err
	}
	sizes, err := parseSizes(input.Sizes)
	if err != nil {
		return domain.Product{}, err
	}

	id := strings.TrimSpace(input.ID)
	if id == "" {
		id = s.newID("PROD")
	}

	now := s.now()
	return domain.Product{
		ID:          id,
		Name:        name,
		Description: s.sanitizer.Sanitize(strings.TrimSpace(input.Description)),
		Category:    category,
		Price:       price,
		Sizes:       sizes,
		Stock:       stock,
		ImageURL:    strings.TrimSpace(input.ImageURL),
		Keywords:    textutil.Keywords(name + " " + category),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// invalidateProducts drops the exact document key and sweeps the listing
// prefix. Failures are logged; the store remains authoritative.
func (s *catalogService) invalidateProducts(ctx context.Context, productID string) {
	if err := s.cache.Delete(ctx, cache.ProductKey(productID)); err != nil {
		s.logger(ctx, "catalog.cache_invalidate_failed", map[string]any{"productID": productID, "error": err.Error()})
	}
	if err := s.cache.DeleteByPrefix(ctx, cache.ProductsPrefix); err != nil {
		s.logger(ctx, "catalog.cache_invalidate_failed", map[string]any{"prefix": cache.ProductsPrefix, "error": err.Error()})
	}
}

func (s *catalogService) translate(err error) error {
	return translateRepoError(err, ErrCatalogNotFound, ErrCatalogConflict, ErrCatalogUnavailable)
}

func parsePrice(raw string) (float64, error) {
	price, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || price <= 0 {
		return 0, fmt.Errorf("%w: price must be a positive number", ErrCatalogInvalidInput)
	}
	return price, nil
}

func parseStock(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	stock, err := strconv.Atoi(raw)
	if err != nil || stock < 0 {
		return 0, fmt.Errorf("%w: stock must be a non-negative integer", ErrCatalogInvalidInput)
	}
	return stock, nil
}

// parseSizes accepts either a JSON string array or a comma separated list.
func parseSizes(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: at least one size is required", ErrCatalogInvalidInput)
	}

	var parsed []string
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		parsed = strings.Split(raw, ",")
	}

	sizes := make([]string, 0, len(parsed))
	for _, size := range parsed {
		if size = strings.TrimSpace(size); size != "" {
			sizes = append(sizes, size)
		}
	}
	if len(sizes) == 0 {
		return nil, fmt.Errorf("%w: at least one size is required", ErrCatalogInvalidInput)
	}
	return sizes, nil
}
