package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	domain "github.com/swiftcart/api/internal/domain"
	"github.com/swiftcart/api/internal/platform/cache"
	"github.com/swiftcart/api/internal/repositories"
)

// ErrSaleInvalidInput indicates the caller supplied invalid input.
var ErrSaleInvalidInput = errors.New("sale service: invalid input")

// ErrSaleNotFound indicates the sale or sale mode does not exist.
var ErrSaleNotFound = errors.New("sale service: not found")

// ErrSaleConflict indicates a concurrent modification clashed.
var ErrSaleConflict = errors.New("sale service: conflict")

// ErrSaleUnavailable indicates the backing store cannot fulfil the request.
var ErrSaleUnavailable = errors.New("sale service: unavailable")

// ErrSaleImageUpload indicates the sale image could not be stored.
var ErrSaleImageUpload = errors.New("sale service: image upload failed")

// SaleServiceDeps wires the sale repositories, cache, and uploader.
type SaleServiceDeps struct {
	Sales       repositories.SaleRepository
	SaleModes   repositories.SaleModeRepository
	Cache       cache.Cache
	Uploader    ImageUploader
	Clock       func() time.Time
	Logger      func(context.Context, string, map[string]any)
	IDGenerator func(prefix string) string
}

type saleService struct {
	sales     repositories.SaleRepository
	saleModes repositories.SaleModeRepository
	cache     cache.Cache
	uploader  ImageUploader
	sanitizer *bluemonday.Policy
	now       func() time.Time
	newID     func(prefix string) string
	logger    func(context.Context, string, map[string]any)
}

// NewSaleService constructs a SaleService enforcing dependency validation.
func NewSaleService(deps SaleServiceDeps) (SaleService, error) {
	if deps.Sales == nil {
		return nil, errors.New("sale service: sale repository is required")
	}
	if deps.SaleModes == nil {
		return nil, errors.New("sale service: sale mode repository is required")
	}
	if deps.Clock == nil {
		return nil, errors.New("sale service: clock is required")
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

	return &saleService{
		sales:     deps.Sales,
		saleModes: deps.SaleModes,
		cache:     store,
		uploader:  deps.Uploader,
		sanitizer: bluemonday.UGCPolicy(),
		now:       func() time.Time { return deps.Clock().UTC() },
		newID:     idGen,
		logger:    logger,
	}, nil
}

func (s *saleService) ListSales(ctx context.Context, activeOnly bool) ([]domain.Sale, error) {
	key := cache.SalesAllKey
	if activeOnly {
		key = cache.SalesActiveKey
	}

	var cached []domain.Sale
	if err := s.cache.GetJSON(ctx, key, &cached); err == nil {
		return cached, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		s.logger(ctx, "sale.cache_read_failed", map[string]any{"key": key, "error": err.Error()})
	}

	sales, err := s.sales.List(ctx, repositories.SaleListFilter{ActiveOnly: activeOnly})
	if err != nil {
		return nil, s.translate(err)
	}

	if err := s.cache.SetJSON(ctx, key, sales, cache.SaleTTL); err != nil {
		s.logger(ctx, "sale.cache_write_failed", map[string]any{"key": key, "error": err.Error()})
	}
	return sales, nil
}

func (s *saleService) GetSale(ctx context.Context, saleID string) (domain.Sale, error) {
	id := strings.TrimSpace(saleID)
	if id == "" {
		return domain.Sale{}, fmt.Errorf("%w: sale id is required", ErrSaleInvalidInput)
	}

	key := cache.SaleKey(id)
	var cached domain.Sale
	if err := s.cache.GetJSON(ctx, key, &cached); err == nil {
		return cached, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		s.logger(ctx, "sale.cache_read_failed", map[string]any{"key": key, "error": err.Error()})
	}

	sale, err := s.sales.FindByID(ctx, id)
	if err != nil {
		return domain.Sale{}, s.translate(err)
	}

	if err := s.cache.SetJSON(ctx, key, sale, cache.SaleTTL); err != nil {
		s.logger(ctx, "sale.cache_write_failed", map[string]any{"key": key, "error": err.Error()})
	}
	return sale, nil
}

func (s *saleService) CreateSale(ctx context.Context, input SaleInput) (domain.Sale, error) {
	sale, err := s.buildSale(input)
	if err != nil {
		return domain.Sale{}, err
	}

	if len(input.ImageData) > 0 {
		if s.uploader == nil {
			return domain.Sale{}, ErrSaleImageUpload
		}
		url, err := s.uploader.UploadSaleImage(ctx, sale.ID, input.ImageName, input.ImageData)
		if err != nil {
			s.logger(ctx, "sale.image_upload_failed", map[string]any{"saleID": sale.ID, "error": err.Error()})
			return domain.Sale{}, ErrSaleImageUpload
		}
		sale.ImageURL = url
	}
	if sale.ImageURL == "" {
		return domain.Sale{}, fmt.Errorf("%w: sale image is required", ErrSaleInvalidInput)
	}

	if err := s.sales.Insert(ctx, sale); err != nil {
		return domain.Sale{}, s.translate(err)
	}

	s.invalidateSales(ctx, sale.ID)
	return sale, nil
}

func (s *saleService) UpdateSale(ctx context.Context, input SaleInput) (domain.Sale, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return domain.Sale{}, fmt.Errorf("%w: sale id is required", ErrSaleInvalidInput)
	}

	sale, err := s.sales.FindByID(ctx, id)
	if err != nil {
		return domain.Sale{}, s.translate(err)
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		sale.Name = name
	}
	if desc := strings.TrimSpace(input.Description); desc != "" {
		sale.Description = s.sanitizer.Sanitize(desc)
	}
	if category := strings.TrimSpace(input.Category); category != "" {
		sale.Category = category
	}
	if mode := strings.TrimSpace(input.SaleMode); mode != "" {
		sale.SaleMode = mode
	}
	if raw := strings.TrimSpace(input.Price); raw != "" {
		price, err := parseSalePrice(raw, "price")
		if err != nil {
			return domain.Sale{}, err
		}
		sale.Price = price
	}
	if raw := strings.TrimSpace(input.SalePrice); raw != "" {
		salePrice, err := parseSalePrice(raw, "sale price")
		if err != nil {
			return domain.Sale{}, err
		}
		sale.SalePrice = salePrice
	}
	if sale.SalePrice >= sale.Price {
		return domain.Sale{}, fmt.Errorf("%w: sale price must be below the regular price", ErrSaleInvalidInput)
	}
	if raw := strings.TrimSpace(input.Stock); raw != "" {
		stock, err := parseStock(raw)
		if err != nil {
			return domain.Sale{}, err
		}
		sale.Stock = stock
	}
	if raw := strings.TrimSpace(input.Sizes); raw != "" {
		sizes, err := parseSizes(raw)
		if err != nil {
			return domain.Sale{}, err
		}
		sale.Sizes = sizes
	}
	if len(input.ImageData) > 0 {
		if s.uploader == nil {
			return domain.Sale{}, ErrSaleImageUpload
		}
		url, err := s.uploader.UploadSaleImage(ctx, sale.ID, input.ImageName, input.ImageData)
		if err != nil {
			s.logger(ctx, "sale.image_upload_failed", map[string]any{"saleID": sale.ID, "error": err.Error()})
			return domain.Sale{}, ErrSaleImageUpload
		}
		sale.ImageURL = url
	} else if url := strings.TrimSpace(input.ImageURL); url != "" {
		sale.ImageURL = url
	}

	sale.Discount = math.Round((sale.Price - sale.SalePrice) / sale.Price * 100)
	sale.UpdatedAt = s.now()

	if err := s.sales.Update(ctx, sale); err != nil {
		return domain.Sale{}, s.translate(err)
	}

	s.invalidateSales(ctx, sale.ID)
	return sale, nil
}

func (s *saleService) DeleteSale(ctx context.Context, saleID string) error {
	id := strings.TrimSpace(saleID)
	if id == "" {
		return fmt.Errorf("%w: sale id is required", ErrSaleInvalidInput)
	}
	if err := s.sales.Delete(ctx, id); err != nil {
		return s.translate(err)
	}
	s.invalidateSales(ctx, id)
	return nil
}

func (s *saleService) ListSaleModes(ctx context.Context) ([]domain.SaleMode, error) {
	modes, err := s.saleModes.List(ctx)
	if err != nil {
		return nil, s.translate(err)
	}
	return modes, nil
}

func (s *saleService) UpsertSaleMode(ctx context.Context, input SaleModeInput) (domain.SaleMode, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return domain.SaleMode{}, fmt.Errorf("%w: sale mode name is required", ErrSaleInvalidInput)
	}

	now := s.now()
	mode := domain.SaleMode{
		Name:      name,
		Title:     strings.TrimSpace(input.Title),
		Banner:    strings.TrimSpace(input.Banner),
		CreatedAt: now,
		UpdatedAt: now,
	}
	stored, err := s.saleModes.Upsert(ctx, mode)
	if err != nil {
		return domain.SaleMode{}, s.translate(err)
	}

	s.invalidateSales(ctx, "")
	return stored, nil
}

func (s *saleService) DeleteSaleMode(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: sale mode name is required", ErrSaleInvalidInput)
	}
	if err := s.saleModes.Delete(ctx, name); err != nil {
		return s.translate(err)
	}
	s.invalidateSales(ctx, "")
	return nil
}

// ToggleSaleMode flips the named campaign. Activating one deactivates every
// other mode in the same transaction, so at most one stays active.
func (s *saleService) ToggleSaleMode(ctx context.Context, name string) (domain.SaleMode, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.SaleMode{}, fmt.Errorf("%w: sale mode name is required", ErrSaleInvalidInput)
	}

	mode, err := s.saleModes.Toggle(ctx, name, s.now())
	if err != nil {
		return domain.SaleMode{}, s.translate(err)
	}

	s.invalidateSales(ctx, "")
	return mode, nil
}

func (s *saleService) buildSale(input SaleInput) (domain.Sale, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return domain.Sale{}, fmt.Errorf("%w: sale name is required", ErrSaleInvalidInput)
	}
	category := strings.TrimSpace(input.Category)
	if category == "" {
		return domain.Sale{}, fmt.Errorf("%w: sale category is required", ErrSaleInvalidInput)
	}
	saleMode := strings.TrimSpace(input.SaleMode)
	if saleMode == "" {
		return domain.Sale{}, fmt.Errorf("%w: sale mode is required", ErrSaleInvalidInput)
	}
	price, err := parseSalePrice(input.Price, "price")
	if err != nil {
		return domain.Sale{}, err
	}
	salePrice, err := parseSalePrice(input.SalePrice, "sale price")
	if err != nil {
		return domain.Sale{}, err
	}
	if salePrice >= price {
		return domain.Sale{}, fmt.Errorf("%w: sale price must be below the regular price", ErrSaleInvalidInput)
	}
	stock, err := parseStock(input.Stock)
	if err != nil {
		return domain.Sale{}, err
	}
	sizes, err := parseSizes(input.Sizes)
	if err != nil {
		return domain.Sale{}, err
	}

	id := strings.TrimSpace(input.ID)
	if id == "" {
		id = s.newID("SALE")
	}

	now := s.now()
	return domain.Sale{
		ID:          id,
		Name:        name,
		Description: s.sanitizer.Sanitize(strings.TrimSpace(input.Description)),
		Category:    category,
		Price:       price,
		SalePrice:   salePrice,
		Discount:    math.Round((price - salePrice) / price * 100),
		Sizes:       sizes,
		Stock:       stock,
		ImageURL:    strings.TrimSpace(input.ImageURL),
		SaleMode:    saleMode,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (s *saleService) invalidateSales(ctx context.Context, saleID string) {
	if saleID != "" {
		if err := s.cache.Delete(ctx, cache.SaleKey(saleID)); err != nil {
			s.logger(ctx, "sale.cache_invalidate_failed", map[string]any{"saleID": saleID, "error": err.Error()})
		}
	}
	if err := s.cache.DeleteByPrefix(ctx, cache.SalesPrefix); err != nil {
		s.logger(ctx, "sale.cache_invalidate_failed", map[string]any{"prefix": cache.SalesPrefix, "error": err.Error()})
	}
}

func (s *saleService) translate(err error) error {
	return translateRepoError(err, ErrSaleNotFound, ErrSaleConflict, ErrSaleUnavailable)
}

func parseSalePrice(raw, label string) (float64, error) {
	price, err := parsePrice(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a positive number", ErrSaleInvalidInput, label)
	}
	return price, nil
}
