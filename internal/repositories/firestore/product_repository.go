package firestore

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/swiftcart/api/internal/domain"
	pfirestore "github.com/swiftcart/api/internal/platform/firestore"
	"github.com/swiftcart/api/internal/repositories"
)

const (
	productCollection = "products"

	defaultProductPageSize = 20
	maxProductPageSize     = 100
)

// ProductRepository persists catalog products within Firestore.
type ProductRepository struct {
	base     *pfirestore.BaseRepository[productDocument]
	provider *pfirestore.Provider
}

// NewProductRepository constructs a Firestore-backed product repository.
func NewProductRepository(provider *pfirestore.Provider) (*ProductRepository, error) {
	if provider == nil {
		return nil, errors.New("product repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[productDocument](provider, productCollection)
	return &ProductRepository{
		base:     base,
		provider: provider,
	}, nil
}

// Insert writes the product under its assigned ID.
func (r *ProductRepository) Insert(ctx context.Context, product domain.Product) error {
	if r == nil || r.base == nil {
		return errors.New("product repository not initialised")
	}
	id := strings.TrimSpace(product.ID)
	if id == "" {
		return errors.New("product repository: product id is required")
	}
	_, err := r.base.Set(ctx, id, newProductDocument(product))
	return err
}

// Update overwrites the stored product document.
func (r *ProductRepository) Update(ctx context.Context, product domain.Product) error {
	return r.Insert(ctx, product)
}

// Delete removes the product document.
func (r *ProductRepository) Delete(ctx context.Context, productID string) error {
	if r == nil || r.base == nil {
		return errors.New("product repository not initialised")
	}
	ref, err := r.base.DocumentRef(ctx, strings.TrimSpace(productID))
	if err != nil {
		return err
	}
	_, err = ref.Delete(ctx)
	return pfirestore.WrapError("products.delete", err)
}

// FindByID loads a single product.
func (r *ProductRepository) FindByID(ctx context.Context, productID string) (domain.Product, error) {
	if r == nil || r.base == nil {
		return domain.Product{}, errors.New("product repository not initialised")
	}
	doc, err := r.base.Get(ctx, strings.TrimSpace(productID))
	if err != nil {
		return domain.Product{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

// List applies the filter, sorts, and windows the result. Category narrows
// the Firestore query; keyword, price, and size filters are applied after
// decoding since the documents are small and composite indexes stay flat.
func (r *ProductRepository) List(ctx context.Context, filter repositories.ProductListFilter) (domain.Page[domain.Product], error) {
	if r == nil || r.base == nil {
		return domain.Page[domain.Product]{}, errors.New("product repository not initialised")
	}

	category := strings.TrimSpace(filter.Category)
	docs, err := r.base.Query(ctx, func(query firestore.Query) firestore.Query {
		if category != "" {
			query = query.Where("category", "==", category)
		}
		return query
	})
	if err != nil {
		return domain.Page[domain.Product]{}, err
	}

	products := make([]domain.Product, 0, len(docs))
	for _, doc := range docs {
		product := doc.Data.toDomain(doc.ID)
		if !matchesProductFilter(product, filter) {
			continue
		}
		products = append(products, product)
	}

	sortProducts(products, filter.Sort)

	page := filter.Pagination.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Pagination.Limit
	if limit <= 0 {
		limit = defaultProductPageSize
	}
	if limit > maxProductPageSize {
		limit = maxProductPageSize
	}

	total := int64(len(products))
	start := (page - 1) * limit
	if start > len(products) {
		start = len(products)
	}
	end := start + limit
	if end > len(products) {
		end = len(products)
	}

	totalPages := int(total) / limit
	if int(total)%limit != 0 {
		totalPages++
	}

	return domain.Page[domain.Product]{
		Items:      products[start:end],
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

// ListNewest returns the most recently created products.
func (r *ProductRepository) ListNewest(ctx context.Context, limit int) ([]domain.Product, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("product repository not initialised")
	}
	if limit <= 0 {
		limit = 4
	}

	docs, err := r.base.Query(ctx, func(query firestore.Query) firestore.Query {
		return query.OrderBy("createdAt", firestore.Desc).Limit(limit)
	})
	if err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(docs))
	for _, doc := range docs {
		products = append(products, doc.Data.toDomain(doc.ID))
	}
	return products, nil
}

// AdjustStock applies every adjustment inside one transaction. All reads
// happen before writes as Firestore requires. A decrement below zero aborts
// the batch with an insufficient stock conflict.
func (r *ProductRepository) AdjustStock(ctx context.Context, adjustments []repositories.StockAdjustment) error {
	if r == nil || r.base == nil || r.provider == nil {
		return errors.New("product repository not initialised")
	}
	if len(adjustments) == 0 {
		return nil
	}

	refs := make([]*firestore.DocumentRef, 0, len(adjustments))
	for _, adj := range adjustments {
		ref, err := r.base.DocumentRef(ctx, strings.TrimSpace(adj.ProductID))
		if err != nil {
			return err
		}
		refs = append(refs, ref)
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return err
	}

	return pfirestore.RunTransaction(ctx, client, func(_ context.Context, tx *firestore.Transaction) error {
		now := time.Now().UTC()
		updates := make([]int, len(adjustments))
		for i, adj := range adjustments {
			snap, err := tx.Get(refs[i])
			if err != nil {
				return err
			}
			var doc productDocument
			if err := snap.DataTo(&doc); err != nil {
				return err
			}
			next := doc.Stock + adj.Delta
			if next < 0 {
				return repositories.NewInsufficientStockError(adj.ProductID, -adj.Delta, doc.Stock)
			}
			updates[i] = next
		}
		for i, ref := range refs {
			if err := tx.Update(ref, []firestore.Update{
				{Path: "stock", Value: updates[i]},
				{Path: "updatedAt", Value: now},
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

func matchesProductFilter(product domain.Product, filter repositories.ProductListFilter) bool {
	if filter.MinPrice != nil && product.Price < *filter.MinPrice {
		return false
	}
	if filter.MaxPrice != nil && product.Price > *filter.MaxPrice {
		return false
	}
	if len(filter.Sizes) > 0 {
		found := false
		for _, want := range filter.Sizes {
			for _, have := range product.Sizes {
				if strings.EqualFold(strings.TrimSpace(want), have) {
					found = true
					break
				}
			}
		}
		if !found {
			return false
		}
	}
	for _, keyword := range filter.Keywords {
		keyword = strings.ToLower(strings.TrimSpace(keyword))
		if keyword == "" {
			continue
		}
		matched := false
		for _, have := range product.Keywords {
			if strings.Contains(have, keyword) {
				matched = true
				break
			}
		}
		if !matched && strings.Contains(strings.ToLower(product.Name), keyword) {
			matched = true
		}
		if !matched {
			return false
		}
	}
	return true
}

func sortProducts(products []domain.Product, order domain.ProductSort) {
	switch order {
	case domain.ProductSortPriceAsc:
		sort.SliceStable(products, func(i, j int) bool { return products[i].Price < products[j].Price })
	case domain.ProductSortPriceDesc:
		sort.SliceStable(products, func(i, j int) bool { return products[i].Price > products[j].Price })
	case domain.ProductSortRating:
		sort.SliceStable(products, func(i, j int) bool { return products[i].Rating > products[j].Rating })
	case domain.ProductSortPopular:
		sort.SliceStable(products, func(i, j int) bool { return products[i].ReviewCount > products[j].ReviewCount })
	default:
		sort.SliceStable(products, func(i, j int) bool { return products[i].CreatedAt.After(products[j].CreatedAt) })
	}
}

type productDocument struct {
	Name        string    `firestore:"name"`
	Description string    `firestore:"description,omitempty"`
	Category    string    `firestore:"category"`
	Price       float64   `firestore:"price"`
	Sizes       []string  `firestore:"sizes"`
	Stock       int       `firestore:"stock"`
	ImageURL    string    `firestore:"imageUrl,omitempty"`
	Rating      float64   `firestore:"rating"`
	ReviewCount int       `firestore:"reviewCount"`
	Keywords    []string  `firestore:"keywords,omitempty"`
	CreatedAt   time.Time `firestore:"createdAt"`
	UpdatedAt   time.Time `firestore:"updatedAt"`
}

func newProductDocument(product domain.Product) productDocument {
	return productDocument{
		Name:        strings.TrimSpace(product.Name),
		Description: strings.TrimSpace(product.Description),
		Category:    strings.TrimSpace(product.Category),
		Price:       product.Price,
		Sizes:       append([]string(nil), product.Sizes...),
		Stock:       product.Stock,
		ImageURL:    strings.TrimSpace(product.ImageURL),
		Rating:      product.Rating,
		ReviewCount: product.ReviewCount,
		Keywords:    append([]string(nil), product.Keywords...),
		CreatedAt:   product.CreatedAt.UTC(),
		UpdatedAt:   product.UpdatedAt.UTC(),
	}
}

func (d productDocument) toDomain(id string) domain.Product {
	return domain.Product{
		ID:          id,
		Name:        d.Name,
		Description: d.Description,
		Category:    d.Category,
		Price:       d.Price,
		Sizes:       append([]string(nil), d.Sizes...),
		Stock:       d.Stock,
		ImageURL:    d.ImageURL,
		Rating:      d.Rating,
		ReviewCount: d.ReviewCount,
		Keywords:    append([]string(nil), d.Keywords...),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

var _ repositories.ProductRepository = (*ProductRepository)(nil)
