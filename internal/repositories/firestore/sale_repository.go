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
	saleCollection = "sales"
)

// SaleRepository persists discounted catalog entries within Firestore.
type SaleRepository struct {
	base *pfirestore.BaseRepository[saleDocument]
}

// NewSaleRepository constructs a Firestore-backed sale repository.
func NewSaleRepository(provider *pfirestore.Provider) (*SaleRepository, error) {
	if provider == nil {
		return nil, errors.New("sale repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[saleDocument](provider, saleCollection)
	return &SaleRepository{base: base}, nil
}

// Insert writes the sale under its assigned ID.
func (r *SaleRepository) Insert(ctx context.Context, sale domain.Sale) error {
	if r == nil || r.base == nil {
		return errors.New("sale repository not initialised")
	}
	id := strings.TrimSpace(sale.ID)
	if id == "" {
		return errors.New("sale repository: sale id is required")
	}
	_, err := r.base.Set(ctx, id, newSaleDocument(sale))
	return err
}

// Update overwrites the stored sale document.
func (r *SaleRepository) Update(ctx context.Context, sale domain.Sale) error {
	return r.Insert(ctx, sale)
}

// Delete removes the sale document.
func (r *SaleRepository) Delete(ctx context.Context, saleID string) error {
	if r == nil || r.base == nil {
		return errors.New("sale repository not initialised")
	}
	ref, err := r.base.DocumentRef(ctx, strings.TrimSpace(saleID))
	if err != nil {
		return err
	}
	_, err = ref.Delete(ctx)
	return pfirestore.WrapError("sales.delete", err)
}

// FindByID loads a single sale.
func (r *SaleRepository) FindByID(ctx context.Context, saleID string) (domain.Sale, error) {
	if r == nil || r.base == nil {
		return domain.Sale{}, errors.New("sale repository not initialised")
	}
	doc, err := r.base.Get(ctx, strings.TrimSpace(saleID))
	if err != nil {
		return domain.Sale{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

// List returns sales newest first, optionally restricted to active entries
// or a specific campaign.
func (r *SaleRepository) List(ctx context.Context, filter repositories.SaleListFilter) ([]domain.Sale, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("sale repository not initialised")
	}

	saleMode := strings.TrimSpace(filter.SaleMode)
	docs, err := r.base.Query(ctx, func(query firestore.Query) firestore.Query {
		if filter.ActiveOnly {
			query = query.Where("isActive", "==", true)
		}
		if saleMode != "" {
			query = query.Where("saleMode", "==", saleMode)
		}
		return query
	})
	if err != nil {
		return nil, err
	}

	sales := make([]domain.Sale, 0, len(docs))
	for _, doc := range docs {
		sales = append(sales, doc.Data.toDomain(doc.ID))
	}
	sort.SliceStable(sales, func(i, j int) bool { return sales[i].CreatedAt.After(sales[j].CreatedAt) })
	return sales, nil
}

type saleDocument struct {
	Name        string    `firestore:"name"`
	Description string    `firestore:"description,omitempty"`
	Category    string    `firestore:"category"`
	Price       float64   `firestore:"price"`
	SalePrice   float64   `firestore:"salePrice"`
	Discount    float64   `firestore:"discount"`
	Sizes       []string  `firestore:"sizes"`
	Stock       int       `firestore:"stock"`
	ImageURL    string    `firestore:"imageUrl,omitempty"`
	SaleMode    string    `firestore:"saleMode"`
	IsActive    bool      `firestore:"isActive"`
	CreatedAt   time.Time `firestore:"createdAt"`
	UpdatedAt   time.Time `firestore:"updatedAt"`
}

func newSaleDocument(sale domain.Sale) saleDocument {
	return saleDocument{
		Name:        strings.TrimSpace(sale.Name),
		Description: strings.TrimSpace(sale.Description),
		Category:    strings.TrimSpace(sale.Category),
		Price:       sale.Price,
		SalePrice:   sale.SalePrice,
		Discount:    sale.Discount,
		Sizes:       append([]string(nil), sale.Sizes...),
		Stock:       sale.Stock,
		ImageURL:    strings.TrimSpace(sale.ImageURL),
		SaleMode:    strings.TrimSpace(sale.SaleMode),
		IsActive:    sale.IsActive,
		CreatedAt:   sale.CreatedAt.UTC(),
		UpdatedAt:   sale.UpdatedAt.UTC(),
	}
}

func (d saleDocument) toDomain(id string) domain.Sale {
	return domain.Sale{
		ID:          id,
		Name:        d.Name,
		Description: d.Description,
		Category:    d.Category,
		Price:       d.Price,
		SalePrice:   d.SalePrice,
		Discount:    d.Discount,
		Sizes:       append([]string(nil), d.Sizes...),
		Stock:       d.Stock,
		ImageURL:    d.ImageURL,
		SaleMode:    d.SaleMode,
		IsActive:    d.IsActive,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

var _ repositories.SaleRepository = (*SaleRepository)(nil)
