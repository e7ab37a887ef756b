package firestore

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	domain "github.com/swiftcart/api/internal/domain"
	pfirestore "github.com/swiftcart/api/internal/platform/firestore"
	"github.com/swiftcart/api/internal/repositories"
)

const (
	saleModeCollection = "saleModes"
)

// SaleModeRepository persists storefront campaign switches within Firestore.
// Documents are keyed by the normalised campaign name.
type SaleModeRepository struct {
	base     *pfirestore.BaseRepository[saleModeDocument]
	provider *pfirestore.Provider
}

// NewSaleModeRepository constructs a Firestore-backed sale mode repository.
func NewSaleModeRepository(provider *pfirestore.Provider) (*SaleModeRepository, error) {
	if provider == nil {
		return nil, errors.New("sale mode repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[saleModeDocument](provider, saleModeCollection)
	return &SaleModeRepository{
		base:     base,
		provider: provider,
	}, nil
}

// Upsert writes the mode under its normalised name, preserving createdAt on
// existing documents.
func (r *SaleModeRepository) Upsert(ctx context.Context, mode domain.SaleMode) (domain.SaleMode, error) {
	if r == nil || r.base == nil {
		return domain.SaleMode{}, errors.New("sale mode repository not initialised")
	}
	id := saleModeDocID(mode.Name)
	if id == "" {
		return domain.SaleMode{}, errors.New("sale mode repository: name is required")
	}

	now := time.Now().UTC()
	doc := newSaleModeDocument(mode)
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	if existing, err := r.base.Get(ctx, id); err == nil {
		doc.CreatedAt = existing.Data.CreatedAt
	}

	if _, err := r.base.Set(ctx, id, doc); err != nil {
		return domain.SaleMode{}, err
	}
	return doc.toDomain(id), nil
}

// List returns every campaign, newest first.
func (r *SaleModeRepository) List(ctx context.Context) ([]domain.SaleMode, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("sale mode repository not initialised")
	}
	docs, err := r.base.Query(ctx, nil)
	if err != nil {
		return nil, err
	}
	modes := make([]domain.SaleMode, 0, len(docs))
	for _, doc := range docs {
		modes = append(modes, doc.Data.toDomain(doc.ID))
	}
	sort.SliceStable(modes, func(i, j int) bool { return modes[i].CreatedAt.After(modes[j].CreatedAt) })
	return modes, nil
}

// Toggle flips the named mode inside a transaction that also deactivates
// every other mode, keeping the single-active invariant under concurrent
// toggles.
func (r *SaleModeRepository) Toggle(ctx context.Context, name string, now time.Time) (domain.SaleMode, error) {
	if r == nil || r.base == nil || r.provider == nil {
		return domain.SaleMode{}, errors.New("sale mode repository not initialised")
	}
	id := saleModeDocID(name)
	if id == "" {
		return domain.SaleMode{}, errors.New("sale mode repository: name is required")
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.SaleMode{}, err
	}

	var toggled domain.SaleMode
	err = pfirestore.RunTransaction(ctx, client, func(_ context.Context, tx *firestore.Transaction) error {
		coll := client.Collection(saleModeCollection)

		targetSnap, err := tx.Get(coll.Doc(id))
		if err != nil {
			return err
		}
		var target saleModeDocument
		if err := targetSnap.DataTo(&target); err != nil {
			return err
		}

		iter := tx.Documents(coll.Query)
		defer iter.Stop()

		stamp := now.UTC()
		for {
			snap, err := iter.Next()
			if errors.Is(err, iterator.Done) {
				break
			}
			if err != nil {
				return err
			}
			if snap.Ref.ID == id {
				continue
			}
			if err := tx.Update(snap.Ref, []firestore.Update{
				{Path: "isActive", Value: false},
				{Path: "updatedAt", Value: stamp},
			}); err != nil {
				return err
			}
		}

		target.IsActive = !target.IsActive
		target.UpdatedAt = stamp
		if err := tx.Set(targetSnap.Ref, target); err != nil {
			return err
		}

		toggled = target.toDomain(id)
		return nil
	})
	if err != nil {
		return domain.SaleMode{}, err
	}
	return toggled, nil
}

// Delete removes the campaign document under its normalised name.
func (r *SaleModeRepository) Delete(ctx context.Context, name string) error {
	if r == nil || r.base == nil {
		return errors.New("sale mode repository not initialised")
	}
	id := saleModeDocID(name)
	if id == "" {
		return errors.New("sale mode repository: name is required")
	}
	ref, err := r.base.DocumentRef(ctx, id)
	if err != nil {
		return err
	}
	_, err = ref.Delete(ctx)
	return pfirestore.WrapError("saleModes.delete", err)
}

func saleModeDocID(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

type saleModeDocument struct {
	Name      string    `firestore:"name"`
	Title     string    `firestore:"title,omitempty"`
	Banner    string    `firestore:"banner,omitempty"`
	IsActive  bool      `firestore:"isActive"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

func newSaleModeDocument(mode domain.SaleMode) saleModeDocument {
	return saleModeDocument{
		Name:      strings.TrimSpace(mode.Name),
		Title:     strings.TrimSpace(mode.Title),
		Banner:    strings.TrimSpace(mode.Banner),
		IsActive:  mode.IsActive,
		CreatedAt: mode.CreatedAt.UTC(),
		UpdatedAt: mode.UpdatedAt.UTC(),
	}
}

func (d saleModeDocument) toDomain(id string) domain.SaleMode {
	return domain.SaleMode{
		ID:        id,
		Name:      d.Name,
		Title:     d.Title,
		Banner:    d.Banner,
		IsActive:  d.IsActive,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

var _ repositories.SaleModeRepository = (*SaleModeRepository)(nil)
