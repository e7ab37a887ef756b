package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/swiftcart/api/internal/domain"
	pfirestore "github.com/swiftcart/api/internal/platform/firestore"
	"github.com/swiftcart/api/internal/repositories"
)

const (
	userCollection = "users"
)

// UserRepository persists profile documents keyed by identity UID.
type UserRepository struct {
	base *pfirestore.BaseRepository[userDocument]
}

// NewUserRepository constructs a Firestore-backed user repository.
func NewUserRepository(provider *pfirestore.Provider) (*UserRepository, error) {
	if provider == nil {
		return nil, errors.New("user repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[userDocument](provider, userCollection)
	return &UserRepository{base: base}, nil
}

// Insert creates the profile document, failing with a conflict when the UID
// already exists. Callers handle the first-auth race by re-reading.
func (r *UserRepository) Insert(ctx context.Context, user domain.User) error {
	if r == nil || r.base == nil {
		return errors.New("user repository not initialised")
	}
	uid := strings.TrimSpace(user.UID)
	if uid == "" {
		return errors.New("user repository: uid is required")
	}
	_, err := r.base.Create(ctx, uid, newUserDocument(user))
	return err
}

// Update overwrites the stored profile document.
func (r *UserRepository) Update(ctx context.Context, user domain.User) error {
	if r == nil || r.base == nil {
		return errors.New("user repository not initialised")
	}
	uid := strings.TrimSpace(user.UID)
	if uid == "" {
		return errors.New("user repository: uid is required")
	}
	_, err := r.base.Set(ctx, uid, newUserDocument(user))
	return err
}

// FindByUID loads the profile document for the given UID.
func (r *UserRepository) FindByUID(ctx context.Context, uid string) (domain.User, error) {
	if r == nil || r.base == nil {
		return domain.User{}, errors.New("user repository not initialised")
	}
	doc, err := r.base.Get(ctx, strings.TrimSpace(uid))
	if err != nil {
		return domain.User{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

// Count returns the number of registered profiles.
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	if r == nil || r.base == nil {
		return 0, errors.New("user repository not initialised")
	}

	// Select no fields; only document refs travel over the wire.
	docs, err := r.base.Query(ctx, func(query firestore.Query) firestore.Query {
		return query.Select()
	})
	if err != nil {
		return 0, err
	}
	return int64(len(docs)), nil
}

type userDocument struct {
	Email     string            `firestore:"email,omitempty"`
	Name      string            `firestore:"name,omitempty"`
	Roles     []string          `firestore:"roles,omitempty"`
	Addresses []addressDocument `firestore:"addresses,omitempty"`
	CreatedAt time.Time         `firestore:"createdAt"`
	UpdatedAt time.Time         `firestore:"updatedAt"`
}

type addressDocument struct {
	ID         string `firestore:"id"`
	FullName   string `firestore:"fullName"`
	Line1      string `firestore:"line1"`
	Line2      string `firestore:"line2,omitempty"`
	City       string `firestore:"city"`
	State      string `firestore:"state"`
	PostalCode string `firestore:"postalCode"`
	Country    string `firestore:"country"`
	Phone      string `firestore:"phone,omitempty"`
	IsDefault  bool   `firestore:"isDefault"`
}

func newUserDocument(user domain.User) userDocument {
	doc := userDocument{
		Email:     strings.TrimSpace(user.Email),
		Name:      strings.TrimSpace(user.Name),
		Roles:     append([]string(nil), user.Roles...),
		Addresses: make([]addressDocument, 0, len(user.Addresses)),
		CreatedAt: user.CreatedAt.UTC(),
		UpdatedAt: user.UpdatedAt.UTC(),
	}
	for _, addr := range user.Addresses {
		doc.Addresses = append(doc.Addresses, addressDocument{
			ID:         addr.ID,
			FullName:   addr.FullName,
			Line1:      addr.Line1,
			Line2:      addr.Line2,
			City:       addr.City,
			State:      addr.State,
			PostalCode: addr.PostalCode,
			Country:    addr.Country,
			Phone:      addr.Phone,
			IsDefault:  addr.IsDefault,
		})
	}
	return doc
}

func (d userDocument) toDomain(uid string) domain.User {
	user := domain.User{
		UID:       uid,
		Email:     d.Email,
		Name:      d.Name,
		Roles:     append([]string(nil), d.Roles...),
		Addresses: make([]domain.Address, 0, len(d.Addresses)),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	for _, addr := range d.Addresses {
		user.Addresses = append(user.Addresses, domain.Address{
			ID:         addr.ID,
			FullName:   addr.FullName,
			Line1:      addr.Line1,
			Line2:      addr.Line2,
			City:       addr.City,
			State:      addr.State,
			PostalCode: addr.PostalCode,
			Country:    addr.Country,
			Phone:      addr.Phone,
			IsDefault:  addr.IsDefault,
		})
	}
	return user
}

var _ repositories.UserRepository = (*UserRepository)(nil)
