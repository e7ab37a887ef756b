package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/swiftcart/api/internal/domain"
	"github.com/swiftcart/api/internal/platform/cache"
	"github.com/swiftcart/api/internal/repositories"
)

// ErrCartInvalidInput indicates the caller supplied invalid input.
var ErrCartInvalidInput = errors.New("cart service: invalid input")

// ErrCartItemNotFound indicates the referenced line is not in the cart.
var ErrCartItemNotFound = errors.New("cart service: item not found")

// ErrCartProductNotFound indicates the referenced product no longer exists.
var ErrCartProductNotFound = errors.New("cart service: product not found")

// ErrCartInsufficientStock indicates the requested quantity exceeds the
// product's live stock.
var ErrCartInsufficientStock = errors.New("cart service: insufficient stock")

// ErrCartConflict indicates a concurrent modification clashed.
var ErrCartConflict = errors.New("cart service: conflict")

// ErrCartUnavailable indicates the backing store cannot fulfil the request.
var ErrCartUnavailable = errors.New("cart service: unavailable")

// cartIdleExpiry bounds how long an untouched cart keeps its lines. Reads
// past the window see an empty cart.
const cartIdleExpiry = 30 * 24 * time.Hour

// CartServiceDeps wires the cart and product repositories plus the cache.
type CartServiceDeps struct {
	Carts       repositories.CartRepository
	Products    repositories.ProductRepository
	Cache       cache.Cache
	Clock       func() time.Time
	Logger      func(context.Context, string, map[string]any)
	IDGenerator func() string
}

type cartService struct {
	carts    repositories.CartRepository
	products repositories.ProductRepository
	cache    cache.Cache
	now      func() time.Time
	newID    func() string
	logger   func(context.Context, string, map[string]any)
}

// NewCartService constructs a CartService enforcing dependency validation.
func NewCartService(deps CartServiceDeps) (CartService, error) {
	if deps.Carts == nil {
		return nil, errors.New("cart service: cart repository is required")
	}
	if deps.Products == nil {
		return nil, errors.New("cart service: product repository is required")
	}
	if deps.Clock == nil {
		return nil, errors.New("cart service: clock is required")
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
		idGen = func() string { return ulid.Make().String() }
	}

	return &cartService{
		carts:    deps.Carts,
		products: deps.Products,
		cache:    store,
		now:      func() time.Time { return deps.Clock().UTC() },
		newID:    idGen,
		logger:   logger,
	}, nil
}

func (s *cartService) GetCart(ctx context.Context, userID string) (domain.Cart, error) {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return domain.Cart{}, fmt.Errorf("%w: user id is required", ErrCartInvalidInput)
	}

	key := cache.CartKey(uid)
	var cached domain.Cart
	if err := s.cache.GetJSON(ctx, key, &cached); err == nil {
		return cached, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		s.logger(ctx, "cart.cache_read_failed", map[string]any{"userID": uid, "error": err.Error()})
	}

	cart, err := s.loadCart(ctx, uid)
	if err != nil {
		return domain.Cart{}, err
	}

	s.refreshCache(ctx, cart)
	return cart, nil
}

func (s *cartService) AddItem(ctx context.Context, cmd AddCartItemCommand) (domain.Cart, error) {
	uid := strings.TrimSpace(cmd.UserID)
	productID := strings.TrimSpace(cmd.ProductID)
	size := strings.TrimSpace(cmd.Size)
	switch {
	case uid == "":
		return domain.Cart{}, fmt.Errorf("%w: user id is required", ErrCartInvalidInput)
	case productID == "":
		return domain.Cart{}, fmt.Errorf("%w: product id is required", ErrCartInvalidInput)
	case size == "":
		return domain.Cart{}, fmt.Errorf("%w: size is required", ErrCartInvalidInput)
	case cmd.Quantity < 1:
		return domain.Cart{}, fmt.Errorf("%w: quantity must be at least 1", ErrCartInvalidInput)
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if isRepoNotFound(err) {
			return domain.Cart{}, ErrCartProductNotFound
		}
		return domain.Cart{}, s.translate(err)
	}
	if product.Stock <= 0 {
		return domain.Cart{}, fmt.Errorf("%w: %s is out of stock", ErrCartInsufficientStock, product.Name)
	}
	if cmd.Quantity > product.Stock {
		return domain.Cart{}, fmt.Errorf("%w: only %d of %s available", ErrCartInsufficientStock, product.Stock, product.Name)
	}

	cart, err := s.loadCart(ctx, uid)
	if err != nil {
		return domain.Cart{}, err
	}

	now := s.now()
	merged := false
	for i, item := range cart.Items {
		if item.ProductID == productID && item.Size == size {
			next := item.Quantity + cmd.Quantity
			if next > product.Stock {
				return domain.Cart{}, fmt.Errorf("%w: only %d of %s available", ErrCartInsufficientStock, product.Stock, product.Name)
			}
			cart.Items[i].Quantity = next
			merged = true
			break
		}
	}
	if !merged {
		cart.Items = append(cart.Items, domain.CartItem{
			ID:        s.newID(),
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Size:      size,
			Quantity:  cmd.Quantity,
			ImageURL:  product.ImageURL,
			AddedAt:   now,
		})
	}

	return s.saveCart(ctx, cart, now)
}

func (s *cartService) UpdateItemQuantity(ctx context.Context, cmd UpdateCartItemCommand) (domain.Cart, error) {
	uid := strings.TrimSpace(cmd.UserID)
	itemID := strings.TrimSpace(cmd.ItemID)
	switch {
	case uid == "":
		return domain.Cart{}, fmt.Errorf("%w: user id is required", ErrCartInvalidInput)
	case itemID == "":
		return domain.Cart{}, fmt.Errorf("%w: item id is required", ErrCartInvalidInput)
	case cmd.Quantity < 1:
		return domain.Cart{}, fmt.Errorf("%w: quantity must be at least 1", ErrCartInvalidInput)
	}

	cart, err := s.loadCart(ctx, uid)
	if err != nil {
		return domain.Cart{}, err
	}

	idx := -1
	for i, item := range cart.Items {
		if item.ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.Cart{}, ErrCartItemNotFound
	}

	product, err := s.products.FindByID(ctx, cart.Items[idx].ProductID)
	if err != nil {
		if isRepoNotFound(err) {
			return domain.Cart{}, ErrCartProductNotFound
		}
		return domain.Cart{}, s.translate(err)
	}
	if cmd.Quantity > product.Stock {
		return domain.Cart{}, fmt.Errorf("%w: only %d of %s available", ErrCartInsufficientStock, product.Stock, product.Name)
	}

	cart.Items[idx].Quantity = cmd.Quantity
	return s.saveCart(ctx, cart, s.now())
}

// RemoveItem drops a line from the cart. Removing an absent line is a no-op
// so retried deletes stay safe.
func (s *cartService) RemoveItem(ctx context.Context, userID, itemID string) (domain.Cart, error) {
	uid := strings.TrimSpace(userID)
	id := strings.TrimSpace(itemID)
	switch {
	case uid == "":
		return domain.Cart{}, fmt.Errorf("%w: user id is required", ErrCartInvalidInput)
	case id == "":
		return domain.Cart{}, fmt.Errorf("%w: item id is required", ErrCartInvalidInput)
	}

	cart, err := s.loadCart(ctx, uid)
	if err != nil {
		return domain.Cart{}, err
	}

	kept := cart.Items[:0]
	removed := false
	for _, item := range cart.Items {
		if item.ID == id {
			removed = true
			continue
		}
		kept = append(kept, item)
	}
	cart.Items = kept
	if !removed {
		return cart, nil
	}

	return s.saveCart(ctx, cart, s.now())
}

func (s *cartService) ClearCart(ctx context.Context, userID string) error {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return fmt.Errorf("%w: user id is required", ErrCartInvalidInput)
	}

	// The document is kept with its items emptied, not deleted, so the
	// cart's creation time survives a clear.
	cart, err := s.carts.Get(ctx, uid)
	if err != nil && !isRepoNotFound(err) {
		return s.translate(err)
	}
	if err == nil {
		cart.UserID = uid
		cart.Items = nil
		cart.UpdatedAt = s.now()
		if err := s.carts.Save(ctx, cart); err != nil {
			return s.translate(err)
		}
	}
	if err := s.cache.Delete(ctx, cache.CartKey(uid)); err != nil {
		s.logger(ctx, "cart.cache_invalidate_failed", map[string]any{"userID": uid, "error": err.Error()})
	}
	return nil
}

// loadCart reads the persisted cart, treating a missing document as an empty
// cart so first-time shoppers never see an error. A cart untouched for longer
// than cartIdleExpiry reads as empty too.
func (s *cartService) loadCart(ctx context.Context, uid string) (domain.Cart, error) {
	cart, err := s.carts.Get(ctx, uid)
	if err != nil {
		if isRepoNotFound(err) {
			now := s.now()
			return domain.Cart{UserID: uid, Items: []domain.CartItem{}, CreatedAt: now, UpdatedAt: now}, nil
		}
		return domain.Cart{}, s.translate(err)
	}
	cart.UserID = uid
	if now := s.now(); now.Sub(cart.UpdatedAt) > cartIdleExpiry {
		return domain.Cart{UserID: uid, Items: []domain.CartItem{}, CreatedAt: cart.CreatedAt, UpdatedAt: now}, nil
	}
	return cart, nil
}

func (s *cartService) saveCart(ctx context.Context, cart domain.Cart, now time.Time) (domain.Cart, error) {
	cart.UpdatedAt = now
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = now
	}
	if err := s.carts.Save(ctx, cart); err != nil {
		return domain.Cart{}, s.translate(err)
	}
	s.refreshCache(ctx, cart)
	return cart, nil
}

func (s *cartService) refreshCache(ctx context.Context, cart domain.Cart) {
	if err := s.cache.SetJSON(ctx, cache.CartKey(cart.UserID), cart, cache.CartTTL); err != nil {
		s.logger(ctx, "cart.cache_write_failed", map[string]any{"userID": cart.UserID, "error": err.Error()})
	}
}

func (s *cartService) translate(err error) error {
	return translateRepoError(err, ErrCartItemNotFound, ErrCartConflict, ErrCartUnavailable)
}
