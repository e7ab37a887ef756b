package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	domain "github.com/swiftcart/api/internal/domain"
	"github.com/swiftcart/api/internal/platform/cache"
	"github.com/swiftcart/api/internal/repositories"
)

var fixedNow = time.Date(2025, time.March, 14, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

type repoErr struct {
	msg         string
	notFound    bool
	conflict    bool
	unavailable bool
}

func (e *repoErr) Error() string       { return e.msg }
func (e *repoErr) IsNotFound() bool    { return e.notFound }
func (e *repoErr) IsConflict() bool    { return e.conflict }
func (e *repoErr) IsUnavailable() bool { return e.unavailable }

func notFoundErr() error    { return &repoErr{msg: "not found", notFound: true} }
func conflictErr() error    { return &repoErr{msg: "conflict", conflict: true} }
func unavailableErr() error { return &repoErr{msg: "unavailable", unavailable: true} }

// memoryCache is a map-backed cache.Cache for exercising read-through and
// invalidation paths without Redis.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	sets    []string
	deletes []string
	failGet bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (c *memoryCache) GetJSON(_ context.Context, key string, dest any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet {
		return errors.New("cache offline")
	}
	raw, ok := c.entries[key]
	if !ok {
		return cache.ErrMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memoryCache) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = raw
	c.sets = append(c.sets, key)
	return nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.entries, key)
		c.deletes = append(c.deletes, key)
	}
	return nil
}

func (c *memoryCache) DeleteByPrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	c.deletes = append(c.deletes, prefix+"*")
	return nil
}

func (c *memoryCache) Ping(context.Context) error { return nil }

func (c *memoryCache) Close() error { return nil }

func (c *memoryCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

type stubProductRepo struct {
	products    map[string]domain.Product
	listPage    domain.Page[domain.Product]
	listCalls   int
	insertErr   error
	findErr     error
	adjustErr   error
	adjustments [][]repositories.StockAdjustment
}

func newStubProductRepo(products ...domain.Product) *stubProductRepo {
	repo := &stubProductRepo{products: map[string]domain.Product{}}
	for _, p := range products {
		repo.products[p.ID] = p
	}
	return repo
}

func (r *stubProductRepo) Insert(_ context.Context, product domain.Product) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.products[product.ID] = product
	return nil
}

func (r *stubProductRepo) Update(_ context.Context, product domain.Product) error {
	r.products[product.ID] = product
	return nil
}

func (r *stubProductRepo) Delete(_ context.Context, productID string) error {
	if _, ok := r.products[productID]; !ok {
		return notFoundErr()
	}
	delete(r.products, productID)
	return nil
}

func (r *stubProductRepo) FindByID(_ context.Context, productID string) (domain.Product, error) {
	if r.findErr != nil {
		return domain.Product{}, r.findErr
	}
	product, ok := r.products[productID]
	if !ok {
		return domain.Product{}, notFoundErr()
	}
	return product, nil
}

func (r *stubProductRepo) List(_ context.Context, _ repositories.ProductListFilter) (domain.Page[domain.Product], error) {
	r.listCalls++
	return r.listPage, nil
}

func (r *stubProductRepo) ListNewest(_ context.Context, limit int) ([]domain.Product, error) {
	out := make([]domain.Product, 0, limit)
	for _, p := range r.products {
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *stubProductRepo) AdjustStock(_ context.Context, adjustments []repositories.StockAdjustment) error {
	if r.adjustErr != nil {
		return r.adjustErr
	}
	for _, adj := range adjustments {
		product, ok := r.products[adj.ProductID]
		if !ok {
			return notFoundErr()
		}
		next := product.Stock + adj.Delta
		if next < 0 {
			return repositories.NewInsufficientStockError(adj.ProductID, -adj.Delta, product.Stock)
		}
		product.Stock = next
		r.products[adj.ProductID] = product
	}
	r.adjustments = append(r.adjustments, adjustments)
	return nil
}

type stubCartRepo struct {
	carts   map[string]domain.Cart
	getErr  error
	saveErr error
}

func newStubCartRepo() *stubCartRepo {
	return &stubCartRepo{carts: map[string]domain.Cart{}}
}

func (r *stubCartRepo) Get(_ context.Context, userID string) (domain.Cart, error) {
	if r.getErr != nil {
		return domain.Cart{}, r.getErr
	}
	cart, ok := r.carts[userID]
	if !ok {
		return domain.Cart{}, notFoundErr()
	}
	return cart, nil
}

func (r *stubCartRepo) Save(_ context.Context, cart domain.Cart) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.carts[cart.UserID] = cart
	return nil
}

type stubOrderRepo struct {
	orders    map[string]domain.Order
	insertErr error
	updateErr error
	stats     repositories.OrderStats
	recent    []domain.Order
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{orders: map[string]domain.Order{}}
}

func (r *stubOrderRepo) Insert(_ context.Context, order domain.Order) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	if _, ok := r.orders[order.ID]; ok {
		return conflictErr()
	}
	r.orders[order.ID] = order
	return nil
}

func (r *stubOrderRepo) Update(_ context.Context, order domain.Order) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.orders[order.ID] = order
	return nil
}

func (r *stubOrderRepo) FindByID(_ context.Context, orderID string) (domain.Order, error) {
	order, ok := r.orders[orderID]
	if !ok {
		return domain.Order{}, notFoundErr()
	}
	return order, nil
}

func (r *stubOrderRepo) List(_ context.Context, filter repositories.OrderListFilter) (domain.Page[domain.Order], error) {
	items := make([]domain.Order, 0, len(r.orders))
	for _, order := range r.orders {
		if filter.UserID != "" && order.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && order.Status != filter.Status {
			continue
		}
		items = append(items, order)
	}
	return domain.Page[domain.Order]{Items: items, Total: int64(len(items)), Page: 1, Limit: len(items), TotalPages: 1}, nil
}

func (r *stubOrderRepo) Stats(_ context.Context) (repositories.OrderStats, error) {
	return r.stats, nil
}

func (r *stubOrderRepo) ListRecent(_ context.Context, _ int) ([]domain.Order, error) {
	return r.recent, nil
}

type stubUserRepo struct {
	users       map[string]domain.User
	insertErr   error
	updateErr   error
	count       int64
	findMissUID string
}

func newStubUserRepo(users ...domain.User) *stubUserRepo {
	repo := &stubUserRepo{users: map[string]domain.User{}}
	for _, u := range users {
		repo.users[u.UID] = u
	}
	return repo
}

func (r *stubUserRepo) Insert(_ context.Context, user domain.User) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	if _, ok := r.users[user.UID]; ok {
		return conflictErr()
	}
	r.users[user.UID] = user
	return nil
}

func (r *stubUserRepo) Update(_ context.Context, user domain.User) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.users[user.UID] = user
	return nil
}

func (r *stubUserRepo) FindByUID(_ context.Context, uid string) (domain.User, error) {
	if r.findMissUID == uid {
		r.findMissUID = ""
		return domain.User{}, notFoundErr()
	}
	user, ok := r.users[uid]
	if !ok {
		return domain.User{}, notFoundErr()
	}
	return user, nil
}

func (r *stubUserRepo) Count(_ context.Context) (int64, error) {
	if r.count > 0 {
		return r.count, nil
	}
	return int64(len(r.users)), nil
}

type stubSaleRepo struct {
	sales     map[string]domain.Sale
	insertErr error
}

func newStubSaleRepo(sales ...domain.Sale) *stubSaleRepo {
	repo := &stubSaleRepo{sales: map[string]domain.Sale{}}
	for _, s := range sales {
		repo.sales[s.ID] = s
	}
	return repo
}

func (r *stubSaleRepo) Insert(_ context.Context, sale domain.Sale) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.sales[sale.ID] = sale
	return nil
}

func (r *stubSaleRepo) Update(_ context.Context, sale domain.Sale) error {
	r.sales[sale.ID] = sale
	return nil
}

func (r *stubSaleRepo) Delete(_ context.Context, saleID string) error {
	if _, ok := r.sales[saleID]; !ok {
		return notFoundErr()
	}
	delete(r.sales, saleID)
	return nil
}

func (r *stubSaleRepo) FindByID(_ context.Context, saleID string) (domain.Sale, error) {
	sale, ok := r.sales[saleID]
	if !ok {
		return domain.Sale{}, notFoundErr()
	}
	return sale, nil
}

func (r *stubSaleRepo) List(_ context.Context, filter repositories.SaleListFilter) ([]domain.Sale, error) {
	out := make([]domain.Sale, 0, len(r.sales))
	for _, sale := range r.sales {
		if filter.ActiveOnly && !sale.IsActive {
			continue
		}
		if filter.SaleMode != "" && sale.SaleMode != filter.SaleMode {
			continue
		}
		out = append(out, sale)
	}
	return out, nil
}

type stubSaleModeRepo struct {
	modes     map[string]domain.SaleMode
	toggleErr error
}

func newStubSaleModeRepo(modes ...domain.SaleMode) *stubSaleModeRepo {
	repo := &stubSaleModeRepo{modes: map[string]domain.SaleMode{}}
	for _, m := range modes {
		repo.modes[strings.ToLower(m.Name)] = m
	}
	return repo
}

func (r *stubSaleModeRepo) Upsert(_ context.Context, mode domain.SaleMode) (domain.SaleMode, error) {
	key := strings.ToLower(mode.Name)
	if existing, ok := r.modes[key]; ok {
		mode.CreatedAt = existing.CreatedAt
	}
	r.modes[key] = mode
	return mode, nil
}

func (r *stubSaleModeRepo) List(_ context.Context) ([]domain.SaleMode, error) {
	out := make([]domain.SaleMode, 0, len(r.modes))
	for _, mode := range r.modes {
		out = append(out, mode)
	}
	return out, nil
}

func (r *stubSaleModeRepo) Toggle(_ context.Context, name string, now time.Time) (domain.SaleMode, error) {
	if r.toggleErr != nil {
		return domain.SaleMode{}, r.toggleErr
	}
	key := strings.ToLower(name)
	target, ok := r.modes[key]
	if !ok {
		return domain.SaleMode{}, notFoundErr()
	}
	for k, mode := range r.modes {
		if k == key {
			continue
		}
		mode.IsActive = false
		r.modes[k] = mode
	}
	target.IsActive = !target.IsActive
	r.modes[key] = target
	return target, nil
}

func (r *stubSaleModeRepo) Delete(_ context.Context, name string) error {
	key := strings.ToLower(name)
	if _, ok := r.modes[key]; !ok {
		return notFoundErr()
	}
	delete(r.modes, key)
	return nil
}

type stubPublisher struct {
	events []OrderEvent
	err    error
}

func (p *stubPublisher) PublishOrderEvent(_ context.Context, event OrderEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

type stubUploader struct {
	err   error
	calls int
}

func (u *stubUploader) UploadProductImage(_ context.Context, productID, fileName string, _ []byte) (string, error) {
	u.calls++
	if u.err != nil {
		return "", u.err
	}
	return "https://cdn.example.com/catalog/products/" + productID + "/" + fileName, nil
}

func (u *stubUploader) UploadSaleImage(_ context.Context, saleID, fileName string, _ []byte) (string, error) {
	u.calls++
	if u.err != nil {
		return "", u.err
	}
	return "https://cdn.example.com/catalog/sales/" + saleID + "/" + fileName, nil
}
