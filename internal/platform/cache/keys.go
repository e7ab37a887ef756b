package cache

import (
	"encoding/json"
	"fmt"
	"time"
)

// TTLs applied by the service layer. Carts churn faster than catalog data.
const (
	ProductTTL  = time.Hour
	SaleTTL     = time.Hour
	CartTTL     = 30 * time.Minute
	IdentityTTL = 5 * time.Minute
)

// Prefixes swept by coarse invalidation after catalog or sale writes.
const (
	ProductsPrefix = "products:"
	SalesPrefix    = "sales:"
)

const (
	// FeaturedProductsKey caches the storefront's featured strip.
	FeaturedProductsKey = "products:featured"
	// SalesAllKey caches the full sale listing.
	SalesAllKey = "sales:all"
	// SalesActiveKey caches only sales whose mode is currently active.
	SalesActiveKey = "sales:active"
)

// ProductKey addresses a single product document.
func ProductKey(productID string) string {
	return "product:" + productID
}

// ProductListKey derives a deterministic key from the filter and sort. The
// filter is JSON-encoded so equal queries share an entry.
func ProductListKey(filter any, sort string) string {
	payload, err := json.Marshal(filter)
	if err != nil {
		payload = []byte("{}")
	}
	return fmt.Sprintf("products:%s:%s", payload, sort)
}

// CartKey addresses one user's cart.
func CartKey(userID string) string {
	return "cart:" + userID
}

// SaleKey addresses a single sale document.
func SaleKey(saleID string) string {
	return "sale:" + saleID
}

// UserKey addresses a resolved identity profile.
func UserKey(uid string) string {
	return "user:" + uid
}
