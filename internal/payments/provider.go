package payments

import (
	"context"
	"errors"
)

// ErrProviderUnavailable indicates the payment provider rejected or failed
// the request.
var ErrProviderUnavailable = errors.New("payments: provider unavailable")

// ProviderOrder is the provider-side order the client completes the payment
// handshake against. AmountMinor is in the currency's minor unit.
type ProviderOrder struct {
	ID          string
	AmountMinor int64
	Currency    string
	Receipt     string
}

// Provider creates orders with the upstream payment gateway.
type Provider interface {
	CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (ProviderOrder, error)
}
