package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	razorpay "github.com/razorpay/razorpay-go"
)

// RazorpayProvider creates orders through the Razorpay Orders API.
type RazorpayProvider struct {
	client *razorpay.Client
}

// NewRazorpayProvider builds the provider from the API key pair.
func NewRazorpayProvider(keyID, keySecret string) (*RazorpayProvider, error) {
	keyID = strings.TrimSpace(keyID)
	keySecret = strings.TrimSpace(keySecret)
	if keyID == "" || keySecret == "" {
		return nil, errors.New("payments: razorpay key id and secret are required")
	}
	return &RazorpayProvider{client: razorpay.NewClient(keyID, keySecret)}, nil
}

// CreateOrder registers an order with Razorpay. The SDK is not context
// aware, so ctx only guards the entry point.
func (p *RazorpayProvider) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (ProviderOrder, error) {
	if err := ctx.Err(); err != nil {
		return ProviderOrder{}, err
	}
	if amountMinor <= 0 {
		return ProviderOrder{}, errors.New("payments: amount must be positive")
	}

	payload := map[string]interface{}{
		"amount":   amountMinor,
		"currency": currency,
		"receipt":  receipt,
	}
	raw, err := p.client.Order.Create(payload, nil)
	if err != nil {
		return ProviderOrder{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	id, _ := raw["id"].(string)
	if id == "" {
		return ProviderOrder{}, fmt.Errorf("%w: order id missing from response", ErrProviderUnavailable)
	}

	return ProviderOrder{
		ID:          id,
		AmountMinor: amountMinor,
		Currency:    currency,
		Receipt:     receipt,
	}, nil
}
