package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/swiftcart/api/internal/payments"
)

// ErrPaymentInvalidInput indicates the caller supplied invalid input.
var ErrPaymentInvalidInput = errors.New("payment service: invalid input")

// ErrPaymentUnavailable indicates the payment provider failed the request.
var ErrPaymentUnavailable = errors.New("payment service: unavailable")

const defaultPaymentCurrency = "INR"

// PaymentVerifier checks the client's signed payment confirmation.
type PaymentVerifier interface {
	Verify(providerOrderID, paymentID, signature string) bool
}

// PaymentServiceDeps wires the provider client and signature verifier.
type PaymentServiceDeps struct {
	Provider payments.Provider
	Verifier PaymentVerifier
	Currency string
	Logger   func(context.Context, string, map[string]any)
}

type paymentService struct {
	provider payments.Provider
	verifier PaymentVerifier
	currency string
	logger   func(context.Context, string, map[string]any)
}

// NewPaymentService constructs a PaymentService enforcing dependency validation.
func NewPaymentService(deps PaymentServiceDeps) (PaymentService, error) {
	if deps.Provider == nil {
		return nil, errors.New("payment service: provider is required")
	}
	if deps.Verifier == nil {
		return nil, errors.New("payment service: verifier is required")
	}

	currency := strings.ToUpper(strings.TrimSpace(deps.Currency))
	if currency == "" {
		currency = defaultPaymentCurrency
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &paymentService{
		provider: deps.Provider,
		verifier: deps.Verifier,
		currency: currency,
		logger:   logger,
	}, nil
}

func (s *paymentService) CreatePaymentOrder(ctx context.Context, amount float64, receipt string) (PaymentOrder, error) {
	if amount <= 0 {
		return PaymentOrder{}, fmt.Errorf("%w: amount must be positive", ErrPaymentInvalidInput)
	}

	// Providers bill in the currency's minor unit.
	minor := int64(math.Round(amount * 100))

	order, err := s.provider.CreateOrder(ctx, minor, s.currency, strings.TrimSpace(receipt))
	if err != nil {
		s.logger(ctx, "payment.order_create_failed", map[string]any{"amount": amount, "error": err.Error()})
		return PaymentOrder{}, fmt.Errorf("%w: %v", ErrPaymentUnavailable, err)
	}

	return PaymentOrder{
		ProviderOrderID: order.ID,
		Amount:          amount,
		AmountMinor:     order.AmountMinor,
		Currency:        order.Currency,
		Receipt:         order.Receipt,
	}, nil
}

func (s *paymentService) VerifyPayment(ctx context.Context, cmd VerifyPaymentCommand) (bool, error) {
	if strings.TrimSpace(cmd.ProviderOrderID) == "" || strings.TrimSpace(cmd.PaymentID) == "" || strings.TrimSpace(cmd.Signature) == "" {
		return false, fmt.Errorf("%w: order id, payment id, and signature are required", ErrPaymentInvalidInput)
	}

	ok := s.verifier.Verify(cmd.ProviderOrderID, cmd.PaymentID, cmd.Signature)
	if !ok {
		s.logger(ctx, "payment.signature_rejected", map[string]any{"providerOrderID": cmd.ProviderOrderID, "paymentID": cmd.PaymentID})
	}
	return ok, nil
}
