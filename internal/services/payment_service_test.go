package services

import (
	"context"
	"errors"
	"testing"

	"github.com/swiftcart/api/internal/payments"
)

type stubProvider struct {
	order payments.ProviderOrder
	err   error
	last  struct {
		amountMinor int64
		currency    string
		receipt     string
	}
}

func (p *stubProvider) CreateOrder(_ context.Context, amountMinor int64, currency, receipt string) (payments.ProviderOrder, error) {
	p.last.amountMinor = amountMinor
	p.last.currency = currency
	p.last.receipt = receipt
	if p.err != nil {
		return payments.ProviderOrder{}, p.err
	}
	order := p.order
	order.AmountMinor = amountMinor
	order.Currency = currency
	order.Receipt = receipt
	return order, nil
}

type stubVerifier struct{ ok bool }

func (v stubVerifier) Verify(_, _, _ string) bool { return v.ok }

func TestPaymentServiceCreatePaymentOrderConvertsToMinorUnits(t *testing.T) {
	provider := &stubProvider{order: payments.ProviderOrder{ID: "order_abc"}}
	svc, err := NewPaymentService(PaymentServiceDeps{Provider: provider, Verifier: stubVerifier{ok: true}})
	if err != nil {
		t.Fatalf("NewPaymentService: %v", err)
	}

	order, err := svc.CreatePaymentOrder(context.Background(), 1097.50, "SWC123")
	if err != nil {
		t.Fatalf("CreatePaymentOrder: %v", err)
	}
	if provider.last.amountMinor != 109750 {
		t.Fatalf("amount minor = %d, want 109750", provider.last.amountMinor)
	}
	if provider.last.currency != "INR" {
		t.Fatalf("currency = %q, want INR", provider.last.currency)
	}
	if order.ProviderOrderID != "order_abc" || order.Amount != 1097.50 {
		t.Fatalf("unexpected order: %+v", order)
	}
}

func TestPaymentServiceCreatePaymentOrderRejectsNonPositiveAmount(t *testing.T) {
	svc, err := NewPaymentService(PaymentServiceDeps{Provider: &stubProvider{}, Verifier: stubVerifier{}})
	if err != nil {
		t.Fatalf("NewPaymentService: %v", err)
	}

	if _, err := svc.CreatePaymentOrder(context.Background(), 0, "r"); !errors.Is(err, ErrPaymentInvalidInput) {
		t.Fatalf("expected ErrPaymentInvalidInput, got %v", err)
	}
}

func TestPaymentServiceCreatePaymentOrderWrapsProviderFailure(t *testing.T) {
	provider := &stubProvider{err: errors.New("gateway timeout")}
	svc, err := NewPaymentService(PaymentServiceDeps{Provider: provider, Verifier: stubVerifier{}})
	if err != nil {
		t.Fatalf("NewPaymentService: %v", err)
	}

	if _, err := svc.CreatePaymentOrder(context.Background(), 100, "r"); !errors.Is(err, ErrPaymentUnavailable) {
		t.Fatalf("expected ErrPaymentUnavailable, got %v", err)
	}
}

func TestPaymentServiceVerifyPayment(t *testing.T) {
	svc, err := NewPaymentService(PaymentServiceDeps{Provider: &stubProvider{}, Verifier: stubVerifier{ok: true}})
	if err != nil {
		t.Fatalf("NewPaymentService: %v", err)
	}

	ok, err := svc.VerifyPayment(context.Background(), VerifyPaymentCommand{ProviderOrderID: "o", PaymentID: "p", Signature: "s"})
	if err != nil || !ok {
		t.Fatalf("VerifyPayment = %v, %v", ok, err)
	}

	if _, err := svc.VerifyPayment(context.Background(), VerifyPaymentCommand{ProviderOrderID: "o"}); !errors.Is(err, ErrPaymentInvalidInput) {
		t.Fatalf("expected ErrPaymentInvalidInput, got %v", err)
	}
}
