// Package billing handles recurring subscriber charges through Mercado Pago.
package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/preapproval"
)

var ErrDisabled = errors.New("billing: mercado pago not configured")

type SubscriptionInput struct {
	ExternalReference string
	PayerEmail        string
	Reason            string
	Amount            float64
	Currency          string
}

type Subscription struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	CheckoutURL string `json:"checkout_url"`
}

type Provider interface {
	Subscribe(ctx context.Context, in SubscriptionInput) (*Subscription, error)
	Cancel(ctx context.Context, id string) (*Subscription, error)
	Status(ctx context.Context, id string) (*Subscription, error)
}

type MercadoPago struct {
	client  preapproval.Client
	backURL string
}

func NewMercadoPago(accessToken, backURL string) (*MercadoPago, error) {
	if accessToken == "" {
		return nil, ErrDisabled
	}

	cfg, err := config.New(accessToken)
	if err != nil {
		return nil, fmt.Errorf("billing: mercado pago config: %w", err)
	}

	return &MercadoPago{
		client:  preapproval.NewClient(cfg),
		backURL: backURL,
	}, nil
}

func (m *MercadoPago) Subscribe(ctx context.Context, in SubscriptionInput) (*Subscription, error) {
	if in.Amount <= 0 {
		return nil, fmt.Errorf("billing: amount must be positive")
	}
	currency := in.Currency
	if currency == "" {
		currency = "BRL"
	}

	resp, err := m.client.Create(ctx, preapproval.Request{
		PayerEmail:        in.PayerEmail,
		Reason:            in.Reason,
		ExternalReference: in.ExternalReference,
		BackURL:           m.backURL,
		AutoRecurring: &preapproval.AutoRecurringRequest{
			Frequency:         1,
			FrequencyType:     "months",
			TransactionAmount: in.Amount,
			CurrencyID:        currency,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("billing: create preapproval: %w", err)
	}

	return &Subscription{
		ID:          resp.ID,
		Status:      resp.Status,
		CheckoutURL: resp.InitPoint,
	}, nil
}

func (m *MercadoPago) Cancel(ctx context.Context, id string) (*Subscription, error) {
	resp, err := m.client.Update(ctx, id, preapproval.UpdateRequest{Status: "cancelled"})
	if err != nil {
		return nil, fmt.Errorf("billing: cancel preapproval %s: %w", id, err)
	}
	return &Subscription{ID: resp.ID, Status: resp.Status, CheckoutURL: resp.InitPoint}, nil
}

func (m *MercadoPago) Status(ctx context.Context, id string) (*Subscription, error) {
	resp, err := m.client.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("billing: get preapproval %s: %w", id, err)
	}
	return &Subscription{ID: resp.ID, Status: resp.Status, CheckoutURL: resp.InitPoint}, nil
}
