package providers

import (
	"context"
	"fmt"

	"payflow/internal/models"
)

// Outcome is the uniform result of a provider call. Ordinary business
// failures come back as Success=false with a message; a Go error is reserved
// for transport-level problems such as a cancelled context.
type Outcome struct {
	Success             bool   `json:"success"`
	ProviderReferenceID string `json:"providerReferenceId"`
	Message             string `json:"message"`
	RawPayload          string `json:"rawPayload,omitempty"`
}

// Gateway abstracts one concrete payment network
type Gateway interface {
	Provider() models.PaymentProvider
	Initiate(ctx context.Context, payment *models.Payment) (*Outcome, error)
	Refund(ctx context.Context, payment *models.Payment, reason string) (*Outcome, error)
}

// Registry maps provider enums to gateway implementations. Built once at
// startup and handed to the orchestrator.
type Registry struct {
	gateways map[models.PaymentProvider]Gateway
}

// NewRegistry indexes the given gateways by provider
func NewRegistry(gateways ...Gateway) *Registry {
	r := &Registry{gateways: make(map[models.PaymentProvider]Gateway, len(gateways))}
	for _, g := range gateways {
		r.gateways[g.Provider()] = g
	}
	return r
}

// Get returns the gateway for the provider. A miss is a configuration error,
// not a user-facing failure.
func (r *Registry) Get(provider models.PaymentProvider) (Gateway, error) {
	g, ok := r.gateways[provider]
	if !ok {
		return nil, fmt.Errorf("no gateway registered for provider %s", provider)
	}
	return g, nil
}
