package providers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"payflow/internal/models"
)

// SimulatedGateway stands in for a real provider integration. It always
// approves, generates unique provider-side reference ids and returns the kind
// of raw payload a real network would, so the ledger snapshots stay
// realistic.
type SimulatedGateway struct {
	provider models.PaymentProvider
	prefix   string
	logger   *zap.Logger
}

// NewCardGateway simulates the card network
func NewCardGateway(logger *zap.Logger) *SimulatedGateway {
	return &SimulatedGateway{provider: models.ProviderCard, prefix: "CARD", logger: logger}
}

// NewPhonePeGateway simulates the PhonePe UPI network
func NewPhonePeGateway(logger *zap.Logger) *SimulatedGateway {
	return &SimulatedGateway{provider: models.ProviderPhonePe, prefix: "PHONEPE", logger: logger}
}

// NewPaytmGateway simulates the Paytm UPI network
func NewPaytmGateway(logger *zap.Logger) *SimulatedGateway {
	return &SimulatedGateway{provider: models.ProviderPaytm, prefix: "PAYTM", logger: logger}
}

// NewGooglePayGateway simulates the Google Pay UPI network
func NewGooglePayGateway(logger *zap.Logger) *SimulatedGateway {
	return &SimulatedGateway{provider: models.ProviderGooglePay, prefix: "GPAY", logger: logger}
}

func (g *SimulatedGateway) Provider() models.PaymentProvider {
	return g.provider
}

func (g *SimulatedGateway) Initiate(ctx context.Context, payment *models.Payment) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.logger.Info("initiating provider payment",
		zap.String("provider", string(g.provider)),
		zap.String("payment_id", payment.ID))

	refID := fmt.Sprintf("%s_TXN_%s", g.prefix, uuid.NewString())
	return g.outcome(refID, "Payment initiated successfully"), nil
}

func (g *SimulatedGateway) Refund(ctx context.Context, payment *models.Payment, reason string) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.logger.Info("processing provider refund",
		zap.String("provider", string(g.provider)),
		zap.String("payment_id", payment.ID),
		zap.String("reason", reason))

	refID := fmt.Sprintf("%s_REFUND_%s", g.prefix, uuid.NewString())
	return g.outcome(refID, "Refund initiated successfully"), nil
}

func (g *SimulatedGateway) outcome(refID, message string) *Outcome {
	raw, _ := json.Marshal(map[string]any{
		"success":       true,
		"transactionId": refID,
		"status":        "INITIATED",
		"message":       message,
	})
	return &Outcome{
		Success:             true,
		ProviderReferenceID: refID,
		Message:             message,
		RawPayload:          string(raw),
	}
}
