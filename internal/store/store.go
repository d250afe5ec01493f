package store

import (
	"context"
	"errors"

	"payflow/internal/models"
)

var (
	// ErrNotFound means the requested record does not exist
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateKey means a uniqueness constraint rejected the write.
	// For payments this is the idempotency-key index firing on a raced create.
	ErrDuplicateKey = errors.New("duplicate key")
)

// Ledger is the durable keyed storage contract for the payment ledger.
// CreatePayment must surface ErrDuplicateKey when two concurrent creates
// carry the same idempotency key; the loser resolves the conflict by looking
// the winner up. NextAttemptNo must be atomic per payment.
type Ledger interface {
	CreatePayment(ctx context.Context, p *models.Payment) error
	GetPayment(ctx context.Context, id string) (*models.Payment, error)
	GetPaymentByIdempotencyKey(ctx context.Context, key string) (*models.Payment, error)
	FindPaymentsByOrderID(ctx context.Context, orderID string) ([]models.Payment, error)
	FindPaymentsByUserID(ctx context.Context, userID string) ([]models.Payment, error)
	UpdatePayment(ctx context.Context, p *models.Payment) error

	// NextAttemptNo bumps the payment's attempt counter and returns the new
	// 1-based attempt number.
	NextAttemptNo(ctx context.Context, paymentID string) (int, error)
	CreateAttempt(ctx context.Context, a *models.PaymentAttempt) error
	UpdateAttempt(ctx context.Context, a *models.PaymentAttempt) error
	FindAttemptsByPaymentID(ctx context.Context, paymentID string) ([]models.PaymentAttempt, error)

	CreateTransaction(ctx context.Context, t *models.PaymentTransaction) error
	UpdateTransaction(ctx context.Context, t *models.PaymentTransaction) error
	FindTransactionsByPaymentID(ctx context.Context, paymentID string) ([]models.PaymentTransaction, error)

	CreateRefund(ctx context.Context, r *models.Refund) error
	UpdateRefund(ctx context.Context, r *models.Refund) error
	FindRefundsByPaymentID(ctx context.Context, paymentID string) ([]models.Refund, error)
	// SumSucceededRefunds returns the total amount already refunded with
	// status SUCCESS for the payment.
	SumSucceededRefunds(ctx context.Context, paymentID string) (float64, error)

	CreateCallback(ctx context.Context, cb *models.ProviderCallback) error

	// Atomically runs fn inside one atomic commit boundary; all writes made
	// through the passed Ledger commit or roll back together.
	Atomically(ctx context.Context, fn func(Ledger) error) error
}
