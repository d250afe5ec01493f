package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"payflow/internal/models"
)

// GormLedger persists the ledger through gorm. Requires the connection to be
// opened with TranslateError so unique violations map to gorm.ErrDuplicatedKey.
type GormLedger struct {
	db *gorm.DB
}

// NewGormLedger wraps an open gorm connection
func NewGormLedger(db *gorm.DB) *GormLedger {
	return &GormLedger{db: db}
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateKey
	}
	return err
}

func (l *GormLedger) CreatePayment(ctx context.Context, p *models.Payment) error {
	return translate(l.db.WithContext(ctx).Create(p).Error)
}

func (l *GormLedger) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	var p models.Payment
	if err := l.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (l *GormLedger) GetPaymentByIdempotencyKey(ctx context.Context, key string) (*models.Payment, error) {
	var p models.Payment
	if err := l.db.WithContext(ctx).First(&p, "idempotency_key = ?", key).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (l *GormLedger) FindPaymentsByOrderID(ctx context.Context, orderID string) ([]models.Payment, error) {
	var payments []models.Payment
	err := l.db.WithContext(ctx).Where("order_id = ?", orderID).Order("created_at desc").Find(&payments).Error
	return payments, translate(err)
}

func (l *GormLedger) FindPaymentsByUserID(ctx context.Context, userID string) ([]models.Payment, error) {
	var payments []models.Payment
	err := l.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at desc").Find(&payments).Error
	return payments, translate(err)
}

func (l *GormLedger) UpdatePayment(ctx context.Context, p *models.Payment) error {
	return translate(l.db.WithContext(ctx).Save(p).Error)
}

func (l *GormLedger) NextAttemptNo(ctx context.Context, paymentID string) (int, error) {
	var seq int
	err := l.db.WithContext(ctx).
		Raw("UPDATE payments SET attempt_seq = attempt_seq + 1, updated_at = NOW() WHERE id = ? RETURNING attempt_seq", paymentID).
		Scan(&seq).Error
	if err != nil {
		return 0, translate(err)
	}
	if seq == 0 {
		return 0, ErrNotFound
	}
	return seq, nil
}

func (l *GormLedger) CreateAttempt(ctx context.Context, a *models.PaymentAttempt) error {
	return translate(l.db.WithContext(ctx).Create(a).Error)
}

func (l *GormLedger) UpdateAttempt(ctx context.Context, a *models.PaymentAttempt) error {
	return translate(l.db.WithContext(ctx).Save(a).Error)
}

func (l *GormLedger) FindAttemptsByPaymentID(ctx context.Context, paymentID string) ([]models.PaymentAttempt, error) {
	var attempts []models.PaymentAttempt
	err := l.db.WithContext(ctx).Where("payment_id = ?", paymentID).Order("attempt_no asc").Find(&attempts).Error
	return attempts, translate(err)
}

func (l *GormLedger) CreateTransaction(ctx context.Context, t *models.PaymentTransaction) error {
	return translate(l.db.WithContext(ctx).Create(t).Error)
}

func (l *GormLedger) UpdateTransaction(ctx context.Context, t *models.PaymentTransaction) error {
	return translate(l.db.WithContext(ctx).Save(t).Error)
}

func (l *GormLedger) FindTransactionsByPaymentID(ctx context.Context, paymentID string) ([]models.PaymentTransaction, error) {
	var txns []models.PaymentTransaction
	err := l.db.WithContext(ctx).Where("payment_id = ?", paymentID).Order("created_at asc").Find(&txns).Error
	return txns, translate(err)
}

func (l *GormLedger) CreateRefund(ctx context.Context, r *models.Refund) error {
	return translate(l.db.WithContext(ctx).Create(r).Error)
}

func (l *GormLedger) UpdateRefund(ctx context.Context, r *models.Refund) error {
	return translate(l.db.WithContext(ctx).Save(r).Error)
}

func (l *GormLedger) FindRefundsByPaymentID(ctx context.Context, paymentID string) ([]models.Refund, error) {
	var refunds []models.Refund
	err := l.db.WithContext(ctx).Where("payment_id = ?", paymentID).Order("created_at asc").Find(&refunds).Error
	return refunds, translate(err)
}

func (l *GormLedger) SumSucceededRefunds(ctx context.Context, paymentID string) (float64, error) {
	var total float64
	err := l.db.WithContext(ctx).Model(&models.Refund{}).
		Where("payment_id = ? AND status = ?", paymentID, models.RefundStatusSuccess).
		Select("COALESCE(SUM(amount), 0)").Scan(&total).Error
	return total, translate(err)
}

func (l *GormLedger) CreateCallback(ctx context.Context, cb *models.ProviderCallback) error {
	return translate(l.db.WithContext(ctx).Create(cb).Error)
}

func (l *GormLedger) Atomically(ctx context.Context, fn func(Ledger) error) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormLedger{db: tx})
	})
}
