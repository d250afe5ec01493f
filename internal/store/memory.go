package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"payflow/internal/models"
)

// MemoryLedger is an in-memory Ledger used by tests and local development.
// It enforces the same idempotency-key uniqueness semantics as the database:
// concurrent creates with one key produce exactly one payment and one
// ErrDuplicateKey.
type MemoryLedger struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	payments     map[string]*models.Payment
	byIdemKey    map[string]string // idempotency key -> payment id
	attempts     map[string]*models.PaymentAttempt
	transactions map[string]*models.PaymentTransaction
	refunds      map[string]*models.Refund
	callbacks    map[string]*models.ProviderCallback
}

// NewMemoryLedger creates an empty in-memory ledger
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		payments:     make(map[string]*models.Payment),
		byIdemKey:    make(map[string]string),
		attempts:     make(map[string]*models.PaymentAttempt),
		transactions: make(map[string]*models.PaymentTransaction),
		refunds:      make(map[string]*models.Refund),
		callbacks:    make(map[string]*models.ProviderCallback),
	}
}

func stamp(b *models.BaseModel) {
	now := time.Now()
	if b.ID == "" {
		b.ID = uuid.NewString()
		b.CreatedAt = now
	}
	b.UpdatedAt = now
}

func (l *MemoryLedger) CreatePayment(ctx context.Context, p *models.Payment) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, taken := l.byIdemKey[p.IdempotencyKey]; taken {
		return ErrDuplicateKey
	}
	stamp(&p.BaseModel)
	cp := *p
	l.payments[p.ID] = &cp
	l.byIdemKey[p.IdempotencyKey] = p.ID
	return nil
}

func (l *MemoryLedger) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.payments[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (l *MemoryLedger) GetPaymentByIdempotencyKey(ctx context.Context, key string) (*models.Payment, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	id, ok := l.byIdemKey[key]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *l.payments[id]
	return &cp, nil
}

func (l *MemoryLedger) FindPaymentsByOrderID(ctx context.Context, orderID string) ([]models.Payment, error) {
	return l.filterPayments(func(p *models.Payment) bool { return p.OrderID == orderID }), nil
}

func (l *MemoryLedger) FindPaymentsByUserID(ctx context.Context, userID string) ([]models.Payment, error) {
	return l.filterPayments(func(p *models.Payment) bool { return p.UserID == userID }), nil
}

func (l *MemoryLedger) filterPayments(keep func(*models.Payment) bool) []models.Payment {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []models.Payment
	for _, p := range l.payments {
		if keep(p) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (l *MemoryLedger) UpdatePayment(ctx context.Context, p *models.Payment) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.payments[p.ID]; !ok {
		return ErrNotFound
	}
	p.UpdatedAt = time.Now()
	cp := *p
	l.payments[p.ID] = &cp
	return nil
}

func (l *MemoryLedger) NextAttemptNo(ctx context.Context, paymentID string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.payments[paymentID]
	if !ok {
		return 0, ErrNotFound
	}
	p.AttemptSeq++
	return p.AttemptSeq, nil
}

func (l *MemoryLedger) CreateAttempt(ctx context.Context, a *models.PaymentAttempt) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	stamp(&a.BaseModel)
	cp := *a
	l.attempts[a.ID] = &cp
	return nil
}

func (l *MemoryLedger) UpdateAttempt(ctx context.Context, a *models.PaymentAttempt) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.attempts[a.ID]; !ok {
		return ErrNotFound
	}
	a.UpdatedAt = time.Now()
	cp := *a
	l.attempts[a.ID] = &cp
	return nil
}

func (l *MemoryLedger) FindAttemptsByPaymentID(ctx context.Context, paymentID string) ([]models.PaymentAttempt, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []models.PaymentAttempt
	for _, a := range l.attempts {
		if a.PaymentID == paymentID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AttemptNo < out[j].AttemptNo })
	return out, nil
}

func (l *MemoryLedger) CreateTransaction(ctx context.Context, t *models.PaymentTransaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	stamp(&t.BaseModel)
	cp := *t
	l.transactions[t.ID] = &cp
	return nil
}

func (l *MemoryLedger) UpdateTransaction(ctx context.Context, t *models.PaymentTransaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.transactions[t.ID]; !ok {
		return ErrNotFound
	}
	t.UpdatedAt = time.Now()
	cp := *t
	l.transactions[t.ID] = &cp
	return nil
}

func (l *MemoryLedger) FindTransactionsByPaymentID(ctx context.Context, paymentID string) ([]models.PaymentTransaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []models.PaymentTransaction
	for _, t := range l.transactions {
		if t.PaymentID == paymentID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (l *MemoryLedger) CreateRefund(ctx context.Context, r *models.Refund) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	stamp(&r.BaseModel)
	cp := *r
	l.refunds[r.ID] = &cp
	return nil
}

func (l *MemoryLedger) UpdateRefund(ctx context.Context, r *models.Refund) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.refunds[r.ID]; !ok {
		return ErrNotFound
	}
	r.UpdatedAt = time.Now()
	cp := *r
	l.refunds[r.ID] = &cp
	return nil
}

func (l *MemoryLedger) FindRefundsByPaymentID(ctx context.Context, paymentID string) ([]models.Refund, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []models.Refund
	for _, r := range l.refunds {
		if r.PaymentID == paymentID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (l *MemoryLedger) SumSucceededRefunds(ctx context.Context, paymentID string) (float64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var total float64
	for _, r := range l.refunds {
		if r.PaymentID == paymentID && r.Status == models.RefundStatusSuccess {
			total += r.Amount
		}
	}
	return total, nil
}

func (l *MemoryLedger) CreateCallback(ctx context.Context, cb *models.ProviderCallback) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	stamp(&cb.BaseModel)
	cp := *cb
	l.callbacks[cb.ID] = &cp
	return nil
}

// Atomically serializes units of work against the in-memory maps. It does not
// implement rollback; tests that need failure injection wrap the ledger
// instead.
func (l *MemoryLedger) Atomically(ctx context.Context, fn func(Ledger) error) error {
	l.txMu.Lock()
	defer l.txMu.Unlock()
	return fn(l)
}
