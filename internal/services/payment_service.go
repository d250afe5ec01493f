package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"payflow/internal/dto"
	"payflow/internal/models"
	"payflow/internal/providers"
	"payflow/internal/store"
)

const (
	// DefaultProviderTimeout bounds the blocking provider call. Expiry is
	// treated as a provider failure; there is no automatic retry, only a
	// caller-driven idempotent re-Initiate.
	DefaultProviderTimeout = 30 * time.Second

	cacheTTL = 24 * time.Hour
)

// PaymentService drives the payment lifecycle: the initiation state machine,
// the idempotency guarantee, the attempt/transaction ledger and the refund
// compensation workflow.
type PaymentService struct {
	ledger          store.Ledger
	registry        *providers.Registry
	cache           *RedisCache // optional, may be nil
	logger          *zap.Logger
	providerTimeout time.Duration
	keys            *keyedMutex
}

// NewPaymentService wires the orchestrator. cache may be nil.
func NewPaymentService(ledger store.Ledger, registry *providers.Registry, cache *RedisCache, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		ledger:          ledger,
		registry:        registry,
		cache:           cache,
		logger:          logger,
		providerTimeout: DefaultProviderTimeout,
		keys:            newKeyedMutex(),
	}
}

// SetProviderTimeout overrides the provider-call deadline
func (s *PaymentService) SetProviderTimeout(d time.Duration) {
	s.providerTimeout = d
}

// InitiateResult distinguishes a freshly created payment from an idempotent
// replay so callers never conflate duplicate detection with failure.
type InitiateResult struct {
	PaymentID string               `json:"paymentId"`
	Status    models.PaymentStatus `json:"status"`
	Existing  bool                 `json:"-"`
}

// Initiate runs the payment initiation state machine.
//
// Repeated calls with one idempotency key are safe: the first call creates
// the payment, every later call returns the original (paymentId, status)
// without doing new work. A provider failure is a business outcome, not an
// error: the call returns status FAILED.
func (s *PaymentService) Initiate(ctx context.Context, req *dto.InitiatePaymentRequest) (*InitiateResult, error) {
	unlock := s.keys.Lock("idem:" + req.IdempotencyKey)
	defer unlock()

	if res := s.cachedResult(ctx, req.IdempotencyKey); res != nil {
		return res, nil
	}

	existing, err := s.ledger.GetPaymentByIdempotencyKey(ctx, req.IdempotencyKey)
	switch {
	case err == nil:
		s.logger.Info("idempotent replay, returning existing payment",
			zap.String("idempotency_key", req.IdempotencyKey),
			zap.String("payment_id", existing.ID))
		return &InitiateResult{PaymentID: existing.ID, Status: existing.Status, Existing: true}, nil
	case !errors.Is(err, store.ErrNotFound):
		return nil, wrapError(KindInternal, "idempotency lookup failed", err)
	}

	payment := &models.Payment{
		UserID:         req.UserID,
		OrderID:        req.OrderID,
		OrderType:      req.OrderType,
		Amount:         req.Amount,
		Currency:       req.Currency,
		Status:         models.PaymentStatusCreated,
		Provider:       req.Provider,
		PaymentMethod:  req.PaymentMethod,
		IdempotencyKey: req.IdempotencyKey,
	}
	if b := req.BeneficiaryDetails; b != nil {
		payment.BeneficiaryID = b.BeneficiaryID
		payment.BeneficiaryName = b.BeneficiaryName
		payment.BeneficiaryType = b.BeneficiaryType
		payment.BeneficiaryAccount = b.BeneficiaryAccount
	}

	if err := s.ledger.CreatePayment(ctx, payment); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			// Lost the create race; the unique index picked the winner.
			winner, werr := s.ledger.GetPaymentByIdempotencyKey(ctx, req.IdempotencyKey)
			if werr != nil {
				return nil, wrapError(KindInternal, "winner lookup after idempotency conflict failed", werr)
			}
			s.logger.Info("idempotency conflict resolved to winner",
				zap.String("idempotency_key", req.IdempotencyKey),
				zap.String("payment_id", winner.ID))
			return &InitiateResult{PaymentID: winner.ID, Status: winner.Status, Existing: true}, nil
		}
		return nil, wrapError(KindInternal, "failed to create payment", err)
	}
	s.logger.Info("created payment",
		zap.String("payment_id", payment.ID),
		zap.String("order_id", payment.OrderID),
		zap.String("provider", string(payment.Provider)))

	status, err := s.runInitiation(ctx, payment, req)
	if err != nil {
		return nil, err
	}

	result := &InitiateResult{PaymentID: payment.ID, Status: status}
	s.cacheResult(ctx, req.IdempotencyKey, result)
	return result, nil
}

// runInitiation executes steps 3-8 of the initiation flow for a freshly
// created payment. Any unexpected failure drives the payment, its attempt and
// its transaction to FAILED before the error propagates.
func (s *PaymentService) runInitiation(ctx context.Context, payment *models.Payment, req *dto.InitiatePaymentRequest) (models.PaymentStatus, error) {
	var (
		attempt *models.PaymentAttempt
		txn     *models.PaymentTransaction
	)

	// Setup unit of work: attempt + debit transaction + INITIATED, committed
	// before the provider call so the ledger never hides an in-flight call.
	err := s.ledger.Atomically(ctx, func(l store.Ledger) error {
		attemptNo, err := l.NextAttemptNo(ctx, payment.ID)
		if err != nil {
			return err
		}
		// Keep the in-memory record in step with the stored counter so the
		// full-record save below cannot write a stale sequence back.
		payment.AttemptSeq = attemptNo

		attempt = &models.PaymentAttempt{
			PaymentID:      payment.ID,
			Provider:       payment.Provider,
			AttemptNo:      attemptNo,
			Status:         models.AttemptStatusInitiated,
			RequestPayload: maskedSnapshot(req),
		}
		if err := l.CreateAttempt(ctx, attempt); err != nil {
			return err
		}

		txn = &models.PaymentTransaction{
			PaymentID:       payment.ID,
			TransactionType: models.TransactionTypeDebit,
			Amount:          payment.Amount,
			Status:          models.TransactionStatusInitiated,
			Description:     "Payment initiation for order: " + payment.OrderID,
		}
		if err := l.CreateTransaction(ctx, txn); err != nil {
			return err
		}

		payment.Status = models.PaymentStatusInitiated
		return l.UpdatePayment(ctx, payment)
	})
	if err != nil {
		s.failInitiation(ctx, payment, attempt, txn)
		return "", wrapError(KindInternal, "payment initiation setup failed", err)
	}

	gateway, err := s.registry.Get(payment.Provider)
	if err != nil {
		s.failInitiation(ctx, payment, attempt, txn)
		return "", wrapError(KindInternal, "provider registry lookup failed", err)
	}

	// Provider call runs outside any ledger transaction, bounded by the
	// configured timeout.
	callCtx, cancel := context.WithTimeout(ctx, s.providerTimeout)
	outcome, callErr := gateway.Initiate(callCtx, payment)
	cancel()

	success := callErr == nil && outcome.Success
	if callErr != nil {
		s.logger.Warn("provider call failed",
			zap.String("payment_id", payment.ID),
			zap.Error(callErr))
		outcome = &providers.Outcome{Success: false, Message: callErr.Error()}
	}

	err = s.ledger.Atomically(ctx, func(l store.Ledger) error {
		if raw, merr := json.Marshal(outcome); merr == nil {
			attempt.ResponsePayload = raw
		}
		if success {
			attempt.Status = models.AttemptStatusSuccess
			txn.Status = models.TransactionStatusSuccess
			// Final settlement confirmation arrives via the reconciliation
			// callback; PROCESSING is not terminal.
			payment.Status = models.PaymentStatusProcessing
		} else {
			attempt.Status = models.AttemptStatusFailed
			txn.Status = models.TransactionStatusFailed
			payment.Status = models.PaymentStatusFailed
		}
		if err := l.UpdateAttempt(ctx, attempt); err != nil {
			return err
		}
		if err := l.UpdateTransaction(ctx, txn); err != nil {
			return err
		}
		return l.UpdatePayment(ctx, payment)
	})
	if err != nil {
		s.failInitiation(ctx, payment, attempt, txn)
		return "", wrapError(KindInternal, "failed to record provider outcome", err)
	}

	if success {
		s.logger.Info("provider call successful",
			zap.String("payment_id", payment.ID),
			zap.String("provider_ref", outcome.ProviderReferenceID))
	} else {
		s.logger.Warn("payment failed at provider",
			zap.String("payment_id", payment.ID),
			zap.String("message", outcome.Message))
	}
	return payment.Status, nil
}

// failInitiation is the best-effort terminal write after an unexpected
// failure: the payment and whichever of its attempt/transaction exist are
// driven to FAILED so no record is left in a non-terminal state.
func (s *PaymentService) failInitiation(ctx context.Context, payment *models.Payment, attempt *models.PaymentAttempt, txn *models.PaymentTransaction) {
	payment.Status = models.PaymentStatusFailed
	if err := s.ledger.UpdatePayment(ctx, payment); err != nil {
		s.logger.Error("failed to mark payment FAILED", zap.String("payment_id", payment.ID), zap.Error(err))
	}
	if attempt != nil && attempt.ID != "" {
		attempt.Status = models.AttemptStatusFailed
		if err := s.ledger.UpdateAttempt(ctx, attempt); err != nil {
			s.logger.Error("failed to mark attempt FAILED", zap.String("attempt_id", attempt.ID), zap.Error(err))
		}
	}
	if txn != nil && txn.ID != "" {
		txn.Status = models.TransactionStatusFailed
		if err := s.ledger.UpdateTransaction(ctx, txn); err != nil {
			s.logger.Error("failed to mark transaction FAILED", zap.String("transaction_id", txn.ID), zap.Error(err))
		}
	}
}

// maskedSnapshot serializes the request with every sensitive instrument field
// redacted: card number to last-4, CVV and expiry fully, UPI and beneficiary
// accounts partially.
func maskedSnapshot(req *dto.InitiatePaymentRequest) json.RawMessage {
	masked := *req
	if req.CardDetails != nil {
		masked.CardDetails = req.CardDetails.Masked()
	}
	if req.UPIDetails != nil {
		masked.UPIDetails = req.UPIDetails.Masked()
	}
	if req.NetBankingDetails != nil {
		masked.NetBankingDetails = req.NetBankingDetails.Masked()
	}
	if req.BeneficiaryDetails != nil {
		b := *req.BeneficiaryDetails
		b.BeneficiaryAccount = req.BeneficiaryDetails.MaskedAccount()
		masked.BeneficiaryDetails = &b
	}

	raw, err := json.Marshal(&masked)
	if err != nil {
		return json.RawMessage("{}")
	}
	return raw
}

func idemCacheKey(key string) string {
	return "payflow:idem:" + key
}

func (s *PaymentService) cachedResult(ctx context.Context, key string) *InitiateResult {
	if s.cache == nil {
		return nil
	}
	var res InitiateResult
	if err := s.cache.Get(ctx, idemCacheKey(key), &res); err != nil {
		return nil
	}
	res.Existing = true
	return &res
}

func (s *PaymentService) cacheResult(ctx context.Context, key string, res *InitiateResult) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, idemCacheKey(key), res, cacheTTL); err != nil {
		s.logger.Warn("failed to cache initiate result", zap.Error(err))
	}
}

// refreshCachedStatus keeps the replay cache consistent after refund or
// reconciliation moves the payment's status.
func (s *PaymentService) refreshCachedStatus(ctx context.Context, payment *models.Payment) {
	if s.cache == nil {
		return
	}
	res := &InitiateResult{PaymentID: payment.ID, Status: payment.Status}
	if err := s.cache.Set(ctx, idemCacheKey(payment.IdempotencyKey), res, cacheTTL); err != nil {
		s.logger.Warn("failed to refresh cached payment status", zap.Error(err))
	}
}

// GetPayment returns a payment by id
func (s *PaymentService) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	payment, err := s.ledger.GetPayment(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, newError(KindNotFound, "payment not found: "+id)
	}
	if err != nil {
		return nil, wrapError(KindInternal, "payment lookup failed", err)
	}
	return payment, nil
}

// FindPaymentsByOrderID returns all payments recorded for an order
func (s *PaymentService) FindPaymentsByOrderID(ctx context.Context, orderID string) ([]models.Payment, error) {
	payments, err := s.ledger.FindPaymentsByOrderID(ctx, orderID)
	if err != nil {
		return nil, wrapError(KindInternal, "payment lookup by order failed", err)
	}
	return payments, nil
}

// FindPaymentsByUserID returns all payments recorded for a user
func (s *PaymentService) FindPaymentsByUserID(ctx context.Context, userID string) ([]models.Payment, error) {
	payments, err := s.ledger.FindPaymentsByUserID(ctx, userID)
	if err != nil {
		return nil, wrapError(KindInternal, "payment lookup by user failed", err)
	}
	return payments, nil
}
