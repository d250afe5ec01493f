package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"payflow/internal/dto"
	"payflow/internal/models"
	"payflow/internal/store"
)

// amountEpsilon absorbs float rounding when comparing money values
const amountEpsilon = 1e-9

// Refund drives the refund workflow for a payment.
//
// Refunds are only accepted while the payment is SUCCESS or PROCESSING, and
// the sum of succeeded refunds may never exceed the payment amount. On
// provider failure the payment is compensated back to its pre-refund status
// and the provider error surfaces to the caller. Unlike initiation, the
// caller must learn the refund did not happen.
func (s *PaymentService) Refund(ctx context.Context, req *dto.RefundRequest) error {
	unlock := s.keys.Lock("payment:" + req.PaymentID)
	defer unlock()

	payment, err := s.ledger.GetPayment(ctx, req.PaymentID)
	if errors.Is(err, store.ErrNotFound) {
		return newError(KindNotFound, "payment not found: "+req.PaymentID)
	}
	if err != nil {
		return wrapError(KindInternal, "payment lookup failed", err)
	}

	if !payment.Refundable() {
		return newError(KindInvalidState, fmt.Sprintf(
			"payment with status %s cannot be refunded, only SUCCESS or PROCESSING payments can", payment.Status))
	}

	if req.Amount > payment.Amount+amountEpsilon {
		return newError(KindInvalidArgument, fmt.Sprintf(
			"refund amount (%.2f) cannot exceed the payment amount (%.2f)", req.Amount, payment.Amount))
	}

	totalRefunded, err := s.ledger.SumSucceededRefunds(ctx, payment.ID)
	if err != nil {
		return wrapError(KindInternal, "refund total lookup failed", err)
	}
	remaining := payment.Amount - totalRefunded
	if req.Amount > remaining+amountEpsilon {
		return newError(KindInvalidArgument, fmt.Sprintf(
			"refund amount (%.2f) cannot exceed the remaining refundable amount (%.2f), already refunded: %.2f",
			req.Amount, remaining, totalRefunded))
	}

	// Compensation target: where the payment goes back to if the refund fails
	originalStatus := payment.Status

	refund := &models.Refund{
		PaymentID: payment.ID,
		Amount:    req.Amount,
		Status:    models.RefundStatusInitiated,
		Reason:    req.Reason,
	}
	txn := &models.PaymentTransaction{
		PaymentID:       payment.ID,
		TransactionType: models.TransactionTypeRefund,
		Amount:          req.Amount,
		Status:          models.TransactionStatusInitiated,
		Description:     "Refund: " + req.Reason,
	}

	err = s.ledger.Atomically(ctx, func(l store.Ledger) error {
		if err := l.CreateRefund(ctx, refund); err != nil {
			return err
		}
		if err := l.CreateTransaction(ctx, txn); err != nil {
			return err
		}
		payment.Status = models.PaymentStatusRefundInitiated
		return l.UpdatePayment(ctx, payment)
	})
	if err != nil {
		s.compensateRefund(ctx, payment, originalStatus, refund, txn)
		return wrapError(KindInternal, "refund setup failed", err)
	}
	s.logger.Info("created refund",
		zap.String("refund_id", refund.ID),
		zap.String("payment_id", payment.ID),
		zap.Float64("amount", req.Amount))

	gateway, err := s.registry.Get(payment.Provider)
	if err != nil {
		s.compensateRefund(ctx, payment, originalStatus, refund, txn)
		return wrapError(KindInternal, "provider registry lookup failed", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.providerTimeout)
	outcome, callErr := gateway.Refund(callCtx, payment, req.Reason)
	cancel()

	if callErr != nil || !outcome.Success {
		message := "provider refused the refund"
		if callErr != nil {
			message = callErr.Error()
		} else if outcome.Message != "" {
			message = outcome.Message
		}
		s.compensateRefund(ctx, payment, originalStatus, refund, txn)
		s.logger.Warn("refund failed, payment compensated to original status",
			zap.String("payment_id", payment.ID),
			zap.String("original_status", string(originalStatus)),
			zap.String("message", message))
		return newError(KindProvider, "refund failed: "+message)
	}

	err = s.ledger.Atomically(ctx, func(l store.Ledger) error {
		refund.Status = models.RefundStatusSuccess
		refund.ProviderRefundID = outcome.ProviderReferenceID
		txn.Status = models.TransactionStatusSuccess
		payment.Status = models.PaymentStatusRefunded
		if err := l.UpdateRefund(ctx, refund); err != nil {
			return err
		}
		if err := l.UpdateTransaction(ctx, txn); err != nil {
			return err
		}
		return l.UpdatePayment(ctx, payment)
	})
	if err != nil {
		s.compensateRefund(ctx, payment, originalStatus, refund, txn)
		return wrapError(KindInternal, "failed to record refund outcome", err)
	}

	s.refreshCachedStatus(ctx, payment)
	s.logger.Info("refund successful",
		zap.String("refund_id", refund.ID),
		zap.String("payment_id", payment.ID),
		zap.String("provider_refund_id", refund.ProviderRefundID))
	return nil
}

// compensateRefund reverts the payment to its pre-refund status and marks the
// refund and its transaction FAILED. Best effort: compensation failures are
// logged, never allowed to mask the original error.
func (s *PaymentService) compensateRefund(ctx context.Context, payment *models.Payment, originalStatus models.PaymentStatus, refund *models.Refund, txn *models.PaymentTransaction) {
	if refund.ID != "" {
		refund.Status = models.RefundStatusFailed
		if err := s.ledger.UpdateRefund(ctx, refund); err != nil {
			s.logger.Error("failed to mark refund FAILED", zap.String("refund_id", refund.ID), zap.Error(err))
		}
	}
	if txn.ID != "" {
		txn.Status = models.TransactionStatusFailed
		if err := s.ledger.UpdateTransaction(ctx, txn); err != nil {
			s.logger.Error("failed to mark refund transaction FAILED", zap.String("transaction_id", txn.ID), zap.Error(err))
		}
	}
	payment.Status = originalStatus
	if err := s.ledger.UpdatePayment(ctx, payment); err != nil {
		s.logger.Error("failed to revert payment status",
			zap.String("payment_id", payment.ID),
			zap.String("original_status", string(originalStatus)),
			zap.Error(err))
	}
	s.refreshCachedStatus(ctx, payment)
}

// Reconcile is the hook an external settlement collaborator calls to move a
// PROCESSING payment to its final SUCCESS or FAILED state. The raw provider
// notification is kept for audit.
func (s *PaymentService) Reconcile(ctx context.Context, paymentID string, success bool, metadata json.RawMessage) (*models.Payment, error) {
	unlock := s.keys.Lock("payment:" + paymentID)
	defer unlock()

	payment, err := s.ledger.GetPayment(ctx, paymentID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, newError(KindNotFound, "payment not found: "+paymentID)
	}
	if err != nil {
		return nil, wrapError(KindInternal, "payment lookup failed", err)
	}

	if payment.Status != models.PaymentStatusProcessing {
		return nil, newError(KindInvalidState, fmt.Sprintf(
			"payment with status %s cannot be reconciled, only PROCESSING payments can", payment.Status))
	}

	err = s.ledger.Atomically(ctx, func(l store.Ledger) error {
		cb := &models.ProviderCallback{
			PaymentID: payment.ID,
			Provider:  payment.Provider,
			Metadata:  metadata,
		}
		if err := l.CreateCallback(ctx, cb); err != nil {
			return err
		}
		if success {
			payment.Status = models.PaymentStatusSuccess
		} else {
			payment.Status = models.PaymentStatusFailed
		}
		return l.UpdatePayment(ctx, payment)
	})
	if err != nil {
		return nil, wrapError(KindInternal, "failed to record reconciliation", err)
	}

	s.refreshCachedStatus(ctx, payment)
	s.logger.Info("payment reconciled",
		zap.String("payment_id", payment.ID),
		zap.String("status", string(payment.Status)))
	return payment, nil
}
