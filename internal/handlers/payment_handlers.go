package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"payflow/internal/dto"
	"payflow/internal/services"
	"payflow/internal/validation"
)

type PaymentHandler struct {
	payments *services.PaymentService
	logger   *zap.Logger
}

func NewPaymentHandler(payments *services.PaymentService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{payments: payments, logger: logger}
}

// InitiatePayment handles POST /payments/initiate. Replays of an idempotency
// key answer 200 with the original result; a fresh payment answers 201.
func (h *PaymentHandler) InitiatePayment(c echo.Context) error {
	var req dto.InitiatePaymentRequest
	if err := c.Bind(&req); err != nil {
		return &services.Error{Kind: services.KindValidation, Message: "invalid JSON payload"}
	}

	if violations := validation.ValidateInitiate(&req); len(violations) > 0 {
		return &services.Error{Kind: services.KindValidation, Message: validation.Join(violations)}
	}

	h.logger.Info("initiate payment request",
		zap.String("user_id", req.UserID),
		zap.String("order_id", req.OrderID),
		zap.String("idempotency_key", req.IdempotencyKey))

	result, err := h.payments.Initiate(c.Request().Context(), &req)
	if err != nil {
		return err
	}

	code := http.StatusCreated
	if result.Existing {
		code = http.StatusOK
	}
	return c.JSON(code, dto.InitiatePaymentResponse{PaymentID: result.PaymentID, Status: result.Status})
}

// RefundPayment handles POST /payments/refund
func (h *PaymentHandler) RefundPayment(c echo.Context) error {
	var req dto.RefundRequest
	if err := c.Bind(&req); err != nil {
		return &services.Error{Kind: services.KindValidation, Message: "invalid JSON payload"}
	}

	if violations := validation.ValidateRefund(&req); len(violations) > 0 {
		return &services.Error{Kind: services.KindValidation, Message: validation.Join(violations)}
	}

	h.logger.Info("refund payment request",
		zap.String("payment_id", req.PaymentID),
		zap.Float64("amount", req.Amount))

	if err := h.payments.Refund(c.Request().Context(), &req); err != nil {
		return err
	}
	return c.NoContent(http.StatusOK)
}

// GetPayment handles GET /payments/:id
func (h *PaymentHandler) GetPayment(c echo.Context) error {
	payment, err := h.payments.GetPayment(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, payment)
}

// ListPayments handles GET /payments?orderId= or ?userId=
func (h *PaymentHandler) ListPayments(c echo.Context) error {
	ctx := c.Request().Context()
	if orderID := c.QueryParam("orderId"); orderID != "" {
		payments, err := h.payments.FindPaymentsByOrderID(ctx, orderID)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, payments)
	}
	if userID := c.QueryParam("userId"); userID != "" {
		payments, err := h.payments.FindPaymentsByUserID(ctx, userID)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, payments)
	}
	return &services.Error{Kind: services.KindValidation, Message: "orderId or userId query parameter is required"}
}

// providerCallbackRequest is the minimal notification shape the
// reconciliation hook accepts from an external settlement collaborator.
type providerCallbackRequest struct {
	Success  bool            `json:"success"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// ProviderCallback handles POST /payments/:id/callback, the reconciliation
// hook that settles a PROCESSING payment.
func (h *PaymentHandler) ProviderCallback(c echo.Context) error {
	var req providerCallbackRequest
	if err := c.Bind(&req); err != nil {
		return &services.Error{Kind: services.KindValidation, Message: "invalid JSON payload"}
	}

	payment, err := h.payments.Reconcile(c.Request().Context(), c.Param("id"), req.Success, req.Metadata)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.InitiatePaymentResponse{PaymentID: payment.ID, Status: payment.Status})
}
