package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"payflow/internal/dto"
	"payflow/internal/middleware"
	"payflow/internal/models"
	"payflow/internal/providers"
	"payflow/internal/services"
	"payflow/internal/store"
)

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	logger := zap.NewNop()
	ledger := store.NewMemoryLedger()
	registry := providers.NewRegistry(
		providers.NewCardGateway(logger),
		providers.NewPaytmGateway(logger),
	)
	svc := services.NewPaymentService(ledger, registry, nil, logger)
	h := NewPaymentHandler(svc, logger)

	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler(logger)
	e.POST("/payments/initiate", h.InitiatePayment)
	e.POST("/payments/refund", h.RefundPayment)
	e.GET("/payments", h.ListPayments)
	e.GET("/payments/:id", h.GetPayment)
	e.POST("/payments/:id/callback", h.ProviderCallback)
	return e
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

const initiateBody = `{
	"userId": "u1",
	"orderId": "o1",
	"orderType": "PRODUCT",
	"amount": 250.00,
	"currency": "INR",
	"provider": "CARD",
	"paymentMethod": "CARD",
	"idempotencyKey": "key-1",
	"cardDetails": {
		"cardNumber": "4111111111111111",
		"cardholderName": "Test User",
		"expiryDate": "12/99",
		"cvv": "123"
	}
}`

func TestInitiatePaymentEndpoint(t *testing.T) {
	e := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/payments/initiate", initiateBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d; want 201, body: %s", rec.Code, rec.Body.String())
	}

	var resp dto.InitiatePaymentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.PaymentID == "" {
		t.Error("response is missing paymentId")
	}
	if resp.Status != models.PaymentStatusProcessing {
		t.Errorf("status = %s; want PROCESSING", resp.Status)
	}

	// Replaying the same idempotency key answers 200 with the same payment
	replay := doJSON(e, http.MethodPost, "/payments/initiate", initiateBody)
	if replay.Code != http.StatusOK {
		t.Fatalf("replay status = %d; want 200", replay.Code)
	}
	var replayResp dto.InitiatePaymentResponse
	if err := json.Unmarshal(replay.Body.Bytes(), &replayResp); err != nil {
		t.Fatal(err)
	}
	if replayResp.PaymentID != resp.PaymentID {
		t.Errorf("replay paymentId = %s; want %s", replayResp.PaymentID, resp.PaymentID)
	}
}

func TestInitiatePaymentValidationEnvelope(t *testing.T) {
	e := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/payments/initiate", `{"userId": "u1"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d; want 400", rec.Code)
	}

	var details dto.ErrorDetails
	if err := json.Unmarshal(rec.Body.Bytes(), &details); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if details.Status != http.StatusBadRequest || details.Error != "BAD_REQUEST" {
		t.Errorf("envelope = (%d, %s); want (400, BAD_REQUEST)", details.Status, details.Error)
	}
	if details.Path != "/payments/initiate" {
		t.Errorf("path = %s; want /payments/initiate", details.Path)
	}
	if details.Message == "" || details.Timestamp.IsZero() {
		t.Error("envelope is missing message or timestamp")
	}
}

func TestInitiatePaymentMalformedJSON(t *testing.T) {
	e := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/payments/initiate", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d; want 400", rec.Code)
	}
}

func TestGetPaymentEndpoint(t *testing.T) {
	e := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/payments/initiate", initiateBody)
	var created dto.InitiatePaymentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}

	get := doJSON(e, http.MethodGet, "/payments/"+created.PaymentID, "")
	if get.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", get.Code)
	}
	var payment models.Payment
	if err := json.Unmarshal(get.Body.Bytes(), &payment); err != nil {
		t.Fatal(err)
	}
	if payment.ID != created.PaymentID || payment.Amount != 250.00 {
		t.Errorf("payment = (%s, %v); want (%s, 250.00)", payment.ID, payment.Amount, created.PaymentID)
	}

	missing := doJSON(e, http.MethodGet, "/payments/no-such-id", "")
	if missing.Code != http.StatusNotFound {
		t.Errorf("missing payment status = %d; want 404", missing.Code)
	}
}

func TestListPaymentsEndpoint(t *testing.T) {
	e := newTestServer(t)
	doJSON(e, http.MethodPost, "/payments/initiate", initiateBody)

	byOrder := doJSON(e, http.MethodGet, "/payments?orderId=o1", "")
	if byOrder.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", byOrder.Code)
	}
	var payments []models.Payment
	if err := json.Unmarshal(byOrder.Body.Bytes(), &payments); err != nil {
		t.Fatal(err)
	}
	if len(payments) != 1 {
		t.Errorf("payments = %d; want 1", len(payments))
	}

	noFilter := doJSON(e, http.MethodGet, "/payments", "")
	if noFilter.Code != http.StatusBadRequest {
		t.Errorf("unfiltered list status = %d; want 400", noFilter.Code)
	}
}

func TestRefundEndpoint(t *testing.T) {
	e := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/payments/initiate", initiateBody)
	var created dto.InitiatePaymentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}

	refund := doJSON(e, http.MethodPost, "/payments/refund",
		`{"paymentId": "`+created.PaymentID+`", "amount": 250.00, "reason": "customer request"}`)
	if refund.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200, body: %s", refund.Code, refund.Body.String())
	}

	// A second full refund finds the payment REFUNDED: a state conflict
	again := doJSON(e, http.MethodPost, "/payments/refund",
		`{"paymentId": "`+created.PaymentID+`", "amount": 250.00, "reason": "customer request"}`)
	if again.Code != http.StatusConflict {
		t.Errorf("repeat refund status = %d; want 409", again.Code)
	}
	var details dto.ErrorDetails
	if err := json.Unmarshal(again.Body.Bytes(), &details); err != nil {
		t.Fatal(err)
	}
	if details.Error != "CONFLICT" {
		t.Errorf("envelope error = %s; want CONFLICT", details.Error)
	}
}

func TestProviderCallbackEndpoint(t *testing.T) {
	e := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/payments/initiate", initiateBody)
	var created dto.InitiatePaymentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}

	cb := doJSON(e, http.MethodPost, "/payments/"+created.PaymentID+"/callback",
		`{"success": true, "metadata": {"settlementRef": "abc"}}`)
	if cb.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200, body: %s", cb.Code, cb.Body.String())
	}
	var resp dto.InitiatePaymentResponse
	if err := json.Unmarshal(cb.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != models.PaymentStatusSuccess {
		t.Errorf("status = %s; want SUCCESS", resp.Status)
	}

	// Reconciling a settled payment is rejected
	repeat := doJSON(e, http.MethodPost, "/payments/"+created.PaymentID+"/callback", `{"success": false}`)
	if repeat.Code != http.StatusConflict {
		t.Errorf("repeat callback status = %d; want 409", repeat.Code)
	}
}
