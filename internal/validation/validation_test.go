package validation

import (
	"strings"
	"testing"
	"time"

	"payflow/internal/dto"
	"payflow/internal/models"
)

func TestLuhnValid(t *testing.T) {
	tests := []struct {
		name   string
		number string
		want   bool
	}{
		{"visa test number", "4111111111111111", true},
		{"off by one digit", "4111111111111112", false},
		{"amex test number", "378282246310005", true},
		{"non-digit input", "4111-1111-1111-1111", false},
		{"letters", "abcdefghijklmnop", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LuhnValid(tt.number); got != tt.want {
				t.Errorf("LuhnValid(%q) = %v; want %v", tt.number, got, tt.want)
			}
		})
	}
}

func TestVPAValid(t *testing.T) {
	tests := []struct {
		name string
		vpa  string
		want bool
	}{
		{"known handle", "user@paytm", true},
		{"phone local part", "9876543210@ybl", true},
		{"generic handle", "alice@somebank", true},
		{"double at", "user@@paytm", false},
		{"no at", "user", false},
		{"empty local part", "@paytm", false},
		{"one char handle", "user@x", false},
		{"handle with dot suffix", "user@ok.paytm", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VPAValid(tt.vpa); got != tt.want {
				t.Errorf("VPAValid(%q) = %v; want %v", tt.vpa, got, tt.want)
			}
		})
	}
}

func TestExpiryInFuture(t *testing.T) {
	now := time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		expiry string
		want   bool
	}{
		{"future year", "12/27", true},
		{"late century year is 20YY", "12/99", true},
		{"current month still valid", "06/26", true},
		{"previous month", "05/26", false},
		{"past year", "12/24", false},
		{"bad format", "13/26", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExpiryInFuture(tt.expiry, now); got != tt.want {
				t.Errorf("ExpiryInFuture(%q) = %v; want %v", tt.expiry, got, tt.want)
			}
		})
	}
}

func validCardRequest() *dto.InitiatePaymentRequest {
	return &dto.InitiatePaymentRequest{
		UserID:         "u1",
		OrderID:        "o1",
		OrderType:      models.OrderTypeProduct,
		Amount:         250.00,
		Currency:       "INR",
		Provider:       models.ProviderCard,
		PaymentMethod:  models.MethodCard,
		IdempotencyKey: "k1",
		CardDetails: &dto.CardDetails{
			CardNumber:     "4111111111111111",
			CardholderName: "Test User",
			ExpiryDate:     "12/99",
			CVV:            "123",
		},
	}
}

func validUPIRequest() *dto.InitiatePaymentRequest {
	return &dto.InitiatePaymentRequest{
		UserID:         "u1",
		OrderID:        "o1",
		OrderType:      models.OrderTypeProduct,
		Amount:         100.00,
		Currency:       "INR",
		Provider:       models.ProviderPaytm,
		PaymentMethod:  models.MethodUPI,
		IdempotencyKey: "k2",
		UPIDetails:     &dto.UPIDetails{UPIID: "user@paytm"},
	}
}

func hasViolation(errs []FieldError, field string) bool {
	for _, e := range errs {
		if e.Field == field {
			return true
		}
	}
	return false
}

func TestValidateInitiate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*dto.InitiatePaymentRequest)
		wantField string // empty means the request must be valid
	}{
		{"valid card request", func(r *dto.InitiatePaymentRequest) {}, ""},
		{"missing user", func(r *dto.InitiatePaymentRequest) { r.UserID = "" }, "userId"},
		{"zero amount", func(r *dto.InitiatePaymentRequest) { r.Amount = 0 }, "amount"},
		{"lowercase currency", func(r *dto.InitiatePaymentRequest) { r.Currency = "inr" }, "currency"},
		{"missing idempotency key", func(r *dto.InitiatePaymentRequest) { r.IdempotencyKey = "" }, "idempotencyKey"},
		{"card provider with UPI method", func(r *dto.InitiatePaymentRequest) { r.PaymentMethod = models.MethodUPI }, "paymentMethod"},
		{"card method without card details", func(r *dto.InitiatePaymentRequest) { r.CardDetails = nil }, "cardDetails"},
		{"failed luhn", func(r *dto.InitiatePaymentRequest) { r.CardDetails.CardNumber = "4111111111111112" }, "cardDetails.cardNumber"},
		{"expired card", func(r *dto.InitiatePaymentRequest) { r.CardDetails.ExpiryDate = "01/20" }, "cardDetails.expiryDate"},
		{"bad cvv", func(r *dto.InitiatePaymentRequest) { r.CardDetails.CVV = "12" }, "cardDetails.cvv"},
		{
			"two instrument payloads",
			func(r *dto.InitiatePaymentRequest) { r.UPIDetails = &dto.UPIDetails{UPIID: "user@paytm"} },
			"upiDetails",
		},
		{
			"p2p without beneficiary",
			func(r *dto.InitiatePaymentRequest) { r.OrderType = models.OrderTypeP2P },
			"beneficiaryDetails",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCardRequest()
			tt.mutate(req)
			errs := ValidateInitiate(req)
			if tt.wantField == "" {
				if len(errs) != 0 {
					t.Fatalf("expected no violations, got %v", errs)
				}
				return
			}
			if !hasViolation(errs, tt.wantField) {
				t.Errorf("expected violation on %q, got %v", tt.wantField, errs)
			}
		})
	}
}

func TestValidateInitiateUPI(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*dto.InitiatePaymentRequest)
		wantField string
	}{
		{"valid upi request", func(r *dto.InitiatePaymentRequest) {}, ""},
		{"wallet provider with card method", func(r *dto.InitiatePaymentRequest) {
			r.PaymentMethod = models.MethodCard
			r.UPIDetails = nil
			r.CardDetails = validCardRequest().CardDetails
		}, "paymentMethod"},
		{"bad vpa", func(r *dto.InitiatePaymentRequest) { r.UPIDetails.UPIID = "user@@paytm" }, "upiDetails.upiId"},
		{"bad phone", func(r *dto.InitiatePaymentRequest) { r.UPIDetails.PhoneNumber = "12345" }, "upiDetails.phoneNumber"},
		{"missing upi details", func(r *dto.InitiatePaymentRequest) { r.UPIDetails = nil }, "upiDetails"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validUPIRequest()
			tt.mutate(req)
			errs := ValidateInitiate(req)
			if tt.wantField == "" {
				if len(errs) != 0 {
					t.Fatalf("expected no violations, got %v", errs)
				}
				return
			}
			if !hasViolation(errs, tt.wantField) {
				t.Errorf("expected violation on %q, got %v", tt.wantField, errs)
			}
		})
	}
}

func TestValidateInitiateNetBanking(t *testing.T) {
	req := &dto.InitiatePaymentRequest{
		UserID:            "u1",
		OrderID:           "o1",
		OrderType:         models.OrderTypeBillPayment,
		Amount:            500,
		Currency:          "INR",
		Provider:          models.ProviderPaytm,
		PaymentMethod:     models.MethodNetBanking,
		IdempotencyKey:    "k3",
		NetBankingDetails: &dto.NetBankingDetails{BankCode: "HDFC"},
		BeneficiaryDetails: &dto.BeneficiaryDetails{
			BeneficiaryID: "electricity-board",
		},
	}

	// NET_BANKING bypasses the wallet/UPI pairing but still needs a bank code
	errs := ValidateInitiate(req)
	if hasViolation(errs, "netBankingDetails.bankCode") {
		t.Errorf("unexpected bank code violation: %v", errs)
	}

	req.NetBankingDetails.BankCode = "X"
	if errs := ValidateInitiate(req); !hasViolation(errs, "netBankingDetails.bankCode") {
		t.Errorf("expected bank code violation, got %v", errs)
	}
}

func TestValidateRefund(t *testing.T) {
	ok := &dto.RefundRequest{PaymentID: "p1", Amount: 10, Reason: "customer request"}
	if errs := ValidateRefund(ok); len(errs) != 0 {
		t.Fatalf("expected no violations, got %v", errs)
	}

	bad := &dto.RefundRequest{PaymentID: "", Amount: 0, Reason: "why"}
	errs := ValidateRefund(bad)
	for _, field := range []string{"paymentId", "amount", "reason"} {
		if !hasViolation(errs, field) {
			t.Errorf("expected violation on %q, got %v", field, errs)
		}
	}
}

func TestJoin(t *testing.T) {
	errs := []FieldError{
		{Field: "amount", Message: "must be positive"},
		{Field: "currency", Message: "must be 3 letters"},
	}
	joined := Join(errs)
	if !strings.Contains(joined, "amount: must be positive") || !strings.Contains(joined, ", currency:") {
		t.Errorf("unexpected join output: %q", joined)
	}
}
