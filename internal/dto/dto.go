package dto

import (
	"strings"
	"time"

	"payflow/internal/models"
)

// InitiatePaymentRequest is the payload for POST /payments/initiate.
// Exactly one of CardDetails, UPIDetails or NetBankingDetails may be present,
// matching the chosen payment method.
type InitiatePaymentRequest struct {
	UserID         string                 `json:"userId"`
	OrderID        string                 `json:"orderId"`
	OrderType      models.OrderType       `json:"orderType"`
	Amount         float64                `json:"amount"`
	Currency       string                 `json:"currency"`
	Provider       models.PaymentProvider `json:"provider"`
	PaymentMethod  models.PaymentMethod   `json:"paymentMethod"`
	IdempotencyKey string                 `json:"idempotencyKey"`

	CardDetails        *CardDetails        `json:"cardDetails,omitempty"`
	UPIDetails         *UPIDetails         `json:"upiDetails,omitempty"`
	NetBankingDetails  *NetBankingDetails  `json:"netBankingDetails,omitempty"`
	BeneficiaryDetails *BeneficiaryDetails `json:"beneficiaryDetails,omitempty"`
}

// InitiatePaymentResponse is returned for both new and replayed initiations
type InitiatePaymentResponse struct {
	PaymentID string               `json:"paymentId"`
	Status    models.PaymentStatus `json:"status"`
}

// RefundRequest is the payload for POST /payments/refund
type RefundRequest struct {
	PaymentID string  `json:"paymentId"`
	Amount    float64 `json:"amount"`
	Reason    string  `json:"reason"`
}

// ErrorDetails is the uniform error envelope for every failure response
type ErrorDetails struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Path      string    `json:"path"`
}

// CardDetails carries raw card data on the wire. It must never be persisted
// as-is; use Masked before writing any snapshot.
type CardDetails struct {
	CardNumber     string `json:"cardNumber"`
	CardholderName string `json:"cardholderName"`
	ExpiryDate     string `json:"expiryDate"` // MM/YY
	CVV            string `json:"cvv"`
}

// MaskedCardNumber returns the card number with only the last 4 digits visible
func (c *CardDetails) MaskedCardNumber() string {
	cleaned := strings.NewReplacer(" ", "", "-", "").Replace(c.CardNumber)
	if len(cleaned) < 4 {
		return "****"
	}
	return "****-****-****-" + cleaned[len(cleaned)-4:]
}

// Masked returns a copy safe for snapshot storage and logging
func (c *CardDetails) Masked() *CardDetails {
	return &CardDetails{
		CardNumber:     c.MaskedCardNumber(),
		CardholderName: c.CardholderName,
		ExpiryDate:     "**/**",
		CVV:            "***",
	}
}

// UPIDetails carries the VPA for UPI payments
type UPIDetails struct {
	UPIID       string `json:"upiId"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

// MaskedUPIID hides most of the handle, e.g. user@paytm -> user@pa***tm
func (u *UPIDetails) MaskedUPIID() string {
	at := strings.Index(u.UPIID, "@")
	if at <= 0 || at >= len(u.UPIID)-1 {
		return "***@***"
	}
	local, handle := u.UPIID[:at], u.UPIID[at+1:]
	if len(handle) <= 4 {
		return local + "@****"
	}
	return local + "@" + handle[:2] + "***" + handle[len(handle)-2:]
}

// Masked returns a copy safe for snapshot storage and logging
func (u *UPIDetails) Masked() *UPIDetails {
	masked := &UPIDetails{UPIID: u.MaskedUPIID()}
	if n := len(u.PhoneNumber); n >= 4 {
		masked.PhoneNumber = "******" + u.PhoneNumber[n-4:]
	} else if n > 0 {
		masked.PhoneNumber = "******"
	}
	return masked
}

// NetBankingDetails carries bank selection for NET_BANKING payments
type NetBankingDetails struct {
	BankCode   string `json:"bankCode"`
	BankName   string `json:"bankName,omitempty"`
	CustomerID string `json:"customerId,omitempty"`
}

// Masked returns a copy with the customer id redacted to its last 4 characters
func (n *NetBankingDetails) Masked() *NetBankingDetails {
	masked := &NetBankingDetails{BankCode: n.BankCode, BankName: n.BankName}
	if len(n.CustomerID) >= 4 {
		masked.CustomerID = "****" + n.CustomerID[len(n.CustomerID)-4:]
	} else if n.CustomerID != "" {
		masked.CustomerID = "****"
	}
	return masked
}

// BeneficiaryDetails identifies the payment recipient. Required for P2P,
// BILL_PAYMENT and DONATION orders.
type BeneficiaryDetails struct {
	BeneficiaryID      string `json:"beneficiaryId"`
	BeneficiaryName    string `json:"beneficiaryName,omitempty"`
	BeneficiaryType    string `json:"beneficiaryType,omitempty"`
	BeneficiaryAccount string `json:"beneficiaryAccount,omitempty"`
}

// MaskedAccount hides the beneficiary account for snapshots
func (b *BeneficiaryDetails) MaskedAccount() string {
	acct := b.BeneficiaryAccount
	if len(acct) < 4 {
		return "****"
	}
	if at := strings.Index(acct, "@"); at > 0 {
		local := acct[:min(at, 2)]
		return local + "***@" + acct[at+1:]
	}
	return "****" + acct[len(acct)-4:]
}
