package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"payflow/internal/dto"
	"payflow/internal/models"
)

// FieldError is one field-level violation found while validating a request
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Join renders a violation list the way error responses expect it
func Join(errs []FieldError) string {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.Error()
	}
	return strings.Join(parts, ", ")
}

var (
	currencyPattern   = regexp.MustCompile(`^[A-Z]{3}$`)
	digitsPattern     = regexp.MustCompile(`^[0-9]+$`)
	holderNamePattern = regexp.MustCompile(`^[a-zA-Z\s]+$`)
	expiryPattern     = regexp.MustCompile(`^(0[1-9]|1[0-2])/([0-9]{2})$`)
	phonePattern      = regexp.MustCompile(`^[6-9][0-9]{9}$`)
	vpaPattern        = regexp.MustCompile(`^[a-zA-Z0-9._-]+@[a-zA-Z0-9.-]+$`)
	vpaHandlePattern  = regexp.MustCompile(`^[a-zA-Z0-9.-]+$`)
)

// Known UPI handles; anything else falls back to the generic handle pattern
var knownVPAHandles = []string{
	"paytm", "ybl", "okaxis", "okhdfcbank", "okicici", "oksbi",
	"payu", "airtel", "phonepe", "gpay", "amazonpay", "upi",
	"axl", "ibl", "yesbank", "kvb", "payzapp", "rbl", "sbi", "unionbank",
}

// ValidateInitiate runs the full decision table over an initiation request
// and returns every violation found. An empty slice means the request may be
// handed to the orchestrator.
func ValidateInitiate(req *dto.InitiatePaymentRequest) []FieldError {
	var errs []FieldError
	add := func(field, message string) {
		errs = append(errs, FieldError{Field: field, Message: message})
	}

	if req.UserID == "" || len(req.UserID) > 100 {
		add("userId", "user ID is required and must be between 1 and 100 characters")
	}
	if req.OrderID == "" || len(req.OrderID) > 100 {
		add("orderId", "order ID is required and must be between 1 and 100 characters")
	}
	if !req.OrderType.Valid() {
		add("orderType", "order type must be one of PRODUCT, SUBSCRIPTION, WALLET, P2P, BILL_PAYMENT, DONATION")
	}
	if req.Amount < 0.01 {
		add("amount", "amount must be at least 0.01")
	}
	if !currencyPattern.MatchString(req.Currency) {
		add("currency", "currency must be a valid 3-letter uppercase ISO code")
	}
	if !req.Provider.Valid() {
		add("provider", "provider must be one of CARD, PHONEPE, PAYTM, GOOGLEPAY")
	}
	if !req.PaymentMethod.Valid() {
		add("paymentMethod", "payment method must be one of UPI, CARD, NET_BANKING")
	}
	if req.IdempotencyKey == "" || len(req.IdempotencyKey) > 255 {
		add("idempotencyKey", "idempotency key is required and must be between 1 and 255 characters")
	}

	errs = append(errs, validateCompatibility(req)...)
	errs = append(errs, validateInstruments(req)...)

	if req.OrderType.RequiresBeneficiary() && req.BeneficiaryDetails == nil {
		add("beneficiaryDetails", fmt.Sprintf("beneficiary details are required when order type is %s", req.OrderType))
	}
	if req.BeneficiaryDetails != nil && req.BeneficiaryDetails.BeneficiaryID == "" {
		add("beneficiaryDetails.beneficiaryId", "beneficiary ID is required")
	}

	return errs
}

// validateCompatibility enforces the provider/payment-method pairing rules
func validateCompatibility(req *dto.InitiatePaymentRequest) []FieldError {
	switch {
	case req.Provider == models.ProviderCard && req.PaymentMethod.Valid() && req.PaymentMethod != models.MethodCard:
		return []FieldError{{Field: "paymentMethod", Message: "payment method must be CARD when provider is CARD"}}
	case req.Provider.IsWallet() && req.PaymentMethod.Valid() && req.PaymentMethod != models.MethodUPI:
		return []FieldError{{Field: "paymentMethod", Message: fmt.Sprintf("payment method must be UPI when provider is %s", req.Provider)}}
	}
	return nil
}

// validateInstruments checks that exactly the instrument payload matching the
// payment method is present, and that its fields are well formed
func validateInstruments(req *dto.InitiatePaymentRequest) []FieldError {
	var errs []FieldError
	add := func(field, message string) {
		errs = append(errs, FieldError{Field: field, Message: message})
	}

	switch req.PaymentMethod {
	case models.MethodCard:
		if req.CardDetails == nil {
			add("cardDetails", "card details are required when payment method is CARD")
		} else {
			errs = append(errs, validateCard(req.CardDetails)...)
		}
		if req.UPIDetails != nil {
			add("upiDetails", "UPI details should not be provided when payment method is CARD")
		}
		if req.NetBankingDetails != nil {
			add("netBankingDetails", "net banking details should not be provided when payment method is CARD")
		}

	case models.MethodUPI:
		if req.UPIDetails == nil {
			add("upiDetails", "UPI details are required when payment method is UPI")
		} else {
			errs = append(errs, validateUPI(req.UPIDetails)...)
		}
		if req.CardDetails != nil {
			add("cardDetails", "card details should not be provided when payment method is UPI")
		}
		if req.NetBankingDetails != nil {
			add("netBankingDetails", "net banking details should not be provided when payment method is UPI")
		}

	case models.MethodNetBanking:
		if req.NetBankingDetails == nil {
			add("netBankingDetails", "net banking details are required when payment method is NET_BANKING")
		} else if req.NetBankingDetails.BankCode == "" || len(req.NetBankingDetails.BankCode) < 2 || len(req.NetBankingDetails.BankCode) > 50 {
			add("netBankingDetails.bankCode", "bank code is required and must be between 2 and 50 characters")
		}
		if req.CardDetails != nil || req.UPIDetails != nil {
			add("paymentMethod", "card/UPI details should not be provided when payment method is NET_BANKING")
		}
	}

	return errs
}

func validateCard(card *dto.CardDetails) []FieldError {
	var errs []FieldError
	add := func(field, message string) {
		errs = append(errs, FieldError{Field: field, Message: message})
	}

	cleaned := strings.NewReplacer(" ", "", "-", "").Replace(card.CardNumber)
	switch {
	case cleaned == "":
		add("cardDetails.cardNumber", "card number is required for card payments")
	case !digitsPattern.MatchString(cleaned):
		add("cardDetails.cardNumber", "card number must contain only digits")
	case len(cleaned) < 13 || len(cleaned) > 19:
		add("cardDetails.cardNumber", "card number must be between 13 and 19 digits")
	case !LuhnValid(cleaned):
		add("cardDetails.cardNumber", "card number is invalid (failed Luhn check)")
	}

	if len(card.CardholderName) < 2 || len(card.CardholderName) > 100 || !holderNamePattern.MatchString(card.CardholderName) {
		add("cardDetails.cardholderName", "cardholder name must be 2-100 letters and spaces")
	}

	if !expiryPattern.MatchString(card.ExpiryDate) {
		add("cardDetails.expiryDate", "expiry date must be in MM/YY format")
	} else if !ExpiryInFuture(card.ExpiryDate, time.Now()) {
		add("cardDetails.expiryDate", "card expiry date has passed")
	}

	if len(card.CVV) < 3 || len(card.CVV) > 4 || !digitsPattern.MatchString(card.CVV) {
		add("cardDetails.cvv", "CVV must be 3 or 4 digits")
	}

	return errs
}

func validateUPI(upi *dto.UPIDetails) []FieldError {
	var errs []FieldError
	if !VPAValid(upi.UPIID) {
		errs = append(errs, FieldError{
			Field:   "upiDetails.upiId",
			Message: "invalid UPI ID format, expected local@handle (e.g. user@paytm)",
		})
	}
	if upi.PhoneNumber != "" && !phonePattern.MatchString(upi.PhoneNumber) {
		errs = append(errs, FieldError{
			Field:   "upiDetails.phoneNumber",
			Message: "phone number must be a valid 10-digit Indian mobile number",
		})
	}
	return errs
}

// LuhnValid implements the Luhn mod-10 check over a digit string. From the
// rightmost digit every second digit is doubled, summing the digits of
// doubled values above 9; valid iff the total is divisible by 10.
func LuhnValid(number string) bool {
	if number == "" || !digitsPattern.MatchString(number) {
		return false
	}
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		digit := int(number[i] - '0')
		if double {
			digit *= 2
			if digit > 9 {
				digit = digit%10 + 1
			}
		}
		sum += digit
		double = !double
	}
	return sum%10 == 0
}

// VPAValid checks a Virtual Payment Address: exactly one @, a 1-255 char
// local part, and a handle that is either on the known list or matches the
// generic 2-63 char alphanumeric/dot/hyphen pattern.
func VPAValid(vpa string) bool {
	if !vpaPattern.MatchString(vpa) {
		return false
	}
	if strings.Count(vpa, "@") != 1 {
		return false
	}
	at := strings.Index(vpa, "@")
	local, handle := vpa[:at], strings.ToLower(vpa[at+1:])
	if len(local) < 1 || len(local) > 255 {
		return false
	}
	for _, known := range knownVPAHandles {
		if handle == known || strings.HasSuffix(handle, "."+known) {
			return true
		}
	}
	return vpaHandlePattern.MatchString(handle) && len(handle) >= 2 && len(handle) <= 63
}

// ExpiryInFuture reports whether an MM/YY expiry is the current month or
// later. Cards stay valid through the end of their expiry month. The
// two-digit year always means 20YY, so "12/99" is December 2099.
func ExpiryInFuture(expiry string, now time.Time) bool {
	m := expiryPattern.FindStringSubmatch(expiry)
	if m == nil {
		return false
	}
	month, _ := strconv.Atoi(m[1])
	year, _ := strconv.Atoi(m[2])
	endOfMonth := time.Date(2000+year, time.Month(month)+1, 1, 0, 0, 0, 0, time.UTC)
	return now.Before(endOfMonth)
}

// ValidateRefund checks the refund request's own fields; state-dependent
// rules (refundable status, remaining balance) live in the refund workflow.
func ValidateRefund(req *dto.RefundRequest) []FieldError {
	var errs []FieldError
	if req.PaymentID == "" {
		errs = append(errs, FieldError{Field: "paymentId", Message: "payment ID is required"})
	}
	if req.Amount < 0.01 {
		errs = append(errs, FieldError{Field: "amount", Message: "refund amount must be at least 0.01"})
	}
	if len(req.Reason) < 5 || len(req.Reason) > 500 {
		errs = append(errs, FieldError{Field: "reason", Message: "refund reason must be between 5 and 500 characters"})
	}
	return errs
}
