package models

// PaymentStatus is the payment lifecycle state machine.
// CREATED is the entry state; SUCCESS, FAILED and REFUNDED are terminal for
// this engine. PROCESSING payments are settled asynchronously via the
// reconciliation callback.
type PaymentStatus string

const (
	PaymentStatusCreated         PaymentStatus = "CREATED"
	PaymentStatusInitiated       PaymentStatus = "INITIATED"
	PaymentStatusProcessing      PaymentStatus = "PROCESSING"
	PaymentStatusSuccess         PaymentStatus = "SUCCESS"
	PaymentStatusFailed          PaymentStatus = "FAILED"
	PaymentStatusRefundInitiated PaymentStatus = "REFUND_INITIATED"
	PaymentStatusRefunded        PaymentStatus = "REFUNDED"
)

// OrderType categorizes what the payment is for
type OrderType string

const (
	OrderTypeProduct      OrderType = "PRODUCT"
	OrderTypeSubscription OrderType = "SUBSCRIPTION"
	OrderTypeWallet       OrderType = "WALLET"
	OrderTypeP2P          OrderType = "P2P"
	OrderTypeBillPayment  OrderType = "BILL_PAYMENT"
	OrderTypeDonation     OrderType = "DONATION"
)

// RequiresBeneficiary reports whether this order type mandates beneficiary details
func (t OrderType) RequiresBeneficiary() bool {
	return t == OrderTypeP2P || t == OrderTypeBillPayment || t == OrderTypeDonation
}

// Valid reports whether t is a known order type
func (t OrderType) Valid() bool {
	switch t {
	case OrderTypeProduct, OrderTypeSubscription, OrderTypeWallet, OrderTypeP2P, OrderTypeBillPayment, OrderTypeDonation:
		return true
	}
	return false
}

// PaymentProvider identifies the external payment network
type PaymentProvider string

const (
	ProviderCard      PaymentProvider = "CARD"
	ProviderPhonePe   PaymentProvider = "PHONEPE"
	ProviderPaytm     PaymentProvider = "PAYTM"
	ProviderGooglePay PaymentProvider = "GOOGLEPAY"
)

// Valid reports whether p is a known provider
func (p PaymentProvider) Valid() bool {
	switch p {
	case ProviderCard, ProviderPhonePe, ProviderPaytm, ProviderGooglePay:
		return true
	}
	return false
}

// IsWallet reports whether p is one of the UPI wallet providers
func (p PaymentProvider) IsWallet() bool {
	return p == ProviderPhonePe || p == ProviderPaytm || p == ProviderGooglePay
}

// PaymentMethod is the instrument type used for the payment
type PaymentMethod string

const (
	MethodUPI        PaymentMethod = "UPI"
	MethodCard       PaymentMethod = "CARD"
	MethodNetBanking PaymentMethod = "NET_BANKING"
)

// Valid reports whether m is a known payment method
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodUPI, MethodCard, MethodNetBanking:
		return true
	}
	return false
}

// AttemptStatus tracks one provider-call cycle
type AttemptStatus string

const (
	AttemptStatusInitiated AttemptStatus = "INITIATED"
	AttemptStatusSuccess   AttemptStatus = "SUCCESS"
	AttemptStatusFailed    AttemptStatus = "FAILED"
)

// TransactionType is the direction of a ledger movement
type TransactionType string

const (
	TransactionTypeDebit  TransactionType = "DEBIT"
	TransactionTypeCredit TransactionType = "CREDIT"
	TransactionTypeRefund TransactionType = "REFUND"
)

// TransactionStatus tracks a ledger movement's outcome
type TransactionStatus string

const (
	TransactionStatusInitiated TransactionStatus = "INITIATED"
	TransactionStatusSuccess   TransactionStatus = "SUCCESS"
	TransactionStatusFailed    TransactionStatus = "FAILED"
)

// RefundStatus tracks a refund request's outcome
type RefundStatus string

const (
	RefundStatusInitiated RefundStatus = "INITIATED"
	RefundStatusSuccess   RefundStatus = "SUCCESS"
	RefundStatusFailed    RefundStatus = "FAILED"
)
