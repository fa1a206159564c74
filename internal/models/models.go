// Package models defines the core data types shared across the order
// verification pipeline: the extracted field record, the accumulated
// validation outcome, and the persisted order entity.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus represents the lifecycle state of a persisted order.
type OrderStatus string

const (
	StatusPending         OrderStatus = "pending"
	StatusBankProcessing  OrderStatus = "bank_processing"
	StatusCreated         OrderStatus = "created"
	StatusSubmitted       OrderStatus = "submitted"
	StatusCompleted       OrderStatus = "completed"
	StatusRefundPending   OrderStatus = "refund_pending"
	StatusRefunded        OrderStatus = "refunded"
	StatusCancelled       OrderStatus = "cancelled"
	StatusCredited        OrderStatus = "credited"
	StatusPendingApproval OrderStatus = "pending_approval"
	StatusApproved        OrderStatus = "approved"
	StatusRejected        OrderStatus = "rejected"
)

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid checks if the order status is a known lifecycle state
func (s OrderStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusBankProcessing, StatusCreated, StatusSubmitted,
		StatusCompleted, StatusRefundPending, StatusRefunded, StatusCancelled,
		StatusCredited, StatusPendingApproval, StatusApproved, StatusRejected:
		return true
	default:
		return false
	}
}

// OrderFields is the closed record of fields extracted from one inbound
// order message. A field holds either a cleaned value or the empty string
// when the label was absent from the message; extraction never produces a
// partially cleaned value. Instances are created once per message by the
// extractor and treated as immutable afterward.
type OrderFields struct {
	OrderRef           string `json:"order_ref"`
	Currency           string `json:"currency"`
	Amount             string `json:"amount"`
	PayoutCompany      string `json:"payout_company"`
	Purpose            string `json:"purpose"`
	Remark             string `json:"remark"`
	BeneficiaryName    string `json:"beneficiary_name"`
	BeneficiaryCountry string `json:"beneficiary_country"`
	BeneficiaryAddress string `json:"beneficiary_address"`
	AccountNumber      string `json:"account_number"`
	IBAN               string `json:"iban"`
	SwiftCode          string `json:"swift_code"`
	BankName           string `json:"bank_name"`
	BankAddress        string `json:"bank_address"`
	BankCountry        string `json:"bank_country"`
}

// HasAccountInfo reports whether the message carried either an IBAN or a
// bank account number. One of the two is required downstream.
func (f *OrderFields) HasAccountInfo() bool {
	return f.IBAN != "" || f.AccountNumber != ""
}

// AccountIdentifier returns the IBAN when present, otherwise the plain
// account number. Empty when neither was extracted.
func (f *OrderFields) AccountIdentifier() string {
	if f.IBAN != "" {
		return f.IBAN
	}
	return f.AccountNumber
}

// ParsedAmount parses the normalized amount string into a decimal value.
func (f *OrderFields) ParsedAmount() (decimal.Decimal, error) {
	return ParseAmount(f.Amount)
}

// String returns a short representation of the extracted fields
func (f *OrderFields) String() string {
	return fmt.Sprintf("OrderFields{Ref: %s, Amount: %s %s, Beneficiary: %s}",
		f.OrderRef, f.Amount, f.Currency, f.BeneficiaryName)
}

// ValidationOutcome accumulates the categorized results of all checks run
// against a single order. It is scoped to one order's processing lifetime
// and never shared across concurrent orders. Pipeline stages construct
// their own contribution and the orchestrator merges them in stage order,
// so no stage mutates another stage's entries.
type ValidationOutcome struct {
	Passed   []string `json:"passed"`
	Failed   []string `json:"failed"`
	Warnings []string `json:"warnings"`

	// BankCountry is the country resolved by the bank-identifier lookup,
	// when the lookup succeeded. It feeds the IBAN-requirement decision.
	BankCountry string `json:"bank_country,omitempty"`
}

// NewValidationOutcome creates an empty outcome
func NewValidationOutcome() *ValidationOutcome {
	return &ValidationOutcome{}
}

// Pass appends a passed-check entry
func (o *ValidationOutcome) Pass(format string, args ...interface{}) {
	o.Passed = append(o.Passed, fmt.Sprintf(format, args...))
}

// Fail appends a failed-check entry
func (o *ValidationOutcome) Fail(format string, args ...interface{}) {
	o.Failed = append(o.Failed, fmt.Sprintf(format, args...))
}

// Warn appends a warning entry
func (o *ValidationOutcome) Warn(format string, args ...interface{}) {
	o.Warnings = append(o.Warnings, fmt.Sprintf(format, args...))
}

// Merge appends another outcome's entries to this one, preserving order.
// The other outcome's resolved bank country wins when set.
func (o *ValidationOutcome) Merge(other *ValidationOutcome) {
	if other == nil {
		return
	}
	o.Passed = append(o.Passed, other.Passed...)
	o.Failed = append(o.Failed, other.Failed...)
	o.Warnings = append(o.Warnings, other.Warnings...)
	if other.BankCountry != "" {
		o.BankCountry = other.BankCountry
	}
}

// IsValid reports whether no check has failed so far. The order may only
// be persisted while this holds after all mandatory checks have run.
func (o *ValidationOutcome) IsValid() bool {
	return len(o.Failed) == 0
}

// Order is the persisted representation of a validated transfer order.
type Order struct {
	ID                 string          `json:"id"`
	OrderRef           string          `json:"order_ref"`
	SwiftCode          string          `json:"swift_code"`
	BankName           string          `json:"bank_name"`
	BankCountry        string          `json:"bank_country"`
	AccountNumber      string          `json:"account_number"`
	BeneficiaryName    string          `json:"beneficiary_name"`
	Currency           string          `json:"currency"`
	Amount             decimal.Decimal `json:"amount"`
	AgentCode          string          `json:"agent_code"`
	ClientCode         string          `json:"client_code"`
	PayoutCompany      string          `json:"payout_company"`
	Rate               decimal.Decimal `json:"rate"`
	ValidationMessages string          `json:"validation_messages"`
	Status             OrderStatus     `json:"status"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// String returns a short representation of the Order
func (ord *Order) String() string {
	return fmt.Sprintf("Order{Ref: %s, Amount: %s %s, Status: %s}",
		ord.OrderRef, ord.Amount.StringFixed(2), ord.Currency, ord.Status)
}

// AuditEntry records an action taken against an order.
type AuditEntry struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	OrderID   string    `json:"order_id"`
	CreatedAt time.Time `json:"created_at"`
}

// PayoutRate returns the settlement rate applied for a payout company.
// CELES payouts settle at 0.994, everything else at 0.995.
func PayoutRate(payoutCompany string) decimal.Decimal {
	if strings.Contains(strings.ToUpper(payoutCompany), "CELES") {
		return decimal.NewFromFloat(0.994)
	}
	return decimal.NewFromFloat(0.995)
}

// BookkeepingCurrency maps an order currency to the currency recorded in
// the payout ledgers. Offshore CNY settles as CNH.
func BookkeepingCurrency(currency string) string {
	if currency == "CNY" {
		return "CNH"
	}
	return currency
}

// ParseAmount parses a normalized amount string into a decimal value with
// validation. The extractor guarantees plain "1234.56" style input, but
// stray grouping commas are tolerated for values that bypassed extraction.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount string cannot be empty")
	}

	s = strings.ReplaceAll(s, ",", "")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount format '%s': %w", s, err)
	}

	return d, nil
}
