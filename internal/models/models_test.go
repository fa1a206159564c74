package models

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestOrderStatusIsValid(t *testing.T) {
	valid := []OrderStatus{
		StatusPending, StatusBankProcessing, StatusCreated, StatusSubmitted,
		StatusCompleted, StatusRefundPending, StatusRefunded, StatusCancelled,
		StatusCredited, StatusPendingApproval, StatusApproved, StatusRejected,
	}
	for _, s := range valid {
		if !s.IsValid() {
			t.Errorf("expected status %q to be valid", s)
		}
	}

	if OrderStatus("shipped").IsValid() {
		t.Error("expected unknown status to be invalid")
	}
	if OrderStatus("").IsValid() {
		t.Error("expected empty status to be invalid")
	}
}

func TestOrderFieldsAccountInfo(t *testing.T) {
	tests := []struct {
		name       string
		fields     OrderFields
		hasAccount bool
		identifier string
	}{
		{
			name:       "IBAN only",
			fields:     OrderFields{IBAN: "DE89370400440532013000"},
			hasAccount: true,
			identifier: "DE89370400440532013000",
		},
		{
			name:       "account number only",
			fields:     OrderFields{AccountNumber: "1234567890"},
			hasAccount: true,
			identifier: "1234567890",
		},
		{
			name:       "IBAN preferred over account number",
			fields:     OrderFields{IBAN: "DE89370400440532013000", AccountNumber: "1234567890"},
			hasAccount: true,
			identifier: "DE89370400440532013000",
		},
		{
			name:       "neither",
			fields:     OrderFields{},
			hasAccount: false,
			identifier: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fields.HasAccountInfo(); got != tt.hasAccount {
				t.Errorf("HasAccountInfo() = %v, want %v", got, tt.hasAccount)
			}
			if got := tt.fields.AccountIdentifier(); got != tt.identifier {
				t.Errorf("AccountIdentifier() = %q, want %q", got, tt.identifier)
			}
		})
	}
}

func TestValidationOutcomeMerge(t *testing.T) {
	first := NewValidationOutcome()
	first.Pass("format valid")
	first.Warn("bank name differs")

	second := NewValidationOutcome()
	second.Fail("IBAN checksum is invalid")
	second.BankCountry = "Germany"

	first.Merge(second)

	if len(first.Passed) != 1 || len(first.Failed) != 1 || len(first.Warnings) != 1 {
		t.Errorf("unexpected entry counts after merge: passed=%d failed=%d warnings=%d",
			len(first.Passed), len(first.Failed), len(first.Warnings))
	}
	if first.BankCountry != "Germany" {
		t.Errorf("expected merged bank country Germany, got %q", first.BankCountry)
	}
	if first.IsValid() {
		t.Error("outcome with a failed entry should not be valid")
	}

	// Merging an outcome without a bank country must not clear the
	// previously resolved one.
	first.Merge(NewValidationOutcome())
	if first.BankCountry != "Germany" {
		t.Errorf("bank country cleared by empty merge, got %q", first.BankCountry)
	}

	first.Merge(nil)
	if len(first.Passed) != 1 {
		t.Error("nil merge changed the outcome")
	}
}

func TestValidationOutcomeFormatting(t *testing.T) {
	outcome := NewValidationOutcome()
	outcome.Pass("*%s Verification*: Valid", "SWIFT")

	if outcome.Passed[0] != "*SWIFT Verification*: Valid" {
		t.Errorf("unexpected formatted entry: %q", outcome.Passed[0])
	}
	if !outcome.IsValid() {
		t.Error("outcome with only passed entries should be valid")
	}
}

func TestPayoutRate(t *testing.T) {
	tests := []struct {
		company string
		want    string
	}{
		{"CELES TRADING LTD", "0.994"},
		{"celes import export", "0.994"},
		{"SENIBO GmbH", "0.995"},
		{"", "0.995"},
	}

	for _, tt := range tests {
		if got := PayoutRate(tt.company); got.String() != tt.want {
			t.Errorf("PayoutRate(%q) = %s, want %s", tt.company, got, tt.want)
		}
	}
}

func TestBookkeepingCurrency(t *testing.T) {
	if got := BookkeepingCurrency("CNY"); got != "CNH" {
		t.Errorf("BookkeepingCurrency(CNY) = %q, want CNH", got)
	}
	if got := BookkeepingCurrency("USD"); got != "USD" {
		t.Errorf("BookkeepingCurrency(USD) = %q, want USD", got)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"plain decimal", "1234.56", "1234.56", false},
		{"integer", "50000", "50000", false},
		{"stray grouping commas", "1,234,567.89", "1234567.89", false},
		{"surrounding whitespace", "  250.00 ", "250", false},
		{"empty", "", "", true},
		{"garbage", "abc", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseAmount(%q) expected error, got %s", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAmount(%q) unexpected error: %v", tt.input, err)
			}
			want, _ := decimal.NewFromString(tt.want)
			if !got.Equal(want) {
				t.Errorf("ParseAmount(%q) = %s, want %s", tt.input, got, want)
			}
		})
	}
}

func TestOrderString(t *testing.T) {
	ord := &Order{
		OrderRef: "ORD-2024-001",
		Amount:   decimal.NewFromFloat(1234.5),
		Currency: "USD",
		Status:   StatusPending,
	}

	s := ord.String()
	for _, want := range []string{"ORD-2024-001", "1234.50", "USD", "pending"} {
		if !strings.Contains(s, want) {
			t.Errorf("Order.String() = %q, missing %q", s, want)
		}
	}
}
