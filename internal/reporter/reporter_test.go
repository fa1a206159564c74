package reporter

import (
	"encoding/json"
	"strings"
	"testing"

	"order-verification-service/internal/models"
)

func sampleOutcome() *models.ValidationOutcome {
	outcome := models.NewValidationOutcome()
	outcome.Pass("✅ *SWIFT Verification*: Valid")
	outcome.Pass("✅ *IBAN Verification*: Valid")
	outcome.Warn("⚠️ *SWIFT Verification Warning*:\nBank name mismatch")
	outcome.Fail("❌ *Amount*: Missing")
	return outcome
}

func TestNewReporter(t *testing.T) {
	if _, err := NewReporter(FormatMarkdown); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := NewReporter(""); err != nil {
		t.Fatalf("empty format should default, got error: %v", err)
	}
	if _, err := NewReporter("xml"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestFormatValidationReport(t *testing.T) {
	report := FormatValidationReport(sampleOutcome())

	if !strings.HasPrefix(report, "🚫 *VALIDATION CHECKS FAILED*") {
		t.Errorf("report should open with the failure header, got %q", report)
	}

	for _, want := range []string{
		"*Failed Checks (1)*:",
		"❌ *Amount*: Missing",
		"*Warnings(1)*:",
		"*Passed Checks (2)*:",
		"✅ *SWIFT Verification*: Valid",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}

	// Failed section must precede warnings, warnings must precede passed.
	failedIdx := strings.Index(report, "*Failed Checks")
	warnIdx := strings.Index(report, "*Warnings")
	passedIdx := strings.Index(report, "*Passed Checks")
	if !(failedIdx < warnIdx && warnIdx < passedIdx) {
		t.Errorf("sections out of order: failed=%d warnings=%d passed=%d", failedIdx, warnIdx, passedIdx)
	}
}

func TestFormatValidationReportOmitsEmptySections(t *testing.T) {
	outcome := models.NewValidationOutcome()
	outcome.Fail("❌ *Currency*: Missing")

	report := FormatValidationReport(outcome)

	if strings.Contains(report, "*Warnings") || strings.Contains(report, "*Passed Checks") {
		t.Errorf("empty sections should be omitted:\n%s", report)
	}
}

func TestFormatSuccessReport(t *testing.T) {
	fields := &models.OrderFields{
		OrderRef:        "ORD-2024-001",
		Amount:          "1234.56",
		Currency:        "USD",
		BeneficiaryName: "ACME Industrial",
	}
	outcome := models.NewValidationOutcome()
	outcome.Pass("✅ *SWIFT Verification*: Valid")
	outcome.Pass("✅ *Database*: Order saved successfully")

	report := FormatSuccessReport(fields, outcome)

	for _, want := range []string{
		"✅ *ALL VALIDATIONS PASSED*",
		"• Reference: `ORD-2024-001`",
		"• Amount: 1234.56 USD",
		"*Beneficiary Name*: `ACME Industrial`",
		"✅ *Database*: Order saved successfully",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}
	if strings.Contains(report, "*Warnings*") {
		t.Error("success report without warnings should omit the warnings block")
	}
}

func TestFormatSuccessReportWithWarnings(t *testing.T) {
	fields := &models.OrderFields{OrderRef: "ORD-1", Amount: "10", Currency: "EUR"}
	outcome := models.NewValidationOutcome()
	outcome.Pass("✅ *SWIFT Verification*: Valid")
	outcome.Warn("⚠️ *Database*: Failed to save order")

	report := FormatSuccessReport(fields, outcome)

	if !strings.Contains(report, "*Warnings*:\n⚠️ *Database*: Failed to save order") {
		t.Errorf("warnings block missing:\n%s", report)
	}
}

func TestJSONReport(t *testing.T) {
	r, err := NewReporter(FormatJSON)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fields := &models.OrderFields{OrderRef: "ORD-2024-001", Currency: "USD", Amount: "100"}
	out, err := r.SuccessReport(fields, sampleOutcome())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded struct {
		Order   *models.OrderFields       `json:"order"`
		Outcome *models.ValidationOutcome `json:"outcome"`
	}
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("JSON report did not parse: %v", err)
	}
	if decoded.Order.OrderRef != "ORD-2024-001" {
		t.Errorf("order ref = %q, want ORD-2024-001", decoded.Order.OrderRef)
	}
	if len(decoded.Outcome.Failed) != 1 {
		t.Errorf("failed entries = %d, want 1", len(decoded.Outcome.Failed))
	}

	// The failure report carries no order block.
	out, err = r.ValidationReport(sampleOutcome())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(out, `"order"`) {
		t.Errorf("validation JSON should omit the order block:\n%s", out)
	}
}

func TestFormatInvalidFormatHelp(t *testing.T) {
	help := FormatInvalidFormatHelp()
	for _, want := range []string{"Invalid Order Format", "Order reference", "colon"} {
		if !strings.Contains(help, want) {
			t.Errorf("help text missing %q", want)
		}
	}
}
