// Package reporter renders validation outcomes into operator-facing
// reports.
//
// Two report shapes exist: a failure report listing every failed check,
// warning and passed check with counts, and a success report summarizing
// the order and the checks it cleared. Reports are rendered as Markdown
// for messaging surfaces or as JSON for programmatic consumers.
package reporter

import (
	"encoding/json"
	"fmt"
	"strings"

	"order-verification-service/internal/models"
)

// OutputFormat represents the supported report output formats.
type OutputFormat string

const (
	FormatMarkdown OutputFormat = "markdown"
	FormatJSON     OutputFormat = "json"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatMarkdown, FormatJSON:
		return true
	default:
		return false
	}
}

// Reporter renders validation outcomes for one output format.
type Reporter struct {
	format OutputFormat
}

// NewReporter creates a Reporter for the given format. An empty format
// defaults to Markdown.
func NewReporter(format OutputFormat) (*Reporter, error) {
	if format == "" {
		format = FormatMarkdown
	}
	if !format.IsValid() {
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
	return &Reporter{format: format}, nil
}

// ValidationReport renders the failure report for an order whose checks
// did not all pass. Failed checks come first, then warnings, then the
// checks that did pass, each section with its count.
func (r *Reporter) ValidationReport(outcome *models.ValidationOutcome) (string, error) {
	if r.format == FormatJSON {
		return r.renderJSON(nil, outcome)
	}
	return FormatValidationReport(outcome), nil
}

// SuccessReport renders the all-clear report for a fully validated order.
func (r *Reporter) SuccessReport(fields *models.OrderFields, outcome *models.ValidationOutcome) (string, error) {
	if r.format == FormatJSON {
		return r.renderJSON(fields, outcome)
	}
	return FormatSuccessReport(fields, outcome), nil
}

type jsonReport struct {
	Order   *models.OrderFields       `json:"order,omitempty"`
	Outcome *models.ValidationOutcome `json:"outcome"`
}

func (r *Reporter) renderJSON(fields *models.OrderFields, outcome *models.ValidationOutcome) (string, error) {
	data, err := json.MarshalIndent(jsonReport{Order: fields, Outcome: outcome}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to render JSON report: %w", err)
	}
	return string(data), nil
}

// FormatValidationReport builds the Markdown failure report.
func FormatValidationReport(outcome *models.ValidationOutcome) string {
	lines := []string{"🚫 *VALIDATION CHECKS FAILED*\n"}

	if len(outcome.Failed) > 0 {
		lines = append(lines, fmt.Sprintf("*Failed Checks (%d)*:", len(outcome.Failed)))
		lines = append(lines, outcome.Failed...)
	}
	if len(outcome.Warnings) > 0 {
		lines = append(lines, fmt.Sprintf("\n*Warnings(%d)*:", len(outcome.Warnings)))
		lines = append(lines, outcome.Warnings...)
	}
	if len(outcome.Passed) > 0 {
		lines = append(lines, fmt.Sprintf("\n*Passed Checks (%d)*:", len(outcome.Passed)))
		lines = append(lines, outcome.Passed...)
	}

	return strings.Join(lines, "\n")
}

// FormatSuccessReport builds the Markdown success report: order summary,
// beneficiary, the passed-check list, and any warnings collected along
// the way.
func FormatSuccessReport(fields *models.OrderFields, outcome *models.ValidationOutcome) string {
	var b strings.Builder

	b.WriteString("✅ *ALL VALIDATIONS PASSED*\n\n")
	b.WriteString("*Order Details*:\n")
	fmt.Fprintf(&b, "• Reference: `%s`\n", fields.OrderRef)
	fmt.Fprintf(&b, "• Amount: %s %s\n", fields.Amount, fields.Currency)
	b.WriteString("*Beneficiary Details*:\n")
	fmt.Fprintf(&b, "*Beneficiary Name*: `%s`\n", fields.BeneficiaryName)
	b.WriteString("*Validation Summary*:\n")
	b.WriteString(strings.Join(outcome.Passed, "\n"))

	if len(outcome.Warnings) > 0 {
		b.WriteString("\n\n*Warnings*:\n")
		b.WriteString(strings.Join(outcome.Warnings, "\n"))
	}

	return b.String()
}

// FormatInvalidFormatHelp is the generic guidance block sent when an
// order message fails format validation without a more specific
// diagnostic.
func FormatInvalidFormatHelp() string {
	return "❌ *Invalid Order Format*\n\n" +
		"Please ensure:\n" +
		"• Order reference is present\n" +
		"• Currency is specified\n" +
		"• Amount is specified\n" +
		"• Each field is on a new line\n" +
		"• Each line contains a colon (:)"
}
