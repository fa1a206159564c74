// Package extractor turns raw order message text into a structured field
// record.
//
// An inbound message is recognized as an order by the presence of an
// order-reference label. Recognized messages are checked against the
// order grammar (Label: value lines, labels optionally bracketed) before
// extraction runs. Extraction itself never fails: any field whose label is
// absent stays empty and is deferred to the required-field validation
// downstream.
package extractor

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"order-verification-service/internal/models"
)

// Field identifies one slot of the extracted order record.
type Field string

const (
	FieldOrderRef           Field = "order_ref"
	FieldCurrency           Field = "currency"
	FieldAmount             Field = "amount"
	FieldPayoutCompany      Field = "payout_company"
	FieldPurpose            Field = "purpose"
	FieldRemark             Field = "remark"
	FieldBeneficiaryName    Field = "beneficiary_name"
	FieldBeneficiaryCountry Field = "beneficiary_country"
	FieldBeneficiaryAddress Field = "beneficiary_address"
	FieldAccountNumber      Field = "account_number"
	FieldIBAN               Field = "iban"
	FieldSwiftCode          Field = "swift_code"
	FieldBankName           Field = "bank_name"
	FieldBankAddress        Field = "bank_address"
	FieldBankCountry        Field = "bank_country"
)

// orderRefLabel recognizes the order-reference label in all its spellings,
// with optional surrounding brackets and trailing punctuation.
const orderRefLabel = `Order\s*Ref(?:erence)?(?:\s*No\.?)?|Order\s*No\.?`

var orderRefPattern = regexp.MustCompile(`(?i)\[?(?:` + orderRefLabel + `):?\]?`)

// labelSpec binds a field to the regular expression recognizing its label.
// colonRequired restricts a label to its "Label:" form; the bare word is
// then only a value terminator, not a field start. IBAN needs this because
// the word appears in free-form remarks.
type labelSpec struct {
	field         Field
	pattern       string
	colonRequired bool
}

var labelSpecs = []labelSpec{
	{FieldOrderRef, orderRefLabel, false},
	{FieldCurrency, `Currency`, false},
	{FieldAmount, `Amount`, false},
	{FieldPayoutCompany, `Pay\s*Out\s*Company[^:\n\]]*`, false},
	{FieldPurpose, `Purpose`, false},
	{FieldRemark, `Remark`, false},
	{FieldBeneficiaryName, `Beneficiary\s*Name`, false},
	{FieldBeneficiaryCountry, `Beneficiary\s*Country`, false},
	{FieldBeneficiaryAddress, `Beneficiary\s*Address`, false},
	{FieldAccountNumber, `Bank\s*Account\s*Number`, false},
	{FieldIBAN, `IBAN`, true},
	{FieldSwiftCode, `(?:Bank\s*)?SWIFT(?:\s*Code)?`, false},
	{FieldBankName, `Bank\s*Name`, false},
	{FieldBankAddress, `Bank\s*Address`, false},
	{FieldBankCountry, `Bank\s*Country`, false},
}

// requiredLabels are the labels whose presence gates extraction entirely.
var requiredLabels = []struct {
	pattern *regexp.Regexp
	name    string
}{
	{regexp.MustCompile(`(?i)\[?(?:` + orderRefLabel + `):?\]?`), "Order Reference"},
	{regexp.MustCompile(`(?i)\[?Currency:?\]?`), "Currency"},
	{regexp.MustCompile(`(?i)\[?Amount:?\]?`), "Amount"},
	{regexp.MustCompile(`(?i)\[?Pay\s*Out\s*Company[^:\n\]]*:?\]?`), "Pay Out Company"},
}

var (
	startPatterns = compileLabelPatterns(true)
	linePatterns  = compileLabelPatterns(false)

	trailingSeparators = regexp.MustCompile(`[:|,\s]+$`)
	leadingSeparators  = regexp.MustCompile(`^[:\s]+`)
)

// compileLabelPatterns builds one anchored-or-floating regex per label.
// Field starts honor colonRequired; line-classification patterns do not,
// since the colon check is a separate format rule with its own diagnostic.
func compileLabelPatterns(fieldStart bool) map[Field]*regexp.Regexp {
	compiled := make(map[Field]*regexp.Regexp, len(labelSpecs))
	for _, spec := range labelSpecs {
		colon := `:?`
		if fieldStart && spec.colonRequired {
			colon = `:`
		}
		compiled[spec.field] = regexp.MustCompile(`(?i)\[?(?:` + spec.pattern + `)` + colon + `\]?`)
	}
	return compiled
}

// IsOrderMessage reports whether the text contains an order-reference
// label and is therefore a candidate order message. Anything else is not
// an error, it is simply not an order.
func IsOrderMessage(text string) bool {
	return orderRefPattern.MatchString(text)
}

// ValidateFormat checks the message against the order grammar before
// extraction. It returns (true, "") for a well-formed order, (false, "")
// for text that is not an order message at all, and (false, diagnostic)
// when an order message violates the grammar: a missing mandatory label,
// a label line without its colon, or content preceding the first label.
func ValidateFormat(text string) (bool, string) {
	if !IsOrderMessage(text) {
		return false, ""
	}

	for _, required := range requiredLabels {
		if !required.pattern.MatchString(text) {
			return false, fmt.Sprintf(
				"❌ *Invalid Order Format*\nMissing required field: %s", required.name)
		}
	}

	haveField := false
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		isLabel := false
		for _, pattern := range linePatterns {
			loc := pattern.FindStringIndex(line)
			if loc == nil || loc[0] != 0 {
				continue
			}
			isLabel = true
			haveField = true
			if !strings.Contains(line, ":") {
				return false, fmt.Sprintf(
					"❌ *Invalid Order Format*\nField label missing colon: %s\n"+
						"Each field must be in the format 'Field: Value'", line)
			}
			break
		}

		if !isLabel && !haveField {
			return false, fmt.Sprintf(
				"❌ *Invalid Order Format*\nFound content without a field label: %s\n"+
					"Each section must start with a proper field label", line)
		}
	}

	return true, ""
}

// marker is one label occurrence in the message text. A marker with an
// empty field terminates the preceding value without starting a new one.
type marker struct {
	start, end int
	field      Field
}

// Extract pulls every recognized field out of the message. For each label
// the value is everything up to the next recognized label or end of text,
// trimmed of trailing separators and normalized per field. Extraction
// never fails; unmatched fields stay empty.
func Extract(text string) *models.OrderFields {
	markers := scanMarkers(text)

	fields := &models.OrderFields{}
	seen := make(map[Field]bool, len(markers))
	for i, m := range markers {
		if m.field == "" || seen[m.field] {
			continue
		}
		seen[m.field] = true

		valueEnd := len(text)
		if i+1 < len(markers) {
			valueEnd = markers[i+1].start
		}

		value := text[m.end:valueEnd]
		value = leadingSeparators.ReplaceAllString(value, "")
		value = trailingSeparators.ReplaceAllString(value, "")
		value = CleanFieldValue(m.field, value)
		if value != "" {
			setField(fields, m.field, value)
		}
	}

	return fields
}

// scanMarkers locates every label occurrence, resolving overlaps in favor
// of the earliest, longest match.
func scanMarkers(text string) []marker {
	var markers []marker
	for _, spec := range labelSpecs {
		for _, loc := range startPatterns[spec.field].FindAllStringIndex(text, -1) {
			markers = append(markers, marker{start: loc[0], end: loc[1], field: spec.field})
		}
		if spec.colonRequired {
			// The colon-less form still terminates the previous value.
			for _, loc := range linePatterns[spec.field].FindAllStringIndex(text, -1) {
				markers = append(markers, marker{start: loc[0], end: loc[1]})
			}
		}
	}

	sort.Slice(markers, func(i, j int) bool {
		if markers[i].start != markers[j].start {
			return markers[i].start < markers[j].start
		}
		if markers[i].end != markers[j].end {
			return markers[i].end > markers[j].end
		}
		// Field-start markers outrank bare terminators at the same span.
		return markers[i].field != "" && markers[j].field == ""
	})

	kept := markers[:0]
	lastEnd := -1
	for _, m := range markers {
		if m.start < lastEnd {
			continue
		}
		kept = append(kept, m)
		lastEnd = m.end
	}
	return kept
}

// CleanFieldValue normalizes one extracted value according to its field:
// amounts go through separator disambiguation, account identifiers are
// reduced to uppercase alphanumerics, and everything else is trimmed of
// brackets and surrounding whitespace.
func CleanFieldValue(field Field, value string) string {
	value = strings.Trim(value, "[]")
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}

	switch field {
	case FieldAmount:
		return cleanAmount(value)
	case FieldIBAN, FieldAccountNumber, FieldSwiftCode:
		return cleanIdentifier(value)
	default:
		return value
	}
}

// cleanAmount strips currency symbols and letters, then disambiguates the
// decimal separator: when both comma and dot appear, the rightmost
// separator followed by exactly two digits is the decimal point; a lone
// comma is decimal only when at most two digits follow it. Everything
// else is grouping and removed.
func cleanAmount(value string) string {
	var b strings.Builder
	for _, r := range value {
		if unicode.IsDigit(r) || r == ',' || r == '.' {
			b.WriteRune(r)
		}
	}
	s := b.String()

	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")

	stripSeparators := func(v string) string {
		v = strings.ReplaceAll(v, ",", "")
		return strings.ReplaceAll(v, ".", "")
	}

	switch {
	case hasComma && hasDot:
		last := strings.LastIndexAny(s, ",.")
		if len(s)-last-1 == 2 {
			return stripSeparators(s[:last]) + "." + s[last+1:]
		}
		return stripSeparators(s)
	case hasComma:
		last := strings.LastIndex(s, ",")
		if strings.Count(s, ",") == 1 && len(s)-last-1 <= 2 {
			return s[:last] + "." + s[last+1:]
		}
		return strings.ReplaceAll(s, ",", "")
	default:
		return s
	}
}

// cleanIdentifier reduces an account identifier or bank code to uppercase
// alphanumerics.
func cleanIdentifier(value string) string {
	var b strings.Builder
	for _, r := range value {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

func setField(fields *models.OrderFields, field Field, value string) {
	switch field {
	case FieldOrderRef:
		fields.OrderRef = value
	case FieldCurrency:
		fields.Currency = value
	case FieldAmount:
		fields.Amount = value
	case FieldPayoutCompany:
		fields.PayoutCompany = value
	case FieldPurpose:
		fields.Purpose = value
	case FieldRemark:
		fields.Remark = value
	case FieldBeneficiaryName:
		fields.BeneficiaryName = value
	case FieldBeneficiaryCountry:
		fields.BeneficiaryCountry = value
	case FieldBeneficiaryAddress:
		fields.BeneficiaryAddress = value
	case FieldAccountNumber:
		fields.AccountNumber = value
	case FieldIBAN:
		fields.IBAN = value
	case FieldSwiftCode:
		fields.SwiftCode = value
	case FieldBankName:
		fields.BankName = value
	case FieldBankAddress:
		fields.BankAddress = value
	case FieldBankCountry:
		fields.BankCountry = value
	}
}
