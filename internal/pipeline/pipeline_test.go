package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"order-verification-service/internal/models"
	"order-verification-service/internal/sanctions"
	"order-verification-service/internal/store"
)

type fakeVerifier struct {
	valid   bool
	message string
	country string
	calls   int
}

func (f *fakeVerifier) Verify(ctx context.Context, swiftCode, bankName string) (bool, string, string) {
	f.calls++
	return f.valid, f.message, f.country
}

type fakeScreener struct {
	result *sanctions.ScreeningResult
	calls  int
}

func (f *fakeScreener) Screen(ctx context.Context, name, address string) *sanctions.ScreeningResult {
	f.calls++
	if f.result != nil {
		return f.result
	}
	return &sanctions.ScreeningResult{Variations: []string{name}}
}

type fakeStore struct {
	created   []*models.Order
	audits    []*models.AuditEntry
	createErr error
}

func (f *fakeStore) CreateOrder(ctx context.Context, ord *models.Order) error {
	if f.createErr != nil {
		return f.createErr
	}
	ord.ID = fmt.Sprintf("id-%d", len(f.created)+1)
	f.created = append(f.created, ord)
	return nil
}

func (f *fakeStore) AppendAudit(ctx context.Context, entry *models.AuditEntry) error {
	f.audits = append(f.audits, entry)
	return nil
}

type fakeBooks struct {
	outcome *models.ValidationOutcome
	calls   int
}

func (f *fakeBooks) Process(ctx context.Context, fields *models.OrderFields) *models.ValidationOutcome {
	f.calls++
	if f.outcome != nil {
		return f.outcome
	}
	return models.NewValidationOutcome()
}

const germanOrderMessage = `Order Ref: ORD-2024-001
Currency: EUR
Amount: 1,234.56
Pay Out Company: SENIBO TRADING
Beneficiary Name: ACME Industrial
IBAN: DE89 3704 0044 0532 0130 00
Bank SWIFT Code: COBADEFF
Bank Name: Commerzbank AG`

func validVerifier() *fakeVerifier {
	return &fakeVerifier{valid: true, message: "ok", country: "Germany"}
}

func newTestOrchestrator(t *testing.T, config *Config, verifier *fakeVerifier, screener *fakeScreener, orders *fakeStore, books *fakeBooks) *Orchestrator {
	t.Helper()
	var (
		v BankVerifier
		s SanctionsScreener
		o OrderStore
		b Bookkeeper
	)
	if verifier != nil {
		v = verifier
	}
	if screener != nil {
		s = screener
	}
	if orders != nil {
		o = orders
	}
	if books != nil {
		b = books
	}
	orch, err := NewOrchestrator(config, v, s, o, b)
	if err != nil {
		t.Fatalf("NewOrchestrator failed: %v", err)
	}
	return orch
}

func TestProcessMessageEndToEndSuccess(t *testing.T) {
	verifier := validVerifier()
	orders := &fakeStore{}
	books := &fakeBooks{}
	orch := newTestOrchestrator(t, nil, verifier, nil, orders, books)

	result := orch.ProcessMessage(context.Background(), germanOrderMessage)

	if result.Status != StatusPersisted {
		t.Fatalf("status = %s, want %s; outcome: %+v", result.Status, StatusPersisted, result.Outcome)
	}
	if !strings.Contains(result.Report, "ALL VALIDATIONS PASSED") {
		t.Errorf("report should announce success:\n%s", result.Report)
	}
	if !strings.Contains(result.Report, "ORD-2024-001") || !strings.Contains(result.Report, "1234.56") {
		t.Errorf("report should carry reference and amount:\n%s", result.Report)
	}

	if len(orders.created) != 1 {
		t.Fatalf("created orders = %d, want 1", len(orders.created))
	}
	saved := orders.created[0]
	if saved.OrderRef != "ORD-2024-001" {
		t.Errorf("saved order ref = %q", saved.OrderRef)
	}
	if saved.BankCountry != "Germany" {
		t.Errorf("saved bank country = %q, want Germany", saved.BankCountry)
	}
	if saved.AccountNumber != "DE89370400440532013000" {
		t.Errorf("saved account number = %q", saved.AccountNumber)
	}
	if saved.Rate.String() != "0.995" {
		t.Errorf("saved rate = %s, want 0.995", saved.Rate)
	}
	if saved.AgentCode != "HD" || saved.ClientCode != "VR" {
		t.Errorf("agent/client codes = %s/%s, want HD/VR", saved.AgentCode, saved.ClientCode)
	}
	if saved.Status != models.StatusPending {
		t.Errorf("saved status = %s, want pending", saved.Status)
	}

	if len(orders.audits) != 1 || orders.audits[0].Action != "order_created" {
		t.Errorf("expected one order_created audit entry, got %+v", orders.audits)
	}
	if books.calls != 1 {
		t.Errorf("bookkeeper calls = %d, want 1", books.calls)
	}
}

func TestProcessMessageFlippedIBANDigitRejects(t *testing.T) {
	orders := &fakeStore{}
	orch := newTestOrchestrator(t, nil, validVerifier(), nil, orders, nil)

	message := strings.Replace(germanOrderMessage,
		"DE89 3704 0044 0532 0130 00",
		"DE89 3704 0044 0532 0130 01", 1)

	result := orch.ProcessMessage(context.Background(), message)

	if result.Status != StatusRejected {
		t.Fatalf("status = %s, want %s", result.Status, StatusRejected)
	}
	found := false
	for _, failed := range result.Outcome.Failed {
		if strings.Contains(failed, "IBAN checksum is invalid") {
			found = true
		}
	}
	if !found {
		t.Errorf("failed checks should cite the checksum: %+v", result.Outcome.Failed)
	}
	if len(orders.created) != 0 {
		t.Error("rejected order must not be persisted")
	}
	if !strings.Contains(result.Report, "VALIDATION CHECKS FAILED") {
		t.Errorf("report should announce failure:\n%s", result.Report)
	}
}

func TestProcessMessageNotAnOrder(t *testing.T) {
	orch := newTestOrchestrator(t, nil, validVerifier(), nil, nil, nil)

	result := orch.ProcessMessage(context.Background(), "lunch at noon?")

	if result.Status != StatusNotAnOrder {
		t.Fatalf("status = %s, want %s", result.Status, StatusNotAnOrder)
	}
	if result.Report != "" {
		t.Errorf("non-orders must stay silent, got %q", result.Report)
	}
}

func TestProcessMessageFormatViolation(t *testing.T) {
	orch := newTestOrchestrator(t, nil, validVerifier(), nil, nil, nil)

	result := orch.ProcessMessage(context.Background(), "Order Ref: ORD-1\nCurrency: USD\nPay Out Company: X")

	if result.Status != StatusRejected {
		t.Fatalf("status = %s, want %s", result.Status, StatusRejected)
	}
	if !strings.Contains(result.Report, "Missing required field: Amount") {
		t.Errorf("report should carry the format diagnostic:\n%s", result.Report)
	}
}

func TestProcessMessageAccumulatesMissingFields(t *testing.T) {
	verifier := &fakeVerifier{valid: false, message: "no lookup", country: ""}
	orch := newTestOrchestrator(t, nil, verifier, nil, nil, nil)

	message := "Order Ref: ORD-1\nCurrency: USD\nAmount: 100\nPay Out Company: X"
	result := orch.ProcessMessage(context.Background(), message)

	if result.Status != StatusRejected {
		t.Fatalf("status = %s, want %s", result.Status, StatusRejected)
	}

	wantFailed := []string{
		"Either IBAN or Account Number is required",
		"*SWIFT Code*: Missing",
		"*Bank Name*: Missing",
		"*Beneficiary Name*: Missing",
	}
	for _, want := range wantFailed {
		found := false
		for _, failed := range result.Outcome.Failed {
			if strings.Contains(failed, want) {
				found = true
			}
		}
		if !found {
			t.Errorf("failed checks missing %q: %+v", want, result.Outcome.Failed)
		}
	}
}

func TestProcessMessageIBANRequiredByCountry(t *testing.T) {
	orch := newTestOrchestrator(t, nil, validVerifier(), nil, &fakeStore{}, nil)

	message := `Order Ref: ORD-2
Currency: EUR
Amount: 500
Pay Out Company: SENIBO
Beneficiary Name: ACME Industrial
Bank Account Number: 12345678
Bank SWIFT Code: COBADEFF
Bank Name: Commerzbank AG`

	result := orch.ProcessMessage(context.Background(), message)

	if result.Status != StatusRejected {
		t.Fatalf("status = %s, want %s", result.Status, StatusRejected)
	}
	found := false
	for _, failed := range result.Outcome.Failed {
		if strings.Contains(failed, "Country Germany requires IBAN") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected IBAN-required failure: %+v", result.Outcome.Failed)
	}
}

func TestProcessMessageSwiftFailureIsWarning(t *testing.T) {
	verifier := &fakeVerifier{valid: false, message: "❌ Invalid SWIFT code: XXXX", country: ""}
	orders := &fakeStore{}
	orch := newTestOrchestrator(t, nil, verifier, nil, orders, nil)

	// US account: no IBAN requirement, so only the SWIFT warning remains.
	message := `Order Ref: ORD-3
Currency: USD
Amount: 750
Pay Out Company: SENIBO
Beneficiary Name: ACME Industrial
Bank Account Number: 12345678
Bank SWIFT Code: BOFAUS3N
Bank Name: Bank of America
Bank Country: United States`

	result := orch.ProcessMessage(context.Background(), message)

	if result.Status != StatusPersisted {
		t.Fatalf("status = %s, want %s; outcome: %+v", result.Status, StatusPersisted, result.Outcome)
	}
	if len(result.Outcome.Warnings) == 0 ||
		!strings.Contains(result.Outcome.Warnings[0], "SWIFT Verification Warning") {
		t.Errorf("expected a SWIFT warning: %+v", result.Outcome.Warnings)
	}
	if len(orders.created) != 1 {
		t.Error("order with only warnings should still be persisted")
	}
}

func TestProcessMessageSanctionsHitRejects(t *testing.T) {
	screener := &fakeScreener{result: &sanctions.ScreeningResult{
		TotalHits: 1,
		FoundRecords: []sanctions.FoundRecord{{
			Name: "ACME INDUSTRIAL", SourceType: "OFAC SDN",
		}},
	}}
	config := DefaultConfig()
	config.Rules.CheckSanctions = true
	orders := &fakeStore{}
	orch := newTestOrchestrator(t, config, validVerifier(), screener, orders, nil)

	result := orch.ProcessMessage(context.Background(), germanOrderMessage)

	if result.Status != StatusRejected {
		t.Fatalf("status = %s, want %s", result.Status, StatusRejected)
	}
	if screener.calls != 1 {
		t.Errorf("screener calls = %d, want 1", screener.calls)
	}
	found := false
	for _, failed := range result.Outcome.Failed {
		if strings.Contains(failed, "SANCTIONS CHECK FAILED") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected sanctions failure: %+v", result.Outcome.Failed)
	}
	if len(orders.created) != 0 {
		t.Error("sanctioned order must not be persisted")
	}
}

func TestProcessMessageSanctionsCleanPasses(t *testing.T) {
	screener := &fakeScreener{}
	config := DefaultConfig()
	config.Rules.CheckSanctions = true
	orch := newTestOrchestrator(t, config, validVerifier(), screener, &fakeStore{}, nil)

	result := orch.ProcessMessage(context.Background(), germanOrderMessage)

	if result.Status != StatusPersisted {
		t.Fatalf("status = %s, want %s; outcome: %+v", result.Status, StatusPersisted, result.Outcome)
	}
	found := false
	for _, passed := range result.Outcome.Passed {
		if strings.Contains(passed, "SANCTIONS CHECK PASSED") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected sanctions pass entry: %+v", result.Outcome.Passed)
	}
}

func TestProcessMessageDuplicateReferenceRejects(t *testing.T) {
	orders := &fakeStore{createErr: fmt.Errorf("%w: ORD-2024-001", store.ErrDuplicateOrder)}
	orch := newTestOrchestrator(t, nil, validVerifier(), nil, orders, nil)

	result := orch.ProcessMessage(context.Background(), germanOrderMessage)

	if result.Status != StatusRejected {
		t.Fatalf("status = %s, want %s", result.Status, StatusRejected)
	}
	found := false
	for _, failed := range result.Outcome.Failed {
		if strings.Contains(failed, "Duplicate Order") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected duplicate-order failure: %+v", result.Outcome.Failed)
	}
}

func TestProcessMessageStorageOutageDegradesToWarning(t *testing.T) {
	orders := &fakeStore{createErr: errors.New("connection refused")}
	books := &fakeBooks{}
	orch := newTestOrchestrator(t, nil, validVerifier(), nil, orders, books)

	result := orch.ProcessMessage(context.Background(), germanOrderMessage)

	if result.Status != StatusPersisted {
		t.Fatalf("status = %s, want %s", result.Status, StatusPersisted)
	}
	found := false
	for _, warning := range result.Outcome.Warnings {
		if strings.Contains(warning, "Failed to save order") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected storage warning: %+v", result.Outcome.Warnings)
	}
	if books.calls != 1 {
		t.Error("ledger writes should still run after a storage outage")
	}
}

func TestNewOrchestratorRequiresEnabledCollaborators(t *testing.T) {
	config := DefaultConfig()
	if _, err := NewOrchestrator(config, nil, nil, nil, nil); err == nil {
		t.Error("expected error when SWIFT checking has no verifier")
	}

	config = DefaultConfig()
	config.Rules.CheckSwift = false
	config.Rules.CheckIBAN = false
	if _, err := NewOrchestrator(config, nil, nil, nil, nil); err != nil {
		t.Errorf("unexpected error with all external checks disabled: %v", err)
	}

	config = DefaultConfig()
	config.Rules.CheckSanctions = true
	if _, err := NewOrchestrator(config, &fakeVerifier{}, nil, nil, nil); err == nil {
		t.Error("expected error when sanctions checking has no screener")
	}
}

func TestValidationRulesDisableChecks(t *testing.T) {
	config := DefaultConfig()
	config.Rules.CheckSwift = false
	config.Rules.CheckIBAN = false
	orders := &fakeStore{}
	orch := newTestOrchestrator(t, config, nil, nil, orders, nil)

	// With bank checks off even a broken IBAN is not inspected, though a
	// provided IBAN still gets its checksum verified.
	message := strings.Replace(germanOrderMessage,
		"IBAN: DE89 3704 0044 0532 0130 00",
		"Bank Account Number: 987654", 1)

	result := orch.ProcessMessage(context.Background(), message)

	if result.Status != StatusPersisted {
		t.Fatalf("status = %s, want %s; outcome: %+v", result.Status, StatusPersisted, result.Outcome)
	}
	for _, passed := range result.Outcome.Passed {
		if strings.Contains(passed, "SWIFT Verification") {
			t.Errorf("SWIFT check ran despite being disabled: %+v", result.Outcome.Passed)
		}
	}
}

func TestProvidedIBANAlwaysValidated(t *testing.T) {
	config := DefaultConfig()
	config.Rules.CheckSwift = false
	config.Rules.CheckIBAN = false
	orch := newTestOrchestrator(t, config, nil, nil, nil, nil)

	message := strings.Replace(germanOrderMessage,
		"DE89 3704 0044 0532 0130 00",
		"DE89 3704 0044 0532 0130 01", 1)

	result := orch.ProcessMessage(context.Background(), message)

	if result.Status != StatusRejected {
		t.Fatalf("a provided IBAN must be validated even with CheckIBAN off, got %s", result.Status)
	}
}
