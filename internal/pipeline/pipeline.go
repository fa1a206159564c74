// Package pipeline orchestrates the full verification of an inbound
// order message: format checking, field extraction, required-field
// validation, bank-identifier and IBAN checks, sanctions screening, and
// finally persistence and bookkeeping for orders that pass.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"order-verification-service/internal/extractor"
	"order-verification-service/internal/iban"
	"order-verification-service/internal/models"
	"order-verification-service/internal/reporter"
	"order-verification-service/internal/sanctions"
	"order-verification-service/internal/store"
	"order-verification-service/pkg/logger"
)

// ValidationRules switches individual check families on or off.
type ValidationRules struct {
	CheckSwift     bool `mapstructure:"check_swift"`
	CheckIBAN      bool `mapstructure:"check_iban"`
	CheckSanctions bool `mapstructure:"check_sanctions"`
}

// DefaultValidationRules returns the rule set applied when none is
// configured.
func DefaultValidationRules() ValidationRules {
	return ValidationRules{
		CheckSwift:     true,
		CheckIBAN:      true,
		CheckSanctions: false,
	}
}

// Config holds the orchestrator settings.
type Config struct {
	Rules ValidationRules

	// PersistTimeout bounds the database writes of one order.
	PersistTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Rules:          DefaultValidationRules(),
		PersistTimeout: 10 * time.Second,
	}
}

// BankVerifier resolves a SWIFT code and checks it against the claimed
// bank name.
type BankVerifier interface {
	Verify(ctx context.Context, swiftCode, bankName string) (bool, string, string)
}

// SanctionsScreener screens a beneficiary against sanctions lists.
type SanctionsScreener interface {
	Screen(ctx context.Context, name, address string) *sanctions.ScreeningResult
}

// OrderStore persists validated orders and their audit trail.
type OrderStore interface {
	CreateOrder(ctx context.Context, ord *models.Order) error
	AppendAudit(ctx context.Context, entry *models.AuditEntry) error
}

// Bookkeeper mirrors validated orders into the operational ledgers.
type Bookkeeper interface {
	Process(ctx context.Context, fields *models.OrderFields) *models.ValidationOutcome
}

// Status classifies the final disposition of one message.
type Status string

const (
	// StatusNotAnOrder marks text without an order-reference label.
	StatusNotAnOrder Status = "not_an_order"

	// StatusRejected marks an order that failed format or validation.
	StatusRejected Status = "rejected"

	// StatusPersisted marks a fully validated, saved order.
	StatusPersisted Status = "persisted"
)

// Result is the outcome of processing one message.
type Result struct {
	Status  Status
	Fields  *models.OrderFields
	Outcome *models.ValidationOutcome

	// Report is the operator-facing rendering of the outcome. Empty for
	// messages that are not orders.
	Report string
}

// Orchestrator drives the verification pipeline.
type Orchestrator struct {
	config   *Config
	verifier BankVerifier
	screener SanctionsScreener
	orders   OrderStore
	books    Bookkeeper
	logger   logger.Logger
}

// NewOrchestrator creates an Orchestrator. The verifier is required when
// SWIFT checking is enabled, the screener when sanctions checking is
// enabled; the store and bookkeeper may be nil to skip persistence and
// ledger writes.
func NewOrchestrator(config *Config, verifier BankVerifier, screener SanctionsScreener, orders OrderStore, books Bookkeeper) (*Orchestrator, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.PersistTimeout <= 0 {
		config.PersistTimeout = 10 * time.Second
	}
	if config.Rules.CheckSwift && verifier == nil {
		return nil, errors.New("SWIFT checking enabled but no bank verifier provided")
	}
	if config.Rules.CheckSanctions && screener == nil {
		return nil, errors.New("sanctions checking enabled but no screener provided")
	}

	return &Orchestrator{
		config:   config,
		verifier: verifier,
		screener: screener,
		orders:   orders,
		books:    books,
		logger:   logger.WithComponent("pipeline"),
	}, nil
}

// ProcessMessage runs the full pipeline over one inbound message.
func (o *Orchestrator) ProcessMessage(ctx context.Context, text string) *Result {
	formatOK, diagnostic := extractor.ValidateFormat(text)
	if !formatOK {
		if diagnostic == "" {
			return &Result{Status: StatusNotAnOrder}
		}
		o.logger.WithField("diagnostic", diagnostic).Info("Order message failed format validation")
		return &Result{Status: StatusRejected, Report: diagnostic}
	}

	fields := extractor.Extract(text)
	log := o.logger.WithField("order_ref", fields.OrderRef)
	log.Info("Processing order message")

	outcome := models.NewValidationOutcome()
	outcome.Merge(o.checkRequiredFields(fields))

	bankOutcome, sanctionsOutcome := o.checkExternal(ctx, fields)
	outcome.Merge(bankOutcome)
	outcome.Merge(sanctionsOutcome)

	if !outcome.IsValid() {
		log.WithField("failed_checks", len(outcome.Failed)).Warn("Order rejected")
		return &Result{
			Status:  StatusRejected,
			Fields:  fields,
			Outcome: outcome,
			Report:  reporter.FormatValidationReport(outcome),
		}
	}

	outcome.Merge(o.persist(ctx, fields, outcome))
	if !outcome.IsValid() {
		return &Result{
			Status:  StatusRejected,
			Fields:  fields,
			Outcome: outcome,
			Report:  reporter.FormatValidationReport(outcome),
		}
	}

	if o.books != nil {
		outcome.Merge(o.books.Process(ctx, fields))
	}

	log.Info("Order validated and persisted")
	return &Result{
		Status:  StatusPersisted,
		Fields:  fields,
		Outcome: outcome,
		Report:  reporter.FormatSuccessReport(fields, outcome),
	}
}

// checkRequiredFields verifies the presence of every mandatory field and
// that at least one account identifier was supplied. All gaps are
// accumulated; nothing short-circuits here.
func (o *Orchestrator) checkRequiredFields(fields *models.OrderFields) *models.ValidationOutcome {
	outcome := models.NewValidationOutcome()

	if !fields.HasAccountInfo() {
		outcome.Fail("❌ *Account Information*: Either IBAN or Account Number is required")
	}

	required := []struct{ label, value string }{
		{"SWIFT Code", fields.SwiftCode},
		{"Bank Name", fields.BankName},
		{"Order Reference", fields.OrderRef},
		{"Currency", fields.Currency},
		{"Amount", fields.Amount},
		{"Beneficiary Name", fields.BeneficiaryName},
	}
	for _, field := range required {
		if field.value == "" {
			outcome.Fail("❌ *%s*: Missing", field.label)
		}
	}

	if fields.Amount != "" {
		if _, err := fields.ParsedAmount(); err != nil {
			outcome.Fail("❌ *Amount*: Invalid amount format")
		}
	}

	return outcome
}

// checkExternal dispatches the bank-identifier lookup and the sanctions
// screening concurrently and folds each into its own outcome. The two
// outcomes are returned separately so the caller merges them in a fixed
// order regardless of which finished first.
func (o *Orchestrator) checkExternal(ctx context.Context, fields *models.OrderFields) (*models.ValidationOutcome, *models.ValidationOutcome) {
	var (
		bankOutcome      *models.ValidationOutcome
		sanctionsOutcome *models.ValidationOutcome
	)

	g, gctx := errgroup.WithContext(ctx)

	if o.config.Rules.CheckSwift || o.config.Rules.CheckIBAN || fields.IBAN != "" {
		g.Go(func() error {
			bankOutcome = o.checkBankDetails(gctx, fields)
			return nil
		})
	}

	if o.config.Rules.CheckSanctions {
		g.Go(func() error {
			sanctionsOutcome = o.checkSanctions(gctx, fields)
			return nil
		})
	}

	g.Wait()
	return bankOutcome, sanctionsOutcome
}

// checkBankDetails runs the SWIFT lookup and the IBAN requirement and
// checksum checks. A SWIFT failure is a warning, not a rejection; a
// missing-but-required or invalid IBAN rejects the order.
func (o *Orchestrator) checkBankDetails(ctx context.Context, fields *models.OrderFields) *models.ValidationOutcome {
	outcome := models.NewValidationOutcome()

	var swiftCountry string
	if o.config.Rules.CheckSwift && fields.SwiftCode != "" {
		swiftValid, swiftMessage, country := o.verifier.Verify(ctx, fields.SwiftCode, fields.BankName)
		swiftCountry = country
		outcome.BankCountry = country

		if swiftValid {
			outcome.Pass("✅ *SWIFT Verification*: Valid")
		} else {
			outcome.Warn("⚠️ *SWIFT Verification Warning*:\n%s", swiftMessage)
		}
	}

	effectiveCountry := swiftCountry
	if effectiveCountry == "" {
		effectiveCountry = fields.BankCountry
	}

	needsIBAN := fields.IBAN != "" ||
		(o.config.Rules.CheckIBAN && effectiveCountry != "" && iban.RequiresIBAN(effectiveCountry))
	if !needsIBAN {
		return outcome
	}

	if fields.IBAN == "" {
		outcome.Fail("❌ *IBAN Required*:\n• Country %s requires IBAN\n• Please provide a valid IBAN",
			effectiveCountry)
		return outcome
	}

	ibanValid, ibanMessage := iban.Validate(fields.IBAN)
	if ibanValid {
		outcome.Pass("✅ *IBAN Verification*: Valid")
	} else {
		outcome.Fail("❌ *IBAN Verification*: %s", ibanMessage)
	}
	return outcome
}

// checkSanctions screens the beneficiary and folds the formatted
// screening report into the outcome.
func (o *Orchestrator) checkSanctions(ctx context.Context, fields *models.OrderFields) *models.ValidationOutcome {
	outcome := models.NewValidationOutcome()

	if fields.BeneficiaryName == "" {
		outcome.Fail("❌ *Sanctions Check*: Missing beneficiary name")
		return outcome
	}

	result := o.screener.Screen(ctx, fields.BeneficiaryName, fields.BeneficiaryAddress)
	message := sanctions.FormatMessage(fields.BeneficiaryName, result)
	if result.IsClean() {
		outcome.Pass("%s", message)
	} else {
		outcome.Fail("%s", message)
	}
	return outcome
}

// persist saves the order and its audit entry under the persistence
// timeout. A duplicate order reference rejects the order; any other
// database failure degrades to a warning so a storage outage does not
// block the flow.
func (o *Orchestrator) persist(ctx context.Context, fields *models.OrderFields, validated *models.ValidationOutcome) *models.ValidationOutcome {
	outcome := models.NewValidationOutcome()
	if o.orders == nil {
		return outcome
	}

	ctx, cancel := context.WithTimeout(ctx, o.config.PersistTimeout)
	defer cancel()

	amount, err := fields.ParsedAmount()
	if err != nil {
		outcome.Warn("⚠️ *Database*: Failed to save order")
		return outcome
	}

	bankCountry := validated.BankCountry
	if bankCountry == "" {
		bankCountry = fields.BankCountry
	}

	accountNumber := fields.AccountNumber
	if accountNumber == "" {
		accountNumber = fields.IBAN
	}

	ord := &models.Order{
		OrderRef:           fields.OrderRef,
		SwiftCode:          fields.SwiftCode,
		BankName:           fields.BankName,
		BankCountry:        bankCountry,
		AccountNumber:      accountNumber,
		BeneficiaryName:    fields.BeneficiaryName,
		Currency:           fields.Currency,
		Amount:             amount,
		AgentCode:          "HD",
		ClientCode:         "VR",
		PayoutCompany:      fields.PayoutCompany,
		Rate:               models.PayoutRate(fields.PayoutCompany),
		ValidationMessages: validationSummary(validated),
		Status:             models.StatusPending,
	}

	if err := o.orders.CreateOrder(ctx, ord); err != nil {
		if errors.Is(err, store.ErrDuplicateOrder) {
			o.logger.WithField("order_ref", ord.OrderRef).Warn("Duplicate order reference")
			outcome.Fail("❌ *Duplicate Order*: Reference %s was already processed", ord.OrderRef)
			return outcome
		}
		o.logger.WithError(err).Error("Failed to save order")
		outcome.Warn("⚠️ *Database*: Failed to save order")
		return outcome
	}
	outcome.Pass("✅ *Database*: Order saved successfully")

	audit := &models.AuditEntry{
		Action:  "order_created",
		Details: ord.OrderRef,
		OrderID: ord.ID,
	}
	if err := o.orders.AppendAudit(ctx, audit); err != nil {
		o.logger.WithError(err).Warn("Failed to append audit entry")
	}

	return outcome
}

// validationSummary flattens the checks recorded so far for storage
// alongside the order.
func validationSummary(outcome *models.ValidationOutcome) string {
	entries := make([]string, 0, len(outcome.Passed)+len(outcome.Warnings))
	entries = append(entries, outcome.Passed...)
	entries = append(entries, outcome.Warnings...)
	return strings.Join(entries, "\n")
}
