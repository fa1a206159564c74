// Package sheets mirrors validated orders into the operational
// bookkeeping spreadsheets.
//
// Three ledgers are maintained: the internal order log, the rate ledger
// keyed by order reference, and the payout ledger whose target sheet
// depends on the payout company. Ledger writes are best-effort; a failed
// write degrades to a warning upstream and never blocks an order.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"order-verification-service/internal/models"
	"order-verification-service/pkg/logger"
)

// Config holds the settings for the spreadsheet API client.
type Config struct {
	// BaseURL is the spreadsheet service root.
	BaseURL string

	// APIKey is sent as the X-Api-Key header on every request.
	APIKey string

	// SpreadsheetID identifies the workbook holding the ledgers.
	SpreadsheetID string

	// Timeout bounds each spreadsheet request.
	Timeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Timeout: 20 * time.Second,
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}
	if c.SpreadsheetID == "" {
		return fmt.Errorf("spreadsheet ID cannot be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	return nil
}

// Client talks to the spreadsheet service for one workbook.
type Client struct {
	config     *Config
	httpClient *http.Client
	logger     logger.Logger
}

// NewClient creates a Client with the given configuration.
func NewClient(config *Config) (*Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sheets client config: %w", err)
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger.WithComponent("sheets"),
	}, nil
}

type valueRange struct {
	Values [][]string `json:"values"`
}

func (c *Client) rangeURL(a1Range string) string {
	return fmt.Sprintf("%s/spreadsheets/%s/values/%s",
		strings.TrimRight(c.config.BaseURL, "/"),
		url.PathEscape(c.config.SpreadsheetID),
		url.PathEscape(a1Range))
}

func (c *Client) do(req *http.Request, out interface{}) error {
	req.Header.Set("Accept", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("X-Api-Key", c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("spreadsheet service returned status %d", resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode spreadsheet response: %w", err)
		}
	}
	return nil
}

// ColumnValues fetches every populated cell of one column.
func (c *Client) ColumnValues(ctx context.Context, sheetName, column string) ([]string, error) {
	a1 := fmt.Sprintf("'%s'!%s:%s", sheetName, column, column)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.rangeURL(a1), nil)
	if err != nil {
		return nil, err
	}

	var vr valueRange
	if err := c.do(req, &vr); err != nil {
		return nil, fmt.Errorf("read column %s of %s: %w", column, sheetName, err)
	}

	values := make([]string, 0, len(vr.Values))
	for _, row := range vr.Values {
		if len(row) > 0 {
			values = append(values, row[0])
		} else {
			values = append(values, "")
		}
	}
	return values, nil
}

// UpdateRange writes a block of values at an A1 range.
func (c *Client) UpdateRange(ctx context.Context, a1Range string, values [][]string) error {
	body, err := json.Marshal(valueRange{Values: values})
	if err != nil {
		return fmt.Errorf("encode values for %s: %w", a1Range, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.rangeURL(a1Range), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("update range %s: %w", a1Range, err)
	}
	return nil
}

// AppendRow writes a row directly after the last populated row of the
// anchor column.
func (c *Client) AppendRow(ctx context.Context, sheetName, anchorColumn string, row []string) error {
	existing, err := c.ColumnValues(ctx, sheetName, anchorColumn)
	if err != nil {
		return err
	}
	nextRow := len(existing) + 1

	endColumn := rune(anchorColumn[0]) + rune(len(row)-1)
	a1 := fmt.Sprintf("'%s'!%s%d:%c%d", sheetName, anchorColumn, nextRow, endColumn, nextRow)
	return c.UpdateRange(ctx, a1, [][]string{row})
}

// UpdateValueByMatch finds the row whose search-column cell equals the
// search value and rewrites the target-column cell of that row.
func (c *Client) UpdateValueByMatch(ctx context.Context, sheetName, searchColumn, searchValue, targetColumn, newValue string) error {
	values, err := c.ColumnValues(ctx, sheetName, searchColumn)
	if err != nil {
		return err
	}

	for i, v := range values {
		if strings.TrimSpace(v) == searchValue {
			a1 := fmt.Sprintf("'%s'!%s%d", sheetName, targetColumn, i+1)
			return c.UpdateRange(ctx, a1, [][]string{{newValue}})
		}
	}
	return fmt.Errorf("no row in %s column %s matches %q", sheetName, searchColumn, searchValue)
}

// Ledger sheet names.
const (
	internalSheet = "Orders"
	rateSheet     = "Dec Orders"
	celesSheet    = "Thai Tony Orders"
	waterSheet    = "Water Orders"
)

// Bookkeeper mirrors validated orders into the three ledgers.
type Bookkeeper struct {
	client *Client
	logger logger.Logger
}

// NewBookkeeper creates a Bookkeeper over the given spreadsheet client.
func NewBookkeeper(client *Client) *Bookkeeper {
	return &Bookkeeper{
		client: client,
		logger: logger.WithComponent("bookkeeper"),
	}
}

// Process mirrors one validated order into all ledgers. Failures degrade
// to warnings in the returned outcome; the internal-log write is the only
// one surfaced as a pass when it succeeds.
func (b *Bookkeeper) Process(ctx context.Context, fields *models.OrderFields) *models.ValidationOutcome {
	outcome := models.NewValidationOutcome()
	rate := models.PayoutRate(fields.PayoutCompany)

	if err := b.recordOrder(ctx, fields); err != nil {
		b.logger.WithError(err).Warn("Failed to record order in internal ledger")
		outcome.Warn("⚠️ *Database*: Failed to save order details")
	} else {
		outcome.Pass("✅ *Database*: Order details saved")
	}

	if err := b.updateRateLedger(ctx, fields, rate.String()); err != nil {
		b.logger.WithError(err).Warn("Failed to update rate ledger")
		outcome.Warn("⚠️ *Sheet Processing*: %v", err)
	}

	if err := b.appendPayoutRow(ctx, fields); err != nil {
		b.logger.WithError(err).Warn("Failed to update payout ledger")
		outcome.Warn("⚠️ *Sheet Processing*: %v", err)
	}

	return outcome
}

// recordOrder appends the order to the internal log.
func (b *Bookkeeper) recordOrder(ctx context.Context, fields *models.OrderFields) error {
	return b.client.AppendRow(ctx, internalSheet, "A", []string{
		fields.OrderRef,
		fields.Amount,
		fields.Currency,
		fields.PayoutCompany,
		fields.BeneficiaryName,
		fields.SwiftCode,
		fields.BankName,
	})
}

// updateRateLedger rewrites the amount, currency and rate cells of the
// ledger row keyed by the order reference in column C.
func (b *Bookkeeper) updateRateLedger(ctx context.Context, fields *models.OrderFields, rate string) error {
	updates := []struct{ column, value string }{
		{"D", fields.Amount},
		{"E", fields.Currency},
		{"I", rate},
	}
	for _, u := range updates {
		if err := b.client.UpdateValueByMatch(ctx, rateSheet, "C", fields.OrderRef, u.column, u.value); err != nil {
			return err
		}
	}
	return nil
}

// appendPayoutRow routes the order to the payout ledger matching its
// payout company. Companies without a ledger are skipped.
func (b *Bookkeeper) appendPayoutRow(ctx context.Context, fields *models.OrderFields) error {
	company := strings.ToUpper(fields.PayoutCompany)
	currency := models.BookkeepingCurrency(fields.Currency)

	switch {
	case strings.Contains(company, "CELES"):
		return b.client.AppendRow(ctx, celesSheet, "C", []string{
			fields.OrderRef, "Order Sent", fields.Amount, currency,
		})
	case strings.Contains(company, "EUR"), strings.Contains(company, "SENIBO"):
		return b.client.AppendRow(ctx, waterSheet, "C", []string{
			fields.OrderRef, "Order Sent", fields.Amount, currency, fields.PayoutCompany,
		})
	default:
		b.logger.WithField("payout_company", fields.PayoutCompany).
			Debug("No payout ledger for company, skipping")
		return nil
	}
}
