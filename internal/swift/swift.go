// Package swift resolves SWIFT/BIC codes against a bank-identifier API
// and cross-checks the claimed bank name of an order against the
// registered institution.
package swift

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/pkg/errors"

	"order-verification-service/pkg/logger"
)

// Config holds the settings for the bank-identifier API client.
type Config struct {
	// BaseURL is the lookup endpoint; the cleaned SWIFT code is appended
	// as the final path segment.
	BaseURL string

	// APIKey is sent as the X-Api-Key header on every request.
	APIKey string

	// Timeout bounds each lookup request.
	Timeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Timeout: 15 * time.Second,
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}
	if c.APIKey == "" {
		return fmt.Errorf("API key cannot be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	return nil
}

// Client verifies SWIFT codes through the bank-identifier API.
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
		return nil, fmt.Errorf("invalid swift client config: %w", err)
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger.WithComponent("swift"),
	}, nil
}

// lookupResponse is the API envelope for a SWIFT code lookup.
type lookupResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Bank struct {
			Name string `json:"name"`
		} `json:"bank"`
		BranchName string `json:"branch_name"`
		Address    string `json:"address"`
		Country    struct {
			Name string `json:"name"`
		} `json:"country"`
	} `json:"data"`
}

// companyDesignations are tokens dropped during name normalization; they
// carry no identity and differ freely between order text and registry.
var companyDesignations = map[string]struct{}{
	"CO": {}, "LTD": {}, "COLTD": {},
}

// CleanText normalizes a bank name or code for comparison: punctuation
// removed, uppercased, company designation tokens dropped, whitespace
// collapsed to single spaces.
func CleanText(text string) string {
	var b strings.Builder
	for _, r := range text {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}

	words := strings.Fields(b.String())
	kept := words[:0]
	for _, word := range words {
		if _, drop := companyDesignations[word]; !drop {
			kept = append(kept, word)
		}
	}
	return strings.Join(kept, " ")
}

// CountryFromSwift extracts the ISO country code embedded in positions
// five and six of a SWIFT/BIC code. Empty when the code is too short.
func CountryFromSwift(swiftCode string) string {
	if len(swiftCode) < 6 {
		return ""
	}
	return strings.ToUpper(swiftCode[4:6])
}

// Verify looks up the SWIFT code and, when a bank name was claimed,
// checks that the registered name and the claimed name agree. Agreement
// is substring containment in either direction after normalization.
//
// It returns whether verification passed, a human-readable message, and
// the bank's country name. The country is returned whenever the lookup
// itself succeeded, including on a name mismatch, so the caller can still
// make country-dependent decisions.
func (c *Client) Verify(ctx context.Context, swiftCode, bankName string) (bool, string, string) {
	cleaned := CleanText(swiftCode)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/%s", strings.TrimRight(c.config.BaseURL, "/"), cleaned), nil)
	if err != nil {
		c.logger.WithError(err).Error("Failed to build SWIFT lookup request")
		return false, fmt.Sprintf("❌ SWIFT verification failed: %v", err), ""
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Api-Key", c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).Error("SWIFT lookup request failed")
		return false, fmt.Sprintf("❌ SWIFT verification failed: %v", err), ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.WithFields(logger.Fields{
			"swift_code": swiftCode,
			"status":     resp.StatusCode,
		}).Warn("SWIFT lookup returned non-OK status")
		return false, fmt.Sprintf("❌ Invalid SWIFT code: %s", swiftCode), ""
	}

	var lookup lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&lookup); err != nil {
		err = errors.Wrap(err, "decoding SWIFT lookup response")
		c.logger.WithError(err).Error("SWIFT lookup response malformed")
		return false, fmt.Sprintf("❌ SWIFT verification failed: %v", err), ""
	}
	if !lookup.Success {
		return false, fmt.Sprintf("❌ Invalid SWIFT code: %s", swiftCode), ""
	}

	registeredName := lookup.Data.Bank.Name
	branchName := lookup.Data.BranchName
	address := lookup.Data.Address
	if address == "" {
		address = "N/A"
	}
	country := lookup.Data.Country.Name

	if bankName != "" {
		normalizedRegistered := CleanText(registeredName)
		normalizedClaimed := CleanText(bankName)

		c.logger.WithFields(logger.Fields{
			"registered": normalizedRegistered,
			"claimed":    normalizedClaimed,
		}).Debug("Comparing normalized bank names")

		if !strings.Contains(normalizedClaimed, normalizedRegistered) &&
			!strings.Contains(normalizedRegistered, normalizedClaimed) {
			return false, fmt.Sprintf(
				"❌ Bank name mismatch!\n\n"+
					"PROVIDED BANK NAME:\n%s\n(Normalized: %s)\n\n"+
					"SWIFT BANK NAME:\n%s\n(Normalized: %s)\n\n"+
					"SWIFT Bank Branch: %s\n"+
					"\nNote: The SWIFT bank name should be part of the provided bank name.",
				bankName, normalizedClaimed,
				registeredName, normalizedRegistered,
				branchName), country
		}
	}

	return true, fmt.Sprintf(
		"Order Bank Name: %s\nSwift Bank Name: %s\nBranch: %s\nAddress: %s\n",
		bankName, registeredName, branchName, address), country
}
