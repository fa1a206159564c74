// Package sanctions screens beneficiaries against a sanctions-list API.
// A beneficiary name is expanded into a set of spelling variations before
// screening so that registry entries with or without corporate suffixes
// still match.
package sanctions

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"order-verification-service/pkg/logger"
)

// Config holds the settings for the sanctions screening API client.
type Config struct {
	// BaseURL is the API root; /checkEntity is appended for screening.
	BaseURL string

	// APIKey is sent as the x-api-key header on every request.
	APIKey string

	// Timeout bounds each screening request.
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

// Client screens entities through the sanctions-list API.
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
		return nil, fmt.Errorf("invalid sanctions client config: %w", err)
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger.WithComponent("sanctions"),
	}, nil
}

// FoundRecord is one sanctioned-entity record returned by the API.
type FoundRecord struct {
	Name            string   `json:"name"`
	SourceType      string   `json:"source_type"`
	Address         []string `json:"address"`
	SanctionDetails []string `json:"sanction_details"`
}

// ScreeningResult is the outcome of screening one beneficiary.
type ScreeningResult struct {
	TotalHits        int           `json:"total_hits"`
	FoundRecords     []FoundRecord `json:"found_records"`
	MatchedVariation string        `json:"matched_variation"`

	// Variations are the name spellings submitted for screening.
	Variations []string `json:"name_variations"`
}

// IsClean reports whether the screening produced no hits.
func (r *ScreeningResult) IsClean() bool {
	return r.TotalHits == 0
}

var (
	strippedPunctuation = regexp.MustCompile(`[(),.]`)
	multiSpace          = regexp.MustCompile(`\s+`)
	suffixTokens        = regexp.MustCompile(`(?i)\b(Co|Ltd|Limited|Import|Export|Company|Foreign|Trade|Trading|COLTD|and)\b`)
)

// NameVariations expands a company name into the distinct spellings
// submitted for screening: the cleaned name, a base name with corporate
// suffix and descriptor tokens removed, and, for names carrying a
// parenthesized qualifier, the part before the first parenthesis.
// Order of first appearance is preserved.
func NameVariations(name string) []string {
	cleaned := strings.ReplaceAll(name, "&", "and")
	cleaned = strippedPunctuation.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(multiSpace.ReplaceAllString(cleaned, " "))

	base := suffixTokens.ReplaceAllString(cleaned, "")
	base = strings.TrimSpace(multiSpace.ReplaceAllString(base, " "))

	candidates := []string{cleaned, base}
	if idx := strings.Index(name, "("); idx >= 0 {
		candidates = append(candidates, strings.TrimSpace(name[:idx]))
	}

	seen := make(map[string]struct{}, len(candidates))
	variations := make([]string, 0, len(candidates))
	for _, v := range candidates {
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		variations = append(variations, v)
	}
	return variations
}

// Screen checks a beneficiary against the sanctions lists. A transport
// failure or a non-OK response degrades to a zero-hit result so that an
// unavailable screening service never blocks the pipeline; the degradation
// is logged.
func (c *Client) Screen(ctx context.Context, name, address string) *ScreeningResult {
	variations := NameVariations(name)
	result := &ScreeningResult{Variations: variations}

	query := url.Values{}
	query.Set("names", strings.Join(variations, ","))
	if address != "" {
		query.Set("address", address)
	}

	endpoint := fmt.Sprintf("%s/checkEntity?%s",
		strings.TrimRight(c.config.BaseURL, "/"), query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		c.logger.WithError(err).Error("Failed to build sanctions screening request")
		return result
	}
	req.Header.Set("x-api-key", c.config.APIKey)

	c.logger.WithFields(logger.Fields{
		"beneficiary": name,
		"variations":  len(variations),
	}).Info("Screening beneficiary against sanctions lists")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).Warn("Sanctions screening unavailable, treating as zero hits")
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.WithField("status", resp.StatusCode).
			Warn("Sanctions screening returned non-OK status, treating as zero hits")
		return result
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		c.logger.WithError(err).Warn("Sanctions screening response malformed, treating as zero hits")
		return &ScreeningResult{Variations: variations}
	}
	result.Variations = variations
	return result
}

// FormatMessage renders a screening result as the report block shown to
// operators: the matched record for a hit, or the list of spellings
// checked for a clean result.
func FormatMessage(beneficiaryName string, result *ScreeningResult) string {
	if result.TotalHits > 0 && len(result.FoundRecords) > 0 {
		record := result.FoundRecords[0]

		foundName := record.Name
		if foundName == "" {
			foundName = "Unknown"
		}
		sourceType := record.SourceType
		if sourceType == "" {
			sourceType = "Unknown"
		}
		addressStr := "No address available"
		if len(record.Address) > 0 {
			addressStr = strings.Join(record.Address, ", ")
		}
		detailsStr := "No details available"
		if len(record.SanctionDetails) > 0 {
			detailsStr = strings.Join(record.SanctionDetails, "\n• ")
		}
		variationInfo := ""
		if result.MatchedVariation != "" {
			variationInfo = fmt.Sprintf("\nMatched Variation: `%s`", result.MatchedVariation)
		}

		return fmt.Sprintf(
			"🚫 *SANCTIONS CHECK FAILED*\n\n"+
				"Company: `%s`%s\n"+
				"Matched Entity: `%s`\n"+
				"Source Type: `%s`\n"+
				"Address: `%s`\n\n"+
				"Sanction Details:\n• %s\n\n"+
				"Status: ❌ SANCTIONED\n\n"+
				"⚠️ This transaction cannot proceed due to sanctions.",
			beneficiaryName, variationInfo, foundName, sourceType, addressStr, detailsStr)
	}

	quoted := make([]string, len(result.Variations))
	for i, v := range result.Variations {
		quoted[i] = fmt.Sprintf("`%s`", v)
	}
	return fmt.Sprintf(
		"✅ *SANCTIONS CHECK PASSED*\n\n*Name Variations Checked*:\n• %s\n",
		strings.Join(quoted, "\n• "))
}
