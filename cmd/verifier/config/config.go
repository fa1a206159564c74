package config

import (
	"fmt"
	"time"

	"order-verification-service/internal/pipeline"
	"order-verification-service/internal/reporter"
	"order-verification-service/internal/sanctions"
	"order-verification-service/internal/sheets"
	"order-verification-service/internal/swift"
	"order-verification-service/pkg/logger"
)

// CreateSwiftConfig creates a bank-identifier client configuration
func CreateSwiftConfig(baseURL, apiKey string, timeout time.Duration) (*swift.Config, error) {
	config := swift.DefaultConfig()
	config.BaseURL = baseURL
	config.APIKey = apiKey
	if timeout > 0 {
		config.Timeout = timeout
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid SWIFT lookup config: %w", err)
	}
	return config, nil
}

// CreateSanctionsConfig creates a sanctions screening client configuration
func CreateSanctionsConfig(baseURL, apiKey string, timeout time.Duration) (*sanctions.Config, error) {
	config := sanctions.DefaultConfig()
	config.BaseURL = baseURL
	config.APIKey = apiKey
	if timeout > 0 {
		config.Timeout = timeout
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sanctions config: %w", err)
	}
	return config, nil
}

// CreateSheetsConfig creates a spreadsheet client configuration
func CreateSheetsConfig(baseURL, apiKey, spreadsheetID string, timeout time.Duration) (*sheets.Config, error) {
	config := sheets.DefaultConfig()
	config.BaseURL = baseURL
	config.APIKey = apiKey
	config.SpreadsheetID = spreadsheetID
	if timeout > 0 {
		config.Timeout = timeout
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid spreadsheet config: %w", err)
	}
	return config, nil
}

// CreatePipelineConfig creates an orchestrator configuration with the
// specified validation rules
func CreatePipelineConfig(checkSwift, checkIBAN, checkSanctions bool) *pipeline.Config {
	config := pipeline.DefaultConfig()

	// Apply CLI overrides
	config.Rules.CheckSwift = checkSwift
	config.Rules.CheckIBAN = checkIBAN
	config.Rules.CheckSanctions = checkSanctions

	return config
}

// CreateReporter creates a report renderer for the given output format
func CreateReporter(outputFormat string) (*reporter.Reporter, error) {
	return reporter.NewReporter(reporter.OutputFormat(outputFormat))
}

// CreateLoggerConfig creates a logger configuration for CLI usage. Logs
// go to stderr so stdout stays clean for the report output.
func CreateLoggerConfig(verbose bool) *logger.Config {
	config := logger.DefaultConfig()
	config.Output = logger.StderrOutput
	if verbose {
		config.Level = logger.DebugLevel
	} else {
		config.Level = logger.WarnLevel
	}
	return config
}
