package cmd

import (
	"fmt"
	"os"
	"strings"

	"order-verification-service/pkg/errors"
	"order-verification-service/pkg/logger"

	"github.com/spf13/viper"
)

// CLIErrorHandler provides user-friendly error handling for CLI operations
type CLIErrorHandler struct {
	logger  logger.Logger
	verbose bool
}

// NewCLIErrorHandler creates a new CLI error handler
func NewCLIErrorHandler() *CLIErrorHandler {
	return &CLIErrorHandler{
		logger:  logger.GetGlobalLogger().WithComponent("cli"),
		verbose: viper.GetBool("verbose"),
	}
}

// HandleError handles errors and provides user-friendly messages
func (h *CLIErrorHandler) HandleError(err error) int {
	if err == nil {
		return 0
	}

	// Log the error
	h.logger.WithError(err).Error("Command failed")

	// Handle VerifierError with detailed information
	if verifierErr, ok := errors.AsVerifierError(err); ok {
		return h.handleVerifierError(verifierErr)
	}

	// Handle other error types
	return h.handleGenericError(err)
}

// handleVerifierError handles VerifierError with detailed context
func (h *CLIErrorHandler) handleVerifierError(err *errors.VerifierError) int {
	// Print the main error message
	fmt.Fprintf(os.Stderr, "Error: %s\n", err.Message)

	// Add context information if available
	if len(err.Context) > 0 {
		fmt.Fprintf(os.Stderr, "\nContext:\n")
		for key, value := range err.Context {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", key, value)
		}
	}

	// Add suggestion if available
	if err.Suggestion != "" {
		fmt.Fprintf(os.Stderr, "\nSuggestion: %s\n", err.Suggestion)
	}

	// Add category-specific help
	fmt.Fprintf(os.Stderr, "\n%s\n", h.getCategoryHelp(err.Category))

	// Show underlying error in verbose mode
	if h.verbose && err.Cause != nil {
		fmt.Fprintf(os.Stderr, "\nUnderlying error: %v\n", err.Cause)
	}

	return err.GetExitCode()
}

// handleGenericError handles non-VerifierError types
func (h *CLIErrorHandler) handleGenericError(err error) int {
	// Check for common system errors and provide better messages
	if h.isFileNotFoundError(err) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintf(os.Stderr, "Suggestion: Check if the file path is correct and the file exists\n")
		return 2
	}

	if h.isPermissionError(err) {
		fmt.Fprintf(os.Stderr, "Error: Permission denied\n")
		fmt.Fprintf(os.Stderr, "Suggestion: Check file permissions and ensure you have read access\n")
		return 2
	}

	// Generic error handling
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)

	if !h.verbose {
		fmt.Fprintf(os.Stderr, "\nFor more details, run with the --verbose flag\n")
	}

	return 1
}

// getCategoryHelp returns category-specific help text
func (h *CLIErrorHandler) getCategoryHelp(category errors.ErrorCategory) string {
	switch category {
	case errors.CategoryMessage:
		return `Message error help:
• Check that the message contains every required field label
• Labels must be followed by a colon and the value
• Use 'verifier process --help' for the expected message layout`

	case errors.CategoryValidation:
		return `Validation error help:
• Check that all required fields have values
• Verify the IBAN and SWIFT code were copied correctly
• Ensure the amount is a decimal number without currency symbols`

	case errors.CategoryScreening:
		return `Screening error help:
• Check that the screening service is reachable
• Verify sanctions.base_url and sanctions.api_key are correct
• Screening can be disabled with --check-sanctions=false`

	case errors.CategoryPersistence, errors.CategoryLedger:
		return `Storage error help:
• Check that the database and spreadsheet services are reachable
• Verify database.dsn and the sheets settings in your config
• Accepted orders are reported even when recording them fails`

	case errors.CategoryConfiguration:
		return `Configuration error help:
• Check your command-line flags and arguments
• Verify configuration file syntax if using --config
• Settings can also come from VERIFIER_* environment variables
• Use 'verifier process --help' to see all available options`

	case errors.CategoryNetwork:
		return `Network error help:
• Check your network connection and any proxy settings
• Verify the configured service URLs are correct
• The remote service may be down; try again later`

	default:
		return `For more help:
• Use 'verifier --help' for general help
• Use 'verifier process --help' for command-specific help
• Check the documentation for detailed examples`
	}
}

// Error detection helpers

func (h *CLIErrorHandler) isFileNotFoundError(err error) bool {
	return os.IsNotExist(err) || strings.Contains(err.Error(), "no such file or directory") ||
		strings.Contains(err.Error(), "does not exist")
}

func (h *CLIErrorHandler) isPermissionError(err error) bool {
	return os.IsPermission(err) ||
		strings.Contains(err.Error(), "permission denied") ||
		strings.Contains(err.Error(), "access denied")
}
