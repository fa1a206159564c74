package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"order-verification-service/cmd/verifier/config"
	"order-verification-service/internal/pipeline"
	"order-verification-service/internal/reporter"
	"order-verification-service/internal/sanctions"
	"order-verification-service/internal/sheets"
	"order-verification-service/internal/store"
	"order-verification-service/internal/swift"
	"order-verification-service/pkg/errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the process command
var (
	messageFile    string
	outputFormat   string
	outputFile     string
	processTimeout time.Duration

	// Validation rule flags
	checkSwift     bool
	checkIBAN      bool
	checkSanctions bool
)

// processCmd represents the process command
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Validate a transfer order message",
	Long: `Process reads one free-text order message, validates its format and
fields, runs the configured bank and sanctions checks, and prints the
resulting report. Accepted orders are saved to the database and mirrored
into the bookkeeping sheets when those backends are configured.

The SWIFT lookup requires swift.base_url and swift.api_key, sanctions
screening requires sanctions.base_url and sanctions.api_key, persistence
requires database.dsn, and the ledger mirror requires the sheets settings.
All of these come from the config file or VERIFIER_* environment variables.

Examples:
  # Validate a message from a file
  verifier process --message-file order.txt

  # Read the message from stdin
  cat order.txt | verifier process --message-file -

  # Machine-readable output with sanctions screening
  verifier process --message-file order.txt --output-format json --check-sanctions

  # Skip the SWIFT registry lookup
  verifier process --message-file order.txt --check-swift=false`,

	PreRunE: validateProcessFlags,
	RunE:    runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	// Required flags
	processCmd.Flags().StringVarP(&messageFile, "message-file", "m", "", "path to the order message text file, or - for stdin (required)")

	// Output flags
	processCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "markdown", "output format: markdown, json")
	processCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")

	// Validation rule flags
	processCmd.Flags().BoolVar(&checkSwift, "check-swift", true, "verify the SWIFT code against the bank-identifier registry")
	processCmd.Flags().BoolVar(&checkIBAN, "check-iban", true, "require an IBAN for countries that mandate one")
	processCmd.Flags().BoolVar(&checkSanctions, "check-sanctions", false, "screen the beneficiary against sanctions lists")

	processCmd.Flags().DurationVar(&processTimeout, "timeout", 60*time.Second, "overall processing timeout")

	processCmd.MarkFlagRequired("message-file")

	// Bind flags to viper
	viper.BindPFlag("output-format", processCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("validation.check_swift", processCmd.Flags().Lookup("check-swift"))
	viper.BindPFlag("validation.check_iban", processCmd.Flags().Lookup("check-iban"))
	viper.BindPFlag("validation.check_sanctions", processCmd.Flags().Lookup("check-sanctions"))
	viper.BindPFlag("timeout", processCmd.Flags().Lookup("timeout"))
}

func validateProcessFlags(cmd *cobra.Command, args []string) error {
	// Get values from viper (allows override from config file)
	outputFormat = viper.GetString("output-format")
	checkSwift = viper.GetBool("validation.check_swift")
	checkIBAN = viper.GetBool("validation.check_iban")
	checkSanctions = viper.GetBool("validation.check_sanctions")
	processTimeout = viper.GetDuration("timeout")

	if messageFile == "" {
		return fmt.Errorf("message-file is required")
	}
	if messageFile != "-" {
		if err := validateFileExists(messageFile, "order message file"); err != nil {
			return err
		}
	}

	if !reporter.OutputFormat(outputFormat).IsValid() {
		return fmt.Errorf("invalid output format '%s'. Valid formats: markdown, json", outputFormat)
	}

	if processTimeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}

	return nil
}

func validateFileExists(filePath, description string) error {
	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist: %s", description, filePath)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}

	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("%s is not readable: %w", description, err)
	}
	file.Close()

	return nil
}

func runProcess(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
	defer cancel()

	message, err := readMessage(messageFile)
	if err != nil {
		return err
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Processing order message...\n")
		fmt.Fprintf(os.Stderr, "Message file: %s\n", messageFile)
		fmt.Fprintf(os.Stderr, "Output format: %s\n", outputFormat)
		fmt.Fprintf(os.Stderr, "Checks: swift=%t iban=%t sanctions=%t\n", checkSwift, checkIBAN, checkSanctions)
	}

	rep, err := config.CreateReporter(outputFormat)
	if err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "output-format", outputFormat, err)
	}

	verifier, err := buildBankVerifier()
	if err != nil {
		return err
	}

	screener, err := buildScreener()
	if err != nil {
		return err
	}

	orders, cleanup, err := buildOrderStore(ctx)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	books, err := buildBookkeeper()
	if err != nil {
		return err
	}

	orchestrator, err := pipeline.NewOrchestrator(
		config.CreatePipelineConfig(checkSwift, checkIBAN, checkSanctions),
		verifier,
		screener,
		orders,
		books,
	)
	if err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "validation", nil, err)
	}

	result := orchestrator.ProcessMessage(ctx, message)

	report, err := renderResult(rep, result)
	if err != nil {
		return err
	}

	if result.Status == pipeline.StatusNotAnOrder {
		if viper.GetBool("verbose") {
			fmt.Fprintf(os.Stderr, "Input does not contain an order message; nothing to do.\n")
		}
		return nil
	}

	return writeReport(report)
}

// buildBankVerifier creates the SWIFT lookup client when SWIFT checking
// is enabled. The registry settings must be present in that case.
func buildBankVerifier() (pipeline.BankVerifier, error) {
	if !checkSwift {
		return nil, nil
	}

	swiftConfig, err := config.CreateSwiftConfig(
		viper.GetString("swift.base_url"),
		viper.GetString("swift.api_key"),
		viper.GetDuration("swift.timeout"),
	)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeMissingConfig, "swift", nil, err).
			WithSuggestion("Set swift.base_url and swift.api_key, or disable the lookup with --check-swift=false")
	}

	client, err := swift.NewClient(swiftConfig)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "swift", nil, err)
	}
	return client, nil
}

// buildScreener creates the sanctions screening client when screening is
// enabled.
func buildScreener() (pipeline.SanctionsScreener, error) {
	if !checkSanctions {
		return nil, nil
	}

	sanctionsConfig, err := config.CreateSanctionsConfig(
		viper.GetString("sanctions.base_url"),
		viper.GetString("sanctions.api_key"),
		viper.GetDuration("sanctions.timeout"),
	)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeMissingConfig, "sanctions", nil, err).
			WithSuggestion("Set sanctions.base_url and sanctions.api_key, or disable screening with --check-sanctions=false")
	}

	client, err := sanctions.NewClient(sanctionsConfig)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "sanctions", nil, err)
	}
	return client, nil
}

// buildOrderStore opens the order database when a DSN is configured.
// Without one the pipeline runs validation only.
func buildOrderStore(ctx context.Context) (pipeline.OrderStore, func(), error) {
	dsn := viper.GetString("database.dsn")
	if dsn == "" {
		return nil, nil, nil
	}

	db, err := store.Open(ctx, dsn)
	if err != nil {
		return nil, nil, errors.NetworkError(errors.CodeConnectionFailed, "database", err).
			WithSuggestion("Check database.dsn and that the database is reachable")
	}

	st := store.NewPostgres(db)
	if err := st.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, errors.PersistenceError(errors.CodeStorageError, "", err)
	}

	return st, func() { db.Close() }, nil
}

// buildBookkeeper creates the spreadsheet mirror when the sheets backend
// is configured.
func buildBookkeeper() (pipeline.Bookkeeper, error) {
	if viper.GetString("sheets.base_url") == "" {
		return nil, nil
	}

	sheetsConfig, err := config.CreateSheetsConfig(
		viper.GetString("sheets.base_url"),
		viper.GetString("sheets.api_key"),
		viper.GetString("sheets.spreadsheet_id"),
		viper.GetDuration("sheets.timeout"),
	)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "sheets", nil, err)
	}

	client, err := sheets.NewClient(sheetsConfig)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "sheets", nil, err)
	}
	return sheets.NewBookkeeper(client), nil
}

// renderResult renders the pipeline result in the selected format. A
// format rejection before field extraction gets the labelling help
// appended so the sender can fix the message.
func renderResult(rep *reporter.Reporter, result *pipeline.Result) (string, error) {
	switch result.Status {
	case pipeline.StatusNotAnOrder:
		return "", nil
	case pipeline.StatusRejected:
		if result.Outcome == nil {
			return result.Report + "\n\n" + reporter.FormatInvalidFormatHelp(), nil
		}
		return rep.ValidationReport(result.Outcome)
	case pipeline.StatusPersisted:
		return rep.SuccessReport(result.Fields, result.Outcome)
	default:
		return "", errors.InternalError(errors.CodeUnexpectedError, "render report",
			fmt.Errorf("unknown pipeline status %q", result.Status))
	}
}

func readMessage(path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read order message: %w", err)
	}
	return string(data), nil
}

func writeReport(report string) error {
	if report == "" {
		return nil
	}

	out := os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if _, err := fmt.Fprintln(out, report); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
