package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/hiring-signal/internal/report"
	"github.com/jonathan/hiring-signal/internal/schemas"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a report against the output schema",
	Long: `Validates a JSONL report written by scan against the embedded report schema.

With --schema and --json, validates an arbitrary JSON document against the given JSON Schema file instead.`,
	RunE: runValidate,
}

var (
	validateReportPath string
	validateSchemaPath string
	validateJSONPath   string
)

func init() {
	validateCmd.Flags().StringVarP(&validateReportPath, "report", "r", "", "Path to a JSONL report")
	validateCmd.Flags().StringVar(&validateSchemaPath, "schema", "", "Path to a JSON Schema file")
	validateCmd.Flags().StringVar(&validateJSONPath, "json", "", "Path to a JSON document")

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	var err error
	switch {
	case validateReportPath != "" && (validateSchemaPath != "" || validateJSONPath != ""):
		return fmt.Errorf("cannot use --report with --schema/--json")
	case validateReportPath != "":
		err = validateReportFile(validateReportPath)
	case validateJSONPath != "" && validateSchemaPath != "":
		err = schemas.ValidateJSON(validateSchemaPath, validateJSONPath)
	case validateJSONPath != "":
		var data []byte
		data, err = os.ReadFile(validateJSONPath)
		if err != nil {
			return fmt.Errorf("failed to read JSON file: %w", err)
		}
		err = schemas.ValidateReportJSON(data)
	default:
		return fmt.Errorf("must provide either --report or --json")
	}

	if err != nil {
		var validationErr *schemas.ValidationError
		if errors.As(err, &validationErr) {
			for _, fe := range validationErr.Errors {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", fe.Field, fe.Message)
			}
		}
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Validation passed")
	return nil
}

func validateReportFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open report: %w", err)
	}
	defer func() { _ = f.Close() }()

	r, err := report.ReadJSONL(f)
	if err != nil {
		return fmt.Errorf("failed to read report: %w", err)
	}
	return schemas.ValidateReport(r)
}
