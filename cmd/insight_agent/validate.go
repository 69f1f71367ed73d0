package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/schemas"
	schemafiles "github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/schemas"
)

func newValidateCmd() *cobra.Command {
	var schemaName, jsonPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a JSON file against a schema",
		Long: fmt.Sprintf("Validates a JSON document against a schema file or one of the embedded schemas (%s, %s, %s).",
			schemafiles.Aggregates, schemafiles.Insights, schemafiles.Trend),
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := schemas.ValidateJSON(schemaName, jsonPath)
			if err == nil {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Validation passed")
				return nil
			}

			var validationErr *schemas.ValidationError
			if errors.As(err, &validationErr) {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Validation failed:\n")
				for _, fe := range validationErr.Errors {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", fe.Field, fe.Message)
				}
			}
			return err
		},
	}

	cmd.Flags().StringVar(&schemaName, "schema", "", "Embedded schema name or path to a schema file (required)")
	cmd.Flags().StringVar(&jsonPath, "json", "", "Path to the JSON file to validate (required)")
	for _, name := range []string{"schema", "json"} {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(fmt.Sprintf("failed to mark %s flag as required: %v", name, err))
		}
	}
	return cmd
}
