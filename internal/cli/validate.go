package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
}

// validateReport is the success payload for the validate command.
type validateReport struct {
	Valid      bool     `json:"valid"`
	References int      `json:"references"`
	Mappings   int      `json:"mappings"`
	Errors     []string `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <bundle-file>",
		Short: "Validate a bundle document without importing it",
		Long: `Validate a bundle document against the document schema and the
bundle's semantic rules, without touching any target store.

All errors are collected and reported, not just the first.

Example:
  portage validate ./bundle.yaml
  portage validate --format json ./bundle.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *ValidateOptions, bundlePath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	loadResult, loadErrs := LoadBundle(bundlePath, LoadModeCollectAll)

	report := validateReport{Valid: len(loadErrs) == 0}
	if loadResult != nil && loadResult.Bundle != nil {
		report.References = len(loadResult.Bundle.References)
		report.Mappings = len(loadResult.Bundle.Mappings)
	}
	for _, e := range loadErrs {
		report.Errors = append(report.Errors, e.Error())
	}

	exitCode := ExitConflict
	if !report.Valid {
		switch loadErrorCode(loadErrs[0]) {
		case ErrCodeNotFound, ErrCodeReadFailed:
			exitCode = ExitCommandError
		}
	}

	if opts.Format == "json" {
		if !report.Valid {
			if err := formatter.Error(loadErrorCode(loadErrs[0]), "bundle failed validation", report); err != nil {
				return WrapExitError(ExitCommandError, "failed to write output", err)
			}
			return NewExitError(exitCode, fmt.Sprintf("bundle failed validation with %d error(s)", len(loadErrs)))
		}
		if err := formatter.Success(report); err != nil {
			return WrapExitError(ExitCommandError, "failed to write output", err)
		}
		return nil
	}

	if !report.Valid {
		for _, e := range loadErrs {
			fmt.Fprintf(cmd.OutOrStdout(), "Error: %v\n", e)
		}
		return NewExitError(exitCode, fmt.Sprintf("bundle failed validation with %d error(s)", len(loadErrs)))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Bundle is valid: %d reference(s), %d mapping(s).\n",
		report.References, report.Mappings)
	return nil
}
