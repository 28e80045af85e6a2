package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gatewaykit/portage/internal/bundle"
	"github.com/gatewaykit/portage/internal/engine"
	"github.com/gatewaykit/portage/internal/store"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	Database string
	DryRun   bool
	Actor    string

	// IDGenerator allows overriding the target id generator (for testing).
	// If nil, defaults to UUIDGenerator.
	IDGenerator engine.IDGenerator
}

// importReport is the success payload for the import command.
type importReport struct {
	Committed bool             `json:"committed"`
	DryRun    bool             `json:"dryRun"`
	State     engine.State     `json:"state"`
	Mappings  []bundle.Mapping `json:"mappings"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <bundle-file>",
		Short: "Import a bundle into a target gateway store",
		Long: `Import a configuration bundle into a target gateway store.

The bundle document (YAML or JSON) is validated, then every mapping is
resolved against the target store in order. The import is transactional:
any mapping conflict rolls the whole bundle back and the conflicts are
reported per mapping. With --dry-run the full resolution report is
produced but nothing is committed.

Example:
  portage import --db ./gateway.db ./bundle.yaml
  portage import --db ./gateway.db --dry-run --format json ./bundle.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to target SQLite database (required)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "evaluate the bundle without committing")
	cmd.Flags().StringVar(&opts.Actor, "actor", "admin", "identity recorded in the audit trail")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runImport(opts *ImportOptions, bundlePath string, cmd *cobra.Command) error {
	// Configure logging based on verbose flag
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	logger := slog.New(handler)

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	formatter.VerboseLog("loading bundle from %s", bundlePath)
	loadResult, loadErrs := LoadBundle(bundlePath, LoadModeCollectAll)
	if len(loadErrs) > 0 {
		reportLoadErrors(formatter, loadErrs)
		return NewExitError(ExitCommandError, fmt.Sprintf("bundle failed validation with %d error(s)", len(loadErrs)))
	}
	b := loadResult.Bundle
	formatter.VerboseLog("bundle loaded: %d references, %d mappings", len(b.References), len(b.Mappings))

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	importerOpts := []engine.ImporterOption{
		engine.WithLogger(logger),
		engine.WithActor(opts.Actor),
	}
	if opts.IDGenerator != nil {
		importerOpts = append(importerOpts, engine.WithIDGenerator(opts.IDGenerator))
	}
	imp := engine.New(st, st, importerOpts...)

	result, err := imp.Import(cmd.Context(), b, opts.DryRun)
	if err != nil {
		return WrapExitError(ExitCommandError, "import failed", err)
	}

	report := importReport{
		Committed: result.Committed,
		DryRun:    result.DryRun,
		State:     result.State,
		Mappings:  result.Mappings,
	}

	if opts.Format == "json" {
		if !result.Committed {
			if err := formatter.Error(ErrCodeGeneric, "bundle conflicts with target", report); err != nil {
				return WrapExitError(ExitCommandError, "failed to write output", err)
			}
			return NewExitError(ExitConflict, fmt.Sprintf("import rolled back: %d conflict(s)", len(result.Conflicts())))
		}
		if err := formatter.Success(report); err != nil {
			return WrapExitError(ExitCommandError, "failed to write output", err)
		}
		return nil
	}

	writeImportText(cmd, report)
	if !result.Committed {
		return NewExitError(ExitConflict, fmt.Sprintf("import rolled back: %d conflict(s)", len(result.Conflicts())))
	}
	return nil
}

// writeImportText renders the per-mapping resolution report and a
// summary line in the text format.
func writeImportText(cmd *cobra.Command, report importReport) {
	out := cmd.OutOrStdout()
	for _, m := range report.Mappings {
		if m.ErrorType != "" {
			fmt.Fprintf(out, "%-18s %s  %s -> error %s: %s\n",
				m.Type, m.SrcID, m.Action, m.ErrorType, m.Properties.ErrorMessage())
			continue
		}
		if m.TargetID != "" {
			fmt.Fprintf(out, "%-18s %s  %s -> %s (target %s)\n",
				m.Type, m.SrcID, m.Action, m.ActionTaken, m.TargetID)
		} else {
			fmt.Fprintf(out, "%-18s %s  %s -> %s\n",
				m.Type, m.SrcID, m.Action, m.ActionTaken)
		}
	}

	switch {
	case report.State == engine.StateCommitted:
		fmt.Fprintf(out, "Committed %d mapping(s).\n", len(report.Mappings))
	case report.DryRun && report.Committed:
		fmt.Fprintf(out, "Dry run: %d mapping(s) would commit.\n", len(report.Mappings))
	default:
		conflicts := 0
		for _, m := range report.Mappings {
			if m.ErrorType != "" {
				conflicts++
			}
		}
		fmt.Fprintf(out, "Rolled back: %d conflict(s).\n", conflicts)
	}
}

// reportLoadErrors renders loader errors in the configured format.
func reportLoadErrors(formatter *OutputFormatter, errs []error) {
	if formatter.Format == "json" {
		details := make([]string, 0, len(errs))
		for _, e := range errs {
			details = append(details, e.Error())
		}
		_ = formatter.Error(loadErrorCode(errs[0]), "bundle failed validation", details)
		return
	}
	for _, e := range errs {
		fmt.Fprintf(formatter.Writer, "Error: %v\n", e)
	}
}

func loadErrorCode(err error) string {
	if le, ok := err.(*LoadError); ok {
		return le.Code
	}
	return ErrCodeGeneric
}
