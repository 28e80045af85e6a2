package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gatewaykit/portage/internal/bundle"
	"github.com/gatewaykit/portage/internal/store"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	Database string
	Type     string
	Audit    int
}

// inspectReport is the success payload for the inspect command.
type inspectReport struct {
	Entities []inspectEntity      `json:"entities"`
	Audit    []bundle.AuditRecord `json:"audit,omitempty"`
}

// inspectEntity is one entity row without its content payload.
type inspectEntity struct {
	ID       string            `json:"id"`
	Type     bundle.EntityType `json:"type"`
	Name     string            `json:"name"`
	Scope    string            `json:"scope,omitempty"`
	ReadOnly bool              `json:"readOnly,omitempty"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Inspect a target gateway store",
		Long: `List the entities in a target gateway store, optionally filtered
by type, together with the tail of the audit trail.

Example:
  portage inspect --db ./gateway.db
  portage inspect --db ./gateway.db --type POLICY --audit 20`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to target SQLite database (required)")
	cmd.Flags().StringVar(&opts.Type, "type", "", "filter entities by type")
	cmd.Flags().IntVar(&opts.Audit, "audit", 0, "include up to N audit entries (0 = none)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runInspect(opts *InspectOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	items, err := st.ListEntities(ctx, bundle.EntityType(opts.Type))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list entities", err)
	}

	report := inspectReport{Entities: make([]inspectEntity, 0, len(items))}
	for _, item := range items {
		readOnly, err := st.IsReadOnly(ctx, item.ID)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read protection flag", err)
		}
		report.Entities = append(report.Entities, inspectEntity{
			ID:       item.ID,
			Type:     item.Type,
			Name:     item.Name,
			Scope:    item.Scope,
			ReadOnly: readOnly,
		})
	}

	if opts.Audit > 0 {
		records, err := st.ReadAudit(ctx, opts.Audit)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read audit log", err)
		}
		report.Audit = records
	}

	if opts.Format == "json" {
		if err := formatter.Success(report); err != nil {
			return WrapExitError(ExitCommandError, "failed to write output", err)
		}
		return nil
	}

	out := cmd.OutOrStdout()
	if len(report.Entities) == 0 {
		fmt.Fprintln(out, "No entities.")
	}
	for _, e := range report.Entities {
		line := fmt.Sprintf("%-18s %s  %s", e.Type, e.ID, e.Name)
		if e.Scope != "" {
			line += fmt.Sprintf("  (scope %s)", e.Scope)
		}
		if e.ReadOnly {
			line += "  [read-only]"
		}
		fmt.Fprintln(out, line)
	}
	if opts.Audit > 0 {
		fmt.Fprintln(out)
		if len(report.Audit) == 0 {
			fmt.Fprintln(out, "No audit entries.")
		}
		for _, rec := range report.Audit {
			fmt.Fprintf(out, "%s  %-7s %-18s %s  %s  by %s\n",
				rec.At.UTC().Format(time.RFC3339), rec.Verb, rec.EntityType, rec.EntityID, rec.EntityName, rec.Actor)
		}
	}
	return nil
}
