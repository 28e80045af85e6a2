package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gatewaykit/portage/internal/bundle"
)

// State is the phase of one import call.
//
// State machine: Evaluating -> {Committing -> Committed} |
// {RollingBack -> RolledBack}. Terminal states are Committed and
// RolledBack; dry-run always ends in RolledBack regardless of
// per-mapping outcomes.
type State string

const (
	StateEvaluating  State = "Evaluating"
	StateCommitting  State = "Committing"
	StateCommitted   State = "Committed"
	StateRollingBack State = "RollingBack"
	StateRolledBack  State = "RolledBack"
)

// Result is the outcome of one import call.
type Result struct {
	// Mappings is the fully-resolved mapping list, 1:1 with the input
	// list in the same order. It always reflects what the whole bundle
	// would have done, so mappings after the first error can still show
	// a non-error outcome even though nothing was committed.
	Mappings []bundle.Mapping `json:"mappings"`

	// Committed reports whether the bundle was applicable: no mapping
	// carries an ErrorType. false signals a conflict. On a dry run the
	// transaction is rolled back even when Committed is true; State
	// tells whether anything became durable.
	Committed bool `json:"committed"`

	// DryRun echoes the request mode.
	DryRun bool `json:"dryRun"`

	// State is the terminal import state (Committed or RolledBack).
	State State `json:"state"`
}

// Conflicts returns the mappings that carry an error.
func (r *Result) Conflicts() []bundle.Mapping {
	var out []bundle.Mapping
	for _, m := range r.Mappings {
		if m.ErrorType != "" {
			out = append(out, m)
		}
	}
	return out
}

// Importer is the bundle reconciler: it drives the mapping resolver
// over the ordered mapping list, maintains the running source-to-target
// id table, and owns the transaction boundary.
type Importer struct {
	store  bundle.EntityStore
	audit  bundle.AuditEmitter
	idgen  IDGenerator
	logger *slog.Logger
	actor  string
	now    func() time.Time
}

// ImporterOption allows configuration of importer parameters.
type ImporterOption func(*Importer)

// WithIDGenerator overrides the target id generator (tests use
// FixedGenerator for deterministic AlwaysCreateNew ids).
func WithIDGenerator(gen IDGenerator) ImporterOption {
	return func(imp *Importer) { imp.idgen = gen }
}

// WithLogger overrides the logger.
func WithLogger(logger *slog.Logger) ImporterOption {
	return func(imp *Importer) { imp.logger = logger }
}

// WithActor sets the administrative actor recorded on audit entries.
// Default: "admin".
func WithActor(actor string) ImporterOption {
	return func(imp *Importer) { imp.actor = actor }
}

// WithClock overrides the audit timestamp source (for tests).
func WithClock(now func() time.Time) ImporterOption {
	return func(imp *Importer) { imp.now = now }
}

// New creates an Importer over the given collaborators.
func New(store bundle.EntityStore, audit bundle.AuditEmitter, opts ...ImporterOption) *Importer {
	imp := &Importer{
		store:  store,
		audit:  audit,
		idgen:  UUIDGenerator{},
		logger: slog.Default(),
		actor:  "admin",
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(imp)
	}
	return imp
}

// Import reconciles one bundle against the target store as a single
// atomic operation.
//
// Every mapping is evaluated in list order, even after earlier mappings
// produce errors, so the caller receives a complete diagnostic picture.
// Mutations are applied speculatively inside one store transaction;
// after all mappings are evaluated the transaction commits only when no
// mapping carries an error and dryRun is false. Audit entries are
// emitted once, after a real commit, one per entity actually created,
// updated, or deleted.
//
// The returned error is fatal-only (store failure, malformed bundle,
// dependency-order violation); expected business conditions live on the
// returned mappings. On a fatal error nothing is committed and no
// Result is returned, except for ErrCodeAuditFailure, which reports a
// committed import whose audit write failed.
func (imp *Importer) Import(ctx context.Context, b *bundle.Bundle, dryRun bool) (*Result, error) {
	if errs := b.Validate(); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return nil, &ImportError{
			Code:    ErrCodeMalformedBundle,
			Message: fmt.Sprintf("invalid bundle: %s", strings.Join(msgs, "; ")),
		}
	}

	tx, err := imp.store.Begin(ctx)
	if err != nil {
		return nil, &ImportError{Code: ErrCodeStoreFailure, Message: "cannot open import transaction", Err: err}
	}
	// Rollback after Commit is a no-op; this guards every fatal return.
	defer tx.Rollback()

	state := StateEvaluating
	setState := func(s State) {
		state = s
		imp.logger.Debug("import state", "state", s)
	}
	imp.logger.Debug("import started", "mappings", len(b.Mappings), "dryRun", dryRun, "state", state)

	// The input bundle is never mutated: outcomes land on copies.
	mappings := make([]bundle.Mapping, len(b.Mappings))
	copy(mappings, b.Mappings)
	for i := range mappings {
		mappings[i].Properties = mappings[i].Properties.Clone()
	}

	pending := make(map[string]bool, len(mappings))
	for _, m := range mappings {
		pending[m.SrcID] = true
	}

	res := &resolver{
		tx:      tx,
		idgen:   imp.idgen,
		logger:  imp.logger,
		pending: pending,
	}

	subs := bundle.NewSubstitutions()
	for i := range mappings {
		m := &mappings[i]
		delete(pending, m.SrcID)
		if err := res.resolve(ctx, m, b.Reference(m.SrcID), subs); err != nil {
			setState(StateRollingBack)
			imp.logger.Error("import aborted", "srcId", m.SrcID, "error", err)
			return nil, err
		}
	}

	committed := true
	for _, m := range mappings {
		if m.ErrorType != "" {
			committed = false
			break
		}
	}

	if dryRun || !committed {
		setState(StateRollingBack)
		if err := tx.Rollback(); err != nil {
			return nil, &ImportError{Code: ErrCodeStoreFailure, Message: "rollback failed", Err: err}
		}
		setState(StateRolledBack)
		imp.logger.Info("import rolled back", "applicable", committed, "dryRun", dryRun, "state", state)
		return &Result{Mappings: mappings, Committed: committed, DryRun: dryRun, State: state}, nil
	}

	setState(StateCommitting)
	if err := tx.Commit(); err != nil {
		return nil, &ImportError{Code: ErrCodeStoreFailure, Message: "commit failed", Err: err}
	}
	setState(StateCommitted)
	imp.logger.Info("import committed", "mappings", len(mappings), "mutations", len(res.audits), "state", state)

	result := &Result{Mappings: mappings, Committed: true, DryRun: false, State: state}

	if len(res.audits) > 0 {
		at := imp.now()
		for i := range res.audits {
			res.audits[i].Actor = imp.actor
			res.audits[i].At = at
		}
		if err := imp.audit.RecordChanges(ctx, res.audits); err != nil {
			// The import IS committed at this point; surface the audit
			// failure without discarding the result.
			return result, &ImportError{Code: ErrCodeAuditFailure, Message: "audit emitter failed after commit", Err: err}
		}
	}

	return result, nil
}
