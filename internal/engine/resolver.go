package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gatewaykit/portage/internal/bundle"
)

// resolver computes the outcome of one mapping against current entity
// store state. It is created per import call by the Importer and holds
// the import's transaction; the substitution table is threaded through
// each resolve call, owned by the Importer.
//
// resolve never returns an error for expected business conditions
// (not-found, conflict, read-only) - those are encoded on the mapping.
// A non-nil return is always fatal and aborts the whole import.
type resolver struct {
	tx     bundle.EntityTx
	idgen  IDGenerator
	logger *slog.Logger

	// pending holds the srcIDs of mappings not yet resolved. Content
	// referencing any of these is a dependency-order violation.
	pending map[string]bool

	// audits accumulates one record per speculative mutation, emitted by
	// the Importer only after a real commit. Actor and timestamp are
	// filled in at emit time.
	audits []bundle.AuditRecord
}

// resolve computes the outcome for one mapping, mutating it in place,
// and registers any determined target id in subs.
func (r *resolver) resolve(ctx context.Context, m *bundle.Mapping, ref *bundle.Item, subs bundle.Substitutions) error {
	switch m.Action {
	case bundle.ActionNewOrExisting:
		return r.resolveNewOrExisting(ctx, m, ref, subs)
	case bundle.ActionNewOrUpdate:
		return r.resolveNewOrUpdate(ctx, m, ref, subs)
	case bundle.ActionAlwaysCreateNew:
		return r.resolveAlwaysCreateNew(ctx, m, ref, subs)
	case bundle.ActionDelete:
		return r.resolveDelete(ctx, m, ref, subs)
	case bundle.ActionIgnore:
		r.resolveIgnore(m, subs)
		return nil
	default:
		return newMalformedBundle(m, fmt.Sprintf("unknown action %q", m.Action))
	}
}

// resolveNewOrExisting reuses a matching target, creating only on absence.
// A read-only match is still reusable: no mutation occurs.
func (r *resolver) resolveNewOrExisting(ctx context.Context, m *bundle.Mapping, ref *bundle.Item, subs bundle.Substitutions) error {
	found, err := r.lookup(ctx, m, ref, subs)
	if err != nil {
		return err
	}
	if found != nil {
		m.SetOutcome(bundle.TakenUsedExisting, found.ID)
		m.TargetURI = targetURI(m.Type, found.ID)
		subs.Register(m.SrcID, found.ID)
		r.logger.Debug("reusing existing entity", "type", m.Type, "srcId", m.SrcID, "targetId", found.ID)
		return nil
	}
	return r.create(ctx, m, ref, subs, m.SrcID)
}

// resolveNewOrUpdate overwrites a matching target, creating on absence
// unless FailOnNew is set.
func (r *resolver) resolveNewOrUpdate(ctx context.Context, m *bundle.Mapping, ref *bundle.Item, subs bundle.Substitutions) error {
	found, err := r.lookup(ctx, m, ref, subs)
	if err != nil {
		return err
	}
	if found == nil {
		if m.Properties.FailOnNew() {
			m.SetError(bundle.ErrorTargetNotFound,
				fmt.Sprintf("no existing %s found for %s and FailOnNew is set", m.Type, m.SrcID))
			return nil
		}
		return r.create(ctx, m, ref, subs, m.SrcID)
	}

	readOnly, err := r.tx.IsReadOnly(ctx, found.ID)
	if err != nil {
		return newStoreFailure(m, err)
	}
	if readOnly {
		m.SetError(bundle.ErrorTargetReadOnly,
			fmt.Sprintf("%s %s is read-only and cannot be updated", m.Type, found.ID))
		return nil
	}

	item, ierr := r.materialize(m, ref, subs)
	if ierr != nil {
		return ierr
	}
	if err := r.tx.Update(ctx, found.ID, item); err != nil {
		if errors.Is(err, bundle.ErrUniqueConflict) {
			m.SetError(bundle.ErrorUniqueKeyConflict, err.Error())
			return nil
		}
		return newStoreFailure(m, err)
	}

	m.SetOutcome(bundle.TakenUpdatedExisting, found.ID)
	m.TargetURI = targetURI(m.Type, found.ID)
	subs.Register(m.SrcID, found.ID)
	r.recordAudit(m.Type, found.ID, item.Name, bundle.VerbUpdated)
	r.logger.Debug("updated existing entity", "type", m.Type, "srcId", m.SrcID, "targetId", found.ID)
	return nil
}

// resolveAlwaysCreateNew creates unconditionally under a fresh target id.
func (r *resolver) resolveAlwaysCreateNew(ctx context.Context, m *bundle.Mapping, ref *bundle.Item, subs bundle.Substitutions) error {
	return r.create(ctx, m, ref, subs, r.idgen.Generate())
}

// resolveDelete removes a matching target; deleting something already
// absent is a no-op, not an error.
func (r *resolver) resolveDelete(ctx context.Context, m *bundle.Mapping, ref *bundle.Item, subs bundle.Substitutions) error {
	found, err := r.lookup(ctx, m, ref, subs)
	if err != nil {
		return err
	}
	if found == nil {
		m.SetOutcome(bundle.TakenIgnored, "")
		return nil
	}

	readOnly, err := r.tx.IsReadOnly(ctx, found.ID)
	if err != nil {
		return newStoreFailure(m, err)
	}
	if readOnly {
		m.SetError(bundle.ErrorTargetReadOnly,
			fmt.Sprintf("%s %s is read-only and cannot be deleted", m.Type, found.ID))
		return nil
	}

	if err := r.tx.Delete(ctx, found.ID); err != nil {
		return newStoreFailure(m, err)
	}
	m.SetOutcome(bundle.TakenDeleted, found.ID)
	m.TargetURI = targetURI(m.Type, found.ID)
	r.recordAudit(m.Type, found.ID, found.Name, bundle.VerbDeleted)
	r.logger.Debug("deleted entity", "type", m.Type, "srcId", m.SrcID, "targetId", found.ID)
	return nil
}

// resolveIgnore skips the entity. An explicit TargetID pin still
// registers a substitution so dependents can resolve their references
// to a fixed existing id while the ignored entity itself is untouched.
func (r *resolver) resolveIgnore(m *bundle.Mapping, subs bundle.Substitutions) {
	if m.TargetID != "" {
		subs.Register(m.SrcID, m.TargetID)
	}
	m.ActionTaken = bundle.TakenIgnored
}

// create persists the rewritten reference content under targetID and
// records the outcome. Uniqueness violations become per-mapping
// UniqueKeyConflict errors.
func (r *resolver) create(ctx context.Context, m *bundle.Mapping, ref *bundle.Item, subs bundle.Substitutions, targetID string) error {
	if ref == nil && bundle.WellKnownID(m.SrcID) {
		// Well-known identities ship without content; they are reused,
		// never created, so an absent one is a missing target, not a
		// malformed bundle.
		m.SetError(bundle.ErrorTargetNotFound,
			fmt.Sprintf("well-known %s %s does not exist on the target", m.Type, m.SrcID))
		return nil
	}

	item, ierr := r.materialize(m, ref, subs)
	if ierr != nil {
		return ierr
	}
	item.ID = targetID

	id, err := r.tx.Create(ctx, item)
	if err != nil {
		if errors.Is(err, bundle.ErrUniqueConflict) {
			m.SetError(bundle.ErrorUniqueKeyConflict, err.Error())
			return nil
		}
		return newStoreFailure(m, err)
	}

	m.SetOutcome(bundle.TakenCreatedNew, id)
	m.TargetURI = targetURI(m.Type, id)
	subs.Register(m.SrcID, id)
	r.recordAudit(m.Type, id, item.Name, bundle.VerbCreated)
	r.logger.Debug("created entity", "type", m.Type, "srcId", m.SrcID, "targetId", id)
	return nil
}

// lookup determines the candidate target: explicit TargetID pin first,
// then name lookup when MapBy=name, else the source id verbatim
// (identity-preserving mapping). Never creates.
func (r *resolver) lookup(ctx context.Context, m *bundle.Mapping, ref *bundle.Item, subs bundle.Substitutions) (*bundle.Item, error) {
	if m.TargetID != "" {
		found, err := r.tx.Find(ctx, m.Type, m.TargetID)
		if err != nil {
			return nil, newStoreFailure(m, err)
		}
		return found, nil
	}

	if m.Properties.MapBy() == bundle.MapByName {
		name := m.Properties.MapTo()
		if name == "" && ref != nil {
			name = ref.Name
		}
		if name == "" {
			return nil, newMalformedBundle(m, "MapBy=name requires a MapTo property or a reference item")
		}
		scope := ""
		if ref != nil {
			scope = r.resolveScope(ref.Scope, subs)
		}
		found, err := r.tx.FindByName(ctx, m.Type, name, scope)
		if err != nil {
			return nil, newStoreFailure(m, err)
		}
		return found, nil
	}

	found, err := r.tx.Find(ctx, m.Type, m.SrcID)
	if err != nil {
		return nil, newStoreFailure(m, err)
	}
	return found, nil
}

// materialize produces the item to persist for a create or update:
// the reference content with all resolved source ids rewritten, and the
// container scope mapped to its target id. Content referencing a
// not-yet-resolved mapping is a dependency-order violation.
func (r *resolver) materialize(m *bundle.Mapping, ref *bundle.Item, subs bundle.Substitutions) (bundle.Item, *ImportError) {
	if ref == nil {
		return bundle.Item{}, newMalformedBundle(m,
			fmt.Sprintf("mapping requires content but the bundle carries no reference item for %s", m.SrcID))
	}

	if stale := CheckStale(ref.Content, r.pending); stale != "" {
		return bundle.Item{}, newStaleReference(m, stale)
	}
	if ref.Scope != "" && r.pending[ref.Scope] {
		return bundle.Item{}, newStaleReference(m, ref.Scope)
	}

	return bundle.Item{
		ID:      ref.ID,
		Type:    m.Type,
		Name:    ref.Name,
		Scope:   r.resolveScope(ref.Scope, subs),
		Content: Rewrite(ref.Content, subs),
	}, nil
}

// resolveScope maps a source-side container id to its resolved target
// id. Unresolved scopes pass through: well-known ids and pre-existing
// target identities are their own targets.
func (r *resolver) resolveScope(scope string, subs bundle.Substitutions) string {
	if target, ok := subs.Resolve(scope); ok {
		return target
	}
	return scope
}

// recordAudit queues one audit record for a speculative mutation.
func (r *resolver) recordAudit(typ bundle.EntityType, id, name string, verb bundle.AuditVerb) {
	r.audits = append(r.audits, bundle.AuditRecord{
		EntityID:   id,
		EntityType: typ,
		EntityName: name,
		Verb:       verb,
	})
}

// targetURI locates a resolved entity on the target gateway.
func targetURI(typ bundle.EntityType, id string) string {
	return fmt.Sprintf("/1.0/%s/%s", strings.ToLower(string(typ)), id)
}
