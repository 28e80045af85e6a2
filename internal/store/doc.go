// Package store provides the SQLite-backed entity store for a target
// gateway: entity CRUD, name lookup, and protection-flag reads inside
// one import transaction, plus the administrative audit log.
//
// One Store serves both collaborator roles the reconciliation engine
// consumes (bundle.EntityStore, bundle.AuditEmitter). Hosts embedding
// the engine against a different backend implement those interfaces
// instead of using this package.
package store
