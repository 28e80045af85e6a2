// Package engine implements the bundle reconciliation engine: the
// mapping resolver, the reference rewriter, and the transactional
// bundle reconciler (Importer).
//
// One Import call is one logical unit of work. Mappings are evaluated
// strictly sequentially, in list order, because each mapping may depend
// on substitution-table entries produced by earlier mappings; there is
// no safe parallelism within a call. All durable effects flow through a
// single store transaction: every mapping is evaluated (speculatively
// mutating inside the transaction), then a single decision commits or
// rolls back the whole set. Expected business conditions (target not
// found, uniqueness conflict, read-only target) are reported on the
// mapping, never raised as Go errors; a returned error from Import is
// always fatal (store failure, malformed bundle, broken dependency
// order).
package engine
