// Package bundle provides the canonical data model for portage.
//
// This package contains type definitions only. All other internal packages
// import bundle; bundle imports nothing internal. This ensures the data
// model remains the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Mapping order IS dependency order: a bundle's mapping list must list
//     every entity no later than its dependents. The engine trusts this
//     order and never recomputes it.
//   - Entity content is opaque. The only operation the engine performs on
//     it is substitution of already-resolved source ids.
//   - Exactly one of ActionTaken / ErrorType is set on a mapping once it
//     has been resolved; both are empty before resolution.
//   - All JSON and YAML tags use camelCase to match bundle documents.
package bundle
