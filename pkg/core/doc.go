// Package core defines the shared language of the polyscan system.
//
// This package contains:
//   - Domain entities (Tuple, SolutionSet, Record, Run)
//   - Service interfaces (Evaluator, Store)
//   - The in-memory ResultArchive
//
// pkg/core imports only the standard library. All other packages depend
// on core, not the reverse.
package core
