// Package domain defines the core business entities for quarry.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Row, TableData: Warehouse records as read from the row source
//   - Document: A natural-language rendering of a record or a table summary
//   - ContextChunk: A document returned by the vector index
//   - Intent: The retrieval intent derived from a question
//   - IndexEvent, IndexReport: Progress and outcome of an indexing run
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
