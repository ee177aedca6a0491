// Package formatters renders warehouse rows as natural-language documents.
//
// Each entity kind (product, customer, inventory, ...) has a row formatter
// that produces one document per row, and a summary spec that aggregates
// the rows of a table into one summary document with counts, breakdowns,
// statistics and rankings. The Assembler picks the kind for each table
// from an ordered dispatch table where the first match wins, and falls
// back to a generic column-by-column rendering without a summary.
//
// Rendering is deterministic: the same rows always produce byte-identical
// documents, so reindexing an unchanged warehouse is reproducible.
package formatters
