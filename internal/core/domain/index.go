package domain

import "time"

// IndexStage identifies a step of an indexing run.
type IndexStage string

// Indexing stages, in the order a run passes through them.
const (
	StageRead     IndexStage = "read"
	StageAssemble IndexStage = "assemble"
	StageEmbed    IndexStage = "embed"
	StageClear    IndexStage = "clear"
	StageStore    IndexStage = "store"
	StageDone     IndexStage = "done"
)

// IndexEvent reports progress during an indexing run.
// Only the fields relevant to the stage are set.
type IndexEvent struct {
	Stage IndexStage

	// Table is set during StageRead.
	Table string

	// Rows is the number of rows read from Table.
	Rows int

	// Err is set when a table failed to read. The run continues.
	Err error

	// Done and Total count batches during StageEmbed and documents
	// during StageAssemble and StageStore.
	Done  int
	Total int
}

// IndexObserver receives progress events. It must not block.
type IndexObserver func(IndexEvent)

// IndexOptions configures an indexing run.
type IndexOptions struct {
	// Clear removes every existing document before the new batch is added.
	Clear bool

	// Tables overrides the configured table list when non-empty.
	Tables []string
}

// IndexReport summarises a completed indexing run.
type IndexReport struct {
	RunID        string
	Tables       int
	Documents    int
	SkippedRows  int
	FailedTables []string

	// Count is the index size after the run, or -1 if unknown.
	Count int

	Duration time.Duration
}

// IndexStats describes the vector index.
type IndexStats struct {
	Collection string

	// DocumentCount is -1 when the count could not be obtained in time.
	DocumentCount int

	CountAvailable bool
}

// Answer is the result of a question put to the query service.
type Answer struct {
	Question string
	Answer   string

	// ContextDocs is the number of documents the answer was grounded on.
	ContextDocs int
}
