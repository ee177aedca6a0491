package driven

import "github.com/custodia-labs/quarry/internal/core/domain"

// DocumentAssembler renders warehouse tables into documents: one per
// row plus one summary per table whose kind has a summariser.
type DocumentAssembler interface {
	Assemble(tables []domain.TableData) ([]domain.Document, AssembleReport)
}

// AssembleReport describes the outcome of an assembly pass.
type AssembleReport struct {
	Tables      int
	Documents   int
	Summaries   int
	SkippedRows int
}
