package formatters

import (
	"fmt"

	"github.com/custodia-labs/quarry/internal/core/domain"
	"github.com/custodia-labs/quarry/internal/core/ports/driven"
	"github.com/custodia-labs/quarry/internal/logger"
)

// Ensure Assembler implements the interface.
var _ driven.DocumentAssembler = (*Assembler)(nil)

// Assembler turns warehouse tables into an ordered document batch.
type Assembler struct {
	kinds []Kind
}

// NewAssembler creates an assembler using the default dispatch table.
func NewAssembler() *Assembler {
	return &Assembler{kinds: DefaultKinds()}
}

// Assemble formats every row of every table, in table order then row order.
// A table whose kind has a summary gets exactly one summary document after
// its rows, even when it has no rows. Rows that fail to format are skipped
// with a warning and counted in the report.
func (a *Assembler) Assemble(tables []domain.TableData) ([]domain.Document, driven.AssembleReport) {
	report := driven.AssembleReport{Tables: len(tables)}
	lk := a.lookups(tables)

	var docs []domain.Document
	for _, t := range tables {
		kind, ok := KindFor(a.kinds, t.Name)
		if !ok {
			logger.Debug("table %s: generic formatter, %d rows", t.Name, len(t.Rows))
			for _, row := range t.Rows {
				docs = append(docs, formatGeneric(row, t.Name))
			}
			continue
		}

		logger.Debug("table %s: %s formatter, %d rows", t.Name, kind.Name, len(t.Rows))
		projections := make([]Projection, 0, len(t.Rows))
		for i, row := range t.Rows {
			doc, p, err := kind.Format(row, t.Name, lk, i)
			if err != nil {
				logger.Warn("skipping row %d of %s: %v", i, t.Name, err)
				report.SkippedRows++
				continue
			}
			docs = append(docs, doc)
			projections = append(projections, p)
		}
		if kind.Summary != nil {
			docs = append(docs, Summarize(*kind.Summary, projections, t.Name))
			report.Summaries++
		}
	}

	for i := range docs {
		docs[i].ID = fmt.Sprintf("doc_%d", i)
	}
	report.Documents = len(docs)
	return docs, report
}

// lookups resolves user names and product names across all tables before
// any row is formatted, so joins do not depend on table order.
func (a *Assembler) lookups(tables []domain.TableData) Lookups {
	lk := Lookups{
		Users:    map[string]string{},
		Products: map[string]string{},
	}
	for _, t := range tables {
		kind, ok := KindFor(a.kinds, t.Name)
		if !ok {
			continue
		}
		switch kind.Name {
		case domain.DocTypeUser:
			userLookup(t, lk.Users)
		case domain.DocTypeProduct:
			productLookup(t, lk.Products)
		}
	}
	return lk
}
