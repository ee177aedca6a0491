package formatters

import (
	"strings"

	"github.com/custodia-labs/quarry/internal/core/domain"
)

// formatGeneric renders any row as "Table: <name>" followed by one
// "Readable Column: value" line per non-null column, in column order.
func formatGeneric(row domain.Row, table string) domain.Document {
	lines := []string{"Table: " + table}
	for _, c := range row.Columns() {
		if s, ok := text(row, c); ok {
			lines = append(lines, humanise(c)+": "+s)
		}
	}
	return domain.Document{
		Text: strings.Join(lines, "\n"),
		Metadata: map[string]any{
			domain.MetaTable: table,
			domain.MetaType:  string(domain.DocTypeRecord),
		},
	}
}
