package formatters

import (
	"strings"

	"github.com/custodia-labs/quarry/internal/core/domain"
)

// docBuilder accumulates the text and metadata of one entity document.
// Section headers are written lazily so empty sections never appear.
type docBuilder struct {
	row     domain.Row
	lines   []string
	meta    map[string]any
	pending string
}

func newDocBuilder(row domain.Row, table string, docType domain.DocType) *docBuilder {
	return &docBuilder{
		row: row,
		meta: map[string]any{
			domain.MetaTable: table,
			domain.MetaType:  string(docType),
		},
	}
}

// title writes the leading line of the document.
func (b *docBuilder) title(label, value string) {
	b.lines = append(b.lines, label+": "+value)
}

// section starts a new section. Its header is emitted with its first line.
func (b *docBuilder) section(name string) {
	b.pending = name
}

// line writes a label and value under the current section.
func (b *docBuilder) line(label, value string) {
	if value == "" {
		return
	}
	if b.pending != "" {
		b.lines = append(b.lines, "", b.pending)
		b.pending = ""
	}
	b.lines = append(b.lines, "- "+label+": "+value)
}

// field writes a column when it is present.
func (b *docBuilder) field(label, column string) {
	if s, ok := text(b.row, column); ok {
		b.line(label, s)
	}
}

// fields writes several columns, labelling each by its humanised name.
func (b *docBuilder) fields(columns ...string) {
	for _, c := range columns {
		b.field(humanise(c), c)
	}
}

// moneyField writes a numeric column with two decimals.
func (b *docBuilder) moneyField(label, column string) {
	if f, ok := number(b.row, column); ok {
		b.line(label, money(f))
	}
}

// codeField writes a coded column expanded through names, e.g. "Road (R)".
// The raw code is also kept in metadata under the column name.
func (b *docBuilder) codeField(label, column string, names map[string]string) {
	code, ok := text(b.row, column)
	if !ok {
		return
	}
	b.line(label, expandCode(names, code))
	b.meta[column] = code
}

// flagField writes a boolean column as Yes or No.
func (b *docBuilder) flagField(label, column string) {
	if v, ok := flag(b.row, column); ok {
		b.line(label, yesNo(v))
	}
}

// set stores a metadata value.
func (b *docBuilder) set(k string, v any) {
	b.meta[k] = v
}

// keep copies present columns into metadata under their column names.
func (b *docBuilder) keep(columns ...string) {
	for _, c := range columns {
		if v, ok := b.row.Get(c); ok {
			b.meta[c] = metaValue(v)
		}
	}
}

func (b *docBuilder) document() domain.Document {
	return domain.Document{
		Text:     strings.Join(b.lines, "\n"),
		Metadata: domain.ScalarMetadata(b.meta),
	}
}
