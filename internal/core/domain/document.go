package domain

import (
	"fmt"
	"strings"
)

// Metadata keys present on every document.
const (
	MetaTable = "table"
	MetaType  = "type"
)

const summarySuffix = "_summary"

// DocType classifies a document by the entity kind it renders.
// Every entity kind except DocTypeRecord has a paired summary type.
type DocType string

// Entity document types.
const (
	DocTypeProduct           DocType = "product"
	DocTypeCompetitorProduct DocType = "competitor_product"
	DocTypeCompetitorSales   DocType = "competitor_sales"
	DocTypeInventory         DocType = "inventory"
	DocTypeCustomer          DocType = "customer"
	DocTypeInternetSales     DocType = "internet_sales"
	DocTypeAccount           DocType = "account"
	DocTypeCurrency          DocType = "currency"
	DocTypeCurrencyRate      DocType = "currency_rate"
	DocTypeReview            DocType = "review"
	DocTypeUser              DocType = "user"

	// DocTypeRecord is produced by the generic formatter for tables
	// without a dedicated entity kind. It has no summary.
	DocTypeRecord DocType = "record"
)

// IsSummary returns true for table-level summary types.
func (t DocType) IsSummary() bool {
	return strings.HasSuffix(string(t), summarySuffix)
}

// Summary returns the summary type paired with an entity type.
func (t DocType) Summary() DocType {
	if t.IsSummary() {
		return t
	}
	return t + summarySuffix
}

// Entity returns the entity type a summary type describes.
func (t DocType) Entity() DocType {
	return DocType(strings.TrimSuffix(string(t), summarySuffix))
}

// String returns the string representation.
func (t DocType) String() string {
	return string(t)
}

// Document is a natural-language rendering of one warehouse record,
// or of a whole table when it is a summary. It is the unit that gets
// embedded and stored in the vector index.
type Document struct {
	// ID is assigned by the assembler in output order.
	ID string

	// Text is the rendered content.
	Text string

	// Metadata holds scalar values only. See ScalarMetadata.
	Metadata map[string]any
}

// Type returns the document type recorded in metadata.
func (d Document) Type() DocType {
	return metaType(d.Metadata)
}

// Table returns the source table recorded in metadata.
func (d Document) Table() string {
	s, _ := d.Metadata[MetaTable].(string)
	return s
}

// IndexEntry is a document paired with its embedding, ready to be
// added to the vector index.
type IndexEntry struct {
	ID        string
	Embedding []float32
	Text      string
	Metadata  map[string]any
}

// ContextChunk is a document returned from the vector index.
type ContextChunk struct {
	ID       string
	Text     string
	Metadata map[string]any

	// Distance is the cosine distance to the query vector.
	// Nil for chunks fetched by metadata filter.
	Distance *float64
}

// Type returns the document type recorded in metadata.
func (c ContextChunk) Type() DocType {
	return metaType(c.Metadata)
}

func metaType(m map[string]any) DocType {
	s, _ := m[MetaType].(string)
	return DocType(s)
}

// ScalarMetadata returns a copy of m in which every value is a string,
// bool, int64 or float64. Integer and float kinds are widened, nil values
// are dropped and anything else is rendered with fmt.Sprint.
func ScalarMetadata(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch val := v.(type) {
		case nil:
			continue
		case string, bool, int64, float64:
			out[k] = val
		case int:
			out[k] = int64(val)
		case int8:
			out[k] = int64(val)
		case int16:
			out[k] = int64(val)
		case int32:
			out[k] = int64(val)
		case uint:
			out[k] = int64(val)
		case uint8:
			out[k] = int64(val)
		case uint16:
			out[k] = int64(val)
		case uint32:
			out[k] = int64(val)
		case uint64:
			out[k] = int64(val)
		case float32:
			out[k] = float64(val)
		case []byte:
			out[k] = string(val)
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}
