package domain

// Domain is an entity area a question can be about.
type Domain string

// Recognised domains. The order of AllDomains is the tie-break order
// used when a question mentions several.
const (
	DomainCustomer   Domain = "customer"
	DomainInventory  Domain = "inventory"
	DomainCompetitor Domain = "competitor"
	DomainSales      Domain = "sales"
	DomainReview     Domain = "review"
	DomainProduct    Domain = "product"
)

// AllDomains returns every domain in priority order.
func AllDomains() []Domain {
	return []Domain{
		DomainCustomer,
		DomainInventory,
		DomainCompetitor,
		DomainSales,
		DomainReview,
		DomainProduct,
	}
}

// EntityTypes returns the document types that belong to a domain.
func (d Domain) EntityTypes() []DocType {
	switch d {
	case DomainCustomer:
		return []DocType{DocTypeCustomer}
	case DomainInventory:
		return []DocType{DocTypeInventory}
	case DomainCompetitor:
		return []DocType{DocTypeCompetitorProduct, DocTypeCompetitorSales}
	case DomainSales:
		return []DocType{DocTypeInternetSales, DocTypeCompetitorSales}
	case DomainReview:
		return []DocType{DocTypeReview, DocTypeUser}
	case DomainProduct:
		return []DocType{DocTypeProduct}
	default:
		return nil
	}
}

// SummaryTypes returns the summary types that belong to a domain.
func (d Domain) SummaryTypes() []DocType {
	entities := d.EntityTypes()
	out := make([]DocType, len(entities))
	for i, t := range entities {
		out[i] = t.Summary()
	}
	return out
}

// Intent is the retrieval intent derived from a question.
// Flags are not mutually exclusive.
type Intent struct {
	// Aggregation is set for totals, averages, extremes and rankings.
	Aggregation bool

	// Domains lists every matched domain in priority order.
	Domains []Domain
}

// HasDomain returns true if d was matched.
func (i Intent) HasDomain(d Domain) bool {
	for _, m := range i.Domains {
		if m == d {
			return true
		}
	}
	return false
}

// Primary returns the highest-priority matched domain, or "" if none.
func (i Intent) Primary() Domain {
	if len(i.Domains) == 0 {
		return ""
	}
	return i.Domains[0]
}

// IsNeutral returns true when neither aggregation nor any domain matched.
func (i Intent) IsNeutral() bool {
	return !i.Aggregation && len(i.Domains) == 0
}

// Retrieval records how context was gathered for a question.
type Retrieval struct {
	Intent Intent

	// TopK is the search breadth used.
	TopK int

	// IndexCount is the index size seen when choosing TopK, or -1.
	IndexCount int

	// Chunks are the ordered, capped documents that form Context.
	Chunks []ContextChunk

	// Context is the joined text handed to the chat model.
	Context string
}
