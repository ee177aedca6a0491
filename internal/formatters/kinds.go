package formatters

import (
	"strings"

	"github.com/custodia-labs/quarry/internal/core/domain"
)

// Lookups holds joins resolved before any row is formatted.
type Lookups struct {
	// Users maps user_id to username.
	Users map[string]string

	// Products maps ProductKey to EnglishProductName.
	Products map[string]string
}

// FormatFunc renders one row. index is the row's position in its table and
// stands in for a missing primary key.
type FormatFunc func(row domain.Row, table string, lk Lookups, index int) (domain.Document, Projection, error)

// Kind binds a table predicate to a formatter and an optional summary.
type Kind struct {
	Name   domain.DocType
	Match  func(table string) bool
	Format FormatFunc

	// Summary is nil for kinds without a table summary.
	Summary *SummarySpec
}

// DefaultKinds returns the dispatch table. Order matters: the first kind
// whose predicate matches a table wins, so the specific competitor tables
// are tested before inventory and products, and those before the broad
// sales and user patterns.
func DefaultKinds() []Kind {
	return []Kind{
		{Name: domain.DocTypeCompetitorSales, Match: containsAll("competitor", "sales"), Format: formatCompetitorSales, Summary: &competitorSalesSummary},
		{Name: domain.DocTypeCompetitorProduct, Match: containsAll("competitor", "product"), Format: formatCompetitorProduct, Summary: &competitorProductSummary},
		{Name: domain.DocTypeInventory, Match: containsAll("inventory"), Format: formatInventory, Summary: &inventorySummary},
		{Name: domain.DocTypeProduct, Match: equalsAny("dimproduct", "product", "products"), Format: formatProduct, Summary: &productSummary},
		{Name: domain.DocTypeCustomer, Match: containsAll("customer"), Format: formatCustomer, Summary: &customerSummary},
		{Name: domain.DocTypeInternetSales, Match: containsAll("internetsales"), Format: formatInternetSales, Summary: &internetSalesSummary},
		{Name: domain.DocTypeAccount, Match: containsAll("account"), Format: formatAccount, Summary: &accountSummary},
		{Name: domain.DocTypeCurrencyRate, Match: containsAll("currencyrate"), Format: formatCurrencyRate, Summary: &currencyRateSummary},
		{Name: domain.DocTypeCurrency, Match: containsAll("currency"), Format: formatCurrency, Summary: &currencySummary},
		{Name: domain.DocTypeReview, Match: containsAll("review"), Format: formatReview, Summary: &reviewSummary},
		{Name: domain.DocTypeUser, Match: containsAll("user"), Format: formatUser, Summary: &userSummary},
	}
}

// normaliseTable lowercases a table name and strips any schema prefix,
// so "dbo.DimProduct" becomes "dimproduct".
func normaliseTable(table string) string {
	t := strings.ToLower(strings.TrimSpace(table))
	if i := strings.LastIndex(t, "."); i >= 0 {
		t = t[i+1:]
	}
	return strings.Trim(t, "[]\"`")
}

func containsAll(parts ...string) func(string) bool {
	return func(table string) bool {
		for _, p := range parts {
			if !strings.Contains(table, p) {
				return false
			}
		}
		return true
	}
}

func equalsAny(names ...string) func(string) bool {
	return func(table string) bool {
		for _, n := range names {
			if table == n {
				return true
			}
		}
		return false
	}
}

// KindFor returns the first kind matching table, or false when the
// generic formatter applies.
func KindFor(kinds []Kind, table string) (Kind, bool) {
	t := normaliseTable(table)
	for _, k := range kinds {
		if k.Match(t) {
			return k, true
		}
	}
	return Kind{}, false
}
