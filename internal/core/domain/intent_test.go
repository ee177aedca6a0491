package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllDomains_PriorityOrder(t *testing.T) {
	domains := AllDomains()
	assert.Equal(t, DomainCustomer, domains[0])
	assert.Equal(t, DomainProduct, domains[len(domains)-1])
}

func TestDomain_SummaryTypes(t *testing.T) {
	assert.Equal(t, []DocType{"customer_summary"}, DomainCustomer.SummaryTypes())
	assert.Equal(t,
		[]DocType{"competitor_product_summary", "competitor_sales_summary"},
		DomainCompetitor.SummaryTypes())
	assert.Empty(t, Domain("unknown").SummaryTypes())
}

func TestIntent(t *testing.T) {
	neutral := Intent{}
	assert.True(t, neutral.IsNeutral())
	assert.Equal(t, Domain(""), neutral.Primary())

	intent := Intent{Aggregation: true, Domains: []Domain{DomainCustomer, DomainProduct}}
	assert.False(t, intent.IsNeutral())
	assert.Equal(t, DomainCustomer, intent.Primary())
	assert.True(t, intent.HasDomain(DomainProduct))
	assert.False(t, intent.HasDomain(DomainInventory))
}
