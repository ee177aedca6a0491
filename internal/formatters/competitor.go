package formatters

import (
	"strconv"

	"github.com/custodia-labs/quarry/internal/core/domain"
)

const unknownCompany = "Unknown Company"

var competitorProductSummary = SummarySpec{
	Type:  domain.DocTypeCompetitorProduct.Summary(),
	Title: "Competitor Product Summary",
	Noun:  "competitor products",
	Breakdowns: []Breakdown{
		{Field: "Company", Label: "Company"},
		{Field: "Color", Label: "Color"},
		{Field: "ProductLine", Label: "Product Line"},
	},
	Ranked: &Measure{Field: "ListPrice", Label: "list price"},
}

var competitorSalesSummary = SummarySpec{
	Type:  domain.DocTypeCompetitorSales.Summary(),
	Title: "Competitor Sales Summary",
	Noun:  "competitor sales",
	Breakdowns: []Breakdown{
		{Field: "Company", Label: "Company"},
	},
	Ranked: &Measure{Field: "SalesAmount", Label: "sales amount"},
	Totals: []Measure{
		{Field: "SalesAmount", Label: "sales amount"},
		{Field: "TotalProductCost", Label: "product cost"},
		{Field: "Profit", Label: "profit"},
		{Field: "OrderQuantity", Label: "order quantity"},
	},
}

func formatCompetitorProduct(row domain.Row, table string, _ Lookups, index int) (domain.Document, Projection, error) {
	b, p, err := buildProduct(row, table, index, domain.DocTypeCompetitorProduct)
	if err != nil {
		return domain.Document{}, Projection{}, err
	}
	company := textOr(row, "Company", unknownCompany)
	b.section("Competitor")
	b.line("Company", company)
	b.set("Company", company)
	p.Categories["Company"] = company
	return b.document(), p, nil
}

func formatCompetitorSales(row domain.Row, table string, _ Lookups, index int) (domain.Document, Projection, error) {
	productKey, hasProduct, err := optionalKey(row, "ProductKey")
	if err != nil {
		return domain.Document{}, Projection{}, err
	}
	company := textOr(row, "Company", unknownCompany)

	b := newDocBuilder(row, table, domain.DocTypeCompetitorSales)
	b.title("Competitor Sale", company)

	b.section("Order")
	b.line("Company", company)
	if hasProduct {
		b.line("Product Key", formatValue(productKey))
		b.set("ProductKey", productKey)
	}
	b.field("Order Date Key", "OrderDateKey")
	b.field("Sales Territory Key", "SalesTerritoryKey")

	b.section("Amounts")
	b.field("Order Quantity", "OrderQuantity")
	b.moneyField("Unit Price", "UnitPrice")
	b.moneyField("Standard Cost", "StandardCost")
	b.moneyField("Total Product Cost", "TotalProductCost")
	b.moneyField("Sales Amount", "SalesAmount")

	p := Projection{
		Key:        strconv.Itoa(index),
		Name:       company + " sale " + strconv.Itoa(index+1),
		Categories: map[string]string{"Company": company},
		Measures:   map[string]float64{},
	}
	if hasProduct {
		p.Name = company + " product " + formatValue(productKey)
	}
	profitSection(b, row, p.Measures)

	b.set("Company", company)
	b.keep("SalesAmount", "OrderQuantity")
	copyMeasures(row, p.Measures, "SalesAmount", "TotalProductCost", "OrderQuantity")
	return b.document(), p, nil
}

// profitSection derives profit and margin from SalesAmount and
// TotalProductCost. Margin is only stated for positive sales.
func profitSection(b *docBuilder, row domain.Row, measures map[string]float64) {
	sales, okSales := number(row, "SalesAmount")
	cost, okCost := number(row, "TotalProductCost")
	if !okSales || !okCost {
		return
	}
	profit := sales - cost
	b.section("Profitability")
	b.line("Profit", money(profit))
	b.set("Profit", profit)
	measures["Profit"] = profit
	if sales > 0 {
		margin := profit / sales * 100
		b.line("Profit Margin", strconv.FormatFloat(margin, 'f', 1, 64)+"%")
		b.set("ProfitMargin", margin)
	}
}

func copyMeasures(row domain.Row, measures map[string]float64, columns ...string) {
	for _, c := range columns {
		if f, ok := number(row, c); ok {
			measures[c] = f
		}
	}
}
