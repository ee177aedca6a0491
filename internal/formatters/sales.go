package formatters

import (
	"strconv"

	"github.com/custodia-labs/quarry/internal/core/domain"
)

var internetSalesSummary = SummarySpec{
	Type:  domain.DocTypeInternetSales.Summary(),
	Title: "Internet Sales Summary",
	Noun:  "sales orders",
	Breakdowns: []Breakdown{
		{Field: "Product", Label: "Product"},
		{Field: "SalesTerritoryKey", Label: "Sales Territory"},
	},
	Ranked: &Measure{Field: "SalesAmount", Label: "sales amount"},
	Totals: []Measure{
		{Field: "SalesAmount", Label: "sales amount"},
		{Field: "TotalProductCost", Label: "product cost"},
		{Field: "Profit", Label: "profit"},
		{Field: "TaxAmt", Label: "tax"},
		{Field: "Freight", Label: "freight"},
		{Field: "OrderQuantity", Label: "order quantity"},
	},
}

func formatInternetSales(row domain.Row, table string, lk Lookups, index int) (domain.Document, Projection, error) {
	productKey, hasProduct, err := optionalKey(row, "ProductKey")
	if err != nil {
		return domain.Document{}, Projection{}, err
	}
	order := textOr(row, "SalesOrderNumber", "Order "+strconv.Itoa(index+1))
	if line, ok := text(row, "SalesOrderLineNumber"); ok {
		order += "/" + line
	}
	product := unknownProduct
	if hasProduct {
		if n, ok := lk.Products[lookupKey(productKey)]; ok {
			product = n
		}
	}

	b := newDocBuilder(row, table, domain.DocTypeInternetSales)
	b.title("Internet Sale", order)

	b.section("Order")
	b.field("Sales Order Number", "SalesOrderNumber")
	b.field("Line Number", "SalesOrderLineNumber")
	b.field("Customer Key", "CustomerKey")
	b.field("Sales Territory Key", "SalesTerritoryKey")
	b.field("Promotion Key", "PromotionKey")
	b.field("Currency Key", "CurrencyKey")

	b.section("Product")
	if hasProduct {
		b.line("Product Key", formatValue(productKey))
		b.set("ProductKey", productKey)
	}
	b.line("Product Name", product)

	b.section("Amounts")
	b.field("Order Quantity", "OrderQuantity")
	b.moneyField("Unit Price", "UnitPrice")
	b.field("Unit Price Discount Pct", "UnitPriceDiscountPct")
	b.moneyField("Discount Amount", "DiscountAmount")
	b.moneyField("Product Standard Cost", "ProductStandardCost")
	b.moneyField("Total Product Cost", "TotalProductCost")
	b.moneyField("Sales Amount", "SalesAmount")
	b.moneyField("Tax", "TaxAmt")
	b.moneyField("Freight", "Freight")

	b.section("Dates")
	b.field("Order Date", "OrderDate")
	b.field("Due Date", "DueDate")
	b.field("Ship Date", "ShipDate")

	p := Projection{
		Key:  order,
		Name: product,
		Categories: map[string]string{
			"Product":           product,
			"SalesTerritoryKey": textOr(row, "SalesTerritoryKey", ""),
		},
		Measures: map[string]float64{},
	}
	profitSection(b, row, p.Measures)
	copyMeasures(row, p.Measures, "SalesAmount", "TotalProductCost", "TaxAmt", "Freight", "OrderQuantity")

	b.set("SalesOrderNumber", order)
	b.set("EnglishProductName", product)
	b.keep("CustomerKey", "SalesAmount", "OrderDate")
	return b.document(), p, nil
}
