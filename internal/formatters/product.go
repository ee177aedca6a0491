package formatters

import (
	"github.com/custodia-labs/quarry/internal/core/domain"
)

const unknownProduct = "Unknown Product"

// productListLimit bounds the complete listing in the product summary.
const productListLimit = 50

var productSummary = SummarySpec{
	Type:  domain.DocTypeProduct.Summary(),
	Title: "Product Summary",
	Noun:  "products",
	Breakdowns: []Breakdown{
		{Field: "Color", Label: "Color"},
		{Field: "ProductLine", Label: "Product Line"},
		{Field: "Class", Label: "Class"},
		{Field: "Style", Label: "Style"},
	},
	Ranked:    &Measure{Field: "ListPrice", Label: "list price"},
	ListLimit: productListLimit,
}

func formatProduct(row domain.Row, table string, _ Lookups, index int) (domain.Document, Projection, error) {
	b, p, err := buildProduct(row, table, index, domain.DocTypeProduct)
	if err != nil {
		return domain.Document{}, Projection{}, err
	}
	return b.document(), p, nil
}

// buildProduct renders the fields shared by own and competitor products.
func buildProduct(row domain.Row, table string, index int, docType domain.DocType) (*docBuilder, Projection, error) {
	k, err := key(row, "ProductKey", index)
	if err != nil {
		return nil, Projection{}, err
	}
	name := textOr(row, "EnglishProductName", textOr(row, "ProductName", unknownProduct))

	b := newDocBuilder(row, table, docType)
	b.title("Product", name)

	b.section("Identification")
	b.line("Product Key", formatValue(k))
	b.field("Product Alternate Key", "ProductAlternateKey")
	b.field("Product Subcategory Key", "ProductSubcategoryKey")

	b.section("Pricing")
	b.moneyField("List Price", "ListPrice")
	b.moneyField("Standard Cost", "StandardCost")
	b.moneyField("Dealer Price", "DealerPrice")
	if list, ok := number(row, "ListPrice"); ok {
		if cost, ok := number(row, "StandardCost"); ok && list > 0 {
			b.line("Markup Over Cost", money(list-cost))
		}
	}

	b.section("Physical Attributes")
	b.field("Color", "Color")
	b.field("Size", "Size")
	b.field("Size Range", "SizeRange")
	b.field("Size Unit", "SizeUnitMeasureCode")
	b.field("Weight", "Weight")
	b.field("Weight Unit", "WeightUnitMeasureCode")

	b.section("Classification")
	b.codeField("Product Line", "ProductLine", productLineNames)
	b.codeField("Class", "Class", productClassNames)
	b.codeField("Style", "Style", productStyleNames)
	b.field("Model Name", "ModelName")

	b.section("Manufacturing")
	b.field("Days to Manufacture", "DaysToManufacture")
	b.flagField("Finished Goods", "FinishedGoodsFlag")

	b.section("Inventory Policy")
	b.field("Safety Stock Level", "SafetyStockLevel")
	b.field("Reorder Point", "ReorderPoint")

	b.section("Other Names")
	b.field("Spanish Name", "SpanishProductName")
	b.field("French Name", "FrenchProductName")

	b.section("Description")
	switch {
	case has(row, "EnglishDescription"):
		b.field("Description", "EnglishDescription")
	case has(row, "ProductDescription"):
		b.field("Description", "ProductDescription")
	case has(row, "FrenchDescription"):
		b.field("Description (French)", "FrenchDescription")
	case has(row, "GermanDescription"):
		b.field("Description (German)", "GermanDescription")
	}

	b.section("Lifecycle")
	b.field("Start Date", "StartDate")
	b.field("End Date", "EndDate")
	b.field("Status", "Status")

	b.set("ProductKey", k)
	b.set("EnglishProductName", name)
	b.keep("ProductAlternateKey", "Color", "ListPrice")

	p := Projection{
		Key:  formatValue(k),
		Name: name,
		Categories: map[string]string{
			"Color":       textOr(row, "Color", ""),
			"ProductLine": codeName(productLineNames, textOr(row, "ProductLine", "")),
			"Class":       codeName(productClassNames, textOr(row, "Class", "")),
			"Style":       codeName(productStyleNames, textOr(row, "Style", "")),
		},
		Measures: map[string]float64{},
	}
	listing := displayName(p)
	if list, ok := number(row, "ListPrice"); ok {
		p.Measures["ListPrice"] = list
		listing += ", List Price: " + money(list)
	}
	if color, ok := text(row, "Color"); ok {
		listing += ", Color: " + color
	}
	p.Listing = listing
	return b, p, nil
}

func has(row domain.Row, column string) bool {
	_, ok := text(row, column)
	return ok
}
