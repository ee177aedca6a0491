package formatters

import (
	"strconv"

	"github.com/custodia-labs/quarry/internal/core/domain"
)

var inventorySummary = SummarySpec{
	Type:   domain.DocTypeInventory.Summary(),
	Title:  "Inventory Summary",
	Noun:   "inventory records",
	Ranked: &Measure{Field: "UnitsBalance", Label: "units balance"},
	Totals: []Measure{
		{Field: "UnitsIn", Label: "units in"},
		{Field: "UnitsOut", Label: "units out"},
		{Field: "NetMovement", Label: "net movement"},
	},
}

func formatInventory(row domain.Row, table string, lk Lookups, index int) (domain.Document, Projection, error) {
	productKey, hasProduct, err := optionalKey(row, "ProductKey")
	if err != nil {
		return domain.Document{}, Projection{}, err
	}
	keyText := lookupKey(productKey)
	name := unknownProduct
	if hasProduct {
		if n, ok := lk.Products[keyText]; ok {
			name = n
		}
	}

	b := newDocBuilder(row, table, domain.DocTypeInventory)
	b.title("Inventory Record", name)

	b.section("Product")
	if hasProduct {
		b.line("Product Key", keyText)
		b.set("ProductKey", productKey)
	}
	b.line("Product Name", name)

	b.section("Movement")
	b.field("Date Key", "DateKey")
	b.field("Movement Date", "MovementDate")
	b.moneyField("Unit Cost", "UnitCost")
	b.field("Units In", "UnitsIn")
	b.field("Units Out", "UnitsOut")
	b.field("Units Balance", "UnitsBalance")

	p := Projection{
		Name:     name,
		Measures: map[string]float64{},
	}
	if hasProduct {
		p.Key = keyText
	}
	in, okIn := number(row, "UnitsIn")
	out, okOut := number(row, "UnitsOut")
	if okIn && okOut {
		net := in - out
		b.line("Net Movement", strconv.FormatFloat(net, 'f', -1, 64))
		b.set("NetMovement", net)
		p.Measures["NetMovement"] = net
	}
	copyMeasures(row, p.Measures, "UnitsIn", "UnitsOut", "UnitsBalance")

	b.set("EnglishProductName", name)
	b.keep("DateKey", "MovementDate", "UnitsBalance")
	return b.document(), p, nil
}
