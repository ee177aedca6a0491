package formatters

import (
	"github.com/custodia-labs/quarry/internal/core/domain"
)

var accountSummary = SummarySpec{
	Type:  domain.DocTypeAccount.Summary(),
	Title: "Account Summary",
	Noun:  "accounts",
	Breakdowns: []Breakdown{
		{Field: "AccountType", Label: "Account Type"},
		{Field: "Operator", Label: "Operator"},
		{Field: "ValueType", Label: "Value Type"},
	},
}

var currencySummary = SummarySpec{
	Type:      domain.DocTypeCurrency.Summary(),
	Title:     "Currency Summary",
	Noun:      "currencies",
	ListLimit: 200,
}

var currencyRateSummary = SummarySpec{
	Type:  domain.DocTypeCurrencyRate.Summary(),
	Title: "Currency Rate Summary",
	Noun:  "currency rates",
	Breakdowns: []Breakdown{
		{Field: "CurrencyKey", Label: "Currency"},
	},
	Ranked: &Measure{Field: "AverageRate", Label: "average rate"},
}

func formatAccount(row domain.Row, table string, _ Lookups, index int) (domain.Document, Projection, error) {
	k, err := key(row, "AccountKey", index)
	if err != nil {
		return domain.Document{}, Projection{}, err
	}
	desc := textOr(row, "AccountDescription", "Unknown Account")

	b := newDocBuilder(row, table, domain.DocTypeAccount)
	b.title("Account", desc)

	b.section("Hierarchy")
	b.line("Account Key", formatValue(k))
	b.field("Parent Account Key", "ParentAccountKey")
	b.field("Account Code", "AccountCodeAlternateKey")
	b.field("Parent Account Code", "ParentAccountCodeAlternateKey")

	b.section("Behaviour")
	b.field("Account Type", "AccountType")
	b.field("Operator", "Operator")
	b.field("Value Type", "ValueType")
	b.field("Custom Members", "CustomMembers")
	b.field("Custom Member Options", "CustomMemberOptions")

	b.set("AccountKey", k)
	b.set("AccountDescription", desc)
	b.keep("AccountType", "ParentAccountKey")

	p := Projection{
		Key:  formatValue(k),
		Name: desc,
		Categories: map[string]string{
			"AccountType": textOr(row, "AccountType", ""),
			"Operator":    textOr(row, "Operator", ""),
			"ValueType":   textOr(row, "ValueType", ""),
		},
	}
	return b.document(), p, nil
}

func formatCurrency(row domain.Row, table string, _ Lookups, index int) (domain.Document, Projection, error) {
	k, err := key(row, "CurrencyKey", index)
	if err != nil {
		return domain.Document{}, Projection{}, err
	}
	name := textOr(row, "CurrencyName", "Unknown Currency")
	code := textOr(row, "CurrencyAlternateKey", "")

	b := newDocBuilder(row, table, domain.DocTypeCurrency)
	b.title("Currency", name)
	b.section("Identification")
	b.line("Currency Key", formatValue(k))
	b.line("Currency Code", code)

	b.set("CurrencyKey", k)
	b.set("CurrencyName", name)
	b.keep("CurrencyAlternateKey")

	p := Projection{Key: formatValue(k), Name: name}
	if code != "" {
		p.Listing = name + " (" + code + ")"
	}
	return b.document(), p, nil
}

func formatCurrencyRate(row domain.Row, table string, _ Lookups, index int) (domain.Document, Projection, error) {
	currency, hasCurrency, err := optionalKey(row, "CurrencyKey")
	if err != nil {
		return domain.Document{}, Projection{}, err
	}
	label := "Unknown Currency"
	if hasCurrency {
		label = "Currency " + formatValue(currency)
	}
	date := textOr(row, "Date", textOr(row, "DateKey", ""))

	b := newDocBuilder(row, table, domain.DocTypeCurrencyRate)
	b.title("Currency Rate", label)
	b.section("Rate")
	if hasCurrency {
		b.line("Currency Key", formatValue(currency))
		b.set("CurrencyKey", currency)
	}
	b.field("Date Key", "DateKey")
	b.field("Date", "Date")
	b.field("Average Rate", "AverageRate")
	b.field("End of Day Rate", "EndOfDayRate")
	b.keep("DateKey", "AverageRate", "EndOfDayRate")

	p := Projection{
		Key:        date,
		Name:       label,
		Categories: map[string]string{},
		Measures:   map[string]float64{},
	}
	if hasCurrency {
		p.Categories["CurrencyKey"] = formatValue(currency)
	}
	copyMeasures(row, p.Measures, "AverageRate")
	return b.document(), p, nil
}
