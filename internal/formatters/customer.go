package formatters

import (
	"strings"

	"github.com/custodia-labs/quarry/internal/core/domain"
)

const unknownCustomer = "Unknown Customer"

var customerSummary = SummarySpec{
	Type:  domain.DocTypeCustomer.Summary(),
	Title: "Customer Summary",
	Noun:  "customers",
	Breakdowns: []Breakdown{
		{Field: "Gender", Label: "Gender"},
		{Field: "MaritalStatus", Label: "Marital Status"},
		{Field: "EnglishEducation", Label: "Education"},
		{Field: "EnglishOccupation", Label: "Occupation"},
		{Field: "CommuteDistance", Label: "Commute Distance"},
	},
	Ranked: &Measure{Field: "YearlyIncome", Label: "yearly income"},
}

func formatCustomer(row domain.Row, table string, _ Lookups, index int) (domain.Document, Projection, error) {
	k, err := key(row, "CustomerKey", index)
	if err != nil {
		return domain.Document{}, Projection{}, err
	}
	name := customerName(row)

	b := newDocBuilder(row, table, domain.DocTypeCustomer)
	b.title("Customer", name)

	b.section("Identification")
	b.line("Customer Key", formatValue(k))
	b.field("Customer Alternate Key", "CustomerAlternateKey")
	b.field("Title", "Title")

	b.section("Demographics")
	b.field("Birth Date", "BirthDate")
	b.codeField("Marital Status", "MaritalStatus", maritalStatusNames)
	b.codeField("Gender", "Gender", genderNames)
	b.field("Education", "EnglishEducation")
	b.field("Occupation", "EnglishOccupation")
	b.moneyField("Yearly Income", "YearlyIncome")

	b.section("Household")
	b.field("Total Children", "TotalChildren")
	b.field("Children at Home", "NumberChildrenAtHome")
	b.flagField("House Owner", "HouseOwnerFlag")
	b.field("Cars Owned", "NumberCarsOwned")
	b.field("Commute Distance", "CommuteDistance")

	b.section("Contact")
	b.field("Email", "EmailAddress")
	b.field("Phone", "Phone")
	b.field("Address", "AddressLine1")
	b.field("Address Line 2", "AddressLine2")
	b.field("Geography Key", "GeographyKey")

	b.section("Purchasing")
	b.field("First Purchase Date", "DateFirstPurchase")

	b.set("CustomerKey", k)
	b.set("FullName", name)
	b.keep("EmailAddress", "YearlyIncome", "EnglishOccupation")

	p := Projection{
		Key:  formatValue(k),
		Name: name,
		Categories: map[string]string{
			"Gender":            codeName(genderNames, textOr(row, "Gender", "")),
			"MaritalStatus":     codeName(maritalStatusNames, textOr(row, "MaritalStatus", "")),
			"EnglishEducation":  textOr(row, "EnglishEducation", ""),
			"EnglishOccupation": textOr(row, "EnglishOccupation", ""),
			"CommuteDistance":   textOr(row, "CommuteDistance", ""),
		},
		Measures: map[string]float64{},
	}
	copyMeasures(row, p.Measures, "YearlyIncome")
	return b.document(), p, nil
}

// customerName prefers FullName, then the joined name parts.
func customerName(row domain.Row) string {
	if full, ok := text(row, "FullName"); ok {
		return full
	}
	var parts []string
	for _, c := range []string{"FirstName", "MiddleName", "LastName"} {
		if s, ok := text(row, c); ok {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return unknownCustomer
	}
	return strings.Join(parts, " ")
}
