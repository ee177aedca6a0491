package formatters

import (
	"bytes"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/quarry/internal/core/domain"
	"github.com/custodia-labs/quarry/internal/logger"
)

func TestKindFor_DispatchOrder(t *testing.T) {
	kinds := DefaultKinds()
	tests := []struct {
		table    string
		expected domain.DocType
		matched  bool
	}{
		{"CompetitorFactInternetSales", domain.DocTypeCompetitorSales, true},
		{"CompetitorDimProduct", domain.DocTypeCompetitorProduct, true},
		{"FactProductInventory", domain.DocTypeInventory, true},
		{"DimProduct", domain.DocTypeProduct, true},
		{"dbo.DimProduct", domain.DocTypeProduct, true},
		{"[dbo].[DimProduct]", domain.DocTypeProduct, true},
		{"products", domain.DocTypeProduct, true},
		{"DimCustomer", domain.DocTypeCustomer, true},
		{"FactInternetSales", domain.DocTypeInternetSales, true},
		{"DimAccount", domain.DocTypeAccount, true},
		{"FactCurrencyRate", domain.DocTypeCurrencyRate, true},
		{"DimCurrency", domain.DocTypeCurrency, true},
		{"reviews", domain.DocTypeReview, true},
		{"users", domain.DocTypeUser, true},
		{"DimProductCategory", "", false},
		{"DimSalesTerritory", "", false},
		{"DimDate", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			kind, ok := KindFor(kinds, tt.table)
			assert.Equal(t, tt.matched, ok)
			assert.Equal(t, tt.expected, kind.Name)
		})
	}
}

func products(prices ...float64) domain.TableData {
	t := domain.TableData{Name: "DimProduct"}
	for i, p := range prices {
		t.Rows = append(t.Rows, domain.RowFromPairs(
			"ProductKey", i+1,
			"EnglishProductName", fmt.Sprintf("Product %d", i+1),
			"ListPrice", p,
		))
	}
	return t
}

func TestAssemble_ProductsWithSummary(t *testing.T) {
	docs, report := NewAssembler().Assemble([]domain.TableData{products(10, 20, 30)})

	require.Len(t, docs, 4)
	for _, d := range docs[:3] {
		assert.Equal(t, domain.DocTypeProduct, d.Type())
	}
	summary := docs[3]
	assert.Equal(t, domain.DocType("product_summary"), summary.Type())
	assert.Contains(t, summary.Text, "Average list price: 20.00")
	assert.Contains(t, summary.Text, "Highest list price: 30.00")
	assert.Contains(t, summary.Text, "Lowest list price: 10.00")

	assert.Equal(t, 1, report.Tables)
	assert.Equal(t, 4, report.Documents)
	assert.Equal(t, 1, report.Summaries)
	assert.Equal(t, 0, report.SkippedRows)
}

func TestAssemble_AssignsSequentialIDs(t *testing.T) {
	docs, _ := NewAssembler().Assemble([]domain.TableData{products(1, 2)})

	for i, d := range docs {
		assert.Equal(t, fmt.Sprintf("doc_%d", i), d.ID)
	}
}

func TestAssemble_GenericTableHasNoSummary(t *testing.T) {
	table := domain.TableData{
		Name: "DimSalesTerritory",
		Rows: []domain.Row{
			domain.RowFromPairs("SalesTerritoryKey", 1, "SalesTerritoryRegion", "Northwest"),
			domain.RowFromPairs("SalesTerritoryKey", 2, "SalesTerritoryRegion", "Canada"),
		},
	}

	docs, report := NewAssembler().Assemble([]domain.TableData{table})

	require.Len(t, docs, 2)
	for _, d := range docs {
		assert.Equal(t, domain.DocTypeRecord, d.Type())
		assert.False(t, d.Type().IsSummary())
	}
	assert.Equal(t, 0, report.Summaries)
}

func TestAssemble_EmptyTableStillSummarised(t *testing.T) {
	docs, _ := NewAssembler().Assemble([]domain.TableData{{Name: "DimProduct"}})

	require.Len(t, docs, 1)
	assert.True(t, docs[0].Type().IsSummary())
	assert.Contains(t, docs[0].Text, "Total products: 0")
}

func TestAssemble_SkipsInvalidRows(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(os.Stderr)

	table := products(10, 20)
	table.Rows = append(table.Rows, domain.RowFromPairs("ProductKey", 2.5))

	docs, report := NewAssembler().Assemble([]domain.TableData{table})

	assert.Len(t, docs, 3)
	assert.Equal(t, 1, report.SkippedRows)
	assert.Contains(t, buf.String(), "skipping row 2 of DimProduct")
	assert.Contains(t, docs[2].Text, "Total products: 2")
}

func TestAssemble_JoinsAcrossTables(t *testing.T) {
	tables := []domain.TableData{
		{Name: "reviews", Rows: []domain.Row{domain.RowFromPairs("review_id", 1, "user_id", 7, "rating", 4)}},
		{Name: "FactProductInventory", Rows: []domain.Row{domain.RowFromPairs("ProductKey", 1, "UnitsIn", 5, "UnitsOut", 2)}},
		products(10),
		{Name: "users", Rows: []domain.Row{domain.RowFromPairs("user_id", 7, "username", "rider42")}},
	}

	docs, _ := NewAssembler().Assemble(tables)

	assert.Contains(t, docs[0].Text, "- Username: rider42", "user table after reviews still joins")
	assert.Contains(t, docs[2].Text, "Inventory Record: Product 1")
}

func TestAssemble_StringKeyedUsersAndReviews(t *testing.T) {
	tables := []domain.TableData{
		{Name: "users", Rows: []domain.Row{
			domain.RowFromPairs("user_id", "u-alice", "username", "alice"),
			domain.RowFromPairs("user_id", "u-bob", "username", "bob"),
		}},
		{Name: "reviews", Rows: []domain.Row{
			domain.RowFromPairs("review_id", "r-1", "user_id", "u-alice", "rating", 5),
			domain.RowFromPairs("review_id", "r-2", "user_id", "u-bob ", "rating", 3),
		}},
	}

	docs, report := NewAssembler().Assemble(tables)

	assert.Equal(t, 0, report.SkippedRows)
	var users, reviews []domain.Document
	for _, d := range docs {
		switch d.Type() {
		case domain.DocTypeUser:
			users = append(users, d)
		case domain.DocTypeReview:
			reviews = append(reviews, d)
		}
	}
	require.Len(t, users, 2)
	require.Len(t, reviews, 2)

	assert.Equal(t, "u-alice", users[0].Metadata["user_id"])
	assert.Equal(t, "u-alice", reviews[0].Metadata["user_id"], "string keys are stored unchanged")
	assert.Equal(t, "r-1", reviews[0].Metadata["review_id"])
	assert.Contains(t, reviews[0].Text, "- Username: alice")
	assert.Contains(t, reviews[1].Text, "- Username: bob")
}

func TestAssemble_OrderFollowsTablesThenRows(t *testing.T) {
	tables := []domain.TableData{
		{Name: "DimDate", Rows: []domain.Row{domain.RowFromPairs("DateKey", 1)}},
		products(5),
	}

	docs, _ := NewAssembler().Assemble(tables)

	require.Len(t, docs, 3)
	assert.Equal(t, "DimDate", docs[0].Table())
	assert.Equal(t, domain.DocTypeProduct, docs[1].Type())
	assert.True(t, docs[2].Type().IsSummary())
}

func TestAssemble_Deterministic(t *testing.T) {
	tables := []domain.TableData{products(3, 1, 2), {Name: "DimDate", Rows: []domain.Row{domain.RowFromPairs("DateKey", 1)}}}

	first, _ := NewAssembler().Assemble(tables)
	again, _ := NewAssembler().Assemble(tables)

	assert.Equal(t, first, again)
}
