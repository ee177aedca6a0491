package formatters

import (
	"github.com/custodia-labs/quarry/internal/core/domain"
)

const unknownUser = "Unknown User"

var reviewSummary = SummarySpec{
	Type:  domain.DocTypeReview.Summary(),
	Title: "Review Summary",
	Noun:  "reviews",
	Breakdowns: []Breakdown{
		{Field: "rating", Label: "Rating"},
		{Field: "product", Label: "Product"},
	},
	Ranked: &Measure{Field: "rating", Label: "rating"},
}

var userSummary = SummarySpec{
	Type:      domain.DocTypeUser.Summary(),
	Title:     "User Summary",
	Noun:      "users",
	ListLimit: 50,
}

func formatReview(row domain.Row, table string, lk Lookups, index int) (domain.Document, Projection, error) {
	id, err := key(row, "review_id", index)
	if err != nil {
		return domain.Document{}, Projection{}, err
	}
	userID, hasUser, err := optionalKey(row, "user_id")
	if err != nil {
		return domain.Document{}, Projection{}, err
	}
	username := ""
	if hasUser {
		username = lk.Users[formatValue(userID)]
	}
	product := textOr(row, "product_name", textOr(row, "product", ""))
	title := textOr(row, "title", "Review "+formatValue(id))

	b := newDocBuilder(row, table, domain.DocTypeReview)
	b.title("Review", title)

	b.section("Reviewer")
	if hasUser {
		b.line("User ID", formatValue(userID))
		b.set("user_id", userID)
	}
	if username != "" {
		b.line("Username", username)
		b.set("username", username)
	}

	b.section("Review")
	b.line("Review ID", formatValue(id))
	b.line("Product", product)
	b.field("Product Key", "product_id")
	b.field("Rating", "rating")
	b.field("Body", "body")
	b.field("Comment", "comment")
	b.field("Date", "created_at")

	b.set("review_id", id)
	b.keep("rating", "product_id")
	if product != "" {
		b.set("product", product)
	}

	p := Projection{
		Key:  formatValue(id),
		Name: title,
		Categories: map[string]string{
			"rating":  textOr(row, "rating", ""),
			"product": product,
		},
		Measures: map[string]float64{},
	}
	copyMeasures(row, p.Measures, "rating")
	return b.document(), p, nil
}

func formatUser(row domain.Row, table string, _ Lookups, index int) (domain.Document, Projection, error) {
	id, err := key(row, "user_id", index)
	if err != nil {
		return domain.Document{}, Projection{}, err
	}
	username := textOr(row, "username", unknownUser)
	fullName := textOr(row, "full_name", "")

	b := newDocBuilder(row, table, domain.DocTypeUser)
	b.title("User", username)
	b.section("Profile")
	b.line("User ID", formatValue(id))
	b.line("Username", username)
	b.line("Full Name", fullName)
	b.field("Email", "email")
	b.field("Joined", "created_at")

	b.set("user_id", id)
	b.set("username", username)
	if fullName != "" {
		b.set("full_name", fullName)
	}

	p := Projection{Key: formatValue(id), Name: username}
	if fullName != "" {
		p.Listing = displayName(p) + ", " + fullName
	}
	return b.document(), p, nil
}

// userLookup maps user_id to username for one user table.
func userLookup(t domain.TableData, into map[string]string) {
	for _, row := range t.Rows {
		id, ok := row.Get("user_id")
		if !ok {
			continue
		}
		if name, ok := text(row, "username"); ok {
			into[lookupKey(id)] = name
		}
	}
}

// productLookup maps ProductKey to English name for one product table.
func productLookup(t domain.TableData, into map[string]string) {
	for _, row := range t.Rows {
		id, ok := row.Get("ProductKey")
		if !ok {
			continue
		}
		if name, ok := text(row, "EnglishProductName"); ok {
			into[lookupKey(id)] = name
		}
	}
}

// lookupKey normalises numeric identifiers so 7, int64(7) and "7" join.
func lookupKey(v any) string {
	if f, ok := toFloat(v); ok && f == float64(int64(f)) {
		return formatValue(int64(f))
	}
	return formatValue(v)
}
