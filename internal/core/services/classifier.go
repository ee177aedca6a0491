package services

import (
	"strings"
	"unicode"

	"github.com/custodia-labs/quarry/internal/core/domain"
)

// aggregationKeywords mark questions that need a table-wide computation.
// Multi-word entries match as consecutive words.
var aggregationKeywords = []string{
	"total", "sum", "average", "avg", "mean",
	"highest", "lowest", "most", "least", "top", "bottom",
	"maximum", "minimum", "max", "min",
	"count", "statistics", "stats", "overall", "all",
	"how many", "list all", "number of",
}

// domainKeywords map each domain to the words that select it.
var domainKeywords = map[domain.Domain][]string{
	domain.DomainCustomer: {
		"customer", "customers", "client", "clients", "buyer", "buyers",
		"income", "married", "gender", "occupation", "education",
	},
	domain.DomainInventory: {
		"inventory", "stock", "units", "movement", "balance", "warehouse",
	},
	domain.DomainCompetitor: {
		"competitor", "competitors", "company", "companies", "rival", "rivals",
	},
	domain.DomainSales: {
		"sales", "sale", "revenue", "order", "orders", "profit", "margin",
	},
	domain.DomainReview: {
		"review", "reviews", "rating", "ratings", "user", "users",
		"username", "who", "reviewer", "reviewers", "full name",
	},
	domain.DomainProduct: {
		"product", "products", "price", "prices", "color", "colour",
		"model", "bike", "bikes", "item", "items",
	},
}

// Classifier assigns intents to questions by keyword membership.
// Matching is case-insensitive and on whole words, so "total" does not
// match "totally".
type Classifier struct {
	aggregation []string
	domains     map[domain.Domain][]string
}

// NewClassifier creates a classifier with the built-in keyword tables.
func NewClassifier() *Classifier {
	return &Classifier{
		aggregation: aggregationKeywords,
		domains:     domainKeywords,
	}
}

// Classify returns the intent of a question. Matched domains are listed
// in the priority order of domain.AllDomains.
func (c *Classifier) Classify(question string) domain.Intent {
	words := tokenize(question)
	if len(words) == 0 {
		return domain.Intent{}
	}
	padded := " " + strings.Join(words, " ") + " "

	intent := domain.Intent{Aggregation: matchesAny(padded, c.aggregation)}
	for _, d := range domain.AllDomains() {
		if matchesAny(padded, c.domains[d]) {
			intent.Domains = append(intent.Domains, d)
		}
	}
	return intent
}

func matchesAny(padded string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(padded, " "+kw+" ") {
			return true
		}
	}
	return false
}

// tokenize lowercases and splits on anything that is not a letter or digit.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
