package formatters

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/custodia-labs/quarry/internal/core/domain"
)

// rankLimit is the length of the top and bottom rankings.
const rankLimit = 10

const notSpecified = "Not specified"

// Projection is the part of an entity row kept for table-level aggregation.
type Projection struct {
	Key  string
	Name string

	// Categories maps breakdown fields to values. Empty means not specified.
	Categories map[string]string

	// Measures holds the numeric fields that were present on the row.
	Measures map[string]float64

	// Listing is an optional one-line description for the complete listing.
	Listing string
}

// Breakdown names a categorical field to count.
type Breakdown struct {
	Field string
	Label string
}

// Measure names a numeric field. Label is lower case, e.g. "list price".
type Measure struct {
	Field string
	Label string
}

// SummarySpec declares how the rows of one entity kind are aggregated.
type SummarySpec struct {
	Type  domain.DocType
	Title string

	// Noun is the plural entity name, e.g. "products".
	Noun string

	Breakdowns []Breakdown

	// Ranked drives the statistics section and the top and bottom rankings.
	Ranked *Measure

	// Totals are summed across all rows.
	Totals []Measure

	// ListLimit, when positive, adds a listing of the first ListLimit rows.
	ListLimit int
}

// Summarize aggregates projections into one summary document. Sections
// whose input is empty are omitted, so an empty table still yields a
// valid document with a zero count.
func Summarize(spec SummarySpec, items []Projection, table string) domain.Document {
	s := &summaryWriter{}
	meta := map[string]any{
		domain.MetaTable:     table,
		domain.MetaType:      string(spec.Type),
		"total_" + spec.Noun: len(items),
	}

	s.lines = append(s.lines, spec.Title, "Table: "+table)

	s.header("Counts")
	s.item(fmt.Sprintf("Total %s: %d", spec.Noun, len(items)))

	var ranked []Projection
	if spec.Ranked != nil {
		ranked = withMeasure(items, spec.Ranked.Field)
		s.item(fmt.Sprintf("%s with %s: %d", capitalise(spec.Noun), spec.Ranked.Label, len(ranked)))
	}

	for _, b := range spec.Breakdowns {
		s.breakdown(b, items)
	}

	s.totals(spec.Totals, items, meta)

	if spec.Ranked != nil && len(ranked) > 0 {
		s.statistics(*spec.Ranked, ranked, meta)
		s.rankings(spec, ranked)
	}

	if spec.ListLimit > 0 && len(items) > 0 {
		s.listing(spec, items)
	}

	return domain.Document{
		Text:     strings.Join(s.lines, "\n"),
		Metadata: domain.ScalarMetadata(meta),
	}
}

type summaryWriter struct {
	lines []string
}

func (s *summaryWriter) header(name string) {
	s.lines = append(s.lines, "", name)
}

func (s *summaryWriter) item(line string) {
	s.lines = append(s.lines, "- "+line)
}

type bucket struct {
	value string
	count int
}

// breakdown counts each value of a categorical field. Buckets are sorted by
// descending count, ties keeping first-seen order. Rows without a value are
// counted as "Not specified" so the percentages cover every row.
func (s *summaryWriter) breakdown(b Breakdown, items []Projection) {
	var buckets []bucket
	index := map[string]int{}
	specified := 0
	for _, it := range items {
		v := it.Categories[b.Field]
		if v == "" {
			v = notSpecified
		} else {
			specified++
		}
		i, ok := index[v]
		if !ok {
			i = len(buckets)
			index[v] = i
			buckets = append(buckets, bucket{value: v})
		}
		buckets[i].count++
	}
	if specified == 0 {
		return
	}

	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].count > buckets[j].count
	})

	total := float64(len(items))
	s.header("Breakdown by " + b.Label)
	for _, bk := range buckets {
		s.item(fmt.Sprintf("%s: %d (%.1f%%)", bk.value, bk.count, float64(bk.count)/total*100))
	}
}

func (s *summaryWriter) totals(measures []Measure, items []Projection, meta map[string]any) {
	wrote := false
	for _, m := range measures {
		sum, n := 0.0, 0
		for _, it := range items {
			if v, ok := it.Measures[m.Field]; ok {
				sum += v
				n++
			}
		}
		if n == 0 {
			continue
		}
		if !wrote {
			s.header("Totals")
			wrote = true
		}
		s.item(fmt.Sprintf("Total %s: %s", m.Label, money(sum)))
		meta[snake(m.Label)+"_sum"] = sum
	}
}

func (s *summaryWriter) statistics(m Measure, ranked []Projection, meta map[string]any) {
	sum := 0.0
	lo, hi := ranked[0].Measures[m.Field], ranked[0].Measures[m.Field]
	for _, it := range ranked {
		v := it.Measures[m.Field]
		sum += v
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	avg := sum / float64(len(ranked))

	s.header(titleCase(m.Label) + " Statistics")
	s.item(fmt.Sprintf("Count: %d", len(ranked)))
	s.item(fmt.Sprintf("Average %s: %s", m.Label, money(avg)))
	s.item(fmt.Sprintf("Highest %s: %s", m.Label, money(hi)))
	s.item(fmt.Sprintf("Lowest %s: %s", m.Label, money(lo)))

	prefix := snake(m.Label)
	meta[prefix+"_count"] = len(ranked)
	meta[prefix+"_avg"] = avg
	meta[prefix+"_max"] = hi
	meta[prefix+"_min"] = lo
}

func (s *summaryWriter) rankings(spec SummarySpec, ranked []Projection) {
	field := spec.Ranked.Field

	top := append([]Projection(nil), ranked...)
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].Measures[field] > top[j].Measures[field]
	})
	bottom := append([]Projection(nil), ranked...)
	sort.SliceStable(bottom, func(i, j int) bool {
		return bottom[i].Measures[field] < bottom[j].Measures[field]
	})

	n := min(rankLimit, len(ranked))
	label := titleCase(spec.Ranked.Label)
	noun := capitalise(spec.Noun)

	s.header(fmt.Sprintf("Top %d %s by %s", n, noun, label))
	for i, it := range top[:n] {
		s.lines = append(s.lines, fmt.Sprintf("%d. %s: %s", i+1, displayName(it), money(it.Measures[field])))
	}
	s.header(fmt.Sprintf("Bottom %d %s by %s", n, noun, label))
	for i, it := range bottom[:n] {
		s.lines = append(s.lines, fmt.Sprintf("%d. %s: %s", i+1, displayName(it), money(it.Measures[field])))
	}
}

func (s *summaryWriter) listing(spec SummarySpec, items []Projection) {
	s.header("Complete List of " + capitalise(spec.Noun))
	n := min(spec.ListLimit, len(items))
	for _, it := range items[:n] {
		line := displayName(it)
		if it.Listing != "" {
			line = it.Listing
		}
		s.item(line)
	}
	if rest := len(items) - n; rest > 0 {
		s.lines = append(s.lines, fmt.Sprintf("... and %d more %s", rest, spec.Noun))
	}
}

func withMeasure(items []Projection, field string) []Projection {
	var out []Projection
	for _, it := range items {
		if _, ok := it.Measures[field]; ok {
			out = append(out, it)
		}
	}
	return out
}

func displayName(p Projection) string {
	name := p.Name
	if name == "" {
		name = "Unnamed"
	}
	if p.Key == "" {
		return name
	}
	return name + " (Key: " + p.Key + ")"
}

func capitalise(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = capitalise(w)
	}
	return strings.Join(words, " ")
}

func snake(label string) string {
	return strings.ToLower(strings.Join(strings.Fields(label), "_"))
}
