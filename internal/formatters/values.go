package formatters

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/quarry/internal/core/domain"
)

// text returns a column rendered as display text. Blank strings count as absent.
func text(row domain.Row, column string) (string, bool) {
	v, ok := row.Get(column)
	if !ok {
		return "", false
	}
	s := formatValue(v)
	if s == "" {
		return "", false
	}
	return s, true
}

// textOr returns the column text or def when absent.
func textOr(row domain.Row, column, def string) string {
	if s, ok := text(row, column); ok {
		return s
	}
	return def
}

// number returns a numeric column. Decimal and money columns often arrive
// as []byte or string, so both are parsed.
func number(row domain.Row, column string) (float64, bool) {
	v, ok := row.Get(column)
	if !ok {
		return 0, false
	}
	return toFloat(v)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n)
	case float32:
		return float64(n), !math.IsNaN(float64(n))
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case []byte:
		return parseFloat(string(n))
	case string:
		return parseFloat(n)
	default:
		return 0, false
	}
}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// key reads an entity key column. Integral numbers and canonical integer
// text become int64; other text is kept, trimmed, as a string key. When the
// column is absent or null the row index is used instead. Blank, binary
// and fractional values are an ErrInvalidRow.
func key(row domain.Row, column string, index int) (any, error) {
	v, ok := row.Get(column)
	if !ok {
		return int64(index), nil
	}
	switch raw := v.(type) {
	case []byte:
		if !utf8.Valid(raw) {
			return nil, fmt.Errorf("%w: %s is binary", domain.ErrInvalidRow, column)
		}
		// Decimal columns arrive as bytes; those must still be integral.
		if _, ok := parseFloat(string(raw)); ok {
			return integerKey(column, v)
		}
		return textKey(column, string(raw))
	case string:
		return textKey(column, raw)
	default:
		return integerKey(column, v)
	}
}

func integerKey(column string, v any) (any, error) {
	f, ok := toFloat(v)
	if !ok || f != math.Trunc(f) {
		return nil, fmt.Errorf("%w: %s %q is not an integer", domain.ErrInvalidRow, column, formatValue(v))
	}
	return int64(f), nil
}

func textKey(column, raw string) (any, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, fmt.Errorf("%w: %s is blank", domain.ErrInvalidRow, column)
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil && strconv.FormatInt(n, 10) == s {
		return n, nil
	}
	return s, nil
}

// optionalKey reads a key column that is not the primary key.
// Absent and null columns return false. Malformed values are an ErrInvalidRow.
func optionalKey(row domain.Row, column string) (any, bool, error) {
	if _, ok := row.Get(column); !ok {
		return nil, false, nil
	}
	k, err := key(row, column, 0)
	if err != nil {
		return nil, false, err
	}
	return k, true, nil
}

// flag interprets bit, boolean and "1"/"Y" style columns.
func flag(row domain.Row, column string) (bool, bool) {
	v, ok := row.Get(column)
	if !ok {
		return false, false
	}
	switch b := v.(type) {
	case bool:
		return b, true
	case string, []byte:
		s := strings.ToUpper(strings.TrimSpace(formatValue(b)))
		switch s {
		case "1", "Y", "YES", "TRUE", "T":
			return true, true
		case "0", "N", "NO", "FALSE", "F":
			return false, true
		}
		return false, false
	default:
		f, ok := toFloat(v)
		return f != 0, ok
	}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// formatValue renders a driver value for display. Fixed-width character
// columns are trimmed.
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case []byte:
		// Binary columns (photos) are not renderable.
		if !utf8.Valid(val) {
			return ""
		}
		return strings.TrimSpace(string(val))
	case bool:
		return yesNo(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 && val.Nanosecond() == 0 {
			return val.Format("2006-01-02")
		}
		return val.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprint(val)
	}
}

// money renders an amount with two decimals.
func money(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// metaValue converts a column value to a metadata scalar, keeping numbers numeric.
func metaValue(v any) any {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case []byte:
		s := strings.TrimSpace(string(val))
		if f, ok := parseFloat(s); ok {
			return f
		}
		return s
	case time.Time:
		return formatValue(val)
	default:
		return val
	}
}

// humanise turns a column name into a readable label:
// "unit_price" and "UnitPrice" both become "Unit Price".
func humanise(column string) string {
	var words []string
	var cur []rune
	runes := []rune(column)
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || unicode.IsSpace(r):
			flush()
			continue
		case unicode.IsUpper(r) && len(cur) > 0:
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	for i, w := range words {
		rs := []rune(w)
		rs[0] = unicode.ToUpper(rs[0])
		words[i] = string(rs)
	}
	return strings.Join(words, " ")
}
