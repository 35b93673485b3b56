package app

import (
	"strconv"
	"strings"
	"time"
)

// toFloat converts numeric cell values; numeric strings are accepted so that
// query-string filters ("2021") can target numeric fields.
func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}

func isNumber(v any) bool {
	switch v.(type) {
	case float64, int64, int:
		return true
	}
	return false
}

// formatValue renders a cell the way it is shown in dropdowns and exports.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format("2006-01-02")
		}
		return x.Format(time.RFC3339)
	}
	return ""
}

// keyOf encodes a value for exact-equality grouping; nil is its own key.
func keyOf(v any) string {
	var kind, body string
	switch x := v.(type) {
	case nil:
		return "n"
	case string:
		kind, body = "s", x
	case float64:
		if x == 0 {
			x = 0 // fold -0
		}
		kind, body = "f", strconv.FormatFloat(x, 'g', -1, 64)
	case int64:
		kind, body = "i", strconv.FormatInt(x, 10)
	case int:
		kind, body = "i", strconv.Itoa(x)
	case time.Time:
		kind, body = "t", strconv.FormatInt(x.UnixNano(), 10)
	default:
		kind, body = "?", formatValue(x)
	}
	return kind + strconv.Itoa(len(body)) + ":" + body
}

func tupleKey(vals []any) string {
	var b strings.Builder
	for _, v := range vals {
		b.WriteString(keyOf(v))
	}
	return b.String()
}

func kindRank(v any) int {
	switch v.(type) {
	case float64, int64, int:
		return 0
	case time.Time:
		return 1
	case string:
		return 2
	}
	return 3
}

// compareValues orders two non-nil cells. Mixed kinds order by kind.
func compareValues(a, b any) int {
	if isNumber(a) && isNumber(b) {
		fa, _ := toFloat(a)
		fb, _ := toFloat(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	ra, rb := kindRank(a), kindRank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch x := a.(type) {
	case time.Time:
		return x.Compare(b.(time.Time))
	case string:
		return strings.Compare(x, b.(string))
	}
	return strings.Compare(formatValue(a), formatValue(b))
}
