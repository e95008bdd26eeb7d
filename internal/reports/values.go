package reports

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

var (
	errNotFinite = errors.New("value is not finite")
	errOverflow  = errors.New("value overflows int64")

	minInt64 = decimal.NewFromInt(math.MinInt64)
	maxInt64 = decimal.NewFromInt(math.MaxInt64)
)

// stringify renders a field value the way it is searched and displayed
func stringify(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 && val.Nanosecond() == 0 {
			return val.Format("2006-01-02")
		}
		return val.Format("2006-01-02 15:04:05")
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case decimal.Decimal:
		return val.String()
	case fmt.Stringer:
		return val.String()
	}
	if s, err := cast.ToStringE(v); err == nil {
		return s
	}
	return fmt.Sprint(v)
}

// CoerceMetric truncates a metric value toward zero. NaN, infinities, nil and
// non-numeric values are rejected.
func CoerceMetric(v interface{}) (int64, error) {
	switch val := v.(type) {
	case nil:
		return 0, errors.New("value is missing")
	case int:
		return int64(val), nil
	case int32:
		return int64(val), nil
	case int64:
		return val, nil
	case float32:
		return truncFloat(float64(val))
	case float64:
		return truncFloat(val)
	case decimal.Decimal:
		return truncDecimal(val)
	case string:
		return truncString(val)
	case []byte:
		return truncString(string(val))
	case bool:
		return 0, fmt.Errorf("unexpected boolean %v", val)
	}

	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, err
	}
	return truncFloat(f)
}

func truncFloat(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNotFinite
	}
	if f >= math.MaxInt64 || f <= math.MinInt64 {
		return 0, fmt.Errorf("%w: %g", errOverflow, f)
	}
	return int64(math.Trunc(f)), nil
}

// truncString parses numeric text (including NUMERIC columns) exactly
func truncString(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("value is empty")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	return truncDecimal(d)
}

func truncDecimal(d decimal.Decimal) (int64, error) {
	t := d.Truncate(0)
	if t.LessThan(minInt64) || t.GreaterThan(maxInt64) {
		return 0, fmt.Errorf("%w: %s", errOverflow, d.String())
	}
	return t.IntPart(), nil
}

// chartValue coerces a chart value leniently: anything non-finite or unparsable becomes 0
func chartValue(v interface{}) int64 {
	n, err := CoerceMetric(v)
	if err != nil {
		return 0
	}
	return n
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
