package store

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Row is one relation row keyed by snake_case column name.
//
// Backends hand back driver-native values (int64, []byte, numeric strings,
// JSON text); the accessors below normalise them so mapping code never cares
// which backend produced the row.
type Row map[string]any

// Has reports whether key is present and non-nil.
func (r Row) Has(key string) bool {
	v, ok := r[key]
	return ok && v != nil
}

// String returns the value as a string, "" when absent or null.
func (r Row) String(key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// StringOr returns the string value or def when absent, null or empty.
func (r Row) StringOr(key, def string) string {
	if s := r.String(key); s != "" {
		return s
	}
	return def
}

// Int returns the value as an int, 0 when absent or unparseable.
func (r Row) Int(key string) int {
	return r.IntOr(key, 0)
}

// IntOr returns the value as an int or def when absent or unparseable.
func (r Row) IntOr(key string, def int) int {
	switch v := r[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	case float32:
		return int(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	case string, []byte:
		s := strings.TrimSpace(r.String(key))
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int(f)
		}
	}
	return def
}

// Float returns the value as a float64, 0 when absent or unparseable.
func (r Row) Float(key string) float64 {
	switch v := r[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		f, _ := v.Float64()
		return f
	case string, []byte:
		f, err := strconv.ParseFloat(strings.TrimSpace(r.String(key)), 64)
		if err == nil {
			return f
		}
	}
	return 0
}

// BoolOr returns the value as a bool or def when absent or null.
func (r Row) BoolOr(key string, def bool) bool {
	switch v := r[key].(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case int:
		return v != 0
	case float64:
		return v != 0
	case string, []byte:
		switch strings.ToLower(strings.TrimSpace(r.String(key))) {
		case "true", "t", "1", "yes":
			return true
		case "false", "f", "0", "no":
			return false
		}
	}
	return def
}

// IntSlice decodes a JSON list of integers.
func (r Row) IntSlice(key string) []int {
	out := []int{}
	switch v := r[key].(type) {
	case []int:
		return append(out, v...)
	case []any:
		for _, item := range v {
			out = append(out, Row{"v": item}.Int("v"))
		}
	case string, []byte:
		var decoded []float64
		if err := json.Unmarshal([]byte(r.String(key)), &decoded); err == nil {
			for _, f := range decoded {
				out = append(out, int(f))
			}
		}
	}
	return out
}

// StringSlice decodes a JSON list of strings.
func (r Row) StringSlice(key string) []string {
	out := []string{}
	switch v := r[key].(type) {
	case []string:
		return append(out, v...)
	case []any:
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
	case string, []byte:
		_ = json.Unmarshal([]byte(r.String(key)), &out)
		if out == nil {
			out = []string{}
		}
	}
	return out
}

// FloatMap decodes a JSON object of numeric values keyed by day number.
// Keys that are not integers are dropped.
func (r Row) FloatMap(key string) map[int]float64 {
	out := map[int]float64{}
	raw := map[string]any{}
	switch v := r[key].(type) {
	case map[string]float64:
		for k, f := range v {
			raw[k] = f
		}
	case map[string]any:
		raw = v
	case string, []byte:
		if err := json.Unmarshal([]byte(r.String(key)), &raw); err != nil {
			return out
		}
	default:
		return out
	}
	for k, item := range raw {
		day, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		f := Row{"v": item}.Float("v")
		if math.IsNaN(f) {
			continue
		}
		out[day] = f
	}
	return out
}

// Nullable maps "" to nil so empty optional references are stored as NULL.
func Nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// DayMap encodes a day-keyed map in its wire form.
func DayMap(m map[int]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for day, v := range m {
		out[strconv.Itoa(day)] = v
	}
	return out
}

// Columns returns the row's keys in sorted order.
func (r Row) Columns() []string {
	cols := make([]string, 0, len(r))
	for k := range r {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// Clone copies the row, including slice and map values.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case []int:
		return append([]int(nil), t...)
	case []string:
		return append([]string(nil), t...)
	case []any:
		return append([]any(nil), t...)
	case map[string]float64:
		m := make(map[string]float64, len(t))
		for k, f := range t {
			m[k] = f
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, x := range t {
			m[k] = x
		}
		return m
	default:
		return v
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Time returns the value as a UTC time, the zero time when absent or
// unparseable. SQLite hands back CURRENT_TIMESTAMP text; PostgreSQL a time.Time.
func (r Row) Time(key string) time.Time {
	if t, ok := r[key].(time.Time); ok {
		return t.UTC()
	}
	s := strings.TrimSpace(r.String(key))
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// Stamp renders t for storage; the zero time is stored as NULL.
func Stamp(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
