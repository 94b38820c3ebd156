// Package core provides the KPI record model and the monthly aggregation.
//
// This file contains the raw record type and the lenient numeric coercion
// applied to every counter read from a record.
package core

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Field names used by the Production and Development tables.
const (
	FieldMonth            = "Month"
	FieldProductionLoss   = "Production Loss"
	FieldSoldComponents   = "Sold Components"
	FieldDevelopmentLoss  = "Development Loss"
	FieldDevelopmentGates = "Finished Development Gates"

	// UnknownMonth labels records without a Month field.
	UnknownMonth = "Unknown"
)

// Record is a flat mapping of field name to value as returned by a data source.
type Record map[string]any

// Month returns the record's month label, or UnknownMonth when absent.
func (r Record) Month() string {
	v, ok := r[FieldMonth]
	if !ok || v == nil {
		return UnknownMonth
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// CoerceRounded parses v as a floating point number and rounds it half to even.
//
// Numbers, numeric strings and booleans are accepted. Absent, null,
// non-numeric, non-finite and negative values all yield zero.
//
// Examples:
//
//	CoerceRounded("12.6") -> 13
//	CoerceRounded(2.5)    -> 2
//	CoerceRounded("n/a")  -> 0
func CoerceRounded(v any) int64 {
	f, ok := toFloat(v)
	if !ok {
		return 0
	}
	return clampCounter(math.RoundToEven(f))
}

// CoerceInt parses v as an integer.
//
// Numbers are truncated toward zero, strings must be base-10 integer literals
// (surrounding whitespace allowed) and booleans count as 1 or 0. Anything
// else, including negative values, yields zero.
//
// Examples:
//
//	CoerceInt(5)      -> 5
//	CoerceInt(7.9)    -> 7
//	CoerceInt("2")    -> 2
//	CoerceInt("12.6") -> 0
func CoerceInt(v any) int64 {
	switch x := v.(type) {
	case nil:
		return 0
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil || i < 0 {
			return 0
		}
		return i
	case bool:
		return boolToInt(x)
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return nonNegative(i)
		}
	case int:
		return nonNegative(int64(x))
	case int8:
		return nonNegative(int64(x))
	case int16:
		return nonNegative(int64(x))
	case int32:
		return nonNegative(int64(x))
	case int64:
		return nonNegative(x)
	case uint:
		return fromUint(uint64(x))
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return fromUint(x)
	}
	f, ok := toFloat(v)
	if !ok {
		return 0
	}
	return clampCounter(math.Trunc(f))
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case bool:
		return float64(boolToInt(x)), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// clampCounter converts an already integral float into a counter value.
// Counters are never negative; NaN, infinities and out of range values are zero.
func clampCounter(f float64) int64 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f >= math.MaxInt64 {
		return 0
	}
	return int64(f)
}

func nonNegative(i int64) int64 {
	if i < 0 {
		return 0
	}
	return i
}

// fromUint treats values beyond math.MaxInt64 as out of range.
func fromUint(u uint64) int64 {
	if u > math.MaxInt64 {
		return 0
	}
	return int64(u)
}

// addCounter adds two counters, saturating at math.MaxInt64.
func addCounter(a, b int64) int64 {
	if b > math.MaxInt64-a {
		return math.MaxInt64
	}
	return a + b
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
