// Package testutil holds fixture builders and comparers shared by the package tests.
package testutil

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// ConvertToInt64 converts various numeric types to int64 for comparison.
// Returns the int64 value and a boolean indicating success.
func ConvertToInt64(i any) (int64, bool) {
	switch v := i.(type) {
	case float64:
		if v == float64(int64(v)) {
			return int64(v), true
		}
		return 0, false
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		if v <= math.MaxInt64 {
			return int64(v), true
		}
		return 0, false
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		if v <= math.MaxInt64 {
			return int64(v), true
		}
		return 0, false
	default:
		return 0, false
	}
}

// NumericComparer is a cmp.Comparer for flexible numeric comparison.
// Fixtures are written with untyped int literals while decoded trees carry int64.
var NumericComparer = cmp.FilterValues(func(x, y any) bool {
	_, xOk := ConvertToInt64(x)
	_, yOk := ConvertToInt64(y)
	return xOk && yOk
}, cmp.Comparer(func(x, y any) bool {
	xInt, _ := ConvertToInt64(x)
	yInt, _ := ConvertToInt64(y)
	return xInt == yInt
}))

// AssertTree fails the test when the decoded tree differs from want
func AssertTree(t testing.TB, want, got any) {
	t.Helper()
	if diff := cmp.Diff(want, got, NumericComparer); diff != "" {
		t.Fatalf("decoded tree mismatch (-want +got):\n%s", diff)
	}
}
