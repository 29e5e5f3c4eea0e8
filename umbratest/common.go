// Package umbratest provides conformance kits for umbra codecs and sources.
//
// Codec and source implementations call the kits from their own tests:
//
//	func TestCodec_Compliance(t *testing.T) {
//	    umbratest.NewCodecTester(t, yaml.NewCodec()).TestAll()
//	}
package umbratest

import (
	"github.com/google/go-cmp/cmp"
)

// testT is the minimal testing interface used by umbratest utilities.
type testT interface {
	Helper()
	Fatalf(format string, args ...any)
	Errorf(format string, args ...any)
}

// require fails the test immediately if the condition is false.
func require(t testT, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Fatalf(format, args...)
	}
}

// requireNoError fails the test immediately if err is not nil.
func requireNoError(t testT, err error, format string, args ...any) {
	t.Helper()
	if err != nil {
		t.Fatalf(format, args...)
	}
}

// check reports an error if the condition is false, but continues the test.
func check(t testT, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Errorf(format, args...)
	}
}

// NormalizeNumbers is a cmp option that compares numbers by value whatever
// their decoded Go type. JSON yields float64, YAML int and TOML int64.
var NormalizeNumbers = cmp.FilterValues(func(x, y any) bool {
	_, xok := toFloat64(x)
	_, yok := toFloat64(y)
	return xok && yok
}, cmp.Comparer(func(x, y any) bool {
	a, _ := toFloat64(x)
	b, _ := toFloat64(y)
	return a == b
}))

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
