// Package sweep runs batches of independent missions over parameter
// overrides: design-of-experiments case generation, a bounded worker pool,
// Prometheus run metrics and an OpenTelemetry span per case.
package sweep

import (
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// caseNamespace scopes deterministic case IDs.
var caseNamespace = uuid.MustParse("6f1c2a8e-4b0d-4f6e-9a57-3d2c1b0e8f47")

// Case is one point of a sweep: a set of scenario overrides by key.
type Case struct {
	ID     string
	Index  int
	Params map[string]float64
}

// Key returns the overrides as "k=v" pairs in key order.
func (c Case) Key() string {
	keys := make([]string, 0, len(c.Params))
	for k := range c.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + strconv.FormatFloat(c.Params[k], 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

func newCase(index int, params map[string]float64) Case {
	c := Case{Index: index, Params: params}
	c.ID = uuid.NewSHA1(caseNamespace, []byte(c.Key())).String()
	return c
}

// Axis is one swept parameter and its levels.
type Axis struct {
	Key    string
	Values []float64
}

// ParseAxis reads "key=v1,v2,..." or "key=lo:hi:n" (n evenly spaced levels).
func ParseAxis(s string) (Axis, error) {
	key, spec, ok := strings.Cut(s, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" || spec == "" {
		return Axis{}, fmt.Errorf("axis %q: expected key=values", s)
	}
	if parts := strings.Split(spec, ":"); len(parts) == 3 {
		lo, err1 := strconv.ParseFloat(parts[0], 64)
		hi, err2 := strconv.ParseFloat(parts[1], 64)
		n, err3 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil || err3 != nil || n < 1 {
			return Axis{}, fmt.Errorf("axis %q: expected lo:hi:n", s)
		}
		return Axis{Key: key, Values: Linspace(lo, hi, n)}, nil
	}
	var values []float64
	for _, v := range strings.Split(spec, ",") {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return Axis{}, fmt.Errorf("axis %q: %w", s, err)
		}
		values = append(values, f)
	}
	return Axis{Key: key, Values: values}, nil
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n == 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + (hi-lo)*float64(i)/float64(n-1)
	}
	return out
}

// FullFactorial returns every combination of axis levels. The last axis
// varies fastest.
func FullFactorial(axes []Axis) []Case {
	if len(axes) == 0 {
		return nil
	}
	total := 1
	for _, a := range axes {
		total *= len(a.Values)
	}
	cases := make([]Case, 0, total)
	idx := make([]int, len(axes))
	for n := 0; n < total; n++ {
		params := make(map[string]float64, len(axes))
		for j, a := range axes {
			params[a.Key] = a.Values[idx[j]]
		}
		cases = append(cases, newCase(n, params))
		for j := len(axes) - 1; j >= 0; j-- {
			idx[j]++
			if idx[j] < len(axes[j].Values) {
				break
			}
			idx[j] = 0
		}
	}
	return cases
}

// Range is a continuous parameter interval for sampled designs.
type Range struct {
	Key    string
	Lo, Hi float64
}

// LatinHypercube draws n cases with exactly one sample per stratum on
// every axis. The same seed yields the same design.
func LatinHypercube(ranges []Range, n int, seed int64) []Case {
	if n < 1 || len(ranges) == 0 {
		return nil
	}
	rng := rand.New(rand.NewSource(seed))
	cols := make([][]float64, len(ranges))
	for j, r := range ranges {
		perm := rng.Perm(n)
		cols[j] = make([]float64, n)
		for i := range cols[j] {
			u := (float64(perm[i]) + rng.Float64()) / float64(n)
			cols[j][i] = r.Lo + u*(r.Hi-r.Lo)
		}
	}
	cases := make([]Case, n)
	for i := range cases {
		params := make(map[string]float64, len(ranges))
		for j, r := range ranges {
			params[r.Key] = cols[j][i]
		}
		cases[i] = newCase(i, params)
	}
	return cases
}
