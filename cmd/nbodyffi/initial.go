package main

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/san-kum/nbodyffi/internal/config"
	"github.com/san-kum/nbodyffi/internal/vector"
)

// circle places n particles evenly on a circle of radius r in the x-y
// plane, at rest. In 1D only the x coordinate survives.
func circle[V vector.Vector](n int, r float64) (pos, vel []V) {
	pos = make([]V, n)
	vel = make([]V, n)
	for i := range pos {
		a := 2 * math.Pi * float64(i) / float64(n)
		pos[i] = vector.New[V](float32(r*math.Cos(a)), float32(r*math.Sin(a)))
	}
	return pos, vel
}

// parseParticles reads a particle count. Anything that is not a positive
// integer is reported and replaced by a count drawn from
// [1, config.MaxRandomParticles] using intn.
func parseParticles(s string, intn func(int) int) (int, error) {
	n, err := strconv.Atoi(s)
	if err == nil && n >= 1 {
		return n, nil
	}
	return intn(config.MaxRandomParticles) + 1, fmt.Errorf("invalid particle count %q", s)
}

// downsample keeps at most max evenly spaced values.
func downsample(values []float64, max int) []float64 {
	if len(values) <= max {
		return values
	}
	out := make([]float64, max)
	step := float64(len(values)-1) / float64(max-1)
	for i := range out {
		out[i] = values[int(math.Round(float64(i)*step))]
	}
	return out
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
