package cli

import (
	"math"
	"sort"
	"strings"
)

// Inversion methods for the chart view. Display-only: inverted values
// never feed the scanner.
const (
	InvertMirror = "mirror"
	InvertNegate = "negate"
)

// InvertSeries inverts a price series so downtrends appear as uptrends.
// "negate" multiplies by -1; "mirror" reflects around the median so
// values remain positive.
func InvertSeries(values []float64, method string) []float64 {
	out := make([]float64, len(values))
	if method == InvertNegate {
		for i, v := range values {
			out[i] = -v
		}
		return out
	}

	med := median(values)
	for i, v := range values {
		out[i] = med + (med - v)
	}
	return out
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// Sparkline renders values as a single line of block characters,
// downsampled to at most width columns.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}

	sampled := downsample(values, width)

	lo, hi := sampled[0], sampled[0]
	for _, v := range sampled {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	var sb strings.Builder
	span := hi - lo
	for _, v := range sampled {
		idx := 0
		if span > 0 {
			idx = int(math.Round((v - lo) / span * float64(len(sparkRunes)-1)))
		}
		sb.WriteRune(sparkRunes[idx])
	}
	return sb.String()
}

// downsample reduces values to at most width points by bucket means.
func downsample(values []float64, width int) []float64 {
	if len(values) <= width {
		return values
	}

	out := make([]float64, width)
	for i := 0; i < width; i++ {
		start := i * len(values) / width
		end := (i + 1) * len(values) / width
		if end <= start {
			end = start + 1
		}
		var sum float64
		for _, v := range values[start:end] {
			sum += v
		}
		out[i] = sum / float64(end-start)
	}
	return out
}
