package stats

import "slices"

// Median returns the median of values, 0 when empty.
func Median(values []int) float64 {
	if len(values) == 0 {
		return 0
	}

	temp := slices.Clone(values)
	slices.Sort(temp)

	n := len(temp)
	if n%2 == 1 {
		return float64(temp[n/2])
	}
	return float64(temp[n/2-1]+temp[n/2]) / 2.0
}

// Cumulative returns the running sum of values.
func Cumulative(values []int) []int {
	out := make([]int, len(values))
	sum := 0
	for i, v := range values {
		sum += v
		out[i] = sum
	}
	return out
}

// Rolling returns the trailing mean over up to n values. The first n-1
// entries average over the shorter window available.
func Rolling(values []int, n int) []float64 {
	if n < 1 {
		n = 1
	}
	out := make([]float64, len(values))
	sum := 0
	for i, v := range values {
		sum += v
		if i >= n {
			sum -= values[i-n]
		}
		out[i] = float64(sum) / float64(min(i+1, n))
	}
	return out
}

// Percent returns 100*part/whole, or false when whole is zero.
func Percent(part, whole int) (float64, bool) {
	if whole == 0 {
		return 0, false
	}
	return 100 * float64(part) / float64(whole), true
}
