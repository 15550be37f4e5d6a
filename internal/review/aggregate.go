package review

import "math"

// AggregateRating computes a provider rating from its review scores:
// round(mean * 10) / 10, one decimal place. Zero reviews yield a zero rating.
func AggregateRating(ratings []int) (float64, int) {
	if len(ratings) == 0 {
		return 0, 0
	}

	sum := 0
	for _, r := range ratings {
		sum += r
	}

	mean := float64(sum) / float64(len(ratings))
	return math.Round(mean*10) / 10, len(ratings)
}
