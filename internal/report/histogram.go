package report

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"proctor/internal/test"
)

const histogramBarWidth = 40

type timedTest struct {
	name    string
	seconds float64
}

// WriteHistogram prints the slowest tests followed by a binned timing
// histogram over every completed test.
func WriteHistogram(w io.Writer, cases []*test.Case) {
	if len(cases) == 0 {
		return
	}
	items := make([]timedTest, len(cases))
	for i, c := range cases {
		items[i] = timedTest{name: c.FullName(), seconds: c.Result().Elapsed.Seconds()}
	}
	sort.SliceStable(items, func(a, b int) bool {
		return items[a].seconds < items[b].seconds
	})
	maxValue := items[len(items)-1].seconds

	hr := strings.Repeat("-", histogramBarWidth+34)
	fmt.Fprintf(w, "\nSlowest Tests:\n")
	fmt.Fprintln(w, hr)
	slowest := items
	if len(slowest) > 20 {
		slowest = slowest[len(slowest)-20:]
	}
	for _, it := range slowest {
		fmt.Fprintf(w, "%.2fs: %s\n", it.seconds, it.name)
	}

	// A histogram over all-instant tests says nothing.
	if maxValue <= 0 {
		return
	}

	// Pick the first bar height from a decreasing nice-number sequence
	// that yields more than ten bins.
	power := int(math.Ceil(math.Log10(maxValue)))
	increments := []float64{5, 2, 2.5, 1}
	var barHeight float64
	var bins int
	for i := 0; ; i++ {
		inc := increments[i%len(increments)]
		barHeight = inc * math.Pow(10, float64(power))
		bins = int(math.Ceil(maxValue / barHeight))
		if bins > 10 {
			break
		}
		if inc == 1 {
			power--
		}
	}

	counts := make([]int, bins)
	for _, it := range items {
		bin := int(float64(bins) * it.seconds / maxValue)
		if bin > bins-1 {
			bin = bins - 1
		}
		counts[bin]++
	}

	rangeDigits := int(math.Ceil(math.Log10(maxValue)))
	rangePrecision := 3 - rangeDigits
	if rangePrecision < 0 {
		rangePrecision = 0
	}
	if rangePrecision > 0 {
		rangeDigits += rangePrecision + 1
	}
	countDigits := int(math.Ceil(math.Log10(float64(len(items)))))

	fmt.Fprintf(w, "\nTests Times:\n")
	fmt.Fprintln(w, hr)
	fmt.Fprintf(w, "[%s] :: [%s] :: [%s]\n",
		center("Range", (rangeDigits+1)*2+3),
		center("Percentage", histogramBarWidth),
		center("Count", countDigits*2+1))
	fmt.Fprintln(w, hr)
	for i, count := range counts {
		pct := float64(count) / float64(len(items))
		stars := int(histogramBarWidth * pct)
		bar := strings.Repeat("*", stars) + strings.Repeat(" ", histogramBarWidth-stars)
		fmt.Fprintf(w, "[%*.*fs,%*.*fs) :: [%s] :: [%*d/%*d]\n",
			rangeDigits, rangePrecision, float64(i)*barHeight,
			rangeDigits, rangePrecision, float64(i+1)*barHeight,
			bar,
			countDigits, count, countDigits, len(items))
	}
}

func center(s string, width int) string {
	if len(s) >= width {
		return s
	}
	left := (width - len(s)) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-len(s)-left)
}
