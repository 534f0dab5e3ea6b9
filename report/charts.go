// Package report turns a results table into the three benchmark charts:
// encryption vs decryption time distribution, storage overhead distribution
// and the per-file times of the first rows.
package report

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/montanaflynn/stats"

	"spade-bench/models"
	"spade-bench/storage"
)

const (
	TimeBins     = 50
	OverheadBins = 20
	SeriesLength = 50

	barWidth = 40
)

// Histogram counts values into equal-width bins over [Min, Max]
type Histogram struct {
	Min    float64
	Max    float64
	Counts []int
}

// NewHistogram bins values over their own range
func NewHistogram(values []float64, bins int) Histogram {
	lo, _ := stats.Min(values)
	hi, _ := stats.Max(values)
	return NewHistogramRange(values, bins, lo, hi)
}

// NewHistogramRange bins values over [lo, hi]. Values outside the range are
// clamped into the first or last bin.
func NewHistogramRange(values []float64, bins int, lo, hi float64) Histogram {
	h := Histogram{Min: lo, Max: hi, Counts: make([]int, bins)}
	if bins == 0 {
		return h
	}

	denominator := hi - lo
	for _, v := range values {
		index := 0
		if denominator > 0 {
			index = int(math.Floor(float64(bins) * (v - lo) / denominator))
		}
		if index >= bins {
			index = bins - 1
		}
		if index < 0 {
			index = 0
		}
		h.Counts[index]++
	}
	return h
}

// BinWidth returns the width of a single bin
func (h Histogram) BinWidth() float64 {
	if len(h.Counts) == 0 {
		return 0
	}
	return (h.Max - h.Min) / float64(len(h.Counts))
}

// Series holds the encryption and decryption times of the first rows
type Series struct {
	Encryption []float64
	Decryption []float64
}

// Charts bundles everything the benchmark plots show
type Charts struct {
	EncryptionTime  Histogram
	DecryptionTime  Histogram
	StorageOverhead Histogram
	Sample          Series
}

// Build computes the charts from the successful rows of a table
func Build(rows []storage.Row) Charts {
	var enc, dec, overhead []float64
	for _, row := range rows {
		if row.Status == models.StatusFailed {
			continue
		}
		enc = append(enc, row.EncryptionSeconds)
		dec = append(dec, row.DecryptionSeconds)
		overhead = append(overhead, row.StorageOverhead)
	}

	// both time histograms share one range so they can be compared bin by bin
	all := append(append([]float64{}, enc...), dec...)
	lo, _ := stats.Min(all)
	hi, _ := stats.Max(all)

	n := len(enc)
	if n > SeriesLength {
		n = SeriesLength
	}

	return Charts{
		EncryptionTime:  NewHistogramRange(enc, TimeBins, lo, hi),
		DecryptionTime:  NewHistogramRange(dec, TimeBins, lo, hi),
		StorageOverhead: NewHistogram(overhead, OverheadBins),
		Sample: Series{
			Encryption: enc[:n],
			Decryption: dec[:n],
		},
	}
}

// Render writes the charts as text
func (c Charts) Render(w io.Writer) error {
	var sb strings.Builder

	sb.WriteString("=== Distribution of Encryption and Decryption Times (s) ===\n")
	peak := maxInt(maxInt(0, c.EncryptionTime.Counts...), c.DecryptionTime.Counts...)
	width := c.EncryptionTime.BinWidth()
	for i := range c.EncryptionTime.Counts {
		lo := c.EncryptionTime.Min + float64(i)*width
		fmt.Fprintf(&sb, "%12.6f | enc %-*s %d\n", lo, barWidth, bar(c.EncryptionTime.Counts[i], peak), c.EncryptionTime.Counts[i])
		fmt.Fprintf(&sb, "%12s | dec %-*s %d\n", "", barWidth, bar(c.DecryptionTime.Counts[i], peak), c.DecryptionTime.Counts[i])
	}

	sb.WriteString("\n=== Distribution of Storage Overhead (x) ===\n")
	peak = maxInt(0, c.StorageOverhead.Counts...)
	width = c.StorageOverhead.BinWidth()
	for i, count := range c.StorageOverhead.Counts {
		lo := c.StorageOverhead.Min + float64(i)*width
		fmt.Fprintf(&sb, "%12.4f | %-*s %d\n", lo, barWidth, bar(count, peak), count)
	}

	sb.WriteString("\n=== Sample Encryption and Decryption Times (s) ===\n")
	fmt.Fprintf(&sb, "%5s %14s %14s\n", "File", "Encryption", "Decryption")
	for i := range c.Sample.Encryption {
		fmt.Fprintf(&sb, "%5d %14.6f %14.6f\n", i, c.Sample.Encryption[i], c.Sample.Decryption[i])
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func bar(count, peak int) string {
	if peak == 0 {
		return ""
	}
	return strings.Repeat("#", count*barWidth/peak)
}

func maxInt(init int, values ...int) int {
	m := init
	for _, v := range values {
		if v > m {
			m = v
		}
	}
	return m
}
