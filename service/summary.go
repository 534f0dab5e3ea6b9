package service

import (
	"github.com/montanaflynn/stats"

	"spade-bench/models"
)

// Summarize aggregates the successful rows of a report. Failed rows only
// count towards Failed.
func Summarize(report *models.Report) models.Summary {
	succeeded := report.Succeeded()
	summary := models.Summary{
		Files:     len(report.Results),
		Succeeded: len(succeeded),
		Failed:    len(report.Results) - len(succeeded),
	}
	if len(succeeded) == 0 {
		return summary
	}

	enc := make(stats.Float64Data, len(succeeded))
	dec := make(stats.Float64Data, len(succeeded))
	overhead := make(stats.Float64Data, len(succeeded))
	for i, res := range succeeded {
		enc[i] = res.EncryptionSeconds()
		dec[i] = res.DecryptionSeconds()
		overhead[i] = res.StorageOverhead
		summary.TotalMismatches += res.Mismatches
	}

	// stats only errors on empty input
	summary.MeanEncryption, _ = stats.Mean(enc)
	summary.MedianEncryption, _ = stats.Median(enc)
	summary.StdDevEncryption, _ = stats.StandardDeviation(enc)
	summary.MaxEncryption, _ = stats.Max(enc)

	summary.MeanDecryption, _ = stats.Mean(dec)
	summary.MedianDecryption, _ = stats.Median(dec)
	summary.StdDevDecryption, _ = stats.StandardDeviation(dec)
	summary.MaxDecryption, _ = stats.Max(dec)

	summary.MeanStorageOverhead, _ = stats.Mean(overhead)
	return summary
}
