package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"spade-bench/models"
)

func TestSummarize(t *testing.T) {
	report := &models.Report{Results: []*models.ProcessingResult{
		{Status: models.StatusOK, EncryptionTime: 1 * time.Second, DecryptionTime: 2 * time.Second, StorageOverhead: 2, Mismatches: 1},
		{Status: models.StatusOK, EncryptionTime: 3 * time.Second, DecryptionTime: 4 * time.Second, StorageOverhead: 2},
		{Status: models.StatusFailed, Error: "boom"},
	}}

	summary := Summarize(report)
	require.Equal(t, 3, summary.Files)
	require.Equal(t, 2, summary.Succeeded)
	require.Equal(t, 1, summary.Failed)
	require.InDelta(t, 2.0, summary.MeanEncryption, 1e-9)
	require.InDelta(t, 2.0, summary.MedianEncryption, 1e-9)
	require.InDelta(t, 1.0, summary.StdDevEncryption, 1e-9)
	require.InDelta(t, 3.0, summary.MaxEncryption, 1e-9)
	require.InDelta(t, 3.0, summary.MeanDecryption, 1e-9)
	require.InDelta(t, 4.0, summary.MaxDecryption, 1e-9)
	require.Equal(t, 2.0, summary.MeanStorageOverhead)
	require.Equal(t, 1, summary.TotalMismatches)
}

func TestSummarizeAllFailed(t *testing.T) {
	report := &models.Report{Results: []*models.ProcessingResult{
		models.NewFailedResult("a", errBoom),
	}}
	summary := Summarize(report)
	require.Equal(t, models.Summary{Files: 1, Failed: 1}, summary)
}
