package service

import (
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spade-bench/dataset"
	"spade-bench/encryption"
	"spade-bench/models"
)

func newTestRunner(t *testing.T, config RunnerConfig) *BatchRunner {
	// modulus 2^40 keeps small datasets inside the decryption envelope
	ks, err := encryption.SetupFromKeys(64, []*big.Int{big.NewInt(40), big.NewInt(17)})
	require.NoError(t, err)

	runner, err := NewBatchRunner(encryption.NewSPADE(ks), big.NewInt(7), config)
	require.NoError(t, err)
	return runner
}

func writeFiles(t *testing.T, files map[string]string) string {
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func resultsByName(report *models.Report) map[string]*models.ProcessingResult {
	out := make(map[string]*models.ProcessingResult, len(report.Results))
	for _, res := range report.Results {
		out[filepath.Base(res.File)] = res
	}
	return out
}

func TestProcessDirectoryHypnogram(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.txt": "1\n2\n3",
		"b.txt": "4\n5",
	})
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0755))

	runner := newTestRunner(t, RunnerConfig{Workers: 2})
	report, err := runner.ProcessDirectory(dir, dataset.TypeHypnogram)
	require.NoError(t, err)
	require.Len(t, report.Results, 2)
	require.NotEmpty(t, report.RunID)
	require.Equal(t, "SPADE-64", report.Scheme)
	require.False(t, report.FinishedAt.Before(report.StartedAt))

	results := resultsByName(report)
	require.Equal(t, []uint64{1, 2, 3}, results["a.txt"].OriginalSample)
	require.Equal(t, []uint64{4, 5}, results["b.txt"].OriginalSample)

	for _, res := range report.Results {
		assert.Equal(t, models.StatusOK, res.Status)
		assert.Empty(t, res.Error)
		assert.Zero(t, res.Mismatches)
		assert.Equal(t, 2.0, res.StorageOverhead)
		assert.GreaterOrEqual(t, res.EncryptionTime, time.Duration(0))
		assert.GreaterOrEqual(t, res.DecryptionTime, time.Duration(0))
		require.Len(t, res.DecryptedSample, len(res.OriginalSample))
		for i, v := range res.DecryptedSample {
			assert.Equal(t, res.OriginalSample[i], v.Uint64())
		}
	}

	metrics := runner.Metrics()
	require.Equal(t, 2, metrics.Processed)
	require.Equal(t, 0, metrics.Failed)
	require.Equal(t, 5, metrics.Elements)
	require.Equal(t, 2, metrics.Encryption.Count)
	require.Equal(t, 2, metrics.Decryption.Count)
	require.Equal(t, 1, metrics.Batches)
}

func TestProcessDirectoryDNA(t *testing.T) {
	dir := writeFiles(t, map[string]string{"seq.fa": "ACGTX\nACG"})

	report, err := newTestRunner(t, RunnerConfig{}).ProcessDirectory(dir, dataset.TypeDNA)
	require.NoError(t, err)
	require.Len(t, report.Results, 1)

	res := report.Results[0]
	require.Equal(t, models.StatusOK, res.Status)
	require.Equal(t, 7, res.Elements)
	require.Equal(t, []uint64{1, 2, 3, 4, 1, 2, 3}, res.OriginalSample)
	require.Greater(t, res.Entropy, 0.0)
}

func TestSampleIsTruncated(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 25; i++ {
		sb.WriteString("3\n")
	}
	dir := writeFiles(t, map[string]string{"long.txt": sb.String()})

	report, err := newTestRunner(t, RunnerConfig{}).ProcessDirectory(dir, dataset.TypeHypnogram)
	require.NoError(t, err)

	res := report.Results[0]
	require.Equal(t, 25, res.Elements)
	require.Len(t, res.OriginalSample, models.SampleSize)
	require.Len(t, res.DecryptedSample, models.SampleSize)
	require.Equal(t, 2.0, res.StorageOverhead)
	// a constant sequence carries no information
	require.InDelta(t, 0, res.Entropy, 1e-9)
}

func TestUnknownDataTypeIsIsolated(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.txt": "1", "b.txt": "2", "c.txt": "3"})

	report, err := newTestRunner(t, RunnerConfig{Workers: 3}).ProcessDirectory(dir, "eeg")
	require.NoError(t, err)
	require.Len(t, report.Results, 3)
	require.Len(t, report.Failed(), 3)

	for _, res := range report.Results {
		require.True(t, res.Failed())
		require.ErrorIs(t, res.Err, dataset.ErrUnknownDataType)
		require.Equal(t, res.Err.Error(), res.Error)
	}
}

func TestFailuresDoNotAbortSiblings(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"good.txt":  "1\n2",
		"bad.txt":   "1\nnot-a-number",
		"empty.txt": "",
		"other.txt": "6",
	})

	runner := newTestRunner(t, RunnerConfig{Workers: 4})
	report, err := runner.ProcessDirectory(dir, dataset.TypeHypnogram)
	require.NoError(t, err)
	require.Len(t, report.Results, 4)

	results := resultsByName(report)
	require.Equal(t, models.StatusOK, results["good.txt"].Status)
	require.Equal(t, models.StatusOK, results["other.txt"].Status)

	require.True(t, results["bad.txt"].Failed())
	require.Contains(t, results["bad.txt"].Error, "line 2")
	var formatErr *dataset.FormatError
	require.ErrorAs(t, results["bad.txt"].Err, &formatErr)
	require.Equal(t, 2, formatErr.Line)

	require.True(t, results["empty.txt"].Failed())
	require.ErrorIs(t, results["empty.txt"].Err, ErrEmptySequence)
	require.Nil(t, results["good.txt"].Err)

	require.Len(t, report.Succeeded(), 2)
	require.Equal(t, 2, runner.Metrics().Failed)
}

type panicSource struct{}

func (panicSource) Load(resourceID string) (encryption.Plaintext, error) {
	if strings.HasSuffix(resourceID, "boom.txt") {
		panic("decoder exploded")
	}
	return encryption.Plaintext{1, 2, 3}, nil
}

func TestPanicIsIsolated(t *testing.T) {
	dir := writeFiles(t, map[string]string{"boom.txt": "", "fine.txt": ""})

	runner := newTestRunner(t, RunnerConfig{
		Workers: 2,
		Sources: func(string) (dataset.Source, error) { return panicSource{}, nil },
	})
	report, err := runner.ProcessDirectory(dir, "custom")
	require.NoError(t, err)

	results := resultsByName(report)
	require.True(t, results["boom.txt"].Failed())
	require.Contains(t, results["boom.txt"].Error, "decoder exploded")
	require.Equal(t, []uint64{1, 2, 3}, results["fine.txt"].OriginalSample)
}

func TestProcessDirectoryMissing(t *testing.T) {
	_, err := newTestRunner(t, RunnerConfig{}).ProcessDirectory(filepath.Join(t.TempDir(), "missing"), dataset.TypeDNA)
	require.ErrorIs(t, err, ErrDirectoryAccess)
	require.True(t, errors.Is(err, os.ErrNotExist))
}

func TestProcessEmptyDirectory(t *testing.T) {
	report, err := newTestRunner(t, RunnerConfig{}).ProcessDirectory(t.TempDir(), dataset.TypeDNA)
	require.NoError(t, err)
	require.Empty(t, report.Results)
}

func TestListFiles(t *testing.T) {
	dir := writeFiles(t, map[string]string{"b.txt": "", "a.txt": ""})
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))

	files, err := ListFiles(dir)
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.txt")}, files)
}

func TestOutsideEnvelopeReportsMismatches(t *testing.T) {
	// modulus 2^8 with user key 7 wraps every element of this file
	ks, err := encryption.SetupFromKeys(64, []*big.Int{big.NewInt(8)})
	require.NoError(t, err)
	runner, err := NewBatchRunner(encryption.NewSPADE(ks), big.NewInt(7), RunnerConfig{})
	require.NoError(t, err)

	dir := writeFiles(t, map[string]string{"wide.txt": "100\n101\n102"})
	report, err := runner.ProcessDirectory(dir, dataset.TypeHypnogram)
	require.NoError(t, err)

	res := report.Results[0]
	require.Equal(t, models.StatusOK, res.Status)
	require.Equal(t, 3, res.Mismatches)
}

func TestSeedMakesNoiseReproducible(t *testing.T) {
	ks, err := encryption.SetupFromKeys(64, []*big.Int{big.NewInt(8)})
	require.NoError(t, err)
	dir := writeFiles(t, map[string]string{"wide.txt": "100\n101\n102\n103\n104\n105"})

	run := func() []*big.Int {
		runner, err := NewBatchRunner(encryption.NewSPADE(ks), big.NewInt(7), RunnerConfig{Seed: []byte("fixed")})
		require.NoError(t, err)
		report, err := runner.ProcessDirectory(dir, dataset.TypeHypnogram)
		require.NoError(t, err)
		return report.Results[0].DecryptedSample
	}
	// outside the envelope the decrypted values depend on the noise drawn
	require.Equal(t, run(), run())
}

func TestNewBatchRunner(t *testing.T) {
	ks, err := encryption.Setup(2, 64, encryption.NewPRNG())
	require.NoError(t, err)
	spade := encryption.NewSPADE(ks)

	_, err = NewBatchRunner(spade, big.NewInt(0), RunnerConfig{})
	require.ErrorIs(t, err, encryption.ErrInvalidUserKey)

	runner, err := NewBatchRunner(spade, big.NewInt(3), RunnerConfig{})
	require.NoError(t, err)
	require.Greater(t, runner.Workers(), 0)
}
