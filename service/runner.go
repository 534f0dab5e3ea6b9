// service/runner.go
package service

import (
	"errors"
	"fmt"
	"log"
	"math/big"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lazybeaver/entropy"

	"spade-bench/dataset"
	"spade-bench/encryption"
	"spade-bench/models"
)

var (
	ErrDirectoryAccess = errors.New("cannot access directory")
	ErrEmptySequence   = errors.New("dataset contains no elements")
)

// SourceFactory resolves a data type into the source that loads it
type SourceFactory func(dataType string) (dataset.Source, error)

// RunnerConfig tunes a BatchRunner. Zero values select the defaults.
type RunnerConfig struct {
	Workers int
	Seed    []byte
	Sources SourceFactory
}

// BatchRunner pushes every file of a directory through
// load -> encrypt -> decrypt -> measure on a bounded pool of workers.
type BatchRunner struct {
	scheme           encryption.Scheme
	userKey          *big.Int
	workers          int
	seed             []byte
	newSource        SourceFactory
	metricsCollector *MetricsCollector
}

// fileTask is one queued file
type fileTask struct {
	path     string
	dataType string
}

func defaultSources(dataType string) (dataset.Source, error) {
	source, err := dataset.New(dataType)
	if err != nil {
		return nil, err
	}
	return source, nil
}

// NewBatchRunner creates a runner encrypting with userKey under scheme
func NewBatchRunner(scheme encryption.Scheme, userKey *big.Int, config RunnerConfig) (*BatchRunner, error) {
	if userKey == nil || userKey.Sign() <= 0 {
		return nil, encryption.ErrInvalidUserKey
	}

	workers := config.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	seed := config.Seed
	if len(seed) == 0 {
		var err error
		if seed, err = encryption.NewSeed(); err != nil {
			return nil, err
		}
	}

	sources := config.Sources
	if sources == nil {
		sources = defaultSources
	}

	return &BatchRunner{
		scheme:           scheme,
		userKey:          new(big.Int).Set(userKey),
		workers:          workers,
		seed:             seed,
		newSource:        sources,
		metricsCollector: NewMetricsCollector(),
	}, nil
}

// Workers returns the size of the worker pool
func (br *BatchRunner) Workers() int {
	return br.workers
}

// Metrics returns the counters accumulated over every batch run so far
func (br *BatchRunner) Metrics() MetricsResponse {
	return br.metricsCollector.GetMetrics()
}

// ListFiles returns the regular files directly inside dir, sorted by name.
func ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrDirectoryAccess, dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			files = append(files, filepath.Join(dir, entry.Name()))
			continue
		}
		// follow symlinks the way a stat-based check would
		if entry.Type()&os.ModeSymlink != 0 {
			path := filepath.Join(dir, entry.Name())
			if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
				files = append(files, path)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

// ProcessDirectory processes every file in dir and returns the report. Only
// a listing failure aborts the run; per-file failures become failed rows.
func (br *BatchRunner) ProcessDirectory(dir, dataType string) (*models.Report, error) {
	files, err := ListFiles(dir)
	if err != nil {
		return nil, err
	}

	report := &models.Report{
		RunID:     uuid.New().String(),
		DataType:  dataType,
		Directory: dir,
		Scheme:    br.scheme.Name(),
		StartedAt: time.Now(),
		Results:   make([]*models.ProcessingResult, 0, len(files)),
	}

	log.Printf("Processing %d %s files from %s with %d workers", len(files), dataType, dir, br.workers)
	br.metricsCollector.StartBatch()

	taskCh := make(chan *fileTask, len(files))
	resultCh := make(chan *models.ProcessingResult, len(files))
	var processingWg sync.WaitGroup

	workers := br.workers
	if workers > len(files) {
		workers = len(files)
	}
	for i := 0; i < workers; i++ {
		processingWg.Add(1)
		go br.fileWorker(taskCh, resultCh, &processingWg)
	}

	for _, path := range files {
		taskCh <- &fileTask{path: path, dataType: dataType}
	}
	close(taskCh)

	go func() {
		processingWg.Wait()
		close(resultCh)
	}()

	// gather in completion order
	for result := range resultCh {
		report.Results = append(report.Results, result)
	}

	br.metricsCollector.EndBatch()
	report.FinishedAt = time.Now()

	if failed := len(report.Failed()); failed > 0 {
		log.Printf("Warning: %d of %d files failed in %s", failed, len(files), dir)
	}
	return report, nil
}

// fileWorker processes queued files until the task channel is closed
func (br *BatchRunner) fileWorker(taskCh <-chan *fileTask, resultCh chan<- *models.ProcessingResult, wg *sync.WaitGroup) {
	defer wg.Done()

	for task := range taskCh {
		resultCh <- br.ProcessFile(task.path, task.dataType)
	}
}

// ProcessFile runs a single file through the pipeline. It never returns nil
// and never panics: any failure is reported in the result.
func (br *BatchRunner) ProcessFile(path, dataType string) (result *models.ProcessingResult) {
	defer func() {
		if r := recover(); r != nil {
			result = br.fail(path, fmt.Errorf("task panicked: %v", r))
		}
	}()

	result, err := br.processFile(path, dataType)
	if err != nil {
		return br.fail(path, err)
	}
	br.metricsCollector.RecordFileProcessed(result.Elements)
	return result
}

func (br *BatchRunner) fail(path string, err error) *models.ProcessingResult {
	log.Printf("Warning: failed to process %s: %v", path, err)
	br.metricsCollector.RecordFailure()
	return models.NewFailedResult(path, err)
}

func (br *BatchRunner) processFile(path, dataType string) (*models.ProcessingResult, error) {
	source, err := br.newSource(dataType)
	if err != nil {
		return nil, err
	}

	data, err := source.Load(path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptySequence, path)
	}

	prng, err := encryption.NewKeyedPRNG(encryption.DeriveKey(br.seed, path))
	if err != nil {
		return nil, err
	}
	noise := encryption.NewNoiseSampler(prng)

	startTime := time.Now()
	records, err := br.scheme.Encrypt(data, br.userKey, noise)
	encryptionTime := time.Since(startTime)
	if err != nil {
		return nil, fmt.Errorf("encryption failed: %w", err)
	}
	br.metricsCollector.RecordEncryption(encryptionTime)

	startTime = time.Now()
	decrypted, err := br.scheme.Decrypt(records, br.userKey)
	decryptionTime := time.Since(startTime)
	if err != nil {
		return nil, fmt.Errorf("decryption failed: %w", err)
	}
	br.metricsCollector.RecordDecryption(decryptionTime)

	originalSize := len(data) * br.scheme.ElementSize()
	encryptedSize := len(records) * br.scheme.RecordSize()

	ent, err := sequenceEntropy(data)
	if err != nil {
		return nil, fmt.Errorf("entropy failed: %w", err)
	}

	return &models.ProcessingResult{
		File:            path,
		Status:          models.StatusOK,
		Elements:        len(data),
		OriginalSample:  models.Head(data),
		DecryptedSample: models.Head(decrypted),
		EncryptionTime:  encryptionTime,
		DecryptionTime:  decryptionTime,
		StorageOverhead: float64(encryptedSize) / float64(originalSize),
		Entropy:         ent,
		Mismatches:      encryption.Mismatches(data, decrypted),
	}, nil
}

// sequenceEntropy returns the Shannon entropy of the sequence written out
// as a string of decimal digits.
func sequenceEntropy(data encryption.Plaintext) (float64, error) {
	var sb strings.Builder
	buf := make([]byte, 0, 20)
	for _, v := range data {
		sb.Write(strconv.AppendUint(buf[:0], v, 10))
	}
	return entropy.Shannon(sb.String())
}
