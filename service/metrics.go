package service

import (
	"sync"
	"time"
)

// MetricsCollector tracks timing and outcome counters across batch runs
type MetricsCollector struct {
	mu             sync.RWMutex
	batchStartTime time.Time
	batchEndTime   time.Time
	batchCount     int

	encryptionCount     int
	encryptionTotalTime time.Duration

	decryptionCount     int
	decryptionTotalTime time.Duration

	processedCount int
	failedCount    int
	elementCount   int
}

// OperationMetrics contains timing information for an operation
type OperationMetrics struct {
	Count          int   `json:"count"`
	ProcessingTime int64 `json:"processing_time_ms"`
}

// MetricsResponse provides the metrics for all operations
type MetricsResponse struct {
	BatchStartTime time.Time        `json:"batch_start_time"`
	BatchEndTime   time.Time        `json:"batch_end_time"`
	Batches        int              `json:"batches"`
	Processed      int              `json:"processed"`
	Failed         int              `json:"failed"`
	Elements       int              `json:"elements"`
	Encryption     OperationMetrics `json:"encryption"`
	Decryption     OperationMetrics `json:"decryption"`
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{}
}

// StartBatch marks the start of a batch run
func (mc *MetricsCollector) StartBatch() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.batchStartTime = time.Now()
	mc.batchCount++
}

func (mc *MetricsCollector) EndBatch() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.batchEndTime = time.Now()
}

// RecordEncryption adds the duration of one encrypt call
func (mc *MetricsCollector) RecordEncryption(duration time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.encryptionCount++
	mc.encryptionTotalTime += duration
}

// RecordDecryption adds the duration of one decrypt call
func (mc *MetricsCollector) RecordDecryption(duration time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.decryptionCount++
	mc.decryptionTotalTime += duration
}

// RecordFileProcessed counts a successfully processed file
func (mc *MetricsCollector) RecordFileProcessed(elements int) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.processedCount++
	mc.elementCount += elements
}

func (mc *MetricsCollector) RecordFailure() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.failedCount++
}

// GetMetrics returns current metrics for all operations
func (mc *MetricsCollector) GetMetrics() MetricsResponse {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	return MetricsResponse{
		BatchStartTime: mc.batchStartTime,
		BatchEndTime:   mc.batchEndTime,
		Batches:        mc.batchCount,
		Processed:      mc.processedCount,
		Failed:         mc.failedCount,
		Elements:       mc.elementCount,
		Encryption: OperationMetrics{
			Count:          mc.encryptionCount,
			ProcessingTime: mc.encryptionTotalTime.Milliseconds(),
		},
		Decryption: OperationMetrics{
			Count:          mc.decryptionCount,
			ProcessingTime: mc.decryptionTotalTime.Milliseconds(),
		},
	}
}

// Reset clears all metrics
func (mc *MetricsCollector) Reset() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.batchStartTime = time.Time{}
	mc.batchEndTime = time.Time{}
	mc.batchCount = 0

	mc.encryptionCount = 0
	mc.encryptionTotalTime = 0

	mc.decryptionCount = 0
	mc.decryptionTotalTime = 0

	mc.processedCount = 0
	mc.failedCount = 0
	mc.elementCount = 0
}
