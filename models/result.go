package models

import (
	"math/big"
	"time"
)

// SampleSize is how many leading values a result keeps from each sequence
const SampleSize = 10

type Status string

const (
	StatusOK     Status = "ok"
	StatusFailed Status = "failed"
)

// ProcessingResult holds the measurements for one processed file. A failed
// result carries the error text and no measurements. Err keeps the cause for
// errors.Is and is not persisted.
type ProcessingResult struct {
	File            string        `json:"file"`
	Status          Status        `json:"status"`
	Error           string        `json:"error,omitempty"`
	Err             error         `json:"-"`
	Elements        int           `json:"elements"`
	OriginalSample  []uint64      `json:"original_sample"`
	DecryptedSample []*big.Int    `json:"decrypted_sample"`
	EncryptionTime  time.Duration `json:"encryption_time_ns"`
	DecryptionTime  time.Duration `json:"decryption_time_ns"`
	StorageOverhead float64       `json:"storage_overhead"`
	Entropy         float64       `json:"entropy"`
	Mismatches      int           `json:"mismatches"`
}

// NewFailedResult returns a result marking file as failed with err
func NewFailedResult(file string, err error) *ProcessingResult {
	return &ProcessingResult{
		File:   file,
		Status: StatusFailed,
		Error:  err.Error(),
		Err:    err,
	}
}

func (r *ProcessingResult) Failed() bool {
	return r.Status == StatusFailed
}

// EncryptionSeconds returns the encryption time in seconds
func (r *ProcessingResult) EncryptionSeconds() float64 {
	return r.EncryptionTime.Seconds()
}

// DecryptionSeconds returns the decryption time in seconds
func (r *ProcessingResult) DecryptionSeconds() float64 {
	return r.DecryptionTime.Seconds()
}

// Head returns at most the first SampleSize elements of values.
func Head[T any](values []T) []T {
	n := len(values)
	if n > SampleSize {
		n = SampleSize
	}
	out := make([]T, n)
	copy(out, values[:n])
	return out
}
