package models

import "time"

// Report collects the results of one batch run. Results are kept in the
// order the tasks completed.
type Report struct {
	RunID      string              `json:"run_id"`
	DataType   string              `json:"data_type"`
	Directory  string              `json:"directory"`
	Scheme     string              `json:"scheme"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt time.Time           `json:"finished_at"`
	Results    []*ProcessingResult `json:"results"`
}

// Succeeded returns the results that completed without error
func (r *Report) Succeeded() []*ProcessingResult {
	var out []*ProcessingResult
	for _, res := range r.Results {
		if !res.Failed() {
			out = append(out, res)
		}
	}
	return out
}

// Failed returns the results marked as failed
func (r *Report) Failed() []*ProcessingResult {
	var out []*ProcessingResult
	for _, res := range r.Results {
		if res.Failed() {
			out = append(out, res)
		}
	}
	return out
}

func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Summary aggregates the successful results of a report
type Summary struct {
	Files               int     `json:"files"`
	Succeeded           int     `json:"succeeded"`
	Failed              int     `json:"failed"`
	MeanEncryption      float64 `json:"mean_encryption_s"`
	MedianEncryption    float64 `json:"median_encryption_s"`
	StdDevEncryption    float64 `json:"stddev_encryption_s"`
	MaxEncryption       float64 `json:"max_encryption_s"`
	MeanDecryption      float64 `json:"mean_decryption_s"`
	MedianDecryption    float64 `json:"median_decryption_s"`
	StdDevDecryption    float64 `json:"stddev_decryption_s"`
	MaxDecryption       float64 `json:"max_decryption_s"`
	MeanStorageOverhead float64 `json:"mean_storage_overhead"`
	TotalMismatches     int     `json:"total_mismatches"`
}
