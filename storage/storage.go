// File: storage/storage.go
package storage

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"spade-bench/models"
)

const (
	timestampLayout = "20060102150405.000000000"
	defaultKeep     = 5
)

// ReportStorage archives reports as timestamped JSON files, one series per
// data type, keeping only the most recent ones.
type ReportStorage struct {
	dataDir string
	keep    int
}

// reportFile pairs a report path with its parsed timestamp
type reportFile struct {
	path      string
	timestamp int64
}

type reportFiles []reportFile

func (f reportFiles) Len() int           { return len(f) }
func (f reportFiles) Less(i, j int) bool { return f[i].timestamp < f[j].timestamp }
func (f reportFiles) Swap(i, j int)      { f[i], f[j] = f[j], f[i] }

func New(dataDir string) (*ReportStorage, error) {
	absPath, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	if err := os.MkdirAll(absPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return &ReportStorage{
		dataDir: absPath,
		keep:    defaultKeep,
	}, nil
}

// Dir returns the absolute storage directory
func (s *ReportStorage) Dir() string {
	return s.dataDir
}

func pattern(dataType string) string {
	return fmt.Sprintf("report_%s_*.json", dataType)
}

// listFiles returns the report files of a data type, oldest first
func (s *ReportStorage) listFiles(dataType string) (reportFiles, error) {
	files, err := filepath.Glob(filepath.Join(s.dataDir, pattern(dataType)))
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	prefix := fmt.Sprintf("report_%s_", dataType)
	var out reportFiles
	for _, file := range files {
		// Extract timestamp from filename
		base := filepath.Base(file)
		timestampStr := strings.TrimSuffix(strings.TrimPrefix(base, prefix), ".json")
		timestamp, err := time.Parse(timestampLayout, timestampStr)
		if err != nil {
			log.Printf("Warning: Invalid timestamp in filename %s: %v", base, err)
			continue
		}
		out = append(out, reportFile{
			path:      file,
			timestamp: timestamp.UnixNano(),
		})
	}

	sort.Sort(out)
	return out, nil
}

// SaveReport writes the report and prunes old reports of the same type.
// It returns the path written.
func (s *ReportStorage) SaveReport(report *models.Report) (string, error) {
	if report.DataType == "" {
		return "", fmt.Errorf("cannot save report without data type")
	}

	now := time.Now().UTC()
	filename := s.reportPath(report.DataType, now)
	for {
		if _, err := os.Stat(filename); os.IsNotExist(err) {
			break
		}
		now = now.Add(time.Nanosecond)
		filename = s.reportPath(report.DataType, now)
	}

	data, err := json.MarshalIndent(report, "", "    ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}

	if err := writeFileAtomic(filename, data, 0644); err != nil {
		return "", err
	}

	// Cleanup old files
	if err := s.cleanupOldFiles(report.DataType); err != nil {
		log.Printf("Warning: Failed to cleanup old %s reports: %v", report.DataType, err)
	}

	log.Printf("Saved %s report with %d results to %s", report.DataType, len(report.Results), filename)
	return filename, nil
}

func (s *ReportStorage) reportPath(dataType string, t time.Time) string {
	return filepath.Join(s.dataDir, fmt.Sprintf("report_%s_%s.json", dataType, t.Format(timestampLayout)))
}

// LoadLatest returns the most recent report of a data type, or nil if none
// was saved yet.
func (s *ReportStorage) LoadLatest(dataType string) (*models.Report, error) {
	files, err := s.listFiles(dataType)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest %s report: %w", dataType, err)
	}
	if len(files) == 0 {
		return nil, nil
	}

	latestFile := files[len(files)-1].path
	file, err := os.Open(latestFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", latestFile, err)
	}
	defer file.Close()

	var report models.Report
	if err := json.NewDecoder(file).Decode(&report); err != nil {
		return nil, fmt.Errorf("failed to decode report from %s: %w", latestFile, err)
	}
	return &report, nil
}

func (s *ReportStorage) cleanupOldFiles(dataType string) error {
	files, err := s.listFiles(dataType)
	if err != nil {
		return err
	}

	if len(files) <= s.keep {
		return nil
	}

	// Remove older files, keeping the most recent 'keep' files
	for i := 0; i < len(files)-s.keep; i++ {
		if err := os.Remove(files[i].path); err != nil {
			log.Printf("Warning: Failed to remove old file %s: %v", files[i].path, err)
		} else {
			log.Printf("Removed old report file: %s", files[i].path)
		}
	}

	return nil
}
