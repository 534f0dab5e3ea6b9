package storage

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math/big"
	"path/filepath"
	"strconv"
	"strings"

	"spade-bench/models"
)

// DefaultDir is where result tables land unless told otherwise
const DefaultDir = "results"

// CSVPath names the results table for dataType under dir
func CSVPath(dir, dataType string) string {
	return filepath.Join(dir, fmt.Sprintf("spade_%s_results.csv", dataType))
}

var csvHeader = []string{
	"File",
	"Original Data (Sample)",
	"Decrypted Data (Sample)",
	"Encryption Time (s)",
	"Decryption Time (s)",
	"Storage Overhead (x)",
	"Status",
	"Error",
}

// Row is one line of the results table
type Row struct {
	File              string
	OriginalSample    []uint64
	DecryptedSample   []*big.Int
	EncryptionSeconds float64
	DecryptionSeconds float64
	StorageOverhead   float64
	Status            models.Status
	Error             string
}

// WriteCSV writes the report as a table, one row per result in report order
func WriteCSV(w io.Writer, report *models.Report) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, res := range report.Results {
		record := []string{
			res.File,
			formatSample(res.OriginalSample),
			formatSample(res.DecryptedSample),
			formatFloat(res.EncryptionSeconds()),
			formatFloat(res.DecryptionSeconds()),
			formatFloat(res.StorageOverhead),
			string(res.Status),
			res.Error,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write row for %s: %w", res.File, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// SaveCSV writes the report table to path
func SaveCSV(path string, report *models.Report) error {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, report); err != nil {
		return err
	}
	return writeFileAtomic(path, buf.Bytes(), 0644)
}

// ReadCSV parses a table written by WriteCSV
func ReadCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(csvHeader)

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("missing csv header")
	}

	rows := make([]Row, 0, len(records)-1)
	for i, record := range records[1:] {
		row, err := parseRow(record)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseRow(record []string) (Row, error) {
	row := Row{
		File:   record[0],
		Status: models.Status(record[6]),
		Error:  record[7],
	}

	var err error
	if row.OriginalSample, err = parseSample(record[1], func(s string) (uint64, error) {
		return strconv.ParseUint(s, 10, 64)
	}); err != nil {
		return Row{}, fmt.Errorf("original sample: %w", err)
	}
	if row.DecryptedSample, err = parseSample(record[2], func(s string) (*big.Int, error) {
		v, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, fmt.Errorf("invalid integer %q", s)
		}
		return v, nil
	}); err != nil {
		return Row{}, fmt.Errorf("decrypted sample: %w", err)
	}

	floats := []*float64{&row.EncryptionSeconds, &row.DecryptionSeconds, &row.StorageOverhead}
	for i, dst := range floats {
		if *dst, err = strconv.ParseFloat(record[3+i], 64); err != nil {
			return Row{}, fmt.Errorf("%s: %w", csvHeader[3+i], err)
		}
	}
	return row, nil
}

// formatSample renders values as [1, 2, 3]
func formatSample[T any](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func parseSample[T any](s string, parse func(string) (T, error)) ([]T, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return nil, fmt.Errorf("invalid sample %q", s)
	}
	s = strings.TrimSpace(s[1 : len(s)-1])
	if s == "" {
		return []T{}, nil
	}

	fields := strings.Split(s, ",")
	out := make([]T, len(fields))
	for i, f := range fields {
		v, err := parse(strings.TrimSpace(f))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
