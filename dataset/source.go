// Package dataset loads integer sequences from dataset files.
package dataset

import (
	"errors"
	"fmt"
	"io"
	"os"

	"spade-bench/encryption"
)

const (
	TypeHypnogram = "hypnogram"
	TypeDNA       = "dna"
)

var ErrUnknownDataType = errors.New("unknown data type")

// FormatError reports content that does not parse under a dataset policy.
type FormatError struct {
	Source string
	Line   int
	Err    error
}

func (e *FormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("format error in %s at line %d: %v", e.Source, e.Line, e.Err)
	}
	return fmt.Sprintf("format error in %s: %v", e.Source, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// Decoder turns raw dataset content into a plaintext sequence
type Decoder interface {
	Decode(r io.Reader) (encryption.Plaintext, error)
}

// Source supplies a plaintext sequence from a named resource
type Source interface {
	Load(resourceID string) (encryption.Plaintext, error)
}

// FileSource loads resources from the local filesystem with a Decoder.
type FileSource struct {
	DataType string
	Decoder  Decoder
}

// New returns the file source for a data type.
func New(dataType string) (*FileSource, error) {
	var dec Decoder
	switch dataType {
	case TypeHypnogram:
		dec = HypnogramDecoder{}
	case TypeDNA:
		dec = DNADecoder{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDataType, dataType)
	}
	return &FileSource{DataType: dataType, Decoder: dec}, nil
}

// Types lists the recognised data types
func Types() []string {
	return []string{TypeHypnogram, TypeDNA}
}

func (s *FileSource) Load(resourceID string) (encryption.Plaintext, error) {
	file, err := os.Open(resourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", resourceID, err)
	}
	defer file.Close()

	data, err := s.Decoder.Decode(file)
	if err != nil {
		var fe *FormatError
		if errors.As(err, &fe) && fe.Source == "" {
			fe.Source = resourceID
		}
		return nil, err
	}
	return data, nil
}
