package dataset

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"spade-bench/encryption"
)

var dnaMapping = map[byte]uint64{'A': 1, 'C': 2, 'G': 3, 'T': 4}

// DNADecoder maps the nucleotides A, C, G, T to 1..4. Every other character,
// line breaks included, is dropped.
type DNADecoder struct{}

func (DNADecoder) Decode(r io.Reader) (encryption.Plaintext, error) {
	content, err := io.ReadAll(bufio.NewReader(r))
	if err != nil {
		return nil, fmt.Errorf("failed to read dna: %w", err)
	}
	if !utf8.Valid(content) {
		return nil, &FormatError{Err: errors.New("content is not valid UTF-8")}
	}

	data := make(encryption.Plaintext, 0, len(content))
	for _, c := range content {
		if v, ok := dnaMapping[c]; ok {
			data = append(data, v)
		}
	}
	return data, nil
}
