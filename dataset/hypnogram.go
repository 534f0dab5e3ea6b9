package dataset

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"spade-bench/encryption"
)

// HypnogramDecoder reads one unsigned decimal integer per line.
type HypnogramDecoder struct{}

func (HypnogramDecoder) Decode(r io.Reader) (encryption.Plaintext, error) {
	var data encryption.Plaintext

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			return nil, &FormatError{Line: line, Err: errors.New("empty line")}
		}

		v, err := strconv.ParseUint(text, 10, 64)
		if err != nil {
			return nil, &FormatError{Line: line, Err: fmt.Errorf("invalid integer %q", text)}
		}
		data = append(data, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read hypnogram: %w", err)
	}

	return data, nil
}
