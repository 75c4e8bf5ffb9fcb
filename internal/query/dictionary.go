package query

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// File names looked up inside a dictionary directory.
const (
	PhraseFile = "phrase_map.csv"
	RegionFile = "region_map.csv"
	IntentFile = "special_intent.csv"
)

// ReadDictionary parses a two-column CSV (header row first, '#' comments)
// into key -> value. Any malformed row makes the whole dictionary invalid.
func ReadDictionary(r io.Reader) (map[string]string, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("header has %d columns, want 2", len(header))
	}

	out := make(map[string]string)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		if len(rec) < 2 {
			return nil, fmt.Errorf("row %d: %d columns, want 2", line, len(rec))
		}
		k, v := strings.TrimSpace(rec[0]), strings.TrimSpace(rec[1])
		if k == "" {
			continue
		}
		out[strings.ToLower(k)] = v
	}
	return out, nil
}

// LoadDictionary reads a dictionary file. A missing file yields an empty
// mapping without error; a malformed one yields an empty mapping and the error.
func LoadDictionary(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return map[string]string{}, err
	}
	defer f.Close()

	m, err := ReadDictionary(f)
	if err != nil {
		return map[string]string{}, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}
