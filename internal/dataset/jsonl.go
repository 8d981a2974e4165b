// Package dataset writes normalized records to JSONL and CSV files.
package dataset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"ttmusic/internal/models"
)

// ErrMalformedLine is returned by ReadJSONL for a line that is not a JSON object.
var ErrMalformedLine = errors.New("malformed JSONL line")

// WriteJSONL writes one JSON object per line, UTF-8, without escaping
// non-ASCII or HTML characters. Parent directories are created.
func WriteJSONL[T any](path string, rows []T) error {
	f, err := create(path)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	for i, row := range rows {
		if err := enc.Encode(row); err != nil {
			_ = f.Close()

			return fmt.Errorf("failed to encode row %d: %w", i, err)
		}
	}

	if err := w.Flush(); err != nil {
		_ = f.Close()

		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}

	return nil
}

// ReadJSONL reads a JSONL file back into generic rows. Blank lines are skipped.
func ReadJSONL(path string) ([]map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var rows []map[string]any

	r := bufio.NewReader(f)

	for lineNo := 1; ; lineNo++ {
		line, readErr := r.ReadBytes('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return nil, fmt.Errorf("failed to read %s: %w", path, readErr)
		}

		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			row, err := decodeRow(trimmed)
			if err != nil {
				return nil, fmt.Errorf("%w: %s:%d: %w", ErrMalformedLine, path, lineNo, err)
			}

			rows = append(rows, row)
		}

		if readErr != nil {
			break
		}
	}

	return rows, nil
}

// ToRows converts items to the generic row form used by the CSV writer.
func ToRows(items []*models.MusicItem) ([]map[string]any, error) {
	rows := make([]map[string]any, 0, len(items))

	for i, item := range items {
		b, err := json.Marshal(item)
		if err != nil {
			return nil, fmt.Errorf("failed to encode item %d: %w", i, err)
		}

		row, err := decodeRow(b)
		if err != nil {
			return nil, fmt.Errorf("failed to decode item %d: %w", i, err)
		}

		rows = append(rows, row)
	}

	return rows, nil
}

func decodeRow(b []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var row map[string]any
	if err := dec.Decode(&row); err != nil {
		return nil, err
	}

	if row == nil {
		return nil, errors.New("not a JSON object")
	}

	return row, nil
}

func create(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}

	return f, nil
}
