package dataset

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// WriteCSV writes rows with a header made of the sorted union of their keys.
// Nested objects and arrays are stored as JSON strings. Zero rows still
// produce a file holding one empty header line.
func WriteCSV(path string, rows []map[string]any) error {
	f, err := create(path)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)

	if err := writeRecords(w, rows); err != nil {
		_ = f.Close()

		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}

	return nil
}

func writeRecords(w *csv.Writer, rows []map[string]any) error {
	flattened := make([]map[string]string, 0, len(rows))
	keys := map[string]struct{}{}

	for _, row := range rows {
		flat, err := Flatten(row)
		if err != nil {
			return err
		}

		for k := range flat {
			keys[k] = struct{}{}
		}

		flattened = append(flattened, flat)
	}

	header := make([]string, 0, len(keys))
	for k := range keys {
		header = append(header, k)
	}

	sort.Strings(header)

	if err := w.Write(header); err != nil {
		return err
	}

	record := make([]string, len(header))

	for _, flat := range flattened {
		for i, k := range header {
			record[i] = flat[k]
		}

		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()

	return w.Error()
}

// Flatten renders each value of row as a CSV cell. Strings, numbers and
// booleans pass through, null becomes an empty cell, and anything nested is
// encoded as JSON.
func Flatten(row map[string]any) (map[string]string, error) {
	out := make(map[string]string, len(row))

	for k, v := range row {
		cell, err := cellValue(v)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", k, err)
		}

		out[k] = cell
	}

	return out, nil
}

func cellValue(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case json.Number:
		return val.String(), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case bool:
		return strconv.FormatBool(val), nil
	default:
		var buf bytes.Buffer

		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)

		if err := enc.Encode(val); err != nil {
			return "", err
		}

		return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
	}
}
