package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

func readCSV(path string, columns []string) ([][]string, []int, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, nil, fmt.Errorf("open: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("missing header row")
		}
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	idx, missing := resolveColumns(header, columns)

	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read row %d: %w", len(rows)+1, err)
		}
		row := make([]string, len(columns))
		for i, c := range idx {
			if c >= 0 && c < len(rec) {
				row[i] = rec[c]
			}
		}
		rows = append(rows, row)
	}
	return rows, missing, nil
}

// resolveColumns maps wanted column names to header positions, matching
// case-insensitively after trimming. Unresolved columns get -1.
func resolveColumns(header, columns []string) ([]int, []int) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, dup := pos[key]; !dup {
			pos[key] = i
		}
	}

	idx := make([]int, len(columns))
	var missing []int
	for i, c := range columns {
		p, ok := pos[strings.ToLower(strings.TrimSpace(c))]
		if !ok {
			idx[i] = -1
			missing = append(missing, i)
			continue
		}
		idx[i] = p
	}
	return idx, missing
}
