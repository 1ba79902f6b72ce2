package dataset

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
)

func readParquet(path string, columns []string) ([][]string, []int, error) {
	h, err := openParquet(path)
	if err != nil {
		return nil, nil, err
	}
	defer h.Close()

	// Leaf column paths; only flat top-level columns are read.
	var header []string
	for _, p := range h.pf.Schema().Columns() {
		if len(p) == 0 {
			header = append(header, "")
			continue
		}
		header = append(header, p[0])
	}
	idx, missing := resolveColumns(header, columns)

	leaf := make(map[int]int, len(idx))
	for i, c := range idx {
		if c >= 0 {
			leaf[c] = i
		}
	}

	var rows [][]string
	buf := make([]parquet.Row, 256)
	for _, rg := range h.pf.RowGroups() {
		reader := parquet.NewRowGroupReader(rg)
		for {
			n, readErr := reader.ReadRows(buf)
			for _, r := range buf[:n] {
				row := make([]string, len(columns))
				for _, v := range r {
					if i, ok := leaf[v.Column()]; ok && !v.IsNull() {
						row[i] = v.String()
					}
				}
				rows = append(rows, row)
			}
			if readErr != nil {
				if errors.Is(readErr, io.EOF) {
					break
				}
				return nil, nil, fmt.Errorf("read rows: %w", readErr)
			}
		}
	}
	return rows, missing, nil
}

// parquetHandle wraps parquet.File and the underlying os.File for cleanup.
type parquetHandle struct {
	pf   *parquet.File
	file *os.File
}

func (h *parquetHandle) Close() {
	_ = h.file.Close()
}

func openParquet(path string) (*parquetHandle, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat: %w", err)
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("open parquet: %w", err)
	}
	return &parquetHandle{pf: pf, file: f}, nil
}
