// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package split

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pdiddy/payslip-splitter/pkg/types"
)

type manifestRow struct {
	Source   string `csv:"source"`
	Period   string `csv:"period"`
	DocType  string `csv:"doc_type"`
	Employee string `csv:"employee"`
	Pages    string `csv:"pages"`
	File     string `csv:"file"`
	Status   string `csv:"status"`
}

// WriteManifest writes a CSV listing every output, one row per file.
func WriteManifest(path string, outputs []types.OutputFile) error {
	rows := make([]manifestRow, len(outputs))
	for i, o := range outputs {
		status := "created"
		if o.Skipped {
			status = "skipped"
		}
		rows[i] = manifestRow{
			Source:   filepath.Base(o.Source),
			Period:   o.Period,
			DocType:  string(o.DocType),
			Employee: o.Employee.FullName,
			Pages:    types.FormatRanges(o.Pages),
			File:     o.Path,
			Status:   status,
		}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating manifest dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating manifest %s: %w", path, err)
	}
	if err := gocsv.Marshal(rows, f); err != nil {
		f.Close()
		return fmt.Errorf("writing manifest %s: %w", path, err)
	}
	return f.Close()
}
