// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package split writes one PDF per employee from the pages assigned to them.
package split

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/pdiddy/payslip-splitter/pkg/types"
)

func init() {
	api.DisableConfigDir()
}

// Namer returns the output file name for an employee.
type Namer func(types.Employee) string

// LocalNamer names files "<period> <Full Name>.pdf".
func LocalNamer(period string) Namer {
	return func(e types.Employee) string {
		return types.LocalFileName(period, e.FullName)
	}
}

// ArchiveNamer names files "<period>-<doctype>-<Full Name>.pdf".
func ArchiveNamer(period string, docType types.DocType) Namer {
	return func(e types.Employee) string {
		return types.ArchiveFileName(period, docType, e.FullName, ".pdf")
	}
}

// Result holds the outcome of one Split call.
type Result struct {
	Created  int
	Skipped  int
	Outputs  []types.OutputFile
	Warnings []string
}

// Splitter writes per-employee PDFs into OutputDir.
type Splitter struct {
	OutputDir string

	// Overwrite replaces existing targets instead of skipping them.
	Overwrite bool

	// Out receives progress lines; nil discards them.
	Out io.Writer
}

// Split writes one file per non-empty match, holding exactly the matched
// pages of src in ascending order. Matches are written in order; the first
// failure stops the call and leaves earlier outputs in place. Zero matches
// write nothing.
func (s Splitter) Split(ctx context.Context, src string, matches []types.PageMatch, namer Namer) (Result, error) {
	var res Result
	w := s.Out
	if w == nil {
		w = io.Discard
	}

	if len(matches) == 0 {
		return res, nil
	}
	if err := os.MkdirAll(s.OutputDir, 0o755); err != nil {
		return res, fmt.Errorf("creating output dir %s: %w", s.OutputDir, err)
	}

	written := make(map[string]string)
	for _, m := range matches {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if m.Empty() {
			continue
		}

		name := namer(m.Employee)
		if prev, ok := written[name]; ok {
			msg := fmt.Sprintf("%s: name collides with %s, pages %s not written", m.Employee.FullName, prev, m.Ranges())
			fmt.Fprintf(w, "  warning: %s\n", msg)
			res.Warnings = append(res.Warnings, msg)
			continue
		}
		written[name] = m.Employee.FullName

		out := types.OutputFile{
			Source:   src,
			Path:     filepath.Join(s.OutputDir, name),
			Name:     name,
			Employee: m.Employee,
			Pages:    m.Pages,
		}

		if _, err := os.Stat(out.Path); err == nil && !s.Overwrite {
			fmt.Fprintf(w, "skipped: %s (already exists)\n", name)
			out.Skipped = true
			res.Skipped++
			res.Outputs = append(res.Outputs, out)
			continue
		}

		if err := writePages(src, out.Path, m.Pages); err != nil {
			return res, fmt.Errorf("writing %s: %w", name, err)
		}
		fmt.Fprintf(w, "created: %s (pages %s)\n", name, m.Ranges())
		slog.Debug("split written", "source", src, "file", out.Path, "pages", m.Ranges())
		res.Created++
		res.Outputs = append(res.Outputs, out)
	}
	return res, nil
}

// writePages copies pages of src into dst through a temp file in dst's
// directory, renamed into place on success.
func writePages(src, dst string, pages []int) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".split-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.Trim(in, tmp, Selection(pages), conf); err != nil {
		return fmt.Errorf("selecting pages %s: %w", types.FormatRanges(pages), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// Selection converts ascending pages into pdfcpu page selection terms, e.g.
// [1 2 5] becomes ["1-2", "5"].
func Selection(pages []int) []string {
	r := types.FormatRanges(pages)
	if r == "" {
		return nil
	}
	return strings.Split(r, ",")
}

// ErrNoPages is returned by PageCount for documents without pages.
var ErrNoPages = errors.New("document has no pages")

// PageCount returns the number of pages in a PDF file.
func PageCount(path string) (int, error) {
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("counting pages of %s: %w", path, err)
	}
	if n == 0 {
		return 0, fmt.Errorf("%s: %w", path, ErrNoPages)
	}
	return n, nil
}
