// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package assign attributes the pages of a pay-slip document to employees by
// searching each page's text for their last name.
package assign

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/payslip-splitter/internal/names"
	"github.com/pdiddy/payslip-splitter/pkg/types"
)

const defaultWorkers = 4

// Document is a read-only paged source of text.
type Document interface {
	PageCount() int
	PageText(n int) (string, error)
}

// Options tunes page assignment.
type Options struct {
	// Workers bounds parallel page extraction (default 4).
	Workers int

	// RequireFirstName also requires the employee's first name on a page.
	RequireFirstName bool
}

// Assign extracts every page of doc and matches it against employees.
func Assign(ctx context.Context, doc Document, employees []types.Employee, opts Options) ([]types.PageMatch, error) {
	texts, err := ExtractTexts(ctx, doc, opts.Workers)
	if err != nil {
		return nil, err
	}
	return Match(texts, employees, opts), nil
}

// ExtractTexts returns the text of every page, index i holding page i+1.
// Pages are extracted once each, by at most workers goroutines. The first
// failure cancels the rest and names the page.
func ExtractTexts(ctx context.Context, doc Document, workers int) ([]string, error) {
	if workers <= 0 {
		workers = defaultWorkers
	}
	n := doc.PageCount()
	texts := make([]string, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range n {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			text, err := doc.PageText(i + 1)
			if err != nil {
				return fmt.Errorf("page %d: %w", i+1, err)
			}
			texts[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return texts, nil
}

// Match attributes pages to employees. A page goes to every employee whose
// last name it contains, so one page may land in several matches. Only
// employees with at least one page are returned, in directory order, with
// pages ascending.
func Match(texts []string, employees []types.Employee, opts Options) []types.PageMatch {
	lastNames := make([]string, len(employees))
	for i, e := range employees {
		lastNames[i] = e.LastName
	}
	m := names.NewMatcher(lastNames)

	pages := make([][]int, len(employees))
	for i, text := range texts {
		for _, e := range m.Find(text) {
			if opts.RequireFirstName && !names.Contains(text, employees[e].FirstName) {
				continue
			}
			pages[e] = append(pages[e], i+1)
		}
	}

	var out []types.PageMatch
	for i, p := range pages {
		if len(p) == 0 {
			continue
		}
		out = append(out, types.PageMatch{Employee: employees[i], Pages: p})
		slog.Debug("employee matched", "employee", employees[i].FullName, "pages", types.FormatRanges(p))
	}
	return out
}
