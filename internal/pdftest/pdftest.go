// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdftest builds small text PDFs for tests. Pages are laid out by
// pdfcpu from a JSON description, one Helvetica text box per line, so both
// text extractors and pdfcpu can read them back.
package pdftest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func init() {
	api.DisableConfigDir()
}

const (
	fontName   = "Helvetica"
	fontSize   = 12
	left       = 72
	top        = 770
	lineHeight = 14
)

// Page is the text lines drawn on one page, top to bottom.
type Page []string

type layout struct {
	Paper  string                `json:"paper"`
	Origin string                `json:"origin"`
	Pages  map[string]pageLayout `json:"pages"`
}

type pageLayout struct {
	Content content `json:"content"`
}

type content struct {
	Text []textBox `json:"text"`
}

type textBox struct {
	Value string     `json:"value"`
	Pos   [2]float64 `json:"pos"`
	Font  font       `json:"font"`
}

type font struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

// Layout returns the pdfcpu create description of pages. Each line ends with
// a space so extractors that concatenate text runs keep lines apart.
func Layout(pages ...Page) ([]byte, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("pdftest: at least one page required")
	}
	l := layout{Paper: "A4P", Origin: "LowerLeft", Pages: make(map[string]pageLayout, len(pages))}
	for i, p := range pages {
		var pl pageLayout
		for j, line := range p {
			pl.Content.Text = append(pl.Content.Text, textBox{
				Value: line + " ",
				Pos:   [2]float64{left, float64(top - j*lineHeight)},
				Font:  font{Name: fontName, Size: fontSize},
			})
		}
		l.Pages[strconv.Itoa(i+1)] = pl
	}
	return json.Marshal(l)
}

// Build returns a complete PDF document with one page per entry.
func Build(pages ...Page) ([]byte, error) {
	desc, err := Layout(pages...)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := api.Create(nil, bytes.NewReader(desc), &buf, model.NewDefaultConfiguration()); err != nil {
		return nil, fmt.Errorf("pdftest: creating PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// Write builds the document into dir/name and returns its path. It fails the
// test on any error.
func Write(t testing.TB, dir, name string, pages ...Page) string {
	t.Helper()
	data, err := Build(pages...)
	if err != nil {
		t.Fatalf("building %s: %v", name, err)
	}
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("creating %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}
