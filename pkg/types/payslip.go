// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the payslip-splitter pipeline:
// employees from the directory, page matches produced by the assigner, and the
// output files written by the splitter.
package types

import (
	"strconv"
	"strings"
)

// Employee is one entry of the employee directory.
type Employee struct {
	// Handle is the raw directory entry (e.g. "bernier.antoine").
	Handle string `json:"handle" yaml:"handle"`

	// LastName is the display last name ("Bernier"). Pages are matched on it.
	LastName string `json:"last_name" yaml:"last_name"`

	// FirstName is the display first name ("Antoine").
	FirstName string `json:"first_name" yaml:"first_name"`

	// FullName is "LastName FirstName", used in output file names.
	FullName string `json:"full_name" yaml:"full_name"`

	// Active is false for former employees.
	Active bool `json:"active" yaml:"active"`
}

// PageMatch is the set of source pages attributed to one employee.
// Pages are 1-based and strictly increasing.
type PageMatch struct {
	Employee Employee `json:"employee" yaml:"employee"`
	Pages    []int    `json:"pages" yaml:"pages"`
}

// Empty reports whether no page was attributed.
func (m PageMatch) Empty() bool {
	return len(m.Pages) == 0
}

// Ranges renders the page set compactly, e.g. "1-2,5,7-9".
func (m PageMatch) Ranges() string {
	return FormatRanges(m.Pages)
}

// FormatRanges renders an ascending page list as comma-separated ranges.
func FormatRanges(pages []int) string {
	var b strings.Builder
	for i := 0; i < len(pages); {
		j := i
		for j+1 < len(pages) && pages[j+1] == pages[j]+1 {
			j++
		}
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(pages[i]))
		if j > i {
			b.WriteByte('-')
			b.WriteString(strconv.Itoa(pages[j]))
		}
		i = j + 1
	}
	return b.String()
}

// DocType tags the kind of payroll document.
type DocType string

const (
	DocPaySlip       DocType = "fiche-de-paie"
	DocParticipation DocType = "participation"
)

// OutputFile records one per-employee PDF written by the splitter.
type OutputFile struct {
	// Source is the input PDF the pages were taken from.
	Source string `json:"source" yaml:"source"`

	// Path is where the file was written.
	Path string `json:"path" yaml:"path"`

	// Name is the base file name.
	Name string `json:"name" yaml:"name"`

	Period   string   `json:"period" yaml:"period"`
	DocType  DocType  `json:"doc_type,omitempty" yaml:"doc_type,omitempty"`
	Employee Employee `json:"employee" yaml:"employee"`

	// Pages lists the source pages in output order (ascending).
	Pages []int `json:"pages" yaml:"pages"`

	// Skipped is set when the target already existed and was left untouched.
	Skipped bool `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}
