// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package period derives the payroll period ("YYYY-MM" or "YYYY") of a
// document from its parent folder name, its file name, or its page text.
package period

import (
	"regexp"
	"strconv"
	"strings"
)

// Sources holds the candidate inputs for period extraction. Empty fields are
// ignored.
type Sources struct {
	PageText         string
	Filename         string
	ParentFolderName string
}

var (
	yearMonthRe = regexp.MustCompile(`(\d{4})[-_](\d{2})`)
	monthYearRe = regexp.MustCompile(`(\d{2})[-_](\d{4})`)
	compactRe   = regexp.MustCompile(`(\d{4})(\d{2})(?:\D|$)`)
	bareYearRe  = regexp.MustCompile(`(?:^|\D)(\d{4})(?:\D|$)`)
	payPeriodRe = regexp.MustCompile(`(?i)p(?:é|e\x{0301}|e)riode\s*de\s*paie\s*:\s*du\s*(\d{2})/(\d{2})/(\d{4})`)
)

const (
	minBareYear = 2000
	maxBareYear = 2099
)

// Extract returns the period of a document. The parent folder name wins over
// the file name, which wins over the page text. It reports false when no
// source yields a period; callers then fall back to their own default.
func Extract(src Sources) (string, bool) {
	if p, ok := FromName(src.ParentFolderName); ok {
		return p, true
	}
	if p, ok := FromName(src.Filename); ok {
		return p, true
	}
	return FromPageText(src.PageText)
}

// FromName extracts a period from a file or folder name. Patterns are tried
// in order: YYYY-MM / YYYY_MM, MM-YYYY / MM_YYYY, YYYYMM, then a bare YYYY
// between 2000 and 2099.
func FromName(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	for _, m := range yearMonthRe.FindAllStringSubmatch(name, -1) {
		if validMonth(m[2]) {
			return m[1] + "-" + m[2], true
		}
	}
	for _, m := range monthYearRe.FindAllStringSubmatch(name, -1) {
		if validMonth(m[1]) {
			return m[2] + "-" + m[1], true
		}
	}
	for _, m := range compactRe.FindAllStringSubmatch(name, -1) {
		if validMonth(m[2]) {
			return m[1] + "-" + m[2], true
		}
	}
	for _, m := range bareYearRe.FindAllStringSubmatch(name, -1) {
		y, _ := strconv.Atoi(m[1])
		if y >= minBareYear && y <= maxBareYear {
			return m[1], true
		}
	}
	return "", false
}

// FromPageText looks for "Période de paie : du DD/MM/YYYY" and returns YYYY-MM.
func FromPageText(text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	for _, m := range payPeriodRe.FindAllStringSubmatch(text, -1) {
		if validMonth(m[2]) {
			return m[3] + "-" + m[2], true
		}
	}
	return "", false
}

// Valid reports whether p has the shape of a period.
func Valid(p string) bool {
	switch len(p) {
	case 4:
		return allDigits(p)
	case 7:
		return allDigits(p[:4]) && p[4] == '-' && validMonth(p[5:])
	}
	return false
}

func validMonth(s string) bool {
	m, err := strconv.Atoi(s)
	return err == nil && len(s) == 2 && m >= 1 && m <= 12
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
