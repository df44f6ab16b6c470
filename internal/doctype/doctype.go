// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package doctype tags a payroll document as a pay slip or a profit-sharing
// (participation) statement from keywords in its folder and file names.
package doctype

import (
	"strings"

	"github.com/pdiddy/payslip-splitter/internal/names"
	"github.com/pdiddy/payslip-splitter/pkg/types"
)

// Sources holds the names inspected by Classify.
type Sources struct {
	Filename         string
	ParentFolderName string
}

var (
	participationKeywords = []string{"participation", "particip", "part"}
	paySlipKeywords       = []string{"fiche", "bulletin", "paie", "salaire", "bp", "salari"}
)

// Classify returns the document type. The parent folder name is inspected
// before the file name; the default is a pay slip. It never fails.
func Classify(src Sources) types.DocType {
	for _, s := range []string{src.ParentFolderName, src.Filename} {
		if t, ok := FromText(s); ok {
			return t
		}
	}
	return types.DocPaySlip
}

// FromText classifies a single name. It reports false when no keyword occurs.
func FromText(s string) (types.DocType, bool) {
	n := names.Normalize(s)
	if n == "" {
		return "", false
	}
	if containsAny(n, participationKeywords) {
		return types.DocParticipation, true
	}
	if containsAny(n, paySlipKeywords) {
		return types.DocPaySlip, true
	}
	return "", false
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
