// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

var nameReplacer = strings.NewReplacer("/", "-", "\\", "-", "\x00", "")

// SafeName strips path separators so a display name can be used as a file name.
func SafeName(s string) string {
	return strings.TrimSpace(nameReplacer.Replace(s))
}

// LocalFileName is the local split naming: "<period> <Full Name>.pdf".
func LocalFileName(period, fullName string) string {
	name := SafeName(fullName) + ".pdf"
	if period == "" {
		return name
	}
	return period + " " + name
}

// ArchiveFileName is the drive naming: "<period>-<doctype>-<Full Name><ext>".
// Without a period the result is "<doctype>-<Full Name><ext>".
func ArchiveFileName(period string, docType DocType, fullName, ext string) string {
	if ext == "" {
		ext = ".pdf"
	}
	name := string(docType) + "-" + SafeName(fullName) + ext
	if period == "" {
		return name
	}
	return period + "-" + name
}
