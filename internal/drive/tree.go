// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package drive reads and writes pay-slip PDFs in a folder tree: Google
// Drive for the archive, or a local directory standing in for it.
package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/pdiddy/payslip-splitter/internal/doctype"
	"github.com/pdiddy/payslip-splitter/internal/names"
	"github.com/pdiddy/payslip-splitter/internal/period"
	"github.com/pdiddy/payslip-splitter/pkg/types"
)

const (
	MimeFolder = "application/vnd.google-apps.folder"
	MimePDF    = "application/pdf"

	workspacePrefix = "application/vnd.google-apps."
)

// ErrNotFolder is returned when an id does not name a folder.
var ErrNotFolder = errors.New("not a folder")

// Entry is one item of a folder listing.
type Entry struct {
	ID          string
	Name        string
	MimeType    string
	Size        int64
	WebViewLink string
}

// IsFolder reports whether the entry is a folder.
func (e Entry) IsFolder() bool { return e.MimeType == MimeFolder }

// IsPDF reports whether the entry is a downloadable PDF. Google Workspace
// documents are never PDFs even when named like one.
func (e Entry) IsPDF() bool {
	if strings.HasPrefix(e.MimeType, workspacePrefix) {
		return false
	}
	return e.MimeType == MimePDF || strings.EqualFold(path.Ext(e.Name), ".pdf")
}

// Tree is a folder hierarchy of files addressed by id.
type Tree interface {
	// Folder returns the folder named by id.
	Folder(ctx context.Context, id string) (Entry, error)

	// List returns the direct children of a folder.
	List(ctx context.Context, folderID string) ([]Entry, error)

	// Download copies the content of a file to w.
	Download(ctx context.Context, id string, w io.Writer) error

	// Upload creates name in the folder and returns the created entry.
	Upload(ctx context.Context, folderID, name string, r io.Reader) (Entry, error)
}

// Found is a PDF located by Collect, with what its ancestors say about it.
type Found struct {
	Entry

	// Dir is the slash-separated folder path below the search root.
	Dir string

	// PeriodFolder is the nearest ancestor whose name carries a period, or
	// the direct parent when none does.
	PeriodFolder string

	// DocType is inherited from the nearest ancestor naming a document
	// type; empty when none does.
	DocType types.DocType
}

// Period returns the folder period, falling back to the file name.
func (f Found) Period() (string, bool) {
	return period.Extract(period.Sources{ParentFolderName: f.PeriodFolder, Filename: f.Name})
}

// Kind returns the inherited document type, else the file name's.
func (f Found) Kind() types.DocType {
	if f.DocType != "" {
		return f.DocType
	}
	return doctype.Classify(doctype.Sources{Filename: f.Name})
}

// ArchiveName is the renamed file name for fullName:
// "<period>-<doctype>-<Full Name><ext>".
func (f Found) ArchiveName(fullName string) string {
	p, _ := f.Period()
	ext := strings.ToLower(path.Ext(f.Name))
	return types.ArchiveFileName(p, f.Kind(), fullName, ext)
}

type walkState struct {
	dir          string
	periodFolder string
	docType      types.DocType
}

// Collect walks the tree below rootID and returns every PDF whose name
// contains filter (through names.Contains). An empty filter keeps every PDF.
// Files are returned in walk order: a folder's files before its subfolders.
func Collect(ctx context.Context, t Tree, rootID, filter string) ([]Found, error) {
	root, err := t.Folder(ctx, rootID)
	if err != nil {
		return nil, fmt.Errorf("opening folder %s: %w", rootID, err)
	}
	st := descend(walkState{}, root.Name)
	st.dir = ""

	var out []Found
	if err := collect(ctx, t, root, st, filter, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func collect(ctx context.Context, t Tree, folder Entry, st walkState, filter string, out *[]Found) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entries, err := t.List(ctx, folder.ID)
	if err != nil {
		return fmt.Errorf("listing folder %s: %w", folder.Name, err)
	}

	var subfolders []Entry
	for _, e := range entries {
		switch {
		case e.IsFolder():
			subfolders = append(subfolders, e)
		case !e.IsPDF():
			slog.Debug("skipping non-PDF", "name", e.Name, "mime", e.MimeType)
		case filter != "" && !names.Contains(e.Name, filter):
		default:
			*out = append(*out, Found{
				Entry:        e,
				Dir:          st.dir,
				PeriodFolder: st.periodFolder,
				DocType:      st.docType,
			})
		}
	}

	for _, sub := range subfolders {
		next := descend(st, sub.Name)
		next.dir = path.Join(st.dir, sub.Name)
		if err := collect(ctx, t, sub, next, filter, out); err != nil {
			return err
		}
	}
	return nil
}

// descend returns the state for a child folder named name.
func descend(st walkState, name string) walkState {
	next := st
	if _, ok := period.FromName(name); ok {
		next.periodFolder = name
	} else if st.periodFolder == "" || !hasPeriod(st.periodFolder) {
		next.periodFolder = name
	}
	if dt, ok := doctype.FromText(name); ok {
		next.docType = dt
	}
	return next
}

func hasPeriod(name string) bool {
	_, ok := period.FromName(name)
	return ok
}
