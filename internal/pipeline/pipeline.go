// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs the download, split and upload stages over one
// employee directory. The split, download and process commands are the same
// Run call with different stages enabled.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/payslip-splitter/internal/assign"
	"github.com/pdiddy/payslip-splitter/internal/directory"
	"github.com/pdiddy/payslip-splitter/internal/doctype"
	"github.com/pdiddy/payslip-splitter/internal/drive"
	"github.com/pdiddy/payslip-splitter/internal/ledger"
	"github.com/pdiddy/payslip-splitter/internal/pdftext"
	"github.com/pdiddy/payslip-splitter/internal/period"
	"github.com/pdiddy/payslip-splitter/internal/split"
	"github.com/pdiddy/payslip-splitter/pkg/types"
)

var (
	// ErrInputNotFound marks an input PDF that does not exist.
	ErrInputNotFound = errors.New("input not found")

	// ErrNoPeriod marks an input whose pay period could not be determined.
	ErrNoPeriod = errors.New("no pay period found")
)

const (
	// periodScanPages bounds the pages searched for a pay-period line.
	periodScanPages = 5

	suggestions = 3
)

// Naming selects the output file naming scheme.
type Naming int

const (
	// NamingLocal is "<period> <Full Name>.pdf".
	NamingLocal Naming = iota
	// NamingArchive is "<period>-<doctype>-<Full Name>.pdf".
	NamingArchive
)

// Input is one PDF to split.
type Input struct {
	Path string

	// FolderName is consulted first for the period; empty means the name
	// of the directory holding Path.
	FolderName string

	// DocType overrides classification from the names when set.
	DocType types.DocType
}

// Download fetches PDFs from a tree before splitting.
type Download struct {
	Tree     drive.Tree
	FolderID string

	// Filter keeps files whose name contains it; empty keeps every PDF.
	Filter string

	Dir string

	// Clean empties Dir first.
	Clean bool

	// Rename names files "<period>-<doctype>-<Full Name>" after the
	// employee Filter resolves to.
	Rename bool
}

// Upload sends split outputs to a tree folder.
type Upload struct {
	Tree     drive.Tree
	FolderID string

	// Ledger skips files already uploaded; nil disables it.
	Ledger *ledger.Ledger
}

// Plan selects the stages of one run.
type Plan struct {
	Inputs   []Input
	Download *Download
	Split    bool
	Naming   Naming
	Upload   *Upload
}

// SplitPlan splits local files with local naming.
func SplitPlan(paths ...string) Plan {
	inputs := make([]Input, len(paths))
	for i, p := range paths {
		inputs[i] = Input{Path: p}
	}
	return Plan{Inputs: inputs, Split: true, Naming: NamingLocal}
}

// DownloadPlan fetches one employee's files into dir, renamed.
func DownloadPlan(tree drive.Tree, folderID, employee, dir string) Plan {
	return Plan{Download: &Download{
		Tree:     tree,
		FolderID: folderID,
		Filter:   employee,
		Dir:      dir,
		Clean:    true,
		Rename:   true,
	}}
}

// ProcessPlan downloads, splits with archive naming, and uploads.
func ProcessPlan(src drive.Tree, srcFolder, filter, inputDir string, dst drive.Tree, dstFolder string, l *ledger.Ledger) Plan {
	return Plan{
		Download: &Download{Tree: src, FolderID: srcFolder, Filter: filter, Dir: inputDir},
		Split:    true,
		Naming:   NamingArchive,
		Upload:   &Upload{Tree: dst, FolderID: dstFolder, Ledger: l},
	}
}

// Report counts what one run did.
type Report struct {
	Employees int

	Downloaded     int
	DownloadFailed int

	Inputs      int
	InputFailed int
	NoPeriod    int
	Unmatched   int

	Created int
	Skipped int

	Uploaded      int
	UploadSkipped int
	UploadFailed  int
	UploadedLinks []string

	Outputs  []types.OutputFile
	Warnings []string
}

// HasFailures reports whether any input, download or upload failed.
func (r Report) HasFailures() bool {
	return r.DownloadFailed > 0 || r.InputFailed > 0 || r.UploadFailed > 0
}

// Failures returns the number of failed items across stages.
func (r Report) Failures() int {
	return r.DownloadFailed + r.InputFailed + r.UploadFailed
}

// Runner executes plans.
type Runner struct {
	Directory directory.Loader
	Config    types.SplitConfig

	// Out receives progress lines; nil discards them.
	Out io.Writer
}

// Run loads the employee directory and executes the plan's stages in order.
// A directory failure is returned before anything is written. Per-input
// failures are counted in the report and the batch continues.
func (r *Runner) Run(ctx context.Context, plan Plan) (Report, error) {
	var rep Report
	w := r.out()

	emps, err := r.Directory.Load(ctx)
	if err != nil {
		return rep, err
	}
	rep.Employees = len(emps)
	fmt.Fprintf(w, "employees: %d loaded\n", len(emps))

	inputs := plan.Inputs
	if plan.Download != nil {
		got, err := r.download(ctx, emps, *plan.Download, &rep)
		if err != nil {
			return rep, err
		}
		inputs = append(inputs, got...)
	}

	if plan.Split {
		for _, in := range inputs {
			if err := ctx.Err(); err != nil {
				return rep, err
			}
			rep.Inputs++
			outs, err := r.splitInput(ctx, in, emps, plan.Naming, &rep)
			switch {
			case errors.Is(err, ErrNoPeriod):
				fmt.Fprintf(w, "  warning: %v\n", err)
				rep.Warnings = append(rep.Warnings, err.Error())
				rep.NoPeriod++
			case err != nil:
				fmt.Fprintf(w, "failed:  %s (%v)\n", in.Path, err)
				rep.InputFailed++
			}
			rep.Outputs = append(rep.Outputs, outs...)
		}
		fmt.Fprintf(w, "\nSplit summary: %d created, %d skipped, %d input(s) failed (inputs: %d)\n",
			rep.Created, rep.Skipped, rep.InputFailed, rep.Inputs)
	}

	if plan.Upload != nil {
		r.upload(ctx, *plan.Upload, rep.Outputs, &rep)
	}

	if r.Config.Manifest != "" && len(rep.Outputs) > 0 {
		if err := split.WriteManifest(r.Config.Manifest, rep.Outputs); err != nil {
			return rep, err
		}
		fmt.Fprintf(w, "manifest: %s\n", r.Config.Manifest)
	}
	return rep, nil
}

func (r *Runner) out() io.Writer {
	if r.Out == nil {
		return io.Discard
	}
	return r.Out
}

func (r *Runner) download(ctx context.Context, emps []types.Employee, d Download, rep *Report) ([]Input, error) {
	w := r.out()

	var rename func(drive.Found) string
	if d.Rename {
		fullName := d.Filter
		if emp, ok := directory.Resolve(emps, d.Filter); ok {
			fullName = emp.FullName
		} else {
			msg := fmt.Sprintf("no employee matches %q, files keep the filter as name", d.Filter)
			if s := directory.Suggest(emps, d.Filter, suggestions); len(s) > 0 {
				msg += fmt.Sprintf(" (did you mean: %s?)", strings.Join(s, ", "))
			}
			fmt.Fprintf(w, "  warning: %s\n", msg)
			rep.Warnings = append(rep.Warnings, msg)
		}
		fmt.Fprintf(w, "employee: %s\n", fullName)
		rename = func(f drive.Found) string { return f.ArchiveName(fullName) }
	}

	if d.Clean {
		if err := drive.CleanDir(d.Dir); err != nil {
			return nil, fmt.Errorf("cleaning %s: %w", d.Dir, err)
		}
	}

	found, err := drive.Collect(ctx, d.Tree, d.FolderID, d.Filter)
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", d.FolderID, err)
	}
	fmt.Fprintf(w, "found: %d PDF(s) in %s\n", len(found), d.FolderID)

	got, res := drive.Fetch(ctx, d.Tree, found, d.Dir, rename, w)
	rep.Downloaded += res.Done
	rep.DownloadFailed += res.Failed

	inputs := make([]Input, len(got))
	for i, g := range got {
		inputs[i] = Input{Path: g.Path, FolderName: g.PeriodFolder, DocType: g.DocType}
	}
	return inputs, nil
}

func (r *Runner) splitInput(ctx context.Context, in Input, emps []types.Employee, naming Naming, rep *Report) ([]types.OutputFile, error) {
	w := r.out()
	base := filepath.Base(in.Path)

	if _, err := os.Stat(in.Path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, in.Path)
		}
		return nil, fmt.Errorf("reading %s: %w", in.Path, err)
	}

	fmt.Fprintf(w, "processing: %s\n", in.Path)
	doc, err := pdftext.Open(in.Path, r.Config.Workers)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	texts, err := assign.ExtractTexts(ctx, doc, r.Config.Workers)
	if err != nil {
		return nil, fmt.Errorf("extracting text from %s %w", base, err)
	}

	folder := in.FolderName
	if folder == "" {
		folder = filepath.Base(filepath.Dir(in.Path))
	}
	p, ok := period.Extract(period.Sources{
		PageText:         strings.Join(texts[:min(periodScanPages, len(texts))], "\n"),
		Filename:         base,
		ParentFolderName: folder,
	})
	if !ok {
		if r.Config.DefaultPeriod == "" {
			return nil, fmt.Errorf("%s: %w (use --period)", in.Path, ErrNoPeriod)
		}
		p = r.Config.DefaultPeriod
	}

	dt := in.DocType
	if dt == "" {
		dt = doctype.Classify(doctype.Sources{Filename: base, ParentFolderName: folder})
	}

	matches := assign.Match(texts, emps, assign.Options{
		Workers:          r.Config.Workers,
		RequireFirstName: r.Config.RequireFirstName,
	})
	if len(matches) == 0 {
		fmt.Fprintf(w, "  no employee found in %s\n", base)
		rep.Unmatched++
		return nil, nil
	}

	namer := split.LocalNamer(p)
	if naming == NamingArchive {
		namer = split.ArchiveNamer(p, dt)
	}
	s := split.Splitter{OutputDir: r.Config.OutputDir, Overwrite: r.Config.Overwrite, Out: w}
	res, err := s.Split(ctx, in.Path, matches, namer)
	rep.Created += res.Created
	rep.Skipped += res.Skipped
	rep.Warnings = append(rep.Warnings, res.Warnings...)
	for i := range res.Outputs {
		res.Outputs[i].Period = p
		res.Outputs[i].DocType = dt
	}
	if err != nil {
		return res.Outputs, fmt.Errorf("splitting %s: %w", base, err)
	}
	return res.Outputs, nil
}

func (r *Runner) upload(ctx context.Context, u Upload, outputs []types.OutputFile, rep *Report) {
	w := r.out()
	for _, o := range outputs {
		if err := ctx.Err(); err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", o.Name, err)
			rep.UploadFailed++
			continue
		}
		if err := r.uploadOne(ctx, u, o, rep); err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", o.Name, err)
			rep.UploadFailed++
		}
	}
	fmt.Fprintf(w, "\nUpload summary: %d uploaded, %d skipped, %d failed (total: %d)\n",
		rep.Uploaded, rep.UploadSkipped, rep.UploadFailed, rep.Uploaded+rep.UploadSkipped+rep.UploadFailed)
}

func (r *Runner) uploadOne(ctx context.Context, u Upload, o types.OutputFile, rep *Report) error {
	w := r.out()
	sum, err := ledger.Checksum(o.Path)
	if err != nil {
		return err
	}
	if prev, ok, err := u.Ledger.Lookup(ctx, u.FolderID, o.Name, sum); err != nil {
		return err
	} else if ok {
		fmt.Fprintf(w, "skipped: %s (already uploaded)\n", o.Name)
		rep.UploadSkipped++
		if prev.WebViewLink != "" {
			rep.UploadedLinks = append(rep.UploadedLinks, prev.WebViewLink)
		}
		return nil
	}

	f, err := os.Open(o.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	e, err := u.Tree.Upload(ctx, u.FolderID, o.Name, f)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "uploaded: %s (%s)\n", o.Name, e.WebViewLink)
	rep.Uploaded++
	rep.UploadedLinks = append(rep.UploadedLinks, e.WebViewLink)

	err = u.Ledger.Record(ctx, ledger.Upload{
		Destination: u.FolderID,
		Name:        o.Name,
		Checksum:    sum,
		RemoteID:    e.ID,
		WebViewLink: e.WebViewLink,
	})
	if err != nil {
		slog.Warn("upload not recorded", "file", o.Name, "error", err)
	}
	return nil
}
