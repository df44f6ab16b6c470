// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdftext extracts plain text from PDF pages. Text comes from
// ledongthuc/pdf; a page it cannot decode is cut out with pdfcpu into a
// single-page document and read again.
package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func init() {
	api.DisableConfigDir()
}

// ErrOutOfRange is returned for page numbers outside [1, PageCount].
var ErrOutOfRange = errors.New("page out of range")

// Document is an open PDF. PageText is safe for concurrent use: each caller
// borrows a private reader from a small pool.
type Document struct {
	path  string
	f     *os.File
	size  int64
	pages int

	readers chan *pdf.Reader

	fallbackOnce sync.Once
	fallbackMu   sync.Mutex
	fallbackCtx  *model.Context
	fallbackErr  error
}

// Open opens path for text extraction. poolSize bounds the number of idle
// readers kept for reuse (minimum 1).
func Open(path string, poolSize int) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	d := &Document{
		path:    path,
		f:       f,
		size:    info.Size(),
		readers: make(chan *pdf.Reader, max(1, poolSize)),
	}

	r, err := d.newReader()
	if err == nil {
		d.pages = r.NumPage()
		d.release(r)
		return d, nil
	}

	// ledongthuc could not parse the file at all; pdfcpu may still.
	slog.Debug("primary PDF reader failed, using pdfcpu", "path", path, "error", err)
	ctx, ferr := d.fallbackContext()
	if ferr != nil {
		f.Close()
		return nil, fmt.Errorf("reading %s: %w", path, errors.Join(err, ferr))
	}
	d.pages = ctx.PageCount
	return d, nil
}

// Path returns the file the document was opened from.
func (d *Document) Path() string { return d.path }

// PageCount returns the number of pages.
func (d *Document) PageCount() int { return d.pages }

// PageText returns the plain text of page n (1-based).
func (d *Document) PageText(n int) (string, error) {
	if n < 1 || n > d.pages {
		return "", fmt.Errorf("%w: %d not in [1, %d]", ErrOutOfRange, n, d.pages)
	}

	r, err := d.borrow()
	if err == nil {
		text, perr := plainText(r, n)
		d.release(r)
		if perr == nil {
			return text, nil
		}
		err = perr
	}
	slog.Debug("page text failed, retrying as single page", "path", d.path, "page", n, "error", err)

	text, ferr := d.fallbackText(n)
	if ferr != nil {
		return "", errors.Join(err, ferr)
	}
	return text, nil
}

// Close releases the underlying file.
func (d *Document) Close() error {
	return d.f.Close()
}

func (d *Document) newReader() (*pdf.Reader, error) {
	return safeReader(d.f, d.size)
}

func (d *Document) borrow() (*pdf.Reader, error) {
	select {
	case r := <-d.readers:
		return r, nil
	default:
		return d.newReader()
	}
}

func (d *Document) release(r *pdf.Reader) {
	select {
	case d.readers <- r:
	default:
	}
}

func (d *Document) fallbackContext() (*model.Context, error) {
	d.fallbackOnce.Do(func() {
		conf := model.NewDefaultConfiguration()
		conf.ValidationMode = model.ValidationRelaxed
		d.fallbackCtx, d.fallbackErr = api.ReadValidateAndOptimize(io.NewSectionReader(d.f, 0, d.size), conf)
	})
	return d.fallbackCtx, d.fallbackErr
}

func (d *Document) fallbackText(n int) (string, error) {
	ctx, err := d.fallbackContext()
	if err != nil {
		return "", fmt.Errorf("pdfcpu read: %w", err)
	}

	// ExtractPage mutates the shared context.
	d.fallbackMu.Lock()
	page, err := api.ExtractPage(ctx, n)
	var data []byte
	if err == nil {
		data, err = io.ReadAll(page)
	}
	d.fallbackMu.Unlock()
	if err != nil {
		return "", fmt.Errorf("extracting page %d: %w", n, err)
	}

	r, err := safeReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	return plainText(r, 1)
}

// safeReader wraps pdf.NewReader; the library panics on some malformed input.
func safeReader(ra io.ReaderAt, size int64) (r *pdf.Reader, err error) {
	defer func() {
		if p := recover(); p != nil {
			r, err = nil, fmt.Errorf("parsing PDF: %v", p)
		}
	}()
	return pdf.NewReader(ra, size)
}

func plainText(r *pdf.Reader, n int) (text string, err error) {
	defer func() {
		if p := recover(); p != nil {
			text, err = "", fmt.Errorf("decoding page %d: %v", n, p)
		}
	}()
	page := r.Page(n)
	if page.V.IsNull() {
		return "", fmt.Errorf("page %d not found", n)
	}
	return page.GetPlainText(nil)
}
