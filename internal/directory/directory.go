// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package directory loads the canonical employee list. The list is fetched
// once per run and is never reloaded; any failure to obtain a complete list
// is fatal (ErrLoad), because a stale or partial list would silently
// mis-attribute pay data.
package directory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"slices"
	"strings"

	"go.yaml.in/yaml/v3"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/pdiddy/payslip-splitter/internal/httputil"
	"github.com/pdiddy/payslip-splitter/pkg/types"
)

// ErrLoad wraps every failure to produce the employee list.
var ErrLoad = errors.New("loading employee directory")

// maxListSize bounds the employee list download.
const maxListSize = 1 << 20

// Loader supplies the employee list for a run.
type Loader interface {
	Load(ctx context.Context) ([]types.Employee, error)
}

// Static is an in-memory employee list.
type Static []types.Employee

// Load returns a copy of the list.
func (s Static) Load(context.Context) ([]types.Employee, error) {
	return slices.Clone(s), nil
}

// FileLoader reads employees.yaml from disk.
type FileLoader struct {
	Path          string
	IncludeFormer bool
}

// Load reads and parses the file.
func (l FileLoader) Load(context.Context) ([]types.Employee, error) {
	data, err := os.ReadFile(l.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	emps, err := Parse(data, l.IncludeFormer)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoad, l.Path, err)
	}
	return emps, nil
}

// HTTPLoader downloads employees.yaml, retrying throttled and unavailable
// responses.
type HTTPLoader struct {
	Client *http.Client
	Config types.DirectoryConfig
}

// Load fetches and parses the list.
func (l HTTPLoader) Load(ctx context.Context) ([]types.Employee, error) {
	url := l.Config.Source
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %w", ErrLoad, err)
	}
	if l.Config.UserAgent != "" {
		req.Header.Set("User-Agent", l.Config.UserAgent)
	}
	if l.Config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+l.Config.Token)
	}

	client := l.Client
	if client == nil {
		client = &http.Client{Timeout: l.Config.Timeout}
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, l.Config.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching %s: %w", ErrLoad, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d from %s", ErrLoad, resp.StatusCode, url)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxListSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrLoad, url, err)
	}
	if len(data) > maxListSize {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrLoad, url, maxListSize)
	}

	emps, err := Parse(data, l.Config.IncludeFormer)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoad, url, err)
	}
	slog.Info("employee list downloaded", "source", url, "employees", len(emps))
	return emps, nil
}

// FromConfig picks an HTTP loader for http(s) sources and a file loader
// otherwise.
func FromConfig(cfg types.DirectoryConfig, client *http.Client) (Loader, error) {
	src := strings.TrimSpace(cfg.Source)
	switch {
	case src == "":
		return nil, fmt.Errorf("%w: no employee list source configured", ErrLoad)
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		cfg.Source = src
		return HTTPLoader{Client: client, Config: cfg}, nil
	default:
		return FileLoader{Path: src, IncludeFormer: cfg.IncludeFormer}, nil
	}
}

type listFile struct {
	Employees *[]listEntry `yaml:"employees"`
}

type listEntry struct {
	Name            string `yaml:"name"`
	CurrentEmployee *bool  `yaml:"current_employee"`
}

// Parse decodes an employees.yaml document:
//
//	employees:
//	  - name: bernier.antoine
//	    current_employee: true
//
// A missing current_employee means active. Former employees are dropped
// unless includeFormer is set. Entries whose name is not "last.first" are
// skipped with a warning.
func Parse(data []byte, includeFormer bool) ([]types.Employee, error) {
	var doc listFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing employee list: %w", err)
	}
	if doc.Employees == nil {
		return nil, errors.New("invalid employee list: missing employees key")
	}

	emps := make([]types.Employee, 0, len(*doc.Employees))
	for _, entry := range *doc.Employees {
		emp, ok := FormatName(entry.Name)
		if !ok {
			slog.Warn("skipping malformed employee entry", "name", entry.Name)
			continue
		}
		emp.Active = entry.CurrentEmployee == nil || *entry.CurrentEmployee
		if !emp.Active && !includeFormer {
			continue
		}
		emps = append(emps, emp)
	}
	return emps, nil
}

// FormatName turns a "last.first" handle into an Employee with title-cased
// names: "le-goff.yann" becomes LastName "Le-Goff", FullName "Le-Goff Yann".
func FormatName(handle string) (types.Employee, bool) {
	handle = strings.TrimSpace(handle)
	parts := strings.Split(handle, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return types.Employee{}, false
	}

	caser := cases.Title(language.French)
	last := caser.String(parts[0])
	first := caser.String(parts[1])
	return types.Employee{
		Handle:    handle,
		LastName:  last,
		FirstName: first,
		FullName:  last + " " + first,
		Active:    true,
	}, true
}
