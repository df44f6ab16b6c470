// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package directory

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/payslip-splitter/internal/httputil"
	"github.com/pdiddy/payslip-splitter/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

const sampleList = `employees:
  - name: bernier.antoine
    current_employee: true
  - name: madura.quentin
  - name: legeron.zoe
    current_employee: false
  - name: not-a-handle
  - name: le-goff.yann
`

func TestParse(t *testing.T) {
	emps, err := Parse([]byte(sampleList), false)
	require.NoError(t, err)

	var full []string
	for _, e := range emps {
		full = append(full, e.FullName)
	}
	assert.Equal(t, []string{"Bernier Antoine", "Madura Quentin", "Le-Goff Yann"}, full)
	assert.Equal(t, "Bernier", emps[0].LastName)
	assert.Equal(t, "Antoine", emps[0].FirstName)
	assert.Equal(t, "bernier.antoine", emps[0].Handle)
	assert.True(t, emps[1].Active, "missing current_employee means active")
}

func TestParseIncludeFormer(t *testing.T) {
	emps, err := Parse([]byte(sampleList), true)
	require.NoError(t, err)
	require.Len(t, emps, 4)
	assert.Equal(t, "Legeron Zoe", emps[2].FullName)
	assert.False(t, emps[2].Active)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing key", "staff:\n  - name: a.b\n"},
		{"null employees", "employees:\n"},
		{"not yaml", "employees: [unclosed"},
		{"empty document", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), false)
			assert.Error(t, err)
		})
	}
}

func TestParseEmptyList(t *testing.T) {
	emps, err := Parse([]byte("employees: []\n"), false)
	require.NoError(t, err)
	assert.Empty(t, emps)
}

func TestFormatName(t *testing.T) {
	tests := []struct {
		handle string
		want   string
		ok     bool
	}{
		{"bernier.antoine", "Bernier Antoine", true},
		{"LEGERON.zoé", "Legeron Zoé", true},
		{"le-goff.yann", "Le-Goff Yann", true},
		{"solo", "", false},
		{"a.b.c", "", false},
		{".first", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.handle, func(t *testing.T) {
			got, ok := FormatName(tt.handle)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got.FullName)
		})
	}
}

func TestHTTPLoader(t *testing.T) {
	var gotAuth, gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotUA = r.Header.Get("User-Agent")
		fmt.Fprint(w, sampleList)
	}))
	defer ts.Close()

	l := HTTPLoader{Client: ts.Client(), Config: types.DirectoryConfig{
		HTTPConfig: types.HTTPConfig{UserAgent: "payslip-splitter/test"},
		Source:     ts.URL + "/employees.yaml",
		Token:      "ghp_test",
	}}
	emps, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, emps, 3)
	assert.Equal(t, "Bearer ghp_test", gotAuth)
	assert.Equal(t, "payslip-splitter/test", gotUA)
}

func TestHTTPLoaderRetriesThrottling(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, sampleList)
	}))
	defer ts.Close()

	l := HTTPLoader{Client: ts.Client(), Config: types.DirectoryConfig{Source: ts.URL}}
	emps, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, emps, 3)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestHTTPLoaderFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"not found", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNotFound) }},
		{"server error", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusInternalServerError) }},
		{"invalid body", func(w http.ResponseWriter, _ *http.Request) { fmt.Fprint(w, "<html>login</html>") }},
		{"oversized list", func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprintln(w, "employees:")
			for i := 0; i < maxListSize/20; i++ {
				fmt.Fprintf(w, "  - name: nom%06d.prenom\n", i)
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(tt.handler)
			defer ts.Close()

			l := HTTPLoader{Client: ts.Client(), Config: types.DirectoryConfig{Source: ts.URL}}
			_, err := l.Load(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrLoad)
		})
	}
}

func TestHTTPLoaderUnreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	l := HTTPLoader{Config: types.DirectoryConfig{Source: url, HTTPConfig: types.HTTPConfig{Timeout: time.Second}}}
	_, err := l.Load(context.Background())
	assert.ErrorIs(t, err, ErrLoad)
}

func TestFileLoader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "employees.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleList), 0o644))

	emps, err := FileLoader{Path: path}.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, emps, 3)

	_, err = FileLoader{Path: filepath.Join(t.TempDir(), "missing.yaml")}.Load(context.Background())
	assert.ErrorIs(t, err, ErrLoad)
}

func TestFromConfig(t *testing.T) {
	l, err := FromConfig(types.DirectoryConfig{Source: "https://example.com/employees.yaml"}, nil)
	require.NoError(t, err)
	assert.IsType(t, HTTPLoader{}, l)

	l, err = FromConfig(types.DirectoryConfig{Source: "../employees.yaml"}, nil)
	require.NoError(t, err)
	assert.IsType(t, FileLoader{}, l)

	_, err = FromConfig(types.DirectoryConfig{}, nil)
	assert.ErrorIs(t, err, ErrLoad)
}

func TestStaticReturnsCopy(t *testing.T) {
	s := Static{{LastName: "Bernier", FullName: "Bernier Antoine"}}
	emps, err := s.Load(context.Background())
	require.NoError(t, err)
	emps[0].FullName = "changed"
	assert.Equal(t, "Bernier Antoine", s[0].FullName)
}
