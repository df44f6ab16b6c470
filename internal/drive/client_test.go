// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

type fakeFile struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size,string,omitempty"`
	Link     string `json:"webViewLink,omitempty"`

	parent  string
	content string
}

// fakeDrive serves the subset of the Drive v3 REST API the client uses.
type fakeDrive struct {
	mu       sync.Mutex
	files    map[string]*fakeFile
	pageSize int
	lists    int
	uploads  []*fakeFile
}

var parentQuery = regexp.MustCompile(`'([^']+)' in parents`)

func (d *fakeDrive) add(f *fakeFile) {
	if d.files == nil {
		d.files = make(map[string]*fakeFile)
	}
	f.Size = int64(len(f.content))
	d.files[f.ID] = f
}

func (d *fakeDrive) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && strings.Contains(r.URL.Path, "/upload/"):
		d.upload(w, r)
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/files"):
		d.list(w, r)
	case r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/files/"):
		id := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		f, ok := d.files[id]
		if !ok {
			http.Error(w, `{"error":{"code":404,"message":"File not found"}}`, http.StatusNotFound)
			return
		}
		if r.URL.Query().Get("alt") == "media" {
			io.WriteString(w, f.content)
			return
		}
		json.NewEncoder(w).Encode(f)
	default:
		http.Error(w, "unexpected request "+r.Method+" "+r.URL.Path, http.StatusBadRequest)
	}
}

func (d *fakeDrive) list(w http.ResponseWriter, r *http.Request) {
	d.lists++
	m := parentQuery.FindStringSubmatch(r.URL.Query().Get("q"))
	if m == nil {
		http.Error(w, "missing parent query", http.StatusBadRequest)
		return
	}
	var children []*fakeFile
	for _, f := range d.files {
		if f.parent == m[1] {
			children = append(children, f)
		}
	}
	sortFiles(children)

	start := 0
	if tok := r.URL.Query().Get("pageToken"); tok != "" {
		fmt.Sscanf(tok, "offset-%d", &start)
	}
	end := len(children)
	next := ""
	if d.pageSize > 0 && start+d.pageSize < end {
		end = start + d.pageSize
		next = fmt.Sprintf("offset-%d", end)
	}
	json.NewEncoder(w).Encode(map[string]any{
		"files":         children[start:end],
		"nextPageToken": next,
	})
}

func (d *fakeDrive) upload(w http.ResponseWriter, r *http.Request) {
	_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	mr := multipart.NewReader(r.Body, params["boundary"])

	var meta struct {
		Name    string   `json:"name"`
		Parents []string `json:"parents"`
	}
	part, err := mr.NextPart()
	if err == nil {
		err = json.NewDecoder(part).Decode(&meta)
	}
	if err != nil {
		http.Error(w, "bad metadata part", http.StatusBadRequest)
		return
	}
	part, err = mr.NextPart()
	if err != nil {
		http.Error(w, "missing media part", http.StatusBadRequest)
		return
	}
	content, _ := io.ReadAll(part)

	f := &fakeFile{
		ID:       fmt.Sprintf("up-%d", len(d.uploads)+1),
		Name:     meta.Name,
		MimeType: MimePDF,
		content:  string(content),
	}
	f.Link = "https://drive.google.com/file/d/" + f.ID + "/view"
	if len(meta.Parents) > 0 {
		f.parent = meta.Parents[0]
	}
	d.add(f)
	d.uploads = append(d.uploads, f)
	json.NewEncoder(w).Encode(f)
}

func sortFiles(fs []*fakeFile) {
	for i := 1; i < len(fs); i++ {
		for j := i; j > 0 && fs[j].Name < fs[j-1].Name; j-- {
			fs[j], fs[j-1] = fs[j-1], fs[j]
		}
	}
}

func newFakeClient(t *testing.T, d *fakeDrive) *Client {
	t.Helper()
	ts := httptest.NewServer(d)
	t.Cleanup(ts.Close)
	c, err := NewClient(context.Background(), ts.Client(), 1000, option.WithEndpoint(ts.URL+"/"))
	require.NoError(t, err)
	return c
}

func sampleDrive() *fakeDrive {
	d := &fakeDrive{}
	d.add(&fakeFile{ID: "root", Name: "Paie", MimeType: MimeFolder})
	d.add(&fakeFile{ID: "f2307", Name: "2023-07", MimeType: MimeFolder, parent: "root"})
	d.add(&fakeFile{ID: "fpart", Name: "Participation 2023", MimeType: MimeFolder, parent: "root"})
	d.add(&fakeFile{ID: "p1", Name: "BERNIER Antoine.pdf", MimeType: MimePDF, parent: "f2307", content: "%PDF-a"})
	d.add(&fakeFile{ID: "p2", Name: "MADURA Quentin.pdf", MimeType: MimePDF, parent: "f2307", content: "%PDF-b"})
	d.add(&fakeFile{ID: "doc", Name: "Bernier notes", MimeType: "application/vnd.google-apps.document", parent: "f2307"})
	d.add(&fakeFile{ID: "p3", Name: "Bernier.pdf", MimeType: MimePDF, parent: "fpart", content: "%PDF-c"})
	return d
}

func TestClientFolder(t *testing.T) {
	c := newFakeClient(t, sampleDrive())

	f, err := c.Folder(context.Background(), "root")
	require.NoError(t, err)
	assert.Equal(t, "Paie", f.Name)

	_, err = c.Folder(context.Background(), "p1")
	assert.ErrorIs(t, err, ErrNotFolder)

	_, err = c.Folder(context.Background(), "nope")
	assert.Error(t, err)
}

func TestClientListPaginates(t *testing.T) {
	d := sampleDrive()
	d.pageSize = 1
	c := newFakeClient(t, d)

	entries, err := c.List(context.Background(), "f2307")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, 3, d.lists)
	assert.Equal(t, int64(6), entries[0].Size)
}

func TestClientCollectAndDownload(t *testing.T) {
	c := newFakeClient(t, sampleDrive())

	found, err := Collect(context.Background(), c, "root", "bernier")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "BERNIER Antoine.pdf", found[0].Name)
	assert.Equal(t, "2023-07-fiche-de-paie-Bernier Antoine.pdf", found[0].ArchiveName("Bernier Antoine"))
	assert.Equal(t, "2023-participation-Bernier Antoine.pdf", found[1].ArchiveName("Bernier Antoine"))

	var buf bytes.Buffer
	require.NoError(t, c.Download(context.Background(), "p1", &buf))
	assert.Equal(t, "%PDF-a", buf.String())
}

func TestClientUpload(t *testing.T) {
	d := sampleDrive()
	c := newFakeClient(t, d)

	e, err := c.Upload(context.Background(), "f2307", "2023-07-fiche-de-paie-Bernier Antoine.pdf", strings.NewReader("%PDF-new"))
	require.NoError(t, err)
	assert.Equal(t, "up-1", e.ID)
	assert.Contains(t, e.WebViewLink, "up-1")

	require.Len(t, d.uploads, 1)
	assert.Equal(t, "f2307", d.uploads[0].parent)
	assert.Equal(t, "%PDF-new", d.uploads[0].content)
}

func TestClientCancelled(t *testing.T) {
	c := newFakeClient(t, sampleDrive())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.List(ctx, "root")
	assert.Error(t, err)
}
