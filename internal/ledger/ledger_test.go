// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) (*Ledger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state", "uploads.db")
	l, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l, path
}

func TestRecordAndLookup(t *testing.T) {
	l, _ := openTemp(t)
	ctx := context.Background()

	_, ok, err := l.Lookup(ctx, "folder-1", "a.pdf", "abc")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, l.Record(ctx, Upload{
		Destination: "folder-1", Name: "a.pdf", Checksum: "abc",
		RemoteID: "file-9", WebViewLink: "https://drive.google.com/file/d/file-9/view",
	}))

	u, ok, err := l.Lookup(ctx, "folder-1", "a.pdf", "abc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "file-9", u.RemoteID)
	assert.Equal(t, l.RunID(), u.RunID)
	assert.False(t, u.UploadedAt.IsZero())

	for _, tt := range []struct{ dest, name, sum string }{
		{"folder-2", "a.pdf", "abc"},
		{"folder-1", "b.pdf", "abc"},
		{"folder-1", "a.pdf", "def"},
	} {
		_, ok, err := l.Lookup(ctx, tt.dest, tt.name, tt.sum)
		require.NoError(t, err)
		assert.False(t, ok, "%v", tt)
	}
}

func TestRecordReplaces(t *testing.T) {
	l, _ := openTemp(t)
	ctx := context.Background()
	u := Upload{Destination: "d", Name: "a.pdf", Checksum: "abc", RemoteID: "1"}
	require.NoError(t, l.Record(ctx, u))
	u.RemoteID = "2"
	require.NoError(t, l.Record(ctx, u))

	n, err := l.Count(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	got, _, err := l.Lookup(ctx, "d", "a.pdf", "abc")
	require.NoError(t, err)
	assert.Equal(t, "2", got.RemoteID)
}

func TestPersistsAcrossRuns(t *testing.T) {
	l, path := openTemp(t)
	ctx := context.Background()
	require.NoError(t, l.Record(ctx, Upload{Destination: "d", Name: "a.pdf", Checksum: "abc"}))
	first := l.RunID()
	require.NoError(t, l.Close())

	l2, err := Open(path)
	require.NoError(t, err)
	defer l2.Close()
	assert.NotEqual(t, first, l2.RunID())

	_, ok, err := l2.Lookup(ctx, "d", "a.pdf", "abc")
	require.NoError(t, err)
	assert.True(t, ok)

	n, err := l2.Count(ctx, l2.RunID())
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = l2.Count(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNilLedger(t *testing.T) {
	var l *Ledger
	ctx := context.Background()
	require.NoError(t, l.Record(ctx, Upload{Name: "a.pdf"}))
	_, ok, err := l.Lookup(ctx, "d", "a.pdf", "abc")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, l.Close())
	assert.Empty(t, l.RunID())
}

func TestChecksum(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.pdf")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))
	sum, err := Checksum(path)
	require.NoError(t, err)
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", sum)

	_, err = Checksum(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
