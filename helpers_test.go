// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package unarchive_test

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"

	unarchive "github.com/hashicorp/go-unarchive"
)

// archiveContent describes one entry of a generated test archive. Filetype
// uses the tar type flags, also for zip archives.
type archiveContent struct {
	Name       string
	Content    []byte
	Mode       fs.FileMode
	Filetype   byte
	Linktarget string
	ModTime    time.Time
}

// projectContent is a typical source release with one enclosing directory.
func projectContent() []archiveContent {
	return []archiveContent{
		{Name: "project-1.0/", Mode: 0755, Filetype: tar.TypeDir},
		{Name: "project-1.0/README.md", Content: []byte("hello\n"), Mode: 0644, Filetype: tar.TypeReg},
		{Name: "project-1.0/src/", Mode: 0755, Filetype: tar.TypeDir},
		{Name: "project-1.0/src/main.go", Content: []byte("package main\n"), Mode: 0644, Filetype: tar.TypeReg},
	}
}

// packTar creates a tar archive with the given content
func packTar(t *testing.T, content []archiveContent) []byte {
	t.Helper()

	buf := bytes.NewBuffer([]byte{})
	tw := tar.NewWriter(buf)
	for _, c := range content {
		hdr := &tar.Header{
			Name:     c.Name,
			Mode:     int64(c.Mode.Perm()),
			Size:     int64(len(c.Content)),
			Linkname: c.Linktarget,
			Typeflag: c.Filetype,
			ModTime:  c.ModTime,
		}
		if c.Filetype != tar.TypeReg {
			hdr.Size = 0
		}
		require.NoError(t, tw.WriteHeader(hdr), "error writing tar header")
		if hdr.Size > 0 {
			_, err := tw.Write(c.Content)
			require.NoError(t, err, "error writing tar data")
		}
	}
	require.NoError(t, tw.Close(), "error closing tar writer")
	return buf.Bytes()
}

// packZip creates a zip archive with the given content. Symlinks store their
// target as content.
func packZip(t *testing.T, content []archiveContent) []byte {
	t.Helper()

	buf := bytes.NewBuffer([]byte{})
	zw := zip.NewWriter(buf)
	for _, c := range content {
		hdr := &zip.FileHeader{
			Name:     c.Name,
			Method:   zip.Deflate,
			Modified: c.ModTime,
		}
		data := c.Content
		switch c.Filetype {
		case tar.TypeDir:
			hdr.SetMode(fs.ModeDir | c.Mode.Perm())
			hdr.Method = zip.Store
			data = nil
		case tar.TypeSymlink:
			hdr.SetMode(fs.ModeSymlink | 0777)
			data = []byte(c.Linktarget)
		default:
			hdr.SetMode(c.Mode.Perm())
		}

		w, err := zw.CreateHeader(hdr)
		require.NoError(t, err, "error writing zip header")
		_, err = w.Write(data)
		require.NoError(t, err, "error writing zip data")
	}
	require.NoError(t, zw.Close(), "error closing zip writer")
	return buf.Bytes()
}

// compress compresses a tar stream for the tar based format f.
func compress(t *testing.T, f unarchive.ArchiveFormat, data []byte) []byte {
	t.Helper()

	buf := bytes.NewBuffer([]byte{})
	var w io.WriteCloser
	var err error
	switch f {
	case unarchive.FormatTar:
		return data
	case unarchive.FormatTarGz:
		w = gzip.NewWriter(buf)
	case unarchive.FormatTarZst:
		w, err = zstd.NewWriter(buf)
	case unarchive.FormatTarXz:
		w, err = xz.NewWriter(buf)
	case unarchive.FormatTarLzma:
		w, err = lzma.NewWriter(buf)
	default:
		t.Fatalf("no test compressor for %s", f)
	}
	require.NoError(t, err)

	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

// writeArchive writes data as dir/name and returns the path.
func writeArchive(t *testing.T, dir string, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

// readFile returns the content of path as string.
func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

// projectTarGz writes the project content as tar.gz into a new temp dir.
func projectTarGz(t *testing.T) string {
	t.Helper()
	return writeArchive(t, t.TempDir(), "project-1.0.tar.gz", compress(t, unarchive.FormatTarGz, packTar(t, projectContent())))
}

// assertProjectStripped checks the project content below dst without the
// enclosing directory and that no scratch directory is left.
func assertProjectStripped(t *testing.T, dst string) {
	t.Helper()
	require.Equal(t, "hello\n", readFile(t, filepath.Join(dst, "README.md")))
	require.Equal(t, "package main\n", readFile(t, filepath.Join(dst, "src", "main.go")))

	entries, err := os.ReadDir(dst)
	require.NoError(t, err)
	names := []string{}
	for _, e := range entries {
		names = append(names, e.Name())
	}
	require.ElementsMatch(t, []string{"README.md", "src"}, names)
}
