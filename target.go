// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package unarchive

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Target specifies all functions that are needed to write the contents of an
// archive. [TargetDisk] writes to the local filesystem.
type Target interface {
	// CreateFile creates a file at path with src as content and sets mode. If the file already exists and
	// overwrite is false, an error is returned. The written size must not exceed maxSize; if maxSize < 0
	// the size is not limited. The number of written bytes is returned, also together with an error.
	CreateFile(path string, src io.Reader, mode fs.FileMode, overwrite bool, maxSize int64) (int64, error)

	// CreateDir creates path and all missing parents with mode. An existing directory is not an error.
	CreateDir(path string, mode fs.FileMode) error

	// CreateSymlink creates newname as a symbolic link to oldname. If newname already exists and overwrite
	// is false, an error is returned.
	CreateSymlink(oldname string, newname string, overwrite bool) error

	// Open opens an already written file for reading. It is used to materialize hard links.
	Open(path string) (io.ReadCloser, error)

	// Lstat see docs for os.Lstat. Main purpose is to check for symlinks in the extraction path
	// and for zip-slip attacks.
	Lstat(path string) (fs.FileInfo, error)

	// Chmod see docs for os.Chmod.
	Chmod(name string, mode fs.FileMode) error

	// Chtimes see docs for os.Chtimes.
	Chtimes(name string, atime, mtime time.Time) error

	// Lchtimes is Chtimes without following a final symlink. Targets that cannot do this return nil.
	Lchtimes(name string, atime, mtime time.Time) error
}

// errSymlinksDenied is returned for symlink entries if symlink extraction is denied.
var errSymlinksDenied = errors.New("symlinks are not allowed")

// localPath converts a slash separated archive name to a platform path.
func localPath(name string) string {
	return filepath.Join(strings.Split(name, "/")...)
}

// createFile writes src as name below dst.
//
// Missing parent directories are created with cfg.CustomCreateDirMode(). The
// name must stay inside dst and must not pass through a symlink.
func createFile(t Target, dst string, name string, src io.Reader, mode fs.FileMode, maxSize int64, cfg *Config) (int64, error) {
	if len(name) == 0 {
		return 0, fmt.Errorf("cannot create file without name")
	}
	name = localPath(name)

	if err := createDir(t, dst, filepath.Dir(name), cfg.CustomCreateDirMode()); err != nil {
		return 0, fmt.Errorf("cannot create directory: %w", err)
	}

	// ensure that if the file exists it is not a symlink
	if err := securityCheck(t, dst, name); err != nil {
		return 0, fmt.Errorf("security check path failed: %w", err)
	}
	return t.CreateFile(filepath.Join(dst, name), src, mode, cfg.Overwrite(), maxSize)
}

// createDir creates name below dst. An empty name or "." is dst itself, which
// must exist already.
func createDir(t Target, dst string, name string, mode fs.FileMode) error {
	if name == "" || name == "." {
		return nil
	}

	if err := securityCheck(t, dst, name); err != nil {
		return fmt.Errorf("security check path failed: %w", err)
	}

	return t.CreateDir(filepath.Join(dst, localPath(name)), mode)
}

// createSymlink creates name below dst as a link to linkTarget.
//
// Links with an absolute target and links whose target resolves outside of
// dst are rejected.
func createSymlink(t Target, dst string, name string, linkTarget string, cfg *Config) error {
	if cfg.DenySymlinkExtraction() {
		return errSymlinksDenied
	}
	if len(name) == 0 {
		return fmt.Errorf("empty name")
	}
	if filepath.IsAbs(linkTarget) || strings.HasPrefix(linkTarget, "/") {
		return fmt.Errorf("symlink with absolute path as target: %s", linkTarget)
	}

	name = localPath(name)
	linkDirectory := filepath.Dir(name)

	if err := createDir(t, dst, linkDirectory, cfg.CustomCreateDirMode()); err != nil {
		return fmt.Errorf("cannot create directory (%s) for symlink: %w", linkDirectory, err)
	}

	// the link target is relative to the directory of the link
	if err := securityCheck(t, dst, filepath.Join(linkDirectory, localPath(linkTarget))); err != nil {
		return fmt.Errorf("symlink target security check path failed: %w", err)
	}

	return t.CreateSymlink(linkTarget, filepath.Join(dst, name), cfg.Overwrite())
}

// createHardLink materializes name as a copy of the already extracted file
// linkTarget. Both names are relative to dst.
func createHardLink(t Target, dst string, name string, linkTarget string, maxSize int64, cfg *Config) (int64, error) {
	if len(linkTarget) == 0 {
		return 0, fmt.Errorf("hard link without target")
	}

	linkTarget = localPath(linkTarget)
	if err := securityCheck(t, dst, linkTarget); err != nil {
		return 0, fmt.Errorf("hard link target security check path failed: %w", err)
	}

	targetPath := filepath.Join(dst, linkTarget)
	fi, err := t.Lstat(targetPath)
	if err != nil {
		return 0, fmt.Errorf("hard link target not extracted: %w", err)
	}
	if !fi.Mode().IsRegular() {
		return 0, fmt.Errorf("hard link target is not a regular file: %s", linkTarget)
	}

	src, err := t.Open(targetPath)
	if err != nil {
		return 0, fmt.Errorf("cannot open hard link target: %w", err)
	}
	defer src.Close()

	return createFile(t, dst, name, src, fi.Mode(), maxSize, cfg)
}

// securityCheck returns an error if path leaves dst or if any existing element
// of path below dst is a symlink.
func securityCheck(t Target, dst string, path string) error {
	path = localPath(path)
	if filepath.IsAbs(path) {
		return fmt.Errorf("absolute path detected")
	}

	rel, err := filepath.Rel(dst, filepath.Join(dst, path))
	if err != nil {
		return fmt.Errorf("failed to get relative path: %w", err)
	}
	if !filepath.IsLocal(rel) {
		return fmt.Errorf("path traversal detected")
	}

	// check each element in path
	elements := strings.Split(path, string(os.PathSeparator))
	for i := range elements {
		subDirs := filepath.Join(elements[0 : i+1]...)
		if subDirs == "." || len(subDirs) == 0 {
			continue
		}

		symlink, err := isSymlink(t, filepath.Join(dst, subDirs))
		if err != nil {
			return fmt.Errorf("failed to check symlink: %w", err)
		}
		if symlink {
			return fmt.Errorf("symlink in path: %s", subDirs)
		}
	}

	return nil
}

// isSymlink checks if path is a symlink. A missing path is not a symlink.
func isSymlink(t Target, path string) (bool, error) {
	if len(path) == 0 {
		return false, fmt.Errorf("empty path")
	}

	stat, err := t.Lstat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check path: %w", err)
	}
	return stat.Mode()&fs.ModeSymlink != 0, nil
}
