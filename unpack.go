// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package unarchive

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"time"
)

// dropped attributes are replaced with these modes
const (
	defaultFileMode fs.FileMode = 0644
	execFileMode    fs.FileMode = 0755
)

// dirAttributes are applied to directories after all entries are written,
// because writing into a directory changes its modification time and a
// read-only directory mode would prevent writing.
type dirAttributes struct {
	path  string
	mode  fs.FileMode
	atime time.Time
	mtime time.Time
}

// extract checks ctx for cancellation, while it reads entries from src and writes them below dst.
func extract(ctx context.Context, t Target, dst string, src archiveWalker, cfg *Config, td *TelemetryData) error {
	cfg.Logger().Info("start extraction", "type", src.Type(), "destination", dst)

	var objectCounter int64
	var extractedBytes int64
	var dirs []dirAttributes

	for {
		// check if context is canceled
		if err := ctx.Err(); err != nil {
			return err
		}

		ae, err := src.Next()

		switch {

		// if no more entries are found exit loop
		case err == io.EOF:
			return restoreDirAttributes(t, dirs, cfg)

		case err != nil:
			return fmt.Errorf("error reading archive: %w", err)

		// if the entry is nil, just skip it
		case ae == nil:
			continue
		}

		name := strings.TrimSuffix(ae.Name(), "/")

		// entries for the archive root itself, e.g. "./"
		if name == "" || name == "." {
			continue
		}

		objectCounter++
		if err := cfg.CheckMaxFiles(objectCounter); err != nil {
			return fmt.Errorf("%w: %d entries", err, objectCounter)
		}

		cfg.Logger().Debug("extract", "name", name)
		switch {

		case ae.IsDir():
			mode := cfg.CustomCreateDirMode()
			if !cfg.DropFileAttributes() {
				mode = ae.Mode().Perm()
			}

			// the owner must be able to write the children, the final mode is restored at the end
			if err := createDir(t, dst, name, mode|0700); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", name, err)
			}
			if !cfg.DropFileAttributes() {
				dirs = append(dirs, dirAttributes{
					path:  filepath.Join(dst, localPath(name)),
					mode:  mode,
					atime: ae.AccessTime(),
					mtime: ae.ModTime(),
				})
			}
			td.ExtractedDirs++

		case ae.IsRegular():
			if err := cfg.CheckExtractionSize(extractedBytes + ae.Size()); err != nil {
				return fmt.Errorf("%w: %s", err, name)
			}

			written, err := extractFile(t, dst, name, ae, remainingBudget(cfg, extractedBytes), cfg)
			extractedBytes += written
			td.ExtractionSize = extractedBytes
			if err != nil {
				return fmt.Errorf("failed to create file %s: %w", name, err)
			}
			td.ExtractedFiles++

		case ae.IsSymlink():
			linkTarget, err := ae.Linkname()
			if err != nil {
				return fmt.Errorf("failed to read link target of %s: %w", name, err)
			}
			if err := createSymlink(t, dst, name, linkTarget, cfg); err != nil {
				return fmt.Errorf("failed to create symlink %s: %w", name, err)
			}
			if !cfg.DropFileAttributes() && !ae.ModTime().IsZero() {
				if err := t.Lchtimes(filepath.Join(dst, localPath(name)), ae.ModTime(), ae.ModTime()); err != nil {
					cfg.Logger().Warn("cannot restore symlink times", "name", name, "error", err)
				}
			}
			td.ExtractedSymlinks++

		case ae.IsHardLink():
			linkTarget, err := ae.Linkname()
			if err != nil {
				return fmt.Errorf("failed to read link target of %s: %w", name, err)
			}
			written, err := createHardLink(t, dst, name, linkTarget, remainingBudget(cfg, extractedBytes), cfg)
			extractedBytes += written
			td.ExtractionSize = extractedBytes
			if err != nil {
				return fmt.Errorf("failed to create hard link %s: %w", name, err)
			}
			td.ExtractedLinks++

		default:
			// devices, fifos and other special files are not extracted
			cfg.Logger().Info("skipping unsupported entry", "name", name, "mode", ae.Mode().String())
			td.UnsupportedFiles++
			td.LastUnsupportedFile = name
		}
	}
}

// extractFile writes a regular entry and restores its mode and times.
func extractFile(t Target, dst string, name string, ae archiveEntry, maxSize int64, cfg *Config) (int64, error) {
	fin, err := ae.Open()
	if err != nil {
		return 0, fmt.Errorf("failed to open entry: %w", err)
	}
	defer fin.Close()

	mode := ae.Mode().Perm()
	if cfg.DropFileAttributes() {
		mode = defaultFileMode
		if ae.Mode()&0100 != 0 {
			mode = execFileMode
		}
	}

	written, err := createFile(t, dst, name, fin, mode, maxSize, cfg)
	if err != nil {
		return written, err
	}

	if cfg.DropFileAttributes() {
		return written, nil
	}

	// the umask applies on create and an overwritten file keeps its old mode
	path := filepath.Join(dst, localPath(name))
	if err := t.Chmod(path, mode); err != nil {
		return written, fmt.Errorf("failed to set mode: %w", err)
	}
	if mtime := ae.ModTime(); !mtime.IsZero() {
		if err := t.Chtimes(path, accessTime(ae), mtime); err != nil {
			return written, fmt.Errorf("failed to set times: %w", err)
		}
	}
	return written, nil
}

// restoreDirAttributes applies modes and times to the extracted directories,
// children before parents.
func restoreDirAttributes(t Target, dirs []dirAttributes, cfg *Config) error {
	for i := len(dirs) - 1; i >= 0; i-- {
		d := dirs[i]
		if err := t.Chmod(d.path, d.mode); err != nil {
			return fmt.Errorf("failed to set mode of directory %s: %w", d.path, err)
		}
		if d.mtime.IsZero() {
			continue
		}
		atime := d.atime
		if atime.IsZero() {
			atime = d.mtime
		}
		if err := t.Chtimes(d.path, atime, d.mtime); err != nil {
			cfg.Logger().Warn("cannot restore directory times", "path", d.path, "error", err)
		}
	}
	return nil
}

// remainingBudget returns how many bytes may still be written, or -1 if unlimited.
func remainingBudget(cfg *Config, extractedBytes int64) int64 {
	if cfg.MaxExtractionSize() < 0 {
		return -1
	}
	return cfg.MaxExtractionSize() - extractedBytes
}

// accessTime falls back to the modification time for containers without access times.
func accessTime(ae archiveEntry) time.Time {
	if at := ae.AccessTime(); !at.IsZero() {
		return at
	}
	return ae.ModTime()
}
