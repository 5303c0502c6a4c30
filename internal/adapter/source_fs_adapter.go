// Package adapter contains the infrastructure adapters of the engine: project
// file access, plan and report persistence, and the built-in test runners.
package adapter

import (
	"crypto/sha256"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"

	m "gooze.dev/pkg/mutexec/internal/model"
)

// SourceFSAdapter abstracts the filesystem operations the engine performs on
// user projects and sandboxes, so domain logic can be tested without a disk.
//
//nolint:interfacebloat // A richer interface keeps sandbox logic decoupled from os/fs.
type SourceFSAdapter interface {
	// ListFiles returns every regular file below root, relative to root in
	// canonical form, skipping paths matched by one of the ignore globs.
	ListFiles(root m.Path, ignore []string) ([]m.Path, error)

	// ReadFile loads a file from disk and returns its contents.
	ReadFile(path m.Path) ([]byte, error)

	// WriteFile replaces the contents of path, keeping its mode if it exists.
	WriteFile(path m.Path, content []byte) error

	// HashFile returns the SHA-256 of the file at path.
	HashFile(path m.Path) (string, error)

	// FileInfo returns metadata for a path.
	FileInfo(path m.Path) (os.FileInfo, error)

	// CreateTempDir creates a fresh directory below the system temp dir.
	CreateTempDir(pattern string) (m.Path, error)

	// RemoveAll removes a directory and all its contents.
	RemoveAll(path m.Path) error

	// CopyFiles copies the listed files, relative to src, into dst.
	CopyFiles(src, dst m.Path, files []m.Path) error
}

// LocalSourceFSAdapter is the os backed SourceFSAdapter.
type LocalSourceFSAdapter struct{}

// NewLocalSourceFSAdapter constructs a LocalSourceFSAdapter.
func NewLocalSourceFSAdapter() *LocalSourceFSAdapter {
	return &LocalSourceFSAdapter{}
}

// ListFiles walks root concurrently and returns the sorted list of files.
func (a *LocalSourceFSAdapter) ListFiles(root m.Path, ignore []string) ([]m.Path, error) {
	for _, pattern := range ignore {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid ignore pattern %q", pattern)
		}
	}

	rootStr := string(root)

	var (
		mu    sync.Mutex
		files []m.Path
	)

	conf := fastwalk.Config{Follow: false}

	err := fastwalk.Walk(&conf, rootStr, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(rootStr, path)
		if err != nil {
			return err
		}

		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}

		if ignored(rel, ignore) {
			if d.IsDir() {
				return fastwalk.SkipDir
			}

			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		mu.Lock()
		files = append(files, m.Path(rel))
		mu.Unlock()

		return nil
	})
	if err != nil {
		slog.Error("Failed to list project files", "root", root, "error", err)
		return nil, fmt.Errorf("list files under %s: %w", root, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i] < files[j] })

	return files, nil
}

func ignored(rel string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}

	return false
}

// ReadFile loads file contents from disk.
func (a *LocalSourceFSAdapter) ReadFile(path m.Path) ([]byte, error) {
	return os.ReadFile(string(path))
}

// WriteFile overwrites path in place.
func (a *LocalSourceFSAdapter) WriteFile(path m.Path, content []byte) error {
	perm := os.FileMode(0o644)
	if info, err := os.Stat(string(path)); err == nil {
		perm = info.Mode().Perm()
	}

	return os.WriteFile(string(path), content, perm)
}

// HashFile returns the SHA-256 hash of the file at the provided path.
func (a *LocalSourceFSAdapter) HashFile(path m.Path) (string, error) {
	f, err := os.Open(string(path))
	if err != nil {
		return "", err
	}

	defer func() {
		_ = f.Close()
	}()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// FileInfo returns os.FileInfo metadata for the given path.
func (a *LocalSourceFSAdapter) FileInfo(path m.Path) (os.FileInfo, error) {
	return os.Stat(string(path))
}

// CreateTempDir creates a temporary directory.
func (a *LocalSourceFSAdapter) CreateTempDir(pattern string) (m.Path, error) {
	tmpDir, err := os.MkdirTemp("", pattern)
	if err != nil {
		return "", err
	}

	return m.Path(tmpDir), nil
}

// RemoveAll removes a directory and all its contents.
func (a *LocalSourceFSAdapter) RemoveAll(path m.Path) error {
	return os.RemoveAll(string(path))
}

// CopyFiles copies each file below src to the same relative path below dst.
func (a *LocalSourceFSAdapter) CopyFiles(src, dst m.Path, files []m.Path) error {
	for _, file := range files {
		from := filepath.Join(string(src), filepath.FromSlash(string(file)))
		to := filepath.Join(string(dst), filepath.FromSlash(string(file)))

		info, err := os.Stat(from)
		if err != nil {
			return err
		}

		if err := a.copyFile(from, to, info.Mode()); err != nil {
			return fmt.Errorf("copy %s: %w", file, err)
		}
	}

	return nil
}

// copyFile copies a single file.
func (a *LocalSourceFSAdapter) copyFile(src, dst string, mode os.FileMode) error {
	// #nosec G304 - src is internal project file path, not user input
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}

	defer func() { _ = sourceFile.Close() }()

	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}

	// #nosec G304 - dst is internal destination path, not user input
	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}

	defer func() { _ = destFile.Close() }()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	return os.Chmod(dst, mode)
}
