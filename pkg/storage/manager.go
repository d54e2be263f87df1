// Package storage serializes access to the directory served by fshare.
//
// A Manager wraps one storage root. Every directory or metadata operation
// (listing, existence checks, delete, open) holds the manager's single lock for
// its duration. The lock is released once a stream is handed to the caller,
// so data transfer over two different files proceeds concurrently.
//
// Uploads are written under a staging directory inside the root and renamed
// into place on Commit. Listings skip directories, so a partially written
// upload is never visible to readers.
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/marmos91/fshare/internal/logger"
	"github.com/marmos91/fshare/internal/protocol/security"
	"github.com/marmos91/fshare/internal/protocol/wire"
)

const (
	// StagingDir holds uploads that have not completed yet.
	StagingDir = ".incoming"

	stagingSuffix = ".part"
	rootDir       = "/"
)

// Options configures a Manager.
type Options struct {
	// AllowOverwrite lets a completed upload replace an existing file.
	AllowOverwrite bool
}

// Manager owns one storage root.
type Manager struct {
	fs   afero.Fs
	opts Options
	mu   sync.Mutex
}

// New creates a Manager over fsys, whose root is the storage root.
// The staging directory is created and any uploads abandoned by a previous
// run are removed.
func New(fsys afero.Fs, opts Options) (*Manager, error) {
	m := &Manager{fs: fsys, opts: opts}

	if err := fsys.MkdirAll(stagingPath(), 0o755); err != nil {
		return nil, fmt.Errorf("create staging directory: %w", err)
	}
	if err := m.purgeStaging(); err != nil {
		return nil, err
	}
	return m, nil
}

// NewOS creates a Manager rooted at dir on the local filesystem, creating the
// directory if needed. All paths are confined to dir.
func NewOS(dir string, opts Options) (*Manager, error) {
	osfs := afero.NewOsFs()
	if err := osfs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root %q: %w", dir, err)
	}
	return New(afero.NewBasePathFs(osfs, dir), opts)
}

func stagingPath() string {
	return path.Join(rootDir, StagingDir)
}

func filePath(name string) string {
	return path.Join(rootDir, name)
}

func (m *Manager) purgeStaging() error {
	entries, err := afero.ReadDir(m.fs, stagingPath())
	if err != nil {
		return fmt.Errorf("read staging directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), stagingSuffix) {
			continue
		}
		p := path.Join(stagingPath(), e.Name())
		if err := m.fs.Remove(p); err != nil {
			logger.Warn("Failed to remove stale upload", logger.Filename(e.Name()), logger.Err(err))
			continue
		}
		logger.Info("Removed stale upload", logger.Filename(e.Name()))
	}
	return nil
}

func checkName(name string) error {
	if !security.IsSafeFilename(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// statRegular returns the FileInfo of name, failing with ErrNotFound or
// ErrNotRegular. Callers hold m.mu.
func (m *Manager) statRegular(name string) (fs.FileInfo, error) {
	fi, err := m.fs.Stat(filePath(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("stat %s: %w", name, err)
	}
	if !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotRegular, name)
	}
	return fi, nil
}

// List enumerates the regular files in the storage root, sorted by name.
// Directories, including the staging directory, are skipped.
func (m *Manager) List() ([]wire.FileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries, err := afero.ReadDir(m.fs, rootDir)
	if err != nil {
		return nil, fmt.Errorf("list storage root: %w", err)
	}

	files := make([]wire.FileRecord, 0, len(entries))
	for _, e := range entries {
		if !e.Mode().IsRegular() {
			continue
		}
		files = append(files, wire.FileRecord{
			Filename: e.Name(),
			Size:     uint64(max(e.Size(), 0)),
			ModTime:  uint64(max(e.ModTime().Unix(), 0)),
		})
	}
	slices.SortFunc(files, func(a, b wire.FileRecord) int {
		return strings.Compare(a.Filename, b.Filename)
	})
	return files, nil
}

// Exists reports whether name is a regular file in the storage root.
func (m *Manager) Exists(name string) (bool, error) {
	if err := checkName(name); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.statRegular(name); err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrNotRegular) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Delete removes name from the storage root.
func (m *Manager) Delete(name string) error {
	if err := checkName(name); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.statRegular(name); err != nil {
		return err
	}
	if err := m.fs.Remove(filePath(name)); err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	return nil
}

// Download is an open stream over a stored file.
type Download struct {
	f    afero.File
	name string
	size int64
}

// Read implements io.Reader.
func (d *Download) Read(p []byte) (int, error) {
	return d.f.Read(p)
}

// Close releases the underlying file.
func (d *Download) Close() error {
	return d.f.Close()
}

// Name returns the stored filename.
func (d *Download) Name() string { return d.name }

// Size returns the file size at open time.
func (d *Download) Size() int64 { return d.size }

// OpenForReading opens name for streaming to a peer.
func (m *Manager) OpenForReading(name string) (*Download, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	fi, err := m.statRegular(name)
	if err != nil {
		return nil, err
	}
	f, err := m.fs.Open(filePath(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return &Download{f: f, name: name, size: fi.Size()}, nil
}

// OpenForWriting starts an upload of name. Data is staged until Commit.
func (m *Manager) OpenForWriting(name string) (*Upload, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.opts.AllowOverwrite {
		if err := m.ensureAbsent(name); err != nil {
			return nil, err
		}
	}

	staged := path.Join(stagingPath(), uuid.NewString()+stagingSuffix)
	f, err := m.fs.OpenFile(staged, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create staging file for %s: %w", name, err)
	}
	return &Upload{m: m, name: name, staged: staged, f: f}, nil
}

// ensureAbsent fails with ErrExists if anything occupies name.
// Callers hold m.mu.
func (m *Manager) ensureAbsent(name string) error {
	_, err := m.fs.Stat(filePath(name))
	switch {
	case err == nil:
		return fmt.Errorf("%w: %s", ErrExists, name)
	case errors.Is(err, fs.ErrNotExist):
		return nil
	default:
		return fmt.Errorf("stat %s: %w", name, err)
	}
}

// commit renames a staged upload into place.
func (m *Manager) commit(u *Upload) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.opts.AllowOverwrite {
		if err := m.ensureAbsent(u.name); err != nil {
			return err
		}
	} else if fi, err := m.fs.Stat(filePath(u.name)); err == nil && fi.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotRegular, u.name)
	}

	if err := m.fs.Rename(u.staged, filePath(u.name)); err != nil {
		return fmt.Errorf("commit %s: %w", u.name, err)
	}
	return nil
}
