package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage persists files on disk under a base directory.
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage ensures the base directory exists and returns a handle. The
// directory is made absolute so paths handed out stay valid from any cwd.
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("storage base directory required")
	}
	baseDir, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve storage directory: %w", err)
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &LocalStorage{baseDir: baseDir}, nil
}

// Save writes the given bytes to the provided relative path under the base dir.
func (s *LocalStorage) Save(filename string, data []byte) (string, error) {
	path, err := s.resolve(filename)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("prepare storage directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return path, nil
}

// SaveStream copies at most limit bytes from r into the target file. Streams
// longer than limit are rejected and nothing is left on disk.
func (s *LocalStorage) SaveStream(filename string, r io.Reader, limit int64) (string, error) {
	staged, err := s.Stage(filename)
	if err != nil {
		return "", err
	}
	n, err := io.Copy(staged, io.LimitReader(r, limit+1))
	if err != nil {
		staged.Discard()
		return "", fmt.Errorf("write stream: %w", err)
	}
	if n > limit {
		staged.Discard()
		return "", ErrTooLarge
	}
	if err := staged.Commit(); err != nil {
		return "", err
	}
	return staged.Target(), nil
}

// Stage opens a temporary file next to filename. Nothing is visible at the
// final path until Commit.
func (s *LocalStorage) Stage(filename string) (*StagedFile, error) {
	path, err := s.resolve(filename)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("prepare storage directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create staging file: %w", err)
	}
	return &StagedFile{file: tmp, target: path}, nil
}

// Open returns a read-only handle for the stored file.
func (s *LocalStorage) Open(filename string) (*os.File, error) {
	path, err := s.resolve(filename)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	return file, nil
}

// ReadFile loads a stored file fully into memory.
func (s *LocalStorage) ReadFile(filename string) ([]byte, error) {
	path, err := s.resolve(filename)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// Delete removes a stored file if present.
func (s *LocalStorage) Delete(filename string) error {
	path, err := s.resolve(filename)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// Path exposes the resolved path of a stored file.
func (s *LocalStorage) Path(filename string) string {
	path, err := s.resolve(filename)
	if err != nil {
		return ""
	}
	return path
}

// resolve keeps relative names inside baseDir. Absolute paths are trusted as
// they only come from rows this service wrote.
func (s *LocalStorage) resolve(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		return filename, nil
	}
	path := filepath.Join(s.baseDir, filename)
	rel, err := filepath.Rel(s.baseDir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes storage directory", filename)
	}
	return path, nil
}

// ErrTooLarge is returned by SaveStream when the input exceeds the limit.
var ErrTooLarge = fmt.Errorf("file exceeds size limit")

// StagedFile is a temporary file that becomes visible at its target path on Commit.
type StagedFile struct {
	file   *os.File
	target string
	done   bool
}

func (f *StagedFile) Write(p []byte) (int, error) {
	return f.file.Write(p)
}

// Target is the final path the file is renamed to.
func (f *StagedFile) Target() string {
	return f.target
}

// Commit flushes the staged file and renames it over the target path.
func (f *StagedFile) Commit() error {
	if f.done {
		return fmt.Errorf("staged file already finalised")
	}
	f.done = true
	if err := f.file.Sync(); err != nil {
		_ = f.file.Close()
		_ = os.Remove(f.file.Name())
		return fmt.Errorf("sync staged file: %w", err)
	}
	if err := f.file.Close(); err != nil {
		_ = os.Remove(f.file.Name())
		return fmt.Errorf("close staged file: %w", err)
	}
	if err := os.Rename(f.file.Name(), f.target); err != nil {
		_ = os.Remove(f.file.Name())
		return fmt.Errorf("publish staged file: %w", err)
	}
	return nil
}

// Discard drops the staged file. Safe to call after Commit.
func (f *StagedFile) Discard() {
	if f.done {
		return
	}
	f.done = true
	_ = f.file.Close()
	_ = os.Remove(f.file.Name())
}
