package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidName is returned for stored names that could escape the base directory.
var ErrInvalidName = errors.New("invalid stored name")

const maxNameAttempts = 100

// BlobInfo describes one stored blob.
type BlobInfo struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// BlobStore holds uploaded bytes addressed by a generated stored name.
type BlobStore interface {
	Save(name string, r io.Reader) (storedName string, size int64, err error)
	Open(storedName string) (*os.File, error)
	Remove(storedName string) error
	Path(storedName string) (string, error)
	List() ([]BlobInfo, error)
}

// LocalStore keeps blobs as flat files in one directory.
type LocalStore struct {
	baseDir string
	now     func() time.Time
}

// NewLocalStore creates baseDir if needed.
func NewLocalStore(baseDir string) (*LocalStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}
	return &LocalStore{baseDir: baseDir, now: time.Now}, nil
}

// BaseDir returns the directory blobs are written to.
func (s *LocalStore) BaseDir() string {
	return s.baseDir
}

// Save streams r into "<unix-millis>_<name>". If that name is taken the
// millisecond component is bumped until a free name is found, so concurrent
// uploads of the same name never overwrite each other. A partial file is
// removed when the copy fails.
func (s *LocalStore) Save(name string, r io.Reader) (string, int64, error) {
	if err := validateName(name); err != nil {
		return "", 0, err
	}

	ts := s.now().UnixMilli()
	var (
		out        *os.File
		storedName string
		err        error
	)
	for i := 0; i < maxNameAttempts; i++ {
		storedName = strconv.FormatInt(ts+int64(i), 10) + "_" + name
		out, err = os.OpenFile(filepath.Join(s.baseDir, storedName), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil || !os.IsExist(err) {
			break
		}
	}
	if err != nil {
		return "", 0, fmt.Errorf("create blob: %w", err)
	}

	written, copyErr := io.Copy(out, r)
	closeErr := out.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		os.Remove(out.Name())
		return "", 0, fmt.Errorf("write blob: %w", copyErr)
	}

	return storedName, written, nil
}

// Open opens a blob for reading.
func (s *LocalStore) Open(storedName string) (*os.File, error) {
	if err := validateName(storedName); err != nil {
		return nil, err
	}
	return os.Open(filepath.Join(s.baseDir, storedName))
}

// Path resolves a stored name to its location on disk.
func (s *LocalStore) Path(storedName string) (string, error) {
	if err := validateName(storedName); err != nil {
		return "", err
	}
	return filepath.Join(s.baseDir, storedName), nil
}

// Remove deletes a blob. A blob that is already gone is not an error.
func (s *LocalStore) Remove(storedName string) error {
	if err := validateName(storedName); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(s.baseDir, storedName))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// List returns every regular file in the store.
func (s *LocalStore) List() ([]BlobInfo, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, err
	}

	blobs := make([]BlobInfo, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		blobs = append(blobs, BlobInfo{
			Name:    info.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return blobs, nil
}

func validateName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, "/\\\x00") {
		return ErrInvalidName
	}
	return nil
}
