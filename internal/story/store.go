// Package story locates story record documents and answers structural
// queries about their markdown sections.
package story

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// ErrNotFile indicates the record path exists but is not a regular file.
var ErrNotFile = errors.New("story: record path is not a file")

// PathResolver maps a story key to its record path.
type PathResolver func(key string) string

// State captures what was found at a record path.
type State string

const (
	StateMissing State = "missing"
	StateReady   State = "ready"
	StateInvalid State = "invalid"
	StateError   State = "error"
)

// CheckResult captures Store.Check results. Document is set only when
// State is StateReady.
type CheckResult struct {
	Key      string
	Path     string
	State    State
	Document *Document
	Err      error
}

// Store reads story records. It never writes.
type Store struct {
	resolve  PathResolver
	readFile func(string) ([]byte, error)
	stat     func(string) (fs.FileInfo, error)
}

// StoreOption customizes a Store during construction.
type StoreOption func(*Store)

// WithReadFile overrides how record contents are read.
func WithReadFile(read func(string) ([]byte, error)) StoreOption {
	return func(s *Store) {
		s.readFile = read
	}
}

// NewStore builds a store resolving record paths with resolve.
func NewStore(resolve PathResolver, opts ...StoreOption) *Store {
	store := &Store{
		resolve:  resolve,
		readFile: os.ReadFile,
		stat:     os.Stat,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Path returns the record path for key.
func (s *Store) Path(key string) string {
	return s.resolve(key)
}

// Check inspects the record for key. A missing record is reported through
// StateMissing with a nil error; unreadable records return the error too.
func (s *Store) Check(key string) (CheckResult, error) {
	path := s.Path(key)
	info, err := s.stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return CheckResult{Key: key, Path: path, State: StateMissing}, nil
		}
		return CheckResult{Key: key, Path: path, State: StateError, Err: err}, err
	}
	if info.IsDir() {
		err := fmt.Errorf("%w: %s is a directory", ErrNotFile, path)
		return CheckResult{Key: key, Path: path, State: StateInvalid, Err: err}, err
	}
	data, err := s.readFile(path)
	if err != nil {
		err = fmt.Errorf("story: read %s: %w", path, err)
		return CheckResult{Key: key, Path: path, State: StateError, Err: err}, err
	}
	return CheckResult{Key: key, Path: path, State: StateReady, Document: Parse(string(data))}, nil
}
