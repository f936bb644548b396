// Package store lays out cache records on the filesystem.
package store

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.trai.ch/rewind/internal/core/domain"
	"go.trai.ch/rewind/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.RecordStore = (*Store)(nil)

// Store implements ports.RecordStore rooted at a single directory.
//
// A call named "a.b.c" with fingerprint f resolves to <root>/a/b/c_f; codecs
// append their own extension.
type Store struct {
	root       string
	extensions []string
	protected  []string
}

// NewStore creates a Store rooted at root that probes the given extensions in order.
func NewStore(root string, extensions []string) *Store {
	exts := make([]string, len(extensions))
	copy(exts, extensions)
	return &Store{
		root:       filepath.Clean(root),
		extensions: exts,
	}
}

// Protect marks dirs as never removable by Clear, along with any directory that
// contains them.
func (s *Store) Protect(dirs ...string) *Store {
	for _, dir := range dirs {
		s.protected = append(s.protected, canonical(dir))
	}
	return s
}

// Root returns the record tree root.
func (s *Store) Root() string {
	return s.root
}

// ResolvePath returns the extension-less record path for a call.
func (s *Store) ResolvePath(name, fingerprint string, forWrite bool) (string, error) {
	segments := strings.Split(name, ".")
	for _, seg := range segments {
		if !validSegment(seg) {
			return "", zerr.With(zerr.Wrap(domain.ErrInvalidCallName, "segment "+quoteSegment(seg)), "name", name)
		}
	}
	if fingerprint == "" || strings.ContainsAny(fingerprint, `/\`) {
		return "", zerr.With(zerr.Wrap(domain.ErrInvalidCallName, "invalid fingerprint"), "fingerprint", fingerprint)
	}

	last := len(segments) - 1
	parts := append([]string{s.root}, segments[:last]...)
	dir := filepath.Join(parts...)

	if forWrite {
		if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
			return "", zerr.With(zerr.Wrap(domain.ErrStoreCreateFailed, err.Error()), "dir", dir)
		}
	}

	return filepath.Join(dir, segments[last]+"_"+fingerprint), nil
}

// Exists reports whether a record exists for the call under any known extension.
func (s *Store) Exists(name, fingerprint string) bool {
	base, err := s.ResolvePath(name, fingerprint, false)
	if err != nil {
		return false
	}
	for _, ext := range s.extensions {
		if s.FileExists(base + ext) {
			return true
		}
	}
	return false
}

// FileExists reports whether path exists as a regular file.
func (s *Store) FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Clear removes the whole record tree, registry file included. It refuses a root
// that is a filesystem root or that holds the working directory or a protected
// directory.
func (s *Store) Clear() error {
	if err := s.checkClearable(); err != nil {
		return err
	}
	if err := os.RemoveAll(s.root); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrStoreClearFailed, err.Error()), "root", s.root)
	}
	return nil
}

func (s *Store) checkClearable() error {
	root := canonical(s.root)
	if root == filepath.Dir(root) {
		return zerr.With(zerr.Wrap(domain.ErrUnsafeClear, "cache root is a filesystem root"), "root", root)
	}

	guarded := append([]string(nil), s.protected...)
	if wd, err := os.Getwd(); err == nil {
		guarded = append(guarded, canonical(wd))
	}
	for _, dir := range guarded {
		if within(root, dir) {
			err := zerr.Wrap(domain.ErrUnsafeClear, "cache root contains a protected directory")
			return zerr.With(zerr.With(err, "root", root), "protected", dir)
		}
	}
	return nil
}

// within reports whether path is dir or lies below it.
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// canonical returns the absolute form of path with symlinks resolved when it exists.
func canonical(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}

// Records returns every record file under the root whose extension is known, sorted.
func (s *Store) Records() ([]string, error) {
	var records []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == s.root {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() || d.Name() == domain.RegistryFileName {
			return nil
		}
		for _, ext := range s.extensions {
			if filepath.Ext(path) == ext {
				records = append(records, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to walk record tree"), "root", s.root)
	}
	sort.Strings(records)
	return records, nil
}

func validSegment(seg string) bool {
	if seg == "" || seg == "." || seg == ".." {
		return false
	}
	return !strings.ContainsAny(seg, `/\`)
}

func quoteSegment(seg string) string {
	return "'" + seg + "' is not a valid path segment"
}
