// Package storage keeps asset bytes and table files on a local filesystem.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/foodielens/dishbook"
	"github.com/foodielens/dishbook/internal/domain"
	"github.com/foodielens/dishbook/internal/usecase"
)

const (
	objectsDir = "objects"
	tablesDir  = "tables"
)

// Filesystem stores assets content-addressed under root/objects and table
// files under root/tables. Every write goes to a temporary file first and is
// renamed into place, so readers never see a partial object or table.
type Filesystem struct {
	root string
}

func NewFilesystem(root string) (*Filesystem, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("abs(%s): %w", root, err)
	}
	for _, dir := range []string{objectsDir, tablesDir} {
		if err := os.MkdirAll(filepath.Join(abs, dir), 0o755); err != nil {
			return nil, err
		}
	}
	if r, err := filepath.EvalSymlinks(abs); err == nil {
		abs = r
	}
	return &Filesystem{root: abs}, nil
}

func (f *Filesystem) objectPath(hash string) (string, error) {
	if !dishbook.IsContentHash(hash) {
		return "", fmt.Errorf("invalid content hash %q", hash)
	}
	digest := hash[len(domain.HashAlgorithm)+1:]
	return filepath.Join(f.root, objectsDir, digest[:2], digest), nil
}

func location(path string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String()
}

// pathOf resolves a location handed out by this store, refusing anything
// outside the objects directory.
func (f *Filesystem) pathOf(loc string) (string, error) {
	u, err := url.Parse(loc)
	if err != nil || u.Scheme != "file" {
		return "", fmt.Errorf("unsupported location %q", loc)
	}
	path := filepath.Clean(filepath.FromSlash(u.Path))
	if !strings.HasPrefix(path, filepath.Join(f.root, objectsDir)+string(filepath.Separator)) {
		return "", fmt.Errorf("location %q is outside the store", loc)
	}
	return path, nil
}

func (f *Filesystem) Exists(ctx context.Context, hash string) (string, bool, error) {
	path, err := f.objectPath(hash)
	if err != nil {
		return "", false, err
	}
	_, err = os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return location(path), true, nil
}

func (f *Filesystem) Put(ctx context.Context, hash string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if domain.ContentHash(data) != hash {
		return "", fmt.Errorf("content does not match hash %s", hash)
	}

	path, err := f.objectPath(hash)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err == nil {
		return location(path), nil
	}

	if err := writeAtomic(path, data); err != nil {
		return "", err
	}
	return location(path), nil
}

func (f *Filesystem) Get(ctx context.Context, loc string) ([]byte, error) {
	path, err := f.pathOf(loc)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.NotFoundError{Resource: "asset object"}
	}
	return data, err
}

func (f *Filesystem) tablePath(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid table file name %q", name)
	}
	return filepath.Join(f.root, tablesDir, name), nil
}

// ReadFile returns the named table file, or nil when it does not exist yet.
func (f *Filesystem) ReadFile(ctx context.Context, name string) ([]byte, error) {
	path, err := f.tablePath(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return data, err
}

func (f *Filesystem) WriteFile(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := f.tablePath(name)
	if err != nil {
		return err
	}
	return writeAtomic(path, data)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

var _ usecase.AssetBackend = (*Filesystem)(nil)
