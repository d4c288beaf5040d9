package vault

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
)

// FS is a vault backed by an fs.FS. Directory listings are in name order.
type FS struct {
	fsys fs.FS
	root string // OS directory for writes; empty when read-only
}

// NewFS wraps fsys as a read-only vault.
func NewFS(fsys fs.FS) *FS {
	return &FS{fsys: fsys}
}

// Open returns a writable vault rooted at the OS directory dir.
func Open(dir string) (*FS, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve vault dir: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("open vault: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open vault: %s is not a directory", abs)
	}
	return &FS{fsys: os.DirFS(abs), root: abs}, nil
}

// Root returns the OS directory of a writable vault.
func (v *FS) Root() string {
	return v.root
}

func (v *FS) Lookup(ctx context.Context, p string) (Entry, error) {
	p = Clean(p)
	name := p
	if name == "" {
		name = "."
	}
	info, err := fs.Stat(v.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("lookup %q: %w", p, ErrNotFound)
		}
		return nil, fmt.Errorf("lookup %q: %w", p, err)
	}
	if !info.IsDir() {
		return File{Path: p}, nil
	}
	return v.folder(ctx, p)
}

func (v *FS) folder(ctx context.Context, p string) (Folder, error) {
	if err := ctx.Err(); err != nil {
		return Folder{}, err
	}
	name := p
	if name == "" {
		name = "."
	}
	entries, err := fs.ReadDir(v.fsys, name)
	if err != nil {
		return Folder{}, fmt.Errorf("list %q: %w", p, err)
	}

	folder := Folder{Path: p}
	for _, e := range entries {
		if hidden(e.Name()) {
			continue
		}
		child := path.Join(p, e.Name())
		if e.IsDir() {
			sub, err := v.folder(ctx, child)
			if err != nil {
				return Folder{}, err
			}
			folder.Children = append(folder.Children, sub)
			continue
		}
		folder.Children = append(folder.Children, File{Path: child})
	}
	return folder, nil
}

func (v *FS) Read(ctx context.Context, p string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p = Clean(p)
	data, err := fs.ReadFile(v.fsys, p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("read %q: %w", p, ErrNotFound)
		}
		return "", fmt.Errorf("read %q: %w", p, err)
	}
	return string(data), nil
}

// Write replaces the document at p, keeping its permissions. New documents
// are created with mode 0644.
func (v *FS) Write(ctx context.Context, p string, content string) error {
	if v.root == "" {
		return ErrReadOnly
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	p = Clean(p)
	if p == "" {
		return fmt.Errorf("write: empty path")
	}
	target := filepath.Join(v.root, filepath.FromSlash(p))

	mode := fs.FileMode(0o644)
	if info, err := os.Stat(target); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(target, []byte(content), mode); err != nil {
		return fmt.Errorf("write %q: %w", p, err)
	}
	return nil
}
