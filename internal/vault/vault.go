// Package vault models the host's document store: a tree of folders and
// Markdown files addressed by slash-separated paths relative to the root.
package vault

import (
	"context"
	"errors"
	"path"
	"strings"
)

var (
	// ErrNotFound is returned when a path does not name a file or folder.
	ErrNotFound = errors.New("vault: not found")
	// ErrReadOnly is returned by Write on a vault opened without write access.
	ErrReadOnly = errors.New("vault: read-only")
)

// Entry is either a File or a Folder.
type Entry interface {
	EntryPath() string
	isEntry()
}

// File is a document in the vault.
type File struct {
	Path string
}

// Folder is a directory and its listed children.
type Folder struct {
	Path     string
	Children []Entry
}

func (f File) EntryPath() string   { return f.Path }
func (f Folder) EntryPath() string { return f.Path }
func (File) isEntry()              {}
func (Folder) isEntry()            {}

// Vault gives read access to documents.
type Vault interface {
	// Lookup returns the entry at p. Folders come back with their full
	// subtree. The root is addressed as "" or "/".
	Lookup(ctx context.Context, p string) (Entry, error)
	// Read returns the raw text of the document at p.
	Read(ctx context.Context, p string) (string, error)
}

// Writer replaces the content of a document.
type Writer interface {
	Write(ctx context.Context, p string, content string) error
}

// ActiveLocator is implemented by hosts that track a focused document.
type ActiveLocator interface {
	Active(ctx context.Context) (string, error)
}

// Clean normalises p to the vault's path form: slash separated, no leading
// or trailing slash, "" for the root.
func Clean(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.Trim(p, "/")
	if p == "" {
		return ""
	}
	p = path.Clean(p)
	if p == "." {
		return ""
	}
	return p
}

// hidden reports whether a directory entry name is kept out of listings.
func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
