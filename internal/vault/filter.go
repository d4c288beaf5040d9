package vault

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/dgallion1/contextcat/internal/parser"
)

// FilterMode selects how source documents are chosen.
type FilterMode string

const (
	// ModeFolderTree takes every document beneath FolderPath.
	ModeFolderTree FilterMode = "folder"
	// ModeGlob takes every document inside a folder named by GlobPattern,
	// at any depth.
	ModeGlob FilterMode = "glob"
)

// FilterConfig describes the working set of source documents. Only the field
// matching Mode is consulted.
type FilterConfig struct {
	Mode        FilterMode
	FolderPath  string
	GlobPattern string
}

// Resolve returns the documents selected by cfg in traversal order: depth
// first, children in the order the vault lists them. A folder that does not
// exist yields no documents.
func Resolve(ctx context.Context, v Vault, cfg FilterConfig) ([]File, error) {
	switch cfg.Mode {
	case ModeGlob:
		all, err := collect(ctx, v, "")
		if err != nil {
			return nil, err
		}
		var files []File
		for _, f := range all {
			if MatchGlob(f.Path, cfg.GlobPattern) {
				files = append(files, f)
			}
		}
		return files, nil
	case ModeFolderTree, "":
		return collect(ctx, v, cfg.FolderPath)
	default:
		return nil, fmt.Errorf("unknown filter mode %q", cfg.Mode)
	}
}

// MatchGlob reports whether p lies inside a folder matching pattern at any
// depth and names a .md document, i.e. p matches "**/<pattern>/**/*.md".
func MatchGlob(p, pattern string) bool {
	pattern = strings.Trim(pattern, "/")
	if pattern == "" {
		return false
	}
	ok, err := doublestar.Match("**/"+pattern+"/**/*.md", Clean(p))
	return err == nil && ok
}

// collect lists the Markdown documents beneath root.
func collect(ctx context.Context, v Vault, root string) ([]File, error) {
	entry, err := v.Lookup(ctx, root)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if _, ok := entry.(Folder); !ok {
		// A file path is not a folder tree.
		return nil, nil
	}

	var files []File
	var walk func(e Entry)
	walk = func(e Entry) {
		switch e := e.(type) {
		case File:
			if parser.IsMarkdown(e.Path) {
				files = append(files, e)
			}
		case Folder:
			for _, child := range e.Children {
				walk(child)
			}
		}
	}
	walk(entry)
	return files, nil
}

// Folders lists every folder path in the vault, depth first. The root is
// reported as "/".
func Folders(ctx context.Context, v Vault) ([]string, error) {
	entry, err := v.Lookup(ctx, "")
	if err != nil {
		return nil, err
	}

	var out []string
	var walk func(e Entry)
	walk = func(e Entry) {
		f, ok := e.(Folder)
		if !ok {
			return
		}
		if f.Path == "" {
			out = append(out, "/")
		} else {
			out = append(out, f.Path)
		}
		for _, child := range f.Children {
			walk(child)
		}
	}
	walk(entry)
	return out, nil
}
