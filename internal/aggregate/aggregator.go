// Package aggregate composes a document from sections scattered across a
// vault, matched against the headings of the active document.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgallion1/contextcat/internal/doctree"
	"github.com/dgallion1/contextcat/internal/parser"
	"github.com/dgallion1/contextcat/internal/vault"
)

// ErrNoActiveDocument is returned when no active document is given or it
// cannot be found.
var ErrNoActiveDocument = errors.New("no active document")

// ErrUnknownMode is returned by ParseMode for unrecognised names.
var ErrUnknownMode = errors.New("unknown mode")

// TagField is the front matter key that switches a run to tag collection.
const TagField = "catTags"

// Mode selects how the composed text relates to the active document.
type Mode string

const (
	// ModeReplace produces a document made only of the target sections.
	ModeReplace Mode = "replace"
	// ModeSplice inserts matched content under the existing headings and
	// keeps everything else.
	ModeSplice Mode = "splice"
)

// ParseMode validates a mode name. The empty string means ModeReplace.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeReplace:
		return ModeReplace, nil
	case ModeSplice:
		return ModeSplice, nil
	default:
		return "", fmt.Errorf("%w %q (want replace or splice)", ErrUnknownMode, s)
	}
}

// Request describes one aggregation run.
type Request struct {
	ActivePath string
	Filter     vault.FilterConfig
	Mode       Mode
}

// Result is the outcome of a run. Content is the full text the active
// document should hold afterwards.
type Result struct {
	Content  string   `json:"content"`
	Original string   `json:"-"`
	Mode     Mode     `json:"mode"`
	TagMode  bool     `json:"tag_mode"`
	Targets  []string `json:"targets"`
	Sources  int      `json:"sources"`
	Matched  int      `json:"matched"`
}

// Aggregator runs aggregation against a vault.
type Aggregator struct {
	vault    vault.Vault
	log      *slog.Logger
	maxReads int
}

// New creates an Aggregator reading at most maxReads documents at once.
func New(v vault.Vault, log *slog.Logger, maxReads int) *Aggregator {
	if maxReads <= 0 {
		maxReads = 8
	}
	if log == nil {
		log = slog.Default()
	}
	return &Aggregator{vault: v, log: log, maxReads: maxReads}
}

// Run composes the active document. Source documents are never modified and
// nothing is written; callers decide what to do with Result.Content.
func (a *Aggregator) Run(ctx context.Context, req Request) (*Result, error) {
	active := vault.Clean(req.ActivePath)
	if active == "" {
		return nil, ErrNoActiveDocument
	}
	mode := req.Mode
	if mode == "" {
		mode = ModeReplace
	}
	log := a.log.With("active", active, "mode", string(mode))

	original, err := a.vault.Read(ctx, active)
	if err != nil {
		if errors.Is(err, vault.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNoActiveDocument, active)
		}
		return nil, fmt.Errorf("read active document: %w", err)
	}

	files, err := vault.Resolve(ctx, a.vault, req.Filter)
	if err != nil {
		return nil, fmt.Errorf("resolve sources: %w", err)
	}
	sources := make([]vault.File, 0, len(files))
	for _, f := range files {
		if f.Path != active {
			sources = append(sources, f)
		}
	}
	if len(sources) == 0 {
		log.Warn("no source documents matched", "filter_mode", string(req.Filter.Mode))
	}

	contents, err := a.readAll(ctx, sources)
	if err != nil {
		return nil, err
	}

	res := &Result{Original: original, Mode: mode, Sources: len(sources)}

	fm := parser.ExtractFrontMatter(original)
	if tags, ok := fm.Get(TagField); ok {
		tl := parser.NewTagLines(tags)
		for _, text := range contents {
			tl.Scan(text)
		}
		res.TagMode = true
		res.Targets = tl.Tags()
		for _, tag := range res.Targets {
			res.Matched += len(tl.Lines(tag))
		}
		res.Content = fm.Raw + "\n" + tl.Render()
		log.Info("tag aggregation complete", "sources", res.Sources, "tags", len(res.Targets), "lines", res.Matched)
		return res, nil
	}

	targets := doctree.NewTargetSet(parser.TargetHeadings(original))
	synthetic := targets.Len() == 0
	if synthetic {
		targets.Add(parser.Title(active))
	}
	res.Matched = match(targets, sources, contents)
	res.Targets = targets.Keys()

	bodies := renderBodies(targets)
	switch mode {
	case ModeSplice:
		res.Content = splice(original, targets, bodies, synthetic)
	default:
		res.Content = renderReplace(targets, bodies)
	}

	log.Info("aggregation complete", "sources", res.Sources, "targets", targets.Len(), "matched", res.Matched)
	return res, nil
}

// match segments every source at the second heading level and appends each
// section to every target whose text it contains, ignoring case. It returns
// the number of (section, target) pairs recorded.
func match(targets *doctree.TargetSet, sources []vault.File, contents []string) int {
	keys := targets.Keys()
	lowered := make([]string, len(keys))
	for i, k := range keys {
		lowered[i] = strings.ToLower(k)
	}

	matched := 0
	for i, f := range sources {
		for _, s := range parser.Segment(contents[i], parser.MarkerH2, parser.Title(f.Path)) {
			if s.Heading == "" {
				continue
			}
			heading := strings.ToLower(s.Heading)
			for j, key := range keys {
				if strings.Contains(heading, lowered[j]) {
					targets.Append(key, s)
					matched++
				}
			}
		}
	}
	return matched
}

// readAll reads sources with bounded concurrency. The returned slice is
// index-aligned with sources regardless of completion order. Documents that
// vanished since listing read as empty.
func (a *Aggregator) readAll(ctx context.Context, sources []vault.File) ([]string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type readResult struct {
		idx  int
		text string
		err  error
	}
	results := make(chan readResult, len(sources))
	sem := make(chan struct{}, a.maxReads)

	for i, f := range sources {
		sem <- struct{}{}
		go func(i int, p string) {
			defer func() { <-sem }()
			text, err := a.vault.Read(ctx, p)
			results <- readResult{idx: i, text: text, err: err}
		}(i, f.Path)
	}

	contents := make([]string, len(sources))
	var firstErr error
	for range sources {
		r := <-results
		switch {
		case r.err == nil:
			contents[r.idx] = r.text
		case errors.Is(r.err, vault.ErrNotFound):
			a.log.Warn("source vanished", "path", sources[r.idx].Path)
		case firstErr == nil:
			firstErr = fmt.Errorf("read source %s: %w", sources[r.idx].Path, r.err)
			cancel()
		}
	}
	return contents, firstErr
}
