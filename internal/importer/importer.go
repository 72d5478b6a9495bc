// Package importer drives a WordPress export into the destination
// blog store. A run is single-pass and phase-ordered: seed the dedupe
// index from the store, then categories, tags, posts (with their terms
// and comments), then media assets and featured-image links. The same
// decision logic runs in simulate and commit mode; only persistence
// and network transfers are gated on the mode, so a simulate report
// previews exactly what a commit would do.
package importer

import (
	"errors"
	"fmt"
	"log"

	"github.com/pressgang/wpmigrate/internal/content"
	"github.com/pressgang/wpmigrate/internal/entities"
	"github.com/pressgang/wpmigrate/internal/parsers"
)

// Mode fixes whether a run persists and fetches. It never changes
// within a run.
type Mode string

const (
	ModeSimulate Mode = "simulate"
	ModeCommit   Mode = "commit"
)

// Commits reports whether this mode writes to the store and performs
// network transfers.
func (m Mode) Commits() bool {
	return m == ModeCommit
}

// Options adjusts importer behavior. The zero value is a full import
// with no hooks.
type Options struct {
	Hooks      Hooks // nil means NopHooks
	SkipAssets bool  // skip the media fetch phase entirely
	Verbose    bool  // log each created entity
}

// Importer imports WordPress export documents for one destination
// blog. It is safe to run multiple documents through the same Importer
// sequentially; all per-run state lives on the run.
type Importer struct {
	store      Store
	resolver   AssetResolver
	normalizer *content.Normalizer
	blogID     uint
	hooks      Hooks
	skipAssets bool
	verbose    bool
}

// New creates an Importer writing into the blog identified by blogID.
func New(store Store, resolver AssetResolver, normalizer *content.Normalizer, blogID uint, opts Options) *Importer {
	hooks := opts.Hooks
	if hooks == nil {
		hooks = NopHooks{}
	}
	return &Importer{
		store:      store,
		resolver:   resolver,
		normalizer: normalizer,
		blogID:     blogID,
		hooks:      hooks,
		skipAssets: opts.SkipAssets,
		verbose:    opts.Verbose,
	}
}

// Simulate performs every import decision against doc without
// persisting anything or touching the network.
func (imp *Importer) Simulate(doc *parsers.Document) (*Report, error) {
	return imp.run(doc, ModeSimulate)
}

// Commit imports doc: new entities are persisted and missing media
// files are fetched.
func (imp *Importer) Commit(doc *parsers.Document) (*Report, error) {
	return imp.run(doc, ModeCommit)
}

// run is the single point that owns phase order, the dedupe index and
// the created accumulation.
type run struct {
	imp      *Importer
	mode     Mode
	index    *Index
	created  created
	diags    []Diagnostic
	runPosts map[string]*entities.Post // posts created this run, by source post id

	// assets resolved this run, by local path, so a duplicated
	// attachment node makes the same decision both modes would.
	runAssets map[string]*entities.Asset
}

func (imp *Importer) run(doc *parsers.Document, mode Mode) (*Report, error) {
	if doc == nil || doc.Channel == nil {
		return nil, parsers.ErrMissingChannel
	}

	r := &run{
		imp:       imp,
		mode:      mode,
		index:     NewIndex(),
		runPosts:  make(map[string]*entities.Post),
		runAssets: make(map[string]*entities.Asset),
	}

	if err := r.seed(); err != nil {
		return nil, err
	}
	if err := r.importCategories(doc.Channel.Categories); err != nil {
		return nil, err
	}
	if err := r.importTags(doc.Channel.Tags); err != nil {
		return nil, err
	}
	if err := r.importPosts(doc.Channel.Items); err != nil {
		return nil, err
	}
	if !imp.skipAssets {
		if err := r.importAssets(doc.Channel.Items); err != nil {
			return nil, err
		}
	}

	return &Report{
		Counts:      summarize(&r.created),
		Diagnostics: r.diags,
	}, nil
}

// seed registers everything already present in the destination blog so
// a re-run of the same document creates nothing. A store failure here
// is fatal: without the seed no dedupe guarantee can be given.
func (r *run) seed() error {
	cats, err := r.imp.store.Categories(r.imp.blogID)
	if err != nil {
		return fmt.Errorf("seed categories: %w", err)
	}
	for i := range cats {
		r.index.RegisterCategory(&cats[i])
	}

	tags, err := r.imp.store.Tags(r.imp.blogID)
	if err != nil {
		return fmt.Errorf("seed tags: %w", err)
	}
	for i := range tags {
		r.index.RegisterTag(&tags[i])
	}

	posts, err := r.imp.store.Posts(r.imp.blogID)
	if err != nil {
		return fmt.Errorf("seed posts: %w", err)
	}
	for i := range posts {
		r.index.RegisterPost(&posts[i])
	}

	commentIDs, err := r.imp.store.CommentWordpressIDs(r.imp.blogID)
	if err != nil {
		return fmt.Errorf("seed comments: %w", err)
	}
	for _, id := range commentIDs {
		r.index.RegisterComment(id)
	}

	return nil
}

// diag records a non-fatal per-item problem.
func (r *run) diag(kind Kind, ref string, err error) {
	r.diags = append(r.diags, Diagnostic{Kind: kind, Ref: ref, Err: err})
	log.Printf("Import %s %q skipped: %v", kind, ref, err)
}

// persist runs save in commit mode. It reports whether the entity
// counts as created: simulate always counts, a store failure records a
// diagnostic and does not. Only a store-unavailable failure is
// returned, and it aborts the run.
func (r *run) persist(kind Kind, ref string, save func() error) (bool, error) {
	if !r.mode.Commits() {
		return true, nil
	}
	if err := save(); err != nil {
		if errors.Is(err, ErrStoreUnavailable) {
			return false, err
		}
		r.diag(kind, ref, err)
		return false, nil
	}
	return true, nil
}
