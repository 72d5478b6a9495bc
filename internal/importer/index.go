package importer

import (
	"strings"

	"github.com/pressgang/wpmigrate/internal/entities"
)

// Index is the in-memory dedupe lookup for a single run. Each entity
// type is keyed by its natural key (trimmed title for categories and
// tags) and by its source-platform id where one exists. Entries are
// either entities found in the destination store at seed time or
// entities created earlier in the same run, which is what keeps
// repeated references from producing duplicates.
type Index struct {
	categoriesByTitle map[string]*entities.Category
	categoriesByWPID  map[string]*entities.Category
	tagsByTitle       map[string]*entities.Tag
	tagsByWPID        map[string]*entities.Tag
	postsByWPID       map[string]*entities.Post
	commentWPIDs      map[string]struct{}
}

// NewIndex creates an empty Index.
func NewIndex() *Index {
	return &Index{
		categoriesByTitle: make(map[string]*entities.Category),
		categoriesByWPID:  make(map[string]*entities.Category),
		tagsByTitle:       make(map[string]*entities.Tag),
		tagsByWPID:        make(map[string]*entities.Tag),
		postsByWPID:       make(map[string]*entities.Post),
		commentWPIDs:      make(map[string]struct{}),
	}
}

func titleKey(title string) string {
	return strings.TrimSpace(title)
}

// Category returns the category registered under title, or nil.
func (ix *Index) Category(title string) *entities.Category {
	return ix.categoriesByTitle[titleKey(title)]
}

// CategoryByWordpressID returns the category registered under the
// source term id, or nil.
func (ix *Index) CategoryByWordpressID(id string) *entities.Category {
	if id == "" {
		return nil
	}
	return ix.categoriesByWPID[id]
}

// RegisterCategory stores c under its title and, when present, its
// source term id.
func (ix *Index) RegisterCategory(c *entities.Category) {
	ix.categoriesByTitle[titleKey(c.Title)] = c
	if c.WordpressID != "" {
		ix.categoriesByWPID[c.WordpressID] = c
	}
}

// Tag returns the tag registered under title, or nil.
func (ix *Index) Tag(title string) *entities.Tag {
	return ix.tagsByTitle[titleKey(title)]
}

// TagByWordpressID returns the tag registered under the source term
// id, or nil.
func (ix *Index) TagByWordpressID(id string) *entities.Tag {
	if id == "" {
		return nil
	}
	return ix.tagsByWPID[id]
}

// RegisterTag stores t under its title and, when present, its source
// term id.
func (ix *Index) RegisterTag(t *entities.Tag) {
	ix.tagsByTitle[titleKey(t.Title)] = t
	if t.WordpressID != "" {
		ix.tagsByWPID[t.WordpressID] = t
	}
}

// Post returns the post registered under the source post id, or nil.
func (ix *Index) Post(wordpressID string) *entities.Post {
	if wordpressID == "" {
		return nil
	}
	return ix.postsByWPID[wordpressID]
}

// RegisterPost stores p under its source post id.
func (ix *Index) RegisterPost(p *entities.Post) {
	if p.WordpressID != "" {
		ix.postsByWPID[p.WordpressID] = p
	}
}

// HasComment reports whether a comment with the given source id was
// already imported, either in an earlier run or earlier in this one.
func (ix *Index) HasComment(wordpressID string) bool {
	_, ok := ix.commentWPIDs[wordpressID]
	return ok
}

// RegisterComment marks a comment source id as imported.
func (ix *Index) RegisterComment(wordpressID string) {
	if wordpressID != "" {
		ix.commentWPIDs[wordpressID] = struct{}{}
	}
}
