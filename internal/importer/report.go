package importer

import (
	"fmt"

	"github.com/pressgang/wpmigrate/internal/entities"
)

// Kind identifies an entity type in reports and diagnostics. The set
// is closed: every created entity belongs to exactly one Kind.
type Kind string

const (
	KindCategory Kind = "category"
	KindTag      Kind = "tag"
	KindPost     Kind = "post"
	KindComment  Kind = "comment"
	KindFile     Kind = "file"
)

// Kinds lists every Kind in phase order, for stable report output.
var Kinds = []Kind{KindCategory, KindTag, KindPost, KindComment, KindFile}

var kindLabels = map[Kind]string{
	KindCategory: "Categories",
	KindTag:      "Tags",
	KindPost:     "Posts",
	KindComment:  "Comments",
	KindFile:     "Files",
}

// Label returns the plural display name for the kind.
func (k Kind) Label() string {
	if label, ok := kindLabels[k]; ok {
		return label
	}
	return string(k)
}

// Entry is the per-type summary in a Report.
type Entry struct {
	Count int    `json:"count"`
	Label string `json:"label"`
}

// Diagnostic records a non-fatal problem with a single item. The run
// continues past it; the operator sees the full list in the Report.
type Diagnostic struct {
	Kind Kind
	Ref  string // item title, source id or URL, whatever identifies the node
	Err  error
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s %q: %v", d.Kind, d.Ref, d.Err)
}

// Report is the outcome of a run: how many entities each phase
// created, plus any per-item diagnostics collected along the way.
// Simulate and commit runs over the same document and starting state
// produce identical Counts.
type Report struct {
	Counts      map[Kind]Entry `json:"counts"`
	Diagnostics []Diagnostic   `json:"diagnostics,omitempty"`
}

// Count returns the created count for a kind, zero when the kind does
// not appear in the report.
func (r *Report) Count(k Kind) int {
	return r.Counts[k].Count
}

// created is the run's accumulation of new entities, owned by the
// orchestrator. In simulate mode these never reach the store.
type created struct {
	categories []*entities.Category
	tags       []*entities.Tag
	posts      []*entities.Post
	comments   []*entities.Comment
	assets     []*entities.Asset
}

// summarize tallies the created accumulation into report entries.
// Kinds with nothing created are left out, matching the shape the
// operator expects: only what the run actually produced.
func summarize(c *created) map[Kind]Entry {
	counts := make(map[Kind]Entry)
	add := func(k Kind, n int) {
		if n > 0 {
			counts[k] = Entry{Count: n, Label: k.Label()}
		}
	}
	add(KindCategory, len(c.categories))
	add(KindTag, len(c.tags))
	add(KindPost, len(c.posts))
	add(KindComment, len(c.comments))
	add(KindFile, len(c.assets))
	return counts
}
