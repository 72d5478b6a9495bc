package importer

import (
	"github.com/pressgang/wpmigrate/internal/entities"
	"github.com/pressgang/wpmigrate/internal/parsers"
)

// Hooks lets calling code adjust entities before they are finalized.
// Each callback receives the in-progress entity and may mutate it; the
// entity has not been persisted yet. Hooks are optional: the importer
// falls back to NopHooks and behaves correctly without them.
type Hooks interface {
	BeforeCategory(c *entities.Category)
	BeforeTag(t *entities.Tag)
	BeforePost(item *parsers.Item, p *entities.Post)
	BeforeComment(c *entities.Comment)
}

// NopHooks is the default no-op Hooks implementation.
type NopHooks struct{}

func (NopHooks) BeforeCategory(*entities.Category) {}

func (NopHooks) BeforeTag(*entities.Tag) {}

func (NopHooks) BeforePost(*parsers.Item, *entities.Post) {}

func (NopHooks) BeforeComment(*entities.Comment) {}
