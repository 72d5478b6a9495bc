package importer

import (
	"errors"

	"github.com/pressgang/wpmigrate/internal/assets"
	"github.com/pressgang/wpmigrate/internal/entities"
)

// ErrStoreUnavailable marks a destination-store failure the run cannot
// work around. Store implementations wrap it when the store as a whole
// is gone (closed handle, unreachable database); the orchestrator
// aborts the run instead of turning every remaining item into a
// diagnostic.
var ErrStoreUnavailable = errors.New("importer: destination store unavailable")

// Store is the destination the import writes to. The find methods seed
// the dedupe index at run start; the save methods are called only by
// the orchestrator, and only in commit mode.
type Store interface {
	Categories(blogID uint) ([]entities.Category, error)
	Tags(blogID uint) ([]entities.Tag, error)
	Posts(blogID uint) ([]entities.Post, error)
	CommentWordpressIDs(blogID uint) ([]string, error)
	AssetByLocalPath(localPath string) (*entities.Asset, error)

	SaveCategory(c *entities.Category) error
	SaveTag(t *entities.Tag) error
	SavePost(p *entities.Post) error
	UpdatePost(p *entities.Post) error
	SaveComment(c *entities.Comment) error
	SaveAsset(a *entities.Asset) error
}

// AssetResolver decides where a remote media file lives locally and
// whether it needs fetching. Implemented by assets.Resolver.
type AssetResolver interface {
	LocalPath(sourceURL string) (string, error)
	Resolve(sourceURL string, transfer bool) (assets.Result, error)
}
