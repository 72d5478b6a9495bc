package database

import (
	"errors"

	"gorm.io/gorm"

	"github.com/pressgang/wpmigrate/internal/entities"
)

// Find methods used to seed the importer's dedupe index.

// Categories returns all categories belonging to a blog.
func (d *Database) Categories(blogID uint) ([]entities.Category, error) {
	var cats []entities.Category
	if err := d.DB.Where("blog_id = ?", blogID).Find(&cats).Error; err != nil {
		return nil, storeErr("find categories", err)
	}
	return cats, nil
}

// Tags returns all tags belonging to a blog.
func (d *Database) Tags(blogID uint) ([]entities.Tag, error) {
	var tags []entities.Tag
	if err := d.DB.Where("blog_id = ?", blogID).Find(&tags).Error; err != nil {
		return nil, storeErr("find tags", err)
	}
	return tags, nil
}

// Posts returns all posts belonging to a blog.
func (d *Database) Posts(blogID uint) ([]entities.Post, error) {
	var posts []entities.Post
	if err := d.DB.Where("blog_id = ?", blogID).Find(&posts).Error; err != nil {
		return nil, storeErr("find posts", err)
	}
	return posts, nil
}

// CommentWordpressIDs returns the source ids of every comment imported
// into a blog's posts.
func (d *Database) CommentWordpressIDs(blogID uint) ([]string, error) {
	var ids []string
	err := d.DB.Model(&entities.Comment{}).
		Joins("JOIN posts ON posts.id = comments.post_id").
		Where("posts.blog_id = ? AND comments.wordpress_id <> ''", blogID).
		Pluck("comments.wordpress_id", &ids).Error
	if err != nil {
		return nil, storeErr("find comment ids", err)
	}
	return ids, nil
}

// AssetByLocalPath returns the asset recorded for a local path, or nil
// when none exists.
func (d *Database) AssetByLocalPath(localPath string) (*entities.Asset, error) {
	var asset entities.Asset
	err := d.DB.Where("local_path = ?", localPath).First(&asset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("find asset", err)
	}
	return &asset, nil
}

// Persistence methods. Only the import orchestrator calls these, and
// only in commit mode.

// SaveCategory persists a new category.
func (d *Database) SaveCategory(c *entities.Category) error {
	if err := d.DB.Create(c).Error; err != nil {
		return storeErr("save category", err)
	}
	return nil
}

// SaveTag persists a new tag.
func (d *Database) SaveTag(t *entities.Tag) error {
	if err := d.DB.Create(t).Error; err != nil {
		return storeErr("save tag", err)
	}
	return nil
}

// SavePost persists a new post along with its category and tag links.
// The associated categories and tags were persisted by their own
// phases, so only the join rows are new here.
func (d *Database) SavePost(p *entities.Post) error {
	if err := d.DB.Create(p).Error; err != nil {
		return storeErr("save post", err)
	}
	return nil
}

// UpdatePost rewrites an existing post, used for the featured-asset
// link once assets are resolved.
func (d *Database) UpdatePost(p *entities.Post) error {
	if err := d.DB.Save(p).Error; err != nil {
		return storeErr("update post", err)
	}
	return nil
}

// SaveComment persists a new comment.
func (d *Database) SaveComment(c *entities.Comment) error {
	if err := d.DB.Create(c).Error; err != nil {
		return storeErr("save comment", err)
	}
	return nil
}

// SaveAsset persists a new asset record.
func (d *Database) SaveAsset(a *entities.Asset) error {
	if err := d.DB.Create(a).Error; err != nil {
		return storeErr("save asset", err)
	}
	return nil
}
