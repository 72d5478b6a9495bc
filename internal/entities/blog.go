package entities

import (
	"time"
)

// PostStatus values carried by a WordPress export item.
const (
	PostStatusPublish = "publish"
	PostStatusDraft   = "draft"
)

// Blog is the destination scope for an import. All dedupe keys are
// unique per blog, not globally.
type Blog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:256" json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// Category is a blog category. Title is the natural dedupe key within
// a blog; WordpressID is the source platform's term id.
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	BlogID      uint      `gorm:"uniqueIndex:idx_categories_blog_title" json:"blog_id"`
	Title       string    `gorm:"uniqueIndex:idx_categories_blog_title;size:256" json:"title"`
	URLSegment  string    `gorm:"size:256" json:"url_segment"`
	WordpressID string    `gorm:"size:64" json:"wordpress_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Tag is a blog tag, deduped the same way as Category.
type Tag struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	BlogID      uint      `gorm:"uniqueIndex:idx_tags_blog_title" json:"blog_id"`
	Title       string    `gorm:"uniqueIndex:idx_tags_blog_title;size:256" json:"title"`
	URLSegment  string    `gorm:"size:256" json:"url_segment"`
	WordpressID string    `gorm:"size:64" json:"wordpress_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Post is an imported blog post. WordpressID (the export's post_id) is
// the dedupe key: a post whose id already exists for the blog is
// skipped entirely on re-import.
type Post struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	BlogID          uint       `gorm:"uniqueIndex:idx_posts_blog_wpid" json:"blog_id"`
	WordpressID     string     `gorm:"uniqueIndex:idx_posts_blog_wpid;size:64" json:"wordpress_id"`
	Title           string     `gorm:"size:512" json:"title"`
	MetaTitle       string     `gorm:"size:512" json:"meta_title,omitempty"`
	MetaDescription string     `json:"meta_description,omitempty"`
	URLSegment      string     `gorm:"size:256" json:"url_segment"`
	Content         string     `json:"content"`
	PublishDate     time.Time  `json:"publish_date"`
	Published       bool       `json:"published"`
	ProvideComments bool       `json:"provide_comments"`
	FeaturedAssetID *uint      `json:"featured_asset_id,omitempty"`
	FeaturedAsset   *Asset     `gorm:"foreignKey:FeaturedAssetID" json:"featured_asset,omitempty"`
	Categories      []Category `gorm:"many2many:post_categories;" json:"categories,omitempty"`
	Tags            []Tag      `gorm:"many2many:post_tags;" json:"tags,omitempty"`
	Comments        []Comment  `gorm:"foreignKey:PostID" json:"comments,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Comment belongs to an imported post. PostedAt is the timestamp from
// the source platform; CreatedAt is when the row was written here.
type Comment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PostID      uint      `gorm:"index" json:"post_id"`
	WordpressID string    `gorm:"index;size:64" json:"wordpress_id"`
	Author      string    `gorm:"size:256" json:"author"`
	Email       string    `gorm:"size:256" json:"email,omitempty"`
	URL         string    `gorm:"size:2048" json:"url,omitempty"`
	Body        string    `json:"body"`
	PostedAt    time.Time `json:"posted_at"`
	Moderated   bool      `json:"moderated"`
	CreatedAt   time.Time `json:"created_at"`
}

// Asset records a media file pulled from the source platform. Identity
// is the derived local path: an existing path means the file was
// already fetched and no transfer happens.
type Asset struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	LocalPath  string    `gorm:"uniqueIndex;size:1024" json:"local_path"`
	SourceURL  string    `gorm:"size:2048" json:"source_url"`
	ParentWPID string    `gorm:"size:64" json:"parent_wp_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
