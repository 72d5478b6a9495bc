package database

import (
	"log"

	"github.com/pressgang/wpmigrate/internal/entities"
)

// DeleteResult counts the rows removed by a cleanup operation.
type DeleteResult struct {
	Categories int64
	Tags       int64
	Posts      int64
	Comments   int64
}

// DeletePosts removes every imported post for a blog together with its
// comments, category/tag links, and the blog's categories and tags
// themselves. Fetched media files stay on disk. Used to reverse an
// import before re-running it.
func (d *Database) DeletePosts(blogID uint, verbose bool) (DeleteResult, error) {
	var result DeleteResult

	var postIDs []uint
	err := d.DB.Model(&entities.Post{}).Where("blog_id = ?", blogID).Pluck("id", &postIDs).Error
	if err != nil {
		return result, storeErr("list posts", err)
	}

	if len(postIDs) > 0 {
		res := d.DB.Where("post_id IN ?", postIDs).Delete(&entities.Comment{})
		if res.Error != nil {
			return result, storeErr("delete comments", res.Error)
		}
		result.Comments = res.RowsAffected

		if err := d.DB.Exec("DELETE FROM post_categories WHERE post_id IN ?", postIDs).Error; err != nil {
			return result, storeErr("delete category links", err)
		}
		if err := d.DB.Exec("DELETE FROM post_tags WHERE post_id IN ?", postIDs).Error; err != nil {
			return result, storeErr("delete tag links", err)
		}
	}

	res := d.DB.Where("blog_id = ?", blogID).Delete(&entities.Category{})
	if res.Error != nil {
		return result, storeErr("delete categories", res.Error)
	}
	result.Categories = res.RowsAffected

	res = d.DB.Where("blog_id = ?", blogID).Delete(&entities.Tag{})
	if res.Error != nil {
		return result, storeErr("delete tags", res.Error)
	}
	result.Tags = res.RowsAffected

	res = d.DB.Where("blog_id = ?", blogID).Delete(&entities.Post{})
	if res.Error != nil {
		return result, storeErr("delete posts", res.Error)
	}
	result.Posts = res.RowsAffected

	if verbose {
		log.Printf("Deleted %d posts, %d comments, %d categories, %d tags",
			result.Posts, result.Comments, result.Categories, result.Tags)
	}

	return result, nil
}

// DeleteComments removes every comment on a blog's posts, leaving the
// posts in place.
func (d *Database) DeleteComments(blogID uint) (int64, error) {
	var postIDs []uint
	err := d.DB.Model(&entities.Post{}).Where("blog_id = ?", blogID).Pluck("id", &postIDs).Error
	if err != nil {
		return 0, storeErr("list posts", err)
	}
	if len(postIDs) == 0 {
		return 0, nil
	}

	res := d.DB.Where("post_id IN ?", postIDs).Delete(&entities.Comment{})
	if res.Error != nil {
		return 0, storeErr("delete comments", res.Error)
	}
	return res.RowsAffected, nil
}
