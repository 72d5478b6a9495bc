package importer

import (
	"errors"
	"log"
	"strings"

	"github.com/gosimple/slug"

	"github.com/pressgang/wpmigrate/internal/entities"
	"github.com/pressgang/wpmigrate/internal/parsers"
)

// Item-level validation failures. Each skips one node and becomes a
// diagnostic; the run continues.
var (
	errMissingTitle  = errors.New("missing title")
	errMissingPostID = errors.New("missing post id")
)

const commentStatusOpen = "open"

// slugFor prefers the slug declared in the export and falls back to
// one derived from the title.
func slugFor(declared, title string) string {
	if declared != "" {
		return declared
	}
	return slug.Make(title)
}

// importCategories imports the channel-level category declarations.
func (r *run) importCategories(decls []parsers.TermDecl) error {
	for _, decl := range decls {
		if _, err := r.importCategory(decl.Title, decl.Slug, decl.WordpressID); err != nil {
			return err
		}
	}
	return nil
}

// importCategory resolves one category reference: an index hit returns
// the known entity, a miss builds, registers and (in commit mode)
// persists a new one. Item-level category terms go through the same
// path, so a post-level reference to a known category never creates a
// duplicate.
func (r *run) importCategory(title, declaredSlug, wordpressID string) (*entities.Category, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		r.diag(KindCategory, wordpressID, errMissingTitle)
		return nil, nil
	}

	if existing := r.index.Category(title); existing != nil {
		return existing, nil
	}
	if existing := r.index.CategoryByWordpressID(wordpressID); existing != nil {
		return existing, nil
	}

	cat := &entities.Category{
		BlogID:      r.imp.blogID,
		Title:       title,
		URLSegment:  slugFor(declaredSlug, title),
		WordpressID: wordpressID,
	}
	r.imp.hooks.BeforeCategory(cat)

	ok, err := r.persist(KindCategory, cat.Title, func() error {
		return r.imp.store.SaveCategory(cat)
	})
	if err != nil {
		return nil, err
	}

	r.index.RegisterCategory(cat)
	if ok {
		r.created.categories = append(r.created.categories, cat)
		if r.imp.verbose {
			log.Printf("Category %q imported", cat.Title)
		}
	}
	return cat, nil
}

// importTags imports the channel-level tag declarations.
func (r *run) importTags(decls []parsers.TermDecl) error {
	for _, decl := range decls {
		if _, err := r.importTag(decl.Title, decl.Slug, decl.WordpressID); err != nil {
			return err
		}
	}
	return nil
}

// importTag mirrors importCategory for tags.
func (r *run) importTag(title, declaredSlug, wordpressID string) (*entities.Tag, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		r.diag(KindTag, wordpressID, errMissingTitle)
		return nil, nil
	}

	if existing := r.index.Tag(title); existing != nil {
		return existing, nil
	}
	if existing := r.index.TagByWordpressID(wordpressID); existing != nil {
		return existing, nil
	}

	tag := &entities.Tag{
		BlogID:      r.imp.blogID,
		Title:       title,
		URLSegment:  slugFor(declaredSlug, title),
		WordpressID: wordpressID,
	}
	r.imp.hooks.BeforeTag(tag)

	ok, err := r.persist(KindTag, tag.Title, func() error {
		return r.imp.store.SaveTag(tag)
	})
	if err != nil {
		return nil, err
	}

	r.index.RegisterTag(tag)
	if ok {
		r.created.tags = append(r.created.tags, tag)
		if r.imp.verbose {
			log.Printf("Tag %q imported", tag.Title)
		}
	}
	return tag, nil
}

// importPosts imports every post item, wiring up its category and tag
// terms and importing its comments. Items of other types and posts
// whose source id is already known are skipped; a skipped post's
// comments are not processed.
func (r *run) importPosts(items []parsers.Item) error {
	for i := range items {
		item := &items[i]
		if item.Type != parsers.ItemTypePost {
			continue
		}
		if item.WordpressID == "" {
			r.diag(KindPost, strings.TrimSpace(item.Title), errMissingPostID)
			continue
		}
		if r.index.Post(item.WordpressID) != nil {
			continue
		}

		title := strings.TrimSpace(item.Title)
		if title == "" {
			r.diag(KindPost, item.WordpressID, errMissingTitle)
			continue
		}

		post := &entities.Post{
			BlogID:          r.imp.blogID,
			WordpressID:     item.WordpressID,
			Title:           title,
			MetaTitle:       title,
			MetaDescription: strings.TrimSpace(item.Excerpt),
			URLSegment:      slugFor(item.Slug, title),
			Content:         r.imp.normalizer.Normalize(item.Content),
			Published:       item.Status == entities.PostStatusPublish,
			ProvideComments: item.CommentStatus == commentStatusOpen,
		}

		date, err := item.PublishDate()
		if err != nil {
			// Recorded, but the post is still imported with no date.
			r.diag(KindPost, item.WordpressID, err)
		}
		post.PublishDate = date

		if err := r.attachTerms(item, post); err != nil {
			return err
		}

		r.imp.hooks.BeforePost(item, post)

		ok, err := r.persist(KindPost, post.Title, func() error {
			return r.imp.store.SavePost(post)
		})
		if err != nil {
			return err
		}

		r.index.RegisterPost(post)

		// A post that failed to persist has no row for dependents to
		// reference: its comments are skipped and it takes no part in
		// featured-asset linking. The next run retries all of it.
		if !ok {
			continue
		}

		r.runPosts[post.WordpressID] = post
		r.created.posts = append(r.created.posts, post)
		if r.imp.verbose {
			log.Printf("Post %q imported", post.Title)
		}

		if err := r.importComments(item, post); err != nil {
			return err
		}
	}
	return nil
}

// attachTerms resolves the item-level category and tag references
// through the shared index, creating entities for terms that only
// appear at the post level.
func (r *run) attachTerms(item *parsers.Item, post *entities.Post) error {
	for _, term := range item.Terms {
		switch term.Domain {
		case parsers.TermDomainTag:
			tag, err := r.importTag(term.Title, term.Slug, "")
			if err != nil {
				return err
			}
			if tag != nil {
				post.Tags = append(post.Tags, *tag)
			}
		case parsers.TermDomainCategory:
			cat, err := r.importCategory(term.Title, term.Slug, "")
			if err != nil {
				return err
			}
			if cat != nil {
				post.Categories = append(post.Categories, *cat)
			}
		}
	}
	return nil
}

// importComments imports the comments attached to a post item. It is
// only reached for posts that were not skipped, so comments of an
// already-imported post are never processed.
func (r *run) importComments(item *parsers.Item, post *entities.Post) error {
	for _, node := range item.Comments {
		if node.WordpressID != "" && r.index.HasComment(node.WordpressID) {
			continue
		}

		comment := &entities.Comment{
			PostID:      post.ID,
			WordpressID: node.WordpressID,
			Author:      strings.TrimSpace(node.Author),
			Email:       node.Email,
			URL:         node.URL,
			Body:        node.Body,
			PostedAt:    node.PostedAt(),
			Moderated:   node.Approved != "",
		}
		r.imp.hooks.BeforeComment(comment)

		ref := comment.WordpressID
		if ref == "" {
			ref = comment.Author
		}
		ok, err := r.persist(KindComment, ref, func() error {
			return r.imp.store.SaveComment(comment)
		})
		if err != nil {
			return err
		}

		r.index.RegisterComment(node.WordpressID)
		if ok {
			r.created.comments = append(r.created.comments, comment)
		}
	}
	return nil
}
