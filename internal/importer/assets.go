package importer

import (
	"errors"
	"log"

	"github.com/pressgang/wpmigrate/internal/entities"
	"github.com/pressgang/wpmigrate/internal/parsers"
)

// assetLink is a featured-image candidate: the attachment's declared
// parent post id and the asset it resolved to.
type assetLink struct {
	parentWPID string
	asset      *entities.Asset
}

// importAssets resolves every attachment URL in the document, fetching
// (or, in simulate mode, deciding it would fetch) files missing from
// disk, then links resolved assets to the posts created this run.
// Linking runs strictly after all transfers so a post is never updated
// while its asset is still in flight. Fetch failures skip the asset
// and the run continues.
func (r *run) importAssets(items []parsers.Item) error {
	var links []assetLink

	for i := range items {
		item := &items[i]
		if item.AttachmentURL == "" {
			continue
		}

		asset, err := r.resolveAsset(item)
		if err != nil {
			return err
		}
		if asset == nil {
			continue
		}
		if item.ParentWPID != "" {
			links = append(links, assetLink{parentWPID: item.ParentWPID, asset: asset})
		}
	}

	return r.linkFeaturedAssets(links)
}

// resolveAsset resolves one attachment URL to a local asset. The
// result is nil when the asset had to be skipped (bad URL, failed
// fetch, failed persist); the diagnostic is already recorded.
func (r *run) resolveAsset(item *parsers.Item) (*entities.Asset, error) {
	sourceURL := item.AttachmentURL

	localPath, err := r.imp.resolver.LocalPath(sourceURL)
	if err != nil {
		r.diag(KindFile, sourceURL, err)
		return nil, nil
	}

	// A path already resolved this run is reused as-is, so a document
	// with two attachment nodes for the same file makes one decision.
	if asset, ok := r.runAssets[localPath]; ok {
		return asset, nil
	}

	res, err := r.imp.resolver.Resolve(sourceURL, r.mode.Commits())
	if err != nil {
		r.diag(KindFile, sourceURL, err)
		return nil, nil
	}

	var asset *entities.Asset
	if res.Fetched {
		asset = &entities.Asset{
			LocalPath:  res.LocalPath,
			SourceURL:  sourceURL,
			ParentWPID: item.ParentWPID,
		}
		ok, err := r.persist(KindFile, res.LocalPath, func() error {
			return r.imp.store.SaveAsset(asset)
		})
		if err != nil {
			return nil, err
		}
		if ok {
			r.created.assets = append(r.created.assets, asset)
			if r.imp.verbose {
				log.Printf("File %q imported", res.LocalPath)
			}
		}
	} else {
		asset, err = r.knownAsset(res.LocalPath, sourceURL, item.ParentWPID)
		if err != nil {
			return nil, err
		}
	}

	r.runAssets[res.LocalPath] = asset
	return asset, nil
}

// knownAsset returns the store's record for an already-present file,
// creating one when the file predates this tool. Not counted as
// created: the file was not fetched by this run.
func (r *run) knownAsset(localPath, sourceURL, parentWPID string) (*entities.Asset, error) {
	asset := &entities.Asset{
		LocalPath:  localPath,
		SourceURL:  sourceURL,
		ParentWPID: parentWPID,
	}

	if !r.mode.Commits() {
		return asset, nil
	}

	existing, err := r.imp.store.AssetByLocalPath(localPath)
	if err != nil {
		if errors.Is(err, ErrStoreUnavailable) {
			return nil, err
		}
		r.diag(KindFile, localPath, err)
		return asset, nil
	}
	if existing != nil {
		return existing, nil
	}

	if err := r.imp.store.SaveAsset(asset); err != nil {
		if errors.Is(err, ErrStoreUnavailable) {
			return nil, err
		}
		r.diag(KindFile, localPath, err)
	}
	return asset, nil
}

// linkFeaturedAssets sets the featured asset on every post created
// this run whose source id matches an attachment's declared parent.
// Posts imported by earlier runs are left alone.
func (r *run) linkFeaturedAssets(links []assetLink) error {
	for _, link := range links {
		post, ok := r.runPosts[link.parentWPID]
		if !ok {
			continue
		}

		post.FeaturedAsset = link.asset
		if link.asset.ID != 0 {
			id := link.asset.ID
			post.FeaturedAssetID = &id
		}

		if !r.mode.Commits() {
			continue
		}
		if err := r.imp.store.UpdatePost(post); err != nil {
			if errors.Is(err, ErrStoreUnavailable) {
				return err
			}
			r.diag(KindPost, post.Title, err)
		}
	}
	return nil
}
