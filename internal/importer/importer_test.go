package importer

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pressgang/wpmigrate/internal/assets"
	"github.com/pressgang/wpmigrate/internal/content"
	"github.com/pressgang/wpmigrate/internal/entities"
	"github.com/pressgang/wpmigrate/internal/parsers"
)

const testWXR = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"
	xmlns:content="http://purl.org/rss/1.0/modules/content/"
	xmlns:excerpt="http://wordpress.org/export/1.2/excerpt/"
	xmlns:wp="http://wordpress.org/export/1.2/">
<channel>
	<title>Example Blog</title>
	<wp:category>
		<wp:term_id>3</wp:term_id>
		<wp:category_nicename>news</wp:category_nicename>
		<wp:cat_name><![CDATA[News]]></wp:cat_name>
	</wp:category>
	<wp:tag>
		<wp:term_id>7</wp:term_id>
		<wp:tag_slug>golang</wp:tag_slug>
		<wp:tag_name><![CDATA[Golang]]></wp:tag_name>
	</wp:tag>
	<item>
		<title>Hello World</title>
		<category domain="category" nicename="news"><![CDATA[News]]></category>
		<category domain="category"><![CDATA[Projects]]></category>
		<category domain="post_tag" nicename="golang"><![CDATA[Golang]]></category>
		<content:encoded><![CDATA[First paragraph.

Second paragraph.]]></content:encoded>
		<excerpt:encoded><![CDATA[A short summary.]]></excerpt:encoded>
		<wp:post_id>42</wp:post_id>
		<wp:post_date_gmt>2014-03-05 10:30:00</wp:post_date_gmt>
		<wp:comment_status>open</wp:comment_status>
		<wp:post_name>hello-world</wp:post_name>
		<wp:status>publish</wp:status>
		<wp:post_type>post</wp:post_type>
		<wp:comment>
			<wp:comment_id>101</wp:comment_id>
			<wp:comment_author><![CDATA[Alice]]></wp:comment_author>
			<wp:comment_content><![CDATA[Nice post!]]></wp:comment_content>
			<wp:comment_date>2014-03-06 08:00:00</wp:comment_date>
			<wp:comment_approved>1</wp:comment_approved>
		</wp:comment>
		<wp:comment>
			<wp:comment_id>102</wp:comment_id>
			<wp:comment_author><![CDATA[Bob]]></wp:comment_author>
			<wp:comment_content><![CDATA[Awaiting moderation.]]></wp:comment_content>
			<wp:comment_approved></wp:comment_approved>
		</wp:comment>
	</item>
	<item>
		<title>Second Post</title>
		<wp:post_id>44</wp:post_id>
		<wp:comment_status>closed</wp:comment_status>
		<wp:post_name>second-post</wp:post_name>
		<wp:status>draft</wp:status>
		<wp:post_type>post</wp:post_type>
	</item>
	<item>
		<title>photo.jpg</title>
		<wp:post_id>43</wp:post_id>
		<wp:post_type>attachment</wp:post_type>
		<wp:post_parent>42</wp:post_parent>
		<wp:attachment_url>http://example.org/wp-content/uploads/2014/03/photo.jpg</wp:attachment_url>
	</item>
	<item>
		<title>About</title>
		<wp:post_id>50</wp:post_id>
		<wp:post_type>page</wp:post_type>
	</item>
</channel>
</rss>`

func parseTestDoc(t *testing.T) *parsers.Document {
	t.Helper()
	doc, err := parsers.ParseWXR(strings.NewReader(testWXR))
	require.NoError(t, err)
	return doc
}

// mockStore is an in-memory importer.Store. State persists across
// runs, so re-running against the same mockStore behaves like
// re-running against the same database.
type mockStore struct {
	categories []entities.Category
	tags       []entities.Tag
	posts      []entities.Post
	commentIDs []string
	comments   []entities.Comment
	assets     []entities.Asset

	saves  int
	nextID uint

	failFind       bool   // every find fails with ErrStoreUnavailable
	failSave       bool   // every save fails with ErrStoreUnavailable
	rejectCategory string // SaveCategory fails (recoverably) for this title
	rejectPosts    bool   // every SavePost fails recoverably
}

func newMockStore() *mockStore {
	return &mockStore{}
}

func (m *mockStore) id() uint {
	m.nextID++
	return m.nextID
}

func (m *mockStore) findErr() error {
	if m.failFind {
		return fmt.Errorf("find: %w", ErrStoreUnavailable)
	}
	return nil
}

func (m *mockStore) saveErr() error {
	if m.failSave {
		return fmt.Errorf("save: %w", ErrStoreUnavailable)
	}
	return nil
}

func (m *mockStore) Categories(blogID uint) ([]entities.Category, error) {
	if err := m.findErr(); err != nil {
		return nil, err
	}
	return append([]entities.Category(nil), m.categories...), nil
}

func (m *mockStore) Tags(blogID uint) ([]entities.Tag, error) {
	if err := m.findErr(); err != nil {
		return nil, err
	}
	return append([]entities.Tag(nil), m.tags...), nil
}

func (m *mockStore) Posts(blogID uint) ([]entities.Post, error) {
	if err := m.findErr(); err != nil {
		return nil, err
	}
	return append([]entities.Post(nil), m.posts...), nil
}

func (m *mockStore) CommentWordpressIDs(blogID uint) ([]string, error) {
	if err := m.findErr(); err != nil {
		return nil, err
	}
	return append([]string(nil), m.commentIDs...), nil
}

func (m *mockStore) AssetByLocalPath(localPath string) (*entities.Asset, error) {
	if err := m.findErr(); err != nil {
		return nil, err
	}
	for i := range m.assets {
		if m.assets[i].LocalPath == localPath {
			a := m.assets[i]
			return &a, nil
		}
	}
	return nil, nil
}

func (m *mockStore) SaveCategory(c *entities.Category) error {
	if err := m.saveErr(); err != nil {
		return err
	}
	if m.rejectCategory != "" && c.Title == m.rejectCategory {
		return errors.New("constraint violation")
	}
	m.saves++
	c.ID = m.id()
	m.categories = append(m.categories, *c)
	return nil
}

func (m *mockStore) SaveTag(t *entities.Tag) error {
	if err := m.saveErr(); err != nil {
		return err
	}
	m.saves++
	t.ID = m.id()
	m.tags = append(m.tags, *t)
	return nil
}

func (m *mockStore) SavePost(p *entities.Post) error {
	if err := m.saveErr(); err != nil {
		return err
	}
	if m.rejectPosts {
		return errors.New("constraint violation")
	}
	m.saves++
	p.ID = m.id()
	m.posts = append(m.posts, *p)
	return nil
}

func (m *mockStore) UpdatePost(p *entities.Post) error {
	if err := m.saveErr(); err != nil {
		return err
	}
	for i := range m.posts {
		if m.posts[i].ID == p.ID {
			m.posts[i] = *p
			return nil
		}
	}
	return errors.New("post not found")
}

func (m *mockStore) SaveComment(c *entities.Comment) error {
	if err := m.saveErr(); err != nil {
		return err
	}
	m.saves++
	c.ID = m.id()
	m.comments = append(m.comments, *c)
	if c.WordpressID != "" {
		m.commentIDs = append(m.commentIDs, c.WordpressID)
	}
	return nil
}

func (m *mockStore) SaveAsset(a *entities.Asset) error {
	if err := m.saveErr(); err != nil {
		return err
	}
	m.saves++
	a.ID = m.id()
	m.assets = append(m.assets, *a)
	return nil
}

func (m *mockStore) postByWordpressID(id string) *entities.Post {
	for i := range m.posts {
		if m.posts[i].WordpressID == id {
			return &m.posts[i]
		}
	}
	return nil
}

// mockResolver mimics assets.Resolver against a virtual filesystem.
type mockResolver struct {
	existing map[string]bool // local paths "on disk"
	failing  map[string]bool // source urls whose transfer fails
	fetched  []string
}

func newMockResolver() *mockResolver {
	return &mockResolver{
		existing: make(map[string]bool),
		failing:  make(map[string]bool),
	}
}

func (m *mockResolver) LocalPath(sourceURL string) (string, error) {
	u, err := url.Parse(sourceURL)
	if err != nil {
		return "", err
	}
	return path.Join("assets", u.Path), nil
}

func (m *mockResolver) Resolve(sourceURL string, transfer bool) (assets.Result, error) {
	localPath, err := m.LocalPath(sourceURL)
	if err != nil {
		return assets.Result{}, err
	}
	if m.existing[localPath] {
		return assets.Result{LocalPath: localPath, Fetched: false}, nil
	}
	if !transfer {
		return assets.Result{LocalPath: localPath, Fetched: true}, nil
	}
	if m.failing[sourceURL] {
		return assets.Result{}, errors.New("connection refused")
	}
	m.fetched = append(m.fetched, sourceURL)
	m.existing[localPath] = true
	return assets.Result{LocalPath: localPath, Fetched: true}, nil
}

func newTestImporter(store Store, resolver AssetResolver, opts Options) *Importer {
	return New(store, resolver, content.NewNormalizer("/assets/Uploads/"), 1, opts)
}

func TestImporter_Commit_CreatesEverything(t *testing.T) {
	store := newMockStore()
	imp := newTestImporter(store, newMockResolver(), Options{})

	report, err := imp.Commit(parseTestDoc(t))

	require.NoError(t, err)
	assert.Empty(t, report.Diagnostics)
	assert.Equal(t, 2, report.Count(KindCategory), "News plus inline-only Projects")
	assert.Equal(t, 1, report.Count(KindTag))
	assert.Equal(t, 2, report.Count(KindPost))
	assert.Equal(t, 2, report.Count(KindComment))
	assert.Equal(t, 1, report.Count(KindFile))

	post := store.postByWordpressID("42")
	require.NotNil(t, post)
	assert.Equal(t, uint(1), post.BlogID)
	assert.Equal(t, "Hello World", post.Title)
	assert.Equal(t, "Hello World", post.MetaTitle)
	assert.Equal(t, "A short summary.", post.MetaDescription)
	assert.Equal(t, "hello-world", post.URLSegment)
	assert.Equal(t, "<p>First paragraph.</p><p>Second paragraph.</p>", post.Content)
	assert.True(t, post.Published)
	assert.True(t, post.ProvideComments)
	assert.Len(t, post.Categories, 2)
	assert.Len(t, post.Tags, 1)

	draft := store.postByWordpressID("44")
	require.NotNil(t, draft)
	assert.False(t, draft.Published)
	assert.False(t, draft.ProvideComments)
	assert.True(t, draft.PublishDate.IsZero())

	require.Len(t, store.comments, 2)
	assert.Equal(t, "Alice", store.comments[0].Author)
	assert.True(t, store.comments[0].Moderated)
	assert.False(t, store.comments[1].Moderated, "empty approved field means unmoderated")

	require.Len(t, store.assets, 1)
	assert.Equal(t, "http://example.org/wp-content/uploads/2014/03/photo.jpg", store.assets[0].SourceURL)
}

func TestImporter_InlineTermsGetDerivedSlugs(t *testing.T) {
	store := newMockStore()
	imp := newTestImporter(store, newMockResolver(), Options{})

	_, err := imp.Commit(parseTestDoc(t))
	require.NoError(t, err)

	var projects *entities.Category
	for i := range store.categories {
		if store.categories[i].Title == "Projects" {
			projects = &store.categories[i]
		}
	}
	require.NotNil(t, projects)
	assert.Equal(t, "projects", projects.URLSegment, "no nicename in the export, slug derived from title")
}

func TestImporter_SimulateCommitParity(t *testing.T) {
	doc := parseTestDoc(t)

	simStore := newMockStore()
	simReport, err := newTestImporter(simStore, newMockResolver(), Options{}).Simulate(doc)
	require.NoError(t, err)

	commitStore := newMockStore()
	commitReport, err := newTestImporter(commitStore, newMockResolver(), Options{}).Commit(doc)
	require.NoError(t, err)

	assert.Equal(t, commitReport.Counts, simReport.Counts)
}

func TestImporter_Simulate_NoPersistenceNoFetch(t *testing.T) {
	store := newMockStore()
	resolver := newMockResolver()
	imp := newTestImporter(store, resolver, Options{})

	report, err := imp.Simulate(parseTestDoc(t))

	require.NoError(t, err)
	assert.NotEmpty(t, report.Counts)
	assert.Zero(t, store.saves)
	assert.Empty(t, store.categories)
	assert.Empty(t, store.posts)
	assert.Empty(t, resolver.fetched)
}

func TestImporter_Commit_Idempotent(t *testing.T) {
	doc := parseTestDoc(t)
	store := newMockStore()
	resolver := newMockResolver()
	imp := newTestImporter(store, resolver, Options{})

	first, err := imp.Commit(doc)
	require.NoError(t, err)
	require.NotEmpty(t, first.Counts)

	second, err := imp.Commit(doc)
	require.NoError(t, err)

	assert.Empty(t, second.Counts, "second run must create nothing")
	assert.Len(t, store.categories, 2)
	assert.Len(t, store.tags, 1)
	assert.Len(t, store.posts, 2)
	assert.Len(t, store.comments, 2)
	assert.Len(t, store.assets, 1)
	assert.Len(t, resolver.fetched, 1, "asset already on disk is not re-fetched")
}

func TestImporter_DedupesTagAcrossPhases(t *testing.T) {
	// Golang is declared at channel level and referenced inline on the
	// post; exactly one Tag must come out.
	store := newMockStore()
	imp := newTestImporter(store, newMockResolver(), Options{})

	report, err := imp.Commit(parseTestDoc(t))

	require.NoError(t, err)
	assert.Equal(t, 1, report.Count(KindTag))
	require.Len(t, store.tags, 1)
	assert.Equal(t, "Golang", store.tags[0].Title)
}

func TestImporter_SkipsExistingPostAndItsComments(t *testing.T) {
	store := newMockStore()
	store.posts = append(store.posts, entities.Post{ID: 99, BlogID: 1, WordpressID: "42", Title: "Hello World"})
	imp := newTestImporter(store, newMockResolver(), Options{})

	report, err := imp.Commit(parseTestDoc(t))

	require.NoError(t, err)
	assert.Equal(t, 1, report.Count(KindPost), "only the second post is new")
	assert.Equal(t, 0, report.Count(KindComment), "comments of a skipped post are not processed")

	existing := store.postByWordpressID("42")
	require.NotNil(t, existing)
	assert.Nil(t, existing.FeaturedAssetID, "featured linking only touches posts processed this run")
}

func TestImporter_LinksFeaturedAsset(t *testing.T) {
	store := newMockStore()
	imp := newTestImporter(store, newMockResolver(), Options{})

	_, err := imp.Commit(parseTestDoc(t))
	require.NoError(t, err)

	post := store.postByWordpressID("42")
	require.NotNil(t, post)
	require.NotNil(t, post.FeaturedAssetID)
	assert.Equal(t, store.assets[0].ID, *post.FeaturedAssetID)
}

func TestImporter_FetchFailureIsNonFatal(t *testing.T) {
	store := newMockStore()
	resolver := newMockResolver()
	resolver.failing["http://example.org/wp-content/uploads/2014/03/photo.jpg"] = true
	imp := newTestImporter(store, resolver, Options{})

	report, err := imp.Commit(parseTestDoc(t))

	require.NoError(t, err)
	assert.Equal(t, 0, report.Count(KindFile))
	assert.Equal(t, 2, report.Count(KindPost), "rest of the run is unaffected")
	require.NotEmpty(t, report.Diagnostics)
	assert.Equal(t, KindFile, report.Diagnostics[0].Kind)
}

func TestImporter_SkipAssets(t *testing.T) {
	store := newMockStore()
	resolver := newMockResolver()
	imp := newTestImporter(store, resolver, Options{SkipAssets: true})

	report, err := imp.Commit(parseTestDoc(t))

	require.NoError(t, err)
	assert.Equal(t, 0, report.Count(KindFile))
	assert.Empty(t, resolver.fetched)

	post := store.postByWordpressID("42")
	require.NotNil(t, post)
	assert.Nil(t, post.FeaturedAssetID)
}

func TestImporter_PostMissingIDIsDiagnostic(t *testing.T) {
	doc := &parsers.Document{Channel: &parsers.Channel{
		Items: []parsers.Item{
			{Title: "No ID", Type: parsers.ItemTypePost},
			{Title: "Fine", Type: parsers.ItemTypePost, WordpressID: "1", Slug: "fine"},
		},
	}}
	store := newMockStore()
	imp := newTestImporter(store, newMockResolver(), Options{})

	report, err := imp.Commit(doc)

	require.NoError(t, err)
	assert.Equal(t, 1, report.Count(KindPost))
	require.Len(t, report.Diagnostics, 1)
	assert.Equal(t, KindPost, report.Diagnostics[0].Kind)
	assert.ErrorIs(t, report.Diagnostics[0].Err, errMissingPostID)
}

func TestImporter_BadDateIsDiagnosticButPostImports(t *testing.T) {
	doc := &parsers.Document{Channel: &parsers.Channel{
		Items: []parsers.Item{
			{Title: "Odd Date", Type: parsers.ItemTypePost, WordpressID: "1", DateGMT: "next tuesday"},
		},
	}}
	store := newMockStore()
	imp := newTestImporter(store, newMockResolver(), Options{})

	report, err := imp.Commit(doc)

	require.NoError(t, err)
	assert.Equal(t, 1, report.Count(KindPost))
	require.Len(t, report.Diagnostics, 1)

	post := store.postByWordpressID("1")
	require.NotNil(t, post)
	assert.True(t, post.PublishDate.IsZero())
}

func TestImporter_StoreFailureOnOneEntityContinues(t *testing.T) {
	store := newMockStore()
	store.rejectCategory = "News"
	imp := newTestImporter(store, newMockResolver(), Options{})

	report, err := imp.Commit(parseTestDoc(t))

	require.NoError(t, err)
	assert.Equal(t, 1, report.Count(KindCategory), "Projects still imports")
	assert.Equal(t, 2, report.Count(KindPost))
	require.NotEmpty(t, report.Diagnostics)
	assert.Equal(t, KindCategory, report.Diagnostics[0].Kind)
}

func TestImporter_PostStoreFailureSkipsDependents(t *testing.T) {
	store := newMockStore()
	store.rejectPosts = true
	imp := newTestImporter(store, newMockResolver(), Options{})

	report, err := imp.Commit(parseTestDoc(t))

	require.NoError(t, err)
	assert.Equal(t, 0, report.Count(KindPost))
	assert.Equal(t, 0, report.Count(KindComment), "comments of an unpersisted post are not written")
	assert.Empty(t, store.comments, "no orphan comment rows")
	assert.Empty(t, store.commentIDs, "comment ids stay unregistered so a re-run imports them")
	assert.Empty(t, store.posts, "featured linking must not resurrect a failed post")

	var postDiags int
	for _, diag := range report.Diagnostics {
		if diag.Kind == KindPost {
			postDiags++
		}
	}
	assert.Equal(t, 2, postDiags)
}

func TestImporter_StoreUnavailableAborts(t *testing.T) {
	t.Run("during seed", func(t *testing.T) {
		store := newMockStore()
		store.failFind = true
		imp := newTestImporter(store, newMockResolver(), Options{})

		_, err := imp.Commit(parseTestDoc(t))

		assert.ErrorIs(t, err, ErrStoreUnavailable)
	})

	t.Run("during persist", func(t *testing.T) {
		store := newMockStore()
		store.failSave = true
		imp := newTestImporter(store, newMockResolver(), Options{})

		_, err := imp.Commit(parseTestDoc(t))

		assert.ErrorIs(t, err, ErrStoreUnavailable)
	})
}

func TestImporter_NilDocumentIsFatal(t *testing.T) {
	imp := newTestImporter(newMockStore(), newMockResolver(), Options{})

	_, err := imp.Commit(nil)

	assert.ErrorIs(t, err, parsers.ErrMissingChannel)
}

type testHooks struct {
	NopHooks
	categories int
}

func (h *testHooks) BeforeCategory(c *entities.Category) {
	h.categories++
	c.URLSegment = "hooked-" + c.URLSegment
}

func (h *testHooks) BeforePost(item *parsers.Item, p *entities.Post) {
	p.MetaTitle = "Custom | " + p.MetaTitle
}

func TestImporter_HooksMutateEntitiesBeforePersist(t *testing.T) {
	store := newMockStore()
	hooks := &testHooks{}
	imp := newTestImporter(store, newMockResolver(), Options{Hooks: hooks})

	_, err := imp.Commit(parseTestDoc(t))
	require.NoError(t, err)

	assert.Equal(t, 2, hooks.categories, "hooks fire only for newly built entities")
	require.NotEmpty(t, store.categories)
	assert.Equal(t, "hooked-news", store.categories[0].URLSegment)

	post := store.postByWordpressID("42")
	require.NotNil(t, post)
	assert.Equal(t, "Custom | Hello World", post.MetaTitle)
}
