package parsers

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// Fatal parse errors. Anything else found in a document is handled
// per-item by the importer, but without a channel or the required
// namespaces nothing can be processed at all.
var (
	ErrMissingChannel   = errors.New("wxr: document has no channel")
	ErrMissingNamespace = errors.New("wxr: missing required namespace")
)

// requiredNamespaces are the xmlns prefixes a WXR export must declare.
// The URIs themselves are version-dependent (1.0/1.1/1.2), so only the
// prefixes are checked and the declared URIs are used to tell
// content:encoded and excerpt:encoded apart.
var requiredNamespaces = []string{"wp", "content", "excerpt"}

// wpTimeLayout is the timestamp format used by WordPress exports.
const wpTimeLayout = "2006-01-02 15:04:05"

// wpZeroDate is what WordPress writes for drafts with no publish date.
const wpZeroDate = "0000-00-00 00:00:00"

// Term domains used on item-level <category> elements.
const (
	TermDomainCategory = "category"
	TermDomainTag      = "post_tag"
)

// ItemTypePost is the wp:post_type of an importable post. Other item
// types (pages, attachments, nav items) carry no post content.
const ItemTypePost = "post"

// Document is a parsed WordPress export file.
type Document struct {
	Namespaces map[string]string // xmlns prefix -> URI
	Channel    *Channel
}

// Channel holds the export's term declarations and items.
type Channel struct {
	Title      string
	Link       string
	Categories []TermDecl
	Tags       []TermDecl
	Items      []Item
}

// TermDecl is a channel-level wp:category or wp:tag declaration.
type TermDecl struct {
	Title       string
	Slug        string
	WordpressID string
}

// Term is an item-level <category domain=... nicename=...> reference.
type Term struct {
	Domain string
	Slug   string
	Title  string
}

// Item is a single <item> node: a post, attachment or other entry.
type Item struct {
	Title         string
	Content       string // content:encoded
	Excerpt       string // excerpt:encoded
	WordpressID   string // wp:post_id
	Slug          string // wp:post_name
	Type          string // wp:post_type
	Status        string // wp:status
	DateGMT       string // wp:post_date_gmt
	CommentStatus string // wp:comment_status
	AttachmentURL string // wp:attachment_url
	ParentWPID    string // wp:post_parent
	Terms         []Term
	Comments      []CommentNode
}

// PublishDate parses the item's GMT publish timestamp. The WordPress
// zero date and an empty field both mean "no date" and return the zero
// time without error.
func (i *Item) PublishDate() (time.Time, error) {
	if i.DateGMT == "" || i.DateGMT == wpZeroDate {
		return time.Time{}, nil
	}
	t, err := time.Parse(wpTimeLayout, i.DateGMT)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse post date %q: %w", i.DateGMT, err)
	}
	return t.UTC(), nil
}

// CommentNode is a wp:comment child of an item.
type CommentNode struct {
	WordpressID string
	Author      string
	Email       string
	URL         string
	Body        string
	Date        string
	Approved    string
}

// PostedAt parses the comment's timestamp, falling back to the zero
// time when the field is absent or malformed.
func (c *CommentNode) PostedAt() time.Time {
	if c.Date == "" || c.Date == wpZeroDate {
		return time.Time{}
	}
	t, err := time.Parse(wpTimeLayout, c.Date)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

// Raw decode targets. Element matching is by local name so that all
// WXR versions decode the same way; the two "encoded" element families
// are separated afterwards by their namespace URI.
type xmlRSS struct {
	XMLName xml.Name    `xml:"rss"`
	Attrs   []xml.Attr  `xml:",any,attr"`
	Channel *xmlChannel `xml:"channel"`
}

type xmlChannel struct {
	Title      string        `xml:"title"`
	Link       string        `xml:"link"`
	Categories []xmlTermDecl `xml:"category"`
	Tags       []xmlTagDecl  `xml:"tag"`
	Items      []xmlItem     `xml:"item"`
}

type xmlTermDecl struct {
	TermID   string `xml:"term_id"`
	Name     string `xml:"cat_name"`
	Nicename string `xml:"category_nicename"`
}

type xmlTagDecl struct {
	TermID   string `xml:"term_id"`
	Name     string `xml:"tag_name"`
	Nicename string `xml:"tag_slug"`
}

type xmlItem struct {
	Title         string        `xml:"title"`
	Encoded       []xmlEncoded  `xml:"encoded"`
	PostID        string        `xml:"post_id"`
	PostName      string        `xml:"post_name"`
	PostType      string        `xml:"post_type"`
	Status        string        `xml:"status"`
	PostDateGMT   string        `xml:"post_date_gmt"`
	CommentStatus string        `xml:"comment_status"`
	AttachmentURL string        `xml:"attachment_url"`
	PostParent    string        `xml:"post_parent"`
	Terms         []xmlItemTerm `xml:"category"`
	Comments      []xmlComment  `xml:"comment"`
}

type xmlEncoded struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

type xmlItemTerm struct {
	Domain   string `xml:"domain,attr"`
	Nicename string `xml:"nicename,attr"`
	Value    string `xml:",chardata"`
}

type xmlComment struct {
	ID       string `xml:"comment_id"`
	Author   string `xml:"comment_author"`
	Email    string `xml:"comment_author_email"`
	URL      string `xml:"comment_author_url"`
	Content  string `xml:"comment_content"`
	Date     string `xml:"comment_date"`
	Approved string `xml:"comment_approved"`
}

// ParseWXR decodes a WordPress WXR export into a Document. It fails
// only on structural problems: unreadable XML, a missing channel, or
// an undeclared required namespace.
func ParseWXR(r io.Reader) (*Document, error) {
	var root xmlRSS
	dec := xml.NewDecoder(r)
	dec.Strict = false
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("wxr: decode document: %w", err)
	}

	namespaces := make(map[string]string)
	for _, attr := range root.Attrs {
		if attr.Name.Space == "xmlns" {
			namespaces[attr.Name.Local] = attr.Value
		}
	}
	for _, prefix := range requiredNamespaces {
		if _, ok := namespaces[prefix]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingNamespace, prefix)
		}
	}

	if root.Channel == nil {
		return nil, ErrMissingChannel
	}

	doc := &Document{
		Namespaces: namespaces,
		Channel: &Channel{
			Title: strings.TrimSpace(root.Channel.Title),
			Link:  strings.TrimSpace(root.Channel.Link),
		},
	}

	for _, c := range root.Channel.Categories {
		// Matching by local name also picks up plain RSS channel-level
		// <category> elements, which carry none of the wp fields.
		if strings.TrimSpace(c.Name) == "" && strings.TrimSpace(c.TermID) == "" {
			continue
		}
		doc.Channel.Categories = append(doc.Channel.Categories, TermDecl{
			Title:       c.Name,
			Slug:        strings.TrimSpace(c.Nicename),
			WordpressID: strings.TrimSpace(c.TermID),
		})
	}
	for _, t := range root.Channel.Tags {
		doc.Channel.Tags = append(doc.Channel.Tags, TermDecl{
			Title:       t.Name,
			Slug:        strings.TrimSpace(t.Nicename),
			WordpressID: strings.TrimSpace(t.TermID),
		})
	}
	for _, it := range root.Channel.Items {
		doc.Channel.Items = append(doc.Channel.Items, convertItem(it, namespaces["excerpt"]))
	}

	return doc, nil
}

func convertItem(it xmlItem, excerptNS string) Item {
	item := Item{
		Title:         it.Title,
		WordpressID:   strings.TrimSpace(it.PostID),
		Slug:          strings.TrimSpace(it.PostName),
		Type:          strings.TrimSpace(it.PostType),
		Status:        strings.TrimSpace(it.Status),
		DateGMT:       strings.TrimSpace(it.PostDateGMT),
		CommentStatus: strings.TrimSpace(it.CommentStatus),
		AttachmentURL: strings.TrimSpace(it.AttachmentURL),
		ParentWPID:    strings.TrimSpace(it.PostParent),
	}

	for _, enc := range it.Encoded {
		if enc.XMLName.Space == excerptNS {
			item.Excerpt = enc.Value
		} else {
			item.Content = enc.Value
		}
	}

	for _, term := range it.Terms {
		item.Terms = append(item.Terms, Term{
			Domain: term.Domain,
			Slug:   strings.TrimSpace(term.Nicename),
			Title:  term.Value,
		})
	}

	for _, c := range it.Comments {
		item.Comments = append(item.Comments, CommentNode{
			WordpressID: strings.TrimSpace(c.ID),
			Author:      c.Author,
			Email:       strings.TrimSpace(c.Email),
			URL:         strings.TrimSpace(c.URL),
			Body:        c.Content,
			Date:        strings.TrimSpace(c.Date),
			Approved:    strings.TrimSpace(c.Approved),
		})
	}

	return item
}
