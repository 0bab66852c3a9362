package notion

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Color is a Notion text or background color name.
type Color string

const (
	ColorDefault Color = "default"
	ColorGray    Color = "gray"
	ColorBrown   Color = "brown"
	ColorOrange  Color = "orange"
	ColorYellow  Color = "yellow"
	ColorGreen   Color = "green"
	ColorBlue    Color = "blue"
	ColorPurple  Color = "purple"
	ColorPink    Color = "pink"
	ColorRed     Color = "red"
)

// IsBackground reports whether c is one of the "_background" variants.
func (c Color) IsBackground() bool {
	return strings.HasSuffix(string(c), "_background")
}

// Annotations are the style flags attached to a rich text run.
type Annotations struct {
	Bold          bool  `json:"bold"`
	Italic        bool  `json:"italic"`
	Strikethrough bool  `json:"strikethrough"`
	Underline     bool  `json:"underline"`
	Code          bool  `json:"code"`
	Color         Color `json:"color"`
}

// Link is the target of a text run.
type Link struct {
	URL string `json:"url"`
}

// Text is the payload of a "text" rich text run.
type Text struct {
	Content string `json:"content"`
	Link    *Link  `json:"link,omitempty"`
}

// Mention is the payload of a "mention" rich text run.
type Mention struct {
	Type     string          `json:"type"`
	Page     *Reference      `json:"page,omitempty"`
	Database *Reference      `json:"database,omitempty"`
	User     *User           `json:"user,omitempty"`
	Date     *DateValue      `json:"date,omitempty"`
	Link     json.RawMessage `json:"link_preview,omitempty"`
}

// Reference points at another page or database.
type Reference struct {
	ID string `json:"id"`
}

// Equation holds a TeX expression.
type Equation struct {
	Expression string `json:"expression"`
}

// RichText is one styled run of text.
type RichText struct {
	Type        string      `json:"type"`
	Text        *Text       `json:"text,omitempty"`
	Mention     *Mention    `json:"mention,omitempty"`
	Equation    *Equation   `json:"equation,omitempty"`
	Annotations Annotations `json:"annotations"`
	PlainText   string      `json:"plain_text"`
	Href        string      `json:"href,omitempty"`
}

// PlainText concatenates the plain text of every run.
func PlainText(runs []RichText) string {
	var b strings.Builder
	for _, r := range runs {
		b.WriteString(r.PlainText)
	}
	return b.String()
}

// FileRef is a Notion-hosted file with a signed, expiring URL.
type FileRef struct {
	URL        string     `json:"url"`
	ExpiryTime *time.Time `json:"expiry_time,omitempty"`
}

// ExternalRef is a file hosted outside Notion.
type ExternalRef struct {
	URL string `json:"url"`
}

// FileObject is used by image, video, file, pdf blocks and by page covers.
type FileObject struct {
	Type     string       `json:"type"`
	File     *FileRef     `json:"file,omitempty"`
	External *ExternalRef `json:"external,omitempty"`
	Caption  []RichText   `json:"caption,omitempty"`
	Name     string       `json:"name,omitempty"`
}

// URL returns the hosted or external URL, whichever is set.
func (f *FileObject) URL() string {
	if f == nil {
		return ""
	}
	if f.File != nil && f.File.URL != "" {
		return f.File.URL
	}
	if f.External != nil {
		return f.External.URL
	}
	return ""
}

// IsExpired reports whether a Notion-hosted URL has passed its expiry time.
// External files never expire.
func IsExpired(f *FileObject, now time.Time) bool {
	if f == nil || f.File == nil || f.File.URL == "" || f.File.ExpiryTime == nil {
		return false
	}
	return f.File.ExpiryTime.Before(now)
}

// Icon is a page, database or callout icon.
type Icon struct {
	Type     string       `json:"type"`
	Emoji    string       `json:"emoji,omitempty"`
	File     *FileRef     `json:"file,omitempty"`
	External *ExternalRef `json:"external,omitempty"`
}

// URL returns the image URL of a file or external icon.
func (i *Icon) URL() string {
	if i == nil {
		return ""
	}
	if i.File != nil {
		return i.File.URL
	}
	if i.External != nil {
		return i.External.URL
	}
	return ""
}

// Parent identifies the container of a page, database or block.
type Parent struct {
	Type       string `json:"type"`
	DatabaseID string `json:"database_id,omitempty"`
	PageID     string `json:"page_id,omitempty"`
	BlockID    string `json:"block_id,omitempty"`
	Workspace  bool   `json:"workspace,omitempty"`
}

// User is a Notion workspace member or bot.
type User struct {
	Object    string `json:"object"`
	ID        string `json:"id"`
	Type      string `json:"type,omitempty"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// SelectOption is a select or multi-select value.
type SelectOption struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Color Color  `json:"color,omitempty"`
}

// DateValue is the value of a date property.
type DateValue struct {
	Start    string  `json:"start"`
	End      *string `json:"end,omitempty"`
	TimeZone *string `json:"time_zone,omitempty"`
}

// StartTime parses Start, which is either a date or a datetime.
func (d *DateValue) StartTime() (time.Time, bool) {
	if d == nil || d.Start == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, d.Start); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", d.Start); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// PropertyValue is a property value on a page (database row).
type PropertyValue struct {
	ID             string         `json:"id,omitempty"`
	Type           string         `json:"type"`
	Title          []RichText     `json:"title,omitempty"`
	RichText       []RichText     `json:"rich_text,omitempty"`
	Select         *SelectOption  `json:"select,omitempty"`
	MultiSelect    []SelectOption `json:"multi_select,omitempty"`
	Date           *DateValue     `json:"date,omitempty"`
	Checkbox       *bool          `json:"checkbox,omitempty"`
	Number         *float64       `json:"number,omitempty"`
	URL            *string        `json:"url,omitempty"`
	CreatedTime    string         `json:"created_time,omitempty"`
	LastEditedTime string         `json:"last_edited_time,omitempty"`
	Files          []FileObject   `json:"files,omitempty"`
}

// PropertySchema describes a database column.
type PropertySchema struct {
	ID          string         `json:"id,omitempty"`
	Name        string         `json:"name"`
	Type        string         `json:"type"`
	Select      *OptionsSchema `json:"select,omitempty"`
	MultiSelect *OptionsSchema `json:"multi_select,omitempty"`
}

// OptionsSchema lists the options of a select or multi-select column.
type OptionsSchema struct {
	Options []SelectOption `json:"options"`
}

// Page is a Notion page, possibly a database row.
type Page struct {
	Object         string                   `json:"object"`
	ID             string                   `json:"id"`
	CreatedTime    time.Time                `json:"created_time"`
	LastEditedTime time.Time                `json:"last_edited_time"`
	CreatedBy      *User                    `json:"created_by,omitempty"`
	Cover          *FileObject              `json:"cover,omitempty"`
	Icon           *Icon                    `json:"icon,omitempty"`
	Parent         Parent                   `json:"parent"`
	Archived       bool                     `json:"archived"`
	Properties     map[string]PropertyValue `json:"properties"`
	URL            string                   `json:"url,omitempty"`
}

// Prop returns the named property, or nil when it is absent.
func (p *Page) Prop(name string) *PropertyValue {
	if p == nil {
		return nil
	}
	v, ok := p.Properties[name]
	if !ok {
		return nil
	}
	return &v
}

// Title returns the plain text of the page's title property. Pages keep their
// title under whichever property has type "title"; "title" is tried first.
func (p *Page) Title() string {
	if p == nil {
		return ""
	}
	if v, ok := p.Properties["title"]; ok && v.Type == "title" {
		return PlainText(v.Title)
	}
	for _, v := range p.Properties {
		if v.Type == "title" {
			return PlainText(v.Title)
		}
	}
	return ""
}

// TitleRuns returns the rich text of the title property.
func (p *Page) TitleRuns() []RichText {
	if p == nil {
		return nil
	}
	if v, ok := p.Properties["title"]; ok && v.Type == "title" {
		return v.Title
	}
	for _, v := range p.Properties {
		if v.Type == "title" {
			return v.Title
		}
	}
	return nil
}

// Tags returns the names of the "tags" multi-select property.
func (p *Page) Tags() []SelectOption {
	if v := p.Prop("tags"); v != nil && v.Type == "multi_select" {
		return v.MultiSelect
	}
	return nil
}

// Category returns the name of the "category" select property.
func (p *Page) Category() string {
	if v := p.Prop("category"); v != nil && v.Select != nil {
		return v.Select.Name
	}
	return ""
}

// Slug returns the plain text of the "slug" rich text property.
func (p *Page) Slug() string {
	if v := p.Prop("slug"); v != nil {
		return PlainText(v.RichText)
	}
	return ""
}

// Database is a Notion database.
type Database struct {
	Object         string                    `json:"object"`
	ID             string                    `json:"id"`
	CreatedTime    time.Time                 `json:"created_time"`
	LastEditedTime time.Time                 `json:"last_edited_time"`
	Title          []RichText                `json:"title"`
	Description    []RichText                `json:"description,omitempty"`
	Cover          *FileObject               `json:"cover,omitempty"`
	Icon           *Icon                     `json:"icon,omitempty"`
	Parent         Parent                    `json:"parent"`
	Properties     map[string]PropertySchema `json:"properties"`
	URL            string                    `json:"url,omitempty"`
}

// TitleText returns the plain text title of the database.
func (d *Database) TitleText() string {
	if d == nil {
		return ""
	}
	return PlainText(d.Title)
}

// HasProperty reports whether the database defines name with the given type.
func (d *Database) HasProperty(name, typ string) bool {
	if d == nil {
		return false
	}
	p, ok := d.Properties[name]
	return ok && p.Type == typ
}

// Object is a search result or lookup result: either a page or a database.
type Object struct {
	Kind     string
	Page     *Page
	Database *Database
}

// ID returns the id of the wrapped object.
func (o Object) ID() string {
	switch {
	case o.Page != nil:
		return o.Page.ID
	case o.Database != nil:
		return o.Database.ID
	}
	return ""
}

// Title returns the plain text title of the wrapped object.
func (o Object) Title() string {
	switch {
	case o.Page != nil:
		return o.Page.Title()
	case o.Database != nil:
		return o.Database.TitleText()
	}
	return ""
}

// Cover returns the cover of the wrapped object.
func (o Object) Cover() *FileObject {
	switch {
	case o.Page != nil:
		return o.Page.Cover
	case o.Database != nil:
		return o.Database.Cover
	}
	return nil
}

// Icon returns the icon of the wrapped object.
func (o Object) Icon() *Icon {
	switch {
	case o.Page != nil:
		return o.Page.Icon
	case o.Database != nil:
		return o.Database.Icon
	}
	return nil
}

// MarshalJSON encodes the wrapped page or database as is.
func (o Object) MarshalJSON() ([]byte, error) {
	switch {
	case o.Page != nil:
		return json.Marshal(o.Page)
	case o.Database != nil:
		return json.Marshal(o.Database)
	}
	return []byte("null"), nil
}

// UnmarshalJSON decodes a page or a database based on its "object" field.
func (o *Object) UnmarshalJSON(data []byte) error {
	var head struct {
		Object string `json:"object"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	o.Kind = head.Object
	switch head.Object {
	case "page":
		o.Page = new(Page)
		return json.Unmarshal(data, o.Page)
	case "database":
		o.Database = new(Database)
		return json.Unmarshal(data, o.Database)
	default:
		return fmt.Errorf("notion: unexpected object %q", head.Object)
	}
}

// BlockList is one or more pages of block children.
type BlockList struct {
	Object     string  `json:"object"`
	Results    []Block `json:"results"`
	NextCursor *string `json:"next_cursor"`
	HasMore    bool    `json:"has_more"`
}

// DatabaseQuery is the result of querying a database.
type DatabaseQuery struct {
	Object     string  `json:"object"`
	Results    []Page  `json:"results"`
	NextCursor *string `json:"next_cursor"`
	HasMore    bool    `json:"has_more"`
}

// SearchResults is the result of the search endpoint.
type SearchResults struct {
	Object     string   `json:"object"`
	Results    []Object `json:"results"`
	NextCursor *string  `json:"next_cursor"`
	HasMore    bool     `json:"has_more"`
}

// Tree is a page's blocks together with every nested child list and the rows
// of every inline database, keyed by the parent block id.
type Tree struct {
	Blocks    BlockList                `json:"blocks"`
	Children  map[string]BlockList     `json:"childrenBlocks"`
	Databases map[string]DatabaseQuery `json:"databaseBlocks"`
}

// ChildrenOf returns the children of the block with the given id.
func (t *Tree) ChildrenOf(id string) []Block {
	if t == nil || t.Children == nil {
		return nil
	}
	return t.Children[id].Results
}
