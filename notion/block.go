package notion

import "time"

// Block types rendered by this package's consumers.
const (
	TypeParagraph        = "paragraph"
	TypeHeading1         = "heading_1"
	TypeHeading2         = "heading_2"
	TypeHeading3         = "heading_3"
	TypeBulletedListItem = "bulleted_list_item"
	TypeNumberedListItem = "numbered_list_item"
	TypeToDo             = "to_do"
	TypeToggle           = "toggle"
	TypeCode             = "code"
	TypeCallout          = "callout"
	TypeQuote            = "quote"
	TypeDivider          = "divider"
	TypeImage            = "image"
	TypeVideo            = "video"
	TypeFile             = "file"
	TypePDF              = "pdf"
	TypeBookmark         = "bookmark"
	TypeLinkPreview      = "link_preview"
	TypeEmbed            = "embed"
	TypeEquation         = "equation"
	TypeTable            = "table"
	TypeTableRow         = "table_row"
	TypeColumnList       = "column_list"
	TypeColumn           = "column"
	TypeChildPage        = "child_page"
	TypeChildDatabase    = "child_database"
	TypeSyncedBlock      = "synced_block"
	TypeTableOfContents  = "table_of_contents"
)

// TextBlock is shared by paragraph, heading, list item, quote and toggle blocks.
type TextBlock struct {
	RichText     []RichText `json:"rich_text"`
	Color        Color      `json:"color,omitempty"`
	IsToggleable bool       `json:"is_toggleable,omitempty"`
}

// ToDoBlock is a checkbox item.
type ToDoBlock struct {
	RichText []RichText `json:"rich_text"`
	Checked  bool       `json:"checked"`
	Color    Color      `json:"color,omitempty"`
}

// CodeBlock is a source listing.
type CodeBlock struct {
	RichText []RichText `json:"rich_text"`
	Caption  []RichText `json:"caption,omitempty"`
	Language string     `json:"language"`
}

// CalloutBlock is a highlighted note with an icon.
type CalloutBlock struct {
	RichText []RichText `json:"rich_text"`
	Icon     *Icon      `json:"icon,omitempty"`
	Color    Color      `json:"color,omitempty"`
}

// LinkBlock is shared by bookmark, link_preview and embed blocks.
type LinkBlock struct {
	URL     string     `json:"url"`
	Caption []RichText `json:"caption,omitempty"`
}

// TableBlock describes a simple table; rows are its children.
type TableBlock struct {
	TableWidth      int  `json:"table_width"`
	HasColumnHeader bool `json:"has_column_header"`
	HasRowHeader    bool `json:"has_row_header"`
}

// TableRowBlock holds one rich text array per cell.
type TableRowBlock struct {
	Cells [][]RichText `json:"cells"`
}

// TitleBlock is shared by child_page and child_database blocks.
type TitleBlock struct {
	Title string `json:"title"`
}

// SyncedBlock mirrors another block's children.
type SyncedBlock struct {
	SyncedFrom *struct {
		BlockID string `json:"block_id"`
	} `json:"synced_from"`
}

// Empty is the payload of blocks without content such as dividers.
type Empty struct{}

// Block is a typed content unit. Exactly one payload field matching Type is set.
type Block struct {
	Object         string    `json:"object"`
	ID             string    `json:"id"`
	Parent         Parent    `json:"parent"`
	CreatedTime    time.Time `json:"created_time"`
	LastEditedTime time.Time `json:"last_edited_time"`
	HasChildren    bool      `json:"has_children"`
	Archived       bool      `json:"archived"`
	Type           string    `json:"type"`

	Paragraph        *TextBlock     `json:"paragraph,omitempty"`
	Heading1         *TextBlock     `json:"heading_1,omitempty"`
	Heading2         *TextBlock     `json:"heading_2,omitempty"`
	Heading3         *TextBlock     `json:"heading_3,omitempty"`
	BulletedListItem *TextBlock     `json:"bulleted_list_item,omitempty"`
	NumberedListItem *TextBlock     `json:"numbered_list_item,omitempty"`
	ToDo             *ToDoBlock     `json:"to_do,omitempty"`
	Toggle           *TextBlock     `json:"toggle,omitempty"`
	Code             *CodeBlock     `json:"code,omitempty"`
	Callout          *CalloutBlock  `json:"callout,omitempty"`
	Quote            *TextBlock     `json:"quote,omitempty"`
	Divider          *Empty         `json:"divider,omitempty"`
	Image            *FileObject    `json:"image,omitempty"`
	Video            *FileObject    `json:"video,omitempty"`
	File             *FileObject    `json:"file,omitempty"`
	PDF              *FileObject    `json:"pdf,omitempty"`
	Bookmark         *LinkBlock     `json:"bookmark,omitempty"`
	LinkPreview      *LinkBlock     `json:"link_preview,omitempty"`
	Embed            *LinkBlock     `json:"embed,omitempty"`
	Equation         *Equation      `json:"equation,omitempty"`
	Table            *TableBlock    `json:"table,omitempty"`
	TableRow         *TableRowBlock `json:"table_row,omitempty"`
	ColumnList       *Empty         `json:"column_list,omitempty"`
	Column           *Empty         `json:"column,omitempty"`
	ChildPage        *TitleBlock    `json:"child_page,omitempty"`
	ChildDatabase    *TitleBlock    `json:"child_database,omitempty"`
	SyncedBlock      *SyncedBlock   `json:"synced_block,omitempty"`
	TableOfContents  *TextBlock     `json:"table_of_contents,omitempty"`
}

// Text returns the text payload of paragraph-like blocks, or nil.
func (b *Block) Text() *TextBlock {
	switch b.Type {
	case TypeParagraph:
		return b.Paragraph
	case TypeHeading1:
		return b.Heading1
	case TypeHeading2:
		return b.Heading2
	case TypeHeading3:
		return b.Heading3
	case TypeBulletedListItem:
		return b.BulletedListItem
	case TypeNumberedListItem:
		return b.NumberedListItem
	case TypeToggle:
		return b.Toggle
	case TypeQuote:
		return b.Quote
	}
	return nil
}

// RichText returns the main rich text of the block regardless of its type.
func (b *Block) RichText() []RichText {
	if t := b.Text(); t != nil {
		return t.RichText
	}
	switch {
	case b.ToDo != nil:
		return b.ToDo.RichText
	case b.Code != nil:
		return b.Code.RichText
	case b.Callout != nil:
		return b.Callout.RichText
	}
	return nil
}

// Media returns the file payload of image, video, file and pdf blocks.
func (b *Block) Media() *FileObject {
	switch b.Type {
	case TypeImage:
		return b.Image
	case TypeVideo:
		return b.Video
	case TypeFile:
		return b.File
	case TypePDF:
		return b.PDF
	}
	return nil
}

// descends reports whether the block's children belong to this page's tree.
// Child pages and databases are separate documents.
func (b *Block) descends() bool {
	return b.HasChildren && b.Type != TypeChildPage && b.Type != TypeChildDatabase
}
