package doctree

// BlockKind classifies a markup block preserved by a format adapter.
type BlockKind string

const (
	BlockText     BlockKind = "text"
	BlockCode     BlockKind = "code"
	BlockListItem BlockKind = "list_item"
	BlockQuote    BlockKind = "quote"
	BlockHeading  BlockKind = "heading"
	BlockTable    BlockKind = "table"
)

// blockSeparator joins consecutive blocks in a node's Text.
const blockSeparator = "\n\n"

// Metadata is document-level metadata reported by an adapter.
type Metadata struct {
	Title      string            `json:"title" yaml:"title"`
	Author     string            `json:"author,omitempty" yaml:"author,omitempty"`
	Language   string            `json:"language,omitempty" yaml:"language,omitempty"`
	Publisher  string            `json:"publisher,omitempty" yaml:"publisher,omitempty"`
	Identifier string            `json:"identifier,omitempty" yaml:"identifier,omitempty"`
	Date       string            `json:"date,omitempty" yaml:"date,omitempty"`
	Custom     map[string]string `json:"custom,omitempty" yaml:"custom,omitempty"`
}

// Block is a span [Start, End) of a node's Text with a known markup kind.
type Block struct {
	Kind  BlockKind
	Start int
	End   int
}

// DocTree is the root of a parsed document.
type DocTree struct {
	Title    string         // Document title (from metadata or filename)
	Metadata Metadata       // Adapter-reported metadata
	Children []*DocNode     // Top-level sections
	Stats    map[string]any // Adapter-specific counts (spine items, pages, ...)
	Errors   []string       // Non-fatal problems hit while extracting
}

// DocNode is a recursive section in the document tree.
type DocNode struct {
	Title    string     // Section heading (empty for leaf text)
	Text     string     // Text content of this node (may be empty for container nodes)
	Page     int        // Source page/line (0 if N/A)
	Offset   int        // Byte offset of Text in the source file (0 if unknown)
	Blocks   []Block    // Markup blocks within Text, empty if the adapter kept none
	Children []*DocNode // Subsections
}

// AppendBlock adds text as a new block, separated from existing text by a blank line.
func (n *DocNode) AppendBlock(kind BlockKind, text string) {
	if text == "" {
		return
	}
	if n.Text != "" {
		n.Text += blockSeparator
	}
	start := len(n.Text)
	n.Text += text
	n.Blocks = append(n.Blocks, Block{Kind: kind, Start: start, End: len(n.Text)})
}

// AppendText adds unmarked text, separated by a blank line.
func (n *DocNode) AppendText(text string) {
	if text == "" {
		return
	}
	if n.Text != "" {
		n.Text += blockSeparator
	}
	n.Text += text
}

// RawChapter is one flattened chapter record handed to the builder.
type RawChapter struct {
	Title        string
	Level        int     // Nesting depth, 1 for top-level sections
	Text         string  // Raw chapter text
	Blocks       []Block // Offsets relative to Text
	SourceOffset int     // Position hint in the source, 0 if unknown
}

// Chapters flattens the tree depth-first into chapter records. Container nodes
// without text are skipped but still add a nesting level for their children.
func (t *DocTree) Chapters() []RawChapter {
	var out []RawChapter
	var walk func(nodes []*DocNode, level int)
	walk = func(nodes []*DocNode, level int) {
		for _, n := range nodes {
			if n.Text != "" || len(n.Children) == 0 {
				out = append(out, RawChapter{
					Title:        n.Title,
					Level:        level,
					Text:         n.Text,
					Blocks:       append([]Block(nil), n.Blocks...),
					SourceOffset: n.Offset,
				})
			}
			walk(n.Children, level+1)
		}
	}
	walk(t.Children, 1)
	return out
}
