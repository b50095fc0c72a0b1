package parser

import "github.com/dgallion1/docstruct/internal/doctree"

// outline builds a section tree from a stream of headings and content.
// Content before the first heading goes to an untitled leading section.
type outline struct {
	root  *doctree.DocNode
	stack []outlineEntry
}

type outlineEntry struct {
	node  *doctree.DocNode
	level int
}

func newOutline() *outline {
	root := &doctree.DocNode{}
	return &outline{root: root, stack: []outlineEntry{{node: root, level: 0}}}
}

// heading opens a new section at level, closing any open sections at the
// same or a deeper level.
func (o *outline) heading(level int, title string, page int) *doctree.DocNode {
	n := &doctree.DocNode{Title: title, Page: page}
	// Pop stack until we find a parent with lower level.
	for len(o.stack) > 1 && o.stack[len(o.stack)-1].level >= level {
		o.stack = o.stack[:len(o.stack)-1]
	}
	parent := o.stack[len(o.stack)-1].node
	parent.Children = append(parent.Children, n)
	o.stack = append(o.stack, outlineEntry{node: n, level: level})
	return n
}

// current is the section content is appended to.
func (o *outline) current() *doctree.DocNode {
	return o.stack[len(o.stack)-1].node
}

// sections returns the top-level nodes, preamble first.
func (o *outline) sections() []*doctree.DocNode {
	var out []*doctree.DocNode
	if o.root.Text != "" {
		out = append(out, &doctree.DocNode{Text: o.root.Text, Blocks: o.root.Blocks})
	}
	return append(out, o.root.Children...)
}
