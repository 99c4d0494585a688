// Package docx reads, mutates and writes Word (.docx) documents.
//
// A .docx file is a ZIP package whose body lives in word/document.xml. The
// reader parses body paragraphs and tables into a mutable model. Original
// start tags, property blocks and every XML fragment it does not model are
// preserved byte-for-byte, so styles, numbering, revision attributes, headers
// and footers of a loaded template survive a round trip untouched.
package docx

import (
	"strings"
)

// Paragraph alignment values for generated documents.
const (
	AlignLeft   = "left"
	AlignCenter = "center"
	AlignRight  = "right"
)

// BodyItem is a body-level element: *Paragraph, *Table or an opaque
// preserved XML fragment.
type BodyItem interface {
	isBodyItem()
}

// raw is an unmodeled XML fragment, written back verbatim.
type raw string

func (raw) isBodyItem() {}

// Document is an in-memory .docx package.
type Document struct {
	parts     map[string][]byte // original parts, keyed by ZIP entry name
	partOrder []string          // original entry order, including document.xml
	fresh     bool              // built with New, parts are generated on write

	bodyPrefix string // document.xml up to and including <w:body>
	bodySuffix string // document.xml from </w:body> (plus trailing sectPr for parsed docs)
	body       []BodyItem

	headerText  string
	headerAlign string
	footerText  string
	footerAlign string
}

// New creates an empty document. Styles, numbering and the header/footer
// parts are generated when the document is written.
func New() *Document {
	return &Document{
		fresh:      true,
		bodyPrefix: freshBodyPrefix,
		bodySuffix: freshBodySuffix,
	}
}

// Paragraphs returns the body-level paragraphs in document order. Paragraphs
// inside table cells are reached through Tables.
func (d *Document) Paragraphs() []*Paragraph {
	var out []*Paragraph
	for _, item := range d.body {
		if p, ok := item.(*Paragraph); ok {
			out = append(out, p)
		}
	}
	return out
}

// Tables returns the body-level tables in document order.
func (d *Document) Tables() []*Table {
	var out []*Table
	for _, item := range d.body {
		if t, ok := item.(*Table); ok {
			out = append(out, t)
		}
	}
	return out
}

// AddParagraph appends an empty paragraph to the body.
func (d *Document) AddParagraph() *Paragraph {
	p := &Paragraph{}
	d.body = append(d.body, p)
	return p
}

// AddHeading appends a paragraph styled Heading1..Heading6.
func (d *Document) AddHeading(level int) *Paragraph {
	if level < 1 {
		level = 1
	}
	if level > 6 {
		level = 6
	}
	p := d.AddParagraph()
	p.style = headingStyles[level-1]
	return p
}

var headingStyles = [6]string{"Heading1", "Heading2", "Heading3", "Heading4", "Heading5", "Heading6"}

// AddTable appends a table with the given shape; every cell starts with one
// empty paragraph.
func (d *Document) AddTable(rows, cols int) *Table {
	t := &Table{}
	var grid strings.Builder
	grid.WriteString(`<w:tblPr><w:tblStyle w:val="TableGrid"/><w:tblW w:w="0" w:type="auto"/></w:tblPr><w:tblGrid>`)
	for i := 0; i < cols; i++ {
		grid.WriteString(`<w:gridCol/>`)
	}
	grid.WriteString(`</w:tblGrid>`)
	t.children = append(t.children, raw(grid.String()))

	for i := 0; i < rows; i++ {
		row := &TableRow{}
		for j := 0; j < cols; j++ {
			row.children = append(row.children, &TableCell{children: []BodyItem{&Paragraph{}}})
		}
		t.children = append(t.children, row)
	}
	d.body = append(d.body, t)
	return t
}

// SetHeaderText sets the page header of a generated document. It has no
// effect on documents loaded from disk.
func (d *Document) SetHeaderText(text, align string) {
	d.headerText = text
	d.headerAlign = align
}

// SetFooterText sets the page footer of a generated document.
func (d *Document) SetFooterText(text, align string) {
	d.footerText = text
	d.footerAlign = align
}

// ExtractText returns the plain text of all body paragraphs and table cells,
// separated by blank lines. Used for feeding uploaded documents to the
// extraction prompt.
func (d *Document) ExtractText() string {
	var chunks []string
	for _, item := range d.body {
		switch v := item.(type) {
		case *Paragraph:
			if t := strings.TrimSpace(v.Text()); t != "" {
				chunks = append(chunks, v.Text())
			}
		case *Table:
			for _, row := range v.Rows() {
				for _, cell := range row.Cells() {
					if t := strings.TrimSpace(cell.Text()); t != "" {
						chunks = append(chunks, cell.Text())
					}
				}
			}
		}
	}
	return strings.Join(chunks, "\n\n")
}

// Paragraph is a single paragraph: optional properties plus an ordered list
// of runs and preserved fragments.
type Paragraph struct {
	startTag string // raw <w:p ...> open tag from a parsed document
	props    string // raw <w:pPr> from a parsed document; wins over the fields below
	style    string
	align    string
	numID    int

	children []interface{} // *Run or raw
}

func (*Paragraph) isBodyItem() {}

// Runs returns the paragraph's runs in order.
func (p *Paragraph) Runs() []*Run {
	var out []*Run
	for _, c := range p.children {
		if r, ok := c.(*Run); ok {
			out = append(out, r)
		}
	}
	return out
}

// Text returns the concatenated run text.
func (p *Paragraph) Text() string {
	var b strings.Builder
	for _, r := range p.Runs() {
		b.WriteString(r.Text())
	}
	return b.String()
}

// Clear removes all content, keeping paragraph-level properties.
func (p *Paragraph) Clear() {
	p.children = nil
}

// SetText replaces the paragraph content with a single plain run.
func (p *Paragraph) SetText(s string) {
	p.Clear()
	p.AddRun(s)
}

// AddRun appends a run with the given text.
func (p *Paragraph) AddRun(text string) *Run {
	r := &Run{children: []interface{}{runText{text: text, preserve: true}}}
	p.children = append(p.children, r)
	return r
}

// SetAlignment sets paragraph justification on a generated paragraph.
func (p *Paragraph) SetAlignment(align string) {
	p.align = align
}

// SetStyle sets the paragraph style of a generated paragraph.
func (p *Paragraph) SetStyle(style string) {
	p.style = style
}

// SetNumbering attaches the paragraph to a numbering definition (1 is the
// built-in bullet list, 2 the decimal list of generated documents).
func (p *Paragraph) SetNumbering(numID int) {
	p.numID = numID
}

// Style returns the paragraph style of a generated paragraph.
func (p *Paragraph) Style() string {
	return p.style
}

// Run is a region of text with uniform formatting.
type Run struct {
	startTag string // raw <w:r ...> open tag from a parsed document
	props    string // raw <w:rPr> from a parsed document
	bold     bool
	italic   bool

	children []interface{} // runText or raw
}

type runText struct {
	text     string
	preserve bool
}

// Text returns the concatenated text content of the run.
func (r *Run) Text() string {
	var b strings.Builder
	for _, c := range r.children {
		if t, ok := c.(runText); ok {
			b.WriteString(t.text)
		}
	}
	return b.String()
}

// SetText replaces the run content with a single text node, keeping the
// run's formatting properties.
func (r *Run) SetText(s string) {
	r.children = []interface{}{runText{text: s, preserve: true}}
}

// Bold marks a generated run bold.
func (r *Run) Bold() *Run {
	r.bold = true
	return r
}

// Italic marks a generated run italic.
func (r *Run) Italic() *Run {
	r.italic = true
	return r
}

// IsBold reports whether the run is bold.
func (r *Run) IsBold() bool { return r.bold }

// IsItalic reports whether the run is italic.
func (r *Run) IsItalic() bool { return r.italic }

// Table is an ordered grid of rows.
type Table struct {
	startTag string        // raw <w:tbl ...> open tag from a parsed document
	children []interface{} // *TableRow or raw (tblPr, tblGrid)
}

func (*Table) isBodyItem() {}

// Rows returns the table rows in order.
func (t *Table) Rows() []*TableRow {
	var out []*TableRow
	for _, c := range t.children {
		if r, ok := c.(*TableRow); ok {
			out = append(out, r)
		}
	}
	return out
}

// TableRow is one row of a table.
type TableRow struct {
	startTag string        // raw <w:tr ...> open tag from a parsed document
	children []interface{} // *TableCell or raw (trPr)
}

// Cells returns the row's cells in order.
func (r *TableRow) Cells() []*TableCell {
	var out []*TableCell
	for _, c := range r.children {
		if cell, ok := c.(*TableCell); ok {
			out = append(out, cell)
		}
	}
	return out
}

// TableCell holds an ordered sequence of paragraphs (and possibly nested
// tables).
type TableCell struct {
	startTag string // raw <w:tc ...> open tag from a parsed document
	props    string // raw <w:tcPr>
	children []BodyItem
}

// Paragraphs returns the cell's direct paragraphs.
func (c *TableCell) Paragraphs() []*Paragraph {
	var out []*Paragraph
	for _, item := range c.children {
		if p, ok := item.(*Paragraph); ok {
			out = append(out, p)
		}
	}
	return out
}

// Text returns the cell's paragraph texts joined with newlines.
func (c *TableCell) Text() string {
	var parts []string
	for _, p := range c.Paragraphs() {
		parts = append(parts, p.Text())
	}
	return strings.Join(parts, "\n")
}

// SetText replaces the cell content with a single paragraph holding s. The
// first existing paragraph is reused so its formatting survives.
func (c *TableCell) SetText(s string) {
	paras := c.Paragraphs()
	var p *Paragraph
	if len(paras) > 0 {
		p = paras[0]
	} else {
		p = &Paragraph{}
	}
	p.SetText(s)
	c.children = []BodyItem{p}
}
