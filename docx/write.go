package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
)

// Save writes the document to path. The file is written atomically: a
// temporary file in the same directory is renamed into place, so a failed
// write never leaves a partial document behind.
func (d *Document) Save(path string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	if err := d.Write(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to finalize output file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}

// Write serializes the document package to w.
func (d *Document) Write(w io.Writer) error {
	zw := zip.NewWriter(w)
	docXML := d.renderDocumentXML()

	if d.fresh {
		for _, part := range d.freshParts(docXML) {
			if err := writePart(zw, part.name, part.data); err != nil {
				return err
			}
		}
	} else {
		for _, name := range d.partOrder {
			data := d.parts[name]
			if name == documentPart {
				data = docXML
			}
			if err := writePart(zw, name, data); err != nil {
				return err
			}
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to close docx package: %w", err)
	}
	return nil
}

func writePart(zw *zip.Writer, name string, data []byte) error {
	fw, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create part %s: %w", name, err)
	}
	if _, err := fw.Write(data); err != nil {
		return fmt.Errorf("failed to write part %s: %w", name, err)
	}
	return nil
}

func (d *Document) renderDocumentXML() []byte {
	var b strings.Builder
	b.WriteString(d.bodyPrefix)
	for _, item := range d.body {
		writeBodyItem(&b, item)
	}
	b.WriteString(d.bodySuffix)
	return []byte(b.String())
}

func writeBodyItem(b *strings.Builder, item BodyItem) {
	switch v := item.(type) {
	case *Paragraph:
		writeParagraph(b, v)
	case *Table:
		writeTable(b, v)
	case raw:
		b.WriteString(string(v))
	}
}

// openTag writes the element's original start tag when one was parsed, so
// revision and paraId attributes survive the round trip.
func openTag(b *strings.Builder, stored, fallback string) {
	if stored != "" {
		b.WriteString(stored)
		return
	}
	b.WriteString(fallback)
}

func writeParagraph(b *strings.Builder, p *Paragraph) {
	openTag(b, p.startTag, "<w:p>")
	b.WriteString(p.propsXML())
	for _, c := range p.children {
		switch v := c.(type) {
		case *Run:
			writeRun(b, v)
		case raw:
			b.WriteString(string(v))
		}
	}
	b.WriteString("</w:p>")
}

func (p *Paragraph) propsXML() string {
	if p.props != "" {
		return p.props
	}
	if p.style == "" && p.align == "" && p.numID == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("<w:pPr>")
	if p.style != "" {
		fmt.Fprintf(&b, `<w:pStyle w:val="%s"/>`, p.style)
	}
	if p.numID != 0 {
		fmt.Fprintf(&b, `<w:numPr><w:ilvl w:val="0"/><w:numId w:val="%d"/></w:numPr>`, p.numID)
	}
	if p.align != "" {
		fmt.Fprintf(&b, `<w:jc w:val="%s"/>`, p.align)
	}
	b.WriteString("</w:pPr>")
	return b.String()
}

func writeRun(b *strings.Builder, r *Run) {
	openTag(b, r.startTag, "<w:r>")
	b.WriteString(r.propsXML())
	for _, c := range r.children {
		switch v := c.(type) {
		case runText:
			if v.preserve {
				b.WriteString(`<w:t xml:space="preserve">`)
			} else {
				b.WriteString("<w:t>")
			}
			b.WriteString(escape(v.text))
			b.WriteString("</w:t>")
		case raw:
			b.WriteString(string(v))
		}
	}
	b.WriteString("</w:r>")
}

func (r *Run) propsXML() string {
	if r.props != "" {
		return r.props
	}
	if !r.bold && !r.italic {
		return ""
	}
	var b strings.Builder
	b.WriteString("<w:rPr>")
	if r.bold {
		b.WriteString("<w:b/>")
	}
	if r.italic {
		b.WriteString("<w:i/>")
	}
	b.WriteString("</w:rPr>")
	return b.String()
}

func writeTable(b *strings.Builder, t *Table) {
	openTag(b, t.startTag, "<w:tbl>")
	for _, c := range t.children {
		switch v := c.(type) {
		case *TableRow:
			openTag(b, v.startTag, "<w:tr>")
			for _, rc := range v.children {
				switch cell := rc.(type) {
				case *TableCell:
					openTag(b, cell.startTag, "<w:tc>")
					b.WriteString(cell.props)
					for _, item := range cell.children {
						writeBodyItem(b, item)
					}
					b.WriteString("</w:tc>")
				case raw:
					b.WriteString(string(cell))
				}
			}
			b.WriteString("</w:tr>")
		case raw:
			b.WriteString(string(v))
		}
	}
	b.WriteString("</w:tbl>")
}

func escape(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
