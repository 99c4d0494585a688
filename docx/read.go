package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// Open reads a .docx file from disk.
func Open(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat document: %w", err)
	}
	return OpenReader(f, st.Size())
}

// OpenReader reads a .docx package from r.
func OpenReader(r io.ReaderAt, size int64) (*Document, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open docx package: %w", err)
	}

	d := &Document{parts: make(map[string][]byte)}
	var docXML []byte

	for _, zf := range zr.File {
		rc, err := zf.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open part %s: %w", zf.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read part %s: %w", zf.Name, err)
		}

		d.partOrder = append(d.partOrder, zf.Name)
		if zf.Name == documentPart {
			docXML = data
		} else {
			d.parts[zf.Name] = data
		}
	}

	if docXML == nil {
		return nil, fmt.Errorf("not a wordprocessing document: missing %s", documentPart)
	}
	if err := d.parseBody(docXML); err != nil {
		return nil, fmt.Errorf("malformed document body: %w", err)
	}
	return d, nil
}

const documentPart = "word/document.xml"

// parseBody splits word/document.xml into a preserved prefix/suffix and a
// sequence of body items. Offsets from the decoder slice raw fragments out of
// the original bytes so unmodeled XML is kept exactly as authored.
func (d *Document) parseBody(data []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(data))

	// Advance to <w:body>.
	for {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("no <w:body> element: %w", err)
		}
		if se, ok := tok.(xml.StartElement); ok && se.Name.Local == "body" {
			break
		}
	}
	d.bodyPrefix = string(data[:dec.InputOffset()])

	for {
		prev := dec.InputOffset()
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("unexpected end of body: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				open := openTagOf(data, prev, dec.InputOffset())
				p, err := parseParagraph(dec, data)
				if err != nil {
					return err
				}
				p.startTag = open
				d.body = append(d.body, p)
			case "tbl":
				open := openTagOf(data, prev, dec.InputOffset())
				tbl, err := parseTable(dec, data)
				if err != nil {
					return err
				}
				tbl.startTag = open
				d.body = append(d.body, tbl)
			default:
				if err := dec.Skip(); err != nil {
					return err
				}
				d.body = append(d.body, raw(data[prev:dec.InputOffset()]))
			}
		case xml.EndElement:
			// </w:body>; keep the rest of the file verbatim.
			d.bodySuffix = string(data[prev:])
			return nil
		default:
			d.body = append(d.body, raw(data[prev:dec.InputOffset()]))
		}
	}
}

// parseParagraph consumes the children of an already-opened <w:p>.
func parseParagraph(dec *xml.Decoder, data []byte) (*Paragraph, error) {
	p := &Paragraph{}
	for {
		prev := dec.InputOffset()
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "pPr":
				if err := dec.Skip(); err != nil {
					return nil, err
				}
				p.props = string(data[prev:dec.InputOffset()])
			case "r":
				open := openTagOf(data, prev, dec.InputOffset())
				r, err := parseRun(dec, data)
				if err != nil {
					return nil, err
				}
				r.startTag = open
				p.children = append(p.children, r)
			default:
				if err := dec.Skip(); err != nil {
					return nil, err
				}
				p.children = append(p.children, raw(data[prev:dec.InputOffset()]))
			}
		case xml.EndElement:
			return p, nil
		default:
			p.children = append(p.children, raw(data[prev:dec.InputOffset()]))
		}
	}
}

// parseRun consumes the children of an already-opened <w:r>.
func parseRun(dec *xml.Decoder, data []byte) (*Run, error) {
	r := &Run{}
	for {
		prev := dec.InputOffset()
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "rPr":
				if err := dec.Skip(); err != nil {
					return nil, err
				}
				r.props = string(data[prev:dec.InputOffset()])
				r.bold = propFlag(r.props, boldPropRe)
				r.italic = propFlag(r.props, italicPropRe)
			case "t":
				text, err := readText(dec)
				if err != nil {
					return nil, err
				}
				r.children = append(r.children, runText{text: text, preserve: hasPreserveSpace(t)})
			default:
				if err := dec.Skip(); err != nil {
					return nil, err
				}
				r.children = append(r.children, raw(data[prev:dec.InputOffset()]))
			}
		case xml.EndElement:
			return r, nil
		default:
			r.children = append(r.children, raw(data[prev:dec.InputOffset()]))
		}
	}
}

// openTagOf slices an element's start tag out of the source bytes. A
// self-closed tag is reopened because children and the end tag are written
// separately on output.
func openTagOf(data []byte, from, to int64) string {
	s := string(data[from:to])
	if strings.HasSuffix(s, "/>") {
		return s[:len(s)-2] + ">"
	}
	return s
}

var (
	boldPropRe   = regexp.MustCompile(`<w:b(?:\s[^>]*)?/>`)
	italicPropRe = regexp.MustCompile(`<w:i(?:\s[^>]*)?/>`)
)

// propFlag reports whether a toggle property is present and not
// explicitly switched off.
func propFlag(props string, re *regexp.Regexp) bool {
	m := re.FindString(props)
	if m == "" {
		return false
	}
	return !strings.Contains(m, `"0"`) && !strings.Contains(m, `"false"`)
}

// readText consumes the character data of an already-opened <w:t>.
func readText(dec *xml.Decoder) (string, error) {
	var b strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			b.Write(t)
		case xml.EndElement:
			return b.String(), nil
		}
	}
}

func hasPreserveSpace(se xml.StartElement) bool {
	for _, a := range se.Attr {
		if a.Name.Local == "space" && a.Value == "preserve" {
			return true
		}
	}
	return false
}

// parseTable consumes the children of an already-opened <w:tbl>.
func parseTable(dec *xml.Decoder, data []byte) (*Table, error) {
	t := &Table{}
	for {
		prev := dec.InputOffset()
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "tr":
				open := openTagOf(data, prev, dec.InputOffset())
				row, err := parseRow(dec, data)
				if err != nil {
					return nil, err
				}
				row.startTag = open
				t.children = append(t.children, row)
			default:
				if err := dec.Skip(); err != nil {
					return nil, err
				}
				t.children = append(t.children, raw(data[prev:dec.InputOffset()]))
			}
		case xml.EndElement:
			return t, nil
		default:
			t.children = append(t.children, raw(data[prev:dec.InputOffset()]))
		}
	}
}

// parseRow consumes the children of an already-opened <w:tr>.
func parseRow(dec *xml.Decoder, data []byte) (*TableRow, error) {
	row := &TableRow{}
	for {
		prev := dec.InputOffset()
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "tc":
				open := openTagOf(data, prev, dec.InputOffset())
				cell, err := parseCell(dec, data)
				if err != nil {
					return nil, err
				}
				cell.startTag = open
				row.children = append(row.children, cell)
			default:
				if err := dec.Skip(); err != nil {
					return nil, err
				}
				row.children = append(row.children, raw(data[prev:dec.InputOffset()]))
			}
		case xml.EndElement:
			return row, nil
		default:
			row.children = append(row.children, raw(data[prev:dec.InputOffset()]))
		}
	}
}

// parseCell consumes the children of an already-opened <w:tc>.
func parseCell(dec *xml.Decoder, data []byte) (*TableCell, error) {
	cell := &TableCell{}
	for {
		prev := dec.InputOffset()
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "tcPr":
				if err := dec.Skip(); err != nil {
					return nil, err
				}
				cell.props = string(data[prev:dec.InputOffset()])
			case "p":
				open := openTagOf(data, prev, dec.InputOffset())
				p, err := parseParagraph(dec, data)
				if err != nil {
					return nil, err
				}
				p.startTag = open
				cell.children = append(cell.children, p)
			case "tbl":
				open := openTagOf(data, prev, dec.InputOffset())
				nested, err := parseTable(dec, data)
				if err != nil {
					return nil, err
				}
				nested.startTag = open
				cell.children = append(cell.children, nested)
			default:
				if err := dec.Skip(); err != nil {
					return nil, err
				}
				cell.children = append(cell.children, raw(data[prev:dec.InputOffset()]))
			}
		case xml.EndElement:
			return cell, nil
		default:
			cell.children = append(cell.children, raw(data[prev:dec.InputOffset()]))
		}
	}
}
