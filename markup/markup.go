// Package markup parses the restricted inline markup dialect used in
// generated offer text: **bold**, *italic*, ***bold+italic***, headings,
// bullet lists and numbered lists. Nested emphasis is not supported.
package markup

import (
	"regexp"
	"strings"
)

// Span is a contiguous piece of text with uniform formatting.
type Span struct {
	Text   string
	Bold   bool
	Italic bool
}

// BlockKind classifies a parsed line.
type BlockKind int

const (
	Paragraph BlockKind = iota
	Heading
	BulletItem
	NumberedItem
)

// Block is one parsed line. Level is only meaningful for headings (1-6).
type Block struct {
	Kind  BlockKind
	Level int
	Spans []Span
}

var (
	reHeading  = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	reBullet   = regexp.MustCompile(`^[-*+]\s+(.+)$`)
	reNumbered = regexp.MustCompile(`^\d+\.\s+(.+)$`)
)

// Emphasis patterns, longest delimiter first. Single-asterisk matching only
// runs on segments left over by the longer runs, so it never consumes
// delimiters already claimed by ** or ***.
var emphasisLevels = []struct {
	re     *regexp.Regexp
	delim  int
	bold   bool
	italic bool
}{
	{regexp.MustCompile(`\*\*\*[^*]+\*\*\*`), 3, true, true},
	{regexp.MustCompile(`\*\*[^*]+\*\*`), 2, true, false},
	{regexp.MustCompile(`\*[^*]+\*`), 1, false, true},
}

// Parse splits text on line boundaries and classifies every non-empty line
// as heading, bullet item, numbered item or plain paragraph, in that order.
// Blank lines are dropped.
func Parse(text string) []Block {
	if text == "" {
		return nil
	}

	var blocks []Block
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " \t\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		if m := reHeading.FindStringSubmatch(line); m != nil {
			blocks = append(blocks, Block{
				Kind:  Heading,
				Level: len(m[1]),
				Spans: ParseSpans(m[2]),
			})
			continue
		}
		if m := reBullet.FindStringSubmatch(line); m != nil {
			blocks = append(blocks, Block{Kind: BulletItem, Spans: ParseSpans(m[1])})
			continue
		}
		if m := reNumbered.FindStringSubmatch(line); m != nil {
			blocks = append(blocks, Block{Kind: NumberedItem, Spans: ParseSpans(m[1])})
			continue
		}
		blocks = append(blocks, Block{Kind: Paragraph, Spans: ParseSpans(line)})
	}
	return blocks
}

// ParseSpans detects emphasis spans in a single line of text. Matching is
// non-overlapping and greedy: *** first, then **, then *. Unmatched sections
// become plain spans. Concatenating the span texts reproduces the input with
// the delimiters stripped.
func ParseSpans(text string) []Span {
	return matchSpans(text, 0)
}

func matchSpans(text string, level int) []Span {
	if text == "" {
		return nil
	}
	if level >= len(emphasisLevels) {
		return []Span{{Text: text}}
	}

	p := emphasisLevels[level]
	locs := p.re.FindAllStringIndex(text, -1)
	if locs == nil {
		return matchSpans(text, level+1)
	}

	var spans []Span
	last := 0
	for _, loc := range locs {
		if loc[0] > last {
			spans = append(spans, matchSpans(text[last:loc[0]], level+1)...)
		}
		inner := text[loc[0]+p.delim : loc[1]-p.delim]
		spans = append(spans, Span{Text: inner, Bold: p.bold, Italic: p.italic})
		last = loc[1]
	}
	if last < len(text) {
		spans = append(spans, matchSpans(text[last:], level+1)...)
	}
	return spans
}

// ContainsMarkup reports whether Parse would produce at least one
// non-paragraph block or at least one bold/italic span for text. Callers use
// it to decide between rich rendering and plain substitution.
func ContainsMarkup(text string) bool {
	for _, b := range Parse(text) {
		if b.Kind != Paragraph {
			return true
		}
		for _, s := range b.Spans {
			if s.Bold || s.Italic {
				return true
			}
		}
	}
	return false
}

// Flatten returns the plain text of a block with all delimiters stripped.
func Flatten(spans []Span) string {
	var b strings.Builder
	for _, s := range spans {
		b.WriteString(s.Text)
	}
	return b.String()
}
