package extractor

import (
	"strings"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"

	"github.com/llmc/ragcore/internal/types"
)

// maxDocSpanChars is the splitter's size ceiling; a heading section that
// exceeds it is sentence-split into multiple doc_section spans instead of
// one oversized span.
const maxDocSpanChars = 2500

// markdownParser splits Markdown into heading-delimited sections and
// sentence-splits any section that exceeds maxDocSpanChars.
type markdownParser struct {
	tokenizer *sentences.DefaultSentenceTokenizer
}

func newMarkdownParser() *markdownParser {
	tok, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		tok = nil
	}
	return &markdownParser{tokenizer: tok}
}

func (p *markdownParser) Language() string             { return "markdown" }
func (p *markdownParser) SupportedExtensions() []string { return []string{".md", ".markdown"} }

type headingSection struct {
	heading   string
	startLine int
	endLine   int
	byteStart int
	byteEnd   int
	body      string
}

func (p *markdownParser) Parse(path string, content []byte) ([]RawSpan, error) {
	sections := splitHeadings(content)

	var spans []RawSpan
	for _, sec := range sections {
		if len(sec.body) <= maxDocSpanChars || p.tokenizer == nil {
			spans = append(spans, RawSpan{
				Symbol:    sec.heading,
				Kind:      types.SpanDocSection,
				StartLine: sec.startLine,
				EndLine:   sec.endLine,
				ByteStart: sec.byteStart,
				ByteEnd:   sec.byteEnd,
				Content:   sec.body,
			})
			continue
		}
		spans = append(spans, splitOversizedSection(p.tokenizer, sec)...)
	}
	return spans, nil
}

// splitHeadings scans line by line, starting a new section at each ATX
// heading ("#" through "######"). Content before the first heading becomes
// a section with an empty heading path. Each section's heading is the full
// ancestor breadcrumb ("## Install > ### Prereqs"), not just its own line,
// so a nested section still carries its parent's context.
func splitHeadings(content []byte) []headingSection {
	lines := strings.Split(string(content), "\n")
	var sections []headingSection

	var stack []string // one entry per heading level currently open
	var cur *headingSection
	byteOffset := 0
	for i, line := range lines {
		lineLen := len(line) + 1
		if level, ok := headingLevel(line); ok {
			if cur != nil {
				cur.endLine = i
				cur.byteEnd = byteOffset
				sections = append(sections, *cur)
			}
			if level > len(stack) {
				stack = append(stack, make([]string, level-len(stack))...)
			}
			stack = stack[:level]
			stack[level-1] = strings.TrimSpace(line)
			cur = &headingSection{
				heading:   strings.Join(nonEmpty(stack), " > "),
				startLine: i + 1,
				byteStart: byteOffset,
				body:      line,
			}
		} else if cur != nil {
			cur.body += "\n" + line
		} else {
			cur = &headingSection{startLine: 1, byteStart: 0, body: line}
		}
		byteOffset += lineLen
	}
	if cur != nil {
		cur.endLine = len(lines)
		cur.byteEnd = byteOffset
		sections = append(sections, *cur)
	}
	return sections
}

// nonEmpty drops unset levels from a heading stack, so a level jump (e.g.
// "#" directly to "###" with no "##" in between) doesn't leave a blank
// breadcrumb segment.
func nonEmpty(stack []string) []string {
	out := make([]string, 0, len(stack))
	for _, s := range stack {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// headingLevel reports the ATX heading level (1 through 6) of line, and
// whether it is a heading at all.
func headingLevel(line string) (int, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "#") {
		return 0, false
	}
	n := 0
	for n < len(trimmed) && trimmed[n] == '#' {
		n++
	}
	if n <= 6 && (n == len(trimmed) || trimmed[n] == ' ') {
		return n, true
	}
	return 0, false
}

// splitOversizedSection breaks a section's body into sentence-aligned
// chunks under maxDocSpanChars, each sharing the section's heading symbol
// with a numeric suffix.
func splitOversizedSection(tok *sentences.DefaultSentenceTokenizer, sec headingSection) []RawSpan {
	sents := tok.Tokenize(sec.body)

	var spans []RawSpan
	var chunk strings.Builder
	part := 1
	lineCursor := sec.startLine

	flush := func() {
		if chunk.Len() == 0 {
			return
		}
		symbol := sec.heading
		if symbol == "" {
			symbol = "(preamble)"
		}
		spans = append(spans, RawSpan{
			Symbol:    symbol + " #" + itoa(part),
			Kind:      types.SpanDocSection,
			StartLine: lineCursor,
			EndLine:   lineCursor + strings.Count(chunk.String(), "\n"),
			ByteStart: sec.byteStart,
			ByteEnd:   sec.byteStart + chunk.Len(),
			Content:   chunk.String(),
		})
		lineCursor += strings.Count(chunk.String(), "\n") + 1
		part++
		chunk.Reset()
	}

	for _, s := range sents {
		if chunk.Len()+len(s.Text) > maxDocSpanChars && chunk.Len() > 0 {
			flush()
		}
		chunk.WriteString(s.Text)
	}
	flush()
	return spans
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
