package extractor

import "github.com/llmc/ragcore/internal/types"

// plainTextParser is the fallback for any file extension with no dedicated
// backend: the whole file becomes a single block span.
type plainTextParser struct{}

func newPlainTextParser() *plainTextParser { return &plainTextParser{} }

func (p *plainTextParser) Language() string             { return "text" }
func (p *plainTextParser) SupportedExtensions() []string { return nil }

func (p *plainTextParser) Parse(path string, content []byte) ([]RawSpan, error) {
	return []RawSpan{{
		Symbol:    path,
		Kind:      types.SpanBlock,
		StartLine: 1,
		EndLine:   lineCount(content),
		ByteStart: 0,
		ByteEnd:   len(content),
		Content:   string(content),
	}}, nil
}

func lineCount(content []byte) int {
	n := 1
	for _, b := range content {
		if b == '\n' {
			n++
		}
	}
	return n
}
