// Package extractor is the polyglot parser: it slices a file's content
// into stable, content-addressed spans using a per-language backend
// selected by file extension (file content is not sniffed).
package extractor

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"

	"github.com/llmc/ragcore/internal/logging"
	"github.com/llmc/ragcore/internal/ragerr"
	"github.com/llmc/ragcore/internal/types"
)

// CodeParser is the per-language backend contract. Every backend slices raw
// file content into an ordered sequence of spans; normalization and hashing
// are applied uniformly afterward by Extract so no backend has to get that
// invariant right on its own.
type CodeParser interface {
	// Parse extracts raw (unhashed) spans from source content.
	Parse(path string, content []byte) ([]RawSpan, error)
	// SupportedExtensions lists file extensions this parser handles,
	// each including the leading dot.
	SupportedExtensions() []string
	// Language is the short lowercase identifier stored on each span.
	Language() string
}

// RawSpan is a backend's pre-hash output; Extract turns it into a
// types.Span after normalizing and hashing Content.
type RawSpan struct {
	Symbol    string
	Kind      types.SpanKind
	StartLine int
	EndLine   int
	ByteStart int
	ByteEnd   int
	Content   string
}

var registry = map[string]CodeParser{}

func register(p CodeParser) {
	for _, ext := range p.SupportedExtensions() {
		registry[ext] = p
	}
}

func init() {
	register(newGoParser())
	register(newMarkdownParser())
	for _, p := range newTreeSitterParsers() {
		register(p)
	}
}

// Extract parses path's content into a complete, ordered sequence of spans
// ready for the store's ReplaceSpans ("Extractor output is always a
// complete, ordered sequence of spans for a file").
func Extract(path string, content []byte) ([]types.Span, error) {
	log := logging.For(logging.CategoryExtractor)
	ext := strings.ToLower(filepath.Ext(path))

	parser, ok := registry[ext]
	if !ok {
		if sidecarExt(ext) {
			return nil, ragerr.Extractor("opaque format requires sidecar generation first: "+path, nil)
		}
		log.Debugw("no parser for extension, treating as opaque text", "path", path, "ext", ext)
		parser = newPlainTextParser()
	}

	raw, err := parser.Parse(path, content)
	if err != nil {
		return nil, ragerr.Extractor("parse failed: "+path, err)
	}

	spans := make([]types.Span, 0, len(raw))
	for _, r := range raw {
		normalized := normalize(r.Content)
		spans = append(spans, types.Span{
			SpanHash:  hashContent(normalized),
			File:      path,
			Symbol:    r.Symbol,
			Kind:      r.Kind,
			StartLine: r.StartLine,
			EndLine:   r.EndLine,
			ByteStart: r.ByteStart,
			ByteEnd:   r.ByteEnd,
			Language:  parser.Language(),
			Content:   normalized,
		})
	}
	return spans, nil
}

// normalize strips trailing whitespace per line and unifies line endings,
// making span_hash robust to trivial whitespace-only edits.
func normalize(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	lines := strings.Split(content, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	return strings.Join(lines, "\n")
}

// hashContent computes span_hash = sha256(normalized_content), full hex
// to avoid truncation collisions.
func hashContent(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

func sidecarExt(ext string) bool {
	switch ext {
	case ".pdf", ".docx", ".pptx", ".rtf":
		return true
	}
	return false
}
