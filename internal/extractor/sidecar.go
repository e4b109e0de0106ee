// Sidecar generation converts opaque binary formats (PDF, DOCX/PPTX, legacy
// OLE2 .doc/.ppt, RTF, XLSX-family) into plain Markdown text files beside the
// source so the regular text/Markdown parsers can extract spans from them.
// Sidecar files are named by the source's content hash (SidecarPath). Nothing
// in this module calls GenerateSidecar during a sync cycle, and sidecars whose
// source has changed or been deleted are not removed.
package extractor

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/richardlehane/mscfb"
	"github.com/richardlehane/msoleps"
	"github.com/xuri/excelize/v2"

	"github.com/llmc/ragcore/internal/logging"
	"github.com/llmc/ragcore/internal/ragerr"
)

// SidecarPath returns the sidecar Markdown path for a source file, rooted at
// <repo_root>/.llmc/sidecars/<hash>.md.
func SidecarPath(repoRoot, contentHash string) string {
	return filepath.Join(repoRoot, ".llmc", "sidecars", contentHash+".md")
}

// GenerateSidecar produces a Markdown rendering of an opaque-format file and
// writes it to sidecarPath, returning the rendered text.
func GenerateSidecar(sourcePath, sidecarPath string) (string, error) {
	log := logging.For(logging.CategoryExtractor)
	ext := strings.ToLower(filepath.Ext(sourcePath))

	var (
		text string
		err  error
	)
	switch ext {
	case ".pdf":
		text, err = renderPDF(sourcePath)
	case ".xlsx", ".xlsm":
		text, err = renderXLSX(sourcePath)
	case ".docx", ".pptx":
		text, err = renderOOXML(sourcePath, ext)
	case ".doc", ".ppt", ".xls":
		text, err = renderLegacyOLE(sourcePath)
	case ".rtf":
		text, err = renderRTF(sourcePath)
	default:
		return "", ragerr.Extractor("unsupported opaque format: "+ext, nil)
	}
	if err != nil {
		return "", ragerr.Extractor("sidecar generation failed: "+sourcePath, err)
	}

	if err := os.MkdirAll(filepath.Dir(sidecarPath), 0o755); err != nil {
		return "", ragerr.Store("failed to create sidecar directory", err)
	}
	if err := os.WriteFile(sidecarPath, []byte(text), 0o644); err != nil {
		return "", ragerr.Store("failed to write sidecar", err)
	}
	log.Debugw("sidecar generated", "source", sourcePath, "sidecar", sidecarPath, "bytes", len(text))
	return text, nil
}

// renderPDF extracts per-page text and joins it with page-break headings,
// walking the document a page at a time.
func renderPDF(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening PDF: %w", err)
	}
	defer f.Close()

	var out strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		fmt.Fprintf(&out, "## Page %d\n\n%s\n\n", i, text)
	}
	return out.String(), nil
}

// renderXLSX renders each sheet as a Markdown pipe table, matching the
// each row's cells joined with a pipe delimiter.
func renderXLSX(path string) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", fmt.Errorf("opening XLSX: %w", err)
	}
	defer f.Close()

	var out strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil || len(rows) == 0 {
			continue
		}
		fmt.Fprintf(&out, "## %s\n\n", sheet)
		for _, row := range rows {
			fmt.Fprintf(&out, "| %s |\n", strings.Join(row, " | "))
		}
		out.WriteString("\n")
	}
	return out.String(), nil
}

// renderOOXML walks a DOCX/PPTX zip archive's text-bearing parts in name
// order and strips XML markup down to text runs.
func renderOOXML(path, ext string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("opening OOXML zip: %w", err)
	}
	defer zr.Close()

	var partName func(string) bool
	if ext == ".docx" {
		partName = func(n string) bool { return n == "word/document.xml" }
	} else {
		partName = func(n string) bool {
			return strings.HasPrefix(n, "ppt/slides/slide") && strings.HasSuffix(n, ".xml")
		}
	}

	var names []string
	files := map[string]*zip.File{}
	for _, zf := range zr.File {
		if partName(zf.Name) {
			names = append(names, zf.Name)
			files[zf.Name] = zf
		}
	}
	sort.Strings(names)

	var out strings.Builder
	for _, name := range names {
		rc, err := files[name].Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		text := extractRunText(data)
		if strings.TrimSpace(text) == "" {
			continue
		}
		if ext == ".pptx" {
			out.WriteString("## " + name + "\n\n")
		}
		out.WriteString(text)
		out.WriteString("\n\n")
	}
	return out.String(), nil
}

var ooxmlRunTag = regexp.MustCompile(`<(?:w:t|a:t)[^>]*>(.*?)</(?:w:t|a:t)>`)
var ooxmlParaBreak = regexp.MustCompile(`</(?:w:p|a:p)>`)

// extractRunText pulls <w:t>/<a:t> run text out of a document part,
// paragraph by paragraph. A full XML tree walk would be more robust, but
// these parts are well-formed enough that splitting on paragraph closers
// before a regexp pass over text runs is sufficient for indexing purposes.
func extractRunText(data []byte) string {
	normalized := ooxmlParaBreak.ReplaceAll(data, []byte("</w:p>\n"))
	paras := strings.Split(string(normalized), "\n")

	var out strings.Builder
	for _, para := range paras {
		matches := ooxmlRunTag.FindAllStringSubmatch(para, -1)
		if len(matches) == 0 {
			continue
		}
		var line strings.Builder
		for _, m := range matches {
			line.WriteString(m[1])
		}
		text := strings.TrimSpace(line.String())
		if text != "" {
			out.WriteString(text)
			out.WriteString("\n")
		}
	}
	return out.String()
}

// renderLegacyOLE walks a compound-file binary (.doc/.ppt/.xls) stream by
// stream, pulling the document's SummaryInformation title/subject as front
// matter and emitting readable ASCII runs from the main text stream. Legacy
// binary formats don't have a clean text extraction story in the pack; this
// is a best-effort rendering, not a full OLE2 text-layout parser.
func renderLegacyOLE(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	doc, err := mscfb.New(f)
	if err != nil {
		return "", fmt.Errorf("opening compound file: %w", err)
	}

	var out strings.Builder
	var textStreams [][]byte
	var summaryInfo []byte

	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		name := strings.ToLower(strings.TrimLeft(entry.Name, "\x01\x05"))
		buf := make([]byte, entry.Size)
		n, _ := entry.Read(buf)
		buf = buf[:n]

		switch {
		case name == "summaryinformation":
			summaryInfo = buf
		case name == "worddocument" || name == "powerpoint document" || strings.Contains(name, "text"):
			textStreams = append(textStreams, buf)
		}
	}

	if len(summaryInfo) > 0 {
		writeFrontMatter(&out, summaryInfo)
	}
	for _, buf := range textStreams {
		out.WriteString(asciiRuns(buf))
		out.WriteString("\n")
	}
	return out.String(), nil
}

// writeFrontMatter decodes the \x05SummaryInformation OLE property-set
// stream and emits its Title/Subject/Author fields as front matter.
func writeFrontMatter(out *strings.Builder, summaryInfoStream []byte) {
	props, err := msoleps.New(bytes.NewReader(summaryInfoStream))
	if err != nil || props == nil {
		return
	}
	for _, p := range props.Property {
		if p == nil || p.Name == "" {
			continue
		}
		fmt.Fprintf(out, "%s: %v\n", p.Name, p.Value())
	}
	out.WriteString("\n")
}

// asciiRuns keeps only printable-ASCII runs of 4+ bytes, a coarse heuristic
// for pulling readable text out of a legacy binary stream interleaved with
// formatting control bytes.
func asciiRuns(data []byte) string {
	var out strings.Builder
	var run strings.Builder
	flush := func() {
		if run.Len() >= 4 {
			out.WriteString(run.String())
			out.WriteString(" ")
		}
		run.Reset()
	}
	for _, b := range data {
		if b >= 0x20 && b < 0x7f {
			run.WriteByte(b)
		} else {
			flush()
		}
	}
	flush()
	return out.String()
}

// rtfControlWord matches RTF control words and groups; stdlib regexp is used
// here deliberately (see design notes) since no RTF-specific library appears
// anywhere in the retrieval pack.
var rtfControlWord = regexp.MustCompile(`\\[a-zA-Z]+-?\d* ?|\\'[0-9a-fA-F]{2}|[{}]`)

func renderRTF(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	text := rtfControlWord.ReplaceAllString(string(data), "")
	text = strings.ReplaceAll(text, "\\par", "\n")
	return strings.TrimSpace(text), nil
}
