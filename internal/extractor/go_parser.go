package extractor

import (
	"go/ast"
	"go/parser"
	"go/token"

	"github.com/llmc/ragcore/internal/types"
)

// goParser splits Go source into one span per top-level func/method/type/
// const/var declaration, plus a single import block span.
type goParser struct{}

func newGoParser() *goParser { return &goParser{} }

func (p *goParser) Language() string             { return "go" }
func (p *goParser) SupportedExtensions() []string { return []string{".go"} }

func (p *goParser) Parse(path string, content []byte) ([]RawSpan, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, content, parser.ParseComments)
	if err != nil {
		return nil, err
	}

	var spans []RawSpan

	var importDecls []*ast.GenDecl
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			spans = append(spans, funcSpan(fset, content, d))
		case *ast.GenDecl:
			if d.Tok == token.IMPORT {
				importDecls = append(importDecls, d)
				continue
			}
			spans = append(spans, genDeclSpans(fset, content, d)...)
		}
	}

	if len(importDecls) > 0 {
		start := importDecls[0].Pos()
		end := importDecls[len(importDecls)-1].End()
		spans = append([]RawSpan{declSpan(fset, content, "imports", types.SpanBlock, start, end)}, spans...)
	}

	return spans, nil
}

func funcSpan(fset *token.FileSet, content []byte, d *ast.FuncDecl) RawSpan {
	name := d.Name.Name
	kind := types.SpanFunction
	if d.Recv != nil && len(d.Recv.List) > 0 {
		kind = types.SpanMethod
		if recvName := receiverTypeName(d.Recv.List[0].Type); recvName != "" {
			name = recvName + "." + name
		}
	}
	return declSpan(fset, content, name, kind, d.Pos(), d.End())
}

func receiverTypeName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return receiverTypeName(t.X)
	default:
		return ""
	}
}

func genDeclSpans(fset *token.FileSet, content []byte, d *ast.GenDecl) []RawSpan {
	var spans []RawSpan
	for _, spec := range d.Specs {
		switch s := spec.(type) {
		case *ast.TypeSpec:
			kind := types.SpanTypeAlias
			if _, ok := s.Type.(*ast.StructType); ok {
				kind = types.SpanClass
			}
			if _, ok := s.Type.(*ast.InterfaceType); ok {
				kind = types.SpanInterface
			}
			spans = append(spans, declSpan(fset, content, s.Name.Name, kind, s.Pos(), s.End()))
		case *ast.ValueSpec:
			kind := types.SpanVar
			if d.Tok == token.CONST {
				kind = types.SpanConst
			}
			for i, nm := range s.Names {
				// A single name gets the whole spec ("A = iota"); a spec
				// declaring several names at once ("var a, b int") shares
				// one range, so each name is narrowed to its own
				// identifier plus its matching value, if any, to keep
				// content (and therefore span_hash) distinct per name.
				start, end := s.Pos(), s.End()
				if len(s.Names) > 1 {
					start = nm.Pos()
					end = nm.End()
					if i < len(s.Values) {
						end = s.Values[i].End()
					}
				}
				spans = append(spans, declSpan(fset, content, nm.Name, kind, start, end))
			}
		}
	}
	return spans
}

func declSpan(fset *token.FileSet, content []byte, symbol string, kind types.SpanKind, start, end token.Pos) RawSpan {
	startPos := fset.Position(start)
	endPos := fset.Position(end)
	byteStart := startPos.Offset
	byteEnd := endPos.Offset
	if byteEnd > len(content) {
		byteEnd = len(content)
	}
	return RawSpan{
		Symbol:    symbol,
		Kind:      kind,
		StartLine: startPos.Line,
		EndLine:   endPos.Line,
		ByteStart: byteStart,
		ByteEnd:   byteEnd,
		Content:   string(content[byteStart:byteEnd]),
	}
}
