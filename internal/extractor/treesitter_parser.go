package extractor

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/llmc/ragcore/internal/types"
)

// treeSitterLang describes one tree-sitter grammar's node-type vocabulary;
// classDef/funcDef/body field names differ enough across Python/TS/JS that
// each language gets its own table instead of a shared switch.
type treeSitterLang struct {
	lang       *sitter.Language
	language   string
	extensions []string
	classNodes []string
	funcNodes  []string
}

var treeSitterLangs = []treeSitterLang{
	{
		lang:       python.GetLanguage(),
		language:   "python",
		extensions: []string{".py", ".pyw"},
		classNodes: []string{"class_definition"},
		funcNodes:  []string{"function_definition"},
	},
	{
		lang:       typescript.GetLanguage(),
		language:   "typescript",
		extensions: []string{".ts", ".tsx"},
		classNodes: []string{"class_declaration"},
		funcNodes:  []string{"function_declaration", "method_definition"},
	},
	{
		lang:       javascript.GetLanguage(),
		language:   "javascript",
		extensions: []string{".js", ".jsx", ".mjs"},
		classNodes: []string{"class_declaration"},
		funcNodes:  []string{"function_declaration", "method_definition"},
	},
}

// treeSitterParser walks a tree-sitter AST looking for class/function
// nodes: recurse into named children, special-case class bodies to link
// methods to their parent, fall through to recursion everywhere else.
type treeSitterParser struct {
	def treeSitterLang
}

func newTreeSitterParsers() []CodeParser {
	parsers := make([]CodeParser, 0, len(treeSitterLangs))
	for _, def := range treeSitterLangs {
		parsers = append(parsers, &treeSitterParser{def: def})
	}
	return parsers
}

func (p *treeSitterParser) Language() string             { return p.def.language }
func (p *treeSitterParser) SupportedExtensions() []string { return p.def.extensions }

func (p *treeSitterParser) Parse(path string, content []byte) ([]RawSpan, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(p.def.lang)

	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	var spans []RawSpan
	p.walk(tree.RootNode(), "", content, &spans)
	return spans, nil
}

func (p *treeSitterParser) isClassNode(t string) bool { return contains(p.def.classNodes, t) }
func (p *treeSitterParser) isFuncNode(t string) bool  { return contains(p.def.funcNodes, t) }

func contains(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}

func (p *treeSitterParser) walk(node *sitter.Node, parentSymbol string, content []byte, spans *[]RawSpan) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		t := child.Type()

		switch {
		case p.isClassNode(t):
			name := fieldText(child, "name", content)
			if name == "" {
				p.walk(child, parentSymbol, content, spans)
				continue
			}
			*spans = append(*spans, nodeSpan(child, name, types.SpanClass, content))
			if body := child.ChildByFieldName("body"); body != nil {
				p.walk(body, name, content, spans)
			}

		case p.isFuncNode(t):
			name := fieldText(child, "name", content)
			if name == "" {
				continue
			}
			symbol := name
			kind := types.SpanFunction
			if parentSymbol != "" {
				kind = types.SpanMethod
				symbol = parentSymbol + "." + name
			}
			*spans = append(*spans, nodeSpan(child, symbol, kind, content))

		default:
			p.walk(child, parentSymbol, content, spans)
		}
	}
}

func fieldText(node *sitter.Node, field string, content []byte) string {
	n := node.ChildByFieldName(field)
	if n == nil {
		return ""
	}
	return string(content[n.StartByte():n.EndByte()])
}

func nodeSpan(node *sitter.Node, symbol string, kind types.SpanKind, content []byte) RawSpan {
	start := int(node.StartByte())
	end := int(node.EndByte())
	return RawSpan{
		Symbol:    symbol,
		Kind:      kind,
		StartLine: int(node.StartPoint().Row) + 1,
		EndLine:   int(node.EndPoint().Row) + 1,
		ByteStart: start,
		ByteEnd:   end,
		Content:   strings.TrimRight(string(content[start:end]), "\n"),
	}
}
