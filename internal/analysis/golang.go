package analysis

import (
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"
	"strings"

	"github.com/mvp-joe/cortex-codesearch/internal/document"
)

// GoAnalyzer extracts Go symbols with go/ast.
type GoAnalyzer struct{}

// NewGoAnalyzer creates a Go analyzer.
func NewGoAnalyzer() *GoAnalyzer {
	return &GoAnalyzer{}
}

// Name returns "go".
func (a *GoAnalyzer) Name() string { return "go" }

// Analyze parses Go source and emits package, imports, types, functions,
// constants and variables alongside content and tokens.
func (a *GoAnalyzer) Analyze(ctx context.Context, path string, content []byte) ([]document.Field, error) {
	fset := token.NewFileSet()
	node, err := parser.ParseFile(fset, path, content, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}

	var symbols, types, functions []string
	for _, decl := range node.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			for _, spec := range d.Specs {
				switch s := spec.(type) {
				case *ast.TypeSpec:
					kind := "type"
					switch s.Type.(type) {
					case *ast.StructType:
						kind = "struct"
					case *ast.InterfaceType:
						kind = "interface"
					}
					types = append(types, s.Name.Name)
					symbols = append(symbols, kind+" "+s.Name.Name)
				case *ast.ValueSpec:
					kind := "var"
					if d.Tok == token.CONST {
						kind = "const"
					}
					for _, name := range s.Names {
						if name.Name == "_" {
							continue
						}
						symbols = append(symbols, kind+" "+name.Name)
					}
				}
			}
		case *ast.FuncDecl:
			name := d.Name.Name
			kind := "function"
			if d.Recv != nil && len(d.Recv.List) > 0 {
				kind = "method"
				name = receiverName(d.Recv.List[0].Type) + "." + name
			}
			functions = append(functions, name)
			symbols = append(symbols, kind+" "+name)
		}
	}

	text := string(content)
	return []document.Field{
		document.NewField(document.FieldContent, text),
		document.NewField(document.FieldPackage, node.Name.Name),
		document.NewField(document.FieldImportsCount, strconv.Itoa(len(node.Imports))),
		document.NewField(document.FieldSymbols, symbols...),
		document.NewField(document.FieldTypes, types...),
		document.NewField(document.FieldFunctions, functions...),
		document.NewField(document.FieldTokens, Tokenize(text)...),
		document.NewField(document.FieldLines, strconv.Itoa(countLines(content))),
	}, nil
}

// receiverName renders a method receiver type without pointer or type params.
func receiverName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return receiverName(t.X)
	case *ast.Ident:
		return t.Name
	case *ast.IndexExpr:
		return receiverName(t.X)
	case *ast.IndexListExpr:
		return receiverName(t.X)
	case *ast.SelectorExpr:
		return t.Sel.Name
	default:
		return strings.TrimSpace(fmt.Sprint(expr))
	}
}
