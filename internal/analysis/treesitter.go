package analysis

import (
	"context"
	"fmt"
	"strconv"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/mvp-joe/cortex-codesearch/internal/document"
)

// LanguageSpec describes how to extract symbols for one tree-sitter grammar.
// Node kinds are matched exactly against Node.Kind().
type LanguageSpec struct {
	Name       string
	Extensions []string
	Language   *sitter.Language

	// Types maps type-like node kinds to the symbol kind reported ("class", "struct").
	Types map[string]string
	// Functions maps callable node kinds to the symbol kind reported ("function", "method").
	Functions map[string]string
	// Containers are scoping nodes without a "name" field, mapped to the field
	// holding their name (e.g. rust impl_item -> "type").
	Containers map[string]string
	// Imports lists node kinds counted toward imports_count.
	Imports []string
	// Packages lists node kinds that declare a package or namespace.
	Packages []string
}

// TreeSitterAnalyzer extracts symbols from any grammar described by a LanguageSpec.
type TreeSitterAnalyzer struct {
	spec    LanguageSpec
	imports map[string]struct{}
	pkgs    map[string]struct{}
}

// NewTreeSitterAnalyzer creates an analyzer for spec.
func NewTreeSitterAnalyzer(spec LanguageSpec) *TreeSitterAnalyzer {
	a := &TreeSitterAnalyzer{
		spec:    spec,
		imports: make(map[string]struct{}, len(spec.Imports)),
		pkgs:    make(map[string]struct{}, len(spec.Packages)),
	}
	for _, k := range spec.Imports {
		a.imports[k] = struct{}{}
	}
	for _, k := range spec.Packages {
		a.pkgs[k] = struct{}{}
	}
	return a
}

// Name returns the language name.
func (a *TreeSitterAnalyzer) Name() string { return a.spec.Name }

// extraction accumulates symbols during a walk.
type extraction struct {
	pkg       string
	imports   int
	symbols   []string
	types     []string
	functions []string
}

// Analyze parses content with tree-sitter and emits symbol fields. Files
// with syntax errors are still indexed with whatever the parser recovered.
func (a *TreeSitterAnalyzer) Analyze(ctx context.Context, path string, content []byte) ([]document.Field, error) {
	if IsBinary(content) {
		return nil, ErrBinaryContent
	}

	parser := sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(a.spec.Language); err != nil {
		return nil, fmt.Errorf("failed to set %s grammar: %w", a.spec.Name, err)
	}

	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil, fmt.Errorf("%w: failed to parse %s file: %s", ErrSyntax, a.spec.Name, path)
	}
	defer tree.Close()

	ex := &extraction{}
	a.walk(tree.RootNode(), content, "", ex)

	text := string(content)
	fields := []document.Field{
		document.NewField(document.FieldContent, text),
	}
	if ex.pkg != "" {
		fields = append(fields, document.NewField(document.FieldPackage, ex.pkg))
	}
	fields = append(fields,
		document.NewField(document.FieldImportsCount, strconv.Itoa(ex.imports)),
		document.NewField(document.FieldSymbols, ex.symbols...),
		document.NewField(document.FieldTypes, ex.types...),
		document.NewField(document.FieldFunctions, ex.functions...),
		document.NewField(document.FieldTokens, Tokenize(text)...),
		document.NewField(document.FieldLines, strconv.Itoa(countLines(content))),
	)
	return fields, nil
}

// walk visits node and its children; parent is the enclosing type name.
func (a *TreeSitterAnalyzer) walk(node *sitter.Node, source []byte, parent string, ex *extraction) {
	if node == nil {
		return
	}

	kind := node.Kind()
	childParent := parent

	if _, ok := a.imports[kind]; ok {
		ex.imports++
	}
	if _, ok := a.pkgs[kind]; ok && ex.pkg == "" {
		ex.pkg = packageName(node, source)
	}

	if symKind, ok := a.spec.Types[kind]; ok {
		if name := nodeName(node, source); name != "" {
			ex.types = append(ex.types, qualify(parent, name))
			ex.symbols = append(ex.symbols, symKind+" "+qualify(parent, name))
			childParent = qualify(parent, name)
		}
	} else if symKind, ok := a.spec.Functions[kind]; ok {
		if name := nodeName(node, source); name != "" {
			if parent != "" && symKind == "function" {
				symKind = "method"
			}
			ex.functions = append(ex.functions, qualify(parent, name))
			ex.symbols = append(ex.symbols, symKind+" "+qualify(parent, name))
		}
	} else if field, ok := a.spec.Containers[kind]; ok {
		if n := node.ChildByFieldName(field); n != nil {
			childParent = nodeText(n, source)
		}
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		a.walk(node.Child(i), source, childParent, ex)
	}
}

func qualify(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

// nodeText returns the source text spanned by node.
func nodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}

// nodeName finds a declaration's name: the "name" field, or for C-style
// declarators the innermost identifier under the "declarator" field.
func nodeName(node *sitter.Node, source []byte) string {
	if n := node.ChildByFieldName("name"); n != nil {
		return nodeText(n, source)
	}
	decl := node.ChildByFieldName("declarator")
	for decl != nil {
		switch decl.Kind() {
		case "identifier", "field_identifier", "type_identifier":
			return nodeText(decl, source)
		}
		next := decl.ChildByFieldName("declarator")
		if next == nil {
			break
		}
		decl = next
	}
	return ""
}

// packageName reads the declared package/namespace from a declaration node.
func packageName(node *sitter.Node, source []byte) string {
	if n := node.ChildByFieldName("name"); n != nil {
		return nodeText(n, source)
	}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		switch child.Kind() {
		case "identifier", "scoped_identifier", "qualified_name", "namespace_name":
			return nodeText(child, source)
		}
	}
	return ""
}
