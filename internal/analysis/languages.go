package analysis

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	c "github.com/tree-sitter/tree-sitter-c/bindings/go"
	csharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"
	java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	php "github.com/tree-sitter/tree-sitter-php/bindings/go"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	ruby "github.com/tree-sitter/tree-sitter-ruby/bindings/go"
	rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// builtinLanguages returns the compiled-in tree-sitter grammars.
func builtinLanguages() []LanguageSpec {
	tsTypes := map[string]string{
		"class_declaration":          "class",
		"abstract_class_declaration": "class",
		"interface_declaration":      "interface",
		"type_alias_declaration":     "type",
		"enum_declaration":           "enum",
	}
	tsFuncs := map[string]string{
		"function_declaration":           "function",
		"generator_function_declaration": "function",
		"method_definition":              "method",
	}

	return []LanguageSpec{
		{
			Name:       "csharp",
			Extensions: []string{".cs", ".csx"},
			Language:   sitter.NewLanguage(csharp.Language()),
			Types: map[string]string{
				"class_declaration":     "class",
				"interface_declaration": "interface",
				"struct_declaration":    "struct",
				"enum_declaration":      "enum",
				"record_declaration":    "record",
			},
			Functions: map[string]string{
				"method_declaration":      "method",
				"constructor_declaration": "constructor",
				"property_declaration":    "property",
			},
			Imports:  []string{"using_directive"},
			Packages: []string{"namespace_declaration", "file_scoped_namespace_declaration"},
		},
		{
			Name:       "c",
			Extensions: []string{".c", ".h"},
			Language:   sitter.NewLanguage(c.Language()),
			Types: map[string]string{
				"struct_specifier": "struct",
				"union_specifier":  "union",
				"enum_specifier":   "enum",
				"type_definition":  "typedef",
			},
			Functions: map[string]string{
				"function_definition": "function",
			},
			Imports: []string{"preproc_include"},
		},
		{
			Name:       "java",
			Extensions: []string{".java"},
			Language:   sitter.NewLanguage(java.Language()),
			Types: map[string]string{
				"class_declaration":     "class",
				"interface_declaration": "interface",
				"enum_declaration":      "enum",
				"record_declaration":    "record",
			},
			Functions: map[string]string{
				"method_declaration":      "method",
				"constructor_declaration": "constructor",
			},
			Imports:  []string{"import_declaration"},
			Packages: []string{"package_declaration"},
		},
		{
			Name:       "php",
			Extensions: []string{".php"},
			Language:   sitter.NewLanguage(php.LanguagePHP()),
			Types: map[string]string{
				"class_declaration":     "class",
				"interface_declaration": "interface",
				"trait_declaration":     "trait",
				"enum_declaration":      "enum",
			},
			Functions: map[string]string{
				"function_definition": "function",
				"method_declaration":  "method",
			},
			Imports:  []string{"namespace_use_declaration"},
			Packages: []string{"namespace_definition"},
		},
		{
			Name:       "python",
			Extensions: []string{".py", ".pyi"},
			Language:   sitter.NewLanguage(python.Language()),
			Types: map[string]string{
				"class_definition": "class",
			},
			Functions: map[string]string{
				"function_definition": "function",
			},
			Imports: []string{"import_statement", "import_from_statement"},
		},
		{
			Name:       "ruby",
			Extensions: []string{".rb", ".rake", "Rakefile", "Gemfile"},
			Language:   sitter.NewLanguage(ruby.Language()),
			Types: map[string]string{
				"class":  "class",
				"module": "module",
			},
			Functions: map[string]string{
				"method":           "method",
				"singleton_method": "method",
			},
		},
		{
			Name:       "rust",
			Extensions: []string{".rs"},
			Language:   sitter.NewLanguage(rust.Language()),
			Types: map[string]string{
				"struct_item": "struct",
				"enum_item":   "enum",
				"trait_item":  "trait",
				"type_item":   "type",
				"union_item":  "union",
				"mod_item":    "module",
			},
			Functions: map[string]string{
				"function_item": "function",
			},
			Containers: map[string]string{
				"impl_item": "type",
			},
			Imports: []string{"use_declaration"},
		},
		{
			Name:       "typescript",
			Extensions: []string{".ts", ".mts", ".cts"},
			Language:   sitter.NewLanguage(typescript.LanguageTypescript()),
			Types:      tsTypes,
			Functions:  tsFuncs,
			Imports:    []string{"import_statement"},
		},
		{
			Name:       "tsx",
			Extensions: []string{".tsx"},
			Language:   sitter.NewLanguage(typescript.LanguageTSX()),
			Types:      tsTypes,
			Functions:  tsFuncs,
			Imports:    []string{"import_statement"},
		},
	}
}
