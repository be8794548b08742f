package analysis

import (
	"bytes"
	"strings"
	"unicode"
	"unicode/utf8"
)

// binarySniffLen is how much of the content is inspected for NUL bytes.
const binarySniffLen = 8 * 1024

// minTokenLen drops single-character tokens.
const minTokenLen = 2

// IsBinary reports whether content looks like binary data.
func IsBinary(content []byte) bool {
	sniff := content
	if len(sniff) > binarySniffLen {
		sniff = sniff[:binarySniffLen]
	}
	return bytes.IndexByte(sniff, 0) >= 0
}

// Tokenize extracts lower-cased search terms from text. Identifiers are kept
// whole and also split on camelCase, snake_case and digit boundaries, so
// "parseHTTPRequest" yields "parsehttprequest", "parse", "http", "request".
// Order is first occurrence; duplicates are dropped.
func Tokenize(text string) []string {
	seen := make(map[string]struct{})
	var tokens []string
	add := func(tok string) {
		if utf8.RuneCountInString(tok) < minTokenLen {
			return
		}
		tok = strings.ToLower(tok)
		if _, ok := seen[tok]; ok {
			return
		}
		seen[tok] = struct{}{}
		tokens = append(tokens, tok)
	}

	for _, word := range words(text) {
		add(word)
		parts := splitIdentifier(word)
		if len(parts) > 1 {
			for _, p := range parts {
				add(p)
			}
		}
	}
	return tokens
}

// words splits text into runs of letters, digits and underscores.
func words(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
	})
}

// splitIdentifier breaks an identifier into its camelCase/snake_case parts.
func splitIdentifier(word string) []string {
	var parts []string
	for _, chunk := range strings.Split(word, "_") {
		if chunk == "" {
			continue
		}
		parts = append(parts, splitCamel(chunk)...)
	}
	return parts
}

func splitCamel(s string) []string {
	runes := []rune(s)
	var parts []string
	start := 0
	for i := 1; i < len(runes); i++ {
		prev, cur := runes[i-1], runes[i]
		boundary := false
		switch {
		case unicode.IsLower(prev) && unicode.IsUpper(cur):
			boundary = true
		case unicode.IsUpper(prev) && unicode.IsUpper(cur) && i+1 < len(runes) && unicode.IsLower(runes[i+1]):
			// "HTTPRequest": split before the R
			boundary = true
		case unicode.IsDigit(prev) != unicode.IsDigit(cur):
			boundary = true
		}
		if boundary {
			parts = append(parts, string(runes[start:i]))
			start = i
		}
	}
	parts = append(parts, string(runes[start:]))
	return parts
}

// countLines returns the number of lines in content.
func countLines(content []byte) int {
	if len(content) == 0 {
		return 0
	}
	n := bytes.Count(content, []byte{'\n'})
	if content[len(content)-1] != '\n' {
		n++
	}
	return n
}
