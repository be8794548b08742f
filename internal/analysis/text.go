package analysis

import (
	"bytes"
	"context"
	"strconv"
	"unicode/utf8"

	"github.com/mvp-joe/cortex-codesearch/internal/document"
)

// TextAnalyzer indexes prose and other plain-text files.
type TextAnalyzer struct{}

// NewTextAnalyzer creates a plain-text analyzer.
func NewTextAnalyzer() *TextAnalyzer {
	return &TextAnalyzer{}
}

// Name returns "text".
func (a *TextAnalyzer) Name() string { return "text" }

// Analyze emits content, title (first non-empty line, markdown heading
// markers stripped), tokens and line count.
func (a *TextAnalyzer) Analyze(ctx context.Context, path string, content []byte) ([]document.Field, error) {
	if IsBinary(content) {
		return nil, ErrBinaryContent
	}

	text := string(content)
	fields := []document.Field{
		document.NewField(document.FieldContent, text),
	}
	if title := firstLine(content); title != "" {
		fields = append(fields, document.NewField(document.FieldTitle, title))
	}
	fields = append(fields,
		document.NewField(document.FieldTokens, Tokenize(text)...),
		document.NewField(document.FieldLines, strconv.Itoa(countLines(content))),
	)
	return fields, nil
}

// maxTitleLen caps the title field, in bytes.
const maxTitleLen = 256

// firstLine returns the first non-empty line, truncated to maxTitleLen.
func firstLine(content []byte) string {
	for len(content) > 0 {
		line := content
		if i := bytes.IndexByte(content, '\n'); i >= 0 {
			line, content = content[:i], content[i+1:]
		} else {
			content = nil
		}
		line = bytes.TrimSpace(bytes.TrimLeft(bytes.TrimSpace(line), "#="))
		if len(line) == 0 {
			continue
		}
		if len(line) > maxTitleLen {
			line = line[:maxTitleLen]
			// Drop a rune cut in half by the cap.
			for len(line) > 0 {
				if r, size := utf8.DecodeLastRune(line); r != utf8.RuneError || size > 1 {
					break
				}
				line = line[:len(line)-1]
			}
		}
		return string(line)
	}
	return ""
}
