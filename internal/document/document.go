// Package document defines the field-based record produced by a successful
// parse and consumed by the search index.
package document

import (
	"strings"

	"github.com/google/uuid"
)

// Standard field names assembled by the parsing service ahead of any
// analyzer-produced fields.
const (
	FieldPath      = "path"
	FieldName      = "name"
	FieldExtension = "extension"
	FieldLanguage  = "language"
	FieldSize      = "size"
	FieldModified  = "modified"
)

// Analyzer-produced field names shared by the built-in analyzers.
const (
	FieldContent      = "content"
	FieldTokens       = "tokens"
	FieldTitle        = "title"
	FieldSymbols      = "symbols"
	FieldTypes        = "types"
	FieldFunctions    = "functions"
	FieldPackage      = "package"
	FieldImportsCount = "imports_count"
	FieldLines        = "lines"
)

// namespace scopes document IDs so the same path always maps to the same ID.
var namespace = uuid.MustParse("6f1c7e0a-3c2b-5d4e-9a8b-1c2d3e4f5a6b")

// Field is a named, possibly multi-valued document field.
type Field struct {
	Name   string
	Values []string
}

// NewField creates a field with the given values.
func NewField(name string, values ...string) Field {
	return Field{Name: name, Values: values}
}

// Value returns the first value, or "" if the field is empty.
func (f Field) Value() string {
	if len(f.Values) == 0 {
		return ""
	}
	return f.Values[0]
}

// Document is an ordered mapping from field name to field values.
// Field order is insertion order; adding to an existing field appends values
// without moving it.
type Document struct {
	ID     string
	fields []Field
	index  map[string]int
}

// New creates an empty document whose ID is derived from path.
func New(path string) *Document {
	return &Document{
		ID:    IDFor(path),
		index: make(map[string]int),
	}
}

// IDFor returns the deterministic document ID for a path.
func IDFor(path string) string {
	return uuid.NewSHA1(namespace, []byte(path)).String()
}

// Add appends values to the named field, creating it if needed.
func (d *Document) Add(name string, values ...string) {
	if i, ok := d.index[name]; ok {
		d.fields[i].Values = append(d.fields[i].Values, values...)
		return
	}
	d.index[name] = len(d.fields)
	d.fields = append(d.fields, Field{Name: name, Values: append([]string(nil), values...)})
}

// AddFields appends each field in order.
func (d *Document) AddFields(fields ...Field) {
	for _, f := range fields {
		d.Add(f.Name, f.Values...)
	}
}

// Set replaces the values of the named field, keeping its position.
func (d *Document) Set(name string, values ...string) {
	if i, ok := d.index[name]; ok {
		d.fields[i].Values = append([]string(nil), values...)
		return
	}
	d.Add(name, values...)
}

// Get returns the values of the named field.
func (d *Document) Get(name string) ([]string, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.fields[i].Values, true
}

// Value returns the first value of the named field, or "".
func (d *Document) Value(name string) string {
	i, ok := d.index[name]
	if !ok {
		return ""
	}
	return d.fields[i].Value()
}

// Has reports whether the named field exists.
func (d *Document) Has(name string) bool {
	_, ok := d.index[name]
	return ok
}

// Len returns the number of fields.
func (d *Document) Len() int {
	return len(d.fields)
}

// Names returns field names in order.
func (d *Document) Names() []string {
	names := make([]string, len(d.fields))
	for i, f := range d.fields {
		names[i] = f.Name
	}
	return names
}

// Fields returns a copy of the fields in order.
func (d *Document) Fields() []Field {
	out := make([]Field, len(d.fields))
	for i, f := range d.fields {
		out[i] = Field{Name: f.Name, Values: append([]string(nil), f.Values...)}
	}
	return out
}

// Clone returns a deep copy sharing no mutable state with d.
func (d *Document) Clone() *Document {
	c := &Document{
		ID:     d.ID,
		fields: d.Fields(),
		index:  make(map[string]int, len(d.index)),
	}
	for k, v := range d.index {
		c.index[k] = v
	}
	return c
}

// Map flattens the document for serialization and indexing. Single-valued
// fields map to a string, multi-valued fields to a []string.
func (d *Document) Map() map[string]interface{} {
	m := make(map[string]interface{}, len(d.fields))
	for _, f := range d.fields {
		switch len(f.Values) {
		case 0:
			m[f.Name] = ""
		case 1:
			m[f.Name] = f.Values[0]
		default:
			m[f.Name] = append([]string(nil), f.Values...)
		}
	}
	return m
}

// String renders the document as "name=value" lines, for debugging.
func (d *Document) String() string {
	var b strings.Builder
	for _, f := range d.fields {
		b.WriteString(f.Name)
		b.WriteByte('=')
		b.WriteString(strings.Join(f.Values, ","))
		b.WriteByte('\n')
	}
	return b.String()
}
