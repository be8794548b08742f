package analysis

import "github.com/mvp-joe/cortex-codesearch/internal/document"

// fieldValues collects the values of the named field.
func fieldValues(fields []document.Field, name string) []string {
	for _, f := range fields {
		if f.Name == name {
			return f.Values
		}
	}
	return nil
}

func fieldValue(fields []document.Field, name string) string {
	values := fieldValues(fields, name)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
