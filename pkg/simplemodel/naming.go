package simplemodel

import (
	"strings"
	"unicode"
)

// KeyNaming selects how Go field names map to record keys.
type KeyNaming string

// Key naming convention constants (typed).
const (
	KeyNamingSnakeCase KeyNaming = "snake_case"
	KeyNamingCamelCase KeyNaming = "camelCase"
)

// IsValid reports whether the naming convention is a known value.
func (n KeyNaming) IsValid() bool {
	switch n {
	case KeyNamingSnakeCase, KeyNamingCamelCase:
		return true
	}
	return false
}

// KeyFor converts a Go exported field name to a record key under this
// convention. "OwnerID" becomes "owner_id" (snake_case) or "ownerID"
// (camelCase); a leading acronym is lowered as a unit, so "ID" becomes "id"
// and "URLPath" becomes "url_path" or "urlPath".
func (n KeyNaming) KeyFor(field string) string {
	if field == "" {
		return field
	}
	switch n {
	case KeyNamingCamelCase:
		return toCamelCase(field)
	default:
		return toSnakeCase(field)
	}
}

func toSnakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(runes) + 4)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			// Word boundary: previous rune is lower/digit, or next rune is
			// lower (end of an acronym run).
			if i > 0 {
				prevLower := unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if prevLower || nextLower {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func toCamelCase(s string) string {
	runes := []rune(s)
	// Lower the leading upper-case run, keeping the last upper when it starts
	// a new word ("OwnerID" has no leading run beyond "O"; "IDKey" lowers
	// "ID" and keeps "Key").
	end := 0
	for end < len(runes) && unicode.IsUpper(runes[end]) {
		end++
	}
	if end == 0 {
		return s
	}
	if end < len(runes) && end > 1 {
		end--
	}
	var b strings.Builder
	b.Grow(len(runes))
	for i := 0; i < end; i++ {
		b.WriteRune(unicode.ToLower(runes[i]))
	}
	b.WriteString(string(runes[end:]))
	return b.String()
}
