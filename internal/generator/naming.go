package generator

import (
	"strings"
	"unicode"
)

// goKeywords are identifiers that cannot be used as generated names.
var goKeywords = map[string]bool{
	"break": true, "case": true, "chan": true, "const": true, "continue": true,
	"default": true, "defer": true, "else": true, "fallthrough": true, "for": true,
	"func": true, "go": true, "goto": true, "if": true, "import": true,
	"interface": true, "map": true, "package": true, "range": true, "return": true,
	"select": true, "struct": true, "switch": true, "type": true, "var": true,
}

// commonInitialisms follow the convention of the standard library: an
// initialism segment keeps a uniform case in exported names.
var commonInitialisms = map[string]string{
	"id": "ID", "uuid": "UUID", "url": "URL", "uri": "URI", "api": "API",
	"sql": "SQL", "json": "JSON", "xml": "XML", "html": "HTML", "http": "HTTP",
	"ip": "IP", "db": "DB",
}

// ExportedName converts a database identifier such as "movie_id" or
// "ORDER_ITEMS" into an exported Go identifier ("MovieID", "OrderItems").
func ExportedName(name string) string {
	var b strings.Builder
	for _, part := range splitIdentifier(name) {
		if repl, ok := commonInitialisms[strings.ToLower(part)]; ok {
			b.WriteString(repl)
			continue
		}
		b.WriteString(titleCase(part))
	}
	out := b.String()
	if out == "" {
		return "X"
	}
	if !unicode.IsLetter(rune(out[0])) {
		out = "X" + out
	}
	return out
}

// UnexportedName converts a database identifier into an unexported Go
// identifier, renaming keywords with a trailing underscore.
func UnexportedName(name string) string {
	exported := ExportedName(name)
	runes := []rune(exported)
	for i := 0; i < len(runes); i++ {
		if i > 0 && i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
			break
		}
		runes[i] = unicode.ToLower(runes[i])
	}
	out := string(runes)
	if goKeywords[out] {
		out += "_"
	}
	return out
}

// FileName converts a table name to the generated file's base name, for
// example "OrderItems" becomes "order_items.go".
func FileName(tableName string) string {
	parts := splitIdentifier(tableName)
	for i, p := range parts {
		parts[i] = strings.ToLower(p)
	}
	return strings.Join(parts, "_") + ".go"
}

// splitIdentifier breaks an identifier on underscores, dashes, spaces, and
// lower-to-upper case transitions.
func splitIdentifier(name string) []string {
	var parts []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			parts = append(parts, cur.String())
			cur.Reset()
		}
	}
	runes := []rune(name)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == ' ' || r == '.':
			flush()
		case i > 0 && unicode.IsUpper(r) && unicode.IsLower(runes[i-1]):
			flush()
			cur.WriteRune(r)
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return parts
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
