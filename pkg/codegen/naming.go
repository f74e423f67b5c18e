// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package codegen

import (
	"strings"
	"unicode"
)

// naming is a target's identifier convention.
type naming struct {
	typeName  func(parts ...string) string
	funcName  func(s string) string
	fieldName func(s string) string
	argName   func(s string) string
	reserved  map[string]bool
}

func (n naming) safe(s string) string {
	if n.reserved[s] {
		return s + "_"
	}
	return s
}

// words splits an identifier written in snake, camel or Pascal case.
func words(s string) []string {
	var out []string
	var cur []rune
	runes := []rune(s)
	flush := func() {
		if len(cur) > 0 {
			out = append(out, strings.ToLower(string(cur)))
			cur = cur[:0]
		}
	}
	for i, r := range runes {
		if r == '_' || r == '-' || r == ' ' {
			flush()
			continue
		}
		if unicode.IsUpper(r) && len(cur) > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return out
}

func snake(s string) string {
	return strings.Join(words(s), "_")
}

func capitalize(w string) string {
	if w == "" {
		return w
	}
	r := []rune(w)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func pascal(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		for _, w := range words(p) {
			b.WriteString(capitalize(w))
		}
	}
	return b.String()
}

var goInitialisms = map[string]bool{
	"api": true, "http": true, "id": true, "ip": true, "json": true,
	"sql": true, "uri": true, "url": true, "uuid": true, "xml": true,
}

func goWord(w string) string {
	if goInitialisms[w] {
		return strings.ToUpper(w)
	}
	return capitalize(w)
}

func goPascal(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		for _, w := range words(p) {
			b.WriteString(goWord(w))
		}
	}
	return b.String()
}

func goCamel(s string) string {
	ws := words(s)
	if len(ws) == 0 {
		return s
	}
	var b strings.Builder
	b.WriteString(ws[0])
	for _, w := range ws[1:] {
		b.WriteString(goWord(w))
	}
	return b.String()
}

func reservedSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

var goNaming = naming{
	typeName:  goPascal,
	funcName:  func(s string) string { return goPascal(s) },
	fieldName: func(s string) string { return goPascal(s) },
	argName:   goCamel,
	reserved: reservedSet(
		"break", "case", "chan", "const", "continue", "default", "defer", "else",
		"fallthrough", "for", "func", "go", "goto", "if", "import", "interface",
		"map", "package", "range", "return", "select", "struct", "switch", "type",
		"var", "ctx", "r",
	),
}

var rustNaming = naming{
	typeName:  pascal,
	funcName:  snake,
	fieldName: snake,
	argName:   snake,
	reserved: reservedSet(
		"as", "async", "await", "break", "const", "continue", "crate", "dyn", "else",
		"enum", "extern", "false", "fn", "for", "if", "impl", "in", "let", "loop",
		"match", "mod", "move", "mut", "pub", "ref", "return", "self", "static",
		"struct", "super", "trait", "true", "type", "unsafe", "use", "where", "while",
	),
}

var pythonNaming = naming{
	typeName:  pascal,
	funcName:  snake,
	fieldName: snake,
	argName:   snake,
	reserved: reservedSet(
		"and", "as", "assert", "async", "await", "break", "class", "continue", "def",
		"del", "elif", "else", "except", "finally", "for", "from", "global", "if",
		"import", "in", "is", "lambda", "nonlocal", "not", "or", "pass", "raise",
		"return", "self", "try", "while", "with", "yield",
	),
}
