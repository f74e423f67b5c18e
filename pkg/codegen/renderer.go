// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package codegen

import (
	"bytes"
	"strconv"
	"strings"
	"text/template"
)

// Renderer substitutes a RenderContext into a template body.
type Renderer interface {
	Render(name, body string, ctx *RenderContext) (string, error)
}

// TemplateRenderer renders with text/template.
type TemplateRenderer struct{}

var templateFuncs = template.FuncMap{
	"quote":    strconv.Quote,
	"quoteAll": quoteAll,
	"comment":  comment,
	"pydoc":    pydoc,
	"join":     strings.Join,
	"last":     last,
	"upper":    strings.ToUpper,
}

// Render implements Renderer.
func (TemplateRenderer) Render(name, body string, ctx *RenderContext) (string, error) {
	tmpl, err := template.New(name).Funcs(templateFuncs).Option("missingkey=error").Parse(body)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ctx); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// comment flattens s onto one line so it can follow a line comment marker.
func comment(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// pydoc makes s safe inside a triple quoted Python string.
func pydoc(s string) string {
	s = comment(s)
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

func quoteAll(s []string) []string {
	out := make([]string, len(s))
	for i, v := range s {
		out[i] = strconv.Quote(v)
	}
	return out
}

// last reports whether i is the final index of a sequence of length n.
func last(i, n int) bool {
	return i == n-1
}
