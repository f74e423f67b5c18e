// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package scaffold generates starter protocol files.
package scaffold

import (
	"fmt"
	"regexp"
	"strings"
	"text/template"
)

// Template names accepted by Options.Template.
const (
	TemplateBasic       = "basic"
	TemplateMultiParty  = "multi-party"
	TemplateComposition = "composition"
)

// Templates lists the available templates in display order.
var Templates = []string{TemplateBasic, TemplateMultiParty, TemplateComposition}

var templates = map[string]string{
	TemplateBasic:       basicTemplate,
	TemplateMultiParty:  multiPartyTemplate,
	TemplateComposition: compositionTemplate,
}

// Options configures project generation.
type Options struct {
	// Name is the protocol name. It must be a valid identifier.
	Name     string
	Template string
	// Config adds a bmpp.yaml with code generation defaults.
	Config bool
	// Target is the default code generation target written to bmpp.yaml.
	Target string
}

// File is one generated file, relative to the target directory.
type File struct {
	Path    string
	Content string
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Generate renders the files for opts.
func Generate(opts Options) ([]File, error) {
	if !identPattern.MatchString(opts.Name) {
		return nil, fmt.Errorf("invalid protocol name %q: use letters, digits and underscores", opts.Name)
	}
	if opts.Template == "" {
		opts.Template = TemplateBasic
	}
	src, ok := templates[opts.Template]
	if !ok {
		return nil, fmt.Errorf("unknown template %q; use %s", opts.Template, strings.Join(Templates, ", "))
	}
	if opts.Target == "" {
		opts.Target = "go"
	}

	specs := []struct {
		path, tmpl string
	}{
		{FileName(opts.Name), src},
	}
	if opts.Config {
		specs = append(specs, struct{ path, tmpl string }{"bmpp.yaml", configTemplate})
	}

	files := make([]File, 0, len(specs))
	for _, s := range specs {
		content, err := render(s.path, s.tmpl, opts)
		if err != nil {
			return nil, fmt.Errorf("generating %s: %w", s.path, err)
		}
		files = append(files, File{Path: s.path, Content: content})
	}
	return files, nil
}

// FileName is the protocol file written for a protocol name.
func FileName(name string) string {
	return strings.ToLower(name) + ".bmpp"
}

func render(name, src string, opts Options) (string, error) {
	funcs := template.FuncMap{
		"lower": strings.ToLower,
	}
	tmpl, err := template.New(name).Funcs(funcs).Parse(src)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, opts); err != nil {
		return "", err
	}
	return b.String(), nil
}
