// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package codegen

// fileSpec is one artifact of a target. The "{{package}}" placeholder in
// path is replaced by the package name.
type fileSpec struct {
	path      string
	template  string
	validator bool
}

type targetSpec struct {
	files []fileSpec
}

var targetSpecs = map[Target]targetSpec{
	TargetGo: {files: []fileSpec{
		{path: "protocol.go", template: "protocol"},
		{path: "validator.go", template: "validator", validator: true},
		{path: "go.mod", template: "project"},
	}},
	TargetRust: {files: []fileSpec{
		{path: "src/lib.rs", template: "protocol"},
		{path: "src/validator.rs", template: "validator", validator: true},
		{path: "Cargo.toml", template: "project"},
	}},
	TargetPython: {files: []fileSpec{
		{path: "{{package}}/__init__.py", template: "init"},
		{path: "{{package}}/agents.py", template: "protocol"},
		{path: "{{package}}/validator.py", template: "validator", validator: true},
		{path: "pyproject.toml", template: "project"},
	}},
}

var builtinTemplates = map[Target]map[string]string{
	TargetGo: {
		"protocol":  goProtocolTemplate,
		"validator": goValidatorTemplate,
		"project":   goProjectTemplate,
	},
	TargetRust: {
		"protocol":  rustProtocolTemplate,
		"validator": rustValidatorTemplate,
		"project":   rustProjectTemplate,
	},
	TargetPython: {
		"init":      pythonInitTemplate,
		"protocol":  pythonProtocolTemplate,
		"validator": pythonValidatorTemplate,
		"project":   pythonProjectTemplate,
	},
}

// TemplateNames lists the templates a target renders, in artifact order.
// Overrides passed through Options.Templates must use these names.
func TemplateNames(target Target) []string {
	var out []string
	for _, f := range targetSpecs[target].files {
		out = append(out, f.template)
	}
	return out
}
