// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package codegen

const rustProtocolTemplate = `//! Scaffold generated by {{.Generator}}. Complete the operation bodies.
#![allow(dead_code, unused_variables)]
{{if .IncludeValidator}}
pub mod validator;
{{end}}
/// Error returned by completed operations.
pub type Error = Box<dyn std::error::Error + Send + Sync>;
{{range .Protocols}}
// {{.Name}}{{if .Description}}: {{comment .Description}}{{end}}
{{range .Aliases}}
/// ` + "`{{.Parameter}}`" + `{{if .Description}}: {{comment .Description}}{{end}}
pub type {{.Name}} = {{.Type}};
{{end}}
{{- range .Results}}
/// Parameters bound by ` + "`{{.Action}}`" + `.
#[derive(Debug, Clone, Default, PartialEq)]
pub struct {{.Name}} {
{{- range .Fields}}
    pub {{.Name}}: {{.Type}},
{{- end}}
}
{{end}}
{{- range .Roles}}
/// Role ` + "`{{.Name}}`" + `{{if .Description}}: {{comment .Description}}{{end}}
#[derive(Debug, Default)]
pub struct {{.TypeName}};

impl {{.TypeName}} {
{{- range $i, $op := .Operations}}
{{- if $i}}
{{end}}
    /// {{if .Protocol}}Enacts ` + "`{{.Protocol}}`" + ` with roles {{join .Roles ", "}}.{{else}}Sends ` + "`{{.Action}}`" + ` to {{.To}}.{{end}}
{{- if .Description}}
    ///
    /// {{comment .Description}}
{{- end}}
    pub fn {{.Name}}(&self{{range .Inputs}}, {{.Arg}}: {{.Type}}{{end}}) -> Result<{{.ResultType}}, Error> {
        todo!({{quote .Action}})
    }
{{- end}}
}
{{end}}
{{- end}}`

const rustValidatorTemplate = `//! Trace checker generated by {{.Generator}}.
use std::collections::{HashMap, HashSet};

/// One observed step of a protocol run. ` + "`action`" + ` is the action name, or
/// the enacted protocol name for an enactment; a repeated label carries a
/// "#n" suffix.
#[derive(Debug, Clone, Default)]
pub struct Event {
    pub action: String,
    pub bindings: HashMap<String, String>,
}

/// A protocol property broken by a trace.
#[derive(Debug, Clone, PartialEq, Eq)]
pub struct Violation {
    pub property: &'static str,
    pub event: usize,
    pub action: String,
    pub parameter: Option<String>,
    pub role: Option<String>,
    pub message: String,
}

struct TraceInput {
    parameter: &'static str,
    roles: &'static [&'static str],
}

struct TraceNode {
    label: &'static str,
    participants: &'static [&'static str],
    inputs: &'static [TraceInput],
    outputs: &'static [&'static str],
}

struct TraceSpec {
    roles: &'static [&'static str],
    external: &'static [&'static str],
    nodes: &'static [TraceNode],
}

fn check_trace(spec: &TraceSpec, events: &[Event]) -> Vec<Violation> {
    let mut bound: HashSet<&str> = spec.external.iter().copied().collect();
    let mut known: HashMap<&str, HashSet<&str>> = spec
        .roles
        .iter()
        .map(|r| (*r, spec.external.iter().copied().collect()))
        .collect();
    let mut out = Vec::new();
    for (i, ev) in events.iter().enumerate() {
        let node = match spec.nodes.iter().find(|n| n.label == ev.action) {
            Some(n) => n,
            None => {
                out.push(Violation {
                    property: "completeness",
                    event: i,
                    action: ev.action.clone(),
                    parameter: None,
                    role: None,
                    message: "action is not part of the protocol".to_string(),
                });
                continue;
            }
        };
        let mut report = |property: &'static str, parameter: &str, role: Option<&str>, message: String| {
            out.push(Violation {
                property,
                event: i,
                action: ev.action.clone(),
                parameter: Some(parameter.to_string()),
                role: role.map(str::to_string),
                message,
            });
        };
        for input in node.inputs {
            if !bound.contains(input.parameter) {
                report("causality", input.parameter, None, format!("{} is used before it is bound", input.parameter));
                continue;
            }
            for role in input.roles {
                let knows = known.get(*role).map_or(false, |k| k.contains(input.parameter));
                if !knows {
                    report("enactability", input.parameter, Some(*role), format!("{} does not know {}", role, input.parameter));
                }
            }
        }
        for output in node.outputs {
            if !ev.bindings.contains_key(*output) {
                report("completeness", *output, None, format!("{} is not bound", output));
            }
            if bound.contains(*output) {
                report("safety", *output, None, format!("{} is bound more than once", output));
            }
        }
        for role in node.participants {
            let k = known.entry(*role).or_default();
            for input in node.inputs {
                k.insert(input.parameter);
            }
            for output in node.outputs {
                k.insert(*output);
            }
        }
        for output in node.outputs {
            bound.insert(*output);
        }
    }
    out
}
{{range .Protocols}}
const {{upper .Key}}_TRACE: TraceSpec = TraceSpec {
    roles: &[{{range $i, $r := .Roles}}{{if $i}}, {{end}}{{quote $r.Name}}{{end}}],
    external: &[{{join (quoteAll .ExternalInputs) ", "}}],
    nodes: &[
{{- range .Nodes}}
        TraceNode {
            label: {{quote .Label}},
            participants: &[{{join (quoteAll .Participants) ", "}}],
            inputs: &[
{{- range .Inputs}}
                TraceInput { parameter: {{quote .Parameter}}, roles: &[{{join (quoteAll .Roles) ", "}}] },
{{- end}}
            ],
            outputs: &[{{join (quoteAll .Outputs) ", "}}],
        },
{{- end}}
    ],
};

/// Checks an observed trace of ` + "`{{.Name}}`" + ` and returns every violation in
/// event order.
pub fn {{.CheckFunc}}(events: &[Event]) -> Vec<Violation> {
    check_trace(&{{upper .Key}}_TRACE, events)
}
{{end}}`

const rustProjectTemplate = `[package]
name = {{quote .Package}}
version = "0.1.0"
edition = "2021"

[lib]
path = "src/lib.rs"
`
