// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package codegen

const pythonInitTemplate = `"""Scaffold generated by {{.Generator}}."""
`

const pythonProtocolTemplate = `"""Scaffold generated by {{.Generator}}. Complete the operation bodies."""

from __future__ import annotations

from dataclasses import dataclass
{{range .Protocols}}
# {{.Name}}{{if .Description}}: {{comment .Description}}{{end}}
{{range .Aliases}}
{{.Name}} = {{.Type}}
{{- end}}
{{range .Results}}

@dataclass
class {{.Name}}:
    """Parameters bound by {{.Action}}."""
{{range .Fields}}
    {{.Name}}: {{.Type}}
{{- end}}
{{end}}
{{- range .Roles}}

class {{.TypeName}}:
    """Role {{.Name}}{{if .Description}}: {{pydoc .Description}}{{end}}"""
{{range .Operations}}
    def {{.Name}}(self{{range .Inputs}}, {{.Arg}}: {{.Type}}{{end}}) -> {{.ResultType}}:
        """{{if .Protocol}}Enacts {{.Protocol}} with roles {{join .Roles ", "}}.{{else}}Sends {{.Action}} to {{.To}}.{{end}}{{if .Description}} {{pydoc .Description}}{{end}}"""
        raise NotImplementedError({{quote .Action}})
{{end}}
{{- end}}
{{- end}}`

const pythonValidatorTemplate = `"""Trace checker generated by {{.Generator}}."""

from __future__ import annotations

from dataclasses import dataclass, field
from typing import Any, Dict, List, Optional


@dataclass
class Event:
    """One observed step of a protocol run.

    action is the action name, or the enacted protocol name for an
    enactment; a repeated label carries a "#n" suffix.
    """

    action: str
    bindings: Dict[str, Any] = field(default_factory=dict)


@dataclass
class Violation:
    """A protocol property broken by a trace."""

    property: str
    event: int
    action: str
    message: str
    parameter: Optional[str] = None
    role: Optional[str] = None


def _check_trace(spec: Dict[str, Any], events: List[Event]) -> List[Violation]:
    bound = set(spec["external"])
    known = {role: set(spec["external"]) for role in spec["roles"]}
    out: List[Violation] = []
    for i, ev in enumerate(events):
        node = spec["nodes"].get(ev.action)
        if node is None:
            out.append(Violation("completeness", i, ev.action, "action is not part of the protocol"))
            continue
        for param, roles in node["inputs"]:
            if param not in bound:
                out.append(Violation("causality", i, ev.action, f"{param} is used before it is bound", param))
                continue
            for role in roles:
                if param not in known[role]:
                    out.append(Violation("enactability", i, ev.action, f"{role} does not know {param}", param, role))
        for param in node["outputs"]:
            if param not in ev.bindings:
                out.append(Violation("completeness", i, ev.action, f"{param} is not bound", param))
            if param in bound:
                out.append(Violation("safety", i, ev.action, f"{param} is bound more than once", param))
        learned = [param for param, _ in node["inputs"]] + list(node["outputs"])
        for role in node["participants"]:
            known[role].update(learned)
        bound.update(node["outputs"])
    return out
{{range .Protocols}}

_{{upper .Key}}_TRACE: Dict[str, Any] = {
    "roles": [{{range $i, $r := .Roles}}{{if $i}}, {{end}}{{quote $r.Name}}{{end}}],
    "external": [{{join (quoteAll .ExternalInputs) ", "}}],
    "nodes": {
{{- range .Nodes}}
        {{quote .Label}}: {
            "participants": [{{join (quoteAll .Participants) ", "}}],
            "inputs": [
{{- range .Inputs}}
                ({{quote .Parameter}}, [{{join (quoteAll .Roles) ", "}}]),
{{- end}}
            ],
            "outputs": [{{join (quoteAll .Outputs) ", "}}],
        },
{{- end}}
    },
}


def {{.CheckFunc}}(events: List[Event]) -> List[Violation]:
    """Check an observed trace of {{.Name}} and return every violation in event order."""
    return _check_trace(_{{upper .Key}}_TRACE, events)
{{end}}`

const pythonProjectTemplate = `[build-system]
requires = ["setuptools>=61"]
build-backend = "setuptools.build_meta"

[project]
name = {{quote .Package}}
version = "0.1.0"
requires-python = ">=3.9"

[tool.setuptools]
packages = [{{quote .Package}}]
`
