// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package nlconv

import (
	"fmt"
	"strings"

	"github.com/jllopis/bmpp/pkg/diag"
)

// Style selects how FromProtocol explains a protocol.
type Style string

const (
	StyleSummary   Style = "summary"
	StyleDetailed  Style = "detailed"
	StyleTechnical Style = "technical"
)

// Styles lists the accepted styles.
var Styles = []Style{StyleSummary, StyleDetailed, StyleTechnical}

// ParseStyle accepts a style name. The empty string means StyleDetailed.
func ParseStyle(s string) (Style, error) {
	if s == "" {
		return StyleDetailed, nil
	}
	for _, st := range Styles {
		if string(st) == strings.ToLower(s) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown style %q (want summary, detailed or technical)", s)
}

const grammarGuide = `A protocol is written as:

Name <Protocol>("what the protocol achieves") {
    roles
        Buyer <Agent>("what this participant does"),
        Seller <Agent>("what this participant does")

    parameters
        id <String>("meaning of the value"),
        price <Float>("meaning of the value")

    Buyer -> Seller: request <Action>("what the message means")[out id]
    Seller -> Buyer: offer <Action>("what the message means")[in id, out price]
    Other <Enactment>(Buyer, Seller, in id, out result)
}

Rules:
- Types are String, Int, Float and Bool.
- Every role and parameter used by a message must be declared.
- "out p" means the sender creates p; "in p" means the sender must already know p.
- Each parameter has exactly one producer unless producers sit on alternative branches.
- A message may only consume parameters produced earlier and known to its sender.
- Messages must not depend on each other in a cycle.
- <Enactment> runs another protocol declared in the same answer; list its roles first, then flows.`

const toProtocolSystem = `You design multi-party interaction protocols in the BMPP language.
Answer with one fenced code block labelled bmpp that contains only protocol text.

` + grammarGuide

func toProtocolPrompt(description string) string {
	return "Write a protocol for the following scenario.\n\n" + strings.TrimSpace(description)
}

// feedbackPrompt asks the model to repair its previous answer.
func feedbackPrompt(problems []string) string {
	var b strings.Builder
	b.WriteString("The protocol you wrote is not valid:\n")
	for _, p := range problems {
		b.WriteString("- ")
		b.WriteString(p)
		b.WriteString("\n")
	}
	b.WriteString("\nReturn the corrected protocol as one fenced bmpp code block.")
	return b.String()
}

func diagnosticProblems(ds []diag.Diagnostic) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.String()
	}
	return out
}

const fromProtocolSystem = `You explain multi-party interaction protocols written in the BMPP language
to readers who may not know the notation.

` + grammarGuide

func fromProtocolPrompt(text string, style Style) string {
	var task string
	switch style {
	case StyleSummary:
		task = "Summarise in one short paragraph what the protocol is for and who takes part."
	case StyleTechnical:
		task = "Describe the protocol for an engineer implementing one of its roles: the information each role must hold before acting, the order constraints between messages and any enacted sub-protocols."
	default:
		task = "Explain the purpose of the protocol, the responsibility of each role, the data exchanged and the order in which messages may happen."
	}
	return task + "\n\n```bmpp\n" + strings.TrimSpace(text) + "\n```"
}
