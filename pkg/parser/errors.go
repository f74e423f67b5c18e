// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package parser

import (
	"fmt"

	"github.com/jllopis/bmpp/pkg/protocol"
)

// ParseError is a syntax error. Parsing stops at the first one.
type ParseError struct {
	Pos      protocol.Position `json:"position"`
	Expected string            `json:"expected"`
	Found    string            `json:"found"`

	// Context names the construct being parsed, e.g. "roles of protocol Purchase".
	Context string `json:"context,omitempty"`
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("parse error at line %d, column %d: expected %s, found %s",
		e.Pos.Line, e.Pos.Column, e.Expected, e.Found)
	if e.Context != "" {
		msg += " (in " + e.Context + ")"
	}
	return msg
}
