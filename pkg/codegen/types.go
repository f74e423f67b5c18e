// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package codegen

import "github.com/jllopis/bmpp/pkg/protocol"

// typeTable maps every basic type to a target's nearest primitive.
var typeTable = map[Target]map[protocol.BasicType]string{
	TargetGo: {
		protocol.TypeString: "string",
		protocol.TypeInt:    "int64",
		protocol.TypeFloat:  "float64",
		protocol.TypeBool:   "bool",
	},
	TargetRust: {
		protocol.TypeString: "String",
		protocol.TypeInt:    "i64",
		protocol.TypeFloat:  "f64",
		protocol.TypeBool:   "bool",
	},
	TargetPython: {
		protocol.TypeString: "str",
		protocol.TypeInt:    "int",
		protocol.TypeFloat:  "float",
		protocol.TypeBool:   "bool",
	},
}

// MapType returns the target type for t.
func MapType(target Target, t protocol.BasicType) (string, error) {
	table, ok := typeTable[target]
	if !ok {
		return "", &GenerationError{Kind: UnsupportedTarget, Target: target, Detail: string(target)}
	}
	out, ok := table[t]
	if !ok {
		return "", &GenerationError{Kind: UnsupportedType, Target: target, Detail: string(t)}
	}
	return out, nil
}
