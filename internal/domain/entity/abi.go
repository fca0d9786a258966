package entity

import (
	"encoding/hex"
	"strings"
)

// AbiParam is a single declared function input
type AbiParam struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// AbiFunctionFragment represents a function entry of an ABI definition
type AbiFunctionFragment struct {
	Name   string     `json:"name"`
	Inputs []AbiParam `json:"inputs"`
}

// AbiCollection is a named, ordered set of function fragments
type AbiCollection struct {
	Source    string                `json:"source"`
	Fragments []AbiFunctionFragment `json:"fragments"`
}

// Signature builds the canonical signature name(type1,type2,...)
func (f AbiFunctionFragment) Signature() string {
	types := make([]string, len(f.Inputs))
	for i, in := range f.Inputs {
		types[i] = in.Type
	}
	return f.Name + "(" + strings.Join(types, ",") + ")"
}

// Selector is the 4-byte function identifier
type Selector [4]byte

// Hex returns the 0x-prefixed lowercase representation
func (s Selector) Hex() string {
	return "0x" + hex.EncodeToString(s[:])
}

func (s Selector) String() string {
	return s.Hex()
}
