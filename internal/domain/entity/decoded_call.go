package entity

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ValueKind enumerates the ABI primitive kinds the decoder produces
type ValueKind string

const (
	ValueKindAddress ValueKind = "address"
	ValueKindUint    ValueKind = "uint"
	ValueKindBool    ValueKind = "bool"
	ValueKindString  ValueKind = "string"
	ValueKindBytes   ValueKind = "bytes"
)

// Value is a decoded argument value. Only the field matching Kind is set.
type Value struct {
	Kind    ValueKind
	Address common.Address
	Uint    *big.Int
	Width   int // bit width for uint, byte length for fixed bytes (0 = dynamic)
	Bool    bool
	String  string
	Bytes   []byte
}

func AddressValue(a common.Address) Value {
	return Value{Kind: ValueKindAddress, Address: a}
}

func UintValue(v *big.Int, width int) Value {
	return Value{Kind: ValueKindUint, Uint: new(big.Int).Set(v), Width: width}
}

func BoolValue(b bool) Value {
	return Value{Kind: ValueKindBool, Bool: b}
}

func StringValue(s string) Value {
	return Value{Kind: ValueKindString, String: s}
}

func BytesValue(b []byte, size int) Value {
	return Value{Kind: ValueKindBytes, Bytes: append([]byte(nil), b...), Width: size}
}

// Text renders the value the way it is shown to users
func (v Value) Text() string {
	switch v.Kind {
	case ValueKindAddress:
		return v.Address.Hex()
	case ValueKindUint:
		if v.Uint == nil {
			return "0"
		}
		return v.Uint.String()
	case ValueKindBool:
		return fmt.Sprintf("%t", v.Bool)
	case ValueKindString:
		return v.String
	case ValueKindBytes:
		return hexutil.Encode(v.Bytes)
	default:
		return ""
	}
}

// TypeName returns the solidity type name of the value
func (v Value) TypeName() string {
	switch v.Kind {
	case ValueKindUint:
		return fmt.Sprintf("uint%d", v.Width)
	case ValueKindBytes:
		if v.Width > 0 {
			return fmt.Sprintf("bytes%d", v.Width)
		}
		return "bytes"
	default:
		return string(v.Kind)
	}
}

// MarshalJSON encodes the value as {"type": ..., "value": ...}
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	}{
		Type:  v.TypeName(),
		Value: v.Text(),
	})
}

// DecodedArgument pairs a declared input name with its decoded value
type DecodedArgument struct {
	Name  string `json:"arg"`
	Value Value  `json:"value"`
}

// DecodedCall is the result of resolving and decoding transaction calldata.
// A nil Signature means the selector is unknown, which is not an error.
type DecodedCall struct {
	SelectorHex string            `json:"methodHex"`
	Signature   *string           `json:"sig,omitempty"`
	Source      string            `json:"source,omitempty"`
	Arguments   []DecodedArgument `json:"inputParams,omitempty"`
}

// Known reports whether the selector matched a registered function
func (c *DecodedCall) Known() bool {
	return c.Signature != nil
}
