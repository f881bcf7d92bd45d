// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package evmcore

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

// String renders an Address the way block explorers and RPC responses do:
// a 0x-prefixed lowercase hex string.
func (a Address) String() string {
	return fmt.Sprintf("0x%x", a[:])
}

func (a Address) MarshalText() ([]byte, error) {
	return hexText(a[:]), nil
}

func (a *Address) UnmarshalText(data []byte) error {
	return parseHexText(a[:], data)
}

func (k Key) String() string {
	return fmt.Sprintf("0x%x", k[:])
}

func (w Word) String() string {
	return fmt.Sprintf("0x%x", w[:])
}

// ToBig exposes a Value as a big.Int for callers interoperating with
// math/big-based APIs (RLP encoding, go-ethereum types, JSON numbers).
func (v Value) ToBig() *big.Int {
	return new(big.Int).SetBytes(v[:])
}

// ToUint256 is the hot path: nearly every arithmetic or comparison
// operation on a Value goes through holiman/uint256 rather than math/big.
func (v Value) ToUint256() *uint256.Int {
	return new(uint256.Int).SetBytes(v[:])
}

func (v Value) String() string {
	return v.ToUint256().String()
}

// Cmp orders two Values as big-endian byte strings, which is equivalent to
// unsigned 256-bit integer comparison without needing to materialize a
// uint256.Int for each operand.
func (v Value) Cmp(o Value) int {
	return bytes.Compare(v[:], o[:])
}

// NewValue packs up to four uint64 limbs, most significant first, into a
// Value. Fewer than four arguments are left-padded with zero limbs, so
// NewValue(1) equals the Value holding 1 wei and NewValue() is zero.
func NewValue(args ...uint64) (result Value) {
	if len(args) > 4 {
		panic("Too many arguments")
	}
	limbs := [4]uint64{}
	copy(limbs[4-len(args):], args)
	copy(result[:], limbsToBytes(limbs))
	return result
}

func limbsToBytes(limbs [4]uint64) []byte {
	var out [32]byte
	for i, limb := range limbs {
		start := i * 8
		for j := 7; j >= 0; j-- {
			out[start+j] = byte(limb)
			limb >>= 8
		}
	}
	return out[:]
}

// ValueFromUint256 converts a *uint256.Int to a Value. A nil input (the
// zero value of a pointer, distinct from a zero-valued uint256.Int) yields
// the zero Value rather than panicking.
func ValueFromUint256(value *uint256.Int) Value {
	if value == nil {
		return Value{}
	}
	return value.Bytes32()
}

// Add returns a+b mod 2^256, matching the wraparound semantics of the EVM's
// ADD opcode.
func Add(a, b Value) Value {
	return ValueFromUint256(new(uint256.Int).Add(a.ToUint256(), b.ToUint256()))
}

// Sub returns a-b mod 2^256, matching the wraparound semantics of the EVM's
// SUB opcode.
func Sub(a, b Value) Value {
	return ValueFromUint256(new(uint256.Int).Sub(a.ToUint256(), b.ToUint256()))
}

// Scale multiplies a Value by a small unsigned scalar, e.g. converting a
// per-unit gas price into a total cost.
func (v Value) Scale(s uint64) Value {
	return ValueFromUint256(new(uint256.Int).Mul(v.ToUint256(), uint256.NewInt(s)))
}

func (v Value) MarshalText() ([]byte, error) {
	return hexText(v[:]), nil
}

func (v *Value) UnmarshalText(data []byte) error {
	return parseHexText(v[:], data)
}

// hexText renders raw bytes as the 0x-prefixed hex string used by every
// fixed-size type's MarshalText implementation in this package.
func hexText(data []byte) []byte {
	return []byte("0x" + hex.EncodeToString(data))
}

// parseHexText is the MarshalText inverse: it fills dst in place from a
// 0x-prefixed hex string, rejecting inputs whose decoded length doesn't
// match dst exactly.
func parseHexText(dst []byte, data []byte) error {
	s := string(data)
	if !strings.HasPrefix(s, "0x") {
		return fmt.Errorf("invalid format, does not start with 0x: %v", s)
	}
	decoded, err := hex.DecodeString(s[2:])
	if err != nil {
		return err
	}
	if want, got := len(dst), len(decoded); want != got {
		return fmt.Errorf("invalid format, wanted %d bytes, got %d", want, got)
	}
	copy(dst, decoded)
	return nil
}

// callKindNames is consulted by String/MarshalJSON and built in reverse by
// UnmarshalJSON, the same table-driven approach vm.OpCode's mnemonic lookup
// uses rather than a duplicated pair of switch statements.
var callKindNames = [...]string{
	Call:         "call",
	DelegateCall: "delegate_call",
	StaticCall:   "static_call",
	CallCode:     "call_code",
	Create:       "create",
	Create2:      "create2",
}

func (k CallKind) String() string {
	if int(k) < 0 || int(k) >= len(callKindNames) {
		return "unknown"
	}
	return callKindNames[k]
}

func (k CallKind) MarshalJSON() ([]byte, error) {
	if int(k) < 0 || int(k) >= len(callKindNames) {
		return nil, fmt.Errorf("invalid call kind: %v", int(k))
	}
	return json.Marshal(callKindNames[k])
}

func (k *CallKind) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	name = strings.ToLower(name)
	for i, candidate := range callKindNames {
		if candidate == name {
			*k = CallKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown call kind: %s", name)
}
