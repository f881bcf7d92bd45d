// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package interpreter

import (
	"github.com/go-evmcore/evmcore"
	"github.com/holiman/uint256"
)

// This file collects the narrow set of conversions between the 256-bit
// stack/memory representation (uint256.Int) and the fixed-size evmcore
// value types (Address/Hash/Key/Word/Value), all of which are big-endian
// byte arrays.

func u256ToAddress(u *uint256.Int) evmcore.Address {
	b := u.Bytes32()
	var a evmcore.Address
	copy(a[:], b[12:])
	return a
}

func addressToU256(a evmcore.Address) *uint256.Int {
	return new(uint256.Int).SetBytes(a[:])
}

func u256ToWord(u *uint256.Int) evmcore.Word {
	return evmcore.Word(u.Bytes32())
}

func wordToU256(w evmcore.Word) *uint256.Int {
	return new(uint256.Int).SetBytes32(w[:])
}

func u256ToKey(u *uint256.Int) evmcore.Key {
	return evmcore.Key(u.Bytes32())
}

func u256ToValue(u *uint256.Int) evmcore.Value {
	return evmcore.Value(u.Bytes32())
}

func valueToU256(v evmcore.Value) *uint256.Int {
	return new(uint256.Int).SetBytes32(v[:])
}

func hashToU256(h evmcore.Hash) *uint256.Int {
	return new(uint256.Int).SetBytes32(h[:])
}

func u256ToHash(u *uint256.Int) evmcore.Hash {
	return evmcore.Hash(u.Bytes32())
}

// boolToU256 pushes the EVM convention for a boolean: 1 for true, 0 for false.
func boolToU256(b bool) uint256.Int {
	if b {
		return *uint256.NewInt(1)
	}
	return uint256.Int{}
}
