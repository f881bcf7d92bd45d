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
	"math"

	"github.com/go-evmcore/evmcore"
	"github.com/holiman/uint256"
)

// maxMemoryExpansionSize bounds the memory-expansion cost formula so that
// words*words/512 never overflows an int64 (matches geth's gas_table.go).
const maxMemoryExpansionSize = 0x1FFFFFFFE0

// memory is the byte-addressable, word-grown scratch space of a call frame
// (SPEC_FULL §3). Growth always rounds up to a 32-byte boundary and is
// charged with the quadratic expansion formula before any read/write.
type memory struct {
	store []byte
	cost  evmcore.Gas
}

func sizeInWords(size uint64) uint64 {
	return (size + 31) / 32
}

func toValidMemorySize(size uint64) uint64 {
	words := sizeInWords(size) * 32
	if size != 0 && words < size {
		return math.MaxUint64
	}
	return words
}

func (m *memory) length() uint64 { return uint64(len(m.store)) }

// expansionCost returns the additional gas required to grow memory to at
// least size bytes, without performing the growth.
func (m *memory) expansionCost(size uint64) evmcore.Gas {
	if m.length() >= size {
		return 0
	}
	size = toValidMemorySize(size)
	if size > maxMemoryExpansionSize {
		return evmcore.Gas(math.MaxInt64)
	}
	words := sizeInWords(size)
	newCost := evmcore.Gas((words*words)/512 + 3*words)
	return newCost - m.cost
}

// expand grows memory to cover [offset, offset+size), charging gas against
// gasLeft. Returns the updated gas-left and false if gas ran out or the
// offset/size pair overflows.
func (m *memory) expand(offset, size uint64, gasLeft evmcore.Gas) (evmcore.Gas, bool) {
	if size == 0 {
		return gasLeft, true
	}
	needed := offset + size
	if needed < offset {
		return gasLeft, false
	}
	if m.length() >= needed {
		return gasLeft, true
	}
	fee := m.expansionCost(needed)
	if fee > gasLeft {
		return gasLeft, false
	}
	gasLeft -= fee

	validSize := toValidMemorySize(needed)
	m.cost += fee
	m.store = append(m.store, make([]byte, validSize-m.length())...)
	return gasLeft, true
}

func (m *memory) set(offset, size uint64, value []byte) {
	if size == 0 {
		return
	}
	copy(m.store[offset:offset+size], value)
}

func (m *memory) setWord(offset uint64, value *uint256.Int) {
	b := value.Bytes32()
	copy(m.store[offset:offset+32], b[:])
}

func (m *memory) getWord(offset uint64, dst *uint256.Int) {
	dst.SetBytes32(m.store[offset : offset+32])
}

// getSlice returns a view over [offset, offset+size). Caller must have
// already expanded memory to cover the range.
func (m *memory) getSlice(offset, size uint64) []byte {
	if size == 0 {
		return nil
	}
	return m.store[offset : offset+size]
}

// copyOut copies src[offset:] into dst, zero-padding any portion of dst
// beyond the end of src; used for calldata and code reads, where bytes past
// the end of the source read as zero.
func copyOut(dst []byte, src []byte, offset uint64) {
	if offset >= uint64(len(src)) {
		for i := range dst {
			dst[i] = 0
		}
		return
	}
	n := copy(dst, src[offset:])
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
}
