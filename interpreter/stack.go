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
	"sync"

	"github.com/holiman/uint256"
)

// maxStackSize bounds the EVM operand stack at 1024 elements (SPEC_FULL §3).
const maxStackSize = 1024

// stack is the fixed-size, 256-bit-word operand stack used by the
// interpreter loop. Capacity is pre-allocated so push/pop never reallocate.
type stack struct {
	data [maxStackSize]uint256.Int
	sp   int
}

var stackPool = sync.Pool{
	New: func() any { return &stack{} },
}

// newStack obtains a zeroed stack from the reuse pool.
func newStack() *stack {
	return stackPool.Get().(*stack)
}

// release returns s to the pool for reuse by a later call frame.
func (s *stack) release() {
	s.sp = 0
	stackPool.Put(s)
}

func (s *stack) len() int { return s.sp }

func (s *stack) push(v *uint256.Int) {
	s.data[s.sp] = *v
	s.sp++
}

func (s *stack) pushUndefined() *uint256.Int {
	s.sp++
	return &s.data[s.sp-1]
}

func (s *stack) pop() *uint256.Int {
	s.sp--
	return &s.data[s.sp]
}

func (s *stack) peek() *uint256.Int {
	return &s.data[s.sp-1]
}

// peekN returns the n-th element from the top, 0-indexed (peekN(0) == peek()).
func (s *stack) peekN(n int) *uint256.Int {
	return &s.data[s.sp-n-1]
}

func (s *stack) swap(n int) {
	s.data[s.sp-n-1], s.data[s.sp-1] = s.data[s.sp-1], s.data[s.sp-n-1]
}

func (s *stack) dup(n int) {
	s.data[s.sp] = s.data[s.sp-n-1]
	s.sp++
}
