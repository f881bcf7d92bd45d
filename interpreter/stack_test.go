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
	"testing"

	"github.com/holiman/uint256"
)

func TestStack_PushPopPreservesOrder(t *testing.T) {
	s := newStack()
	defer s.release()

	s.push(uint256.NewInt(1))
	s.push(uint256.NewInt(2))
	s.push(uint256.NewInt(3))

	if got := s.pop().Uint64(); got != 3 {
		t.Fatalf("got %d, want 3", got)
	}
	if got := s.pop().Uint64(); got != 2 {
		t.Fatalf("got %d, want 2", got)
	}
	if got := s.pop().Uint64(); got != 1 {
		t.Fatalf("got %d, want 1", got)
	}
	if s.len() != 0 {
		t.Fatalf("expected empty stack, got len %d", s.len())
	}
}

func TestStack_PeekNIsZeroIndexedFromTop(t *testing.T) {
	s := newStack()
	defer s.release()

	s.push(uint256.NewInt(10))
	s.push(uint256.NewInt(20))
	s.push(uint256.NewInt(30))

	if got := s.peekN(0).Uint64(); got != 30 {
		t.Fatalf("peekN(0) = %d, want 30", got)
	}
	if got := s.peekN(2).Uint64(); got != 10 {
		t.Fatalf("peekN(2) = %d, want 10", got)
	}
}

func TestStack_SwapExchangesTopWithNth(t *testing.T) {
	s := newStack()
	defer s.release()

	s.push(uint256.NewInt(1))
	s.push(uint256.NewInt(2))
	s.push(uint256.NewInt(3))

	s.swap(2) // swap top (3) with the 3rd-from-top (1)

	if got := s.peek().Uint64(); got != 1 {
		t.Fatalf("top after swap = %d, want 1", got)
	}
	if got := s.peekN(2).Uint64(); got != 3 {
		t.Fatalf("bottom after swap = %d, want 3", got)
	}
}

func TestStack_DupPushesCopyOfNth(t *testing.T) {
	s := newStack()
	defer s.release()

	s.push(uint256.NewInt(7))
	s.push(uint256.NewInt(8))

	s.dup(1) // DUP2: duplicate the 2nd-from-top before the push

	if s.len() != 3 {
		t.Fatalf("expected 3 elements, got %d", s.len())
	}
	if got := s.peek().Uint64(); got != 7 {
		t.Fatalf("duplicated value = %d, want 7", got)
	}
}

func TestStack_PushUndefinedReservesSlotWithoutCopy(t *testing.T) {
	s := newStack()
	defer s.release()

	slot := s.pushUndefined()
	slot.SetUint64(42)

	if got := s.peek().Uint64(); got != 42 {
		t.Fatalf("got %d, want 42", got)
	}
}

func TestStack_ReleaseResetsLength(t *testing.T) {
	s := newStack()
	s.push(uint256.NewInt(1))
	s.release()

	if s.len() != 0 {
		t.Fatalf("expected release to reset sp to 0, got %d", s.len())
	}
}
