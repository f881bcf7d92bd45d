// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package state

import (
	"testing"

	"github.com/go-evmcore/evmcore"
)

func TestCostlessContext_IsCostless(t *testing.T) {
	inner := NewJournal(nil)
	c := NewCostlessContext(inner)
	if !c.IsCostless() {
		t.Fatalf("CostlessContext.IsCostless() = false, want true")
	}
}

func TestCostlessContext_CloseAlwaysReverts(t *testing.T) {
	addr := evmcore.Address{1}
	inner := NewJournal(nil)
	inner.SetBalance(addr, evmcore.NewValue(10))

	c := NewCostlessContext(inner)
	c.SetBalance(addr, evmcore.NewValue(999))
	c.SetNonce(addr, 42)
	c.Close()

	if got, want := inner.GetBalance(addr), evmcore.NewValue(10); got.Cmp(want) != 0 {
		t.Errorf("balance after Close = %v, want %v", got, want)
	}
	if got, want := inner.GetNonce(addr), uint64(0); got != want {
		t.Errorf("nonce after Close = %v, want %v", got, want)
	}
}

func TestCostlessContext_CloseIsIdempotent(t *testing.T) {
	inner := NewJournal(nil)
	c := NewCostlessContext(inner)
	c.Close()
	c.Close() // must not panic on a stale snapshot token
}

func TestCostlessContext_SatisfiesOptionalInterface(t *testing.T) {
	var ctx evmcore.TransactionContext = NewCostlessContext(NewJournal(nil))
	if _, ok := ctx.(evmcore.CostlessContext); !ok {
		t.Fatalf("CostlessContext does not satisfy evmcore.CostlessContext")
	}
}
