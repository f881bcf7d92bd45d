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

import "github.com/go-evmcore/evmcore"

// CostlessContext wraps an evmcore.TransactionContext to run a transaction
// that must not affect the committed world state and must not charge a base
// fee or coinbase tip (the Open Question resolved in SPEC_FULL §9), mirroring
// the teacher's in_costless_state context manager: take a snapshot, run,
// always revert on Close, regardless of how the run ended.
type CostlessContext struct {
	evmcore.TransactionContext

	snapshot evmcore.Snapshot
	closed   bool
}

// NewCostlessContext snapshots inner and returns a façade that reports
// IsCostless() == true. Callers must call Close exactly once when done; Close
// always restores the snapshot taken at construction.
func NewCostlessContext(inner evmcore.TransactionContext) *CostlessContext {
	return &CostlessContext{
		TransactionContext: inner,
		snapshot:           inner.CreateSnapshot(),
	}
}

// IsCostless satisfies evmcore.CostlessContext.
func (c *CostlessContext) IsCostless() bool {
	return true
}

// Close reverts every change made through this façade. It is idempotent.
func (c *CostlessContext) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.RestoreSnapshot(c.snapshot)
}
