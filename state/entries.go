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

// journalEntry is one inverse-entry in a Journal's change log: it knows how
// to undo exactly the mutation that appended it. Grounded on the append-only
// changelog go-ethereum's core/state.journal uses for StateDB snapshots.
type journalEntry interface {
	revert(*Journal)
}

type createAccountChange struct {
	addr evmcore.Address
}

func (c *createAccountChange) revert(j *Journal) {
	delete(j.accounts, c.addr)
}

type balanceChange struct {
	addr       evmcore.Address
	prev       evmcore.Value
	prevExists bool
}

func (c *balanceChange) revert(j *Journal) {
	acc := j.accounts[c.addr]
	acc.balance = c.prev
	acc.exists = c.prevExists
}

type nonceChange struct {
	addr       evmcore.Address
	prev       uint64
	prevExists bool
}

func (c *nonceChange) revert(j *Journal) {
	acc := j.accounts[c.addr]
	acc.nonce = c.prev
	acc.exists = c.prevExists
}

type codeChange struct {
	addr       evmcore.Address
	prevCode   evmcore.Code
	prevHash   evmcore.Hash
	prevExists bool
}

func (c *codeChange) revert(j *Journal) {
	acc := j.accounts[c.addr]
	acc.code = c.prevCode
	acc.codeHash = c.prevHash
	acc.exists = c.prevExists
}

type storageChange struct {
	addr evmcore.Address
	key  evmcore.Key
	prev evmcore.Word
}

func (c *storageChange) revert(j *Journal) {
	j.setStorageValue(c.addr, c.key, c.prev)
}

type transientStorageChange struct {
	addr evmcore.Address
	key  evmcore.Key
	prev evmcore.Word
}

func (c *transientStorageChange) revert(j *Journal) {
	j.setTransientValue(c.addr, c.key, c.prev)
}

type selfDestructChange struct {
	addr            evmcore.Address
	beneficiary     evmcore.Address
	selfTransfer    bool
	prevDestructed  bool
	prevExists      bool
	prevBalance     evmcore.Value
	benPrevBalance  evmcore.Value
}

func (c *selfDestructChange) revert(j *Journal) {
	acc := j.accounts[c.addr]
	acc.exists = c.prevExists
	acc.balance = c.prevBalance
	j.destructedThisTx[c.addr] = c.prevDestructed
	if !c.selfTransfer {
		j.accounts[c.beneficiary].balance = c.benPrevBalance
	}
}

type logChange struct{}

func (c *logChange) revert(j *Journal) {
	j.logs = j.logs[:len(j.logs)-1]
}
