// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package state provides Journal, an in-memory reference implementation of
// evmcore.TransactionContext backed by a journaled change log instead of a
// persistent Merkle-Patricia trie: every mutating call appends an
// inverse-entry, CreateSnapshot records the log's current length as an
// opaque token, and RestoreSnapshot replays entries above that token in
// reverse. It exists to drive the CLI harness and tests against something
// real, not to be a production state backend (PURPOSE & SCOPE).
package state

import (
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/go-evmcore/evmcore"
)

type accountData struct {
	exists   bool
	balance  evmcore.Value
	nonce    uint64
	code     evmcore.Code
	codeHash evmcore.Hash
}

// Journal is a reference evmcore.TransactionContext. It additionally
// satisfies evmcore.TouchTracker, evmcore.TransactionBoundary, and
// evmcore.StateCommitter, the optional capabilities processor.Run and
// chain.ImportBlock look for via type assertion.
type Journal struct {
	accounts map[evmcore.Address]*accountData
	storage  map[evmcore.Address]map[evmcore.Key]evmcore.Word

	// originalStorage is the committed value of a slot the first time it is
	// observed in the current transaction; it is the baseline SetStorage
	// classifies against for EIP-2200/3529 gas accounting. Reset every
	// StartTransaction.
	originalStorage map[evmcore.Address]map[evmcore.Key]evmcore.Word

	transient map[evmcore.Address]map[evmcore.Key]evmcore.Word

	warmAddresses map[evmcore.Address]bool
	warmSlots     map[evmcore.Address]map[evmcore.Key]bool

	destructedThisTx map[evmcore.Address]bool

	// touchedThisTx is reset every StartTransaction and drives the EIP-161
	// empty-account sweep. witnessAddresses/witnessStorage never reset; they
	// accumulate for the lifetime of the Journal and back Persist's Witness.
	touchedThisTx   map[evmcore.Address]bool
	witnessAddresses map[evmcore.Address]bool
	witnessStorage   map[evmcore.Address]map[evmcore.Key]bool

	logs []evmcore.Log

	entries []journalEntry

	blockHashes *blockHashCache
}

// NewJournal constructs an empty Journal. blockHashes may be nil, in which
// case GetBlockHash always returns the zero Hash.
func NewJournal(blockHashes BlockHashSource) *Journal {
	return &Journal{
		accounts:         map[evmcore.Address]*accountData{},
		storage:          map[evmcore.Address]map[evmcore.Key]evmcore.Word{},
		originalStorage:  map[evmcore.Address]map[evmcore.Key]evmcore.Word{},
		transient:        map[evmcore.Address]map[evmcore.Key]evmcore.Word{},
		warmAddresses:    map[evmcore.Address]bool{},
		warmSlots:        map[evmcore.Address]map[evmcore.Key]bool{},
		destructedThisTx: map[evmcore.Address]bool{},
		touchedThisTx:    map[evmcore.Address]bool{},
		witnessAddresses: map[evmcore.Address]bool{},
		witnessStorage:   map[evmcore.Address]map[evmcore.Key]bool{},
		blockHashes:      newBlockHashCache(blockHashes),
	}
}

func (j *Journal) journal(entry journalEntry) {
	j.entries = append(j.entries, entry)
}

func (j *Journal) touch(addr evmcore.Address) {
	j.touchedThisTx[addr] = true
	j.witnessAddresses[addr] = true
}

func (j *Journal) touchStorage(addr evmcore.Address, key evmcore.Key) {
	slots, ok := j.witnessStorage[addr]
	if !ok {
		slots = map[evmcore.Key]bool{}
		j.witnessStorage[addr] = slots
	}
	slots[key] = true
}

// account returns the accountData for addr without creating it; it is nil
// if addr has never been touched by a mutating call.
func (j *Journal) account(addr evmcore.Address) *accountData {
	return j.accounts[addr]
}

// getOrCreate returns addr's accountData, journaling its creation the first
// time addr is seen so RestoreSnapshot can remove it again.
func (j *Journal) getOrCreate(addr evmcore.Address) *accountData {
	acc, ok := j.accounts[addr]
	if !ok {
		acc = &accountData{}
		j.accounts[addr] = acc
		j.journal(&createAccountChange{addr: addr})
	}
	return acc
}

// --- WorldState ---

func (j *Journal) AccountExists(addr evmcore.Address) bool {
	j.touch(addr)
	if acc := j.account(addr); acc != nil {
		return acc.exists
	}
	return false
}

func (j *Journal) GetBalance(addr evmcore.Address) evmcore.Value {
	j.touch(addr)
	if acc := j.account(addr); acc != nil {
		return acc.balance
	}
	return evmcore.Value{}
}

func (j *Journal) SetBalance(addr evmcore.Address, value evmcore.Value) {
	j.touch(addr)
	acc := j.getOrCreate(addr)
	j.journal(&balanceChange{addr: addr, prev: acc.balance, prevExists: acc.exists})
	acc.balance = value
	acc.exists = true
}

func (j *Journal) GetNonce(addr evmcore.Address) uint64 {
	j.touch(addr)
	if acc := j.account(addr); acc != nil {
		return acc.nonce
	}
	return 0
}

func (j *Journal) SetNonce(addr evmcore.Address, nonce uint64) {
	j.touch(addr)
	acc := j.getOrCreate(addr)
	j.journal(&nonceChange{addr: addr, prev: acc.nonce, prevExists: acc.exists})
	acc.nonce = nonce
	acc.exists = true
}

func (j *Journal) GetCode(addr evmcore.Address) evmcore.Code {
	j.touch(addr)
	if acc := j.account(addr); acc != nil {
		return acc.code
	}
	return nil
}

func (j *Journal) GetCodeHash(addr evmcore.Address) evmcore.Hash {
	j.touch(addr)
	if acc := j.account(addr); acc != nil {
		return acc.codeHash
	}
	return evmcore.Hash{}
}

func (j *Journal) GetCodeSize(addr evmcore.Address) int {
	j.touch(addr)
	if acc := j.account(addr); acc != nil {
		return len(acc.code)
	}
	return 0
}

func (j *Journal) SetCode(addr evmcore.Address, code evmcore.Code) {
	j.touch(addr)
	acc := j.getOrCreate(addr)
	j.journal(&codeChange{addr: addr, prevCode: acc.code, prevHash: acc.codeHash, prevExists: acc.exists})
	acc.code = code
	acc.codeHash = evmcore.Hash(crypto.Keccak256Hash(code))
	acc.exists = true
}

func (j *Journal) GetStorage(addr evmcore.Address, key evmcore.Key) evmcore.Word {
	j.touch(addr)
	j.touchStorage(addr, key)
	return j.storageValue(addr, key)
}

func (j *Journal) SetStorage(addr evmcore.Address, key evmcore.Key, value evmcore.Word) evmcore.StorageStatus {
	j.touch(addr)
	j.touchStorage(addr, key)

	original := j.originalValue(addr, key)
	current := j.storageValue(addr, key)
	status := evmcore.GetStorageStatus(original, current, value)

	j.journal(&storageChange{addr: addr, key: key, prev: current})
	j.setStorageValue(addr, key, value)
	return status
}

func (j *Journal) storageValue(addr evmcore.Address, key evmcore.Key) evmcore.Word {
	if slots, ok := j.storage[addr]; ok {
		if w, ok := slots[key]; ok {
			return w
		}
	}
	return evmcore.Word{}
}

func (j *Journal) setStorageValue(addr evmcore.Address, key evmcore.Key, value evmcore.Word) {
	slots, ok := j.storage[addr]
	if !ok {
		slots = map[evmcore.Key]evmcore.Word{}
		j.storage[addr] = slots
	}
	slots[key] = value
}

// originalValue returns the slot's value as it stood at the start of the
// current transaction, recording it the first time the slot is observed.
func (j *Journal) originalValue(addr evmcore.Address, key evmcore.Key) evmcore.Word {
	slots, ok := j.originalStorage[addr]
	if ok {
		if w, ok := slots[key]; ok {
			return w
		}
	} else {
		slots = map[evmcore.Key]evmcore.Word{}
		j.originalStorage[addr] = slots
	}
	original := j.storageValue(addr, key)
	slots[key] = original
	return original
}

func (j *Journal) SelfDestruct(addr evmcore.Address, beneficiary evmcore.Address) bool {
	j.touch(addr)
	j.touch(beneficiary)

	acc := j.getOrCreate(addr)
	first := !j.destructedThisTx[addr]
	balance := acc.balance
	selfTransfer := addr == beneficiary

	var benPrevBalance evmcore.Value
	if !selfTransfer {
		ben := j.getOrCreate(beneficiary)
		benPrevBalance = ben.balance
		ben.balance = evmcore.Add(ben.balance, balance)
	}

	j.journal(&selfDestructChange{
		addr:           addr,
		beneficiary:    beneficiary,
		selfTransfer:   selfTransfer,
		prevDestructed: j.destructedThisTx[addr],
		prevExists:     acc.exists,
		prevBalance:    balance,
		benPrevBalance: benPrevBalance,
	})

	j.destructedThisTx[addr] = true
	acc.exists = false
	acc.balance = evmcore.Value{}
	return first
}

// --- TransactionContext ---

func (j *Journal) CreateSnapshot() evmcore.Snapshot {
	return evmcore.Snapshot(len(j.entries))
}

func (j *Journal) RestoreSnapshot(snapshot evmcore.Snapshot) {
	target := int(snapshot)
	if target < 0 || target > len(j.entries) {
		panic(fmt.Sprintf("state: invalid snapshot %d (log length %d)", snapshot, len(j.entries)))
	}
	for i := len(j.entries) - 1; i >= target; i-- {
		j.entries[i].revert(j)
	}
	j.entries = j.entries[:target]
}

func (j *Journal) GetTransientStorage(addr evmcore.Address, key evmcore.Key) evmcore.Word {
	if slots, ok := j.transient[addr]; ok {
		return slots[key]
	}
	return evmcore.Word{}
}

func (j *Journal) SetTransientStorage(addr evmcore.Address, key evmcore.Key, value evmcore.Word) {
	prev := j.GetTransientStorage(addr, key)
	j.journal(&transientStorageChange{addr: addr, key: key, prev: prev})
	j.setTransientValue(addr, key, value)
}

func (j *Journal) setTransientValue(addr evmcore.Address, key evmcore.Key, value evmcore.Word) {
	slots, ok := j.transient[addr]
	if !ok {
		slots = map[evmcore.Key]evmcore.Word{}
		j.transient[addr] = slots
	}
	slots[key] = value
}

func (j *Journal) AccessAccount(addr evmcore.Address) evmcore.AccessStatus {
	j.touch(addr)
	if j.warmAddresses[addr] {
		return evmcore.WarmAccess
	}
	j.warmAddresses[addr] = true
	return evmcore.ColdAccess
}

func (j *Journal) AccessStorage(addr evmcore.Address, key evmcore.Key) evmcore.AccessStatus {
	j.touch(addr)
	j.touchStorage(addr, key)
	slots, ok := j.warmSlots[addr]
	if !ok {
		slots = map[evmcore.Key]bool{}
		j.warmSlots[addr] = slots
	}
	if slots[key] {
		return evmcore.WarmAccess
	}
	slots[key] = true
	return evmcore.ColdAccess
}

func (j *Journal) EmitLog(log evmcore.Log) {
	j.logs = append(j.logs, log)
	j.journal(&logChange{})
}

func (j *Journal) GetLogs() []evmcore.Log {
	return j.logs
}

func (j *Journal) GetBlockHash(number int64) evmcore.Hash {
	return j.blockHashes.get(number)
}

// --- TouchTracker ---

// TouchedAddresses returns every address touched since the last
// StartTransaction, in no particular order.
func (j *Journal) TouchedAddresses() []evmcore.Address {
	addresses := make([]evmcore.Address, 0, len(j.touchedThisTx))
	for addr := range j.touchedThisTx {
		addresses = append(addresses, addr)
	}
	return addresses
}

// --- TransactionBoundary ---

// StartTransaction resets every piece of per-transaction bookkeeping (warm
// sets, transient storage, logs, the touched-address set, and the EIP-2200
// original-value baseline), and drops the change log: changes made by a
// prior, already-concluded transaction are no longer revertable, matching
// the "lock_changes" checkpoint described for the journaled state façade.
func (j *Journal) StartTransaction() {
	j.entries = nil
	j.originalStorage = map[evmcore.Address]map[evmcore.Key]evmcore.Word{}
	j.transient = map[evmcore.Address]map[evmcore.Key]evmcore.Word{}
	j.warmAddresses = map[evmcore.Address]bool{}
	j.warmSlots = map[evmcore.Address]map[evmcore.Key]bool{}
	j.destructedThisTx = map[evmcore.Address]bool{}
	j.touchedThisTx = map[evmcore.Address]bool{}
	j.logs = nil
}
