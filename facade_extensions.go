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

// This file collects the small, optional capabilities a concrete
// TransactionContext/WorldState façade MAY implement beyond the core
// interfaces in world_state.go/interpreter.go. Each is narrow enough to be
// satisfied by a type assertion, the same pattern ProfilingInterpreter
// already uses to extend Interpreter: a Processor/Chain checks for the
// capability and falls back to doing nothing when a caller-supplied façade
// (e.g. a test mock) does not provide it.

// TouchTracker is implemented by façades that record every address read or
// written during the current transaction, needed to run the EIP-161
// empty-account sweep at the end of Processor.Run.
type TouchTracker interface {
	TransactionContext

	// TouchedAddresses returns every address touched since the last
	// StartTransaction call, in no particular order.
	TouchedAddresses() []Address
}

// TransactionBoundary is implemented by façades whose per-transaction state
// (warm-address/warm-slot sets, transient storage, logs, the touched-address
// set, and the EIP-2200 "original value" baseline for SSTORE accounting)
// must be reset between transactions. chain.ApplyAllTransactions calls
// StartTransaction before each transaction it hands to the Processor;
// chain.ApplyTransaction does not call it. It also serves as the
// "lock_changes" checkpoint described in SPEC_FULL §4.4: once called, a
// snapshot taken during the previous transaction is no longer a valid
// RestoreSnapshot target.
type TransactionBoundary interface {
	TransactionContext

	StartTransaction()
}

// CostlessContext marks a TransactionContext that must run without charging
// a base fee or crediting a coinbase tip, per the Open Question resolved in
// SPEC_FULL §9. state.NewCostlessContext produces one.
type CostlessContext interface {
	TransactionContext

	IsCostless() bool
}

// Witness is the set of state read or written while producing a state root,
// standing in for the meta-witness a trie-backed store would emit (SPEC_FULL
// §4.4).
type Witness struct {
	Addresses   []Address
	CodeHashes  []Hash
	StorageKeys map[Address][]Key
}

// StateCommitter is implemented by WorldState façades capable of producing a
// state root and an accompanying Witness, used by chain.ImportBlock to
// finalize Header.StateRoot. The persistent trie this would normally compute
// against is out of scope (PURPOSE & SCOPE, §1); a reference façade computes
// a deterministic digest over its own in-memory contents instead.
type StateCommitter interface {
	WorldState

	Persist() (Hash, Witness)
}
