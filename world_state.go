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

import "fmt"

//go:generate mockgen -source world_state.go -destination world_state_mock.go -package evmcore

// WorldState is the account/storage façade the interpreter and transaction
// executor mutate during a call. A concrete implementation (package state)
// layers snapshot/commit/revert and EIP-2929 warm/cold tracking on top of
// this minimal read/write surface; the interpreter only ever sees this
// interface, never the underlying journal.
type WorldState interface {
	AccountExists(Address) bool

	GetBalance(Address) Value
	SetBalance(Address, Value)

	GetNonce(Address) uint64
	SetNonce(Address, uint64)

	GetCode(Address) Code
	GetCodeHash(Address) Hash
	GetCodeSize(Address) int
	SetCode(Address, Code)

	GetStorage(Address, Key) Word
	SetStorage(Address, Key, Word) StorageStatus

	// SelfDestruct queues addr for deletion at the end of the current
	// transaction and transfers its entire balance to beneficiary,
	// crediting beneficiary even if it does not yet exist. It reports
	// whether this is the first time addr has been destroyed within the
	// ongoing transaction, since a contract may invoke SELFDESTRUCT only
	// once but an upstream caller may replay the opcode's effects.
	SelfDestruct(addr Address, beneficiary Address) bool
}

// Address is a 20-byte account identifier.
type Address [20]byte

// Key identifies one 256-bit storage slot within an account.
type Key [32]byte

// Word is a raw 256-bit storage slot value, as read from or written to an
// account's storage.
type Word [32]byte

// Value is a 256-bit amount of chain currency (wei), also reused for any
// other unsigned 256-bit EVM quantity (stack operands, gas prices).
type Value [32]byte

// Hash is a 256-bit Keccak digest: of code, of a block, of a log topic, or
// of any other byte sequence this engine needs to summarize.
type Hash [32]byte

// Code is the raw bytecode of a contract account.
type Code []byte

// StorageStatus classifies an SSTORE by how the slot's value moved across
// its three observable points in a transaction: the value committed before
// the transaction began (original), the value visible just before this
// write (current), and the value being written now (new). EIP-2200/EIP-3529
// gas costs and refunds are keyed off exactly this classification.
type StorageStatus int

const (
	StorageAssigned StorageStatus = iota
	// 0 -> 0 -> Z
	StorageAdded
	// X -> X -> 0
	StorageDeleted
	// X -> X -> Z
	StorageModified
	// X -> 0 -> Z
	StorageDeletedAdded
	// X -> Y -> 0
	StorageModifiedDeleted
	// X -> 0 -> X
	StorageDeletedRestored
	// 0 -> Y -> 0
	StorageAddedDeleted
	// X -> Y -> X
	StorageModifiedRestored
)

// storageStatusNames backs String and GetAllStorageStatuses from one place,
// so the two can never drift out of sync the way a parallel switch and
// slice literal could.
var storageStatusNames = [...]string{
	StorageAssigned:         "StorageAssigned",
	StorageAdded:            "StorageAdded",
	StorageDeleted:          "StorageDeleted",
	StorageModified:         "StorageModified",
	StorageDeletedAdded:     "StorageDeletedAdded",
	StorageModifiedDeleted:  "StorageModifiedDeleted",
	StorageDeletedRestored:  "StorageDeletedRestored",
	StorageAddedDeleted:     "StorageAddedDeleted",
	StorageModifiedRestored: "StorageModifiedRestored",
}

func (status StorageStatus) String() string {
	if int(status) < 0 || int(status) >= len(storageStatusNames) {
		return fmt.Sprintf("StorageStatus(%d)", int(status))
	}
	return storageStatusNames[status]
}

// GetAllStorageStatuses enumerates every StorageStatus value, used by
// property-based tests that sweep the full enum.
func GetAllStorageStatuses() []StorageStatus {
	all := make([]StorageStatus, len(storageStatusNames))
	for i := range all {
		all[i] = StorageStatus(i)
	}
	return all
}
