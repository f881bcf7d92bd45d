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

// GetStorageStatus classifies an SSTORE for EIP-2200/EIP-3529 gas and refund
// purposes, given the slot's value as committed before the transaction
// (original), as last observed in this transaction (current), and the value
// about to be written (new). See EIP-2200 for the full transition table this
// implements.
func GetStorageStatus(original, current, new Word) StorageStatus {
	if current == new {
		return StorageAssigned
	}

	zero := Word{}
	if current == original {
		// First write to this slot in the current transaction.
		switch {
		case original == zero:
			return StorageAdded // 0 -> 0 -> Z
		case new == zero:
			return StorageDeleted // X -> X -> 0
		default:
			return StorageModified // X -> X -> Z
		}
	}

	// The slot was already dirtied earlier in this transaction.
	if original == zero {
		if new == zero {
			return StorageAddedDeleted // 0 -> Y -> 0
		}
		return StorageAssigned // 0 -> Y -> Z, no dedicated refund bucket
	}

	if current == zero {
		if new == original {
			return StorageDeletedRestored // X -> 0 -> X
		}
		return StorageDeletedAdded // X -> 0 -> Z
	}

	switch {
	case new == zero:
		return StorageModifiedDeleted // X -> Y -> 0
	case new == original:
		return StorageModifiedRestored // X -> Y -> X
	default:
		return StorageAssigned // X -> Y -> Z, all distinct
	}
}
