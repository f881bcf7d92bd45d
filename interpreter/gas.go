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

import "github.com/go-evmcore/evmcore"

// Dynamic gas constants not already captured by the static per-opcode
// vm.JumpTable entries; grounded on the EIP-150/2200/2929/3529 constants
// used throughout go/interpreter/lfvm/gas.go.
const (
	gasSha3Word   = evmcore.Gas(6)
	gasMemoryWord = evmcore.Gas(3)
	gasCopyWord   = evmcore.Gas(3)
	gasLogData    = evmcore.Gas(8)

	// EXP per-exponent-byte cost: 10 before Spurious Dragon, 50 from
	// EIP-160 (Spurious Dragon) onward.
	gasExpByte       = evmcore.Gas(10)
	gasExpByteEIP160 = evmcore.Gas(50)

	gasCallValueTransfer    = evmcore.Gas(9000)
	gasCallNewAccount       = evmcore.Gas(25000)
	gasCallStipend          = evmcore.Gas(2300)
	gasCreateBySelfdestruct = evmcore.Gas(25000)

	gasColdSloadEIP2929         = evmcore.Gas(2100)
	gasColdAccountAccessEIP2929 = evmcore.Gas(2600)
	gasWarmStorageReadEIP2929   = evmcore.Gas(100)

	gasSstoreSetEIP2200          = evmcore.Gas(20000)
	gasSstoreResetEIP2200        = evmcore.Gas(5000)
	gasSstoreSentryEIP2200       = evmcore.Gas(2300)
	gasSloadEIP2200              = evmcore.Gas(800)
	gasSstoreClearsRefundEIP2200 = evmcore.Gas(15000)
	gasSstoreClearsRefundEIP3529 = evmcore.Gas(4800)

	gasSelfdestructEIP150 = evmcore.Gas(5000)
	gasSelfdestructRefund = evmcore.Gas(24000)

	codeDepositGasPerByte = evmcore.Gas(200)
	maxCodeSize           = 24576            // EIP-170
	maxInitCodeSize       = 2 * maxCodeSize  // EIP-3860
)

// callGas derives the gas forwarded to a sub-call. Up to Tangerine Whistle
// the full requested amount (capped by available gas) is forwarded; from
// EIP-150 onward, at most 63/64ths of the gas remaining after the base cost
// is forwardable, and the request is still honoured if it asks for less.
func callGas(revision evmcore.Revision, available, base evmcore.Gas, requested evmcore.Gas, requestedIsExplicit bool) evmcore.Gas {
	available -= base
	if available < 0 {
		return 0
	}
	if revision < evmcore.R02_TangerineWhistle {
		if requestedIsExplicit && requested < available {
			return requested
		}
		return available
	}
	capped := available - available/64
	if requestedIsExplicit && requested < capped {
		return requested
	}
	return capped
}

// sstoreCost computes the gas charged and refund delta for an SSTORE,
// classified by the StorageStatus the façade returned from SetStorage
// (which already knows the slot's original, committed value). warm
// reports whether AccessStorage found the slot already warm before this
// access (Berlin+ only; ignored pre-Berlin).
func sstoreCost(revision evmcore.Revision, status evmcore.StorageStatus, warm bool) (cost, refundDelta evmcore.Gas) {
	if revision < evmcore.R09_Berlin {
		return sstoreCostEIP2200(status)
	}
	return sstoreCostEIP2929(revision, status, warm)
}

func sstoreCostEIP2200(status evmcore.StorageStatus) (evmcore.Gas, evmcore.Gas) {
	switch status {
	case evmcore.StorageAssigned:
		return gasSloadEIP2200, 0
	case evmcore.StorageAdded:
		return gasSstoreSetEIP2200, 0
	case evmcore.StorageDeleted:
		return gasSstoreResetEIP2200, gasSstoreClearsRefundEIP2200
	case evmcore.StorageModified:
		return gasSstoreResetEIP2200, 0
	case evmcore.StorageDeletedAdded:
		return gasSloadEIP2200, -gasSstoreClearsRefundEIP2200
	case evmcore.StorageModifiedDeleted:
		return gasSloadEIP2200, gasSstoreClearsRefundEIP2200
	case evmcore.StorageDeletedRestored:
		return gasSloadEIP2200, gasSstoreResetEIP2200 - gasSloadEIP2200 - gasSstoreClearsRefundEIP2200
	case evmcore.StorageAddedDeleted:
		return gasSloadEIP2200, gasSstoreSetEIP2200 - gasSloadEIP2200
	case evmcore.StorageModifiedRestored:
		return gasSloadEIP2200, gasSstoreResetEIP2200 - gasSloadEIP2200
	}
	return gasSloadEIP2200, 0
}

func sstoreCostEIP2929(revision evmcore.Revision, status evmcore.StorageStatus, warm bool) (evmcore.Gas, evmcore.Gas) {
	clearingRefund := gasSstoreClearsRefundEIP2200
	if revision >= evmcore.R10_London {
		clearingRefund = gasSstoreClearsRefundEIP3529
	}

	var cold evmcore.Gas
	if !warm {
		cold = gasColdSloadEIP2929
	}

	switch status {
	case evmcore.StorageAssigned:
		return cold + gasWarmStorageReadEIP2929, 0
	case evmcore.StorageAdded:
		return cold + gasSstoreSetEIP2200, 0
	case evmcore.StorageDeleted:
		return cold + gasSstoreResetEIP2200 - gasColdSloadEIP2929, clearingRefund
	case evmcore.StorageModified:
		return cold + gasSstoreResetEIP2200 - gasColdSloadEIP2929, 0
	case evmcore.StorageDeletedAdded:
		return cold + gasWarmStorageReadEIP2929, -clearingRefund
	case evmcore.StorageModifiedDeleted:
		return cold + gasWarmStorageReadEIP2929, clearingRefund
	case evmcore.StorageDeletedRestored:
		return cold + gasWarmStorageReadEIP2929, (gasSstoreResetEIP2200 - gasColdSloadEIP2929) - gasWarmStorageReadEIP2929 - clearingRefund
	case evmcore.StorageAddedDeleted:
		return cold + gasWarmStorageReadEIP2929, gasSstoreSetEIP2200 - gasWarmStorageReadEIP2929
	case evmcore.StorageModifiedRestored:
		return cold + gasWarmStorageReadEIP2929, (gasSstoreResetEIP2200 - gasColdSloadEIP2929) - gasWarmStorageReadEIP2929
	}
	return cold + gasWarmStorageReadEIP2929, 0
}

// legacySstoreCost prices SSTORE the way every revision before Istanbul did:
// a flat cost keyed only on the slot's current value vs. the new one, with no
// notion of the transaction-original value or warm/cold access lists.
// Constantinople's EIP-1283 never took effect on mainnet (reverted by
// Petersburg before launch), so this covers Frontier through Petersburg.
func legacySstoreCost(current, new evmcore.Word) (cost, refund evmcore.Gas) {
	zero := evmcore.Word{}
	switch {
	case current == zero && new != zero:
		return gasSstoreSetEIP2200, 0
	case current != zero && new == zero:
		return gasSstoreResetEIP2200, gasSstoreClearsRefundEIP2200
	default:
		return gasSstoreResetEIP2200, 0
	}
}

// expByteCost is the per-exponent-byte surcharge for EXP: 10 before
// Spurious Dragon (EIP-160), 50 from Spurious Dragon onward.
func expByteCost(revision evmcore.Revision) evmcore.Gas {
	if revision >= evmcore.R03_SpuriousDragon {
		return gasExpByteEIP160
	}
	return gasExpByte
}

// coldAccountSurcharge returns the extra gas to charge when an address was
// cold before this access (Berlin+ only); the opcode's static table cost
// already covers the warm-access floor.
func coldAccountSurcharge(revision evmcore.Revision, wasWarm bool) evmcore.Gas {
	if revision < evmcore.R09_Berlin || wasWarm {
		return 0
	}
	return gasColdAccountAccessEIP2929 - gasWarmStorageReadEIP2929
}

func coldSloadSurcharge(revision evmcore.Revision, wasWarm bool) evmcore.Gas {
	if revision < evmcore.R09_Berlin || wasWarm {
		return 0
	}
	return gasColdSloadEIP2929 - gasWarmStorageReadEIP2929
}
