// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package params consolidates the per-revision constants the rest of the
// engine needs (gas schedule, opcode table, refund quotient, feature flags)
// into one value type, built once per revision by override-composition
// instead of an interface hierarchy.
package params

import (
	"github.com/go-evmcore/evmcore"
	"github.com/go-evmcore/evmcore/vm"
)

// Rules bundles the revision-dependent constants a Processor/Interpreter
// pair needs to execute a transaction. A Rules value is immutable once
// built by RulesFor.
type Rules struct {
	Revision evmcore.Revision
	Opcodes  vm.JumpTable

	MaxCodeSize     int
	MaxInitCodeSize int
	MaxCallDepth    int

	TxGas                 evmcore.Gas
	TxGasContractCreation evmcore.Gas
	TxDataZeroGas         evmcore.Gas
	TxDataNonZeroGas      evmcore.Gas
	TxAccessListAddress   evmcore.Gas
	TxAccessListStorage   evmcore.Gas

	MaxRefundQuotient uint64 // gasUsed/MaxRefundQuotient caps the refund

	HasAccessList   bool // Berlin, EIP-2929/2930
	HasBaseFee      bool // London, EIP-1559
	HasPush0        bool // Shanghai, EIP-3855
	HasWithdrawals  bool // Shanghai, EIP-4895
	HasSelfdestruct bool // pre-Cancun SELFDESTRUCT fully clears the account
	HasEIP161       bool // Spurious Dragon, empty touched accounts are swept
}

// RulesFor derives the Rules value for the given revision by starting from
// the Frontier baseline and folding in every override that applies at or
// before the revision, in chronological order, mirroring vm.NewJumpTable's
// composition.
func RulesFor(revision evmcore.Revision) Rules {
	r := Rules{
		Revision:              revision,
		Opcodes:               vm.NewJumpTable(revision),
		MaxCodeSize:           24576,
		MaxCallDepth:          1024,
		TxGas:                 21000,
		TxGasContractCreation: 53000,
		TxDataZeroGas:         4,
		TxDataNonZeroGas:      68,
		MaxRefundQuotient:     2,
		HasSelfdestruct:       true,
	}

	if revision >= evmcore.R02_TangerineWhistle {
		// EIP-150 did not change intrinsic gas, only call-family pricing,
		// which lives in the opcode table.
	}
	if revision >= evmcore.R03_SpuriousDragon {
		r.HasEIP161 = true
	}
	if revision >= evmcore.R07_Istanbul {
		// EIP-2028: cheaper non-zero calldata.
		r.TxDataNonZeroGas = 16
	}
	if revision >= evmcore.R09_Berlin {
		r.HasAccessList = true
		r.TxAccessListAddress = 2400
		r.TxAccessListStorage = 1900
	}
	if revision >= evmcore.R10_London {
		r.HasBaseFee = true
		r.MaxRefundQuotient = 5 // EIP-3529
	}
	if revision >= evmcore.R12_Shanghai {
		r.HasPush0 = true
		r.HasWithdrawals = true
		r.MaxInitCodeSize = 2 * 24576 // EIP-3860, introduced this revision
	}

	return r
}
