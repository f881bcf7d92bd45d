// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package processor

import (
	"github.com/ethereum/go-ethereum/common"
	geth "github.com/ethereum/go-ethereum/core/vm"
	"github.com/go-evmcore/evmcore"
)

// handlePrecompiledContract dispatches to the built-in contract registered at
// address, if any, using go-ethereum's per-fork precompile tables.
func handlePrecompiledContract(revision evmcore.Revision, input evmcore.Data, address evmcore.Address, gas evmcore.Gas) (evmcore.CallResult, bool) {
	contract, ok := getPrecompiledContract(address, revision)
	if !ok {
		return evmcore.CallResult{}, false
	}
	gasCost := contract.RequiredGas(input)
	if gas < evmcore.Gas(gasCost) {
		return evmcore.CallResult{}, true
	}
	gas -= evmcore.Gas(gasCost)
	output, err := contract.Run(input)

	return evmcore.CallResult{
		Success: err == nil, // precompiled contracts only return errors on invalid input
		Output:  output,
		GasLeft: gas,
	}, true
}

func getPrecompiledContract(address evmcore.Address, revision evmcore.Revision) (geth.PrecompiledContract, bool) {
	contract, ok := precompileTableFor(revision)[common.Address(address)]
	return contract, ok
}

func precompileTableFor(revision evmcore.Revision) map[common.Address]geth.PrecompiledContract {
	switch {
	case revision >= evmcore.R09_Berlin:
		return geth.PrecompiledContractsBerlin
	case revision >= evmcore.R04_Byzantium:
		return geth.PrecompiledContractsByzantium
	default:
		return geth.PrecompiledContractsHomestead
	}
}

// precompiledAddresses lists every precompile address active at revision,
// so the processor can pre-warm them per EIP-2929 (SPEC_FULL §4.3 step 3).
func precompiledAddresses(revision evmcore.Revision) []evmcore.Address {
	table := precompileTableFor(revision)
	addresses := make([]evmcore.Address, 0, len(table))
	for addr := range table {
		addresses = append(addresses, evmcore.Address(addr))
	}
	return addresses
}
