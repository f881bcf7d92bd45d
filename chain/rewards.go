// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package chain

import (
	"github.com/go-evmcore/evmcore"
	"github.com/holiman/uint256"
)

// blockRewardWei is the single static block reward (2 ether). Frontier paid
// 5 ether and Byzantium reduced it to 3, Constantinople to 2; this engine
// targets the steady-state post-Constantinople value, since the spec scopes
// reward accounting to a single constant (SPEC_FULL §4.5).
var blockRewardWei = evmcore.NewValue(2).Scale(1_000_000_000_000_000_000)

// AssignBlockRewards credits the coinbase of header and of every uncle with
// their block reward, per SPEC_FULL §4.5. Pre-merge (revision < Paris): the
// block coinbase receives blockReward plus blockReward/32 per uncle; each
// uncle's coinbase receives (uncleNumber+8-blockNumber)*blockReward/8.
// Post-merge (revision >= Paris): no reward is paid, but the coinbase is
// still touched (read-then-write its own balance) so EIP-161 empty-account
// cleanup observes it as accessed.
func AssignBlockRewards(header *Header, uncles []Header, revision evmcore.Revision, state evmcore.WorldState) {
	if revision >= evmcore.R11_Paris {
		touch(state, header.Coinbase)
		return
	}

	for i := range uncles {
		credit(state, uncles[i].Coinbase, uncleRewardWei(uncles[i].BlockNumber, header.BlockNumber))
		credit(state, header.Coinbase, divide(blockRewardWei, 32))
	}
	credit(state, header.Coinbase, blockRewardWei)
}

func uncleRewardWei(uncleNumber, blockNumber uint64) evmcore.Value {
	// (uncleNumber + 8 - blockNumber) * blockReward / 8
	numerator := uncleNumber + 8 - blockNumber
	return divide(blockRewardWei.Scale(numerator), 8)
}

func divide(v evmcore.Value, d uint64) evmcore.Value {
	divisor := new(uint256.Int).SetUint64(d)
	quotient := new(uint256.Int).Div(v.ToUint256(), divisor)
	return evmcore.ValueFromUint256(quotient)
}

func credit(state evmcore.WorldState, addr evmcore.Address, amount evmcore.Value) {
	state.SetBalance(addr, evmcore.Add(state.GetBalance(addr), amount))
}

func touch(state evmcore.WorldState, addr evmcore.Address) {
	state.SetBalance(addr, state.GetBalance(addr))
}
