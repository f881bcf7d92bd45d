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
	"github.com/go-evmcore/evmcore/params"
)

// Chain binds a fork schedule to a Processor/Interpreter selection,
// resolving the Revision applicable to a candidate header before the
// Processor builds its Rules.
type Chain struct {
	Schedule  params.Schedule
	Processor evmcore.Processor
}

// NewChain constructs a Chain backed by the given schedule and processor.
func NewChain(schedule params.Schedule, processor evmcore.Processor) *Chain {
	return &Chain{Schedule: schedule, Processor: processor}
}

// RevisionForHeader resolves the Revision active for the given header.
func (c *Chain) RevisionForHeader(header *Header) evmcore.Revision {
	return c.Schedule.RevisionForBlock(header.BlockNumber, header.Timestamp)
}

func isEmptyAccount(state evmcore.WorldState, addr evmcore.Address) bool {
	return state.GetNonce(addr) == 0 &&
		state.GetBalance(addr) == (evmcore.Value{}) &&
		state.GetCodeSize(addr) == 0
}
