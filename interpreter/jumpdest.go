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

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/go-evmcore/evmcore"
	"github.com/go-evmcore/evmcore/vm"
)

// jumpdestCacheCapacity bounds the number of distinct contracts whose valid
// jump-destination bitmap is memoized across calls.
const jumpdestCacheCapacity = 4096

// bitmap marks, one bit per code byte, which offsets are JUMPDEST opcodes
// lying on an instruction boundary (not inside a PUSH's immediate data).
type bitmap []uint64

func newBitmap(size int) bitmap {
	return make(bitmap, (size+63)/64)
}

func (b bitmap) set(pos int) {
	b[pos/64] |= 1 << (uint(pos) % 64)
}

func (b bitmap) isSet(pos int) bool {
	if pos < 0 || pos/64 >= len(b) {
		return false
	}
	return b[pos/64]&(1<<(uint(pos)%64)) != 0
}

// analyzeJumpdests scans code once, recording every JUMPDEST byte that is
// not part of a preceding PUSH's immediate data (SPEC_FULL §4.1).
func analyzeJumpdests(code evmcore.Code) bitmap {
	dests := newBitmap(len(code))
	for pc := 0; pc < len(code); {
		op := vm.OpCode(code[pc])
		if op == vm.JUMPDEST {
			dests.set(pc)
			pc++
			continue
		}
		pc += op.Width()
	}
	return dests
}

// jumpdestCache memoizes the jump-destination bitmap per code hash so
// repeated calls into the same contract do not re-scan its bytecode.
type jumpdestCache struct {
	cache *lru.Cache[evmcore.Hash, bitmap]
}

func newJumpdestCache() *jumpdestCache {
	c, err := lru.New[evmcore.Hash, bitmap](jumpdestCacheCapacity)
	if err != nil {
		panic(err) // only fails for a non-positive capacity constant
	}
	return &jumpdestCache{cache: c}
}

func (j *jumpdestCache) get(codeHash *evmcore.Hash, code evmcore.Code) bitmap {
	if codeHash == nil {
		return analyzeJumpdests(code)
	}
	if dests, ok := j.cache.Get(*codeHash); ok {
		return dests
	}
	dests := analyzeJumpdests(code)
	j.cache.Add(*codeHash, dests)
	return dests
}
