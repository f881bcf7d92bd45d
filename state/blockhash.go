// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package state

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/go-evmcore/evmcore"
)

// blockHashRingCapacity bounds the number of recent block hashes a Journal
// keeps memoized; the BLOCKHASH opcode only ever reaches back 256 blocks.
const blockHashRingCapacity = 256

// BlockHashSource resolves a historical block's hash for the BLOCKHASH
// opcode. A CLI harness or test backs this with a canned header chain; it is
// intentionally a thin seam since Journal has no notion of a block chain.
type BlockHashSource interface {
	BlockHash(number int64) evmcore.Hash
}

// blockHashCache wraps a BlockHashSource with an LRU ring of the most
// recently resolved hashes, the same memoization idiom
// interpreter.jumpdestCache uses for code analysis.
type blockHashCache struct {
	source BlockHashSource
	cache  *lru.Cache[int64, evmcore.Hash]
}

func newBlockHashCache(source BlockHashSource) *blockHashCache {
	c, err := lru.New[int64, evmcore.Hash](blockHashRingCapacity)
	if err != nil {
		panic(err) // only fails for a non-positive capacity constant
	}
	return &blockHashCache{source: source, cache: c}
}

func (b *blockHashCache) get(number int64) evmcore.Hash {
	if b.source == nil {
		return evmcore.Hash{}
	}
	if hash, ok := b.cache.Get(number); ok {
		return hash
	}
	hash := b.source.BlockHash(number)
	b.cache.Add(number, hash)
	return hash
}
