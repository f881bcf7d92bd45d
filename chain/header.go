// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package chain drives block-level execution on top of the evmcore
// Processor: it sequences transactions, applies withdrawals, assigns block
// and uncle rewards, and validates header/uncle consistency. The teacher
// has no equivalent package — go/tosca and go/processor only round-trip a
// single transaction against a caller-supplied RunContext — so this package
// is new, grounded on original_source/eth/vm/base.py's block-application
// sequencing, re-expressed in the teacher's idiom (explicit struct returns,
// wrapped errors, no exceptions).
package chain

import "github.com/go-evmcore/evmcore"

// Header is the subset of block-header fields this engine needs to execute
// and validate a block; it intentionally omits consensus fields (mix hash,
// nonce, difficulty proof) this engine does not verify.
type Header struct {
	ParentHash       evmcore.Hash
	UncleHash        evmcore.Hash
	Coinbase         evmcore.Address
	StateRoot        evmcore.Hash
	TransactionsRoot evmcore.Hash
	ReceiptsRoot     evmcore.Hash
	Bloom            [256]byte
	Difficulty       evmcore.Value
	BlockNumber      uint64
	GasLimit         evmcore.Gas
	GasUsed          evmcore.Gas
	Timestamp        uint64
	ExtraData        []byte
	BaseFee          evmcore.Value // London+

	WithdrawalsRoot evmcore.Hash // Shanghai+
}

// Block pairs a Header with the transactions and uncle headers it commits
// to via TransactionsRoot/UncleHash.
type Block struct {
	Header       Header
	Transactions []evmcore.Transaction
	Uncles       []Header
	Withdrawals  []Withdrawal
}

// Withdrawal is an EIP-4895 validator withdrawal, processed after all
// transactions in a block.
type Withdrawal struct {
	Index          uint64
	ValidatorIndex uint64
	Recipient      evmcore.Address
	AmountGwei     uint64
}

// HeaderReader is the chain-database lookup surface this package consumes;
// it is implemented by the host, not by this repository.
type HeaderReader interface {
	HeaderByHash(hash evmcore.Hash) (*Header, bool)
	HeaderByNumber(number uint64) (*Header, bool)
}

// TrieHasher computes a root hash over a list of RLP-encodable leaves
// (transactions, receipts, withdrawals) without requiring a full
// Merkle-Patricia trie implementation in this engine.
type TrieHasher interface {
	RootHash(leaves [][]byte) evmcore.Hash
}
