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

import "github.com/go-evmcore/evmcore"

const maxExtraDataSize = 32
const maxUncles = 2

// ValidateHeader checks header-consistency invariants against its parent:
// monotonic block number and timestamp, extra-data size, and gas-limit
// drift bound. Grounded on original_source/eth/vm/forks/frontier/
// validation.py and SPEC_FULL §4.5's validation bullet list.
func ValidateHeader(header *Header, parent *Header) error {
	if len(header.ExtraData) > maxExtraDataSize {
		return &evmcore.ValidationError{Reason: "extra data exceeds 32 bytes"}
	}
	if parent == nil {
		return nil
	}
	if header.BlockNumber != parent.BlockNumber+1 {
		return &evmcore.ValidationError{Reason: "block number is not parent+1"}
	}
	if header.Timestamp <= parent.Timestamp {
		return &evmcore.ValidationError{Reason: "timestamp does not increase"}
	}
	drift := gasLimitDrift(header.GasLimit, parent.GasLimit)
	if drift > evmcore.Gas(parent.GasLimit)/1024 {
		return &evmcore.ValidationError{Reason: "gas limit drift too large"}
	}
	return nil
}

func gasLimitDrift(current, parent evmcore.Gas) evmcore.Gas {
	if current > parent {
		return current - parent
	}
	return parent - current
}

// ValidateUncle checks that an uncle is within the eligible window relative
// to the including block and that it does not exceed the declared uncle
// limit's per-uncle constraints.
func ValidateUncle(uncle *Header, header *Header, parent *Header) error {
	var lowerBound uint64
	if header.BlockNumber > 7 {
		lowerBound = header.BlockNumber - 7
	}
	if header.BlockNumber == 0 || uncle.BlockNumber < lowerBound || uncle.BlockNumber > header.BlockNumber-1 {
		return &evmcore.ValidationError{Reason: "uncle number out of eligible window"}
	}
	return nil
}

// ValidateBlock checks block-wide invariants: at most two uncles, and that
// the declared roots match the ones computed during import. ImportBlock
// does not call it; a caller passes the header ImportBlock returned as
// computed to check a block (e.g. a received block from a peer) against
// the roots its import produced.
func ValidateBlock(block *Block, computed *Header) error {
	if len(block.Uncles) > maxUncles {
		return &evmcore.ValidationError{Reason: "too many uncles"}
	}
	if block.Header.UncleHash != computed.UncleHash {
		return &evmcore.ValidationError{Reason: "uncle hash mismatch"}
	}
	if block.Header.TransactionsRoot != computed.TransactionsRoot {
		return &evmcore.ValidationError{Reason: "transactions root mismatch"}
	}
	if block.Header.ReceiptsRoot != computed.ReceiptsRoot {
		return &evmcore.ValidationError{Reason: "receipts root mismatch"}
	}
	if block.Header.StateRoot != computed.StateRoot {
		return &evmcore.ValidationError{Reason: "state root mismatch"}
	}
	return nil
}
