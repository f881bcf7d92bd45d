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

import "github.com/ethereum/go-ethereum/crypto"

// bloomByteLength is the number of bytes in a block/log bloom filter (2048 bits).
const bloomByteLength = 256

// CreateBloom builds the 2048-bit bloom filter covering the address and
// topics of the given logs. Three bits are set per item, selected from the
// low 11 bits of three non-overlapping 2-byte windows of its Keccak-256
// hash, matching the scheme used by go-ethereum block headers.
func CreateBloom(logs []Log) [bloomByteLength]byte {
	var bloom [bloomByteLength]byte
	for _, log := range logs {
		addBloomItem(&bloom, log.Address[:])
		for _, topic := range log.Topics {
			addBloomItem(&bloom, topic[:])
		}
	}
	return bloom
}

func addBloomItem(bloom *[bloomByteLength]byte, data []byte) {
	hash := crypto.Keccak256(data)
	for i := 0; i < 3; i++ {
		bit := (uint(hash[2*i+1]) + (uint(hash[2*i]) << 8)) & 0x7ff
		bloom[bloomByteLength-1-bit/8] |= 1 << (bit % 8)
	}
}

// BloomContains reports whether bloom may contain data; false negatives are
// impossible, false positives are expected.
func BloomContains(bloom [bloomByteLength]byte, data []byte) bool {
	hash := crypto.Keccak256(data)
	for i := 0; i < 3; i++ {
		bit := (uint(hash[2*i+1]) + (uint(hash[2*i]) << 8)) & 0x7ff
		if bloom[bloomByteLength-1-bit/8]&(1<<(bit%8)) == 0 {
			return false
		}
	}
	return true
}
