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
	"sort"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/go-evmcore/evmcore"
)

// Persist produces a deterministic digest over every account and storage
// slot the Journal has observed, standing in for the root a persistent
// Merkle-Patricia trie would compute, plus the accompanying Witness
// (SPEC_FULL §4.4). It does not clear any bookkeeping; a Journal may be
// persisted repeatedly, e.g. once per transaction and again at block end.
func (j *Journal) Persist() (evmcore.Hash, evmcore.Witness) {
	addresses := make([]evmcore.Address, 0, len(j.witnessAddresses))
	for addr := range j.witnessAddresses {
		addresses = append(addresses, addr)
	}
	sort.Slice(addresses, func(i, k int) bool {
		return string(addresses[i][:]) < string(addresses[k][:])
	})

	var digest []byte
	codeHashes := make([]evmcore.Hash, 0, len(addresses))
	storageKeys := map[evmcore.Address][]evmcore.Key{}

	for _, addr := range addresses {
		digest = append(digest, addr[:]...)
		if acc := j.account(addr); acc != nil {
			balance := acc.balance
			digest = append(digest, balance[:]...)
			digest = append(digest, acc.codeHash[:]...)
			if len(acc.code) > 0 {
				codeHashes = append(codeHashes, acc.codeHash)
			}
		}

		keys := make([]evmcore.Key, 0, len(j.witnessStorage[addr]))
		for key := range j.witnessStorage[addr] {
			keys = append(keys, key)
		}
		sort.Slice(keys, func(i, k int) bool {
			return string(keys[i][:]) < string(keys[k][:])
		})
		if len(keys) > 0 {
			storageKeys[addr] = keys
		}
		for _, key := range keys {
			value := j.storageValue(addr, key)
			digest = append(digest, key[:]...)
			digest = append(digest, value[:]...)
		}
	}

	root := evmcore.Hash(crypto.Keccak256Hash(digest))
	return root, evmcore.Witness{
		Addresses:   addresses,
		CodeHashes:  codeHashes,
		StorageKeys: storageKeys,
	}
}
