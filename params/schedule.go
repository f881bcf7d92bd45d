// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package params

import "github.com/go-evmcore/evmcore"

// Schedule maps a candidate block (by number pre-merge, by timestamp from
// Shanghai onward) to the Revision active for it. Grounded on
// original_source/eth/vm/base.py's fork-block-number dispatch and on the
// teacher's go/ct/driver revision iteration (evmcore.GetAllKnownRevisions),
// generalized here from an enumeration into a threshold lookup.
type Schedule struct {
	// BlockNumbers holds the first block number at which each revision up
	// to and including Paris becomes active, indexed by evmcore.Revision.
	// Shanghai and later are keyed by Timestamps instead.
	BlockNumbers map[evmcore.Revision]uint64

	// Timestamps holds the first block timestamp at which each
	// Shanghai-and-later revision becomes active.
	Timestamps map[evmcore.Revision]uint64

	// ParisBlock is the block number at which the chain transitioned to
	// proof-of-stake (The Merge); Paris itself is still dispatched by
	// block number, consistent with mainnet Ethereum.
	ParisBlock uint64
}

// MainnetSchedule returns the fork schedule matching Ethereum mainnet's
// historical activation blocks/timestamps, for the revisions this engine
// supports (Frontier through Shanghai).
func MainnetSchedule() Schedule {
	return Schedule{
		BlockNumbers: map[evmcore.Revision]uint64{
			evmcore.R00_Frontier:         0,
			evmcore.R01_Homestead:        1_150_000,
			evmcore.R02_TangerineWhistle: 2_463_000,
			evmcore.R03_SpuriousDragon:   2_675_000,
			evmcore.R04_Byzantium:        4_370_000,
			evmcore.R05_Constantinople:   7_280_000,
			evmcore.R06_Petersburg:       7_280_000,
			evmcore.R07_Istanbul:         9_069_000,
			evmcore.R09_Berlin:           12_244_000,
			evmcore.R10_London:          12_965_000,
			evmcore.R11_Paris:           15_537_394,
		},
		Timestamps: map[evmcore.Revision]uint64{
			evmcore.R12_Shanghai: 1_681_338_455,
		},
		ParisBlock: 15_537_394,
	}
}

// RevisionForBlock resolves the Revision active for a block with the given
// number and timestamp: it picks the highest pre-merge revision whose
// BlockNumbers threshold is at or below number, then upgrades to any
// Shanghai-and-later revision whose Timestamps threshold is at or below
// timestamp.
func (s Schedule) RevisionForBlock(number uint64, timestamp uint64) evmcore.Revision {
	revision := evmcore.R00_Frontier
	for _, candidate := range evmcore.GetAllKnownRevisions() {
		threshold, ok := s.BlockNumbers[candidate]
		if !ok {
			continue
		}
		if number >= threshold && candidate > revision {
			revision = candidate
		}
	}
	for _, candidate := range evmcore.GetAllKnownRevisions() {
		threshold, ok := s.Timestamps[candidate]
		if !ok {
			continue
		}
		if timestamp >= threshold && candidate > revision {
			revision = candidate
		}
	}
	return revision
}
