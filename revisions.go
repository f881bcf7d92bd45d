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

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
)

// Revision is an enumeration for EVM specification revisions (aka.
// Hard-Forks). Revisions are ordered: a later fork's constant always
// compares greater than an earlier one's, so callers can gate behavior with
// plain range checks (e.g. revision >= R09_Berlin).
type Revision int

const (
	R00_Frontier Revision = iota
	R01_Homestead
	R02_TangerineWhistle
	R03_SpuriousDragon
	R04_Byzantium
	R05_Constantinople
	R06_Petersburg
	R07_Istanbul
	R09_Berlin
	R10_London
	R11_Paris
	R12_Shanghai
	numRevisions int = iota
)

func (r Revision) String() string {
	switch r {
	case R00_Frontier:
		return "Frontier"
	case R01_Homestead:
		return "Homestead"
	case R02_TangerineWhistle:
		return "TangerineWhistle"
	case R03_SpuriousDragon:
		return "SpuriousDragon"
	case R04_Byzantium:
		return "Byzantium"
	case R05_Constantinople:
		return "Constantinople"
	case R06_Petersburg:
		return "Petersburg"
	case R07_Istanbul:
		return "Istanbul"
	case R09_Berlin:
		return "Berlin"
	case R10_London:
		return "London"
	case R11_Paris:
		return "Paris"
	case R12_Shanghai:
		return "Shanghai"
	default:
		return fmt.Sprintf("Revision(%d)", r)
	}
}

func GetAllKnownRevisions() []Revision {
	return []Revision{
		R00_Frontier,
		R01_Homestead,
		R02_TangerineWhistle,
		R03_SpuriousDragon,
		R04_Byzantium,
		R05_Constantinople,
		R06_Petersburg,
		R07_Istanbul,
		R09_Berlin,
		R10_London,
		R11_Paris,
		R12_Shanghai,
	}
}

func (r Revision) MarshalJSON() ([]byte, error) {
	revString := r.String()
	return json.Marshal(revString)
}

func (r *Revision) UnmarshalJSON(data []byte) error {
	var s string
	err := json.Unmarshal(data, &s)
	if err != nil {
		return err
	}

	for _, candidate := range GetAllKnownRevisions() {
		if candidate.String() == s {
			*r = candidate
			return nil
		}
	}

	// read Revision(X) format and extract the number.
	reg := regexp.MustCompile(`Revision\(([0-9]+)\)`)
	substring := reg.FindAllStringSubmatch(s, 1)
	if substring == nil {
		return &json.UnmarshalTypeError{}
	}
	revNumber := substring[0][1]
	revInt, err := strconv.Atoi(revNumber)
	if err != nil {
		return err
	}

	*r = Revision(revInt)
	return nil
}

// ErrUnsupportedRevision signals a run request for a Revision the
// Interpreter or Processor does not implement.
type ErrUnsupportedRevision struct {
	Revision Revision
}

func (e *ErrUnsupportedRevision) Error() string {
	return fmt.Sprintf("unsupported revision %d", e.Revision)
}
