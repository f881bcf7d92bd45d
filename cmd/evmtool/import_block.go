// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/urfave/cli/v2"

	"github.com/go-evmcore/evmcore"
	"github.com/go-evmcore/evmcore/chain"
	"github.com/go-evmcore/evmcore/params"
)

var importBlockCmd = cli.Command{
	Action: doImportBlock,
	Name:   "import-block",
	Usage:  "Import a candidate block against its parent header and an in-memory world state",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "chain", Required: true, Usage: "path to a chain JSON fixture (parent header + state)"},
		&cli.StringFlag{Name: "block", Required: true, Usage: "path to a candidate block JSON fixture"},
	},
}

// rootHasher is the reference TrieHasher state.Journal.Persist's digest
// scheme is also built on: a Keccak-256 over the concatenated leaves, with
// no attempt at a Merkle proof structure (PURPOSE & SCOPE, §1).
type rootHasher struct{}

func (rootHasher) RootHash(leaves [][]byte) evmcore.Hash {
	var flat []byte
	for _, leaf := range leaves {
		flat = append(flat, leaf...)
	}
	return evmcore.Hash(crypto.Keccak256Hash(flat))
}

func doImportBlock(ctx *cli.Context) error {
	var fixture chainFixture
	if err := readJSONFile(ctx.String("chain"), &fixture); err != nil {
		return err
	}
	var blockFixture blockFixture
	if err := readJSONFile(ctx.String("block"), &blockFixture); err != nil {
		return err
	}

	parent, err := loadHeader(fixture.Parent)
	if err != nil {
		return fmt.Errorf("loading parent header: %w", err)
	}
	journal, err := loadState(fixture.State)
	if err != nil {
		return fmt.Errorf("loading state: %w", err)
	}
	block, err := loadBlock(blockFixture)
	if err != nil {
		return fmt.Errorf("loading block: %w", err)
	}

	interpreter, err := evmcore.NewInterpreter("interpreter")
	if err != nil {
		return fmt.Errorf("resolving interpreter: %w", err)
	}
	proc := evmcore.GetProcessor("processor", interpreter)
	if proc == nil {
		return fmt.Errorf("processor implementation %q not registered", "processor")
	}

	c := chain.NewChain(params.MainnetSchedule(), proc)
	imported, witness, err := c.ImportBlock(&block, &parent, journal, rootHasher{})
	if err != nil {
		return fmt.Errorf("importing block: %w", err)
	}

	return json.NewEncoder(os.Stdout).Encode(struct {
		Header  chain.Header    `json:"header"`
		Witness evmcore.Witness `json:"witness"`
	}{
		Header:  imported.Header,
		Witness: witness,
	})
}
