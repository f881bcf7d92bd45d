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

	"github.com/urfave/cli/v2"

	"github.com/go-evmcore/evmcore"
)

var runTxCmd = cli.Command{
	Action: doRunTx,
	Name:   "run-tx",
	Usage:  "Run a single transaction against an in-memory world state",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "state", Required: true, Usage: "path to a world-state JSON fixture"},
		&cli.StringFlag{Name: "tx", Required: true, Usage: "path to a transaction JSON fixture"},
		&cli.StringFlag{Name: "block", Required: true, Usage: "path to a block-parameters JSON fixture"},
		&cli.StringFlag{Name: "revision", Required: true, Usage: "revision name, e.g. Berlin, London, Shanghai"},
	},
}

func doRunTx(ctx *cli.Context) error {
	revision, err := parseRevision(ctx.String("revision"))
	if err != nil {
		return err
	}

	var stateFixture stateFixture
	if err := readJSONFile(ctx.String("state"), &stateFixture); err != nil {
		return err
	}
	var txFixture transactionFixture
	if err := readJSONFile(ctx.String("tx"), &txFixture); err != nil {
		return err
	}
	var blockFixture blockParametersFixture
	if err := readJSONFile(ctx.String("block"), &blockFixture); err != nil {
		return err
	}

	journal, err := loadState(stateFixture)
	if err != nil {
		return fmt.Errorf("loading state: %w", err)
	}
	tx, err := loadTransaction(txFixture)
	if err != nil {
		return fmt.Errorf("loading transaction: %w", err)
	}
	blockParameters, err := loadBlockParameters(blockFixture, revision)
	if err != nil {
		return fmt.Errorf("loading block parameters: %w", err)
	}

	interpreter, err := evmcore.NewInterpreter("interpreter")
	if err != nil {
		return fmt.Errorf("resolving interpreter: %w", err)
	}
	proc := evmcore.GetProcessor("processor", interpreter)
	if proc == nil {
		return fmt.Errorf("processor implementation %q not registered", "processor")
	}

	receipt, err := proc.Run(blockParameters, tx, journal)
	if err != nil {
		return fmt.Errorf("running transaction: %w", err)
	}

	return json.NewEncoder(os.Stdout).Encode(receipt)
}
