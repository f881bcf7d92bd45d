// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Command evmtool drives the evmcore engine from JSON fixtures instead of a
// live chain: run-tx executes one transaction against an in-memory world
// state, import-block executes a whole candidate block. Both operate
// entirely through state.Journal (SPEC_FULL §11), grounded in go/ct/driver's
// urfave/cli/v2 command structure.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	// Blank-imported for their package init() side effects, which register
	// the "interpreter" and "processor" factories this tool resolves by
	// name.
	_ "github.com/go-evmcore/evmcore/interpreter"
	_ "github.com/go-evmcore/evmcore/processor"
)

func main() {
	app := &cli.App{
		Name:      "evmtool",
		Usage:     "Run transactions and import blocks against an in-memory EVM state",
		Copyright: "(c) 2024 Fantom Foundation",
		Commands: []*cli.Command{
			&runTxCmd,
			&importBlockCmd,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
