// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package processor

import (
	"fmt"

	"github.com/go-evmcore/evmcore"

	// geth dependencies
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

type runContext struct {
	evmcore.TransactionContext
	interpreter           evmcore.Interpreter
	blockParameters       evmcore.BlockParameters
	transactionParameters evmcore.TransactionParameters
	depth                 int
	static                bool
}

func (r runContext) Call(kind evmcore.CallKind, parameters evmcore.CallParameters) (evmcore.CallResult, error) {
	if r.depth > MaxRecursiveDepth {
		return evmcore.CallResult{}, evmcore.ErrDepthLimit
	}
	r.depth++
	defer func() { r.depth-- }()

	r.AccessAccount(parameters.Recipient)
	if kind == evmcore.DelegateCall || kind == evmcore.CallCode {
		r.AccessAccount(parameters.CodeAddress)
	}

	codeHash := r.GetCodeHash(parameters.Recipient)
	code := r.GetCode(parameters.Recipient)

	if kind == evmcore.DelegateCall || kind == evmcore.CallCode {
		code = r.GetCode(parameters.CodeAddress)
		codeHash = r.GetCodeHash(parameters.CodeAddress)
	}

	recipient := parameters.Recipient
	var createdAddress evmcore.Address
	if kind == evmcore.Create || kind == evmcore.Create2 {
		if parameters.Recipient == (evmcore.Address{}) {
			code = evmcore.Code(parameters.Input)
			codeHash = hashCode(code)
		}
		createdAddress = createAddress(
			kind,
			parameters.Sender,
			r.GetNonce(parameters.Sender),
			parameters.Salt,
			codeHash,
		)

		if r.blockParameters.Revision >= evmcore.R03_SpuriousDragon && r.AccountExists(createdAddress) &&
			(r.GetNonce(createdAddress) != 0 || r.GetCodeSize(createdAddress) != 0) {
			return evmcore.CallResult{}, evmcore.ErrContractCreationCollision
		}

		r.AccessAccount(createdAddress)
		r.SetNonce(parameters.Sender, r.GetNonce(parameters.Sender)+1)
		r.SetNonce(createdAddress, 1)
		recipient = createdAddress
	}

	static := r.static
	if kind == evmcore.StaticCall {
		static = true
	}

	snapshot := r.CreateSnapshot()
	// DELEGATECALL carries the parent's value through for CALLVALUE
	// reporting but never actually moves balance.
	if kind != evmcore.DelegateCall {
		if err := transferValue(r, parameters.Value, parameters.Sender, recipient); err != nil {
			r.RestoreSnapshot(snapshot)
			return evmcore.CallResult{GasLeft: parameters.Gas}, nil
		}
	}

	callResult, isPrecompiled := handlePrecompiledContract(r.blockParameters.Revision, parameters.Input, recipient, parameters.Gas)
	if isPrecompiled {
		if !callResult.Success {
			r.RestoreSnapshot(snapshot)
		}
		return callResult, nil
	}

	interpreterParameters := evmcore.Parameters{
		BlockParameters:       r.blockParameters,
		TransactionParameters: r.transactionParameters,
		Context:               runContext{r.TransactionContext, r.interpreter, r.blockParameters, r.transactionParameters, r.depth, static},
		Kind:                  kind,
		Static:                static,
		Depth:                 r.depth - 1, // depth has already been incremented
		Gas:                   parameters.Gas,
		Recipient:             recipient,
		Sender:                parameters.Sender,
		Input:                 parameters.Input,
		Value:                 parameters.Value,
		CodeHash:              &codeHash,
		Code:                  code,
	}

	result, err := r.interpreter.Run(interpreterParameters)
	if err != nil || !result.Success {
		r.RestoreSnapshot(snapshot)
	} else if kind == evmcore.Create || kind == evmcore.Create2 {
		r.SetCode(createdAddress, evmcore.Code(result.Output))
	}

	return evmcore.CallResult{
		Output:         result.Output,
		GasLeft:        result.GasLeft,
		GasRefund:      result.GasRefund,
		Success:        result.Success,
		CreatedAddress: createdAddress,
	}, err
}

func hashCode(code evmcore.Code) evmcore.Hash {
	return evmcore.Hash(crypto.Keccak256Hash(code))
}

func createAddress(
	kind evmcore.CallKind,
	sender evmcore.Address,
	nonce uint64,
	salt evmcore.Hash,
	initHash evmcore.Hash,
) evmcore.Address {
	if kind == evmcore.Create {
		return evmcore.Address(crypto.CreateAddress(common.Address(sender), nonce))
	}
	return evmcore.Address(crypto.CreateAddress2(common.Address(sender), common.Hash(salt), initHash[:]))
}

func transferValue(
	context evmcore.TransactionContext,
	value evmcore.Value,
	sender evmcore.Address,
	recipient evmcore.Address,
) error {
	if value == (evmcore.Value{}) {
		return nil
	}

	senderBalance := context.GetBalance(sender)
	if senderBalance.Cmp(value) < 0 {
		return fmt.Errorf("insufficient balance: %v < %v", senderBalance, value)
	}
	if sender == recipient {
		// Self-transfer (e.g. CALLCODE): balance is unchanged, avoid the
		// sequential Set calls below clobbering each other.
		return nil
	}

	receiverBalance := context.GetBalance(recipient)
	updatedBalance := evmcore.Add(receiverBalance, value)
	if updatedBalance.Cmp(receiverBalance) < 0 || updatedBalance.Cmp(value) < 0 {
		return fmt.Errorf("overflow: %v + %v", receiverBalance, value)
	}

	senderBalance = evmcore.Sub(senderBalance, value)
	context.SetBalance(sender, senderBalance)
	context.SetBalance(recipient, updatedBalance)

	return nil
}
