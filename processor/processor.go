// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package processor implements the evmcore.Processor interface: it turns a
// Transaction plus a BlockParameters/TransactionContext pair into a Receipt,
// handling intrinsic gas, nonce checks, balance transfers, the fee market,
// and the top-level recursive call into the Interpreter.
package processor

import (
	"fmt"

	"github.com/go-evmcore/evmcore"
	"github.com/go-evmcore/evmcore/params"
)

const (
	MaxRecursiveDepth = 1024 // Maximum depth of call/create stack.
)

func init() {
	evmcore.RegisterProcessorFactory("processor", newProcessor)
}

func newProcessor(interpreter evmcore.Interpreter) evmcore.Processor {
	return &processor{
		interpreter: interpreter,
	}
}

type processor struct {
	interpreter evmcore.Interpreter
}

func (p *processor) Run(
	blockParameters evmcore.BlockParameters,
	transaction evmcore.Transaction,
	context evmcore.TransactionContext,
) (evmcore.Receipt, error) {
	errorReceipt := evmcore.Receipt{
		Success: false,
		GasUsed: transaction.GasLimit,
	}
	gas := transaction.GasLimit
	rules := params.RulesFor(blockParameters.Revision)

	costless := false
	if cc, ok := context.(evmcore.CostlessContext); ok && cc.IsCostless() {
		costless = true
		blockParameters.BaseFee = evmcore.Value{}
	}

	effectiveGasPrice := effectiveGasPrice(transaction, blockParameters)

	if err := buyGas(transaction, effectiveGasPrice, context); err != nil {
		return evmcore.Receipt{}, nil
	}

	intrinsicGas := setupGasBilling(transaction, rules)
	if gas < intrinsicGas {
		return errorReceipt, nil
	}
	gas -= intrinsicGas

	if err := handleNonce(transaction, context); err != nil {
		return errorReceipt, nil
	}

	warmAccessList(transaction, context, blockParameters.Revision)

	transactionParameters := evmcore.TransactionParameters{
		Origin:     transaction.Sender,
		GasPrice:   effectiveGasPrice,
		BlobHashes: []evmcore.Hash{},
	}

	runContext := runContext{
		context,
		p.interpreter,
		blockParameters,
		transactionParameters,
		0,
		false,
	}

	callParameters := callParameters(transaction, gas)
	kind := callKind(transaction)

	result, err := runContext.Call(kind, callParameters)
	if err != nil {
		return errorReceipt, err
	}

	var createdAddress *evmcore.Address
	if kind == evmcore.Create {
		createdAddress = &result.CreatedAddress
	}

	gasLeft := calculateGasLeft(transaction, result, rules)
	refundGas(transaction, effectiveGasPrice, context, gasLeft)
	if !costless {
		payCoinbaseTip(transaction, effectiveGasPrice, blockParameters, context, transaction.GasLimit-gasLeft)
	}

	// The coinbase is touched unconditionally, even when it received no
	// tip (a zero-reward post-merge block, or a zeroed costless run), so
	// EIP-161 cleanup observes it as accessed (SPEC_FULL §9).
	touchAccount(context, blockParameters.Coinbase)

	if rules.HasEIP161 {
		sweepEmptyTouchedAccounts(context)
	}

	logs := context.GetLogs()

	return evmcore.Receipt{
		Success:         result.Success,
		GasUsed:         transaction.GasLimit - gasLeft,
		ContractAddress: createdAddress,
		Output:          result.Output,
		Logs:            logs,
		Bloom:           evmcore.CreateBloom(logs),
	}, nil
}

// effectiveGasPrice computes the price paid per unit of gas. Pre-London
// blocks, and transactions with a zero GasFeeCap, pay the legacy GasPrice
// verbatim; EIP-1559 transactions pay min(GasFeeCap, BaseFee + GasTipCap),
// which is GasFeeCap itself, even below BaseFee, when GasFeeCap <= BaseFee.
func effectiveGasPrice(transaction evmcore.Transaction, blockParameters evmcore.BlockParameters) evmcore.Value {
	if blockParameters.Revision < evmcore.R10_London || transaction.GasFeeCap == (evmcore.Value{}) {
		return transaction.GasPrice
	}

	if blockParameters.BaseFee.Cmp(transaction.GasFeeCap) >= 0 {
		return transaction.GasFeeCap
	}
	priorityFee := evmcore.Sub(transaction.GasFeeCap, blockParameters.BaseFee)
	if priorityFee.Cmp(transaction.GasTipCap) > 0 {
		priorityFee = transaction.GasTipCap
	}
	return evmcore.Add(blockParameters.BaseFee, priorityFee)
}

// payCoinbaseTip credits the block's coinbase with the priority fee portion
// of the gas paid by the transaction. Pre-London, the coinbase receives the
// full gas price (there is no base fee to burn).
func payCoinbaseTip(
	transaction evmcore.Transaction,
	effectiveGasPrice evmcore.Value,
	blockParameters evmcore.BlockParameters,
	context evmcore.TransactionContext,
	gasUsed evmcore.Gas,
) {
	tip := effectiveGasPrice
	if blockParameters.Revision >= evmcore.R10_London {
		if effectiveGasPrice.Cmp(blockParameters.BaseFee) <= 0 {
			return
		}
		tip = evmcore.Sub(effectiveGasPrice, blockParameters.BaseFee)
	}
	fee := tip.Scale(uint64(gasUsed))
	balance := context.GetBalance(blockParameters.Coinbase)
	context.SetBalance(blockParameters.Coinbase, evmcore.Add(balance, fee))
}

// warmAccessList pre-loads the sender, recipient, every precompiled
// contract, and every address/storage key listed in an EIP-2930 access list
// as warm, per EIP-2929.
func warmAccessList(transaction evmcore.Transaction, context evmcore.TransactionContext, revision evmcore.Revision) {
	if revision < evmcore.R09_Berlin {
		return
	}
	context.AccessAccount(transaction.Sender)
	if transaction.Recipient != nil {
		context.AccessAccount(*transaction.Recipient)
	}
	for _, addr := range precompiledAddresses(revision) {
		context.AccessAccount(addr)
	}
	for _, tuple := range transaction.AccessList {
		context.AccessAccount(tuple.Address)
		for _, key := range tuple.Keys {
			context.AccessStorage(tuple.Address, key)
		}
	}
}

// touchAccount marks addr as touched by reading and rewriting its own
// balance, the same idiom chain.AssignBlockRewards uses to touch a
// zero-reward coinbase.
func touchAccount(context evmcore.TransactionContext, addr evmcore.Address) {
	context.SetBalance(addr, context.GetBalance(addr))
}

// sweepEmptyTouchedAccounts deletes every address touched during the
// transaction that is empty at commit time (EIP-161), if context tracks
// touched addresses. Façades that do not implement evmcore.TouchTracker
// (e.g. a narrow test mock) are left unswept.
func sweepEmptyTouchedAccounts(context evmcore.TransactionContext) {
	tracker, ok := context.(evmcore.TouchTracker)
	if !ok {
		return
	}
	for _, addr := range tracker.TouchedAddresses() {
		if context.AccountExists(addr) && isEmptyAccount(context, addr) {
			context.SelfDestruct(addr, addr)
		}
	}
}

func isEmptyAccount(context evmcore.WorldState, addr evmcore.Address) bool {
	return context.GetNonce(addr) == 0 &&
		context.GetBalance(addr) == (evmcore.Value{}) &&
		context.GetCodeSize(addr) == 0
}

func callKind(transaction evmcore.Transaction) evmcore.CallKind {
	if transaction.Recipient == nil {
		return evmcore.Create
	}
	return evmcore.Call
}

func callParameters(transaction evmcore.Transaction, gas evmcore.Gas) evmcore.CallParameters {
	callParameters := evmcore.CallParameters{
		Sender: transaction.Sender,
		Input:  transaction.Input,
		Value:  transaction.Value,
		Gas:    gas,
	}
	if transaction.Recipient != nil {
		callParameters.Recipient = *transaction.Recipient
	}
	return callParameters
}

func calculateGasLeft(transaction evmcore.Transaction, result evmcore.CallResult, rules params.Rules) evmcore.Gas {
	gasLeft := result.GasLeft

	if result.Success {
		gasUsed := transaction.GasLimit - gasLeft
		refund := result.GasRefund

		maxRefund := gasUsed / evmcore.Gas(rules.MaxRefundQuotient)
		if refund > maxRefund {
			refund = maxRefund
		}
		gasLeft += refund
	}

	return gasLeft
}

func refundGas(transaction evmcore.Transaction, effectiveGasPrice evmcore.Value, context evmcore.TransactionContext, gasLeft evmcore.Gas) {
	refundValue := effectiveGasPrice.Scale(uint64(gasLeft))
	senderBalance := context.GetBalance(transaction.Sender)
	senderBalance = evmcore.Add(senderBalance, refundValue)
	context.SetBalance(transaction.Sender, senderBalance)
}

func setupGasBilling(transaction evmcore.Transaction, rules params.Rules) evmcore.Gas {
	var gas evmcore.Gas
	if transaction.Recipient == nil {
		gas = rules.TxGasContractCreation
	} else {
		gas = rules.TxGas
	}

	if len(transaction.Input) > 0 {
		nonZeroBytes := evmcore.Gas(0)
		for _, inputByte := range transaction.Input {
			if inputByte != 0 {
				nonZeroBytes++
			}
		}
		zeroBytes := evmcore.Gas(len(transaction.Input)) - nonZeroBytes
		gas += zeroBytes * rules.TxDataZeroGas
		gas += nonZeroBytes * rules.TxDataNonZeroGas
	}

	// No overflow check for the gas computation is required although it is performed in the
	// opera version. The overflow check would be triggered in a worst case with an input
	// greater than 2^64 / 16 - 53000 = ~10^18, which is not possible with real world hardware
	if transaction.AccessList != nil && rules.HasAccessList {
		gas += evmcore.Gas(len(transaction.AccessList)) * rules.TxAccessListAddress

		// charge for each storage key
		for _, accessTuple := range transaction.AccessList {
			gas += evmcore.Gas(len(accessTuple.Keys)) * rules.TxAccessListStorage
		}
	}

	return evmcore.Gas(gas)
}

func handleNonce(transaction evmcore.Transaction, context evmcore.TransactionContext) error {
	stateNonce := context.GetNonce(transaction.Sender)
	messageNonce := transaction.Nonce
	if messageNonce != stateNonce {
		return fmt.Errorf("nonce mismatch: %v != %v", messageNonce, stateNonce)
	}
	context.SetNonce(transaction.Sender, stateNonce+1)
	return nil
}

func buyGas(transaction evmcore.Transaction, effectiveGasPrice evmcore.Value, context evmcore.TransactionContext) error {
	gas := effectiveGasPrice.Scale(uint64(transaction.GasLimit))

	// Buy gas
	senderBalance := context.GetBalance(transaction.Sender)
	if senderBalance.Cmp(gas) < 0 {
		return fmt.Errorf("insufficient balance: %v < %v", senderBalance, gas)
	}

	senderBalance = evmcore.Sub(senderBalance, gas)
	context.SetBalance(transaction.Sender, senderBalance)

	return nil
}
