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
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/go-evmcore/evmcore"
	"github.com/go-evmcore/evmcore/chain"
	"github.com/go-evmcore/evmcore/state"
)

// The fixture types below are the JSON shapes run-tx/import-block read; they
// exist because this engine carries no RLP codec of its own (SPEC_FULL §6),
// so fixtures are plain hex/decimal JSON rather than a real chain's wire
// encoding.

type accountFixture struct {
	Address string            `json:"address"`
	Balance string            `json:"balance,omitempty"`
	Nonce   uint64            `json:"nonce,omitempty"`
	Code    string            `json:"code,omitempty"`
	Storage map[string]string `json:"storage,omitempty"`
}

type stateFixture struct {
	Accounts []accountFixture `json:"accounts"`
}

type accessTupleFixture struct {
	Address string   `json:"address"`
	Keys    []string `json:"keys"`
}

type transactionFixture struct {
	Sender     string               `json:"sender"`
	Recipient  string               `json:"recipient,omitempty"`
	Nonce      uint64               `json:"nonce"`
	Input      string               `json:"input,omitempty"`
	Value      string               `json:"value,omitempty"`
	GasLimit   int64                `json:"gasLimit"`
	GasPrice   string               `json:"gasPrice,omitempty"`
	GasFeeCap  string               `json:"gasFeeCap,omitempty"`
	GasTipCap  string               `json:"gasTipCap,omitempty"`
	AccessList []accessTupleFixture `json:"accessList,omitempty"`
}

type blockParametersFixture struct {
	BlockNumber int64  `json:"blockNumber"`
	Timestamp   int64  `json:"timestamp"`
	Coinbase    string `json:"coinbase,omitempty"`
	GasLimit    int64  `json:"gasLimit"`
	BaseFee     string `json:"baseFee,omitempty"`
}

type headerFixture struct {
	ParentHash  string `json:"parentHash,omitempty"`
	Coinbase    string `json:"coinbase,omitempty"`
	BlockNumber uint64 `json:"blockNumber"`
	GasLimit    int64  `json:"gasLimit"`
	Timestamp   uint64 `json:"timestamp"`
	BaseFee     string `json:"baseFee,omitempty"`
	ExtraData   string `json:"extraData,omitempty"`
}

type withdrawalFixture struct {
	Index          uint64 `json:"index"`
	ValidatorIndex uint64 `json:"validatorIndex"`
	Recipient      string `json:"recipient"`
	AmountGwei     uint64 `json:"amountGwei"`
}

type blockFixture struct {
	Header       headerFixture        `json:"header"`
	Transactions []transactionFixture `json:"transactions"`
	Withdrawals  []withdrawalFixture  `json:"withdrawals,omitempty"`
}

type chainFixture struct {
	Parent headerFixture `json:"parent"`
	Block  blockFixture  `json:"block"`
	State  stateFixture  `json:"state"`
}

func readJSONFile(path string, into any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, into); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func parseHexBytes(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	if s == "" {
		return nil, nil
	}
	return hex.DecodeString(s)
}

func parseFixedBytes(s string, out []byte) error {
	data, err := parseHexBytes(s)
	if err != nil {
		return err
	}
	if len(data) != len(out) {
		return fmt.Errorf("expected %d bytes, got %d in %q", len(out), len(data), s)
	}
	copy(out, data)
	return nil
}

func parseAddress(s string) (evmcore.Address, error) {
	var addr evmcore.Address
	if s == "" {
		return addr, nil
	}
	err := parseFixedBytes(s, addr[:])
	return addr, err
}

func parseHash(s string) (evmcore.Hash, error) {
	var h evmcore.Hash
	if s == "" {
		return h, nil
	}
	err := parseFixedBytes(s, h[:])
	return h, err
}

func parseKey(s string) (evmcore.Key, error) {
	var k evmcore.Key
	err := parseFixedBytes(s, k[:])
	return k, err
}

func parseWord(s string) (evmcore.Word, error) {
	var w evmcore.Word
	if s == "" {
		return w, nil
	}
	err := parseFixedBytes(s, w[:])
	return w, err
}

func parseValue(s string) (evmcore.Value, error) {
	var v evmcore.Value
	if s == "" {
		return v, nil
	}
	if err := v.UnmarshalText([]byte(s)); err != nil {
		return v, err
	}
	return v, nil
}

func parseRevision(name string) (evmcore.Revision, error) {
	var r evmcore.Revision
	if err := json.Unmarshal([]byte(`"`+name+`"`), &r); err != nil {
		return 0, fmt.Errorf("unknown revision %q: %w", name, err)
	}
	return r, nil
}

// loadState populates a fresh state.Journal from a stateFixture.
func loadState(fixture stateFixture) (*state.Journal, error) {
	j := state.NewJournal(nil)
	for _, account := range fixture.Accounts {
		addr, err := parseAddress(account.Address)
		if err != nil {
			return nil, fmt.Errorf("account %s: %w", account.Address, err)
		}
		balance, err := parseValue(account.Balance)
		if err != nil {
			return nil, fmt.Errorf("account %s: balance: %w", account.Address, err)
		}
		code, err := parseHexBytes(account.Code)
		if err != nil {
			return nil, fmt.Errorf("account %s: code: %w", account.Address, err)
		}

		j.SetBalance(addr, balance)
		j.SetNonce(addr, account.Nonce)
		if len(code) > 0 {
			j.SetCode(addr, evmcore.Code(code))
		}
		for keyHex, valueHex := range account.Storage {
			key, err := parseKey(keyHex)
			if err != nil {
				return nil, fmt.Errorf("account %s: storage key %s: %w", account.Address, keyHex, err)
			}
			value, err := parseWord(valueHex)
			if err != nil {
				return nil, fmt.Errorf("account %s: storage value %s: %w", account.Address, valueHex, err)
			}
			j.SetStorage(addr, key, value)
		}
	}
	j.StartTransaction()
	return j, nil
}

func loadTransaction(fixture transactionFixture) (evmcore.Transaction, error) {
	var tx evmcore.Transaction
	var err error

	if tx.Sender, err = parseAddress(fixture.Sender); err != nil {
		return tx, fmt.Errorf("sender: %w", err)
	}
	if fixture.Recipient != "" {
		recipient, err := parseAddress(fixture.Recipient)
		if err != nil {
			return tx, fmt.Errorf("recipient: %w", err)
		}
		tx.Recipient = &recipient
	}
	tx.Nonce = fixture.Nonce
	if tx.Input, err = parseHexBytes(fixture.Input); err != nil {
		return tx, fmt.Errorf("input: %w", err)
	}
	if tx.Value, err = parseValue(fixture.Value); err != nil {
		return tx, fmt.Errorf("value: %w", err)
	}
	tx.GasLimit = evmcore.Gas(fixture.GasLimit)
	if tx.GasPrice, err = parseValue(fixture.GasPrice); err != nil {
		return tx, fmt.Errorf("gasPrice: %w", err)
	}
	if tx.GasFeeCap, err = parseValue(fixture.GasFeeCap); err != nil {
		return tx, fmt.Errorf("gasFeeCap: %w", err)
	}
	if tx.GasTipCap, err = parseValue(fixture.GasTipCap); err != nil {
		return tx, fmt.Errorf("gasTipCap: %w", err)
	}
	for _, tuple := range fixture.AccessList {
		addr, err := parseAddress(tuple.Address)
		if err != nil {
			return tx, fmt.Errorf("accessList: %w", err)
		}
		keys := make([]evmcore.Key, len(tuple.Keys))
		for i, keyHex := range tuple.Keys {
			if keys[i], err = parseKey(keyHex); err != nil {
				return tx, fmt.Errorf("accessList: %w", err)
			}
		}
		tx.AccessList = append(tx.AccessList, evmcore.AccessTuple{Address: addr, Keys: keys})
	}
	return tx, nil
}

func loadBlockParameters(fixture blockParametersFixture, revision evmcore.Revision) (evmcore.BlockParameters, error) {
	var bp evmcore.BlockParameters
	var err error
	bp.BlockNumber = fixture.BlockNumber
	bp.Timestamp = fixture.Timestamp
	bp.GasLimit = evmcore.Gas(fixture.GasLimit)
	bp.Revision = revision
	if bp.Coinbase, err = parseAddress(fixture.Coinbase); err != nil {
		return bp, fmt.Errorf("coinbase: %w", err)
	}
	if bp.BaseFee, err = parseValue(fixture.BaseFee); err != nil {
		return bp, fmt.Errorf("baseFee: %w", err)
	}
	return bp, nil
}

func loadHeader(fixture headerFixture) (chain.Header, error) {
	var h chain.Header
	var err error
	if h.ParentHash, err = parseHash(fixture.ParentHash); err != nil {
		return h, fmt.Errorf("parentHash: %w", err)
	}
	if h.Coinbase, err = parseAddress(fixture.Coinbase); err != nil {
		return h, fmt.Errorf("coinbase: %w", err)
	}
	h.BlockNumber = fixture.BlockNumber
	h.GasLimit = evmcore.Gas(fixture.GasLimit)
	h.Timestamp = fixture.Timestamp
	if h.BaseFee, err = parseValue(fixture.BaseFee); err != nil {
		return h, fmt.Errorf("baseFee: %w", err)
	}
	if h.ExtraData, err = parseHexBytes(fixture.ExtraData); err != nil {
		return h, fmt.Errorf("extraData: %w", err)
	}
	return h, nil
}

func loadBlock(fixture blockFixture) (chain.Block, error) {
	var block chain.Block
	header, err := loadHeader(fixture.Header)
	if err != nil {
		return block, fmt.Errorf("header: %w", err)
	}
	block.Header = header

	for i, txFixture := range fixture.Transactions {
		tx, err := loadTransaction(txFixture)
		if err != nil {
			return block, fmt.Errorf("transaction %d: %w", i, err)
		}
		block.Transactions = append(block.Transactions, tx)
	}

	for i, w := range fixture.Withdrawals {
		recipient, err := parseAddress(w.Recipient)
		if err != nil {
			return block, fmt.Errorf("withdrawal %d: %w", i, err)
		}
		block.Withdrawals = append(block.Withdrawals, chain.Withdrawal{
			Index:          w.Index,
			ValidatorIndex: w.ValidatorIndex,
			Recipient:      recipient,
			AmountGwei:     w.AmountGwei,
		})
	}
	return block, nil
}
