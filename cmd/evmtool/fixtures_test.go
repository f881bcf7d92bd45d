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
	"testing"

	"github.com/go-evmcore/evmcore"
)

func TestParseAddress(t *testing.T) {
	addr, err := parseAddress("0x0102030405060708091011121314151617181920")
	if err != nil {
		t.Fatalf("parseAddress returned an error: %v", err)
	}
	want := evmcore.Address{1, 2, 3, 4, 5, 6, 7, 8, 9, 0x10, 0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17, 0x18, 0x19, 0x20}
	if addr != want {
		t.Errorf("parseAddress = %v, want %v", addr, want)
	}
}

func TestParseAddress_Empty(t *testing.T) {
	addr, err := parseAddress("")
	if err != nil {
		t.Fatalf("parseAddress(\"\") returned an error: %v", err)
	}
	if addr != (evmcore.Address{}) {
		t.Errorf("parseAddress(\"\") = %v, want zero address", addr)
	}
}

func TestParseAddress_WrongLength(t *testing.T) {
	if _, err := parseAddress("0x0102"); err == nil {
		t.Error("expected a too-short address to be rejected")
	}
}

func TestParseHexBytes(t *testing.T) {
	data, err := parseHexBytes("0xdeadbeef")
	if err != nil {
		t.Fatalf("parseHexBytes returned an error: %v", err)
	}
	want := []byte{0xde, 0xad, 0xbe, 0xef}
	if len(data) != len(want) {
		t.Fatalf("parseHexBytes length = %d, want %d", len(data), len(want))
	}
	for i := range want {
		if data[i] != want[i] {
			t.Errorf("byte %d = %x, want %x", i, data[i], want[i])
		}
	}
}

func TestParseRevision(t *testing.T) {
	r, err := parseRevision("Berlin")
	if err != nil {
		t.Fatalf("parseRevision returned an error: %v", err)
	}
	if r != evmcore.R09_Berlin {
		t.Errorf("parseRevision(\"Berlin\") = %v, want %v", r, evmcore.R09_Berlin)
	}
}

func TestParseRevision_Unknown(t *testing.T) {
	if _, err := parseRevision("NotAFork"); err == nil {
		t.Error("expected an unknown revision name to be rejected")
	}
}

func TestLoadState_PopulatesAccountsAndStorage(t *testing.T) {
	fixture := stateFixture{
		Accounts: []accountFixture{
			{
				Address: "0x0000000000000000000000000000000000000001",
				Balance: "0x0000000000000000000000000000000000000000000000000000000000000064",
				Nonce:   3,
				Code:    "0x6001",
				Storage: map[string]string{
					"0x0000000000000000000000000000000000000000000000000000000000000001": "0x0000000000000000000000000000000000000000000000000000000000000002",
				},
			},
		},
	}

	j, err := loadState(fixture)
	if err != nil {
		t.Fatalf("loadState returned an error: %v", err)
	}
	addr := evmcore.Address{1}
	if got, want := j.GetBalance(addr), evmcore.NewValue(0x64); got.Cmp(want) != 0 {
		t.Errorf("balance = %v, want %v", got, want)
	}
	if got := j.GetNonce(addr); got != 3 {
		t.Errorf("nonce = %d, want 3", got)
	}
	if got := j.GetCodeSize(addr); got != 2 {
		t.Errorf("code size = %d, want 2", got)
	}
	if got, want := j.GetStorage(addr, evmcore.Key{1}), (evmcore.Word{2}); got != want {
		t.Errorf("storage[1] = %v, want %v", got, want)
	}
}

func TestLoadTransaction_BuildsRecipientAndAccessList(t *testing.T) {
	fixture := transactionFixture{
		Sender:    "0x0000000000000000000000000000000000000001",
		Recipient: "0x0000000000000000000000000000000000000002",
		Nonce:     7,
		GasLimit:  21000,
		GasPrice:  "0x0000000000000000000000000000000000000000000000000000000000000001",
		AccessList: []accessTupleFixture{
			{Address: "0x0000000000000000000000000000000000000003", Keys: []string{
				"0x0000000000000000000000000000000000000000000000000000000000000009",
			}},
		},
	}

	tx, err := loadTransaction(fixture)
	if err != nil {
		t.Fatalf("loadTransaction returned an error: %v", err)
	}
	if tx.Sender != (evmcore.Address{1}) {
		t.Errorf("sender = %v, want {1}", tx.Sender)
	}
	if tx.Recipient == nil || *tx.Recipient != (evmcore.Address{2}) {
		t.Errorf("recipient = %v, want &{2}", tx.Recipient)
	}
	if tx.Nonce != 7 {
		t.Errorf("nonce = %d, want 7", tx.Nonce)
	}
	if len(tx.AccessList) != 1 || tx.AccessList[0].Address != (evmcore.Address{3}) {
		t.Fatalf("unexpected access list: %+v", tx.AccessList)
	}
	if len(tx.AccessList[0].Keys) != 1 || tx.AccessList[0].Keys[0] != (evmcore.Key{9}) {
		t.Errorf("unexpected access list keys: %+v", tx.AccessList[0].Keys)
	}
}

func TestLoadTransaction_NoRecipientMeansCreation(t *testing.T) {
	tx, err := loadTransaction(transactionFixture{Sender: "0x0000000000000000000000000000000000000001"})
	if err != nil {
		t.Fatalf("loadTransaction returned an error: %v", err)
	}
	if tx.Recipient != nil {
		t.Errorf("expected a nil recipient for a contract-creation fixture, got %v", tx.Recipient)
	}
}

func TestLoadBlock_BuildsTransactionsAndWithdrawals(t *testing.T) {
	fixture := blockFixture{
		Header: headerFixture{BlockNumber: 10, GasLimit: 30_000_000, Timestamp: 123},
		Transactions: []transactionFixture{
			{Sender: "0x0000000000000000000000000000000000000001", GasLimit: 21000},
		},
		Withdrawals: []withdrawalFixture{
			{Index: 1, ValidatorIndex: 2, Recipient: "0x0000000000000000000000000000000000000003", AmountGwei: 5},
		},
	}

	block, err := loadBlock(fixture)
	if err != nil {
		t.Fatalf("loadBlock returned an error: %v", err)
	}
	if block.Header.BlockNumber != 10 {
		t.Errorf("header.BlockNumber = %d, want 10", block.Header.BlockNumber)
	}
	if len(block.Transactions) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(block.Transactions))
	}
	if len(block.Withdrawals) != 1 || block.Withdrawals[0].AmountGwei != 5 {
		t.Fatalf("unexpected withdrawals: %+v", block.Withdrawals)
	}
}
