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
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/go-evmcore/evmcore"
	"go.uber.org/mock/gomock"
)

func TestCalls_InterpreterResultIsHandledCorrectly(t *testing.T) {
	tests := map[string]struct {
		setup   func(interpreter *evmcore.MockInterpreter)
		success bool
		output  []byte
	}{
		"successful": {
			setup: func(interpreter *evmcore.MockInterpreter) {
				interpreter.EXPECT().Run(gomock.Any()).Return(evmcore.Result{Success: true}, nil)
			},
			success: true,
		},
		"failed": {
			setup: func(interpreter *evmcore.MockInterpreter) {
				interpreter.EXPECT().Run(gomock.Any()).Return(evmcore.Result{Success: false}, nil)
			},
			success: false,
		},
		"output": {
			setup: func(interpreter *evmcore.MockInterpreter) {
				interpreter.EXPECT().Run(gomock.Any()).Return(evmcore.Result{Success: true, Output: []byte("some output")}, nil)
			},
			success: true,
			output:  []byte("some output"),
		},
	}

	params := evmcore.CallParameters{
		Sender:    evmcore.Address{1},
		Recipient: evmcore.Address{2},
		Value:     evmcore.NewValue(0),
		Gas:       1000,
		Input:     []byte{},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			context := evmcore.NewMockTransactionContext(ctrl)
			interpreter := evmcore.NewMockInterpreter(ctrl)
			runContext := runContext{
				context,
				interpreter,
				evmcore.BlockParameters{},
				evmcore.TransactionParameters{},
				0,
				false,
			}

			context.EXPECT().AccessAccount(gomock.Any()).Return(evmcore.ColdAccess).AnyTimes()
			context.EXPECT().GetCodeHash(params.Recipient).Return(evmcore.Hash{})
			context.EXPECT().GetCode(params.Recipient).Return([]byte{})
			context.EXPECT().CreateSnapshot()
			context.EXPECT().RestoreSnapshot(gomock.Any()).AnyTimes()

			test.setup(interpreter)

			result, err := runContext.Call(evmcore.Call, params)
			if err != nil {
				t.Errorf("Call returned an unexpected error: %v", err)
			}
			if result.Success != test.success {
				t.Errorf("Unexpected success value from interpreter call")
			}
			if string(result.Output) != string(test.output) {
				t.Errorf("Unexpected output value from interpreter call")
			}
		})
	}
}

func TestCall_TransferValueInCall(t *testing.T) {
	ctrl := gomock.NewController(t)
	context := evmcore.NewMockTransactionContext(ctrl)
	interpreter := evmcore.NewMockInterpreter(ctrl)
	runContext := runContext{
		context,
		interpreter,
		evmcore.BlockParameters{},
		evmcore.TransactionParameters{},
		0,
		false,
	}

	params := evmcore.CallParameters{
		Sender:    evmcore.Address{1},
		Recipient: evmcore.Address{2},
		Value:     evmcore.NewValue(10),
		Gas:       1000,
		Input:     []byte{},
	}

	context.EXPECT().AccessAccount(gomock.Any()).Return(evmcore.ColdAccess).AnyTimes()
	context.EXPECT().GetCodeHash(params.Recipient).Return(evmcore.Hash{})
	context.EXPECT().GetCode(params.Recipient).Return([]byte{})
	context.EXPECT().CreateSnapshot()

	context.EXPECT().GetBalance(params.Sender).Return(evmcore.NewValue(100))
	context.EXPECT().GetBalance(params.Recipient).Return(evmcore.NewValue(0))
	context.EXPECT().SetBalance(params.Sender, evmcore.NewValue(90))
	context.EXPECT().SetBalance(params.Recipient, evmcore.NewValue(10))

	interpreter.EXPECT().Run(gomock.Any()).Return(evmcore.Result{Success: true}, nil)

	_, err := runContext.Call(evmcore.Call, params)
	if err != nil {
		t.Errorf("transferValue returned an error: %v", err)
	}
}

func TestCall_TransferValueInCreate(t *testing.T) {
	ctrl := gomock.NewController(t)
	context := evmcore.NewMockTransactionContext(ctrl)
	interpreter := evmcore.NewMockInterpreter(ctrl)
	runContext := runContext{
		context,
		interpreter,
		evmcore.BlockParameters{},
		evmcore.TransactionParameters{},
		0,
		false,
	}

	params := evmcore.CallParameters{
		Sender: evmcore.Address{1},
		Value:  evmcore.NewValue(10),
		Gas:    1000,
		Input:  []byte{},
	}
	code := evmcore.Code{}
	createdAddress := evmcore.Address(crypto.CreateAddress(common.Address(params.Sender), 0))

	context.EXPECT().AccessAccount(gomock.Any()).Return(evmcore.ColdAccess).AnyTimes()
	context.EXPECT().AccountExists(createdAddress).Return(false)
	context.EXPECT().GetNonce(params.Sender).Return(uint64(0))
	context.EXPECT().SetNonce(params.Sender, uint64(1))
	context.EXPECT().GetNonce(createdAddress).Return(uint64(0))
	context.EXPECT().GetCodeHash(createdAddress).Return(evmcore.Hash{})
	context.EXPECT().CreateSnapshot()
	context.EXPECT().SetNonce(createdAddress, uint64(1))
	context.EXPECT().GetBalance(params.Sender).Return(evmcore.NewValue(100))
	context.EXPECT().GetBalance(createdAddress).Return(evmcore.NewValue(0))
	context.EXPECT().SetBalance(params.Sender, evmcore.NewValue(90))
	context.EXPECT().SetBalance(createdAddress, evmcore.NewValue(10))
	context.EXPECT().SetCode(createdAddress, code)

	interpreter.EXPECT().Run(gomock.Any()).Return(evmcore.Result{Success: true, Output: evmcore.Data(code)}, nil)

	result, err := runContext.Call(evmcore.Create, params)
	if err != nil {
		t.Errorf("transferValue returned an error: %v", err)
	}
	if !result.Success {
		t.Errorf("transferValue was not successful")
	}
}

func TestTransferValue_InCallRestoreFailed(t *testing.T) {
	ctrl := gomock.NewController(t)
	context := evmcore.NewMockTransactionContext(ctrl)
	interpreter := evmcore.NewMockInterpreter(ctrl)
	runContext := runContext{
		context,
		interpreter,
		evmcore.BlockParameters{},
		evmcore.TransactionParameters{},
		0,
		false,
	}

	params := evmcore.CallParameters{
		Sender:    evmcore.Address{1},
		Recipient: evmcore.Address{2},
		Value:     evmcore.NewValue(10),
		Gas:       1000,
		Input:     []byte{},
	}
	context.EXPECT().AccessAccount(gomock.Any()).Return(evmcore.ColdAccess).AnyTimes()
	context.EXPECT().GetCodeHash(params.Recipient).Return(evmcore.Hash{})
	context.EXPECT().GetCode(params.Recipient).Return([]byte{})
	context.EXPECT().CreateSnapshot()
	context.EXPECT().GetBalance(params.Sender).Return(evmcore.NewValue(0))
	context.EXPECT().RestoreSnapshot(gomock.Any())

	result, err := runContext.Call(evmcore.Call, params)
	if err != nil {
		t.Errorf("Correct execution of the transaction should not return an error")
	}

	if result.Success {
		t.Errorf("The transaction should have failed")
	}
}

func TestTransferValue_SuccessfulValueTransfer(t *testing.T) {
	values := map[string]evmcore.Value{
		"zeroValue":     evmcore.NewValue(0),
		"smallValue":    evmcore.NewValue(10),
		"senderBalance": evmcore.NewValue(100),
	}

	senderBalance := evmcore.NewValue(100)
	recipientBalance := evmcore.NewValue(0)

	for name, value := range values {
		t.Run(name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			context := evmcore.NewMockTransactionContext(ctrl)

			sender := evmcore.Address{1}
			recipient := evmcore.Address{2}

			if value != (evmcore.Value{}) {
				context.EXPECT().GetBalance(sender).Return(senderBalance)
				context.EXPECT().GetBalance(recipient).Return(recipientBalance)
				context.EXPECT().SetBalance(sender, gomock.Any())
				context.EXPECT().SetBalance(recipient, gomock.Any())
			}

			if err := transferValue(context, value, sender, recipient); err != nil {
				t.Errorf("value transfer should have succeeded: %v", err)
			}
		})
	}
}

func TestTransferValue_FailedValueTransfer(t *testing.T) {
	ctrl := gomock.NewController(t)
	context := evmcore.NewMockTransactionContext(ctrl)

	context.EXPECT().GetBalance(evmcore.Address{1}).Return(evmcore.NewValue(50))

	if err := transferValue(context, evmcore.NewValue(100), evmcore.Address{1}, evmcore.Address{2}); err == nil {
		t.Errorf("value transfer should have returned an error")
	}
}

func TestCreateAddress(t *testing.T) {
	tests := map[string]struct {
		kind     evmcore.CallKind
		sender   evmcore.Address
		nonce    uint64
		salt     evmcore.Hash
		initHash evmcore.Hash
	}{
		"create": {
			kind:     evmcore.Create,
			sender:   evmcore.Address{1},
			nonce:    42,
			salt:     evmcore.Hash{},
			initHash: evmcore.Hash{},
		},
		"create2": {
			kind:     evmcore.Create2,
			sender:   evmcore.Address{1},
			nonce:    0,
			salt:     evmcore.Hash{16, 32, 64},
			initHash: evmcore.Hash{0x01, 0x02, 0x03, 0x04, 0x05},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			var want evmcore.Address
			if test.kind == evmcore.Create {
				want = evmcore.Address(crypto.CreateAddress(common.Address(test.sender), test.nonce))
			} else {
				want = evmcore.Address(crypto.CreateAddress2(common.Address(test.sender), common.Hash(test.salt), test.initHash[:]))
			}
			result := createAddress(test.kind, test.sender, test.nonce, test.salt, test.initHash)
			if result != want {
				t.Errorf("Unexpected address, got: %v, want: %v", result, want)
			}
		})
	}
}
