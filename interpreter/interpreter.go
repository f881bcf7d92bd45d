// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package interpreter executes raw EVM byte-code one program-counter byte at
// a time: fetch the opcode, check its static stack/gas requirements against
// vm.JumpTable, dispatch to a handler, repeat until the frame halts.
package interpreter

import (
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/go-evmcore/evmcore"
	"github.com/go-evmcore/evmcore/params"
	"github.com/go-evmcore/evmcore/vm"
)

func init() {
	if err := evmcore.RegisterInterpreterFactory("interpreter", newInterpreter); err != nil {
		panic(err)
	}
}

// Interpreter is the byte-code execution engine registered under the name
// "interpreter". It is safe for concurrent use: the only shared state is the
// jump-destination cache, which is itself concurrency-safe.
type Interpreter struct {
	dests *jumpdestCache
}

func newInterpreter(_ any) (evmcore.Interpreter, error) {
	return &Interpreter{dests: newJumpdestCache()}, nil
}

func (in *Interpreter) Run(p evmcore.Parameters) (evmcore.Result, error) {
	if p.Revision > evmcore.R12_Shanghai {
		return evmcore.Result{}, &evmcore.ErrUnsupportedRevision{Revision: p.Revision}
	}

	f := &frame{
		params: p,
		rules:  params.RulesFor(p.Revision),
		stack:  newStack(),
		memory: &memory{},
		code:   p.Code,
		dests:  in.dests.get(p.CodeHash, p.Code),
		gas:    p.Gas,
	}
	defer f.stack.release()

	f.run()

	result := evmcore.Result{GasLeft: f.gas, GasRefund: f.refund}
	switch f.halt {
	case haltReturn:
		result.Success = true
		result.Output = f.output
	case haltStop, haltSelfDestruct:
		result.Success = true
	case haltRevert:
		result.Output = f.output
	}

	if result.Success && (p.Kind == evmcore.Create || p.Kind == evmcore.Create2) {
		result = f.finalizeCreate(result)
	}

	return result, nil
}

// haltKind records why a frame stopped executing.
type haltKind int

const (
	haltNone haltKind = iota
	haltStop
	haltReturn
	haltRevert
	haltFail
	haltSelfDestruct
)

// frame holds the mutable execution state of a single call's byte-code run.
type frame struct {
	params evmcore.Parameters
	rules  params.Rules
	stack  *stack
	memory *memory
	code   evmcore.Code
	dests  bitmap

	pc         int
	gas        evmcore.Gas
	refund     evmcore.Gas
	output     evmcore.Data
	returnData evmcore.Data
	halt       haltKind
}

func (f *frame) fail(_ error) {
	f.halt = haltFail
}

func (f *frame) useGas(cost evmcore.Gas) bool {
	if cost < 0 || f.gas < cost {
		return false
	}
	f.gas -= cost
	return true
}

func (f *frame) accessAccount(addr evmcore.Address) bool {
	return f.params.Context.AccessAccount(addr) == evmcore.WarmAccess
}

func (f *frame) accessStorage(addr evmcore.Address, key evmcore.Key) bool {
	return f.params.Context.AccessStorage(addr, key) == evmcore.WarmAccess
}

// minRevisionFor reports the earliest revision in which op is meaningful.
// Opcodes introduced after Shanghai (transient storage, MCOPY, blob
// opcodes) are pinned beyond any supported revision: vm.IsValid recognizes
// their names regardless of revision, but this engine never executes them.
func minRevisionFor(op vm.OpCode) evmcore.Revision {
	switch op {
	case vm.DELEGATECALL:
		return evmcore.R01_Homestead
	case vm.REVERT, vm.STATICCALL, vm.RETURNDATASIZE, vm.RETURNDATACOPY:
		return evmcore.R04_Byzantium
	case vm.SHL, vm.SHR, vm.SAR, vm.CREATE2, vm.EXTCODEHASH:
		return evmcore.R05_Constantinople
	case vm.SELFBALANCE, vm.CHAINID:
		return evmcore.R07_Istanbul
	case vm.BASEFEE:
		return evmcore.R10_London
	case vm.PUSH0:
		return evmcore.R12_Shanghai
	case vm.TLOAD, vm.TSTORE, vm.MCOPY, vm.BLOBHASH, vm.BLOBBASEFEE:
		return evmcore.Revision(1 << 30)
	}
	return evmcore.R00_Frontier
}

func (f *frame) run() {
	for f.halt == haltNone {
		if f.pc >= len(f.code) {
			f.halt = haltStop
			return
		}

		op := vm.OpCode(f.code[f.pc])
		if !vm.IsValid(op) || f.rules.Revision < minRevisionFor(op) {
			f.fail(evmcore.ErrInvalidOpcode)
			return
		}

		info := f.rules.Opcodes[op]
		if f.stack.len() < info.StackNeeded {
			f.fail(evmcore.ErrStackUnderflow)
			return
		}
		if f.stack.len()+info.StackChanged > maxStackSize {
			f.fail(evmcore.ErrStackOverflow)
			return
		}
		if !f.useGas(info.Gas) {
			f.fail(evmcore.ErrOutOfGas)
			return
		}

		f.pc++
		f.dispatch(op)
	}
}

func (f *frame) dispatch(op vm.OpCode) {
	switch {
	case op == vm.PUSH0:
		f.stack.push(&uint256.Int{})
		return
	case op >= vm.PUSH1 && op <= vm.PUSH32:
		f.execPush(op)
		return
	case op >= vm.DUP1 && op <= vm.DUP16:
		f.stack.dup(int(op - vm.DUP1))
		return
	case op >= vm.SWAP1 && op <= vm.SWAP16:
		f.stack.swap(int(op-vm.SWAP1) + 1)
		return
	case op >= vm.LOG0 && op <= vm.LOG4:
		f.execLog(int(op - vm.LOG0))
		return
	}

	s := f.stack
	ctx := f.params.Context
	rev := f.rules.Revision

	switch op {
	case vm.STOP:
		f.halt = haltStop

	case vm.ADD:
		a, b := s.pop(), s.peek()
		b.Add(a, b)
	case vm.MUL:
		a, b := s.pop(), s.peek()
		b.Mul(a, b)
	case vm.SUB:
		a, b := s.pop(), s.peek()
		b.Sub(a, b)
	case vm.DIV:
		a, b := s.pop(), s.peek()
		b.Div(a, b)
	case vm.SDIV:
		a, b := s.pop(), s.peek()
		b.SDiv(a, b)
	case vm.MOD:
		a, b := s.pop(), s.peek()
		b.Mod(a, b)
	case vm.SMOD:
		a, b := s.pop(), s.peek()
		b.SMod(a, b)
	case vm.ADDMOD:
		a, b, c := s.pop(), s.pop(), s.peek()
		c.AddMod(a, b, c)
	case vm.MULMOD:
		a, b, c := s.pop(), s.pop(), s.peek()
		c.MulMod(a, b, c)
	case vm.EXP:
		base, exponent := s.pop(), s.peek()
		expBytes := (exponent.BitLen() + 7) / 8
		if !f.useGas(evmcore.Gas(expBytes) * expByteCost(rev)) {
			f.fail(evmcore.ErrOutOfGas)
			return
		}
		exponent.Exp(base, exponent)
	case vm.SIGNEXTEND:
		back, num := s.pop(), s.peek()
		num.ExtendSign(num, back)

	case vm.LT:
		a, b := s.pop(), s.peek()
		*b = boolToU256(a.Lt(b))
	case vm.GT:
		a, b := s.pop(), s.peek()
		*b = boolToU256(a.Gt(b))
	case vm.SLT:
		a, b := s.pop(), s.peek()
		*b = boolToU256(a.Slt(b))
	case vm.SGT:
		a, b := s.pop(), s.peek()
		*b = boolToU256(a.Sgt(b))
	case vm.EQ:
		a, b := s.pop(), s.peek()
		*b = boolToU256(a.Eq(b))
	case vm.ISZERO:
		a := s.peek()
		*a = boolToU256(a.IsZero())
	case vm.AND:
		a, b := s.pop(), s.peek()
		b.And(a, b)
	case vm.OR:
		a, b := s.pop(), s.peek()
		b.Or(a, b)
	case vm.XOR:
		a, b := s.pop(), s.peek()
		b.Xor(a, b)
	case vm.NOT:
		a := s.peek()
		a.Not(a)
	case vm.BYTE:
		index, val := s.pop(), s.peek()
		val.Byte(index)
	case vm.SHL:
		shift, value := s.pop(), s.peek()
		if shift.LtUint64(256) {
			value.Lsh(value, uint(shift.Uint64()))
		} else {
			value.Clear()
		}
	case vm.SHR:
		shift, value := s.pop(), s.peek()
		if shift.LtUint64(256) {
			value.Rsh(value, uint(shift.Uint64()))
		} else {
			value.Clear()
		}
	case vm.SAR:
		shift, value := s.pop(), s.peek()
		if shift.GtUint64(256) {
			if value.Sign() >= 0 {
				value.Clear()
			} else {
				value.SetAllOne()
			}
		} else {
			value.SRsh(value, uint(shift.Uint64()))
		}

	case vm.SHA3:
		offset, size := s.pop(), s.peek()
		off, sz := offset.Uint64(), size.Uint64()
		gasLeft, ok := f.memory.expand(off, sz, f.gas)
		if !ok {
			f.fail(evmcore.ErrOutOfGas)
			return
		}
		f.gas = gasLeft
		if !f.useGas(evmcore.Gas(sizeInWords(sz)) * gasSha3Word) {
			f.fail(evmcore.ErrOutOfGas)
			return
		}
		size.SetBytes(crypto.Keccak256(f.memory.getSlice(off, sz)))

	case vm.ADDRESS:
		s.push(addressToU256(f.params.Recipient))
	case vm.BALANCE:
		a := s.peek()
		addr := u256ToAddress(a)
		warm := f.accessAccount(addr)
		if !f.useGas(coldAccountSurcharge(rev, warm)) {
			f.fail(evmcore.ErrOutOfGas)
			return
		}
		*a = *valueToU256(ctx.GetBalance(addr))
	case vm.ORIGIN:
		s.push(addressToU256(f.params.Origin))
	case vm.CALLER:
		s.push(addressToU256(f.params.Sender))
	case vm.CALLVALUE:
		s.push(valueToU256(f.params.Value))
	case vm.CALLDATALOAD:
		a := s.peek()
		buf := make([]byte, 32)
		if a.IsUint64() {
			copyOut(buf, f.params.Input, a.Uint64())
		}
		a.SetBytes32(buf)
	case vm.CALLDATASIZE:
		s.push(uint256.NewInt(uint64(len(f.params.Input))))
	case vm.CALLDATACOPY:
		f.memCopy(f.params.Input)
	case vm.CODESIZE:
		s.push(uint256.NewInt(uint64(len(f.code))))
	case vm.CODECOPY:
		f.memCopy(f.code)
	case vm.GASPRICE:
		s.push(valueToU256(f.params.GasPrice))
	case vm.EXTCODESIZE:
		a := s.peek()
		addr := u256ToAddress(a)
		warm := f.accessAccount(addr)
		if !f.useGas(coldAccountSurcharge(rev, warm)) {
			f.fail(evmcore.ErrOutOfGas)
			return
		}
		*a = *uint256.NewInt(uint64(ctx.GetCodeSize(addr)))
	case vm.EXTCODECOPY:
		addr := u256ToAddress(s.pop())
		warm := f.accessAccount(addr)
		if !f.useGas(coldAccountSurcharge(rev, warm)) {
			f.fail(evmcore.ErrOutOfGas)
			return
		}
		f.memCopy(ctx.GetCode(addr))
	case vm.RETURNDATASIZE:
		s.push(uint256.NewInt(uint64(len(f.returnData))))
	case vm.RETURNDATACOPY:
		f.execReturnDataCopy()
	case vm.EXTCODEHASH:
		a := s.peek()
		addr := u256ToAddress(a)
		warm := f.accessAccount(addr)
		if !f.useGas(coldAccountSurcharge(rev, warm)) {
			f.fail(evmcore.ErrOutOfGas)
			return
		}
		if !ctx.AccountExists(addr) {
			a.Clear()
		} else {
			*a = *hashToU256(ctx.GetCodeHash(addr))
		}

	case vm.BLOCKHASH:
		n := s.peek()
		if !n.IsUint64() {
			n.Clear()
		} else {
			*n = *hashToU256(ctx.GetBlockHash(int64(n.Uint64())))
		}
	case vm.COINBASE:
		s.push(addressToU256(f.params.Coinbase))
	case vm.TIMESTAMP:
		s.push(uint256.NewInt(uint64(f.params.Timestamp)))
	case vm.NUMBER:
		s.push(uint256.NewInt(uint64(f.params.BlockNumber)))
	case vm.PREVRANDAO:
		s.push(hashToU256(f.params.PrevRandao))
	case vm.GASLIMIT:
		s.push(uint256.NewInt(uint64(f.params.GasLimit)))
	case vm.CHAINID:
		s.push(wordToU256(f.params.ChainID))
	case vm.SELFBALANCE:
		s.push(valueToU256(ctx.GetBalance(f.params.Recipient)))
	case vm.BASEFEE:
		s.push(valueToU256(f.params.BaseFee))

	case vm.POP:
		s.pop()
	case vm.MLOAD:
		a := s.peek()
		off := a.Uint64()
		gasLeft, ok := f.memory.expand(off, 32, f.gas)
		if !ok {
			f.fail(evmcore.ErrOutOfGas)
			return
		}
		f.gas = gasLeft
		f.memory.getWord(off, a)
	case vm.MSTORE:
		offset, value := s.pop(), s.pop()
		off := offset.Uint64()
		gasLeft, ok := f.memory.expand(off, 32, f.gas)
		if !ok {
			f.fail(evmcore.ErrOutOfGas)
			return
		}
		f.gas = gasLeft
		f.memory.setWord(off, value)
	case vm.MSTORE8:
		offset, value := s.pop(), s.pop()
		off := offset.Uint64()
		gasLeft, ok := f.memory.expand(off, 1, f.gas)
		if !ok {
			f.fail(evmcore.ErrOutOfGas)
			return
		}
		f.gas = gasLeft
		f.memory.set(off, 1, []byte{byte(value.Uint64())})
	case vm.SLOAD:
		a := s.peek()
		key := u256ToKey(a)
		warm := f.accessStorage(f.params.Recipient, key)
		if !f.useGas(coldSloadSurcharge(rev, warm)) {
			f.fail(evmcore.ErrOutOfGas)
			return
		}
		*a = *wordToU256(ctx.GetStorage(f.params.Recipient, key))
	case vm.SSTORE:
		f.execSstore()
	case vm.JUMP:
		dest := s.pop()
		f.jump(dest)
	case vm.JUMPI:
		dest, cond := s.pop(), s.pop()
		if !cond.IsZero() {
			f.jump(dest)
		}
	case vm.PC:
		s.push(uint256.NewInt(uint64(f.pc - 1)))
	case vm.MSIZE:
		s.push(uint256.NewInt(f.memory.length()))
	case vm.GAS:
		s.push(uint256.NewInt(uint64(f.gas)))
	case vm.JUMPDEST:
		// no-op; validity already established by the jump-destination scan.

	case vm.CREATE, vm.CREATE2:
		f.execCreate(op)
	case vm.CALL, vm.CALLCODE, vm.DELEGATECALL, vm.STATICCALL:
		f.execCall(op)
	case vm.RETURN:
		f.execHalt(haltReturn)
	case vm.REVERT:
		f.execHalt(haltRevert)
	case vm.SELFDESTRUCT:
		f.execSelfdestruct()

	default:
		f.fail(evmcore.ErrInvalidOpcode)
	}
}

func (f *frame) execPush(op vm.OpCode) {
	n := int(op-vm.PUSH1) + 1
	var buf [32]byte
	start := f.pc
	end := start + n
	if end > len(f.code) {
		end = len(f.code)
	}
	copy(buf[32-n:], f.code[start:end])
	f.stack.push(new(uint256.Int).SetBytes32(buf[:]))
	f.pc += n
}

// memCopy implements the shared shape of CALLDATACOPY/CODECOPY/EXTCODECOPY:
// pop destOffset, offset, size; charge memory expansion plus a per-word copy
// fee; zero-pad any read past the end of source.
func (f *frame) memCopy(source []byte) {
	destOffset, offset, size := f.stack.pop(), f.stack.pop(), f.stack.pop()
	do, off, sz := destOffset.Uint64(), offset.Uint64(), size.Uint64()

	gasLeft, ok := f.memory.expand(do, sz, f.gas)
	if !ok {
		f.fail(evmcore.ErrOutOfGas)
		return
	}
	f.gas = gasLeft
	if !f.useGas(evmcore.Gas(sizeInWords(sz)) * gasCopyWord) {
		f.fail(evmcore.ErrOutOfGas)
		return
	}

	buf := make([]byte, sz)
	copyOut(buf, source, off)
	f.memory.set(do, sz, buf)
}

// execReturnDataCopy enforces that the requested range actually lies within
// the last sub-call's output; unlike CALLDATACOPY/CODECOPY this is not
// zero-padded, it is an exceptional halt (EIP-211).
func (f *frame) execReturnDataCopy() {
	destOffset, offset, size := f.stack.pop(), f.stack.pop(), f.stack.pop()
	do, off, sz := destOffset.Uint64(), offset.Uint64(), size.Uint64()

	end := off + sz
	if end < off || end > uint64(len(f.returnData)) {
		f.fail(evmcore.ErrReturnDataOutOfBounds)
		return
	}

	gasLeft, ok := f.memory.expand(do, sz, f.gas)
	if !ok {
		f.fail(evmcore.ErrOutOfGas)
		return
	}
	f.gas = gasLeft
	if !f.useGas(evmcore.Gas(sizeInWords(sz)) * gasCopyWord) {
		f.fail(evmcore.ErrOutOfGas)
		return
	}
	f.memory.set(do, sz, f.returnData[off:end])
}

func (f *frame) jump(dest *uint256.Int) {
	if !dest.IsUint64() {
		f.fail(evmcore.ErrInvalidJumpDestination)
		return
	}
	target := dest.Uint64()
	if target >= uint64(len(f.code)) || !f.dests.isSet(int(target)) {
		f.fail(evmcore.ErrInvalidJumpDestination)
		return
	}
	f.pc = int(target)
}

func (f *frame) execSstore() {
	if f.params.Static {
		f.fail(evmcore.ErrWriteProtection)
		return
	}
	keyWord, valWord := f.stack.pop(), f.stack.pop()
	rev := f.rules.Revision

	if rev >= evmcore.R07_Istanbul && f.gas <= gasSstoreSentryEIP2200 {
		f.fail(evmcore.ErrOutOfGas)
		return
	}

	addr := f.params.Recipient
	key := u256ToKey(keyWord)
	newWord := u256ToWord(valWord)
	ctx := f.params.Context

	if rev < evmcore.R07_Istanbul {
		current := ctx.GetStorage(addr, key)
		cost, refund := legacySstoreCost(current, newWord)
		if !f.useGas(cost) {
			f.fail(evmcore.ErrOutOfGas)
			return
		}
		f.refund += refund
		ctx.SetStorage(addr, key, newWord)
		return
	}

	var warm bool
	if rev >= evmcore.R09_Berlin {
		warm = f.accessStorage(addr, key)
	}
	// The write happens before its cost is known, since cost depends on the
	// façade's classification of the resulting StorageStatus; an
	// insufficient-gas failure here unwinds through the call frame's
	// snapshot restore, so the premature write is never observed.
	status := ctx.SetStorage(addr, key, newWord)
	cost, refundDelta := sstoreCost(rev, status, warm)
	if !f.useGas(cost) {
		f.fail(evmcore.ErrOutOfGas)
		return
	}
	f.refund += refundDelta
}

func (f *frame) execLog(topicCount int) {
	if f.params.Static {
		f.fail(evmcore.ErrWriteProtection)
		return
	}
	offset, size := f.stack.pop(), f.stack.pop()
	topics := make([]evmcore.Hash, topicCount)
	for i := 0; i < topicCount; i++ {
		topics[i] = u256ToHash(f.stack.pop())
	}

	off, sz := offset.Uint64(), size.Uint64()
	gasLeft, ok := f.memory.expand(off, sz, f.gas)
	if !ok {
		f.fail(evmcore.ErrOutOfGas)
		return
	}
	f.gas = gasLeft
	if !f.useGas(evmcore.Gas(sz) * gasLogData) {
		f.fail(evmcore.ErrOutOfGas)
		return
	}

	data := make([]byte, sz)
	copy(data, f.memory.getSlice(off, sz))
	f.params.Context.EmitLog(evmcore.Log{
		Address: f.params.Recipient,
		Topics:  topics,
		Data:    data,
	})
}

func (f *frame) execSelfdestruct() {
	if f.params.Static {
		f.fail(evmcore.ErrWriteProtection)
		return
	}
	beneficiary := u256ToAddress(f.stack.pop())
	rev := f.rules.Revision
	ctx := f.params.Context
	self := f.params.Recipient

	var extra evmcore.Gas
	if rev >= evmcore.R09_Berlin && !f.accessAccount(beneficiary) {
		extra += gasColdAccountAccessEIP2929
	}
	if rev >= evmcore.R02_TangerineWhistle {
		balance := ctx.GetBalance(self)
		if !ctx.AccountExists(beneficiary) && balance != (evmcore.Value{}) {
			extra += gasCreateBySelfdestruct
		}
	}
	if !f.useGas(extra) {
		f.fail(evmcore.ErrOutOfGas)
		return
	}

	first := ctx.SelfDestruct(self, beneficiary)
	if rev < evmcore.R10_London && first {
		f.refund += gasSelfdestructRefund
	}
	f.halt = haltSelfDestruct
}

func (f *frame) execHalt(kind haltKind) {
	offset, size := f.stack.pop(), f.stack.pop()
	off, sz := offset.Uint64(), size.Uint64()
	gasLeft, ok := f.memory.expand(off, sz, f.gas)
	if !ok {
		f.fail(evmcore.ErrOutOfGas)
		return
	}
	f.gas = gasLeft
	out := make([]byte, sz)
	copy(out, f.memory.getSlice(off, sz))
	f.output = out
	f.halt = kind
}

func (f *frame) execCreate(op vm.OpCode) {
	if f.params.Static {
		f.fail(evmcore.ErrWriteProtection)
		return
	}
	value, offset, size := f.stack.pop(), f.stack.pop(), f.stack.pop()
	var salt *uint256.Int
	if op == vm.CREATE2 {
		salt = f.stack.pop()
	}
	off, sz := offset.Uint64(), size.Uint64()

	// EIP-3860's init-code size cap applies Shanghai onward only; before
	// that, init code is bounded only by the enclosing transaction's gas
	// limit (same gating style as finalizeCreate's EIP-170 MaxCodeSize
	// check below).
	if f.rules.Revision >= evmcore.R12_Shanghai && sz > uint64(f.rules.MaxInitCodeSize) {
		f.fail(evmcore.ErrMaxInitCodeSizeExceeded)
		return
	}

	gasLeft, ok := f.memory.expand(off, sz, f.gas)
	if !ok {
		f.fail(evmcore.ErrOutOfGas)
		return
	}
	f.gas = gasLeft

	if op == vm.CREATE2 {
		if !f.useGas(evmcore.Gas(sizeInWords(sz)) * gasSha3Word) {
			f.fail(evmcore.ErrOutOfGas)
			return
		}
	}

	initCode := make([]byte, sz)
	copy(initCode, f.memory.getSlice(off, sz))

	kind := evmcore.Create
	var saltHash evmcore.Hash
	if op == vm.CREATE2 {
		kind = evmcore.Create2
		saltHash = u256ToHash(salt)
	}

	forwarded := callGas(f.rules.Revision, f.gas, 0, f.gas, false)
	if !f.useGas(forwarded) {
		f.fail(evmcore.ErrOutOfGas)
		return
	}

	result, err := f.params.Context.Call(kind, evmcore.CallParameters{
		Sender: f.params.Recipient,
		Value:  u256ToValue(value),
		Input:  initCode,
		Gas:    forwarded,
		Salt:   saltHash,
	})

	settled, success := f.settleSubCall(result, err, forwarded)
	if success {
		f.stack.push(addressToU256(settled.CreatedAddress))
	} else {
		f.stack.push(&uint256.Int{})
	}
}

func (f *frame) execCall(op vm.OpCode) {
	s := f.stack
	ctx := f.params.Context
	rev := f.rules.Revision

	gasArg := s.pop()
	addr := u256ToAddress(s.pop())

	var value uint256.Int
	if op == vm.CALL || op == vm.CALLCODE {
		value = *s.pop()
	}

	argsOffset, argsSize := s.pop(), s.pop()
	retOffset, retSize := s.pop(), s.pop()

	if op == vm.CALL && f.params.Static && !value.IsZero() {
		f.fail(evmcore.ErrWriteProtection)
		return
	}

	warm := f.accessAccount(addr)
	base := coldAccountSurcharge(rev, warm)
	transfersValue := !value.IsZero() && (op == vm.CALL || op == vm.CALLCODE)
	if transfersValue {
		base += gasCallValueTransfer
		if op == vm.CALL && !ctx.AccountExists(addr) {
			base += gasCallNewAccount
		}
	}
	if !f.useGas(base) {
		f.fail(evmcore.ErrOutOfGas)
		return
	}

	ao, as := argsOffset.Uint64(), argsSize.Uint64()
	ro, rs := retOffset.Uint64(), retSize.Uint64()

	gasLeft, ok := f.memory.expand(ao, as, f.gas)
	if !ok {
		f.fail(evmcore.ErrOutOfGas)
		return
	}
	f.gas = gasLeft
	gasLeft, ok = f.memory.expand(ro, rs, f.gas)
	if !ok {
		f.fail(evmcore.ErrOutOfGas)
		return
	}
	f.gas = gasLeft

	input := make([]byte, as)
	copy(input, f.memory.getSlice(ao, as))

	var requestedGas evmcore.Gas
	requestedIsExplicit := gasArg.IsUint64()
	if requestedIsExplicit {
		requestedGas = evmcore.Gas(gasArg.Uint64())
	}
	// callGasTemp is the EIP-150 capped amount actually charged to the
	// caller. The value-transfer stipend is gas the protocol grants the
	// callee on top of that, never debited from the caller: any portion of
	// it the callee does not spend flows back via settleSubCall's
	// f.gas += result.GasLeft, same as callGasTemp's own leftover.
	callGasTemp := callGas(rev, f.gas, 0, requestedGas, requestedIsExplicit)
	if !f.useGas(callGasTemp) {
		f.fail(evmcore.ErrOutOfGas)
		return
	}
	forwarded := callGasTemp
	if transfersValue {
		forwarded += gasCallStipend
	}

	kind := evmcore.Call
	sender := f.params.Recipient
	recipient := addr
	callValue := u256ToValue(&value)
	switch op {
	case vm.CALLCODE:
		kind = evmcore.CallCode
		recipient = f.params.Recipient
	case vm.DELEGATECALL:
		kind = evmcore.DelegateCall
		sender = f.params.Sender
		recipient = f.params.Recipient
		callValue = f.params.Value
	case vm.STATICCALL:
		kind = evmcore.StaticCall
		callValue = evmcore.Value{}
	}

	result, err := ctx.Call(kind, evmcore.CallParameters{
		Sender:      sender,
		Recipient:   recipient,
		Value:       callValue,
		Input:       input,
		Gas:         forwarded,
		CodeAddress: addr,
	})

	// On ErrDepthLimit the call never started, so only the amount actually
	// debited from the caller (callGasTemp, not the stipend it never paid)
	// is handed back.
	settled, success := f.settleSubCall(result, err, callGasTemp)

	copySize := rs
	if uint64(len(settled.Output)) < copySize {
		copySize = uint64(len(settled.Output))
	}
	if copySize > 0 {
		f.memory.set(ro, copySize, settled.Output[:copySize])
	}

	s.push(&uint256.Int{})
	*s.peek() = boolToU256(success)
}

// settleSubCall applies the gas/refund/return-data bookkeeping common to
// every sub-call (CALL family and CREATE family). A non-nil err means the
// call never started: ErrDepthLimit refunds the forwarded gas untouched,
// any other error (contract creation collision) consumes it, matching how
// processor.runContext.Call reports each case.
func (f *frame) settleSubCall(result evmcore.CallResult, err error, forwarded evmcore.Gas) (evmcore.CallResult, bool) {
	if err != nil {
		if err == evmcore.ErrDepthLimit {
			f.gas += forwarded
		}
		return evmcore.CallResult{}, false
	}
	f.gas += result.GasLeft
	f.refund += result.GasRefund
	f.returnData = result.Output
	return result, result.Success
}

// finalizeCreate applies CREATE/CREATE2's post-execution checks to the
// returned init-code output: EIP-3541's 0xEF prefix ban, EIP-170's size
// cap, and the per-byte code-deposit fee.
func (f *frame) finalizeCreate(result evmcore.Result) evmcore.Result {
	code := []byte(result.Output)

	if f.rules.Revision >= evmcore.R10_London && len(code) > 0 && code[0] == 0xEF {
		return evmcore.Result{Success: false}
	}
	if f.rules.Revision >= evmcore.R03_SpuriousDragon && len(code) > f.rules.MaxCodeSize {
		return evmcore.Result{Success: false}
	}

	cost := evmcore.Gas(len(code)) * codeDepositGasPerByte
	if cost > result.GasLeft {
		if f.rules.Revision < evmcore.R01_Homestead {
			// Frontier deploys empty code instead of failing the create.
			result.Output = nil
			return result
		}
		return evmcore.Result{Success: false}
	}
	result.GasLeft -= cost
	return result
}
