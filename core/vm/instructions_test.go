package vm

import (
	"math/big"
	"testing"

	"github.com/ethevm/ethevm/core/types"
)

func newTestEVM(db StateDB) *EVM {
	return NewEVMWithState(
		BlockContext{BlockNumber: big.NewInt(1), Difficulty: big.NewInt(0)},
		TxContext{GasPrice: big.NewInt(0)},
		Config{},
		db,
	)
}

func runCode(t *testing.T, code []byte, gas uint64) ([]byte, *Contract, error) {
	t.Helper()
	db := NewMemoryStateDB()
	evm := newTestEVM(db)
	addr := testAddr(0x11)
	contract := NewContract(types.Address{}, addr, big.NewInt(0), gas)
	contract.SetCallCode(&addr, types.Hash{}, code)
	ret, err := evm.Run(contract, nil)
	return ret, contract, err
}

func TestRunAdd(t *testing.T) {
	// PUSH1 2, PUSH1 3, ADD, PUSH1 0, MSTORE, PUSH1 32, PUSH1 0, RETURN
	code := []byte{
		0x60, 0x02,
		0x60, 0x03,
		0x01,
		0x60, 0x00,
		0x52,
		0x60, 0x20,
		0x60, 0x00,
		0xf3,
	}
	ret, _, err := runCode(t, code, 100000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := make([]byte, 32)
	want[31] = 5
	if len(ret) != 32 || ret[31] != 5 {
		t.Errorf("ADD result = %x, want %x", ret, want)
	}
}

func TestRunDivByZero(t *testing.T) {
	// PUSH1 0, PUSH1 5, DIV -> result must be 0, not a crash.
	code := []byte{
		0x60, 0x00,
		0x60, 0x05,
		0x04,
		0x60, 0x00,
		0x52,
		0x60, 0x20,
		0x60, 0x00,
		0xf3,
	}
	ret, _, err := runCode(t, code, 100000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, b := range ret {
		if b != 0 {
			t.Fatalf("DIV by zero: byte %d = %x, want all zero", i, b)
		}
	}
}

func TestRunKeccak256Empty(t *testing.T) {
	// PUSH1 0, PUSH1 0, KECCAK256 (empty input).
	code := []byte{
		0x60, 0x00,
		0x60, 0x00,
		0x20,
		0x60, 0x00,
		0x52,
		0x60, 0x20,
		0x60, 0x00,
		0xf3,
	}
	ret, _, err := runCode(t, code, 100000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// keccak256("") = c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470
	want := types.HexToHash("c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470")
	if types.BytesToHash(ret) != want {
		t.Errorf("KECCAK256(\"\") = %x, want %x", ret, want.Bytes())
	}
}

func TestRunInvalidJump(t *testing.T) {
	// PUSH1 5, JUMP, JUMPDEST, STOP -> destination 5 is past the end of the code.
	code := []byte{
		0x60, 0x05,
		0x56,
		0x5b,
		0x00,
	}
	_, _, err := runCode(t, code, 100000)
	if err != ErrInvalidJump {
		t.Fatalf("expected ErrInvalidJump, got %v", err)
	}
}

func TestRunOutOfGas(t *testing.T) {
	code := []byte{0x60, 0x01, 0x60, 0x01, 0x01} // PUSH1 1, PUSH1 1, ADD
	_, _, err := runCode(t, code, 1)
	if err != ErrOutOfGas {
		t.Fatalf("expected ErrOutOfGas, got %v", err)
	}
}

func TestSelfdestructRefundOnlyOnce(t *testing.T) {
	db := NewMemoryStateDB()
	evm := newTestEVM(db)
	addr := testAddr(0x22)
	beneficiary := testAddr(0x33)
	db.CreateAccount(addr)
	db.AddBalance(addr, big.NewInt(100))

	contract := NewContract(types.Address{}, addr, big.NewInt(0), 100000)
	stack := NewStack()
	stack.Push(new(big.Int).SetBytes(beneficiary[:]))
	if _, err := opSelfdestruct(new(uint64), evm, contract, NewMemory(), stack); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := db.GetRefund(); got != SelfdestructRefundGas {
		t.Fatalf("refund after first SELFDESTRUCT = %d, want %d", got, SelfdestructRefundGas)
	}

	// A second SELFDESTRUCT on the same (already-destroyed) account grants
	// no further refund.
	stack2 := NewStack()
	stack2.Push(new(big.Int).SetBytes(beneficiary[:]))
	if _, err := opSelfdestruct(new(uint64), evm, contract, NewMemory(), stack2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := db.GetRefund(); got != SelfdestructRefundGas {
		t.Fatalf("refund after second SELFDESTRUCT = %d, want unchanged %d", got, SelfdestructRefundGas)
	}
}
