package vm

import (
	"math/big"
	"testing"

	"github.com/ethevm/ethevm/core/types"
)

func testAddr(b byte) types.Address {
	var a types.Address
	a[19] = b
	return a
}

func testHash(b byte) types.Hash {
	var h types.Hash
	h[31] = b
	return h
}

func TestMemoryStateDB_Balance(t *testing.T) {
	db := NewMemoryStateDB()
	addr := testAddr(1)

	if bal := db.GetBalance(addr); bal.Sign() != 0 {
		t.Fatalf("expected zero balance for non-existent account, got %s", bal)
	}

	db.AddBalance(addr, big.NewInt(100))
	if bal := db.GetBalance(addr); bal.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("expected balance 100, got %s", bal)
	}

	db.SubBalance(addr, big.NewInt(30))
	if bal := db.GetBalance(addr); bal.Cmp(big.NewInt(70)) != 0 {
		t.Fatalf("expected balance 70, got %s", bal)
	}
}

func TestMemoryStateDB_BalanceReturnsCopy(t *testing.T) {
	db := NewMemoryStateDB()
	addr := testAddr(1)
	db.AddBalance(addr, big.NewInt(100))

	bal := db.GetBalance(addr)
	bal.SetInt64(999)
	if db.GetBalance(addr).Cmp(big.NewInt(100)) != 0 {
		t.Fatal("GetBalance returned a reference instead of a copy")
	}
}

func TestMemoryStateDB_Nonce(t *testing.T) {
	db := NewMemoryStateDB()
	addr := testAddr(2)

	if n := db.GetNonce(addr); n != 0 {
		t.Fatalf("expected nonce 0 for non-existent account, got %d", n)
	}
	db.SetNonce(addr, 5)
	if n := db.GetNonce(addr); n != 5 {
		t.Fatalf("expected nonce 5, got %d", n)
	}
}

func TestMemoryStateDB_Code(t *testing.T) {
	db := NewMemoryStateDB()
	addr := testAddr(3)

	if code := db.GetCode(addr); code != nil {
		t.Fatal("expected nil code for non-existent account")
	}

	code := []byte{0x60, 0x00, 0x60, 0x00, 0xf3}
	db.SetCode(addr, code)

	got := db.GetCode(addr)
	if len(got) != len(code) {
		t.Fatalf("expected code length %d, got %d", len(code), len(got))
	}
	if db.GetCodeSize(addr) != len(code) {
		t.Fatalf("expected code size %d, got %d", len(code), db.GetCodeSize(addr))
	}
	if hash := db.GetCodeHash(addr); hash == (types.Hash{}) {
		t.Fatal("expected non-zero code hash after setting code")
	}
}

func TestMemoryStateDB_Storage(t *testing.T) {
	db := NewMemoryStateDB()
	addr := testAddr(4)
	key := testHash(1)
	val := testHash(2)

	if got := db.GetState(addr, key); got != (types.Hash{}) {
		t.Fatal("expected zero value for unset storage slot")
	}
	db.SetState(addr, key, val)
	if got := db.GetState(addr, key); got != val {
		t.Fatalf("expected %v, got %v", val, got)
	}
}

func TestMemoryStateDB_SnapshotRevert(t *testing.T) {
	db := NewMemoryStateDB()
	addr := testAddr(5)
	db.AddBalance(addr, big.NewInt(100))

	snap := db.Snapshot()
	db.AddBalance(addr, big.NewInt(50))
	db.SetNonce(addr, 7)
	if bal := db.GetBalance(addr); bal.Cmp(big.NewInt(150)) != 0 {
		t.Fatalf("expected balance 150 before revert, got %s", bal)
	}

	db.RevertToSnapshot(snap)
	if bal := db.GetBalance(addr); bal.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("expected balance 100 after revert, got %s", bal)
	}
	if n := db.GetNonce(addr); n != 0 {
		t.Fatalf("expected nonce reverted to 0, got %d", n)
	}
}

func TestMemoryStateDB_Suicide(t *testing.T) {
	db := NewMemoryStateDB()
	addr := testAddr(6)
	db.CreateAccount(addr)

	if db.HasSuicided(addr) {
		t.Fatal("account should not be marked destroyed yet")
	}
	db.Suicide(addr)
	if !db.HasSuicided(addr) {
		t.Fatal("expected account to be marked destroyed")
	}
}

func TestMemoryStateDB_Refund(t *testing.T) {
	db := NewMemoryStateDB()
	db.AddRefund(100)
	db.AddRefund(50)
	if got := db.GetRefund(); got != 150 {
		t.Fatalf("expected refund 150, got %d", got)
	}
	db.SubRefund(30)
	if got := db.GetRefund(); got != 120 {
		t.Fatalf("expected refund 120, got %d", got)
	}
}

func TestMemoryStateDB_Empty(t *testing.T) {
	db := NewMemoryStateDB()
	addr := testAddr(7)

	if !db.Empty(addr) {
		t.Fatal("non-existent account should be empty")
	}
	db.CreateAccount(addr)
	if !db.Empty(addr) {
		t.Fatal("freshly created account with no balance/nonce/code should be empty")
	}
	db.AddBalance(addr, big.NewInt(1))
	if db.Empty(addr) {
		t.Fatal("account with balance should not be empty")
	}
}
