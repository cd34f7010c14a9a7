package vm

import (
	"math"
	"math/big"

	"github.com/ethevm/ethevm/core/types"
)

// Gas constants for the call/create/sstore pricing this interpreter
// implements. There is no cold/warm access-list distinction here: every
// account and storage slot touch costs the same regardless of whether it
// was touched earlier in the same call.
const (
	CallStipend  uint64 = 2300 // free gas stipend forwarded with a non-zero CALL value
	MaxCallDepth int    = 1024

	MemoryGasCostPerWord uint64 = 3

	// MaxRefundQuotient caps the total gas refund at gasUsed/2 (pre-EIP-3529).
	MaxRefundQuotient uint64 = 2

	SelfdestructGas         uint64 = 5000
	SelfdestructRefundGas   uint64 = 24000 // refund for a first-time SELFDESTRUCT in a transaction
	CreateBySelfdestructGas uint64 = 25000 // sending balance to a not-yet-existing account
	CreateDataGas           uint64 = 200   // per byte of deployed contract code
	MaxCodeSize             int    = 24576 // EIP-170: max contract code size

	CallGasFraction      uint64 = 64   // 63/64 rule (EIP-150)
	CallValueTransferGas uint64 = 9000 // paid for a non-zero value transfer
	CallNewAccountGas    uint64 = 25000
)

// MemoryGasCost calculates the gas cost for memory of the given byte size.
// cost(w) = 3*w + w^2/512, where w is the size in 32-byte words.
// Returns math.MaxUint64 on overflow to signal out-of-gas.
func MemoryGasCost(memSize uint64) uint64 {
	if memSize == 0 {
		return 0
	}
	words := toWordSize(memSize)
	if words > 181_000 {
		// At 181,000 words (5.8 MB) the cost already exceeds any realistic
		// block gas limit; treat it as unpayable rather than overflow.
		return math.MaxUint64
	}
	linear := words * MemoryGasCostPerWord
	quadratic := words * words / 512
	return linear + quadratic
}

// MemoryExpansionGas returns the gas cost of growing memory from oldSize to newSize.
func MemoryExpansionGas(oldSize, newSize uint64) uint64 {
	if newSize <= oldSize {
		return 0
	}
	return MemoryGasCost(newSize) - MemoryGasCost(oldSize)
}

// toWordSize rounds size up to the next 32-byte word count.
func toWordSize(size uint64) uint64 {
	if size == 0 {
		return 0
	}
	if size > math.MaxUint64-31 {
		return math.MaxUint64/32 + 1
	}
	return (size + 31) / 32
}

// wordAlign rounds size up to the next 32-byte boundary, saturating at
// math.MaxUint64 instead of wrapping when size is already the overflow
// sentinel produced by toMemOffset/addMemSize.
func wordAlign(size uint64) uint64 {
	words := toWordSize(size)
	if words > math.MaxUint64/32 {
		return math.MaxUint64
	}
	return words * 32
}

// toMemOffset reads a stack operand meant to be used as a memory offset or
// length. Values that don't fit in 63 bits can never be paid for (memory
// expansion gas would exceed any real gas limit long before reaching such an
// offset), so they collapse to the math.MaxUint64 sentinel instead of being
// silently truncated by *big.Int.Uint64, which would let a crafted
// 2^64-ish offset wrap around to something small or zero.
func toMemOffset(v *big.Int) uint64 {
	if v.BitLen() > 63 {
		return math.MaxUint64
	}
	return v.Uint64()
}

// addMemSize adds two memory-size operands, saturating at math.MaxUint64 on
// overflow instead of wrapping.
func addMemSize(a, b uint64) uint64 {
	if a == math.MaxUint64 || b == math.MaxUint64 || a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}

// CallGas computes the gas available to forward to a CALL-family opcode
// under the 63/64 rule (EIP-150): the caller always keeps 1/64 of its
// remaining gas.
func CallGas(availableGas, requestedGas uint64) uint64 {
	maxGas := availableGas - availableGas/CallGasFraction
	if requestedGas > maxGas {
		return maxGas
	}
	return requestedGas
}

// SstoreGas computes the gas cost and refund for an SSTORE operation under
// the simple two-tier rule: only the slot's current and new values matter,
// there is no dirty-slot/original-value tracking.
//
//	current == 0, new == 0: GasSstoreReset, no refund
//	current != 0, new == 0: GasSstoreReset, refund GasSstoreRefund
//	current == 0, new != 0: GasSstoreSet, no refund
//	current != 0, new != 0: GasSstoreReset, no refund
func SstoreGas(current, newVal [32]byte) (gas uint64, refund uint64) {
	switch {
	case isZero(current) && !isZero(newVal):
		return GasSstoreSet, 0
	case !isZero(current) && isZero(newVal):
		return GasSstoreReset, GasSstoreRefund
	default:
		return GasSstoreReset, 0
	}
}

// LogGas computes the gas cost for a LOG operation:
// GasLog + numTopics*GasLogTopic + dataSize*GasLogData.
func LogGas(numTopics uint64, dataSize uint64) uint64 {
	gas := safeAdd(GasLog, safeMul(numTopics, GasLogTopic))
	return safeAdd(gas, safeMul(dataSize, GasLogData))
}

// Sha3Gas computes the gas cost for a KECCAK256 operation:
// GasKeccak256 + ceil(dataSize/32)*GasKeccak256Word.
func Sha3Gas(dataSize uint64) uint64 {
	words := toWordSize(dataSize)
	return safeAdd(GasKeccak256, safeMul(words, GasKeccak256Word))
}

// ExpGas computes the gas cost for EXP: GasHigh plus GasExpByte for every
// significant byte of the exponent. A zero exponent pays only the base cost.
func ExpGas(exponent *big.Int) uint64 {
	if exponent.Sign() == 0 {
		return GasHigh
	}
	byteLen := uint64((exponent.BitLen() + 7) / 8)
	return safeAdd(GasHigh, safeMul(GasExpByte, byteLen))
}

// CopyGas computes the gas cost for a copy operation: GasCopy * ceil(size/32).
func CopyGas(size uint64) uint64 {
	return safeMul(GasCopy, toWordSize(size))
}

// isZero returns true if all bytes of val are zero.
func isZero(val [32]byte) bool {
	for _, b := range val {
		if b != 0 {
			return false
		}
	}
	return true
}

// safeAdd returns a+b, capping at math.MaxUint64 on overflow.
func safeAdd(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}

// safeMul returns a*b, capping at math.MaxUint64 on overflow.
func safeMul(a, b uint64) uint64 {
	if a == 0 || b == 0 {
		return 0
	}
	if a > math.MaxUint64/b {
		return math.MaxUint64
	}
	return a * b
}

// --- Dynamic gas functions wired into the jump table ---

// gasSha3 charges GasKeccak256Word per word plus memory expansion.
func gasSha3(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) uint64 {
	size := stack.Back(1).Uint64()
	gas := safeMul(toWordSize(size), GasKeccak256Word)
	return safeAdd(gas, gasMemExpansion(evm, contract, stack, mem, memorySize))
}

// gasExp charges GasExpByte per significant byte of the exponent at stack
// position 1. The base GasHigh cost is charged as constant gas.
func gasExp(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) uint64 {
	exp := stack.Back(1)
	if exp.Sign() == 0 {
		return 0
	}
	byteLen := uint64((exp.BitLen() + 7) / 8)
	return safeMul(GasExpByte, byteLen)
}

// gasCopy charges GasCopy per word for CALLDATACOPY/CODECOPY, whose length
// operand sits at stack position 2, plus memory expansion.
func gasCopy(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) uint64 {
	size := stack.Back(2).Uint64()
	gas := safeMul(GasCopy, toWordSize(size))
	return safeAdd(gas, gasMemExpansion(evm, contract, stack, mem, memorySize))
}

// gasExtCodeCopy charges GasCopy per word for EXTCODECOPY, whose length
// operand sits at stack position 3, plus memory expansion.
func gasExtCodeCopy(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) uint64 {
	size := stack.Back(3).Uint64()
	gas := safeMul(GasCopy, toWordSize(size))
	return safeAdd(gas, gasMemExpansion(evm, contract, stack, mem, memorySize))
}

// makeGasLog returns the dynamic gas function for LOGn: GasLogTopic per
// topic, GasLogData per data byte, plus memory expansion. The constant
// GasLog cost is charged separately.
func makeGasLog(n uint64) dynamicGasFunc {
	return func(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) uint64 {
		dataSize := stack.Back(1).Uint64()
		gas := safeMul(n, GasLogTopic)
		gas = safeAdd(gas, safeMul(dataSize, GasLogData))
		return safeAdd(gas, gasMemExpansion(evm, contract, stack, mem, memorySize))
	}
}

// gasCreateDynamic charges memory expansion for CREATE's init code region.
// Stack: value, offset, length.
func gasCreateDynamic(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) uint64 {
	return gasMemExpansion(evm, contract, stack, mem, memorySize)
}

// gasSstoreDynamic charges the simple two-tier SSTORE rule described by
// SstoreGas. The constant gas for SSTORE is 0; all of its cost is dynamic.
func gasSstoreDynamic(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) uint64 {
	if evm.StateDB == nil {
		return GasSstoreReset
	}
	key := bigToHash(stack.Back(0))
	current := evm.StateDB.GetState(contract.Address, key)
	newVal := bigToHash(stack.Back(1))

	var currentBytes, newBytes [32]byte
	copy(currentBytes[:], current[:])
	copy(newBytes[:], newVal[:])

	gas, refund := SstoreGas(currentBytes, newBytes)
	if refund > 0 {
		evm.StateDB.AddRefund(refund)
	}
	return gas
}

// gasSelfdestruct charges CreateBySelfdestructGas when the beneficiary
// account does not yet exist and the contract being destroyed has balance
// to transfer.
func gasSelfdestruct(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) uint64 {
	addr := types.BytesToAddress(stack.Back(0).Bytes())
	if evm.StateDB != nil && !evm.StateDB.Exist(addr) && evm.StateDB.GetBalance(contract.Address).Sign() != 0 {
		return CreateBySelfdestructGas
	}
	return 0
}

// gasCall charges memory expansion plus value-transfer and new-account
// surcharges for CALL.
// Stack: gas, addr, value, argsOffset, argsLength, retOffset, retLength
func gasCall(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) uint64 {
	var gas uint64
	if stack.Back(2).Sign() != 0 {
		gas = safeAdd(gas, CallValueTransferGas)
		addr := types.BytesToAddress(stack.Back(1).Bytes())
		if evm.StateDB != nil && (!evm.StateDB.Exist(addr) || evm.StateDB.Empty(addr)) {
			gas = safeAdd(gas, CallNewAccountGas)
		}
	}
	return safeAdd(gas, gasMemExpansion(evm, contract, stack, mem, memorySize))
}

// gasCallCode charges memory expansion plus value-transfer gas for
// CALLCODE. CALLCODE never charges new-account gas since it executes in
// the caller's own storage context.
// Stack: gas, addr, value, argsOffset, argsLength, retOffset, retLength
func gasCallCode(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) uint64 {
	var gas uint64
	if stack.Back(2).Sign() != 0 {
		gas = safeAdd(gas, CallValueTransferGas)
	}
	return safeAdd(gas, gasMemExpansion(evm, contract, stack, mem, memorySize))
}

// gasDelegateCall charges memory expansion for DELEGATECALL.
// Stack: gas, addr, argsOffset, argsLength, retOffset, retLength
func gasDelegateCall(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) uint64 {
	return gasMemExpansion(evm, contract, stack, mem, memorySize)
}
