package vm

import "errors"

var (
	ErrOutOfGas             = errors.New("out of gas")
	ErrStackOverflow        = errors.New("stack overflow")
	ErrStackUnderflow       = errors.New("stack underflow")
	ErrInvalidJump          = errors.New("invalid jump destination")
	ErrWriteProtection      = errors.New("write protection")
	ErrMaxCallDepthExceeded = errors.New("max call depth exceeded")
	ErrInvalidOpCode        = errors.New("invalid opcode")
)
