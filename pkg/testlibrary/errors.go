package testlibrary

import (
	"errors"
	"fmt"
)

// ErrOverflow indicates an integer result outside the range of int.
var ErrOverflow = errors.New("testlibrary: integer overflow")

// OverflowError carries the operands of an overflowing addition.
type OverflowError struct {
	A, B int
	Bits int
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("testlibrary: %d + %d overflows int%d", e.A, e.B, e.Bits)
}

// Is lets errors.Is match ErrOverflow.
func (e *OverflowError) Is(target error) bool {
	return target == ErrOverflow
}
