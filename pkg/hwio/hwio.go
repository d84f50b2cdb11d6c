package hwio

import (
	"sync/atomic"
	"unsafe"
)

// Reg32 is one 32-bit memory-mapped register word. Generated peripheral
// structs are laid out so that each Reg32 sits at its register's address
// offset; the struct as a whole is placed over the peripheral's base
// address.
type Reg32 struct {
	v atomic.Uint32
}

// Load reads the register.
func (r *Reg32) Load() uint32 {
	return r.v.Load()
}

// Store writes the register.
func (r *Reg32) Store(v uint32) {
	r.v.Store(v)
}

// AtAddr returns the register word mapped at addr. The caller must
// ensure addr is the live mapping of a 32-bit device register.
func AtAddr(addr uintptr) *Reg32 {
	return (*Reg32)(unsafe.Pointer(addr))
}

// Word32 is the seam between commit arithmetic and the hardware word it
// targets. *Reg32 implements it; tests substitute counting fakes.
type Word32 interface {
	Load() uint32
	Store(uint32)
}

// MergeValue computes the value a transaction commit writes. In merge
// mode, bits outside the accumulated mask keep their current hardware
// value; in overwrite mode the accumulated value is written as-is and
// current is ignored. Bits in clear are forced to zero in both modes.
func MergeValue(value, mask, current, clear uint32, overwrite bool) uint32 {
	if !overwrite {
		value |= current &^ mask
	}
	return value &^ clear
}

// Commit performs the terminal hardware access of a transaction: at
// most one Load (merge mode only) and exactly one Store, always. It
// returns the value written. An empty transaction (mask zero) still
// commits: merge mode rewrites the current value, overwrite mode writes
// zero, both minus the clear bits.
func Commit(w Word32, value, mask, clear uint32, overwrite bool) uint32 {
	var current uint32
	if !overwrite {
		current = w.Load()
	}
	final := MergeValue(value, mask, current, clear, overwrite)
	w.Store(final)
	return final
}
