package vm

import (
	"fmt"
	"math"
	"strconv"
	"unsafe"
)

// Value is a NaN-boxed 64-bit word holding one of four variants: Nil, Bool,
// Number (an IEEE-754 double), or Obj (a pointer to an interned string).
//
// The technique packs the tag into the otherwise-unused bit patterns of a
// quiet NaN: any bit pattern that is NOT one of our reserved quiet-NaN
// patterns IS simply a double, read straight off the bits. Only the
// reserved quiet-NaN space holds Nil/True/False/Obj. This is the same
// technique the teacher's vm/value.go used for a 48-bit integer payload;
// here the payload is a real float64, which is what makes Number(NaN) !=
// Number(NaN) fall out of ordinary float equality with no special case.
type Value uint64

const (
	signBit uint64 = 0x8000000000000000
	// qnan reserves bit 50 in addition to the canonical quiet-NaN bit 51, so
	// it never collides with a NaN the FPU itself produces (e.g. Inf - Inf).
	qnan uint64 = 0x7ffc000000000000

	tagNil   uint64 = 1
	tagFalse uint64 = 2
	tagTrue  uint64 = 3
)

var (
	nilValue   = Value(qnan | tagNil)
	trueValue  = Value(qnan | tagTrue)
	falseValue = Value(qnan | tagFalse)
)

// Number creates a Value wrapping an IEEE-754 double.
func Number(n float64) Value {
	return Value(math.Float64bits(n))
}

// Bool creates a Value wrapping a boolean.
func Bool(b bool) Value {
	if b {
		return trueValue
	}
	return falseValue
}

// Nil is the sole nil Value.
func Nil() Value { return nilValue }

// Obj creates a Value wrapping a pointer to an interned string. The
// pointer stays alive for as long as the owning Chunk's intern table
// holds it; Values themselves carry only the bits, not a GC-visible
// reference, exactly as the teacher's NaN-boxed vm/value.go documents.
func Obj(s *string) Value {
	ptr := uint64(uintptr(unsafe.Pointer(s)))
	return Value(signBit | qnan | ptr)
}

// IsNumber reports whether v holds a double (i.e. its bits are not one of
// our reserved quiet-NaN tag patterns).
func (v Value) IsNumber() bool {
	return (uint64(v) & qnan) != qnan
}

func (v Value) IsNil() bool  { return Value(v) == nilValue }
func (v Value) IsBool() bool { return v == trueValue || v == falseValue }
func (v Value) IsObj() bool  { return uint64(v)&(qnan|signBit) == (qnan | signBit) }

// AsNumber extracts the double payload. Only valid when IsNumber is true.
func (v Value) AsNumber() float64 {
	return math.Float64frombits(uint64(v))
}

// AsBool extracts the boolean payload. Only valid when IsBool is true.
func (v Value) AsBool() bool {
	return v == trueValue
}

// AsObj extracts the interned-string pointer. Only valid when IsObj is true.
func (v Value) AsObj() *string {
	ptr := uintptr(uint64(v) &^ (signBit | qnan))
	return (*string)(unsafe.Pointer(ptr))
}

// TypeName returns the spec's type name for diagnostics.
func (v Value) TypeName() string {
	switch {
	case v.IsNumber():
		return "number"
	case v.IsBool():
		return "boolean"
	case v.IsNil():
		return "nil"
	case v.IsObj():
		return "string"
	default:
		return "unknown"
	}
}

// Equals implements the spec's cross-variant-false, within-variant equality.
func (v Value) Equals(other Value) bool {
	switch {
	case v.IsNumber() && other.IsNumber():
		return v.AsNumber() == other.AsNumber()
	case v.IsBool() && other.IsBool():
		return v.AsBool() == other.AsBool()
	case v.IsNil() && other.IsNil():
		return true
	case v.IsObj() && other.IsObj():
		return v.AsObj() == other.AsObj()
	default:
		return false
	}
}

// IsFalsey implements the spec's truthiness: nil and false are falsey,
// everything else (including 0 and NaN) is truthy.
func (v Value) IsFalsey() bool {
	return v.IsNil() || (v.IsBool() && !v.AsBool())
}

// String formats a Value for `print` and for diagnostics, per spec §6.2.
func (v Value) String() string {
	switch {
	case v.IsNumber():
		return formatNumber(v.AsNumber())
	case v.IsBool():
		if v.AsBool() {
			return "true"
		}
		return "false"
	case v.IsNil():
		return "nil"
	case v.IsObj():
		return *v.AsObj()
	default:
		return fmt.Sprintf("<value %016x>", uint64(v))
	}
}

// formatNumber mimics printf("%g", n): shortest round-trip representation,
// trailing zeros trimmed, scientific notation for extreme magnitudes.
func formatNumber(n float64) string {
	if math.IsNaN(n) {
		return "NaN"
	}
	if math.IsInf(n, 1) {
		return "Inf"
	}
	if math.IsInf(n, -1) {
		return "-Inf"
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}
