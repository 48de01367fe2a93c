package gl

import "fmt"

// TypeCode is the driver tag of a scalar component type.
type TypeCode Enum

const (
	Byte   = TypeCode(BYTE)
	UByte  = TypeCode(UNSIGNED_BYTE)
	Short  = TypeCode(SHORT)
	UShort = TypeCode(UNSIGNED_SHORT)
	Int    = TypeCode(INT)
	UInt   = TypeCode(UNSIGNED_INT)
	Float  = TypeCode(FLOAT)
	Double = TypeCode(DOUBLE)
	Int64  = TypeCode(INT64)
	UInt64 = TypeCode(UNSIGNED_INT64)
)

// Scalar is the closed set of component types the driver understands.
// Instantiating TypeOf or SizeOf with anything else does not compile.
type Scalar interface {
	int8 | uint8 | int16 | uint16 | int32 | uint32 | int64 | uint64 | float32 | float64
}

// Index is the subset of Scalar usable as element indices.
type Index interface {
	uint8 | uint16 | uint32
}

// TypeAlloc maps a type tag back to its byte size. Used to turn element
// counts into byte offsets when only the tag is known.
var TypeAlloc = map[TypeCode]int{
	Byte:   1,
	UByte:  1,
	Short:  2,
	UShort: 2,
	Int:    4,
	UInt:   4,
	Float:  4,
	Double: 8,
	Int64:  8,
	UInt64: 8,
}

// TypeOf returns the driver tag of T.
func TypeOf[T Scalar]() TypeCode {
	var zero T
	code, _ := typeCodeOf(zero)
	return code
}

// SizeOf returns the byte size of T.
func SizeOf[T Scalar]() int {
	return TypeAlloc[TypeOf[T]()]
}

// Size returns the byte size of t, or 0 for an unknown tag.
func (t TypeCode) Size() int {
	return TypeAlloc[t]
}

func (t TypeCode) String() string {
	switch t {
	case Byte:
		return "byte"
	case UByte:
		return "ubyte"
	case Short:
		return "short"
	case UShort:
		return "ushort"
	case Int:
		return "int"
	case UInt:
		return "uint"
	case Float:
		return "float"
	case Double:
		return "double"
	case Int64:
		return "int64"
	case UInt64:
		return "uint64"
	}
	return fmt.Sprintf("TypeCode(0x%04X)", uint32(t))
}

// typeCodeOf is the runtime side of the registry, for values whose static
// type is not constrained to Scalar.
func typeCodeOf(v any) (TypeCode, bool) {
	switch v.(type) {
	case int8:
		return Byte, true
	case uint8:
		return UByte, true
	case int16:
		return Short, true
	case uint16:
		return UShort, true
	case int32:
		return Int, true
	case uint32:
		return UInt, true
	case float32:
		return Float, true
	case float64:
		return Double, true
	case int64:
		return Int64, true
	case uint64:
		return UInt64, true
	}
	return 0, false
}
