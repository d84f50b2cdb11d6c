package model

// RegisterWidth is the only register width this compiler supports, in
// bits.
const RegisterWidth = 32

// Device is the root of a hardware description: one chip and its
// memory-mapped peripherals, in declaration order.
type Device struct {
	Name        string
	Description string

	// Width is the register width in bits. Always 32; descriptions
	// declaring another width are rejected at build time.
	Width uint

	Peripherals []*Peripheral
}

// Peripheral is a memory-mapped unit of the device.
type Peripheral struct {
	Name        string
	Description string

	// GroupName is the optional functional group ("SPI", "TIMER").
	// When set it names the generated peripheral struct type, so that
	// instances of one group share a type.
	GroupName string

	// BaseAddress is the absolute address register offsets are
	// relative to.
	BaseAddress uint64

	// DerivedFrom names the peripheral whose register layout this one
	// shares. Empty for a peripheral with its own registers. A derived
	// peripheral contributes only an instance at its own base address.
	DerivedFrom string

	// Registers in declaration order. For a derived peripheral this is
	// the base peripheral's slice.
	Registers []*Register
}

// Derived reports whether the peripheral shares another's layout.
func (p *Peripheral) Derived() bool {
	return p.DerivedFrom != ""
}

// Register is one 32-bit hardware register.
type Register struct {
	Name        string
	Description string

	// Offset is the byte offset from the peripheral base address.
	Offset uint64

	// Width is the register width in bits. Always 32.
	Width uint

	Access Access

	// ResetValue is the documented post-reset value; HasReset tells
	// whether the description declared one.
	ResetValue uint32
	HasReset   bool

	// ClearMask is the always-cleared mask: bits forced to zero on
	// every transaction commit, in both merge and overwrite mode. It
	// is the union of the masks of fields declaring
	// modifiedWriteValues=clear, and zero when no field does.
	ClearMask uint32

	Fields []*Field
}

// Field is a named bit range within a register.
type Field struct {
	Name        string
	Description string

	// Offset is the bit position of the least significant bit.
	Offset uint

	// Width is the field width in bits, at least 1.
	Width uint

	Access Access

	// ClearOnWrite marks a field declaring modifiedWriteValues=clear;
	// its bits join the register's ClearMask.
	ClearOnWrite bool

	// Enum is the field's enumerated value set, nil when the field is
	// plain numeric.
	Enum *Enum
}

// Enum is the enumerated value set of a field.
type Enum struct {
	// Name of the value set; defaults to the field name when the
	// description does not name it.
	Name   string
	Values []EnumValue
}

// EnumValue is one named value of an enumerated field.
type EnumValue struct {
	Name        string
	Description string
	Value       uint32
}

// Access is a register or field access mode.
type Access uint8

const (
	// AccessReadWrite allows both loads and stores. The default.
	AccessReadWrite Access = iota
	// AccessReadOnly forbids stores.
	AccessReadOnly
	// AccessWriteOnly forbids loads.
	AccessWriteOnly
)

// String returns the description spelling of the access mode.
func (a Access) String() string {
	switch a {
	case AccessReadWrite:
		return "read-write"
	case AccessReadOnly:
		return "read-only"
	case AccessWriteOnly:
		return "write-only"
	default:
		return "unknown"
	}
}

// CanRead reports whether the mode allows loads.
func (a Access) CanRead() bool {
	return a != AccessWriteOnly
}

// CanWrite reports whether the mode allows stores.
func (a Access) CanWrite() bool {
	return a != AccessReadOnly
}
