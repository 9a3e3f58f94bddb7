// Package lattice defines the column type lattice used by inference and the
// join that merges two observations into their least upper bound.
//
// The lattice is:
//
//	Unknown (bottom)
//	Boolean < SmallInt < Integer < BigInt < DoublePrecision < Varchar
//	Date, Time, DateTime: atoms that only join with themselves
//
// Varchar is the top element; its Length grows monotonically.
package lattice

import "fmt"

// Kind is the tag of a lattice element.
type Kind uint8

const (
	Unknown Kind = iota
	Boolean
	SmallInt
	Integer
	BigInt
	DoublePrecision
	Date
	Time
	DateTime
	Varchar
)

var kindNames = [...]string{
	Unknown:         "Unknown",
	Boolean:         "Boolean",
	SmallInt:        "SmallInt",
	Integer:         "Integer",
	BigInt:          "BigInt",
	DoublePrecision: "DoublePrecision",
	Date:            "Date",
	Time:            "Time",
	DateTime:        "DateTime",
	Varchar:         "Varchar",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Kinds lists every concrete kind in lattice order (Unknown excluded).
func Kinds() []Kind {
	return []Kind{Boolean, SmallInt, Integer, BigInt, DoublePrecision, Date, Time, DateTime, Varchar}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return Kind(k), true
		}
	}
	return Unknown, false
}

// IsTemporal reports whether k is one of the date/time atoms.
func (k Kind) IsTemporal() bool {
	return k == Date || k == Time || k == DateTime
}

// Rank orders kinds for promotion checks. The temporal atoms share a rank
// above DoublePrecision and below Varchar; they are never ordered against each
// other or against the numeric chain by Join.
func (k Kind) Rank() int {
	switch k {
	case Unknown:
		return 0
	case Boolean:
		return 1
	case SmallInt:
		return 2
	case Integer:
		return 3
	case BigInt:
		return 4
	case DoublePrecision:
		return 5
	case Date, Time, DateTime:
		return 6
	default:
		return 7
	}
}

// Type is one lattice element. Length is meaningful only for Varchar and is
// the byte length the column needs.
type Type struct {
	Kind   Kind `json:"kind"`
	Length int  `json:"length,omitempty"`
}

// Of returns the non-Varchar element for k.
func Of(k Kind) Type { return Type{Kind: k} }

// VarcharOf returns Varchar(n).
func VarcharOf(n int) Type { return Type{Kind: Varchar, Length: n} }

func (t Type) String() string {
	if t.Kind == Varchar {
		return fmt.Sprintf("Varchar(%d)", t.Length)
	}
	return t.Kind.String()
}

// Join returns the least upper bound of a and b. It is total, commutative and
// associative; Unknown is its identity.
func Join(a, b Type) Type {
	if a.Kind == Unknown {
		return b
	}
	if b.Kind == Unknown {
		return a
	}
	if a.Kind == Varchar || b.Kind == Varchar {
		return VarcharOf(max(a.varcharLen(), b.varcharLen()))
	}
	if a.Kind.IsTemporal() || b.Kind.IsTemporal() {
		if a.Kind == b.Kind {
			return a
		}
		return VarcharOf(0)
	}
	if a.Kind >= b.Kind {
		return a
	}
	return b
}

// varcharLen is the length a contributes to a Varchar join.
func (t Type) varcharLen() int {
	if t.Kind == Varchar {
		return t.Length
	}
	return 0
}

// MarshalText renders the kind by name.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText accepts the names produced by MarshalText.
func (k *Kind) UnmarshalText(b []byte) error {
	v, ok := ParseKind(string(b))
	if !ok {
		return fmt.Errorf("lattice: unknown kind %q", b)
	}
	*k = v
	return nil
}
