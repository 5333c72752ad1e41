package property

import (
	"fmt"
	"strings"
	"time"

	"github.com/context-protocol/sdk"
)

// MaxNumber is the largest encodable number value: 2^53−1, the top of the
// range representable without precision loss by callers limited to
// IEEE-754 doubles.
const MaxNumber = 1<<53 - 1

// Sentinel errors for codec failures. All of them also match
// sdk.ErrInvalidArgument via errors.Is.
var (
	// ErrUnsupportedType indicates an unknown or invalid property type tag.
	ErrUnsupportedType = fmt.Errorf("unsupported property type: %w", sdk.ErrInvalidArgument)

	// ErrValueOutOfRange indicates a number (or date) outside [0, MaxNumber].
	ErrValueOutOfRange = fmt.Errorf("number outside safe range: %w", sdk.ErrInvalidArgument)

	// ErrInvalidTime indicates a time-of-day outside 00:00–23:59.
	ErrInvalidTime = fmt.Errorf("invalid time value: %w", sdk.ErrInvalidArgument)
)

// Type tags the five property value types.
type Type uint8

// Property type tags. TypeInvalid is the zero value and never valid.
const (
	TypeInvalid Type = iota
	TypeString
	TypeNumber
	TypeDate
	TypeTime
	TypeBoolean
)

// typeNames maps type tags to their canonical manifest spelling.
var typeNames = map[Type]string{
	TypeString:  "string",
	TypeNumber:  "number",
	TypeDate:    "date",
	TypeTime:    "time",
	TypeBoolean: "boolean",
}

// String returns the canonical lowercase name of the type.
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("invalid(%d)", uint8(t))
}

// Valid reports whether t is one of the five defined types.
func (t Type) Valid() bool {
	_, ok := typeNames[t]
	return ok
}

// ParseType converts a manifest spelling ("string", "number", "date",
// "time", "boolean", case-insensitive) to its type tag.
func ParseType(s string) (Type, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for t, name := range typeNames {
		if name == needle {
			return t, nil
		}
	}
	return TypeInvalid, fmt.Errorf("%w: %q", ErrUnsupportedType, s)
}

// Value is the closed tagged variant of property values. Exactly five
// types implement it: String, Number, Date, TimeOfDay, and Boolean.
type Value interface {
	// Type returns the value's type tag.
	Type() Type

	isValue()
}

// String is a UTF-8 string property value.
type String string

// Number is an unsigned integer property value in [0, MaxNumber].
type Number uint64

// Date is an instant property value. The codec truncates it to whole
// seconds since the Unix epoch.
type Date time.Time

// TimeOfDay is a wall-clock time property value.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// Boolean is a true/false property value.
type Boolean bool

func (String) Type() Type    { return TypeString }
func (Number) Type() Type    { return TypeNumber }
func (Date) Type() Type      { return TypeDate }
func (TimeOfDay) Type() Type { return TypeTime }
func (Boolean) Type() Type   { return TypeBoolean }

func (String) isValue()    {}
func (Number) isValue()    {}
func (Date) isValue()      {}
func (TimeOfDay) isValue() {}
func (Boolean) isValue()   {}

// NewTimeOfDay validates hour and minute and returns the value.
func NewTimeOfDay(hour, minute int) (TimeOfDay, error) {
	v := TimeOfDay{Hour: hour, Minute: minute}
	if err := v.validate(); err != nil {
		return TimeOfDay{}, err
	}
	return v, nil
}

// ParseTimeOfDay parses a "HH:MM" string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(s, "%d:%d", &hour, &minute); err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	return NewTimeOfDay(hour, minute)
}

// String formats the value as "HH:MM".
func (v TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", v.Hour, v.Minute)
}

// Minutes returns the minute count since midnight.
func (v TimeOfDay) Minutes() int {
	return v.Hour*60 + v.Minute
}

func (v TimeOfDay) validate() error {
	if v.Hour < 0 || v.Hour > 23 || v.Minute < 0 || v.Minute > 59 {
		return fmt.Errorf("%w: %02d:%02d", ErrInvalidTime, v.Hour, v.Minute)
	}
	return nil
}

// Encode serializes a value to its wire bytes.
//
// Encoding never loses information except the documented cases: Date drops
// sub-second precision, and the zero value of every number-family type
// encodes as the empty byte string.
func Encode(v Value) ([]byte, error) {
	switch val := v.(type) {
	case String:
		return []byte(val), nil

	case Number:
		if uint64(val) > MaxNumber {
			return nil, fmt.Errorf("%w: %d", ErrValueOutOfRange, uint64(val))
		}
		return appendNumber(nil, uint64(val)), nil

	case Date:
		secs := time.Time(val).Unix()
		if secs < 0 || uint64(secs) > MaxNumber {
			return nil, fmt.Errorf("%w: %v", ErrValueOutOfRange, time.Time(val))
		}
		return appendNumber(nil, uint64(secs)), nil

	case TimeOfDay:
		if err := val.validate(); err != nil {
			return nil, err
		}
		return appendNumber(nil, uint64(val.Minutes())), nil

	case Boolean:
		if val {
			return appendNumber(nil, 1), nil
		}
		return appendNumber(nil, 0), nil

	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedType, v)
	}
}

// Decode deserializes wire bytes into a value of the given type.
//
// Empty input yields the type's zero value: "", 0, the epoch, midnight,
// or false.
func Decode(t Type, data []byte) (Value, error) {
	switch t {
	case TypeString:
		return String(data), nil

	case TypeNumber:
		n, err := decodeNumber(data)
		if err != nil {
			return nil, err
		}
		return Number(n), nil

	case TypeDate:
		n, err := decodeNumber(data)
		if err != nil {
			return nil, err
		}
		return Date(time.Unix(int64(n), 0).UTC()), nil

	case TypeTime:
		n, err := decodeNumber(data)
		if err != nil {
			return nil, err
		}
		if n > 1439 {
			return nil, fmt.Errorf("%w: %d minutes since midnight", ErrInvalidTime, n)
		}
		return TimeOfDay{Hour: int(n / 60), Minute: int(n % 60)}, nil

	case TypeBoolean:
		n, err := decodeNumber(data)
		if err != nil {
			return nil, err
		}
		if n > 1 {
			return nil, fmt.Errorf("%w: boolean byte %d", ErrValueOutOfRange, n)
		}
		return Boolean(n == 1), nil

	default:
		return nil, fmt.Errorf("%w: tag %d", ErrUnsupportedType, uint8(t))
	}
}

// appendNumber appends the minimal-length big-endian encoding of n.
// Zero appends nothing: the canonical encoding of 0 is the empty string,
// which is what makes absent properties read as the zero value.
func appendNumber(dst []byte, n uint64) []byte {
	started := false
	for shift := 56; shift >= 0; shift -= 8 {
		b := byte(n >> shift)
		if b != 0 {
			started = true
		}
		if started {
			dst = append(dst, b)
		}
	}
	return dst
}

// decodeNumber reads a big-endian unsigned integer, enforcing MaxNumber.
// Leading zero bytes are tolerated on input even though Encode never emits
// them.
func decodeNumber(data []byte) (uint64, error) {
	var n uint64
	for _, b := range data {
		if n > (MaxNumber >> 8) {
			return 0, fmt.Errorf("%w: %d-byte number", ErrValueOutOfRange, len(data))
		}
		n = n<<8 | uint64(b)
	}
	if n > MaxNumber {
		return 0, fmt.Errorf("%w: %d", ErrValueOutOfRange, n)
	}
	return n, nil
}

// Coerce converts a plain Go value to the variant for the given type.
// It is the bridge the builder layer uses so callers can pass ordinary
// Go values:
//
//   - string:  string (and TimeOfDay accepts "HH:MM")
//   - number:  int, int64, uint64, Number
//   - date:    time.Time, Date
//   - time:    TimeOfDay, "HH:MM" string
//   - boolean: bool, Boolean
func Coerce(t Type, v any) (Value, error) {
	switch t {
	case TypeString:
		if s, ok := v.(string); ok {
			return String(s), nil
		}
		if s, ok := v.(String); ok {
			return s, nil
		}

	case TypeNumber:
		switch n := v.(type) {
		case Number:
			return n, nil
		case uint64:
			return Number(n), nil
		case int:
			if n < 0 {
				return nil, fmt.Errorf("%w: %d", ErrValueOutOfRange, n)
			}
			return Number(n), nil
		case int64:
			if n < 0 {
				return nil, fmt.Errorf("%w: %d", ErrValueOutOfRange, n)
			}
			return Number(n), nil
		}

	case TypeDate:
		switch d := v.(type) {
		case Date:
			return d, nil
		case time.Time:
			return Date(d), nil
		}

	case TypeTime:
		switch tv := v.(type) {
		case TimeOfDay:
			if err := tv.validate(); err != nil {
				return nil, err
			}
			return tv, nil
		case string:
			return ParseTimeOfDay(tv)
		}

	case TypeBoolean:
		switch b := v.(type) {
		case Boolean:
			return b, nil
		case bool:
			return Boolean(b), nil
		}

	default:
		return nil, fmt.Errorf("%w: tag %d", ErrUnsupportedType, uint8(t))
	}

	return nil, fmt.Errorf("%w: cannot use %T as %s", sdk.ErrInvalidArgument, v, t)
}
