// Package protoconv converts decoded property maps to and from
// google.protobuf.Struct, the interchange shape used when node state
// crosses a protobuf boundary.
//
// The mapping is by JSON-compatible kinds: strings stay strings, numbers
// become doubles (lossless for the whole encodable range), dates become
// RFC 3339 strings, times become "HH:MM" strings, and booleans stay
// booleans.
package protoconv

import (
	"fmt"
	"math"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/context-protocol/sdk"
	"github.com/context-protocol/sdk/graph"
	"github.com/context-protocol/sdk/identity"
	"github.com/context-protocol/sdk/property"
	"github.com/context-protocol/sdk/schema"
)

// ToStruct converts a property map, as returned by Node.GetProperties,
// into a Struct keyed by property name.
func ToStruct(props map[string]graph.Property) (*structpb.Struct, error) {
	fields := make(map[string]*structpb.Value, len(props))
	for name, p := range props {
		v, err := toValue(p.Value)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", name, err)
		}
		fields[name] = v
	}
	return &structpb.Struct{Fields: fields}, nil
}

func toValue(v property.Value) (*structpb.Value, error) {
	switch val := v.(type) {
	case property.String:
		return structpb.NewStringValue(string(val)), nil
	case property.Number:
		return structpb.NewNumberValue(float64(val)), nil
	case property.Date:
		return structpb.NewStringValue(time.Time(val).UTC().Format(time.RFC3339)), nil
	case property.TimeOfDay:
		return structpb.NewStringValue(val.String()), nil
	case property.Boolean:
		return structpb.NewBoolValue(bool(val)), nil
	default:
		return nil, fmt.Errorf("%w: %T", property.ErrUnsupportedType, v)
	}
}

// FromStruct converts a Struct keyed by property name into encoded
// property inputs for the given entity type, resolving each field name
// against the registry and encoding the value for storage. Fields whose
// name is not declared on the type fail with the registry's not-found
// error.
func FromStruct(reg *schema.Registry, entityTypeID identity.ID, s *structpb.Struct) ([]graph.PropertyInput, error) {
	if s == nil {
		return nil, nil
	}
	inputs := make([]graph.PropertyInput, 0, len(s.Fields))
	for name, field := range s.Fields {
		def, err := reg.PropertyByName(entityTypeID, name)
		if err != nil {
			return nil, err
		}
		value, err := fromValue(def.Type, field)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", name, err)
		}
		raw, err := property.Encode(value)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", name, err)
		}
		inputs = append(inputs, graph.PropertyInput{PropertyID: def.ID, Value: raw})
	}
	return inputs, nil
}

func fromValue(t property.Type, v *structpb.Value) (property.Value, error) {
	switch t {
	case property.TypeNumber:
		n, ok := v.AsInterface().(float64)
		if !ok {
			return nil, fmt.Errorf("%w: expected a number, got %T", sdk.ErrInvalidArgument, v.AsInterface())
		}
		if n < 0 || n != math.Trunc(n) || n > float64(property.MaxNumber) {
			return nil, fmt.Errorf("%w: %v", property.ErrValueOutOfRange, n)
		}
		return property.Number(uint64(n)), nil

	case property.TypeDate:
		s, ok := v.AsInterface().(string)
		if !ok {
			return nil, fmt.Errorf("%w: expected an RFC 3339 string, got %T", sdk.ErrInvalidArgument, v.AsInterface())
		}
		instant, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", sdk.ErrInvalidArgument, err)
		}
		return property.Date(instant), nil

	default:
		return property.Coerce(t, v.AsInterface())
	}
}
