// Package property implements the typed property codec: a closed tagged
// variant of semantic values and a byte-exact wire encoding.
//
// Values come in five types: string, number, date, time-of-day, and
// boolean. Encode and Decode satisfy the round-trip law
//
//	Decode(v.Type(), Encode(v)) == v
//
// for every valid value v, and the byte encoding is part of the
// cross-party contract (two independent implementations must produce
// identical bytes for identical values):
//
//   - string:  the UTF-8 bytes, verbatim
//   - number:  minimal-length big-endian unsigned integer, bounded by
//     MaxNumber (2^53−1 so the value survives environments limited to
//     IEEE-754 doubles); zero encodes as the empty byte string
//   - date:    whole seconds since the Unix epoch, number rule
//     (sub-second precision is dropped on encode by design)
//   - time:    minutes since midnight (0–1439), number rule
//   - boolean: number 0 or 1
//
// Empty input decodes to the type's zero value rather than failing:
// callers read an absent property as its default instead of an error.
package property
