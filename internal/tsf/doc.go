// Package tsf implements the Transformation String Format, a single-line,
// delimiter-based text encoding of a transformation profile.
//
// # Format
//
// The current layout (version 2) joins twelve fields with ";%":
//
//	2.0;%<name>;%<image>;%<flags>;%<stutter>;%<bio>;%<prefixes>;%<suffixes>;%<sprinkles>;%<muffles>;%<alt_muffles>;%<censors>
//
// Flags pack big, small, hush and backwards into bits 0 to 3. Each list field
// is either empty or "content|%value" entries joined with ",%".
//
// Two legacy layouts are still decoded:
//
//   - version 1: 20 fields, flag bitfield, proxy prefix and suffix before
//     the bio, each list stored as a presence marker followed by its data.
//   - version 15: 23 fields, the four flags as separate "1"/"0" literals,
//     otherwise shaped like version 1.
//
// Legacy texts normally use ";", "," and "|". When a legacy text contains
// ";%" anywhere, the "%" variants are used for its lists as well.
//
// # Versions
//
// Encode always writes version 2. Decoding a legacy text and encoding the
// result upgrades it; the legacy proxy fields are dropped on the way.
//
// The format has no escaping. Content containing a separator does not
// survive a round trip.
//
// # Numeric fields
//
// Integer fields are decoded permissively: the trimmed text is read as a
// decimal number and truncated toward zero. Text that is not a finite,
// non-negative number decodes as 0; values above math.MaxInt32 are clamped.
// Only an unknown version or a field count that does not match the
// version's layout makes a text undecodable.
//
// Encode and Decode hold no state and are safe for concurrent use.
package tsf
