package tsf

import (
	"math"
	"strconv"
	"strings"
)

// Decode parses a TSF text of any supported version. It reports false for
// text that is not a readable TSF string; callers that need the reason use
// Parse.
func Decode(text string) (Profile, bool) {
	p, err := Parse(text)
	if err != nil {
		return Profile{}, false
	}
	return p, true
}

// Parse decodes a TSF text of any supported version. The returned error is a
// *DecodeError.
func Parse(text string) (Profile, error) {
	sep := detectSeparators(text)
	fields := strings.Split(text, sep.field)

	version, ok := parseVersion(fields[0])
	l, known := layouts[version]
	if !ok || !known {
		return Profile{}, &DecodeError{Tag: fields[0], Fields: len(fields), Err: ErrUnrecognizedVersion}
	}
	if len(fields) != l.fieldCount() {
		return Profile{}, &DecodeError{
			Tag:     fields[0],
			Version: version,
			Fields:  len(fields),
			Want:    l.fieldCount(),
			Err:     ErrFieldCountMismatch,
		}
	}
	return decodeLayout(fields, l, sep), nil
}

// Upgrade decodes text and re-encodes it as version 2. It returns the new
// text and the version the input was written in.
func Upgrade(text string) (string, int, error) {
	p, err := Parse(text)
	if err != nil {
		return "", 0, err
	}
	h := Sniff(text)
	return Encode(p), h.Version, nil
}

// Header is what can be read from a text without decoding it.
type Header struct {
	Version   int    // 0 when the tag is not a known version
	Separator string // detected field separator
	Fields    int
}

// Valid reports whether the field count matches the version's layout.
func (h Header) Valid() bool {
	return h.Version != 0 && h.Fields == FieldCount(h.Version)
}

// Sniff inspects the version tag and field count of text.
func Sniff(text string) Header {
	sep := detectSeparators(text)
	h := Header{Separator: sep.field, Fields: strings.Count(text, sep.field) + 1}
	tag, _, _ := strings.Cut(text, sep.field)
	if v, ok := parseVersion(tag); ok {
		if _, known := layouts[v]; known {
			h.Version = v
		}
	}
	return h
}

func decodeLayout(fields []string, l layout, sep separators) Profile {
	var p Profile
	for i, s := range l.scalars {
		decodeScalar(&p, s, fields[i])
	}
	listSep := l.listSeparators(sep)
	for _, k := range listKinds {
		i := l.listIndex(k)
		if l.lists == listInline {
			p.SetList(k, splitEntries(fields[i], listSep))
			continue
		}
		if fields[i] == absentMarker {
			p.SetList(k, nil)
			continue
		}
		p.SetList(k, splitEntries(fields[i+1], listSep))
	}
	return p
}

func decodeScalar(p *Profile, s slot, v string) {
	switch s {
	case slotName:
		p.TargetName = v
	case slotImage:
		p.ImageReference = v
	case slotFlagBits:
		p.Flags = UnpackFlags(coerceInt(v))
	case slotBig:
		p.Flags.Big = v == "1"
	case slotSmall:
		p.Flags.Small = v == "1"
	case slotHush:
		p.Flags.Hush = v == "1"
	case slotBackwards:
		p.Flags.Backwards = v == "1"
	case slotStutter:
		p.Stutter = coerceInt(v)
	case slotProxyPrefix:
		proxyOf(p).Prefix = v
	case slotProxySuffix:
		proxyOf(p).Suffix = v
	case slotBio:
		p.Biography = v
	}
}

func proxyOf(p *Profile) *Proxy {
	if p.Proxy == nil {
		p.Proxy = &Proxy{}
	}
	return p.Proxy
}

// splitEntries splits list data into entries. Each entry is cut at its first
// value separator; an entry without one has an empty value.
func splitEntries(data string, sep separators) []Entry {
	if data == "" {
		return []Entry{}
	}
	parts := strings.Split(data, sep.entry)
	out := make([]Entry, 0, len(parts))
	for _, part := range parts {
		content, value, _ := strings.Cut(part, sep.value)
		out = append(out, Entry{Content: content, Value: value})
	}
	return out
}

func parseNumber(raw string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseVersion(raw string) (int, bool) {
	f, ok := parseNumber(raw)
	if !ok || f < 0 || f > math.MaxInt32 || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// coerceInt reads an integer field: fractions truncate, anything that is not
// a finite non-negative number is 0.
func coerceInt(raw string) int {
	f, ok := parseNumber(raw)
	if !ok || f < 0 {
		return 0
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(f)
}
