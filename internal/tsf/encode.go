package tsf

import (
	"strconv"
	"strings"
)

// Encode renders p as a version 2 TSF text. The legacy proxy fields are not
// part of version 2 and are dropped.
func Encode(p Profile) string {
	return encodeLayout(p, layouts[CurrentVersion], currentSeparators)
}

// encodeLayout renders p in the given layout. Only version 2 is ever
// written by Encode; the legacy layouts are produced here for tests.
func encodeLayout(p Profile, l layout, sep separators) string {
	fields := make([]string, l.fieldCount())
	for i, s := range l.scalars {
		fields[i] = encodeScalar(p, l, s)
	}
	listSep := l.listSeparators(sep)
	for _, k := range listKinds {
		i := l.listIndex(k)
		data := joinEntries(p.List(k), listSep)
		if l.lists == listInline {
			fields[i] = data
			continue
		}
		fields[i] = strconv.Itoa(len(p.List(k)))
		fields[i+1] = data
	}
	return strings.Join(fields, sep.field)
}

func encodeScalar(p Profile, l layout, s slot) string {
	switch s {
	case slotVersion:
		if l.version == CurrentVersion {
			return versionTag
		}
		return strconv.Itoa(l.version)
	case slotName:
		return p.TargetName
	case slotImage:
		return p.ImageReference
	case slotFlagBits:
		return strconv.Itoa(p.Flags.Pack())
	case slotBig:
		return boolField(p.Flags.Big)
	case slotSmall:
		return boolField(p.Flags.Small)
	case slotHush:
		return boolField(p.Flags.Hush)
	case slotBackwards:
		return boolField(p.Flags.Backwards)
	case slotStutter:
		return strconv.Itoa(p.Stutter)
	case slotProxyPrefix:
		if p.Proxy != nil {
			return p.Proxy.Prefix
		}
	case slotProxySuffix:
		if p.Proxy != nil {
			return p.Proxy.Suffix
		}
	case slotBio:
		return p.Biography
	}
	return ""
}

func boolField(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func joinEntries(entries []Entry, sep separators) string {
	if len(entries) == 0 {
		return ""
	}
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = e.Content + sep.value + e.Value
	}
	return strings.Join(parts, sep.entry)
}
