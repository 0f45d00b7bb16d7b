package tsf

import "strings"

// CurrentVersion is the version Encode writes.
const CurrentVersion = 2

const versionTag = "2.0"

// Separators of the current format. Legacy texts without ";%" use the
// single-character forms.
const (
	FieldSeparator = ";%"
	EntrySeparator = ",%"
	ValueSeparator = "|%"
)

// absentMarker is the presence field of an empty legacy list.
const absentMarker = "0"

type separators struct {
	field string
	entry string
	value string
}

var (
	currentSeparators = separators{field: FieldSeparator, entry: EntrySeparator, value: ValueSeparator}
	legacySeparators  = separators{field: ";", entry: ",", value: "|"}
)

func detectSeparators(text string) separators {
	if strings.Contains(text, FieldSeparator) {
		return currentSeparators
	}
	return legacySeparators
}

// slot names a scalar field position in a layout.
type slot int

const (
	slotVersion slot = iota
	slotName
	slotImage
	slotFlagBits
	slotBig
	slotSmall
	slotHush
	slotBackwards
	slotStutter
	slotProxyPrefix
	slotProxySuffix
	slotBio
)

type listStyle int

const (
	// listInline stores a list in one field, empty when the list is empty.
	listInline listStyle = iota
	// listPaired stores a presence marker followed by the list data.
	listPaired
)

// layout describes the field order of one format version: the scalar slots
// come first, then the six lists in wire order.
type layout struct {
	version int
	scalars []slot
	lists   listStyle
}

var layouts = map[int]layout{
	2: {
		version: 2,
		scalars: []slot{slotVersion, slotName, slotImage, slotFlagBits, slotStutter, slotBio},
		lists:   listInline,
	},
	1: {
		version: 1,
		scalars: []slot{
			slotVersion, slotName, slotImage, slotFlagBits, slotStutter,
			slotProxyPrefix, slotProxySuffix, slotBio,
		},
		lists: listPaired,
	},
	15: {
		version: 15,
		scalars: []slot{
			slotVersion, slotName, slotImage,
			slotBig, slotSmall, slotHush, slotBackwards,
			slotStutter, slotProxyPrefix, slotProxySuffix, slotBio,
		},
		lists: listPaired,
	},
}

// Versions returns the decodable format versions in ascending order.
func Versions() []int {
	return []int{1, 2, 15}
}

// FieldCount returns the number of fields a text of the given version has,
// or 0 for an unknown version.
func FieldCount(version int) int {
	l, ok := layouts[version]
	if !ok {
		return 0
	}
	return l.fieldCount()
}

func (l layout) listWidth() int {
	if l.lists == listPaired {
		return 2
	}
	return 1
}

func (l layout) fieldCount() int {
	return len(l.scalars) + len(listKinds)*l.listWidth()
}

// listIndex is the first field of list k: the data field for inline lists,
// the presence marker for paired ones.
func (l layout) listIndex(k ListKind) int {
	return len(l.scalars) + int(k)*l.listWidth()
}

// listSeparators returns the entry separators for this layout. Inline lists
// always use the current separators; paired lists follow the text.
func (l layout) listSeparators(text separators) separators {
	if l.lists == listInline {
		return currentSeparators
	}
	return text
}
