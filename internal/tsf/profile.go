package tsf

// Entry is one item of a profile list. For the chance lists Value is a
// percentage; for censors it is the replacement text.
type Entry struct {
	Content string `json:"content" yaml:"content" toml:"content"`
	Value   string `json:"value" yaml:"value" toml:"value"`
}

// Flags are the four boolean switches of a transformation.
type Flags struct {
	Big       bool `json:"big" yaml:"big" toml:"big"`
	Small     bool `json:"small" yaml:"small" toml:"small"`
	Hush      bool `json:"hush" yaml:"hush" toml:"hush"`
	Backwards bool `json:"backwards" yaml:"backwards" toml:"backwards"`
}

const (
	flagBig = 1 << iota
	flagSmall
	flagHush
	flagBackwards
)

// Pack returns the flags as a bitfield: big=1, small=2, hush=4, backwards=8.
func (f Flags) Pack() int {
	bits := 0
	if f.Big {
		bits |= flagBig
	}
	if f.Small {
		bits |= flagSmall
	}
	if f.Hush {
		bits |= flagHush
	}
	if f.Backwards {
		bits |= flagBackwards
	}
	return bits
}

// UnpackFlags is the inverse of Pack. Bits above bit 3 are ignored.
func UnpackFlags(bits int) Flags {
	return Flags{
		Big:       bits&flagBig != 0,
		Small:     bits&flagSmall != 0,
		Hush:      bits&flagHush != 0,
		Backwards: bits&flagBackwards != 0,
	}
}

// Proxy holds the legacy proxy prefix and suffix. Only versions 1 and 15
// carry them.
type Proxy struct {
	Prefix string `json:"proxy_prefix" yaml:"proxy_prefix" toml:"proxy_prefix"`
	Suffix string `json:"proxy_suffix" yaml:"proxy_suffix" toml:"proxy_suffix"`
}

// Profile is the decoded form of a TSF text.
type Profile struct {
	TargetName     string `json:"target_name" yaml:"target_name" toml:"target_name"`
	ImageReference string `json:"image_url" yaml:"image_url" toml:"image_url"`
	Flags          Flags  `json:"flags" yaml:"flags" toml:"flags"`
	Stutter        int    `json:"stutter" yaml:"stutter" toml:"stutter"`
	Proxy          *Proxy `json:"proxy,omitempty" yaml:"proxy,omitempty" toml:"proxy,omitempty"`
	Biography      string `json:"bio" yaml:"bio" toml:"bio"`

	Prefixes   []Entry `json:"prefixes" yaml:"prefixes" toml:"prefixes"`
	Suffixes   []Entry `json:"suffixes" yaml:"suffixes" toml:"suffixes"`
	Sprinkles  []Entry `json:"sprinkles" yaml:"sprinkles" toml:"sprinkles"`
	Muffles    []Entry `json:"muffles" yaml:"muffles" toml:"muffles"`
	AltMuffles []Entry `json:"alt_muffles" yaml:"alt_muffles" toml:"alt_muffles"`
	Censors    []Entry `json:"censors" yaml:"censors" toml:"censors"`
}

// ListKind names one of the six profile lists.
type ListKind int

// Lists in wire order.
const (
	ListPrefixes ListKind = iota
	ListSuffixes
	ListSprinkles
	ListMuffles
	ListAltMuffles
	ListCensors
)

var listKinds = [...]ListKind{
	ListPrefixes,
	ListSuffixes,
	ListSprinkles,
	ListMuffles,
	ListAltMuffles,
	ListCensors,
}

var listNames = [...]string{
	ListPrefixes:   "prefixes",
	ListSuffixes:   "suffixes",
	ListSprinkles:  "sprinkles",
	ListMuffles:    "muffles",
	ListAltMuffles: "alt_muffles",
	ListCensors:    "censors",
}

// ListKinds returns the six lists in wire order.
func ListKinds() []ListKind {
	out := make([]ListKind, len(listKinds))
	copy(out, listKinds[:])
	return out
}

func (k ListKind) String() string {
	if k < 0 || int(k) >= len(listNames) {
		return "unknown"
	}
	return listNames[k]
}

// ParseListKind maps a list name ("prefixes", "alt_muffles", ...) to its kind.
func ParseListKind(name string) (ListKind, bool) {
	for _, k := range listKinds {
		if listNames[k] == name {
			return k, true
		}
	}
	return 0, false
}

// List returns the entries of the given list.
func (p *Profile) List(k ListKind) []Entry {
	switch k {
	case ListPrefixes:
		return p.Prefixes
	case ListSuffixes:
		return p.Suffixes
	case ListSprinkles:
		return p.Sprinkles
	case ListMuffles:
		return p.Muffles
	case ListAltMuffles:
		return p.AltMuffles
	case ListCensors:
		return p.Censors
	}
	return nil
}

// SetList replaces the entries of the given list. A nil slice is stored as
// an empty one.
func (p *Profile) SetList(k ListKind, entries []Entry) {
	if entries == nil {
		entries = []Entry{}
	}
	switch k {
	case ListPrefixes:
		p.Prefixes = entries
	case ListSuffixes:
		p.Suffixes = entries
	case ListSprinkles:
		p.Sprinkles = entries
	case ListMuffles:
		p.Muffles = entries
	case ListAltMuffles:
		p.AltMuffles = entries
	case ListCensors:
		p.Censors = entries
	}
}

// Clone returns a deep copy of p.
func (p Profile) Clone() Profile {
	out := p
	if p.Proxy != nil {
		px := *p.Proxy
		out.Proxy = &px
	}
	for _, k := range listKinds {
		src := p.List(k)
		if src == nil {
			continue
		}
		dst := make([]Entry, len(src))
		copy(dst, src)
		out.SetList(k, dst)
	}
	return out
}
