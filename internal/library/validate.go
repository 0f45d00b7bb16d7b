package library

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/kalambet/tfstudio/internal/tsf"
)

var (
	ErrMissingField    = errors.New("name and image are required")
	ErrNameTooShort    = errors.New("name must be at least 2 characters long")
	ErrInvalidImage    = errors.New("image must be a valid URL")
	ErrNegativeStutter = errors.New("stutter must not be negative")
	ErrInvalidEntry    = errors.New("entry content and value are required")
	ErrInvalidTSF      = errors.New("invalid or unreadable TSF")
)

// DefaultChance is the percentage preset for new entries of the chance lists.
const DefaultChance = 30

const minNameLength = 2

var imageURLPattern = regexp.MustCompile(`[-a-zA-Z0-9@:%._+~#=]{1,256}\.[a-zA-Z0-9()]{1,6}\b([-a-zA-Z0-9()@:%_+.~#?&/=]*)`)

// Normalize applies the editor rules to the name and image of p and returns
// the cleaned profile. The image gets an http:// scheme when it has none and
// loses its query string.
func Normalize(p tsf.Profile) (tsf.Profile, error) {
	out := p.Clone()
	out.TargetName = strings.TrimSpace(out.TargetName)
	out.ImageReference = strings.TrimSpace(out.ImageReference)

	if out.TargetName == "" || out.ImageReference == "" {
		return tsf.Profile{}, ErrMissingField
	}
	if utf8.RuneCountInString(out.TargetName) < minNameLength {
		return tsf.Profile{}, ErrNameTooShort
	}
	if !imageURLPattern.MatchString(out.ImageReference) {
		return tsf.Profile{}, fmt.Errorf("%w: %q", ErrInvalidImage, out.ImageReference)
	}
	if out.Stutter < 0 {
		return tsf.Profile{}, fmt.Errorf("%w: %d", ErrNegativeStutter, out.Stutter)
	}
	if !strings.HasPrefix(out.ImageReference, "http") {
		out.ImageReference = "http://" + out.ImageReference
	}
	out.ImageReference, _, _ = strings.Cut(out.ImageReference, "?")

	for _, k := range tsf.ListKinds() {
		for i, e := range out.List(k) {
			if err := ValidateEntry(k, e); err != nil {
				return tsf.Profile{}, fmt.Errorf("%s[%d]: %w", k, i, err)
			}
		}
	}
	return out, nil
}

// ValidateEntry checks a single list entry before it is added to a profile.
func ValidateEntry(kind tsf.ListKind, e tsf.Entry) error {
	if e.Content == "" || e.Value == "" {
		return ErrInvalidEntry
	}
	return nil
}

// NewEntry builds an entry for kind. An empty value takes the list default:
// DefaultChance for chance lists, nothing for censors.
func NewEntry(kind tsf.ListKind, content, value string) (tsf.Entry, error) {
	if value == "" && kind != tsf.ListCensors {
		value = fmt.Sprint(DefaultChance)
	}
	e := tsf.Entry{Content: content, Value: value}
	if err := ValidateEntry(kind, e); err != nil {
		return tsf.Entry{}, err
	}
	return e, nil
}

// Filename is the download name of an exported transformation.
func Filename(name string) string {
	return name + ".tsf"
}
