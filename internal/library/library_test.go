package library

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/kalambet/tfstudio/internal/tsf"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func validProfile() tsf.Profile {
	p := tsf.Profile{
		TargetName:     "Cat",
		ImageReference: "https://example.com/cat.png",
		Stutter:        10,
	}
	p.SetList(tsf.ListPrefixes, []tsf.Entry{{Content: "Meow", Value: "30"}})
	p.SetList(tsf.ListCensors, []tsf.Entry{{Content: "dog", Value: "cat"}})
	return p
}

func TestNormalize_TrimsFields(t *testing.T) {
	p := validProfile()
	p.TargetName = "  Cat  "
	p.ImageReference = "\thttps://example.com/cat.png \n"

	got, err := Normalize(p)
	require.NoError(t, err)
	assert.Equal(t, "Cat", got.TargetName)
	assert.Equal(t, "https://example.com/cat.png", got.ImageReference)
}

func TestNormalize_AddsScheme(t *testing.T) {
	p := validProfile()
	p.ImageReference = "example.com/cat.png"

	got, err := Normalize(p)
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/cat.png", got.ImageReference)
}

func TestNormalize_StripsQuery(t *testing.T) {
	p := validProfile()
	p.ImageReference = "https://cdn.example.com/cat.png?width=200&height=200"

	got, err := Normalize(p)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/cat.png", got.ImageReference)
}

func TestNormalize_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*tsf.Profile)
		want   error
	}{
		{"empty name", func(p *tsf.Profile) { p.TargetName = "   " }, ErrMissingField},
		{"empty image", func(p *tsf.Profile) { p.ImageReference = "" }, ErrMissingField},
		{"short name", func(p *tsf.Profile) { p.TargetName = "C" }, ErrNameTooShort},
		{"bad image", func(p *tsf.Profile) { p.ImageReference = "not a url" }, ErrInvalidImage},
		{"negative stutter", func(p *tsf.Profile) { p.Stutter = -5 }, ErrNegativeStutter},
		{"empty entry value", func(p *tsf.Profile) {
			p.SetList(tsf.ListSuffixes, []tsf.Entry{{Content: "nya", Value: ""}})
		}, ErrInvalidEntry},
		{"empty entry content", func(p *tsf.Profile) {
			p.SetList(tsf.ListCensors, []tsf.Entry{{Content: "", Value: "x"}})
		}, ErrInvalidEntry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProfile()
			tt.mutate(&p)
			_, err := Normalize(p)
			require.ErrorIs(t, err, tt.want)
			assert.True(t, IsValidation(err))
		})
	}
}

// Anything Normalize accepts must read back unchanged from its encoding.
func TestNormalize_AcceptedProfilesRoundTrip(t *testing.T) {
	for _, stutter := range []int{0, 1, 10, 255} {
		p := validProfile()
		p.Stutter = stutter
		p.Flags = tsf.Flags{Big: true, Backwards: true}

		got, err := Normalize(p)
		require.NoError(t, err)

		decoded, ok := tsf.Decode(tsf.Encode(got))
		require.True(t, ok)
		if diff := cmp.Diff(got, decoded, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("stutter %d: round trip mismatch (-normalized +decoded):\n%s", stutter, diff)
		}
	}
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	p := validProfile()
	p.TargetName = " Cat "
	_, err := Normalize(p)
	require.NoError(t, err)
	assert.Equal(t, " Cat ", p.TargetName)
}

func TestNormalize_NameLengthCountsRunes(t *testing.T) {
	p := validProfile()
	p.TargetName = "猫猫"
	_, err := Normalize(p)
	require.NoError(t, err)

	p.TargetName = "猫"
	_, err = Normalize(p)
	require.ErrorIs(t, err, ErrNameTooShort)
}

func TestNewEntry_DefaultChance(t *testing.T) {
	e, err := NewEntry(tsf.ListSprinkles, "purr", "")
	require.NoError(t, err)
	assert.Equal(t, "30", e.Value)

	_, err = NewEntry(tsf.ListCensors, "dog", "")
	require.ErrorIs(t, err, ErrInvalidEntry)

	e, err = NewEntry(tsf.ListCensors, "dog", "cat")
	require.NoError(t, err)
	assert.Equal(t, tsf.Entry{Content: "dog", Value: "cat"}, e)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "Cat.tsf", Filename("Cat"))
}

func TestIsValidation_Other(t *testing.T) {
	assert.False(t, IsValidation(errors.New("boom")))
	assert.False(t, IsValidation(ErrInvalidTSF))
}

func TestImageURLPattern(t *testing.T) {
	for _, s := range []string{"example.com", "i.imgur.com/abc.png", "http://a.b/c?d=e"} {
		assert.True(t, imageURLPattern.MatchString(s), s)
	}
	for _, s := range []string{"", "localhost", strings.Repeat("a", 10)} {
		assert.False(t, imageURLPattern.MatchString(s), s)
	}
}
