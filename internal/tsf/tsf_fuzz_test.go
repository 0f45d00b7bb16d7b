package tsf

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func FuzzParse(f *testing.F) {
	f.Add(catTSF)
	f.Add(strings.Join(v1Fields, ";"))
	f.Add(strings.Join(v15Fields, ";"))
	f.Add(strings.Join(v1Fields, ";%"))
	f.Add("")
	f.Add("99;%a;%b")
	f.Add("2.0;%;%;%;%;%;%|%;%,%;%;%;%;%")

	f.Fuzz(func(t *testing.T, text string) {
		p, err := Parse(text)
		if err != nil {
			return
		}
		upgraded := Encode(p)
		again, err := Parse(upgraded)
		if err != nil {
			t.Fatalf("Parse(Encode(Parse(%q))) failed: %v", text, err)
		}
		p.Proxy = nil
		if diff := cmp.Diff(p, again, equateEmpty); diff != "" {
			t.Fatalf("upgrade of %q is not stable (-first +second):\n%s", text, diff)
		}
		if Encode(again) != upgraded {
			t.Fatalf("Encode not idempotent for %q", text)
		}
	})
}

func BenchmarkEncode(b *testing.B) {
	p := catProfile()
	for _, k := range ListKinds() {
		entries := make([]Entry, 16)
		for i := range entries {
			entries[i] = Entry{Content: "word", Value: "30"}
		}
		p.SetList(k, entries)
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		Encode(p)
	}
}

func BenchmarkDecode(b *testing.B) {
	text := strings.Join(v15Fields, ";")
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, ok := Decode(text); !ok {
			b.Fatal("decode failed")
		}
	}
}
