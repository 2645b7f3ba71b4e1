package domain

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestNextBibNumber(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		last   string
		want   string
	}{
		{"empty scope starts at 001", "REG", "", "REG001"},
		{"increments numeric suffix", "REG", "REG001", "REG002"},
		{"keeps zero padding", "CH", "CH041", "CH042"},
		{"grows beyond three digits", "RUN", "RUN999", "RUN1000"},
		{"prefix change is ignored", "TRN", "RUN007", "TRN008"},
		{"garbage without digits falls back", "REG", "garbage", "REG001"},
		{"digits in the middle are not a suffix", "CH", "CH12X", "CH001"},
		{"bare digits still increment", "REG", "41", "REG042"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextBibNumber(tt.prefix, tt.last)
			if got != tt.want {
				t.Errorf("NextBibNumber(%q, %q) = %q, want %q", tt.prefix, tt.last, got, tt.want)
			}
		})
	}
}

func TestNextBibNumberProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("numeric suffixes always increment by one", prop.ForAll(
		func(n int) bool {
			last := fmt.Sprintf("REG%03d", n)
			want := fmt.Sprintf("REG%03d", n+1)
			return NextBibNumber("REG", last) == want
		},
		gen.IntRange(1, 99999),
	))

	properties.Property("inputs without trailing digits fall back to 001", prop.ForAll(
		func(s string) bool {
			return NextBibNumber("CH", s+"x") == "CH001"
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

func TestBibPrefixForEvent(t *testing.T) {
	if got := BibPrefixForEvent(EventTypeRun); got != "RUN" {
		t.Errorf("run event prefix = %q, want RUN", got)
	}
	if got := BibPrefixForEvent(EventTypeTournament); got != "TRN" {
		t.Errorf("tournament prefix = %q, want TRN", got)
	}
}
