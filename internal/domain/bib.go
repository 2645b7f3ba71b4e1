package domain

import (
	"fmt"
	"regexp"
	"strconv"
)

// Bib number prefixes
const (
	BibPrefixGlobal     = "REG"
	BibPrefixChallenge  = "CH"
	BibPrefixRun        = "RUN"
	BibPrefixTournament = "TRN"
)

var trailingDigitsRe = regexp.MustCompile(`(\d+)$`)

// NextBibNumber derives the next bib number in a scope from the last
// issued one. The numeric suffix is incremented and zero-padded to three
// digits; when last is empty or has no parsable suffix the sequence
// starts over at <prefix>001.
func NextBibNumber(prefix, last string) string {
	if last == "" {
		return prefix + "001"
	}

	m := trailingDigitsRe.FindStringSubmatch(last)
	if m == nil {
		return prefix + "001"
	}

	n, err := strconv.Atoi(m[1])
	if err != nil {
		return prefix + "001"
	}

	return fmt.Sprintf("%s%03d", prefix, n+1)
}

// BibPrefixForEvent returns the bib prefix used for registrations of the
// given event type
func BibPrefixForEvent(t EventType) string {
	if t == EventTypeTournament {
		return BibPrefixTournament
	}

	return BibPrefixRun
}
