package domain

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Business rule errors
var (
	ErrResultOutOfRange   = errors.New("result is out of range for this challenge type")
	ErrResultNotPositive  = errors.New("result must be a positive number")
	ErrMalformedResult    = errors.New("result is not a valid number")
	ErrMalformedBirthDate = errors.New("birth date must be in DD.MM.YYYY format")
	ErrBirthDateInFuture  = errors.New("birth date cannot be in the future")
)

// ResultBounds holds the allowed result interval for a challenge type
type ResultBounds struct {
	Min  float64
	Max  float64
	Unit string
}

var resultBounds = map[ChallengeType]ResultBounds{
	ChallengeTypePushUps: {Min: 1, Max: 500, Unit: "reps"},
	ChallengeTypeSquats:  {Min: 1, Max: 500, Unit: "reps"},
	ChallengeTypePlank:   {Min: 10, Max: 3600, Unit: "seconds"},
	ChallengeTypeRunning: {Min: 0.1, Max: 100, Unit: "km"},
	ChallengeTypeSteps:   {Min: 100, Max: 100000, Unit: "steps"},
}

// BoundsFor returns the result bounds for a challenge type
func BoundsFor(t ChallengeType) (ResultBounds, bool) {
	b, ok := resultBounds[t]
	return b, ok
}

// CheckResult validates a result value against the challenge type bounds
func CheckResult(t ChallengeType, value float64) error {
	if value <= 0 {
		return ErrResultNotPositive
	}

	b, ok := resultBounds[t]
	if !ok {
		return ErrInvalidChallengeType
	}
	if value < b.Min || value > b.Max {
		return ErrResultOutOfRange
	}

	return nil
}

// ParseResult parses a user-entered result value, accepting both comma
// and dot as decimal separator
func ParseResult(s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrMalformedResult
	}
	if v <= 0 {
		return 0, ErrResultNotPositive
	}

	return v, nil
}

// ValidFullName reports whether a full name passes the minimum length rule
func ValidFullName(name string) bool {
	return len([]rune(strings.TrimSpace(name))) >= 5
}

// ParseBirthDate parses a DD.MM.YYYY birth date and checks age bounds
func ParseBirthDate(s string, now time.Time) (time.Time, error) {
	d, err := time.Parse("02.01.2006", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, ErrMalformedBirthDate
	}
	if d.After(now) {
		return time.Time{}, ErrBirthDateInFuture
	}
	if age := AgeAt(d, now); age < 5 || age > 100 {
		return time.Time{}, ErrInvalidAge
	}

	return d, nil
}

// AgeAt returns full years between birth date and the reference time
func AgeAt(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}

	return age
}

var (
	nonDigitRe = regexp.MustCompile(`\D`)
	phoneRe    = regexp.MustCompile(`^(\+7|8|\+?\d{1,3})\d{10}$`)
)

// NormalizePhone strips everything except digits and a leading plus
func NormalizePhone(s string) string {
	s = strings.TrimSpace(s)
	plus := strings.HasPrefix(s, "+")
	digits := nonDigitRe.ReplaceAllString(s, "")
	if plus {
		return "+" + digits
	}

	return digits
}

// ValidPhone reports whether a phone number is acceptable after normalization
func ValidPhone(s string) bool {
	return phoneRe.MatchString(NormalizePhone(s))
}
