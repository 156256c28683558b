// Package phone canonicalizes phone numbers so call log numbers can be compared
// with the normalized numbers stored in the contact directory.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
	"golang.org/x/text/width"
)

// Formatter is the region-aware formatting capability.
type Formatter interface {
	// FormatE164 returns number in E.164 form for region. ok is false when the
	// number cannot be parsed or is not a valid number for that region.
	FormatE164(number, region string) (e164 string, ok bool)
}

// LibFormatter formats with libphonenumber metadata.
type LibFormatter struct{}

func (LibFormatter) FormatE164(number, region string) (string, bool) {
	num, err := phonenumbers.Parse(number, region)
	if err != nil {
		return "", false
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", false
	}
	return phonenumbers.Format(num, phonenumbers.E164), true
}

// Normalizer turns raw numbers into canonical, comparable strings.
// A Normalizer without a Formatter is a pass-through.
type Normalizer struct {
	formatter Formatter
}

func NewNormalizer(f Formatter) *Normalizer {
	return &Normalizer{formatter: f}
}

// Default returns a normalizer backed by libphonenumber.
func Default() *Normalizer { return NewNormalizer(LibFormatter{}) }

// Available reports whether region-aware formatting can be applied.
func (n *Normalizer) Available() bool { return n != nil && n.formatter != nil }

// Normalize returns the canonical form of raw for region.
//
// With no region or no formatting capability raw is returned unchanged.
// Otherwise the result holds only digits and an optional leading '+': the E.164
// form when the number is valid for the region, the stripped input when it is not.
// Normalize is idempotent for a fixed region.
func (n *Normalizer) Normalize(raw, region string) string {
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" || !n.Available() {
		return raw
	}
	s := Strip(raw)
	if s == "" {
		return s
	}
	if e164, ok := n.formatter.FormatE164(s, region); ok {
		return Strip(e164)
	}
	return s
}

// Strip removes formatting punctuation. Keypad letters become digits and a '+'
// survives only as the first character of the result.
func Strip(raw string) string {
	raw = width.Fold.String(raw)
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+':
			if b.Len() == 0 {
				b.WriteRune(r)
			}
		default:
			if d, ok := keypad(r); ok {
				b.WriteByte(d)
			}
		}
	}
	return b.String()
}

func keypad(r rune) (byte, bool) {
	if r >= 'a' && r <= 'z' {
		r -= 'a' - 'A'
	}
	switch {
	case r >= 'A' && r <= 'C':
		return '2', true
	case r >= 'D' && r <= 'F':
		return '3', true
	case r >= 'G' && r <= 'I':
		return '4', true
	case r >= 'J' && r <= 'L':
		return '5', true
	case r >= 'M' && r <= 'O':
		return '6', true
	case r >= 'P' && r <= 'S':
		return '7', true
	case r >= 'T' && r <= 'V':
		return '8', true
	case r >= 'W' && r <= 'Z':
		return '9', true
	default:
		return 0, false
	}
}
