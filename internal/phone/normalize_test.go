package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubFormatter map[string]string

func (s stubFormatter) FormatE164(number, region string) (string, bool) {
	v, ok := s[region+"|"+number]
	return v, ok
}

func TestNormalize_NoRegionReturnsRaw(t *testing.T) {
	n := Default()
	assert.Equal(t, "(650) 253-0000", n.Normalize("(650) 253-0000", ""))
	assert.Equal(t, "(650) 253-0000", n.Normalize("(650) 253-0000", "   "))
}

func TestNormalize_NoCapabilityReturnsRaw(t *testing.T) {
	n := NewNormalizer(nil)
	assert.False(t, n.Available())
	assert.Equal(t, "650-253-0000", n.Normalize("650-253-0000", "US"))

	var nilNormalizer *Normalizer
	assert.Equal(t, "650-253-0000", nilNormalizer.Normalize("650-253-0000", "US"))
}

func TestNormalize_ValidNumberBecomesE164(t *testing.T) {
	n := Default()
	assert.Equal(t, "+16502530000", n.Normalize("(650) 253-0000", "US"))
	assert.Equal(t, "+16502530000", n.Normalize("650.253.0000", "us"))
	assert.Equal(t, "+16502530000", n.Normalize("+1 650 253 0000", "US"))
}

func TestNormalize_InvalidNumberIsStripped(t *testing.T) {
	n := Default()
	assert.Equal(t, "5551234", n.Normalize("555-1234", "US"))
	assert.Equal(t, "", n.Normalize("--", "US"))
}

func TestNormalize_UsesFormatterOnStrippedInput(t *testing.T) {
	n := NewNormalizer(stubFormatter{"GB|02079460000": "+44 20 7946 0000"})
	assert.Equal(t, "+442079460000", n.Normalize("020 7946 0000", "GB"))
}

func TestNormalize_Idempotent(t *testing.T) {
	n := Default()
	inputs := []string{
		"",
		"555-1234",
		"(650) 253-0000",
		"+1 (650) 253-0000",
		"1-800-FLOWERS",
		"++15551234567",
		"６５０２５３００００",
		"anonymous",
		"*67 650 253 0000",
		"+44 20 7946 0000",
		"0044 20 7946 0000",
		"12",
	}
	for _, in := range inputs {
		once := n.Normalize(in, "US")
		assert.Equal(t, once, n.Normalize(once, "US"), "input %q", in)
	}
}

func TestStrip(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"(555) 123-4567", "5551234567"},
		{"+1 555 123 4567", "+15551234567"},
		{"1+555", "1555"},
		{"1-800-FLOWERS", "18003569377"},
		{"１２３", "123"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Strip(tt.in), "input %q", tt.in)
		assert.Equal(t, Strip(tt.in), Strip(Strip(tt.in)))
	}
}
