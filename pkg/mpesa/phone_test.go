package mpesa

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"0712345678":      "254712345678",
		"+254712345678":   "254712345678",
		"254712345678":    "254712345678",
		" 0712345678 ":    "254712345678",
		"0110000000":      "254110000000",
		"712345678":       "712345678",
		"123":             "123",
		"":                "",
		"+1555000111":     "+1555000111",
		"2540712345678":   "2540712345678",
		"+254 712 345678": "254 712 345678",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizePhone(in), "input %q", in)
	}
}

func TestNormalizePhoneEquivalentForms(t *testing.T) {
	a := NormalizePhone("0712345678")
	b := NormalizePhone("+254712345678")
	c := NormalizePhone("254712345678")
	assert.Equal(t, a, b)
	assert.Equal(t, b, c)
}

func TestMajorUnits(t *testing.T) {
	cases := []struct {
		minor int64
		want  int64
	}{
		{150, 2},
		{149, 1},
		{100, 1},
		{2999, 30},
		{50, 1},
		{49, 0},
		{1, 0},
		{100000, 1000},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, MajorUnits(tc.minor), "minor=%d", tc.minor)
	}
}
