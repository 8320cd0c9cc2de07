package mpesa

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassword(t *testing.T) {
	cases := []struct {
		shortCode, passKey, ts string
	}{
		{"174379", "bfb279f9aa9bdbcf158e97dd71a467cd2e0c893059b10f78e6b72ada1ed2c919", "20240101120000"},
		{"600000", "key", "20991231235959"},
		{"", "", ""},
	}
	for _, tc := range cases {
		got := Password(tc.shortCode, tc.passKey, tc.ts)
		assert.Equal(t, base64.StdEncoding.EncodeToString([]byte(tc.shortCode+tc.passKey+tc.ts)), got)
		assert.Equal(t, got, Password(tc.shortCode, tc.passKey, tc.ts))
	}
}

func TestTimestamp(t *testing.T) {
	loc := time.FixedZone("EAT", 3*60*60)
	ts := Timestamp(time.Date(2024, time.March, 5, 6, 7, 8, 0, time.UTC), loc)
	assert.Equal(t, "20240305090708", ts)
	assert.Len(t, ts, 14)

	parsed, err := time.ParseInLocation(TimestampLayout, ts, loc)
	require.NoError(t, err)
	assert.Equal(t, 9, parsed.Hour())
}

func TestTimestampDefaultsToLocal(t *testing.T) {
	now := time.Date(2025, time.January, 2, 3, 4, 5, 0, time.Local)
	assert.Equal(t, now.Format("20060102150405"), Timestamp(now, nil))
}
