package mpesa

import (
	"encoding/base64"
	"time"
)

// TimestampLayout is the fixed-width YYYYMMDDHHmmss format Daraja expects.
const TimestampLayout = "20060102150405"

// Timestamp formats t in loc (local time when loc is nil).
func Timestamp(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(TimestampLayout)
}

// Password returns base64(shortCode + passKey + timestamp). The same timestamp
// must be sent in the request body or Daraja rejects the push.
func Password(shortCode, passKey, timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(shortCode + passKey + timestamp))
}
