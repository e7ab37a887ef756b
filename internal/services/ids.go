package services

import (
	"crypto/rand"
	"strconv"
	"strings"
	"time"
)

const base36Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

func randomBase36(n int) string {
	if n <= 0 {
		return ""
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// Extremely unlikely; fall back to a time-derived suffix.
		fallback := strings.ToUpper(strconv.FormatInt(time.Now().UnixNano(), 36))
		if len(fallback) >= n {
			return fallback[len(fallback)-n:]
		}
		return fallback
	}
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = base36Alphabet[int(b)%len(base36Alphabet)]
	}
	return string(out)
}

// newCatalogID builds IDs like PROD-8F3KQ01ZX for admin-created entries.
func newCatalogID(prefix string) string {
	return prefix + "-" + randomBase36(9)
}

// newOrderID builds IDs like SWC + base36 timestamp + 4 random characters.
// The timestamp segment keeps IDs roughly sortable by placement time.
func newOrderID(now time.Time) string {
	millis := now.UnixMilli()
	return "SWC" + strings.ToUpper(strconv.FormatInt(millis, 36)) + randomBase36(4)
}
