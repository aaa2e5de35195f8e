package order

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// NewNumber generates a human-readable order number from the current unix
// timestamp plus a random suffix. Uniqueness is enforced per store by the
// database; on a collision the caller regenerates and retries.
func NewNumber(now time.Time) string {
	var suffix [2]byte
	_, _ = rand.Read(suffix[:])
	return fmt.Sprintf("ORD-%d-%s", now.Unix(), strings.ToUpper(hex.EncodeToString(suffix[:])))
}
