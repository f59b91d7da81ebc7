package orders

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// NewOrderNumber generates a human-readable order number, also used as the
// merchant reference at the payment gateway. The 40-bit random suffix keeps
// collisions out of realistic daily volumes without a sequence table; the
// unique index on order_number is the backstop.
func NewOrderNumber(now time.Time) string {
	buf := make([]byte, 5)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), strings.ToUpper(hex.EncodeToString(buf)))
}
