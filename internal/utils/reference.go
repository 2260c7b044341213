package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// GeneratePaymentReference returns a provider transaction reference of the
// form ORD-YYYYMMDD-HHMMSS-mmm-RRRRRR.
func GeneratePaymentReference() string {
	now := time.Now().UTC()

	datePart := now.Format("20060102-150405")
	millis := now.Nanosecond() / int(time.Millisecond)

	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		// fallback: time-based entropy
		n = big.NewInt(now.UnixNano() % 1000000)
	}

	return fmt.Sprintf(
		"ORD-%s-%03d-%06d",
		datePart,
		millis,
		n.Int64(),
	)
}
