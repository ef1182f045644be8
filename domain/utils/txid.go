package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// GenerateTransactionID returns {prefix}{yyyyMMddHHmmss}{4 random digits}
func GenerateTransactionID(prefix string, at time.Time) string {
	return fmt.Sprintf("%s%s%04d", prefix, at.Format("20060102150405"), randomDigits(10000))
}

func randomDigits(limit int64) int64 {
	n, err := rand.Int(rand.Reader, big.NewInt(limit))
	if err != nil {
		// crypto/rand only fails when the OS entropy source is broken
		return time.Now().UnixNano() % limit
	}
	return n.Int64()
}
