package utils

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"
)

// NewID returns a short best-effort unique identifier, used to correlate
// log lines of one connection across its lifetime.
func NewID() string {
	const size = 6

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err == nil {
		return hex.EncodeToString(buf)
	}

	// crypto/rand unavailable; a timestamp is unique enough for logs.
	return strconv.FormatInt(time.Now().UnixNano(), 36)
}
