// Package random produces short random strings, used to make generated
// slugs unique.
package random

import (
	crand "crypto/rand"
	"math/big"
	mrand "math/rand"
	"sync"
	"time"
)

const charset = "0123456789abcdefghijklmnopqrstuvwxyz"

var (
	fallbackMu sync.Mutex
	fallback   = mrand.New(mrand.NewSource(time.Now().UnixNano()))
)

// String returns length characters drawn from [0-9a-z]. It reads from
// crypto/rand and only falls back to math/rand if that fails.
func String(length int) string {
	b := make([]byte, length)
	max := big.NewInt(int64(len(charset)))
	for i := range b {
		n, err := crand.Int(crand.Reader, max)
		if err != nil {
			b[i] = charset[weak(len(charset))]
			continue
		}
		b[i] = charset[n.Int64()]
	}
	return string(b)
}

func weak(n int) int {
	fallbackMu.Lock()
	defer fallbackMu.Unlock()
	return fallback.Intn(n)
}
