package services

import (
	"math/rand"
	"time"
)

const suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
const suffixLength = 6

// NewTrackSortKey mints the sort-key pair for a fresh ledger row: the current
// unix epoch plus a short random suffix that breaks ties between rows created
// in the same second.
func NewTrackSortKey() (int64, string) {
	buf := make([]byte, suffixLength)
	for i := range buf {
		buf[i] = suffixAlphabet[rand.Intn(len(suffixAlphabet))]
	}
	return time.Now().Unix(), string(buf)
}
