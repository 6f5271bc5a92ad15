package util

import (
	"fmt"
	"sync/atomic"
	"time"
)

var sequence atomic.Uint64

// GenerateID generates a time-based identifier. The sequence suffix keeps
// IDs minted within the same second distinct.
func GenerateID() string {
	return fmt.Sprintf("%s-%06d", time.Now().UTC().Format("20060102150405"), sequence.Add(1)%1000000)
}
