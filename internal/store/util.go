package store

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// GenerateRunID creates a unique, time-ordered run ID.
// Format: run-<unix>-<hash>
// Example: run-1781513400-a3f9c2
func GenerateRunID(timestamp time.Time, contextID string) string {
	// Short hash over the context id and nanoseconds keeps ids unique when
	// two runs land in the same second.
	input := fmt.Sprintf("%s|%d", contextID, timestamp.UnixNano())
	hash := sha256.Sum256([]byte(input))
	shortHash := hex.EncodeToString(hash[:3])

	return fmt.Sprintf("run-%d-%s", timestamp.Unix(), shortHash)
}
