// Package cache stores extracted video metadata for a short time so repeated
// requests for the same URL skip the extraction.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

const keyPrefix = "vpick:metadata:"

// Cache stores JSON-serializable values under string keys.
type Cache interface {
	// Get decodes the value stored under key into dst and reports whether
	// it was found.
	Get(ctx context.Context, key string, dst any) bool
	Set(ctx context.Context, key string, value any, ttl time.Duration)
	Stats() Stats
}

// Stats holds cache counters.
type Stats struct {
	Hits   int64
	Misses int64
	Sets   int64
}

// Key derives a fixed-length cache key from a video URL.
func Key(url string) string {
	sum := sha256.Sum256([]byte(url))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// Nop is a disabled cache: every lookup misses.
type Nop struct{}

func (Nop) Get(context.Context, string, any) bool          { return false }
func (Nop) Set(context.Context, string, any, time.Duration) {}
func (Nop) Stats() Stats                                   { return Stats{} }
