// Package cache stores rendered artifacts and computed layouts so repeated
// exports of an unchanged document skip the work.
//
// # Backends
//
//   - [NullCache]: never stores anything (caching disabled)
//   - [FileCache]: one JSON file per entry under a directory, for the CLI
//   - [RedisCache]: shared cache for server instances
//
// Entries are keyed by content hash, so a stale entry is never served for
// a changed document; TTLs only bound disk and memory use.
package cache

import (
	"context"
	"strings"
	"time"
)

// Default entry lifetimes.
const (
	TTLLayout   = 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store with expiry.
type Cache interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl <= 0 never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	Close() error
}

// LayoutKeyOpts are the inputs of a layout besides the graph itself.
type LayoutKeyOpts struct {
	Style string `json:"style"`
}

// ArtifactKeyOpts are the inputs of a rendered artifact besides the graph.
type ArtifactKeyOpts struct {
	Format    string  `json:"format"`
	Theme     string  `json:"theme,omitempty"`
	Scale     float64 `json:"scale,omitempty"`
	Padding   float64 `json:"padding,omitempty"`
	Direction string  `json:"direction,omitempty"`
}

// Keyer derives cache keys.
type Keyer interface {
	LayoutKey(graphHash string, opts LayoutKeyOpts) string
	ArtifactKey(graphHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer builds keys of the form "<prefix><kind>:<sha256>".
type DefaultKeyer struct {
	Prefix string
}

// NewDefaultKeyer returns a keyer that prepends prefix to every key.
func NewDefaultKeyer(prefix string) Keyer {
	return DefaultKeyer{Prefix: prefix}
}

func (k DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return k.Prefix + hashKey("layout", graphHash, opts)
}

func (k DefaultKeyer) ArtifactKey(graphHash string, opts ArtifactKeyOpts) string {
	return k.Prefix + hashKey("artifact", graphHash, opts)
}

// KeyType returns the kind segment of a key built by [DefaultKeyer]
// ("layout" or "artifact"), used to label cache hooks.
func KeyType(key string) string {
	i := strings.LastIndexByte(key, ':')
	if i < 0 {
		return "other"
	}
	head := key[:i]
	switch kind := head[strings.LastIndexByte(head, ':')+1:]; kind {
	case "layout", "artifact":
		return kind
	}
	return "other"
}
