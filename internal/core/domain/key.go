package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CacheKeyPrefix namespaces every cache entry written by this service
const CacheKeyPrefix = "masjid:v1:"

const emptyKeyPart = "-"

// CacheKey encodes (content type, collection, sub-collection, id|listing) unambiguously.
// Ids are only unique within a type and collection, so all parts take part in the key.
type CacheKey struct {
	Collection
	Suffix string
}

// RecordKey addresses a single record
func RecordKey(ref ContentRef) CacheKey {
	return CacheKey{Collection: ref.Collection, Suffix: strconv.Itoa(ref.ID)}
}

// ListKey addresses the full-set listing of a collection
func ListKey(c Collection) CacheKey {
	return CacheKey{Collection: c, Suffix: "all"}
}

// PageKey addresses the inclusive id window [from, to] of a collection
func PageKey(c Collection, from, to int) CacheKey {
	return CacheKey{Collection: c, Suffix: fmt.Sprintf("page:%d-%d", from, to)}
}

// String returns the storage key
func (k CacheKey) String() string {
	return TypePrefix(k.Type) + keyPart(k.Name) + ":" + keyPart(k.SubCollection) + ":" + k.Suffix
}

// TypePrefix returns the key prefix shared by every entry of a content type
func TypePrefix(t ContentType) string {
	return CacheKeyPrefix + string(t) + ":"
}

func keyPart(s string) string {
	if s == "" {
		return emptyKeyPart
	}
	return s
}

// ValidKeyPart reports whether s only uses characters that cannot collide with the separator
func ValidKeyPart(s string) bool {
	if s == emptyKeyPart {
		return false
	}
	return strings.IndexFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_' || r == '-')
	}) == -1
}

// CacheEntry is the serialized form of a cached value.
// Exactly one of Record and Records is set.
type CacheEntry struct {
	Key       string    `json:"key"`
	FetchedAt time.Time `json:"fetched_at"`
	TTLNanos  int64     `json:"ttl_ns"`
	Record    *Record   `json:"record,omitempty"`
	Records   []*Record `json:"records,omitempty"`
	IsList    bool      `json:"is_list,omitempty"`
}

// TTL returns the entry's time-to-live
func (e *CacheEntry) TTL() time.Duration {
	return time.Duration(e.TTLNanos)
}

// Expired reports whether now is past fetched_at + ttl
func (e *CacheEntry) Expired(now time.Time) bool {
	return now.After(e.FetchedAt.Add(e.TTL()))
}
