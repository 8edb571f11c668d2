package resume

import (
	"crypto/sha1"
	"encoding/hex"
	"net/url"
	"strings"
)

// Candidates returns the lookup keys for a raw content reference, in match
// priority order: the raw key, the key with any query string stripped, the
// percent-decoded key, the last path segment of the decoded key, and a
// content hash of the raw key. Duplicates are collapsed while preserving
// order.
func Candidates(rawKey string) []string {
	candidates := make([]string, 0, 5)
	seen := make(map[string]struct{}, 5)
	add := func(key string) {
		key = strings.TrimSpace(key)
		if key == "" {
			return
		}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		candidates = append(candidates, key)
	}

	add(rawKey)

	stripped := rawKey
	if idx := strings.IndexByte(stripped, '?'); idx >= 0 {
		stripped = stripped[:idx]
	}
	add(stripped)

	decoded := rawKey
	if unescaped, err := url.QueryUnescape(rawKey); err == nil {
		decoded = unescaped
	}
	add(decoded)

	if idx := strings.LastIndexByte(decoded, '/'); idx >= 0 && idx+1 < len(decoded) {
		add(decoded[idx+1:])
	}

	add(HashKey(rawKey))

	return candidates
}

// HashKey returns the content-hash form of a raw key.
func HashKey(rawKey string) string {
	sum := sha1.Sum([]byte(rawKey))
	return hex.EncodeToString(sum[:])
}
