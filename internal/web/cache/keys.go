package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
)

// RequestKey derives a cache key from the method, path and raw query of r.
// The query is not reordered: the order of order[...] keys changes the
// rendered ORDER BY.
func RequestKey(r *http.Request) string {
	key := strings.Join([]string{r.Method, r.URL.Path, r.URL.RawQuery}, ":")
	hash := sha256.Sum256([]byte(key))
	return "http:" + hex.EncodeToString(hash[:16])
}
