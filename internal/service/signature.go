package service

import (
	"crypto/md5" //nolint:gosec // Last.fm's api_sig scheme is defined as MD5
	"encoding/hex"
	"sort"
	"strings"
)

// Sign computes a Last.fm style api_sig: parameter names sorted, each name
// immediately followed by its value, the shared secret appended, MD5 over the
// UTF-8 bytes, lowercase hex.
func Sign(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(params[k])
	}
	b.WriteString(secret)

	sum := md5.Sum([]byte(b.String())) //nolint:gosec
	return hex.EncodeToString(sum[:])
}
