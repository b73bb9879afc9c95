package templater

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Cache keys derive solely from content, never from wall clock or
// object identity, so re-presenting identical inputs always hits.

// TemplateKey returns the parsed-template cache key: a stable hash over
// the sorted (path, content) pairs. Two logically identical part sets in
// different enumeration order collide on the same key.
func TemplateKey(parts []Part) string {
	sorted := make([]Part, len(parts))
	copy(sorted, parts)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Path != sorted[j].Path {
			return sorted[i].Path < sorted[j].Path
		}
		return sorted[i].Text < sorted[j].Text
	})

	digest := xxhash.New()
	for _, part := range sorted {
		writeLenPrefixed(digest, part.Path)
		writeLenPrefixed(digest, part.Text)
	}
	return "tpl_" + strconv.FormatUint(digest.Sum64(), 16)
}

// DocumentKey returns the rendered-document cache key, combining the
// template identity with hashes of the data tree and render options.
func DocumentKey(templateKey string, data TemplateData, opts Options) string {
	digest := xxhash.New()
	writeLenPrefixed(digest, templateKey)
	writeLenPrefixed(digest, hashValue(data))
	writeLenPrefixed(digest, hashValue(opts))
	return "doc_" + strconv.FormatUint(digest.Sum64(), 16)
}

// DataKey returns the transformed-data cache key for a transformation
// identifier applied to a serialized input.
func DataKey(transformID string, input interface{}) string {
	digest := xxhash.New()
	writeLenPrefixed(digest, transformID)
	writeLenPrefixed(digest, hashValue(input))
	return "dat_" + strconv.FormatUint(digest.Sum64(), 16)
}

// hashValue hashes an arbitrary serializable value. JSON marshaling
// sorts map keys, which keeps the digest stable across enumeration
// orders.
func hashValue(v interface{}) string {
	serialized, err := json.Marshal(v)
	if err != nil {
		serialized = []byte(fmt.Sprintf("%#v", v))
	}
	return strconv.FormatUint(xxhash.Sum64(serialized), 16)
}

func writeLenPrefixed(digest *xxhash.Digest, s string) {
	var lenBuf [8]byte
	n := len(s)
	for i := 0; i < 8; i++ {
		lenBuf[i] = byte(n >> (8 * i))
	}
	digest.Write(lenBuf[:])
	digest.WriteString(s)
}
