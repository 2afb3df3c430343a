package ingest

import "strings"

// batchIndex tracks question text accepted earlier in the same call, keyed
// by resolved tag. It is owned by a single Ingest execution and never shared
// across calls.
type batchIndex map[string]map[string]struct{}

func (b batchIndex) key(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

func (b batchIndex) has(tagID, text string) bool {
	_, ok := b[tagID][b.key(text)]
	return ok
}

func (b batchIndex) add(tagID, text string) {
	texts, ok := b[tagID]
	if !ok {
		texts = make(map[string]struct{})
		b[tagID] = texts
	}
	texts[b.key(text)] = struct{}{}
}
