// Package simhash fingerprints page layouts so a change in a resort page's
// structure can be noticed between runs.
package simhash

import (
	"hash/fnv"
	"math/bits"
	"strings"
	"sync"

	"golang.org/x/net/html"
)

// shingleSize is the number of consecutive layout tokens hashed together.
const shingleSize = 3

// Fingerprint computes a 64-bit SimHash over tokens using FNV-64a.
// It returns 0 for no tokens.
func Fingerprint(tokens []string) uint64 {
	if len(tokens) == 0 {
		return 0
	}

	var vector [64]int
	for _, tok := range tokens {
		h := fnv.New64a()
		h.Write([]byte(tok))
		sum := h.Sum64()
		for i := 0; i < 64; i++ {
			if sum&(1<<uint(i)) != 0 {
				vector[i]++
			} else {
				vector[i]--
			}
		}
	}

	var fp uint64
	for i, v := range vector {
		if v > 0 {
			fp |= 1 << uint(i)
		}
	}
	return fp
}

// Distance returns the Hamming distance between two fingerprints.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// Layout fingerprints the element structure of an HTML document. Text is
// ignored, so a lift flipping from Open to Closed does not move it; renamed
// ids, classes or a redesigned table do.
func Layout(document string) uint64 {
	tokens := layoutTokens(document)
	if len(tokens) < shingleSize {
		return Fingerprint(tokens)
	}
	shingles := make([]string, 0, len(tokens)-shingleSize+1)
	for i := 0; i+shingleSize <= len(tokens); i++ {
		shingles = append(shingles, strings.Join(tokens[i:i+shingleSize], " "))
	}
	return Fingerprint(shingles)
}

// layoutTokens lists start tags in document order as "tag#id.class".
func layoutTokens(document string) []string {
	z := html.NewTokenizer(strings.NewReader(document))
	var tokens []string
	for {
		switch z.Next() {
		case html.ErrorToken:
			return tokens
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			tok := string(name)
			for hasAttr {
				var key, val []byte
				key, val, hasAttr = z.TagAttr()
				switch string(key) {
				case "id":
					tok += "#" + string(val)
				case "class":
					if f := strings.Fields(string(val)); len(f) > 0 {
						tok += "." + f[0]
					}
				}
			}
			tokens = append(tokens, tok)
		}
	}
}

// Tracker remembers the last layout fingerprint per URL. It is safe for
// concurrent use.
type Tracker struct {
	mu     sync.Mutex
	prints map[string]uint64
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{prints: make(map[string]uint64)}
}

// Observe records the layout of document for url and returns its distance
// from the previous observation. seen is false on the first observation.
func (t *Tracker) Observe(url, document string) (distance int, seen bool) {
	fp := Layout(document)
	t.mu.Lock()
	defer t.mu.Unlock()
	prev, seen := t.prints[url]
	t.prints[url] = fp
	if !seen {
		return 0, false
	}
	return Distance(prev, fp), true
}
