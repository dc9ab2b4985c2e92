package names

import "strings"

// MatchKind says how a name was resolved.
type MatchKind int

const (
	NoMatch MatchKind = iota
	// MatchExact: same normalized key.
	MatchExact
	// MatchSubstring: one key contains the other (prefixes included).
	MatchSubstring
	// MatchTokens: the names share at least half of the shorter one's words.
	MatchTokens
)

func (k MatchKind) String() string {
	switch k {
	case MatchExact:
		return "exact"
	case MatchSubstring:
		return "substring"
	case MatchTokens:
		return "tokens"
	default:
		return "none"
	}
}

func (k MatchKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Lookup resolves free-form names against a fixed set of keys. Fallback
// matches scan keys in the order they were given, so results are stable.
type Lookup struct {
	keys []string
	set  map[string]struct{}
}

// NewLookup normalizes and dedupes keys, keeping first-seen order.
func NewLookup(keys []string) *Lookup {
	l := &Lookup{set: make(map[string]struct{}, len(keys))}
	for _, k := range keys {
		k = Key(k)
		if k == "" {
			continue
		}
		if _, ok := l.set[k]; ok {
			continue
		}
		l.set[k] = struct{}{}
		l.keys = append(l.keys, k)
	}
	return l
}

// Keys returns the normalized keys in lookup order.
func (l *Lookup) Keys() []string {
	return append([]string(nil), l.keys...)
}

func (l *Lookup) Len() int { return len(l.keys) }

// Resolve finds the key matching name: exact key first, then a key that
// contains or is contained in the name, then a key sharing enough words.
func (l *Lookup) Resolve(name string) (string, MatchKind, bool) {
	if l == nil {
		return "", NoMatch, false
	}
	k := Key(name)
	if k == "" {
		return "", NoMatch, false
	}
	if _, ok := l.set[k]; ok {
		return k, MatchExact, true
	}
	for _, x := range l.keys {
		if strings.Contains(x, k) || strings.Contains(k, x) {
			return x, MatchSubstring, true
		}
	}
	want := Tokens(k)
	for _, x := range l.keys {
		if TokenOverlap(Tokens(x), want) {
			return x, MatchTokens, true
		}
	}
	return "", NoMatch, false
}

// TokenOverlap reports whether a and b share at least one word and at least
// half of the shorter list's words.
func TokenOverlap(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	in := make(map[string]struct{}, len(b))
	for _, w := range b {
		in[w] = struct{}{}
	}
	shared := 0
	seen := make(map[string]struct{}, len(a))
	for _, w := range a {
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		if _, ok := in[w]; ok {
			shared++
		}
	}
	smaller := min(len(a), len(b))
	return shared >= 1 && 2*shared >= smaller
}
