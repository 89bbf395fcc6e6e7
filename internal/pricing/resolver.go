package pricing

import (
	"strings"
	"sync"

	"github.com/theirongolddev/sessionlens/internal/model"
)

// providerPrefixes are tried, in order, when a model name has no exact entry.
var providerPrefixes = []string{
	"anthropic/",
	"claude/",
	"bedrock/",
	"vertex_ai/",
	"openrouter/anthropic/",
}

// MatchKind says how a model name was resolved.
type MatchKind string

// Resolution outcomes, in the order they are attempted.
const (
	MatchExact  MatchKind = "exact"
	MatchPrefix MatchKind = "prefix"
	MatchFuzzy  MatchKind = "fuzzy"
	MatchNone   MatchKind = "none"
)

// Match is the result of resolving a model name.
type Match struct {
	Model string
	Key   string
	Kind  MatchKind
	Rate  ModelRate
}

// Resolver resolves model names against one catalog. It is safe for
// concurrent use; resolutions are memoized per name.
type Resolver struct {
	catalog *Catalog
	lower   map[string]string // lowercased key -> key

	memo sync.Map // model name -> Match
}

// NewResolver returns a resolver over c.
func NewResolver(c *Catalog) *Resolver {
	lower := make(map[string]string, c.Len())
	for k := range c.rates {
		lower[strings.ToLower(k)] = k
	}
	return &Resolver{catalog: c, lower: lower}
}

// Catalog returns the catalog the resolver reads from.
func (r *Resolver) Catalog() *Catalog {
	return r.catalog
}

// Lookup resolves a model name: exact key, then provider-prefixed keys, then
// any key where one name contains the other (case-insensitive). When several
// keys match fuzzily the winner depends on map iteration order and is
// unspecified; it stays fixed for the life of the resolver. Unknown models
// resolve to a zero rate.
func (r *Resolver) Lookup(name string) Match {
	if m, ok := r.memo.Load(name); ok {
		return m.(Match)
	}
	m := r.resolve(name)
	actual, _ := r.memo.LoadOrStore(name, m)
	return actual.(Match)
}

func (r *Resolver) resolve(name string) Match {
	if rate, ok := r.catalog.rates[name]; ok {
		return Match{Model: name, Key: name, Kind: MatchExact, Rate: rate}
	}
	for _, p := range providerPrefixes {
		if rate, ok := r.catalog.rates[p+name]; ok {
			return Match{Model: name, Key: p + name, Kind: MatchPrefix, Rate: rate}
		}
	}

	needle := strings.ToLower(name)
	if needle != "" {
		for lk, key := range r.lower {
			if strings.Contains(lk, needle) || strings.Contains(needle, lk) {
				return Match{Model: name, Key: key, Kind: MatchFuzzy, Rate: r.catalog.rates[key]}
			}
		}
	}
	return Match{Model: name, Kind: MatchNone}
}

// Rate returns the resolved rate for a model name.
func (r *Resolver) Rate(name string) ModelRate {
	return r.Lookup(name).Rate
}

// Cost prices token counts for a model name. Unknown models cost zero.
func (r *Resolver) Cost(name string, t model.TokenCounts) float64 {
	return r.Lookup(name).Rate.Cost(t)
}
