package pricing

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/samber/lo"
)

// ErrEmptyCatalog is returned when a source decodes to zero usable entries.
var ErrEmptyCatalog = errors.New("pricing: catalog has no usable entries")

// Catalog maps model identifiers to rates. It is immutable once built and
// safe for concurrent reads.
type Catalog struct {
	// Source names where the catalog was loaded from.
	Source string
	// Fingerprint identifies the catalog contents.
	Fingerprint string

	rates map[string]ModelRate
}

// litellmEntry is the subset of a LiteLLM price-list entry we read.
type litellmEntry struct {
	Input           *float64 `json:"input_cost_per_token"`
	Output          *float64 `json:"output_cost_per_token"`
	CacheWrite      *float64 `json:"cache_creation_input_token_cost"`
	CacheRead       *float64 `json:"cache_read_input_token_cost"`
	InputAbove      *float64 `json:"input_cost_per_token_above_200k_tokens"`
	OutputAbove     *float64 `json:"output_cost_per_token_above_200k_tokens"`
	CacheWriteAbove *float64 `json:"cache_creation_input_token_cost_above_200k_tokens"`
	CacheReadAbove  *float64 `json:"cache_read_input_token_cost_above_200k_tokens"`
}

func (e litellmEntry) empty() bool {
	return e.Input == nil && e.Output == nil && e.CacheWrite == nil && e.CacheRead == nil &&
		e.InputAbove == nil && e.OutputAbove == nil && e.CacheWriteAbove == nil && e.CacheReadAbove == nil
}

func (e litellmEntry) rate() ModelRate {
	return ModelRate{
		Input:           deref(e.Input),
		Output:          deref(e.Output),
		CacheWrite:      deref(e.CacheWrite),
		CacheRead:       deref(e.CacheRead),
		InputAbove:      e.InputAbove,
		OutputAbove:     e.OutputAbove,
		CacheWriteAbove: e.CacheWriteAbove,
		CacheReadAbove:  e.CacheReadAbove,
	}
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

// docEntry is the schema example at the top of the LiteLLM list. It carries
// zero rates, so it would otherwise be a matchable free model.
const docEntry = "sample_spec"

// Decode parses a LiteLLM-shaped price list. Entries that are not objects,
// fail to decode, or carry none of the recognised rate fields are skipped,
// as is the documentation entry.
func Decode(source string, data []byte) (*Catalog, error) {
	var raw map[string]jsontext.Value
	if err := json.Unmarshal(data, &raw, jsontext.AllowDuplicateNames(true)); err != nil {
		return nil, fmt.Errorf("pricing: decoding %s catalog: %w", source, err)
	}

	rates := make(map[string]ModelRate, len(raw))
	for name, v := range raw {
		if name == docEntry || v.Kind() != '{' {
			continue
		}
		var e litellmEntry
		if err := json.Unmarshal(v, &e); err != nil || e.empty() {
			continue
		}
		rates[name] = e.rate()
	}
	if len(rates) == 0 {
		return nil, fmt.Errorf("%w (%s)", ErrEmptyCatalog, source)
	}

	sum := sha256.Sum256(data)
	return &Catalog{
		Source:      source,
		Fingerprint: fmt.Sprintf("%s:%d:%s", source, len(rates), hex.EncodeToString(sum[:8])),
		rates:       rates,
	}, nil
}

// NewCatalog builds a catalog from an explicit rate table.
func NewCatalog(source string, rates map[string]ModelRate) *Catalog {
	cp := make(map[string]ModelRate, len(rates))
	for k, v := range rates {
		cp[k] = v
	}
	return &Catalog{Source: source, Fingerprint: fmt.Sprintf("%s:%d", source, len(cp)), rates: cp}
}

// Len returns the number of models in the catalog.
func (c *Catalog) Len() int {
	return len(c.rates)
}

// Rate returns the rate stored under an exact key.
func (c *Catalog) Rate(key string) (ModelRate, bool) {
	r, ok := c.rates[key]
	return r, ok
}

// Keys returns all model identifiers, sorted.
func (c *Catalog) Keys() []string {
	keys := lo.Keys(c.rates)
	slices.Sort(keys)
	return keys
}
