package normalizer

import (
	"strings"
	"sync"
)

// NoResultSentinel is returned by the no-result fallback when the original
// address carries no village name
const NoResultSentinel = "查詢失敗"

const villageMark = "里"

// SplitAddress is an address cut into the part sent to the lookup site and
// the trailing part kept for the final result
type SplitAddress struct {
	Original  string `json:"original"`
	Shortened string `json:"shortened"`
	Suffix    string `json:"suffix"`
}

// AddressNormalizer runs the rewrite rule sets over Taoyuan addresses.
// It holds no mutable state and is safe for concurrent use.
type AddressNormalizer struct {
	simplify           RuleSet
	format             RuleSet
	neighborhood       RuleSet
	delimiters         []string
	inclusiveDelimiter string
}

// NewAddressNormalizer builds a normalizer from the embedded rule file
func NewAddressNormalizer() (*AddressNormalizer, error) {
	config, err := LoadRulesConfig()
	if err != nil {
		return nil, err
	}
	return NewAddressNormalizerFromConfig(config)
}

// NewAddressNormalizerFromConfig builds a normalizer from decoded rules
func NewAddressNormalizerFromConfig(config *RulesConfig) (*AddressNormalizer, error) {
	simplify, err := CompileRuleSet(config.Simplify)
	if err != nil {
		return nil, err
	}
	format, err := CompileRuleSet(config.Format)
	if err != nil {
		return nil, err
	}
	neighborhood, err := CompileRuleSet(config.Neighborhood)
	if err != nil {
		return nil, err
	}
	return &AddressNormalizer{
		simplify:           simplify,
		format:             format,
		neighborhood:       neighborhood,
		delimiters:         config.SplitDelimiters,
		inclusiveDelimiter: config.InclusiveDelimiter,
	}, nil
}

// SimplifyAddress drops the village name after a district, strips
// neighborhood numbers, turns hyphens into 之 and splits the result at the
// earliest delimiter. 號 stays with the shortened part, any other delimiter
// starts the suffix.
func (n *AddressNormalizer) SimplifyAddress(address string) SplitAddress {
	rewritten := n.simplify.Apply(address)

	cut, delim := -1, ""
	for _, d := range n.delimiters {
		if i := strings.Index(rewritten, d); i >= 0 && (cut < 0 || i < cut) {
			cut, delim = i, d
		}
	}

	shortened, suffix := rewritten, ""
	if cut >= 0 {
		if delim == n.inclusiveDelimiter {
			cut += len(delim)
		}
		shortened, suffix = rewritten[:cut], rewritten[cut:]
	}

	return SplitAddress{
		Original:  strings.TrimSpace(address),
		Shortened: strings.TrimSpace(shortened),
		Suffix:    strings.TrimSpace(suffix),
	}
}

// FormatSimplifiedAddress folds width, drops spaces, turns hyphens into 之,
// trims leading zeros of neighborhood numbers and writes single digit road
// sections as Chinese numerals
func (n *AddressNormalizer) FormatSimplifiedAddress(address string) string {
	return strings.TrimSpace(n.format.Apply(address))
}

// RemoveLingWithCondition removes the text between 里 and the nearest
// following 鄰, the 鄰 included
func (n *AddressNormalizer) RemoveLingWithCondition(address string) string {
	return n.neighborhood.Apply(address)
}

// ProcessNoResultAddress is the best effort result when the lookup found
// nothing: the original address if it names a village, else the sentinel
func (n *AddressNormalizer) ProcessNoResultAddress(original string) string {
	if strings.Contains(original, villageMark) {
		return original
	}
	return NoResultSentinel
}

// Rule returns a named rule from any rule set, for callers that need a
// single step
func (n *AddressNormalizer) Rule(name string) (Rule, bool) {
	for _, rs := range []RuleSet{n.simplify, n.format, n.neighborhood} {
		if r, ok := rs.Rule(name); ok {
			return r, true
		}
	}
	return Rule{}, false
}

var (
	defaultOnce       sync.Once
	defaultNormalizer *AddressNormalizer
)

// Default returns the normalizer built from the embedded rules. The rule
// file ships with the binary, so a decode failure is a build defect.
func Default() *AddressNormalizer {
	defaultOnce.Do(func() {
		n, err := NewAddressNormalizer()
		if err != nil {
			panic(err)
		}
		defaultNormalizer = n
	})
	return defaultNormalizer
}

// SimplifyAddress runs the default normalizer's splitter
func SimplifyAddress(address string) SplitAddress {
	return Default().SimplifyAddress(address)
}

// FormatSimplifiedAddress runs the default normalizer's formatter
func FormatSimplifiedAddress(address string) string {
	return Default().FormatSimplifiedAddress(address)
}

// RemoveLingWithCondition runs the default normalizer's neighborhood remover
func RemoveLingWithCondition(address string) string {
	return Default().RemoveLingWithCondition(address)
}

// ProcessNoResultAddress runs the no-result fallback
func ProcessNoResultAddress(original string) string {
	return Default().ProcessNoResultAddress(original)
}
