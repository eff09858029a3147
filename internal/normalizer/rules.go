package normalizer

import (
	"fmt"
	"regexp"
	"strings"
)

// Rule kinds accepted in data/rules.yaml
const (
	KindRegex   = "regex"
	KindLiteral = "literal"
	KindFunc    = "func"
)

// RewriteFunc is the callback behind a func rule. re is the rule's compiled
// pattern, nil when the rule declares none.
type RewriteFunc func(re *regexp.Regexp, s string) string

var rewriteFuncs = map[string]RewriteFunc{
	"fold_width":      func(_ *regexp.Regexp, s string) string { return FullwidthToHalfwidth(s) },
	"section_numeral": sectionNumeral,
}

var sectionNumerals = map[rune]string{
	'1': "一", '2': "二", '3': "三", '4': "四", '5': "五",
	'6': "六", '7': "七", '8': "八", '9': "九",
}

// sectionNumeral turns a lone digit 1-9 before 段 into its Chinese numeral.
// Multi-digit runs and 0 are kept.
func sectionNumeral(re *regexp.Regexp, s string) string {
	if re == nil {
		return s
	}
	return re.ReplaceAllStringFunc(s, func(m string) string {
		digits := []rune(strings.TrimSuffix(m, "段"))
		if len(digits) != 1 {
			return m
		}
		if zh, ok := sectionNumerals[digits[0]]; ok {
			return zh + "段"
		}
		return m
	})
}

// Rule is one compiled rewrite step
type Rule struct {
	Name    string
	Kind    string
	pattern string
	replace string
	re      *regexp.Regexp
	fn      RewriteFunc
}

// Apply runs the rule over s
func (r Rule) Apply(s string) string {
	switch r.Kind {
	case KindRegex:
		return r.re.ReplaceAllString(s, r.replace)
	case KindLiteral:
		return strings.ReplaceAll(s, r.pattern, r.replace)
	case KindFunc:
		return r.fn(r.re, s)
	}
	return s
}

// RuleSet is an ordered list of rules
type RuleSet []Rule

// Apply runs every rule in order
func (rs RuleSet) Apply(s string) string {
	for _, r := range rs {
		s = r.Apply(s)
	}
	return s
}

// Rule looks a rule up by name
func (rs RuleSet) Rule(name string) (Rule, bool) {
	for _, r := range rs {
		if r.Name == name {
			return r, true
		}
	}
	return Rule{}, false
}

// CompileRule turns a declared rule into a runnable one
func CompileRule(spec RuleSpec) (Rule, error) {
	r := Rule{Name: spec.Name, Kind: spec.Kind, pattern: spec.Pattern, replace: spec.Replace}
	switch spec.Kind {
	case KindRegex:
		re, err := regexp.Compile(spec.Pattern)
		if err != nil {
			return Rule{}, fmt.Errorf("rule %s: %w", spec.Name, err)
		}
		r.re = re
	case KindLiteral:
		if spec.Pattern == "" {
			return Rule{}, fmt.Errorf("rule %s: empty literal pattern", spec.Name)
		}
	case KindFunc:
		fn, ok := rewriteFuncs[spec.Func]
		if !ok {
			return Rule{}, fmt.Errorf("rule %s: unknown func %q", spec.Name, spec.Func)
		}
		r.fn = fn
		if spec.Pattern != "" {
			re, err := regexp.Compile(spec.Pattern)
			if err != nil {
				return Rule{}, fmt.Errorf("rule %s: %w", spec.Name, err)
			}
			r.re = re
		}
	default:
		return Rule{}, fmt.Errorf("rule %s: unknown kind %q", spec.Name, spec.Kind)
	}
	return r, nil
}

// CompileRuleSet compiles specs keeping their order
func CompileRuleSet(specs []RuleSpec) (RuleSet, error) {
	rs := make(RuleSet, 0, len(specs))
	for _, spec := range specs {
		r, err := CompileRule(spec)
		if err != nil {
			return nil, err
		}
		rs = append(rs, r)
	}
	return rs, nil
}
