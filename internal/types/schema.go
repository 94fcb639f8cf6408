package types

import "cuelang.org/go/cue"

// DefaultMappingKey is the mapping key whose rule applies to every key
// that is not listed explicitly.
const DefaultMappingKey = "="

// Rule is one node of a schema document.  Schema files are YAML documents
// whose root is a Rule; nested rules hang off Mapping and Sequence.
//
// Example:
//
//	type: map
//	mapping:
//	  id:   { type: str, required: true, pattern: "/^bc-template-dns$/" }
//	  tags: { type: seq, sequence: [ { type: str } ] }
type Rule struct {
	// Type defaults to map when Mapping is set, seq when Sequence is set
	// and str otherwise.
	Type     RuleType `yaml:"type,omitempty"`
	Required bool     `yaml:"required,omitempty"`

	// Pattern is an RE2 expression, optionally wrapped in slashes.
	Pattern string  `yaml:"pattern,omitempty"`
	Enum    []any   `yaml:"enum,omitempty"`
	Range   *Bounds `yaml:"range,omitempty"`
	Length  *Bounds `yaml:"length,omitempty"`
	Unique  bool    `yaml:"unique,omitempty"`

	Name string `yaml:"name,omitempty"`
	Desc string `yaml:"desc,omitempty"`

	Mapping  map[string]*Rule `yaml:"mapping,omitempty"`
	Sequence []*Rule          `yaml:"sequence,omitempty"`
}

// Bounds constrains a numeric value (range) or a string/sequence size
// (length).  The -ex variants are exclusive.
type Bounds struct {
	Min   *float64 `yaml:"min,omitempty"`
	Max   *float64 `yaml:"max,omitempty"`
	MinEx *float64 `yaml:"min-ex,omitempty"`
	MaxEx *float64 `yaml:"max-ex,omitempty"`
}

// EffectiveType resolves the implicit type of a rule.
func (r *Rule) EffectiveType() RuleType {
	if r.Type != "" {
		return r.Type
	}
	if r.Mapping != nil {
		return RuleTypeMap
	}
	if r.Sequence != nil {
		return RuleTypeSeq
	}
	return RuleTypeStr
}

// CompiledSchema is a self-consistent schema ready to validate documents.
type CompiledSchema struct {
	// Name is the source base name with the .schema suffix stripped.
	Name   string
	Source string
	Rule   Rule

	// Value is the compiled definition.  It belongs to the cue.Context of
	// the compiler that produced it.
	Value cue.Value
}

// Clone returns a deep copy of the rule tree.
func (r *Rule) Clone() *Rule {
	if r == nil {
		return nil
	}
	clone := *r
	clone.Enum = append([]any(nil), r.Enum...)
	clone.Range = r.Range.clone()
	clone.Length = r.Length.clone()
	if r.Mapping != nil {
		clone.Mapping = make(map[string]*Rule, len(r.Mapping))
		for key, rule := range r.Mapping {
			clone.Mapping[key] = rule.Clone()
		}
	}
	if r.Sequence != nil {
		clone.Sequence = make([]*Rule, len(r.Sequence))
		for i, rule := range r.Sequence {
			clone.Sequence[i] = rule.Clone()
		}
	}
	return &clone
}

func (b *Bounds) clone() *Bounds {
	if b == nil {
		return nil
	}
	return &Bounds{
		Min:   cloneFloat(b.Min),
		Max:   cloneFloat(b.Max),
		MinEx: cloneFloat(b.MinEx),
		MaxEx: cloneFloat(b.MaxEx),
	}
}

func cloneFloat(value *float64) *float64 {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}
