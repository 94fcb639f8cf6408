package adapters

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"cuelang.org/go/cue/literal"

	"crowbar-packages/internal/types"
)

// SchemaDefinition is the definition every translated schema exposes.
const SchemaDefinition = "#Schema"

// cueTranslator renders a checked rule tree as CUE source.  Builtin
// packages are imported only when a rule needs them.
type cueTranslator struct {
	imports map[string]bool
}

func translateRule(rule *types.Rule) string {
	t := &cueTranslator{imports: map[string]bool{}}
	body := t.rule(rule)

	var builder strings.Builder
	names := make([]string, 0, len(t.imports))
	for name := range t.imports {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		builder.WriteString("import " + strconv.Quote(name) + "\n")
	}
	if len(names) > 0 {
		builder.WriteString("\n")
	}
	builder.WriteString(SchemaDefinition + ": " + body + "\n")
	return builder.String()
}

func (t *cueTranslator) rule(rule *types.Rule) string {
	var expr string
	switch rule.EffectiveType() {
	case types.RuleTypeStr, types.RuleTypeDate, types.RuleTypeTimestamp:
		expr = t.stringExpr(rule)
	case types.RuleTypeText:
		expr = "(" + t.stringExpr(rule) + " | " + t.numberExpr("number", rule) + ")"
	case types.RuleTypeInt:
		expr = t.numberExpr("int", rule)
	case types.RuleTypeFloat, types.RuleTypeNumber:
		expr = t.numberExpr("number", rule)
	case types.RuleTypeBool:
		expr = "bool"
	case types.RuleTypeScalar:
		expr = "(" + t.stringExpr(rule) + " | " + t.numberExpr("number", rule) + " | bool)"
	case types.RuleTypeMap:
		expr = t.mapExpr(rule)
	case types.RuleTypeSeq:
		expr = t.seqExpr(rule)
	default:
		expr = "_"
	}
	if len(rule.Enum) > 0 {
		values := make([]string, 0, len(rule.Enum))
		for _, value := range rule.Enum {
			values = append(values, scalarLiteral(value))
		}
		expr = "(" + expr + " & (" + strings.Join(values, " | ") + "))"
	}
	return expr
}

func (t *cueTranslator) stringExpr(rule *types.Rule) string {
	parts := []string{"string"}
	if rule.Pattern != "" {
		parts = append(parts, "=~"+literal.String.Quote(trimPattern(rule.Pattern)))
	}
	if rule.Length != nil {
		lower, upper := lengthLimits(rule.Length)
		if lower >= 0 {
			t.imports["strings"] = true
			parts = append(parts, "strings.MinRunes("+strconv.Itoa(lower)+")")
		}
		if upper >= 0 {
			t.imports["strings"] = true
			parts = append(parts, "strings.MaxRunes("+strconv.Itoa(upper)+")")
		}
	}
	return group(parts)
}

func (t *cueTranslator) numberExpr(kind string, rule *types.Rule) string {
	parts := []string{kind}
	if bounds := rule.Range; bounds != nil {
		if bounds.Min != nil {
			parts = append(parts, ">="+formatNumber(*bounds.Min))
		}
		if bounds.MinEx != nil {
			parts = append(parts, ">"+formatNumber(*bounds.MinEx))
		}
		if bounds.Max != nil {
			parts = append(parts, "<="+formatNumber(*bounds.Max))
		}
		if bounds.MaxEx != nil {
			parts = append(parts, "<"+formatNumber(*bounds.MaxEx))
		}
	}
	return group(parts)
}

func (t *cueTranslator) mapExpr(rule *types.Rule) string {
	if rule.Mapping == nil {
		return "{...}"
	}
	keys := make([]string, 0, len(rule.Mapping))
	for key := range rule.Mapping {
		if key != types.DefaultMappingKey {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	fields := make([]string, 0, len(rule.Mapping))
	for _, key := range keys {
		child := rule.Mapping[key]
		if child.Required {
			fields = append(fields, literal.Label.Quote(key)+"!: "+t.rule(child))
			continue
		}
		fields = append(fields, literal.Label.Quote(key)+"?: "+t.nullable(child))
	}
	if fallback, ok := rule.Mapping[types.DefaultMappingKey]; ok {
		label := "string"
		if len(keys) > 0 {
			quoted := make([]string, 0, len(keys))
			for _, key := range keys {
				quoted = append(quoted, regexp.QuoteMeta(key))
			}
			label = "!~" + literal.String.Quote("^("+strings.Join(quoted, "|")+")$")
		}
		value := t.rule(fallback)
		if !fallback.Required {
			value = t.nullable(fallback)
		}
		fields = append(fields, "["+label+"]: "+value)
	}
	return "{" + strings.Join(fields, ", ") + "}"
}

func (t *cueTranslator) seqExpr(rule *types.Rule) string {
	element := "_"
	if len(rule.Sequence) == 1 {
		element = t.rule(rule.Sequence[0])
	}
	parts := []string{"[..." + element + "]"}
	if rule.Length != nil {
		lower, upper := lengthLimits(rule.Length)
		if lower >= 0 {
			t.imports["list"] = true
			parts = append(parts, "list.MinItems("+strconv.Itoa(lower)+")")
		}
		if upper >= 0 {
			t.imports["list"] = true
			parts = append(parts, "list.MaxItems("+strconv.Itoa(upper)+")")
		}
	}
	if rule.Unique {
		t.imports["list"] = true
		parts = append(parts, "list.UniqueItems()")
	}
	return group(parts)
}

func (t *cueTranslator) nullable(rule *types.Rule) string {
	return "(" + t.rule(rule) + " | null)"
}

func group(parts []string) string {
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, " & ") + ")"
}

// lengthLimits turns length bounds into inclusive limits.  A negative
// limit means unbounded.
func lengthLimits(bounds *types.Bounds) (int, int) {
	lower, upper := -1, -1
	if bounds.Min != nil {
		lower = int(math.Ceil(*bounds.Min))
	}
	if bounds.MinEx != nil {
		lower = max(lower, int(math.Floor(*bounds.MinEx))+1)
	}
	if bounds.Max != nil {
		upper = int(math.Floor(*bounds.Max))
	}
	if bounds.MaxEx != nil {
		limit := int(math.Ceil(*bounds.MaxEx)) - 1
		if upper < 0 || limit < upper {
			upper = limit
		}
	}
	return lower, upper
}

// trimPattern strips the optional slashes around a pattern.
func trimPattern(pattern string) string {
	if len(pattern) >= 2 && strings.HasPrefix(pattern, "/") && strings.HasSuffix(pattern, "/") {
		return pattern[1 : len(pattern)-1]
	}
	return pattern
}

func formatNumber(value float64) string {
	return strconv.FormatFloat(value, 'g', -1, 64)
}

func scalarLiteral(value any) string {
	switch v := value.(type) {
	case string:
		return literal.String.Quote(v)
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return formatNumber(v)
	default:
		return "_|_"
	}
}
