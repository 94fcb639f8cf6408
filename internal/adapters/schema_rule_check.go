package adapters

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"

	"crowbar-packages/internal/types"
)

// ruleChecker reports rule combinations the structural meta schema
// cannot express.  Positions are looked up in the parsed YAML tree.
type ruleChecker struct {
	source string
	root   *yaml.Node
	found  []types.ValidationError
}

func (c *ruleChecker) check(rule *types.Rule, path []string) {
	if rule == nil {
		c.report(path, "rule must be a mapping")
		return
	}
	kind := rule.EffectiveType()

	if rule.Sequence != nil && kind != types.RuleTypeSeq {
		c.report(append(path, "sequence"), fmt.Sprintf("sequence is not allowed on %s rules", kind))
	}
	if kind == types.RuleTypeSeq && len(rule.Sequence) != 1 {
		c.report(path, fmt.Sprintf("seq rule needs exactly one sequence rule, found %d", len(rule.Sequence)))
	}
	if rule.Mapping != nil && kind != types.RuleTypeMap {
		c.report(append(path, "mapping"), fmt.Sprintf("mapping is not allowed on %s rules", kind))
	}
	if rule.Pattern != "" {
		if !isStringType(kind) {
			c.report(append(path, "pattern"), fmt.Sprintf("pattern is not allowed on %s rules", kind))
		} else if _, err := regexp.Compile(trimPattern(rule.Pattern)); err != nil {
			c.report(append(path, "pattern"), fmt.Sprintf("invalid pattern: %v", err))
		}
	}
	if len(rule.Enum) > 0 && !isScalarType(kind) {
		c.report(append(path, "enum"), fmt.Sprintf("enum is not allowed on %s rules", kind))
	}
	if rule.Range != nil && !isNumericType(kind) {
		c.report(append(path, "range"), fmt.Sprintf("range is not allowed on %s rules", kind))
	}
	if rule.Length != nil {
		if kind != types.RuleTypeStr && kind != types.RuleTypeText && kind != types.RuleTypeSeq {
			c.report(append(path, "length"), fmt.Sprintf("length is not allowed on %s rules", kind))
		} else {
			c.checkLength(rule.Length, append(path, "length"))
		}
	}
	if rule.Unique && kind != types.RuleTypeSeq {
		c.report(append(path, "unique"), fmt.Sprintf("unique is not allowed on %s rules", kind))
	}

	keys := make([]string, 0, len(rule.Mapping))
	for key := range rule.Mapping {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		c.check(rule.Mapping[key], append(clonePath(path), "mapping", key))
	}
	for index, child := range rule.Sequence {
		c.check(child, append(clonePath(path), "sequence", strconv.Itoa(index)))
	}
}

func (c *ruleChecker) checkLength(bounds *types.Bounds, path []string) {
	limits := map[string]*float64{"min": bounds.Min, "max": bounds.Max, "min-ex": bounds.MinEx, "max-ex": bounds.MaxEx}
	for _, name := range []string{"min", "max", "min-ex", "max-ex"} {
		value := limits[name]
		if value == nil {
			continue
		}
		if *value < 0 || *value != math.Trunc(*value) {
			c.report(append(clonePath(path), name), "length limits must be non-negative integers")
		}
	}
	if bounds.MaxEx != nil && *bounds.MaxEx < 1 {
		c.report(append(clonePath(path), "max-ex"), "length max-ex must be at least 1")
	}
}

func (c *ruleChecker) report(path []string, message string) {
	line, column := nodePosition(c.root, path)
	c.found = append(c.found, types.ValidationError{
		Kind:    types.ValidationKindSchema,
		Source:  c.source,
		Line:    line,
		Column:  column,
		Path:    formatPath(path),
		Message: message,
	})
}

// nodePosition returns the position of the deepest node of root that path
// reaches.
func nodePosition(root *yaml.Node, path []string) (int, int) {
	node := root
	if node == nil {
		return 0, 0
	}
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	for _, element := range path {
		next := childNode(node, element)
		if next == nil {
			break
		}
		node = next
	}
	return node.Line, node.Column
}

func childNode(node *yaml.Node, element string) *yaml.Node {
	switch node.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value == element {
				return node.Content[i+1]
			}
		}
	case yaml.SequenceNode:
		index, err := strconv.Atoi(element)
		if err == nil && index >= 0 && index < len(node.Content) {
			return node.Content[index]
		}
	}
	return nil
}

func clonePath(path []string) []string {
	return append([]string(nil), path...)
}

func isStringType(kind types.RuleType) bool {
	switch kind {
	case types.RuleTypeStr, types.RuleTypeText, types.RuleTypeScalar, types.RuleTypeDate, types.RuleTypeTimestamp:
		return true
	}
	return false
}

func isNumericType(kind types.RuleType) bool {
	switch kind {
	case types.RuleTypeInt, types.RuleTypeFloat, types.RuleTypeNumber, types.RuleTypeText, types.RuleTypeScalar:
		return true
	}
	return false
}

func isScalarType(kind types.RuleType) bool {
	return kind != types.RuleTypeMap && kind != types.RuleTypeSeq && kind != types.RuleTypeAny
}
