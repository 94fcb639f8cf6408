package core

import (
	"regexp"

	"crowbar-packages/internal/types"
)

// BuildTemplateSchema composes the schema of a configuration template
// from the identifier, description, attributes, roles and deployment
// fragments.  A deep copy of attributes sits under attributes.<name>.
func BuildTemplateSchema(name string, attributes types.Rule) types.Rule {
	return types.Rule{
		Type:     types.RuleTypeMap,
		Required: true,
		Mapping: map[string]*types.Rule{
			"id":          identifierFragment(name),
			"description": descriptionFragment(),
			"attributes":  attributesFragment(name, attributes),
			"roles":       rolesFragment(),
			"deployment":  deploymentFragment(name),
		},
	}
}

func identifierFragment(name string) *types.Rule {
	return &types.Rule{
		Type:     types.RuleTypeStr,
		Required: true,
		Pattern:  "/^" + regexp.QuoteMeta(TemplateID(name)) + "$/",
	}
}

func descriptionFragment() *types.Rule {
	return &types.Rule{Type: types.RuleTypeStr, Required: true}
}

func attributesFragment(name string, attributes types.Rule) *types.Rule {
	return &types.Rule{
		Type:     types.RuleTypeMap,
		Required: true,
		Mapping:  map[string]*types.Rule{name: attributes.Clone()},
	}
}

func rolesFragment() *types.Rule {
	return &types.Rule{
		Type: types.RuleTypeMap,
		Mapping: map[string]*types.Rule{
			types.DefaultMappingKey: {
				Type: types.RuleTypeMap,
				Mapping: map[string]*types.Rule{
					"implicit":       {Type: types.RuleTypeBool},
					"admin_implicit": {Type: types.RuleTypeBool},
					"jig":            {Type: types.RuleTypeStr, Required: true},
				},
			},
		},
	}
}

func deploymentFragment(name string) *types.Rule {
	state := &types.Rule{
		Type:     types.RuleTypeMap,
		Required: true,
		Mapping: map[string]*types.Rule{
			"crowbar-revision":   {Type: types.RuleTypeInt, Required: true},
			"crowbar-committing": {Type: types.RuleTypeBool},
			"crowbar-queued":     {Type: types.RuleTypeBool},
			"element_states": {
				Type:    types.RuleTypeMap,
				Mapping: map[string]*types.Rule{types.DefaultMappingKey: stringList(false)},
			},
			"elements": {
				Type:     types.RuleTypeMap,
				Required: true,
				Mapping:  map[string]*types.Rule{types.DefaultMappingKey: stringList(false)},
			},
			"element_order": {
				Type:     types.RuleTypeSeq,
				Required: true,
				Sequence: []*types.Rule{stringList(false)},
			},
			"config": {
				Type:     types.RuleTypeMap,
				Required: true,
				Mapping: map[string]*types.Rule{
					"environment":     {Type: types.RuleTypeStr, Required: true},
					"mode":            {Type: types.RuleTypeStr, Required: true},
					"transitions":     {Type: types.RuleTypeBool, Required: true},
					"transition_list": stringList(true),
				},
			},
		},
	}
	return &types.Rule{
		Type:     types.RuleTypeMap,
		Required: true,
		Mapping:  map[string]*types.Rule{name: state},
	}
}

func stringList(required bool) *types.Rule {
	return &types.Rule{
		Type:     types.RuleTypeSeq,
		Required: required,
		Sequence: []*types.Rule{{Type: types.RuleTypeStr}},
	}
}
