package types

import (
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

// Backend selects the packaging mechanism used in the build phase.
type Backend string

const (
	BackendArchive Backend = "archive"
	BackendRPM     Backend = "rpm"
	BackendDeb     Backend = "deb"
)

// Backends lists every supported backend in the order shown in usage text.
var Backends = []Backend{BackendArchive, BackendRPM, BackendDeb}

// ParseBackend maps a --type value onto a Backend.
func ParseBackend(value string) (Backend, error) {
	normalized := Backend(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return BackendArchive, nil
	}
	for _, backend := range Backends {
		if backend == normalized {
			return backend, nil
		}
	}
	return "", errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("unknown package type %q (expected archive, rpm or deb)", value))
}

type ValidationKind string

const (
	ValidationKindSchema ValidationKind = "schema"
	ValidationKindData   ValidationKind = "data"
)

// RuleType is the value of a schema rule's `type` key.
type RuleType string

const (
	RuleTypeStr       RuleType = "str"
	RuleTypeText      RuleType = "text"
	RuleTypeInt       RuleType = "int"
	RuleTypeFloat     RuleType = "float"
	RuleTypeNumber    RuleType = "number"
	RuleTypeBool      RuleType = "bool"
	RuleTypeScalar    RuleType = "scalar"
	RuleTypeDate      RuleType = "date"
	RuleTypeTimestamp RuleType = "timestamp"
	RuleTypeMap       RuleType = "map"
	RuleTypeSeq       RuleType = "seq"
	RuleTypeAny       RuleType = "any"
)
