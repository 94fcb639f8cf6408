// Package shared provides common utility functions used across multiple
// packages in the crowbar-packages codebase.
package shared

import (
	"fmt"
	"sort"
	"strings"
)

// NormalizePackageName replaces underscores with hyphens.  Case is kept
// as the manifest declares it.
func NormalizePackageName(value string) string {
	return strings.ReplaceAll(strings.TrimSpace(value), "_", "-")
}

// PrefixedPackageName joins a package prefix and a barclamp name.
func PrefixedPackageName(prefix string, name string) string {
	normalized := NormalizePackageName(name)
	if strings.TrimSpace(prefix) == "" {
		return normalized
	}
	return NormalizePackageName(prefix) + "-" + normalized
}

// UniqueSortedStrings trims values, drops blanks and duplicates, and
// returns the rest in lexical order.
func UniqueSortedStrings(values []string) []string {
	unique := map[string]struct{}{}
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		unique[trimmed] = struct{}{}
	}
	result := make([]string, 0, len(unique))
	for value := range unique {
		result = append(result, value)
	}
	sort.Strings(result)
	return result
}

// CommandError wraps a command execution error with its trimmed output
// for cleaner error messages.
func CommandError(output []byte, err error) error {
	return fmt.Errorf("%s: %w", strings.TrimSpace(string(output)), err)
}
