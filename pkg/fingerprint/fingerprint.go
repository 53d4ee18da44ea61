// Package fingerprint creates deterministic hashes of record data
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"

	"github.com/Lion2cat/rawBeans/pkg/models"
)

// VolatileFields change between runs without the offering changing
var VolatileFields = map[string]bool{
	models.FieldUpdatedAt: true,
}

// GenerateWithExclusions creates a SHA256 fingerprint of the canonicalized data, excluding specified fields.
// The excludeFields set contains dot-notation paths to exclude (e.g. "updated_at", "weight.unit").
func GenerateWithExclusions(data map[string]any, excludeFields map[string]bool) string {
	canonical := canonicalizeWithExclusions(data, excludeFields, "")
	hash := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(hash[:])
}

// Record fingerprints one record, ignoring volatile fields
func Record(record models.Record) string {
	return GenerateWithExclusions(record.Raw(), VolatileFields)
}

// Catalog fingerprints an ordered catalog. Order is part of the fingerprint.
func Catalog(records []models.Record) string {
	items := make([]any, 0, len(records))
	for _, r := range records {
		items = append(items, map[string]any(r.Raw()))
	}
	canonical := canonicalizeArrayWithExclusions(items, VolatileFields, "")
	hash := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(hash[:])
}

// canonicalizeWithExclusions creates a deterministic string with field exclusions.
// currentPath tracks the dot-notation path for nested field matching.
func canonicalizeWithExclusions(data any, excludeFields map[string]bool, currentPath string) string {
	switch v := data.(type) {
	case map[string]any:
		return canonicalizeMapWithExclusions(v, excludeFields, currentPath)
	case models.RawRecord:
		return canonicalizeMapWithExclusions(v, excludeFields, currentPath)
	case []any:
		return canonicalizeArrayWithExclusions(v, excludeFields, currentPath)
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}

func canonicalizeMapWithExclusions(m map[string]any, excludeFields map[string]bool, currentPath string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var result strings.Builder
	result.WriteString("{")
	first := true
	for _, k := range keys {
		fieldPath := k
		if currentPath != "" {
			fieldPath = currentPath + "." + k
		}
		if shouldExcludeField(fieldPath, excludeFields) {
			continue
		}

		if !first {
			result.WriteString(",")
		}
		first = false
		keyJSON, _ := json.Marshal(k)
		result.Write(keyJSON)
		result.WriteString(":")
		result.WriteString(canonicalizeWithExclusions(m[k], excludeFields, fieldPath))
	}
	result.WriteString("}")
	return result.String()
}

func canonicalizeArrayWithExclusions(arr []any, excludeFields map[string]bool, currentPath string) string {
	var result strings.Builder
	result.WriteString("[")
	for i, v := range arr {
		if i > 0 {
			result.WriteString(",")
		}
		// Array elements share the parent path
		result.WriteString(canonicalizeWithExclusions(v, excludeFields, currentPath))
	}
	result.WriteString("]")
	return result.String()
}

// shouldExcludeField checks exact matches and parent-object prefixes
func shouldExcludeField(fieldPath string, excludeFields map[string]bool) bool {
	if excludeFields == nil {
		return false
	}
	if excludeFields[fieldPath] {
		return true
	}
	for excluded := range excludeFields {
		if strings.HasPrefix(fieldPath, excluded+".") {
			return true
		}
	}
	return false
}
