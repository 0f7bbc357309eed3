package config

import (
	"github.com/opencatalog/powerbi-connector/pkg/pbierrors"
)

// legacyPostgresKey is the misspelled datasource kind accepted by old
// recipes. M-Query names the platform "PostgreSQL".
const legacyPostgresKey = "PostgreSql"

// RawRule is one rewrite step of the normalization pipeline. Apply must
// treat its input as read-only and return a new mapping, so each rule stays
// independently testable. Rules run in order and evaluation stops at the
// first failure.
type RawRule struct {
	Name  string
	Apply func(map[string]interface{}) (map[string]interface{}, error)
}

// RawRules returns the ordered normalization pipeline applied to the raw
// mapping before type coercion. Every rule is idempotent, so re-normalizing
// an already normalized mapping is a no-op.
func RawRules() []RawRule {
	return []RawRule{
		// The exclusivity guard runs first, on raw key presence, so a
		// schema-default dataset_type_mapping can never trigger it and no
		// later rule observes a conflicting mapping.
		{Name: "dataset-type-mapping-exclusivity", Apply: ruleDatasetTypeExclusivity},
		{Name: "platform-name-casing", Apply: rulePlatformNameCasing},
	}
}

// NormalizeRaw runs the full pipeline over a copy of raw. The input is never
// mutated. On failure the single offending rule's error is returned and no
// mapping is produced.
func NormalizeRaw(raw map[string]interface{}) (map[string]interface{}, error) {
	m := copyMap(raw)
	for _, rule := range RawRules() {
		next, err := rule.Apply(m)
		if err != nil {
			return nil, err
		}
		m = next
	}
	return m, nil
}

// ruleDatasetTypeExclusivity rejects recipes that set both the deprecated
// dataset_type_mapping and its replacement. Only explicit, non-null values
// count.
func ruleDatasetTypeExclusivity(m map[string]interface{}) (map[string]interface{}, error) {
	if m["dataset_type_mapping"] != nil && m["server_to_platform_instance"] != nil {
		return nil, pbierrors.NewConflictError(
			"dataset_type_mapping",
			"server_to_platform_instance",
			"dataset_type_mapping is deprecated. Use server_to_platform_instance only.",
		)
	}
	return copyMap(m), nil
}

// rulePlatformNameCasing rewrites the legacy "PostgreSql" key inside
// dataset_type_mapping to the canonical "PostgreSQL", preserving the mapped
// value. The mapping is otherwise passed through unchanged; a no-op if the
// key or the mapping is absent.
func rulePlatformNameCasing(m map[string]interface{}) (map[string]interface{}, error) {
	out := copyMap(m)

	dtm, ok := asMap(out["dataset_type_mapping"])
	if !ok {
		return out, nil
	}
	value, ok := dtm[legacyPostgresKey]
	if !ok {
		return out, nil
	}

	fixed := make(map[string]interface{}, len(dtm))
	for k, v := range dtm {
		if k != legacyPostgresKey {
			fixed[k] = v
		}
	}
	fixed["PostgreSQL"] = value

	out["dataset_type_mapping"] = fixed
	return out, nil
}

// copyMap returns a shallow copy of m. Rules that rewrite nested mappings
// copy those separately before mutating.
func copyMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
