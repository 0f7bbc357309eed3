package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencatalog/powerbi-connector/pkg/pbierrors"
)

func TestRulePlatformNameCasing(t *testing.T) {
	t.Run("rewrites legacy key", func(t *testing.T) {
		in := map[string]interface{}{
			"dataset_type_mapping": map[string]interface{}{
				"PostgreSql": "postgres",
				"Oracle":     "oracle",
			},
		}

		out, err := rulePlatformNameCasing(in)
		require.NoError(t, err)

		dtm, ok := asMap(out["dataset_type_mapping"])
		require.True(t, ok)
		assert.NotContains(t, dtm, "PostgreSql")
		assert.Equal(t, "postgres", dtm["PostgreSQL"])
		assert.Equal(t, "oracle", dtm["Oracle"])
	})

	t.Run("no-op when key absent", func(t *testing.T) {
		in := map[string]interface{}{
			"dataset_type_mapping": map[string]interface{}{"Oracle": "oracle"},
		}

		out, err := rulePlatformNameCasing(in)
		require.NoError(t, err)
		assert.Equal(t, in["dataset_type_mapping"], out["dataset_type_mapping"])
	})

	t.Run("no-op when mapping absent", func(t *testing.T) {
		out, err := rulePlatformNameCasing(map[string]interface{}{"tenant_id": "t"})
		require.NoError(t, err)
		assert.Equal(t, map[string]interface{}{"tenant_id": "t"}, out)
	})

	t.Run("legacy value wins when both casings present", func(t *testing.T) {
		in := map[string]interface{}{
			"dataset_type_mapping": map[string]interface{}{
				"PostgreSql": "postgres-legacy",
				"PostgreSQL": "postgres",
			},
		}

		out, err := rulePlatformNameCasing(in)
		require.NoError(t, err)

		dtm, ok := asMap(out["dataset_type_mapping"])
		require.True(t, ok)
		assert.Equal(t, "postgres-legacy", dtm["PostgreSQL"])
		assert.Len(t, dtm, 1)
	})

	t.Run("does not mutate input", func(t *testing.T) {
		inner := map[string]interface{}{"PostgreSql": "postgres"}
		in := map[string]interface{}{"dataset_type_mapping": inner}

		_, err := rulePlatformNameCasing(in)
		require.NoError(t, err)
		assert.Contains(t, inner, "PostgreSql")
		assert.NotContains(t, inner, "PostgreSQL")
	})
}

func TestRuleDatasetTypeExclusivity(t *testing.T) {
	t.Run("both set fails", func(t *testing.T) {
		in := map[string]interface{}{
			"dataset_type_mapping":        map[string]interface{}{"Oracle": "oracle"},
			"server_to_platform_instance": map[string]interface{}{},
		}

		out, err := ruleDatasetTypeExclusivity(in)
		assert.Nil(t, out)
		require.Error(t, err)
		assert.True(t, pbierrors.IsType(err, pbierrors.ErrorTypeConflict))
	})

	t.Run("only one set passes", func(t *testing.T) {
		in := map[string]interface{}{
			"dataset_type_mapping": map[string]interface{}{"Oracle": "oracle"},
		}

		out, err := ruleDatasetTypeExclusivity(in)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})

	t.Run("explicit null does not count", func(t *testing.T) {
		in := map[string]interface{}{
			"dataset_type_mapping":        nil,
			"server_to_platform_instance": map[string]interface{}{},
		}

		_, err := ruleDatasetTypeExclusivity(in)
		require.NoError(t, err)
	})
}

func TestNormalizeRawIdempotent(t *testing.T) {
	raw := map[string]interface{}{
		"tenant_id": "t",
		"dataset_type_mapping": map[string]interface{}{
			"PostgreSql": "postgres",
		},
	}

	once, err := NormalizeRaw(raw)
	require.NoError(t, err)
	twice, err := NormalizeRaw(once)
	require.NoError(t, err)

	assert.Equal(t, once, twice)
}

func TestNormalizeRawStopsAtFirstFailure(t *testing.T) {
	// The conflict fires before the casing rewrite ever runs.
	raw := map[string]interface{}{
		"dataset_type_mapping":        map[string]interface{}{"PostgreSql": "postgres"},
		"server_to_platform_instance": map[string]interface{}{},
	}

	out, err := NormalizeRaw(raw)
	assert.Nil(t, out)
	require.Error(t, err)
	assert.True(t, pbierrors.IsType(err, pbierrors.ErrorTypeConflict))
}
