package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencatalog/powerbi-connector/pkg/pbierrors"
)

func baseRecipe() map[string]interface{} {
	return map[string]interface{}{
		"tenant_id":     "a949d688-67ee-4db6-809c-e325f4d49e9b",
		"client_id":     "client-xyz",
		"client_secret": "secret-xyz",
	}
}

func TestNewDefaults(t *testing.T) {
	cfg, err := New(baseRecipe())
	require.NoError(t, err)

	assert.Equal(t, "powerbi", cfg.PlatformName)
	assert.Equal(t, "urn:li:dataPlatform:powerbi", cfg.PlatformURN)
	assert.True(t, cfg.WorkspaceIDPattern.IsAllowAll())
	assert.Equal(t, 60, cfg.ScanTimeoutSeconds)
	assert.Equal(t, "PROD", cfg.Env)
	assert.Empty(t, cfg.PlatformInstance)

	assert.False(t, cfg.ExtractOwnership)
	assert.True(t, cfg.ExtractReports)
	assert.True(t, cfg.ExtractLineage)
	assert.False(t, cfg.ExtractEndorsementsToTags)
	assert.True(t, cfg.ExtractWorkspacesToContainers)
	assert.True(t, cfg.NativeQueryParsing)
	assert.False(t, cfg.ConvertURNsToLowercase)
	assert.True(t, cfg.ConvertLineageURNsToLowercase)
	assert.False(t, cfg.AdminAPIsOnly)

	assert.False(t, cfg.DatasetTypeMappingSet())
	assert.Len(t, cfg.DatasetTypeMapping, len(SupportedDataPlatforms))
	assert.Empty(t, cfg.ServerToPlatformInstance)
	assert.Nil(t, cfg.StatefulIngestion)
}

func TestNewMissingRequiredFields(t *testing.T) {
	for _, field := range []string{"tenant_id", "client_id", "client_secret"} {
		t.Run(field, func(t *testing.T) {
			raw := baseRecipe()
			delete(raw, field)

			cfg, err := New(raw)
			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.True(t, pbierrors.IsType(err, pbierrors.ErrorTypeMissingField))
			assert.Contains(t, err.Error(), field)
		})
	}
}

func TestWorkspaceSelectorBackwardCompatibility(t *testing.T) {
	t.Run("workspace_id folds into unset pattern", func(t *testing.T) {
		raw := baseRecipe()
		raw["workspace_id"] = "abc"

		cfg, err := New(raw)
		require.NoError(t, err)
		assert.Equal(t, []string{"^abc$"}, cfg.WorkspaceIDPattern.Allow)
		assert.Empty(t, cfg.WorkspaceIDPattern.Deny)

		// Anchoring means only the exact workspace id matches.
		assert.True(t, cfg.WorkspaceIDPattern.Allowed("abc"))
		assert.False(t, cfg.WorkspaceIDPattern.Allowed("abcdef"))
		assert.False(t, cfg.WorkspaceIDPattern.Allowed("xabc"))
	})

	t.Run("explicit pattern wins over workspace_id", func(t *testing.T) {
		raw := baseRecipe()
		raw["workspace_id"] = "abc"
		raw["workspace_id_pattern"] = map[string]interface{}{
			"allow": []interface{}{"^foo.*"},
		}

		cfg, err := New(raw)
		require.NoError(t, err)
		assert.Equal(t, []string{"^foo.*"}, cfg.WorkspaceIDPattern.Allow)
		assert.Empty(t, cfg.workspaceID)
	})

	t.Run("neither set keeps allow-all", func(t *testing.T) {
		cfg, err := New(baseRecipe())
		require.NoError(t, err)
		assert.True(t, cfg.WorkspaceIDPattern.IsAllowAll())
		assert.Empty(t, cfg.workspaceID)
	})

	t.Run("explicit allow-all pattern still folds workspace_id", func(t *testing.T) {
		// Structural equality with the default cannot distinguish an explicit
		// allow-all from an unset pattern, so the workspace id wins.
		raw := baseRecipe()
		raw["workspace_id"] = "abc"
		raw["workspace_id_pattern"] = map[string]interface{}{
			"allow": []interface{}{".*"},
		}

		cfg, err := New(raw)
		require.NoError(t, err)
		assert.Equal(t, []string{"^abc$"}, cfg.WorkspaceIDPattern.Allow)
	})
}

func TestDatasetTypeMappingConflict(t *testing.T) {
	raw := baseRecipe()
	raw["dataset_type_mapping"] = map[string]interface{}{"Snowflake": "snowflake"}
	raw["server_to_platform_instance"] = map[string]interface{}{
		"db.example.com": map[string]interface{}{"platform_instance": "prod-db"},
	}

	cfg, err := New(raw)
	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.True(t, pbierrors.IsType(err, pbierrors.ErrorTypeConflict))

	var e *pbierrors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "dataset_type_mapping is deprecated. Use server_to_platform_instance only.", e.Message)
}

func TestTypeErrors(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value interface{}
	}{
		{name: "string toggle", key: "extract_reports", value: "yes"},
		{name: "non-integer timeout", key: "scan_timeout", value: "sixty"},
		{name: "fractional timeout", key: "scan_timeout", value: 1.5},
		{name: "numeric tenant", key: "tenant_id", value: 42},
		{name: "scalar pattern", key: "workspace_id_pattern", value: "abc"},
		{name: "scalar dataset mapping", key: "dataset_type_mapping", value: 7},
		{name: "scalar server mapping value", key: "server_to_platform_instance",
			value: map[string]interface{}{"host": "not-a-detail"}},
		{name: "non-list allow", key: "workspace_id_pattern",
			value: map[string]interface{}{"allow": "abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := baseRecipe()
			raw[tt.key] = tt.value

			cfg, err := New(raw)
			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.True(t, pbierrors.IsType(err, pbierrors.ErrorTypeType))
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestDerivedFieldsIgnoreUserValues(t *testing.T) {
	raw := baseRecipe()
	raw["platform_name"] = "tableau"
	raw["platform_urn"] = "urn:li:dataPlatform:tableau"

	cfg, err := New(raw)
	require.NoError(t, err)
	assert.Equal(t, "powerbi", cfg.PlatformName)
	assert.Equal(t, "urn:li:dataPlatform:powerbi", cfg.PlatformURN)
}

func TestDatasetTypeMappingCoercion(t *testing.T) {
	raw := baseRecipe()
	raw["dataset_type_mapping"] = map[string]interface{}{
		"PostgreSql": "postgres",
		"Snowflake": map[string]interface{}{
			"platform_instance": "sf-main",
			"env":               "DEV",
		},
	}

	cfg, err := New(raw)
	require.NoError(t, err)
	assert.True(t, cfg.DatasetTypeMappingSet())

	// Legacy casing is rewritten before coercion.
	assert.NotContains(t, cfg.DatasetTypeMapping, "PostgreSql")
	entry, ok := cfg.DatasetTypeMapping["PostgreSQL"]
	require.True(t, ok)
	assert.Equal(t, "postgres", entry.CatalogPlatform)
	assert.Nil(t, entry.Detail)

	sf, ok := cfg.DatasetTypeMapping["Snowflake"]
	require.True(t, ok)
	require.NotNil(t, sf.Detail)
	assert.Equal(t, "sf-main", sf.Detail.PlatformInstance)
	assert.Equal(t, "DEV", sf.Detail.Env)
}

func TestServerToPlatformInstanceDefaults(t *testing.T) {
	raw := baseRecipe()
	raw["server_to_platform_instance"] = map[string]interface{}{
		"db.example.com:5439": map[string]interface{}{
			"platform_instance": "redshift-main",
		},
	}

	cfg, err := New(raw)
	require.NoError(t, err)

	detail, ok := cfg.ServerToPlatformInstance["db.example.com:5439"]
	require.True(t, ok)
	assert.Equal(t, "redshift-main", detail.PlatformInstance)
	assert.Equal(t, "PROD", detail.Env)
}

func TestStatefulIngestionPassthrough(t *testing.T) {
	raw := baseRecipe()
	raw["stateful_ingestion"] = map[string]interface{}{
		"enabled":               true,
		"remove_stale_metadata": false,
		"state_ttl_seconds":     3600,
	}

	cfg, err := New(raw)
	require.NoError(t, err)
	require.NotNil(t, cfg.StatefulIngestion)
	assert.True(t, cfg.StatefulIngestion.Enabled)
	assert.False(t, cfg.StatefulIngestion.RemoveStaleMetadata)
	assert.Equal(t, 3600, cfg.StatefulIngestion.StateTTLSeconds)
}

func TestScanTimeoutMustBePositive(t *testing.T) {
	raw := baseRecipe()
	raw["scan_timeout"] = 0

	cfg, err := New(raw)
	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.True(t, pbierrors.IsType(err, pbierrors.ErrorTypeValidation))
}

func TestNewDoesNotMutateInput(t *testing.T) {
	dtm := map[string]interface{}{"PostgreSql": "postgres"}
	raw := baseRecipe()
	raw["dataset_type_mapping"] = dtm

	_, err := New(raw)
	require.NoError(t, err)

	assert.Contains(t, dtm, "PostgreSql")
	assert.NotContains(t, dtm, "PostgreSQL")
}

func TestInvalidWorkspacePatternRejected(t *testing.T) {
	raw := baseRecipe()
	raw["workspace_id_pattern"] = map[string]interface{}{
		"allow": []interface{}{"["},
	}

	cfg, err := New(raw)
	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.True(t, pbierrors.IsType(err, pbierrors.ErrorTypeValidation))
}
