// Package config implements the configuration engine for the PowerBI
// metadata connector. It turns a raw recipe mapping into a single validated,
// internally consistent ConnectorConfig, or rejects it with one precise
// error.
//
// Construction runs in three one-directional stages:
//
//	RAW        — the untyped key→value mapping from the recipe
//	NORMALIZED — ordered rewrite rules applied (deprecated-field conflicts,
//	             legacy key casing, workspace selector folding)
//	VALIDATED  — typed, cross-field checked, immutable
//
// Failure at any stage is terminal for that construction attempt. Deprecated
// settings that have a documented fallback produce a warning and proceed;
// they never fail construction.
//
// Example:
//
//	raw, err := config.LoadRecipe("powerbi.yml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cfg, err := config.New(raw)
//	if err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"go.uber.org/zap"

	"github.com/opencatalog/powerbi-connector/pkg/logger"
	"github.com/opencatalog/powerbi-connector/pkg/pbierrors"
	"github.com/opencatalog/powerbi-connector/pkg/state"
)

const (
	// PlatformName is the catalog platform this connector emits for.
	PlatformName = "powerbi"

	// DefaultEnv is the environment assigned to platforms that do not
	// specify one.
	DefaultEnv = "PROD"

	// DefaultScanTimeoutSeconds bounds a single admin metadata scan.
	DefaultScanTimeoutSeconds = 60
)

// MakeDataPlatformURN builds the catalog urn for a platform name.
func MakeDataPlatformURN(platform string) string {
	return "urn:li:dataPlatform:" + platform
}

// PlatformDetail disambiguates a deployment of an upstream data platform
// within the target catalog.
type PlatformDetail struct {
	// PlatformInstance is the catalog platform instance name. To generate
	// correct urns for upstream datasets it must match the instance name used
	// by the recipes ingesting those platforms directly. Empty means no
	// instance.
	PlatformInstance string `yaml:"platform_instance" json:"platform_instance"`
	// Env is the environment the platform is located in.
	Env string `yaml:"env" json:"env"`
}

// DatasetTypeEntry is the value side of the deprecated dataset_type_mapping
// field: either a bare catalog platform name or a PlatformDetail object.
type DatasetTypeEntry struct {
	CatalogPlatform string
	Detail          *PlatformDetail
}

// ConnectorConfig is the validated, immutable configuration for one
// ingestion run. It is constructed once via New and shared read-only by the
// API client, the entity mapper, and the lineage extractor.
type ConnectorConfig struct {
	// PlatformName is fixed to "powerbi"; PlatformURN is derived from it.
	// Both are internal and never user-supplied.
	PlatformName string
	PlatformURN  string

	// TenantID is the PowerBI organization identifier.
	TenantID string
	// ClientID and ClientSecret are the Azure service-principal credentials.
	ClientID     string
	ClientSecret string

	// WorkspaceIDPattern filters the workspaces selected for ingestion.
	WorkspaceIDPattern AllowDenyPattern

	// workspaceID is the deprecated single-workspace selector. It exists only
	// transiently during normalization and is folded into WorkspaceIDPattern.
	workspaceID string

	// DatasetTypeMapping maps PowerBI datasource kinds to catalog platforms.
	// Deprecated in favour of ServerToPlatformInstance; the resolved default
	// covers every supported platform.
	DatasetTypeMapping map[string]DatasetTypeEntry
	// datasetTypeMappingSet records whether the user supplied the mapping
	// explicitly, as opposed to the schema default.
	datasetTypeMappingSet bool

	// ServerToPlatformInstance maps a datasource server host[:port] to the
	// catalog platform instance it belongs to. :port is only needed for
	// non-standard ports; for Google BigQuery the server is the project name.
	ServerToPlatformInstance map[string]PlatformDetail

	// ScanTimeoutSeconds bounds a single admin metadata scan. Interpreted by
	// the API client, not enforced here.
	ScanTimeoutSeconds int

	// Feature toggles.
	ExtractOwnership              bool
	ExtractReports                bool
	ExtractLineage                bool
	ExtractEndorsementsToTags     bool
	ExtractWorkspacesToContainers bool
	NativeQueryParsing            bool
	ConvertURNsToLowercase        bool
	ConvertLineageURNsToLowercase bool
	AdminAPIsOnly                 bool

	// PlatformInstance labels every asset produced by this recipe. Empty
	// means no instance.
	PlatformInstance string
	// Env is the environment assigned to emitted assets.
	Env string

	// StatefulIngestion is carried opaquely for the stateful-ingestion
	// collaborator. Nil when not configured.
	StatefulIngestion *state.StatefulRemovalConfig
}

// newDefault returns a ConnectorConfig with every documented default applied
// and derived fields computed.
func newDefault() *ConnectorConfig {
	return &ConnectorConfig{
		PlatformName:                  PlatformName,
		PlatformURN:                   MakeDataPlatformURN(PlatformName),
		WorkspaceIDPattern:            AllowAll(),
		DatasetTypeMapping:            DefaultDatasetTypeMapping(),
		ServerToPlatformInstance:      map[string]PlatformDetail{},
		ScanTimeoutSeconds:            DefaultScanTimeoutSeconds,
		ExtractOwnership:              false,
		ExtractReports:                true,
		ExtractLineage:                true,
		ExtractEndorsementsToTags:     false,
		ExtractWorkspacesToContainers: true,
		NativeQueryParsing:            true,
		ConvertURNsToLowercase:        false,
		ConvertLineageURNsToLowercase: true,
		AdminAPIsOnly:                 false,
		Env:                           DefaultEnv,
	}
}

// New constructs a validated ConnectorConfig from a raw recipe mapping. The
// input mapping is never mutated. On failure exactly one structured error is
// returned and no partial configuration is produced.
func New(raw map[string]interface{}) (*ConnectorConfig, error) {
	normalized, err := NormalizeRaw(raw)
	if err != nil {
		return nil, err
	}

	cfg := newDefault()
	if err := applySchema(cfg, normalized); err != nil {
		return nil, err
	}

	cfg.normalizeWorkspaceSelector()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// normalizeWorkspaceSelector folds the deprecated workspace_id selector into
// WorkspaceIDPattern. An explicitly customized pattern always wins; an unset
// pattern is replaced with an exact-match pattern for the workspace id.
func (c *ConnectorConfig) normalizeWorkspaceSelector() {
	if c.workspaceID == "" {
		return
	}

	if c.WorkspaceIDPattern.IsAllowAll() {
		logger.Warn("workspace_id_pattern is not set but workspace_id is set, using workspace_id as "+
			"workspace_id_pattern; workspace_id is deprecated, please use workspace_id_pattern instead",
			zap.String("workspace_id", c.workspaceID))
		c.WorkspaceIDPattern = AllowDenyPattern{
			Allow: []string{"^" + c.workspaceID + "$"},
			Deny:  []string{},
		}
		return
	}

	logger.Warn("workspace_id will be ignored in favour of workspace_id_pattern; workspace_id is " +
		"deprecated, please use workspace_id_pattern only")
	c.workspaceID = ""
}

// validate asserts cross-field consistency after individual fields have been
// coerced.
func (c *ConnectorConfig) validate() error {
	required := []struct {
		key   string
		value string
	}{
		{"tenant_id", c.TenantID},
		{"client_id", c.ClientID},
		{"client_secret", c.ClientSecret},
	}
	for _, f := range required {
		if f.value == "" {
			return pbierrors.NewMissingFieldError(f.key)
		}
	}

	if err := c.WorkspaceIDPattern.Compile(); err != nil {
		return err
	}

	if c.ScanTimeoutSeconds <= 0 {
		return pbierrors.New(pbierrors.ErrorTypeValidation, "scan_timeout must be positive")
	}
	return nil
}

// DatasetTypeMappingSet reports whether the deprecated dataset_type_mapping
// field was supplied explicitly rather than filled from the schema default.
func (c *ConnectorConfig) DatasetTypeMappingSet() bool {
	return c.datasetTypeMappingSet
}
