package config

import (
	"go.uber.org/zap"

	"github.com/opencatalog/powerbi-connector/pkg/logger"
	"github.com/opencatalog/powerbi-connector/pkg/pbierrors"
	"github.com/opencatalog/powerbi-connector/pkg/state"
)

// deprecation records the migration path for a field that remains
// functionally live until normalization removes or folds it.
type deprecation struct {
	replacement string
	message     string
	// warn emits the migration message when the field is supplied. Fields
	// whose warnings are owned by a normalization rule leave this false.
	warn bool
}

// fieldSpec declares one recognized recipe key: its expected type, whether
// it is required, its deprecation status, and how a coerced value is applied
// to the configuration under construction. Specs are evaluated in order.
type fieldSpec struct {
	key      string
	typeName string
	required bool
	// hidden marks derived, internal-only fields. A user-supplied value is
	// ignored rather than rejected.
	hidden     bool
	deprecated *deprecation
	assign     func(c *ConnectorConfig, v interface{}) error
}

// fieldSpecs returns the complete, ordered field schema.
func fieldSpecs() []fieldSpec {
	return []fieldSpec{
		{key: "platform_name", typeName: "string", hidden: true},
		{key: "platform_urn", typeName: "string", hidden: true},
		{
			key: "tenant_id", typeName: "string", required: true,
			assign: func(c *ConnectorConfig, v interface{}) error {
				return assignString(&c.TenantID, "tenant_id", v)
			},
		},
		{
			key: "workspace_id", typeName: "string",
			deprecated: &deprecation{replacement: "workspace_id_pattern"},
			assign: func(c *ConnectorConfig, v interface{}) error {
				return assignString(&c.workspaceID, "workspace_id", v)
			},
		},
		{
			key: "workspace_id_pattern", typeName: "allow/deny pattern",
			assign: assignWorkspaceIDPattern,
		},
		{
			key: "dataset_type_mapping", typeName: "mapping of string to string or platform detail",
			deprecated: &deprecation{
				replacement: "server_to_platform_instance",
				message:     "dataset_type_mapping is deprecated, use server_to_platform_instance instead",
				warn:        true,
			},
			assign: assignDatasetTypeMapping,
		},
		{
			key: "server_to_platform_instance", typeName: "mapping of string to platform detail",
			assign: assignServerToPlatformInstance,
		},
		{
			key: "client_id", typeName: "string", required: true,
			assign: func(c *ConnectorConfig, v interface{}) error {
				return assignString(&c.ClientID, "client_id", v)
			},
		},
		{
			key: "client_secret", typeName: "string", required: true,
			assign: func(c *ConnectorConfig, v interface{}) error {
				return assignString(&c.ClientSecret, "client_secret", v)
			},
		},
		{
			key: "scan_timeout", typeName: "integer",
			assign: func(c *ConnectorConfig, v interface{}) error {
				return assignInt(&c.ScanTimeoutSeconds, "scan_timeout", v)
			},
		},
		{
			key: "extract_ownership", typeName: "boolean",
			assign: func(c *ConnectorConfig, v interface{}) error {
				return assignBool(&c.ExtractOwnership, "extract_ownership", v)
			},
		},
		{
			key: "extract_reports", typeName: "boolean",
			assign: func(c *ConnectorConfig, v interface{}) error {
				return assignBool(&c.ExtractReports, "extract_reports", v)
			},
		},
		{
			key: "extract_lineage", typeName: "boolean",
			assign: func(c *ConnectorConfig, v interface{}) error {
				return assignBool(&c.ExtractLineage, "extract_lineage", v)
			},
		},
		{
			key: "extract_endorsements_to_tags", typeName: "boolean",
			assign: func(c *ConnectorConfig, v interface{}) error {
				return assignBool(&c.ExtractEndorsementsToTags, "extract_endorsements_to_tags", v)
			},
		},
		{
			key: "extract_workspaces_to_containers", typeName: "boolean",
			assign: func(c *ConnectorConfig, v interface{}) error {
				return assignBool(&c.ExtractWorkspacesToContainers, "extract_workspaces_to_containers", v)
			},
		},
		{
			key: "native_query_parsing", typeName: "boolean",
			assign: func(c *ConnectorConfig, v interface{}) error {
				return assignBool(&c.NativeQueryParsing, "native_query_parsing", v)
			},
		},
		{
			key: "convert_urns_to_lowercase", typeName: "boolean",
			assign: func(c *ConnectorConfig, v interface{}) error {
				return assignBool(&c.ConvertURNsToLowercase, "convert_urns_to_lowercase", v)
			},
		},
		{
			key: "convert_lineage_urns_to_lowercase", typeName: "boolean",
			assign: func(c *ConnectorConfig, v interface{}) error {
				return assignBool(&c.ConvertLineageURNsToLowercase, "convert_lineage_urns_to_lowercase", v)
			},
		},
		{
			key: "stateful_ingestion", typeName: "mapping",
			assign: func(c *ConnectorConfig, v interface{}) error {
				m, ok := asMap(v)
				if !ok {
					return pbierrors.NewTypeError("stateful_ingestion", "mapping")
				}
				c.StatefulIngestion = state.FromMap(m)
				return nil
			},
		},
		{
			key: "admin_apis_only", typeName: "boolean",
			assign: func(c *ConnectorConfig, v interface{}) error {
				return assignBool(&c.AdminAPIsOnly, "admin_apis_only", v)
			},
		},
		{
			key: "platform_instance", typeName: "string",
			assign: func(c *ConnectorConfig, v interface{}) error {
				return assignString(&c.PlatformInstance, "platform_instance", v)
			},
		},
		{
			key: "env", typeName: "string",
			assign: func(c *ConnectorConfig, v interface{}) error {
				return assignString(&c.Env, "env", v)
			},
		},
	}
}

// applySchema coerces the normalized mapping into the configuration under
// construction, field by field in schema order. The first coercion failure
// or missing required field aborts construction.
func applySchema(c *ConnectorConfig, m map[string]interface{}) error {
	specs := fieldSpecs()
	known := make(map[string]struct{}, len(specs))

	for _, spec := range specs {
		known[spec.key] = struct{}{}

		v, ok := m[spec.key]
		if !ok || v == nil {
			if spec.required {
				return pbierrors.NewMissingFieldError(spec.key)
			}
			continue
		}

		if spec.hidden {
			logger.Debug("ignoring user-supplied value for derived field",
				zap.String("field", spec.key))
			continue
		}

		if spec.deprecated != nil && spec.deprecated.warn {
			logger.Warn(spec.deprecated.message,
				zap.String("field", spec.key),
				zap.String("use_instead", spec.deprecated.replacement))
		}

		if err := spec.assign(c, v); err != nil {
			return err
		}
	}

	for key := range m {
		if _, ok := known[key]; !ok {
			logger.Warn("unrecognized configuration key", zap.String("field", key))
		}
	}
	return nil
}

func assignString(dst *string, field string, v interface{}) error {
	s, ok := v.(string)
	if !ok {
		return pbierrors.NewTypeError(field, "string")
	}
	*dst = s
	return nil
}

func assignBool(dst *bool, field string, v interface{}) error {
	b, ok := v.(bool)
	if !ok {
		return pbierrors.NewTypeError(field, "boolean")
	}
	*dst = b
	return nil
}

// assignInt accepts the integer representations YAML and JSON decoders
// produce for whole numbers.
func assignInt(dst *int, field string, v interface{}) error {
	switch n := v.(type) {
	case int:
		*dst = n
	case int64:
		*dst = int(n)
	case uint64:
		*dst = int(n)
	case float64:
		if n != float64(int(n)) {
			return pbierrors.NewTypeError(field, "integer")
		}
		*dst = int(n)
	default:
		return pbierrors.NewTypeError(field, "integer")
	}
	return nil
}

func assignWorkspaceIDPattern(c *ConnectorConfig, v interface{}) error {
	m, ok := asMap(v)
	if !ok {
		return pbierrors.NewTypeError("workspace_id_pattern", "allow/deny pattern")
	}

	// Keys not supplied keep their allow-all defaults, so a deny-only
	// pattern still allows everything not denied.
	p := AllowAll()
	if raw, ok := m["allow"]; ok {
		allow, ok := asStringSlice(raw)
		if !ok {
			return pbierrors.NewTypeError("workspace_id_pattern.allow", "list of strings")
		}
		p.Allow = allow
	}
	if raw, ok := m["deny"]; ok {
		deny, ok := asStringSlice(raw)
		if !ok {
			return pbierrors.NewTypeError("workspace_id_pattern.deny", "list of strings")
		}
		p.Deny = deny
	}

	c.WorkspaceIDPattern = p
	return nil
}

func assignDatasetTypeMapping(c *ConnectorConfig, v interface{}) error {
	m, ok := asMap(v)
	if !ok {
		return pbierrors.NewTypeError("dataset_type_mapping", "mapping of string to string or platform detail")
	}

	entries := make(map[string]DatasetTypeEntry, len(m))
	for kind, raw := range m {
		if s, ok := raw.(string); ok {
			entries[kind] = DatasetTypeEntry{CatalogPlatform: s}
			continue
		}
		dm, ok := asMap(raw)
		if !ok {
			return pbierrors.NewTypeError("dataset_type_mapping", "mapping of string to string or platform detail")
		}
		detail, err := platformDetailFromMap("dataset_type_mapping", dm)
		if err != nil {
			return err
		}
		entries[kind] = DatasetTypeEntry{Detail: detail}
	}

	c.DatasetTypeMapping = entries
	c.datasetTypeMappingSet = true
	return nil
}

func assignServerToPlatformInstance(c *ConnectorConfig, v interface{}) error {
	m, ok := asMap(v)
	if !ok {
		return pbierrors.NewTypeError("server_to_platform_instance", "mapping of string to platform detail")
	}

	servers := make(map[string]PlatformDetail, len(m))
	for server, raw := range m {
		dm, ok := asMap(raw)
		if !ok {
			return pbierrors.NewTypeError("server_to_platform_instance", "mapping of string to platform detail")
		}
		detail, err := platformDetailFromMap("server_to_platform_instance", dm)
		if err != nil {
			return err
		}
		servers[server] = *detail
	}

	c.ServerToPlatformInstance = servers
	return nil
}

// platformDetailFromMap parses a nested platform detail object. The env
// default is applied here so every PlatformDetail in the validated
// configuration carries a concrete environment.
func platformDetailFromMap(field string, m map[string]interface{}) (*PlatformDetail, error) {
	detail := &PlatformDetail{Env: DefaultEnv}
	if raw, ok := m["platform_instance"]; ok && raw != nil {
		s, ok := raw.(string)
		if !ok {
			return nil, pbierrors.NewTypeError(field+".platform_instance", "string")
		}
		detail.PlatformInstance = s
	}
	if raw, ok := m["env"]; ok && raw != nil {
		s, ok := raw.(string)
		if !ok {
			return nil, pbierrors.NewTypeError(field+".env", "string")
		}
		detail.Env = s
	}
	return detail, nil
}

// asMap normalizes the mapping shapes YAML and JSON decoders produce.
func asMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(m))
		for k, val := range m {
			s, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[s] = val
		}
		return out, true
	default:
		return nil, false
	}
}

func asStringSlice(v interface{}) ([]string, bool) {
	switch s := v.(type) {
	case []string:
		return append([]string(nil), s...), true
	case []interface{}:
		out := make([]string, 0, len(s))
		for _, item := range s {
			str, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, str)
		}
		return out, true
	default:
		return nil, false
	}
}
