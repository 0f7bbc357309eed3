package mapper

import (
	"github.com/opencatalog/powerbi-connector/pkg/config"
	"github.com/opencatalog/powerbi-connector/pkg/powerbi"
)

// Upstream is a resolved lineage edge target: the catalog platform the
// datasource maps to plus its instance and environment.
type Upstream struct {
	Platform string
	Detail   config.PlatformDetail
}

// ResolveUpstream maps a PowerBI datasource to its catalog platform.
//
// The platform name comes from the supported-platform table. The instance
// and environment come from server_to_platform_instance keyed by the
// datasource server; the deprecated dataset_type_mapping is consulted only
// when server_to_platform_instance was never set. Returns false for
// datasource kinds the connector cannot resolve.
func ResolveUpstream(cfg *config.ConnectorConfig, ds powerbi.Datasource) (Upstream, bool) {
	pair, ok := config.LookupPlatform(ds.DatasourceType)
	if !ok {
		return Upstream{}, false
	}

	up := Upstream{
		Platform: pair.CatalogName,
		Detail:   config.PlatformDetail{Env: config.DefaultEnv},
	}

	server := ds.ConnectionDetails.Server
	if server == "" {
		// BigQuery datasources identify the project instead of a server.
		server = ds.ConnectionDetails.Project
	}

	if len(cfg.ServerToPlatformInstance) > 0 {
		if detail, ok := cfg.ServerToPlatformInstance[server]; ok {
			up.Detail = detail
		}
		return up, true
	}

	if entry, ok := cfg.DatasetTypeMapping[ds.DatasourceType]; ok {
		if entry.CatalogPlatform != "" {
			up.Platform = entry.CatalogPlatform
		}
		if entry.Detail != nil {
			up.Detail = *entry.Detail
		}
		return up, true
	}

	return up, true
}
